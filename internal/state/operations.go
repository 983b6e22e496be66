// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/necx/necx-tui/internal/api"
	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingParticipant is returned when an action needs both the current
	// user and the selected peer and one of them is unset.
	ErrMissingParticipant = errors.New("both current user and recipient must be selected")

	// ErrMessageNotFound is returned when an edit targets a message that is
	// not in the current conversation.
	ErrMessageNotFound = errors.New("message not found")
)

// Notification texts shown to the user.
const (
	titleCannotSend     = "Cannot send message"
	detailCannotSend    = "Both current user and recipient must be selected"
	titleSendFailed     = "Failed to send message"
	titleCreateFailed   = "Failed to create user"
	detailUserCreated   = "The user has been added to your contacts."
	titleUpdateFailed   = "Failed to update message"
	titleMessageUpdated = "Message updated successfully!"
	titleDeleteFailed   = "Failed to delete message"
	titleMessageDeleted = "Message deleted successfully!"
	titleEmptyContent   = "Message content cannot be empty"
)

// =============================================================================
// FETCH OPERATIONS
// =============================================================================

// FetchUsers replaces the user directory with the backend's list.
// On failure the users error is recorded and the list is left as it was.
func (s *Store) FetchUsers(ctx context.Context) error {
	s.dispatch(SetLoading{ResourceUsers, true}, SetError{ResourceUsers, ""})

	users, err := s.api.ListUsers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("fetch users failed")
		s.dispatch(SetError{ResourceUsers, err.Error()}, SetLoading{ResourceUsers, false})
		return err
	}

	s.dispatch(SetUsers{users}, SetLoading{ResourceUsers, false})
	return nil
}

// FetchMessages replaces the message list with the active conversation.
//
// The participants are read when the call starts. When either is unset the
// list is cleared and no request is made. A response that resolves after a
// newer fetch still overwrites the list.
func (s *Store) FetchMessages(ctx context.Context) error {
	conv := s.Snapshot().Conversation()
	if !conv.Valid() {
		s.dispatch(SetMessages{nil}, SetError{ResourceMessages, ""}, SetLoading{ResourceMessages, false})
		return nil
	}

	s.dispatch(SetLoading{ResourceMessages, true}, SetError{ResourceMessages, ""})

	self, peer := conv.Names()
	messages, err := s.api.MessagesBetween(ctx, self, peer)
	if err != nil {
		s.logger.Warn().Err(err).Str("self", self).Str("peer", peer).Msg("fetch messages failed")
		s.dispatch(SetError{ResourceMessages, err.Error()}, SetLoading{ResourceMessages, false})
		return err
	}

	s.logger.Debug().Str("self", self).Str("peer", peer).Int("count", len(messages)).Msg("messages fetched")
	s.dispatch(SetMessages{messages}, SetLoading{ResourceMessages, false})
	return nil
}

// Refresh re-fetches the directory and the active conversation.
func (s *Store) Refresh(ctx context.Context) error {
	return errors.Join(s.FetchUsers(ctx), s.FetchMessages(ctx))
}

// =============================================================================
// MUTATING OPERATIONS
// =============================================================================

// SendMessage posts content from the current user to the selected peer and
// appends the stored message once the backend confirms it.
//
// Without both participants it fails with ErrMissingParticipant before any
// request is made.
func (s *Store) SendMessage(ctx context.Context, content string) (*model.Message, error) {
	conv := s.Snapshot().Conversation()
	if !conv.Valid() {
		s.notifier.Error(titleCannotSend, detailCannotSend)
		s.dispatch(SetError{ResourceSendMessage, ErrMissingParticipant.Error()})
		return nil, ErrMissingParticipant
	}

	body, err := model.ValidateMessageContent(content)
	if err != nil {
		s.notifier.Error(titleCannotSend, err.Error())
		s.dispatch(SetError{ResourceSendMessage, err.Error()})
		return nil, err
	}

	s.dispatch(SetLoading{ResourceSendMessage, true}, SetError{ResourceSendMessage, ""})

	self, peer := conv.Names()
	msg, err := s.api.CreateMessage(ctx, api.MessageInput{
		Content:   body,
		Sender:    self,
		Recipient: peer,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("send message failed")
		s.dispatch(SetError{ResourceSendMessage, err.Error()}, SetLoading{ResourceSendMessage, false})
		s.notifier.Error(titleSendFailed, err.Error())
		return nil, err
	}

	s.dispatch(AddMessage{*msg}, SetLoading{ResourceSendMessage, false})
	return msg, nil
}

// CreateUser creates a user and then re-fetches the whole directory.
// The create response is returned but never inserted into the list directly.
func (s *Store) CreateUser(ctx context.Context, name string) (*model.User, error) {
	name, err := model.ValidateUserName(name)
	if err != nil {
		s.notifier.Error(titleCreateFailed, err.Error())
		return nil, err
	}

	s.dispatch(SetLoading{ResourceUsers, true}, SetError{ResourceUsers, ""})

	created, err := s.api.CreateUser(ctx, api.UserInput{Name: name})
	if err == nil {
		var users []model.User
		users, err = s.api.ListUsers(ctx)
		if err == nil {
			s.dispatch(SetUsers{users}, SetLoading{ResourceUsers, false})
			s.notifier.Success(fmt.Sprintf("User %q created successfully!", name), detailUserCreated)
			return created, nil
		}
	}

	s.logger.Warn().Err(err).Str("name", name).Msg("create user failed")
	s.dispatch(SetError{ResourceUsers, err.Error()}, SetLoading{ResourceUsers, false})
	s.notifier.Error(titleCreateFailed, err.Error())
	return nil, err
}

// EditMessage saves new content for a message and folds the backend's
// record into the list. Unchanged content is a no-op.
func (s *Store) EditMessage(ctx context.Context, id, content string) (*model.Message, error) {
	current := s.findMessage(id)
	if current == nil {
		return nil, ErrMessageNotFound
	}

	trimmed := model.Normalize(content)
	if trimmed == current.Content {
		return current, nil
	}
	body, err := model.ValidateMessageContent(trimmed)
	if err != nil {
		s.notifier.Error(titleEmptyContent, err.Error())
		return nil, err
	}

	updated, err := s.api.UpdateMessage(ctx, id, api.MessageUpdate{Content: body})
	if err != nil {
		s.logger.Warn().Err(err).Str("message_id", id).Msg("update message failed")
		s.notifier.Error(titleUpdateFailed, err.Error())
		return nil, err
	}

	s.UpdateMessage(id, *updated)
	s.notifier.Success(titleMessageUpdated, "")
	return updated, nil
}

// RemoveMessage deletes a message on the backend and then drops it locally.
func (s *Store) RemoveMessage(ctx context.Context, id string) error {
	if err := s.api.DeleteMessage(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("message_id", id).Msg("delete message failed")
		s.notifier.Error(titleDeleteFailed, err.Error())
		return err
	}
	s.DeleteMessage(id)
	s.notifier.Success(titleMessageDeleted, "")
	return nil
}

// =============================================================================
// LOCAL OPERATIONS
// =============================================================================

// SelectUser sets the peer and clears the message list in one transition,
// so no snapshot pairs the new peer with the old conversation.
func (s *Store) SelectUser(user *model.User) {
	s.dispatch(SetSelectedUser{user}, SetMessages{nil})
}

// SetCurrentUser sets who I am. The message list is kept until the next fetch.
func (s *Store) SetCurrentUser(user *model.User) {
	s.dispatch(SetCurrentUser{user})
}

// UpdateMessage folds an already confirmed edit into the list. No request is made.
func (s *Store) UpdateMessage(id string, msg model.Message) {
	s.dispatch(UpdateMessage{ID: id, Message: msg})
}

// DeleteMessage drops an already deleted message from the list. No request is made.
func (s *Store) DeleteMessage(id string) {
	s.dispatch(DeleteMessage{ID: id})
}

// ClearErrors resets the three resource errors.
func (s *Store) ClearErrors() {
	s.dispatch(ClearErrors{})
}

// findMessage returns a copy of the message with id from the current snapshot.
func (s *Store) findMessage(id string) *model.Message {
	for _, m := range s.Snapshot().Messages {
		if m.ID == id {
			c := m
			return &c
		}
	}
	return nil
}
