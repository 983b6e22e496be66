// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-memory messaging backend for tests.
//
// The server speaks the same REST surface and envelope as the real backend
// and adds hooks for fault injection, per-request delays, and hit counting,
// so callers can reproduce failures and response reordering on demand.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/necx/necx-tui/internal/model"
)

// =============================================================================
// TYPES
// =============================================================================

// Fault forces a response for one route.
type Fault struct {
	// Status, when non-zero, is returned with a failure envelope.
	Status int
	// Unsuccessful returns 200 with success=false when Status is zero.
	Unsuccessful bool
	// Message is placed in the failure envelope.
	Message string
}

// Request describes an incoming call to delay hooks.
type Request struct {
	Method string
	Route  string // gin route without the /api prefix, e.g. "/messages/between"
	Query  map[string]string
}

// DelayFunc returns how long to hold a request before handling it.
type DelayFunc func(Request) time.Duration

// Server is a fake backend served over a real loopback listener.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	users    []model.User
	messages []model.Message
	faults   map[string]Fault
	hits     map[string]int
	delay    DelayFunc
}

// New starts a fake backend and stops it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		faults: make(map[string]Fault),
		hits:   make(map[string]int),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	group := router.Group("/api", s.intercept)
	group.GET("/health", s.health)

	group.GET("/users", s.listUsers)
	group.GET("/users/:id", s.getUser)
	group.POST("/users", s.createUser)
	group.PUT("/users/:id", s.updateUser)
	group.DELETE("/users/:id", s.deleteUser)

	group.GET("/messages", s.listMessages)
	group.GET("/messages/between", s.messagesBetween)
	group.GET("/messages/:id", s.getMessage)
	group.POST("/messages", s.createMessage)
	group.PUT("/messages/:id", s.updateMessage)
	group.DELETE("/messages/:id", s.deleteMessage)

	s.srv = httptest.NewServer(router)
	tb.Cleanup(s.Close)
	return s
}

// URL returns the API root, including the /api prefix.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

// Close stops the server.
func (s *Server) Close() {
	s.srv.Close()
}

// =============================================================================
// FIXTURES AND HOOKS
// =============================================================================

// AddUser stores a user and returns it.
func (s *Server) AddUser(name string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: newID(), Name: name, CreatedAt: now()}
	s.users = append(s.users, u)
	return u
}

// AddMessage stores a message and returns it.
func (s *Server) AddMessage(sender, recipient, content string) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMessage(sender, recipient, content)
}

// Users returns a copy of the stored users.
func (s *Server) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.users...)
}

// Messages returns a copy of the stored messages.
func (s *Server) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

// Fail forces every call to method+route to return the fault.
func (s *Server) Fail(method, route string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+route] = f
}

// Recover removes a fault installed with Fail.
func (s *Server) Recover(method, route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, method+" "+route)
}

// SetDelay installs a hook that holds requests before they are handled.
func (s *Server) SetDelay(fn DelayFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = fn
}

// Hits returns how many calls reached method+route.
func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+route]
}

// TotalHits returns the number of calls across all routes.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// intercept counts the hit, applies the delay hook, and short-circuits faults.
func (s *Server) intercept(c *gin.Context) {
	route := strings.TrimPrefix(c.FullPath(), "/api")
	key := c.Request.Method + " " + route

	s.mu.Lock()
	s.hits[key]++
	fault, faulted := s.faults[key]
	delay := s.delay
	s.mu.Unlock()

	if delay != nil {
		query := make(map[string]string)
		for k, v := range c.Request.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
		if d := delay(Request{Method: c.Request.Method, Route: route, Query: query}); d > 0 {
			select {
			case <-time.After(d):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
	}

	if faulted {
		msg := fault.Message
		if msg == "" {
			msg = "injected failure"
		}
		status := fault.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
		return
	}
	c.Next()
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server is running", "data": gin.H{"status": "ok"}})
}

func (s *Server) listUsers(c *gin.Context) {
	ok(c, http.StatusOK, s.Users())
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	u := model.FindUser(s.users, c.Param("id"))
	s.mu.Unlock()
	if u == nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	ok(c, http.StatusOK, u)
}

type userBody struct {
	Name string `json:"name"`
}

func (s *Server) createUser(c *gin.Context) {
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		fail(c, http.StatusBadRequest, "Name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == body.Name {
			fail(c, http.StatusConflict, "User already exists")
			return
		}
	}
	u := model.User{ID: newID(), Name: body.Name, CreatedAt: now()}
	s.users = append(s.users, u)
	ok(c, http.StatusCreated, u)
}

func (s *Server) updateUser(c *gin.Context) {
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		fail(c, http.StatusBadRequest, "Name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == c.Param("id") {
			s.users[i].Name = body.Name
			ok(c, http.StatusOK, s.users[i])
			return
		}
	}
	fail(c, http.StatusNotFound, "User not found")
}

func (s *Server) deleteUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == c.Param("id") {
			s.users = append(s.users[:i:i], s.users[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
			return
		}
	}
	fail(c, http.StatusNotFound, "User not found")
}

func (s *Server) listMessages(c *gin.Context) {
	ok(c, http.StatusOK, s.Messages())
}

func (s *Server) messagesBetween(c *gin.Context) {
	user1, user2 := c.Query("user1"), c.Query("user2")
	if user1 == "" || user2 == "" {
		fail(c, http.StatusBadRequest, "Both user1 and user2 are required")
		return
	}

	s.mu.Lock()
	out := make([]model.Message, 0)
	for _, m := range s.messages {
		if m.Involves(user1, user2) {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	ok(c, http.StatusOK, out)
}

func (s *Server) getMessage(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.messageIndex(c.Param("id")); i >= 0 {
		ok(c, http.StatusOK, s.messages[i])
		return
	}
	fail(c, http.StatusNotFound, "Message not found")
}

type messageBody struct {
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

func (s *Server) createMessage(c *gin.Context) {
	var body messageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.Content) == "" || body.Sender == "" || body.Recipient == "" {
		fail(c, http.StatusBadRequest, "Content, sender and recipient are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ok(c, http.StatusCreated, s.insertMessage(body.Sender, body.Recipient, body.Content))
}

func (s *Server) updateMessage(c *gin.Context) {
	var body messageBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		fail(c, http.StatusBadRequest, "Content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.messageIndex(c.Param("id"))
	if i < 0 {
		fail(c, http.StatusNotFound, "Message not found")
		return
	}
	s.messages[i].Content = body.Content
	s.messages[i].IsEdited = true
	s.messages[i].UpdatedAt = now()
	ok(c, http.StatusOK, s.messages[i])
}

func (s *Server) deleteMessage(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.messageIndex(c.Param("id"))
	if i < 0 {
		fail(c, http.StatusNotFound, "Message not found")
		return
	}
	s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message deleted successfully"})
}

// =============================================================================
// HELPERS
// =============================================================================

// insertMessage appends a message; the caller holds s.mu.
func (s *Server) insertMessage(sender, recipient, content string) model.Message {
	at := now()
	m := model.Message{
		ID:        newID(),
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		Timestamp: at,
		CreatedAt: at,
		UpdatedAt: at,
	}
	s.messages = append(s.messages, m)
	return m
}

// messageIndex returns the position of the message with id; the caller holds s.mu.
func (s *Server) messageIndex(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// newID returns a 24 character hex id in the shape the real backend uses.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// now returns a UTC time that survives a JSON round trip unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
