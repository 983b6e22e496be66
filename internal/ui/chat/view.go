// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/necx/necx-tui/internal/model"
	"github.com/necx/necx-tui/internal/ui/styles"
	"github.com/necx/necx-tui/internal/util"
)

// Empty-state and prompt texts.
const (
	hintPickSelf     = "Select who you are to get started."
	hintPickPeer     = "Select someone to chat with."
	hintNoMessages   = "No messages yet. Say hello!"
	hintNoResults    = "No messages match your search."
	hintShortQuery   = "Type at least 2 characters to search."
	hintComposerOff  = "Select who you are and who to chat with to start messaging."
	hintNoUsers      = "No users yet. Press n to add one."
	loadingMessages  = "Loading messages..."
	loadingUsers     = "Loading users..."
	sendingIndicator = "Sending"
)

// Fixed line budgets of the main pane.
const (
	composerLines = 5 // border + textarea + counter
	headerLines   = 2
	footerLines   = 2 // status + help
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) sidebarWidth() int {
	switch {
	case m.width < 60:
		return 0
	case m.width < 100:
		return 26
	default:
		return 32
	}
}

// narrowSidebar reports whether the sidebar replaces the main pane. Narrow
// terminals show one of the two at a time.
func (m Model) narrowSidebar() bool {
	return m.sidebarWidth() == 0 && (m.focus == FocusSelf || m.focus == FocusPeers || m.focus == FocusNewUser)
}

func (m Model) mainWidth() int {
	w := m.width - m.sidebarWidth()
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) searchLines() int {
	if m.focus == FocusSearch || m.query != "" {
		return 1
	}
	return 0
}

// layout sizes the viewport and inputs to the current dimensions.
func (m *Model) layout() {
	w := m.mainWidth()
	h := m.height - headerLines - composerLines - footerLines - m.searchLines()
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.composer.SetWidth(w - 2)
	m.search.Width = w - 12
	if sw := m.sidebarWidth(); sw > 6 {
		m.newUser.Width = sw - 6
	} else {
		m.newUser.Width = 20
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat page.
func (m Model) View() string {
	if m.narrowSidebar() {
		return m.viewSidebar(m.width)
	}

	main := m.viewMain()
	if sw := m.sidebarWidth(); sw > 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(sw), main)
	}
	return main
}

// viewSidebar renders the "You are:" and "Chat with:" lists.
func (m Model) viewSidebar(width int) string {
	t := m.theme
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder

	b.WriteString(t.PaneTitle.Render("You are:"))
	b.WriteString("\n")
	switch {
	case m.snap.Status.Users.Loading && len(m.snap.Users) == 0:
		b.WriteString(m.spinner.View() + " " + t.Label.Render(loadingUsers) + "\n")
	case m.snap.Status.Users.Error != "":
		b.WriteString(t.ErrorText.Render(util.Truncate("Error: "+m.snap.Status.Users.Error, inner)) + "\n")
		b.WriteString(t.HelpDesc.Render("r to retry") + "\n")
	case len(m.snap.Users) == 0:
		b.WriteString(t.EmptyState.Render(hintNoUsers) + "\n")
	}
	for i, u := range m.snap.Users {
		b.WriteString(m.renderUserRow(u, model.SameUser(&u, m.snap.CurrentUser), m.focus == FocusSelf && i == m.selfCursor, inner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(t.PaneTitle.Render("Chat with:"))
	b.WriteString("\n")
	peers := m.peers()
	if len(peers) == 0 && len(m.snap.Users) > 0 {
		b.WriteString(t.EmptyState.Render("Nobody else here yet.") + "\n")
	}
	for i, u := range peers {
		b.WriteString(m.renderUserRow(u, model.SameUser(&u, m.snap.SelectedUser), m.focus == FocusPeers && i == m.peerCursor, inner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.focus == FocusNewUser {
		b.WriteString(m.newUser.View())
		b.WriteString("\n")
		count := model.CharCount(m.newUser.Value())
		b.WriteString(t.CharCount.Render(fmt.Sprintf("%d/%d", count, model.MaxNameLength)))
	} else {
		b.WriteString(t.HelpKey.Render("n") + " " + t.HelpDesc.Render("new user"))
	}

	style := t.Pane
	if m.focus == FocusSelf || m.focus == FocusPeers || m.focus == FocusNewUser {
		style = t.PaneFocused
	}
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return style.Width(width - 2).Height(h).Render(b.String())
}

func (m Model) renderUserRow(u model.User, selected, cursor bool, width int) string {
	t := m.theme
	marker := "  "
	if selected {
		marker = "* "
	}
	label := util.Truncate(marker+u.Name, width-2)
	switch {
	case cursor:
		return t.ListItemCursor.Render(util.PadRight(label, width-2))
	case selected:
		return t.ListItemSelected.Render(label)
	default:
		return t.ListItem.Render(label)
	}
}

// viewMain renders the conversation pane.
func (m Model) viewMain() string {
	t := m.theme
	w := m.mainWidth()

	parts := []string{m.viewChatHeader(w)}
	if m.searchLines() > 0 {
		parts = append(parts, m.viewSearch())
	}
	parts = append(parts, m.viewBody(), m.viewStatus(w), m.viewComposer(w))
	parts = append(parts, renderHelp(t, m.keys.helpFor(m.focus)))

	page := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.confirm.Open() {
		return lipgloss.Place(w, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}
	return page
}

func (m Model) viewChatHeader(width int) string {
	t := m.theme
	self, peer := "nobody", "nobody"
	if m.snap.CurrentUser != nil {
		self = m.snap.CurrentUser.Name
	}
	if m.snap.SelectedUser != nil {
		peer = m.snap.SelectedUser.Name
	}
	line := t.Label.Render("Chatting as: ") + t.StatsValue.Render(self) +
		t.Label.Render("   with: ") + t.StatsValue.Render(peer)
	return lipgloss.NewStyle().Width(width).Render(line) + "\n"
}

func (m Model) viewSearch() string {
	t := m.theme
	line := m.search.View()
	if m.search.Value() != "" && !m.queryActive() && m.query == m.search.Value() {
		line += "  " + t.HelpDesc.Render(hintShortQuery)
	}
	if msgs, searching := m.visibleMessages(); searching {
		line += "  " + t.StatsLabel.Render(strconv.Itoa(len(msgs))+" found")
	}
	return line
}

// viewBody renders the message list or the matching empty state.
func (m Model) viewBody() string {
	t := m.theme
	conv := m.snap.Conversation()
	status := m.snap.Status.Messages
	msgs, searching := m.visibleMessages()

	var hint string
	switch {
	case m.snap.CurrentUser == nil:
		hint = hintPickSelf
	case m.snap.SelectedUser == nil:
		hint = hintPickPeer
	case status.Error != "" && len(m.snap.Messages) == 0:
		hint = t.ErrorText.Render("Error: "+status.Error) + "\n" + t.HelpDesc.Render("Press r to retry")
	case status.Loading && len(m.snap.Messages) == 0:
		hint = m.spinner.View() + " " + loadingMessages
	case searching && len(msgs) == 0:
		hint = hintNoResults
	case conv.Valid() && len(msgs) == 0:
		hint = hintNoMessages
	}
	if hint != "" {
		return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, t.EmptyState.Render(hint))
	}
	return m.viewport.View()
}

// viewStatus renders the line between the list and the composer: inline
// errors, the send spinner, or nothing.
func (m Model) viewStatus(width int) string {
	t := m.theme
	st := m.snap.Status
	switch {
	case st.SendMessage.Loading:
		return m.spinner.View() + " " + t.Label.Render(sendingIndicator)
	case st.SendMessage.Error != "":
		return t.ErrorText.Render(util.Truncate("Error: "+st.SendMessage.Error, width))
	case st.Messages.Error != "" && len(m.snap.Messages) > 0:
		return t.ErrorText.Render(util.Truncate("Error: "+st.Messages.Error+" (r to retry)", width))
	case st.Messages.Loading && len(m.snap.Messages) > 0:
		return m.spinner.View() + " " + t.Label.Render("Refreshing")
	}
	return ""
}

func (m Model) viewComposer(width int) string {
	t := m.theme
	if !m.snap.Conversation().Valid() {
		return t.InputContainer.Width(width).Render(t.InputDisabled.Render(hintComposerOff) + "\n\n")
	}

	count := model.CharCount(m.composer.Value())
	counter := fmt.Sprintf("%d/%d", count, model.MaxMessageLength)
	switch {
	case count >= model.MaxMessageLength:
		counter = t.CharCountDanger.Render(counter)
	case count >= model.MaxMessageLength*9/10:
		counter = t.CharCountWarning.Render(counter)
	default:
		counter = t.CharCount.Render(counter)
	}
	if m.editing != "" {
		counter = t.EditedMarker.Render("editing  ") + counter
	}

	body := m.composer.View() + "\n" + lipgloss.PlaceHorizontal(width, lipgloss.Right, counter)
	return t.InputContainer.Width(width).Render(body)
}

// =============================================================================
// MESSAGE LIST RENDERING
// =============================================================================

// refreshViewport re-renders the message list into the viewport. With
// toBottom the cursor moves to the newest message.
func (m *Model) refreshViewport(toBottom bool) {
	m.layout()
	msgs, _ := m.visibleMessages()
	if toBottom && len(msgs) > 0 {
		m.msgCursor = len(msgs) - 1
	}
	m.msgCursor = clamp(m.msgCursor, len(msgs))

	wasAtBottom := m.viewport.AtBottom()
	content, starts := m.renderMessages(msgs)
	m.viewport.SetContent(content)

	switch {
	case toBottom || (wasAtBottom && m.focus != FocusMessages):
		m.viewport.GotoBottom()
	case len(starts) > 0:
		m.scrollToCursor(starts)
	}
}

// scrollToCursor keeps the selected message inside the viewport.
func (m *Model) scrollToCursor(starts []int) {
	i := m.msgCursor
	top := starts[i]
	bottom := m.viewport.TotalLineCount()
	if i+1 < len(starts) {
		bottom = starts[i+1]
	}
	switch {
	case top < m.viewport.YOffset:
		m.viewport.SetYOffset(top)
	case bottom > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

// renderMessages renders msgs and returns the first line of each.
func (m Model) renderMessages(msgs []model.Message) (string, []int) {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	bubbleWidth := width * 7 / 10
	if bubbleWidth < 20 {
		bubbleWidth = width
	}

	starts := make([]int, 0, len(msgs))
	blocks := make([]string, 0, len(msgs))
	line := 0
	for i, msg := range msgs {
		selected := m.focus == FocusMessages && i == m.msgCursor
		block := m.renderMessage(msg, width, bubbleWidth, selected)
		starts = append(starts, line)
		line += lipgloss.Height(block) + 1
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), starts
}

func (m Model) renderMessage(msg model.Message, width, bubbleWidth int, selected bool) string {
	t := m.theme
	own := msg.IsOwnedBy(m.snap.CurrentUser)

	sender := msg.Sender
	if own {
		sender = "You"
	}
	meta := sender
	if ts := msg.DisplayTime(); !ts.IsZero() {
		meta += " · " + ts.Local().Format("Jan 2 15:04")
	}
	metaLine := t.MessageMeta.Render(meta)
	if msg.IsEdited {
		metaLine += " " + t.EditedMarker.Render("(edited)")
	}

	body := m.markdown.Render(msg.Content, bubbleWidth-4)
	if m.queryActive() && body == msg.Content {
		body = highlight(body, strings.TrimSpace(m.query), t.Highlight)
	}

	bubble := t.PeerBubble
	if own {
		bubble = t.OwnBubble
	}
	if selected {
		bubble = bubble.BorderForeground(styles.Cyan)
	}
	rendered := bubble.MaxWidth(bubbleWidth).Width(min(bubbleWidth, util.Width(msg.Content)+4)).Render(body)

	block := lipgloss.JoinVertical(lipgloss.Left, metaLine, rendered)
	if own {
		block = lipgloss.JoinVertical(lipgloss.Right, metaLine, rendered)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	return block
}

// highlight wraps each case-insensitive occurrence of query in style.
// Texts whose lower-case form changes byte length are returned as is.
func highlight(text, query string, style lipgloss.Style) string {
	if query == "" {
		return text
	}
	lower := strings.ToLower(text)
	q := strings.ToLower(query)
	if len(lower) != len(text) {
		return text
	}

	var b strings.Builder
	for {
		i := strings.Index(lower, q)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(style.Render(text[i : i+len(q)]))
		text, lower = text[i+len(q):], lower[i+len(q):]
	}
}
