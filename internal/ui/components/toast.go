// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/necx/necx-tui/internal/ui/styles"
	"github.com/necx/necx-tui/internal/util"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast (cyan color)
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast (rose/red color)
	ToastKindError
	// ToastKindWarning is a warning toast (amber color)
	ToastKindWarning
	// ToastKindSuccess is a success toast (emerald color)
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status and success toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

// WarningToastDuration is the auto-dismiss duration for warning toasts.
const WarningToastDuration = 6 * time.Second

// MaxToasts is the number of toasts kept on screen at once.
const MaxToasts = 5

// ToastTickInterval is how often expired toasts are swept.
const ToastTickInterval = 100 * time.Millisecond

// =============================================================================
// TOAST
// =============================================================================

// Toast is a non-blocking notification. It appears in the top-right corner
// and dismisses itself.
type Toast struct {
	ID        int
	Title     string
	Detail    string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast of the given kind with that kind's duration.
func NewToast(kind ToastKind, title, detail string) Toast {
	d := DefaultToastDuration
	switch kind {
	case ToastKindError:
		d = ErrorToastDuration
	case ToastKindWarning:
		d = WarningToastDuration
	}
	return Toast{
		Title:     title,
		Detail:    detail,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// IsExpired returns true if the toast should be dismissed.
func (t Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// TimeRemaining returns how much time is left before auto-dismiss.
func (t Toast) TimeRemaining() time.Duration {
	remaining := t.Duration - time.Since(t.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts. It is safe for concurrent use, so
// store operations running in commands can notify through it directly.
type ToastManager struct {
	mutex     sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates a new toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{
		toasts:    make([]Toast, 0),
		nextID:    1,
		maxToasts: MaxToasts,
	}
}

// Add shows a toast and returns its id. Newest toasts come first and the
// oldest are dropped past MaxToasts.
func (m *ToastManager) Add(toast Toast) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	toast.ID = m.nextID
	m.nextID++
	if toast.CreatedAt.IsZero() {
		toast.CreatedAt = time.Now()
	}

	m.toasts = append([]Toast{toast}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return toast.ID
}

// Success shows a success toast.
func (m *ToastManager) Success(title, detail string) {
	m.Add(NewToast(ToastKindSuccess, title, detail))
}

// Error shows an error toast.
func (m *ToastManager) Error(title, detail string) {
	m.Add(NewToast(ToastKindError, title, detail))
}

// Warning shows a warning toast.
func (m *ToastManager) Warning(title, detail string) {
	m.Add(NewToast(ToastKindWarning, title, detail))
}

// Status shows an informational toast.
func (m *ToastManager) Status(title, detail string) {
	m.Add(NewToast(ToastKindStatus, title, detail))
}

// Remove dismisses a toast by id.
func (m *ToastManager) Remove(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, toast := range m.toasts {
		if toast.ID == id {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast, if any.
func (m *ToastManager) DismissNewest() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Tick removes expired toasts and returns a copy of the remaining ones.
func (m *ToastManager) Tick() []Toast {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	active := make([]Toast, 0, len(m.toasts))
	for _, toast := range m.toasts {
		if !toast.IsExpired() {
			active = append(active, toast)
		}
	}
	m.toasts = active

	out := make([]Toast, len(active))
	copy(out, active)
	return out
}

// Toasts returns a copy of the current toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result := make([]Toast, len(m.toasts))
	copy(result, m.toasts)
	return result
}

// HasToasts returns true if there are any active toasts.
func (m *ToastManager) HasToasts() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.toasts) > 0
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.toasts = make([]Toast, 0)
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to sweep expired toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd returns a command that ticks toasts every ToastTickInterval.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(ToastTickInterval, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast notification.
func RenderToast(toast Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var accent lipgloss.AdaptiveColor
	var icon string
	switch toast.Kind {
	case ToastKindError:
		accent, icon = styles.Rose, styles.StatusIndicators.Error
	case ToastKindWarning:
		accent, icon = styles.Amber, styles.StatusIndicators.Warning
	case ToastKindSuccess:
		accent, icon = styles.Emerald, styles.StatusIndicators.Success
	default:
		accent, icon = styles.Cyan, styles.StatusIndicators.Info
	}

	textWidth := maxWidth - 8
	iconStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	titleStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true)
	detailStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(textWidth)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	lines := []string{iconStyle.Render(icon+" ") + titleStyle.Render(util.Truncate(toast.Title, textWidth))}
	if toast.Detail != "" {
		lines = append(lines, detailStyle.Render(toast.Detail))
	}

	hints := []string{"[C-x] Dismiss"}
	if secs := int(toast.TimeRemaining().Seconds()); secs > 0 {
		hints = append(hints, strconv.Itoa(secs)+"s")
	}
	lines = append(lines, hintStyle.Render(strings.Join(hints, "  ")))

	box := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 2).
		MaxWidth(maxWidth)

	return box.Render(strings.Join(lines, "\n"))
}

// RenderToastStack renders toasts stacked vertically, newest on top,
// aligned to the right edge of the given width.
func RenderToastStack(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		rendered = append(rendered, RenderToast(toast, width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right,
			lipgloss.NewStyle().MarginRight(1).Render(stack))
	}
	return stack
}
