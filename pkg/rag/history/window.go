package history

import (
	"ragchat-be/internal/entity"
)

// DefaultWindowSize is three user/assistant pairs.
const DefaultWindowSize = 6

// Window keeps the bounded slice of history sent to the backend. The full
// history stays on the session for display.
type Window struct {
	size int
}

// NewWindow builds a window; non-positive sizes fall back to DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size}
}

func (w *Window) Size() int {
	return w.size
}

// Append returns a new history with turn appended. The input is not modified.
func (w *Window) Append(history []entity.HistoryTurn, turn entity.HistoryTurn) []entity.HistoryTurn {
	out := make([]entity.HistoryTurn, 0, len(history)+1)
	out = append(out, history...)
	return append(out, turn)
}

// Trailing returns a copy of the last Size() turns.
func (w *Window) Trailing(history []entity.HistoryTurn) []entity.HistoryTurn {
	return TrailingWindow(history, w.size)
}

func TrailingWindow(history []entity.HistoryTurn, size int) []entity.HistoryTurn {
	start := 0
	if len(history) > size {
		start = len(history) - size
	}
	return append([]entity.HistoryTurn{}, history[start:]...)
}
