package entity

import (
	"time"
)

const DefaultSessionTitle = "New conversation"

// ChatSession is one independent conversation: its own documents, the
// message log shown to the user and the reduced history sent to the backend.
type ChatSession struct {
	Id        string
	Title     string
	CreatedAt time.Time
	Documents []Document
	Messages  []ChatMessage
	History   []HistoryTurn
}

// Clone returns a deep copy so callers never alias store-owned slices.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Documents = append([]Document(nil), s.Documents...)
	c.Messages = CloneMessages(s.Messages)
	c.History = append([]HistoryTurn(nil), s.History...)
	return &c
}

// SessionSnapshot is the mirrored view of the whole store.
type SessionSnapshot struct {
	Sessions  []ChatSession `json:"sessions"`
	CurrentId string        `json:"current_id"`
	SavedAt   time.Time     `json:"saved_at"`
}
