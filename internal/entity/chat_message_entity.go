package entity

import (
	"encoding/json"
	"time"
)

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

const EvidenceKindRAGQuery = "rag_query_response"

type ChatMessage struct {
	Role       string
	Content    string
	CreatedAt  time.Time
	Evidence   *Evidence
	IsGreeting bool
}

// Evidence is the backend answer payload kept verbatim for answer-detail
// rendering. Nothing in this service reads Raw.
type Evidence struct {
	Kind string          `json:"kind"`
	Raw  json.RawMessage `json:"raw"`
}

// HistoryTurn is the (role, content) pair sent to the backend as context.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func CloneMessages(in []ChatMessage) []ChatMessage {
	if in == nil {
		return nil
	}
	out := make([]ChatMessage, len(in))
	for i, m := range in {
		out[i] = m
		if m.Evidence != nil {
			ev := *m.Evidence
			ev.Raw = append(json.RawMessage(nil), m.Evidence.Raw...)
			out[i].Evidence = &ev
		}
	}
	return out
}
