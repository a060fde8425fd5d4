package dto

import (
	"encoding/json"
	"time"
)

type SessionSummaryResponse struct {
	Id            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int       `json:"document_count"`
	MessageCount  int       `json:"message_count"`
	IsCurrent     bool      `json:"is_current"`
}

type GetAllSessionsResponse struct {
	CurrentSessionId string                    `json:"current_session_id"`
	Sessions         []*SessionSummaryResponse `json:"sessions"`
}

type SessionDetailResponse struct {
	Id        string                `json:"id"`
	Title     string                `json:"title"`
	CreatedAt time.Time             `json:"created_at"`
	IsCurrent bool                  `json:"is_current"`
	Documents []DocumentResponse    `json:"documents"`
	Messages  []ChatMessageResponse `json:"messages"`
	History   []HistoryTurnResponse `json:"history"`
	Draft     string                `json:"draft"`
}

type ChatMessageResponse struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	CreatedAt  time.Time         `json:"created_at"`
	IsGreeting bool              `json:"is_greeting,omitempty"`
	Evidence   *EvidenceResponse `json:"evidence,omitempty"`
}

// EvidenceResponse passes the backend payload through untouched.
type EvidenceResponse struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type HistoryTurnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SubmitQueryRequest struct {
	Query string `json:"query"`
}

type SubmitQueryResponse struct {
	SessionId    string               `json:"session_id"`
	SessionTitle string               `json:"title"`
	Sent         *ChatMessageResponse `json:"sent"`
	Reply        *ChatMessageResponse `json:"reply"`
	Greeting     bool                 `json:"greeting"`
}

type UpdateDraftRequest struct {
	Text string `json:"text"`
}

type ConversationStateResponse struct {
	CurrentSessionId string   `json:"current_session_id"`
	LoadingSessions  []string `json:"loading_sessions"`
	Error            string   `json:"error,omitempty"`
}
