package ragapi

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChatMessage is one history turn as the backend expects it.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	QdrantConnected  bool   `json:"qdrant_connected"`
	OpenAIConfigured bool   `json:"openai_configured"`
	CohereConfigured bool   `json:"cohere_configured"`
	Timestamp        string `json:"timestamp"`
}

type DocumentUploadResponse struct {
	Success          bool    `json:"success"`
	DocumentId       string  `json:"document_id"`
	Title            string  `json:"title"`
	ChunksCreated    int     `json:"chunks_created"`
	LinksExtracted   int     `json:"links_extracted"`
	ImagesExtracted  int     `json:"images_extracted"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type TextProcessRequest struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

type QueryRequest struct {
	Query       string        `json:"query"`
	SessionId   string        `json:"session_id,omitempty"`
	ChatHistory []ChatMessage `json:"chat_history"`
}

// QueryResult carries the answer text plus the untouched response body.
type QueryResult struct {
	Answer string
	Raw    json.RawMessage
}

// Client is the contract of the external RAG backend.
type Client interface {
	HealthCheck(ctx context.Context) (*HealthResponse, error)
	UploadDocument(ctx context.Context, file []byte, filename, title string) (*DocumentUploadResponse, error)
	ProcessText(ctx context.Context, text, title string) (*DocumentUploadResponse, error)
	SendQuery(ctx context.Context, query string, history []ChatMessage, sessionId string) (*QueryResult, error)
	DeleteDocumentChunks(ctx context.Context, documentId string) error
}

// APIError is a non-2xx reply. Detail holds the server's human-readable
// reason when it sent one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("rag api error: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("rag api error: status %d", e.StatusCode)
}
