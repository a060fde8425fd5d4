package service

import (
	"context"
	"encoding/json"
	"sync"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/pkg/rag/session"
	"ragchat-be/pkg/ragapi"
)

type sentQuery struct {
	query     string
	history   []ragapi.ChatMessage
	sessionId string
}

type fakeRAG struct {
	mu sync.Mutex

	answer   string
	queryErr error
	block    chan struct{}
	queries  []sentQuery

	uploadRes *ragapi.DocumentUploadResponse
	uploadErr error
	uploads   int

	deleted []string
}

func (f *fakeRAG) HealthCheck(ctx context.Context) (*ragapi.HealthResponse, error) {
	return &ragapi.HealthResponse{Status: "healthy", QdrantConnected: true}, nil
}

func (f *fakeRAG) UploadDocument(ctx context.Context, file []byte, filename, title string) (*ragapi.DocumentUploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadRes, nil
}

func (f *fakeRAG) ProcessText(ctx context.Context, text, title string) (*ragapi.DocumentUploadResponse, error) {
	return f.UploadDocument(ctx, []byte(text), "", title)
}

func (f *fakeRAG) SendQuery(ctx context.Context, query string, history []ragapi.ChatMessage, sessionId string) (*ragapi.QueryResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, sentQuery{query: query, history: history, sessionId: sessionId})
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	raw, _ := json.Marshal(map[string]interface{}{"answer": f.answer, "has_context": true})
	return &ragapi.QueryResult{Answer: f.answer, Raw: raw}, nil
}

func (f *fakeRAG) DeleteDocumentChunks(ctx context.Context, documentId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentId)
	return nil
}

func (f *fakeRAG) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeRAG) lastQuery() sentQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func newTestStore() *session.Manager {
	m := session.NewManager(memory.NewSessionRepository(), session.Options{Logger: logger.NewNopLogger()})
	m.Init(nil, false)
	return m
}

func addTestDocument(m *session.Manager, id string) {
	_ = m.AddDocument(id, entity.Document{Id: "doc-1", Title: "Handbook", ChunksCreated: 4})
}
