package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/events"
	"ragchat-be/pkg/rag/session"
	"ragchat-be/pkg/ragapi"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestionBus(t *testing.T, store *session.Manager, rag *fakeRAG) IPublisherService {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	consumer := NewConsumerService(pubSub, DocumentIngestedTopic, store, rag, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(context.Background()))
	return NewPublisherService(DocumentIngestedTopic, pubSub)
}

func TestUploadAttachesDocumentToSession(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{uploadRes: &ragapi.DocumentUploadResponse{
		Success:       true,
		DocumentId:    "doc-42",
		Title:         "Employee Handbook",
		ChunksCreated: 12,
	}}
	ds := NewDocumentService(store, rag, newIngestionBus(t, store, rag), nil, logger.NewNopLogger())
	id := store.CurrentID()

	doc, err := ds.Upload(context.Background(), id, "handbook.pdf", []byte("%PDF-1.7"), "")

	require.NoError(t, err)
	assert.Equal(t, "doc-42", doc.Id)
	assert.Equal(t, 12, doc.ChunksCreated)

	s, _ := store.Get(id)
	require.Len(t, s.Documents, 1)
	assert.Equal(t, "Employee Handbook", s.Documents[0].Title)
}

func TestIngestTextFallsBackToDefaultTitle(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{uploadRes: &ragapi.DocumentUploadResponse{Success: true, DocumentId: "doc-7", ChunksCreated: 1}}
	ds := NewDocumentService(store, rag, newIngestionBus(t, store, rag), nil, logger.NewNopLogger())
	id := store.CurrentID()

	doc, err := ds.IngestText(context.Background(), id, &dto.ProcessTextRequest{Text: "some notes"})

	require.NoError(t, err)
	assert.Equal(t, "Pasted text", doc.Title)
	s, _ := store.Get(id)
	assert.Len(t, s.Documents, 1)
}

func TestUploadValidation(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{}
	ds := NewDocumentService(store, rag, newIngestionBus(t, store, rag), nil, logger.NewNopLogger())

	_, err := ds.Upload(context.Background(), "missing", "a.txt", []byte("x"), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = ds.Upload(context.Background(), store.CurrentID(), "a.txt", nil, "")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ds.IngestText(context.Background(), store.CurrentID(), &dto.ProcessTextRequest{Text: "  "})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	assert.Zero(t, rag.uploads)
}

func TestUploadFailureSurfacesBackendDetail(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{uploadErr: &ragapi.APIError{StatusCode: 400, Detail: "Unsupported file type: .exe"}}
	ds := NewDocumentService(store, rag, newIngestionBus(t, store, rag), nil, logger.NewNopLogger())
	id := store.CurrentID()

	_, err := ds.Upload(context.Background(), id, "setup.exe", []byte("MZ"), "")

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "Unsupported file type: .exe", backendErr.Error())
	s, _ := store.Get(id)
	assert.Empty(t, s.Documents)
}

func TestConsumerDropsChunksOfDeletedSession(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{}
	publisher := newIngestionBus(t, store, rag)

	payload, err := json.Marshal(dto.DocumentIngestedMessage{
		SessionId: "gone",
		Document:  dto.DocumentResponse{Id: "doc-orphan", Title: "late upload"},
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	require.Eventually(t, func() bool {
		rag.mu.Lock()
		defer rag.mu.Unlock()
		return len(rag.deleted) == 1 && rag.deleted[0] == "doc-orphan"
	}, time.Second, 5*time.Millisecond)
}

func TestConsumerAcksMalformedPayload(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{}
	publisher := newIngestionBus(t, store, rag)

	done := make(chan error, 1)
	go func() { done <- publisher.Publish(context.Background(), []byte("{not json")) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish did not return; malformed message was not acked")
	}
	s, _ := store.Get(store.CurrentID())
	assert.Empty(t, s.Documents)
}

func TestHealthProxiesBackend(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{}
	ds := NewDocumentService(store, rag, newIngestionBus(t, store, rag), nil, logger.NewNopLogger())

	res, err := ds.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "healthy", res.Status)
	assert.True(t, res.QdrantConnected)
}

func TestForwardPayloadFeedsIngestionBus(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{}
	forward := ForwardPayload(newIngestionBus(t, store, rag))
	id := store.CurrentID()

	err := forward(context.Background(), events.New(events.DocumentIngested, map[string]interface{}{
		"session_id": id,
		"document":   map[string]interface{}{"id": "doc-ext", "title": "Batch import", "chunks_created": 3},
	}))

	require.NoError(t, err)
	s, _ := store.Get(id)
	require.Len(t, s.Documents, 1)
	assert.Equal(t, "doc-ext", s.Documents[0].Id)
	assert.Equal(t, 3, s.Documents[0].ChunksCreated)
}

func TestIngestionFailuresReachErrorSlot(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{uploadErr: errors.New("connection reset by peer")}
	conversation := newTestConversation(store, rag, false)
	ds := NewDocumentService(store, rag, newIngestionBus(t, store, rag), conversation, logger.NewNopLogger())

	_, err := ds.Upload(context.Background(), store.CurrentID(), "notes.txt", []byte("x"), "")

	require.Error(t, err)
	assert.Equal(t, "connection reset by peer", conversation.LastError())
}
