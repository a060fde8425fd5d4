package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/ragapi"
)

const documentModule = "DocumentService"

type SessionLookup interface {
	Get(id string) (*entity.ChatSession, bool)
}

// ErrorReporter receives failures that should reach the shared error slot.
type ErrorReporter interface {
	ReportError(err error)
}

type IDocumentService interface {
	Upload(ctx context.Context, sessionId string, filename string, content []byte, title string) (*dto.DocumentResponse, error)
	IngestText(ctx context.Context, sessionId string, request *dto.ProcessTextRequest) (*dto.DocumentResponse, error)
	Health(ctx context.Context) (*dto.HealthResponse, error)
}

// documentService sends content to the backend and announces the result on
// the ingestion bus; the bus consumer attaches it to the session.
type documentService struct {
	sessions  SessionLookup
	rag       ragapi.Client
	publisher IPublisherService
	reporter  ErrorReporter
	logger    logger.ILogger
}

func NewDocumentService(sessions SessionLookup, rag ragapi.Client, publisher IPublisherService, reporter ErrorReporter, log logger.ILogger) IDocumentService {
	return &documentService{
		sessions:  sessions,
		rag:       rag,
		publisher: publisher,
		reporter:  reporter,
		logger:    log,
	}
}

func (ds *documentService) Upload(ctx context.Context, sessionId string, filename string, content []byte, title string) (*dto.DocumentResponse, error) {
	if _, ok := ds.sessions.Get(sessionId); !ok {
		return nil, ds.fail(ErrSessionNotFound)
	}
	if len(content) == 0 {
		return nil, ds.fail(ErrEmptyDocument)
	}

	res, err := ds.rag.UploadDocument(ctx, content, filename, strings.TrimSpace(title))
	if err != nil {
		ds.logger.Warn(documentModule, "Upload failed", map[string]interface{}{
			"session_id": sessionId,
			"filename":   filename,
			"error":      err.Error(),
		})
		return nil, ds.fail(newIngestError(err))
	}

	return ds.announce(ctx, sessionId, res, filename)
}

func (ds *documentService) IngestText(ctx context.Context, sessionId string, request *dto.ProcessTextRequest) (*dto.DocumentResponse, error) {
	if _, ok := ds.sessions.Get(sessionId); !ok {
		return nil, ds.fail(ErrSessionNotFound)
	}
	text := strings.TrimSpace(request.Text)
	if text == "" {
		return nil, ds.fail(ErrEmptyDocument)
	}

	res, err := ds.rag.ProcessText(ctx, text, strings.TrimSpace(request.Title))
	if err != nil {
		ds.logger.Warn(documentModule, "Text ingestion failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil, ds.fail(newIngestError(err))
	}

	return ds.announce(ctx, sessionId, res, "Pasted text")
}

func (ds *documentService) announce(ctx context.Context, sessionId string, res *ragapi.DocumentUploadResponse, fallbackTitle string) (*dto.DocumentResponse, error) {
	title := res.Title
	if title == "" {
		title = fallbackTitle
	}
	doc := dto.DocumentResponse{
		Id:               res.DocumentId,
		Title:            title,
		ChunksCreated:    res.ChunksCreated,
		LinksExtracted:   res.LinksExtracted,
		ImagesExtracted:  res.ImagesExtracted,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}

	payload, err := json.Marshal(dto.DocumentIngestedMessage{SessionId: sessionId, Document: doc})
	if err != nil {
		return nil, fmt.Errorf("marshal ingested document: %w", err)
	}
	if err := ds.publisher.Publish(ctx, payload); err != nil {
		return nil, ds.fail(fmt.Errorf("publish ingested document: %w", err))
	}

	ds.logger.Info(documentModule, "Document ingested", map[string]interface{}{
		"session_id":  sessionId,
		"document_id": doc.Id,
		"chunks":      doc.ChunksCreated,
	})
	return &doc, nil
}

func (ds *documentService) fail(err error) error {
	if ds.reporter != nil {
		ds.reporter.ReportError(err)
	}
	return err
}

func (ds *documentService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	res, err := ds.rag.HealthCheck(ctx)
	if err != nil {
		return nil, newIngestError(err)
	}
	return &dto.HealthResponse{
		Status:           res.Status,
		QdrantConnected:  res.QdrantConnected,
		OpenAIConfigured: res.OpenAIConfigured,
		CohereConfigured: res.CohereConfigured,
		Timestamp:        res.Timestamp,
	}, nil
}
