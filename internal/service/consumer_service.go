// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/mapper"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/rag/session"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const consumerModule = "DocumentConsumer"

// DocumentStore is the part of the session store the consumer writes to.
type DocumentStore interface {
	AddDocument(id string, doc entity.Document) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService folds upload-completed signals into the owning session.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	store     DocumentStore
	deleter   session.ChunkDeleter
	mapper    *mapper.ChatMapper
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	store DocumentStore,
	deleter session.ChunkDeleter,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		store:     store,
		deleter:   deleter,
		mapper:    mapper.NewChatMapper(),
		logger:    log,
	}
}

// Consume subscribes synchronously and processes messages in the background.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.DocumentIngestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	doc := cs.mapper.DocumentToEntity(payload.Document)
	err := cs.store.AddDocument(payload.SessionId, doc)
	if errors.Is(err, session.ErrSessionNotFound) {
		// The session went away while the upload was running; nothing owns
		// these chunks any more.
		cs.logger.Warn(consumerModule, "Document arrived for unknown session", map[string]interface{}{
			"session_id":  payload.SessionId,
			"document_id": doc.Id,
		})
		cs.dropOrphan(doc.Id)
		msg.Ack()
		return
	}
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to add document", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	cs.logger.Info(consumerModule, "Document added to session", map[string]interface{}{
		"session_id":  payload.SessionId,
		"document_id": doc.Id,
		"chunks":      doc.ChunksCreated,
	})
	msg.Ack()
}

func (cs *consumerService) dropOrphan(documentId string) {
	if cs.deleter == nil || documentId == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cs.deleter.DeleteDocumentChunks(ctx, documentId); err != nil {
			cs.logger.Warn(consumerModule, "Failed to delete orphan chunks", map[string]interface{}{
				"document_id": documentId,
				"error":       err.Error(),
			})
		}
	}()
}
