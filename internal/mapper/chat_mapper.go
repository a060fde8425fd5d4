package mapper

import (
	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) SessionToSummary(s *entity.ChatSession, currentId string) *dto.SessionSummaryResponse {
	if s == nil {
		return nil
	}
	return &dto.SessionSummaryResponse{
		Id:            s.Id,
		Title:         s.Title,
		CreatedAt:     s.CreatedAt,
		DocumentCount: len(s.Documents),
		MessageCount:  len(s.Messages),
		IsCurrent:     s.Id == currentId,
	}
}

func (m *ChatMapper) SessionToDetail(s *entity.ChatSession, currentId, draft string) *dto.SessionDetailResponse {
	if s == nil {
		return nil
	}

	docs := make([]dto.DocumentResponse, 0, len(s.Documents))
	for _, d := range s.Documents {
		docs = append(docs, m.DocumentToResponse(d))
	}

	messages := make([]dto.ChatMessageResponse, 0, len(s.Messages))
	for i := range s.Messages {
		messages = append(messages, *m.MessageToResponse(&s.Messages[i]))
	}

	history := make([]dto.HistoryTurnResponse, 0, len(s.History))
	for _, h := range s.History {
		history = append(history, dto.HistoryTurnResponse{Role: h.Role, Content: h.Content})
	}

	return &dto.SessionDetailResponse{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		IsCurrent: s.Id == currentId,
		Documents: docs,
		Messages:  messages,
		History:   history,
		Draft:     draft,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToResponse(msg *entity.ChatMessage) *dto.ChatMessageResponse {
	if msg == nil {
		return nil
	}
	res := &dto.ChatMessageResponse{
		Role:       msg.Role,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		IsGreeting: msg.IsGreeting,
	}
	if msg.Evidence != nil {
		res.Evidence = &dto.EvidenceResponse{
			Kind:    msg.Evidence.Kind,
			Payload: msg.Evidence.Raw,
		}
	}
	return res
}

// Document Mappers

func (m *ChatMapper) DocumentToResponse(d entity.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		Id:               d.Id,
		Title:            d.Title,
		ChunksCreated:    d.ChunksCreated,
		LinksExtracted:   d.LinksExtracted,
		ImagesExtracted:  d.ImagesExtracted,
		ProcessingTimeMs: d.ProcessingTimeMs,
	}
}

func (m *ChatMapper) DocumentToEntity(d dto.DocumentResponse) entity.Document {
	return entity.Document{
		Id:               d.Id,
		Title:            d.Title,
		ChunksCreated:    d.ChunksCreated,
		LinksExtracted:   d.LinksExtracted,
		ImagesExtracted:  d.ImagesExtracted,
		ProcessingTimeMs: d.ProcessingTimeMs,
	}
}
