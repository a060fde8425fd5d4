package service

import (
	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/mapper"
	"ragchat-be/internal/pkg/logger"
)

const sessionModule = "SessionService"

// SessionManager is the full session store surface used by the API.
type SessionManager interface {
	CreateSession() *entity.ChatSession
	SelectSession(id string) bool
	DeleteSession(id string) error
	Get(id string) (*entity.ChatSession, bool)
	CurrentID() string
	List() []*entity.ChatSession
}

type ISessionService interface {
	CreateSession() *dto.SessionDetailResponse
	GetAllSessions() *dto.GetAllSessionsResponse
	GetSession(sessionId string) (*dto.SessionDetailResponse, error)
	SelectSession(sessionId string) (*dto.SessionDetailResponse, error)
	DeleteSession(sessionId string) (*dto.GetAllSessionsResponse, error)
}

type sessionService struct {
	manager      SessionManager
	conversation IConversationService
	mapper       *mapper.ChatMapper
	logger       logger.ILogger
}

func NewSessionService(manager SessionManager, conversation IConversationService, log logger.ILogger) ISessionService {
	return &sessionService{
		manager:      manager,
		conversation: conversation,
		mapper:       mapper.NewChatMapper(),
		logger:       log,
	}
}

func (ss *sessionService) CreateSession() *dto.SessionDetailResponse {
	s := ss.manager.CreateSession()
	ss.logger.Info(sessionModule, "Session created", map[string]interface{}{"session_id": s.Id})
	return ss.mapper.SessionToDetail(s, ss.manager.CurrentID(), "")
}

func (ss *sessionService) GetAllSessions() *dto.GetAllSessionsResponse {
	currentId := ss.manager.CurrentID()
	sessions := ss.manager.List()

	response := &dto.GetAllSessionsResponse{
		CurrentSessionId: currentId,
		Sessions:         make([]*dto.SessionSummaryResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, ss.mapper.SessionToSummary(s, currentId))
	}
	return response
}

func (ss *sessionService) GetSession(sessionId string) (*dto.SessionDetailResponse, error) {
	s, ok := ss.manager.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ss.mapper.SessionToDetail(s, ss.manager.CurrentID(), ss.conversation.Draft(sessionId)), nil
}

func (ss *sessionService) SelectSession(sessionId string) (*dto.SessionDetailResponse, error) {
	if !ss.manager.SelectSession(sessionId) {
		return nil, ErrSessionNotFound
	}
	return ss.GetSession(sessionId)
}

func (ss *sessionService) DeleteSession(sessionId string) (*dto.GetAllSessionsResponse, error) {
	if err := ss.manager.DeleteSession(sessionId); err != nil {
		return nil, err
	}
	ss.conversation.Forget(sessionId)
	ss.logger.Info(sessionModule, "Session deleted", map[string]interface{}{"session_id": sessionId})
	return ss.GetAllSessions(), nil
}
