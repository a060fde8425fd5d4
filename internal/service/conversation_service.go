package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/mapper"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/rag/classifier"
	"ragchat-be/pkg/rag/history"
	"ragchat-be/pkg/ragapi"
)

const conversationModule = "Conversation"

// SessionStore is what the conversation flow needs from the session manager.
type SessionStore interface {
	Get(id string) (*entity.ChatSession, bool)
	CurrentID() string
	UpdateMessages(id string, messages []entity.ChatMessage) error
	UpdateHistory(id string, history []entity.HistoryTurn) error
	UpdateTitle(id string, query string) error
}

// IConversationService drives one session's query lifecycle and keeps the
// view state a renderer needs: loading flags, draft input, the error slot.
type IConversationService interface {
	SubmitQuery(ctx context.Context, sessionId string, text string) (*dto.SubmitQueryResponse, error)
	SetDraft(sessionId string, text string) error
	Draft(sessionId string) string
	Forget(sessionId string)
	IsLoading(sessionId string) bool
	State() *dto.ConversationStateResponse
	LastError() string
	ReportError(err error)
	DismissError()
}

type ConversationOptions struct {
	// RollbackHistoryOnFailure also reverts the user history turn when the
	// backend call fails.
	RollbackHistoryOnFailure bool
	Now                      func() time.Time
}

type conversationService struct {
	store      SessionStore
	classifier *classifier.Classifier
	window     *history.Window
	rag        ragapi.Client
	mapper     *mapper.ChatMapper
	logger     logger.ILogger

	rollbackHistory bool
	now             func() time.Time

	mu        sync.Mutex
	inFlight  map[string]*sync.Mutex
	loading   map[string]bool
	drafts    map[string]string
	lastError string
}

func NewConversationService(
	store SessionStore,
	cls *classifier.Classifier,
	window *history.Window,
	rag ragapi.Client,
	log logger.ILogger,
	opts ConversationOptions,
) IConversationService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &conversationService{
		store:           store,
		classifier:      cls,
		window:          window,
		rag:             rag,
		mapper:          mapper.NewChatMapper(),
		logger:          log,
		rollbackHistory: opts.RollbackHistoryOnFailure,
		now:             now,
		inFlight:        make(map[string]*sync.Mutex),
		loading:         make(map[string]bool),
		drafts:          make(map[string]string),
	}
}

func (cs *conversationService) SubmitQuery(ctx context.Context, sessionId string, text string) (*dto.SubmitQueryResponse, error) {
	if _, ok := cs.store.Get(sessionId); !ok {
		return nil, cs.fail(ErrSessionNotFound)
	}

	// Validating
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, cs.fail(ErrEmptyQuery)
	}

	lock := cs.sessionLock(sessionId)
	if !lock.TryLock() {
		return nil, cs.fail(ErrQueryInFlight)
	}
	defer lock.Unlock()

	cs.setLoading(sessionId, true)
	defer cs.setLoading(sessionId, false)
	cs.DismissError()

	// Re-read under the session lock so documents added meanwhile count.
	sess, ok := cs.store.Get(sessionId)
	if !ok {
		return nil, cs.fail(ErrSessionNotFound)
	}

	before := sess.Messages
	userMessage := entity.ChatMessage{
		Role:      entity.ChatMessageRoleUser,
		Content:   query,
		CreatedAt: cs.now(),
	}
	messages := append(entity.CloneMessages(before), userMessage)
	if err := cs.store.UpdateMessages(sessionId, messages); err != nil {
		return nil, cs.fail(err)
	}
	cs.clearDraft(sessionId)

	if len(before) == 0 {
		if err := cs.store.UpdateTitle(sessionId, query); err != nil {
			return nil, cs.fail(err)
		}
	}

	// Classifying
	if cs.classifier.Classify(query) == classifier.Greeting {
		return cs.replyToGreeting(sessionId, messages, &userMessage)
	}

	if len(sess.Documents) == 0 {
		return nil, cs.fail(ErrNoDocuments)
	}

	historyBefore := sess.History
	turns := cs.window.Append(historyBefore, entity.HistoryTurn{Role: entity.ChatMessageRoleUser, Content: query})
	if err := cs.store.UpdateHistory(sessionId, turns); err != nil {
		return nil, cs.fail(err)
	}

	// AwaitingBackend
	result, err := cs.rag.SendQuery(ctx, query, toWireHistory(cs.window.Trailing(turns)), sessionId)
	if err != nil {
		cs.logger.Warn(conversationModule, "Query round-trip failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		cs.rollback(sessionId, before, historyBefore)
		return nil, cs.fail(newQueryError(err))
	}

	reply := entity.ChatMessage{
		Role:      entity.ChatMessageRoleAssistant,
		Content:   result.Answer,
		CreatedAt: cs.now(),
		Evidence:  &entity.Evidence{Kind: entity.EvidenceKindRAGQuery, Raw: result.Raw},
	}
	if err := cs.store.UpdateMessages(sessionId, append(messages, reply)); err != nil {
		return nil, cs.fail(err)
	}
	turns = cs.window.Append(turns, entity.HistoryTurn{Role: entity.ChatMessageRoleAssistant, Content: result.Answer})
	if err := cs.store.UpdateHistory(sessionId, turns); err != nil {
		return nil, cs.fail(err)
	}

	cs.logger.Info(conversationModule, "Query answered", map[string]interface{}{
		"session_id":    sessionId,
		"history_turns": len(turns),
	})

	return cs.response(sessionId, &userMessage, &reply, false), nil
}

func (cs *conversationService) replyToGreeting(sessionId string, messages []entity.ChatMessage, sent *entity.ChatMessage) (*dto.SubmitQueryResponse, error) {
	reply := entity.ChatMessage{
		Role:       entity.ChatMessageRoleAssistant,
		Content:    cs.classifier.GreetingReply(),
		CreatedAt:  cs.now(),
		IsGreeting: true,
	}
	if err := cs.store.UpdateMessages(sessionId, append(messages, reply)); err != nil {
		return nil, cs.fail(err)
	}
	return cs.response(sessionId, sent, &reply, true), nil
}

// rollback reverts the optimistic user message. The history turn stays
// unless rollbackHistory is set.
func (cs *conversationService) rollback(sessionId string, messages []entity.ChatMessage, turns []entity.HistoryTurn) {
	if err := cs.store.UpdateMessages(sessionId, messages); err != nil {
		cs.logger.Error(conversationModule, "Failed to roll back messages", map[string]interface{}{"error": err.Error()})
	}
	if !cs.rollbackHistory {
		return
	}
	if err := cs.store.UpdateHistory(sessionId, turns); err != nil {
		cs.logger.Error(conversationModule, "Failed to roll back history", map[string]interface{}{"error": err.Error()})
	}
}

func (cs *conversationService) response(sessionId string, sent, reply *entity.ChatMessage, greeting bool) *dto.SubmitQueryResponse {
	title := ""
	if s, ok := cs.store.Get(sessionId); ok {
		title = s.Title
	}
	return &dto.SubmitQueryResponse{
		SessionId:    sessionId,
		SessionTitle: title,
		Sent:         cs.mapper.MessageToResponse(sent),
		Reply:        cs.mapper.MessageToResponse(reply),
		Greeting:     greeting,
	}
}

func toWireHistory(turns []entity.HistoryTurn) []ragapi.ChatMessage {
	out := make([]ragapi.ChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, ragapi.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return out
}

func (cs *conversationService) sessionLock(sessionId string) *sync.Mutex {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	lock, ok := cs.inFlight[sessionId]
	if !ok {
		lock = &sync.Mutex{}
		cs.inFlight[sessionId] = lock
	}
	return lock
}

func (cs *conversationService) setLoading(sessionId string, loading bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if loading {
		cs.loading[sessionId] = true
		return
	}
	delete(cs.loading, sessionId)
}

func (cs *conversationService) IsLoading(sessionId string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.loading[sessionId]
}

func (cs *conversationService) SetDraft(sessionId string, text string) error {
	if _, ok := cs.store.Get(sessionId); !ok {
		return ErrSessionNotFound
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.drafts[sessionId] = text
	return nil
}

func (cs *conversationService) Draft(sessionId string) string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.drafts[sessionId]
}

func (cs *conversationService) clearDraft(sessionId string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.drafts, sessionId)
}

// Forget drops per-session view state of a deleted session.
func (cs *conversationService) Forget(sessionId string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.drafts, sessionId)
	delete(cs.loading, sessionId)
	if lock, ok := cs.inFlight[sessionId]; ok && lock.TryLock() {
		delete(cs.inFlight, sessionId)
		lock.Unlock()
	}
}

// fail records err in the single error slot, replacing any previous error.
func (cs *conversationService) fail(err error) error {
	cs.mu.Lock()
	cs.lastError = err.Error()
	cs.mu.Unlock()
	return err
}

// ReportError puts a failure from outside the query flow into the error slot.
func (cs *conversationService) ReportError(err error) {
	cs.fail(err)
}

func (cs *conversationService) LastError() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastError
}

func (cs *conversationService) DismissError() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastError = ""
}

func (cs *conversationService) State() *dto.ConversationStateResponse {
	currentId := cs.store.CurrentID()

	cs.mu.Lock()
	defer cs.mu.Unlock()
	loading := make([]string, 0, len(cs.loading))
	for id := range cs.loading {
		loading = append(loading, id)
	}
	sort.Strings(loading)

	return &dto.ConversationStateResponse{
		CurrentSessionId: currentId,
		LoadingSessions:  loading,
		Error:            cs.lastError,
	}
}
