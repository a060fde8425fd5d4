package session

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/contract"
	"ragchat-be/pkg/events"

	"github.com/google/uuid"
)

const (
	titleMaxRunes = 50
	titleEllipsis = "..."
	logModule     = "SessionManager"
)

var ErrSessionNotFound = errors.New("session not found")

// ChunkDeleter removes a document's chunks from the backend.
type ChunkDeleter interface {
	DeleteDocumentChunks(ctx context.Context, documentId string) error
}

type Options struct {
	Deleter       ChunkDeleter
	Publisher     events.Publisher
	Logger        logger.ILogger
	DeleteTimeout time.Duration
	Now           func() time.Time
	NewID         func() string
}

// Manager owns every chat session, their order and the current pointer.
// Each mutation touches exactly one session under the manager lock.
type Manager struct {
	mu      sync.RWMutex
	repo    contract.ChatSessionRepository
	order   []string
	current string

	deleter       ChunkDeleter
	publisher     events.Publisher
	logger        logger.ILogger
	deleteTimeout time.Duration
	now           func() time.Time
	newID         func() string

	pending sync.WaitGroup
}

func NewManager(repo contract.ChatSessionRepository, opts Options) *Manager {
	m := &Manager{
		repo:          repo,
		deleter:       opts.Deleter,
		publisher:     opts.Publisher,
		logger:        opts.Logger,
		deleteTimeout: opts.DeleteTimeout,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if m.logger == nil {
		m.logger = logger.NewNopLogger()
	}
	if m.deleteTimeout <= 0 {
		m.deleteTimeout = 30 * time.Second
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	return m
}

// Init resets the store. The persisted snapshot is only honored when
// restore is set; either way at least one session exists afterwards.
func (m *Manager) Init(persisted *entity.SessionSnapshot, restore bool) {
	m.mu.Lock()
	m.repo.Flush()
	m.order = nil
	m.current = ""

	if restore && persisted != nil {
		for i := range persisted.Sessions {
			s := persisted.Sessions[i]
			if s.Id == "" {
				continue
			}
			if _, dup := m.repo.Get(s.Id); dup {
				continue
			}
			m.repo.Save(&s)
			m.order = append(m.order, s.Id)
		}
		if _, ok := m.repo.Get(persisted.CurrentId); ok {
			m.current = persisted.CurrentId
		} else if len(m.order) > 0 {
			m.current = m.order[0]
		}
	}
	restored := len(m.order)
	m.mu.Unlock()

	m.logger.Info(logModule, "Session store initialized", map[string]interface{}{
		"restore":  restore,
		"restored": restored,
	})

	if restored == 0 {
		m.CreateSession()
	}
}

func (m *Manager) CreateSession() *entity.ChatSession {
	s := &entity.ChatSession{
		Id:        m.newID(),
		Title:     entity.DefaultSessionTitle,
		CreatedAt: m.now(),
		Documents: []entity.Document{},
		Messages:  []entity.ChatMessage{},
		History:   []entity.HistoryTurn{},
	}

	m.mu.Lock()
	m.repo.Save(s)
	m.order = append([]string{s.Id}, m.order...)
	m.current = s.Id
	m.mu.Unlock()

	m.emit(events.SessionCreated, s.Id, nil)
	return s.Clone()
}

// SelectSession moves the current pointer. Unknown ids are ignored and
// reported through the return value.
func (m *Manager) SelectSession(id string) bool {
	m.mu.Lock()
	if _, ok := m.repo.Get(id); !ok {
		m.mu.Unlock()
		return false
	}
	m.current = id
	m.mu.Unlock()

	m.emit(events.SessionSelected, id, nil)
	return true
}

// DeleteSession removes the session immediately and asks the backend to drop
// each of its documents' chunks in the background.
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	s, ok := m.repo.Get(id)
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}

	m.repo.Delete(id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	wasCurrent := m.current == id
	if wasCurrent {
		m.current = ""
		if len(m.order) > 0 {
			m.current = m.order[0]
		}
	}
	empty := len(m.order) == 0
	m.mu.Unlock()

	m.deleteChunks(id, s.Documents)
	m.emit(events.SessionDeleted, id, map[string]interface{}{"documents": len(s.Documents)})

	if wasCurrent && empty {
		m.CreateSession()
	}
	return nil
}

func (m *Manager) deleteChunks(sessionId string, docs []entity.Document) {
	if m.deleter == nil {
		return
	}
	for _, doc := range docs {
		m.pending.Add(1)
		go func(doc entity.Document) {
			defer m.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.deleteTimeout)
			defer cancel()
			if err := m.deleter.DeleteDocumentChunks(ctx, doc.Id); err != nil {
				m.logger.Warn(logModule, "Failed to delete document chunks", map[string]interface{}{
					"session_id":  sessionId,
					"document_id": doc.Id,
					"error":       err.Error(),
				})
				return
			}
			m.logger.Debug(logModule, "Deleted document chunks", map[string]interface{}{
				"session_id":  sessionId,
				"document_id": doc.Id,
			})
		}(doc)
	}
}

// Drain waits for background chunk deletions.
func (m *Manager) Drain() {
	m.pending.Wait()
}

func (m *Manager) AddDocument(id string, doc entity.Document) error {
	return m.update(id, "documents", func(s *entity.ChatSession) {
		s.Documents = append(s.Documents, doc)
	})
}

func (m *Manager) UpdateMessages(id string, messages []entity.ChatMessage) error {
	return m.update(id, "messages", func(s *entity.ChatSession) {
		s.Messages = entity.CloneMessages(messages)
	})
}

func (m *Manager) UpdateHistory(id string, history []entity.HistoryTurn) error {
	return m.update(id, "history", func(s *entity.ChatSession) {
		s.History = append([]entity.HistoryTurn{}, history...)
	})
}

// UpdateTitle derives the title from the session's first query.
func (m *Manager) UpdateTitle(id string, query string) error {
	return m.update(id, "title", func(s *entity.ChatSession) {
		s.Title = TitleFromQuery(query)
	})
}

func (m *Manager) update(id, change string, apply func(s *entity.ChatSession)) error {
	m.mu.Lock()
	s, ok := m.repo.Get(id)
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	apply(s)
	m.repo.Save(s)
	m.mu.Unlock()

	m.emit(events.SessionUpdated, id, map[string]interface{}{"change": change})
	return nil
}

func (m *Manager) Get(id string) (*entity.ChatSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.repo.Get(id)
}

func (m *Manager) Current() (*entity.ChatSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == "" {
		return nil, false
	}
	return m.repo.Get(m.current)
}

func (m *Manager) CurrentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// List returns sessions newest first.
func (m *Manager) List() []*entity.ChatSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.ChatSession, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.repo.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) Snapshot() *entity.SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := &entity.SessionSnapshot{CurrentId: m.current, SavedAt: m.now()}
	for _, id := range m.order {
		if s, ok := m.repo.Get(id); ok {
			snap.Sessions = append(snap.Sessions, *s)
		}
	}
	return snap
}

func (m *Manager) emit(eventType, sessionId string, extra map[string]interface{}) {
	if m.publisher == nil {
		return
	}
	data := map[string]interface{}{"session_id": sessionId}
	for k, v := range extra {
		data[k] = v
	}
	if err := m.publisher.Publish(context.Background(), events.New(eventType, data)); err != nil {
		m.logger.Warn(logModule, "Failed to publish session event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

// TitleFromQuery truncates to 50 characters plus an ellipsis marker.
func TitleFromQuery(query string) string {
	if utf8.RuneCountInString(query) <= titleMaxRunes {
		return query
	}
	return string([]rune(query)[:titleMaxRunes]) + titleEllipsis
}
