package memory

import (
	"ragchat-be/internal/entity"
	"ragchat-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

var _ contract.ChatSessionRepository = (*SessionRepository)(nil)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for the process lifetime; they are
// only removed by an explicit Delete.
func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.ChatSession) {
	r.cache.Set(session.Id, session.Clone(), cache.NoExpiration)
}

func (r *SessionRepository) Get(sessionId string) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*entity.ChatSession).Clone(), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}

func (r *SessionRepository) Flush() {
	r.cache.Flush()
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
