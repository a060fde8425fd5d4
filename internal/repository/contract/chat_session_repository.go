package contract

import (
	"context"

	"ragchat-be/internal/entity"
)

// ChatSessionRepository stores session records by id. Ordering and the
// current-session pointer belong to the session manager.
type ChatSessionRepository interface {
	Save(session *entity.ChatSession)
	Get(sessionId string) (*entity.ChatSession, bool)
	Delete(sessionId string)
	Flush()
	Count() int
}

// SnapshotRepository mirrors the full store somewhere outside the process.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.SessionSnapshot) error
	Load(ctx context.Context) (*entity.SessionSnapshot, error)
	Clear(ctx context.Context) error
}
