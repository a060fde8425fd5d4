package service

import (
	"context"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/contract"
	"ragchat-be/pkg/events"
)

const snapshotModule = "SnapshotMirror"

type SnapshotSource interface {
	Snapshot() *entity.SessionSnapshot
}

type SessionInitializer interface {
	Init(persisted *entity.SessionSnapshot, restore bool)
}

// SnapshotMirror writes the whole store to the mirror on every session event.
type SnapshotMirror struct {
	repo   contract.SnapshotRepository
	source SnapshotSource
	logger logger.ILogger
}

var _ events.Publisher = (*SnapshotMirror)(nil)

func NewSnapshotMirror(repo contract.SnapshotRepository, source SnapshotSource, log logger.ILogger) *SnapshotMirror {
	return &SnapshotMirror{repo: repo, source: source, logger: log}
}

func (m *SnapshotMirror) Publish(ctx context.Context, event events.Event) error {
	return m.repo.Save(ctx, m.source.Snapshot())
}

// Restore loads the mirrored snapshot and hands it to the store. A snapshot
// that is not restored is cleared so a stale mirror never outlives a start.
func (m *SnapshotMirror) Restore(ctx context.Context, store SessionInitializer, restore bool) {
	persisted, err := m.repo.Load(ctx)
	if err != nil {
		m.logger.Warn(snapshotModule, "Failed to load session snapshot", map[string]interface{}{"error": err.Error()})
		persisted = nil
	}

	if persisted != nil && !restore {
		if err := m.repo.Clear(ctx); err != nil {
			m.logger.Warn(snapshotModule, "Failed to clear discarded snapshot", map[string]interface{}{"error": err.Error()})
		}
	}

	store.Init(persisted, restore)
}
