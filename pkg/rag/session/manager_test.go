package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	failFor map[string]bool
}

func (f *fakeDeleter) DeleteDocumentChunks(ctx context.Context, documentId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentId)
	if f.failFor[documentId] {
		return errors.New("backend unavailable")
	}
	return nil
}

func (f *fakeDeleter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, event.EventType())
	return nil
}

func newTestManager(deleter ChunkDeleter, pub events.Publisher) *Manager {
	n := 0
	m := NewManager(memory.NewSessionRepository(), Options{
		Deleter:   deleter,
		Publisher: pub,
		NewID: func() string {
			n++
			return fmt.Sprintf("session-%d", n)
		},
	})
	m.Init(nil, false)
	return m
}

func TestInitCreatesOneSession(t *testing.T) {
	m := newTestManager(nil, nil)

	sessions := m.List()
	require.Len(t, sessions, 1)
	assert.Equal(t, sessions[0].Id, m.CurrentID())
}

func TestCreateSessionIsEmptyAndCurrent(t *testing.T) {
	m := newTestManager(nil, nil)

	s := m.CreateSession()

	assert.Equal(t, entity.DefaultSessionTitle, s.Title)
	assert.Empty(t, s.Documents)
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.History)
	assert.Equal(t, s.Id, m.CurrentID())
	assert.Equal(t, s.Id, m.List()[0].Id, "new session goes to the front")
	assert.Len(t, m.List(), 2)
}

func TestDefaultIDsAreUnique(t *testing.T) {
	m := NewManager(memory.NewSessionRepository(), Options{})
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := m.CreateSession()
		require.False(t, seen[s.Id])
		seen[s.Id] = true
	}
}

func TestSelectSession(t *testing.T) {
	m := newTestManager(nil, nil)
	first := m.CurrentID()
	m.CreateSession()

	assert.True(t, m.SelectSession(first))
	assert.Equal(t, first, m.CurrentID())

	assert.False(t, m.SelectSession("missing"))
	assert.Equal(t, first, m.CurrentID())
}

func TestDeleteCurrentSessionMovesToFirstRemaining(t *testing.T) {
	m := newTestManager(nil, nil)
	m.CreateSession()
	m.CreateSession()
	current := m.CurrentID()
	require.Len(t, m.List(), 3)

	require.NoError(t, m.DeleteSession(current))

	remaining := m.List()
	assert.Len(t, remaining, 2)
	assert.Equal(t, remaining[0].Id, m.CurrentID())
}

func TestDeleteNonCurrentKeepsPointer(t *testing.T) {
	m := newTestManager(nil, nil)
	oldest := m.CurrentID()
	newest := m.CreateSession()

	require.NoError(t, m.DeleteSession(oldest))

	assert.Equal(t, newest.Id, m.CurrentID())
	assert.Len(t, m.List(), 1)
}

func TestDeleteOnlySessionRecreatesOne(t *testing.T) {
	m := newTestManager(nil, nil)
	only := m.CurrentID()

	require.NoError(t, m.DeleteSession(only))

	sessions := m.List()
	require.Len(t, sessions, 1)
	assert.NotEqual(t, only, sessions[0].Id)
	assert.Equal(t, sessions[0].Id, m.CurrentID())
}

func TestDeleteUnknownSession(t *testing.T) {
	m := newTestManager(nil, nil)
	assert.ErrorIs(t, m.DeleteSession("missing"), ErrSessionNotFound)
}

func TestDeleteSessionRemovesChunksBestEffort(t *testing.T) {
	deleter := &fakeDeleter{failFor: map[string]bool{"doc-1": true}}
	m := newTestManager(deleter, nil)
	id := m.CurrentID()
	require.NoError(t, m.AddDocument(id, entity.Document{Id: "doc-1", Title: "a"}))
	require.NoError(t, m.AddDocument(id, entity.Document{Id: "doc-2", Title: "b"}))

	require.NoError(t, m.DeleteSession(id))
	m.Drain()

	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, deleter.calls())
	_, found := m.Get(id)
	assert.False(t, found)
}

func TestUpdatesAreScopedToOneSession(t *testing.T) {
	m := newTestManager(nil, nil)
	a := m.CurrentID()
	b := m.CreateSession().Id

	require.NoError(t, m.UpdateMessages(a, []entity.ChatMessage{{Role: "user", Content: "q"}}))
	require.NoError(t, m.UpdateHistory(a, []entity.HistoryTurn{{Role: "user", Content: "q"}}))
	require.NoError(t, m.AddDocument(a, entity.Document{Id: "d"}))

	sa, _ := m.Get(a)
	sb, _ := m.Get(b)
	assert.Len(t, sa.Messages, 1)
	assert.Len(t, sa.History, 1)
	assert.Len(t, sa.Documents, 1)
	assert.Empty(t, sb.Messages)
	assert.Empty(t, sb.History)
	assert.Empty(t, sb.Documents)

	assert.ErrorIs(t, m.UpdateMessages("missing", nil), ErrSessionNotFound)
}

func TestUpdateTitleTruncates(t *testing.T) {
	m := newTestManager(nil, nil)
	id := m.CurrentID()
	query := "What are the differences between X, Y and Z in a very very very very very long question"

	require.NoError(t, m.UpdateTitle(id, query))

	s, _ := m.Get(id)
	assert.Equal(t, query[:50]+"...", s.Title)
}

func TestTitleFromQuery(t *testing.T) {
	assert.Equal(t, "short", TitleFromQuery("short"))
	exact := strings.Repeat("a", 50)
	assert.Equal(t, exact, TitleFromQuery(exact))
	long := strings.Repeat("é", 60)
	assert.Equal(t, strings.Repeat("é", 50)+"...", TitleFromQuery(long))
}

func TestInitDiscardsSnapshotByDefault(t *testing.T) {
	m := newTestManager(nil, nil)
	snap := &entity.SessionSnapshot{
		Sessions:  []entity.ChatSession{{Id: "old-1", Title: "old"}},
		CurrentId: "old-1",
	}

	m.Init(snap, false)

	sessions := m.List()
	require.Len(t, sessions, 1)
	assert.NotEqual(t, "old-1", sessions[0].Id)
}

func TestInitRestoresSnapshot(t *testing.T) {
	m := newTestManager(nil, nil)
	snap := &entity.SessionSnapshot{
		Sessions: []entity.ChatSession{
			{Id: "old-2", Title: "second"},
			{Id: "old-1", Title: "first", Documents: []entity.Document{{Id: "d"}}},
		},
		CurrentId: "old-1",
	}

	m.Init(snap, true)

	sessions := m.List()
	require.Len(t, sessions, 2)
	assert.Equal(t, "old-2", sessions[0].Id)
	assert.Equal(t, "old-1", m.CurrentID())
	restored, _ := m.Get("old-1")
	assert.Len(t, restored.Documents, 1)
}

func TestInitRestoreWithUnknownCurrentFallsBackToFirst(t *testing.T) {
	m := newTestManager(nil, nil)
	m.Init(&entity.SessionSnapshot{
		Sessions:  []entity.ChatSession{{Id: "a"}, {Id: "b"}},
		CurrentId: "gone",
	}, true)

	assert.Equal(t, "a", m.CurrentID())
}

func TestSnapshotReflectsOrderAndCurrent(t *testing.T) {
	m := newTestManager(nil, nil)
	first := m.CurrentID()
	second := m.CreateSession().Id
	m.SelectSession(first)

	snap := m.Snapshot()

	require.Len(t, snap.Sessions, 2)
	assert.Equal(t, second, snap.Sessions[0].Id)
	assert.Equal(t, first, snap.CurrentId)
}

func TestManagerPublishesLifecycleEvents(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(nil, pub)
	id := m.CurrentID()

	m.SelectSession(id)
	require.NoError(t, m.UpdateTitle(id, "hello"))
	require.NoError(t, m.DeleteSession(id))

	assert.Equal(t, []string{
		events.SessionCreated,
		events.SessionSelected,
		events.SessionUpdated,
		events.SessionDeleted,
		events.SessionCreated,
	}, pub.types)
}
