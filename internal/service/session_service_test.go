package service

import (
	"testing"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/pkg/rag/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionServiceLifecycle(t *testing.T) {
	store := newTestStore()
	rag := &fakeRAG{}
	conversation := newTestConversation(store, rag, false)
	ss := NewSessionService(store, conversation, logger.NewNopLogger())
	first := store.CurrentID()

	created := ss.CreateSession()
	assert.True(t, created.IsCurrent)
	assert.Equal(t, entity.DefaultSessionTitle, created.Title)

	all := ss.GetAllSessions()
	require.Len(t, all.Sessions, 2)
	assert.Equal(t, created.Id, all.Sessions[0].Id, "newest session first")
	assert.Equal(t, created.Id, all.CurrentSessionId)

	selected, err := ss.SelectSession(first)
	require.NoError(t, err)
	assert.True(t, selected.IsCurrent)

	require.NoError(t, conversation.SetDraft(first, "unsent"))
	detail, err := ss.GetSession(first)
	require.NoError(t, err)
	assert.Equal(t, "unsent", detail.Draft)

	after, err := ss.DeleteSession(first)
	require.NoError(t, err)
	require.Len(t, after.Sessions, 1)
	assert.Equal(t, created.Id, after.CurrentSessionId)
	assert.Empty(t, conversation.Draft(first))
}

func TestSessionServiceUnknownSession(t *testing.T) {
	store := newTestStore()
	ss := NewSessionService(store, newTestConversation(store, &fakeRAG{}, false), logger.NewNopLogger())

	_, err := ss.GetSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = ss.SelectSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = ss.DeleteSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeletingLastSessionCreatesReplacement(t *testing.T) {
	rag := &fakeRAG{}
	store := session.NewManager(memory.NewSessionRepository(), session.Options{Deleter: rag})
	store.Init(nil, false)
	ss := NewSessionService(store, newTestConversation(store, rag, false), logger.NewNopLogger())
	only := store.CurrentID()
	addTestDocument(store, only)

	after, err := ss.DeleteSession(only)

	require.NoError(t, err)
	require.Len(t, after.Sessions, 1)
	assert.NotEqual(t, only, after.CurrentSessionId)
	store.Drain()
	assert.Equal(t, []string{"doc-1"}, rag.deleted)
}
