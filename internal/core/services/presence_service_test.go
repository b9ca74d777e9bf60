package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/infrastructure/repositories/memory"
)

func TestPresenceService_Admit(t *testing.T) {
	ctx := context.Background()
	notifier := newFakeNotifier()
	svc := NewPresenceService(memory.NewMemoryPeerRepository(), notifier, nopMetrics)

	admitted, err := svc.Admit(ctx, &domain.Peer{UID: "aB3x9", Name: "Alice"})
	require.NoError(t, err)
	assert.False(t, admitted.ConnectedAt.IsZero())

	// Every admission pushes the full roster to everyone.
	bc, ok := notifier.lastBroadcast(domain.EventUpdateOnlineUsers)
	require.True(t, ok)
	roster := bc.Payload.([]*domain.Peer)
	require.Len(t, roster, 1)
	assert.Equal(t, domain.UID("aB3x9"), roster[0].UID)
}

func TestPresenceService_AdmitReconnect(t *testing.T) {
	ctx := context.Background()
	notifier := newFakeNotifier()
	svc := NewPresenceService(memory.NewMemoryPeerRepository(), notifier, nopMetrics)

	_, err := svc.Admit(ctx, &domain.Peer{UID: "aB3x9", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.Admit(ctx, &domain.Peer{UID: "aB3x9", Name: "Alice v2"})
	require.NoError(t, err)

	roster, err := svc.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Alice v2", roster[0].Name)
}

func TestPresenceService_Remove(t *testing.T) {
	ctx := context.Background()
	notifier := newFakeNotifier()
	svc := NewPresenceService(memory.NewMemoryPeerRepository(), notifier, nopMetrics)

	_, err := svc.Admit(ctx, &domain.Peer{UID: "aB3x9", Name: "Alice"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "aB3x9"))

	bc, ok := notifier.lastBroadcast(domain.EventUpdateOnlineUsers)
	require.True(t, ok)
	assert.Empty(t, bc.Payload.([]*domain.Peer))

	assert.ErrorIs(t, svc.Remove(ctx, "aB3x9"), domain.ErrPeerNotFound)
}
