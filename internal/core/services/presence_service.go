package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
)

type presenceService struct {
	peerRepo ports.PeerRepository
	notifier ports.Notifier
	metrics  ports.MetricsCollector
}

func NewPresenceService(
	peerRepo ports.PeerRepository,
	notifier ports.Notifier,
	metrics ports.MetricsCollector,
) ports.PresenceService {
	return &presenceService{
		peerRepo: peerRepo,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (s *presenceService) Admit(ctx context.Context, peer *domain.Peer) (*domain.Peer, error) {
	admitted := peer.Clone()
	if admitted.ConnectedAt.IsZero() {
		admitted.ConnectedAt = time.Now()
	}

	if err := s.peerRepo.Admit(ctx, admitted); err != nil {
		return nil, fmt.Errorf("failed to admit peer: %w", err)
	}

	if err := s.BroadcastRoster(ctx); err != nil {
		return nil, err
	}
	return admitted, nil
}

func (s *presenceService) Remove(ctx context.Context, uid domain.UID) error {
	if err := s.peerRepo.Remove(ctx, uid); err != nil {
		return err
	}
	return s.BroadcastRoster(ctx)
}

func (s *presenceService) Roster(ctx context.Context) ([]*domain.Peer, error) {
	return s.peerRepo.List(ctx)
}

// BroadcastRoster pushes the full online list to every connected peer.
// The protocol sends the whole roster on each change rather than deltas.
func (s *presenceService) BroadcastRoster(ctx context.Context) error {
	roster, err := s.peerRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list peers: %w", err)
	}

	s.metrics.SetPeersOnline(len(roster))

	if err := s.notifier.Broadcast(ctx, domain.EventUpdateOnlineUsers, roster); err != nil {
		return fmt.Errorf("failed to broadcast roster: %w", err)
	}
	return nil
}
