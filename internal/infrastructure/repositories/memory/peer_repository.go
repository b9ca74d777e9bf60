package memory

import (
	"context"
	"sync"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
)

type MemoryPeerRepository struct {
	peers map[domain.UID]*domain.Peer
	mu    sync.RWMutex
}

func NewMemoryPeerRepository() ports.PeerRepository {
	return &MemoryPeerRepository{
		peers: make(map[domain.UID]*domain.Peer),
	}
}

func (r *MemoryPeerRepository) Admit(ctx context.Context, peer *domain.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Insert-or-replace: admitting an existing uid is a reconnection.
	r.peers[peer.UID] = peer.Clone()
	return nil
}

func (r *MemoryPeerRepository) GetByUID(ctx context.Context, uid domain.UID) (*domain.Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peer, exists := r.peers[uid]
	if !exists {
		return nil, domain.ErrPeerNotFound
	}
	return peer.Clone(), nil
}

func (r *MemoryPeerRepository) Exists(ctx context.Context, uid domain.UID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.peers[uid]
	return exists, nil
}

func (r *MemoryPeerRepository) Remove(ctx context.Context, uid domain.UID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[uid]; !exists {
		return domain.ErrPeerNotFound
	}
	delete(r.peers, uid)
	return nil
}

func (r *MemoryPeerRepository) List(ctx context.Context) ([]*domain.Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]*domain.Peer, 0, len(r.peers))
	for _, peer := range r.peers {
		peers = append(peers, peer.Clone())
	}
	return peers, nil
}
