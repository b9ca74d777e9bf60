package memory

import (
	"context"
	"sync"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
)

type requestKey struct {
	from domain.UID
	to   domain.UID
}

type MemoryRequestRepository struct {
	requests map[requestKey]*domain.ConnectionRequest
	mu       sync.Mutex
}

func NewMemoryRequestRepository() ports.RequestRepository {
	return &MemoryRequestRepository{
		requests: make(map[requestKey]*domain.ConnectionRequest),
	}
}

func (r *MemoryRequestRepository) PutIfAbsent(ctx context.Context, req *domain.ConnectionRequest) (*domain.ConnectionRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := requestKey{from: req.From, to: req.To}
	if existing, ok := r.requests[key]; ok {
		return cloneRequest(existing), false, nil
	}

	r.requests[key] = cloneRequest(req)
	return cloneRequest(req), true, nil
}

// Take is the exactly-once primitive: the entry is removed under the
// lock, so of two racing accepts exactly one gets it.
func (r *MemoryRequestRepository) Take(ctx context.Context, from, to domain.UID, roomID domain.RoomID) (*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := requestKey{from: from, to: to}
	req, ok := r.requests[key]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if roomID != "" && req.RoomID != roomID {
		return nil, domain.ErrRequestNotFound
	}

	delete(r.requests, key)
	return cloneRequest(req), nil
}

func (r *MemoryRequestRepository) DeleteByPeer(ctx context.Context, uid domain.UID) ([]*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*domain.ConnectionRequest
	for key, req := range r.requests {
		if req.From == uid || req.To == uid {
			removed = append(removed, cloneRequest(req))
			delete(r.requests, key)
		}
	}
	return removed, nil
}

func (r *MemoryRequestRepository) ListByTarget(ctx context.Context, to domain.UID) ([]*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.ConnectionRequest
	for _, req := range r.requests {
		if req.To == to {
			result = append(result, cloneRequest(req))
		}
	}
	return result, nil
}

func cloneRequest(req *domain.ConnectionRequest) *domain.ConnectionRequest {
	cp := *req
	return &cp
}
