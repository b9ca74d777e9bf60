package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisPeerRepository backs the presence registry with Redis so the
// roster survives a process restart. Requests and rooms stay in memory:
// they are bound to live websocket connections on this process.
type RedisPeerRepository struct {
	client *redis.Client
	prefix string
	setKey string
}

func NewRedisPeerRepository(client *redis.Client) ports.PeerRepository {
	return &RedisPeerRepository{
		client: client,
		prefix: "fileshare:peer:",
		setKey: "fileshare:peers",
	}
}

func (r *RedisPeerRepository) peerKey(uid domain.UID) string {
	return r.prefix + string(uid)
}

func (r *RedisPeerRepository) Admit(ctx context.Context, peer *domain.Peer) error {
	data, err := json.Marshal(peer)
	if err != nil {
		return fmt.Errorf("failed to marshal peer: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.peerKey(peer.UID), data, 0)
	pipe.SAdd(ctx, r.setKey, string(peer.UID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to admit peer in Redis: %w", err)
	}
	return nil
}

func (r *RedisPeerRepository) GetByUID(ctx context.Context, uid domain.UID) (*domain.Peer, error) {
	data, err := r.client.Get(ctx, r.peerKey(uid)).Result()
	if err == redis.Nil {
		return nil, domain.ErrPeerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get peer from Redis: %w", err)
	}

	var peer domain.Peer
	if err := json.Unmarshal([]byte(data), &peer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal peer: %w", err)
	}
	return &peer, nil
}

func (r *RedisPeerRepository) Exists(ctx context.Context, uid domain.UID) (bool, error) {
	n, err := r.client.Exists(ctx, r.peerKey(uid)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check peer in Redis: %w", err)
	}
	return n > 0, nil
}

func (r *RedisPeerRepository) Remove(ctx context.Context, uid domain.UID) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.peerKey(uid))
	pipe.SRem(ctx, r.setKey, string(uid))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove peer from Redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrPeerNotFound
	}
	return nil
}

func (r *RedisPeerRepository) List(ctx context.Context) ([]*domain.Peer, error) {
	uids, err := r.client.SMembers(ctx, r.setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list peers from Redis: %w", err)
	}

	peers := make([]*domain.Peer, 0, len(uids))
	for _, uid := range uids {
		peer, err := r.GetByUID(ctx, domain.UID(uid))
		if err != nil {
			// Skip entries whose data key has already expired or been removed.
			continue
		}
		peers = append(peers, peer)
	}
	return peers, nil
}
