package ports

import (
	"context"

	"github.com/Arnob004/FileShare/internal/core/domain"
)

// Notifier delivers server-to-peer events. The websocket layer
// implements it; services stay transport-agnostic and tests substitute
// a recording fake.
type Notifier interface {
	// Notify sends one event to a single peer. Delivery is best-effort:
	// a disconnected target is reported as an error but must not affect
	// any other peer.
	Notify(ctx context.Context, to domain.UID, event string, payload interface{}) error
	// Broadcast sends one event to every connected peer.
	Broadcast(ctx context.Context, event string, payload interface{}) error
}

// MetricsCollector receives operational counters from the services.
type MetricsCollector interface {
	SetPeersOnline(n int)
	SetRoomsActive(n int)
	ObserveNegotiation(outcome string)
	ObserveFileRelayed(bytes int64)
	ObserveChunkRelayed(bytes int64)
}
