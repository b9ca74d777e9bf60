package services

import (
	"context"
	"sync"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/infrastructure/monitoring"
)

// fakeNotifier records every delivery so tests can assert on who was
// told what.
type fakeNotifier struct {
	mu         sync.Mutex
	sent       []sentEvent
	broadcasts []sentEvent
	failFor    map[domain.UID]error
}

type sentEvent struct {
	To      domain.UID
	Event   string
	Payload interface{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[domain.UID]error)}
}

func (f *fakeNotifier) Notify(ctx context.Context, to domain.UID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, sentEvent{To: to, Event: event, Payload: payload})
	return nil
}

func (f *fakeNotifier) Broadcast(ctx context.Context, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, sentEvent{Event: event, Payload: payload})
	return nil
}

func (f *fakeNotifier) sentTo(to domain.UID, event string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.sent {
		if e.To == to && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeNotifier) lastBroadcast(event string) (sentEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.broadcasts) - 1; i >= 0; i-- {
		if f.broadcasts[i].Event == event {
			return f.broadcasts[i], true
		}
	}
	return sentEvent{}, false
}

var nopMetrics = monitoring.NopCollector{}
