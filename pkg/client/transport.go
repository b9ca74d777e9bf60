package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Arnob004/FileShare/internal/infrastructure/signal"
)

// transport wraps one websocket connection. Writes are serialized with
// a mutex; gorilla connections allow at most one concurrent writer.
type transport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func newTransport(url string) *transport {
	return &transport{url: url}
}

func (t *transport) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *transport) send(env signal.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return errNotConnected
	}
	t.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return t.conn.WriteJSON(env)
}

// read must only be called from the single reader goroutine.
func (t *transport) read() (signal.Envelope, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	var env signal.Envelope
	if conn == nil {
		return env, errNotConnected
	}
	err := conn.ReadJSON(&env)
	return env, err
}

func (t *transport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
