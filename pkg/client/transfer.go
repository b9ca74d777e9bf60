// Package client is the Go peer for the rendezvous protocol: it
// maintains the websocket session, runs the request/accept handshake,
// and sends and receives relayed files.
package client

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/pkg/utils"
)

// EncodeDataURL wraps raw file bytes the way the reference client does:
// a base64 data URL carrying the MIME type inline.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL reverses EncodeDataURL. Plain base64 without the data
// URL prefix is accepted too.
func DecodeDataURL(s string) (mimeType string, data []byte, err error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		rest := s[len("data:"):]
		semi := strings.Index(rest, ";base64,")
		if semi < 0 {
			return "", nil, fmt.Errorf("data url is not base64 encoded")
		}
		mimeType = rest[:semi]
		payload = rest[semi+len(";base64,"):]
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return mimeType, data, nil
}

// NewTransferID mints the identifier chunks of one transfer share.
func NewTransferID(fileName string) string {
	return utils.GenerateTransferID(fileName)
}

// Transfer directions recorded in the session history.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// TransferRecord is one entry of the in-memory transfer history a
// Client keeps for its session.
type TransferRecord struct {
	ID        string
	Name      string
	Type      string
	Size      int64
	Data      string
	Direction string
	Timestamp time.Time
}

// SplitChunks slices an encoded payload into chunk frames sharing one
// transfer id. The declared size travels on every chunk so receivers
// can show progress before the transfer completes.
func SplitChunks(transferID, name, mimeType string, size int64, encoded string, chunkSize int) []*domain.FileChunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	total := (len(encoded) + chunkSize - 1) / chunkSize
	if total == 0 {
		total = 1
	}

	chunks := make([]*domain.FileChunk, 0, total)
	for seq := 0; seq < total; seq++ {
		start := seq * chunkSize
		end := start + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, &domain.FileChunk{
			TransferID: transferID,
			Name:       name,
			Type:       mimeType,
			Size:       size,
			Seq:        seq,
			Total:      total,
			Data:       encoded[start:end],
		})
	}
	return chunks
}

// Assembler reassembles chunked transfers on the receiving side.
// Chunks may interleave across transfers but arrive in order within
// one; the relay preserves per-connection ordering.
type Assembler struct {
	mu       sync.Mutex
	pending  map[string]*partialTransfer
	complete func(*domain.FilePayload)
}

type partialTransfer struct {
	name     string
	mimeType string
	size     int64
	total    int
	parts    []string
	received int
}

// NewAssembler calls complete once per transfer, when its last missing
// chunk arrives.
func NewAssembler(complete func(*domain.FilePayload)) *Assembler {
	return &Assembler{
		pending:  make(map[string]*partialTransfer),
		complete: complete,
	}
}

// Add folds one chunk in. Duplicate chunks are ignored.
func (a *Assembler) Add(chunk *domain.FileChunk) error {
	if chunk.Total <= 0 || chunk.Seq < 0 || chunk.Seq >= chunk.Total {
		return fmt.Errorf("chunk %s: seq %d out of range [0,%d)", chunk.TransferID, chunk.Seq, chunk.Total)
	}

	a.mu.Lock()
	pt, ok := a.pending[chunk.TransferID]
	if !ok {
		pt = &partialTransfer{
			name:     chunk.Name,
			mimeType: chunk.Type,
			size:     chunk.Size,
			total:    chunk.Total,
			parts:    make([]string, chunk.Total),
		}
		a.pending[chunk.TransferID] = pt
	}
	if pt.total != chunk.Total {
		a.mu.Unlock()
		return fmt.Errorf("chunk %s: total changed from %d to %d", chunk.TransferID, pt.total, chunk.Total)
	}
	if pt.parts[chunk.Seq] == "" {
		pt.parts[chunk.Seq] = chunk.Data
		pt.received++
	}
	done := pt.received == pt.total
	if done {
		delete(a.pending, chunk.TransferID)
	}
	a.mu.Unlock()

	if done && a.complete != nil {
		a.complete(&domain.FilePayload{
			Name: pt.name,
			Type: pt.mimeType,
			Size: pt.size,
			Data: strings.Join(pt.parts, ""),
		})
	}
	return nil
}

// Pending reports how many transfers are still incomplete.
func (a *Assembler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
