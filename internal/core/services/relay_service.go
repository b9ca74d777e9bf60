package services

import (
	"context"
	"fmt"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
)

type relayService struct {
	roomRepo    ports.RoomRepository
	notifier    ports.Notifier
	metrics     ports.MetricsCollector
	maxFileSize int64
}

func NewRelayService(
	roomRepo ports.RoomRepository,
	notifier ports.Notifier,
	metrics ports.MetricsCollector,
	maxFileSize int64,
) ports.RelayService {
	return &relayService{
		roomRepo:    roomRepo,
		notifier:    notifier,
		metrics:     metrics,
		maxFileSize: maxFileSize,
	}
}

// SendFile forwards file to the counterpart of sender in roomID. The
// payload is passed through verbatim and never retained.
func (s *relayService) SendFile(ctx context.Context, roomID domain.RoomID, sender domain.UID, file *domain.FilePayload) error {
	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		return domain.ErrFileTooLarge
	}

	counterpart, err := s.counterpart(ctx, roomID, sender)
	if err != nil {
		return err
	}

	notice := domain.FileNotice{From: sender, File: file}
	if err := s.notifier.Notify(ctx, counterpart.UID, domain.EventNewFile, notice); err != nil {
		return fmt.Errorf("failed to relay file: %w", err)
	}

	s.metrics.ObserveFileRelayed(file.Size)
	return nil
}

// SendChunk forwards one chunk of a chunked transfer with the same
// membership checks as whole files. The declared total size is checked
// once, on the first chunk.
func (s *relayService) SendChunk(ctx context.Context, roomID domain.RoomID, sender domain.UID, chunk *domain.FileChunk) error {
	if s.maxFileSize > 0 && chunk.Seq == 0 && chunk.Size > s.maxFileSize {
		return domain.ErrFileTooLarge
	}

	counterpart, err := s.counterpart(ctx, roomID, sender)
	if err != nil {
		return err
	}

	notice := domain.ChunkNotice{From: sender, Chunk: chunk}
	if err := s.notifier.Notify(ctx, counterpart.UID, domain.EventFileChunk, notice); err != nil {
		return fmt.Errorf("failed to relay chunk: %w", err)
	}

	s.metrics.ObserveChunkRelayed(int64(len(chunk.Data)))
	return nil
}

func (s *relayService) counterpart(ctx context.Context, roomID domain.RoomID, sender domain.UID) (*domain.Peer, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Member(sender) == nil {
		return nil, domain.ErrNotInRoom
	}

	// Relay needs an active room: a sole member has nobody to relay to.
	counterpart := room.Counterpart(sender)
	if counterpart == nil {
		return nil, domain.ErrNotInRoom
	}
	return counterpart, nil
}
