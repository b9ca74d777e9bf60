package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
	"github.com/Arnob004/FileShare/pkg/validation"
)

type roomService struct {
	roomRepo ports.RoomRepository
	notifier ports.Notifier
	metrics  ports.MetricsCollector
}

func NewRoomService(
	roomRepo ports.RoomRepository,
	notifier ports.Notifier,
	metrics ports.MetricsCollector,
) ports.RoomService {
	return &roomService{
		roomRepo: roomRepo,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (s *roomService) Join(ctx context.Context, roomID domain.RoomID, peer *domain.Peer) (*domain.Room, error) {
	if err := validation.ValidateRoomID(string(roomID)); err != nil {
		return nil, domain.ErrInvalidRoom
	}

	// One session per peer: a member of another room cannot join this
	// one until it leaves. Rejoining the same room stays allowed.
	if existing, err := s.roomRepo.FindByMember(ctx, peer.UID); err == nil {
		if existing.ID != roomID {
			return nil, domain.ErrAlreadyInRoom
		}
	} else if !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	room, err := s.roomRepo.AddMember(ctx, roomID, peer)
	if err != nil {
		return nil, err
	}

	s.updateRoomGauge(ctx)

	// Both members learn about each other: the one already waiting gets
	// the joiner, the joiner gets whoever is present.
	if counterpart := room.Counterpart(peer.UID); counterpart != nil {
		_ = s.notifier.Notify(ctx, counterpart.UID, domain.EventConnectedUser, domain.RoomNotice{
			User:   room.Member(peer.UID),
			RoomID: roomID,
		})
		_ = s.notifier.Notify(ctx, peer.UID, domain.EventConnectedUser, domain.RoomNotice{
			User:   counterpart,
			RoomID: roomID,
		})
	}
	return room, nil
}

func (s *roomService) Leave(ctx context.Context, roomID domain.RoomID, uid domain.UID) error {
	departed, remaining, err := s.roomRepo.RemoveMember(ctx, roomID, uid)
	if err != nil {
		return err
	}

	s.updateRoomGauge(ctx)

	if remaining != nil {
		_ = s.notifier.Notify(ctx, remaining.UID, domain.EventUserLeft, domain.RoomNotice{
			User:   departed,
			RoomID: roomID,
		})
	}
	return nil
}

// HandleDisconnect treats a transport drop as an implicit leave.
func (s *roomService) HandleDisconnect(ctx context.Context, uid domain.UID) error {
	room, err := s.roomRepo.FindByMember(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find room for peer: %w", err)
	}
	return s.Leave(ctx, room.ID, uid)
}

func (s *roomService) updateRoomGauge(ctx context.Context) {
	if rooms, err := s.roomRepo.List(ctx); err == nil {
		s.metrics.SetRoomsActive(len(rooms))
	}
}
