package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
)

type negotiationService struct {
	peerRepo    ports.PeerRepository
	requestRepo ports.RequestRepository
	notifier    ports.Notifier
	metrics     ports.MetricsCollector
}

func NewNegotiationService(
	peerRepo ports.PeerRepository,
	requestRepo ports.RequestRepository,
	notifier ports.Notifier,
	metrics ports.MetricsCollector,
) ports.NegotiationService {
	return &negotiationService{
		peerRepo:    peerRepo,
		requestRepo: requestRepo,
		notifier:    notifier,
		metrics:     metrics,
	}
}

func (s *negotiationService) Request(ctx context.Context, from, to domain.UID) (domain.RoomID, error) {
	requester, err := s.lookup(ctx, from)
	if err != nil {
		return "", err
	}

	exists, err := s.peerRepo.Exists(ctx, to)
	if err != nil {
		return "", fmt.Errorf("failed to check target: %w", err)
	}
	if !exists {
		return "", domain.ErrUnknownPeer
	}

	req := &domain.ConnectionRequest{
		From:      from,
		To:        to,
		RoomID:    domain.DeriveRoomID(from, to),
		Status:    domain.RequestPending,
		CreatedAt: time.Now(),
	}

	// A repeat of an unresolved request surfaces the already minted
	// room id instead of forking a second session.
	stored, created, err := s.requestRepo.PutIfAbsent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to store request: %w", err)
	}
	if created {
		s.metrics.ObserveNegotiation("requested")
	}

	notice := domain.RequestNotice{
		From:   from,
		Name:   requester.Name,
		Photo:  requester.Photo,
		RoomID: stored.RoomID,
	}
	if err := s.notifier.Notify(ctx, to, domain.EventReceiveRequest, notice); err != nil {
		return "", fmt.Errorf("failed to deliver request: %w", err)
	}
	return stored.RoomID, nil
}

func (s *negotiationService) Accept(ctx context.Context, self, from domain.UID, roomID domain.RoomID) error {
	// Resolve both identities before consuming the request, so a peer
	// that vanished mid-accept does not burn the pending entry.
	accepter, err := s.lookup(ctx, self)
	if err != nil {
		return err
	}
	requester, err := s.lookup(ctx, from)
	if err != nil {
		return err
	}

	req, err := s.requestRepo.Take(ctx, from, self, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return domain.ErrStaleRequest
		}
		return fmt.Errorf("failed to resolve request: %w", err)
	}

	s.metrics.ObserveNegotiation("accepted")

	notice := domain.RequestNotice{
		From:     self,
		Name:     accepter.Name,
		Photo:    accepter.Photo,
		RoomID:   req.RoomID,
		Sender:   requester,
		Receiver: accepter,
	}
	if err := s.notifier.Notify(ctx, from, domain.EventRequestAccepted, notice); err != nil {
		return fmt.Errorf("failed to deliver acceptance: %w", err)
	}
	return nil
}

func (s *negotiationService) lookup(ctx context.Context, uid domain.UID) (*domain.Peer, error) {
	peer, err := s.peerRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrPeerNotFound) {
			return nil, domain.ErrUnknownPeer
		}
		return nil, fmt.Errorf("failed to load peer %s: %w", uid, err)
	}
	return peer, nil
}

func (s *negotiationService) Decline(ctx context.Context, self, from domain.UID) error {
	req, err := s.requestRepo.Take(ctx, from, self, "")
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return domain.ErrStaleRequest
		}
		return fmt.Errorf("failed to resolve request: %w", err)
	}

	s.metrics.ObserveNegotiation("declined")

	notice := domain.RequestNotice{From: self, RoomID: req.RoomID}
	if err := s.notifier.Notify(ctx, from, domain.EventRequestDeclined, notice); err != nil {
		return fmt.Errorf("failed to deliver decline: %w", err)
	}
	return nil
}

// DiscardFor drops every pending request involving uid. Requesters whose
// request targeted uid are told it was declined, so their UI does not
// wait on a peer that is gone.
func (s *negotiationService) DiscardFor(ctx context.Context, uid domain.UID) error {
	removed, err := s.requestRepo.DeleteByPeer(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to discard requests: %w", err)
	}

	for _, req := range removed {
		s.metrics.ObserveNegotiation("discarded")
		if req.To != uid {
			continue
		}
		notice := domain.RequestNotice{From: uid, RoomID: req.RoomID}
		// Best-effort: the requester may be gone too.
		_ = s.notifier.Notify(ctx, req.From, domain.EventRequestDeclined, notice)
	}
	return nil
}
