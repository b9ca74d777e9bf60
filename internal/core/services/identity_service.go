package services

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
	"github.com/Arnob004/FileShare/pkg/utils"
)

// provisionAttempts bounds the collision retry loop. At 5 alphanumeric
// characters the keyspace is ~916M, so more than a couple of retries
// means something is wrong.
const provisionAttempts = 10

var nameAdjectives = []string{
	"Swift", "Quiet", "Brave", "Clever", "Gentle", "Lucky",
	"Merry", "Nimble", "Proud", "Rapid", "Sunny", "Witty",
}

var nameAnimals = []string{
	"Falcon", "Otter", "Badger", "Heron", "Lynx", "Marten",
	"Osprey", "Puffin", "Raven", "Stoat", "Tern", "Wren",
}

type identityService struct {
	peerRepo  ports.PeerRepository
	uidLength int
}

func NewIdentityService(peerRepo ports.PeerRepository, uidLength int) ports.IdentityService {
	return &identityService{
		peerRepo:  peerRepo,
		uidLength: uidLength,
	}
}

func (s *identityService) ProvisionUID(ctx context.Context) (domain.UID, error) {
	for i := 0; i < provisionAttempts; i++ {
		uid := domain.UID(utils.GenerateUID(s.uidLength))

		exists, err := s.peerRepo.Exists(ctx, uid)
		if err != nil {
			return "", fmt.Errorf("failed to check uid: %w", err)
		}
		if !exists {
			return uid, nil
		}
	}
	return "", fmt.Errorf("failed to provision uid after %d attempts", provisionAttempts)
}

func (s *identityService) DefaultDisplayName() string {
	adj := nameAdjectives[rand.Intn(len(nameAdjectives))]
	animal := nameAnimals[rand.Intn(len(nameAnimals))]
	return adj + " " + animal
}
