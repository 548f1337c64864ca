package exemptions

import (
	"context"
	"errors"

	"bot_gatekeeper/internal/domain/model"
	pgrepo "bot_gatekeeper/internal/repo/postgres"
)

// ErrNotFound is returned when removing an exemption that does not exist.
var ErrNotFound = errors.New("exemption not found")

type Repo interface {
	Add(ctx context.Context, chatID, userID, addedByTGID int64) error
	Remove(ctx context.Context, chatID, userID int64) error
	Exists(ctx context.Context, chatID, userID int64) (bool, error)
	List(ctx context.Context, chatID int64) ([]model.Exemption, error)
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	if s.repo == nil {
		return false, nil
	}
	return s.repo.Exists(ctx, chatID, userID)
}

// Add exempts a member. Adding an already-exempt member succeeds.
func (s *Service) Add(ctx context.Context, chatID, userID, addedByTGID int64) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Add(ctx, chatID, userID, addedByTGID)
}

func (s *Service) Remove(ctx context.Context, chatID, userID int64) error {
	if s.repo == nil {
		return ErrNotFound
	}
	if err := s.repo.Remove(ctx, chatID, userID); err != nil {
		if errors.Is(err, pgrepo.ErrExemptionNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, chatID int64) ([]model.Exemption, error) {
	if s.repo == nil {
		return []model.Exemption{}, nil
	}
	return s.repo.List(ctx, chatID)
}
