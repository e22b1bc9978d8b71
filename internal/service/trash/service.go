// Package trash exposes the per-center bin of superseded paperwork.
package trash

import (
	"context"
	"fmt"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

type Service struct {
	repo repository.TrashRepository
}

func NewService(repo repository.TrashRepository) *Service {
	return &Service{repo: repo}
}

// ListTrash returns the center's archived file batches, newest first.
func (s *Service) ListTrash(ctx context.Context, caller model.Identity) ([]*model.Trash, error) {
	items, err := s.repo.ListByCenter(ctx, caller.CenterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	return items, nil
}
