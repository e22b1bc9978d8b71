package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

type trashRepository struct {
	BaseRepository
}

func NewTrashRepository(db *sqlx.DB) repository.TrashRepository {
	return &trashRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *trashRepository) Create(ctx context.Context, trash *model.Trash) error {
	query := `
		INSERT INTO trash (id, center_id, files, created_at)
		VALUES (:id, :center_id, :files, :created_at)
	`
	trash.CreatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, query, trash); err != nil {
		return fmt.Errorf("failed to create trash record: %w", mapErr(err))
	}
	return nil
}

func (r *trashRepository) ListByCenter(ctx context.Context, centerID uuid.UUID) ([]*model.Trash, error) {
	query := `SELECT * FROM trash WHERE center_id = $1 ORDER BY created_at DESC`
	records := []*model.Trash{}
	if err := r.db.SelectContext(ctx, &records, query, centerID); err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	return records, nil
}
