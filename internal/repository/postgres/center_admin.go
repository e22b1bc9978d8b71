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

type centerAdminRepository struct {
	BaseRepository
}

func NewCenterAdminRepository(db *sqlx.DB) repository.CenterAdminRepository {
	return &centerAdminRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *centerAdminRepository) Create(ctx context.Context, admin *model.CenterAdmin) error {
	query := `
		INSERT INTO center_admins (
			id, center_id, fullname, email, phone, super_admin, status,
			password_hash, created_at, updated_at
		) VALUES (
			:id, :center_id, :fullname, :email, :phone, :super_admin, :status,
			:password_hash, :created_at, :updated_at
		)
	`
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("failed to create center admin: %w", mapErr(err))
	}
	return nil
}

func (r *centerAdminRepository) Get(ctx context.Context, id uuid.UUID) (*model.CenterAdmin, error) {
	var admin model.CenterAdmin
	if err := r.db.GetContext(ctx, &admin, `SELECT * FROM center_admins WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return &admin, nil
}

func (r *centerAdminRepository) GetByEmail(ctx context.Context, email string) (*model.CenterAdmin, error) {
	query := `SELECT * FROM center_admins WHERE LOWER(email) = LOWER($1)`
	var admin model.CenterAdmin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, mapErr(err)
	}
	return &admin, nil
}

func (r *centerAdminRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	query := `UPDATE center_admins SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update center admin status: %w", mapErr(err))
	}
	return nil
}

func (r *centerAdminRepository) ListStaff(ctx context.Context, f *model.StaffFilters) ([]*model.StaffMember, error) {
	orderBy := "created_at DESC"
	if f.SortBy == "name" {
		orderBy = "fullname ASC"
	}
	query := fmt.Sprintf(`
		SELECT id, 'centerAdmin' AS role, email, phone, status, fullname, created_at
		FROM center_admins
		WHERE center_id = $1
		  AND (fullname ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY %s LIMIT $3 OFFSET $4
	`, orderBy)

	staff := []*model.StaffMember{}
	search := "%" + f.Search + "%"
	if err := r.db.SelectContext(ctx, &staff, query, f.CenterID, search, f.Limit, (f.Page-1)*f.Limit); err != nil {
		return nil, fmt.Errorf("failed to list center admins: %w", err)
	}
	return staff, nil
}
