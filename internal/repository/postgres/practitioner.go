package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

type practitionerRepository struct {
	BaseRepository
}

func NewPractitionerRepository(db *sqlx.DB) repository.PractitionerRepository {
	return &practitionerRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *practitionerRepository) Create(ctx context.Context, p *model.Practitioner) error {
	query := `
		INSERT INTO practitioners (
			id, center_id, type, role, fullname, email, phone,
			practice_number, address, city, state, country, zip_code,
			status, password_hash, created_at, updated_at
		) VALUES (
			:id, :center_id, :type, :role, :fullname, :email, :phone,
			:practice_number, :address, :city, :state, :country, :zip_code,
			:status, :password_hash, :created_at, :updated_at
		)
	`
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create practitioner: %w", mapErr(err))
	}
	return nil
}

func (r *practitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	var p model.Practitioner
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM practitioners WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *practitionerRepository) GetByEmailOrPracticeNumber(ctx context.Context, email, practiceNumber string) (*model.Practitioner, error) {
	query := `
		SELECT * FROM practitioners
		WHERE LOWER(email) = LOWER($1) OR LOWER(practice_number) = LOWER($2)
		LIMIT 1
	`
	var p model.Practitioner
	if err := r.db.GetContext(ctx, &p, query, email, practiceNumber); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *practitionerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	query := `UPDATE practitioners SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update practitioner status: %w", mapErr(err))
	}
	return nil
}

func (r *practitionerRepository) ListStaff(ctx context.Context, f *model.StaffFilters) ([]*model.StaffMember, error) {
	orderBy := "created_at DESC"
	if f.SortBy == "name" {
		orderBy = "fullname ASC"
	}
	where := []string{"center_id = $1", "(fullname ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)"}
	args := []interface{}{f.CenterID, "%" + f.Search + "%"}
	if f.Role != "" {
		args = append(args, f.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, role, email, phone, status, fullname, created_at
		FROM practitioners
		WHERE %s
		ORDER BY %s LIMIT $%d OFFSET $%d
	`, strings.Join(where, " AND "), orderBy, len(args)-1, len(args))

	staff := []*model.StaffMember{}
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	return staff, nil
}
