package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *patientRepository) NextMRNSeq(ctx context.Context) (int64, error) {
	var seq int64
	query := `SELECT COALESCE(MAX(CAST(mrn AS BIGINT)), 0) + 1 FROM patients`
	if err := r.db.GetContext(ctx, &seq, query); err != nil {
		return 0, fmt.Errorf("failed to read mrn sequence: %w", err)
	}
	return seq, nil
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, center_id, mrn, fullname, email, phone, dob, gender,
			marital_status, address, city, state, country, zip_code,
			national_id, status, created_at, updated_at
		) VALUES (
			:id, :center_id, :mrn, :fullname, :email, :phone, :dob, :gender,
			:marital_status, :address, :city, :state, :country, :zip_code,
			:national_id, :status, :created_at, :updated_at
		)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", mapErr(err))
	}
	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, `SELECT * FROM patients WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByMRN(ctx context.Context, centerID uuid.UUID, mrn string) (*model.Patient, error) {
	// a nil center means the caller is not center-bound and resolves
	// patients across centers
	query := `SELECT * FROM patients WHERE center_id = $1 AND mrn = $2`
	args := []interface{}{centerID, mrn}
	if centerID == uuid.Nil {
		query = `SELECT * FROM patients WHERE mrn = $1`
		args = []interface{}{mrn}
	}

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, args...); err != nil {
		return nil, mapErr(err)
	}
	return &patient, nil
}

func (r *patientRepository) FindConflict(ctx context.Context, centerID uuid.UUID, email, phone, nationalID string) (*model.Patient, error) {
	query := `
		SELECT * FROM patients
		WHERE center_id = $1
		  AND (LOWER(email) = LOWER($2) OR phone = $3 OR (national_id <> '' AND national_id = $4))
		LIMIT 1
	`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, centerID, email, phone, nationalID); err != nil {
		return nil, mapErr(err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			fullname = :fullname, email = :email, phone = :phone, dob = :dob,
			gender = :gender, marital_status = :marital_status,
			address = :address, city = :city, state = :state,
			country = :country, zip_code = :zip_code,
			national_id = :national_id, status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`
	patient.UpdatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to update patient: %w", mapErr(err))
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, f *model.PatientFilters) ([]*model.Patient, int, error) {
	where := []string{"created_at >= $1", "created_at < $2"}
	args := []interface{}{f.StartDate, f.EndDate}

	if f.CenterID != uuid.Nil {
		args = append(args, f.CenterID)
		where = append(where, fmt.Sprintf("center_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(fullname ILIKE $%d OR mrn ILIKE $%d OR national_id ILIKE $%d OR address ILIKE $%d OR phone ILIKE $%d)",
			n, n, n, n, n))
	}
	if f.PatientIDs != nil {
		args = append(args, pq.Array(f.PatientIDs))
		where = append(where, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM patients WHERE " + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	orderBy := "updated_at DESC"
	if f.SortBy == "name" {
		orderBy = "fullname ASC"
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(
		"SELECT * FROM patients WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		clause, orderBy, len(args)-1, len(args))

	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

func (r *patientRepository) CountByCenter(ctx context.Context, centerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patients WHERE center_id = $1`, centerID)
	return count, err
}

func (r *patientRepository) CountCreatedBetween(ctx context.Context, centerID uuid.UUID, start, end time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM patients WHERE center_id = $1 AND created_at >= $2 AND created_at < $3`
	err := r.db.GetContext(ctx, &count, query, centerID, start, end)
	return count, err
}
