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

type studyRepository struct {
	BaseRepository
}

func NewStudyRepository(db *sqlx.DB) repository.StudyRepository {
	return &studyRepository{BaseRepository: NewBaseRepository(db)}
}

const studyInsert = `
	INSERT INTO patient_studies (
		id, study_id, patient_id, center_id, practitioner_id, body_part,
		modality, priority, cpt_code, procedure, description, clinical_info,
		site, access_code, reporting_status, status, paperwork, dicoms,
		created_at, updated_at
	) VALUES (
		:id, :study_id, :patient_id, :center_id, :practitioner_id, :body_part,
		:modality, :priority, :cpt_code, :procedure, :description, :clinical_info,
		:site, :access_code, :reporting_status, :status, :paperwork, :dicoms,
		:created_at, :updated_at
	)
`

const studyUpdate = `
	UPDATE patient_studies SET
		body_part = :body_part, modality = :modality, priority = :priority,
		cpt_code = :cpt_code, procedure = :procedure,
		description = :description, clinical_info = :clinical_info,
		site = :site, access_code = :access_code,
		reporting_status = :reporting_status, status = :status,
		paperwork = :paperwork, dicoms = :dicoms, updated_at = :updated_at
	WHERE id = :id
`

func (r *studyRepository) Create(ctx context.Context, study *model.PatientStudy) error {
	study.CreatedAt = time.Now()
	study.UpdatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, studyInsert, study); err != nil {
		return fmt.Errorf("failed to create study: %w", mapErr(err))
	}
	return nil
}

func (r *studyRepository) GetByStudyID(ctx context.Context, studyID string) (*model.PatientStudy, error) {
	query := `SELECT * FROM patient_studies WHERE study_id = $1`
	var study model.PatientStudy
	if err := r.db.GetContext(ctx, &study, query, studyID); err != nil {
		return nil, mapErr(err)
	}
	return &study, nil
}

func (r *studyRepository) Update(ctx context.Context, study *model.PatientStudy) error {
	study.UpdatedAt = time.Now()
	if _, err := r.db.NamedExecContext(ctx, studyUpdate, study); err != nil {
		return fmt.Errorf("failed to update study: %w", mapErr(err))
	}
	return nil
}

// UpdateWithTrash commits the trash record and the study update together.
// The caller deletes superseded objects from storage only after this
// returns, so the bin copy is durable before any live file disappears.
func (r *studyRepository) UpdateWithTrash(ctx context.Context, study *model.PatientStudy, trash *model.Trash) error {
	study.UpdatedAt = time.Now()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if trash != nil {
			trash.CreatedAt = time.Now()
			insert := `
				INSERT INTO trash (id, center_id, files, created_at)
				VALUES (:id, :center_id, :files, :created_at)
			`
			if _, err := tx.NamedExecContext(ctx, insert, trash); err != nil {
				return fmt.Errorf("failed to create trash record: %w", mapErr(err))
			}
		}
		if _, err := tx.NamedExecContext(ctx, studyUpdate, study); err != nil {
			return fmt.Errorf("failed to update study: %w", mapErr(err))
		}
		return nil
	})
}

func (r *studyRepository) Designate(ctx context.Context, id uuid.UUID, practitionerID *uuid.UUID, status model.StudyStatus) error {
	query := `
		UPDATE patient_studies
		SET practitioner_id = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	if _, err := r.db.ExecContext(ctx, query, practitionerID, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to designate study: %w", mapErr(err))
	}
	return nil
}

func (r *studyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.StudyStatus) error {
	query := `UPDATE patient_studies SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update study status: %w", mapErr(err))
	}
	return nil
}

func (r *studyRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PatientStudy, error) {
	query := `SELECT * FROM patient_studies WHERE patient_id = $1 ORDER BY updated_at DESC`
	studies := []*model.PatientStudy{}
	if err := r.db.SelectContext(ctx, &studies, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	return studies, nil
}

func (r *studyRepository) List(ctx context.Context, f *model.StudyFilters) ([]*model.PatientStudy, int, error) {
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
	if f.Modality != "" {
		args = append(args, f.Modality)
		where = append(where, fmt.Sprintf("modality = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if f.PractitionerID != nil {
		args = append(args, *f.PractitionerID)
		where = append(where, fmt.Sprintf("practitioner_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(body_part ILIKE $%d OR clinical_info ILIKE $%d OR access_code ILIKE $%d OR study_id ILIKE $%d)",
			n, n, n, n))
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM patient_studies WHERE "+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count studies: %w", err)
	}

	orderBy := "updated_at DESC"
	if f.SortBy == "name" {
		orderBy = "body_part ASC"
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(
		"SELECT * FROM patient_studies WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		clause, orderBy, len(args)-1, len(args))

	studies := []*model.PatientStudy{}
	if err := r.db.SelectContext(ctx, &studies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list studies: %w", err)
	}
	return studies, total, nil
}

func (r *studyRepository) CountByPractitionerAndPatient(ctx context.Context, practitionerID, patientID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM patient_studies WHERE practitioner_id = $1 AND patient_id = $2`
	err := r.db.GetContext(ctx, &count, query, practitionerID, patientID)
	return count, err
}

func (r *studyRepository) DistinctPatientIDs(ctx context.Context, practitionerID uuid.UUID, start, end time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT patient_id FROM patient_studies
		WHERE practitioner_id = $1 AND created_at >= $2 AND created_at < $3
	`
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, query, practitionerID, start, end); err != nil {
		return nil, fmt.Errorf("failed to list assigned patients: %w", err)
	}
	return ids, nil
}

func (r *studyRepository) CountByCenter(ctx context.Context, centerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patient_studies WHERE center_id = $1`, centerID)
	return count, err
}

func (r *studyRepository) DicomCountByCenter(ctx context.Context, centerID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COALESCE(SUM(jsonb_array_length(dicoms)), 0)
		FROM patient_studies WHERE center_id = $1
	`
	err := r.db.GetContext(ctx, &count, query, centerID)
	return count, err
}
