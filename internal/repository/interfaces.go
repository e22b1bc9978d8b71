package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medscanhq/medscan-api/internal/model"
)

// ErrNotFound is returned when a row does not exist. Implementations map
// their driver's no-rows condition onto it so services can use errors.Is.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned on unique-constraint violations.
var ErrDuplicate = errors.New("record already exists")

type (
	PatientRepository interface {
		// NextMRNSeq returns the next medical record number in the
		// system-wide sequence (previous max + 1).
		NextMRNSeq(ctx context.Context) (int64, error)
		Create(ctx context.Context, patient *model.Patient) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		// GetByMRN resolves the mrn within the center. A nil centerID
		// resolves across all centers for callers not bound to one.
		GetByMRN(ctx context.Context, centerID uuid.UUID, mrn string) (*model.Patient, error)
		// FindConflict returns an existing patient in the center colliding
		// on email, phone or national id, or ErrNotFound.
		FindConflict(ctx context.Context, centerID uuid.UUID, email, phone, nationalID string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// List filters by center only when filters.CenterID is set; a nil
		// center lists across centers, narrowed by PatientIDs for
		// assignment-scoped callers.
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error)
		CountByCenter(ctx context.Context, centerID uuid.UUID) (int, error)
		CountCreatedBetween(ctx context.Context, centerID uuid.UUID, start, end time.Time) (int, error)
	}

	StudyRepository interface {
		Create(ctx context.Context, study *model.PatientStudy) error
		GetByStudyID(ctx context.Context, studyID string) (*model.PatientStudy, error)
		Update(ctx context.Context, study *model.PatientStudy) error
		// UpdateWithTrash persists the edited study and, when trash is
		// non-nil, the trash record in one transaction.
		UpdateWithTrash(ctx context.Context, study *model.PatientStudy, trash *model.Trash) error
		Designate(ctx context.Context, id uuid.UUID, practitionerID *uuid.UUID, status model.StudyStatus) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.StudyStatus) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PatientStudy, error)
		List(ctx context.Context, filters *model.StudyFilters) ([]*model.PatientStudy, int, error)
		// CountByPractitionerAndPatient counts studies of the patient
		// assigned to the practitioner. The access policy treats zero as
		// no visibility.
		CountByPractitionerAndPatient(ctx context.Context, practitionerID, patientID uuid.UUID) (int, error)
		// DistinctPatientIDs lists patients reachable through the
		// practitioner's assignments in the date range.
		DistinctPatientIDs(ctx context.Context, practitionerID uuid.UUID, start, end time.Time) ([]uuid.UUID, error)
		CountByCenter(ctx context.Context, centerID uuid.UUID) (int, error)
		DicomCountByCenter(ctx context.Context, centerID uuid.UUID) (int, error)
	}

	TrashRepository interface {
		Create(ctx context.Context, trash *model.Trash) error
		ListByCenter(ctx context.Context, centerID uuid.UUID) ([]*model.Trash, error)
	}

	PractitionerRepository interface {
		Create(ctx context.Context, p *model.Practitioner) error
		Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
		GetByEmailOrPracticeNumber(ctx context.Context, email, practiceNumber string) (*model.Practitioner, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error
		ListStaff(ctx context.Context, filters *model.StaffFilters) ([]*model.StaffMember, error)
	}

	CenterAdminRepository interface {
		Create(ctx context.Context, admin *model.CenterAdmin) error
		Get(ctx context.Context, id uuid.UUID) (*model.CenterAdmin, error)
		GetByEmail(ctx context.Context, email string) (*model.CenterAdmin, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error
		ListStaff(ctx context.Context, filters *model.StaffFilters) ([]*model.StaffMember, error)
	}
)
