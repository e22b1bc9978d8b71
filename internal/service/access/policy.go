// Package access decides whether a caller may see or act on a patient and
// their studies.
//
// Center admins and center-bound radiologists have blanket visibility inside
// their own center. Doctors and system practitioners see a patient only once
// at least one of that patient's studies is assigned to them: no cold
// discovery of records through guessed identifiers.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

type Policy struct {
	practitioners repository.PractitionerRepository
	studies       repository.StudyRepository
}

func NewPolicy(practitioners repository.PractitionerRepository, studies repository.StudyRepository) *Policy {
	return &Policy{practitioners: practitioners, studies: studies}
}

// CanAccessPatient reports whether the identity may view the patient's
// records. The patient is assumed to already be center-checked by the
// caller; this decides role visibility only.
func (p *Policy) CanAccessPatient(ctx context.Context, caller model.Identity, patientID uuid.UUID) (bool, error) {
	if caller.Role == model.RoleCenterAdmin {
		return true, nil
	}

	prac, err := p.practitioners.Get(ctx, caller.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve practitioner: %w", err)
	}

	if prac.Type == model.PractitionerTypeCenter && prac.Role == model.RoleRadiologist {
		return true, nil
	}

	count, err := p.studies.CountByPractitionerAndPatient(ctx, prac.ID, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count > 0, nil
}

// CanAccessStudy reports whether the identity may view the study. Access to
// a study follows access to its patient.
func (p *Policy) CanAccessStudy(ctx context.Context, caller model.Identity, study *model.PatientStudy) (bool, error) {
	return p.CanAccessPatient(ctx, caller, study.PatientID)
}
