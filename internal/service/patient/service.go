// Package patient owns the patient registry: sequential MRN assignment,
// per-center uniqueness and the archive gate on mutations.
package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
	"github.com/medscanhq/medscan-api/internal/service/access"
	"github.com/medscanhq/medscan-api/pkg/apperror"
)

// mrnRetries bounds re-allocation attempts when concurrent registrations
// race for the same sequence value.
const mrnRetries = 3

type Service struct {
	repo   repository.PatientRepository
	policy *access.Policy
}

func NewService(repo repository.PatientRepository, policy *access.Policy) *Service {
	return &Service{repo: repo, policy: policy}
}

// AddPatient registers a patient under the caller's center, assigning the
// next MRN in the system-wide sequence.
func (s *Service) AddPatient(ctx context.Context, caller model.Identity, req *model.AddPatientRequest) (*model.Patient, error) {
	existing, err := s.repo.FindConflict(ctx, caller.CenterID, req.Email, req.Phone, req.NationalID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict(conflictMessage(existing, req))
	}

	p := &model.Patient{
		Base:          model.Base{ID: uuid.New()},
		CenterID:      caller.CenterID,
		Fullname:      req.Fullname,
		Email:         req.Email,
		Phone:         req.Phone,
		DOB:           req.DOB,
		Gender:        req.Gender,
		MaritalStatus: req.MaritalStatus,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Country:       req.Country,
		ZipCode:       req.ZipCode,
		NationalID:    req.NationalID,
		Status:        model.PatientStatusActive,
	}

	// Concurrent registrations can race for the same sequence value; the
	// loser hits the unique mrn index and re-reads the sequence instead of
	// surfacing the collision to the client.
	for attempt := 0; ; attempt++ {
		seq, err := s.repo.NextMRNSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate mrn: %w", err)
		}
		if seq > model.MaxMRNSeq {
			return nil, apperror.BadRequest("medical record number sequence exhausted")
		}
		p.MRN = fmt.Sprintf("%07d", seq)

		err = s.repo.Create(ctx, p)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) {
			if attempt < mrnRetries {
				continue
			}
			return nil, apperror.Conflict("patient with the same mrn or contact details already exists")
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	log.Info().Str("mrn", p.MRN).Str("center_id", caller.CenterID.String()).Msg("patient registered")
	return p, nil
}

// EditPatient applies partial updates. Archived patients are frozen until
// their status is set back to Active in the same request.
func (s *Service) EditPatient(ctx context.Context, caller model.Identity, mrn string, req *model.EditPatientRequest) (*model.Patient, error) {
	p, err := s.getOwned(ctx, caller, mrn)
	if err != nil {
		return nil, err
	}

	unarchiving := req.Status != nil && model.PatientStatus(*req.Status) == model.PatientStatusActive
	if p.Status == model.PatientStatusArchived && !unarchiving {
		return nil, apperror.Forbidden("patient record is archived")
	}

	applyPatientEdit(p, req)

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("another patient already uses those contact details")
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return p, nil
}

// GetPatient returns the patient when the caller's role may see them.
func (s *Service) GetPatient(ctx context.Context, caller model.Identity, mrn string) (*model.Patient, error) {
	p, err := s.getOwned(ctx, caller, mrn)
	if err != nil {
		return nil, err
	}

	allowed, err := s.policy.CanAccessPatient(ctx, caller, p.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.Forbidden("you do not have access to this patient")
	}
	return p, nil
}

// getOwned resolves mrn within the caller's center. A cross-center mrn is
// reported as not found, never as forbidden, so existence is not confirmed
// across tenants.
func (s *Service) getOwned(ctx context.Context, caller model.Identity, mrn string) (*model.Patient, error) {
	p, err := s.repo.GetByMRN(ctx, caller.CenterID, mrn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func conflictMessage(existing *model.Patient, req *model.AddPatientRequest) string {
	field := "email"
	switch {
	case existing.Phone == req.Phone:
		field = "phone"
	case req.NationalID != "" && existing.NationalID == req.NationalID:
		field = "national id"
	}
	return fmt.Sprintf("a patient with the same %s already exists (MRN %s)", field, existing.MRN)
}

func applyPatientEdit(p *model.Patient, req *model.EditPatientRequest) {
	if req.Fullname != nil {
		p.Fullname = *req.Fullname
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.DOB != nil {
		p.DOB = *req.DOB
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.MaritalStatus != nil {
		p.MaritalStatus = *req.MaritalStatus
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.State != nil {
		p.State = *req.State
	}
	if req.Country != nil {
		p.Country = *req.Country
	}
	if req.ZipCode != nil {
		p.ZipCode = *req.ZipCode
	}
	if req.NationalID != nil {
		p.NationalID = *req.NationalID
	}
	if req.Status != nil {
		p.Status = model.PatientStatus(*req.Status)
	}
	p.UpdatedAt = time.Now()
}
