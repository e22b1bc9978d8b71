// Package study implements the patient-study lifecycle: creation with
// attached paperwork, edits that archive superseded files into the bin,
// practitioner designation, and the status machine
// Unassigned -> Assigned -> Opened -> Closed.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/objectstore"
	"github.com/medscanhq/medscan-api/internal/repository"
	"github.com/medscanhq/medscan-api/internal/service/access"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/token"
)

// studyIDRetries bounds regeneration attempts on the rare random collision.
const studyIDRetries = 3

type Service struct {
	studies       repository.StudyRepository
	patients      repository.PatientRepository
	practitioners repository.PractitionerRepository
	store         objectstore.Store
	policy        *access.Policy
}

func NewService(
	studies repository.StudyRepository,
	patients repository.PatientRepository,
	practitioners repository.PractitionerRepository,
	store objectstore.Store,
	policy *access.Policy,
) *Service {
	return &Service{
		studies:       studies,
		patients:      patients,
		practitioners: practitioners,
		store:         store,
		policy:        policy,
	}
}

// DesignateResult is returned by DesignateStudy so the caller can render
// the three affected records without refetching.
type DesignateResult struct {
	Study        *model.PatientStudy `json:"study"`
	Patient      *model.Patient      `json:"patient"`
	Practitioner *model.Practitioner `json:"practitioner"`
}

// CreateStudy attaches a new imaging order to the patient, uploading any
// paperwork first. The returned study carries the generated external
// study_id handle.
func (s *Service) CreateStudy(ctx context.Context, caller model.Identity, mrn string, req *model.CreateStudyRequest, files []UploadFile) (*model.PatientStudy, error) {
	patient, err := s.ownedPatient(ctx, caller, mrn)
	if err != nil {
		return nil, err
	}
	if patient.Status == model.PatientStatusArchived {
		return nil, apperror.Forbidden("patient record is archived")
	}

	paperwork, err := s.uploadBatch(ctx, files, KindPaperwork, uploadPrefix(caller.CenterID.String(), mrn))
	if err != nil {
		return nil, err
	}

	study := &model.PatientStudy{
		Base:            model.Base{ID: uuid.New()},
		PatientID:       patient.ID,
		CenterID:        caller.CenterID,
		BodyPart:        req.BodyPart,
		Modality:        req.Modality,
		Priority:        req.Priority,
		CPTCode:         req.CPTCode,
		Procedure:       req.Procedure,
		Description:     req.Description,
		ClinicalInfo:    req.ClinicalInfo,
		Site:            req.Site,
		AccessCode:      req.AccessCode,
		ReportingStatus: req.ReportingStatus,
		Status:          model.StudyStatusUnassigned,
		Paperwork:       paperwork,
		Dicoms:          model.FileRefs{},
	}

	for attempt := 0; ; attempt++ {
		study.StudyID = token.GenStudyID()
		err = s.studies.Create(ctx, study)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < studyIDRetries {
			continue
		}
		// the study row never existed; remove what the batch stored
		if cleanupErr := s.deleteRefs(ctx, paperwork); cleanupErr != nil {
			log.Error().Err(cleanupErr).Str("mrn", mrn).Msg("failed to clean up paperwork after create failure")
		}
		return nil, fmt.Errorf("failed to create study: %w", err)
	}

	log.Info().Str("study_id", study.StudyID).Str("mrn", mrn).Msg("study created")
	return study, nil
}

// EditStudy applies field updates and, when replacement paperwork is
// supplied, runs the archival protocol: the current paperwork is copied
// under bin/, batched into one trash record that commits together with the
// study update, and only then are the live copies deleted.
func (s *Service) EditStudy(ctx context.Context, caller model.Identity, mrn, studyID string, req *model.EditStudyRequest, files []UploadFile) (*model.PatientStudy, error) {
	study, err := s.ownedStudy(ctx, caller, studyID)
	if err != nil {
		return nil, err
	}

	owner, err := s.owningPatient(ctx, study)
	if err != nil {
		return nil, err
	}
	if owner.MRN != mrn {
		return nil, apperror.NotFound("study")
	}
	if owner.Status == model.PatientStatusArchived {
		return nil, apperror.Forbidden("patient record is archived")
	}

	var trash *model.Trash
	superseded := study.Paperwork

	if len(files) > 0 {
		newRefs, err := s.uploadBatch(ctx, files, KindPaperwork, uploadPrefix(caller.CenterID.String(), owner.MRN))
		if err != nil {
			return nil, err
		}

		if len(superseded) > 0 {
			binRefs, err := s.archiveToBin(ctx, superseded)
			if err != nil {
				// new uploads are not yet referenced anywhere; undo them
				if cleanupErr := s.deleteRefs(ctx, newRefs); cleanupErr != nil {
					log.Error().Err(cleanupErr).Str("study_id", studyID).Msg("failed to clean up replacement paperwork")
				}
				return nil, err
			}
			trash = &model.Trash{
				ID:       uuid.New(),
				CenterID: study.CenterID,
				Files:    binRefs,
			}
		}
		study.Paperwork = newRefs
	}

	applyStudyEdit(study, req)

	if err := s.studies.UpdateWithTrash(ctx, study, trash); err != nil {
		return nil, fmt.Errorf("failed to persist study edit: %w", err)
	}

	// The trash record is durable; removing the live copies is best-effort
	// cleanup and never fails the edit.
	if trash != nil {
		if err := s.deleteRefs(ctx, superseded); err != nil {
			log.Error().Err(err).Str("study_id", studyID).Msg("failed to delete superseded paperwork")
		}
	}
	return study, nil
}

// archiveToBin copies every live ref under bin/ and returns the bin refs.
// No original is touched; a failure part-way leaves only unreferenced bin
// copies behind.
func (s *Service) archiveToBin(ctx context.Context, refs model.FileRefs) (model.FileRefs, error) {
	binRefs := make(model.FileRefs, 0, len(refs))
	for _, ref := range refs {
		binPath := "bin/" + ref.Path
		if err := s.store.Copy(ctx, ref.Path, binPath); err != nil {
			return nil, fmt.Errorf("failed to archive %s: %w", ref.Path, err)
		}
		binRefs = append(binRefs, model.FileRef{
			Path: binPath,
			URL:  s.store.URL(binPath),
			Type: ref.Type,
			Size: ref.Size,
		})
	}
	return binRefs, nil
}

// DesignateStudy assigns or unassigns a practitioner. Assignment is
// exclusive: a study carries at most one assignee, and the link and the
// status change commit together.
func (s *Service) DesignateStudy(ctx context.Context, caller model.Identity, mrn, studyID string, practitionerID uuid.UUID, action model.DesignateAction) (*DesignateResult, error) {
	patient, err := s.ownedPatient(ctx, caller, mrn)
	if err != nil {
		return nil, err
	}
	if patient.Status == model.PatientStatusArchived {
		return nil, apperror.Forbidden("patient record is archived")
	}

	study, err := s.ownedStudy(ctx, caller, studyID)
	if err != nil {
		return nil, err
	}
	if study.PatientID != patient.ID {
		return nil, apperror.NotFound("study")
	}

	prac, err := s.practitioners.Get(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("practitioner")
		}
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}

	var assignee *uuid.UUID
	status := model.StudyStatusUnassigned
	if action == model.DesignateAssign {
		assignee = &prac.ID
		status = model.StudyStatusAssigned
	}

	if err := s.studies.Designate(ctx, study.ID, assignee, status); err != nil {
		return nil, fmt.Errorf("failed to designate study: %w", err)
	}

	study.PractitionerID = assignee
	study.Status = status
	return &DesignateResult{Study: study, Patient: patient, Practitioner: prac}, nil
}

// GetStudy returns the study when the caller passes the access policy. It
// performs no state change; the Opened transition is applied separately via
// RecordView once the response has been sent.
func (s *Service) GetStudy(ctx context.Context, caller model.Identity, mrn, studyID string) (*model.PatientStudy, error) {
	study, err := s.ownedStudy(ctx, caller, studyID)
	if err != nil {
		return nil, err
	}

	if mrn != "" {
		owner, err := s.owningPatient(ctx, study)
		if err != nil {
			return nil, err
		}
		if owner.MRN != mrn {
			return nil, apperror.NotFound("study")
		}
	}

	allowed, err := s.policy.CanAccessStudy(ctx, caller, study)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.Forbidden("you do not have access to this study")
	}
	return study, nil
}

// RecordView applies the Assigned -> Opened transition for a qualifying
// viewer. Called after the read response has been flushed so a failed read
// never mutates state.
func (s *Service) RecordView(ctx context.Context, caller model.Identity, studyID string) {
	if caller.Role != model.RoleDoctor && caller.Role != model.RoleRadiologist {
		return
	}

	study, err := s.studies.GetByStudyID(ctx, studyID)
	if err != nil {
		log.Error().Err(err).Str("study_id", studyID).Msg("failed to load study for view transition")
		return
	}
	if study.Status != model.StudyStatusAssigned {
		return
	}
	if study.PractitionerID == nil || *study.PractitionerID != caller.SubjectID {
		return
	}

	if err := s.studies.UpdateStatus(ctx, study.ID, model.StudyStatusOpened); err != nil {
		log.Error().Err(err).Str("study_id", studyID).Msg("failed to mark study opened")
	}
}

// ListPatientStudies returns the patient's studies for callers the access
// policy admits.
func (s *Service) ListPatientStudies(ctx context.Context, caller model.Identity, mrn string) ([]*model.PatientStudy, error) {
	patient, err := s.ownedPatient(ctx, caller, mrn)
	if err != nil {
		return nil, err
	}

	allowed, err := s.policy.CanAccessPatient(ctx, caller, patient.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.Forbidden("you do not have access to this patient")
	}

	return s.studies.ListByPatient(ctx, patient.ID)
}

// UploadDicoms appends imaging payloads to the study. DICOM uploads extend
// the series; they never archive prior files.
func (s *Service) UploadDicoms(ctx context.Context, caller model.Identity, studyID string, files []UploadFile) (*model.PatientStudy, error) {
	study, err := s.ownedStudy(ctx, caller, studyID)
	if err != nil {
		return nil, err
	}

	owner, err := s.owningPatient(ctx, study)
	if err != nil {
		return nil, err
	}
	if owner.Status == model.PatientStatusArchived {
		return nil, apperror.Forbidden("patient record is archived")
	}

	refs, err := s.uploadBatch(ctx, files, KindDicom, uploadPrefix(caller.CenterID.String(), owner.MRN))
	if err != nil {
		return nil, err
	}

	study.Dicoms = append(study.Dicoms, refs...)
	if err := s.studies.Update(ctx, study); err != nil {
		if cleanupErr := s.deleteRefs(ctx, refs); cleanupErr != nil {
			log.Error().Err(cleanupErr).Str("study_id", studyID).Msg("failed to clean up dicoms after update failure")
		}
		return nil, fmt.Errorf("failed to attach dicoms: %w", err)
	}
	return study, nil
}

// FetchStudyDicoms returns the study's imaging refs, policy-gated like any
// other read.
func (s *Service) FetchStudyDicoms(ctx context.Context, caller model.Identity, studyID string) (model.FileRefs, error) {
	study, err := s.GetStudy(ctx, caller, "", studyID)
	if err != nil {
		return nil, err
	}
	return study.Dicoms, nil
}

// ownedStudy resolves studyID within the caller's center. Cross-center
// handles report not found so tenancy is never confirmed.
func (s *Service) ownedStudy(ctx context.Context, caller model.Identity, studyID string) (*model.PatientStudy, error) {
	study, err := s.studies.GetByStudyID(ctx, studyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("study")
		}
		return nil, fmt.Errorf("failed to get study: %w", err)
	}
	if caller.IsCenterBound() && study.CenterID != caller.CenterID {
		return nil, apperror.NotFound("study")
	}
	return study, nil
}

func (s *Service) ownedPatient(ctx context.Context, caller model.Identity, mrn string) (*model.Patient, error) {
	patient, err := s.patients.GetByMRN(ctx, caller.CenterID, mrn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) owningPatient(ctx context.Context, study *model.PatientStudy) (*model.Patient, error) {
	p, err := s.patients.GetByID(ctx, study.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func applyStudyEdit(study *model.PatientStudy, req *model.EditStudyRequest) {
	if req.BodyPart != nil {
		study.BodyPart = *req.BodyPart
	}
	if req.Modality != nil {
		study.Modality = *req.Modality
	}
	if req.Priority != nil {
		study.Priority = *req.Priority
	}
	if req.CPTCode != nil {
		study.CPTCode = *req.CPTCode
	}
	if req.Procedure != nil {
		study.Procedure = *req.Procedure
	}
	if req.Description != nil {
		study.Description = *req.Description
	}
	if req.ClinicalInfo != nil {
		study.ClinicalInfo = *req.ClinicalInfo
	}
	if req.Site != nil {
		study.Site = *req.Site
	}
	if req.AccessCode != nil {
		study.AccessCode = *req.AccessCode
	}
	if req.ReportingStatus != nil {
		study.ReportingStatus = *req.ReportingStatus
	}
}
