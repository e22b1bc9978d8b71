package study

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

type fakeStudyRepo struct {
	studies map[string]*model.PatientStudy
	trash   []*model.Trash

	failCreate error
	failUpdate error
}

func newFakeStudyRepo() *fakeStudyRepo {
	return &fakeStudyRepo{studies: make(map[string]*model.PatientStudy)}
}

func (r *fakeStudyRepo) Create(_ context.Context, s *model.PatientStudy) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, ok := r.studies[s.StudyID]; ok {
		return repository.ErrDuplicate
	}
	cp := *s
	r.studies[s.StudyID] = &cp
	return nil
}

func (r *fakeStudyRepo) GetByStudyID(_ context.Context, studyID string) (*model.PatientStudy, error) {
	s, ok := r.studies[studyID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStudyRepo) Update(_ context.Context, s *model.PatientStudy) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	cp := *s
	r.studies[s.StudyID] = &cp
	return nil
}

func (r *fakeStudyRepo) UpdateWithTrash(_ context.Context, s *model.PatientStudy, trash *model.Trash) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	cp := *s
	r.studies[s.StudyID] = &cp
	if trash != nil {
		r.trash = append(r.trash, trash)
	}
	return nil
}

func (r *fakeStudyRepo) Designate(_ context.Context, id uuid.UUID, practitionerID *uuid.UUID, status model.StudyStatus) error {
	for _, s := range r.studies {
		if s.ID == id {
			s.PractitionerID = practitionerID
			s.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeStudyRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.StudyStatus) error {
	for _, s := range r.studies {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeStudyRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.PatientStudy, error) {
	var out []*model.PatientStudy
	for _, s := range r.studies {
		if s.PatientID == patientID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) List(_ context.Context, _ *model.StudyFilters) ([]*model.PatientStudy, int, error) {
	return nil, 0, nil
}

func (r *fakeStudyRepo) CountByPractitionerAndPatient(_ context.Context, practitionerID, patientID uuid.UUID) (int, error) {
	count := 0
	for _, s := range r.studies {
		if s.PatientID == patientID && s.PractitionerID != nil && *s.PractitionerID == practitionerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeStudyRepo) DistinctPatientIDs(_ context.Context, practitionerID uuid.UUID, _, _ time.Time) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, s := range r.studies {
		if s.PractitionerID != nil && *s.PractitionerID == practitionerID && !seen[s.PatientID] {
			seen[s.PatientID] = true
			out = append(out, s.PatientID)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) CountByCenter(_ context.Context, centerID uuid.UUID) (int, error) {
	count := 0
	for _, s := range r.studies {
		if s.CenterID == centerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeStudyRepo) DicomCountByCenter(_ context.Context, centerID uuid.UUID) (int, error) {
	count := 0
	for _, s := range r.studies {
		if s.CenterID == centerID {
			count += len(s.Dicoms)
		}
	}
	return count, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
	nextSeq  int64
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient), nextSeq: 1}
}

func (r *fakePatientRepo) add(p *model.Patient) {
	r.patients[p.ID] = p
}

func (r *fakePatientRepo) NextMRNSeq(_ context.Context) (int64, error) {
	return r.nextSeq, nil
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	r.nextSeq++
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) GetByMRN(_ context.Context, centerID uuid.UUID, mrn string) (*model.Patient, error) {
	for _, p := range r.patients {
		if (centerID == uuid.Nil || p.CenterID == centerID) && p.MRN == mrn {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePatientRepo) FindConflict(_ context.Context, centerID uuid.UUID, email, phone, nationalID string) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.CenterID != centerID {
			continue
		}
		if p.Email == email || p.Phone == phone || (nationalID != "" && p.NationalID == nationalID) {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, int, error) {
	return nil, 0, nil
}

func (r *fakePatientRepo) CountByCenter(_ context.Context, centerID uuid.UUID) (int, error) {
	count := 0
	for _, p := range r.patients {
		if p.CenterID == centerID {
			count++
		}
	}
	return count, nil
}

func (r *fakePatientRepo) CountCreatedBetween(_ context.Context, _ uuid.UUID, _, _ time.Time) (int, error) {
	return 0, nil
}

type fakePractitionerRepo struct {
	practitioners map[uuid.UUID]*model.Practitioner
}

func newFakePractitionerRepo() *fakePractitionerRepo {
	return &fakePractitionerRepo{practitioners: make(map[uuid.UUID]*model.Practitioner)}
}

func (r *fakePractitionerRepo) add(p *model.Practitioner) {
	r.practitioners[p.ID] = p
}

func (r *fakePractitionerRepo) Create(_ context.Context, p *model.Practitioner) error {
	r.practitioners[p.ID] = p
	return nil
}

func (r *fakePractitionerRepo) Get(_ context.Context, id uuid.UUID) (*model.Practitioner, error) {
	p, ok := r.practitioners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakePractitionerRepo) GetByEmailOrPracticeNumber(_ context.Context, email, practiceNumber string) (*model.Practitioner, error) {
	for _, p := range r.practitioners {
		if p.Email == email || p.PracticeNumber == practiceNumber {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePractitionerRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.Status) error {
	p, ok := r.practitioners[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *fakePractitionerRepo) ListStaff(_ context.Context, _ *model.StaffFilters) ([]*model.StaffMember, error) {
	return nil, nil
}
