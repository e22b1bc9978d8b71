package patient

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
	"github.com/medscanhq/medscan-api/internal/service/access"
	"github.com/medscanhq/medscan-api/pkg/apperror"
)

type fakeRepo struct {
	patients map[uuid.UUID]*model.Patient
	nextSeq  int64

	// raceCreates makes the next n Create calls behave as if a concurrent
	// registration claimed the mrn first: the sequence advances and the
	// insert reports a duplicate.
	raceCreates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{patients: make(map[uuid.UUID]*model.Patient), nextSeq: 1}
}

func (r *fakeRepo) NextMRNSeq(_ context.Context) (int64, error) {
	return r.nextSeq, nil
}

func (r *fakeRepo) Create(_ context.Context, p *model.Patient) error {
	if r.raceCreates > 0 {
		r.raceCreates--
		r.nextSeq++
		return repository.ErrDuplicate
	}
	for _, existing := range r.patients {
		if existing.MRN == p.MRN {
			return repository.ErrDuplicate
		}
	}
	r.patients[p.ID] = p
	r.nextSeq++
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetByMRN(_ context.Context, centerID uuid.UUID, mrn string) (*model.Patient, error) {
	for _, p := range r.patients {
		if (centerID == uuid.Nil || p.CenterID == centerID) && p.MRN == mrn {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) FindConflict(_ context.Context, centerID uuid.UUID, email, phone, nationalID string) (*model.Patient, error) {
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

func (r *fakeRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) CountByCenter(_ context.Context, _ uuid.UUID) (int, error) { return 0, nil }

func (r *fakeRepo) CountCreatedBetween(_ context.Context, _ uuid.UUID, _, _ time.Time) (int, error) {
	return 0, nil
}

func newTestService() (*Service, *fakeRepo, model.Identity) {
	repo := newFakeRepo()
	svc := NewService(repo, access.NewPolicy(nil, nil))
	caller := model.Identity{
		SubjectID: uuid.New(),
		Role:      model.RoleCenterAdmin,
		Status:    model.StatusActive,
		CenterID:  uuid.New(),
	}
	return svc, repo, caller
}

func addReq(n int) *model.AddPatientRequest {
	return &model.AddPatientRequest{
		Fullname: fmt.Sprintf("Patient %d", n),
		Email:    fmt.Sprintf("patient%d@example.com", n),
		Phone:    fmt.Sprintf("+1555000%04d", n),
		DOB:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:   "female",
	}
}

func TestAddPatientMRNMonotonicity(t *testing.T) {
	svc, _, caller := newTestService()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		p, err := svc.AddPatient(ctx, caller, addReq(i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%07d", i), p.MRN)
	}
}

func TestAddPatientMRNOverflow(t *testing.T) {
	svc, repo, caller := newTestService()
	repo.nextSeq = model.MaxMRNSeq + 1

	_, err := svc.AddPatient(context.Background(), caller, addReq(1))
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusBadRequest))
	assert.Empty(t, repo.patients, "overflow creates no record")
}

func TestAddPatientReallocatesMRNAfterRace(t *testing.T) {
	svc, repo, caller := newTestService()
	repo.raceCreates = 2

	p, err := svc.AddPatient(context.Background(), caller, addReq(1))
	require.NoError(t, err, "losing the mrn race is retried, not surfaced")
	assert.Equal(t, "0000003", p.MRN, "each lost attempt re-reads the sequence")
}

func TestAddPatientMRNRaceRetriesBounded(t *testing.T) {
	svc, repo, caller := newTestService()
	repo.raceCreates = mrnRetries + 1

	_, err := svc.AddPatient(context.Background(), caller, addReq(1))
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusConflict))
}

func TestAddPatientConflictNamesFieldAndMRN(t *testing.T) {
	svc, _, caller := newTestService()
	ctx := context.Background()

	first, err := svc.AddPatient(ctx, caller, addReq(1))
	require.NoError(t, err)

	dup := addReq(2)
	dup.Phone = first.Phone
	_, err = svc.AddPatient(ctx, caller, dup)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "phone")
	assert.Contains(t, err.Error(), first.MRN)
}

func TestAddPatientSameDetailsDifferentCenters(t *testing.T) {
	svc, _, caller := newTestService()
	ctx := context.Background()

	_, err := svc.AddPatient(ctx, caller, addReq(1))
	require.NoError(t, err)

	other := caller
	other.CenterID = uuid.New()
	p, err := svc.AddPatient(ctx, other, addReq(1))
	require.NoError(t, err, "uniqueness is per center")
	assert.Equal(t, "0000002", p.MRN, "the mrn sequence is system-wide")
}

func TestEditPatientArchiveGate(t *testing.T) {
	svc, repo, caller := newTestService()
	ctx := context.Background()

	p, err := svc.AddPatient(ctx, caller, addReq(1))
	require.NoError(t, err)
	p.Status = model.PatientStatusArchived
	require.NoError(t, repo.Update(ctx, p))

	name := "New Name"
	_, err = svc.EditPatient(ctx, caller, p.MRN, &model.EditPatientRequest{Fullname: &name})
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusForbidden))
	assert.NotEqual(t, "New Name", repo.patients[p.ID].Fullname)
}

func TestEditPatientUnarchive(t *testing.T) {
	svc, repo, caller := newTestService()
	ctx := context.Background()

	p, err := svc.AddPatient(ctx, caller, addReq(1))
	require.NoError(t, err)
	p.Status = model.PatientStatusArchived
	require.NoError(t, repo.Update(ctx, p))

	active := string(model.PatientStatusActive)
	updated, err := svc.EditPatient(ctx, caller, p.MRN, &model.EditPatientRequest{Status: &active})
	require.NoError(t, err, "setting status back to Active is the one permitted edit")
	assert.Equal(t, model.PatientStatusActive, updated.Status)
}

func TestEditPatientCrossCenterIsNotFound(t *testing.T) {
	svc, _, caller := newTestService()
	ctx := context.Background()

	p, err := svc.AddPatient(ctx, caller, addReq(1))
	require.NoError(t, err)

	foreign := caller
	foreign.CenterID = uuid.New()
	name := "x"
	_, err = svc.EditPatient(ctx, foreign, p.MRN, &model.EditPatientRequest{Fullname: &name})
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound))
}
