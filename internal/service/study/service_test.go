package study

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/objectstore"
	"github.com/medscanhq/medscan-api/internal/service/access"
	"github.com/medscanhq/medscan-api/pkg/apperror"
)

type env struct {
	svc      *Service
	studies  *fakeStudyRepo
	patients *fakePatientRepo
	pracs    *fakePractitionerRepo
	store    *objectstore.MemoryStore

	centerID uuid.UUID
	admin    model.Identity
	patient  *model.Patient
}

func newEnv(t *testing.T) *env {
	t.Helper()

	studies := newFakeStudyRepo()
	patients := newFakePatientRepo()
	pracs := newFakePractitionerRepo()
	store := objectstore.NewMemoryStore("http://files.test")
	policy := access.NewPolicy(pracs, studies)

	centerID := uuid.New()
	p := &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		CenterID: centerID,
		MRN:      "0000001",
		Fullname: "Jane Doe",
		Status:   model.PatientStatusActive,
	}
	patients.add(p)

	return &env{
		svc:      NewService(studies, patients, pracs, store, policy),
		studies:  studies,
		patients: patients,
		pracs:    pracs,
		store:    store,
		centerID: centerID,
		admin: model.Identity{
			SubjectID: uuid.New(),
			Role:      model.RoleCenterAdmin,
			Status:    model.StatusActive,
			CenterID:  centerID,
		},
		patient: p,
	}
}

func (e *env) addDoctor() (*model.Practitioner, model.Identity) {
	cid := e.centerID
	prac := &model.Practitioner{
		Base:     model.Base{ID: uuid.New()},
		CenterID: &cid,
		Type:     model.PractitionerTypeCenter,
		Role:     model.RoleDoctor,
		Status:   model.StatusActive,
	}
	e.pracs.add(prac)
	return prac, model.Identity{
		SubjectID: prac.ID,
		Role:      model.RoleDoctor,
		Status:    model.StatusActive,
		CenterID:  cid,
	}
}

func createReq() *model.CreateStudyRequest {
	return &model.CreateStudyRequest{
		BodyPart:        "chest",
		Modality:        "CT",
		Priority:        "routine",
		ReportingStatus: model.ReportingStatusOpened,
	}
}

func pdf(name string, size int64) UploadFile {
	return UploadFile{Name: name, ContentType: "application/pdf", Size: size, Data: []byte("x")}
}

func TestCreateStudy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), []UploadFile{
		pdf("referral.pdf", 1024),
		pdf("consent.pdf", 2048),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.StudyID)
	assert.Equal(t, model.StudyStatusUnassigned, created.Status)
	assert.Nil(t, created.PractitionerID)
	assert.Len(t, created.Paperwork, 2)
	assert.Equal(t, 2, e.store.Len())

	stored, err := e.studies.GetByStudyID(ctx, created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, e.patient.ID, stored.PatientID)
}

func TestCreateStudyBatchAtomicity(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateStudy(context.Background(), e.admin, "0000001", createReq(), []UploadFile{
		pdf("ok.pdf", 1024),
		{Name: "malware.exe", ContentType: "application/octet-stream", Size: 10, Data: []byte("x")},
		pdf("also-ok.pdf", 1024),
	})
	require.Error(t, err)

	assert.True(t, apperror.IsStatus(err, http.StatusUnsupportedMediaType))
	assert.Contains(t, err.Error(), "malware.exe")
	assert.Equal(t, 0, e.store.Len(), "no net objects after a failed batch")
	assert.Empty(t, e.studies.studies, "no study row after a failed batch")
}

func TestCreateStudyOversizedPaperwork(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateStudy(context.Background(), e.admin, "0000001", createReq(), []UploadFile{
		pdf("huge.pdf", MaxPaperworkSize+1),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusRequestEntityTooLarge))
	assert.Contains(t, err.Error(), "huge.pdf")
}

func TestCreateStudyArchivedPatient(t *testing.T) {
	e := newEnv(t)
	e.patient.Status = model.PatientStatusArchived

	_, err := e.svc.CreateStudy(context.Background(), e.admin, "0000001", createReq(), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusForbidden))
	assert.Empty(t, e.studies.studies)
}

func TestEditStudyArchivalOrdering(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), []UploadFile{
		pdf("old1.pdf", 100),
		pdf("old2.pdf", 100),
	})
	require.NoError(t, err)
	oldPaths := []string{created.Paperwork[0].Path, created.Paperwork[1].Path}

	updated, err := e.svc.EditStudy(ctx, e.admin, "0000001", created.StudyID, &model.EditStudyRequest{}, []UploadFile{
		pdf("new.pdf", 100),
	})
	require.NoError(t, err)

	require.Len(t, e.studies.trash, 1, "exactly one trash record per edit")
	trash := e.studies.trash[0]
	assert.Equal(t, e.centerID, trash.CenterID)
	require.Len(t, trash.Files, 2, "trash holds every superseded ref")
	for _, ref := range trash.Files {
		assert.Regexp(t, "^bin/", ref.Path)
		assert.True(t, e.store.Exists(ref.Path), "bin copy must be durable")
	}

	for _, p := range oldPaths {
		assert.False(t, e.store.Exists(p), "live copy removed after commit")
	}
	require.Len(t, updated.Paperwork, 1)
	assert.True(t, e.store.Exists(updated.Paperwork[0].Path))
}

func TestEditStudyWithoutFilesSkipsArchival(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), []UploadFile{pdf("keep.pdf", 100)})
	require.NoError(t, err)

	newPart := "abdomen"
	updated, err := e.svc.EditStudy(ctx, e.admin, "0000001", created.StudyID, &model.EditStudyRequest{BodyPart: &newPart}, nil)
	require.NoError(t, err)

	assert.Equal(t, "abdomen", updated.BodyPart)
	assert.Empty(t, e.studies.trash)
	assert.Len(t, updated.Paperwork, 1)
	assert.True(t, e.store.Exists(updated.Paperwork[0].Path))
}

func TestDesignateExclusivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pracA, _ := e.addDoctor()
	pracB, _ := e.addDoctor()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	_, err = e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, pracA.ID, model.DesignateAssign)
	require.NoError(t, err)

	result, err := e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, pracB.ID, model.DesignateAssign)
	require.NoError(t, err)

	require.NotNil(t, result.Study.PractitionerID)
	assert.Equal(t, pracB.ID, *result.Study.PractitionerID, "reassignment replaces the previous assignee")
	assert.Equal(t, model.StudyStatusAssigned, result.Study.Status)

	stored, err := e.studies.GetByStudyID(ctx, created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, pracB.ID, *stored.PractitionerID)
}

func TestDesignateUnassign(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	prac, _ := e.addDoctor()
	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	_, err = e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, prac.ID, model.DesignateAssign)
	require.NoError(t, err)

	result, err := e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, prac.ID, model.DesignateUnassign)
	require.NoError(t, err)

	assert.Nil(t, result.Study.PractitionerID)
	assert.Equal(t, model.StudyStatusUnassigned, result.Study.Status)
}

func TestOpenedTransition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	prac, caller := e.addDoctor()
	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)
	_, err = e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, prac.ID, model.DesignateAssign)
	require.NoError(t, err)

	fetched, err := e.svc.GetStudy(ctx, caller, "0000001", created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, model.StudyStatusAssigned, fetched.Status, "the read itself does not mutate")

	e.svc.RecordView(ctx, caller, created.StudyID)

	after, err := e.svc.GetStudy(ctx, caller, "0000001", created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, model.StudyStatusOpened, after.Status)

	// a second view is a no-op
	e.svc.RecordView(ctx, caller, created.StudyID)
	again, err := e.svc.GetStudy(ctx, caller, "0000001", created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, model.StudyStatusOpened, again.Status)
}

func TestGetStudyDeniedForUnassignedDoctor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assignee, _ := e.addDoctor()
	_, outsider := e.addDoctor()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)
	_, err = e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, assignee.ID, model.DesignateAssign)
	require.NoError(t, err)

	_, err = e.svc.GetStudy(ctx, outsider, "0000001", created.StudyID)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusForbidden))

	e.svc.RecordView(ctx, outsider, created.StudyID)
	stored, err := e.studies.GetByStudyID(ctx, created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, model.StudyStatusAssigned, stored.Status, "a denied viewer never opens the study")
}

func TestCenterIsolation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	foreign := model.Identity{
		SubjectID: uuid.New(),
		Role:      model.RoleCenterAdmin,
		Status:    model.StatusActive,
		CenterID:  uuid.New(),
	}

	_, err = e.svc.GetStudy(ctx, foreign, "", created.StudyID)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound), "cross-tenant reads report not found")

	_, err = e.svc.EditStudy(ctx, foreign, "0000001", created.StudyID, &model.EditStudyRequest{}, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound))
}

func TestGetStudyMRNMismatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	_, err = e.svc.GetStudy(ctx, e.admin, "9999999", created.StudyID)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound))
}

func TestEditStudyMRNMismatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	other := &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		CenterID: e.centerID,
		MRN:      "0000002",
		Fullname: "John Roe",
		Status:   model.PatientStatusActive,
	}
	e.patients.add(other)

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	newPart := "abdomen"
	_, err = e.svc.EditStudy(ctx, e.admin, other.MRN, created.StudyID, &model.EditStudyRequest{BodyPart: &newPart}, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound), "the study is addressed through its owner's mrn")

	stored, err := e.studies.GetByStudyID(ctx, created.StudyID)
	require.NoError(t, err)
	assert.Equal(t, "chest", stored.BodyPart, "a mismatched mrn edits nothing")
}

func TestSystemPractitionerReachesAssignedPatient(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	prac := &model.Practitioner{
		Base:   model.Base{ID: uuid.New()},
		Type:   model.PractitionerTypeSystem,
		Role:   model.RoleRadiologist,
		Status: model.StatusActive,
	}
	e.pracs.add(prac)
	caller := model.Identity{
		SubjectID: prac.ID,
		Role:      model.RoleRadiologist,
		Status:    model.StatusActive,
	}

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	_, err = e.svc.ListPatientStudies(ctx, caller, "0000001")
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusForbidden), "unassigned system staff see nothing")

	_, err = e.svc.DesignateStudy(ctx, e.admin, "0000001", created.StudyID, prac.ID, model.DesignateAssign)
	require.NoError(t, err)

	listed, err := e.svc.ListPatientStudies(ctx, caller, "0000001")
	require.NoError(t, err, "a nil center id resolves the patient across centers")
	assert.Len(t, listed, 1)
}

func TestUploadDicoms(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateStudy(ctx, e.admin, "0000001", createReq(), nil)
	require.NoError(t, err)

	updated, err := e.svc.UploadDicoms(ctx, e.admin, created.StudyID, []UploadFile{
		{Name: "series1.dcm", ContentType: "application/dicom", Size: 4096, Data: []byte("x")},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Dicoms, 1)

	_, err = e.svc.UploadDicoms(ctx, e.admin, created.StudyID, []UploadFile{
		{Name: "scan.jpeg", ContentType: "image/jpeg", Size: 4096, Data: []byte("x")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusUnsupportedMediaType))

	refs, err := e.svc.FetchStudyDicoms(ctx, e.admin, created.StudyID)
	require.NoError(t, err)
	assert.Len(t, refs, 1, "a rejected batch appends nothing")
}
