// Package study exposes the study lifecycle over HTTP.
package study

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medscanhq/medscan-api/internal/middleware"
	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/service/study"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/httputil"
)

type Handler struct {
	svc *study.Service
}

func NewHandler(svc *study.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := middleware.RequireRoles(model.RoleCenterAdmin)

	r.POST("/patient/:mrn/study", admin, h.CreateStudy)
	r.GET("/patient/:mrn/study", h.ListPatientStudies)
	r.GET("/patient/:mrn/study/:studyId", h.GetStudy)
	r.PUT("/patient/:mrn/study/:studyId/edit", admin, h.EditStudy)
	r.PATCH("/patient/:mrn/study/:studyId/:practitionerId/designate", admin, h.DesignateStudy)
	r.POST("/dicoms/:studyId", h.UploadDicoms)
	r.GET("/dicoms/:studyId", h.FetchDicoms)
}

func (h *Handler) CreateStudy(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	var req model.CreateStudyRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.Fail(c, apperror.BadRequest(err.Error()))
		return
	}

	files, err := liftFiles(c, "paperworks")
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	created, err := h.svc.CreateStudy(c.Request.Context(), caller, c.Param("mrn"), &req, files)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, gin.H{"study_id": created.StudyID})
}

func (h *Handler) ListPatientStudies(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	studies, err := h.svc.ListPatientStudies(c.Request.Context(), caller, c.Param("mrn"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, studies)
}

// GetStudy serves the study, then applies the Assigned -> Opened transition
// once the response has been written. A failed read never changes state.
func (h *Handler) GetStudy(c *gin.Context) {
	caller, _ := middleware.Identity(c)
	mrn := c.Param("mrn")
	studyID := c.Param("studyId")

	s, err := h.svc.GetStudy(c.Request.Context(), caller, mrn, studyID)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, s)

	h.svc.RecordView(c.Request.Context(), caller, studyID)
}

func (h *Handler) EditStudy(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	var req model.EditStudyRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.Fail(c, apperror.BadRequest(err.Error()))
		return
	}

	files, err := liftFiles(c, "paperworks")
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	updated, err := h.svc.EditStudy(c.Request.Context(), caller, c.Param("mrn"), c.Param("studyId"), &req, files)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, updated)
}

func (h *Handler) DesignateStudy(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	practitionerID, err := uuid.Parse(c.Param("practitionerId"))
	if err != nil {
		httputil.Fail(c, apperror.BadRequest("invalid practitioner id"))
		return
	}

	action := model.DesignateAction(c.Query("action"))
	if action != model.DesignateAssign && action != model.DesignateUnassign {
		httputil.Fail(c, apperror.BadRequest("action must be Assigned or Unassigned"))
		return
	}

	result, err := h.svc.DesignateStudy(c.Request.Context(), caller, c.Param("mrn"), c.Param("studyId"), practitionerID, action)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, result)
}

func (h *Handler) UploadDicoms(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	files, err := liftFiles(c, "dicoms")
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if len(files) == 0 {
		httputil.Fail(c, apperror.BadRequest("no dicom files supplied"))
		return
	}

	updated, err := h.svc.UploadDicoms(c.Request.Context(), caller, c.Param("studyId"), files)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, updated)
}

func (h *Handler) FetchDicoms(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	refs, err := h.svc.FetchStudyDicoms(c.Request.Context(), caller, c.Param("studyId"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, refs)
}

// liftFiles reads the named multipart field fully into memory. An absent
// field yields an empty batch, not an error.
func liftFiles(c *gin.Context, field string) ([]study.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	headers := form.File[field]
	files := make([]study.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := readFile(header)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readFile(header *multipart.FileHeader) (study.UploadFile, error) {
	src, err := header.Open()
	if err != nil {
		return study.UploadFile{}, apperror.BadRequest(fmt.Sprintf("could not read file - %s", header.Filename))
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return study.UploadFile{}, apperror.BadRequest(fmt.Sprintf("could not read file - %s", header.Filename))
	}
	return study.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}
