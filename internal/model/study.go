package model

import (
	"time"

	"github.com/google/uuid"
)

type StudyStatus string

const (
	StudyStatusUnassigned StudyStatus = "Unassigned"
	StudyStatusAssigned   StudyStatus = "Assigned"
	StudyStatusOpened     StudyStatus = "Opened"
	StudyStatusClosed     StudyStatus = "Closed"
)

type ReportingStatus string

const (
	ReportingStatusOpened ReportingStatus = "Opened"
	ReportingStatusClosed ReportingStatus = "Closed"
)

type DesignateAction string

const (
	DesignateAssign   DesignateAction = "Assigned"
	DesignateUnassign DesignateAction = "Unassigned"
)

// PatientStudy is an imaging order attached to a patient. StudyID, not the
// row id, is the external handle.
type PatientStudy struct {
	Base
	StudyID         string          `db:"study_id" json:"study_id"`
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	CenterID        uuid.UUID       `db:"center_id" json:"center_id"`
	PractitionerID  *uuid.UUID      `db:"practitioner_id" json:"practitioner_id,omitempty"`
	BodyPart        string          `db:"body_part" json:"body_part"`
	Modality        string          `db:"modality" json:"modality"`
	Priority        string          `db:"priority" json:"priority"`
	CPTCode         string          `db:"cpt_code" json:"cpt_code"`
	Procedure       string          `db:"procedure" json:"procedure"`
	Description     string          `db:"description" json:"description"`
	ClinicalInfo    string          `db:"clinical_info" json:"clinical_info"`
	Site            string          `db:"site" json:"site"`
	AccessCode      string          `db:"access_code" json:"access_code"`
	ReportingStatus ReportingStatus `db:"reporting_status" json:"reporting_status"`
	Status          StudyStatus     `db:"status" json:"status"`
	Paperwork       FileRefs        `db:"paperwork" json:"paperwork"`
	Dicoms          FileRefs        `db:"dicoms" json:"dicoms"`
}

type CreateStudyRequest struct {
	BodyPart        string          `form:"body_part" binding:"required"`
	Modality        string          `form:"modality" binding:"required"`
	Priority        string          `form:"priority" binding:"required"`
	CPTCode         string          `form:"cpt_code"`
	Procedure       string          `form:"procedure"`
	Description     string          `form:"description"`
	ClinicalInfo    string          `form:"clinical_info"`
	Site            string          `form:"site"`
	AccessCode      string          `form:"access_code"`
	ReportingStatus ReportingStatus `form:"reporting_status" binding:"required,oneof=Opened Closed"`
}

type EditStudyRequest struct {
	BodyPart        *string          `form:"body_part"`
	Modality        *string          `form:"modality"`
	Priority        *string          `form:"priority"`
	CPTCode         *string          `form:"cpt_code"`
	Procedure       *string          `form:"procedure"`
	Description     *string          `form:"description"`
	ClinicalInfo    *string          `form:"clinical_info"`
	Site            *string          `form:"site"`
	AccessCode      *string          `form:"access_code"`
	ReportingStatus *ReportingStatus `form:"reporting_status" binding:"omitempty,oneof=Opened Closed"`
}

// StudyFilters drives the cross-patient reports listing.
type StudyFilters struct {
	CenterID       uuid.UUID
	PractitionerID *uuid.UUID // assignment-scoped callers; nil means unscoped
	Search         string
	Status         StudyStatus
	Modality       string
	Priority       string
	StartDate      time.Time
	EndDate        time.Time
	SortBy         string
	Page           int
	Limit          int
}

// Trash is an append-only archive of file attachments superseded by a study
// edit. One record per edit, owned by the study's center.
type Trash struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CenterID  uuid.UUID `db:"center_id" json:"center_id"`
	Files     FileRefs  `db:"files" json:"files"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
