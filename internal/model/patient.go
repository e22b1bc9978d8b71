package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "Active"
	PatientStatusArchived PatientStatus = "Archived"
)

// MaxMRNSeq is the largest sequence number a 7-digit MRN can carry.
const MaxMRNSeq = 9999999

type Patient struct {
	Base
	CenterID      uuid.UUID     `db:"center_id" json:"center_id"`
	MRN           string        `db:"mrn" json:"mrn"`
	Fullname      string        `db:"fullname" json:"fullname"`
	Email         string        `db:"email" json:"email"`
	Phone         string        `db:"phone" json:"phone"`
	DOB           time.Time     `db:"dob" json:"dob"`
	Gender        string        `db:"gender" json:"gender"`
	MaritalStatus string        `db:"marital_status" json:"marital_status"`
	Address       string        `db:"address" json:"address"`
	City          string        `db:"city" json:"city"`
	State         string        `db:"state" json:"state"`
	Country       string        `db:"country" json:"country"`
	ZipCode       string        `db:"zip_code" json:"zip_code"`
	NationalID    string        `db:"national_id" json:"national_id"`
	Status        PatientStatus `db:"status" json:"status"`
}

type AddPatientRequest struct {
	Fullname      string    `json:"fullname" binding:"required"`
	Email         string    `json:"email" binding:"required,email"`
	Phone         string    `json:"phone" binding:"required"`
	DOB           time.Time `json:"dob" binding:"required"`
	Gender        string    `json:"gender" binding:"required"`
	MaritalStatus string    `json:"marital_status"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	ZipCode       string    `json:"zip_code"`
	NationalID    string    `json:"national_id"`
}

type EditPatientRequest struct {
	Fullname      *string    `json:"fullname"`
	Email         *string    `json:"email" binding:"omitempty,email"`
	Phone         *string    `json:"phone"`
	DOB           *time.Time `json:"dob"`
	Gender        *string    `json:"gender"`
	MaritalStatus *string    `json:"marital_status"`
	Address       *string    `json:"address"`
	City          *string    `json:"city"`
	State         *string    `json:"state"`
	Country       *string    `json:"country"`
	ZipCode       *string    `json:"zip_code"`
	NationalID    *string    `json:"national_id"`
	Status        *string    `json:"status"`
}

// PatientFilters drives the paginated patient listing.
type PatientFilters struct {
	CenterID   uuid.UUID
	PatientIDs []uuid.UUID // assignment-scoped callers; nil means unscoped
	Search     string
	Status     PatientStatus
	StartDate  time.Time
	EndDate    time.Time
	SortBy     string
	Page       int
	Limit      int
}
