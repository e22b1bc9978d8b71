package model

import "github.com/google/uuid"

// Identity is the resolved caller of a request: who they are, what they may
// act as, and which center (if any) scopes them. System practitioners carry
// a nil CenterID.
type Identity struct {
	SubjectID uuid.UUID `json:"sub"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CenterID  uuid.UUID `json:"center_id"`
}

// IsCenterBound reports whether the identity is scoped to one center.
func (i Identity) IsCenterBound() bool {
	return i.CenterID != uuid.Nil
}

// Analytics is the per-center dashboard counter block.
type Analytics struct {
	PatientCount int `json:"patient_count"`
	StudyCount   int `json:"study_count"`
	DicomCount   int `json:"dicom_count"`
}

// ChartPoint is one bucket of the registration chart.
type ChartPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Chart is the weekday/monthly registration aggregation.
type Chart struct {
	Points []ChartPoint `json:"chart"`
	Total  int          `json:"total"`
}
