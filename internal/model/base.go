package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Status is the account lifecycle state shared by all staff entities.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPending   Status = "PENDING"
	StatusSuspended Status = "SUSPENDED"
)

// FileRef points at one stored object. It is embedded in patient, study and
// trash records, never stored as an entity of its own.
type FileRef struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// FileRefs maps to a jsonb column.
type FileRefs []FileRef

func (f FileRefs) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

func (f *FileRefs) Scan(src interface{}) error {
	if src == nil {
		*f = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported scan type %T for FileRefs", src)
	}
	return json.Unmarshal(b, f)
}
