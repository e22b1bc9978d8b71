package model

import "github.com/google/uuid"

type Role string

const (
	RoleDoctor      Role = "doctor"
	RoleRadiologist Role = "radiologist"
	RoleCenterAdmin Role = "centerAdmin"
)

type PractitionerType string

const (
	// PractitionerTypeSystem marks a platform-wide specialist not bound to
	// a single center.
	PractitionerTypeSystem PractitionerType = "system"
	PractitionerTypeCenter PractitionerType = "center"
)

type Practitioner struct {
	Base
	CenterID       *uuid.UUID       `db:"center_id" json:"center_id,omitempty"`
	Type           PractitionerType `db:"type" json:"type"`
	Role           Role             `db:"role" json:"role"`
	Fullname       string           `db:"fullname" json:"fullname"`
	Email          string           `db:"email" json:"email"`
	Phone          string           `db:"phone" json:"phone"`
	PracticeNumber string           `db:"practice_number" json:"practice_number"`
	Address        string           `db:"address" json:"address"`
	City           string           `db:"city" json:"city"`
	State          string           `db:"state" json:"state"`
	Country        string           `db:"country" json:"country"`
	ZipCode        string           `db:"zip_code" json:"zip_code"`
	Status         Status           `db:"status" json:"status"`
	PasswordHash   string           `db:"password_hash" json:"-"`
}

type CenterAdmin struct {
	Base
	CenterID     uuid.UUID `db:"center_id" json:"center_id"`
	Fullname     string    `db:"fullname" json:"fullname"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	SuperAdmin   bool      `db:"super_admin" json:"super_admin"`
	Status       Status    `db:"status" json:"status"`
	PasswordHash string    `db:"password_hash" json:"-"`
}

type InviteMedicalStaffRequest struct {
	Fullname       string `json:"fullname" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required"`
	PracticeNumber string `json:"practice_number" binding:"required"`
	Profession     Role   `json:"profession" binding:"required,oneof=doctor radiologist"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	ZipCode        string `json:"zip_code"`
}

type InviteCenterAdminRequest struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
}

// StaffFilters drives the staff listing.
type StaffFilters struct {
	CenterID uuid.UUID
	Role     Role
	Search   string
	SortBy   string
	Page     int
	Limit    int
}

// StaffMember is the projection returned by staff listings, common to both
// center admins and practitioners.
type StaffMember struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Role      Role      `db:"role" json:"role"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Status    Status    `db:"status" json:"status"`
	Fullname  string    `db:"fullname" json:"fullname"`
	CreatedAt string    `db:"created_at" json:"created_at"`
}
