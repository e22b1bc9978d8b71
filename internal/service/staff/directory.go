package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
)

// Directory routes staff lookups to the table owning the role. Center admins
// and practitioners live in separate tables but share one identity space, so
// callers address staff by (role, id) and the directory picks the store.
type Directory struct {
	admins        repository.CenterAdminRepository
	practitioners repository.PractitionerRepository
}

func NewDirectory(admins repository.CenterAdminRepository, practitioners repository.PractitionerRepository) *Directory {
	return &Directory{admins: admins, practitioners: practitioners}
}

// Status returns the live account status for the staff member.
func (d *Directory) Status(ctx context.Context, role model.Role, id uuid.UUID) (model.Status, error) {
	if role == model.RoleCenterAdmin {
		admin, err := d.admins.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return admin.Status, nil
	}
	prac, err := d.practitioners.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return prac.Status, nil
}

// SetStatus flips the staff member's account status.
func (d *Directory) SetStatus(ctx context.Context, role model.Role, id uuid.UUID, status model.Status) error {
	if role == model.RoleCenterAdmin {
		return d.admins.UpdateStatus(ctx, id, status)
	}
	return d.practitioners.UpdateStatus(ctx, id, status)
}
