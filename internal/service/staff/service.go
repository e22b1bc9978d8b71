// Package staff covers invitations, suspension and listing of a center's
// workforce.
package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/medscanhq/medscan-api/internal/email"
	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/repository"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/token"
)

const DefaultStaffLimit = 50

type Service struct {
	admins        repository.CenterAdminRepository
	practitioners repository.PractitionerRepository
	directory     *Directory
	mailer        email.Sender
	loginURL      string
}

func NewService(
	admins repository.CenterAdminRepository,
	practitioners repository.PractitionerRepository,
	directory *Directory,
	mailer email.Sender,
	loginURL string,
) *Service {
	return &Service{
		admins:        admins,
		practitioners: practitioners,
		directory:     directory,
		mailer:        mailer,
		loginURL:      loginURL,
	}
}

// InviteMedicalStaff creates a doctor or radiologist account for the
// caller's center and mails the generated credentials. The invite fails on
// an email or practice number already in use.
func (s *Service) InviteMedicalStaff(ctx context.Context, caller model.Identity, req *model.InviteMedicalStaffRequest) (*model.Practitioner, error) {
	existing, err := s.practitioners.GetByEmailOrPracticeNumber(ctx, req.Email, req.PracticeNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check staff conflict: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("a staff member with this email or practice number already exists")
	}

	password := token.GenPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	centerID := caller.CenterID
	now := time.Now()
	prac := &model.Practitioner{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CenterID:       &centerID,
		Type:           model.PractitionerTypeCenter,
		Role:           req.Profession,
		Fullname:       req.Fullname,
		Email:          req.Email,
		Phone:          req.Phone,
		PracticeNumber: req.PracticeNumber,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Country:        req.Country,
		ZipCode:        req.ZipCode,
		Status:         model.StatusPending,
		PasswordHash:   string(hash),
	}

	if err := s.practitioners.Create(ctx, prac); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("a staff member with this email or practice number already exists")
		}
		return nil, fmt.Errorf("failed to create practitioner: %w", err)
	}

	s.sendInvite(prac.Fullname, prac.Email, password)
	return prac, nil
}

// InviteCenterAdmin creates an additional administrator account. Only a
// super admin may add admins.
func (s *Service) InviteCenterAdmin(ctx context.Context, caller model.Identity, req *model.InviteCenterAdminRequest) (*model.CenterAdmin, error) {
	if err := s.requireSuperAdmin(ctx, caller); err != nil {
		return nil, err
	}

	existing, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check admin conflict: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("an administrator with this email already exists")
	}

	password := token.GenPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	admin := &model.CenterAdmin{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CenterID:     caller.CenterID,
		Fullname:     req.Fullname,
		Email:        req.Email,
		Phone:        req.Phone,
		SuperAdmin:   false,
		Status:       model.StatusPending,
		PasswordHash: string(hash),
	}

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("an administrator with this email already exists")
		}
		return nil, fmt.Errorf("failed to create center admin: %w", err)
	}

	s.sendInvite(admin.Fullname, admin.Email, password)
	return admin, nil
}

// ToggleSuspension flips a staff member between active and suspended.
// Self-suspension is rejected, and only a super admin may suspend another
// administrator.
func (s *Service) ToggleSuspension(ctx context.Context, caller model.Identity, staffID uuid.UUID, role model.Role) error {
	if staffID == caller.SubjectID {
		return apperror.BadRequest("you cannot suspend your own account")
	}
	if role == model.RoleCenterAdmin {
		if err := s.requireSuperAdmin(ctx, caller); err != nil {
			return err
		}
	}

	current, err := s.directory.Status(ctx, role, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("staff member")
		}
		return fmt.Errorf("failed to load staff member: %w", err)
	}

	next := model.StatusSuspended
	if current == model.StatusSuspended {
		next = model.StatusActive
	}
	if err := s.directory.SetStatus(ctx, role, staffID, next); err != nil {
		return fmt.Errorf("failed to update staff status: %w", err)
	}
	return nil
}

// ListStaff returns the center's workforce, optionally narrowed to one role.
func (s *Service) ListStaff(ctx context.Context, caller model.Identity, f *model.StaffFilters) ([]*model.StaffMember, error) {
	if f.Page < 1 || f.Limit < 1 {
		return nil, apperror.BadRequest("invalid pagination parameters")
	}
	f.CenterID = caller.CenterID

	if f.Role == model.RoleCenterAdmin {
		members, err := s.admins.ListStaff(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list admins: %w", err)
		}
		return members, nil
	}
	if f.Role != "" {
		members, err := s.practitioners.ListStaff(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list practitioners: %w", err)
		}
		return members, nil
	}

	admins, err := s.admins.ListStaff(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	pracs, err := s.practitioners.ListStaff(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	return append(admins, pracs...), nil
}

func (s *Service) requireSuperAdmin(ctx context.Context, caller model.Identity) error {
	if caller.Role != model.RoleCenterAdmin {
		return apperror.Forbidden("only a super admin may manage administrators")
	}
	admin, err := s.admins.Get(ctx, caller.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to load caller: %w", err)
	}
	if !admin.SuperAdmin {
		return apperror.Forbidden("only a super admin may manage administrators")
	}
	return nil
}

// sendInvite delivers credentials off the request path. Delivery failures
// are logged, not surfaced, because the account already exists.
func (s *Service) sendInvite(fullname, to, password string) {
	if s.mailer == nil {
		return
	}
	go func() {
		body := email.InvitationBody(fullname, to, password, s.loginURL)
		if err := s.mailer.Send(to, "You have been invited", body); err != nil {
			log.Error().Err(err).Str("email", to).Msg("failed to send invitation email")
		}
	}()
}
