// Package auth resolves bearer tokens into caller identities.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/service/staff"
	"github.com/medscanhq/medscan-api/pkg/apperror"
)

const (
	statusCacheTTL     = 2 * time.Minute
	statusCacheCleanup = 5 * time.Minute
)

// Claims is the token payload issued at login.
type Claims struct {
	Role     model.Role   `json:"role"`
	Status   model.Status `json:"status"`
	CenterID string       `json:"centerId"`
	jwt.RegisteredClaims
}

// Resolver turns a signed token into an Identity. Account status is
// re-checked against the staff directory so a suspension takes effect
// before the token expires; the lookup is cached briefly per subject.
type Resolver struct {
	secret    []byte
	directory *staff.Directory
	statuses  *gocache.Cache
}

func NewResolver(secret string, directory *staff.Directory) *Resolver {
	return &Resolver{
		secret:    []byte(secret),
		directory: directory,
		statuses:  gocache.New(statusCacheTTL, statusCacheCleanup),
	}
}

// Resolve validates the token and returns the live identity.
func (r *Resolver) Resolve(ctx context.Context, tokenString string) (model.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.Identity{}, apperror.Unauthorized("invalid or expired token")
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, apperror.Unauthorized("invalid or expired token")
	}
	var centerID uuid.UUID
	if claims.CenterID != "" {
		centerID, err = uuid.Parse(claims.CenterID)
		if err != nil {
			return model.Identity{}, apperror.Unauthorized("invalid or expired token")
		}
	}

	status, err := r.liveStatus(ctx, claims.Role, subjectID)
	if err != nil {
		return model.Identity{}, err
	}
	if status != model.StatusActive {
		return model.Identity{}, apperror.Unauthorized("account is not active")
	}

	return model.Identity{
		SubjectID: subjectID,
		Role:      claims.Role,
		Status:    status,
		CenterID:  centerID,
	}, nil
}

func (r *Resolver) liveStatus(ctx context.Context, role model.Role, id uuid.UUID) (model.Status, error) {
	key := string(role) + ":" + id.String()
	if cached, ok := r.statuses.Get(key); ok {
		return cached.(model.Status), nil
	}

	status, err := r.directory.Status(ctx, role, id)
	if err != nil {
		return "", apperror.Unauthorized("account not found")
	}
	r.statuses.Set(key, status, gocache.DefaultExpiration)
	return status, nil
}

// Invalidate drops the cached status for a subject, used after suspension
// so the change is visible immediately.
func (r *Resolver) Invalidate(role model.Role, id uuid.UUID) {
	r.statuses.Delete(string(role) + ":" + id.String())
}
