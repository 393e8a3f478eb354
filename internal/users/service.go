package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, phone string, dob *time.Time) (*models.User, error)
}

// Service lets a signed-in user read and edit their own profile.
type Service interface {
	Profile(ctx context.Context, p authz.Principal) (*UserDTO, error)
	UpdateProfile(ctx context.Context, p authz.Principal, input UpdateProfileInput) (*UserDTO, error)
}

type service struct {
	repo profileRepository
	now  func() time.Time
	logg *logger.Logger
}

func NewService(repo profileRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, now: time.Now, logg: logg}, nil
}

func (s *service) Profile(ctx context.Context, p authz.Principal) (*UserDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, notFoundOrDependency(err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, p authz.Principal, input UpdateProfileInput) (*UserDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "First name, last name and phone are required.")
	}
	phone, err := ValidPhone(input.Phone)
	if err != nil {
		return nil, err
	}
	var dob *time.Time
	if input.DateOfBirth != nil && strings.TrimSpace(*input.DateOfBirth) != "" {
		parsed, err := ParseDateOfBirth(*input.DateOfBirth, s.now().UTC())
		if err != nil {
			return nil, err
		}
		dob = &parsed
	}

	user, err := s.repo.UpdateProfile(ctx, p.UserID, firstName, lastName, phone, dob)
	if err != nil {
		return nil, notFoundOrDependency(err, "update profile")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": p.UserID.String()}), "profile updated")
	return FromModel(user), nil
}

// A signed-in caller whose row is gone is treated as signed out.
func notFoundOrDependency(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "User not logged in")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
