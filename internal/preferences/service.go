// Package preferences keeps small per-user settings in Redis. The only one
// today is the town the customer is shopping in.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/towns"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

const selectedTownPref = "town"

type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PreferenceKey(userID, name string) string
}

type townLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Town, error)
	FindByName(ctx context.Context, name string) (*models.Town, error)
}

// SelectTownInput accepts either the town id or its name.
type SelectTownInput struct {
	TownID *uuid.UUID `json:"town_id,omitempty"`
	Town   string     `json:"town,omitempty"`
}

type Service interface {
	SelectedTown(ctx context.Context, p authz.Principal) (*towns.TownDTO, error)
	SelectTown(ctx context.Context, p authz.Principal, input SelectTownInput) (*towns.TownDTO, error)
	ClearTown(ctx context.Context, p authz.Principal) error
}

type service struct {
	store store
	towns townLookup
	ttl   time.Duration
	logg  *logger.Logger
}

func NewService(st store, townRepo townLookup, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("preference store required")
	}
	if townRepo == nil {
		return nil, fmt.Errorf("town lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: st, towns: townRepo, ttl: ttl, logg: logg}, nil
}

// SelectedTown returns nil when nothing is selected or the stored town is no
// longer served.
func (s *service) SelectedTown(ctx context.Context, p authz.Principal) (*towns.TownDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	key := s.key(p)
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read selected town")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.forget(ctx, key)
		return nil, nil
	}
	town, err := s.towns.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.forget(ctx, key)
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load town")
	}
	if !town.IsActive {
		s.forget(ctx, key)
		return nil, nil
	}
	return towns.FromModel(town), nil
}

func (s *service) SelectTown(ctx context.Context, p authz.Principal, input SelectTownInput) (*towns.TownDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	town, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, s.key(p), town.ID.String(), s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store selected town")
	}
	return towns.FromModel(town), nil
}

func (s *service) ClearTown(ctx context.Context, p authz.Principal) error {
	if err := authz.RequireAuthenticated(p); err != nil {
		return err
	}
	if err := s.store.Del(ctx, s.key(p)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear selected town")
	}
	return nil
}

func (s *service) resolve(ctx context.Context, input SelectTownInput) (*models.Town, error) {
	var (
		town *models.Town
		err  error
	)
	switch {
	case input.TownID != nil && *input.TownID != uuid.Nil:
		town, err = s.towns.FindByID(ctx, *input.TownID)
	case strings.TrimSpace(input.Town) != "":
		town, err = s.towns.FindByName(ctx, towns.CanonicalName(input.Town))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "town_id or town is required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "town not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load town")
	}
	if !town.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "town is not served")
	}
	return town, nil
}

func (s *service) key(p authz.Principal) string {
	return s.store.PreferenceKey(p.UserID.String(), selectedTownPref)
}

func (s *service) forget(ctx context.Context, key string) {
	if err := s.store.Del(ctx, key); err != nil {
		s.logg.Error(ctx, "drop stale selected town", err)
	}
}
