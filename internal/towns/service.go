package towns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/fees"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

type townRepository interface {
	ListActive(ctx context.Context) ([]models.Town, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Town, error)
	FindByName(ctx context.Context, name string) (*models.Town, error)
	Create(ctx context.Context, town *models.Town) error
	Update(ctx context.Context, town *models.Town) error
}

// Service exposes town reads for everyone and writes for admins.
type Service interface {
	List(ctx context.Context) ([]TownDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TownDTO, error)
	Create(ctx context.Context, p authz.Principal, input CreateTownInput) (*TownDTO, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateTownInput) (*TownDTO, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	Seed(ctx context.Context) (int, error)
}

type service struct {
	repo townRepository
	logg *logger.Logger
}

func NewService(repo townRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("town repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

// CanonicalName renders a town name the way it is stored: trimmed and title cased.
func CanonicalName(name string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(name)))
}

func (s *service) List(ctx context.Context) ([]TownDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list towns")
	}
	out := make([]TownDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TownDTO, error) {
	town, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(town), nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, input CreateTownInput) (*TownDTO, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}
	name := CanonicalName(input.Name)
	if !fees.IsKnownTown(name) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%q is not a served town", input.Name)
	}

	fee := fees.TownFee(name)
	if input.DeliveryFee != nil {
		fee = *input.DeliveryFee
	}
	town := &models.Town{
		Name:        name,
		Slug:        strings.ToLower(name),
		Description: input.Description,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		DeliveryFee: seedFee(fee),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, town); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "town already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create town")
	}
	return FromModel(town), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateTownInput) (*TownDTO, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}
	town, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Description != nil {
		town.Description = input.Description
	}
	if input.Latitude != nil {
		town.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		town.Longitude = *input.Longitude
	}
	if input.DeliveryFee != nil {
		town.DeliveryFee = seedFee(*input.DeliveryFee)
	}
	if input.IsActive != nil {
		town.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, town); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update town")
	}
	return FromModel(town), nil
}

// Delete deactivates the town; stores keep their reference.
func (s *service) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if err := authz.RequireAdmin(p); err != nil {
		return err
	}
	town, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	town.IsActive = false
	if err := s.repo.Update(ctx, town); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate town")
	}
	return nil
}

// Seed inserts every served town that does not exist yet and returns how many were created.
func (s *service) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, name := range fees.Towns {
		_, err := s.repo.FindByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup town")
		}

		data := seedData[name]
		town := &models.Town{
			Name:        name,
			Slug:        strings.ToLower(name),
			Latitude:    data.Latitude,
			Longitude:   data.Longitude,
			DeliveryFee: seedFee(fees.TownFee(name)),
			IsActive:    true,
		}
		if data.Description != "" {
			desc := data.Description
			town.Description = &desc
		}
		if err := s.repo.Create(ctx, town); err != nil {
			return created, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed town")
		}
		created++
	}
	s.logg.Info(s.logg.WithField(ctx, "created", created), "towns seeded")
	return created, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Town, error) {
	town, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Town not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load town")
	}
	return town, nil
}
