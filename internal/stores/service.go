package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type storeRepository interface {
	Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
	List(ctx context.Context, filter ListFilter) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type townLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Town, error)
}

// Service exposes store operations.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]StoreDTO, error)
	ListByTown(ctx context.Context, townID uuid.UUID) ([]StoreDTO, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*StoreDTO, error)
	Mine(ctx context.Context, p authz.Principal) (*StoreDTO, error)
	Create(ctx context.Context, p authz.Principal, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type service struct {
	repo  storeRepository
	towns townLookup
	now   func() time.Time
}

// NewService builds a store service with the provided repositories.
func NewService(repo storeRepository, towns townLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if towns == nil {
		return nil, fmt.Errorf("town repository required")
	}
	return &service{repo: repo, towns: towns, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]StoreDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	now := s.now()
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], now))
	}
	return out, nil
}

func (s *service) ListByTown(ctx context.Context, townID uuid.UUID) ([]StoreDTO, error) {
	return s.List(ctx, ListFilter{TownID: &townID})
}

// Get hides inactive stores from everyone except their owner and admins.
func (s *service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !store.IsActive && authz.CanManageStore(p, store) != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Store not found")
	}
	return FromModel(store, s.now()), nil
}

func (s *service) Mine(ctx context.Context, p authz.Principal) (*StoreDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	store, err := s.repo.FindActiveByOwner(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no store found for this account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store, s.now()), nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, input CreateStoreInput) (*StoreDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.Role != enums.RoleStore && !p.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only store accounts can open a store")
	}

	ownerID := p.UserID
	if input.OwnerID != nil && *input.OwnerID != uuid.Nil {
		if !p.IsAdmin() && *input.OwnerID != p.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may open a store for another user")
		}
		ownerID = *input.OwnerID
	}

	dto, err := s.validateCreate(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindActiveByOwner(ctx, ownerID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "this account already has an active store")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing store")
	}

	store, err := s.repo.Create(ctx, dto)
	if err != nil {
		return nil, db.AsAppError(err, "create store")
	}
	return FromModel(store, s.now()), nil
}

func (s *service) validateCreate(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (CreateStoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return CreateStoreDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if input.Category != "" && !input.Category.IsValid() {
		return CreateStoreDTO{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", input.Category)
	}
	if missing := input.Address.MissingFields(); len(missing) > 0 {
		return CreateStoreDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"fields": missing})
	}
	if err := input.OperatingHours.Validate(); err != nil {
		return CreateStoreDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	town, err := s.towns.FindByID(ctx, input.TownID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CreateStoreDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "town not found")
		}
		return CreateStoreDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load town")
	}
	if !town.IsActive {
		return CreateStoreDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "town is not served")
	}

	return CreateStoreDTO{
		OwnerID:          ownerID,
		TownID:           town.ID,
		Name:             name,
		Description:      input.Description,
		ImageURL:         input.ImageURL,
		BannerURL:        input.BannerURL,
		Category:         input.Category,
		Address:          input.Address,
		Phone:            input.Phone,
		Email:            input.Email,
		OperatingHours:   input.OperatingHours,
		DeliveryRadiusKm: input.DeliveryRadiusKm,
		BaseDeliveryFee:  input.BaseDeliveryFee,
		PerKmFee:         input.PerKmFee,
		MinOrderValue:    input.MinOrderValue,
	}, nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanManageStore(p, store); err != nil {
		return nil, err
	}
	if input.IsVerified != nil && !p.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may verify stores")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = cloneStringPtr(input.Description)
	}
	if input.ImageURL != nil {
		store.ImageURL = cloneStringPtr(input.ImageURL)
	}
	if input.BannerURL != nil {
		store.BannerURL = cloneStringPtr(input.BannerURL)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", *input.Category)
		}
		store.Category = *input.Category
	}
	if input.Address != nil {
		if missing := input.Address.MissingFields(); len(missing) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
				WithDetails(map[string]any{"fields": missing})
		}
		store.Address = input.Address.Normalized()
	}
	if input.Phone != nil {
		store.Phone = cloneStringPtr(input.Phone)
	}
	if input.Email != nil {
		store.Email = cloneStringPtr(input.Email)
	}
	if input.OperatingHours != nil {
		if err := input.OperatingHours.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		store.OperatingHours = *input.OperatingHours
	}
	if input.DeliveryRadiusKm != nil {
		store.DeliveryRadiusKm = *input.DeliveryRadiusKm
	}
	if input.BaseDeliveryFee != nil {
		store.BaseDeliveryFee = types.MoneyFromFloat(*input.BaseDeliveryFee)
	}
	if input.PerKmFee != nil {
		store.PerKmFee = types.MoneyFromFloat(*input.PerKmFee)
	}
	if input.MinOrderValue != nil {
		store.MinOrderValue = types.MoneyFromFloat(*input.MinOrderValue)
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}
	if input.IsVerified != nil {
		store.IsVerified = *input.IsVerified
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, db.AsAppError(err, "update store")
	}
	return FromModel(store, s.now()), nil
}

// Delete soft-deactivates the store and its products.
func (s *service) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	store, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanManageStore(p, store); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, store.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate store")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
