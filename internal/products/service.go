package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/types"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, activeOnly bool, limit int) ([]models.Product, error)
	Search(ctx context.Context, query string, storeID *uuid.UUID, limit int) ([]models.Product, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

// Service exposes catalog reads and seller product management.
type Service interface {
	ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]ProductDTO, error)
	Search(ctx context.Context, query string, storeID *uuid.UUID, limit int) ([]ProductDTO, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*ProductDTO, error)
	SellerList(ctx context.Context, p authz.Principal, limit int) ([]ProductDTO, error)
	Create(ctx context.Context, p authz.Principal, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Deactivate(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type service struct {
	repo   productRepository
	stores storeLookup
}

func NewService(repo productRepository, stores storeLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stores: stores}, nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.ListByStore(ctx, storeID, true, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return fromModels(rows), nil
}

func (s *service) Search(ctx context.Context, query string, storeID *uuid.UUID, limit int) ([]ProductDTO, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	rows, err := s.repo.Search(ctx, query, storeID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return fromModels(rows), nil
}

func (s *service) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		store, err := s.stores.FindByID(ctx, product.StoreID)
		if err != nil || authz.CanManageStore(p, store) != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
	}
	return FromModel(product), nil
}

func (s *service) SellerList(ctx context.Context, p authz.Principal, limit int) ([]ProductDTO, error) {
	store, err := s.ownStore(ctx, p)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStore(ctx, store.ID, false, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, p authz.Principal, input CreateProductInput) (*ProductDTO, error) {
	store, err := s.ownStore(ctx, p)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price < 0 || input.Stock < 0 || input.Discount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price, stock and discount must not be negative")
	}

	product := &models.Product{
		StoreID:        store.ID,
		Name:           name,
		Description:    input.Description,
		Price:          types.MoneyFromFloat(input.Price),
		Discount:       types.MoneyFromFloat(input.Discount),
		Stock:          input.Stock,
		Category:       input.Category,
		SKU:            normalizeSKU(input.SKU),
		ImageURL:       input.ImageURL,
		Tags:           types.StringList(input.Tags),
		Specifications: input.Specifications,
		Variations:     input.Variations,
		IsActive:       true,
	}
	if input.OriginalPrice != nil {
		op := types.MoneyFromFloat(*input.OriginalPrice)
		product.OriginalPrice = &op
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		product.Price = types.MoneyFromFloat(*input.Price)
	}
	if input.OriginalPrice != nil {
		op := types.MoneyFromFloat(*input.OriginalPrice)
		product.OriginalPrice = &op
	}
	if input.Discount != nil {
		product.Discount = types.MoneyFromFloat(*input.Discount)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.SKU != nil {
		product.SKU = normalizeSKU(input.SKU)
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Tags != nil {
		product.Tags = types.StringList(*input.Tags)
	}
	if input.Specifications != nil {
		product.Specifications = *input.Specifications
	}
	if input.Variations != nil {
		product.Variations = *input.Variations
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(product), nil
}

// Deactivate hides the product; order history keeps its snapshot.
func (s *service) Deactivate(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	product, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return err
	}
	product.IsActive = false
	if err := s.repo.Update(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *service) ownStore(ctx context.Context, p authz.Principal) (*models.Store, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	store, err := s.stores.FindActiveByOwner(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no store found for this account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) loadManaged(ctx context.Context, p authz.Principal, id uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, product.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := authz.CanManageStore(p, store); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
