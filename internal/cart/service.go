package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

type cartRepository interface {
	Create(ctx context.Context, item *models.CartItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindLine(ctx context.Context, userID, productID uuid.UUID, variationKey string) (*models.CartItem, error)
	IncrementQuantity(ctx context.Context, id uuid.UUID, qty int) error
	SetQuantity(ctx context.Context, id uuid.UUID, qty int) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) error
	Lines(ctx context.Context, userID uuid.UUID) ([]Line, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages the caller's cart lines.
type Service interface {
	List(ctx context.Context, p authz.Principal) (*CartDTO, error)
	Add(ctx context.Context, p authz.Principal, input AddItemInput) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, p authz.Principal, lineID uuid.UUID, qty int) (*CartDTO, error)
	Remove(ctx context.Context, p authz.Principal, lineID uuid.UUID) error
	Clear(ctx context.Context, p authz.Principal) error
}

type service struct {
	repo     cartRepository
	products productLoader
	logg     *logger.Logger
}

func NewService(repo cartRepository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) List(ctx context.Context, p authz.Principal) (*CartDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	return s.list(ctx, p.UserID)
}

// Add merges the selection into an existing line with the same variation key
// or inserts a new line.
func (s *service) Add(ctx context.Context, p authz.Principal, input AddItemInput) (*CartDTO, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available")
	}
	if len(product.Variations) > 0 {
		if err := product.Variations.Validate(input.SelectedVariations); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variation selection")
		}
	}

	key := input.SelectedVariations.Key()
	existing, err := s.repo.FindLine(ctx, p.UserID, product.ID, key)
	switch {
	case err == nil:
		if err := checkStock(product, existing.Quantity+input.Quantity); err != nil {
			return nil, err
		}
		if err := s.repo.IncrementQuantity(ctx, existing.ID, input.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := checkStock(product, input.Quantity); err != nil {
			return nil, err
		}
		if err := s.insert(ctx, p.UserID, product, input, key); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return s.list(ctx, p.UserID)
}

// insert creates the line. A concurrent add of the same selection surfaces as
// a unique violation and is applied once as an increment instead.
func (s *service) insert(ctx context.Context, userID uuid.UUID, product *models.Product, input AddItemInput, key string) error {
	item := &models.CartItem{
		UserID:             userID,
		ProductID:          product.ID,
		VariationKey:       key,
		SelectedVariations: input.SelectedVariations,
		Quantity:           input.Quantity,
	}
	err := s.repo.Create(ctx, item)
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}

	s.logg.Warn(s.logg.WithField(ctx, "product_id", product.ID.String()), "cart line raced, merging")
	existing, findErr := s.repo.FindLine(ctx, userID, product.ID, key)
	if findErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload cart line")
	}
	if err := s.repo.IncrementQuantity(ctx, existing.ID, input.Quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return nil
}

// UpdateQuantity sets the line quantity; anything below 1 removes the line.
func (s *service) UpdateQuantity(ctx context.Context, p authz.Principal, lineID uuid.UUID, qty int) (*CartDTO, error) {
	item, err := s.ownedLine(ctx, p, lineID)
	if err != nil {
		return nil, err
	}

	if qty < 1 {
		if _, err := s.repo.Delete(ctx, p.UserID, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
		}
		return s.list(ctx, p.UserID)
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := checkStock(product, qty); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, item.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.list(ctx, p.UserID)
}

func (s *service) Remove(ctx context.Context, p authz.Principal, lineID uuid.UUID) error {
	if _, err := s.ownedLine(ctx, p, lineID); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, p.UserID, lineID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, p authz.Principal) error {
	if err := authz.RequireAuthenticated(p); err != nil {
		return err
	}
	if err := s.repo.DeleteAll(ctx, p.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) ownedLine(ctx context.Context, p authz.Principal, lineID uuid.UUID) (*models.CartItem, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	// Another user's line is reported as missing.
	if item.UserID != p.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}

func (s *service) list(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cartFromLines(lines), nil
}

func checkStock(product *models.Product, qty int) error {
	if qty > product.Stock {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name)).
			WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
	}
	return nil
}
