package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/internal/towns"
	"github.com/yourwae/fastget-backend/internal/users"
	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/security"
	"github.com/yourwae/fastget-backend/pkg/types"
)

const alreadyRegisteredMessage = "This email is already registered. Please log in instead."

// RegisterService handles the sign-up transaction.
type RegisterService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
}

// RegisterServiceParams packages the dependencies for the sign-up flow.
type RegisterServiceParams struct {
	DB             *db.Client
	SessionManager sessionManager
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
}

type registerService struct {
	db          *db.Client
	issuer      *tokenIssuer
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewRegisterService builds a sign-up service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &registerService{
		db:          params.DB,
		issuer:      &tokenIssuer{session: params.SessionManager, jwtCfg: params.JWTConfig},
		passwordCfg: params.PasswordConfig,
		logg:        logg,
	}, nil
}

func (s *registerService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(req.Password) < 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name is required")
	}
	phone, err := users.ValidPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	dob, err := users.ParseDateOfBirth(req.DateOfBirth, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	if role != enums.RoleCustomer && role != enums.RoleStore {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be customer or store")
	}
	opensStore := role == enums.RoleStore && req.StoreName != nil && strings.TrimSpace(*req.StoreName) != "" && req.TownID != nil
	if opensStore && req.StoreCategory != "" && !req.StoreCategory.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid store category %q", req.StoreCategory)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var (
		user  *models.User
		store *models.Store
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, alreadyRegisteredMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        &phone,
			DateOfBirth:  &dob,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, alreadyRegisteredMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		user = created

		if !opensStore {
			return nil
		}
		store, err = openStoreWithTx(ctx, tx, created, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.issuer.issue(ctx, time.Now().UTC(), user)
	if err != nil {
		return nil, err
	}
	if store != nil {
		resp.Store = stores.FromModel(store, time.Now())
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "role": string(role)}), "user signed up")
	return resp, nil
}

func openStoreWithTx(ctx context.Context, tx *gorm.DB, owner *models.User, req SignupRequest) (*models.Store, error) {
	town, err := towns.NewRepository(tx).FindByID(ctx, *req.TownID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "town not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load town")
	}
	if !town.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "town is not served")
	}

	street := town.Name
	if req.StoreLocation != nil && strings.TrimSpace(*req.StoreLocation) != "" {
		street = strings.TrimSpace(*req.StoreLocation)
	}
	address := types.Address{
		Street:    street,
		City:      town.Name,
		State:     "Volta",
		Latitude:  town.Latitude,
		Longitude: town.Longitude,
	}
	if req.Latitude != nil && req.Longitude != nil {
		address.Latitude, address.Longitude = *req.Latitude, *req.Longitude
	}

	store, err := stores.NewRepository(tx).Create(ctx, stores.CreateStoreDTO{
		OwnerID:  owner.ID,
		TownID:   town.ID,
		Name:     strings.TrimSpace(*req.StoreName),
		Category: req.StoreCategory,
		Address:  address,
		Phone:    owner.Phone,
		Email:    &owner.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return store, nil
}
