package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/internal/stores"
	"github.com/yourwae/fastget-backend/internal/users"
	pkgAuth "github.com/yourwae/fastget-backend/pkg/auth"
	"github.com/yourwae/fastget-backend/pkg/auth/session"
	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, p authz.Principal) (*MeResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type storeLookup interface {
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, uuid.UUID, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	StoreRepo      storeLookup
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	users       userRepository
	stores      storeLookup
	issuer      *tokenIssuer
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.StoreRepo == nil {
		return nil, fmt.Errorf("store repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:       params.UserRepo,
		stores:      params.StoreRepo,
		issuer:      &tokenIssuer{session: params.SessionManager, jwtCfg: params.JWTConfig},
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        logg,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now
	s.upgradePasswordHash(ctx, user, req.Password)

	resp, err := s.issuer.issue(ctx, now, user)
	if err != nil {
		return nil, err
	}
	resp.Store = s.ownedStore(ctx, user)
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")
	return resp, nil
}

// Refresh rotates the refresh token bound to the (possibly expired) access
// token and mints a new pair with the user's current role.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	newAccessID, newRefresh, userID, err := s.issuer.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if userID != claims.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	access, err := s.issuer.mint(time.Now().UTC(), user, newAccessID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresIn:    int(pkgAuth.AccessTokenTTL(s.jwtCfg).Seconds()),
		Role:         user.Role,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "User not logged in")
	}
	if err := s.issuer.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Me reads the user fresh from the database so the role is authoritative
// even when the token was minted before a role change.
func (s *service) Me(ctx context.Context, p authz.Principal) (*MeResponse, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not logged in")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return &MeResponse{
		User:         users.FromModel(user),
		Role:         user.Role,
		MetadataRole: user.MetadataRole,
		Store:        s.ownedStore(ctx, user),
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// upgradePasswordHash re-hashes with the configured Argon2id cost when the
// stored hash is weaker. Failures are logged and never block the login.
func (s *service) upgradePasswordHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		return
	}
	ctx = s.logg.WithUserID(ctx, user.ID.String())
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		s.logg.Error(ctx, "rehash password", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logg.Error(ctx, "store upgraded password hash", err)
		return
	}
	user.PasswordHash = hash
	s.logg.Info(ctx, "password hash upgraded")
}

func (s *service) ownedStore(ctx context.Context, user *models.User) *stores.StoreDTO {
	if user.Role != enums.RoleStore {
		return nil
	}
	store, err := s.stores.FindActiveByOwner(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "load owned store", err)
		}
		return nil
	}
	return stores.FromModel(store, time.Now())
}

// tokenIssuer mints the access JWT and stores the paired refresh token.
type tokenIssuer struct {
	session sessionManager
	jwtCfg  config.JWTConfig
}

func (t *tokenIssuer) issue(ctx context.Context, now time.Time, user *models.User) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	access, err := t.mint(now, user, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := t.session.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(pkgAuth.AccessTokenTTL(t.jwtCfg).Seconds()),
		Role:         user.Role,
		User:         users.FromModel(user),
	}, nil
}

func (t *tokenIssuer) mint(now time.Time, user *models.User, accessID string) (string, error) {
	role := user.Role
	if !role.IsValid() {
		role = enums.RoleCustomer
	}
	token, err := pkgAuth.MintAccessToken(t.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}
