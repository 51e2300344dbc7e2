package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shoplistapp/auth-service/internal/domain"
	"github.com/shoplistapp/auth-service/internal/dto"
	"github.com/shoplistapp/auth-service/internal/repository"
	"github.com/shoplistapp/auth-service/internal/utils"
)

// dummyHash keeps the bcrypt comparison cost constant when the email is
// unknown, so login timing does not reveal account existence
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// authService implements AuthService interface
type authService struct {
	userRepo           repository.UserRepository
	roleRepo           repository.RoleRepository
	tokenRepo          repository.TokenRepository
	identityRepo       repository.IdentityRepository
	jwtManager         *utils.JWTManager
	googleVerifier     GoogleVerifier
	denylist           Denylist
	bcryptCost         int
	refreshTokenExpiry time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos *repository.Repositories,
	jwtManager *utils.JWTManager,
	googleVerifier GoogleVerifier,
	denylist Denylist,
	bcryptCost int,
	refreshTokenExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:           repos.User,
		roleRepo:           repos.Role,
		tokenRepo:          repos.Token,
		identityRepo:       repos.Identity,
		jwtManager:         jwtManager,
		googleVerifier:     googleVerifier,
		denylist:           denylist,
		bcryptCost:         bcryptCost,
		refreshTokenExpiry: refreshTokenExpiry,
	}
}

// Register creates a new local user with the default role. No tokens are
// issued; the client logs in separately.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if !utils.ValidateEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters long and contain uppercase, lowercase, and number", ErrValidation)
	}

	email := utils.SanitizeEmail(req.Email)

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: &passwordHash,
		Provider:     domain.ProviderLocal,
		Status:       domain.StatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.assignDefaultRole(ctx, user); err != nil {
		// Remove the half-created row so the email can be registered again
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}

	return userToResponse(user), nil
}

// Login authenticates a local user and issues an access/refresh token pair
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.CheckPasswordHash(req.Password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.PasswordHash == nil || !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(ctx, user, client)
}

// LoginWithGoogle verifies a Google ID token and authenticates the matching
// user, provisioning or linking an account on first sight
func (s *authService) LoginWithGoogle(ctx context.Context, idToken string, client ClientInfo) (*dto.TokenResponse, error) {
	identity, err := s.googleVerifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrInvalidExternalToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidExternalToken, err)
	}

	if !identity.EmailVerified {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidExternalToken)
	}

	user, err := s.resolveGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(ctx, user, client)
}

// resolveGoogleUser finds the user behind a verified Google identity. A known
// external id wins; otherwise a matching email links the identity to the
// existing account, and an unknown email provisions a fresh GOOGLE user.
func (s *authService) resolveGoogleUser(ctx context.Context, identity *GoogleIdentity) (*domain.User, error) {
	link, err := s.identityRepo.GetByProvider(ctx, domain.ProviderGoogle, identity.ExternalID)
	if err == nil {
		user, err := s.userRepo.GetByID(ctx, link.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get linked user: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up linked identity: %w", err)
	}

	email := utils.SanitizeEmail(identity.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		user = &domain.User{
			Email:    email,
			Name:     identity.Name,
			Provider: domain.ProviderGoogle,
			Status:   domain.StatusActive,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to provision user: %w", err)
		}
		if err := s.assignDefaultRole(ctx, user); err != nil {
			if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
				return nil, errors.Join(err, delErr)
			}
			return nil, err
		}
	}

	if err := s.identityRepo.Create(ctx, &domain.LinkedIdentity{
		UserID:         user.ID,
		Provider:       domain.ProviderGoogle,
		ProviderUserID: identity.ExternalID,
		Email:          &email,
	}); err != nil && !errors.Is(err, repository.ErrDuplicateIdentity) {
		return nil, fmt.Errorf("failed to link identity: %w", err)
	}

	return user, nil
}

// Refresh rotates a refresh token: the presented token is revoked and linked
// to a freshly minted successor in one atomic step. Presenting an already
// rotated token is treated as replay and revokes the whole lineage.
func (s *authService) Refresh(ctx context.Context, rawRefreshToken string, client ClientInfo) (*dto.TokenResponse, error) {
	tokenHash := utils.HashToken(rawRefreshToken)

	// Fast-path rejection of hashes already known to be revoked, before any
	// database read
	denied, err := s.denylist.Contains(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check denylist: %w", err)
	}
	if denied {
		return nil, ErrTokenRevoked
	}

	record, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if record.WasReused() {
		if err := s.revokeLineage(ctx, record); err != nil {
			return nil, err
		}
		return nil, ErrTokenAlreadyUsed
	}

	if record.IsRevoked() {
		return nil, ErrTokenRevoked
	}

	if record.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	rawSuccessor, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	successor := s.newTokenRecord(user.ID, rawSuccessor, client)

	if err := s.tokenRepo.Rotate(ctx, record.ID, successor); err != nil {
		if errors.Is(err, repository.ErrTokenRotated) {
			// Lost the race against a concurrent refresh of the same token
			return nil, ErrTokenAlreadyUsed
		}
		return nil, fmt.Errorf("failed to rotate token: %w", err)
	}

	// The rotated-away hash stays out of the denylist on purpose: a replay
	// must reach the database row so reuse detection can revoke the lineage

	return s.tokenResponse(user, rawSuccessor)
}

// revokeLineage walks the replacement chain from the reused token and
// revokes every reachable successor. The reused token's own hash joins the
// denylist so later replays short-circuit.
func (s *authService) revokeLineage(ctx context.Context, reused *domain.RefreshToken) error {
	if ttl := time.Until(reused.ExpiresAt); ttl > 0 {
		_ = s.denylist.Add(ctx, reused.TokenHash, ttl)
	}

	nextID := reused.ReplacedByTokenID
	for nextID != nil {
		record, err := s.tokenRepo.GetByID(ctx, *nextID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to walk token lineage: %w", err)
		}

		if err := s.tokenRepo.Revoke(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrAlreadyRevoked) {
			return fmt.Errorf("failed to revoke lineage token: %w", err)
		}

		if ttl := time.Until(record.ExpiresAt); ttl > 0 {
			_ = s.denylist.Add(ctx, record.TokenHash, ttl)
		}

		nextID = record.ReplacedByTokenID
	}
	return nil
}

// Logout revokes a refresh token. Logging out with an already revoked token
// is not an error.
func (s *authService) Logout(ctx context.Context, rawRefreshToken string) error {
	tokenHash := utils.HashToken(rawRefreshToken)

	record, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to get token: %w", err)
	}

	if err := s.tokenRepo.Revoke(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrAlreadyRevoked) {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if ttl := time.Until(record.ExpiresAt); ttl > 0 {
		_ = s.denylist.Add(ctx, tokenHash, ttl)
	}

	return nil
}

// ValidateAccessToken validates an access token and returns the principal
// for downstream authorization. Codec failures propagate unchanged.
func (s *authService) ValidateAccessToken(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.jwtManager.Validate(token)
	if err != nil {
		return nil, err
	}

	return &domain.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, nil
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return userToResponse(user), nil
}

func (s *authService) assignDefaultRole(ctx context.Context, user *domain.User) error {
	role, err := s.roleRepo.GetByName(ctx, domain.RoleUser)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to get default role: %w", err)
		}

		role = &domain.Role{Name: domain.RoleUser, Description: "Default role for registered users"}
		if err := s.roleRepo.Create(ctx, role); err != nil && !errors.Is(err, repository.ErrDuplicateRole) {
			return fmt.Errorf("failed to create default role: %w", err)
		}
	}

	if err := s.roleRepo.Assign(ctx, user.ID, role.ID); err != nil {
		return fmt.Errorf("failed to assign default role: %w", err)
	}

	user.AddRole(*role)
	return nil
}

// issueTokens mints an access token and a fresh refresh token for the user
func (s *authService) issueTokens(ctx context.Context, user *domain.User, client ClientInfo) (*dto.TokenResponse, error) {
	rawRefreshToken, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	record := s.newTokenRecord(user.ID, rawRefreshToken, client)
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return s.tokenResponse(user, rawRefreshToken)
}

func (s *authService) newTokenRecord(userID, rawToken string, client ClientInfo) *domain.RefreshToken {
	record := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: utils.HashToken(rawToken),
		ExpiresAt: time.Now().Add(s.refreshTokenExpiry),
	}
	if client.UserAgent != "" {
		record.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		record.IPAddress = &client.IPAddress
	}
	return record
}

func (s *authService) tokenResponse(user *domain.User, rawRefreshToken string) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtManager.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.jwtManager.GetAccessTokenExpiry(),
		User: dto.UserInfo{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Roles: user.RoleNames(),
		},
	}, nil
}

func userToResponse(user *domain.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Provider:  string(user.Provider),
		Status:    string(user.Status),
		Roles:     user.RoleNames(),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
