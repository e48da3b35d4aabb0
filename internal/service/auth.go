// Package service holds the business logic that sits between the HTTP handlers and the stores or upstream APIs.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ IdentityProvider (GitHub OAuth)
//	                   ↘ TokenService (JWT), Sealer (token at rest)
//
// KEY RESPONSIBILITIES:
//   - Orchestrate the GitHub OAuth callback: exchange, identify, upsert, issue
//   - Resolve a session credential to a user on every protected request
//   - Hand the stored GitHub token to the other services, and revoke it on logout
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/auth"
	"github.com/sakif/readme-generator/internal/model"
	"github.com/sakif/readme-generator/internal/repository"
)

// IdentityProvider is the slice of auth.GitHubProvider the service needs.
// Tests substitute a fake.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchIdentity(ctx context.Context, accessToken string) (*auth.GitHubUser, error)
	RevokeGrant(ctx context.Context, accessToken string) error
}

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users     repository.UserRepository → read/write user records
//   - provider  IdentityProvider          → GitHub OAuth and REST
//   - tokens    *auth.TokenService        → generate/validate JWTs
//   - sealer    *auth.Sealer              → encrypt GitHub tokens at rest
//   - logger    *slog.Logger              → structured logging
type AuthService struct {
	users    repository.UserRepository
	provider IdentityProvider
	tokens   *auth.TokenService
	sealer   *auth.Sealer
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	provider IdentityProvider,
	tokens *auth.TokenService,
	sealer *auth.Sealer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		provider: provider,
		tokens:   tokens,
		sealer:   sealer,
		logger:   logger,
	}
}

var _ auth.Verifier = (*AuthService)(nil)

// AuthResult bundles the user and the issued session JWT so the handler can
// set the cookie and redirect in one step. User is the token-free view.
type AuthResult struct {
	User  *model.UserView
	Token string
}

// Login handles the GitHub OAuth callback.
//
//  1. Exchange the one-time code for a GitHub access token
//  2. Fetch the GitHub identity with that token
//  3. Upsert the user by GitHub id, storing the sealed token
//  4. Sign a session JWT for the internal user id
//
// It does NOT set cookies or read HTTP requests; that is the handler's job.
func (s *AuthService) Login(ctx context.Context, code string) (*AuthResult, error) {
	accessToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	ghUser, err := s.provider.FetchIdentity(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	sealed, err := s.sealer.Seal(accessToken)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("sealing access token: %w", err))
	}

	// The repository's Upsert fills in ID, CreatedAt and UpdatedAt.
	user := &model.User{
		ProviderID:          ghUser.ProviderID(),
		Username:            ghUser.Login,
		AvatarURL:           ghUser.AvatarURL,
		ProviderAccessToken: sealed,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user.View(), Token: token}, nil
}

// Verify resolves a session credential to the user it was issued for.
//
// Failure kinds, in check order:
//   - empty credential             → apperror.ErrUnauthenticated
//   - bad signature/expiry/issuer  → apperror.ErrInvalidSession
//   - user record no longer exists → apperror.ErrUserNotFound
//
// The returned view never carries the GitHub token.
func (s *AuthService) Verify(ctx context.Context, credential string) (*model.UserView, error) {
	if credential == "" {
		return nil, apperror.Unauthenticated()
	}

	userID, err := s.tokens.Validate(credential)
	if err != nil {
		return nil, apperror.InvalidSession(err)
	}

	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// ProviderToken returns the unsealed GitHub access token of userID.
func (s *AuthService) ProviderToken(ctx context.Context, userID string) (string, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return "", err
	}

	token, err := s.sealer.Open(user.ProviderAccessToken)
	if err != nil {
		return "", apperror.Persistence(fmt.Errorf("opening access token of user %s: %w", userID, err))
	}
	return token, nil
}

// Logout revokes the user's GitHub grant. It is best-effort: every failure is
// logged and swallowed so the caller can always clear the session cookie.
// The session JWT itself stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	token, err := s.ProviderToken(ctx, userID)
	if err != nil {
		s.logger.Warn("logout: could not load GitHub token",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	if token == "" {
		return
	}

	if err := s.provider.RevokeGrant(ctx, token); err != nil {
		s.logger.Warn("logout: GitHub grant revocation failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("GitHub grant revoked", slog.String("userID", userID))
}

// lookup loads a user, turning a missing record into UserNotFound.
func (s *AuthService) lookup(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.UserNotFound(userID)
		}
		return nil, apperror.Persistence(err)
	}
	return user, nil
}
