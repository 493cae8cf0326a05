package usecases

import (
	"context"

	"github.com/google/uuid"

	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/domain/repositories"
	"rune-settle.backend/pkg/crypto"
	"rune-settle.backend/pkg/jwt"
	"rune-settle.backend/pkg/redis"
)

// AuthUsecase handles user registration and token issuance. Refresh tokens
// are bound to an encrypted Redis session so a stolen token alone cannot be
// rotated after logout.
type AuthUsecase struct {
	users    repositories.UserRepository
	jwtSvc   *jwt.JWTService
	sessions *redis.SessionStore
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(users repositories.UserRepository, jwtSvc *jwt.JWTService, sessions *redis.SessionStore) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		jwtSvc:   jwtSvc,
		sessions: sessions,
	}
}

// Register creates a new user account.
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.User, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Role:         entities.UserRoleUser,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token pair.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	user, err := u.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	pair, err := u.jwtSvc.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	if err := u.storeSession(ctx, user.ID, pair); err != nil {
		return nil, err
	}

	return &entities.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, nil
}

// RefreshToken rotates the token pair. The presented refresh token must match
// the stored session for its user.
func (u *AuthUsecase) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := u.jwtSvc.ValidateToken(refreshToken)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized
	}

	if u.sessions != nil {
		session, err := u.sessions.GetSession(ctx, claims.UserID.String())
		if err != nil || session.RefreshToken != refreshToken {
			return nil, domainerrors.ErrUnauthorized
		}
	}

	pair, err := u.jwtSvc.GenerateTokenPair(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return nil, err
	}
	if err := u.storeSession(ctx, claims.UserID, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout drops the stored session so refresh tokens stop working.
func (u *AuthUsecase) Logout(ctx context.Context, userID uuid.UUID) error {
	if u.sessions == nil {
		return nil
	}
	return u.sessions.DeleteSession(ctx, userID.String())
}

// GetUserByID fetches a user by ID.
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return u.users.GetByID(ctx, id)
}

func (u *AuthUsecase) storeSession(ctx context.Context, userID uuid.UUID, pair *jwt.TokenPair) error {
	if u.sessions == nil {
		return nil
	}
	data := &redis.SessionData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	return u.sessions.CreateSession(ctx, userID.String(), data, u.jwtSvc.RefreshExpiry())
}
