package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
	"github.com/nkiryanov/ytsummarizer/internal/models"
	"github.com/nkiryanov/ytsummarizer/internal/repository"
	"github.com/nkiryanov/ytsummarizer/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to user during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher
}

// Auth service
type AuthService struct {
	// Manager to issue and check tokens
	tokens *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access long term data
	userRepo repository.UserRepo
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	// Set default bcrypt hasher if not user provided by user
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &AuthService{
		tokens:   tokens,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

// Create user and issue token pair for it
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, email, hash)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return user, models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return user, pair, nil
}

// Check user credentials and issue token pair
// Returns apperrors.ErrUserNotFound either user not exists or password is wrong
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Compare anyway to make response time the same as for wrong password
		_ = s.hasher.Compare(dummyHash, password)
		return models.User{}, models.TokenPair{}, apperrors.ErrUserNotFound
	case err != nil:
		return models.User{}, models.TokenPair{}, err
	}

	err = s.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrUserNotFound
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return user, models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return user, pair, nil
}

// Issue new access token. Refresh token stays the same.
// Fails with apperrors.ErrRefreshTokenNotFound, ErrRefreshTokenRevoked or ErrRefreshTokenExpired
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	return s.tokens.RefreshAccess(ctx, refresh)
}

// Revoke refresh token, so it can't be used anymore
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.Revoke(ctx, refresh)
}

// Return user the access token issued for
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.User, error) {
	userID, err := s.tokens.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.GetUser(ctx, userID)
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}
