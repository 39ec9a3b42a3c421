package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
	"github.com/nikhil/sharenet/pkg/utils"
)

type AuthService struct {
	Store  store.Store
	Tokens *utils.TokenIssuer
	Log    *logger.Logger

	Now   func() time.Time
	NewID func() string
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(st store.Store, tokens *utils.TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{
		Store:  st,
		Tokens: tokens,
		Log:    log.Named("auth-service"),
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// SignupInput is a new account request.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Signup handles user registration and returns the user with a session token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*usermodels.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindInternal, "", err)
	}

	user := &usermodels.User{
		ID:           s.NewID(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		UserType:     usermodels.UserTypeUser,
		CreatedAt:    s.Now(),
	}
	err = s.Store.Users().CreateUser(ctx, user)
	if errors.Is(err, apperrors.ErrConflict) {
		return nil, "", apperrors.Validation("Email already registered")
	}
	if err != nil {
		return nil, "", err
	}

	token, err := s.Tokens.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	s.Log.Info("User registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *usermodels.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", nil, apperrors.Auth("Invalid email or password")
	}
	if err != nil {
		return "", nil, err
	}
	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		s.Log.Warn("Failed login attempt", "user_id", user.ID)
		return "", nil, apperrors.Auth("Invalid email or password")
	}

	token, err := s.Tokens.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*usermodels.User, error) {
	claims, err := s.Tokens.ParseJWT(token)
	if err != nil {
		return nil, apperrors.Auth("Token is not valid")
	}
	user, err := s.Store.Users().GetUserByID(ctx, claims.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Auth("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
