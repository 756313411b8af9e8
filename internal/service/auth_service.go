package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/spendwise/internal/auth"
	"github.com/mmynk/spendwise/internal/models"
)

const maxUsernameLength = 32

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *models.User
}

// AuthService handles signup and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Signup creates a new user account. A taken username or email is reported
// as a *storage.DuplicateError.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	s.logger.Info("Signup request", "username", username)

	// Validate input
	if username == "" {
		return nil, invalid("username", "is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength || strings.ContainsAny(username, " \t\n@") {
		return nil, invalid("username", "must be at most %d characters without spaces or @", maxUsernameLength)
	}
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, invalid("email", "is not a valid email address")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}

	user, err := s.authenticator.Register(ctx, username, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, invalid("password", "%v", err)
		}
		s.logger.Warn("Signup failed", "username", username, "error", err)
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates by username or email and issues a token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalid("identifier", "username or email and password are required")
	}

	user, err := s.authenticator.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("Login rejected", "identifier", identifier)
		} else {
			s.logger.Error("Login failed", "identifier", identifier, "error", err)
		}
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return &LoginResult{Token: token, User: user}, nil
}
