package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/storage"
)

const (
	minSearchLength = 2
	searchLimit     = 10
)

// ErrUserNotFound is returned when the authenticated user no longer exists.
var ErrUserNotFound = errors.New("user not found")

// Budget is a user's monthly budget.
type Budget struct {
	Budget   float64
	Username string
}

// UserService serves budget reads and writes and user search.
type UserService struct {
	store  storage.UserStore
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store storage.UserStore, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: store, logger: logger}
}

// GetBudget returns the monthly budget of userID.
func (s *UserService) GetBudget(ctx context.Context, userID string) (*Budget, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &Budget{Budget: user.Budget, Username: user.Username}, nil
}

// SetBudget replaces the monthly budget of userID.
func (s *UserService) SetBudget(ctx context.Context, userID string, budget float64) error {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget < 0 {
		return invalid("budget", "must be a non-negative number")
	}

	err := s.store.UpdateBudget(ctx, userID, budget)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}

	s.logger.Info("Budget updated", "user_id", userID, "budget", budget)
	return nil
}

// SearchUsers finds other users whose username contains query. Queries
// shorter than two characters return no results.
func (s *UserService) SearchUsers(ctx context.Context, query, requesterID string) ([]models.UserRef, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLength {
		return []models.UserRef{}, nil
	}

	users, err := s.store.SearchUsers(ctx, query, requesterID, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, u.Ref())
	}
	return refs, nil
}
