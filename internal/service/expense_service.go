package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendwise/internal/calculator"
	"github.com/mmynk/spendwise/internal/events"
	"github.com/mmynk/spendwise/internal/metrics"
	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/storage"
)

// CreateExpenseInput carries the fields of a new expense.
type CreateExpenseInput struct {
	Description    string
	Amount         float64
	Category       string
	Date           string
	SplitWithUsers []string
}

// UpdateExpenseInput carries the fields of an expense update. Nil fields
// keep their previous value. For a split creator an empty SplitWithUsers
// dissolves the split.
type UpdateExpenseInput struct {
	Description    *string
	Amount         *float64
	Category       *string
	Date           *string
	SplitWithUsers []string
}

// ExpenseDetails is an expense together with the names needed to display it.
type ExpenseDetails struct {
	*models.Expense

	// DisplayDescription is Description annotated with split information.
	DisplayDescription string

	// Participants resolves SplitUsers for creator records.
	Participants []models.UserRef

	// SplitCreator identifies who split a share record with its owner.
	SplitCreator *models.UserRef
}

// ExpenseService owns every write to expenses and keeps split groups
// consistent: one creator record holding the full amount plus one share
// record per participant.
type ExpenseService struct {
	store     storage.Store
	metrics   *metrics.Metrics
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewExpenseService creates a new ExpenseService. m and publisher may be nil.
func NewExpenseService(store storage.Store, m *metrics.Metrics, publisher events.Publisher, logger *slog.Logger) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{
		store:     store,
		metrics:   m,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create records a new expense for ownerID. With participants it creates a
// split group: the creator record followed by one share per participant,
// all in one transaction. The creator record is returned.
func (s *ExpenseService) Create(ctx context.Context, ownerID string, in CreateExpenseInput) (*ExpenseDetails, error) {
	expense := &models.Expense{
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Category:    strings.TrimSpace(in.Category),
		OwnerID:     ownerID,
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	expense.Date = date
	if err := validateExpense(expense); err != nil {
		return nil, err
	}

	participants, err := s.resolveParticipants(ctx, ownerID, in.SplitWithUsers)
	if err != nil {
		return nil, err
	}

	if len(participants) == 0 {
		if err := s.store.CreateExpense(ctx, expense); err != nil {
			return nil, fmt.Errorf("failed to create expense: %w", err)
		}
		s.logger.Info("Expense created", "expense_id", expense.ID, "user_id", ownerID)
		return s.describe(ctx, expense)
	}

	expense.SplitGroupID = uuid.New().String()
	expense.IsSplitCreator = true
	expense.SplitUsers = participants

	var shares []*models.Expense
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return fmt.Errorf("failed to create split creator: %w", err)
		}
		var err error
		shares, err = writeShares(ctx, tx, expense)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Split expense created",
		"expense_id", expense.ID,
		"split_group_id", expense.SplitGroupID,
		"user_id", ownerID,
		"participants", len(participants),
	)
	s.metrics.SplitOperation("create", len(shares))
	s.publish(ctx, events.SplitCreated, expense)

	return s.describe(ctx, expense)
}

// Update changes an expense owned by requesterID.
//
// Share records cannot be updated (ErrShareManaged). A standalone record is
// updated in place and any participants are ignored. A split creator has its
// shares rebuilt from the new amount and participants; with no participants
// the split is dissolved and the creator becomes a standalone expense.
func (s *ExpenseService) Update(ctx context.Context, requesterID, expenseID string, in UpdateExpenseInput) (*ExpenseDetails, error) {
	existing, err := s.getOwned(ctx, expenseID, requesterID)
	if err != nil {
		return nil, err
	}
	if existing.IsShare() {
		return nil, ErrShareManaged
	}

	updated := *existing
	if in.Description != nil {
		updated.Description = strings.TrimSpace(*in.Description)
	}
	if in.Amount != nil {
		updated.Amount = *in.Amount
	}
	if in.Category != nil {
		updated.Category = strings.TrimSpace(*in.Category)
	}
	if in.Date != nil {
		date, err := s.parseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		updated.Date = date
	}
	if err := validateExpense(&updated); err != nil {
		return nil, err
	}

	if !existing.IsSplitCreator {
		if err := s.store.UpdateExpense(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to update expense: %w", err)
		}
		s.logger.Info("Expense updated", "expense_id", updated.ID, "user_id", requesterID)
		return s.describe(ctx, &updated)
	}

	participants, err := s.resolveParticipants(ctx, requesterID, in.SplitWithUsers)
	if err != nil {
		return nil, err
	}

	groupID := existing.SplitGroupID
	var shares []*models.Expense
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.DeleteSplitShares(ctx, groupID); err != nil {
			return fmt.Errorf("failed to remove split shares: %w", err)
		}

		if len(participants) == 0 {
			updated.ClearSplit()
			if err := tx.UpdateExpense(ctx, &updated); err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}
			return nil
		}

		updated.SplitUsers = participants
		if err := tx.UpdateExpense(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update split creator: %w", err)
		}
		var err error
		shares, err = writeShares(ctx, tx, &updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	if updated.IsSplitCreator {
		s.logger.Info("Split expense updated",
			"expense_id", updated.ID,
			"split_group_id", groupID,
			"participants", len(participants),
		)
		s.metrics.SplitOperation("update", len(shares))
		s.publish(ctx, events.SplitUpdated, &updated)
	} else {
		s.logger.Info("Split dissolved", "expense_id", updated.ID, "split_group_id", groupID)
		s.metrics.SplitOperation("dissolve", 0)
		dissolved := updated
		dissolved.SplitGroupID = groupID
		s.publish(ctx, events.SplitDissolved, &dissolved)
	}

	return s.describe(ctx, &updated)
}

// Delete removes an expense owned by requesterID. Deleting a split creator
// removes the whole split group. Share records cannot be deleted directly.
func (s *ExpenseService) Delete(ctx context.Context, requesterID, expenseID string) error {
	existing, err := s.getOwned(ctx, expenseID, requesterID)
	if err != nil {
		return err
	}

	switch {
	case existing.IsShare():
		return ErrShareManaged

	case existing.IsSplitCreator:
		var removed int64
		err := s.store.WithTx(ctx, func(tx storage.Store) error {
			var err error
			removed, err = tx.DeleteSplitGroup(ctx, existing.SplitGroupID)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to delete split group: %w", err)
		}
		s.logger.Info("Split expense deleted",
			"expense_id", existing.ID,
			"split_group_id", existing.SplitGroupID,
			"records", removed,
		)
		s.metrics.SplitOperation("delete", 0)
		s.publish(ctx, events.SplitDeleted, existing)

	default:
		if err := s.store.DeleteExpense(ctx, existing.ID, requesterID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrExpenseNotFound
			}
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		s.logger.Info("Expense deleted", "expense_id", existing.ID, "user_id", requesterID)
	}
	return nil
}

// List returns every expense owned by ownerID, newest first, with split
// names resolved.
func (s *ExpenseService) List(ctx context.Context, ownerID string) ([]*ExpenseDetails, error) {
	expenses, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return s.describeAll(ctx, expenses)
}

// Summary totals ownerID's spending in month ("YYYY-MM", empty for the
// current month) against their budget.
func (s *ExpenseService) Summary(ctx context.Context, ownerID, month string) (*calculator.MonthSummary, error) {
	start, err := calculator.ParseMonth(strings.TrimSpace(month), s.now())
	if err != nil {
		return nil, invalid("month", "%v", err)
	}

	user, err := s.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	summary := calculator.SummarizeMonth(expenses, start, user.Budget)
	return &summary, nil
}

func (s *ExpenseService) getOwned(ctx context.Context, expenseID, ownerID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load expense: %w", err)
	}
	return expense, nil
}

// resolveParticipants normalises the participant list and checks that every
// participant is a registered user.
func (s *ExpenseService) resolveParticipants(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	participants, err := calculator.NormalizeParticipants(ownerID, ids)
	if err != nil {
		return nil, invalid("splitWithUsers", "%v", err)
	}
	if len(participants) == 0 {
		return nil, nil
	}

	users, err := s.store.GetUsersByIDs(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	for _, id := range participants {
		if _, ok := users[id]; !ok {
			return nil, invalid("splitWithUsers", "unknown user %q", id)
		}
	}
	return participants, nil
}

// writeShares inserts one share record per participant of creator.
func writeShares(ctx context.Context, tx storage.Store, creator *models.Expense) ([]*models.Expense, error) {
	shares, err := calculator.BuildShares(creator)
	if err != nil {
		return nil, err
	}
	for _, share := range shares {
		if err := tx.CreateExpense(ctx, share); err != nil {
			return nil, fmt.Errorf("failed to create split share for %s: %w", share.OwnerID, err)
		}
	}
	return shares, nil
}

func (s *ExpenseService) publish(ctx context.Context, kind events.Type, expense *models.Expense) {
	event := events.Event{
		Type:         kind,
		GroupID:      expense.SplitGroupID,
		ExpenseID:    expense.ID,
		CreatorID:    expense.OwnerID,
		Participants: expense.SplitUsers,
		Amount:       expense.Amount,
		OccurredAt:   s.now().UTC(),
	}
	if len(expense.SplitUsers) > 0 {
		event.ShareAmount = calculator.ShareAmount(expense.Amount, len(expense.SplitUsers))
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish split event", "type", kind, "split_group_id", expense.SplitGroupID, "error", err)
	}
}

// parseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp
// and returns UTC midnight of that day. Dates after today are rejected.
func (s *ExpenseService) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalid("date", "is required")
	}

	parsed, err := time.Parse(models.DateLayout, value)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, value)
		if tsErr != nil {
			return time.Time{}, invalid("date", "must use the YYYY-MM-DD format")
		}
		parsed = ts.UTC()
	}
	date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)

	y, m, d := s.now().UTC().Date()
	if date.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return time.Time{}, invalid("date", "cannot be in the future")
	}
	return date, nil
}

func validateExpense(e *models.Expense) error {
	if e.Description == "" {
		return invalid("description", "is required")
	}
	if e.Category == "" {
		return invalid("category", "is required")
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return invalid("amount", "must be a positive number")
	}
	return nil
}
