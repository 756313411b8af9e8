package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/storage"
)

const expenseColumns = "id, owner_id, description, amount, category, date, split_group_id, is_split_creator, split_users, created_at, updated_at"

// CreateExpense inserts a new expense row.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now

	_, err := s.q.Exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		expense.ID, expense.OwnerID, expense.Description, expense.Amount, expense.Category,
		expense.Date, nullable(expense.SplitGroupID), expense.IsSplitCreator, splitUsers(expense),
		expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetExpense fetches an expense by ID, scoped to its owner.
func (s *Store) GetExpense(ctx context.Context, id, ownerID string) (*models.Expense, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	expense, err := scanExpense(row)
	if err != nil {
		return nil, fmt.Errorf("expense %s: %w", id, err)
	}
	return expense, nil
}

// ListExpenses fetches every expense owned by ownerID, newest first.
func (s *Store) ListExpenses(ctx context.Context, ownerID string) ([]*models.Expense, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE owner_id = $1
		 ORDER BY date DESC, created_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collectExpenses(rows)
}

// UpdateExpense overwrites an expense row, scoped to its owner.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	tag, err := s.q.Exec(ctx,
		`UPDATE expenses
		 SET description = $1, amount = $2, category = $3, date = $4,
		     split_group_id = $5, is_split_creator = $6, split_users = $7, updated_at = $8
		 WHERE id = $9 AND owner_id = $10`,
		expense.Description, expense.Amount, expense.Category, expense.Date,
		nullable(expense.SplitGroupID), expense.IsSplitCreator, splitUsers(expense), expense.UpdatedAt,
		expense.ID, expense.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense row, scoped to its owner.
func (s *Store) DeleteExpense(ctx context.Context, id, ownerID string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteSplitShares removes the share records of a split group.
func (s *Store) DeleteSplitShares(ctx context.Context, groupID string) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM expenses WHERE split_group_id = $1 AND NOT is_split_creator`, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete split shares: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteSplitGroup removes every record of a split group.
func (s *Store) DeleteSplitGroup(ctx context.Context, groupID string) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM expenses WHERE split_group_id = $1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete split group: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetSplitCreators returns the creator record of each split group.
func (s *Store) GetSplitCreators(ctx context.Context, groupIDs []string) (map[string]*models.Expense, error) {
	creators := make(map[string]*models.Expense)
	if len(groupIDs) == 0 {
		return creators, nil
	}

	rows, err := s.q.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE is_split_creator AND split_group_id = ANY($1)`,
		groupIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("get split creators: %w", err)
	}
	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		creators[e.SplitGroupID] = e
	}
	return creators, nil
}

func collectExpenses(rows pgx.Rows) ([]*models.Expense, error) {
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var expense models.Expense
	var groupID *string
	err := row.Scan(
		&expense.ID, &expense.OwnerID, &expense.Description, &expense.Amount, &expense.Category,
		&expense.Date, &groupID, &expense.IsSplitCreator, &expense.SplitUsers,
		&expense.CreatedAt, &expense.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if groupID != nil {
		expense.SplitGroupID = *groupID
	}
	if len(expense.SplitUsers) == 0 {
		expense.SplitUsers = nil
	}
	expense.Date = expense.Date.UTC()
	return &expense, nil
}

// splitUsers returns a non-nil participant slice for the TEXT[] column.
func splitUsers(e *models.Expense) []string {
	if e.SplitUsers == nil {
		return []string{}
	}
	return e.SplitUsers
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
