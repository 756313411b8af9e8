package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/storage"
)

const expenseColumns = "id, owner_id, description, amount, category, date, split_group_id, is_split_creator, created_at, updated_at"

// CreateExpense persists a new expense and its participant list.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now

	return s.atomic(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.OwnerID, expense.Description, expense.Amount, expense.Category,
			expense.Date.Format(models.DateLayout), nullable(expense.SplitGroupID),
			expense.IsSplitCreator, expense.CreatedAt, expense.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		return insertSplitUsers(ctx, q, expense.ID, expense.SplitUsers)
	})
}

// GetExpense retrieves an expense by ID, scoped to its owner.
func (s *SQLiteStore) GetExpense(ctx context.Context, id, ownerID string) (*models.Expense, error) {
	expense, err := scanExpense(s.q.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadSplitUsers(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses retrieves all expenses owned by ownerID, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, ownerID string) ([]*models.Expense, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE owner_id = ?
		 ORDER BY date DESC, created_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}

	if err := s.loadSplitUsers(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// UpdateExpense overwrites an existing expense, including its split fields.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	return s.atomic(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx,
			`UPDATE expenses
			 SET description = ?, amount = ?, category = ?, date = ?,
			     split_group_id = ?, is_split_creator = ?, updated_at = ?
			 WHERE id = ? AND owner_id = ?`,
			expense.Description, expense.Amount, expense.Category,
			expense.Date.Format(models.DateLayout), nullable(expense.SplitGroupID),
			expense.IsSplitCreator, expense.UpdatedAt,
			expense.ID, expense.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		// Replace the participant list
		if _, err := q.ExecContext(ctx, "DELETE FROM expense_split_users WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete split users: %w", err)
		}
		return insertSplitUsers(ctx, q, expense.ID, expense.SplitUsers)
	})
}

// DeleteExpense removes an expense by ID, scoped to its owner.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id, ownerID string) error {
	result, err := s.q.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}

	return nil
}

// DeleteSplitShares removes the share records of a split group.
func (s *SQLiteStore) DeleteSplitShares(ctx context.Context, groupID string) (int64, error) {
	result, err := s.q.ExecContext(ctx,
		"DELETE FROM expenses WHERE split_group_id = ? AND is_split_creator = 0",
		groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete split shares: %w", err)
	}
	return result.RowsAffected()
}

// DeleteSplitGroup removes every record of a split group.
func (s *SQLiteStore) DeleteSplitGroup(ctx context.Context, groupID string) (int64, error) {
	result, err := s.q.ExecContext(ctx, "DELETE FROM expenses WHERE split_group_id = ?", groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete split group: %w", err)
	}
	return result.RowsAffected()
}

// GetSplitCreators returns the creator record of each split group.
func (s *SQLiteStore) GetSplitCreators(ctx context.Context, groupIDs []string) (map[string]*models.Expense, error) {
	creators := make(map[string]*models.Expense)
	if len(groupIDs) == 0 {
		return creators, nil
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE is_split_creator = 1 AND split_group_id IN (`+placeholders(len(groupIDs))+`)`,
		toArgs(groupIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get split creators: %w", err)
	}

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadSplitUsers(ctx, expenses); err != nil {
		return nil, err
	}

	for _, e := range expenses {
		creators[e.SplitGroupID] = e
	}
	return creators, nil
}

// loadSplitUsers fills SplitUsers for every creator record in expenses.
func (s *SQLiteStore) loadSplitUsers(ctx context.Context, expenses []*models.Expense) error {
	byID := make(map[string]*models.Expense)
	var ids []string
	for _, e := range expenses {
		if e.IsSplitCreator {
			byID[e.ID] = e
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT expense_id, user_id FROM expense_split_users
		 WHERE expense_id IN (`+placeholders(len(ids))+`)
		 ORDER BY expense_id, position`,
		toArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get split users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, userID string
		if err := rows.Scan(&expenseID, &userID); err != nil {
			return fmt.Errorf("failed to scan split user: %w", err)
		}
		e := byID[expenseID]
		e.SplitUsers = append(e.SplitUsers, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate split users: %w", err)
	}

	return nil
}

func insertSplitUsers(ctx context.Context, q querier, expenseID string, userIDs []string) error {
	for i, userID := range userIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO expense_split_users (expense_id, user_id, position) VALUES (?, ?, ?)",
			expenseID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split user: %w", err)
		}
	}
	return nil
}

func collectExpenses(rows *sql.Rows) ([]*models.Expense, error) {
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var date string
	var groupID sql.NullString

	err := row.Scan(
		&expense.ID,
		&expense.OwnerID,
		&expense.Description,
		&expense.Amount,
		&expense.Category,
		&date,
		&groupID,
		&expense.IsSplitCreator,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	expense.Date, err = time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	if groupID.Valid {
		expense.SplitGroupID = groupID.String
	}

	return expense, nil
}
