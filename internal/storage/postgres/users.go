package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/storage"
)

const userColumns = "id, username, email, password_hash, budget, created_at, updated_at"

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (id, username, email, password_hash, budget, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.q.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Budget, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return &storage.DuplicateError{Field: "username", Value: user.Username}
			case "users_email_key":
				return &storage.DuplicateError{Field: "email", Value: user.Email}
			}
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID fetches a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByIdentifier fetches the first user matching the identifier as username or email.
func (s *Store) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = LOWER($1) LIMIT 1`,
		identifier,
	)
	return scanUser(row)
}

// GetUsersByIDs fetches users by ID; missing users are omitted.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = user
	}
	return users, rows.Err()
}

// SearchUsers finds users whose username contains query, ignoring case.
func (s *Store) SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]*models.User, error) {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	pattern := "%" + replacer.Replace(query) + "%"

	rows, err := s.q.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id <> $1 AND username ILIKE $2
		 ORDER BY username
		 LIMIT $3`,
		excludeID, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateBudget sets the monthly budget of a user.
func (s *Store) UpdateBudget(ctx context.Context, userID string, budget float64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE users SET budget = $1, updated_at = $2 WHERE id = $3`,
		budget, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Budget, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
