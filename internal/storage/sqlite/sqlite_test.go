package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "spendwise-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustCreateUser(t *testing.T, store *SQLiteStore, username string) *models.User {
	t.Helper()
	user := models.NewUser(username, username+"@example.com", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return user
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	mustCreateUser(t, store, "alicia")
	mustCreateUser(t, store, "bob")

	t.Run("duplicate username reports the field", func(t *testing.T) {
		dup := models.NewUser("alice", "other@example.com", "hash")
		err := store.CreateUser(ctx, dup)

		var dupErr *storage.DuplicateError
		if !errors.As(err, &dupErr) {
			t.Fatalf("expected DuplicateError, got %v", err)
		}
		if dupErr.Field != "username" {
			t.Errorf("Field = %q, want username", dupErr.Field)
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Error("DuplicateError should match ErrAlreadyExists")
		}
	})

	t.Run("duplicate email reports the field", func(t *testing.T) {
		dup := models.NewUser("someone", "alice@example.com", "hash")
		var dupErr *storage.DuplicateError
		if err := store.CreateUser(ctx, dup); !errors.As(err, &dupErr) || dupErr.Field != "email" {
			t.Fatalf("expected email DuplicateError, got %v", err)
		}
	})

	t.Run("lookup by username or email", func(t *testing.T) {
		byName, err := store.GetUserByIdentifier(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUserByIdentifier(username) failed: %v", err)
		}
		byEmail, err := store.GetUserByIdentifier(ctx, "Alice@Example.com")
		if err != nil {
			t.Fatalf("GetUserByIdentifier(email) failed: %v", err)
		}
		if byName.ID != alice.ID || byEmail.ID != alice.ID {
			t.Errorf("identifier lookups returned %s and %s, want %s", byName.ID, byEmail.ID, alice.ID)
		}

		if _, err := store.GetUserByIdentifier(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("search is case-insensitive and excludes caller", func(t *testing.T) {
		users, err := store.SearchUsers(ctx, "ALI", alice.ID, 10)
		if err != nil {
			t.Fatalf("SearchUsers failed: %v", err)
		}
		if len(users) != 1 || users[0].Username != "alicia" {
			t.Errorf("SearchUsers returned %+v, want only alicia", users)
		}
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		users, err := store.SearchUsers(ctx, "%", "", 10)
		if err != nil {
			t.Fatalf("SearchUsers failed: %v", err)
		}
		if len(users) != 0 {
			t.Errorf("expected no match for a literal %%, got %d", len(users))
		}
	})

	t.Run("budget round trip", func(t *testing.T) {
		if err := store.UpdateBudget(ctx, alice.ID, 500); err != nil {
			t.Fatalf("UpdateBudget failed: %v", err)
		}
		user, err := store.GetUserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if user.Budget != 500 {
			t.Errorf("Budget = %v, want 500", user.Budget)
		}

		if err := store.UpdateBudget(ctx, "missing", 1); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	carol := mustCreateUser(t, store, "carol")
	date := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("CreateExpense generates ID and timestamps", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Coffee",
			Amount:      4.5,
			Category:    "Food",
			Date:        date,
			OwnerID:     alice.ID,
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}
		if expense.CreatedAt == 0 || expense.UpdatedAt == 0 {
			t.Error("Expected timestamps to be set")
		}

		got, err := store.GetExpense(ctx, expense.ID, alice.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Description != "Coffee" || got.Amount != 4.5 || !got.Date.Equal(date) {
			t.Errorf("GetExpense returned %+v", got)
		}
		if got.IsSplit() {
			t.Error("standalone expense should not be split")
		}
	})

	t.Run("GetExpense is scoped to the owner", func(t *testing.T) {
		expense := &models.Expense{Description: "Book", Amount: 12, Category: "Fun", Date: date, OwnerID: alice.ID}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID, bob.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for another owner, got %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID, bob.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting another owner's expense, got %v", err)
		}
	})

	t.Run("split group round trip", func(t *testing.T) {
		creator := &models.Expense{
			Description:    "Dinner",
			Amount:         90,
			Category:       "Food",
			Date:           date,
			OwnerID:        alice.ID,
			SplitGroupID:   "group-1",
			IsSplitCreator: true,
			SplitUsers:     []string{carol.ID, bob.ID},
		}
		if err := store.CreateExpense(ctx, creator); err != nil {
			t.Fatalf("CreateExpense(creator) failed: %v", err)
		}
		for _, owner := range []string{carol.ID, bob.ID} {
			share := &models.Expense{Description: "Dinner", Amount: 30, Category: "Food", Date: date, OwnerID: owner, SplitGroupID: "group-1"}
			if err := store.CreateExpense(ctx, share); err != nil {
				t.Fatalf("CreateExpense(share) failed: %v", err)
			}
		}

		got, err := store.GetExpense(ctx, creator.ID, alice.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.SplitUsers) != 2 || got.SplitUsers[0] != carol.ID || got.SplitUsers[1] != bob.ID {
			t.Errorf("SplitUsers = %v, want participant order preserved", got.SplitUsers)
		}

		creators, err := store.GetSplitCreators(ctx, []string{"group-1", "missing"})
		if err != nil {
			t.Fatalf("GetSplitCreators failed: %v", err)
		}
		if len(creators) != 1 || creators["group-1"].OwnerID != alice.ID {
			t.Errorf("GetSplitCreators returned %+v", creators)
		}

		removed, err := store.DeleteSplitShares(ctx, "group-1")
		if err != nil {
			t.Fatalf("DeleteSplitShares failed: %v", err)
		}
		if removed != 2 {
			t.Errorf("DeleteSplitShares removed %d, want 2", removed)
		}

		removed, err = store.DeleteSplitGroup(ctx, "group-1")
		if err != nil {
			t.Fatalf("DeleteSplitGroup failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("DeleteSplitGroup removed %d, want 1", removed)
		}
	})

	t.Run("second creator in a group is rejected", func(t *testing.T) {
		first := &models.Expense{Description: "A", Amount: 1, Category: "X", Date: date, OwnerID: alice.ID, SplitGroupID: "group-2", IsSplitCreator: true, SplitUsers: []string{bob.ID}}
		second := &models.Expense{Description: "B", Amount: 1, Category: "X", Date: date, OwnerID: bob.ID, SplitGroupID: "group-2", IsSplitCreator: true, SplitUsers: []string{alice.ID}}
		if err := store.CreateExpense(ctx, first); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.CreateExpense(ctx, second); err == nil {
			t.Error("expected unique index violation for a second creator")
		}
	})

	t.Run("UpdateExpense clears split fields", func(t *testing.T) {
		expense := &models.Expense{Description: "Taxi", Amount: 20, Category: "Travel", Date: date, OwnerID: alice.ID, SplitGroupID: "group-3", IsSplitCreator: true, SplitUsers: []string{bob.ID}}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expense.ClearSplit()
		expense.Amount = 25
		if err := store.UpdateExpense(ctx, expense); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID, alice.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.IsSplit() || got.IsSplitCreator || len(got.SplitUsers) != 0 || got.Amount != 25 {
			t.Errorf("expected standalone expense of 25, got %+v", got)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		var id string
		err := store.WithTx(ctx, func(tx storage.Store) error {
			expense := &models.Expense{Description: "Rollback", Amount: 1, Category: "X", Date: date, OwnerID: alice.ID}
			if err := tx.CreateExpense(ctx, expense); err != nil {
				return err
			}
			id = expense.ID
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx returned %v, want boom", err)
		}
		if _, err := store.GetExpense(ctx, id, alice.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected rolled back expense to be missing, got %v", err)
		}
	})

	t.Run("ListExpenses is newest first", func(t *testing.T) {
		owner := mustCreateUser(t, store, "dave")
		for i, d := range []int{3, 10, 7} {
			expense := &models.Expense{
				Description: "item",
				Amount:      float64(i + 1),
				Category:    "X",
				Date:        time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC),
				OwnerID:     owner.ID,
			}
			if err := store.CreateExpense(ctx, expense); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, err := store.ListExpenses(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 3 {
			t.Fatalf("ListExpenses returned %d, want 3", len(expenses))
		}
		if expenses[0].Date.Day() != 10 || expenses[2].Date.Day() != 3 {
			t.Errorf("unexpected order: %v, %v, %v", expenses[0].Date, expenses[1].Date, expenses[2].Date)
		}
	})
}

func TestSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "version.db")
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	// Applying twice is a no-op
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}

	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("SchemaVersion = (%d, %v), want (2, false)", version, dirty)
	}
}
