// Package testutil provides test helpers for setting up isolated databases
// and seeded users.
package testutil

import (
	"context"
	"testing"

	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
	"github.com/mtobin/pennywise/internal/storage"
)

// SetupTestDB creates a migrated in-memory database that is torn down with
// the test.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedUser creates a user with the given starting budget and returns it.
func SeedUser(t *testing.T, store service.Storage, username string, budget model.Cents) *model.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Currency:     "USD",
	})
	if err != nil {
		t.Fatalf("failed to seed user %q: %v", username, err)
	}

	if budget != 0 {
		if err := store.UpdateUserBudget(context.Background(), user.ID, budget); err != nil {
			t.Fatalf("failed to set budget for %q: %v", username, err)
		}
		user.Budget = budget
	}

	return user
}
