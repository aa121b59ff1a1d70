package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCreateAndValidateUser(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	username := "admin-" + uuid.New().String()

	user, err := m.CreateUser(ctx, username, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.Username != username {
		t.Errorf("Expected username=%s, got %s", username, user.Username)
	}

	validated, err := m.ValidateUser(ctx, username, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Failed to validate user: %v", err)
	}
	if validated.ID != user.ID {
		t.Errorf("Expected ID=%s, got %s", user.ID, validated.ID)
	}
}

func TestValidateUserWrongPassword(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	username := "admin-" + uuid.New().String()

	if _, err := m.CreateUser(ctx, username, "right-password"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if _, err := m.ValidateUser(ctx, username, "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := m.ValidateUser(ctx, "no-such-user", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestCreateUserLongPassword(t *testing.T) {
	m := setupTestManager(t)
	if m == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer m.Close()

	ctx := context.Background()
	username := "admin-" + uuid.New().String()

	// bcrypt truncates at 72 bytes, longer passwords go through prehashing
	long := strings.Repeat("p", 100)
	if _, err := m.CreateUser(ctx, username, long); err != nil {
		t.Fatalf("Failed to create user with long password: %v", err)
	}

	if _, err := m.ValidateUser(ctx, username, long); err != nil {
		t.Fatalf("Failed to validate long password: %v", err)
	}

	if _, err := m.ValidateUser(ctx, username, strings.Repeat("p", 99)); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for almost-matching password, got %v", err)
	}
}
