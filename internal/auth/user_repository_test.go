package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	user := seedTestUser(t, db, "get@example.com")

	if !strings.HasPrefix(user.ID, "usr-") {
		t.Errorf("generated ID should have usr- prefix, got %q", user.ID)
	}

	byID, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Email != "get@example.com" {
		t.Errorf("Email = %q, want %q", byID.Email, "get@example.com")
	}

	byEmail, err := repo.GetByEmail(context.Background(), "GET@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetByEmail ID = %q, want %q", byEmail.ID, user.ID)
	}
}

func TestUserRepository_GetNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	if _, err := repo.GetByID(context.Background(), "usr-missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_CreateNormalizesEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	hash, _ := HashPassword("test-password") //nolint:errcheck // tested elsewhere
	user := &User{
		Email:        "  Upper@Example.COM ",
		FullName:     "Upper Case",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.Email != "upper@example.com" {
		t.Errorf("stored email = %q, want normalised form", user.Email)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	user := seedTestUser(t, db, "update@example.com")

	user.FullName = "Renamed"
	user.IsActive = false
	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FullName != "Renamed" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Renamed")
	}
	if got.IsActive {
		t.Error("IsActive should be false after update")
	}
}

func TestUserRepository_UpdateNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	err := repo.Update(context.Background(), &User{ID: "usr-missing", FullName: "x"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	user := seedTestUser(t, db, "pw@example.com")

	newHash, err := HashPassword("new-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := repo.UpdatePassword(context.Background(), user.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	if _, err := VerifyCredentials(context.Background(), repo, "pw@example.com", "new-password"); err != nil {
		t.Errorf("new password should verify, error = %v", err)
	}
	if _, err := VerifyCredentials(context.Background(), repo, "pw@example.com", "test-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password should fail, error = %v", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	user := seedTestUser(t, db, "delete@example.com")

	if err := repo.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(context.Background(), user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrUserNotFound", err)
	}

	if err := repo.Delete(context.Background(), user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_ListAndCount(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("List() on empty db should return empty slice, got %d", len(users))
	}

	seedTestUser(t, db, "one@example.com")
	seedTestUser(t, db, "two@example.com")

	count, err = repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	users, err = repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("List() = %d users, want 2", len(users))
	}
}
