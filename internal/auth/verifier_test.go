package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/session"
)

func testVerifier(t *testing.T) (*Verifier, *gorm.DB, *session.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate users: %v", err)
	}
	if err := session.Migrate(db); err != nil {
		t.Fatalf("failed to migrate sessions: %v", err)
	}
	sessions := session.NewStore(db)
	return NewVerifier(db, sessions, zap.NewNop()), db, sessions
}

func createUser(t *testing.T, db *gorm.DB, username, password string, mutate func(*User)) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if mutate != nil {
		mutate(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// TestLoginUnknownUser confirms a missing identity surfaces as its own error.
func TestLoginUnknownUser(t *testing.T) {
	v, _, _ := testVerifier(t)

	_, _, err := v.Login("nobody", "password123")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// TestLoginWrongPassword confirms a bad password is distinct from a missing
// user.
func TestLoginWrongPassword(t *testing.T) {
	v, db, _ := testVerifier(t)
	createUser(t, db, "carol", "password123", nil)

	_, _, err := v.Login("carol", "not-the-password")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

// TestLoginDisabledAccount confirms deactivated identities cannot open
// customer sessions even with the right password.
func TestLoginDisabledAccount(t *testing.T) {
	v, db, _ := testVerifier(t)
	createUser(t, db, "carol", "password123", func(u *User) { u.IsActive = false })

	_, _, err := v.Login("carol", "password123")
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

// TestLoginByEmailFallback confirms the identifier matches the email column
// when no username matches.
func TestLoginByEmailFallback(t *testing.T) {
	v, db, sessions := testVerifier(t)
	created := createUser(t, db, "carol", "password123", nil)

	user, token, err := v.Login("carol@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("expected the same identity, got %q", user.ID)
	}
	if !sessions.Verify(token, session.ClassUser) {
		t.Error("expected a live user session")
	}
}

// TestLoginOpensSessionAndRecordsTime confirms a successful login creates a
// user-class session with the privilege snapshot and stamps last_login.
func TestLoginOpensSessionAndRecordsTime(t *testing.T) {
	v, db, sessions := testVerifier(t)
	created := createUser(t, db, "carol", "password123", nil)

	_, token, err := v.Login("carol", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	data, err := sessions.Fetch(token)
	if err != nil || data == nil {
		t.Fatalf("expected a session, got %v, %v", data, err)
	}
	if data.UserID != created.ID || data.Class != session.ClassUser {
		t.Errorf("unexpected session: %+v", data)
	}
	if data.Payload["user_type"] != "user" || data.Payload["is_admin"] != false {
		t.Errorf("unexpected payload: %v", data.Payload)
	}

	var reloaded User
	if err := db.First(&reloaded, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastLogin == nil {
		t.Error("expected last_login recorded")
	}
}

// TestAdminLoginRequiresFlag confirms a valid customer credential cannot open
// an admin session.
func TestAdminLoginRequiresFlag(t *testing.T) {
	v, db, _ := testVerifier(t)
	createUser(t, db, "carol", "password123", nil)

	_, _, err := v.AdminLogin("carol", "password123")
	if !errors.Is(err, ErrInsufficientPrivilege) {
		t.Fatalf("expected ErrInsufficientPrivilege, got %v", err)
	}
}

// TestAdminLoginOpensAdminSession confirms the admin flow tags the session
// with the admin class.
func TestAdminLoginOpensAdminSession(t *testing.T) {
	v, db, sessions := testVerifier(t)
	createUser(t, db, "boss", "password123", func(u *User) { u.IsAdmin = true })

	_, token, err := v.AdminLogin("boss", "password123")
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if !sessions.Verify(token, session.ClassAdmin) {
		t.Error("expected an admin-class session")
	}
	if sessions.Verify(token, session.ClassUser) {
		t.Error("admin session must not verify as a user session")
	}
}

// TestLoginThrottled confirms rapid attempts against one username trip the
// rate limit after the burst is spent.
func TestLoginThrottled(t *testing.T) {
	v, db, _ := testVerifier(t)
	createUser(t, db, "carol", "password123", nil)

	for i := 0; i < 5; i++ {
		if _, _, err := v.Login("carol", "wrong-password"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("attempt %d: expected ErrInvalidPassword, got %v", i, err)
		}
	}
	if _, _, err := v.Login("carol", "password123"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	// Other usernames are unaffected.
	createUser(t, db, "dave", "password123", nil)
	if _, _, err := v.Login("dave", "password123"); err != nil {
		t.Fatalf("expected independent limit per username, got %v", err)
	}
}
