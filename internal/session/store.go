package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store manages the persisted session table. Expired sessions are reaped
// lazily on any access and once at process startup via SweepExpired; there is
// no background scheduler.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Session{})
}

// Create persists a new authenticated session and returns its token. UUID
// tokens are collision-resistant enough that no uniqueness retry is needed.
func (s *Store) Create(userID string, class Class, payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	sess := Session{
		Token:         uuid.NewString(),
		UserID:        userID,
		Class:         class,
		Authenticated: true,
		Payload:       payload,
		ExpiresAt:     time.Now().Add(DefaultTTL),
	}
	if err := s.db.Create(&sess).Error; err != nil {
		return "", err
	}
	return sess.Token, nil
}

// Verify reports whether the token belongs to a valid session. An expired
// session is deleted as a side effect. When expectedClass is non-empty, a
// class mismatch fails verification without deleting the record.
func (s *Store) Verify(token string, expectedClass Class) bool {
	if token == "" {
		return false
	}

	var sess Session
	if err := s.db.First(&sess, "token = ?", token).Error; err != nil {
		return false
	}

	if sess.Expired(time.Now()) {
		s.db.Delete(&sess)
		return false
	}

	if expectedClass != "" && sess.Class != expectedClass {
		return false
	}

	return sess.Authenticated
}

// Fetch returns the session's identity reference, class, and payload, or nil
// when the token is unknown or expired. Expired sessions are deleted here
// too, so any access lazily garbage-collects.
func (s *Store) Fetch(token string) (*Data, error) {
	if token == "" {
		return nil, nil
	}

	var sess Session
	err := s.db.First(&sess, "token = ?", token).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sess.Expired(time.Now()) {
		if err := s.db.Delete(&sess).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &Data{
		UserID:    sess.UserID,
		Class:     sess.Class,
		Payload:   sess.Payload,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Delete removes the session. Deleting an unknown token is a no-op.
func (s *Store) Delete(token string) error {
	if token == "" {
		return nil
	}
	return s.db.Where("token = ?", token).Delete(&Session{}).Error
}

// DeleteForUser removes every session owned by the given identity. Called
// explicitly when an identity is deleted; there is no storage-level cascade.
func (s *Store) DeleteForUser(userID string) error {
	if userID == "" {
		return nil
	}
	return s.db.Where("user_id = ?", userID).Delete(&Session{}).Error
}

// RetagForUser rewrites the class and cached payload of every session owned
// by the identity, keeping the privilege snapshot in sync after the identity
// record changes. Skips silently when the user has no session.
func (s *Store) RetagForUser(userID string, class Class, payload map[string]any) error {
	if userID == "" {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return s.db.Model(&Session{}).
		Where("user_id = ?", userID).
		Updates(Session{Class: class, Payload: payload}).Error
}

// SweepExpired deletes every session past its expiry. Invoked once at
// process startup.
func (s *Store) SweepExpired() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&Session{})
	return res.RowsAffected, res.Error
}
