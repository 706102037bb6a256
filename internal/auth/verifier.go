package auth

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"storefront/internal/session"
)

// The three login failure kinds are surfaced as distinct user-facing
// messages. bcrypt's comparison is constant-time, so they are not
// distinguishable through hash-verification timing.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInsufficientPrivilege = errors.New("insufficient privileges")
	ErrAccountDisabled       = errors.New("account is disabled")
	ErrTooManyAttempts       = errors.New("too many login attempts")
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}

// Verifier checks credentials against stored password hashes and opens
// sessions for identities that pass.
type Verifier struct {
	db       *gorm.DB
	sessions *session.Store
	log      *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewVerifier(db *gorm.DB, sessions *session.Store, log *zap.Logger) *Verifier {
	return &Verifier{
		db:       db,
		sessions: sessions,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the per-username token bucket: burst of 5, refilling one
// attempt every 2 seconds.
func (v *Verifier) limiter(username string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()
	lim, ok := v.limiters[username]
	if !ok {
		lim = rate.NewLimiter(rate.Every(2*time.Second), 5)
		v.limiters[username] = lim
	}
	return lim
}

// lookup finds the identity by username, falling back to email.
func (v *Verifier) lookup(username string) (*User, error) {
	var user User
	err := v.db.First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = v.db.First(&user, "email = ?", username).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (v *Verifier) check(username, password string) (*User, error) {
	if !v.limiter(username).Allow() {
		v.log.Warn("login throttled", zap.String("username", username))
		return nil, ErrTooManyAttempts
	}

	user, err := v.lookup(username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

// open records the login time and creates a session carrying a snapshot of
// the privilege flags as they stand right now.
func (v *Verifier) open(user *User, class session.Class) (string, error) {
	now := time.Now()
	user.LastLogin = &now
	if err := v.db.Model(user).Update("last_login", now).Error; err != nil {
		return "", err
	}

	token, err := v.sessions.Create(user.ID, class, Payload(class, user))
	if err != nil {
		return "", err
	}

	v.log.Info("login",
		zap.String("user_id", user.ID),
		zap.String("class", string(class)))
	return token, nil
}

// Payload is the privilege snapshot cached on a session at login time.
func Payload(class session.Class, user *User) map[string]any {
	return map[string]any{
		"user_type": string(class),
		"is_admin":  user.IsAdmin,
	}
}

// Login authenticates a storefront customer and opens a user-class session.
func (v *Verifier) Login(username, password string) (*User, string, error) {
	user, err := v.check(username, password)
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	token, err := v.open(user, session.ClassUser)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AdminLogin additionally requires the administrator flag and opens an
// admin-class session.
func (v *Verifier) AdminLogin(username, password string) (*User, string, error) {
	user, err := v.check(username, password)
	if err != nil {
		return nil, "", err
	}
	if !user.IsAdmin {
		return nil, "", ErrInsufficientPrivilege
	}

	token, err := v.open(user, session.ClassAdmin)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
