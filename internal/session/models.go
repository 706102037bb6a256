package session

import "time"

// Class separates ordinary storefront sessions from admin console sessions.
// A session only ever satisfies guards of its own class.
type Class string

const (
	ClassUser  Class = "user"
	ClassAdmin Class = "admin"
)

// CookieName returns the browser cookie carrying tokens of this class.
func (c Class) CookieName() string {
	if c == ClassAdmin {
		return "admin_session"
	}
	return "user_session"
}

// DefaultTTL is how long a freshly created session stays valid.
const DefaultTTL = 24 * time.Hour

type Session struct {
	Token         string         `gorm:"primaryKey" json:"-"`
	UserID        string         `gorm:"index" json:"-"`
	Class         Class          `gorm:"not null;default:'user'" json:"class"`
	Authenticated bool           `json:"authenticated"`
	Payload       map[string]any `gorm:"serializer:json;type:text" json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `gorm:"index;not null" json:"expires_at"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Data is what callers get back from Fetch: the identity reference, the
// session class, and the cached payload snapshot.
type Data struct {
	UserID    string
	Class     Class
	Payload   map[string]any
	ExpiresAt time.Time
}
