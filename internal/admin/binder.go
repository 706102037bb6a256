package admin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/store"
)

// Mode distinguishes creation binds (defaults applied, empty references
// omitted) from update binds (no defaults, empty references cleared).
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// reserved meta-fields never bound to the entity.
var reservedFields = map[string]struct{}{
	"csrf_token": {},
}

// Resolver checks that a referenced entity exists, returning its canonical
// id. The binder's resolver table is the fixed field→target-collection
// mapping; tests substitute fakes.
type Resolver func(id string) (string, error)

// Binder coerces string-valued form fields onto typed entity columns using
// only the registry's schema metadata.
type Binder struct {
	resolvers map[string]Resolver
}

// NewBinder wires the reference resolvers against the document store:
// category and parent_category resolve through categories, user through
// users.
func NewBinder(docs *store.Store) *Binder {
	exists := func(c *store.Collection, what string) Resolver {
		return func(id string) (string, error) {
			ok, err := c.Exists(id)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", fmt.Errorf("%s %q: %w", what, id, store.ErrNotFound)
			}
			return id, nil
		}
	}
	categories := docs.Collection(Models["categories"].Proto())
	users := docs.Collection(Models["users"].Proto())
	return &Binder{
		resolvers: map[string]Resolver{
			"categories": exists(categories, "category"),
			"users":      exists(users, "user"),
		},
	}
}

// NewBinderWithResolvers is the test seam: coercion logic with fake lookups.
func NewBinderWithResolvers(resolvers map[string]Resolver) *Binder {
	return &Binder{resolvers: resolvers}
}

// SplitList implements the list coercion rule: comma-split, trim, drop
// empties. "" yields an empty list.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Bind converts form input into a column→value patch for the named entity.
// A failed reference lookup aborts the whole bind; nothing is persisted and
// the caller re-renders the form with the original string values.
func (b *Binder) Bind(model string, cfg ModelConfig, form url.Values, mode Mode) (map[string]any, error) {
	patch := map[string]any{}

	for name := range form {
		if _, skip := reservedFields[name]; skip {
			continue
		}

		field, ok := cfg.Schema[name]
		if !ok {
			continue
		}
		value := form.Get(name)

		if model == "users" {
			// Raw passwords are hashed and stored under password_hash;
			// the plaintext never reaches the document store.
			if name == "password" {
				if value == "" {
					continue
				}
				hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
				if err != nil {
					return nil, fmt.Errorf("failed to hash password: %w", err)
				}
				patch["password_hash"] = string(hashed)
				continue
			}
			// user_type predates the is_admin/is_staff flags.
			if name == "user_type" {
				continue
			}
		}

		switch field.Kind {
		case KindBool:
			patch[field.column(name)] = strings.EqualFold(value, "true")

		case KindStringList:
			patch[field.column(name)] = pq.StringArray(SplitList(value))

		case KindReference:
			col := field.column(name)
			if value == "" {
				if mode == ModeUpdate {
					patch[col] = nil
				}
				continue
			}
			resolver, ok := b.resolvers[field.Ref]
			if !ok {
				return nil, fmt.Errorf("no resolver for reference field %q", name)
			}
			id, err := resolver(value)
			if err != nil {
				return nil, err
			}
			patch[col] = id

		case KindNumber:
			if value == "" {
				patch[field.column(name)] = float64(0)
				continue
			}
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid number %q", name, value)
			}
			patch[field.column(name)] = n

		default:
			patch[field.column(name)] = value
		}
	}

	if mode == ModeCreate {
		for name, def := range cfg.Defaults {
			if form.Has(name) {
				continue
			}
			field := cfg.Schema[name]
			if _, present := patch[field.column(name)]; !present {
				patch[field.column(name)] = def
			}
		}
	}

	return patch, nil
}
