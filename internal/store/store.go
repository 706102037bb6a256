package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a single-record lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// Filter is the full query surface the application uses: equality,
// case-insensitive substring search, and in-set membership on identifiers.
// Field names always come from the entity registry or model code, never from
// request input directly.
type Filter struct {
	Eq       map[string]any
	Contains map[string]string
	In       map[string][]string

	// Search ORs a substring match across several fields.
	Search     string
	SearchTerm string

	Sort string
}

// Store hands out collections bound to a shared gorm handle.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Collection wraps one entity table. The model is a prototype pointer
// (e.g. &catalog.Product{}) used only for table resolution.
type Collection struct {
	db    *gorm.DB
	model any
}

func (s *Store) Collection(model any) *Collection {
	return &Collection{db: s.db, model: model}
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	for col, v := range f.Eq {
		if v == nil {
			q = q.Where(col + " IS NULL")
			continue
		}
		q = q.Where(col+" = ?", v)
	}
	for col, term := range f.Contains {
		q = q.Where("LOWER("+col+") LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	for col, ids := range f.In {
		q = q.Where(col+" IN ?", ids)
	}
	if f.Search != "" && f.SearchTerm != "" {
		fields := strings.Split(f.Search, ",")
		clauses := make([]string, 0, len(fields))
		args := make([]any, 0, len(fields))
		for _, field := range fields {
			clauses = append(clauses, "LOWER("+strings.TrimSpace(field)+") LIKE ?")
			args = append(args, "%"+strings.ToLower(f.SearchTerm)+"%")
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	}
	if f.Sort != "" {
		q = q.Order(f.Sort)
	}
	return q
}

// Find loads matching records into dest (a slice pointer, either of the model
// type or []map[string]any). skip/limit of 0 mean unbounded.
func (c *Collection) Find(f Filter, skip, limit int, dest any) error {
	q := f.apply(c.db.Model(c.model))
	if skip > 0 {
		q = q.Offset(skip)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.Find(dest).Error
}

func (c *Collection) FindOne(f Filter, dest any) error {
	err := f.apply(c.db.Model(c.model)).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (c *Collection) GetByID(id string, dest any) error {
	err := c.db.Model(c.model).Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (c *Collection) Count(f Filter) (int64, error) {
	var n int64
	err := f.apply(c.db.Model(c.model)).Count(&n).Error
	return n, err
}

// Exists reports whether a record with the given id is present.
func (c *Collection) Exists(id string) (bool, error) {
	n, err := c.Count(Filter{Eq: map[string]any{"id": id}})
	return n > 0, err
}

// Save persists a typed model (insert or full update by primary key).
func (c *Collection) Save(model any) error {
	return c.db.Save(model).Error
}

// Insert writes a new record from a column→value document.
func (c *Collection) Insert(doc map[string]any) error {
	if err := c.db.Model(c.model).Create(doc).Error; err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// Update applies a column→value patch to the record with the given id.
func (c *Collection) Update(id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	if err := c.db.Model(c.model).Where("id = ?", id).Updates(patch).Error; err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}

// DeleteByID removes the record with the given id and reports whether a row
// was actually deleted.
func (c *Collection) DeleteByID(id string) (bool, error) {
	res := c.db.Where("id = ?", id).Delete(c.model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
