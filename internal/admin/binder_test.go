package admin_test

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"testing"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/admin"
	"storefront/internal/store"
)

// fakeResolvers resolves any id present in the given set and fails the rest
// with a not-found error, standing in for the real collection lookups.
func fakeResolvers(known ...string) map[string]admin.Resolver {
	set := map[string]struct{}{}
	for _, id := range known {
		set[id] = struct{}{}
	}
	resolve := func(id string) (string, error) {
		if _, ok := set[id]; ok {
			return id, nil
		}
		return "", fmt.Errorf("reference %q: %w", id, store.ErrNotFound)
	}
	return map[string]admin.Resolver{
		"categories": resolve,
		"users":      resolve,
	}
}

// TestBoolCoercion covers the literal-"true" rule, case-insensitivity, and
// the empty-string case.
func TestBoolCoercion(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["products"]

	cases := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"", false},
		{"1", false},
		{"yes", false},
	}
	for _, tc := range cases {
		form := url.Values{"is_featured": {tc.in}}
		patch, err := b.Bind("products", cfg, form, admin.ModeUpdate)
		if err != nil {
			t.Fatalf("Bind(%q): %v", tc.in, err)
		}
		if got := patch["is_featured"]; got != tc.want {
			t.Errorf("input %q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

// TestBoolAbsentAtUpdateLeftAlone confirms an absent checkbox produces no
// patch entry on update, so the stored value is untouched.
func TestBoolAbsentAtUpdateLeftAlone(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["products"]

	patch, err := b.Bind("products", cfg, url.Values{"name": {"Widget"}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, present := patch["is_active"]; present {
		t.Error("absent boolean must not appear in an update patch")
	}
}

// TestBoolDefaultsAtCreate confirms the documented defaults fill absent
// fields at creation time only.
func TestBoolDefaultsAtCreate(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["products"]

	patch, err := b.Bind("products", cfg, url.Values{"name": {"Widget"}}, admin.ModeCreate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	expected := map[string]bool{
		"manage_stock":     true,
		"allow_backorders": false,
		"has_variants":     false,
		"is_active":        true,
		"is_featured":      false,
		"is_digital":       false,
	}
	for col, want := range expected {
		if got, ok := patch[col]; !ok || got != want {
			t.Errorf("default %s: expected %v, got %v (present=%v)", col, want, got, ok)
		}
	}
}

// TestDefaultNotAppliedWhenFieldSubmitted confirms a submitted checkbox wins
// over the default.
func TestDefaultNotAppliedWhenFieldSubmitted(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["products"]

	form := url.Values{"name": {"Widget"}, "is_active": {"false"}}
	patch, err := b.Bind("products", cfg, form, admin.ModeCreate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := patch["is_active"]; got != false {
		t.Errorf("submitted is_active=false should win over the default, got %v", got)
	}
}

// TestListCoercion covers comma-splitting, trimming, and empty entries.
func TestListCoercion(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["products"]

	patch, err := b.Bind("products", cfg, url.Values{"tags": {"a, b ,,c"}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	want := pq.StringArray{"a", "b", "c"}
	if !reflect.DeepEqual(patch["tags"], want) {
		t.Errorf("expected %v, got %v", want, patch["tags"])
	}

	patch, err = b.Bind("products", cfg, url.Values{"tags": {""}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := patch["tags"].(pq.StringArray); len(got) != 0 {
		t.Errorf("empty input should yield an empty list, got %v", got)
	}
}

// TestNumberCoercion covers float parsing, the empty-to-zero rule, and
// malformed input.
func TestNumberCoercion(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["products"]

	patch, err := b.Bind("products", cfg, url.Values{"price": {"19.99"}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := patch["price"]; got != 19.99 {
		t.Errorf("expected 19.99, got %v", got)
	}

	patch, err = b.Bind("products", cfg, url.Values{"price": {""}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := patch["price"]; got != float64(0) {
		t.Errorf("empty numeric input should coerce to zero, got %v", got)
	}

	if _, err := b.Bind("products", cfg, url.Values{"price": {"abc"}}, admin.ModeUpdate); err == nil {
		t.Error("expected an error for a malformed number")
	}
}

// TestReferenceCoercion covers resolution, the abort-on-unknown-id rule, and
// clear-versus-omit for empty values.
func TestReferenceCoercion(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers("cat-1"))
	cfg := admin.Models["products"]

	patch, err := b.Bind("products", cfg, url.Values{"category": {"cat-1"}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := patch["category_id"]; got != "cat-1" {
		t.Errorf("expected resolved category_id, got %v", got)
	}

	// Unknown id aborts the whole bind.
	form := url.Values{"name": {"Widget"}, "category": {"cat-404"}}
	patch, err = b.Bind("products", cfg, form, admin.ModeUpdate)
	if err == nil {
		t.Fatal("expected bind to abort on unknown reference")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected a not-found error, got %v", err)
	}
	if patch != nil {
		t.Errorf("aborted bind must not return a partial patch, got %v", patch)
	}

	// Empty reference clears on update, is omitted on create.
	patch, err = b.Bind("products", cfg, url.Values{"category": {""}}, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if v, present := patch["category_id"]; !present || v != nil {
		t.Errorf("empty reference on update should clear, got %v (present=%v)", v, present)
	}

	patch, err = b.Bind("products", cfg, url.Values{"category": {""}, "name": {"W"}}, admin.ModeCreate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, present := patch["category_id"]; present {
		t.Error("empty reference on create should be omitted")
	}
}

// TestPasswordHashedNeverRaw confirms user passwords are hashed under
// password_hash and the raw value never appears in the patch.
func TestPasswordHashedNeverRaw(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["users"]

	form := url.Values{"username": {"carol"}, "password": {"s3cret-pw"}}
	patch, err := b.Bind("users", cfg, form, admin.ModeCreate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if _, present := patch["password"]; present {
		t.Error("raw password must never be persisted")
	}
	hash, ok := patch["password_hash"].(string)
	if !ok || hash == "" {
		t.Fatal("expected password_hash in patch")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pw")); err != nil {
		t.Errorf("stored hash does not verify the original password: %v", err)
	}
}

// TestLegacyAndReservedFieldsSkipped confirms user_type and csrf_token never
// reach the patch.
func TestLegacyAndReservedFieldsSkipped(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["users"]

	form := url.Values{
		"username":   {"carol"},
		"user_type":  {"admin"},
		"csrf_token": {"tok-abc"},
	}
	patch, err := b.Bind("users", cfg, form, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, present := patch["user_type"]; present {
		t.Error("legacy user_type field must be skipped")
	}
	if _, present := patch["csrf_token"]; present {
		t.Error("reserved meta-field must be skipped")
	}
	if patch["username"] != "carol" {
		t.Errorf("expected username bound, got %v", patch["username"])
	}
}

// TestUnknownFieldsIgnored confirms fields outside the schema are dropped
// rather than persisted blindly.
func TestUnknownFieldsIgnored(t *testing.T) {
	b := admin.NewBinderWithResolvers(fakeResolvers())
	cfg := admin.Models["categories"]

	form := url.Values{"name": {"Tools"}, "not_a_field": {"x"}}
	patch, err := b.Bind("categories", cfg, form, admin.ModeUpdate)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, present := patch["not_a_field"]; present {
		t.Error("unknown field must not appear in the patch")
	}
}

// TestSplitList exercises the list rule directly.
func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a, b ,,c", []string{"a", "b", "c"}},
		{"", []string{}},
		{" , , ", []string{}},
		{"single", []string{"single"}},
	}
	for _, tc := range cases {
		if got := admin.SplitList(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
