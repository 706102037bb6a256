package admin

import (
	"storefront/internal/auth"
	"storefront/internal/catalog"
)

// FieldKind tags the declared type of an admin-editable field. The binder
// dispatches on this instead of runtime introspection of the model structs.
type FieldKind int

const (
	KindString FieldKind = iota
	KindBool
	KindNumber
	KindStringList
	KindReference
)

// Field describes one form-editable attribute. Ref names the target entity
// for reference fields; Column overrides the database column when it differs
// from the form field name (references submit "category" but persist
// "category_id").
type Field struct {
	Kind   FieldKind
	Ref    string
	Column string
}

func (f Field) column(name string) string {
	if f.Column != "" {
		return f.Column
	}
	return name
}

type Schema map[string]Field

// ModelConfig describes one manageable entity: how it lists, which fields
// are searchable and filterable, its field schema, and the defaults applied
// to absent fields at creation time. The table is immutable after start.
type ModelConfig struct {
	ListDisplay  []string
	SearchFields []string
	ListFilter   []string
	Schema       Schema
	Defaults     map[string]any

	// Proto returns a fresh model pointer for the store collection.
	Proto func() any
}

// Models is the admin entity registry.
var Models = map[string]ModelConfig{
	"products": {
		ListDisplay:  []string{"name", "sku", "price", "stock_quantity", "is_active", "created_at"},
		SearchFields: []string{"name", "sku", "description"},
		ListFilter:   []string{"category_id", "brand", "is_active"},
		Schema: Schema{
			"name":                {Kind: KindString},
			"slug":                {Kind: KindString},
			"description":         {Kind: KindString},
			"short_description":   {Kind: KindString},
			"sku":                 {Kind: KindString},
			"brand":               {Kind: KindString},
			"primary_image":       {Kind: KindString},
			"shipping_class":      {Kind: KindString},
			"meta_title":          {Kind: KindString},
			"meta_description":    {Kind: KindString},
			"category":            {Kind: KindReference, Ref: "categories", Column: "category_id"},
			"tags":                {Kind: KindStringList},
			"meta_keywords":       {Kind: KindStringList},
			"price":               {Kind: KindNumber},
			"sale_price":          {Kind: KindNumber},
			"cost_price":          {Kind: KindNumber},
			"stock_quantity":      {Kind: KindNumber},
			"low_stock_threshold": {Kind: KindNumber},
			"weight":              {Kind: KindNumber},
			"manage_stock":        {Kind: KindBool},
			"allow_backorders":    {Kind: KindBool},
			"has_variants":        {Kind: KindBool},
			"is_active":           {Kind: KindBool},
			"is_featured":         {Kind: KindBool},
			"is_digital":          {Kind: KindBool},
		},
		// The HTML form omits unchecked checkboxes entirely, so required
		// booleans absent from a creation form get these values.
		Defaults: map[string]any{
			"manage_stock":     true,
			"allow_backorders": false,
			"has_variants":     false,
			"is_active":        true,
			"is_featured":      false,
			"is_digital":       false,
		},
		Proto: func() any { return &catalog.Product{} },
	},
	"categories": {
		ListDisplay:  []string{"name", "slug", "is_active", "display_order", "created_at"},
		SearchFields: []string{"name", "description"},
		ListFilter:   []string{"is_active", "parent_category_id"},
		Schema: Schema{
			"name":             {Kind: KindString},
			"slug":             {Kind: KindString},
			"description":      {Kind: KindString},
			"image_url":        {Kind: KindString},
			"meta_title":       {Kind: KindString},
			"meta_description": {Kind: KindString},
			"parent_category":  {Kind: KindReference, Ref: "categories", Column: "parent_category_id"},
			"display_order":    {Kind: KindNumber},
			"is_active":        {Kind: KindBool},
		},
		Defaults: map[string]any{
			"is_active": true,
		},
		Proto: func() any { return &catalog.Category{} },
	},
	"users": {
		ListDisplay:  []string{"username", "email", "first_name", "last_name", "is_active", "created_at"},
		SearchFields: []string{"username", "email", "first_name", "last_name"},
		ListFilter:   []string{"is_active", "is_verified"},
		Schema: Schema{
			"username":    {Kind: KindString},
			"email":       {Kind: KindString},
			"first_name":  {Kind: KindString},
			"last_name":   {Kind: KindString},
			"phone":       {Kind: KindString},
			"password":    {Kind: KindString}, // hashed by the binder, never stored raw
			"user_type":   {Kind: KindString}, // schema migration residue, skipped by the binder
			"is_admin":    {Kind: KindBool},
			"is_staff":    {Kind: KindBool},
			"is_active":   {Kind: KindBool},
			"is_verified": {Kind: KindBool},
		},
		Defaults: map[string]any{
			"is_active":   true,
			"is_admin":    false,
			"is_staff":    false,
			"is_verified": false,
		},
		Proto: func() any { return &auth.User{} },
	},
	"orders": {
		ListDisplay:  []string{"order_number", "email", "total_amount", "status", "created_at"},
		SearchFields: []string{"order_number", "email"},
		ListFilter:   []string{"status", "payment_status", "shipping_status"},
		Schema: Schema{
			"order_number":    {Kind: KindString},
			"email":           {Kind: KindString},
			"payment_method":  {Kind: KindString},
			"payment_status":  {Kind: KindString},
			"transaction_id":  {Kind: KindString},
			"shipping_method": {Kind: KindString},
			"tracking_number": {Kind: KindString},
			"shipping_status": {Kind: KindString},
			"status":          {Kind: KindString},
			"notes":           {Kind: KindString},
			"user":            {Kind: KindReference, Ref: "users", Column: "user_id"},
			"subtotal":        {Kind: KindNumber},
			"shipping_cost":   {Kind: KindNumber},
			"tax_amount":      {Kind: KindNumber},
			"discount_amount": {Kind: KindNumber},
			"total_amount":    {Kind: KindNumber},
		},
		Proto: func() any { return &catalog.Order{} },
	},
}
