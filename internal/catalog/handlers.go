package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/store"
)

// Handler serves the public storefront catalog endpoints.
type Handler struct {
	products   *store.Collection
	categories *store.Collection
	log        *zap.Logger
}

func NewHandler(docs *store.Store, log *zap.Logger) *Handler {
	return &Handler{
		products:   docs.Collection(&Product{}),
		categories: docs.Collection(&Category{}),
		log:        log,
	}
}

func (h *Handler) SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.ListProducts)
	r.Get("/{slug}", h.GetProduct)
	return r
}

// categoryIDs resolves a category plus one level of subcategories into the
// id set used for in-set product filtering.
func (h *Handler) categoryIDs(cat *Category) ([]string, error) {
	var subs []Category
	err := h.categories.Find(store.Filter{
		Eq: map[string]any{"parent_category_id": cat.ID, "is_active": true},
	}, 0, 0, &subs)
	if err != nil {
		return nil, err
	}

	ids := []string{cat.ID}
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids, nil
}

// Home returns the dashboard payload: featured products, the root category
// list, and the six most recent products per root category.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	var featured []Product
	err := h.products.Find(store.Filter{
		Eq: map[string]any{"is_featured": true, "is_active": true},
	}, 0, 0, &featured)
	if err != nil {
		http.Error(w, "Failed to fetch featured products: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var roots []Category
	err = h.categories.Find(store.Filter{
		Eq:   map[string]any{"parent_category_id": nil, "is_active": true},
		Sort: "display_order ASC",
	}, 0, 0, &roots)
	if err != nil {
		http.Error(w, "Failed to fetch categories: "+err.Error(), http.StatusInternalServerError)
		return
	}

	categoryProducts := map[string][]Product{}
	for _, cat := range roots {
		ids, err := h.categoryIDs(&cat)
		if err != nil {
			http.Error(w, "Failed to fetch subcategories: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var products []Product
		err = h.products.Find(store.Filter{
			Eq:   map[string]any{"is_active": true},
			In:   map[string][]string{"category_id": ids},
			Sort: "created_at DESC",
		}, 0, 6, &products)
		if err != nil {
			http.Error(w, "Failed to fetch products: "+err.Error(), http.StatusInternalServerError)
			return
		}
		categoryProducts[cat.Slug] = products
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"featured_products": featured,
		"category_list":     roots,
		"category_products": categoryProducts,
	})
}

// ListProducts returns active products, optionally narrowed to a category
// slug (subcategories included). An unknown slug yields an empty list rather
// than an error.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Eq:   map[string]any{"is_active": true},
		Sort: "created_at DESC",
	}

	if slug := r.URL.Query().Get("category"); slug != "" {
		var cat Category
		err := h.categories.FindOne(store.Filter{
			Eq: map[string]any{"slug": slug, "is_active": true},
		}, &cat)
		if err == store.ErrNotFound {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"products": []Product{}, "current_category": slug})
			return
		}
		if err != nil {
			http.Error(w, "Failed to fetch category: "+err.Error(), http.StatusInternalServerError)
			return
		}

		ids, err := h.categoryIDs(&cat)
		if err != nil {
			http.Error(w, "Failed to fetch subcategories: "+err.Error(), http.StatusInternalServerError)
			return
		}
		filter.In = map[string][]string{"category_id": ids}
	}

	var products []Product
	if err := h.products.Find(filter, 0, 0, &products); err != nil {
		http.Error(w, "Failed to fetch products: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"products":         products,
		"current_category": r.URL.Query().Get("category"),
	})
}

// GetProduct returns a single active product by slug.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var product Product
	err := h.products.FindOne(store.Filter{
		Eq: map[string]any{"slug": slug, "is_active": true},
	}, &product)
	if err == store.ErrNotFound {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch product: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"product":       product,
		"in_stock":      product.InStock(),
		"on_sale":       product.OnSale(),
		"current_price": product.CurrentPrice(),
	})
}
