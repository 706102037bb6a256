package seeds

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"storefront/internal/catalog"
)

type categoryFixture struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Parent      string `yaml:"parent"` // parent category slug
	Active      *bool  `yaml:"active"`
}

type productFixture struct {
	Name             string   `yaml:"name"`
	Slug             string   `yaml:"slug"`
	SKU              string   `yaml:"sku"`
	Description      string   `yaml:"description"`
	ShortDescription string   `yaml:"short_description"`
	Category         string   `yaml:"category"` // category slug
	Brand            string   `yaml:"brand"`
	Tags             []string `yaml:"tags"`
	Price            float64  `yaml:"price"`
	SalePrice        float64  `yaml:"sale_price"`
	StockQuantity    int      `yaml:"stock_quantity"`
	Featured         bool     `yaml:"featured"`
}

type fixtureFile struct {
	Categories []categoryFixture `yaml:"categories"`
	Products   []productFixture  `yaml:"products"`
}

// SeedCatalog loads the YAML fixture and inserts any category or product not
// already present (matched by slug), so reseeding is idempotent.
func SeedCatalog(db *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fx fixtureFile
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixtures: %w", err)
	}

	categoryIDs := map[string]string{}

	for _, cf := range fx.Categories {
		slug := cf.Slug
		if slug == "" {
			slug = catalog.Slugify(cf.Name)
		}

		var existing catalog.Category
		err := db.First(&existing, "slug = ?", slug).Error
		if err == nil {
			categoryIDs[slug] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		active := true
		if cf.Active != nil {
			active = *cf.Active
		}
		cat := catalog.Category{
			ID:          uuid.NewString(),
			Name:        cf.Name,
			Slug:        slug,
			Description: cf.Description,
			IsActive:    active,
		}
		if cf.Parent != "" {
			parentID, ok := categoryIDs[cf.Parent]
			if !ok {
				return fmt.Errorf("category %q: parent %q not defined earlier in fixture", cf.Name, cf.Parent)
			}
			cat.ParentCategoryID = &parentID
		}
		if err := db.Create(&cat).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", cf.Name, err)
		}
		categoryIDs[slug] = cat.ID
	}

	for _, pf := range fx.Products {
		slug := pf.Slug
		if slug == "" {
			slug = catalog.Slugify(pf.Name)
		}

		var existing catalog.Product
		err := db.First(&existing, "slug = ?", slug).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		categoryID, ok := categoryIDs[pf.Category]
		if !ok {
			var cat catalog.Category
			if err := db.First(&cat, "slug = ?", pf.Category).Error; err != nil {
				return fmt.Errorf("product %q: unknown category %q", pf.Name, pf.Category)
			}
			categoryID = cat.ID
		}

		now := time.Now()
		product := catalog.Product{
			ID:               uuid.NewString(),
			Name:             pf.Name,
			Slug:             slug,
			SKU:              pf.SKU,
			Description:      pf.Description,
			ShortDescription: pf.ShortDescription,
			CategoryID:       categoryID,
			Brand:            pf.Brand,
			Tags:             pq.StringArray(pf.Tags),
			Price:            pf.Price,
			SalePrice:        pf.SalePrice,
			StockQuantity:    pf.StockQuantity,
			ManageStock:      true,
			IsActive:         true,
			IsFeatured:       pf.Featured,
			PublishedAt:      &now,
		}
		if err := db.Create(&product).Error; err != nil {
			return fmt.Errorf("seed product %q: %w", pf.Name, err)
		}
	}

	return nil
}
