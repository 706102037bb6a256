package catalog

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Category struct {
	ID               string  `gorm:"primaryKey" json:"id"`
	Name             string  `gorm:"not null;index" json:"name"`
	Slug             string  `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string  `json:"description"`
	ParentCategoryID *string `gorm:"index" json:"parent_category_id"`
	ImageURL         string  `json:"image_url"`
	IsActive         bool    `gorm:"default:true" json:"is_active"`
	DisplayOrder     int     `json:"display_order"`
	MetaTitle        string  `json:"meta_title"`
	MetaDescription  string  `json:"meta_description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID               string `gorm:"primaryKey" json:"id"`
	Name             string `gorm:"not null;index" json:"name"`
	Slug             string `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
	SKU              string `gorm:"column:sku;uniqueIndex;not null" json:"sku"`

	CategoryID string         `gorm:"index;not null" json:"category_id"`
	Brand      string         `gorm:"index" json:"brand"`
	Tags       pq.StringArray `gorm:"type:text[]" json:"tags"`

	Price     float64 `gorm:"index" json:"price"`
	SalePrice float64 `json:"sale_price"`
	CostPrice float64 `json:"cost_price"`

	StockQuantity     int  `json:"stock_quantity"`
	LowStockThreshold int  `gorm:"default:5" json:"low_stock_threshold"`
	ManageStock       bool `gorm:"default:true" json:"manage_stock"`
	AllowBackorders   bool `json:"allow_backorders"`
	HasVariants       bool `json:"has_variants"`

	PrimaryImage  string  `json:"primary_image"`
	Weight        float64 `json:"weight"`
	ShippingClass string  `json:"shipping_class"`

	MetaTitle       string         `json:"meta_title"`
	MetaDescription string         `json:"meta_description"`
	MetaKeywords    pq.StringArray `gorm:"type:text[]" json:"meta_keywords"`

	IsActive   bool `gorm:"default:true;index" json:"is_active"`
	IsFeatured bool `json:"is_featured"`
	IsDigital  bool `json:"is_digital"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

func (Product) TableName() string { return "products" }

// InStock reports whether the product can be purchased right now.
func (p *Product) InStock() bool {
	if !p.ManageStock {
		return true
	}
	return p.StockQuantity > 0 || p.AllowBackorders
}

// OnSale reports whether the sale price undercuts the list price.
func (p *Product) OnSale() bool {
	return p.SalePrice > 0 && p.SalePrice < p.Price
}

// CurrentPrice is the effective price (sale price when on sale).
func (p *Product) CurrentPrice() float64 {
	if p.OnSale() {
		return p.SalePrice
	}
	return p.Price
}

type Order struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	OrderNumber string  `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID      *string `gorm:"index" json:"user_id"` // nil for guest checkout
	Email       string  `gorm:"index;not null" json:"email"`

	Subtotal       float64 `json:"subtotal"`
	ShippingCost   float64 `json:"shipping_cost"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"`
	TransactionID string `json:"transaction_id"`

	ShippingMethod string `json:"shipping_method"`
	TrackingNumber string `json:"tracking_number"`
	ShippingStatus string `gorm:"default:'pending'" json:"shipping_status"`

	Status string `gorm:"default:'pending';index" json:"status"`
	Notes  string `json:"notes"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (Order) TableName() string { return "orders" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Category{}, &Product{}, &Order{})
}
