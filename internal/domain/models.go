package domain

import "time"

// Session is an authenticated Shopify shop session (offline access token)
type Session struct {
	Shop        string    `json:"shop"`
	AccessToken string    `json:"-"`
	Scope       string    `json:"scope"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product is the subset of the Shopify REST product resource the app reads
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Handle   string    `json:"handle,omitempty"`
	Vendor   string    `json:"vendor,omitempty"`
	Variants []Variant `json:"variants"`
}

type Variant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id,omitempty"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
}

// StoreProductOption is one selectable row: a single product variant
type StoreProductOption struct {
	Key     string        `json:"value"`
	Label   string        `json:"label"`
	Content OptionContent `json:"content"`
}

type OptionContent struct {
	ProductTitle string `json:"prodTitle"`
	ProductID    int64  `json:"id"`
	VariantID    int64  `json:"variantId,omitempty"`
	EAN          string `json:"ean"`
}

// ProductImages are the catalog image URLs and size label for one EAN.
// JSON names follow the image upload request body.
type ProductImages struct {
	FrontImageURL string `json:"frontImage2D"`
	BackImageURL  string `json:"backImage"`
	SizeLabel     string `json:"size"`
}

// ResolvedProductImages marks a selected product as ready to upload
type ResolvedProductImages struct {
	Key       string        `json:"key"`
	ProductID int64         `json:"id"`
	EAN       string        `json:"ean"`
	Label     string        `json:"label"`
	Images    ProductImages `json:"images"`
}

// ImageUploadRequest is the body of POST /api/image/upload
type ImageUploadRequest struct {
	ID     int64         `json:"id" binding:"required"`
	Images ProductImages `json:"images"`
}

// ImageUploadResult is the outcome of saving one image
type ImageUploadResult struct {
	Image    string `json:"image"`
	Filename string `json:"filename,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ImageUploadResponse reports both saves in request order
type ImageUploadResponse struct {
	Success bool                `json:"success"`
	Error   *string             `json:"error"`
	Results []ImageUploadResult `json:"results"`
}

// ProductDraft is the fixed-template product written by /api/products/create
type ProductDraft struct {
	Title       string   `json:"title" validate:"required,max=255"`
	BodyHTML    string   `json:"body_html" validate:"max=65536"`
	Vendor      string   `json:"vendor" validate:"required,max=255"`
	ProductType string   `json:"product_type" validate:"max=255"`
	Tags        []string `json:"tags"`
	Handle      string   `json:"handle" validate:"required,max=255"`
}
