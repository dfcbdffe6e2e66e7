package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/shopify"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

const (
	// SampleProductCount is how many products /api/products/generate creates
	SampleProductCount = 5
	productPageLimit   = 250
)

// Fixed template written by CreateProduct
const (
	TemplateProductTitle  = "Bone Builder with Vitamin D Test"
	TemplateProductVendor = "Ethical Nutrients"
	TemplateProductHandle = "bone-builder-with-vitamin-d"
)

var (
	sampleAdjectives = []string{"autumn", "hidden", "bitter", "misty", "silent", "empty", "dry", "dark", "summer", "icy", "delicate", "quiet", "white", "cool", "spring", "winter", "patient", "twilight", "dawn", "crimson", "wispy", "weathered", "blue", "billowing", "broken", "cold", "damp", "falling", "frosty", "green", "long"}
	sampleNouns      = []string{"waterfall", "river", "breeze", "moon", "rain", "wind", "sea", "morning", "snow", "lake", "sunset", "pine", "shadow", "leaf", "dawn", "glitter", "forest", "hill", "cloud", "meadow", "sun", "glade", "bird", "brook", "butterfly", "bush", "dew", "dust", "field", "fire", "flower"}
)

// Storefront wraps the Shopify product and image resources the relay server exposes
type Storefront interface {
	ListProducts(ctx context.Context, session *domain.Session) ([]domain.Product, error)
	CountProducts(ctx context.Context, session *domain.Session) (int, error)
	CreateSampleProducts(ctx context.Context, session *domain.Session) error
	CreateProduct(ctx context.Context, session *domain.Session, draft domain.ProductDraft) error
	UploadImage(ctx context.Context, session *domain.Session, productID int64, altText, imageURL string) (string, error)
}

type storefrontService struct {
	client   *shopify.Client
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStorefrontService creates a new storefront service
func NewStorefrontService(client *shopify.Client, logger *zap.Logger) *storefrontService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &storefrontService{
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ListProducts returns every product with its variants, following Link pagination
func (s *storefrontService) ListProducts(ctx context.Context, session *domain.Session) ([]domain.Product, error) {
	products := []domain.Product{}
	next := "products.json?limit=" + strconv.Itoa(productPageLimit)
	for next != "" {
		var page struct {
			Products []domain.Product `json:"products"`
		}
		header, err := s.client.REST(ctx, session, http.MethodGet, next, nil, &page)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = append(products, page.Products...)
		next = shopify.NextPageURL(header)
	}
	return products, nil
}

// CountProducts returns the store's product count
func (s *storefrontService) CountProducts(ctx context.Context, session *domain.Session) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if _, err := s.client.REST(ctx, session, http.MethodGet, "products/count.json", nil, &out); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return out.Count, nil
}

// CreateSampleProducts creates SampleProductCount products with random titles.
// It stops at the first failure.
func (s *storefrontService) CreateSampleProducts(ctx context.Context, session *domain.Session) error {
	for i := 0; i < SampleProductCount; i++ {
		variables := map[string]interface{}{
			"input": map[string]interface{}{
				"title": randomTitle(),
			},
		}
		resp, err := s.client.Execute(ctx, session, shopify.ProductCreateMutation, variables)
		if err != nil {
			return fmt.Errorf("create sample product: %w", err)
		}

		var result shopify.ProductCreateResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return fmt.Errorf("failed to parse productCreate response: %w", err)
		}
		if len(result.ProductCreate.UserErrors) > 0 {
			return &apperrors.ErrUpstream{
				Service: "shopify",
				Err:     fmt.Errorf("productCreate user errors: %v", result.ProductCreate.UserErrors),
			}
		}
	}
	s.logger.Info("Created sample products", zap.String("shop", session.Shop), zap.Int("count", SampleProductCount))
	return nil
}

// NewTemplateDraft fills the fixed product template around a description
func NewTemplateDraft(bodyHTML string) domain.ProductDraft {
	return domain.ProductDraft{
		Title:       TemplateProductTitle,
		BodyHTML:    bodyHTML,
		Vendor:      TemplateProductVendor,
		ProductType: "",
		Tags:        []string{""},
		Handle:      TemplateProductHandle,
	}
}

// CreateProduct validates the draft and creates it
func (s *storefrontService) CreateProduct(ctx context.Context, session *domain.Session, draft domain.ProductDraft) error {
	if err := s.validate.Struct(draft); err != nil {
		return validationError("invalid product", err)
	}

	in := map[string]interface{}{"product": draft}
	if _, err := s.client.REST(ctx, session, http.MethodPost, "products.json", in, nil); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("Created product", zap.String("shop", session.Shop), zap.String("handle", draft.Handle))
	return nil
}

// UploadImage attaches imageURL to the product with altText; it returns the
// file name the image was saved under. URLs without a .jpg file name are
// rejected before Shopify is called.
func (s *storefrontService) UploadImage(ctx context.Context, session *domain.Session, productID int64, altText, imageURL string) (string, error) {
	filename, err := domain.ImageFilename(imageURL)
	if err != nil {
		return "", err
	}

	in := map[string]interface{}{
		"image": map[string]interface{}{
			"product_id": productID,
			"src":        imageURL,
			"alt":        altText,
			"filename":   filename,
		},
	}
	path := fmt.Sprintf("products/%d/images.json", productID)
	if _, err := s.client.REST(ctx, session, http.MethodPost, path, in, nil); err != nil {
		return filename, fmt.Errorf("save image %s: %w", filename, err)
	}
	return filename, nil
}

func randomTitle() string {
	adjective := sampleAdjectives[rand.Intn(len(sampleAdjectives))]
	noun := sampleNouns[rand.Intn(len(sampleNouns))]
	return adjective + " " + noun
}

func validationError(msg string, err error) error {
	fields := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return &apperrors.ErrValidation{Message: msg + ": " + err.Error(), Fields: fields}
}
