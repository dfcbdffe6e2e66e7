package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/auth"
	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/skulibrary"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

const (
	serviceName = "relay"
	tokenTTL    = time.Minute
)

// Client calls the relay server's /api routes with a session token signed
// for one shop
type Client struct {
	baseURL    string
	shop       string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a relay client from the operator CLI settings
func NewClient(cfg config.CLIConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RelayURL == "" {
		return nil, fmt.Errorf("relay URL is required")
	}
	if cfg.Shop == "" {
		return nil, fmt.Errorf("shop is required (SHOPIFY_SHOP_DOMAIN or --shop)")
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("SHOPIFY_API_SECRET is required to sign session tokens")
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.RelayURL, "/"),
		shop:       config.NormalizeShop(cfg.Shop),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
	}, nil
}

// do sends one request and returns the status and body. Statuses listed in
// accept are returned without error; anything else outside 2xx is an error.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, accept ...int) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	token, err := auth.IssueSessionToken(c.apiKey, c.apiSecret, c.shop, tokenTTL)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Relay request failed", zap.Error(err), zap.String("method", method), zap.String("path", path))
		return 0, nil, &apperrors.ErrUpstream{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read relay response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		msg := "relay rejected the session token"
		if reauth := resp.Header.Get("X-Shopify-API-Request-Failure-Reauthorize-Url"); reauth != "" {
			msg = fmt.Sprintf("shop %s is not installed; open %s%s to install it", c.shop, c.baseURL, reauth)
		}
		return resp.StatusCode, raw, &apperrors.ErrUnauthorized{Message: msg}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, raw, nil
	}
	for _, s := range accept {
		if resp.StatusCode == s {
			return resp.StatusCode, raw, nil
		}
	}
	return resp.StatusCode, raw, &apperrors.ErrUpstream{Service: serviceName, StatusCode: resp.StatusCode, Body: string(raw)}
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/api/products", nil)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (c *Client) CountProducts(ctx context.Context) (int, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/api/products/count", nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	return out.Count, nil
}

// GenerateProducts asks the relay to create the sample products
func (c *Client) GenerateProducts(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/api/products/generate", nil)
	return err
}

// CreateProduct posts a JSON object to be stored as the template product's description
func (c *Client) CreateProduct(ctx context.Context, payload json.RawMessage) error {
	_, _, err := c.do(ctx, http.MethodPost, "/api/products/create", payload)
	return err
}

// LookupCatalog fetches the catalog response for ean through the relay
func (c *Client) LookupCatalog(ctx context.Context, ean string) (*skulibrary.Lookup, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/api/skulibrary/product?ean="+url.QueryEscape(ean), nil)
	if err != nil {
		return nil, err
	}
	return skulibrary.ParseLookup(ean, raw)
}

// UploadImages posts one product's images. The relay answers 500 when a save
// fails; that body is still decoded and returned.
func (c *Client) UploadImages(ctx context.Context, req domain.ImageUploadRequest) (*domain.ImageUploadResponse, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/api/image/upload", req, http.StatusInternalServerError)
	if err != nil {
		return nil, err
	}
	var out domain.ImageUploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &apperrors.ErrUpstream{Service: serviceName, StatusCode: status, Body: string(raw), Err: err}
	}
	return &out, nil
}
