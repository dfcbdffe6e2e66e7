package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop looks like <name>.myshopify.com
func ValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

// VerifyQueryHMAC checks the hex HMAC Shopify adds to OAuth redirects. The
// message is the sorted query string without hmac and signature.
func VerifyQueryHMAC(q url.Values, secret string) bool {
	keys := make([]string, 0, len(q))
	for k := range q {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range q[k] {
			parts = append(parts, k+"="+v)
		}
	}
	msg := strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(q.Get("hmac"))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// VerifyWebhookHMAC checks the base64 X-Shopify-Hmac-Sha256 header against the raw body
func VerifyWebhookHMAC(body []byte, header, secret string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// OAuth runs the authorization code grant for the app
type OAuth struct {
	cfg        config.ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOAuth creates the OAuth helper
func NewOAuth(cfg config.ShopifyConfig, logger *zap.Logger) *OAuth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuth{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// RedirectURI is where Shopify sends the merchant back after consent
func (o *OAuth) RedirectURI() string {
	return o.cfg.HostURL + "/api/auth/callback"
}

func (o *OAuth) shopURL(shop string) string {
	if o.cfg.AdminBaseURL != "" {
		return o.cfg.AdminBaseURL
	}
	return "https://" + shop
}

// AuthorizeURL builds the consent screen URL for shop
func (o *OAuth) AuthorizeURL(shop, state string) string {
	return fmt.Sprintf(
		"%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		o.shopURL(shop),
		url.QueryEscape(o.cfg.APIKey),
		url.QueryEscape(o.cfg.Scopes),
		url.QueryEscape(o.RedirectURI()),
		url.QueryEscape(state),
	)
}

// VerifyCallback validates the callback query signature
func (o *OAuth) VerifyCallback(q url.Values) bool {
	return VerifyQueryHMAC(q, o.cfg.APISecret)
}

// Exchange trades an authorization code for an offline access token
func (o *OAuth) Exchange(ctx context.Context, shop, code string) (*domain.Session, error) {
	body := map[string]string{
		"client_id":     o.cfg.APIKey,
		"client_secret": o.cfg.APISecret,
		"code":          code,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.shopURL(shop)+"/admin/oauth/access_token", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ErrUpstream{Service: "shopify oauth", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &apperrors.ErrUpstream{Service: "shopify oauth", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &apperrors.ErrUpstream{Service: "shopify oauth", Err: fmt.Errorf("empty access token")}
	}
	o.logger.Info("OAuth token exchanged", zap.String("shop", shop), zap.String("scope", out.Scope))
	return &domain.Session{Shop: shop, AccessToken: out.AccessToken, Scope: out.Scope}, nil
}
