package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

const serviceName = "shopify"

// Client calls the Shopify Admin API on behalf of an authenticated shop session.
// It is safe for concurrent use; all per-shop state lives in the session.
type Client struct {
	apiVersion string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Shopify Admin API client
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiVersion: cfg.APIVersion,
		baseURL:    cfg.AdminBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

// UserError is returned inside mutation payloads
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (c *Client) adminURL(session *domain.Session, path string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + session.Shop
	}
	return fmt.Sprintf("%s/admin/api/%s/%s", base, c.apiVersion, strings.TrimPrefix(path, "/"))
}

// Execute executes a GraphQL query/mutation
func (c *Client) Execute(ctx context.Context, session *domain.Session, query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	reqBody := GraphQLRequest{
		Query:     query,
		Variables: variables,
	}

	body, _, err := c.do(ctx, session, http.MethodPost, "graphql.json", reqBody)
	if err != nil {
		return nil, err
	}

	var graphQLResp GraphQLResponse
	if err := json.Unmarshal(body, &graphQLResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}

	if len(graphQLResp.Errors) > 0 {
		errorMessages := make([]string, len(graphQLResp.Errors))
		for i, err := range graphQLResp.Errors {
			errorMessages[i] = err.Message
		}
		return nil, &apperrors.ErrUpstream{
			Service: serviceName,
			Err:     fmt.Errorf("graphQL errors: %s", strings.Join(errorMessages, "; ")),
		}
	}

	return &graphQLResp, nil
}

// REST calls an Admin REST resource. path is relative to /admin/api/<version>/.
// When out is non-nil the response body is decoded into it. The response
// headers are returned so callers can follow Link pagination.
func (c *Client) REST(ctx context.Context, session *domain.Session, method, path string, in, out interface{}) (http.Header, error) {
	body, header, err := c.do(ctx, session, method, path, in)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s response: %w", path, err)
		}
	}
	return header, nil
}

func (c *Client) do(ctx context.Context, session *domain.Session, method, path string, in interface{}) ([]byte, http.Header, error) {
	if session == nil || session.Shop == "" || session.AccessToken == "" {
		return nil, nil, &apperrors.ErrUnauthorized{Message: "shopify session is missing"}
	}

	var reqBody io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.adminURL(session, path)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Shopify-Access-Token", session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &apperrors.ErrUpstream{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("Shopify API error",
			zap.String("shop", session.Shop),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, nil, &apperrors.ErrUpstream{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, resp.Header, nil
}

// NextPageURL returns the rel="next" target of a Link header, or ""
func NextPageURL(header http.Header) string {
	for _, link := range strings.Split(header.Get("Link"), ",") {
		parts := strings.Split(link, ";")
		if len(parts) < 2 {
			continue
		}
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) == `rel="next"` {
				return strings.Trim(strings.TrimSpace(parts[0]), "<>")
			}
		}
	}
	return ""
}
