package skulibrary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

const (
	serviceName = "skulibrary"
	lookupPath  = "/skuproductwebservice/REST/v1/productsAttributesModifiedAfter"
)

// Fixed query parameters sent with every lookup
var staticParams = map[string]string{
	"clientCode":           "All Retailers",
	"mode":                 "full",
	"dateFrom":             "08/07/2014",
	"modifiedType":         "product",
	"nameFormat":           "Formatted",
	"useproductchangetime": "True",
}

// Record is the part of a catalog record the image updater uses
type Record struct {
	FrontImage2D string `json:"FrontImage2D"`
	BackImage    string `json:"BackImage"`
	Size         string `json:"Size"`
}

// Images converts the record to the image set pushed to the store
func (r Record) Images() domain.ProductImages {
	return domain.ProductImages{
		FrontImageURL: r.FrontImage2D,
		BackImageURL:  r.BackImage,
		SizeLabel:     r.Size,
	}
}

// Lookup is the outcome of one EAN lookup. Raw is the catalog response as
// received; Found is false when the catalog returned no records.
type Lookup struct {
	EAN    string
	Raw    []byte
	Record Record
	Found  bool
}

// First returns the first matching record or ErrNotFound
func (l *Lookup) First() (Record, error) {
	if l == nil || !l.Found {
		ean := ""
		if l != nil {
			ean = l.EAN
		}
		return Record{}, &apperrors.ErrNotFound{Resource: "catalog record", ID: ean}
	}
	return l.Record, nil
}

// ParseLookup reads the first record of a catalog response array
func ParseLookup(ean string, raw []byte) (*Lookup, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &apperrors.ErrUpstream{Service: serviceName, Err: fmt.Errorf("invalid JSON response for ean %s", ean)}
	}
	result := gjson.ParseBytes(raw)
	if !result.IsArray() {
		return nil, &apperrors.ErrUpstream{Service: serviceName, Err: fmt.Errorf("expected a JSON array for ean %s", ean)}
	}

	lookup := &Lookup{EAN: ean, Raw: raw}
	first := result.Get("0")
	if !first.Exists() {
		return lookup, nil
	}
	lookup.Found = true
	lookup.Record = Record{
		FrontImage2D: first.Get("FrontImage2D").String(),
		BackImage:    first.Get("BackImage").String(),
		Size:         first.Get("Size").String(),
	}
	return lookup, nil
}

// Client queries the SKU library product web service
type Client struct {
	baseURL     string
	clientToken string
	httpClient  *retryablehttp.Client
	logger      *zap.Logger
}

// NewClient creates a SKU library client. RetryMax 0 means one attempt per lookup.
func NewClient(cfg config.SKULibraryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = leveledLogger{logger.Sugar()}
	// Hand non-2xx responses back instead of an opaque "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		clientToken: cfg.ClientToken,
		httpClient:  rc,
		logger:      logger,
	}
}

// LookupURL builds the lookup URL for an EAN
func (c *Client) LookupURL(ean string) (string, error) {
	u, err := url.Parse(c.baseURL + lookupPath)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range staticParams {
		q.Set(k, v)
	}
	q.Set("clientToken", c.clientToken)
	q.Set("ean", ean)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LookupByEAN fetches the catalog records for an EAN
func (c *Client) LookupByEAN(ctx context.Context, ean string) (*Lookup, error) {
	ean = strings.TrimSpace(ean)
	if ean == "" {
		return nil, &apperrors.ErrValidation{Message: "ean is required", Fields: map[string]string{"ean": "required"}}
	}
	if c.clientToken == "" {
		return nil, fmt.Errorf("skulibrary client not configured: METAGENICS_API required")
	}

	lookupURL, err := c.LookupURL(ean)
	if err != nil {
		return nil, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("SKU library request failed", zap.Error(err), zap.String("ean", ean))
		return nil, &apperrors.ErrUpstream{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read skulibrary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ErrUpstream{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	lookup, err := ParseLookup(ean, body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("SKU library lookup", zap.String("ean", ean), zap.Bool("found", lookup.Found))
	return lookup, nil
}

// leveledLogger adapts zap to retryablehttp's logger interface
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
