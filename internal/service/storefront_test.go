package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/shopify"
	apperrors "github.com/asorevs/image-api-updater/pkg/errors"
)

var testSession = &domain.Session{Shop: "test-shop.myshopify.com", AccessToken: "shpat_test"}

func newTestStorefront(t *testing.T, handler http.HandlerFunc) *storefrontService {
	t.Helper()
	svc, _ := newTestStorefrontServer(t, handler)
	return svc
}

func newTestStorefrontServer(t *testing.T, handler http.HandlerFunc) (*storefrontService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	client := shopify.NewClient(config.ShopifyConfig{APIVersion: "2024-10", AdminBaseURL: server.URL}, nil)
	return NewStorefrontService(client, nil), server
}

func TestListProducts_FollowsPagination(t *testing.T) {
	var serverURL string
	svc, server := newTestStorefrontServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/products.json", r.URL.Path)
		if r.URL.Query().Get("page_info") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-10/products.json?limit=250&page_info=abc>; rel="next"`, serverURL))
			_, _ = w.Write([]byte(`{"products":[{"id":1,"title":"A","variants":[{"id":10,"title":"Default Title","sku":"META_111"}]}]}`))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-10/products.json?page_info=xyz>; rel="previous"`, serverURL))
		_, _ = w.Write([]byte(`{"products":[{"id":2,"title":"B","variants":[]}]}`))
	})
	serverURL = server.URL

	products, err := svc.ListProducts(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "META_111", products[0].Variants[0].SKU)
	assert.Equal(t, int64(2), products[1].ID)
}

func TestCountProducts(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/products/count.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"count":42}`))
	})

	n, err := svc.CountProducts(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestCountProducts_UpstreamError(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
	})

	_, err := svc.CountProducts(context.Background(), testSession)
	var ue *apperrors.ErrUpstream
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
}

func TestCreateSampleProducts(t *testing.T) {
	var calls int32
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		var req shopify.GraphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "productCreate")
		input := req.Variables["input"].(map[string]interface{})
		assert.NotEmpty(t, input["title"])
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"data":{"productCreate":{"product":{"id":"gid://shopify/Product/1","title":"x"},"userErrors":[]}}}`))
	})

	require.NoError(t, svc.CreateSampleProducts(context.Background(), testSession))
	assert.Equal(t, int32(SampleProductCount), atomic.LoadInt32(&calls))
}

func TestCreateSampleProducts_UserErrors(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productCreate":{"product":null,"userErrors":[{"field":["title"],"message":"Title can't be blank"}]}}}`))
	})

	err := svc.CreateSampleProducts(context.Background(), testSession)
	var ue *apperrors.ErrUpstream
	require.True(t, errors.As(err, &ue))
}

func TestCreateSampleProducts_GraphQLErrors(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Access denied for productCreate field."}]}`))
	})

	err := svc.CreateSampleProducts(context.Background(), testSession)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access denied")
}

func TestCreateProduct_UsesTemplate(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-10/products.json", r.URL.Path)
		var body struct {
			Product domain.ProductDraft `json:"product"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, TemplateProductTitle, body.Product.Title)
		assert.Equal(t, TemplateProductVendor, body.Product.Vendor)
		assert.Equal(t, TemplateProductHandle, body.Product.Handle)
		assert.Equal(t, `{"a":1}`, body.Product.BodyHTML)
		assert.Equal(t, []string{""}, body.Product.Tags)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"product":{"id":99}}`))
	})

	require.NoError(t, svc.CreateProduct(context.Background(), testSession, NewTemplateDraft(`{"a":1}`)))
}

func TestCreateProduct_RejectsInvalidDraft(t *testing.T) {
	var calls int32
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	draft := NewTemplateDraft("")
	draft.Handle = ""
	err := svc.CreateProduct(context.Background(), testSession, draft)

	var ve *apperrors.ErrValidation
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "required", ve.Fields["Handle"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestUploadImage(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/products/7/images.json", r.URL.Path)
		var body struct {
			Image map[string]interface{} `json:"image"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://cdn.skulibrary.com/p/front123.jpg", body.Image["src"])
		assert.Equal(t, "60 tablets", body.Image["alt"])
		assert.Equal(t, "front123", body.Image["filename"])
		_, _ = w.Write([]byte(`{"image":{"id":1}}`))
	})

	filename, err := svc.UploadImage(context.Background(), testSession, 7, "60 tablets", "https://cdn.skulibrary.com/p/front123.jpg")
	require.NoError(t, err)
	assert.Equal(t, "front123", filename)
}

func TestUploadImage_RejectsNonJPEGWithoutCallingShopify(t *testing.T) {
	var calls int32
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := svc.UploadImage(context.Background(), testSession, 7, "alt", "https://cdn.skulibrary.com/p/front.png")
	var ve *apperrors.ErrValidation
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestStorefront_MissingSession(t *testing.T) {
	svc := newTestStorefront(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := svc.CountProducts(context.Background(), nil)
	var ue *apperrors.ErrUnauthorized
	assert.True(t, errors.As(err, &ue))
}

func TestRegisterWebhooks(t *testing.T) {
	var topics []string
	_, server := newTestStorefrontServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req shopify.GraphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "webhookSubscriptionCreate")
		assert.Equal(t, "https://app.example.com/api/webhooks", req.Variables["callbackUrl"])
		topics = append(topics, req.Variables["topic"].(string))
		_, _ = w.Write([]byte(`{"data":{"webhookSubscriptionCreate":{"webhookSubscription":{"id":"gid://shopify/WebhookSubscription/1"},"userErrors":[]}}}`))
	})

	svc := NewWebhookService(shopify.NewClient(config.ShopifyConfig{APIVersion: "2024-10", AdminBaseURL: server.URL}, nil), nil)
	require.NoError(t, svc.RegisterWebhooks(context.Background(), testSession, "https://app.example.com/api/webhooks"))
	assert.Equal(t, InstallWebhookTopics, topics)
}

func TestRegisterWebhooks_AlreadySubscribed(t *testing.T) {
	_, server := newTestStorefrontServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"webhookSubscriptionCreate":{"webhookSubscription":null,"userErrors":[{"field":["webhookSubscription","callbackUrl"],"message":"Address for this topic has already been taken"}]}}}`))
	})

	svc := NewWebhookService(shopify.NewClient(config.ShopifyConfig{APIVersion: "2024-10", AdminBaseURL: server.URL}, nil), nil)
	assert.NoError(t, svc.RegisterWebhooks(context.Background(), testSession, "https://app.example.com/api/webhooks"))
}
