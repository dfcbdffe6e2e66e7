package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asorevs/image-api-updater/internal/config"
)

const (
	testKey    = "api-key"
	testSecret = "api-secret"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	token, err := IssueSessionToken(testKey, testSecret, "https://demo.myshopify.com/", time.Minute)
	require.NoError(t, err)

	claims, err := ParseSessionToken(testKey, testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", claims.Shop())
}

func TestSessionToken_Rejections(t *testing.T) {
	token, err := IssueSessionToken(testKey, testSecret, "demo.myshopify.com", time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(testKey, "other-secret", token)
	assert.Error(t, err, "wrong secret")

	_, err = ParseSessionToken("other-key", testSecret, token)
	assert.Error(t, err, "wrong audience")

	expired, err := IssueSessionToken(testKey, testSecret, "demo.myshopify.com", -time.Minute)
	require.NoError(t, err)
	_, err = ParseSessionToken(testKey, testSecret, expired)
	assert.Error(t, err, "expired")

	_, err = ParseSessionToken(testKey, testSecret, "not-a-jwt")
	assert.Error(t, err)

	_, err = IssueSessionToken(testKey, "", "demo.myshopify.com", time.Minute)
	assert.Error(t, err)
}

func TestValidShopDomain(t *testing.T) {
	assert.True(t, ValidShopDomain("demo-store.myshopify.com"))
	assert.False(t, ValidShopDomain("demo.example.com"))
	assert.False(t, ValidShopDomain("evil.com/.myshopify.com"))
	assert.False(t, ValidShopDomain(""))
}

func signQuery(q url.Values, secret string) {
	q.Del("hmac")
	// Encode sorts by key; the signed message uses unescaped values
	msg, _ := url.QueryUnescape(q.Encode())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	q.Set("hmac", hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyQueryHMAC(t *testing.T) {
	q := url.Values{}
	q.Set("shop", "demo.myshopify.com")
	q.Set("code", "abc")
	q.Set("state", "xyz")
	q.Set("timestamp", "1700000000")
	signQuery(q, testSecret)

	assert.True(t, VerifyQueryHMAC(q, testSecret))
	assert.False(t, VerifyQueryHMAC(q, "wrong"))

	q.Set("code", "tampered")
	assert.False(t, VerifyQueryHMAC(q, testSecret))
}

func TestVerifyWebhookHMAC(t *testing.T) {
	body := []byte(`{"shop_domain":"demo.myshopify.com"}`)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	header := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifyWebhookHMAC(body, header, testSecret))
	assert.False(t, VerifyWebhookHMAC(body, header, "wrong"))
	assert.False(t, VerifyWebhookHMAC(body, "", testSecret))
	assert.False(t, VerifyWebhookHMAC([]byte(`{}`), header, testSecret))
}

func TestOAuth_AuthorizeURL(t *testing.T) {
	o := NewOAuth(config.ShopifyConfig{APIKey: testKey, APISecret: testSecret, Scopes: "read_products,write_products", HostURL: "https://app.example.com"}, nil)
	u, err := url.Parse(o.AuthorizeURL("demo.myshopify.com", "state-1"))
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", u.Host)
	assert.Equal(t, "/admin/oauth/authorize", u.Path)
	assert.Equal(t, testKey, u.Query().Get("client_id"))
	assert.Equal(t, "read_products,write_products", u.Query().Get("scope"))
	assert.Equal(t, "https://app.example.com/api/auth/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
}

func TestOAuth_Exchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testKey, body["client_id"])
		assert.Equal(t, testSecret, body["client_secret"])
		assert.Equal(t, "the-code", body["code"])
		_, _ = w.Write([]byte(`{"access_token":"shpat_new","scope":"read_products"}`))
	}))
	defer server.Close()

	o := NewOAuth(config.ShopifyConfig{APIKey: testKey, APISecret: testSecret, AdminBaseURL: server.URL}, nil)
	session, err := o.Exchange(context.Background(), "demo.myshopify.com", "the-code")
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", session.Shop)
	assert.Equal(t, "shpat_new", session.AccessToken)
	assert.Equal(t, "read_products", session.Scope)
}

func TestOAuth_ExchangeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
	}))
	defer server.Close()

	o := NewOAuth(config.ShopifyConfig{APIKey: testKey, APISecret: testSecret, AdminBaseURL: server.URL}, nil)
	_, err := o.Exchange(context.Background(), "demo.myshopify.com", "bad")
	assert.Error(t, err)
}
