package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asorevs/image-api-updater/internal/config"
)

// SessionClaims are the claims of a Shopify App Bridge session token.
// Dest is the shop URL the token was issued for.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// Shop returns the shop domain the token is scoped to
func (c *SessionClaims) Shop() string {
	return config.NormalizeShop(c.Dest)
}

// IssueSessionToken signs a session token for shop with the app secret. The
// embedded admin gets these from App Bridge; the operator CLI mints its own.
func IssueSessionToken(apiKey, apiSecret, shop string, ttl time.Duration) (string, error) {
	if apiSecret == "" {
		return "", fmt.Errorf("api secret is required to sign session tokens")
	}
	shop = config.NormalizeShop(shop)
	now := time.Now()
	claims := SessionClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Subject:   "operator",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if apiKey != "" {
		claims.Audience = jwt.ClaimStrings{apiKey}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
}

// ParseSessionToken verifies an HS256 session token and returns its claims.
// The audience is checked when apiKey is set.
func ParseSessionToken(apiKey, apiSecret, token string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(10 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if apiKey != "" {
		opts = append(opts, jwt.WithAudience(apiKey))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(apiSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if claims.Shop() == "" {
		return nil, fmt.Errorf("invalid session token: missing dest")
	}
	return claims, nil
}
