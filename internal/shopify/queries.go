package shopify

import "strings"

// ShopQuery is a cheap query used to check that a session's token works
const ShopQuery = `
query {
  shop {
    name
    myshopifyDomain
  }
}
`

// ShopResult is the ShopQuery payload
type ShopResult struct {
	Shop struct {
		Name            string `json:"name"`
		MyshopifyDomain string `json:"myshopifyDomain"`
	} `json:"shop"`
}

// AccessScopesQuery lists the scopes granted to the app on the shop
const AccessScopesQuery = `
query {
  currentAppInstallation {
    accessScopes {
      handle
    }
  }
}
`

// AccessScopesResult is the AccessScopesQuery payload
type AccessScopesResult struct {
	CurrentAppInstallation struct {
		AccessScopes []struct {
			Handle string `json:"handle"`
		} `json:"accessScopes"`
	} `json:"currentAppInstallation"`
}

// Has reports whether scope was granted. write_X implies read_X.
func (r AccessScopesResult) Has(scope string) bool {
	for _, s := range r.CurrentAppInstallation.AccessScopes {
		if s.Handle == scope {
			return true
		}
		if strings.HasPrefix(scope, "read_") && s.Handle == "write_"+strings.TrimPrefix(scope, "read_") {
			return true
		}
	}
	return false
}
