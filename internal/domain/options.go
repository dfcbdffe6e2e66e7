package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// EANMarker prefixes the catalog EAN inside a store SKU (e.g. META_000111222)
	EANMarker = "META_"
	// DefaultVariantTitle is the title Shopify gives the only variant of a product without options
	DefaultVariantTitle = "Default Title"
)

// optionNamespace scopes option keys so they never collide with other v5 UUIDs
var optionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://api.skulibrary.com/store-product-option"))

// DeriveEAN returns everything after the META_ marker, or the SKU unchanged
func DeriveEAN(sku string) string {
	if i := strings.Index(sku, EANMarker); i >= 0 {
		return sku[i+len(EANMarker):]
	}
	return sku
}

// OptionKey is a stable selection token for a variant. It depends only on the
// product and variant ids; index is used when the variant has no id.
func OptionKey(productID, variantID int64, index int) string {
	name := fmt.Sprintf("%d/%d", productID, variantID)
	if variantID == 0 {
		name = fmt.Sprintf("%d/#%d", productID, index)
	}
	return uuid.NewSHA1(optionNamespace, []byte(name)).String()
}

// OptionTitle is "<product title> <variant title>", with the default variant title left blank
func OptionTitle(productTitle, variantTitle string) string {
	if variantTitle == DefaultVariantTitle {
		variantTitle = ""
	}
	return productTitle + " " + variantTitle
}

// OptionLabel renders "<ean> - <product title> <variant title>"
func OptionLabel(ean, productTitle, variantTitle string) string {
	return ean + " - " + OptionTitle(productTitle, variantTitle)
}

// FlattenProducts turns every variant of every product into a selectable option, in order
func FlattenProducts(products []Product) []StoreProductOption {
	options := make([]StoreProductOption, 0, len(products))
	for _, p := range products {
		for j, v := range p.Variants {
			ean := DeriveEAN(v.SKU)
			options = append(options, StoreProductOption{
				Key:   OptionKey(p.ID, v.ID, j),
				Label: OptionLabel(ean, p.Title, v.Title),
				Content: OptionContent{
					ProductTitle: OptionTitle(p.Title, v.Title),
					ProductID:    p.ID,
					VariantID:    v.ID,
					EAN:          ean,
				},
			})
		}
	}
	return options
}
