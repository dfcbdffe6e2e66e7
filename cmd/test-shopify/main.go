package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/shopify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Shopify.AccessToken == "" {
		fmt.Fprintln(os.Stderr, "SHOPIFY_SHOP_DOMAIN and SHOPIFY_ACCESS_TOKEN are required")
		os.Exit(1)
	}

	token := cfg.Shopify.AccessToken
	fmt.Printf("Testing Shopify connection...\n\n")
	fmt.Printf("Shop Domain: %s\n", cfg.Shopify.ShopDomain)
	fmt.Printf("Access Token: %s...%s\n", token[:min(10, len(token))], token[max(0, len(token)-4):])
	fmt.Println()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := shopify.NewClient(cfg.Shopify, logger)
	session := &domain.Session{Shop: cfg.Shopify.ShopDomain, AccessToken: token}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Execute(ctx, session, shopify.ShopQuery, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection failed: %v\n\n", err)
		fmt.Println("Please check:")
		fmt.Println("  1. SHOPIFY_SHOP_DOMAIN format: should be 'store-name.myshopify.com' (no https://)")
		fmt.Println("  2. SHOPIFY_ACCESS_TOKEN: should start with 'shpat_' and be the full token")
		fmt.Println("  3. Token permissions: needs 'read_products' and 'write_products' scopes")
		os.Exit(1)
	}

	var result shopify.ShopResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Unexpected response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Connection successful!")
	fmt.Printf("Shop: %s (%s)\n", result.Shop.Name, result.Shop.MyshopifyDomain)
}
