package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
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

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := shopify.NewClient(cfg.Shopify, logger)
	session := &domain.Session{Shop: cfg.Shopify.ShopDomain, AccessToken: cfg.Shopify.AccessToken}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("Checking API permissions...")
	resp, err := client.Execute(ctx, session, shopify.AccessScopesQuery, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read access scopes: %v\n", err)
		os.Exit(1)
	}

	var result shopify.AccessScopesResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Unexpected response: %v\n", err)
		os.Exit(1)
	}

	missing := 0
	for _, scope := range strings.Split(cfg.Shopify.Scopes, ",") {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if result.Has(scope) {
			fmt.Printf("   OK       %s\n", scope)
			continue
		}
		missing++
		fmt.Printf("   MISSING  %s\n", scope)
	}

	if missing > 0 {
		fmt.Printf("\n%d scope(s) missing: add them to the app and reinstall it\n", missing)
		os.Exit(1)
	}
	fmt.Println("\nAll required scopes granted")
}
