package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/skulibrary"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: test-skulibrary <ean>")
		os.Exit(2)
	}
	ean := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := skulibrary.NewClient(cfg.SKULibrary, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	lookup, err := client.LookupByEAN(ctx, ean)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		fmt.Println("Please check METAGENICS_API and SKULIBRARY_BASE_URL")
		os.Exit(1)
	}

	record, err := lookup.First()
	if err != nil {
		fmt.Printf("No catalog record for EAN %s\n", ean)
		os.Exit(1)
	}
	fmt.Printf("EAN:         %s\n", ean)
	fmt.Printf("Front image: %s\n", record.FrontImage2D)
	fmt.Printf("Back image:  %s\n", record.BackImage)
	fmt.Printf("Size:        %s\n", record.Size)
}
