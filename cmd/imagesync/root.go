package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/config"
	"github.com/asorevs/image-api-updater/internal/relayclient"
	"github.com/asorevs/image-api-updater/internal/workflow"
)

var (
	relayURL string
	shop     string
	verbose  bool

	logger *zap.Logger
	relay  *relayclient.Client
)

var rootCmd = &cobra.Command{
	Use:   "imagesync",
	Short: "Copy SKU library product images into a Shopify store.",
	Long: `imagesync drives a running relay server: it lists the store's products,
looks up each selected variant's EAN in the SKU library and saves the front
and back catalog images onto the store product.

The EAN is taken from the variant SKU (the part after META_, or the whole SKU).`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			zcfg := zap.NewDevelopmentConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			logger, err = zcfg.Build()
		}
		if err != nil {
			return err
		}

		cfg, err := config.LoadCLI()
		if err != nil {
			return err
		}
		if relayURL != "" {
			cfg.RelayURL = relayURL
		}
		if shop != "" {
			cfg.Shop = config.NormalizeShop(shop)
		}

		relay, err = relayclient.NewClient(*cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	// Ctrl-C cancels the running batch
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay", "", "relay server URL (default RELAY_URL or http://localhost:8081)")
	rootCmd.PersistentFlags().StringVar(&shop, "shop", "", "shop domain, e.g. store.myshopify.com (default SHOPIFY_SHOP_DOMAIN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and lookups")
}

func newWorkflow() *workflow.Workflow {
	return workflow.New(relay, logger)
}

func printNotice(n workflow.Notice) {
	if n.Error {
		fmt.Fprintln(os.Stderr, n.Content)
		return
	}
	fmt.Println(n.Content)
}

func progressPrinter(label string) workflow.ProgressFunc {
	return func(p float64) {
		fmt.Fprintf(os.Stderr, "\r%s %3.0f%%", label, p)
		if p >= 100 {
			fmt.Fprintln(os.Stderr)
		}
	}
}
