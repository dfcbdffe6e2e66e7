package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	StaticPath  string
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	SKULibrary  SKULibraryConfig
}

// DatabaseConfig is optional; when Host and URL are empty sessions are kept in memory
type DatabaseConfig struct {
	URL      string // DATABASE_URL, takes precedence over the DB_* fields
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether a postgres session store was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

type ShopifyConfig struct {
	APIKey     string // SHOPIFY_API_KEY (client id)
	APISecret  string // SHOPIFY_API_SECRET: OAuth, webhook HMAC and session token signing
	Scopes     string
	APIVersion string
	HostURL    string // HOST: public app URL used to build the OAuth redirect

	// Optional custom-app session seed (single shop, admin token from the Shopify admin)
	ShopDomain  string
	AccessToken string

	// AdminBaseURL overrides https://<shop> for Admin API calls (local fakes)
	AdminBaseURL string
}

// SKULibraryConfig configures the external SKU library catalog
type SKULibraryConfig struct {
	BaseURL     string
	ClientToken string // METAGENICS_API
	RetryMax    int
}

// CLIConfig is what cmd/imagesync needs to talk to a running relay server
type CLIConfig struct {
	RelayURL  string
	Shop      string
	APIKey    string
	APISecret string
}

func setup() {
	// Shared .env from the working directory or the repo root
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	viper.SetDefault("PORT", "8081")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SHOPIFY_API_VERSION", "2024-10")
	viper.SetDefault("SKULIBRARY_BASE_URL", "https://api.skulibrary.com")
	viper.SetDefault("RELAY_URL", "http://localhost:8081")

	viper.AutomaticEnv()
}

func Load() (*Config, error) {
	setup()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	env := getEnvOrViper("ENVIRONMENT", "development")
	staticDefault := "./frontend/"
	if env == "production" {
		staticDefault = "./frontend/dist"
	}

	retryMax, err := strconv.Atoi(getEnvOrViper("SKULIBRARY_RETRY_MAX", "0"))
	if err != nil || retryMax < 0 {
		return nil, fmt.Errorf("SKULIBRARY_RETRY_MAX must be a non-negative integer")
	}

	cfg := &Config{
		// BACKEND_PORT wins over PORT
		Port:        getEnvOrViper("BACKEND_PORT", getEnvOrViper("PORT", "8081")),
		Environment: env,
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		StaticPath:  getEnvOrViper("STATIC_PATH", staticDefault),
		Database: DatabaseConfig{
			URL:      strings.TrimSpace(getEnvOrViper("DATABASE_URL", "")),
			Host:     strings.TrimSpace(getEnvOrViper("DB_HOST", "")),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "imageupdater"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			APIKey:       strings.TrimSpace(getEnvOrViper("SHOPIFY_API_KEY", "")),
			APISecret:    strings.TrimSpace(getEnvOrViper("SHOPIFY_API_SECRET", "")),
			Scopes:       getEnvOrViper("SCOPES", getEnvOrViper("SHOPIFY_SCOPES", "read_products,write_products")),
			APIVersion:   getEnvOrViper("SHOPIFY_API_VERSION", "2024-10"),
			HostURL:      strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("HOST", "")), "/"),
			ShopDomain:   NormalizeShop(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
			AccessToken:  strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			AdminBaseURL: strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("SHOPIFY_ADMIN_BASE_URL", "")), "/"),
		},
		SKULibrary: SKULibraryConfig{
			BaseURL:     strings.TrimSuffix(getEnvOrViper("SKULIBRARY_BASE_URL", "https://api.skulibrary.com"), "/"),
			ClientToken: strings.TrimSpace(getEnvOrViper("METAGENICS_API", "")),
			RetryMax:    retryMax,
		},
	}

	if cfg.SKULibrary.ClientToken == "" {
		return nil, fmt.Errorf("METAGENICS_API is required")
	}
	if cfg.Shopify.APISecret == "" {
		return nil, fmt.Errorf("SHOPIFY_API_SECRET is required")
	}
	if cfg.Shopify.AccessToken != "" && cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required when SHOPIFY_ACCESS_TOKEN is set")
	}

	return cfg, nil
}

// LoadCLI reads the subset of settings the operator CLI uses
func LoadCLI() (*CLIConfig, error) {
	setup()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return &CLIConfig{
		RelayURL:  strings.TrimSuffix(getEnvOrViper("RELAY_URL", "http://localhost:8081"), "/"),
		Shop:      NormalizeShop(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
		APIKey:    strings.TrimSpace(getEnvOrViper("SHOPIFY_API_KEY", "")),
		APISecret: strings.TrimSpace(getEnvOrViper("SHOPIFY_API_SECRET", "")),
	}, nil
}

// NormalizeShop strips the scheme and trailing slashes from a shop domain
func NormalizeShop(shop string) string {
	shop = strings.TrimSpace(shop)
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	return strings.TrimSuffix(shop, "/")
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		if val := viper.GetString(key); val != "" {
			return val
		}
	}
	return defaultValue
}
