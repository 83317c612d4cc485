package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Tables   TablesConfig   `yaml:"tables"`
	Amazon   AmazonConfig   `yaml:"amazon"`
	Ozon     OzonConfig     `yaml:"ozon"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

func (c DatabaseConfig) Lifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetime) * time.Second
}

func (c DatabaseConfig) Missing() []string {
	return missing(map[string]string{"DATABASE_URL": c.URL})
}

// RedisConfig is optional; without it locks fall back to Postgres.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// TablesConfig names the upsert targets. Names may be given as
// "public.table" or quoted; they are normalized before use.
type TablesConfig struct {
	AE             string `yaml:"ae"`
	AENewProducts  string `yaml:"ae_new_products"`
	Amazon         string `yaml:"amazon"`
	Ozon           string `yaml:"ozon"`
	Facts          string `yaml:"facts"`
	MetaAds        string `yaml:"meta_ads"`
	IndependentAds string `yaml:"independent_ads"`
	ManagedStats   string `yaml:"managed_stats"`
}

// AmazonConfig holds Selling-Partner API credentials
type AmazonConfig struct {
	LWAClientID         string   `yaml:"lwa_client_id"`
	LWAClientSecret     string   `yaml:"lwa_client_secret"`
	RefreshToken        string   `yaml:"refresh_token"`
	MarketplaceIDs      []string `yaml:"marketplace_ids"`
	AppRegion           string   `yaml:"app_region"`
	Endpoint            string   `yaml:"endpoint"`
	TokenURL            string   `yaml:"token_url"`
	PollAttempts        int      `yaml:"poll_attempts"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	TimeoutSeconds      int      `yaml:"timeout_seconds"`
	// BackfillBudgetSeconds bounds a whole cron-daily test-mode backfill.
	BackfillBudgetSeconds int `yaml:"backfill_budget_seconds"`
}

// SPEndpoint returns the regional Selling-Partner host unless one is set.
func (c AmazonConfig) SPEndpoint() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	return "https://sellingpartnerapi-" + c.regionAlias() + ".amazon.com"
}

// regionAlias maps AWS regions onto the three SP-API endpoint names.
func (c AmazonConfig) regionAlias() string {
	switch {
	case strings.HasPrefix(c.AppRegion, "eu-"):
		return "eu"
	case strings.HasPrefix(c.AppRegion, "us-west-2"), strings.HasPrefix(c.AppRegion, "ap-"):
		return "fe"
	}
	return "na"
}

func (c AmazonConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c AmazonConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c AmazonConfig) BackfillBudget() time.Duration {
	return time.Duration(c.BackfillBudgetSeconds) * time.Second
}

// Missing lists the environment variables whose values are empty.
func (c AmazonConfig) Missing() []string {
	return missing(map[string]string{
		"AMZ_LWA_CLIENT_ID":     c.LWAClientID,
		"AMZ_LWA_CLIENT_SECRET": c.LWAClientSecret,
		"AMZ_SP_REFRESH_TOKEN":  c.RefreshToken,
		"AMZ_MARKETPLACE_IDS":   strings.Join(c.MarketplaceIDs, ","),
	})
}

// OzonConfig holds Ozon Seller API credentials
type OzonConfig struct {
	ClientID          string `yaml:"client_id"`
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

func (c OzonConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c OzonConfig) Missing() []string {
	return missing(map[string]string{
		"OZON_CLIENT_ID": c.ClientID,
		"OZON_API_KEY":   c.APIKey,
	})
}

// ShopifyConfig holds Shopify Admin API access
type ShopifyConfig struct {
	Shop           string `yaml:"shop"`
	AccessToken    string `yaml:"access_token"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c ShopifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ShopifyConfig) Missing() []string {
	return missing(map[string]string{
		"SHOPIFY_SHOP":         c.Shop,
		"SHOPIFY_ACCESS_TOKEN": c.AccessToken,
	})
}

// ArchiveConfig enables copying raw uploads to S3. Empty bucket disables it.
type ArchiveConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	Prefix     string `yaml:"prefix"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
	// Static keys take precedence over the profile when both are set.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func (c ArchiveConfig) Enabled() bool { return c.S3Bucket != "" }

// WorkerConfig schedules the in-process daily syncs
type WorkerConfig struct {
	AmazonEnabled  bool `yaml:"amazon_enabled"`
	OzonEnabled    bool `yaml:"ozon_enabled"`
	AmazonHourUTC  int  `yaml:"amazon_hour_utc"`
	OzonHourUTC    int  `yaml:"ozon_hour_utc"`
	TickSeconds    int  `yaml:"tick_seconds"`
	LockTTLSeconds int  `yaml:"lock_ttl_seconds"`
	RunOnStartup   bool `yaml:"run_on_startup"`
}

func (c WorkerConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

func (c WorkerConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration file. A missing file yields the
// defaults so that env-only deployments work.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}

	if cfg.Tables.AE == "" {
		cfg.Tables.AE = "ae_self_operated_daily"
	}
	if cfg.Tables.AENewProducts == "" {
		cfg.Tables.AENewProducts = "ae_self_new_products"
	}
	if cfg.Tables.Amazon == "" {
		cfg.Tables.Amazon = "amazon_daily_by_asin"
	}
	if cfg.Tables.Ozon == "" {
		cfg.Tables.Ozon = "ozon_product_report_wide"
	}
	if cfg.Tables.Facts == "" {
		cfg.Tables.Facts = "fact_daily_metrics"
	}
	if cfg.Tables.MetaAds == "" {
		cfg.Tables.MetaAds = "fact_meta_daily"
	}
	if cfg.Tables.IndependentAds == "" {
		cfg.Tables.IndependentAds = "independent_facebook_ads_daily"
	}
	if cfg.Tables.ManagedStats == "" {
		cfg.Tables.ManagedStats = "managed_stats"
	}

	if cfg.Amazon.AppRegion == "" {
		cfg.Amazon.AppRegion = "us-east-1"
	}
	if cfg.Amazon.TokenURL == "" {
		cfg.Amazon.TokenURL = "https://api.amazon.com/auth/o2/token"
	}
	if cfg.Amazon.PollAttempts == 0 {
		cfg.Amazon.PollAttempts = 30
	}
	if cfg.Amazon.PollIntervalSeconds == 0 {
		cfg.Amazon.PollIntervalSeconds = 120
	}
	if cfg.Amazon.TimeoutSeconds == 0 {
		cfg.Amazon.TimeoutSeconds = 30
	}
	if cfg.Amazon.BackfillBudgetSeconds == 0 {
		cfg.Amazon.BackfillBudgetSeconds = 4200
	}

	if cfg.Ozon.BaseURL == "" {
		cfg.Ozon.BaseURL = "https://api-seller.ozon.ru"
	}
	if cfg.Ozon.RequestsPerMinute == 0 {
		cfg.Ozon.RequestsPerMinute = 60
	}
	if cfg.Ozon.TimeoutSeconds == 0 {
		cfg.Ozon.TimeoutSeconds = 30
	}

	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-04"
	}
	if cfg.Shopify.TimeoutSeconds == 0 {
		cfg.Shopify.TimeoutSeconds = 30
	}

	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "uploads"
	}

	if cfg.Worker.AmazonHourUTC == 0 {
		cfg.Worker.AmazonHourUTC = 3
	}
	if cfg.Worker.OzonHourUTC == 0 {
		cfg.Worker.OzonHourUTC = 2
	}
	if cfg.Worker.TickSeconds == 0 {
		cfg.Worker.TickSeconds = 300
	}
	if cfg.Worker.LockTTLSeconds == 0 {
		cfg.Worker.LockTTLSeconds = 90 * 60
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Tables.AE, "AE_TABLE_NAME")
	setString(&cfg.Tables.Amazon, "AMZ_TABLE_NAME")
	setString(&cfg.Tables.Ozon, "OZON_TABLE_NAME")

	// Amazon overrides
	setString(&cfg.Amazon.LWAClientID, "AMZ_LWA_CLIENT_ID")
	setString(&cfg.Amazon.LWAClientSecret, "AMZ_LWA_CLIENT_SECRET")
	setString(&cfg.Amazon.RefreshToken, "AMZ_SP_REFRESH_TOKEN")
	setString(&cfg.Amazon.AppRegion, "AMZ_APP_REGION")
	setString(&cfg.Amazon.Endpoint, "AMZ_SP_ENDPOINT")
	if v := os.Getenv("AMZ_MARKETPLACE_IDS"); v != "" {
		cfg.Amazon.MarketplaceIDs = splitList(v)
	}

	// Ozon overrides
	setString(&cfg.Ozon.ClientID, "OZON_CLIENT_ID")
	setString(&cfg.Ozon.APIKey, "OZON_API_KEY")

	// Shopify overrides
	setString(&cfg.Shopify.Shop, "SHOPIFY_SHOP")
	setString(&cfg.Shopify.AccessToken, "SHOPIFY_ACCESS_TOKEN")
	setString(&cfg.Shopify.APIVersion, "SHOPIFY_API_VERSION")

	// Archive overrides
	setString(&cfg.Archive.S3Bucket, "ARCHIVE_S3_BUCKET")
	setString(&cfg.Archive.S3Region, "ARCHIVE_S3_REGION")
	setString(&cfg.Archive.AWSProfile, "ARCHIVE_AWS_PROFILE")
	setString(&cfg.Archive.AccessKeyID, "ARCHIVE_AWS_ACCESS_KEY_ID")
	setString(&cfg.Archive.SecretAccessKey, "ARCHIVE_AWS_SECRET_ACCESS_KEY")

	// Worker overrides
	setBool(&cfg.Worker.AmazonEnabled, "WORKER_AMAZON_ENABLED")
	setBool(&cfg.Worker.OzonEnabled, "WORKER_OZON_ENABLED")
	setBool(&cfg.Worker.RunOnStartup, "WORKER_RUN_ON_STARTUP")

	return cfg, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// missing returns the names with empty values, sorted.
func missing(vals map[string]string) []string {
	var out []string
	for name, v := range vals {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
