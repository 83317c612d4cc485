// Package app builds the dependency graph shared by the server and worker
// binaries from a loaded configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/commerce-ingest/internal/amazon"
	"github.com/ignite/commerce-ingest/internal/api"
	"github.com/ignite/commerce-ingest/internal/archive"
	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/ozon"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"github.com/ignite/commerce-ingest/internal/repository/postgres"
	"github.com/ignite/commerce-ingest/internal/service/ingest"
	"github.com/ignite/commerce-ingest/internal/service/pull"
	"github.com/ignite/commerce-ingest/internal/service/query"
	"github.com/ignite/commerce-ingest/internal/shopify"
	"github.com/ignite/commerce-ingest/internal/store"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// App holds the opened connections and the services built on them. Vendor
// fields are nil when their credentials are not configured.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Redis   *redis.Client
	Archive *archive.Archiver

	Ingest *ingest.Service
	Query  *query.Service

	Amazon      *amazon.Client
	AmazonSync  *pull.AmazonSync
	OzonSync    *pull.OzonSync
	ShopifySync *pull.ShopifySync
}

// New opens Postgres (required), Redis and the S3 archive (both optional)
// and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if missing := cfg.Database.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("missing environment variables: %v", missing)
	}

	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := a.Redis.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, locks fall back to postgres", "error", err)
		}
		cancel()
	}

	a.Ingest = ingest.NewService(store.NewPostgres(db), postgres.NewIngestRepo(db, cfg.Tables), cfg.Tables)
	a.Query = query.NewService(postgres.NewQueryRepo(db, cfg.Tables))

	if cfg.Archive.Enabled() {
		archiver, _, err := archive.New(ctx, archive.Config{
			Bucket:          cfg.Archive.S3Bucket,
			Region:          cfg.Archive.S3Region,
			Prefix:          cfg.Archive.Prefix,
			Profile:         cfg.Archive.AWSProfile,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Archive = archiver
		a.Ingest.SetArchiver(archiver)
		logger.Info("raw upload archive enabled", "bucket", archiver.Bucket())
	}

	a.wireVendors()
	return a, nil
}

// OpenDB opens and pings the pool.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Lifetime())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (a *App) wireVendors() {
	cfg := a.Config

	if missing := cfg.Amazon.Missing(); len(missing) == 0 {
		a.Amazon = amazon.NewClient(amazon.Config{
			ClientID:       cfg.Amazon.LWAClientID,
			ClientSecret:   cfg.Amazon.LWAClientSecret,
			RefreshToken:   cfg.Amazon.RefreshToken,
			TokenURL:       cfg.Amazon.TokenURL,
			Endpoint:       cfg.Amazon.SPEndpoint(),
			MarketplaceIDs: cfg.Amazon.MarketplaceIDs,
			PollAttempts:   cfg.Amazon.PollAttempts,
			PollInterval:   cfg.Amazon.PollInterval(),
			Timeout:        cfg.Amazon.Timeout(),
		})
		a.AmazonSync = pull.NewAmazonSync(a.Amazon, a.Ingest)
		a.AmazonSync.SetBudget(cfg.Amazon.BackfillBudget())
	} else {
		logger.Info("amazon disabled", "missing", missing)
	}

	if missing := cfg.Ozon.Missing(); len(missing) == 0 {
		client := ozon.NewClient(ozon.Config{
			ClientID:          cfg.Ozon.ClientID,
			APIKey:            cfg.Ozon.APIKey,
			BaseURL:           cfg.Ozon.BaseURL,
			RequestsPerMinute: cfg.Ozon.RequestsPerMinute,
			Timeout:           cfg.Ozon.Timeout(),
		})
		a.OzonSync = pull.NewOzonSync(client, a.Ingest)
	} else {
		logger.Info("ozon disabled", "missing", missing)
	}

	if missing := cfg.Shopify.Missing(); len(missing) == 0 {
		client := shopify.NewClient(shopify.Config{
			Shop:        cfg.Shopify.Shop,
			AccessToken: cfg.Shopify.AccessToken,
			APIVersion:  cfg.Shopify.APIVersion,
			Timeout:     cfg.Shopify.Timeout(),
		})
		a.ShopifySync = pull.NewShopifySync(client, a.Ingest)
	} else {
		logger.Info("shopify disabled", "missing", missing)
	}
}

// Handlers builds the HTTP handlers over the app's services.
func (a *App) Handlers() *api.Handlers {
	d := api.Deps{
		Config:      a.Config,
		Ingest:      a.Ingest,
		Query:       a.Query,
		AmazonSync:  a.AmazonSync,
		OzonSync:    a.OzonSync,
		ShopifySync: a.ShopifySync,
	}
	// A nil *amazon.Client must stay a nil interface.
	if a.Amazon != nil {
		d.Amazon = a.Amazon
	}
	return api.NewHandlers(d)
}

// HealthChecker builds the checker for /health.
func (a *App) HealthChecker() *api.HealthChecker {
	var bucket api.BucketPinger
	if a.Archive != nil {
		bucket = a.Archive
	}
	return api.NewHealthChecker(a.DB, a.Redis, bucket)
}

// Close releases the connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}
}
