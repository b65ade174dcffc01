package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ncecere/model_directory/internal/analytics"
	"github.com/ncecere/model_directory/internal/cache"
	"github.com/ncecere/model_directory/internal/config"
	"github.com/ncecere/model_directory/internal/limits"
	"github.com/ncecere/model_directory/internal/observability"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config        *config.Config
	Redis         *redis.Client
	Logger        *slog.Logger
	Analytics     *analytics.Emitter
	RateLimiter   *limits.RateLimiter
	EventLimit    limits.LimitConfig
	Dedupe        *cache.EventDeduper
	Observability *observability.Provider
}

// NewContainer builds a dependency container from the provided primitives.
// redisClient may be nil; stream mirroring, rate limiting and event
// deduplication are then off.
// The emitter is returned uninitialized so callers decide when to connect.
func NewContainer(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	opts := []analytics.Option{
		analytics.WithLogger(logger),
		analytics.WithDeliveryTimeout(cfg.Analytics.DeliveryTimeout),
	}
	if obsProvider != nil {
		opts = append(opts, analytics.WithRecorder(obsProvider))
	}
	emitter := analytics.NewEmitter(
		analytics.StaticTokenSource(cfg.Analytics.Token),
		AnalyticsConnector(cfg.Analytics, redisClient, logger, nil),
		opts...,
	)

	var limiter *limits.RateLimiter
	if redisClient != nil {
		limiter = limits.NewRateLimiter(redisClient)
	}

	return &Container{
		Config:        cfg,
		Redis:         redisClient,
		Logger:        logger,
		Analytics:     emitter,
		RateLimiter:   limiter,
		EventLimit:    limits.LimitConfig{RequestsPerMinute: cfg.RateLimits.EventsPerMinute},
		Dedupe:        cache.NewEventDeduper(redisClient, cfg.Analytics.DedupeTTL),
		Observability: obsProvider,
	}, nil
}

// Close releases background resources owned by the container.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.Analytics.Flush(ctx); err != nil {
		c.Logger.Warn("analytics flush incomplete", slog.String("error", err.Error()))
	}
	return c.Observability.Shutdown(ctx)
}
