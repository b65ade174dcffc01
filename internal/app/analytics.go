package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ncecere/model_directory/internal/analytics"
	"github.com/ncecere/model_directory/internal/config"
)

// AnalyticsConnector wires the configured sinks once a usable token is known:
// the Mixpanel relay always, the log sink in debug mode, and the Redis stream
// when enabled and a client is available.
func AnalyticsConnector(cfg config.AnalyticsConfig, redisClient *redis.Client, logger *slog.Logger, httpClient analytics.HTTPClient) analytics.Connector {
	return func(_ context.Context, token string) (analytics.Sink, error) {
		mixpanel, err := analytics.NewMixpanelSink(cfg, token, logger, httpClient)
		if err != nil {
			return nil, err
		}
		sinks := []analytics.Sink{mixpanel}
		if cfg.Debug {
			sinks = append(sinks, analytics.NewLogSink(logger, slog.LevelInfo))
		}
		if cfg.Stream.Enabled && redisClient != nil {
			sinks = append(sinks, analytics.NewStreamSink(redisClient, cfg.Stream))
		}
		sink := analytics.NewCompositeSink(sinks...)
		if sink == nil {
			return nil, analytics.ErrNoSink
		}
		return sink, nil
	}
}
