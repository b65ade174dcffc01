package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ncecere/model_directory/internal/config"
	"github.com/ncecere/model_directory/internal/timeutil"
)

// StreamSink mirrors events into a Redis stream for downstream consumers.
type StreamSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

func NewStreamSink(client *redis.Client, cfg config.AnalyticsStreamCfg) *StreamSink {
	if client == nil {
		return nil
	}
	key := cfg.Key
	if key == "" {
		key = "directory:events"
	}
	return &StreamSink{client: client, key: key, maxLen: cfg.MaxLen}
}

func (s *StreamSink) Track(ctx context.Context, event Event) error {
	if s == nil {
		return nil
	}
	props, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.key,
		Values: map[string]any{
			"event":       event.Name,
			"insert_id":   event.InsertID,
			"distinct_id": event.DistinctID,
			"time":        timeutil.FormatISO(event.Time),
			"properties":  string(props),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return nil
}
