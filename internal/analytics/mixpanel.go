package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ncecere/model_directory/internal/config"
	"github.com/ncecere/model_directory/internal/timeutil"
)

// HTTPClient is the subset of *http.Client used by MixpanelSink.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// MixpanelSink posts events to a Mixpanel-compatible /track ingestion endpoint.
type MixpanelSink struct {
	client   HTTPClient
	endpoint string
	token    string
	logger   *slog.Logger
}

// NewMixpanelSink validates the endpoint and returns a sink bound to token.
func NewMixpanelSink(cfg config.AnalyticsConfig, token string, logger *slog.Logger, client HTTPClient) (*MixpanelSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid analytics endpoint %q", endpoint)
	}
	if client == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &MixpanelSink{
		client:   client,
		endpoint: endpoint,
		token:    token,
		logger:   logger,
	}, nil
}

func (s *MixpanelSink) Track(ctx context.Context, event Event) error {
	body, err := json.Marshal([]mixpanelEvent{s.encode(event)})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("analytics delivery failed", slog.String("event", event.Name), slog.String("error", err.Error()))
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Debug("analytics delivery rejected",
			slog.String("event", event.Name),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)),
		)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	s.logger.Debug("analytics event delivered", slog.String("event", event.Name))
	return nil
}

func (s *MixpanelSink) encode(event Event) mixpanelEvent {
	props := make(map[string]any, len(event.Properties)+5)
	for key, value := range event.Properties {
		props[key] = value
	}
	props["token"] = s.token
	props["time"] = timeutil.UnixMillis(event.Time)
	props["mp_lib"] = "go"
	if event.InsertID != "" {
		props["$insert_id"] = event.InsertID
	}
	if event.DistinctID != "" {
		props["distinct_id"] = event.DistinctID
	}
	return mixpanelEvent{Event: event.Name, Properties: props}
}

type mixpanelEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}
