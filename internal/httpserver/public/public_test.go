package public

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ncecere/model_directory/internal/analytics"
	"github.com/ncecere/model_directory/internal/app"
	"github.com/ncecere/model_directory/internal/catalog"
	"github.com/ncecere/model_directory/internal/config"
)

type capturedEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

type fakeMixpanel struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakeMixpanel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var batch []capturedEvent
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.events = append(f.events, batch...)
	f.mu.Unlock()
	_, _ = w.Write([]byte("1"))
}

func (f *fakeMixpanel) received() []capturedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedEvent(nil), f.events...)
}

type harness struct {
	app       *fiber.App
	container *app.Container
	mixpanel  *fakeMixpanel
}

func newHarness(t *testing.T, token string, redisClient *redis.Client, eventsPerMinute int) *harness {
	t.Helper()
	mixpanel := &fakeMixpanel{}
	srv := httptest.NewServer(mixpanel)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Server:     config.ServerConfig{ListenAddr: ":0"},
		Analytics:  config.AnalyticsConfig{Token: token, Endpoint: srv.URL + "/track"},
		RateLimits: config.RateLimitConfig{EventsPerMinute: eventsPerMinute},
	}
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := app.NewContainer(context.Background(), cfg, redisClient, logger)
	require.NoError(t, err)
	container.Analytics.Initialize(context.Background())

	fiberApp := fiber.New()
	Register(fiberApp, container)
	return &harness{app: fiberApp, container: container, mixpanel: mixpanel}
}

func (h *harness) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func (h *harness) flush(t *testing.T) []capturedEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.container.Analytics.Flush(ctx))
	return h.mixpanel.received()
}

func TestListProviders(t *testing.T) {
	h := newHarness(t, "", nil, 0)

	status, body := h.do(t, http.MethodGet, "/api/providers", "", nil)
	require.Equal(t, http.StatusOK, status)
	providers := body["providers"].([]any)
	require.Len(t, providers, len(catalog.KnownProviders()))

	found := false
	for _, entry := range providers {
		item := entry.(map[string]any)
		if item["provider"] == "openai" {
			found = true
			require.Equal(t, "O", item["initial"])
			require.Equal(t, catalog.LogoBaseURL+"openai_small.svg", item["logo_url"])
		}
	}
	require.True(t, found, "openai missing from list")
}

func TestGetProvider(t *testing.T) {
	h := newHarness(t, "", nil, 0)

	status, body := h.do(t, http.MethodGet, "/api/providers/Azure", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Azure", body["provider"])
	require.Equal(t, "Az", body["initial"])
	require.Equal(t, catalog.LogoBaseURL+"microsoft_azure.svg", body["logo_url"])

	status, body = h.do(t, http.MethodGet, "/api/providers/zzz", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Z", body["initial"])
	require.Contains(t, body, "logo_url")
	require.Nil(t, body["logo_url"])
}

func TestResolveProviders(t *testing.T) {
	h := newHarness(t, "", nil, 0)

	status, body := h.do(t, http.MethodPost, "/api/providers/resolve", `{"providers":["anthropic","","gemini"]}`, nil)
	require.Equal(t, http.StatusOK, status)
	providers := body["providers"].([]any)
	require.Len(t, providers, 3)
	require.Equal(t, "A", providers[0].(map[string]any)["initial"])
	require.Equal(t, "?", providers[1].(map[string]any)["initial"])
	require.Nil(t, providers[1].(map[string]any)["logo_url"])
	require.Equal(t, "G", providers[2].(map[string]any)["initial"])
	require.Equal(t, catalog.LogoBaseURL+"google.svg", providers[2].(map[string]any)["logo_url"])

	status, _ = h.do(t, http.MethodPost, "/api/providers/resolve", `{"providers":`, nil)
	require.Equal(t, http.StatusBadRequest, status)

	names := make([]string, maxResolveBatch+1)
	for i := range names {
		names[i] = `"openai"`
	}
	status, _ = h.do(t, http.MethodPost, "/api/providers/resolve", `{"providers":[`+strings.Join(names, ",")+`]}`, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestEventsAcceptedWithoutToken(t *testing.T) {
	h := newHarness(t, analytics.PlaceholderToken, nil, 0)

	status, body := h.do(t, http.MethodPost, "/api/events/search", `{"query":"gpt"}`, nil)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, true, body["accepted"])
	require.Equal(t, false, body["forwarded"])
	require.Empty(t, h.flush(t))
}

func TestSearchEventRelayed(t *testing.T) {
	h := newHarness(t, "tok", nil, 0)

	status, body := h.do(t, http.MethodPost, "/api/events/search", `{"query":"claude","provider":"","results_count":12}`,
		map[string]string{HeaderDistinctID: "visitor-1"})
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, true, body["forwarded"])

	events := h.flush(t)
	require.Len(t, events, 1)
	require.Equal(t, analytics.EventSearch, events[0].Event)
	props := events[0].Properties
	require.Equal(t, "claude", props["query"])
	require.Equal(t, "all", props["provider"])
	require.EqualValues(t, 12, props["results_count"])
	require.Equal(t, "visitor-1", props["distinct_id"])
	require.NotEmpty(t, props["timestamp"])
}

func TestSearchEventRejectsNegativeCount(t *testing.T) {
	h := newHarness(t, "tok", nil, 0)

	status, _ := h.do(t, http.MethodPost, "/api/events/search", `{"query":"x","results_count":-1}`, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Empty(t, h.flush(t))
}

func TestPageViewUsesRefererByDefault(t *testing.T) {
	h := newHarness(t, "tok", nil, 0)

	status, _ := h.do(t, http.MethodPost, "/api/events/page-view", `{"page":"Providers"}`,
		map[string]string{fiber.HeaderReferer: "https://directory.example/providers"})
	require.Equal(t, http.StatusAccepted, status)

	status, _ = h.do(t, http.MethodPost, "/api/events/page-view",
		`{"page":"Home","url":"https://directory.example/","referrer":"https://search.example/"}`,
		map[string]string{fiber.HeaderReferer: "https://ignored.example/"})
	require.Equal(t, http.StatusAccepted, status)

	status, _ = h.do(t, http.MethodPost, "/api/events/page-view", `{"page":"  "}`, nil)
	require.Equal(t, http.StatusBadRequest, status)

	events := h.flush(t)
	require.Len(t, events, 2)
	byPage := map[string]map[string]any{}
	for _, event := range events {
		require.Equal(t, analytics.EventPageView, event.Event)
		byPage[event.Properties["page"].(string)] = event.Properties
	}
	require.Equal(t, "https://directory.example/providers", byPage["Providers"]["url"])
	require.Equal(t, "", byPage["Providers"]["referrer"])
	require.Equal(t, "https://directory.example/", byPage["Home"]["url"])
	require.Equal(t, "https://search.example/", byPage["Home"]["referrer"])
	require.NotContains(t, byPage["Home"], "timestamp")
}

func TestRequestEventKeepsOnlyEmailDomain(t *testing.T) {
	h := newHarness(t, "tok", nil, 0)

	status, _ := h.do(t, http.MethodPost, "/api/events/request",
		`{"type":"Model","description":"add llama","email":"dev@corp.example","docs_link":"https://docs.example/llama"}`, nil)
	require.Equal(t, http.StatusAccepted, status)

	status, _ = h.do(t, http.MethodPost, "/api/events/request", `{"type":"dataset"}`, nil)
	require.Equal(t, http.StatusBadRequest, status)

	events := h.flush(t)
	require.Len(t, events, 1)
	props := events[0].Properties
	require.Equal(t, analytics.EventRequestSubmitted, events[0].Event)
	require.Equal(t, "model", props["request_type"])
	require.Equal(t, "add llama", props["request_description"])
	require.Equal(t, true, props["has_docs_link"])
	require.Equal(t, "corp.example", props["email_domain"])
	for key, value := range props {
		if s, ok := value.(string); ok {
			require.NotContains(t, s, "dev@", "property %s leaks the email", key)
			require.NotContains(t, s, "docs.example", "property %s leaks the docs link", key)
		}
	}
}

func TestTabAndFormOpenedEvents(t *testing.T) {
	h := newHarness(t, "tok", nil, 0)

	status, _ := h.do(t, http.MethodPost, "/api/events/tab", `{"tab":"providers"}`, nil)
	require.Equal(t, http.StatusAccepted, status)
	status, _ = h.do(t, http.MethodPost, "/api/events/tab", `{"tab":"pricing"}`, nil)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = h.do(t, http.MethodPost, "/api/events/request-form-opened", "", nil)
	require.Equal(t, http.StatusAccepted, status)

	events := h.flush(t)
	require.Len(t, events, 2)
	names := []string{events[0].Event, events[1].Event}
	require.ElementsMatch(t, []string{analytics.EventTabChanged, analytics.EventRequestFormOpened}, names)
	for _, event := range events {
		if event.Event == analytics.EventTabChanged {
			require.Equal(t, "providers", event.Properties["tab"])
		}
	}
}

func TestEventRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := newHarness(t, "", client, 2)

	for i := 0; i < 2; i++ {
		status, _ := h.do(t, http.MethodPost, "/api/events/request-form-opened", "", nil)
		require.Equal(t, http.StatusAccepted, status)
	}
	status, body := h.do(t, http.MethodPost, "/api/events/request-form-opened", "", nil)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, "rate limit exceeded", body["error"])

	// Identity lookups are not limited.
	status, _ = h.do(t, http.MethodGet, "/api/providers/openai", "", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestEventIdempotencyKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := newHarness(t, "tok", client, 0)
	headers := map[string]string{HeaderIdempotencyKey: "evt-1"}

	status, body := h.do(t, http.MethodPost, "/api/events/tab", `{"tab":"models"}`, headers)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, false, body["duplicate"])
	require.Equal(t, true, body["forwarded"])

	status, body = h.do(t, http.MethodPost, "/api/events/tab", `{"tab":"models"}`, headers)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, true, body["duplicate"])
	require.Equal(t, false, body["forwarded"])

	// A rejected body does not consume the key.
	status, _ = h.do(t, http.MethodPost, "/api/events/search", `{"results_count":-5}`,
		map[string]string{HeaderIdempotencyKey: "evt-2"})
	require.Equal(t, http.StatusBadRequest, status)
	status, body = h.do(t, http.MethodPost, "/api/events/search", `{"results_count":5}`,
		map[string]string{HeaderIdempotencyKey: "evt-2"})
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, false, body["duplicate"])

	require.Len(t, h.flush(t), 2)
}
