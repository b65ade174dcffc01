package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ncecere/model_directory/internal/timeutil"
)

// Connector builds the sink for a usable token.
type Connector func(ctx context.Context, token string) (Sink, error)

// Recorder observes events passing through the emitter.
type Recorder interface {
	RecordAnalyticsEvent(name, outcome string)
}

// Outcomes reported to the Recorder.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
)

// Client is an initialized handle on the analytics sink.
type Client struct {
	token string
	sink  Sink
}

// NewClient pairs a token with the sink that delivers for it.
func NewClient(token string, sink Sink) *Client {
	return &Client{token: token, sink: sink}
}

// Emitter translates application occurrences into analytics events. Until
// Initialize finds a usable token it holds no client and every Track call is a
// no-op. No method returns an error or panics on the caller's goroutine.
type Emitter struct {
	tokens   TokenSource
	connect  Connector
	logger   *slog.Logger
	now      func() time.Time
	recorder Recorder
	timeout  time.Duration

	mu     sync.RWMutex
	client *Client

	// inflight counts running deliveries; idle is closed when it drops to zero.
	flightMu sync.Mutex
	inflight int
	idle     chan struct{}
}

// Option customizes an Emitter.
type Option func(*Emitter)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Emitter) {
		if now != nil {
			e.now = now
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(e *Emitter) {
		if recorder != nil {
			e.recorder = recorder
		}
	}
}

// WithDeliveryTimeout bounds each background delivery.
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(e *Emitter) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func NewEmitter(tokens TokenSource, connect Connector, opts ...Option) *Emitter {
	if tokens == nil {
		tokens = EnvTokenSource{}
	}
	e := &Emitter{
		tokens:   tokens,
		connect:  connect,
		logger:   slog.Default(),
		now:      time.Now,
		recorder: noopRecorder{},
		timeout:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize reads the token and connects the sink. A missing or placeholder
// token, or a connector failure, leaves the emitter uninitialized.
func (e *Emitter) Initialize(ctx context.Context) {
	if e == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	token := e.tokens.Token(ctx)
	if !UsableToken(token) {
		e.setClient(nil)
		e.logger.Warn("analytics token not configured; events will not be sent",
			slog.String("hint", "set MIXPANEL_TOKEN or analytics.token"))
		return
	}
	if e.connect == nil {
		e.setClient(nil)
		e.logger.Warn("analytics connector missing; events will not be sent")
		return
	}

	sink, err := e.connect(ctx, token)
	if err != nil || sink == nil {
		e.setClient(nil)
		attrs := []any{}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		e.logger.Warn("analytics sink unavailable; events will not be sent", attrs...)
		return
	}
	e.setClient(NewClient(token, sink))
	e.logger.Info("analytics initialized")
}

// Initialized reports whether events are currently forwarded to a sink.
func (e *Emitter) Initialized() bool {
	return e.currentClient() != nil
}

// TrackPageView records a page view with the visitor's location from ctx.
func (e *Emitter) TrackPageView(ctx context.Context, page string) {
	nav, _ := NavigationFromContext(ctx)
	e.track(ctx, EventPageView, map[string]any{
		"page":     page,
		"url":      nav.URL,
		"referrer": nav.Referrer,
	}, false)
}

// TrackSearch records a search. An empty provider is reported as "all".
func (e *Emitter) TrackSearch(ctx context.Context, query, provider string, resultsCount int) {
	if provider == "" {
		provider = "all"
	}
	e.track(ctx, EventSearch, map[string]any{
		"query":         query,
		"provider":      provider,
		"results_count": resultsCount,
	}, true)
}

// TrackRequest records a submitted request. Only the email's domain and
// whether a docs link was given leave the process.
func (e *Emitter) TrackRequest(ctx context.Context, kind RequestKind, description, email, docsLink string) {
	e.track(ctx, EventRequestSubmitted, map[string]any{
		"request_type":        string(kind),
		"request_description": description,
		"has_docs_link":       docsLink != "",
		"email_domain":        EmailDomain(email),
	}, true)
}

func (e *Emitter) TrackRequestFormOpened(ctx context.Context) {
	e.track(ctx, EventRequestFormOpened, map[string]any{}, true)
}

func (e *Emitter) TrackTabChange(ctx context.Context, tab Tab) {
	e.track(ctx, EventTabChanged, map[string]any{
		"tab": string(tab),
	}, true)
}

// Flush waits for in-flight deliveries or for ctx to end. It is safe to call
// while other goroutines keep tracking.
func (e *Emitter) Flush(ctx context.Context) error {
	if e == nil {
		return nil
	}
	e.flightMu.Lock()
	idle := e.idle
	e.flightMu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) beginDelivery() {
	e.flightMu.Lock()
	if e.inflight == 0 {
		e.idle = make(chan struct{})
	}
	e.inflight++
	e.flightMu.Unlock()
}

func (e *Emitter) endDelivery() {
	e.flightMu.Lock()
	e.inflight--
	if e.inflight == 0 {
		close(e.idle)
		e.idle = nil
	}
	e.flightMu.Unlock()
}

// track hands the event to the sink on its own goroutine, detached from the
// caller's cancellation. Delivery errors are dropped here.
func (e *Emitter) track(ctx context.Context, name string, props map[string]any, stamped bool) {
	if e == nil {
		return
	}
	client := e.currentClient()
	if client == nil {
		e.recorder.RecordAnalyticsEvent(name, OutcomeSkipped)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	nav, _ := NavigationFromContext(ctx)
	event := Event{
		Name:       name,
		Properties: props,
		Time:       e.now(),
		InsertID:   uuid.NewString(),
		DistinctID: nav.DistinctID,
	}
	if stamped {
		props["timestamp"] = timeutil.FormatISO(event.Time)
	}
	e.recorder.RecordAnalyticsEvent(name, OutcomeSent)

	deliverCtx := context.WithoutCancel(ctx)
	e.beginDelivery()
	go func() {
		defer e.endDelivery()
		// Sink panics stay on this goroutine.
		defer func() { _ = recover() }()
		sendCtx, cancel := context.WithTimeout(deliverCtx, e.timeout)
		defer cancel()
		_ = client.sink.Track(sendCtx, event)
	}()
}

func (e *Emitter) currentClient() *Client {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.client
}

func (e *Emitter) setClient(client *Client) {
	e.mu.Lock()
	e.client = client
	e.mu.Unlock()
}

type noopRecorder struct{}

func (noopRecorder) RecordAnalyticsEvent(string, string) {}

// ErrNoSink is returned by connectors that have nothing to deliver to.
var ErrNoSink = errors.New("no analytics sink configured")
