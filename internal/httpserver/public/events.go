package public

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/model_directory/internal/analytics"
	"github.com/ncecere/model_directory/internal/app"
	"github.com/ncecere/model_directory/internal/httpserver/httputil"
)

// HeaderIdempotencyKey marks retries of the same event post.
const HeaderIdempotencyKey = "Idempotency-Key"

type eventsHandler struct {
	container *app.Container
}

type pageViewRequest struct {
	Page     string `json:"page"`
	URL      string `json:"url"`
	Referrer string `json:"referrer"`
}

type searchRequest struct {
	Query        string `json:"query"`
	Provider     string `json:"provider"`
	ResultsCount *int   `json:"results_count"`
}

type requestSubmission struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Email       string `json:"email"`
	DocsLink    string `json:"docs_link"`
}

type tabRequest struct {
	Tab string `json:"tab"`
}

func (h *eventsHandler) pageView(c *fiber.Ctx) error {
	var req pageViewRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Page = strings.TrimSpace(req.Page)
	if req.Page == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "page is required")
	}

	return h.relay(c, func(ctx context.Context) {
		nav, _ := analytics.NavigationFromContext(ctx)
		if req.URL != "" {
			nav.URL = req.URL
		}
		if req.Referrer != "" {
			nav.Referrer = req.Referrer
		}
		h.container.Analytics.TrackPageView(analytics.WithNavigation(ctx, nav), req.Page)
	})
}

func (h *eventsHandler) search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	count := 0
	if req.ResultsCount != nil {
		if *req.ResultsCount < 0 {
			return httputil.WriteError(c, fiber.StatusBadRequest, "results_count must be >= 0")
		}
		count = *req.ResultsCount
	}
	return h.relay(c, func(ctx context.Context) {
		h.container.Analytics.TrackSearch(ctx, req.Query, req.Provider, count)
	})
}

func (h *eventsHandler) request(c *fiber.Ctx) error {
	var req requestSubmission
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	kind := analytics.RequestKind(strings.ToLower(strings.TrimSpace(req.Type)))
	if !kind.Valid() {
		return httputil.WriteError(c, fiber.StatusBadRequest, "type must be provider, endpoint, or model")
	}
	return h.relay(c, func(ctx context.Context) {
		h.container.Analytics.TrackRequest(ctx, kind, req.Description, strings.TrimSpace(req.Email), strings.TrimSpace(req.DocsLink))
	})
}

func (h *eventsHandler) requestFormOpened(c *fiber.Ctx) error {
	return h.relay(c, h.container.Analytics.TrackRequestFormOpened)
}

func (h *eventsHandler) tab(c *fiber.Ctx) error {
	var req tabRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	tab := analytics.Tab(strings.ToLower(strings.TrimSpace(req.Tab)))
	if !tab.Valid() {
		return httputil.WriteError(c, fiber.StatusBadRequest, "tab must be models or providers")
	}
	return h.relay(c, func(ctx context.Context) {
		h.container.Analytics.TrackTabChange(ctx, tab)
	})
}

// relay tracks the event unless its idempotency key was already seen, and
// answers 202 even when the relay is unconfigured.
func (h *eventsHandler) relay(c *fiber.Ctx, track func(ctx context.Context)) error {
	ctx := httputil.UserContext(c)
	claimed, err := h.container.Dedupe.Claim(ctx, strings.TrimSpace(c.Get(HeaderIdempotencyKey)))
	if err != nil {
		h.container.Logger.Warn("event dedupe unavailable", slog.String("error", err.Error()))
		claimed = true
	}
	if claimed {
		track(ctx)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted":  true,
		"duplicate": !claimed,
		"forwarded": claimed && h.container.Analytics.Initialized(),
	})
}
