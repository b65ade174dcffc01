package httpserver

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/model_directory/internal/app"
)

const healthTimeout = 2 * time.Second

type componentHealth struct {
	Status    string `json:"status"`
	LatencyMS *int64 `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

type healthReport struct {
	Status string                     `json:"status"`
	Checks map[string]componentHealth `json:"checks"`
}

func registerHealthRoutes(router fiber.Router, container *app.Container) {
	router.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
		defer cancel()
		return c.JSON(checkHealth(ctx, container))
	})
}

// checkHealth always answers 200; a failed Redis ping only degrades the report.
func checkHealth(ctx context.Context, container *app.Container) healthReport {
	report := healthReport{Status: "ok", Checks: map[string]componentHealth{}}

	if container.Redis != nil {
		start := time.Now()
		err := container.Redis.Ping(ctx).Err()
		latency := time.Since(start).Milliseconds()
		check := componentHealth{Status: "ok", LatencyMS: &latency}
		if err != nil {
			check.Status = "error"
			check.Error = err.Error()
			report.Status = "degraded"
		}
		report.Checks["redis"] = check
	}

	// An unconfigured relay is a supported mode.
	relay := componentHealth{Status: "disabled"}
	if container.Analytics.Initialized() {
		relay.Status = "ok"
	}
	report.Checks["analytics"] = relay
	return report
}
