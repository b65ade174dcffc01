package public

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/ncecere/model_directory/internal/analytics"
	"github.com/ncecere/model_directory/internal/app"
	"github.com/ncecere/model_directory/internal/httpserver/httputil"
	"github.com/ncecere/model_directory/internal/limits"
)

// HeaderDistinctID lets the UI correlate events from one visitor.
const HeaderDistinctID = "X-Distinct-Id"

// eventRateLimit bounds how many events a single client address may relay.
func eventRateLimit(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if container == nil || container.RateLimiter == nil {
			return c.Next()
		}
		err := container.RateLimiter.Allow(httputil.UserContext(c), "events:"+c.IP(), container.EventLimit)
		if err != nil {
			if errors.Is(err, limits.ErrLimitExceeded) {
				return httputil.WriteError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
			}
			container.Logger.Error("event rate limit check failed", slog.String("error", err.Error()))
			return httputil.WriteError(c, fiber.StatusInternalServerError, "rate limit unavailable")
		}
		return c.Next()
	}
}

// visitorNavigation attaches the page the visitor is on to the request context.
// Header values are copied because events outlive the request buffers.
func visitorNavigation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		nav := analytics.Navigation{
			URL:        utils.CopyString(strings.TrimSpace(c.Get(fiber.HeaderReferer))),
			DistinctID: utils.CopyString(strings.TrimSpace(c.Get(HeaderDistinctID))),
		}
		c.SetUserContext(analytics.WithNavigation(httputil.UserContext(c), nav))
		return c.Next()
	}
}
