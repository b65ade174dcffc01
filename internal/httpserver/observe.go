package httpserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncecere/model_directory/internal/observability"
)

// unmatchedRoute labels requests that no directory route handled.
const unmatchedRoute = "unmatched"

// observeRequests records one metrics sample per request and, when tracing is
// configured, wraps the request in a span.
func observeRequests(obs *observability.Provider) fiber.Handler {
	var tracer trace.Tracer
	if obs.TracerProvider() != nil {
		tracer = otel.Tracer("model-directory/http")
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		var span trace.Span
		if tracer != nil {
			ctx, s := tracer.Start(c.UserContext(), c.Method()+" "+c.Path())
			c.SetUserContext(ctx)
			span = s
		}

		err := c.Next()
		status := responseStatus(c, err)
		route := routeLabel(c, status)

		obs.RecordHTTPRequest(c.UserContext(), c.Method(), route, status, time.Since(start))
		if span != nil {
			finishSpan(span, c.Method(), route, status, err)
		}
		return err
	}
}

// responseStatus reports the status the error handler will write for err.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// routeLabel prefers the registered route pattern so provider names do not
// become label values.
func routeLabel(c *fiber.Ctx, status int) string {
	if status == fiber.StatusNotFound {
		return unmatchedRoute
	}
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return unmatchedRoute
}

func finishSpan(span trace.Span, method, route string, status int, err error) {
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	switch {
	case err != nil && status >= fiber.StatusInternalServerError:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= fiber.StatusInternalServerError:
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
	default:
		span.SetStatus(codes.Ok, "")
	}
}
