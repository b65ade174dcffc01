package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/model_directory/internal/app"
)

// Register wires up the provider identity and event relay routes used by the
// directory UI.
func Register(app *fiber.App, container *app.Container) {
	api := app.Group("/api")

	providers := &providersHandler{container: container}
	api.Get("/providers", providers.list)
	api.Post("/providers/resolve", providers.resolve)
	api.Get("/providers/:name", providers.get)

	events := &eventsHandler{container: container}
	group := api.Group("/events", eventRateLimit(container), visitorNavigation())
	group.Post("/page-view", events.pageView)
	group.Post("/search", events.search)
	group.Post("/request", events.request)
	group.Post("/request-form-opened", events.requestFormOpened)
	group.Post("/tab", events.tab)
}
