package public

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/model_directory/internal/app"
	"github.com/ncecere/model_directory/internal/catalog"
	"github.com/ncecere/model_directory/internal/httpserver/httputil"
)

const maxResolveBatch = 100

type providersHandler struct {
	container *app.Container
}

type resolveRequest struct {
	Providers []string `json:"providers"`
}

func (h *providersHandler) list(c *fiber.Ctx) error {
	names := catalog.KnownProviders()
	out := make([]catalog.Identity, 0, len(names))
	for _, name := range names {
		out = append(out, catalog.Resolve(name))
	}
	return c.JSON(fiber.Map{"providers": out})
}

func (h *providersHandler) get(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid provider name")
	}
	return c.JSON(h.resolveOne(name))
}

func (h *providersHandler) resolve(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Providers) > maxResolveBatch {
		return httputil.WriteError(c, fiber.StatusBadRequest, "too many providers in one request")
	}
	out := make([]catalog.Identity, 0, len(req.Providers))
	for _, name := range req.Providers {
		out = append(out, h.resolveOne(name))
	}
	return c.JSON(fiber.Map{"providers": out})
}

func (h *providersHandler) resolveOne(name string) catalog.Identity {
	identity := catalog.Resolve(strings.TrimSpace(name))
	if h.container != nil {
		h.container.Observability.RecordIdentityLookup(identity.HasLogo)
	}
	return identity
}
