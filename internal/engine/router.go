package engine

import "github.com/gofiber/fiber/v2"

// RegisterAccessRoutes mounts the access endpoints under /api/:entity.
// middleware runs before every handler, typically authentication.
func RegisterAccessRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api")

	api.Get("/:entity/_schema", chain(middleware, h.Schema)...)
	api.Get("/:entity/_permissions", chain(middleware, h.Permissions)...)
	api.Get("/:entity/_access", chain(middleware, h.Access)...)
	api.Get("/:entity/_access/:field", chain(middleware, h.FieldAccess)...)
	api.Post("/:entity/_filter", chain(middleware, h.Filter)...)
	api.Post("/:entity/_validate", chain(middleware, h.Validate)...)
}

func chain(middleware []fiber.Handler, h fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	return append(handlers, h)
}
