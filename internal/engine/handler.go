package engine

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

type Handler struct {
	registry *metadata.Registry
	eval     ExpressionEvaluator
	log      *zap.Logger
}

func NewHandler(reg *metadata.Registry, eval ExpressionEvaluator, log *zap.Logger) *Handler {
	return &Handler{registry: reg, eval: eval, log: log}
}

// Schema handles GET /api/:entity/_schema
func (h *Handler) Schema(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"name":   entity.Name,
		"label":  entity.Label,
		"fields": entity.ClientFields(),
	}})
}

// Permissions handles GET /api/:entity/_permissions
func (h *Handler) Permissions(c *fiber.Ctx) error {
	entity, perms, err := h.entityPermissions(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"entity":      entity.Name,
		"permissions": perms,
	}})
}

// Access handles GET /api/:entity/_access?operation=update
func (h *Handler) Access(c *fiber.Ctx) error {
	op, err := parseOperation(c.Query("operation"), permissions.OperationRead)
	if err != nil {
		return err
	}
	entity, perms, err := h.entityPermissions(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"entity":    entity.Name,
		"operation": op,
		"fields":    ResolveTree(entity.Fields, op, c.Query("parent"), perms),
	}})
}

// FieldAccess handles GET /api/:entity/_access/:field?operation=update&parent=
// where :field is a dot-separated data path.
func (h *Handler) FieldAccess(c *fiber.Ctx) error {
	op, err := parseOperation(c.Query("operation"), permissions.OperationRead)
	if err != nil {
		return err
	}
	entity, perms, err := h.entityPermissions(c)
	if err != nil {
		return err
	}

	path := c.Params("field")
	result, ok := ResolvePath(entity.Fields, path, op, c.Query("parent"), perms)
	if !ok {
		return UnknownFieldError(entity.Name, path)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"entity":      entity.Name,
		"field":       path,
		"operation":   op,
		"allowed":     result.Operation,
		"read":        result.Read,
		"permissions": result.Permissions,
	}})
}

// Filter handles POST /api/:entity/_filter
func (h *Handler) Filter(c *fiber.Ctx) error {
	entity, perms, err := h.entityPermissions(c)
	if err != nil {
		return err
	}
	record, err := parseBody(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": FilterReadable(entity.Fields, perms, record)})
}

// Validate handles POST /api/:entity/_validate?operation=create
func (h *Handler) Validate(c *fiber.Ctx) error {
	op, err := parseOperation(c.Query("operation"), permissions.OperationCreate)
	if err != nil {
		return err
	}
	entity, perms, err := h.entityPermissions(c)
	if err != nil {
		return err
	}
	body, err := parseBody(c)
	if err != nil {
		return err
	}

	if details := CheckWritable(entity.Fields, op, perms, body); len(details) > 0 {
		return ForbiddenFieldsError(string(op), details)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) resolveEntity(c *fiber.Ctx) (*metadata.Entity, error) {
	name := c.Params("entity")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return nil, UnknownEntityError(name)
	}
	return entity, nil
}

// entityPermissions resolves the entity and builds the caller's permissions
// for it. Expression failures are logged; the affected operations are denied.
func (h *Handler) entityPermissions(c *fiber.Ctx) (*metadata.Entity, permissions.Permissions, error) {
	user := getUser(c)
	if user == nil {
		return nil, permissions.Absent, UnauthorizedError("Authentication required")
	}
	entity, err := h.resolveEntity(c)
	if err != nil {
		return nil, permissions.Absent, err
	}

	perms, err := BuildPermissions(entity, user, h.eval)
	if err != nil {
		h.log.Warn("access expression failed",
			zap.String("entity", entity.Name),
			zap.String("user", user.ID),
			zap.Error(err),
		)
	}
	return entity, perms, nil
}

func parseOperation(s string, def permissions.Operation) (permissions.Operation, error) {
	if s == "" {
		return def, nil
	}
	for _, op := range permissions.Operations {
		if string(op) == s {
			return op, nil
		}
	}
	return "", InvalidPayloadError("Unknown operation: " + s)
}

func parseBody(c *fiber.Ctx) (map[string]any, error) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, InvalidPayloadError("Invalid JSON body")
	}
	if body == nil {
		return nil, InvalidPayloadError("Body must be a JSON object")
	}
	return body, nil
}

func getUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
