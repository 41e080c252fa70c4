package admin

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/r3labs/diff"
	"go.uber.org/zap"

	"fieldaccess/internal/auth"
	"fieldaccess/internal/engine"
	"fieldaccess/internal/metadata"
	"fieldaccess/internal/store"
)

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	eval     *engine.ExprLangEvaluator
	log      *zap.Logger

	seedFile string
	seedMu   sync.Mutex
	seed     []*metadata.Entity // last good contents of seedFile
}

// NewHandler creates the admin handler. seedFile is the optional entity
// definitions file; it is re-read on every reload and merged over the stored
// definitions so file entities survive admin mutations.
func NewHandler(s *store.Store, reg *metadata.Registry, eval *engine.ExprLangEvaluator, seedFile string, log *zap.Logger) *Handler {
	return &Handler{store: s, registry: reg, eval: eval, seedFile: seedFile, log: log}
}

// LoadSeed reads the entities file and remembers its contents. No file
// configured yields nil.
func (h *Handler) LoadSeed() ([]*metadata.Entity, error) {
	if h.seedFile == "" {
		return nil, nil
	}
	seed, err := metadata.LoadFile(h.seedFile)
	if err != nil {
		return nil, err
	}
	metadata.LintAll(h.log, seed)

	h.seedMu.Lock()
	h.seed = seed
	h.seedMu.Unlock()
	return seed, nil
}

// currentSeed re-reads the entities file. A file that no longer loads keeps
// the previous definitions.
func (h *Handler) currentSeed() []*metadata.Entity {
	seed, err := h.LoadSeed()
	if err == nil {
		return seed
	}
	h.log.Warn("entities file unreadable, keeping previous definitions",
		zap.String("file", h.seedFile), zap.Error(err))

	h.seedMu.Lock()
	defer h.seedMu.Unlock()
	return h.seed
}

// RegisterAdminRoutes mounts /api/_admin. middleware runs first, typically
// authentication followed by auth.RequireAdmin.
func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/entities", h.ListEntities)
	admin.Get("/entities/:name", h.GetEntity)
	admin.Post("/entities", h.CreateEntity)
	admin.Put("/entities/:name", h.UpdateEntity)
	admin.Delete("/entities/:name", h.DeleteEntity)
	admin.Get("/entities/:name/lint", h.LintEntity)

	admin.Get("/api-keys", h.ListAPIKeys)
	admin.Post("/api-keys", h.CreateAPIKey)
	admin.Delete("/api-keys/:id", h.DeleteAPIKey)

	admin.Post("/reload", h.ReloadRegistry)
}

// --- Entity Endpoints ---

func (h *Handler) ListEntities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.registry.AllEntities()})
}

func (h *Handler) GetEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return engine.NotFoundError("Entity", name)
	}
	return c.JSON(fiber.Map{"data": entity})
}

func (h *Handler) LintEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return engine.NotFoundError("Entity", name)
	}
	return c.JSON(fiber.Map{"data": lintIssues(entity)})
}

func (h *Handler) CreateEntity(c *fiber.Ctx) error {
	var entity metadata.Entity
	if err := c.BodyParser(&entity); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	if err := h.validate(&entity); err != nil {
		return err
	}

	def, err := metadata.EncodeEntity(&entity)
	if err != nil {
		return err
	}
	err = h.store.InsertEntityDefinition(c.Context(), store.EntityDefinition{Name: entity.Name, Definition: def})
	if errors.Is(err, store.ErrUniqueViolation) {
		return engine.ConflictError("Entity already exists: " + entity.Name)
	}
	if err != nil {
		return errors.Wrapf(err, "insert entity %s", entity.Name)
	}

	if err := h.reload(c.Context()); err != nil {
		return err
	}

	h.log.Info("entity created", zap.String("entity", entity.Name))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":     entity,
		"warnings": lintIssues(&entity),
	})
}

func (h *Handler) UpdateEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	stored, err := h.store.GetEntityDefinition(c.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return engine.NotFoundError("Entity", name)
	}
	if err != nil {
		return err
	}

	var entity metadata.Entity
	if err := c.BodyParser(&entity); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	entity.Name = name // ensure name matches URL

	if err := h.validate(&entity); err != nil {
		return err
	}

	// a stored definition that no longer decodes diffs against nothing
	previous := metadata.Entity{Name: name}
	if old, err := metadata.DecodeEntity(stored.Definition); err == nil {
		previous = *old
	} else {
		h.log.Warn("stored entity definition is invalid", zap.String("entity", name), zap.Error(err))
	}

	changelog, err := diff.Diff(previous, entity)
	if err != nil {
		return errors.Wrap(err, "diff entity")
	}

	def, err := metadata.EncodeEntity(&entity)
	if err != nil {
		return err
	}
	if err := h.store.UpdateEntityDefinition(c.Context(), store.EntityDefinition{Name: name, Definition: def}); err != nil {
		return errors.Wrapf(err, "update entity %s", name)
	}

	if err := h.reload(c.Context()); err != nil {
		return err
	}

	h.log.Info("entity updated", zap.String("entity", name), zap.Int("changes", len(changelog)))
	return c.JSON(fiber.Map{
		"data":     entity,
		"changes":  changes(changelog),
		"warnings": lintIssues(&entity),
	})
}

func (h *Handler) DeleteEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	err := h.store.DeleteEntityDefinition(c.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return engine.NotFoundError("Entity", name)
	}
	if err != nil {
		return err
	}

	if err := h.reload(c.Context()); err != nil {
		return err
	}

	h.log.Info("entity deleted", zap.String("entity", name))
	return c.JSON(fiber.Map{"data": fiber.Map{"name": name}})
}

func (h *Handler) ReloadRegistry(c *fiber.Ctx) error {
	if err := h.reload(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"entities": h.registry.Len()}})
}

// --- API key Endpoints ---

func (h *Handler) ListAPIKeys(c *fiber.Ctx) error {
	keys, err := h.store.ListAPIKeys(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": keys})
}

// CreateAPIKey issues a key. The plaintext secret is only ever returned here.
func (h *Handler) CreateAPIKey(c *fiber.Ctx) error {
	var body struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	if body.Name == "" {
		return engine.ValidationError([]engine.ErrorDetail{{Field: "name", Rule: "required", Message: "name is required"}})
	}

	secret := auth.GenerateSecret()
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return err
	}

	key := store.APIKey{
		ID:         auth.GenerateKeyID(),
		Name:       body.Name,
		SecretHash: hash,
		Roles:      body.Roles,
	}
	if key.Roles == nil {
		key.Roles = []string{}
	}
	if err := h.store.InsertAPIKey(c.Context(), key); err != nil {
		return errors.Wrap(err, "insert api key")
	}

	h.log.Info("api key issued", zap.String("key_id", key.ID), zap.Strings("roles", key.Roles))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":     key.ID,
		"name":   key.Name,
		"roles":  key.Roles,
		"secret": secret,
	}})
}

func (h *Handler) DeleteAPIKey(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.store.DeleteAPIKey(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return engine.NotFoundError("API key", id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// --- helpers ---

func (h *Handler) validate(e *metadata.Entity) error {
	if err := metadata.ValidateEntity(e); err != nil {
		return engine.ValidationError([]engine.ErrorDetail{{Rule: "schema", Message: err.Error()}})
	}
	if details := h.eval.CheckExpressions(e); len(details) > 0 {
		return engine.ValidationError(details)
	}
	return nil
}

func (h *Handler) reload(ctx context.Context) error {
	if err := metadata.Reload(ctx, h.store, h.registry, h.log); err != nil {
		return errors.Wrap(err, "reload registry")
	}
	h.registry.Merge(h.currentSeed())
	return nil
}

func lintIssues(e *metadata.Entity) []metadata.Issue {
	issues := metadata.LintEntity(e)
	if issues == nil {
		issues = []metadata.Issue{}
	}
	return issues
}
