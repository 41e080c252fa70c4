package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fieldaccess/internal/engine"
	"fieldaccess/internal/store"
)

// KeyLookup finds API keys by id.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, id string) (*store.APIKey, error)
}

// AuthHandler exchanges API keys for access tokens.
type AuthHandler struct {
	keys      KeyLookup
	jwtSecret string
	ttl       time.Duration
	log       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(keys KeyLookup, jwtSecret string, ttl time.Duration, log *zap.Logger) *AuthHandler {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthHandler{keys: keys, jwtSecret: jwtSecret, ttl: ttl, log: log}
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var body struct {
		KeyID  string `json:"key_id"`
		Secret string `json:"secret"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Invalid request body")
	}
	if body.KeyID == "" || body.Secret == "" {
		return engine.UnauthorizedError("key_id and secret are required")
	}

	key, err := h.keys.GetAPIKey(c.Context(), body.KeyID)
	if errors.Is(err, store.ErrNotFound) {
		return engine.UnauthorizedError("Invalid key or secret")
	}
	if err != nil {
		return errors.Wrap(err, "lookup api key")
	}

	if !CheckSecret(body.Secret, key.SecretHash) {
		h.log.Info("rejected api key", zap.String("key_id", body.KeyID))
		return engine.UnauthorizedError("Invalid key or secret")
	}

	token, err := GenerateAccessToken(key.ID, key.Roles, h.jwtSecret, h.ttl)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.ttl / time.Second),
	}})
}

// RegisterAuthRoutes registers auth routes on the given Fiber app.
func RegisterAuthRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/auth")
	auth.Post("/token", h.Token)
}
