package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fieldaccess/internal/engine"
	"fieldaccess/internal/metadata"
)

// userKey is the fiber.Ctx local the engine and admin handlers read the
// caller from.
const userKey = "user"

var (
	errMissingToken = errors.New("missing bearer token")
	errHeaderFormat = errors.New("authorization header is not a bearer token")
)

// AuthMiddleware resolves the caller from a bearer JWT signed with secret.
// Rejections are logged at debug level with their reason; the response only
// distinguishes an expired token from every other failure.
func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := authenticate(c.Get(fiber.HeaderAuthorization), secret)
		if err != nil {
			log.Debug("rejected request",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return rejection(err)
		}

		c.Locals(userKey, &metadata.UserContext{
			ID:    claims.Subject,
			Roles: claims.Roles,
		})
		return c.Next()
	}
}

func authenticate(header, secret string) (*Claims, error) {
	if header == "" {
		return nil, errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, errHeaderFormat
	}
	return ParseAccessToken(token, secret)
}

func rejection(err error) *engine.AppError {
	switch {
	case errors.Is(err, errMissingToken):
		return engine.UnauthorizedError("Missing auth token")
	case errors.Is(err, errHeaderFormat):
		return engine.UnauthorizedError("Invalid auth header format")
	case errors.Is(err, jwt.ErrTokenExpired):
		return engine.UnauthorizedError("Token expired")
	default:
		return engine.UnauthorizedError("Invalid token")
	}
}

// RequireAdmin lets only callers with the admin role through. It must run
// after AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return engine.UnauthorizedError("Missing auth token")
		}
		if !user.IsAdmin() {
			return engine.ForbiddenError("Admin access required")
		}
		return c.Next()
	}
}

// GetUser returns the caller AuthMiddleware stored, or nil.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals(userKey).(*metadata.UserContext)
	return user
}
