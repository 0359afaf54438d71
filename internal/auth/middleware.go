package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/models"
	"waste-console/internal/session"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxSessionKey  = "session"
)

// JWTMiddleware verifies the console token and loads its session.
func JWTMiddleware(secret string, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		s, err := sessions.Load(c.UserContext(), claims.SessionID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(CtxUserIDKey, s.Actor.ID)
		c.Locals(CtxUserRoleKey, s.Actor.Role)
		c.Locals(CtxSessionKey, s)

		return c.Next()
	}
}

// CurrentSession returns the session loaded by JWTMiddleware, nil outside protected routes.
func CurrentSession(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(CtxSessionKey).(*session.Session)
	return s
}

// Actor returns the authenticated user, a zero User when there is none.
func Actor(c *fiber.Ctx) models.User {
	if s := CurrentSession(c); s != nil {
		return s.Actor
	}
	return models.User{}
}

// StoreToken is the access token forwarded to the store for this request.
func StoreToken(c *fiber.Ctx) string {
	if s := CurrentSession(c); s != nil {
		return s.Tokens.AccessToken
	}
	return ""
}

func RequireRole(allowedRoles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.Role)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role is not known")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "you are not allowed to do this")
	}
}

// RequirePage gates a route on the page access table.
func RequirePage(log *zap.Logger, page func(c *fiber.Ctx) access.PageID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := Actor(c)
		p := page(c)
		if !access.HasAccess(actor.Role, p) {
			log.Warn("page access denied",
				zap.String("user_id", actor.ID),
				zap.String("role", string(actor.Role)),
				zap.String("page", string(p)))
			return fiber.NewError(fiber.StatusForbidden, "you do not have access to this page")
		}
		return c.Next()
	}
}

// Page is a RequirePage selector for a fixed page.
func Page(p access.PageID) func(*fiber.Ctx) access.PageID {
	return func(*fiber.Ctx) access.PageID { return p }
}
