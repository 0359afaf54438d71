package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/apperr"
	"waste-console/internal/models"
	"waste-console/internal/session"
	"waste-console/internal/store"
)

// Authenticator is the part of the store client used for logins.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*store.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*store.Tokens, error)
	Logout(ctx context.Context, accessToken string) error
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token       string             `json:"token"`
	ExpiresAt   time.Time          `json:"expires_at"`
	User        models.User        `json:"user"`
	Permissions access.Permissions `json:"permissions"`
}

func newTokenResponse(secret string, s *session.Session) (*tokenResponse, error) {
	token, err := GenerateToken(secret, s)
	if err != nil {
		return nil, err
	}
	return &tokenResponse{
		Token:       token,
		ExpiresAt:   s.ExpiresAt,
		User:        s.Actor,
		Permissions: access.Resolve(s.Actor),
	}, nil
}

// POST /api/auth/login
func LoginHandler(secret string, authn Authenticator, sessions *session.Manager, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
		}

		res, err := authn.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			switch apperr.KindOf(err) {
			case apperr.KindAuthorization, apperr.KindValidation, apperr.KindNotFound:
				return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
			}
			return err
		}
		if !res.User.Role.Valid() {
			log.Warn("login with unknown role", zap.String("user_id", res.User.ID), zap.String("role", string(res.User.Role)))
			return fiber.NewError(fiber.StatusForbidden, "this account has no console role")
		}
		if !res.User.Active {
			return fiber.NewError(fiber.StatusForbidden, "this account is disabled")
		}

		s, err := sessions.Start(c.UserContext(), res)
		if err != nil {
			return err
		}
		resp, err := newTokenResponse(secret, s)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}
		log.Info("user logged in", zap.String("user_id", s.Actor.ID), zap.String("role", string(s.Actor.Role)))
		return c.JSON(resp)
	}
}

// POST /api/auth/refresh
func RefreshHandler(secret string, authn Authenticator, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := CurrentSession(c)
		if s == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "no session")
		}
		tokens, err := authn.Refresh(c.UserContext(), s.Tokens.RefreshToken)
		if err != nil {
			if apperr.Is(err, apperr.KindAuthorization) {
				_ = sessions.End(c.UserContext(), s.ID)
				return fiber.NewError(fiber.StatusUnauthorized, "session can no longer be refreshed")
			}
			return err
		}
		if err := sessions.Rotate(c.UserContext(), s, *tokens); err != nil {
			return err
		}
		resp, err := newTokenResponse(secret, s)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}
		return c.JSON(resp)
	}
}

// POST /api/auth/logout
func LogoutHandler(authn Authenticator, sessions *session.Manager, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := CurrentSession(c)
		if s == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		if err := authn.Logout(c.UserContext(), s.Tokens.AccessToken); err != nil {
			log.Warn("store logout failed", zap.String("session_id", s.ID), zap.Error(err))
		}
		if err := sessions.End(c.UserContext(), s.ID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := Actor(c)
		return c.JSON(fiber.Map{
			"user":        actor,
			"permissions": access.Resolve(actor),
		})
	}
}

// GET /api/access
func PermissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(access.Resolve(Actor(c)))
	}
}

// GET /api/access/pages/:page
func PageAccessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Actor(c).Role
		page := access.PageID(c.Params("page"))
		return c.JSON(fiber.Map{
			"page":    page,
			"level":   access.PageLevel(role, page),
			"allowed": access.HasAccess(role, page),
		})
	}
}
