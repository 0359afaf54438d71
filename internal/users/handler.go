package users

import (
	"context"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/apperr"
	"waste-console/internal/audit"
	"waste-console/internal/auth"
	"waste-console/internal/models"
	"waste-console/internal/paging"
)

// Store is the part of the store client used for user administration.
type Store interface {
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	GetUser(ctx context.Context, token, id string) (*models.User, error)
	CreateUser(ctx context.Context, token string, in models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, token, id string, in models.UserInput) (*models.User, error)
	DeleteUser(ctx context.Context, token, id string) error
}

type Handler struct {
	store Store
	audit audit.Recorder
	log   *zap.Logger
}

func NewHandler(store Store, rec audit.Recorder, log *zap.Logger) *Handler {
	return &Handler{store: store, audit: rec, log: log.Named("users")}
}

type UserRow struct {
	models.User
	Actions access.RowActions `json:"actions"`
}

// redacted drops the password before the input is logged or audited.
func redacted(in models.UserInput) models.UserInput {
	in.Password = nil
	return in
}

func (h *Handler) reject(c *fiber.Ctx, actor models.User, targetID string, in models.UserInput, err error) error {
	h.log.Warn("user mutation rejected",
		zap.String("user_id", actor.ID),
		zap.String("role", string(actor.Role)),
		zap.String("target_id", targetID),
		zap.Any("attempted", redacted(in)),
		zap.Error(err))
	audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
		Actor:       actor,
		EntityType:  "user",
		EntityID:    targetID,
		Action:      models.AuditActionReject,
		Description: err.Error(),
		After:       redacted(in),
	})
	return err
}

// GET /api/users?page=1&per_page=10
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := auth.Actor(c)
		all, err := h.store.ListUsers(c.UserContext(), auth.StoreToken(c))
		if err != nil {
			return err
		}

		rows := make([]UserRow, 0, len(all))
		for _, u := range all {
			if actor.Role != models.RolePlatformAdmin && u.InstitutionID != actor.InstitutionID {
				continue
			}
			rows = append(rows, UserRow{User: u, Actions: access.UserRowActions(actor, u)})
		}

		page, err := paging.Paginate(rows, c.QueryInt("page", 1), c.QueryInt("per_page", paging.DefaultPerPage))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"page":        page,
			"permissions": access.Resolve(actor).Users,
		})
	}
}

func validateFields(in models.UserInput, creating bool) error {
	if creating {
		if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
			return apperr.Validation("name", "name is required")
		}
		if in.Email == nil {
			return apperr.Validation("email", "email is required")
		}
		if in.Password == nil || len(*in.Password) < 8 {
			return apperr.Validation("password", "password must have at least 8 characters")
		}
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return apperr.Validation("email", "invalid email address")
		}
	}
	if in.Password != nil && len(*in.Password) < 8 {
		return apperr.Validation("password", "password must have at least 8 characters")
	}
	return nil
}

// POST /api/users
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := auth.Actor(c)
		var in models.UserInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validateFields(in, true); err != nil {
			return err
		}
		if err := access.ValidateUserCreate(actor, in); err != nil {
			return h.reject(c, actor, "", in, err)
		}

		created, err := h.store.CreateUser(c.UserContext(), auth.StoreToken(c), in)
		if err != nil {
			return err
		}
		audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
			Actor:       actor,
			EntityType:  "user",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: "created user " + created.Email,
			After:       created,
		})
		return c.Status(fiber.StatusCreated).JSON(UserRow{User: *created, Actions: access.UserRowActions(actor, *created)})
	}
}

// PUT /api/users/:id
func (h *Handler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := auth.Actor(c)
		var in models.UserInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validateFields(in, false); err != nil {
			return err
		}

		target, err := h.store.GetUser(c.UserContext(), auth.StoreToken(c), c.Params("id"))
		if err != nil {
			return err
		}
		if err := access.ValidateUserUpdate(actor, *target, in); err != nil {
			return h.reject(c, actor, target.ID, in, err)
		}

		updated, err := h.store.UpdateUser(c.UserContext(), auth.StoreToken(c), target.ID, in)
		if err != nil {
			return err
		}
		audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
			Actor:       actor,
			EntityType:  "user",
			EntityID:    updated.ID,
			Action:      models.AuditActionUpdate,
			Description: "updated user " + updated.Email,
			Before:      target,
			After:       updated,
		})
		return c.JSON(UserRow{User: *updated, Actions: access.UserRowActions(actor, *updated)})
	}
}

// DELETE /api/users/:id
func (h *Handler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := auth.Actor(c)
		target, err := h.store.GetUser(c.UserContext(), auth.StoreToken(c), c.Params("id"))
		if err != nil {
			return err
		}
		if err := access.AuthorizeUserDelete(actor, *target); err != nil {
			return h.reject(c, actor, target.ID, models.UserInput{}, err)
		}
		if err := h.store.DeleteUser(c.UserContext(), auth.StoreToken(c), target.ID); err != nil {
			return err
		}
		audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
			Actor:       actor,
			EntityType:  "user",
			EntityID:    target.ID,
			Action:      models.AuditActionDelete,
			Description: "deleted user " + target.Email,
			Before:      target,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
