package audit

import (
	"github.com/gofiber/fiber/v2"

	"waste-console/internal/auth"
	"waste-console/internal/models"
)

type AuditLogResponse struct {
	ID            uint               `json:"id"`
	CreatedAt     string             `json:"created_at"`
	UserID        string             `json:"user_id"`
	UserName      string             `json:"user_name"`
	Role          models.Role        `json:"role"`
	InstitutionID string             `json:"institution_id"`
	EntityType    string             `json:"entity_type"`
	EntityID      string             `json:"entity_id"`
	Action        models.AuditAction `json:"action"`
	Description   string             `json:"description"`
}

// GET /api/audit-logs?entity_type=user&entity_id=u1&user_id=u2&action=reject
func ListAuditLogsHandler(lister Lister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := auth.Actor(c)

		f := Filter{
			UserID:        c.Query("user_id"),
			InstitutionID: c.Query("institution_id"),
			EntityType:    c.Query("entity_type"),
			EntityID:      c.Query("entity_id"),
			Action:        models.AuditAction(c.Query("action")),
			Limit:         c.QueryInt("limit", defaultListLimit),
		}
		// Only platform admins read across institutions.
		if actor.Role != models.RolePlatformAdmin {
			f.InstitutionID = actor.InstitutionID
		}

		logs, err := lister.List(c.UserContext(), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "audit logs could not be listed")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:            l.ID,
				CreatedAt:     l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:        l.UserID,
				UserName:      l.UserName,
				Role:          l.Role,
				InstitutionID: l.InstitutionID,
				EntityType:    l.EntityType,
				EntityID:      l.EntityID,
				Action:        l.Action,
				Description:   l.Description,
			})
		}
		return c.JSON(resp)
	}
}
