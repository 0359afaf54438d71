package tickets

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/apperr"
	"waste-console/internal/audit"
	"waste-console/internal/auth"
	"waste-console/internal/filter"
	"waste-console/internal/grouping"
	"waste-console/internal/locale"
	"waste-console/internal/models"
	"waste-console/internal/paging"
	"waste-console/internal/store"
)

// Store is the part of the store client used for tickets.
type Store interface {
	ListAllTickets(ctx context.Context, token string, rt models.ReportType, q store.TicketQuery) (*store.TicketPage, error)
	GetTicket(ctx context.Context, token string, rt models.ReportType, id string) (*models.WasteTicket, error)
	CreateTicket(ctx context.Context, token string, rt models.ReportType, in models.TicketInput) (*models.WasteTicket, error)
	UpdateTicket(ctx context.Context, token string, rt models.ReportType, id string, in models.TicketInput) (*models.WasteTicket, error)
	DeleteTicket(ctx context.Context, token string, rt models.ReportType, id string) error
}

// SectorSource resolves sector numbers in filters.
type SectorSource interface {
	Sectors(ctx context.Context, token string) ([]models.Sector, error)
}

type Handler struct {
	store   Store
	sectors SectorSource
	audit   audit.Recorder
	log     *zap.Logger
	now     func() time.Time
}

func NewHandler(st Store, sectors SectorSource, rec audit.Recorder, log *zap.Logger) *Handler {
	return &Handler{store: st, sectors: sectors, audit: rec, log: log.Named("tickets"), now: time.Now}
}

type TicketRow struct {
	models.WasteTicket
	Actions access.RowActions `json:"actions"`
}

type ListResponse struct {
	Filter         models.ReportFilter    `json:"filter"`
	Page           paging.Page[TicketRow] `json:"page"`
	Summary        models.TicketSummary   `json:"summary"`
	Suppliers      []models.Party         `json:"suppliers"`
	Operators      []models.Party         `json:"operators"`
	AvailableYears []int                  `json:"available_years"`
	Permissions    access.Permissions     `json:"permissions"`
}

func reportType(c *fiber.Ctx) (models.ReportType, error) {
	rt, ok := models.ParseReportType(c.Params("type"))
	if !ok {
		return "", fiber.NewError(fiber.StatusNotFound, "unknown ticket type "+c.Params("type"))
	}
	return rt, nil
}

// QueryLookup adapts fiber query args to filter.Lookup.
func QueryLookup(c *fiber.Ctx) filter.Lookup {
	args := c.Context().QueryArgs()
	return func(key string) (string, bool) {
		return string(args.Peek(key)), args.Has(key)
	}
}

// ScopedSummary returns the store's totals when the actor sees everything, otherwise
// totals recomputed over the visible tickets.
func ScopedSummary(rt models.ReportType, scope access.Scope, storeSummary models.TicketSummary, visible []models.WasteTicket) models.TicketSummary {
	if scope.All {
		return storeSummary
	}
	adapter, _ := grouping.AdapterFor(rt)
	var kg int64
	for _, t := range visible {
		kg += adapter.Quantity(t)
	}
	return models.TicketSummary{TotalTons: locale.KgToTons(kg), TotalTickets: len(visible)}
}

// GET /api/tickets/:type?year=2025&from=&to=&sector=3&page=1&per_page=10
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		actor := auth.Actor(c)
		token := auth.StoreToken(c)

		in, err := filter.FromQuery(QueryLookup(c))
		if err != nil {
			return err
		}
		if in.Year == nil && in.From == "" && in.To == "" {
			year := h.now().Year()
			in.Year = &year
		}
		sectors, err := h.sectors.Sectors(c.UserContext(), token)
		if err != nil {
			return err
		}
		f, err := filter.Normalize(in, h.now(), sectors)
		if err != nil {
			return err
		}

		res, err := h.store.ListAllTickets(c.UserContext(), token, rt, store.TicketQuery{
			Year:     f.Year,
			From:     f.FromString(),
			To:       f.ToString(),
			SectorID: f.Sector.ID(),
		})
		if err != nil {
			return err
		}

		perms := access.Resolve(actor)
		visible := access.FilterTickets(perms.Scope, res.Items)
		rows := make([]TicketRow, 0, len(visible))
		for _, t := range visible {
			rows = append(rows, TicketRow{WasteTicket: t, Actions: access.TicketRowActions(actor, t)})
		}
		page, err := paging.Paginate(rows, f.Page, f.PerPage)
		if err != nil {
			return err
		}

		return c.JSON(ListResponse{
			Filter:         f,
			Page:           page,
			Summary:        ScopedSummary(rt, perms.Scope, res.Summary, visible),
			Suppliers:      res.Suppliers,
			Operators:      res.Operators,
			AvailableYears: res.AvailableYears,
			Permissions:    perms,
		})
	}
}

// GET /api/tickets/:type/:id
func (h *Handler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		actor := auth.Actor(c)
		t, err := h.store.GetTicket(c.UserContext(), auth.StoreToken(c), rt, c.Params("id"))
		if err != nil {
			return err
		}
		if !access.Resolve(actor).Scope.AllowsTicket(*t) {
			return apperr.Authorization("ticket %s is outside your scope", t.ID)
		}
		return c.JSON(TicketRow{WasteTicket: *t, Actions: access.TicketRowActions(actor, *t)})
	}
}

func (h *Handler) reject(c *fiber.Ctx, rt models.ReportType, actor models.User, ticketID string, in any, err error) error {
	h.log.Warn("ticket mutation rejected",
		zap.String("user_id", actor.ID),
		zap.String("role", string(actor.Role)),
		zap.String("report_type", string(rt)),
		zap.String("ticket_id", ticketID),
		zap.Any("attempted", in),
		zap.Error(err))
	audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
		Actor:       actor,
		EntityType:  "ticket:" + string(rt),
		EntityID:    ticketID,
		Action:      models.AuditActionReject,
		Description: err.Error(),
		After:       in,
	})
	return err
}

// POST /api/tickets/:type
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		actor := auth.Actor(c)

		var in models.TicketInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := access.AuthorizeTicketCreate(actor, in); err != nil {
			return h.reject(c, rt, actor, "", in, err)
		}
		prepared, err := Prepare(rt, in, nil)
		if err != nil {
			return err
		}

		created, err := h.store.CreateTicket(c.UserContext(), auth.StoreToken(c), rt, prepared)
		if err != nil {
			return err
		}
		audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
			Actor:       actor,
			EntityType:  "ticket:" + string(rt),
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: "created ticket " + created.TicketNumber,
			After:       created,
		})
		return c.Status(fiber.StatusCreated).JSON(TicketRow{WasteTicket: *created, Actions: access.TicketRowActions(actor, *created)})
	}
}

// PUT /api/tickets/:type/:id
func (h *Handler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		actor := auth.Actor(c)
		if !access.Resolve(actor).CanEdit {
			return h.reject(c, rt, actor, c.Params("id"), nil, apperr.Authorization("role %s may not edit tickets", actor.Role))
		}

		var in models.TicketInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		current, err := h.store.GetTicket(c.UserContext(), auth.StoreToken(c), rt, c.Params("id"))
		if err != nil {
			return err
		}
		if err := access.AuthorizeTicketUpdate(actor, *current, in); err != nil {
			return h.reject(c, rt, actor, current.ID, in, err)
		}
		prepared, err := Prepare(rt, in, current)
		if err != nil {
			return err
		}

		updated, err := h.store.UpdateTicket(c.UserContext(), auth.StoreToken(c), rt, current.ID, prepared)
		if err != nil {
			return err
		}
		desc := "updated ticket " + updated.TicketNumber
		if updated.TicketNumber != current.TicketNumber {
			desc = "renumbered ticket " + current.TicketNumber + " to " + updated.TicketNumber
		}
		audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
			Actor:       actor,
			EntityType:  "ticket:" + string(rt),
			EntityID:    updated.ID,
			Action:      models.AuditActionUpdate,
			Description: desc,
			Before:      current,
			After:       updated,
		})
		return c.JSON(TicketRow{WasteTicket: *updated, Actions: access.TicketRowActions(actor, *updated)})
	}
}

// DELETE /api/tickets/:type/:id
func (h *Handler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		actor := auth.Actor(c)
		if !access.Resolve(actor).CanDelete {
			return h.reject(c, rt, actor, c.Params("id"), nil, apperr.Authorization("role %s may not delete tickets", actor.Role))
		}

		current, err := h.store.GetTicket(c.UserContext(), auth.StoreToken(c), rt, c.Params("id"))
		if err != nil {
			return err
		}
		if err := access.AuthorizeTicketDelete(actor, *current); err != nil {
			return h.reject(c, rt, actor, current.ID, nil, err)
		}
		if err := h.store.DeleteTicket(c.UserContext(), auth.StoreToken(c), rt, current.ID); err != nil {
			return err
		}
		audit.Try(c.UserContext(), h.audit, h.log, audit.LogOptions{
			Actor:       actor,
			EntityType:  "ticket:" + string(rt),
			EntityID:    current.ID,
			Action:      models.AuditActionDelete,
			Description: "deleted ticket " + current.TicketNumber,
			Before:      current,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
