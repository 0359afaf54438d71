package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/apperr"
	"waste-console/internal/auth"
	"waste-console/internal/export"
	"waste-console/internal/filter"
	"waste-console/internal/grouping"
	"waste-console/internal/locale"
	"waste-console/internal/models"
	"waste-console/internal/paging"
	"waste-console/internal/tickets"
)

type Handler struct {
	svc           *Service
	jobs          *Jobs
	exportTimeout time.Duration
	log           *zap.Logger
}

func NewHandler(svc *Service, jobs *Jobs, exportTimeout time.Duration, log *zap.Logger) *Handler {
	if exportTimeout <= 0 {
		exportTimeout = DefaultJobTimeout
	}
	return &Handler{svc: svc, jobs: jobs, exportTimeout: exportTimeout, log: log.Named("reports")}
}

type GroupView struct {
	Name      string               `json:"name"`
	TotalKg   int64                `json:"total_kg"`
	TotalTons string               `json:"total_tons"`
	Percent   float64              `json:"percent"`
	Codes     []grouping.CodeShare `json:"codes"`
}

type ReportResponse struct {
	ReportType     models.ReportType              `json:"report_type"`
	Filter         models.ReportFilter            `json:"filter"`
	Location       string                         `json:"location"`
	Summary        models.TicketSummary           `json:"summary"`
	Groups         []GroupView                    `json:"groups"`
	ByCode         []grouping.CodeTotal           `json:"by_code"`
	Page           paging.Page[tickets.TicketRow] `json:"page"`
	AvailableYears []int                          `json:"available_years"`
	Permissions    access.Permissions             `json:"permissions"`
}

func groupViews(groups []grouping.Summary) []GroupView {
	total := grouping.Total(groups)
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupView{
			Name:      g.Name,
			TotalKg:   g.Total,
			TotalTons: locale.FormatTons(g.Total),
			Percent:   locale.Share(g.Total, total),
			Codes:     g.Shares(),
		})
	}
	return out
}

func reportType(c *fiber.Ctx) (models.ReportType, error) {
	rt, ok := models.ParseReportType(c.Params("type"))
	if !ok {
		return "", fiber.NewError(fiber.StatusNotFound, "unknown report type "+c.Params("type"))
	}
	return rt, nil
}

// GET /api/reports/:type?year=2025&from=&to=&override=&sector=&page=&per_page=
func (h *Handler) View() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		in, err := filter.FromQuery(tickets.QueryLookup(c))
		if err != nil {
			return err
		}
		actor := auth.Actor(c)

		d, err := h.svc.Load(c.UserContext(), actor, auth.StoreToken(c), rt, in)
		if err != nil {
			return err
		}

		rows := make([]tickets.TicketRow, 0, len(d.Tickets))
		for _, t := range d.Tickets {
			rows = append(rows, tickets.TicketRow{WasteTicket: t, Actions: access.TicketRowActions(actor, t)})
		}
		page, err := paging.Paginate(rows, d.Filter.Page, d.Filter.PerPage)
		if err != nil {
			return err
		}

		return c.JSON(ReportResponse{
			ReportType:     rt,
			Filter:         d.Filter,
			Location:       d.Location,
			Summary:        d.Summary,
			Groups:         groupViews(d.Groups),
			ByCode:         d.ByCode,
			Page:           page,
			AvailableYears: d.AvailableYears,
			Permissions:    access.Resolve(actor),
		})
	}
}

func parseFormat(raw string) (export.Format, error) {
	if raw == "" {
		return export.FormatExcel, nil
	}
	f, ok := export.ParseFormat(raw)
	if !ok {
		return "", apperr.Validation("format", "unsupported export format %q", raw)
	}
	return f, nil
}

func sendFile(c *fiber.Ctx, f *export.File) error {
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Filename))
	return c.Send(f.Content)
}

// GET /api/reports/:type/export?format=xlsx&year=2025...
func (h *Handler) Download() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rt, err := reportType(c)
		if err != nil {
			return err
		}
		format, err := parseFormat(c.Query("format"))
		if err != nil {
			return err
		}
		in, err := filter.FromQuery(tickets.QueryLookup(c))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), h.exportTimeout)
		defer cancel()
		file, err := h.svc.Export(ctx, auth.Actor(c), auth.StoreToken(c), rt, in, format)
		if err != nil {
			return err
		}
		return sendFile(c, file)
	}
}

type startExportRequest struct {
	ReportType string  `json:"report_type"`
	Format     string  `json:"format"`
	Year       *int    `json:"year"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Override   bool    `json:"override"`
	Sector     *string `json:"sector"`
}

// POST /api/exports
func (h *Handler) StartExport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body startExportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		rt, ok := models.ParseReportType(body.ReportType)
		if !ok {
			return apperr.Validation("report_type", "unknown report type %q", body.ReportType)
		}
		format, err := parseFormat(body.Format)
		if err != nil {
			return err
		}

		view, err := h.jobs.Start(auth.Actor(c), auth.StoreToken(c), rt, filter.Input{
			Year:     body.Year,
			From:     body.From,
			To:       body.To,
			Override: body.Override,
			Sector:   body.Sector,
		}, format)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(view)
	}
}

// GET /api/exports
func (h *Handler) ListExports() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(h.jobs.List(auth.Actor(c).ID))
	}
}

// GET /api/exports/:id, with ?download=1 the finished file is sent.
func (h *Handler) ExportStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, file, err := h.jobs.Get(auth.Actor(c).ID, c.Params("id"))
		if err != nil {
			return err
		}
		if c.QueryBool("download") {
			if file == nil {
				return fiber.NewError(fiber.StatusConflict, "export is "+string(view.Status))
			}
			return sendFile(c, file)
		}
		return c.JSON(view)
	}
}

// DELETE /api/exports/:id
func (h *Handler) CancelExport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := h.jobs.Cancel(auth.Actor(c).ID, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}
