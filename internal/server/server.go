// Package server assembles the fiber application and its routes.
package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/apperr"
	"waste-console/internal/audit"
	"waste-console/internal/auth"
	"waste-console/internal/logging"
	"waste-console/internal/metrics"
	"waste-console/internal/models"
	"waste-console/internal/reference"
	"waste-console/internal/reports"
	"waste-console/internal/session"
	"waste-console/internal/tickets"
	"waste-console/internal/users"
)

type Deps struct {
	JWTSecret   string
	CORSOrigins string
	Log         *zap.Logger

	Sessions  *session.Manager
	Authn     auth.Authenticator
	Users     *users.Handler
	Tickets   *tickets.Handler
	Reports   *reports.Handler
	Reference *reference.Loader
	// AuditLogs is nil when the console runs without a database.
	AuditLogs audit.Lister
	Metrics   *metrics.Collector
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler(d.Log),
		BodyLimit:    4 << 20,
	})

	origins := strings.Split(d.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(origins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}
	app.Use(logging.Middleware(d.Log.Named("http")))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(d.JWTSecret, d.Authn, d.Sessions, d.Log))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.JWTSecret, d.Sessions))

	protected.Post("/auth/refresh", auth.RefreshHandler(d.JWTSecret, d.Authn, d.Sessions))
	protected.Post("/auth/logout", auth.LogoutHandler(d.Authn, d.Sessions, d.Log))
	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/access", auth.PermissionsHandler())
	protected.Get("/access/pages/:page", auth.PageAccessHandler())

	protected.Get("/reference", reference.Handler(d.Reference))

	// User administration
	userRoutes := protected.Group("/users", auth.RequirePage(d.Log, auth.Page(access.PageUsers)))
	userRoutes.Get("/", d.Users.List())
	userRoutes.Post("/", d.Users.Create())
	userRoutes.Put("/:id", d.Users.Update())
	userRoutes.Delete("/:id", d.Users.Delete())

	// Tickets, one page per report type
	ticketPage := auth.RequirePage(d.Log, func(c *fiber.Ctx) access.PageID {
		return access.PageForReport(models.ReportType(c.Params("type")))
	})
	protected.Get("/tickets/:type", ticketPage, d.Tickets.List())
	protected.Get("/tickets/:type/:id", ticketPage, d.Tickets.Get())
	protected.Post("/tickets/:type", ticketPage, d.Tickets.Create())
	protected.Put("/tickets/:type/:id", ticketPage, d.Tickets.Update())
	protected.Delete("/tickets/:type/:id", ticketPage, d.Tickets.Delete())

	// Reports and exports
	reportRoutes := protected.Group("/reports", auth.RequirePage(d.Log, auth.Page(access.PageReports)))
	reportRoutes.Get("/:type", d.Reports.View())
	reportRoutes.Get("/:type/export", d.Reports.Download())

	exportRoutes := protected.Group("/exports", auth.RequirePage(d.Log, auth.Page(access.PageReports)))
	exportRoutes.Post("/", d.Reports.StartExport())
	exportRoutes.Get("/", d.Reports.ListExports())
	exportRoutes.Get("/:id", d.Reports.ExportStatus())
	exportRoutes.Delete("/:id", d.Reports.CancelExport())

	if d.AuditLogs != nil {
		protected.Get("/audit-logs",
			auth.RequireRole(models.RolePlatformAdmin),
			audit.ListAuditLogsHandler(d.AuditLogs))
	}

	return app
}
