// Package reports builds report views (summary cards, grouped breakdowns, paged
// tables) and report exports from one filtered ticket set.
package reports

import (
	"context"
	"time"

	"go.uber.org/zap"

	"waste-console/internal/access"
	"waste-console/internal/apperr"
	"waste-console/internal/audit"
	"waste-console/internal/export"
	"waste-console/internal/filter"
	"waste-console/internal/grouping"
	"waste-console/internal/models"
	"waste-console/internal/store"
	"waste-console/internal/tickets"
)

type Store interface {
	ListAllTickets(ctx context.Context, token string, rt models.ReportType, q store.TicketQuery) (*store.TicketPage, error)
}

// ExportObserver receives the duration and result of every export.
type ExportObserver interface {
	ObserveExport(reportType, format string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveExport(string, string, time.Duration, error) {}

type Options struct {
	Store    Store
	Sectors  tickets.SectorSource
	Exporter *export.Exporter
	Audit    audit.Recorder
	Observer ExportObserver
	Region   string
	Logger   *zap.Logger
}

type Service struct {
	store    Store
	sectors  tickets.SectorSource
	exporter *export.Exporter
	audit    audit.Recorder
	obs      ExportObserver
	region   string
	log      *zap.Logger
	now      func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		store:    opts.Store,
		sectors:  opts.Sectors,
		exporter: opts.Exporter,
		audit:    opts.Audit,
		obs:      opts.Observer,
		region:   opts.Region,
		log:      opts.Logger,
		now:      time.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("reports")
	if s.obs == nil {
		s.obs = nopObserver{}
	}
	if s.exporter == nil {
		s.exporter = export.New(export.Options{RegionName: s.region, Logger: s.log})
	}
	return s
}

// Dataset is one loaded report: the visible tickets of the filter and every view
// derived from them.
type Dataset struct {
	ReportType     models.ReportType
	Filter         models.ReportFilter
	Tickets        []models.WasteTicket
	Summary        models.TicketSummary
	Groups         []grouping.Summary
	ByCode         []grouping.CodeTotal
	Sectors        []models.Sector
	Location       string
	LocationLabel  string
	AvailableYears []int
	Suppliers      []models.Party
	Operators      []models.Party
}

// AuthorizeReport checks page access before anything is fetched.
func AuthorizeReport(actor models.User, rt models.ReportType) error {
	if !access.HasAccess(actor.Role, access.PageReports) || !access.HasAccess(actor.Role, access.PageForReport(rt)) {
		return apperr.Authorization("role %s may not view %s reports", actor.Role, rt)
	}
	return nil
}

// Load normalizes in, fetches every ticket of the filter and derives the views.
// A missing year and range defaults to the current year.
func (s *Service) Load(ctx context.Context, actor models.User, token string, rt models.ReportType, in filter.Input) (*Dataset, error) {
	if err := AuthorizeReport(actor, rt); err != nil {
		return nil, err
	}
	adapter, ok := grouping.AdapterFor(rt)
	if !ok {
		return nil, apperr.NotFound("unknown report type %q", rt)
	}

	now := s.now()
	if in.Year == nil && in.From == "" && in.To == "" {
		year := now.Year()
		in.Year = &year
	}
	sectors, err := s.sectors.Sectors(ctx, token)
	if err != nil {
		return nil, err
	}
	f, err := filter.Normalize(in, now, sectors)
	if err != nil {
		return nil, err
	}

	res, err := s.store.ListAllTickets(ctx, token, rt, store.TicketQuery{
		Year:     f.Year,
		From:     f.FromString(),
		To:       f.ToString(),
		SectorID: f.Sector.ID(),
	})
	if err != nil {
		return nil, err
	}

	scope := access.Resolve(actor).Scope
	visible := access.FilterTickets(scope, res.Items)
	rows := adapter.Rows(visible)

	allSectors := res.AllSectors
	if len(allSectors) == 0 {
		allSectors = sectors
	}
	return &Dataset{
		ReportType:     rt,
		Filter:         f,
		Tickets:        visible,
		Summary:        tickets.ScopedSummary(rt, scope, res.Summary, visible),
		Groups:         grouping.Group(rows),
		ByCode:         grouping.ByCode(rows),
		Sectors:        allSectors,
		Location:       export.LocationName(f.Sector, allSectors, res.LocationLabel, s.region),
		LocationLabel:  res.LocationLabel,
		AvailableYears: res.AvailableYears,
		Suppliers:      res.Suppliers,
		Operators:      res.Operators,
	}, nil
}

func (d *Dataset) ExportRequest() export.Request {
	return export.Request{
		ReportType:    d.ReportType,
		Filter:        d.Filter,
		Tickets:       d.Tickets,
		Summary:       d.Summary,
		Groups:        d.Groups,
		Sectors:       d.Sectors,
		LocationLabel: d.LocationLabel,
	}
}

// Export loads the report and renders it. The export is audited on success.
func (s *Service) Export(ctx context.Context, actor models.User, token string, rt models.ReportType, in filter.Input, format export.Format) (*export.File, error) {
	start := time.Now()
	file, err := s.export(ctx, actor, token, rt, in, format)
	s.obs.ObserveExport(string(rt), string(format), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	audit.Try(ctx, s.audit, s.log, audit.LogOptions{
		Actor:       actor,
		EntityType:  "report:" + string(rt),
		Action:      models.AuditActionExport,
		Description: "exported " + file.Filename,
	})
	return file, nil
}

func (s *Service) export(ctx context.Context, actor models.User, token string, rt models.ReportType, in filter.Input, format export.Format) (*export.File, error) {
	d, err := s.Load(ctx, actor, token, rt, in)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, format, d.ExportRequest())
}
