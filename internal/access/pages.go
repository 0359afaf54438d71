package access

import "waste-console/internal/models"

type PageID string

const (
	PageDashboard    PageID = "dashboard"
	PageLandfill     PageID = "tickets-landfill"
	PageTMB          PageID = "tickets-tmb"
	PageRecycling    PageID = "tickets-recycling"
	PageRecovery     PageID = "tickets-recovery"
	PageDisposal     PageID = "tickets-disposal"
	PageRejected     PageID = "tickets-rejected"
	PageReports      PageID = "reports"
	PageUsers        PageID = "users"
	PageInstitutions PageID = "institutions"
	PageSectors      PageID = "sectors"
	PageAuditLog     PageID = "audit-log"
)

// AllPages in navigation order.
var AllPages = []PageID{
	PageDashboard,
	PageLandfill, PageTMB, PageRecycling, PageRecovery, PageDisposal, PageRejected,
	PageReports, PageUsers, PageInstitutions, PageSectors, PageAuditLog,
}

type Level string

const (
	LevelFull Level = "full"
	LevelRead Level = "read"
	LevelNone Level = "none"
)

var ticketPages = []PageID{PageLandfill, PageTMB, PageRecycling, PageRecovery, PageDisposal, PageRejected}

var scopeMap = map[models.Role]map[PageID]Level{
	models.RolePlatformAdmin: withTickets(LevelFull, map[PageID]Level{
		PageDashboard:    LevelFull,
		PageReports:      LevelFull,
		PageUsers:        LevelFull,
		PageInstitutions: LevelFull,
		PageSectors:      LevelFull,
		PageAuditLog:     LevelFull,
	}),
	models.RoleAdminInstitution: withTickets(LevelFull, map[PageID]Level{
		PageDashboard:    LevelFull,
		PageReports:      LevelFull,
		PageUsers:        LevelFull,
		PageInstitutions: LevelRead,
		PageSectors:      LevelRead,
		PageAuditLog:     LevelNone,
	}),
	models.RoleEditorInstitution: withTickets(LevelFull, map[PageID]Level{
		PageDashboard:    LevelRead,
		PageReports:      LevelRead,
		PageUsers:        LevelNone,
		PageInstitutions: LevelRead,
		PageSectors:      LevelRead,
		PageAuditLog:     LevelNone,
	}),
	models.RoleRegulatorViewer: withTickets(LevelRead, map[PageID]Level{
		PageDashboard:    LevelRead,
		PageReports:      LevelRead,
		PageUsers:        LevelNone,
		PageInstitutions: LevelRead,
		PageSectors:      LevelRead,
		PageAuditLog:     LevelNone,
	}),
}

func withTickets(level Level, m map[PageID]Level) map[PageID]Level {
	for _, p := range ticketPages {
		m[p] = level
	}
	return m
}

// PageLevel returns the configured level, LevelNone for unknown roles or pages.
func PageLevel(role models.Role, page PageID) Level {
	pages, ok := scopeMap[role]
	if !ok {
		return LevelNone
	}
	level, ok := pages[page]
	if !ok {
		return LevelNone
	}
	return level
}

// HasAccess grants on any level other than LevelNone. Unknown pages are denied.
func HasAccess(role models.Role, page PageID) bool {
	return PageLevel(role, page) != LevelNone
}

// PageForReport maps a report type to its ticket list page.
func PageForReport(t models.ReportType) PageID {
	return PageID("tickets-" + string(t))
}
