package export

import (
	"strconv"

	"waste-console/internal/apperr"
	"waste-console/internal/locale"
	"waste-console/internal/models"
)

type Format string

const (
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatCSV   Format = "csv"
)

// ParseFormat accepts the extension or the UI name of a format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "xlsx", "excel":
		return FormatExcel, true
	case "pdf":
		return FormatPDF, true
	case "csv":
		return FormatCSV, true
	}
	return "", false
}

func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	}
	return "application/octet-stream"
}

type Formatter int

const (
	Text Formatter = iota
	Number         // kilograms rendered as tons, locale formatted
	Date           // DD.MM.YYYY
)

type Column struct {
	Label  string
	Field  string
	Format Formatter
	Width  float64 // relative width in the PDF table
}

type Schema struct {
	Title   string
	Columns []Column
}

var (
	colNumber    = Column{Label: "Ticket no.", Field: "ticket_number", Width: 1.2}
	colDate      = Column{Label: "Date", Field: "ticket_date", Format: Date, Width: 1}
	colSupplier  = Column{Label: "Supplier", Field: "supplier_name", Width: 2}
	colOperator  = Column{Label: "Operator", Field: "recipient_name", Width: 2}
	colClient    = Column{Label: "Client", Field: "client_name", Width: 2}
	colCode      = Column{Label: "Waste code", Field: "waste_code", Width: 1}
	colSector    = Column{Label: "Sector", Field: "sector_number", Width: 0.7}
	colVehicle   = Column{Label: "Vehicle", Field: "vehicle_number", Width: 1.1}
	colGross     = Column{Label: "Gross (t)", Field: "gross_weight_kg", Format: Number, Width: 1}
	colTare      = Column{Label: "Tare (t)", Field: "tare_weight_kg", Format: Number, Width: 1}
	colNet       = Column{Label: "Net (t)", Field: "net_weight_kg", Format: Number, Width: 1}
	colDelivered = Column{Label: "Delivered (t)", Field: "delivered_kg", Format: Number, Width: 1}
	colAccepted  = Column{Label: "Accepted (t)", Field: "accepted_kg", Format: Number, Width: 1}
	colRejected  = Column{Label: "Rejected (t)", Field: "rejected_kg", Format: Number, Width: 1}
	colReason    = Column{Label: "Reason", Field: "rejection_reason", Width: 2}
)

var schemas = map[models.ReportType]Schema{
	models.ReportLandfill: {
		Title:   "Landfill report",
		Columns: []Column{colNumber, colDate, colSupplier, colCode, colSector, colVehicle, colGross, colTare, colNet},
	},
	models.ReportTMB: {
		Title:   "TMB report",
		Columns: []Column{colNumber, colDate, colSupplier, colOperator, colCode, colSector, colVehicle, colGross, colTare, colNet},
	},
	models.ReportRecycling: {
		Title:   "Recycling report",
		Columns: []Column{colNumber, colDate, colSupplier, colClient, colCode, colVehicle, colDelivered},
	},
	models.ReportRecovery: {
		Title:   "Recovery report",
		Columns: []Column{colNumber, colDate, colSupplier, colClient, colCode, colVehicle, colDelivered, colAccepted},
	},
	models.ReportDisposal: {
		Title:   "Disposal report",
		Columns: []Column{colNumber, colDate, colSupplier, colOperator, colCode, colSector, colVehicle, colNet},
	},
	models.ReportRejected: {
		Title:   "Rejected tickets report",
		Columns: []Column{colNumber, colDate, colSupplier, colOperator, colCode, colVehicle, colRejected, colReason},
	},
}

// SchemaFor returns the column schema of t, or an Export error.
func SchemaFor(t models.ReportType) (Schema, error) {
	s, ok := schemas[t]
	if !ok {
		return Schema{}, apperr.Export(nil, "no column schema registered for report type %q", t)
	}
	return s, nil
}

type fieldGetter func(models.WasteTicket) any

var fields = map[string]fieldGetter{
	"ticket_number":    func(t models.WasteTicket) any { return t.TicketNumber },
	"ticket_date":      func(t models.WasteTicket) any { return t.Date },
	"ticket_time":      func(t models.WasteTicket) any { return t.Time },
	"supplier_name":    func(t models.WasteTicket) any { return t.SupplierName },
	"recipient_name":   func(t models.WasteTicket) any { return firstNonEmpty(t.RecipientName, t.OperatorName) },
	"client_name":      func(t models.WasteTicket) any { return firstNonEmpty(t.ClientName, t.RecipientName) },
	"waste_code":       func(t models.WasteTicket) any { return t.WasteCode },
	"sector_number":    func(t models.WasteTicket) any { return t.SectorNumber },
	"vehicle_number":   func(t models.WasteTicket) any { return t.VehicleNumber },
	"gross_weight_kg":  func(t models.WasteTicket) any { return t.GrossWeightKg },
	"tare_weight_kg":   func(t models.WasteTicket) any { return t.TareWeightKg },
	"net_weight_kg":    func(t models.WasteTicket) any { return t.NetWeightKg },
	"delivered_kg":     func(t models.WasteTicket) any { return t.DeliveredKg },
	"accepted_kg":      func(t models.WasteTicket) any { return t.AcceptedKg },
	"rejected_kg":      func(t models.WasteTicket) any { return t.RejectedKg },
	"rejection_reason": func(t models.WasteTicket) any { return t.RejectionReason },
}

// Cell renders one field of t according to the column's formatter.
// Unknown fields and missing values render empty rather than failing the export.
func (c Column) Cell(t models.WasteTicket) string {
	get, ok := fields[c.Field]
	if !ok {
		return ""
	}
	switch v := get(t).(type) {
	case int64:
		if c.Format == Number {
			return locale.FormatTons(v)
		}
		return strconv.FormatInt(v, 10)
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case string:
		if c.Format == Date {
			return locale.FormatDate(v)
		}
		return v
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
