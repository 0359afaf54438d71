package export

import (
	"context"
	"time"

	"waste-console/internal/grouping"
	"waste-console/internal/locale"
	"waste-console/internal/models"
)

// cancelCheckEvery is how many rows are rendered between context checks.
const cancelCheckEvery = 200

// Request carries everything needed to render one report.
type Request struct {
	ReportType models.ReportType
	Filter     models.ReportFilter
	Tickets    []models.WasteTicket
	Summary    models.TicketSummary
	Groups     []grouping.Summary
	Sectors    []models.Sector
	// LocationLabel is the location name sent by the store, if any.
	LocationLabel string
}

// File: a rendered report ready for download.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Document is the format-independent form of a report.
type Document struct {
	Title         string
	Period        string
	Location      string
	TotalQuantity string
	TotalTickets  int
	GeneratedAt   string
	Columns       []Column
	Rows          [][]string
	Groups        []grouping.Summary
}

func (d Document) HeaderLines() [][2]string {
	return [][2]string{
		{"Period", d.Period},
		{"Location", d.Location},
		{"Total quantity (t)", d.TotalQuantity},
		{"Total tickets", locale.FormatNumber(float64(d.TotalTickets), 0)},
		{"Generated at", d.GeneratedAt},
	}
}

func (d Document) Labels() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Label
	}
	return out
}

func buildDocument(ctx context.Context, req Request, schema Schema, region string, now time.Time) (Document, error) {
	doc := Document{
		Title:       schema.Title,
		Period:      locale.FormatDate(req.Filter.FromString()) + " - " + locale.FormatDate(req.Filter.ToString()),
		Location:    LocationName(req.Filter.Sector, req.Sectors, req.LocationLabel, region),
		GeneratedAt: now.Format(locale.DisplayDateLayout + " 15:04"),
		Columns:     schema.Columns,
		Rows:        make([][]string, 0, len(req.Tickets)),
		Groups:      req.Groups,
	}

	doc.TotalTickets = req.Summary.TotalTickets
	doc.TotalQuantity = locale.FormatNumber(req.Summary.TotalTons, locale.TonDecimals)
	if doc.TotalTickets == 0 && len(req.Tickets) > 0 {
		doc.TotalTickets, doc.TotalQuantity = localTotals(req.ReportType, req.Tickets)
	}

	for i, t := range req.Tickets {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Document{}, err
			}
		}
		row := make([]string, len(schema.Columns))
		for j, c := range schema.Columns {
			row[j] = c.Cell(t)
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

// localTotals is used when the store sent no summary block.
func localTotals(rt models.ReportType, tickets []models.WasteTicket) (int, string) {
	adapter, ok := grouping.AdapterFor(rt)
	if !ok {
		return len(tickets), locale.FormatTons(0)
	}
	var kg int64
	for _, t := range tickets {
		kg += adapter.Quantity(t)
	}
	return len(tickets), locale.FormatTons(kg)
}
