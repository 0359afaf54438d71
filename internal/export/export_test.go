package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"waste-console/internal/apperr"
	"waste-console/internal/grouping"
	"waste-console/internal/models"
)

var (
	generated = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	sectors   = []models.Sector{{ID: "sec-3", Number: 3}, {ID: "sec-4", Number: 4}}
)

func newExporter(t *testing.T) *Exporter {
	return New(Options{
		RegionName: "Bucharest",
		Logger:     zaptest.NewLogger(t),
		Now:        func() time.Time { return generated },
	})
}

func landfillRequest(n int) Request {
	tickets := make([]models.WasteTicket, n)
	for i := range tickets {
		tickets[i] = models.WasteTicket{
			TicketNumber:  fmt.Sprintf("T-%04d", i+1),
			Date:          "2024-03-15",
			SupplierName:  "Salubritate Ștefănești",
			WasteCode:     "20 03 01",
			SectorNumber:  3,
			VehicleNumber: "B-101-ABC",
			GrossWeightKg: 12500,
			TareWeightKg:  4000,
			NetWeightKg:   8500,
		}
	}
	return Request{
		ReportType: models.ReportLandfill,
		Filter: models.ReportFilter{
			Year: 2024,
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Tickets: tickets,
		Summary: models.TicketSummary{TotalTons: float64(n) * 8.5, TotalTickets: n},
		Sectors: sectors,
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Report_landfill_2024_2025-06-01.xlsx", Filename(models.ReportLandfill, 2024, generated, FormatExcel))
	assert.Equal(t, "Report_rejected_2023_2025-06-01.csv", Filename(models.ReportRejected, 2023, generated, FormatCSV))
}

func TestLocationNameTiers(t *testing.T) {
	assert.Equal(t, "Sector 4", LocationName(models.SingleSector("sec-4"), sectors, "Ilfov", "Bucharest"))
	assert.Equal(t, "Ilfov", LocationName(models.SingleSector("missing"), sectors, "Ilfov", "Bucharest"))
	assert.Equal(t, "Ilfov", LocationName(models.WholeRegion(), sectors, "Ilfov", "Bucharest"))
	assert.Equal(t, "Bucharest", LocationName(models.WholeRegion(), sectors, "  ", "Bucharest"))
	assert.Equal(t, DefaultRegionName, LocationName(models.SectorSelection{}, nil, "", ""))
}

func TestSchemaForUnknownType(t *testing.T) {
	_, err := SchemaFor("compost")
	assert.True(t, apperr.Is(err, apperr.KindExport))

	for _, rt := range models.ReportTypes {
		s, err := SchemaFor(rt)
		require.NoError(t, err, rt)
		assert.NotEmpty(t, s.Columns, rt)
	}
}

func TestColumnCellFormatting(t *testing.T) {
	ticket := models.WasteTicket{Date: "2024-03-15", NetWeightKg: 1234567, SectorNumber: 0}
	assert.Equal(t, "15.03.2024", colDate.Cell(ticket))
	assert.Equal(t, "1.234,57", colNet.Cell(ticket))
	assert.Equal(t, "", colSector.Cell(ticket))
	assert.Equal(t, "", Column{Field: "nope"}.Cell(ticket))
}

func TestExportExcelHasSummaryAndRecords(t *testing.T) {
	req := landfillRequest(3)
	req.Filter.Sector = models.SingleSector("sec-3")
	adapter, _ := grouping.AdapterFor(models.ReportLandfill)
	req.Groups = grouping.Group(adapter.Rows(req.Tickets))

	file, err := newExporter(t).Export(context.Background(), FormatExcel, req)
	require.NoError(t, err)
	assert.Equal(t, "Report_landfill_2024_2025-06-01.xlsx", file.Filename)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{SummarySheet, RecordsSheet}, wb.GetSheetList())

	summary, err := wb.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, "Landfill report", summary[0][0])
	assert.Equal(t, []string{"Period", "01.01.2024 - 31.12.2024"}, summary[2])
	assert.Equal(t, []string{"Location", "Sector 3"}, summary[3])
	assert.Equal(t, []string{"Total quantity (t)", "25,50"}, summary[4])
	assert.Equal(t, []string{"Total tickets", "3"}, summary[5])

	records, err := wb.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Ticket no.", records[0][0])
	assert.Equal(t, []string{"T-0001", "15.03.2024", "Salubritate Ștefănești", "20 03 01", "3", "B-101-ABC", "12,50", "4,00", "8,50"}, records[1])
}

func TestExportExcelEmptyTickets(t *testing.T) {
	req := landfillRequest(0)
	file, err := newExporter(t).Export(context.Background(), FormatExcel, req)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()
	records, err := wb.GetRows(RecordsSheet)
	require.NoError(t, err)
	assert.Len(t, records, 1, "header row only")

	summary, err := wb.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total tickets", "0"}, summary[5])
}

func TestExportCSVQuotesEveryField(t *testing.T) {
	req := landfillRequest(1)
	req.Tickets[0].SupplierName = `Eco "Verde", SRL`
	file, err := newExporter(t).Export(context.Background(), FormatCSV, req)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	content := string(file.Content)
	require.True(t, strings.HasPrefix(content, "\ufeff"))
	lines := strings.Split(strings.TrimPrefix(content, "\ufeff"), "\r\n")
	assert.Equal(t, `"Ticket no.","Date","Supplier","Waste code","Sector","Vehicle","Gross (t)","Tare (t)","Net (t)"`, lines[0])
	assert.Equal(t, `"T-0001","15.03.2024","Eco ""Verde"", SRL","20 03 01","3","B-101-ABC","12,50","4,00","8,50"`, lines[1])
}

func TestExportCSVEmptyTickets(t *testing.T) {
	file, err := newExporter(t).Export(context.Background(), FormatCSV, landfillRequest(0))
	require.NoError(t, err)
	assert.Equal(t, "\ufeff"+`"Ticket no.","Date","Supplier","Waste code","Sector","Vehicle","Gross (t)","Tare (t)","Net (t)"`+"\r\n", string(file.Content))
}

func TestNativeFontSubstitutionIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	New(Options{Logger: zap.New(core)})
	require.Equal(t, 1, logs.FilterMessageSnippet("comma-below").Len())

	bundled, err := NewNativeRenderer("")
	require.NoError(t, err)
	assert.True(t, bundled.SubstitutesCommaBelow())
	assert.Equal(t, "Ştefăneşti", bundled.text("Ștefănești"))

	core, logs = observer.New(zap.WarnLevel)
	New(Options{Logger: zap.New(core), PDF: ChromeRenderer{}})
	assert.Zero(t, logs.Len())
}

func TestExportPDFPaginates(t *testing.T) {
	file, err := newExporter(t).Export(context.Background(), FormatPDF, landfillRequest(120))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
	pages := bytes.Count(file.Content, []byte("/Type /Page")) - bytes.Count(file.Content, []byte("/Type /Pages"))
	assert.Greater(t, pages, 1)
}

func TestExportPDFEmptyTickets(t *testing.T) {
	file, err := newExporter(t).Export(context.Background(), FormatPDF, landfillRequest(0))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, f := range []Format{FormatExcel, FormatPDF, FormatCSV} {
		file, err := newExporter(t).Export(ctx, f, landfillRequest(10))
		assert.Nil(t, file, f)
		assert.True(t, errors.Is(err, context.Canceled), f)
		assert.True(t, apperr.Is(err, apperr.KindExport), f)
	}
}

func TestExportUnknownTypeAndFormat(t *testing.T) {
	req := landfillRequest(1)
	req.ReportType = "compost"
	_, err := newExporter(t).Export(context.Background(), FormatExcel, req)
	assert.True(t, apperr.Is(err, apperr.KindExport))

	_, err = newExporter(t).Export(context.Background(), Format("docx"), landfillRequest(1))
	assert.True(t, apperr.Is(err, apperr.KindExport))
}

func TestExportFallsBackToLocalTotals(t *testing.T) {
	req := landfillRequest(2)
	req.Summary = models.TicketSummary{}
	file, err := newExporter(t).Export(context.Background(), FormatExcel, req)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue(SummarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "17,00", v)
}

func TestNativeRendererCedillaFallback(t *testing.T) {
	r, err := NewNativeRenderer("")
	require.NoError(t, err)
	assert.Equal(t, "Ştefăneşti Ţ", r.text("Ștefănești Ț"))
	// Decomposed input is composed before drawing.
	assert.Equal(t, "\u0103", r.text("a\u0306"))

	_, err = NewNativeRenderer("/does/not/exist.ttf")
	assert.Error(t, err)
}

func TestRenderHTMLKeepsDiacritics(t *testing.T) {
	req := landfillRequest(1)
	doc, err := buildDocument(context.Background(), req, schemas[models.ReportLandfill], "Bucharest", generated)
	require.NoError(t, err)
	html, err := renderHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<meta charset="UTF-8">`)
	assert.Contains(t, string(html), "Salubritate Ștefănești")
	assert.Contains(t, string(html), `<td class="num">8,50</td>`)

	doc.Rows = nil
	html, err = renderHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, string(html), "No records for the selected period.")
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("excel")
	assert.True(t, ok)
	assert.Equal(t, FormatExcel, f)
	_, ok = ParseFormat("docx")
	assert.False(t, ok)
}
