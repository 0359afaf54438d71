// Package export renders report data to Excel, PDF and CSV files.
package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

type Options struct {
	RegionName string
	PDF        PDFRenderer
	Logger     *zap.Logger
	Now        func() time.Time
}

type Exporter struct {
	region string
	pdf    PDFRenderer
	log    *zap.Logger
	now    func() time.Time
}

// New builds an Exporter. A nil PDF renderer falls back to the native one with the bundled font.
func New(opts Options) *Exporter {
	e := &Exporter{region: opts.RegionName, pdf: opts.PDF, log: opts.Logger, now: opts.Now}
	if e.pdf == nil {
		e.pdf, _ = NewNativeRenderer("")
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if n, ok := e.pdf.(*NativeRenderer); ok && n.SubstitutesCommaBelow() {
		e.log.Warn("pdf font lacks comma-below letters, rendering ș ț as ş ţ; set PDF_FONT_PATH to a font with full Romanian coverage")
	}
	return e
}

// Filename builds Report_{type}_{year}_{YYYY-MM-DD}.{ext}.
func Filename(rt models.ReportType, year int, generated time.Time, f Format) string {
	return fmt.Sprintf("Report_%s_%d_%s.%s", rt, year, generated.Format(models.DateLayout), f)
}

// Export renders req in the requested format. Cancelling ctx aborts the export
// and no file is produced.
func (e *Exporter) Export(ctx context.Context, format Format, req Request) (*File, error) {
	schema, err := SchemaFor(req.ReportType)
	if err != nil {
		return nil, err
	}
	now := e.now()
	doc, err := buildDocument(ctx, req, schema, e.region, now)
	if err != nil {
		return nil, e.fail(err, format, req)
	}

	var content []byte
	switch format {
	case FormatExcel:
		content, err = renderExcel(ctx, doc)
	case FormatPDF:
		content, err = e.pdf.RenderPDF(ctx, doc)
	case FormatCSV:
		content, err = renderCSV(ctx, doc)
	default:
		return nil, apperr.Export(nil, "unsupported export format %q", format)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, e.fail(err, format, req)
	}

	year := req.Filter.Year
	if year == 0 {
		year = now.Year()
	}
	file := &File{
		Filename:    Filename(req.ReportType, year, now, format),
		ContentType: format.ContentType(),
		Content:     content,
	}
	e.log.Info("report exported",
		zap.String("report_type", string(req.ReportType)),
		zap.String("format", string(format)),
		zap.Int("rows", len(doc.Rows)),
		zap.Int("bytes", len(content)),
	)
	return file, nil
}

func (e *Exporter) fail(err error, format Format, req Request) error {
	e.log.Warn("report export failed",
		zap.String("report_type", string(req.ReportType)),
		zap.String("format", string(format)),
		zap.Error(err),
	)
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Export(err, "export %s report as %s", req.ReportType, format)
}
