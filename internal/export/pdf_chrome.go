package export

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"nfc":    norm.NFC.String,
	"number": func(c Column) bool { return c.Format == Number },
}).Parse(`<!DOCTYPE html>
<html lang="ro">
<head>
<meta charset="UTF-8">
<title>{{ nfc .Title }}</title>
<style>
  body { font-family: "DejaVu Sans", "Noto Sans", Arial, sans-serif; font-size: 9pt; margin: 0; }
  h1 { font-size: 14pt; margin: 0 0 6px 0; }
  dl { display: grid; grid-template-columns: 140px auto; margin: 0 0 10px 0; }
  dt { font-weight: bold; }
  dd { margin: 0; }
  table { width: 100%; border-collapse: collapse; }
  thead { display: table-header-group; }
  tr { page-break-inside: avoid; }
  th, td { border: 1px solid #999; padding: 2px 4px; }
  th { background: #e6e6e6; }
  td.num { text-align: right; }
</style>
</head>
<body>
<h1>{{ nfc .Title }}</h1>
<dl>
{{- range .HeaderLines }}
  <dt>{{ nfc (index . 0) }}</dt><dd>{{ nfc (index . 1) }}</dd>
{{- end }}
</dl>
<table>
  <thead><tr>{{ range .Columns }}<th>{{ nfc .Label }}</th>{{ end }}</tr></thead>
  <tbody>
  {{- $cols := .Columns }}
  {{- range .Rows }}
    <tr>{{ range $i, $cell := . }}<td{{ if number (index $cols $i) }} class="num"{{ end }}>{{ nfc $cell }}</td>{{ end }}</tr>
  {{- else }}
    <tr><td colspan="{{ len $.Columns }}">No records for the selected period.</td></tr>
  {{- end }}
  </tbody>
</table>
</body>
</html>`))

const chromeFooter = `<div style="font-size:8px; width:100%; text-align:center;">Page <span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// ChromeRenderer prints the HTML form of a report through headless Chrome.
type ChromeRenderer struct {
	Timeout time.Duration
}

func renderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, doc); err != nil {
		return nil, errors.Wrap(err, "render report html")
	}
	return buf.Bytes(), nil
}

func (r ChromeRenderer) RenderPDF(ctx context.Context, doc Document) ([]byte, error) {
	html, err := renderHTML(doc)
	if err != nil {
		return nil, err
	}

	tmpHTML := filepath.Join(os.TempDir(), "report_"+uuid.NewString()+".html")
	if err := os.WriteFile(tmpHTML, html, 0o600); err != nil {
		return nil, errors.Wrap(err, "write report html")
	}
	defer os.Remove(tmpHTML)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	landscape := len(doc.Columns) > 6
	var pdf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate("file://"+tmpHTML),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(landscape).
				WithPaperWidth(8.27).
				WithPaperHeight(11.7).
				WithMarginBottom(0.6).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate("<div></div>").
				WithFooterTemplate(chromeFooter).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "print report pdf")
	}
	return pdf, nil
}
