package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/unicode/norm"
)

// PDFRenderer turns a Document into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, doc Document) ([]byte, error)
}

const (
	fontFamily   = "body"
	pageMargin   = 10.0
	footerHeight = 12.0
	rowHeight    = 6.0
	headerHeight = 7.0
)

// Go fonts ship the cedilla forms only, so comma-below letters are mapped to them.
var cedillaFallback = strings.NewReplacer(
	"Ș", "Ş", "ș", "ş",
	"Ț", "Ţ", "ț", "ţ",
)

// NativeRenderer draws PDFs in-process with an embedded Unicode TrueType font.
type NativeRenderer struct {
	regular  []byte
	bold     []byte
	fallback bool
}

// NewNativeRenderer loads the font at fontPath, or the bundled Go fonts when the path is empty.
func NewNativeRenderer(fontPath string) (*NativeRenderer, error) {
	if fontPath == "" {
		return &NativeRenderer{regular: goregular.TTF, bold: gobold.TTF, fallback: true}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read pdf font %s", fontPath)
	}
	return &NativeRenderer{regular: data, bold: data}, nil
}

// SubstitutesCommaBelow reports whether ș and ț are printed in their cedilla forms.
func (r *NativeRenderer) SubstitutesCommaBelow() bool { return r.fallback }

func (r *NativeRenderer) text(s string) string {
	s = norm.NFC.String(s)
	if r.fallback {
		s = cedillaFallback.Replace(s)
	}
	return s
}

func (r *NativeRenderer) RenderPDF(ctx context.Context, doc Document) ([]byte, error) {
	orientation := "P"
	if len(doc.Columns) > 6 {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, footerHeight)
	pdf.AddUTF8FontFromBytes(fontFamily, "", r.regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", r.bold)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerHeight)
		pdf.SetFont(fontFamily, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pageMargin
	widths := columnWidths(doc.Columns, usable)

	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 8, r.text(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, line := range doc.HeaderLines() {
		pdf.CellFormat(45, 5.5, r.text(line[0]+":"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5.5, r.text(line[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	tableHeader := func() {
		pdf.SetFont(fontFamily, "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range doc.Columns {
			pdf.CellFormat(widths[i], headerHeight, r.fit(pdf, c.Label, widths[i]), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(fontFamily, "", 8)
	}
	tableHeader()

	if len(doc.Rows) == 0 {
		pdf.CellFormat(usable, rowHeight, r.text("No records for the selected period."), "1", 1, "C", false, 0, "")
	}
	for i, row := range doc.Rows {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if pdf.GetY()+rowHeight > pageH-footerHeight-2 {
			pdf.AddPage()
			tableHeader()
		}
		for j, cell := range row {
			align := "L"
			if doc.Columns[j].Format == Number {
				align = "R"
			}
			pdf.CellFormat(widths[j], rowHeight, r.fit(pdf, cell, widths[j]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, errors.Wrap(err, "draw pdf")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return buf.Bytes(), nil
}

// fit shortens s with an ellipsis until it fits into a cell of width w.
func (r *NativeRenderer) fit(pdf *fpdf.Fpdf, s string, w float64) string {
	s = r.text(s)
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

func columnWidths(cols []Column, usable float64) []float64 {
	var total float64
	for _, c := range cols {
		total += weight(c)
	}
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = usable * weight(c) / total
	}
	return out
}

func weight(c Column) float64 {
	if c.Width <= 0 {
		return 1
	}
	return c.Width
}
