package export

import (
	"bytes"
	"context"
	"strings"
)

// utf8BOM makes spreadsheet applications detect the encoding of the file.
const utf8BOM = "\ufeff"

// renderCSV writes the records only, every field quoted and comma delimited.
func renderCSV(ctx context.Context, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	writeCSVLine(&buf, doc.Labels())
	for i, row := range doc.Rows {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		writeCSVLine(&buf, row)
	}
	return buf.Bytes(), nil
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
