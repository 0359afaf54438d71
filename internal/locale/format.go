// Package locale converts quantities between the storage unit (kilograms) and the
// display unit (tons) and renders them with Romanian number conventions:
// "." groups thousands and "," separates decimals.
package locale

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"waste-console/internal/apperr"
)

const (
	ThousandsSep = "."
	DecimalSep   = ","

	TonDecimals   = 2
	ShareDecimals = 1

	DisplayDateLayout = "02.01.2006"
	isoDateLayout     = "2006-01-02"
)

// KgToTons converts kilograms to tons rounded to TonDecimals.
func KgToTons(kg int64) float64 {
	return decimal.New(kg, -3).Round(TonDecimals).InexactFloat64()
}

// TonsToKg converts tons to whole kilograms.
func TonsToKg(tons float64) int64 {
	return decimal.NewFromFloat(tons).Shift(3).Round(0).IntPart()
}

// FormatNumber renders v with the given number of decimals, e.g. 1234.5 -> "1.234,50".
func FormatNumber(v float64, decimals int) string {
	return formatDecimal(decimal.NewFromFloat(v), decimals)
}

// FormatTons renders a kilogram quantity as tons with two decimals.
func FormatTons(kg int64) string {
	return formatDecimal(decimal.New(kg, -3), TonDecimals)
}

// FormatPercent renders a share already expressed in percent, e.g. 66.7 -> "66,7%".
func FormatPercent(p float64) string {
	return FormatNumber(p, ShareDecimals) + "%"
}

// Share returns quantity as a percentage of total, rounded to ShareDecimals.
// A zero total yields 0.
func Share(quantity, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(quantity).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(ShareDecimals).
		InexactFloat64()
}

// FormatDate turns an ISO date (or timestamp) into DD.MM.YYYY.
// Anything unparseable is returned as-is.
func FormatDate(iso string) string {
	s := strings.TrimSpace(iso)
	if s == "" {
		return ""
	}
	if len(s) >= len(isoDateLayout) {
		if t, err := time.Parse(isoDateLayout, s[:len(isoDateLayout)]); err == nil {
			return t.Format(DisplayDateLayout)
		}
	}
	return iso
}

// ParseNumber parses a locale formatted number ("1.234,56") into a float.
// Plain "1234.56" is accepted too when there is no comma in the input.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "t")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperr.Validation("quantity", "empty number")
	}

	if strings.Contains(s, DecimalSep) {
		s = strings.ReplaceAll(s, ThousandsSep, "")
		s = strings.Replace(s, DecimalSep, ".", 1)
	} else if strings.Count(s, ThousandsSep) > 1 {
		// "1.234.567" is grouping only
		s = strings.ReplaceAll(s, ThousandsSep, "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperr.Validation("quantity", "invalid number %q", s)
	}
	return d.InexactFloat64(), nil
}

func formatDecimal(d decimal.Decimal, decimals int) string {
	raw := d.StringFixed(int32(decimals))

	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	intPart, fracPart, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if neg && strings.Trim(raw, "0.") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(ThousandsSep)
		}
		b.WriteRune(r)
	}
	if decimals > 0 {
		b.WriteString(DecimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}
