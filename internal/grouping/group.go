// Package grouping reduces ticket rows into per-counterparty summaries with a
// per-waste-code breakdown.
package grouping

import (
	"slices"

	"waste-console/internal/locale"
)

// Row is the canonical shape every report type is adapted to before grouping.
type Row struct {
	Name     string
	Code     string
	Quantity int64 // kg
}

type CodeQuantity struct {
	Code     string `json:"code"`
	Quantity int64  `json:"quantity_kg"`
}

type Summary struct {
	Name  string         `json:"name"`
	Total int64          `json:"total_kg"`
	Codes []CodeQuantity `json:"codes"`
}

// Group accumulates rows per counterparty name. Entries come back in first-seen
// order; each entry's codes are sorted by quantity descending, ties keep encounter
// order. The input is not modified.
func Group(rows []Row) []Summary {
	index := make(map[string]int)
	out := make([]Summary, 0)

	for _, r := range rows {
		i, ok := index[r.Name]
		if !ok {
			i = len(out)
			index[r.Name] = i
			out = append(out, Summary{Name: r.Name, Codes: []CodeQuantity{}})
		}
		out[i].Total += r.Quantity
		if r.Code != "" {
			out[i].Codes = append(out[i].Codes, CodeQuantity{Code: r.Code, Quantity: r.Quantity})
		}
	}

	for i := range out {
		slices.SortStableFunc(out[i].Codes, func(a, b CodeQuantity) int {
			switch {
			case a.Quantity > b.Quantity:
				return -1
			case a.Quantity < b.Quantity:
				return 1
			}
			return 0
		})
	}
	return out
}

type CodeShare struct {
	Code     string  `json:"code"`
	Quantity int64   `json:"quantity_kg"`
	Percent  float64 `json:"percent"`
}

// Shares renders each code's part of the entry total in percent.
func (s Summary) Shares() []CodeShare {
	shares := make([]CodeShare, 0, len(s.Codes))
	for _, c := range s.Codes {
		shares = append(shares, CodeShare{
			Code:     c.Code,
			Quantity: c.Quantity,
			Percent:  locale.Share(c.Quantity, s.Total),
		})
	}
	return shares
}

// Total sums every entry.
func Total(summaries []Summary) int64 {
	var total int64
	for _, s := range summaries {
		total += s.Total
	}
	return total
}

// CodeTotal is one line of the "by waste code" view.
type CodeTotal struct {
	Code     string  `json:"code"`
	Quantity int64   `json:"quantity_kg"`
	Tickets  int     `json:"tickets"`
	Percent  float64 `json:"percent"`
}

// ByCode totals rows per waste code in first-seen order. Rows without a code are
// collected under "N/A".
func ByCode(rows []Row) []CodeTotal {
	index := make(map[string]int)
	out := make([]CodeTotal, 0)
	var total int64

	for _, r := range rows {
		code := r.Code
		if code == "" {
			code = FallbackName
		}
		i, ok := index[code]
		if !ok {
			i = len(out)
			index[code] = i
			out = append(out, CodeTotal{Code: code})
		}
		out[i].Quantity += r.Quantity
		out[i].Tickets++
		total += r.Quantity
	}
	for i := range out {
		out[i].Percent = locale.Share(out[i].Quantity, total)
	}
	return out
}
