package filter

import (
	"strconv"
	"strings"

	"waste-console/internal/apperr"
)

// Lookup returns a query parameter and whether it was present at all.
type Lookup func(key string) (string, bool)

// FromQuery reads year, from, to, override, sector, page and per_page. A missing
// sector key stays nil (untouched); an empty one means the whole region.
func FromQuery(get Lookup) (Input, error) {
	var in Input

	if raw, ok := get("year"); ok && strings.TrimSpace(raw) != "" {
		y, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return in, apperr.Validation("year", "year must be a number, got %q", raw)
		}
		in.Year = &y
	}
	in.From, _ = get("from")
	in.To, _ = get("to")

	if raw, ok := get("override"); ok {
		in.Override = raw == "1" || strings.EqualFold(raw, "true")
	}
	if raw, ok := get("sector"); ok {
		in.Sector = &raw
	}

	var err error
	if in.Page, err = intParam(get, "page"); err != nil {
		return in, err
	}
	if in.PerPage, err = intParam(get, "per_page"); err != nil {
		return in, err
	}
	return in, nil
}

func intParam(get Lookup, key string) (int, error) {
	raw, ok := get(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation(key, "%s must be a number, got %q", key, raw)
	}
	return n, nil
}
