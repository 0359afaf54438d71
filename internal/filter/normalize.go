// Package filter reconciles the report filter tuple (year, date range, sector).
package filter

import (
	"strconv"
	"strings"
	"time"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
	"waste-console/internal/paging"
)

const minYear = 2000

// Input is a partially filled filter as received from the UI.
type Input struct {
	Year *int
	From string // YYYY-MM-DD, empty when not set
	To   string
	// Override keeps an explicit From/To even when it leaves the selected year.
	Override bool
	// Sector: nil means untouched, "" means whole region, otherwise a sector id or number.
	Sector  *string
	Page    int
	PerPage int
}

// Normalize derives the effective filter. It fails with an InvalidFilter error only
// when neither a year nor a date range can be resolved; malformed values are
// Validation errors.
func Normalize(in Input, today time.Time, sectors []models.Sector) (models.ReportFilter, error) {
	today = dateOf(today)
	out := models.ReportFilter{Page: in.Page, PerPage: in.PerPage}

	from, err := parseDate("from", in.From)
	if err != nil {
		return out, err
	}
	to, err := parseDate("to", in.To)
	if err != nil {
		return out, err
	}

	switch {
	case in.Year != nil:
		year := *in.Year
		if year < minYear || year > today.Year() {
			return out, apperr.Validation("year", "year %d is outside %d..%d", year, minYear, today.Year())
		}
		yearFrom, yearTo := YearRange(year, today)
		out.Year = year
		out.From, out.To = yearFrom, yearTo
		if in.Override {
			if !from.IsZero() {
				out.From = from
			}
			if !to.IsZero() {
				out.To = to
			}
		} else {
			if !from.IsZero() && within(from, yearFrom, yearTo) {
				out.From = from
			}
			if !to.IsZero() && within(to, yearFrom, yearTo) {
				out.To = to
			}
		}

	case !from.IsZero() || !to.IsZero():
		anchor := from
		if anchor.IsZero() {
			anchor = to
		}
		yearFrom, yearTo := YearRange(anchor.Year(), today)
		out.Year = anchor.Year()
		out.From, out.To = from, to
		if from.IsZero() {
			out.From = yearFrom
		}
		if to.IsZero() {
			out.To = yearTo
		}

	default:
		return out, apperr.InvalidFilter("either a year or a date range is required")
	}

	if out.From.After(out.To) {
		return out, apperr.Validation("from", "from %s is after to %s", out.FromString(), out.ToString())
	}

	out.Sector, err = ResolveSector(in.Sector, sectors)
	if err != nil {
		return out, err
	}

	if out.PerPage == 0 {
		out.PerPage = paging.DefaultPerPage
	}
	if !paging.ValidPerPage(out.PerPage) {
		return out, apperr.Validation("per_page", "per_page must be one of %v", paging.Options)
	}
	if out.Page < 1 {
		out.Page = 1
	}
	return out, nil
}

// YearRange is Jan 1 .. Dec 31 for past years and Jan 1 .. today for the current year.
func YearRange(year int, today time.Time) (time.Time, time.Time) {
	today = dateOf(today)
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if year == today.Year() {
		return from, today
	}
	return from, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// ResolveSector turns the raw selection into its canonical form. The raw value may
// be a sector id, a sector number ("3") or a label ("Sector 3").
func ResolveSector(raw *string, sectors []models.Sector) (models.SectorSelection, error) {
	if raw == nil {
		return models.SectorSelection{Scope: models.SectorUnset}, nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return models.WholeRegion(), nil
	}
	for _, s := range sectors {
		if s.ID == v {
			return models.SingleSector(s.ID), nil
		}
	}
	numeric := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(v), "sector"))
	if n, err := strconv.Atoi(numeric); err == nil {
		for _, s := range sectors {
			if s.Number == n {
				return models.SingleSector(s.ID), nil
			}
		}
	}
	return models.SectorSelection{}, apperr.Validation("sector_id", "unknown sector %q", v)
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperr.Validation(field, "%s must be YYYY-MM-DD, got %q", field, raw)
	}
	return t, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
