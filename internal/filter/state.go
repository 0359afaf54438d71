package filter

import (
	"time"

	"waste-console/internal/models"
	"waste-console/internal/paging"
)

// State tracks the filter bar of a report view. Year and sector changes apply
// immediately; edits of the date fields are staged until Apply so half-typed dates
// never trigger a fetch. Every setter returns true when a fetch must be issued.
type State struct {
	today time.Time

	year     int
	from     string
	to       string
	override bool
	sector   *string

	draftFrom string
	draftTo   string

	Paging paging.State
}

func NewState(today time.Time) *State {
	s := &State{today: dateOf(today), Paging: paging.NewState()}
	s.resetDates(s.today.Year())
	return s
}

func (s *State) resetDates(year int) {
	s.year = year
	from, to := YearRange(year, s.today)
	s.from, s.to = from.Format(models.DateLayout), to.Format(models.DateLayout)
	s.draftFrom, s.draftTo = s.from, s.to
	s.override = false
}

// SetYear resets the date range to the year and applies.
func (s *State) SetYear(year int) bool {
	s.resetDates(year)
	s.Paging.Reset()
	return true
}

// SetSector applies a sector selection; "" selects the whole region.
func (s *State) SetSector(sector string) bool {
	s.sector = &sector
	s.Paging.Reset()
	return true
}

// SetFrom stages a new start date without applying it.
func (s *State) SetFrom(v string) bool {
	s.draftFrom = v
	return false
}

// SetTo stages a new end date without applying it.
func (s *State) SetTo(v string) bool {
	s.draftTo = v
	return false
}

// Pending reports whether staged date edits wait for Apply.
func (s *State) Pending() bool {
	return s.draftFrom != s.from || s.draftTo != s.to
}

// Apply commits the staged dates as an explicit override.
func (s *State) Apply() bool {
	s.from, s.to = s.draftFrom, s.draftTo
	s.override = true
	s.Paging.Reset()
	return true
}

// Input is the committed state, ready for Normalize.
func (s *State) Input() Input {
	year := s.year
	return Input{
		Year:     &year,
		From:     s.from,
		To:       s.to,
		Override: s.override,
		Sector:   s.sector,
		Page:     s.Paging.Page,
		PerPage:  s.Paging.PerPage,
	}
}
