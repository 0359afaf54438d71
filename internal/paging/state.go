package paging

import "waste-console/internal/apperr"

// State is the navigation state of a paged table.
type State struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func NewState() State {
	return State{Page: 1, PerPage: DefaultPerPage}
}

func (s *State) Reset() { s.Page = 1 }

// SetPerPage changes the page size and goes back to the first page.
func (s *State) SetPerPage(n int) error {
	if !ValidPerPage(n) {
		return apperr.Validation("per_page", "per_page must be one of %v", Options)
	}
	s.PerPage = n
	s.Page = 1
	return nil
}

// SetPage moves to page, clamped against the current result size.
func (s *State) SetPage(page, totalCount int) {
	s.Page = Clamp(page, TotalPages(totalCount, s.PerPage))
}
