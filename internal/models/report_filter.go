package models

import (
	"encoding/json"
	"time"
)

type SectorScope int

const (
	// SectorUnset: no filter applied yet (initial page load).
	SectorUnset SectorScope = iota
	// SectorWholeRegion: explicitly cleared selection, aggregate across all sectors.
	SectorWholeRegion
	// SectorSingle: narrowed to one sector.
	SectorSingle
)

type SectorSelection struct {
	Scope    SectorScope
	SectorID string // canonical sector id, only for SectorSingle
}

func WholeRegion() SectorSelection { return SectorSelection{Scope: SectorWholeRegion} }

func SingleSector(id string) SectorSelection {
	return SectorSelection{Scope: SectorSingle, SectorID: id}
}

// ID returns the sector id to send to the store, empty for whole region / unset.
func (s SectorSelection) ID() string {
	if s.Scope == SectorSingle {
		return s.SectorID
	}
	return ""
}

// ReportFilter: effective filter after normalization.
type ReportFilter struct {
	Year    int
	From    time.Time
	To      time.Time
	Sector  SectorSelection
	Page    int
	PerPage int
}

const DateLayout = "2006-01-02"

func (f ReportFilter) FromString() string { return f.From.Format(DateLayout) }
func (f ReportFilter) ToString() string   { return f.To.Format(DateLayout) }

// MarshalJSON renders the filter as the UI reads it back: ISO dates and a sector id,
// with whole_region set when the selection was explicitly cleared.
func (f ReportFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year        int    `json:"year"`
		From        string `json:"from"`
		To          string `json:"to"`
		SectorID    string `json:"sector_id,omitempty"`
		WholeRegion bool   `json:"whole_region"`
		Page        int    `json:"page"`
		PerPage     int    `json:"per_page"`
	}{
		Year:        f.Year,
		From:        f.FromString(),
		To:          f.ToString(),
		SectorID:    f.Sector.ID(),
		WholeRegion: f.Sector.Scope == SectorWholeRegion,
		Page:        f.Page,
		PerPage:     f.PerPage,
	})
}
