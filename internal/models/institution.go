package models

import "fmt"

type InstitutionType string

const (
	InstitutionMunicipality    InstitutionType = "MUNICIPALITY"
	InstitutionWasteCollector  InstitutionType = "WASTE_COLLECTOR"
	InstitutionTMBOperator     InstitutionType = "TMB_OPERATOR"
	InstitutionSortingOperator InstitutionType = "SORTING_OPERATOR"
	InstitutionLandfill        InstitutionType = "LANDFILL"
	InstitutionRegulator       InstitutionType = "REGULATOR"
)

// Institution: a party that appears on tickets as supplier, recipient or operator.
type Institution struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ShortName string          `json:"short_name,omitempty"`
	Type      InstitutionType `json:"type"`
	SectorIDs []string        `json:"sector_ids"`
}

// Sector: numbered subdivision of the region.
type Sector struct {
	ID             string   `json:"id"`
	Number         int      `json:"sector_number"`
	Name           string   `json:"name,omitempty"`
	Population     int      `json:"population"`
	AreaKm2        float64  `json:"area_km2"`
	InstitutionIDs []string `json:"institution_ids,omitempty"`
}

func (s Sector) Label() string {
	return fmt.Sprintf("Sector %d", s.Number)
}

// WasteCode: material classification, e.g. "20 03 01" mixed municipal waste.
type WasteCode struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Party: supplier/operator entry as listed next to a ticket page.
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
