package models

type ReportType string

const (
	ReportLandfill  ReportType = "landfill"
	ReportTMB       ReportType = "tmb"
	ReportRecycling ReportType = "recycling"
	ReportRecovery  ReportType = "recovery"
	ReportDisposal  ReportType = "disposal"
	ReportRejected  ReportType = "rejected"
)

var ReportTypes = []ReportType{
	ReportLandfill, ReportTMB, ReportRecycling, ReportRecovery, ReportDisposal, ReportRejected,
}

func ParseReportType(s string) (ReportType, bool) {
	for _, t := range ReportTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// UsesWeighing reports whether tickets of this type carry gross/tare/net weights.
func (t ReportType) UsesWeighing() bool {
	switch t {
	case ReportLandfill, ReportTMB, ReportDisposal:
		return true
	}
	return false
}

// WasteTicket: one weighbridge transaction. All quantities are whole kilograms.
type WasteTicket struct {
	ID               string `json:"id"`
	TicketNumber     string `json:"ticket_number"`
	Date             string `json:"ticket_date"` // YYYY-MM-DD
	Time             string `json:"ticket_time"` // HH:MM
	SupplierID       string `json:"supplier_id"`
	SupplierName     string `json:"supplier_name"`
	RecipientID      string `json:"recipient_id"`   // operator or client, depending on report type
	RecipientName    string `json:"recipient_name"` // operator_name / client_name on the wire
	OperatorName     string `json:"operator_name,omitempty"`
	ClientName       string `json:"client_name,omitempty"`
	WasteCodeID      string `json:"waste_code_id"`
	WasteCode        string `json:"waste_code"`
	WasteDescription string `json:"waste_description"`
	SectorID         string `json:"sector_id"`
	SectorNumber     int    `json:"sector_number"`
	VehicleNumber    string `json:"vehicle_number"`

	GrossWeightKg int64 `json:"gross_weight_kg"`
	TareWeightKg  int64 `json:"tare_weight_kg"`
	NetWeightKg   int64 `json:"net_weight_kg"`
	DeliveredKg   int64 `json:"delivered_kg"`
	AcceptedKg    int64 `json:"accepted_kg"`
	RejectedKg    int64 `json:"rejected_kg"`

	RejectionReason string `json:"rejection_reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// TicketInput: create/update payload. NetWeightKg is never trusted from the client,
// it is derived from gross and tare before the ticket reaches the store.
type TicketInput struct {
	TicketNumber  string `json:"ticket_number"`
	Date          string `json:"ticket_date"`
	Time          string `json:"ticket_time"`
	SupplierID    string `json:"supplier_id"`
	RecipientID   string `json:"recipient_id"`
	WasteCodeID   string `json:"waste_code_id"`
	SectorID      string `json:"sector_id"`
	VehicleNumber string `json:"vehicle_number"`

	GrossWeightKg int64  `json:"gross_weight_kg"`
	TareWeightKg  int64  `json:"tare_weight_kg"`
	NetWeightKg   *int64 `json:"net_weight_kg,omitempty"`
	DeliveredKg   int64  `json:"delivered_kg"`
	AcceptedKg    int64  `json:"accepted_kg"`
	RejectedKg    int64  `json:"rejected_kg"`

	RejectionReason string `json:"rejection_reason,omitempty"`
	Notes           string `json:"notes,omitempty"`

	// Must be true when an update changes TicketNumber.
	ConfirmTicketNumberChange bool `json:"confirm_ticket_number_change,omitempty"`
}

// TicketSummary: totals computed by the store for the whole filtered set.
type TicketSummary struct {
	TotalTons    float64 `json:"total_tons"`
	TotalTickets int     `json:"total_tickets"`
}
