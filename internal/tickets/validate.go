// Package tickets serves ticket list and CRUD endpoints on top of the ticket store.
package tickets

import (
	"strings"
	"time"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

// Prepare validates a create or update payload for report type rt and returns the
// payload to send to the store, with the net weight derived from gross and tare.
// current is the stored ticket on update, nil on create.
func Prepare(rt models.ReportType, in models.TicketInput, current *models.WasteTicket) (models.TicketInput, error) {
	in.TicketNumber = strings.TrimSpace(in.TicketNumber)
	in.VehicleNumber = strings.ToUpper(strings.TrimSpace(in.VehicleNumber))
	in.RejectionReason = strings.TrimSpace(in.RejectionReason)

	switch {
	case in.TicketNumber == "":
		return in, apperr.Validation("ticket_number", "ticket number is required")
	case in.SupplierID == "":
		return in, apperr.Validation("supplier_id", "supplier is required")
	case in.RecipientID == "":
		return in, apperr.Validation("recipient_id", "recipient is required")
	case in.WasteCodeID == "":
		return in, apperr.Validation("waste_code_id", "waste code is required")
	}
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return in, apperr.Validation("ticket_date", "ticket date must be YYYY-MM-DD")
	}
	if in.Time != "" {
		if _, err := time.Parse("15:04", in.Time); err != nil {
			return in, apperr.Validation("ticket_time", "ticket time must be HH:MM")
		}
	}

	if current != nil && in.TicketNumber != current.TicketNumber && !in.ConfirmTicketNumberChange {
		return in, apperr.Validation("ticket_number",
			"changing ticket number %s to %s must be confirmed", current.TicketNumber, in.TicketNumber)
	}
	in.ConfirmTicketNumberChange = false

	if err := checkQuantities(rt, &in); err != nil {
		return in, err
	}
	return in, nil
}

func checkQuantities(rt models.ReportType, in *models.TicketInput) error {
	switch {
	case rt.UsesWeighing():
		if in.GrossWeightKg <= 0 {
			return apperr.Validation("gross_weight_kg", "gross weight must be positive")
		}
		if in.TareWeightKg < 0 {
			return apperr.Validation("tare_weight_kg", "tare weight cannot be negative")
		}
		if in.GrossWeightKg <= in.TareWeightKg {
			return apperr.Validation("gross_weight_kg",
				"gross weight %d kg must exceed tare weight %d kg", in.GrossWeightKg, in.TareWeightKg)
		}
		net := in.GrossWeightKg - in.TareWeightKg
		if in.NetWeightKg != nil && *in.NetWeightKg != net {
			return apperr.Validation("net_weight_kg",
				"net weight %d kg does not match gross minus tare (%d kg)", *in.NetWeightKg, net)
		}
		in.NetWeightKg = &net

	case rt == models.ReportRecovery:
		if in.DeliveredKg <= 0 {
			return apperr.Validation("delivered_kg", "delivered quantity must be positive")
		}
		if in.AcceptedKg < 0 || in.AcceptedKg > in.DeliveredKg {
			return apperr.Validation("accepted_kg", "accepted quantity must be between 0 and the delivered quantity")
		}

	case rt == models.ReportRecycling:
		if in.DeliveredKg <= 0 {
			return apperr.Validation("delivered_kg", "delivered quantity must be positive")
		}

	case rt == models.ReportRejected:
		if in.RejectedKg <= 0 {
			return apperr.Validation("rejected_kg", "rejected quantity must be positive")
		}
		if in.RejectionReason == "" {
			return apperr.Validation("rejection_reason", "rejection reason is required")
		}
	}
	return nil
}
