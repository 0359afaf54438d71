package grouping

import (
	"strings"

	"waste-console/internal/models"
)

const FallbackName = "N/A"

type nameField func(models.WasteTicket) string

type quantityField func(models.WasteTicket) int64

var (
	supplierName  nameField = func(t models.WasteTicket) string { return t.SupplierName }
	recipientName nameField = func(t models.WasteTicket) string { return t.RecipientName }
	clientName    nameField = func(t models.WasteTicket) string { return t.ClientName }
	operatorName  nameField = func(t models.WasteTicket) string { return t.OperatorName }

	netWeight quantityField = func(t models.WasteTicket) int64 { return t.NetWeightKg }
	delivered quantityField = func(t models.WasteTicket) int64 { return t.DeliveredKg }
	accepted  quantityField = func(t models.WasteTicket) int64 { return t.AcceptedKg }
	rejected  quantityField = func(t models.WasteTicket) int64 { return t.RejectedKg }
)

// Adapter maps one report type's tickets onto Row. Names are tried in order;
// the quantity is the single field the ticket type records, zero included.
type Adapter struct {
	names    []nameField
	quantity quantityField
}

var adapters = map[models.ReportType]Adapter{
	models.ReportLandfill:  {names: []nameField{supplierName, clientName}, quantity: netWeight},
	models.ReportTMB:       {names: []nameField{supplierName, clientName}, quantity: netWeight},
	models.ReportDisposal:  {names: []nameField{supplierName, clientName}, quantity: netWeight},
	models.ReportRecycling: {names: []nameField{clientName, recipientName, operatorName}, quantity: delivered},
	models.ReportRecovery:  {names: []nameField{clientName, recipientName, operatorName}, quantity: accepted},
	models.ReportRejected:  {names: []nameField{supplierName, operatorName}, quantity: rejected},
}

// AdapterFor returns the adapter of t. ok is false for unknown report types.
func AdapterFor(t models.ReportType) (Adapter, bool) {
	a, ok := adapters[t]
	return a, ok
}

func (a Adapter) Name(t models.WasteTicket) string {
	for _, f := range a.names {
		if name := strings.TrimSpace(f(t)); name != "" {
			return name
		}
	}
	return FallbackName
}

func (a Adapter) Quantity(t models.WasteTicket) int64 {
	if a.quantity == nil {
		return 0
	}
	return a.quantity(t)
}

func (a Adapter) Row(t models.WasteTicket) Row {
	return Row{
		Name:     a.Name(t),
		Code:     strings.TrimSpace(t.WasteCode),
		Quantity: a.Quantity(t),
	}
}

func (a Adapter) Rows(tickets []models.WasteTicket) []Row {
	rows := make([]Row, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, a.Row(t))
	}
	return rows
}
