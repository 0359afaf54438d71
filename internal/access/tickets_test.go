package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

func TestScopeAllowsTicket(t *testing.T) {
	own := models.WasteTicket{ID: "1", SupplierID: "inst-1", RecipientID: "inst-5", SectorID: "s9"}
	sector := models.WasteTicket{ID: "2", SupplierID: "inst-3", RecipientID: "inst-4", SectorID: "s1"}
	foreign := models.WasteTicket{ID: "3", SupplierID: "inst-3", RecipientID: "inst-4", SectorID: "s7"}

	scope := Resolve(editor).Scope
	assert.True(t, scope.AllowsTicket(own))
	assert.True(t, scope.AllowsTicket(sector))
	assert.False(t, scope.AllowsTicket(foreign))

	all := []models.WasteTicket{own, sector, foreign}
	assert.Equal(t, []models.WasteTicket{own, sector}, FilterTickets(scope, all))
	assert.Len(t, all, 3)
	assert.Equal(t, all, FilterTickets(Resolve(platformAdmin).Scope, all))
}

func TestScopeWithoutSectorsOrInstitution(t *testing.T) {
	scope := Resolve(models.User{Role: models.RoleRegulatorViewer}).Scope
	assert.False(t, scope.AllowsTicket(models.WasteTicket{SectorID: ""}))
	assert.False(t, scope.AllowsSector(""))
	assert.True(t, Resolve(regulator).Scope.AllowsSector("s3"))
}

func TestTicketMutationGuards(t *testing.T) {
	own := models.WasteTicket{ID: "1", SupplierID: "inst-1", RecipientID: "inst-5"}
	other := models.WasteTicket{ID: "2", SupplierID: "inst-3", RecipientID: "inst-4", SectorID: "s1"}

	assert.Equal(t, RowActions{Edit: true, Delete: true}, TicketRowActions(instAdmin, own))
	assert.Equal(t, RowActions{Edit: true, Delete: false}, TicketRowActions(editor, own))
	assert.Equal(t, RowActions{}, TicketRowActions(editor, other))
	assert.Equal(t, RowActions{}, TicketRowActions(regulator, own))
	assert.Equal(t, RowActions{Edit: true, Delete: true}, TicketRowActions(platformAdmin, other))

	err := AuthorizeTicketUpdate(editor, own, models.TicketInput{SupplierID: "inst-3", RecipientID: "inst-4"})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.NoError(t, AuthorizeTicketUpdate(editor, own, models.TicketInput{SupplierID: "inst-2", RecipientID: "inst-1"}))
}

func TestAuthorizeTicketCreate(t *testing.T) {
	assert.NoError(t, AuthorizeTicketCreate(editor, models.TicketInput{SupplierID: "inst-1"}))
	assert.NoError(t, AuthorizeTicketCreate(platformAdmin, models.TicketInput{}))
	assert.True(t, apperr.Is(AuthorizeTicketCreate(editor, models.TicketInput{SupplierID: "inst-2"}), apperr.KindAuthorization))
	assert.True(t, apperr.Is(AuthorizeTicketCreate(regulator, models.TicketInput{SupplierID: "inst-9"}), apperr.KindAuthorization))
}
