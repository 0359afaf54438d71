package access

import (
	"slices"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

// AllowsTicket reports whether t is readable within the scope: the home institution
// is a party on the ticket, or the ticket originates in one of the scope's sectors.
func (s Scope) AllowsTicket(t models.WasteTicket) bool {
	if s.All {
		return true
	}
	if s.InstitutionID != "" && (t.SupplierID == s.InstitutionID || t.RecipientID == s.InstitutionID) {
		return true
	}
	return t.SectorID != "" && slices.Contains(s.SectorIDs, t.SectorID)
}

// AllowsSector reports whether a sector filter may be selected.
func (s Scope) AllowsSector(sectorID string) bool {
	return s.All || slices.Contains(s.SectorIDs, sectorID)
}

// FilterTickets returns the tickets visible within scope, preserving order.
// The input slice is not modified.
func FilterTickets(scope Scope, tickets []models.WasteTicket) []models.WasteTicket {
	if scope.All {
		return tickets
	}
	out := make([]models.WasteTicket, 0, len(tickets))
	for _, t := range tickets {
		if scope.AllowsTicket(t) {
			out = append(out, t)
		}
	}
	return out
}

func ownsParty(actor models.User, supplierID, recipientID string) bool {
	return actor.InstitutionID != "" &&
		(supplierID == actor.InstitutionID || recipientID == actor.InstitutionID)
}

func writesTickets(role models.Role) bool {
	return role == models.RoleAdminInstitution || role == models.RoleEditorInstitution
}

// CanEditTicket: platform admins always; institution admins and editors when their
// institution is a party on the ticket.
func CanEditTicket(actor models.User, t models.WasteTicket) bool {
	if actor.Role == models.RolePlatformAdmin {
		return true
	}
	return writesTickets(actor.Role) && ownsParty(actor, t.SupplierID, t.RecipientID)
}

// CanDeleteTicket: like CanEditTicket, but editors never delete.
func CanDeleteTicket(actor models.User, t models.WasteTicket) bool {
	if actor.Role == models.RoleEditorInstitution {
		return false
	}
	return CanEditTicket(actor, t)
}

// TicketRowActions drives the edit/delete buttons of a ticket table row.
func TicketRowActions(actor models.User, t models.WasteTicket) RowActions {
	return RowActions{
		Edit:   AuthorizeTicketUpdate(actor, t) == nil,
		Delete: AuthorizeTicketDelete(actor, t) == nil,
	}
}

// AuthorizeTicketCreate checks a new ticket names the actor's institution as a party.
func AuthorizeTicketCreate(actor models.User, in models.TicketInput) error {
	if actor.Role == models.RolePlatformAdmin {
		return nil
	}
	if !writesTickets(actor.Role) {
		return apperr.Authorization("role %s may not create tickets", actor.Role)
	}
	if !ownsParty(actor, in.SupplierID, in.RecipientID) {
		return apperr.Authorization("your institution must be the supplier or the recipient of the ticket")
	}
	return nil
}

// AuthorizeTicketUpdate checks both the stored ticket and, when given, the new payload.
func AuthorizeTicketUpdate(actor models.User, current models.WasteTicket, in ...models.TicketInput) error {
	if !CanEditTicket(actor, current) {
		return apperr.Authorization("not allowed to edit ticket %s", current.ID)
	}
	for _, next := range in {
		if actor.Role != models.RolePlatformAdmin && !ownsParty(actor, next.SupplierID, next.RecipientID) {
			return apperr.Authorization("your institution must remain a party on ticket %s", current.ID)
		}
	}
	return nil
}

func AuthorizeTicketDelete(actor models.User, current models.WasteTicket) error {
	if !CanDeleteTicket(actor, current) {
		return apperr.Authorization("not allowed to delete ticket %s", current.ID)
	}
	return nil
}
