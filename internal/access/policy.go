// Package access decides, per authenticated actor, which records are visible and
// which mutations are permitted. Every function here is pure; the HTTP layer calls
// the same predicates for rendering affordances and for guarding mutations.
package access

import (
	"slices"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

// Scope is the read reach of an actor over tickets.
type Scope struct {
	All           bool     `json:"all"`
	InstitutionID string   `json:"institution_id,omitempty"`
	SectorIDs     []string `json:"sector_ids,omitempty"`
}

type UserPermissions struct {
	CanCreate       bool          `json:"can_create"`
	CanEdit         bool          `json:"can_edit"`
	CanDelete       bool          `json:"can_delete"`
	AssignableRoles []models.Role `json:"assignable_roles"`
	// Institution every created user is bound to; empty when the actor may pick.
	FixedInstitutionID string `json:"fixed_institution_id,omitempty"`
}

type Permissions struct {
	Role         models.Role     `json:"role"`
	CanCreate    bool            `json:"can_create"`
	CanEdit      bool            `json:"can_edit"`
	CanDelete    bool            `json:"can_delete"`
	VisiblePages []PageID        `json:"visible_pages"`
	Scope        Scope           `json:"scope"`
	Users        UserPermissions `json:"users"`
}

func (p Permissions) HasAccess(page PageID) bool {
	return HasAccess(p.Role, page)
}

// Resolve computes the permission set of actor.
func Resolve(actor models.User) Permissions {
	p := Permissions{
		Role:         actor.Role,
		VisiblePages: visiblePages(actor.Role),
		Scope:        scopeOf(actor),
	}

	switch actor.Role {
	case models.RolePlatformAdmin:
		p.CanCreate, p.CanEdit, p.CanDelete = true, true, true
		p.Users = UserPermissions{
			CanCreate: true, CanEdit: true, CanDelete: true,
			AssignableRoles: []models.Role{
				models.RolePlatformAdmin, models.RoleAdminInstitution,
				models.RoleEditorInstitution, models.RoleRegulatorViewer,
			},
		}
	case models.RoleAdminInstitution:
		p.CanCreate, p.CanEdit, p.CanDelete = true, true, true
		p.Users = UserPermissions{
			CanCreate: true, CanEdit: true, CanDelete: true,
			AssignableRoles:    []models.Role{models.RoleEditorInstitution},
			FixedInstitutionID: actor.InstitutionID,
		}
	case models.RoleEditorInstitution:
		p.CanCreate, p.CanEdit = true, true
	}
	if p.Users.AssignableRoles == nil {
		p.Users.AssignableRoles = []models.Role{}
	}
	return p
}

func visiblePages(role models.Role) []PageID {
	pages := make([]PageID, 0, len(AllPages))
	for _, page := range AllPages {
		if HasAccess(role, page) {
			pages = append(pages, page)
		}
	}
	return pages
}

func scopeOf(actor models.User) Scope {
	if actor.Role == models.RolePlatformAdmin {
		return Scope{All: true}
	}
	if !actor.Role.Valid() {
		return Scope{}
	}
	return Scope{
		InstitutionID: actor.InstitutionID,
		SectorIDs:     slices.Clone(actor.SectorIDs),
	}
}

// CanManage reports whether actor may edit or delete target.
func CanManage(actor, target models.User) bool {
	if actor.Role == models.RolePlatformAdmin {
		return true
	}
	return actor.Role == models.RoleAdminInstitution &&
		actor.InstitutionID != "" &&
		target.InstitutionID == actor.InstitutionID &&
		target.Role == models.RoleEditorInstitution
}

// RowActions are the per-row affordances the UI renders for a user record.
type RowActions struct {
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// UserRowActions uses exactly the predicates that guard the mutations.
func UserRowActions(actor, target models.User) RowActions {
	return RowActions{
		Edit:   AuthorizeUserUpdate(actor, target) == nil,
		Delete: AuthorizeUserDelete(actor, target) == nil,
	}
}

// ValidateUserCreate checks a create request before it reaches the store.
// An institution admin asking for another institution or a non-editor role is
// rejected, not rewritten.
func ValidateUserCreate(actor models.User, in models.UserInput) error {
	switch actor.Role {
	case models.RolePlatformAdmin:
		if in.Role == nil || !in.Role.Valid() {
			return apperr.Validation("role", "a valid role is required")
		}
		if *in.Role != models.RolePlatformAdmin && (in.InstitutionID == nil || *in.InstitutionID == "") {
			return apperr.Validation("institution_id", "institution is required for role %s", *in.Role)
		}
		return nil

	case models.RoleAdminInstitution:
		if actor.InstitutionID == "" {
			return apperr.Authorization("institution admin without an institution")
		}
		if in.Role == nil {
			return apperr.Validation("role", "role is required")
		}
		if *in.Role != models.RoleEditorInstitution {
			return apperr.Validation("role", "institution admins may only create %s users, got %s",
				models.RoleEditorInstitution, *in.Role)
		}
		if in.InstitutionID == nil || *in.InstitutionID == "" {
			return apperr.Validation("institution_id", "institution is required")
		}
		if *in.InstitutionID != actor.InstitutionID {
			return apperr.Validation("institution_id", "institution %s does not match your institution", *in.InstitutionID)
		}
		return nil
	}
	return apperr.Authorization("role %s may not create users", actor.Role)
}

// AuthorizeUserUpdate is the target-level half of ValidateUserUpdate.
func AuthorizeUserUpdate(actor, target models.User) error {
	if !CanManage(actor, target) {
		return apperr.Authorization("not allowed to manage user %s", target.ID)
	}
	return nil
}

// ValidateUserUpdate checks an update of target against actor's permissions.
func ValidateUserUpdate(actor, target models.User, in models.UserInput) error {
	if err := AuthorizeUserUpdate(actor, target); err != nil {
		return err
	}
	if in.Role != nil && !in.Role.Valid() {
		return apperr.Validation("role", "unknown role %s", *in.Role)
	}
	if actor.Role != models.RoleAdminInstitution {
		return nil
	}
	if in.Role != nil && *in.Role != models.RoleEditorInstitution {
		return apperr.Validation("role", "institution admins may not assign role %s", *in.Role)
	}
	if in.InstitutionID != nil && *in.InstitutionID != actor.InstitutionID {
		return apperr.Validation("institution_id", "institution %s does not match your institution", *in.InstitutionID)
	}
	return nil
}

// AuthorizeUserDelete guards user deletion. Nobody deletes their own account.
func AuthorizeUserDelete(actor, target models.User) error {
	if !CanManage(actor, target) {
		return apperr.Authorization("not allowed to delete user %s", target.ID)
	}
	if actor.ID != "" && actor.ID == target.ID {
		return apperr.Validation("id", "you cannot delete your own account")
	}
	return nil
}
