package models

type Role string

const (
	RolePlatformAdmin     Role = "PLATFORM_ADMIN"
	RoleAdminInstitution  Role = "ADMIN_INSTITUTION"
	RoleEditorInstitution Role = "EDITOR_INSTITUTION"
	RoleRegulatorViewer   Role = "REGULATOR_VIEWER"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlatformAdmin, RoleAdminInstitution, RoleEditorInstitution, RoleRegulatorViewer:
		return true
	}
	return false
}

// User: an account as returned by the ticket store. The authenticated actor is a User too.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          Role     `json:"role"`
	InstitutionID string   `json:"institution_id,omitempty"` // empty for platform admins
	SectorIDs     []string `json:"sector_ids,omitempty"`     // sectors of the home institution
	Active        bool     `json:"active"`
}

// UserInput: create/update payload for user administration.
// Pointer fields on update mean "leave unchanged" when nil.
type UserInput struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Password      *string `json:"password,omitempty"`
	Role          *Role   `json:"role"`
	InstitutionID *string `json:"institution_id"`
	Active        *bool   `json:"active"`
}
