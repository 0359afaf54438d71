package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionReject AuditAction = "reject" // mutation refused by the access policy
	AuditActionExport AuditAction = "export"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Who?
	UserID        string `gorm:"size:64;index" json:"user_id"`
	UserName      string `gorm:"size:100" json:"user_name"` // denormalized
	Role          Role   `gorm:"size:32" json:"role"`
	InstitutionID string `gorm:"size:64;index" json:"institution_id"`

	// Which entity? ("user", "ticket:landfill", "report:tmb", ...)
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   string `gorm:"size:64;index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// Requested and stored state (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
