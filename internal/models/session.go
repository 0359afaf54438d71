package models

import (
	"strings"
	"time"
)

// SessionRecord: console-side session. The ticket store tokens are kept sealed and
// are never parsed by the console.
type SessionRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"size:64;index;not null"`
	UserName      string `gorm:"size:100"`
	Email         string `gorm:"size:100"`
	Role          Role   `gorm:"size:32;not null"`
	InstitutionID string `gorm:"size:64"`
	SectorIDs     string `gorm:"size:1024"` // comma separated
	SealedTokens  []byte `gorm:"not null"`
	ExpiresAt     time.Time `gorm:"index;not null"`
	RevokedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r SessionRecord) Actor() User {
	var sectors []string
	if r.SectorIDs != "" {
		sectors = strings.Split(r.SectorIDs, ",")
	}
	return User{
		ID:            r.UserID,
		Name:          r.UserName,
		Email:         r.Email,
		Role:          r.Role,
		InstitutionID: r.InstitutionID,
		SectorIDs:     sectors,
		Active:        true,
	}
}
