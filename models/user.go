package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account. PasswordHash is nullable: accounts
// provisioned through an OAuth provider carry no local password and must
// never pass the password-login path.
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Email        string  `gorm:"size:255;not null;uniqueIndex"`
	ManagerID    string  `gorm:"size:32"` // FPL manager entry id, digits only
	PasswordHash *string `gorm:"size:128"`
	IsActive     bool    `gorm:"default:true;not null"`
	LastLoginAt  *time.Time
}

// BeforeCreate assigns an opaque id so callers never depend on store
// autoincrement behavior.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
