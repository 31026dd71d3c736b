package models

import "time"

// Session binds an issued refresh token to a user so the server can
// invalidate it (logout) independently of the token's embedded expiry.
// IPAddress and UserAgent are audit metadata from the login request.
type Session struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Token     string    `gorm:"size:512;not null;uniqueIndex"`
	UserID    string    `gorm:"size:36;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	IPAddress string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:255"`
}
