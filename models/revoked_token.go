package models

import "time"

// RevokedToken is the DB fallback for the Redis jti blacklist.
type RevokedToken struct {
	ID        string    `gorm:"primaryKey;type:char(64)" json:"id"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
