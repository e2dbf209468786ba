package models

import "time"

// ConfirmationCode is the signup credential a user exchanges for a bearer
// token. One row per user; re-signup rotates the hash in place. The code
// itself is never persisted, only its bcrypt hash.
type ConfirmationCode struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CodeHash   string     `gorm:"not null" json:"-"`
	IssuedAt   time.Time  `gorm:"autoCreateTime" json:"issued_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

func (ConfirmationCode) TableName() string {
	return "confirmation_codes"
}
