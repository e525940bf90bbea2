package models

import "time"

// Runtime setting keys read by the engine.
const (
	SettingSwapFee                = "swap_fee"
	SettingCreditExpirationMonths = "credit_expiration_months"
)

type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EventID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"event_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	Actor      string    `gorm:"not null" json:"actor"`
	Details    JSON      `gorm:"type:jsonb" json:"details"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}
