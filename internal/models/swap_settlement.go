package models

import "time"

// SettlementStatus is a state of the swap settlement machine:
// pending -> matched -> processing -> completed, with processing falling back
// to matched when the payment fails and pending/matched able to be cancelled.
type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "pending"
	SettlementMatched    SettlementStatus = "matched"
	SettlementProcessing SettlementStatus = "processing"
	SettlementCompleted  SettlementStatus = "completed"
	SettlementCancelled  SettlementStatus = "cancelled"
)

type SwapSettlement struct {
	ID              uint             `gorm:"primarykey" json:"id"`
	RequesterID     uint             `gorm:"not null;index" json:"requester_id"`
	ResponderID     uint             `gorm:"not null;index" json:"responder_id"`
	Status          SettlementStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	SwapFee         int64            `gorm:"not null;default:0" json:"swap_fee"`
	Currency        string           `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	BookingID       *string          `json:"booking_id,omitempty"`
	PaymentIntentID string           `json:"payment_intent_id,omitempty"`
	CustomerID      string           `json:"-"`
	PaymentMethodID string           `json:"-"`
	CancelReason    string           `json:"cancel_reason,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

const FeeTypeSwap = "swap_fee"

// FeeRecord is the single proof that a settlement's fee was collected. Both the
// gateway payment id and the settlement id are unique.
type FeeRecord struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	PaymentID       string    `gorm:"uniqueIndex;not null" json:"payment_id"`
	SettlementID    uint      `gorm:"uniqueIndex;not null" json:"settlement_id"`
	Amount          int64     `gorm:"not null" json:"amount"`
	Currency        string    `gorm:"type:varchar(3);not null" json:"currency"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Type            string    `gorm:"not null" json:"type"`
	BookingID       *string   `json:"booking_id,omitempty"`
	GatewayChargeID *string   `json:"gateway_charge_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
