// Package audit fans significant engine events out to log, database and
// message-bus sinks. Recording never fails the operation that produced the
// event.
package audit

import "time"

// Actions emitted by the ledger and settlement services.
const (
	ActionDeposit            = "credits.deposit"
	ActionSpend              = "credits.spend"
	ActionRefund             = "credits.refund"
	ActionTransfer           = "credits.transfer"
	ActionAdjust             = "credits.adjust"
	ActionExpire             = "credits.expire"
	ActionSettlementCreated  = "settlement.created"
	ActionSettlementMatched  = "settlement.matched"
	ActionSettlementComplete = "settlement.completed"
	ActionSettlementCancel   = "settlement.cancelled"
	ActionSettingUpdated     = "setting.updated"
)

// ActorSystem marks events raised by the engine itself (jobs, workers).
const ActorSystem = "system"

type Event struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
