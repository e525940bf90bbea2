package errors

var (
	ErrInsufficientCredits = &DomainError{
		Code:    "INSUFFICIENT_CREDITS",
		Message: "insufficient credits",
		Class:   ClassClient,
	}
	ErrLedgerInconsistency = &DomainError{
		Code:    "LEDGER_INCONSISTENCY",
		Message: "ledger inconsistency detected",
		Class:   ClassServer,
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Class:   ClassNotFound,
	}
	ErrRefundExceedsSpend = &DomainError{
		Code:    "REFUND_EXCEEDS_SPEND",
		Message: "refund exceeds credits spent against reference",
		Class:   ClassClient,
	}
)
