package errors

var (
	ErrAlreadyProcessing = &DomainError{
		Code:    "ALREADY_PROCESSING",
		Message: "settlement is already being processed",
		Class:   ClassConflict,
	}
	ErrInvalidStateTransition = &DomainError{
		Code:    "INVALID_STATE_TRANSITION",
		Message: "settlement is not in a state that allows this operation",
		Class:   ClassConflict,
	}
	ErrGatewayFailure = &DomainError{
		Code:    "GATEWAY_FAILURE",
		Message: "payment gateway failure",
		Class:   ClassUpstream,
	}
	ErrSettlementNotFound = &DomainError{
		Code:    "SETTLEMENT_NOT_FOUND",
		Message: "settlement not found",
		Class:   ClassNotFound,
	}
)
