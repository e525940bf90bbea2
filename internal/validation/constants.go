package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// String lengths
	MaxReasonLength    = 500
	MaxReferenceLength = 100

	// MaxCredits bounds a single credit amount. The amount tags on the ledger
	// inputs repeat this literal.
	MaxCredits int64 = 1_000_000_000_000
)
