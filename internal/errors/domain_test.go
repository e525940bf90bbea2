package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatching(t *testing.T) {
	detailed := ErrValidation.WithMessage("amount must be positive (got %d)", -4)
	wrapped := fmt.Errorf("deposit: %w", detailed)

	assert.True(t, stderrors.Is(wrapped, ErrValidation))
	assert.False(t, stderrors.Is(wrapped, ErrInsufficientCredits))
	assert.Equal(t, "amount must be positive (got -4)", detailed.Error())

	de, ok := AsDomain(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ClassClient, de.Class)
	assert.Equal(t, "VALIDATION_ERROR", de.Code)
}

func TestAsDomainPlainError(t *testing.T) {
	_, ok := AsDomain(stderrors.New("boom"))
	assert.False(t, ok)
}
