package validation

import (
	"errors"
	"testing"

	apperrors "swapledger/internal/errors"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	UserID uint   `json:"user_id" validate:"required"`
	Amount int64  `json:"amount" validate:"gt=0"`
	Note   string `json:"note" validate:"max=5"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr bool
		errMsg  string
	}{
		{
			name:  "valid",
			input: sample{UserID: 1, Amount: 10, Note: "ok"},
		},
		{
			name:    "missing fields use json names",
			input:   sample{Note: "ok"},
			wantErr: true,
			errMsg:  "invalid request: amount must be greater than 0; user_id is required",
		},
		{
			name:    "max length",
			input:   sample{UserID: 1, Amount: 1, Note: "toolong"},
			wantErr: true,
			errMsg:  "invalid request: note must not be longer than 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			assert.Equal(t, tt.errMsg, err.Error())
		})
	}
}

func TestValidator_Check(t *testing.T) {
	v := New()
	v.Check(false, "to_user_id", "must differ from from_user_id")
	v.Check(false, "to_user_id", "second message is dropped")

	assert.False(t, v.Valid())
	assert.Equal(t, "must differ from from_user_id", v.Errors["to_user_id"])
}

func TestValidator_Password(t *testing.T) {
	v := New()
	v.Password("password", "Str0ng!pass")
	assert.True(t, v.Valid())

	v = New()
	v.Password("password", "weak")
	assert.False(t, v.Valid())
}
