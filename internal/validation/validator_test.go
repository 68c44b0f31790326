package validation

import (
	"testing"

	apperrors "paybaba/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string          `validate:"required,max=10"`
	Amount decimal.Decimal `validate:"gt=0"`
	Kind   string          `validate:"omitempty,oneof=a b"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr bool
		errMsg  string
	}{
		{
			name:  "valid",
			input: sample{Name: "ok", Amount: decimal.NewFromInt(5), Kind: "a"},
		},
		{
			name:    "missing name",
			input:   sample{Amount: decimal.NewFromInt(5)},
			wantErr: true,
			errMsg:  "Name is required",
		},
		{
			name:    "non positive decimal",
			input:   sample{Name: "ok", Amount: decimal.Zero},
			wantErr: true,
			errMsg:  "Amount must satisfy gt=0",
		},
		{
			name:    "bad enum",
			input:   sample{Name: "ok", Amount: decimal.NewFromInt(1), Kind: "c"},
			wantErr: true,
			errMsg:  "Kind must be one of [a b]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidator_Err(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.Check(false, "start", "must be before end")
	v.Check(true, "end", "never recorded")
	v.Check(false, "amount", "must not be negative")

	err := v.Err()
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "validation error: amount must not be negative; start must be before end", err.Error())
}
