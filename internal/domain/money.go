package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits carried by an Amount.
const AmountScale = 2

var minorUnitsPerUnit = decimal.New(1, AmountScale)

// Amount is a monetary value stored as BIGINT minor units (10^-2) to avoid floating point errors.
type Amount int64

// AmountFromDecimal converts d to minor units. Values with more than
// AmountScale fractional digits are rejected rather than rounded.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	scaled := d.Mul(minorUnitsPerUnit)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, AmountScale)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Amount(scaled.IntPart()), nil
}

// MustAmount parses a decimal literal, panicking on malformed input. Intended for fixtures.
func MustAmount(s string) Amount {
	a, err := AmountFromDecimal(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return a
}

// ToDecimal converts the minor units back to a shopspring/decimal.Decimal.
func (a Amount) ToDecimal() decimal.Decimal {
	return decimal.New(int64(a), -AmountScale)
}

func (a Amount) Positive() bool {
	return a > 0
}

func (a Amount) String() string {
	return a.ToDecimal().StringFixed(AmountScale)
}

// MarshalJSON renders the amount as a fixed-point decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	v, err := AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
