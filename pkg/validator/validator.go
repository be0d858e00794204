// Package validator provides input parsing and validation helpers for
// values crossing the CLI boundary.
package validator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Date parses a calendar date and normalizes it to midnight UTC
func Date(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in %s form: %w", field, DateLayout, err)
	}
	return t.UTC(), nil
}

// UUID parses a required UUID value
func UUID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid UUID: %w", field, err)
	}
	return id, nil
}

// PositiveAmount parses a strictly positive decimal amount
func PositiveAmount(field, value string) (decimal.Decimal, error) {
	d, err := Amount(field, value)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

// Amount parses a signed decimal amount
func Amount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", field, err)
	}
	return d, nil
}
