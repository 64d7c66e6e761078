package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used on the wire and in storage.
const DateLayout = "2006-01-02"

const (
	// MaxScale is the number of decimal places an amount may carry.
	MaxScale = 4
	// MaxIntegerDigits bounds amounts below 10^15.
	MaxIntegerDigits = 15

	// Exponents outside this window are rejected before any rescaling,
	// which would otherwise cost time proportional to the exponent.
	minExponent = -30
)

// DailyRecord represents one day of shop activity.
type DailyRecord struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Sales     decimal.Decimal `json:"sales"`
	Expenses  decimal.Decimal `json:"expenses"`
	Profit    decimal.Decimal `json:"profit"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// recompute derives Profit from Sales and Expenses. Every write path calls it.
func (r *DailyRecord) recompute() {
	r.Profit = r.Sales.Sub(r.Expenses)
}

// clone returns a copy that shares no mutable state with r.
func (r *DailyRecord) clone() *DailyRecord {
	c := *r
	return &c
}

// CreateInput carries the fields accepted by Create. Nil means "not supplied".
type CreateInput struct {
	Date     *string          `json:"date"`
	Sales    *decimal.Decimal `json:"sales"`
	Expenses *decimal.Decimal `json:"expenses"`
	Notes    *string          `json:"notes"`
}

// UpdateInput carries a partial update. Nil fields keep their stored value.
type UpdateInput struct {
	Sales    *decimal.Decimal `json:"sales"`
	Expenses *decimal.Decimal `json:"expenses"`
	Notes    *string          `json:"notes"`
}

func (in UpdateInput) validate() error {
	if in.Sales != nil {
		if err := validateAmount("sales", *in.Sales); err != nil {
			return err
		}
	}
	if in.Expenses != nil {
		if err := validateAmount("expenses", *in.Expenses); err != nil {
			return err
		}
	}
	return nil
}

// validateAmount accepts non-negative amounts with at most MaxScale decimal
// places and MaxIntegerDigits integer digits. Trailing zeros ("1.50000")
// do not count against the scale.
func validateAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	}
	exp := d.Exponent()
	if exp < minExponent {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrValidation, field, MaxScale)
	}
	if exp < -MaxScale && !d.Equal(d.Truncate(MaxScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrValidation, field, MaxScale)
	}
	if exp > MaxIntegerDigits || d.NumDigits()+int(exp) > MaxIntegerDigits {
		return fmt.Errorf("%w: %s is too large", ErrValidation, field)
	}
	return nil
}

func (in UpdateInput) apply(r *DailyRecord) {
	if in.Sales != nil {
		r.Sales = *in.Sales
	}
	if in.Expenses != nil {
		r.Expenses = *in.Expenses
	}
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
	r.recompute()
}

// ParseDate accepts a calendar day ("2024-01-01") or a full RFC 3339
// timestamp and normalizes it to midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
