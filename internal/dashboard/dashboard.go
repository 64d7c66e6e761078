// Package dashboard holds the client-side view state of the daily tracker:
// the loaded records, the new-record form and the summary totals.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"daily_tracker/internal/client"
	"daily_tracker/internal/records"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Form validation messages, shared with the browser dashboard.
var (
	ErrDateRequired    = errors.New("Please select a date")
	ErrAmountsRequired = errors.New("Please enter both sales and expenses amounts")
	ErrAmountsInvalid  = errors.New("Please enter valid numbers for sales and expenses")
	ErrAmountsNegative = errors.New("Sales and expenses must be positive numbers")
)

const (
	MsgCreated      = "Record added successfully!"
	MsgDeleted      = "Record deleted successfully!"
	MsgDeleteFailed = "Failed to delete record. Please try again."
	MsgCreateFailed = "Failed to add record. Please check your input and try again."
)

// API is the subset of the records API the dashboard drives.
type API interface {
	List(ctx context.Context) ([]*records.DailyRecord, error)
	Create(ctx context.Context, req client.CreateRequest) (*records.DailyRecord, error)
	Delete(ctx context.Context, id string) error
}

// Form is the raw user input for a new record.
type Form struct {
	Date     string
	Sales    string
	Expenses string
	Notes    string
}

// NewForm returns an empty form dated today.
func NewForm(now time.Time) Form {
	return Form{Date: now.Format(records.DateLayout)}
}

// Validate checks the form the same way the browser does and returns the
// request to send. It is advisory; the server re-validates.
func (f Form) Validate() (client.CreateRequest, error) {
	if strings.TrimSpace(f.Date) == "" {
		return client.CreateRequest{}, ErrDateRequired
	}
	salesIn, expensesIn := strings.TrimSpace(f.Sales), strings.TrimSpace(f.Expenses)
	if salesIn == "" || expensesIn == "" {
		return client.CreateRequest{}, ErrAmountsRequired
	}
	sales, err := decimal.NewFromString(salesIn)
	if err != nil {
		return client.CreateRequest{}, ErrAmountsInvalid
	}
	expenses, err := decimal.NewFromString(expensesIn)
	if err != nil {
		return client.CreateRequest{}, ErrAmountsInvalid
	}
	if sales.IsNegative() || expenses.IsNegative() {
		return client.CreateRequest{}, ErrAmountsNegative
	}
	return client.CreateRequest{
		Date:     f.Date,
		Sales:    sales,
		Expenses: expenses,
		Notes:    strings.TrimSpace(f.Notes),
	}, nil
}

// Ready reports whether the submit button would be enabled.
func (f Form) Ready() bool {
	return f.Date != "" && f.Sales != "" && f.Expenses != ""
}

// Totals are the summary cards, always derived from the loaded list.
type Totals struct {
	Sales    decimal.Decimal
	Expenses decimal.Decimal
	Profit   decimal.Decimal
}

// Dashboard is the view model. It is not safe for concurrent use; a UI
// drives it from one goroutine.
type Dashboard struct {
	api    API
	logger *zap.Logger
	now    func() time.Time

	Records    []*records.DailyRecord
	Loading    bool
	Submitting bool
	Form       Form
	// Error is the inline form message; Notice is the last alert text.
	Error  string
	Notice string
}

// New returns a dashboard in the loading state.
func New(api API, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{
		api:     api,
		logger:  logger,
		now:     time.Now,
		Loading: true,
	}
	d.Form = NewForm(d.now())
	return d
}

// Load fetches the record list and leaves the loading state whatever the
// outcome. A failed fetch keeps the current list.
func (d *Dashboard) Load(ctx context.Context) error {
	defer func() { d.Loading = false }()

	all, err := d.api.List(ctx)
	if err != nil {
		d.logger.Error("error fetching records", zap.Error(err))
		return err
	}
	d.Records = all
	return nil
}

// Submit validates the form and, if valid, creates the record. On success
// the server's record is prepended and the amount fields are cleared.
// Validation failures send nothing.
func (d *Dashboard) Submit(ctx context.Context) (*records.DailyRecord, error) {
	d.Error = ""
	d.Notice = ""

	req, err := d.Form.Validate()
	if err != nil {
		d.Error = err.Error()
		return nil, err
	}

	d.Submitting = true
	defer func() { d.Submitting = false }()

	rec, err := d.api.Create(ctx, req)
	if err != nil {
		d.logger.Error("error adding record", zap.Error(err))
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			d.Error = apiErr.Message
		} else {
			d.Error = MsgCreateFailed
		}
		return nil, err
	}

	d.Records = append([]*records.DailyRecord{rec}, d.Records...)
	d.Form.Sales, d.Form.Expenses, d.Form.Notes = "", "", ""
	d.Notice = MsgCreated
	return rec, nil
}

// Delete asks confirm and, if accepted, deletes the record. The row is
// removed locally only after the server confirms. Returns false when the
// user declined.
func (d *Dashboard) Delete(ctx context.Context, id string, confirm func(id string) bool) (bool, error) {
	d.Notice = ""
	if confirm != nil && !confirm(id) {
		return false, nil
	}

	if err := d.api.Delete(ctx, id); err != nil {
		d.logger.Error("error deleting record", zap.String("record_id", id), zap.Error(err))
		d.Notice = MsgDeleteFailed
		return false, err
	}

	kept := d.Records[:0]
	for _, r := range d.Records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	d.Records = kept
	d.Notice = MsgDeleted
	return true, nil
}

// Totals sums the currently loaded records.
func (d *Dashboard) Totals() Totals {
	t := Totals{Sales: decimal.Zero, Expenses: decimal.Zero}
	for _, r := range d.Records {
		t.Sales = t.Sales.Add(r.Sales)
		t.Expenses = t.Expenses.Add(r.Expenses)
	}
	t.Profit = t.Sales.Sub(t.Expenses)
	return t
}
