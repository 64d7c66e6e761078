// Package client talks to the daily records HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"daily_tracker/internal/records"

	"github.com/shopspring/decimal"
	"resty.dev/v3"
)

const recordsPath = "/api/daily-records"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// CreateRequest is the body of a create call.
type CreateRequest struct {
	Date     string          `json:"date"`
	Sales    decimal.Decimal `json:"sales"`
	Expenses decimal.Decimal `json:"expenses"`
	Notes    string          `json:"notes"`
}

// UpdateRequest is the body of a partial update; nil fields are omitted.
type UpdateRequest struct {
	Sales    *decimal.Decimal `json:"sales,omitempty"`
	Expenses *decimal.Decimal `json:"expenses,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

// Client is a thin typed wrapper over the records API.
type Client struct {
	rc *resty.Client
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}

func (c *Client) List(ctx context.Context) ([]*records.DailyRecord, error) {
	var out []*records.DailyRecord
	if err := c.do(ctx, http.MethodGet, recordsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*records.DailyRecord, error) {
	var out records.DailyRecord
	if err := c.do(ctx, http.MethodGet, recordsPath+"/{id}", nil, &out, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (*records.DailyRecord, error) {
	var out records.DailyRecord
	if err := c.do(ctx, http.MethodPost, recordsPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*records.DailyRecord, error) {
	var out records.DailyRecord
	if err := c.do(ctx, http.MethodPut, recordsPath+"/{id}", req, &out, id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	var out struct {
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodDelete, recordsPath+"/{id}", nil, &out, id)
}

// do issues one request. The optional id fills the {id} path parameter.
func (c *Client) do(ctx context.Context, method, path string, body, result any, id ...string) error {
	apiErr := &APIError{}
	req := c.rc.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if len(id) > 0 {
		req.SetPathParam("id", id[0])
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if res.IsError() {
		apiErr.Status = res.StatusCode()
		return apiErr
	}
	return nil
}
