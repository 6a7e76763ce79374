// Package client is a Go client for the club-billing HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/api"
	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// ClientConfig represents the configuration for the API client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration // Default: 30 seconds
}

// Client is a club-billing API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: config.BaseURL,
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status      int
	Code        string
	Description string
	Fields      map[string]string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("club-billing API error (status %d): %s - %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("club-billing API error (status %d): %s", e.Status, e.Code)
}

// do sends a request and decodes a JSON response into out, when out is
// not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// ListStudents lists students whose name or DNI contains q.
func (c *Client) ListStudents(ctx context.Context, q string) ([]domain.Student, error) {
	var query url.Values
	if q != "" {
		query = url.Values{"q": {q}}
	}
	var resp struct {
		Students []domain.Student `json:"students"`
	}
	if err := c.do(ctx, http.MethodGet, "/students", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

// CreateStudent registers a student.
func (c *Client) CreateStudent(ctx context.Context, st domain.Student) (app.Effect, error) {
	var eff app.Effect
	err := c.do(ctx, http.MethodPost, "/students", nil, st, &eff)
	return eff, err
}

// PendingCharges returns the pending charges of a student and their total.
func (c *Client) PendingCharges(ctx context.Context, studentID string) (TransactionsResponse, error) {
	var resp TransactionsResponse
	err := c.do(ctx, http.MethodGet, "/students/"+url.PathEscape(studentID)+"/transactions", url.Values{"pending": {"true"}}, nil, &resp)
	return resp, err
}

// Settle settles charges of a student.
func (c *Client) Settle(ctx context.Context, studentID string, req api.SettleRequest) (app.Effect, error) {
	var eff app.Effect
	err := c.do(ctx, http.MethodPost, "/students/"+url.PathEscape(studentID)+"/settle", nil, req, &eff)
	return eff, err
}

// CreateClass schedules a class.
func (c *Client) CreateClass(ctx context.Context, cl domain.Class) (app.Effect, error) {
	var eff app.Effect
	err := c.do(ctx, http.MethodPost, "/classes", nil, cl, &eff)
	return eff, err
}

// RecordAttendance records attendance for a class.
func (c *Client) RecordAttendance(ctx context.Context, classID string, req api.AttendanceRequest) (app.Effect, error) {
	var eff app.Effect
	err := c.do(ctx, http.MethodPost, "/classes/"+url.PathEscape(classID)+"/attendance", nil, req, &eff)
	return eff, err
}

// Debtors lists students with pending charges.
func (c *Client) Debtors(ctx context.Context) ([]app.Debtor, error) {
	var resp struct {
		Debtors []app.Debtor `json:"debtors"`
	}
	if err := c.do(ctx, http.MethodGet, "/debtors", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Debtors, nil
}

// parseError parses an error response from the API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Code: "unreadable_response"}
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Description: string(bytes.TrimSpace(body))}
	}

	apiErr := &APIError{Status: resp.StatusCode, Code: errResp.Error, Description: errResp.ErrorDescription}
	if len(errResp.Fields) > 0 {
		apiErr.Fields = make(map[string]string, len(errResp.Fields))
		for _, f := range errResp.Fields {
			apiErr.Fields[f.Field] = f.Error
		}
	}
	return apiErr
}
