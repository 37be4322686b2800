// Package client is an HTTP client for the watch summary API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/common/httputil"
)

// APIError is a non-2xx response from the summary API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("summary API returned %d: %s", e.StatusCode, e.Message)
}

// IsBadRequest reports whether err is a 400 from the API.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// Query selects and orders a summary.
type Query struct {
	Tenant  string
	Sorting string
	// Criteria is sent verbatim as the request body.
	Criteria json.RawMessage
	Page     int
	Limit    int
}

// SummaryResponse is the decoded body of a summary call.
type SummaryResponse struct {
	Data models.Report `json:"data"`
	Meta *struct {
		Pagination httputil.Pagination `json:"pagination"`
	} `json:"meta,omitempty"`
}

type SummaryClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewSummaryClient(baseURL, token string) *SummaryClient {
	return &SummaryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Summary fetches the watch summary of q.Tenant.
func (c *SummaryClient) Summary(ctx context.Context, q Query) (*SummaryResponse, error) {
	resp, err := c.post(ctx, "/summary", q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode summary response: %w", err)
	}
	if out.Data.Watches == nil {
		out.Data.Watches = []models.WatchSummary{}
	}
	return &out, nil
}

// Export downloads the summary rendered as format ("xlsx" or "pdf").
func (c *SummaryClient) Export(ctx context.Context, q Query, format string) ([]byte, error) {
	resp, err := c.post(ctx, "/summary/export", q, url.Values{"format": {format}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return body, nil
}

func (c *SummaryClient) post(ctx context.Context, path string, q Query, extra url.Values) (*http.Response, error) {
	if q.Tenant == "" {
		return nil, errors.New("tenant is required")
	}

	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	if q.Sorting != "" {
		params.Set("sorting", q.Sorting)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	u := c.baseURL + "/api/v1/tenants/" + url.PathEscape(q.Tenant) + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(q.Criteria))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call summary API: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body httputil.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
	}
	return nil, apiErr
}
