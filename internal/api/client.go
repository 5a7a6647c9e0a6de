// Package api is the HTTP client for the central attendance service.
//
// The client only moves bytes and reports what happened; retry policy and
// outcome classification belong to the sync engine. Transport errors are
// returned as-is so the caller can tell timeouts from refused connections.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Confirmation header values for the destructive admin endpoints.
const (
	ConfirmDeleteHeader       = "X-Confirm-Delete"
	ConfirmDeleteAllScans     = "DELETE ALL SCANS"
	ConfirmDeleteStationScans = "DELETE STATION SCANS"
)

// Response is the raw outcome of one HTTP call: the status code and the
// response body. A nil Response means the request never got an answer.
type Response struct {
	StatusCode int
	Body       []byte
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.With("component", "api"),
	}
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// SubmitBatch posts one page of scan events. The raw response is returned
// for every answered request, including 4xx and 5xx; the error is non-nil
// only for transport failures.
func (c *Client) SubmitBatch(ctx context.Context, req BatchRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/v1/scans/batch", nil, req)
}

// SendHeartbeat reports station identity, epoch and backlog size. Failure
// is returned for logging; callers never retry inline.
func (c *Client) SendHeartbeat(ctx context.Context, req HeartbeatRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/station/heartbeat", nil, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat rejected with status %d", resp.StatusCode)
	}
	return nil
}

// StationStatus queries the health of every known station plus the current
// clear epoch.
func (c *Client) StationStatus(ctx context.Context) (*StationStatusResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/station/status", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("station status request failed with status %d", resp.StatusCode)
	}

	var status StationStatusResponse
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("failed to decode station status: %w", err)
	}
	return &status, nil
}

// DashboardStats fetches the cloud-side scan aggregates.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStatsResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/dashboard/stats", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dashboard stats request failed with status %d", resp.StatusCode)
	}

	var stats DashboardStatsResponse
	if err := json.Unmarshal(resp.Body, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard stats: %w", err)
	}
	return &stats, nil
}

// Export downloads every scan the cloud holds.
func (c *Client) Export(ctx context.Context) (*ExportResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/dashboard/export", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export request failed with status %d", resp.StatusCode)
	}

	var export ExportResponse
	if err := json.Unmarshal(resp.Body, &export); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return &export, nil
}

// ClearAllScans wipes the shared cloud dataset. The confirmation header is
// mandatory; the cloud bumps its clear epoch so every station reconciles.
func (c *Client) ClearAllScans(ctx context.Context) (*ClearScansResponse, error) {
	headers := map[string]string{ConfirmDeleteHeader: ConfirmDeleteAllScans}
	resp, err := c.do(ctx, http.MethodDelete, "/v1/admin/clear-scans", headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clear scans request failed with status %d", resp.StatusCode)
	}

	var cleared ClearScansResponse
	if err := json.Unmarshal(resp.Body, &cleared); err != nil {
		return nil, fmt.Errorf("failed to decode clear response: %w", err)
	}
	return &cleared, nil
}

// ClearStationScans deletes the cloud copies of one station's scans.
func (c *Client) ClearStationScans(ctx context.Context, station string) (*ClearStationResponse, error) {
	headers := map[string]string{ConfirmDeleteHeader: ConfirmDeleteStationScans}
	resp, err := c.do(ctx, http.MethodDelete, "/v1/scans/clear-station?station="+url.QueryEscape(station), headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clear station request failed with status %d", resp.StatusCode)
	}

	var cleared ClearStationResponse
	if err := json.Unmarshal(resp.Body, &cleared); err != nil {
		return nil, fmt.Errorf("failed to decode clear response: %w", err)
	}
	return &cleared, nil
}

// Ping probes the service root without authentication. Used purely for
// reachability diagnostics.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
