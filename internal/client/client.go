// Package client talks to a running flow API over HTTP
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
	"strings"
	"time"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

type (
	// Client wraps the flow API endpoints
	Client struct {
		httpClient *http.Client
		baseURL    string
	}

	// StatusError reports a non-success response from the API. It matches
	// the failed operation with errors.Is, and also ErrFlowNotFound or
	// ErrFlowRejected where the status calls for it
	StatusError struct {
		Op      error
		Status  int
		Kind    string
		Message string
	}
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	routeFlows    = "/flows"
	routeValidate = "/flows/validate"
	routeHealth   = "/health"
)

var (
	ErrSaveFlow     = errors.New("failed to save flow")
	ErrLoadFlow     = errors.New("failed to load flow")
	ErrListFlows    = errors.New("failed to list flows")
	ErrDeleteFlow   = errors.New("failed to delete flow")
	ErrValidateFlow = errors.New("failed to validate flow")
	ErrHealth       = errors.New("failed to check health")

	ErrFlowNotFound = errors.New("flow not found")
	ErrFlowRejected = errors.New("flow rejected")
)

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SaveFlow stores JSON flow text and returns the new flow's ID
func (c *Client) SaveFlow(
	ctx context.Context, data []byte,
) (api.FlowID, error) {
	var res api.FlowCreatedResponse
	err := c.do(ctx, ErrSaveFlow, http.MethodPost, routeFlows, data, &res)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// SaveDocument encodes a decoded flow document and stores it
func (c *Client) SaveDocument(
	ctx context.Context, doc any,
) (api.FlowID, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFlow, err)
	}
	return c.SaveFlow(ctx, data)
}

// LoadFlow returns the stored JSON text of a flow. An empty id loads the
// most recently saved flow
func (c *Client) LoadFlow(
	ctx context.Context, id api.FlowID,
) ([]byte, error) {
	if id == "" {
		id = api.LatestFlowID
	}
	var res json.RawMessage
	err := c.do(ctx, ErrLoadFlow, http.MethodGet, flowPath(id), nil, &res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListFlows returns summaries of all stored flows, newest first
func (c *Client) ListFlows(
	ctx context.Context,
) (*api.FlowsListResponse, error) {
	var res api.FlowsListResponse
	err := c.do(ctx, ErrListFlows, http.MethodGet, routeFlows, nil, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteFlow removes a stored flow
func (c *Client) DeleteFlow(ctx context.Context, id api.FlowID) error {
	return c.do(ctx, ErrDeleteFlow, http.MethodDelete, flowPath(id), nil, nil)
}

// ValidateFlow asks the server to validate JSON flow text without storing it
func (c *Client) ValidateFlow(
	ctx context.Context, data []byte,
) (*api.FlowValidResponse, error) {
	var res api.FlowValidResponse
	err := c.do(
		ctx, ErrValidateFlow, http.MethodPost, routeValidate, data, &res,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Health reports the server's health
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	err := c.do(ctx, ErrHealth, http.MethodGet, routeHealth, nil, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(
	ctx context.Context, op error, method, path string, body []byte, out any,
) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusCreated {
		return newStatusError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	return nil
}

func newStatusError(op error, resp *http.Response) *StatusError {
	res := &StatusError{
		Op:     op,
		Status: resp.StatusCode,
	}

	body, _ := io.ReadAll(resp.Body)
	var er api.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		res.Message = er.Error
		res.Kind = er.Kind
	} else {
		res.Message = strings.TrimSpace(string(body))
	}
	return res
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *StatusError) Unwrap() []error {
	switch e.Status {
	case http.StatusNotFound:
		return []error{e.Op, ErrFlowNotFound}
	case http.StatusBadRequest:
		return []error{e.Op, ErrFlowRejected}
	default:
		return []error{e.Op}
	}
}

func flowPath(id api.FlowID) string {
	return routeFlows + "/" + url.PathEscape(string(id))
}
