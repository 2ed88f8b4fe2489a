package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// HTTPClient talks to the call-center platform's REST API. Every request is
// bounded by the client timeout so a slow platform cannot hang a dispatch.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient creates a platform client for the given base URL.
func NewHTTPClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "platform_client").Logger(),
	}
}

// ListAgents fetches the full agent roster.
func (c *HTTPClient) ListAgents(ctx context.Context) ([]types.PlatformAgent, error) {
	var agents []types.PlatformAgent
	if err := c.getJSON(ctx, "/v1/agents", &agents); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// ListRecentCalls fetches calls started within the trailing window.
func (c *HTTPClient) ListRecentCalls(ctx context.Context, window time.Duration) ([]types.CallEntry, error) {
	path := "/v1/calls?since=" + strconv.Itoa(int(window.Seconds()))
	var calls []types.CallEntry
	if err := c.getJSON(ctx, path, &calls); err != nil {
		return nil, fmt.Errorf("failed to list recent calls: %w", err)
	}
	return calls, nil
}

// PlaceCall asks the platform to connect the agent to the external number.
// Failures come back as *CallError so the dispatcher can decide whether the
// fallback cascade continues.
func (c *HTTPClient) PlaceCall(ctx context.Context, agentID, phoneNumber string) error {
	payload, err := json.Marshal(map[string]string{
		"agentId": agentID,
		"number":  phoneNumber,
	})
	if err != nil {
		return &CallError{Kind: ErrKindTransport, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(payload))
	if err != nil {
		return &CallError{Kind: ErrKindTransport, Message: err.Error()}
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("agent_id", agentID).Msg("place call transport failure")
		return &CallError{Kind: ErrKindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		c.logger.Debug().Str("agent_id", agentID).Msg("call placed")
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return classifyPlaceCallStatus(resp.StatusCode, string(body))
}

// classifyPlaceCallStatus maps the platform's HTTP status codes onto the
// placement error taxonomy. The mapping lives in one place so new platform
// responses only need a change here.
func classifyPlaceCallStatus(status int, body string) *CallError {
	msg := fmt.Sprintf("platform returned %d: %s", status, body)
	switch status {
	case http.StatusConflict:
		return &CallError{Kind: ErrKindBusy, Message: msg}
	case http.StatusNotFound, http.StatusGone, http.StatusForbidden:
		return &CallError{Kind: ErrKindUnavailable, Message: msg}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &CallError{Kind: ErrKindInvalidTarget, Message: msg}
	default:
		return &CallError{Kind: ErrKindTransport, Message: msg}
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// CRMHTTPClient upserts contacts through the CRM's REST API.
type CRMHTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewCRMHTTPClient creates a CRM client for the given base URL.
func NewCRMHTTPClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *CRMHTTPClient {
	return &CRMHTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "crm_client").Logger(),
	}
}

// EnsureContact upserts the lead as a contact keyed by phone number and
// returns the contact id.
func (c *CRMHTTPClient) EnsureContact(ctx context.Context, lead types.Lead) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"name":  lead.Name,
		"phone": lead.Phone,
		"email": lead.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal contact: %w", err)
	}

	endpoint := c.baseURL + "/v1/contacts/" + url.PathEscape(lead.Phone)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach CRM: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("CRM returned status %d", resp.StatusCode)
	}

	var result struct {
		ContactID string `json:"contactId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode contact response: %w", err)
	}

	c.logger.Debug().Str("contact_id", result.ContactID).Str("phone", lead.Phone).Msg("contact ensured")
	return result.ContactID, nil
}
