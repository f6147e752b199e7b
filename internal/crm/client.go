// Package crm pushes captured leads to HubSpot's CRM v3 API.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"site-generator-backend/internal/logger"
)

// noteToContactAssociation is HubSpot's built-in note -> contact association type.
const noteToContactAssociation = 202

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	backoffs    []time.Duration
}

// Contact is the subset of contact properties written for a lead.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Company   string
}

type objectResponse struct {
	ID string `json:"id"`
}

type searchResponse struct {
	Total   int              `json:"total"`
	Results []objectResponse `json:"results"`
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to %s: status %d, body: %s", e.Op, e.StatusCode, e.Body)
}

// retryable reports whether a failed call is worth repeating.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// SetBackoffs replaces the sleep schedule used between retries.
func (c *Client) SetBackoffs(backoffs ...time.Duration) {
	c.backoffs = backoffs
}

// SyncLead creates or updates the contact and attaches note to it. A failed
// note is logged and does not fail the sync.
func (c *Client) SyncLead(ctx context.Context, contact Contact, note string) (string, error) {
	var contactID string
	err := c.RetryWithBackoff(ctx, func() error {
		id, err := c.UpsertContact(ctx, contact)
		contactID = id
		return err
	}, 3)
	if err != nil {
		return "", err
	}

	if note == "" {
		return contactID, nil
	}
	err = c.RetryWithBackoff(ctx, func() error {
		return c.AddNote(ctx, contactID, note)
	}, 3)
	if err != nil {
		logger.L().Warn("crm note not attached",
			zap.String("contact_id", contactID),
			zap.Error(err))
	}
	return contactID, nil
}

// UpsertContact updates the contact matching contact.Email, or creates one.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	if contact.Email == "" {
		return "", fmt.Errorf("contact email is required")
	}

	id, err := c.findContactByEmail(ctx, contact.Email)
	if err != nil {
		return "", err
	}

	props := contactProperties(contact)
	if id != "" {
		if err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+id, map[string]any{"properties": props}, nil, "update contact"); err != nil {
			return "", err
		}
		return id, nil
	}

	var created objectResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", map[string]any{"properties": props}, &created, "create contact"); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("contact id is empty in response")
	}
	return created.ID, nil
}

// AddNote attaches a free-text note to a contact.
func (c *Client) AddNote(ctx context.Context, contactID, body string) error {
	payload := map[string]any{
		"properties": map[string]string{
			"hs_note_body": body,
			"hs_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
		"associations": []map[string]any{{
			"to": map[string]string{"id": contactID},
			"types": []map[string]any{{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   noteToContactAssociation,
			}},
		}},
	}
	return c.do(ctx, http.MethodPost, "/crm/v3/objects/notes", payload, nil, "create note")
}

func (c *Client) findContactByEmail(ctx context.Context, email string) (string, error) {
	payload := map[string]any{
		"filterGroups": []map[string]any{{
			"filters": []map[string]string{{
				"propertyName": "email",
				"operator":     "EQ",
				"value":        email,
			}},
		}},
		"properties": []string{"email"},
		"limit":      1,
	}

	var result searchResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", payload, &result, "search contacts"); err != nil {
		return "", err
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, op string) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
	}
	return nil
}

func contactProperties(contact Contact) map[string]string {
	props := map[string]string{
		"email":          contact.Email,
		"hs_lead_status": "NEW",
	}
	set := func(key, value string) {
		if value != "" {
			props[key] = value
		}
	}
	set("firstname", contact.FirstName)
	set("lastname", contact.LastName)
	set("phone", contact.Phone)
	set("company", contact.Company)
	return props
}

// SplitName splits a full name into first and last name.
func SplitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
// Errors that cannot succeed on retry (4xx other than 429) end it early, and
// so does ctx ending while it waits.
func (c *Client) RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return err
		}
		if i < len(c.backoffs) && i < maxRetries-1 {
			timer := time.NewTimer(c.backoffs[i])
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted after %d attempts: %w", i+1, ctx.Err())
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
