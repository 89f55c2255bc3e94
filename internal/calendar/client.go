// Package calendar talks to the calendar bridge that mirrors tickets as
// remote calendar events. The bridge owns the OAuth connection to the
// provider; this client only speaks its small JSON API.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jimz159753/omnia-api/internal/app"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type eventPayload struct {
	Title string    `json:"title"`
	Notes string    `json:"notes,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateEvent(ctx context.Context, ev app.CalendarEvent) (string, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/events", payloadFor(ev))
	if err != nil {
		return "", err
	}

	var resp eventResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode event response: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) UpdateEvent(ctx context.Context, eventID string, ev app.CalendarEvent) error {
	_, err := c.do(ctx, http.MethodPut, c.baseURL+"/events/"+eventID, payloadFor(ev))
	return err
}

func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	_, err := c.do(ctx, http.MethodDelete, c.baseURL+"/events/"+eventID, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode event: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("calendar bridge: %s %s returned %d", method, url, res.StatusCode)
	}
	return raw, nil
}

func payloadFor(ev app.CalendarEvent) eventPayload {
	return eventPayload{
		Title: ev.Title,
		Notes: ev.Notes,
		Start: ev.Start,
		End:   ev.End,
	}
}
