// Package netid resolves the network identifier attached to a check-in. The
// lookup service is an external collaborator; when it cannot answer, callers
// get the Unknown sentinel rather than an error.
package netid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Unknown is returned when no identifier could be determined. It is a valid
// token as far as the pipeline is concerned, just an unidentifying one.
const Unknown = "unknown"

// DefaultTimeout bounds how long a lookup may block a check-in.
const DefaultTimeout = 5 * time.Second

// Client calls the network identifier lookup service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip enabled the raw remote address is used
// directly, which is the right mode for single-homed deployments without a
// lookup service.
func New(baseURL string, skip bool, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Lookup resolves the canonical identifier for a remote address. Any failure
// (service down, timeout, bad payload) yields Unknown.
func (c *Client) Lookup(ctx context.Context, remoteAddr string) string {
	if c.Skip || c.BaseURL == "" {
		if remoteAddr == "" {
			return Unknown
		}
		return remoteAddr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v1/resolve?addr="+url.QueryEscape(remoteAddr), nil)
	if err != nil {
		return Unknown
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Unknown
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Unknown
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ID == "" {
		return Unknown
	}
	return body.ID
}
