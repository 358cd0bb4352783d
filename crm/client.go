// Package crm posts lead submissions to a form-ingestion endpoint addressed
// by an account (portal) id and a form id.
package crm

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

	"roi-widget/domain"
)

const (
	DefaultBaseURL = "https://api.hsforms.com"
	Channel        = "crm"

	submitPath        = "/submissions/v3/integration/submit/"
	maxDiagnosticBody = 2048
)

type Client struct {
	BaseURL    string
	PortalID   string
	FormID     string
	HTTPClient *http.Client
}

func NewClient(portalID, formID string, opts ...func(*Client)) *Client {
	c := &Client{
		BaseURL:    DefaultBaseURL,
		PortalID:   portalID,
		FormID:     formID,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithBaseURL(baseURL string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.BaseURL = baseURL
		}
	}
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// Configured reports whether both identifiers are set.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.PortalID) != "" && strings.TrimSpace(c.FormID) != ""
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + submitPath +
		url.PathEscape(c.PortalID) + "/" + url.PathEscape(c.FormID)
}

// SendLead posts sub as JSON. Any 2xx is success; other statuses come back
// as *domain.RemoteRejection and transport failures as *domain.NetworkError.
func (c *Client) SendLead(ctx context.Context, sub domain.FormSubmission) (domain.Receipt, error) {
	if !c.Configured() {
		return domain.Receipt{}, errors.New("crm portal/form ids are not set")
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.Receipt{}, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
		return domain.Receipt{}, &domain.RemoteRejection{StatusCode: resp.StatusCode, Body: string(diag)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiagnosticBody))
	return domain.Receipt{Channel: Channel, StatusCode: resp.StatusCode}, nil
}
