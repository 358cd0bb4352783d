package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roi-widget/domain"
)

func sampleSubmission() domain.FormSubmission {
	return domain.FormSubmission{
		Fields: []domain.FieldValue{
			{Name: "firstname", Value: "Ada"},
			{Name: "email", Value: "ada@example.com"},
		},
		Context: domain.PageContext{PageURI: "https://example.com/roi", PageName: "ROI"},
	}
}

func TestSendLead_OK(t *testing.T) {
	var gotPath, gotType string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("123", "abc-def", WithBaseURL(srv.URL))
	receipt, err := c.SendLead(context.Background(), sampleSubmission())

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, receipt.StatusCode)
	assert.Equal(t, Channel, receipt.Channel)
	assert.Equal(t, "/submissions/v3/integration/submit/123/abc-def", gotPath)
	assert.Equal(t, "application/json", gotType)

	fields := got["fields"].([]any)
	require.Len(t, fields, 2)
	assert.Equal(t, map[string]any{"name": "firstname", "value": "Ada"}, fields[0])
	assert.Equal(t, map[string]any{"pageUri": "https://example.com/roi", "pageName": "ROI"}, got["context"])
}

func TestSendLead_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error","message":"invalid email"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("123", "abc", WithBaseURL(srv.URL))
	_, err := c.SendLead(context.Background(), sampleSubmission())

	var rej *domain.RemoteRejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusBadRequest, rej.StatusCode)
	assert.Contains(t, rej.Body, "invalid email")
}

func TestSendLead_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient("123", "abc", WithBaseURL(url))
	_, err := c.SendLead(context.Background(), sampleSubmission())

	var nerr *domain.NetworkError
	assert.True(t, errors.As(err, &nerr))
}

func TestSendLead_ContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient("123", "abc", WithBaseURL(srv.URL))
	_, err := c.SendLead(ctx, sampleSubmission())

	var nerr *domain.NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendLead_Unconfigured(t *testing.T) {
	c := NewClient("", "abc")
	assert.False(t, c.Configured())

	_, err := c.SendLead(context.Background(), sampleSubmission())
	assert.Error(t, err)
}
