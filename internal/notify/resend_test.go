package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	From        string   `json:"from"`
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	HTML        string   `json:"html"`
	Attachments []struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Content     []int  `json:"content"`
	} `json:"attachments"`
}

func newTestResendTransport(t *testing.T, handler http.HandlerFunc) *ResendTransport {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	transport, err := NewResendTransport("re_test_key")
	require.NoError(t, err)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	transport.client.BaseURL = base
	return transport
}

func TestResendTransport_Send(t *testing.T) {
	var got sentEmail
	var auth string
	transport := newTestResendTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-123"}`))
	})

	id, err := transport.Send(context.Background(), &Message{
		From:    "reports@example.com",
		To:      []string{"user@example.com"},
		Subject: "Report of D1 (Mon Jan 01 2024 - Tue Jan 02 2024)",
		HTML:    reportBody,
		Attachments: []Attachment{{
			Filename:    "Report of D1.xlsx",
			ContentType: report.ContentType,
			Content:     []byte{0x50, 0x4b},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, "email-123", id)
	assert.Equal(t, "Bearer re_test_key", auth)
	assert.Equal(t, []string{"user@example.com"}, got.To)
	assert.Equal(t, reportBody, got.HTML)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "Report of D1.xlsx", got.Attachments[0].Filename)
	assert.Equal(t, report.ContentType, got.Attachments[0].ContentType)
	assert.Equal(t, []int{0x50, 0x4b}, got.Attachments[0].Content)
}

func TestResendTransport_SendError(t *testing.T) {
	transport := newTestResendTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	})

	_, err := transport.Send(context.Background(), &Message{From: "bad", To: []string{"user@example.com"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resend:")
	assert.Contains(t, err.Error(), "invalid from address")
}

func TestNewResendTransport_RequiresKey(t *testing.T) {
	_, err := NewResendTransport("")
	assert.Error(t, err)
}
