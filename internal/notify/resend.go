package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendTransport sends messages through the Resend API
type ResendTransport struct {
	client *resend.Client
}

// NewResendTransport creates a transport authenticated with apiKey
func NewResendTransport(apiKey string) (*ResendTransport, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}
	return &ResendTransport{client: resend.NewClient(apiKey)}, nil
}

// Send implements Transport
func (t *ResendTransport) Send(ctx context.Context, msg *Message) (string, error) {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	resp, err := t.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}
