// Package notify delivers finished reports to users by email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/weather-report/internal/report"
)

const (
	reportBody = "Attached is your requested weather report."

	// subjectDateLayout renders the calendar date of a report range bound
	subjectDateLayout = "Mon Jan 02 2006"
)

// Attachment is a file attached to a Message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Transport sends a Message through an email provider and returns the provider message id
type Transport interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// Mailer composes report emails and hands them to a Transport
type Mailer struct {
	transport Transport
	from      string
	logger    *slog.Logger
}

// NewMailer creates a Mailer sending from the given address
func NewMailer(transport Transport, from string, logger *slog.Logger) *Mailer {
	return &Mailer{
		transport: transport,
		from:      from,
		logger:    logger,
	}
}

// SendReport emails report to a single recipient. The transport error is returned as is.
func (m *Mailer) SendReport(ctx context.Context, to, deviceID string, start, end time.Time, data []byte) error {
	if to == "" {
		return errors.New("recipient address is empty")
	}

	msg := &Message{
		From:    m.from,
		To:      []string{to},
		Subject: ReportSubject(deviceID, start, end),
		HTML:    reportBody,
		Attachments: []Attachment{{
			Filename:    ReportFilename(deviceID),
			ContentType: report.ContentType,
			Content:     data,
		}},
	}

	id, err := m.transport.Send(ctx, msg)
	if err != nil {
		return err
	}

	m.logger.Info("Report email sent",
		slog.String("device_id", deviceID),
		slog.String("message_id", id),
		slog.Int("attachment_bytes", len(data)),
	)
	return nil
}

// ReportSubject returns the subject line of a report email
func ReportSubject(deviceID string, start, end time.Time) string {
	return fmt.Sprintf("Report of %s (%s - %s)", deviceID, start.Format(subjectDateLayout), end.Format(subjectDateLayout))
}

// ReportFilename returns the attachment name of a device report
func ReportFilename(deviceID string) string {
	return fmt.Sprintf("Report of %s.xlsx", deviceID)
}
