// Package email sends counsellor-facing notification mails over SMTP.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers the notification mails the scheduler produces.
type Sender interface {
	SendFollowUpReminder(ctx context.Context, toEmail, counsellorName, parentName string, dueAt time.Time, details string) error
	SendStaleLeadDigest(ctx context.Context, toEmail, counsellorName string, leads []DigestLead) error
}

// DigestLead is one row of the stale-lead digest mail.
type DigestLead struct {
	ParentName string
	Phone      string
	StageName  string
	IdleDays   int
}

type baseEmailData struct {
	Title   string
	Heading string
}

type followUpReminderData struct {
	baseEmailData
	CounsellorName string
	ParentName     string
	DueAt          string
	Details        string
}

type staleDigestData struct {
	baseEmailData
	CounsellorName string
	Leads          []DigestLead
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
