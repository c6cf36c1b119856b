package email

import (
	"context"
	"time"

	"admissions_backend/platform/logger"
)

// NoopSender is used when email delivery is disabled; it logs instead of
// sending.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) SendFollowUpReminder(_ context.Context, toEmail, _, parentName string, dueAt time.Time, _ string) error {
	s.log.Info("email_disabled_skipping_reminder", "to", toEmail, "parent", parentName, "due_at", dueAt.String())
	return nil
}

func (s *NoopSender) SendStaleLeadDigest(_ context.Context, toEmail, _ string, leads []DigestLead) error {
	s.log.Info("email_disabled_skipping_digest", "to", toEmail, "leads", len(leads))
	return nil
}
