package email

import (
	"admissions_backend/platform/config"
	"admissions_backend/platform/logger"
)

// NewSender picks the delivery backend from config. With email disabled
// the noop sender keeps the scheduler wiring intact without any SMTP setup.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NewNoopSender(log), nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
