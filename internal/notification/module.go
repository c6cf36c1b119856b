// Package notification reacts to domain events with outbound side effects:
// the welcome message for new leads. Every side effect here is best-effort;
// a failure is logged and never blocks the originating operation.
package notification

import (
	"context"
	"time"

	"admissions_backend/internal/campaign"
	"admissions_backend/internal/events"
	"admissions_backend/platform/logger"
)

// welcomeTimeout bounds a single campaign API call; the bus dispatches
// handlers asynchronously, so the originating request never waits on it.
const welcomeTimeout = 15 * time.Second

type Module struct {
	campaign *campaign.Client
	log      *logger.Logger
}

// NewModule subscribes the welcome-message handler to LeadCreated.
func NewModule(bus events.Bus, campaignClient *campaign.Client, log *logger.Logger) *Module {
	m := &Module{campaign: campaignClient, log: log}
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(m.onLeadCreated))
	return m
}

func (m *Module) onLeadCreated(_ context.Context, event events.Event) error {
	created, ok := event.(events.LeadCreated)
	if !ok {
		return nil
	}
	if !m.campaign.Enabled() {
		return nil
	}

	// Detached context: the HTTP request that created the lead may already
	// be finished.
	ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
	defer cancel()

	err := m.campaign.SendWelcome(ctx, created.Phone, created.ParentName, created.ChildName, created.Grade)
	if err != nil {
		m.log.Warn("welcome_message_failed",
			"lead_id", created.LeadID.String(),
			"error", err.Error(),
		)
	}
	return nil
}
