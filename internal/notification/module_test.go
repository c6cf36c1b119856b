package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions_backend/internal/campaign"
	"admissions_backend/internal/events"
	"admissions_backend/platform/logger"
)

type campaignConfig struct {
	url string
	key string
}

func (c campaignConfig) GetCampaignWebhookURL() string { return c.url }
func (c campaignConfig) GetCampaignAPIKey() string     { return c.key }

func TestWelcomeMessageSentOnLeadCreated(t *testing.T) {
	var received map[string]string
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	log := logger.New("development")
	client := campaign.New(campaignConfig{url: server.URL, key: "secret"}, log)
	bus := events.NewInMemoryBus(log)
	NewModule(bus, client, log)

	err := bus.PublishSync(context.Background(), events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		ParentName: "Asha Rao",
		ChildName:  "Dev",
		Phone:      "9876543210",
		Grade:      "Grade 3",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "9876543210", received["phone"])
	assert.Equal(t, "Asha Rao", received["parent"])
	assert.Equal(t, "Dev", received["child"])
	assert.Equal(t, "Grade 3", received["grade"])
}

func TestWelcomeFailureNeverPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	log := logger.New("development")
	client := campaign.New(campaignConfig{url: server.URL}, log)
	bus := events.NewInMemoryBus(log)
	NewModule(bus, client, log)

	err := bus.PublishSync(context.Background(), events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		ParentName: "Asha Rao",
	})
	assert.NoError(t, err, "campaign failures are soft warnings")
}

func TestWelcomeSkippedWhenDisabled(t *testing.T) {
	log := logger.New("development")
	client := campaign.New(campaignConfig{}, log)
	bus := events.NewInMemoryBus(log)
	NewModule(bus, client, log)

	err := bus.PublishSync(context.Background(), events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
	})
	assert.NoError(t, err)
}
