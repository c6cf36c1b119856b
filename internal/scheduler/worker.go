package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"admissions_backend/internal/email"
	leadrepo "admissions_backend/internal/leads/repository"
	settingsrepo "admissions_backend/internal/settings/repository"
	"admissions_backend/platform/config"
	"admissions_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes scheduled tasks and delivers follow-up reminder mails
// to the counsellor assigned to the lead.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	leads    *leadrepo.Repository
	settings *settingsrepo.Repository
	sender   email.Sender
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		leads:    leadrepo.New(pool),
		settings: settingsrepo.New(pool),
		sender:   sender,
		log:      log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	followUpID, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	followUp, err := w.leads.GetFollowUp(ctx, followUpID)
	if errors.Is(err, leadrepo.ErrNotFound) {
		// Follow-up was deleted after scheduling.
		return nil
	}
	if err != nil {
		return err
	}

	lead, err := w.leads.GetLead(ctx, leadID)
	if errors.Is(err, leadrepo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if strings.TrimSpace(lead.Counsellor) == "" {
		w.log.Info("follow-up reminder skipped, lead unassigned", "lead_id", leadID)
		return nil
	}

	toEmail, err := w.counsellorEmail(ctx, lead.Counsellor)
	if err != nil {
		return err
	}
	if toEmail == "" {
		w.log.Info("follow-up reminder skipped, counsellor has no email", "counsellor", lead.Counsellor)
		return nil
	}

	return w.sender.SendFollowUpReminder(ctx, toEmail, lead.Counsellor, lead.ParentsName, followUp.FollowUpDate, followUp.Details)
}

func (w *Worker) counsellorEmail(ctx context.Context, name string) (string, error) {
	counsellors, err := w.settings.ListCounsellors(ctx, false)
	if err != nil {
		return "", err
	}

	for _, c := range counsellors {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return strings.TrimSpace(c.Email), nil
		}
	}
	return "", nil
}
