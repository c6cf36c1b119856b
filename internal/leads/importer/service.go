// Package importer handles bulk lead intake from CSV and Excel uploads.
// Imports always complete: bad rows degrade to sentinel values or are
// reported, never aborting the run.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"admissions_backend/internal/events"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	settingsdomain "admissions_backend/internal/settings/domain"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"
	"admissions_backend/platform/phone"

	"github.com/google/uuid"
)

// SentinelText substitutes for a recognized column whose value is missing.
const SentinelText = "NA"

// Repository is the persistence surface the importer needs.
type Repository interface {
	CreateLead(ctx context.Context, params repository.CreateLeadParams) (domain.RawLead, error)
	ListPhones(ctx context.Context) ([]string, error)
	AppendActivity(ctx context.Context, params repository.AppendActivityParams) error
}

// SettingsProvider supplies the registry and default source.
type SettingsProvider interface {
	Registry(ctx context.Context) *settingsdomain.Registry
	DefaultSourceName(ctx context.Context) string
}

// ReportStore persists uploaded files and generated error reports.
type ReportStore interface {
	SaveImportFile(ctx context.Context, name string, data []byte) (string, error)
	SaveErrorReport(ctx context.Context, name string, data []byte) (string, error)
}

// Config carries the import tunables.
type Config interface {
	GetImportBatchSize() int
	GetImportBatchPause() time.Duration
}

// RowError describes one rejected row for the downloadable report.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Summary is the always-produced outcome of an import run.
type Summary struct {
	Inserted   int        `json:"inserted"`
	Duplicates int        `json:"duplicates"`
	Errors     int        `json:"errors"`
	RowErrors  []RowError `json:"rowErrors,omitempty"`
	ReportURL  string     `json:"reportUrl,omitempty"`
}

type Service struct {
	repo     Repository
	settings SettingsProvider
	store    ReportStore
	bus      events.Bus
	cfg      Config
	log      *logger.Logger
}

func NewService(repo Repository, settings SettingsProvider, store ReportStore, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{repo: repo, settings: settings, store: store, bus: bus, cfg: cfg, log: log}
}

// Import parses the upload and inserts rows in fixed-size sequential batches
// with a short pause between batches. Duplicate phone numbers are skipped
// using an in-memory set seeded from the full table and updated per accepted
// row, so duplicates inside the same file are caught too. The run always
// completes with counts; per-row failures land in the error report.
func (s *Service) Import(ctx context.Context, fileName string, data []byte) (Summary, error) {
	rows, err := parseFile(fileName, data)
	if err != nil {
		return Summary{}, apperr.BadRequest(fmt.Sprintf("could not parse %s: %v", fileName, err))
	}
	if len(rows) < 2 {
		return Summary{}, apperr.BadRequest("file needs a header row and at least one data row")
	}

	columns := mapHeaders(rows[0])
	if _, ok := indexOf(columns, fieldParentsName); !ok {
		return Summary{}, apperr.BadRequest("no recognizable parent-name column in header row")
	}

	reg := s.settings.Registry(ctx)
	firstKey, ok := reg.FirstActiveKey()
	if !ok {
		return Summary{}, apperr.Validation("no active stage is configured; cannot import leads")
	}

	seen, err := s.seedPhoneSet(ctx)
	if err != nil {
		return Summary{}, apperr.Wrap(apperr.KindInternal, "failed to seed duplicate detection", err)
	}

	if _, err := s.store.SaveImportFile(ctx, fileName, data); err != nil {
		// The archive copy is a convenience; the import itself proceeds.
		s.log.Error("import_file_archive_failed", "file", fileName, "error", err.Error())
	}

	defaultSource := s.settings.DefaultSourceName(ctx)
	batchSize := s.cfg.GetImportBatchSize()
	if batchSize <= 0 {
		batchSize = 25
	}

	var summary Summary
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		if i > 0 && i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(s.cfg.GetImportBatchPause()):
			}
		}

		params, reason := buildRow(row, columns, defaultSource)
		if reason != "" {
			summary.Errors++
			summary.RowErrors = append(summary.RowErrors, RowError{Row: rowNum, Reason: reason})
			continue
		}

		// Sentinel phones are excluded from duplicate detection so degraded
		// rows still insert.
		if params.Phone != phone.SentinelInvalid {
			if _, dup := seen[params.Phone]; dup {
				summary.Duplicates++
				summary.RowErrors = append(summary.RowErrors, RowError{Row: rowNum, Reason: "duplicate phone number"})
				continue
			}
		}

		params.Stage = firstKey
		params.Score = reg.ScoreOf(firstKey)
		params.Category = string(reg.CategoryOf(firstKey))

		lead, err := s.repo.CreateLead(ctx, params)
		if err != nil {
			summary.Errors++
			summary.RowErrors = append(summary.RowErrors, RowError{Row: rowNum, Reason: fmt.Sprintf("insert failed: %v", err)})
			continue
		}

		if params.Phone != phone.SentinelInvalid {
			seen[params.Phone] = struct{}{}
		}
		summary.Inserted++

		s.recordImported(ctx, lead)
	}

	if len(summary.RowErrors) > 0 {
		summary.ReportURL = s.writeReport(ctx, fileName, summary.RowErrors)
	}

	s.log.ImportSummary(fileName, summary.Inserted, summary.Duplicates, summary.Errors)
	return summary, nil
}

func (s *Service) seedPhoneSet(ctx context.Context) (map[string]struct{}, error) {
	phones, err := s.repo.ListPhones(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		normalized := phone.NormalizeLocal(p)
		if normalized != "" && normalized != phone.SentinelInvalid {
			seen[normalized] = struct{}{}
		}
	}
	return seen, nil
}

// buildRow maps one data row to insert params. Missing text degrades to the
// sentinel, an uncompletable phone degrades to the invalid-phone sentinel;
// only a missing parent name rejects the row.
func buildRow(row []string, columns map[int]string, defaultSource string) (repository.CreateLeadParams, string) {
	values := make(map[string]string, len(columns))
	for idx, field := range columns {
		values[field] = cell(row, idx)
	}

	if values[fieldParentsName] == "" {
		return repository.CreateLeadParams{}, "missing parent name"
	}

	rawPhone := values[fieldPhone]
	normalized := phone.NormalizeLocal(rawPhone)
	if !phone.IsValidLocal(rawPhone) {
		normalized = phone.SentinelInvalid
	}

	source := values[fieldSource]
	if source == "" {
		source = defaultSource
	}

	return repository.CreateLeadParams{
		ParentsName:   values[fieldParentsName],
		KidsName:      textOrSentinel(values[fieldKidsName]),
		Phone:         normalized,
		SecondPhone:   phone.NormalizeLocal(values[fieldSecondPhone]),
		Email:         textOrSentinel(values[fieldEmail]),
		Location:      textOrSentinel(values[fieldLocation]),
		Grade:         textOrSentinel(values[fieldGrade]),
		Counsellor:    values[fieldCounsellor],
		Notes:         values[fieldNotes],
		Offer:         values[fieldOffer],
		Source:        source,
		Occupation:    textOrSentinel(values[fieldOccupation]),
		CurrentSchool: textOrSentinel(values[fieldCurrentSchool]),
	}, ""
}

func textOrSentinel(v string) string {
	if v == "" {
		return SentinelText
	}
	return v
}

func (s *Service) recordImported(ctx context.Context, lead domain.RawLead) {
	err := s.repo.AppendActivity(ctx, repository.AppendActivityParams{
		LeadID:      lead.ID,
		MainAction:  "created",
		Description: "Lead imported from file",
	})
	if err != nil {
		s.log.DatabaseError("append_activity", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		ParentName: lead.ParentsName,
		ChildName:  lead.KidsName,
		Phone:      lead.Phone,
		Grade:      lead.Grade,
		Source:     lead.Source,
		Imported:   true,
	})
}

// writeReport renders the row errors as a CSV and stores it for download.
// Failures degrade to an empty URL; the summary still carries the rows.
func (s *Service) writeReport(ctx context.Context, fileName string, rowErrors []RowError) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"row", "reason"})
	for _, re := range rowErrors {
		_ = w.Write([]string{strconv.Itoa(re.Row), re.Reason})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.log.Error("error_report_render_failed", "file", fileName, "error", err.Error())
		return ""
	}

	reportName := fmt.Sprintf("%s-errors-%s.csv", fileName, uuid.NewString())
	url, err := s.store.SaveErrorReport(ctx, reportName, buf.Bytes())
	if err != nil {
		s.log.Error("error_report_upload_failed", "file", fileName, "error", err.Error())
		return ""
	}
	return url
}
