package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions_backend/internal/events"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	settingsdomain "admissions_backend/internal/settings/domain"
	"admissions_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	existing []string
	created  []repository.CreateLeadParams
	logged   int
}

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (domain.RawLead, error) {
	f.created = append(f.created, params)
	return domain.RawLead{
		ID:          uuid.New(),
		ParentsName: params.ParentsName,
		Phone:       params.Phone,
		Stage:       params.Stage,
	}, nil
}

func (f *fakeRepo) ListPhones(context.Context) ([]string, error) { return f.existing, nil }

func (f *fakeRepo) AppendActivity(context.Context, repository.AppendActivityParams) error {
	f.logged++
	return nil
}

type fakeSettings struct{}

func (fakeSettings) Registry(context.Context) *settingsdomain.Registry {
	return settingsdomain.BuildRegistry([]settingsdomain.Stage{
		{StageKey: "new_lead", Name: "New Lead", Score: 20, Category: settingsdomain.CategoryNew, IsActive: true, SortOrder: 1},
	})
}

func (fakeSettings) DefaultSourceName(context.Context) string { return "Website" }

type fakeStore struct {
	reports map[string][]byte
}

func (f *fakeStore) SaveImportFile(_ context.Context, name string, _ []byte) (string, error) {
	return "files/" + name, nil
}

func (f *fakeStore) SaveErrorReport(_ context.Context, name string, data []byte) (string, error) {
	if f.reports == nil {
		f.reports = map[string][]byte{}
	}
	f.reports[name] = data
	return "reports/" + name, nil
}

type fakeBus struct{ published int }

func (f *fakeBus) Publish(context.Context, events.Event) { f.published++ }
func (f *fakeBus) PublishSync(context.Context, events.Event) error {
	f.published++
	return nil
}
func (f *fakeBus) Subscribe(string, events.Handler) {}

type fakeConfig struct{}

func (fakeConfig) GetImportBatchSize() int            { return 2 }
func (fakeConfig) GetImportBatchPause() time.Duration { return time.Millisecond }

func newTestService(repo *fakeRepo) (*Service, *fakeStore, *fakeBus) {
	store := &fakeStore{}
	bus := &fakeBus{}
	svc := NewService(repo, fakeSettings{}, store, bus, fakeConfig{}, logger.New("development"))
	return svc, store, bus
}

func TestImportInsertsAtFirstActiveStage(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, bus := newTestService(repo)

	csvData := "Parents Name,Child Name,Phone Number,Class\n" +
		"Asha Rao,Dev,9876543210,Grade 3\n" +
		"Ravi Kumar,Meera,9876500000,Grade 1\n"

	summary, err := svc.Import(context.Background(), "leads.csv", []byte(csvData))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, repo.created, 2)
	assert.Equal(t, "new_lead", repo.created[0].Stage)
	assert.Equal(t, 20, repo.created[0].Score)
	assert.Equal(t, "New", repo.created[0].Category)
	assert.Equal(t, 2, bus.published)
	assert.Equal(t, 2, repo.logged)
}

func TestImportSkipsDuplicatePhones(t *testing.T) {
	repo := &fakeRepo{existing: []string{"+91 98765 00000"}}
	svc, _, _ := newTestService(repo)

	// Row 2 duplicates the table, row 4 duplicates row 3 within the file.
	csvData := "parent name,phone\n" +
		"Existing Dup,9876500000\n" +
		"Fresh Lead,9876511111\n" +
		"Intra Dup,9876511111\n"

	summary, err := svc.Import(context.Background(), "leads.csv", []byte(csvData))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 2, summary.Duplicates)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Fresh Lead", repo.created[0].ParentsName)
}

func TestImportDegradesToSentinels(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(repo)

	csvData := "Parents Name,Phone,Email,City\n" +
		"Asha Rao,12345,,\n"

	summary, err := svc.Import(context.Background(), "leads.csv", []byte(csvData))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "1234567890", repo.created[0].Phone)
	assert.Equal(t, "NA", repo.created[0].Email)
	assert.Equal(t, "NA", repo.created[0].Location)
	assert.Equal(t, "Website", repo.created[0].Source)
}

func TestImportSentinelPhonesNeverCountAsDuplicates(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(repo)

	csvData := "Parents Name,Phone\n" +
		"One,bad\n" +
		"Two,alsobad\n"

	summary, err := svc.Import(context.Background(), "leads.csv", []byte(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
}

func TestImportReportsUncompletableRows(t *testing.T) {
	repo := &fakeRepo{}
	svc, store, _ := newTestService(repo)

	csvData := "Parents Name,Phone\n" +
		",9876543210\n" +
		"Valid Parent,9876500000\n"

	summary, err := svc.Import(context.Background(), "leads.csv", []byte(csvData))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.RowErrors, 1)
	assert.Equal(t, 2, summary.RowErrors[0].Row)
	assert.NotEmpty(t, summary.ReportURL)

	require.Len(t, store.reports, 1)
	for _, report := range store.reports {
		assert.True(t, strings.Contains(string(report), "missing parent name"))
	}
}

func TestImportRejectsFilesWithoutUsableHeader(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _ := newTestService(repo)

	_, err := svc.Import(context.Background(), "leads.csv", []byte("foo,bar\n1,2\n"))
	assert.Error(t, err)

	_, err = svc.Import(context.Background(), "leads.csv", []byte("Parents Name,Phone\n"))
	assert.Error(t, err)

	_, err = svc.Import(context.Background(), "leads.txt", []byte("whatever"))
	assert.Error(t, err)
}

func TestMapHeadersMatchesSynonymsCaseInsensitively(t *testing.T) {
	columns := mapHeaders([]string{"PARENT NAME", "Kid's Name", "mobile_number", "Standard", "unknown"})

	fields := make(map[string]bool)
	for _, f := range columns {
		fields[f] = true
	}
	assert.True(t, fields[fieldParentsName])
	assert.True(t, fields[fieldKidsName])
	assert.True(t, fields[fieldPhone])
	assert.True(t, fields[fieldGrade])
	assert.Len(t, columns, 4)
}
