package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func pgBusinessColNames() []string {
	return []string{
		"id", "place_id", "name", "address", "phone", "website", "email",
		"contact_name", "rating", "reviews_count", "categories", "latitude",
		"longitude", "confidence_score", "enrichment_method",
		"additional_emails", "enriched_at", "source_search", "created_at",
	}
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS businesses").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertBusiness(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO businesses").
		WithArgs(
			pgxmock.AnyArg(), "place-1", "Acme Plumbing", "123 Main St", "",
			"https://www.acme.com", "info@acme.com", "", 0.0, 0,
			[]string{"Plumber"}, 0.0, 0.0, 0.9, "website_scraping",
			[]string(nil), (*time.Time)(nil), "plumbers | Springfield, IL",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertBusiness(context.Background(), model.Business{
		PlaceID:          "place-1",
		Name:             "Acme Plumbing",
		Address:          "123 Main St",
		Website:          "https://www.acme.com",
		Email:            "info@acme.com",
		Categories:       []string{"Plumber"},
		ConfidenceScore:  0.9,
		EnrichmentMethod: "website_scraping",
		SourceSearch:     "plumbers | Springfield, IL",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertBusiness_EmptyPlaceIDIsNull(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO businesses").
		WithArgs(
			pgxmock.AnyArg(), nil, "Imported Lead", "", "", "", "", "",
			0.0, 0, []string(nil), 0.0, 0.0, 0.0, "",
			[]string(nil), (*time.Time)(nil), "import",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertBusiness(context.Background(), model.Business{
		Name:         "Imported Lead",
		SourceSearch: "import",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetBusiness(t *testing.T) {
	s, mock := newMockPostgres(t)

	placeID := "place-1"
	enriched := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(pgBusinessColNames()).AddRow(
		"biz-1", &placeID, "Acme Plumbing", "123 Main St", "(217) 555-0134",
		"https://www.acme.com", "info@acme.com", "Jane Doe", 4.7, 182,
		[]string{"Plumber"}, 39.78, -89.65, 0.9, "website_scraping",
		[]string{"service@acme.com"}, &enriched, "plumbers", created,
	)
	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE id").
		WithArgs("biz-1").
		WillReturnRows(rows)

	got, err := s.GetBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", got.Name)
	assert.Equal(t, "place-1", got.PlaceID)
	assert.Equal(t, []string{"service@acme.com"}, got.AdditionalEmails)
	require.NotNil(t, got.EnrichedAt)
	assert.True(t, got.EnrichedAt.Equal(enriched))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetBusiness_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT (.+) FROM businesses WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetBusiness(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBusinesses_FilterPlaceholders(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE 1=1 AND source_search = \$1 AND email IS NOT NULL (.+) LIMIT \$2 OFFSET \$3`).
		WithArgs("plumbers", 10, 20).
		WillReturnRows(pgxmock.NewRows(pgBusinessColNames()))

	out, err := s.ListBusinesses(context.Background(), BusinessFilter{
		SourceSearch: "plumbers",
		WithEmail:    true,
		Limit:        10,
		Offset:       20,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_JobLifecycle(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO search_jobs").
		WithArgs(
			pgxmock.AnyArg(), "plumbers", "Springfield, IL",
			string(model.JobStatusPending), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job, err := s.CreateJob(ctx, "plumbers", "Springfield, IL")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.NotEmpty(t, job.ID)

	mock.ExpectExec("UPDATE search_jobs SET status").
		WithArgs(string(model.JobStatusSearching), "", pgxmock.AnyArg(), job.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, model.JobStatusSearching, ""))

	mock.ExpectExec("UPDATE search_jobs SET total_results").
		WithArgs(40, 10, 6, pgxmock.AnyArg(), job.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 40, 10, 6))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob(t *testing.T) {
	s, mock := newMockPostgres(t)

	location := "Springfield, IL"
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "query", "location", "status", "total_results",
		"processed_results", "emails_found", "error", "created_at", "updated_at",
	}).AddRow(
		"job-1", "plumbers", &location, model.JobStatusComplete, 40, 40, 22,
		(*string)(nil), created, created,
	)
	mock.ExpectQuery("SELECT (.+) FROM search_jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(rows)

	got, err := s.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusComplete, got.Status)
	assert.Equal(t, "Springfield, IL", got.Location)
	assert.Equal(t, 22, got.EmailsFound)
	assert.Empty(t, got.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CostSummary(t *testing.T) {
	s, mock := newMockPostgres(t)

	since := time.Now().Add(-time.Hour)
	rows := pgxmock.NewRows([]string{"provider", "count", "failures", "cost"}).
		AddRow("hunter", 3, 1, 0.098).
		AddRow("mapsearch", 5, 0, 0.00825)
	mock.ExpectQuery("SELECT provider").
		WithArgs(since).
		WillReturnRows(rows)

	summary, err := s.CostSummary(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, ProviderCost{Provider: "hunter", Calls: 3, Failures: 1, TotalCost: 0.098}, summary[0])
	assert.Equal(t, ProviderCost{Provider: "mapsearch", Calls: 5, Failures: 0, TotalCost: 0.00825}, summary[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LogAPICall(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO api_calls").
		WithArgs("hunter", "domain-search", 0.049, true, "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.LogAPICall(context.Background(), model.APICall{
		Provider: "hunter",
		Endpoint: "domain-search",
		Cost:     0.049,
		Success:  true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
