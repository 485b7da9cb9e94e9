package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store relies on. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id                UUID PRIMARY KEY,
	place_id          TEXT UNIQUE,
	name              TEXT NOT NULL,
	address           TEXT,
	phone             TEXT,
	website           TEXT,
	email             TEXT,
	contact_name      TEXT,
	rating            DOUBLE PRECISION,
	reviews_count     INTEGER,
	categories        TEXT[],
	latitude          DOUBLE PRECISION,
	longitude         DOUBLE PRECISION,
	confidence_score  DOUBLE PRECISION,
	enrichment_method TEXT,
	additional_emails TEXT[],
	enriched_at       TIMESTAMPTZ,
	source_search     TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_jobs (
	id                UUID PRIMARY KEY,
	query             TEXT NOT NULL,
	location          TEXT,
	status            TEXT NOT NULL DEFAULT 'pending',
	total_results     INTEGER NOT NULL DEFAULT 0,
	processed_results INTEGER NOT NULL DEFAULT 0,
	emails_found      INTEGER NOT NULL DEFAULT 0,
	error             TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS api_calls (
	id        BIGSERIAL PRIMARY KEY,
	provider  TEXT NOT NULL,
	endpoint  TEXT NOT NULL,
	cost      DOUBLE PRECISION NOT NULL,
	success   BOOLEAN NOT NULL DEFAULT TRUE,
	error     TEXT,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_businesses_source ON businesses(source_search);
CREATE INDEX IF NOT EXISTS idx_search_jobs_status ON search_jobs(status);
CREATE INDEX IF NOT EXISTS idx_api_calls_provider ON api_calls(provider);
CREATE INDEX IF NOT EXISTS idx_api_calls_timestamp ON api_calls(timestamp);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertBusiness(ctx context.Context, biz model.Business) error {
	if biz.ID == "" {
		biz.ID = uuid.New().String()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO businesses (
			id, place_id, name, address, phone, website, email, contact_name,
			rating, reviews_count, categories, latitude, longitude,
			confidence_score, enrichment_method, additional_emails,
			enriched_at, source_search
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (place_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			website = EXCLUDED.website,
			email = EXCLUDED.email,
			contact_name = EXCLUDED.contact_name,
			rating = EXCLUDED.rating,
			reviews_count = EXCLUDED.reviews_count,
			categories = EXCLUDED.categories,
			confidence_score = EXCLUDED.confidence_score,
			enrichment_method = EXCLUDED.enrichment_method,
			additional_emails = EXCLUDED.additional_emails,
			enriched_at = EXCLUDED.enriched_at,
			source_search = EXCLUDED.source_search`,
		biz.ID, nullable(biz.PlaceID), biz.Name, biz.Address, biz.Phone,
		biz.Website, biz.Email, biz.ContactName, biz.Rating, biz.ReviewsCount,
		biz.Categories, biz.Latitude, biz.Longitude, biz.ConfidenceScore,
		biz.EnrichmentMethod, biz.AdditionalEmails, biz.EnrichedAt, biz.SourceSearch,
	)
	return eris.Wrap(err, "postgres: upsert business")
}

const pgBusinessColumns = `id, place_id, name, address, phone, website, email,
	contact_name, rating, reviews_count, categories, latitude, longitude,
	confidence_score, enrichment_method, additional_emails, enriched_at,
	source_search, created_at`

func (s *PostgresStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgBusinessColumns+` FROM businesses WHERE id = $1`, id)

	biz, err := scanPgBusiness(row)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("postgres: business %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get business")
	}
	return biz, nil
}

func (s *PostgresStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := `SELECT ` + pgBusinessColumns + ` FROM businesses WHERE 1=1`
	var args []any

	if filter.SourceSearch != "" {
		args = append(args, filter.SourceSearch)
		query += ` AND source_search = $1`
	}
	if filter.WithEmail {
		query += ` AND email IS NOT NULL AND email != ''`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		biz, err := scanPgBusiness(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan business")
		}
		out = append(out, *biz)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate businesses")
}

func scanPgBusiness(row pgx.Row) (*model.Business, error) {
	var (
		biz        model.Business
		placeID    *string
		enrichedAt *time.Time
	)
	err := row.Scan(
		&biz.ID, &placeID, &biz.Name, &biz.Address, &biz.Phone, &biz.Website,
		&biz.Email, &biz.ContactName, &biz.Rating, &biz.ReviewsCount,
		&biz.Categories, &biz.Latitude, &biz.Longitude, &biz.ConfidenceScore,
		&biz.EnrichmentMethod, &biz.AdditionalEmails, &enrichedAt,
		&biz.SourceSearch, &biz.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if placeID != nil {
		biz.PlaceID = *placeID
	}
	biz.EnrichedAt = enrichedAt
	return &biz, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, query, location string) (*model.SearchJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_jobs (id, query, location, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, query, location, string(model.JobStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}

	return &model.SearchJob{
		ID:        id,
		Query:     query,
		Location:  location,
		Status:    model.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), jobID,
	)
	return eris.Wrap(err, "postgres: update job status")
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, jobID string, total, processed, emailsFound int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_jobs SET total_results = $1, processed_results = $2, emails_found = $3, updated_at = $4 WHERE id = $5`,
		total, processed, emailsFound, time.Now().UTC(), jobID,
	)
	return eris.Wrap(err, "postgres: update job progress")
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.SearchJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query, location, status, total_results, processed_results,
			emails_found, error, created_at, updated_at
		 FROM search_jobs WHERE id = $1`, jobID)

	job, err := scanPgJob(row)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("postgres: job %s not found", jobID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get job")
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, limit int) ([]model.SearchJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, query, location, status, total_results, processed_results,
			emails_found, error, created_at, updated_at
		 FROM search_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var out []model.SearchJob
	for rows.Next() {
		job, err := scanPgJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		out = append(out, *job)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate jobs")
}

func scanPgJob(row pgx.Row) (*model.SearchJob, error) {
	var (
		job      model.SearchJob
		location *string
		errMsg   *string
	)
	err := row.Scan(
		&job.ID, &job.Query, &location, &job.Status, &job.TotalResults,
		&job.ProcessedResults, &job.EmailsFound, &errMsg,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if location != nil {
		job.Location = *location
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	return &job, nil
}

func (s *PostgresStore) LogAPICall(ctx context.Context, call model.APICall) error {
	ts := call.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_calls (provider, endpoint, cost, success, error, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		call.Provider, call.Endpoint, call.Cost, call.Success, call.Error, ts,
	)
	return eris.Wrap(err, "postgres: log api call")
}

func (s *PostgresStore) CostSummary(ctx context.Context, since time.Time) ([]ProviderCost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT provider,
			COUNT(*),
			SUM(CASE WHEN success THEN 0 ELSE 1 END),
			COALESCE(SUM(cost), 0)
		 FROM api_calls
		 WHERE timestamp >= $1
		 GROUP BY provider
		 ORDER BY provider`, since)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: cost summary")
	}
	defer rows.Close()

	var out []ProviderCost
	for rows.Next() {
		var pc ProviderCost
		if err := rows.Scan(&pc.Provider, &pc.Calls, &pc.Failures, &pc.TotalCost); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cost row")
		}
		out = append(out, pc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate cost rows")
}
