package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id                TEXT PRIMARY KEY,
	place_id          TEXT UNIQUE,
	name              TEXT NOT NULL,
	address           TEXT,
	phone             TEXT,
	website           TEXT,
	email             TEXT,
	contact_name      TEXT,
	rating            REAL,
	reviews_count     INTEGER,
	categories        TEXT,
	latitude          REAL,
	longitude         REAL,
	confidence_score  REAL,
	enrichment_method TEXT,
	additional_emails TEXT,
	enriched_at       DATETIME,
	source_search     TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS search_jobs (
	id                TEXT PRIMARY KEY,
	query             TEXT NOT NULL,
	location          TEXT,
	status            TEXT NOT NULL DEFAULT 'pending',
	total_results     INTEGER NOT NULL DEFAULT 0,
	processed_results INTEGER NOT NULL DEFAULT 0,
	emails_found      INTEGER NOT NULL DEFAULT 0,
	error             TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS api_calls (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	provider  TEXT NOT NULL,
	endpoint  TEXT NOT NULL,
	cost      REAL NOT NULL,
	success   INTEGER NOT NULL DEFAULT 1,
	error     TEXT,
	timestamp DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_businesses_place_id ON businesses(place_id);
CREATE INDEX IF NOT EXISTS idx_businesses_source ON businesses(source_search);
CREATE INDEX IF NOT EXISTS idx_search_jobs_status ON search_jobs(status);
CREATE INDEX IF NOT EXISTS idx_api_calls_provider ON api_calls(provider);
CREATE INDEX IF NOT EXISTS idx_api_calls_timestamp ON api_calls(timestamp);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertBusiness(ctx context.Context, biz model.Business) error {
	if biz.ID == "" {
		biz.ID = uuid.New().String()
	}

	categories, err := json.Marshal(biz.Categories)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal categories")
	}
	additional, err := json.Marshal(biz.AdditionalEmails)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal additional emails")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO businesses (
			id, place_id, name, address, phone, website, email, contact_name,
			rating, reviews_count, categories, latitude, longitude,
			confidence_score, enrichment_method, additional_emails,
			enriched_at, source_search
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			phone = excluded.phone,
			website = excluded.website,
			email = excluded.email,
			contact_name = excluded.contact_name,
			rating = excluded.rating,
			reviews_count = excluded.reviews_count,
			categories = excluded.categories,
			confidence_score = excluded.confidence_score,
			enrichment_method = excluded.enrichment_method,
			additional_emails = excluded.additional_emails,
			enriched_at = excluded.enriched_at,
			source_search = excluded.source_search`,
		biz.ID, nullable(biz.PlaceID), biz.Name, biz.Address, biz.Phone,
		biz.Website, biz.Email, biz.ContactName, biz.Rating, biz.ReviewsCount,
		string(categories), biz.Latitude, biz.Longitude, biz.ConfidenceScore,
		biz.EnrichmentMethod, string(additional), biz.EnrichedAt, biz.SourceSearch,
	)
	return eris.Wrap(err, "sqlite: upsert business")
}

// nullable maps empty strings to NULL so the place_id unique index ignores
// listings without one.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const businessColumns = `id, place_id, name, address, phone, website, email,
	contact_name, rating, reviews_count, categories, latitude, longitude,
	confidence_score, enrichment_method, additional_emails, enriched_at,
	source_search, created_at`

func (s *SQLiteStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)

	biz, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: business %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get business")
	}
	return biz, nil
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE 1=1`
	var args []any

	if filter.SourceSearch != "" {
		query += ` AND source_search = ?`
		args = append(args, filter.SourceSearch)
	}
	if filter.WithEmail {
		query += ` AND email IS NOT NULL AND email != ''`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Business
	for rows.Next() {
		biz, err := scanBusiness(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business")
		}
		out = append(out, *biz)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate businesses")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (*model.Business, error) {
	var (
		biz        model.Business
		placeID    sql.NullString
		categories sql.NullString
		additional sql.NullString
		enrichedAt sql.NullTime
	)
	err := row.Scan(
		&biz.ID, &placeID, &biz.Name, &biz.Address, &biz.Phone, &biz.Website,
		&biz.Email, &biz.ContactName, &biz.Rating, &biz.ReviewsCount,
		&categories, &biz.Latitude, &biz.Longitude, &biz.ConfidenceScore,
		&biz.EnrichmentMethod, &additional, &enrichedAt, &biz.SourceSearch,
		&biz.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	biz.PlaceID = placeID.String
	if categories.Valid && categories.String != "" {
		_ = json.Unmarshal([]byte(categories.String), &biz.Categories)
	}
	if additional.Valid && additional.String != "" {
		_ = json.Unmarshal([]byte(additional.String), &biz.AdditionalEmails)
	}
	if enrichedAt.Valid {
		t := enrichedAt.Time
		biz.EnrichedAt = &t
	}
	return &biz, nil
}

func (s *SQLiteStore) CreateJob(ctx context.Context, query, location string) (*model.SearchJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_jobs (id, query, location, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, query, location, string(model.JobStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
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

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE search_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), jobID,
	)
	return eris.Wrap(err, "sqlite: update job status")
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, jobID string, total, processed, emailsFound int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE search_jobs SET total_results = ?, processed_results = ?, emails_found = ?, updated_at = ? WHERE id = ?`,
		total, processed, emailsFound, time.Now().UTC(), jobID,
	)
	return eris.Wrap(err, "sqlite: update job progress")
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.SearchJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, location, status, total_results, processed_results,
			emails_found, error, created_at, updated_at
		 FROM search_jobs WHERE id = ?`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: job %s not found", jobID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get job")
	}
	return job, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, limit int) ([]model.SearchJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, location, status, total_results, processed_results,
			emails_found, error, created_at, updated_at
		 FROM search_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.SearchJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		out = append(out, *job)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate jobs")
}

func scanJob(row rowScanner) (*model.SearchJob, error) {
	var (
		job      model.SearchJob
		location sql.NullString
		errMsg   sql.NullString
	)
	err := row.Scan(
		&job.ID, &job.Query, &location, &job.Status, &job.TotalResults,
		&job.ProcessedResults, &job.EmailsFound, &errMsg,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Location = location.String
	job.Error = errMsg.String
	return &job, nil
}

func (s *SQLiteStore) LogAPICall(ctx context.Context, call model.APICall) error {
	ts := call.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_calls (provider, endpoint, cost, success, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		call.Provider, call.Endpoint, call.Cost, call.Success, call.Error, ts,
	)
	return eris.Wrap(err, "sqlite: log api call")
}

func (s *SQLiteStore) CostSummary(ctx context.Context, since time.Time) ([]ProviderCost, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider,
			COUNT(*),
			SUM(CASE WHEN success THEN 0 ELSE 1 END),
			COALESCE(SUM(cost), 0)
		 FROM api_calls
		 WHERE timestamp >= ?
		 GROUP BY provider
		 ORDER BY provider`, since)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: cost summary")
	}
	defer rows.Close() //nolint:errcheck

	var out []ProviderCost
	for rows.Next() {
		var pc ProviderCost
		if err := rows.Scan(&pc.Provider, &pc.Calls, &pc.Failures, &pc.TotalCost); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cost row")
		}
		out = append(out, pc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate cost rows")
}
