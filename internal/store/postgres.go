package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/LeadTechMaster/API/internal/db"
	"github.com/LeadTechMaster/API/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS api_calls (
	id               TEXT PRIMARY KEY,
	endpoint         TEXT NOT NULL,
	query            TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	response_time_ms BIGINT NOT NULL DEFAULT 0,
	error_message    TEXT NOT NULL DEFAULT '',
	raw_response     JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_api_calls_key ON api_calls(endpoint, query, location, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_api_calls_created_at ON api_calls(created_at);

CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	industry     TEXT NOT NULL,
	location     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions(industry, location) WHERE completed_at IS NULL;

CREATE TABLE IF NOT EXISTS businesses (
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	platform    TEXT NOT NULL,
	place_id    TEXT NOT NULL DEFAULT '',
	rating      DOUBLE PRECISION CHECK (rating IS NULL OR (rating >= 0 AND rating <= 5)),
	reviews     INTEGER CHECK (reviews IS NULL OR reviews >= 0),
	address     TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	website     TEXT NOT NULL DEFAULT '',
	hours       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	price_range TEXT NOT NULL DEFAULT '',
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	query       TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL DEFAULT 0,
	session_id  TEXT NOT NULL DEFAULT '',
	call_id     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (name, platform)
);

CREATE TABLE IF NOT EXISTS keywords (
	keyword          TEXT NOT NULL,
	location         TEXT NOT NULL,
	difficulty_score INTEGER NOT NULL DEFAULT 0,
	difficulty_level TEXT NOT NULL DEFAULT '',
	search_volume    INTEGER,
	organic_results  INTEGER NOT NULL DEFAULT 0,
	paid_ads         INTEGER NOT NULL DEFAULT 0,
	session_id       TEXT NOT NULL DEFAULT '',
	call_id          TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (keyword, location)
);

CREATE TABLE IF NOT EXISTS regional_interest (
	seq        BIGSERIAL PRIMARY KEY,
	keyword    TEXT NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	region     TEXT NOT NULL,
	interest   INTEGER NOT NULL DEFAULT 0,
	rank       INTEGER NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_regional_interest_region ON regional_interest(region, rank);

CREATE TABLE IF NOT EXISTS volume_history (
	seq           BIGSERIAL PRIMARY KEY,
	keyword       TEXT NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	date_range    TEXT NOT NULL,
	timeline_date TEXT NOT NULL DEFAULT '',
	interest      DOUBLE PRECISION NOT NULL DEFAULT 0,
	avg_interest  DOUBLE PRECISION,
	trend         TEXT NOT NULL DEFAULT '',
	volatility    DOUBLE PRECISION,
	session_id    TEXT NOT NULL DEFAULT '',
	call_id       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_volume_history_key ON volume_history(keyword, location, date_range);

CREATE TABLE IF NOT EXISTS search_results (
	seq        BIGSERIAL PRIMARY KEY,
	keyword    TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	engine     TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0,
	title      TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	snippet    TEXT NOT NULL DEFAULT '',
	domain     TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS content_items (
	seq        BIGSERIAL PRIMARY KEY,
	kind       TEXT NOT NULL,
	query      TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	published  TEXT NOT NULL DEFAULT '',
	snippet    TEXT NOT NULL DEFAULT '',
	thumbnail  TEXT NOT NULL DEFAULT '',
	views      BIGINT,
	duration   TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	seq        BIGSERIAL PRIMARY KEY,
	query      TEXT NOT NULL DEFAULT '',
	engine     TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	price      DOUBLE PRECISION,
	price_text TEXT NOT NULL DEFAULT '',
	rating     DOUBLE PRECISION,
	reviews    INTEGER,
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
	seq        BIGSERIAL PRIMARY KEY,
	query      TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	via        TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	salary     TEXT NOT NULL DEFAULT '',
	posted     TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
	seq        BIGSERIAL PRIMARY KEY,
	keyword    TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS related_searches (
	seq        BIGSERIAL PRIMARY KEY,
	keyword    TEXT NOT NULL,
	related    TEXT NOT NULL,
	link       TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suggestions (
	seq        BIGSERIAL PRIMARY KEY,
	keyword    TEXT NOT NULL,
	suggestion TEXT NOT NULL,
	relevance  INTEGER NOT NULL DEFAULT 0,
	type       TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// --- Call log ---

func (s *PostgresStore) LogCall(ctx context.Context, rec *model.CallRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	var raw []byte
	if len(rec.RawResponse) > 0 {
		raw = rec.RawResponse
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_calls (id, endpoint, query, location, status, response_time_ms, error_message, raw_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Endpoint, rec.Query, rec.Location, string(rec.Status),
		rec.ResponseTimeMS, rec.ErrorMessage, raw, rec.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: log call %s", rec.Endpoint)
}

func (s *PostgresStore) LatestSuccess(ctx context.Context, key CallKey) (*model.CallRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+callCols+` FROM api_calls
		 WHERE endpoint = $1 AND query = $2 AND location = $3 AND status = 'success'
		 ORDER BY created_at DESC LIMIT 1`,
		key.Endpoint, key.Query, key.Location,
	)
	rec, err := scanCall(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, eris.Wrap(err, "postgres: latest success")
}

func (s *PostgresStore) CachedPayload(ctx context.Context, key CallKey, since time.Time) (*model.CallRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+callCols+`, raw_response FROM api_calls
		 WHERE endpoint = $1 AND query = $2 AND location = $3 AND status = 'success'
		   AND created_at >= $4 AND raw_response IS NOT NULL
		 ORDER BY created_at DESC LIMIT 1`,
		key.Endpoint, key.Query, key.Location, since.UTC(),
	)
	rec, err := scanCall(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, eris.Wrap(err, "postgres: cached payload")
}

func (s *PostgresStore) RecentCalls(ctx context.Context, limit int) ([]model.CallRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+callCols+` FROM api_calls ORDER BY created_at DESC LIMIT $1`,
		limitOr(limit, 10),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent calls")
	}
	defer rows.Close()

	var calls []model.CallRecord
	for rows.Next() {
		rec, err := scanCall(rows, false)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan call")
		}
		calls = append(calls, *rec)
	}
	return calls, eris.Wrap(rows.Err(), "postgres: recent calls iterate")
}

func (s *PostgresStore) CountCalls(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_calls WHERE created_at >= $1`, since.UTC()).Scan(&n)
	return n, eris.Wrap(err, "postgres: count calls")
}

func (s *PostgresStore) PruneCalls(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_calls WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune calls")
	}
	return int(tag.RowsAffected()), nil
}

// --- Sessions ---

func (s *PostgresStore) CurrentSession(ctx context.Context, industry, location string) (*model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, industry, location, created_at FROM sessions
		 WHERE industry = $1 AND location = $2 AND completed_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`,
		industry, location,
	).Scan(&sess.ID, &sess.Name, &sess.Industry, &sess.Location, &sess.CreatedAt)
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: current session")
	}

	now := s.clock()
	sess = model.Session{
		ID:        uuid.New().String(),
		Name:      SessionName(industry, location, now),
		Industry:  industry,
		Location:  location,
		CreatedAt: now,
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, name, industry, location, created_at) VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.Name, sess.Industry, sess.Location, sess.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create session")
	}
	return &sess, nil
}

func (s *PostgresStore) CloseSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET completed_at = $1 WHERE id = $2 AND completed_at IS NULL`,
		s.clock(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: close session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("open session not found: %s", id)
	}
	return nil
}

// --- Businesses ---

// UpsertBusinesses bulk-upserts listings keyed by (name, platform). The
// stored id of an existing listing is kept.
func (s *PostgresStore) UpsertBusinesses(ctx context.Context, businesses []model.Business) (int, error) {
	if len(businesses) == 0 {
		return 0, nil
	}
	if err := validateBusinesses(businesses); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert businesses")
	}
	for i := range businesses {
		if businesses[i].ID == "" {
			businesses[i].ID = uuid.New().String()
		}
	}

	var updateCols []string
	for _, c := range businessCols {
		if c != "id" && c != "name" && c != "platform" {
			updateCols = append(updateCols, c)
		}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "businesses",
		Columns:      businessCols,
		ConflictKeys: []string{"name", "platform"},
		UpdateCols:   updateCols,
	}, rowsOf(businesses, businessRow))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert businesses")
	}
	return int(n), nil
}

func (s *PostgresStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := `SELECT ` + selectList(businessCols) + ` FROM businesses WHERE true`
	args := []any{}
	argIdx := 1

	if len(filter.Platforms) > 0 {
		platforms := make([]string, len(filter.Platforms))
		for i, p := range filter.Platforms {
			platforms[i] = string(p)
		}
		query += fmt.Sprintf(` AND platform = ANY($%d)`, argIdx)
		args = append(args, platforms)
		argIdx++
	}
	if filter.WithCoordinates {
		query += ` AND latitude IS NOT NULL AND longitude IS NOT NULL`
	}
	if filter.RatedOnly {
		query += ` AND rating IS NOT NULL`
	}
	if filter.MinReviews > 0 {
		query += fmt.Sprintf(` AND reviews > $%d`, argIdx)
		args = append(args, filter.MinReviews)
		argIdx++
	}
	if filter.OrderByReviews {
		query += ` ORDER BY COALESCE(reviews, 0) DESC, name`
	} else {
		query += ` ORDER BY created_at DESC`
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	return pgQuery(ctx, s.pool, "list businesses", query, args, scanBusiness)
}

// --- Keywords ---

func (s *PostgresStore) UpsertKeyword(ctx context.Context, kw model.Keyword) error {
	var updates []string
	for _, c := range keywordCols[2:] {
		updates = append(updates, keywordUpdate(c, "EXCLUDED"))
	}
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO keywords (%s) VALUES (%s) ON CONFLICT (keyword, location) DO UPDATE SET %s`,
			selectList(keywordCols), pgPlaceholders(1, len(keywordCols)), strings.Join(updates, ", ")),
		keywordRow(kw)...,
	)
	return eris.Wrapf(err, "postgres: upsert keyword %s", kw.Keyword)
}

func (s *PostgresStore) SetKeywordVolume(ctx context.Context, keyword string, volume int) error {
	_, err := s.pool.Exec(ctx, `UPDATE keywords SET search_volume = $1 WHERE keyword = $2`, volume, keyword)
	return eris.Wrapf(err, "postgres: set keyword volume %s", keyword)
}

func (s *PostgresStore) ListKeywords(ctx context.Context, filter KeywordFilter) ([]model.Keyword, error) {
	query := `SELECT ` + selectList(keywordCols) + ` FROM keywords`
	args := []any{}
	argIdx := 1

	if len(filter.LocationLike) > 0 {
		var ors []string
		for _, l := range filter.LocationLike {
			ors = append(ors, fmt.Sprintf(`location LIKE $%d`, argIdx))
			args = append(args, "%"+l+"%")
			argIdx++
		}
		query += ` WHERE (` + strings.Join(ors, ` OR `) + `)`
	}
	query += keywordOrder(filter.OrderBy)
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	return pgQuery(ctx, s.pool, "list keywords", query, args, scanKeyword)
}

// --- Regional interest ---

func (s *PostgresStore) AddRegionalInterest(ctx context.Context, regions []model.RegionalInterest) error {
	return s.copyRows(ctx, "regional_interest", regionCols, rowsOf(regions, regionRow))
}

func (s *PostgresStore) TopRegions(ctx context.Context, keyword string, limit int) ([]model.RegionalInterest, error) {
	query := `SELECT ` + selectList(regionCols) + ` FROM regional_interest`
	args := []any{}
	if keyword != "" {
		query += ` WHERE keyword = $1`
		args = append(args, keyword)
	}
	query += fmt.Sprintf(` ORDER BY rank ASC, created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limitOr(limit, 10))

	return pgQuery(ctx, s.pool, "top regions", query, args, scanRegion)
}

func (s *PostgresStore) RegionInterest(ctx context.Context, region string) (*model.RegionalInterest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectList(regionCols)+` FROM regional_interest WHERE region = $1
		 ORDER BY rank ASC, created_at DESC LIMIT 1`,
		region,
	)
	r, err := scanRegion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: region interest %s", region)
	}
	return &r, nil
}

// --- Volume history ---

func (s *PostgresStore) AddVolumeSamples(ctx context.Context, samples []model.VolumeSample) error {
	return s.copyRows(ctx, "volume_history", volumeCols, rowsOf(samples, volumeRow))
}

func (s *PostgresStore) RecentVolumeSamples(ctx context.Context, limit int) ([]model.VolumeSample, error) {
	return pgQuery(ctx, s.pool, "recent volume samples",
		`SELECT `+selectList(volumeCols)+` FROM volume_history WHERE timeline_date = ''
		 ORDER BY created_at DESC, seq DESC LIMIT $1`,
		[]any{limitOr(limit, 10)}, scanVolume)
}

func (s *PostgresStore) VolumeTimeline(ctx context.Context, keyword, location, dateRange string) ([]model.VolumeSample, error) {
	return pgQuery(ctx, s.pool, "volume timeline",
		`SELECT `+selectList(volumeCols)+` FROM volume_history
		 WHERE keyword = $1 AND location = $2 AND date_range = $3 AND timeline_date <> ''
		   AND call_id = (
			SELECT call_id FROM volume_history
			WHERE keyword = $1 AND location = $2 AND date_range = $3 AND timeline_date <> ''
			ORDER BY created_at DESC, seq DESC LIMIT 1)
		 ORDER BY seq ASC`,
		[]any{keyword, location, dateRange}, scanVolume)
}

// --- Append-only results ---

func (s *PostgresStore) AddSearchResults(ctx context.Context, results []model.SearchResult) error {
	return s.copyRows(ctx, "search_results", searchResultCols, rowsOf(results, searchResultRow))
}

func (s *PostgresStore) RecentSearchResults(ctx context.Context, limit int) ([]model.SearchResult, error) {
	return pgQuery(ctx, s.pool, "recent search results",
		`SELECT `+selectList(searchResultCols)+` FROM search_results ORDER BY created_at DESC, seq DESC LIMIT $1`,
		[]any{limitOr(limit, 20)}, scanSearchResult)
}

func (s *PostgresStore) AddContent(ctx context.Context, items []model.ContentItem) error {
	return s.copyRows(ctx, "content_items", contentCols, rowsOf(items, contentRow))
}

func (s *PostgresStore) RecentContent(ctx context.Context, kind model.ContentKind, limit int) ([]model.ContentItem, error) {
	query := `SELECT ` + selectList(contentCols) + ` FROM content_items`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, string(kind))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, seq DESC LIMIT $%d`, len(args)+1)
	args = append(args, limitOr(limit, 20))
	return pgQuery(ctx, s.pool, "recent content", query, args, scanContent)
}

func (s *PostgresStore) AddProducts(ctx context.Context, products []model.Product) error {
	return s.copyRows(ctx, "products", productCols, rowsOf(products, productRow))
}

func (s *PostgresStore) ListPricedProducts(ctx context.Context) ([]model.Product, error) {
	return pgQuery(ctx, s.pool, "priced products",
		`SELECT `+selectList(productCols)+` FROM products WHERE price IS NOT NULL AND price > 0 ORDER BY price ASC`,
		nil, scanProduct)
}

func (s *PostgresStore) AddJobs(ctx context.Context, jobs []model.Job) error {
	return s.copyRows(ctx, "jobs", jobCols, rowsOf(jobs, jobRow))
}

func (s *PostgresStore) RecentJobs(ctx context.Context, limit int) ([]model.Job, error) {
	return pgQuery(ctx, s.pool, "recent jobs",
		`SELECT `+selectList(jobCols)+` FROM jobs ORDER BY created_at DESC, seq DESC LIMIT $1`,
		[]any{limitOr(limit, 20)}, scanJob)
}

func (s *PostgresStore) AddQuestions(ctx context.Context, questions []model.Question) error {
	return s.copyRows(ctx, "questions", questionCols, rowsOf(questions, questionRow))
}

func (s *PostgresStore) RecentQuestions(ctx context.Context, limit int) ([]model.Question, error) {
	return pgQuery(ctx, s.pool, "recent questions",
		`SELECT `+selectList(questionCols)+` FROM questions ORDER BY created_at DESC, seq DESC LIMIT $1`,
		[]any{limitOr(limit, 10)}, scanQuestion)
}

func (s *PostgresStore) AddRelatedSearches(ctx context.Context, related []model.RelatedSearch) error {
	return s.copyRows(ctx, "related_searches", relatedCols, rowsOf(related, relatedRow))
}

func (s *PostgresStore) RecentRelatedSearches(ctx context.Context, limit int) ([]model.RelatedSearch, error) {
	return pgQuery(ctx, s.pool, "recent related searches",
		`SELECT `+selectList(relatedCols)+` FROM related_searches ORDER BY created_at DESC, seq DESC LIMIT $1`,
		[]any{limitOr(limit, 15)}, scanRelated)
}

func (s *PostgresStore) AddSuggestions(ctx context.Context, suggestions []model.Suggestion) error {
	return s.copyRows(ctx, "suggestions", suggestionCols, rowsOf(suggestions, suggestionRow))
}

func (s *PostgresStore) TopSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error) {
	return pgQuery(ctx, s.pool, "top suggestions",
		`SELECT `+selectList(suggestionCols)+` FROM suggestions ORDER BY relevance DESC, created_at DESC LIMIT $1`,
		[]any{limitOr(limit, 10)}, scanSuggestion)
}

// --- helpers ---

func (s *PostgresStore) copyRows(ctx context.Context, table string, cols []string, rows [][]any) error {
	_, err := db.CopyFrom(ctx, s.pool, table, cols, rows)
	return eris.Wrapf(err, "postgres: add %s", table)
}

func pgQuery[T any](ctx context.Context, pool db.Pool, label, query string, args []any, scan func(scannable) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", label)
	}
	defer rows.Close()

	out, err := collect(rows, scan)
	return out, eris.Wrapf(err, "postgres: scan %s", label)
}

func pgPlaceholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ph, ", ")
}
