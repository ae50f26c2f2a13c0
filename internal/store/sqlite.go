package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/LeadTechMaster/API/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS api_calls (
	id               TEXT PRIMARY KEY,
	endpoint         TEXT NOT NULL,
	query            TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	error_message    TEXT NOT NULL DEFAULT '',
	raw_response     TEXT,
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_calls_key ON api_calls(endpoint, query, location, status, created_at);
CREATE INDEX IF NOT EXISTS idx_api_calls_created_at ON api_calls(created_at);

CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	industry     TEXT NOT NULL,
	location     TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions(industry, location, completed_at);

CREATE TABLE IF NOT EXISTS businesses (
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	platform    TEXT NOT NULL,
	place_id    TEXT NOT NULL DEFAULT '',
	rating      REAL CHECK (rating IS NULL OR (rating >= 0 AND rating <= 5)),
	reviews     INTEGER CHECK (reviews IS NULL OR reviews >= 0),
	address     TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	website     TEXT NOT NULL DEFAULT '',
	hours       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	price_range TEXT NOT NULL DEFAULT '',
	latitude    REAL,
	longitude   REAL,
	query       TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL DEFAULT 0,
	session_id  TEXT NOT NULL DEFAULT '',
	call_id     TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	UNIQUE (name, platform)
);

CREATE INDEX IF NOT EXISTS idx_businesses_platform ON businesses(platform);

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
	updated_at       DATETIME NOT NULL,
	PRIMARY KEY (keyword, location)
);

CREATE TABLE IF NOT EXISTS regional_interest (
	keyword    TEXT NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	region     TEXT NOT NULL,
	interest   INTEGER NOT NULL DEFAULT 0,
	rank       INTEGER NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_regional_interest_region ON regional_interest(region, rank);

CREATE TABLE IF NOT EXISTS volume_history (
	keyword       TEXT NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	date_range    TEXT NOT NULL,
	timeline_date TEXT NOT NULL DEFAULT '',
	interest      REAL NOT NULL DEFAULT 0,
	avg_interest  REAL,
	trend         TEXT NOT NULL DEFAULT '',
	volatility    REAL,
	session_id    TEXT NOT NULL DEFAULT '',
	call_id       TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_volume_history_key ON volume_history(keyword, location, date_range);

CREATE TABLE IF NOT EXISTS search_results (
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
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS content_items (
	kind       TEXT NOT NULL,
	query      TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	published  TEXT NOT NULL DEFAULT '',
	snippet    TEXT NOT NULL DEFAULT '',
	thumbnail  TEXT NOT NULL DEFAULT '',
	views      INTEGER,
	duration   TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_items_kind ON content_items(kind, created_at);

CREATE TABLE IF NOT EXISTS products (
	query      TEXT NOT NULL DEFAULT '',
	engine     TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	price      REAL,
	price_text TEXT NOT NULL DEFAULT '',
	rating     REAL,
	reviews    INTEGER,
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
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
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	keyword    TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS related_searches (
	keyword    TEXT NOT NULL,
	related    TEXT NOT NULL,
	link       TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS suggestions (
	keyword    TEXT NOT NULL,
	suggestion TEXT NOT NULL,
	relevance  INTEGER NOT NULL DEFAULT 0,
	type       TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	call_id    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Call log ---

const callCols = `id, endpoint, query, location, status, response_time_ms, error_message, created_at`

func (s *SQLiteStore) LogCall(ctx context.Context, rec *model.CallRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	var raw any
	if len(rec.RawResponse) > 0 {
		raw = string(rec.RawResponse)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_calls (id, endpoint, query, location, status, response_time_ms, error_message, raw_response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Endpoint, rec.Query, rec.Location, string(rec.Status),
		rec.ResponseTimeMS, rec.ErrorMessage, raw, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: log call %s", rec.Endpoint)
}

func (s *SQLiteStore) LatestSuccess(ctx context.Context, key CallKey) (*model.CallRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+callCols+` FROM api_calls
		 WHERE endpoint = ? AND query = ? AND location = ? AND status = 'success'
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		key.Endpoint, key.Query, key.Location,
	)
	rec, err := scanCall(row, false)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, eris.Wrap(err, "sqlite: latest success")
}

func (s *SQLiteStore) CachedPayload(ctx context.Context, key CallKey, since time.Time) (*model.CallRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+callCols+`, raw_response FROM api_calls
		 WHERE endpoint = ? AND query = ? AND location = ? AND status = 'success'
		   AND created_at >= ? AND raw_response IS NOT NULL
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		key.Endpoint, key.Query, key.Location, since.UTC(),
	)
	rec, err := scanCall(row, true)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, eris.Wrap(err, "sqlite: cached payload")
}

func (s *SQLiteStore) RecentCalls(ctx context.Context, limit int) ([]model.CallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+callCols+` FROM api_calls ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limitOr(limit, 10),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent calls")
	}
	defer rows.Close() //nolint:errcheck

	var calls []model.CallRecord
	for rows.Next() {
		rec, err := scanCall(rows, false)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan call")
		}
		calls = append(calls, *rec)
	}
	return calls, eris.Wrap(rows.Err(), "sqlite: recent calls iterate")
}

// CountCalls counts provider calls logged at or after since. Cache hits are
// never logged, so this is the number of billed searches.
func (s *SQLiteStore) CountCalls(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_calls WHERE created_at >= ?`, since.UTC()).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count calls")
}

func (s *SQLiteStore) PruneCalls(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_calls WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune calls")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune calls rows affected")
	}
	return int(n), nil
}

func scanCall(row scannable, withRaw bool) (*model.CallRecord, error) {
	var rec model.CallRecord
	var status string
	dest := []any{
		&rec.ID, &rec.Endpoint, &rec.Query, &rec.Location, &status,
		&rec.ResponseTimeMS, &rec.ErrorMessage, &rec.CreatedAt,
	}
	var raw []byte
	if withRaw {
		dest = append(dest, &raw)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec.Status = model.Status(status)
	if len(raw) > 0 {
		rec.RawResponse = raw
	}
	return &rec, nil
}

// --- Sessions ---

func (s *SQLiteStore) CurrentSession(ctx context.Context, industry, location string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, industry, location, created_at FROM sessions
		 WHERE industry = ? AND location = ? AND completed_at IS NULL
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		industry, location,
	).Scan(&sess.ID, &sess.Name, &sess.Industry, &sess.Location, &sess.CreatedAt)
	if err == nil {
		return &sess, nil
	}
	if !eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(err, "sqlite: current session")
	}

	now := s.now().UTC()
	sess = model.Session{
		ID:        uuid.New().String(),
		Name:      SessionName(industry, location, now),
		Industry:  industry,
		Location:  location,
		CreatedAt: now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, industry, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Name, sess.Industry, sess.Location, sess.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create session")
	}
	return &sess, nil
}

func (s *SQLiteStore) CloseSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET completed_at = ? WHERE id = ? AND completed_at IS NULL`,
		s.now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: close session %s", id)
	}
	return checkRowsAffected(res, "open session", id)
}

// --- Businesses ---

func (s *SQLiteStore) UpsertBusinesses(ctx context.Context, businesses []model.Business) (int, error) {
	if len(businesses) == 0 {
		return 0, nil
	}
	if err := validateBusinesses(businesses); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert businesses")
	}

	var updates []string
	for _, c := range businessCols[1:] {
		if c == "name" || c == "platform" {
			continue
		}
		updates = append(updates, c+" = excluded."+c)
	}
	query := fmt.Sprintf(
		`INSERT INTO businesses (%s) VALUES (%s) ON CONFLICT (name, platform) DO UPDATE SET %s`,
		selectList(businessCols), placeholders(len(businessCols)), strings.Join(updates, ", "),
	)

	for i := range businesses {
		if businesses[i].ID == "" {
			businesses[i].ID = uuid.New().String()
		}
	}
	if err := s.insertMany(ctx, "businesses", query, rowsOf(businesses, businessRow)); err != nil {
		return 0, err
	}
	return len(businesses), nil
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := `SELECT ` + selectList(businessCols) + ` FROM businesses WHERE 1=1`
	var args []any

	if len(filter.Platforms) > 0 {
		query += ` AND platform IN (` + placeholders(len(filter.Platforms)) + `)`
		for _, p := range filter.Platforms {
			args = append(args, string(p))
		}
	}
	if filter.WithCoordinates {
		query += ` AND latitude IS NOT NULL AND longitude IS NOT NULL`
	}
	if filter.RatedOnly {
		query += ` AND rating IS NOT NULL`
	}
	if filter.MinReviews > 0 {
		query += ` AND reviews > ?`
		args = append(args, filter.MinReviews)
	}
	if filter.OrderByReviews {
		query += ` ORDER BY COALESCE(reviews, 0) DESC, name`
	} else {
		query += ` ORDER BY created_at DESC, rowid DESC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close() //nolint:errcheck

	out, err := collect(rows, scanBusiness)
	return out, eris.Wrap(err, "sqlite: scan businesses")
}

// --- Keywords ---

func (s *SQLiteStore) UpsertKeyword(ctx context.Context, kw model.Keyword) error {
	var updates []string
	for _, c := range keywordCols[2:] {
		updates = append(updates, keywordUpdate(c, "excluded"))
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO keywords (%s) VALUES (%s) ON CONFLICT (keyword, location) DO UPDATE SET %s`,
			selectList(keywordCols), placeholders(len(keywordCols)), strings.Join(updates, ", ")),
		keywordRow(kw)...,
	)
	return eris.Wrapf(err, "sqlite: upsert keyword %s", kw.Keyword)
}

// SetKeywordVolume records volume on every stored location of keyword.
func (s *SQLiteStore) SetKeywordVolume(ctx context.Context, keyword string, volume int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE keywords SET search_volume = ? WHERE keyword = ?`, volume, keyword)
	return eris.Wrapf(err, "sqlite: set keyword volume %s", keyword)
}

func (s *SQLiteStore) ListKeywords(ctx context.Context, filter KeywordFilter) ([]model.Keyword, error) {
	query := `SELECT ` + selectList(keywordCols) + ` FROM keywords`
	var args []any

	if len(filter.LocationLike) > 0 {
		var ors []string
		for _, l := range filter.LocationLike {
			ors = append(ors, `location LIKE ?`)
			args = append(args, "%"+l+"%")
		}
		query += ` WHERE (` + strings.Join(ors, ` OR `) + `)`
	}
	query += keywordOrder(filter.OrderBy)
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list keywords")
	}
	defer rows.Close() //nolint:errcheck

	out, err := collect(rows, scanKeyword)
	return out, eris.Wrap(err, "sqlite: scan keywords")
}

func keywordOrder(o KeywordOrder) string {
	switch o {
	case OrderByVolume:
		return ` ORDER BY COALESCE(search_volume, 0) DESC, keyword`
	case OrderByDifficulty:
		return ` ORDER BY difficulty_score ASC, keyword`
	default:
		return ` ORDER BY updated_at DESC, keyword`
	}
}

// --- Regional interest ---

func (s *SQLiteStore) AddRegionalInterest(ctx context.Context, regions []model.RegionalInterest) error {
	return s.insertMany(ctx, "regional_interest", insertSQL("regional_interest", regionCols), rowsOf(regions, regionRow))
}

func (s *SQLiteStore) TopRegions(ctx context.Context, keyword string, limit int) ([]model.RegionalInterest, error) {
	query := `SELECT ` + selectList(regionCols) + ` FROM regional_interest`
	var args []any
	if keyword != "" {
		query += ` WHERE keyword = ?`
		args = append(args, keyword)
	}
	query += ` ORDER BY rank ASC, created_at DESC LIMIT ?`
	args = append(args, limitOr(limit, 10))

	return sqliteQuery(ctx, s.db, "top regions", query, args, scanRegion)
}

func (s *SQLiteStore) RegionInterest(ctx context.Context, region string) (*model.RegionalInterest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectList(regionCols)+` FROM regional_interest WHERE region = ?
		 ORDER BY rank ASC, created_at DESC LIMIT 1`,
		region,
	)
	r, err := scanRegion(row)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: region interest %s", region)
	}
	return &r, nil
}

// --- Volume history ---

func (s *SQLiteStore) AddVolumeSamples(ctx context.Context, samples []model.VolumeSample) error {
	return s.insertMany(ctx, "volume_history", insertSQL("volume_history", volumeCols), rowsOf(samples, volumeRow))
}

func (s *SQLiteStore) RecentVolumeSamples(ctx context.Context, limit int) ([]model.VolumeSample, error) {
	return sqliteQuery(ctx, s.db, "recent volume samples",
		`SELECT `+selectList(volumeCols)+` FROM volume_history WHERE timeline_date = ''
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		[]any{limitOr(limit, 10)}, scanVolume)
}

// VolumeTimeline returns the timeline points of the most recent call for the
// keyword, location and date range, in provider order.
func (s *SQLiteStore) VolumeTimeline(ctx context.Context, keyword, location, dateRange string) ([]model.VolumeSample, error) {
	return sqliteQuery(ctx, s.db, "volume timeline",
		`SELECT `+selectList(volumeCols)+` FROM volume_history
		 WHERE keyword = ? AND location = ? AND date_range = ? AND timeline_date <> ''
		   AND call_id = (
			SELECT call_id FROM volume_history
			WHERE keyword = ? AND location = ? AND date_range = ? AND timeline_date <> ''
			ORDER BY created_at DESC, rowid DESC LIMIT 1)
		 ORDER BY rowid ASC`,
		[]any{keyword, location, dateRange, keyword, location, dateRange}, scanVolume)
}

// --- Append-only results ---

func (s *SQLiteStore) AddSearchResults(ctx context.Context, results []model.SearchResult) error {
	return s.insertMany(ctx, "search_results", insertSQL("search_results", searchResultCols), rowsOf(results, searchResultRow))
}

func (s *SQLiteStore) RecentSearchResults(ctx context.Context, limit int) ([]model.SearchResult, error) {
	return sqliteQuery(ctx, s.db, "recent search results",
		`SELECT `+selectList(searchResultCols)+` FROM search_results ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		[]any{limitOr(limit, 20)}, scanSearchResult)
}

func (s *SQLiteStore) AddContent(ctx context.Context, items []model.ContentItem) error {
	return s.insertMany(ctx, "content_items", insertSQL("content_items", contentCols), rowsOf(items, contentRow))
}

func (s *SQLiteStore) RecentContent(ctx context.Context, kind model.ContentKind, limit int) ([]model.ContentItem, error) {
	query := `SELECT ` + selectList(contentCols) + ` FROM content_items`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limitOr(limit, 20))
	return sqliteQuery(ctx, s.db, "recent content", query, args, scanContent)
}

func (s *SQLiteStore) AddProducts(ctx context.Context, products []model.Product) error {
	return s.insertMany(ctx, "products", insertSQL("products", productCols), rowsOf(products, productRow))
}

func (s *SQLiteStore) ListPricedProducts(ctx context.Context) ([]model.Product, error) {
	return sqliteQuery(ctx, s.db, "priced products",
		`SELECT `+selectList(productCols)+` FROM products WHERE price IS NOT NULL AND price > 0 ORDER BY price ASC`,
		nil, scanProduct)
}

func (s *SQLiteStore) AddJobs(ctx context.Context, jobs []model.Job) error {
	return s.insertMany(ctx, "jobs", insertSQL("jobs", jobCols), rowsOf(jobs, jobRow))
}

func (s *SQLiteStore) RecentJobs(ctx context.Context, limit int) ([]model.Job, error) {
	return sqliteQuery(ctx, s.db, "recent jobs",
		`SELECT `+selectList(jobCols)+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		[]any{limitOr(limit, 20)}, scanJob)
}

func (s *SQLiteStore) AddQuestions(ctx context.Context, questions []model.Question) error {
	return s.insertMany(ctx, "questions", insertSQL("questions", questionCols), rowsOf(questions, questionRow))
}

func (s *SQLiteStore) RecentQuestions(ctx context.Context, limit int) ([]model.Question, error) {
	return sqliteQuery(ctx, s.db, "recent questions",
		`SELECT `+selectList(questionCols)+` FROM questions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		[]any{limitOr(limit, 10)}, scanQuestion)
}

func (s *SQLiteStore) AddRelatedSearches(ctx context.Context, related []model.RelatedSearch) error {
	return s.insertMany(ctx, "related_searches", insertSQL("related_searches", relatedCols), rowsOf(related, relatedRow))
}

func (s *SQLiteStore) RecentRelatedSearches(ctx context.Context, limit int) ([]model.RelatedSearch, error) {
	return sqliteQuery(ctx, s.db, "recent related searches",
		`SELECT `+selectList(relatedCols)+` FROM related_searches ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		[]any{limitOr(limit, 15)}, scanRelated)
}

func (s *SQLiteStore) AddSuggestions(ctx context.Context, suggestions []model.Suggestion) error {
	return s.insertMany(ctx, "suggestions", insertSQL("suggestions", suggestionCols), rowsOf(suggestions, suggestionRow))
}

func (s *SQLiteStore) TopSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error) {
	return sqliteQuery(ctx, s.db, "top suggestions",
		`SELECT `+selectList(suggestionCols)+` FROM suggestions ORDER BY relevance DESC, created_at DESC LIMIT ?`,
		[]any{limitOr(limit, 10)}, scanSuggestion)
}

// --- helpers ---

// insertMany executes query once per row inside a single transaction.
func (s *SQLiteStore) insertMany(ctx context.Context, table, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit %s", table)
}

func sqliteQuery[T any](ctx context.Context, db *sql.DB, label, query string, args []any, scan func(scannable) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", label)
	}
	defer rows.Close() //nolint:errcheck

	out, err := collect(rows, scan)
	return out, eris.Wrapf(err, "sqlite: scan %s", label)
}

func insertSQL(table string, cols []string) string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, selectList(cols), placeholders(len(cols)))
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
