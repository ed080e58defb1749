// Package kpi keeps daily validation and generation tallies and the history
// of evaluation runs in SQLite.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	coremetrics "github.com/kilianp07/planday/core/metrics"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS validation_daily (
        day INTEGER,
        policy TEXT,
        reason TEXT,
        count INTEGER,
        score_sum REAL,
        PRIMARY KEY(day, policy, reason)
    )`,
	`CREATE TABLE IF NOT EXISTS generation_daily (
        day INTEGER,
        category TEXT,
        generated INTEGER,
        failed INTEGER,
        attempts INTEGER,
        PRIMARY KEY(day, category)
    )`,
	`CREATE TABLE IF NOT EXISTS evaluation_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        at INTEGER,
        policy TEXT,
        total INTEGER,
        valid INTEGER,
        mean REAL,
        std_dev REAL
    )`,
}

// DailyValidation aggregates the verdicts of one day.
type DailyValidation struct {
	Day       time.Time
	Policy    string
	Reason    string
	Count     int
	MeanScore float64
}

// DailyGeneration aggregates the generation requests of one day.
type DailyGeneration struct {
	Day       time.Time
	Category  string
	Generated int
	Failed    int
	Attempts  int
}

// Run is one recorded evaluation run.
type Run struct {
	ID         int64
	At         time.Time
	Policy     string
	Total      int
	ValidCount int
	Mean       float64
	StdDev     float64
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SQLiteStore persists KPI records in a SQLite database. It implements the
// generation, validation and evaluation recorders.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Recorders are called from worker goroutines; one connection keeps
	// writers from failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// RecordValidation adds the verdict to its daily bucket.
func (s *SQLiteStore) RecordValidation(ev coremetrics.ValidationEvent) error {
	_, err := s.db.Exec(`INSERT INTO validation_daily (day, policy, reason, count, score_sum)
        VALUES (?, ?, ?, 1, ?)
        ON CONFLICT(day, policy, reason) DO UPDATE SET
            count = count + 1,
            score_sum = score_sum + excluded.score_sum`,
		Day(stamp(ev.Time)).Unix(), ev.Policy, ev.Reason, ev.Score)
	return err
}

// RecordGeneration adds the request to its daily bucket.
func (s *SQLiteStore) RecordGeneration(ev coremetrics.GenerationEvent) error {
	generated, failed := 1, 0
	if ev.Failed {
		generated, failed = 0, 1
	}
	_, err := s.db.Exec(`INSERT INTO generation_daily (day, category, generated, failed, attempts)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(day, category) DO UPDATE SET
            generated = generated + excluded.generated,
            failed = failed + excluded.failed,
            attempts = attempts + excluded.attempts`,
		Day(stamp(ev.Time)).Unix(), ev.Category, generated, failed, ev.Attempts)
	return err
}

// RecordEvaluation appends a run summary.
func (s *SQLiteStore) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	_, err := s.db.Exec(`INSERT INTO evaluation_runs (at, policy, total, valid, mean, std_dev)
        VALUES (?, ?, ?, ?, ?, ?)`,
		stamp(ev.Time).Unix(), ev.Policy, ev.Total, ev.ValidCount, ev.Mean, ev.StdDev)
	return err
}

// Validations returns the daily buckets of policy in the range [start,end].
// An empty policy matches all.
func (s *SQLiteStore) Validations(policy string, start, end time.Time) ([]DailyValidation, error) {
	rows, err := s.db.Query(`SELECT day, policy, reason, count, score_sum
        FROM validation_daily WHERE (? = '' OR policy = ?) AND day >= ? AND day <= ?
        ORDER BY day, policy, reason`,
		policy, policy, Day(start).Unix(), Day(end).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []DailyValidation
	for rows.Next() {
		var (
			d   DailyValidation
			ts  int64
			sum float64
		)
		if err := rows.Scan(&ts, &d.Policy, &d.Reason, &d.Count, &sum); err != nil {
			return nil, err
		}
		d.Day = time.Unix(ts, 0).UTC()
		if d.Count > 0 {
			d.MeanScore = sum / float64(d.Count)
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// Generations returns the daily generation buckets in the range [start,end].
func (s *SQLiteStore) Generations(start, end time.Time) ([]DailyGeneration, error) {
	rows, err := s.db.Query(`SELECT day, category, generated, failed, attempts
        FROM generation_daily WHERE day >= ? AND day <= ? ORDER BY day, category`,
		Day(start).Unix(), Day(end).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []DailyGeneration
	for rows.Next() {
		var (
			d  DailyGeneration
			ts int64
		)
		if err := rows.Scan(&ts, &d.Category, &d.Generated, &d.Failed, &d.Attempts); err != nil {
			return nil, err
		}
		d.Day = time.Unix(ts, 0).UTC()
		res = append(res, d)
	}
	return res, rows.Err()
}

// Runs returns the most recent evaluation runs, newest first. A limit of
// zero returns all.
func (s *SQLiteStore) Runs(limit int) ([]Run, error) {
	q := `SELECT id, at, policy, total, valid, mean, std_dev FROM evaluation_runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Run
	for rows.Next() {
		var (
			r  Run
			ts int64
		)
		if err := rows.Scan(&r.ID, &ts, &r.Policy, &r.Total, &r.ValidCount, &r.Mean, &r.StdDev); err != nil {
			return nil, err
		}
		r.At = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
