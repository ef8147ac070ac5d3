// Package store persists audit results to SQLite so source quality can
// be compared across machines, kernels, and time.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"entrospect/internal/engine"
)

// Schema for the entrospect audit store.
const schema = `
CREATE TABLE IF NOT EXISTS audits (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    started_ns   INTEGER NOT NULL,
    finished_ns  INTEGER NOT NULL,
    hostname     TEXT
);

CREATE TABLE IF NOT EXISTS source_reports (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    audit_id           INTEGER REFERENCES audits(id),
    source_name        TEXT NOT NULL,
    collected_ns       INTEGER NOT NULL,
    shannon            REAL NOT NULL,
    min_entropy        REAL NOT NULL,
    sample_count       INTEGER NOT NULL,
    quality_score      REAL NOT NULL,
    grade              TEXT NOT NULL,
    stability_mean     REAL NOT NULL,
    stability_stddev   REAL NOT NULL,
    max_autocorr       REAL NOT NULL,
    max_crosscorr      REAL NOT NULL,
    redundant_peer     TEXT,
    verdict            TEXT NOT NULL,
    reason             TEXT NOT NULL,
    report_json        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_source ON source_reports(source_name, collected_ns);
CREATE INDEX IF NOT EXISTS idx_reports_audit  ON source_reports(audit_id);

CREATE TABLE IF NOT EXISTS correlations (
    audit_id    INTEGER NOT NULL REFERENCES audits(id),
    source_a    TEXT NOT NULL,
    source_b    TEXT NOT NULL,
    pearson_r   REAL NOT NULL,
    flagged     INTEGER NOT NULL,
    PRIMARY KEY (audit_id, source_a, source_b)
);
`

// ErrNotFound is returned when a queried report does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is a SQLite-backed audit archive.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveAudit persists a full audit run and returns its id.
func (s *Store) SaveAudit(res engine.AuditResult) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	hostname, _ := os.Hostname()
	r, err := tx.Exec(
		`INSERT INTO audits (started_ns, finished_ns, hostname) VALUES (?, ?, ?)`,
		res.StartedAt.UnixNano(), res.FinishedAt.UnixNano(), hostname,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit: %w", err)
	}
	auditID, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := range res.Reports {
		if _, err := insertReport(tx, &auditID, &res.Reports[i]); err != nil {
			return 0, err
		}
	}

	for _, c := range res.Matrix {
		flagged := 0
		if c.Flagged {
			flagged = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO correlations (audit_id, source_a, source_b, pearson_r, flagged)
			 VALUES (?, ?, ?, ?, ?)`,
			auditID, c.SourceA, c.SourceB, c.PearsonR, flagged,
		); err != nil {
			return 0, fmt.Errorf("insert correlation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return auditID, nil
}

// SaveReport persists a single-source evaluation outside any audit.
func (s *Store) SaveReport(rep *engine.SourceReport) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertReport(tx, nil, rep)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func insertReport(tx *sql.Tx, auditID *int64, rep *engine.SourceReport) (int64, error) {
	blob, err := json.Marshal(rep)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}

	r, err := tx.Exec(
		`INSERT INTO source_reports (
			audit_id, source_name, collected_ns,
			shannon, min_entropy, sample_count, quality_score, grade,
			stability_mean, stability_stddev, max_autocorr, max_crosscorr,
			redundant_peer, verdict, reason, report_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		auditID, rep.SourceName, rep.CollectedAt.UnixNano(),
		rep.FullScale.ShannonBitsPerByte, rep.FullScale.MinEntropyBits,
		rep.FullScale.SampleCount, rep.FullScale.QualityScore, rep.FullScale.Grade,
		rep.Trials.MinEntropyMean, rep.Trials.MinEntropyStdDev,
		rep.Autocorr.MaxAbsCorrelation, rep.MaxCrossCorrelation,
		rep.RedundantPeer, rep.Verdict.Label.String(), rep.Verdict.Reason, blob,
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return r.LastInsertId()
}

// ReportSummary is one row of audit history.
type ReportSummary struct {
	ID          int64
	SourceName  string
	CollectedAt time.Time
	MinEntropy  float64
	Verdict     string
	Reason      string
}

// History returns the most recent evaluations of a source, newest
// first.
func (s *Store) History(sourceName string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, source_name, collected_ns, min_entropy, verdict, reason
		 FROM source_reports WHERE source_name = ?
		 ORDER BY collected_ns DESC LIMIT ?`,
		sourceName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var r ReportSummary
		var ns int64
		if err := rows.Scan(&r.ID, &r.SourceName, &ns, &r.MinEntropy, &r.Verdict, &r.Reason); err != nil {
			return nil, err
		}
		r.CollectedAt = time.Unix(0, ns)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReport loads the full stored report by id.
func (s *Store) GetReport(id int64) (*engine.SourceReport, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT report_json FROM source_reports WHERE id = ?`, id,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	var rep engine.SourceReport
	if err := json.Unmarshal(blob, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rep, nil
}
