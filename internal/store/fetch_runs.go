package store

import (
	"database/sql"
	"time"
)

// FetchRun is one provider request, recorded for auditing.
type FetchRun struct {
	ID                int64
	RunID             string // groups the fetches of one invocation
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	Kind              string // "weather", "tides", "astronomy"
	Endpoint          string // "weather/point", "tide/extremes/point", ...
	Spot              string
	SpanFrom          sql.NullTime
	SpanTo            sql.NullTime
	HTTPStatus        sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	RecordsParsed     sql.NullInt64
	QualityFlags      sql.NullInt64 // records flagged implausible
	Success           bool
	ErrorMessage      sql.NullString
}

// StartFetchRun inserts a pending fetch run and returns it with its ID set.
func (s *Store) StartFetchRun(runID, kind, endpoint, spot string, from, to time.Time) (*FetchRun, error) {
	run := &FetchRun{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Kind:      kind,
		Endpoint:  endpoint,
		Spot:      spot,
	}
	if !from.IsZero() {
		run.SpanFrom = sql.NullTime{Time: from.UTC(), Valid: true}
	}
	if !to.IsZero() {
		run.SpanTo = sql.NullTime{Time: to.UTC(), Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO fetch_runs (run_id, started_at, kind, endpoint, spot, span_from, span_to, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE)
	`, run.RunID, run.StartedAt, run.Kind, run.Endpoint, run.Spot, run.SpanFrom, run.SpanTo)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteFetchRun records the outcome of a run started with StartFetchRun.
func (s *Store) CompleteFetchRun(run *FetchRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE fetch_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			records_parsed = ?,
			quality_flags = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.ResponseSizeBytes, run.RecordsParsed,
		run.QualityFlags, run.Success, run.ErrorMessage, run.ID)
	return err
}

// FetchHealthSummary aggregates fetch runs per day and kind.
type FetchHealthSummary struct {
	Date         string
	Kind         string
	TotalRuns    int
	SuccessRuns  int
	FailedRuns   int
	TotalRecords int64
	TotalBytes   int64
}

// FetchHealth returns daily summaries for the last N days.
func (s *Store) FetchHealth(days int) ([]FetchHealthSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			kind,
			COUNT(*) as total_runs,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs,
			COALESCE(SUM(records_parsed), 0) as total_records,
			COALESCE(SUM(response_size_bytes), 0) as total_bytes
		FROM fetch_runs
		WHERE SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date, kind
		ORDER BY date DESC, kind
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchHealthSummary
	for rows.Next() {
		var h FetchHealthSummary
		if err := rows.Scan(&h.Date, &h.Kind, &h.TotalRuns, &h.SuccessRuns,
			&h.FailedRuns, &h.TotalRecords, &h.TotalBytes); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// RecentFetchErrors returns the most recent failed runs, newest first.
func (s *Store) RecentFetchErrors(limit int) ([]FetchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, started_at, finished_at, kind, endpoint, spot,
			   http_status, response_size_bytes, records_parsed, success, error_message
		FROM fetch_runs
		WHERE success = FALSE
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchRun
	for rows.Next() {
		var r FetchRun
		if err := rows.Scan(&r.ID, &r.RunID, &r.StartedAt, &r.FinishedAt, &r.Kind, &r.Endpoint,
			&r.Spot, &r.HTTPStatus, &r.ResponseSizeBytes, &r.RecordsParsed,
			&r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
