package store

import (
	"database/sql"
	"time"
)

const (
	OutcomePending   = "pending"
	OutcomeOK        = "ok"
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
)

// FetchRun audits one controller fetch from selection to resolution.
type FetchRun struct {
	ID           int64
	RequestID    uint64
	City         string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Outcome      string
	AQI          sql.NullFloat64
	ErrorMessage sql.NullString
	QualityFlags sql.NullString // JSON array of failed reading checks
}

// StartFetchRun records a pending fetch and returns it.
func (s *Store) StartFetchRun(requestID uint64, city string) (*FetchRun, error) {
	run := &FetchRun{
		RequestID: requestID,
		City:      city,
		StartedAt: time.Now().UTC(),
		Outcome:   OutcomePending,
	}

	result, err := s.db.Exec(`
		INSERT INTO fetch_runs (request_id, city, started_at, outcome)
		VALUES (?, ?, ?, ?)
	`, int64(run.RequestID), run.City, run.StartedAt, run.Outcome)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteFetchRun stores the outcome of a fetch.
func (s *Store) CompleteFetchRun(run *FetchRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE fetch_runs SET
			finished_at = ?,
			outcome = ?,
			aqi = ?,
			error_message = ?,
			quality_flags = ?
		WHERE id = ?
	`, run.FinishedAt, run.Outcome, run.AQI, run.ErrorMessage, run.QualityFlags, run.ID)
	return err
}

// GetRecentFetchRuns returns the newest runs first.
func (s *Store) GetRecentFetchRuns(limit int) ([]FetchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, request_id, city, started_at, finished_at, outcome, aqi, error_message, quality_flags
		FROM fetch_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []FetchRun
	for rows.Next() {
		var r FetchRun
		var requestID int64
		if err := rows.Scan(&r.ID, &requestID, &r.City, &r.StartedAt, &r.FinishedAt, &r.Outcome, &r.AQI, &r.ErrorMessage, &r.QualityFlags); err != nil {
			return nil, err
		}
		r.RequestID = uint64(requestID)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
