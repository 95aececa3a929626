package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lox/airwatch/internal/models"
)

var ErrAlertNotFound = errors.New("alert not found")

// RecordAlert appends a raised alert to the log. Re-recording the same ID is
// a no-op.
func (s *Store) RecordAlert(a models.Alert) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_log (id, city, severity, category, aqi, message, raised_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, a.ID, a.City, a.Severity, a.Category, a.AQI, a.Message, a.RaisedAt.UTC())
	return err
}

// ClearAlerts marks every open alert for a city as cleared.
func (s *Store) ClearAlerts(city string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE alert_log SET cleared_at = ?
		WHERE city = ? AND cleared_at IS NULL
	`, at.UTC(), city)
	return err
}

// AcknowledgeAlert stamps an alert as seen. Acknowledging twice keeps the
// first timestamp.
func (s *Store) AcknowledgeAlert(id string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE alert_log SET acknowledged_at = COALESCE(acknowledged_at, ?)
		WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return nil
}

// GetAlerts returns the newest alerts first.
func (s *Store) GetAlerts(limit int) ([]models.AlertRecord, error) {
	return s.queryAlerts(`
		SELECT id, city, severity, category, aqi, message, raised_at, acknowledged_at, cleared_at
		FROM alert_log
		ORDER BY raised_at DESC, rowid DESC
		LIMIT ?
	`, limit)
}

// GetOpenAlerts returns alerts for a city that have not been cleared.
func (s *Store) GetOpenAlerts(city string) ([]models.AlertRecord, error) {
	return s.queryAlerts(`
		SELECT id, city, severity, category, aqi, message, raised_at, acknowledged_at, cleared_at
		FROM alert_log
		WHERE city = ? AND cleared_at IS NULL
		ORDER BY raised_at DESC, rowid DESC
	`, city)
}

func (s *Store) queryAlerts(query string, args ...any) ([]models.AlertRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		var ackAt, clearedAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.City, &a.Severity, &a.Category, &a.AQI, &a.Message,
			&a.RaisedAt, &ackAt, &clearedAt,
		); err != nil {
			return nil, err
		}
		if ackAt.Valid {
			t := ackAt.Time
			a.AcknowledgedAt = &t
		}
		if clearedAt.Valid {
			t := clearedAt.Time
			a.ClearedAt = &t
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
