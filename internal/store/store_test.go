package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/airwatch/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func testAlert(id, city string, aqi float64, raisedAt time.Time) models.Alert {
	return models.Alert{
		ID:       id,
		City:     city,
		Severity: "warning",
		Category: "Unhealthy",
		AQI:      aqi,
		Message:  "High pollution alert in " + city,
		RaisedAt: raisedAt,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}
}

func TestRecordAndGetAlerts(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	alerts := []models.Alert{
		testAlert("a1", "Delhi", 181, base),
		testAlert("a2", "Kolkata", 162, base.Add(time.Minute)),
		testAlert("a3", "Delhi", 199, base.Add(2*time.Minute)),
	}
	for _, a := range alerts {
		if err := store.RecordAlert(a); err != nil {
			t.Fatalf("RecordAlert(%s): %v", a.ID, err)
		}
	}
	// Duplicate IDs are ignored.
	if err := store.RecordAlert(alerts[0]); err != nil {
		t.Fatalf("RecordAlert duplicate: %v", err)
	}

	got, err := store.GetAlerts(10)
	if err != nil {
		t.Fatalf("GetAlerts: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(alerts) = %d, want 3", len(got))
	}
	if got[0].ID != "a3" || got[2].ID != "a1" {
		t.Errorf("order = %s,%s,%s, want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].AQI != 199 {
		t.Errorf("AQI = %v, want 199", got[0].AQI)
	}
	if !got[0].RaisedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("RaisedAt = %v", got[0].RaisedAt)
	}
	if got[0].AcknowledgedAt != nil || got[0].ClearedAt != nil {
		t.Error("new alert should be open and unacknowledged")
	}

	limited, err := store.GetAlerts(1)
	if err != nil {
		t.Fatalf("GetAlerts(1): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestClearAlerts(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	store.RecordAlert(testAlert("a1", "Delhi", 181, base))
	store.RecordAlert(testAlert("a2", "Delhi", 185, base.Add(time.Minute)))
	store.RecordAlert(testAlert("a3", "Kolkata", 160, base))

	if err := store.ClearAlerts("Delhi", base.Add(time.Hour)); err != nil {
		t.Fatalf("ClearAlerts: %v", err)
	}

	open, err := store.GetOpenAlerts("Delhi")
	if err != nil {
		t.Fatalf("GetOpenAlerts: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("Delhi open alerts = %d, want 0", len(open))
	}

	open, err = store.GetOpenAlerts("Kolkata")
	if err != nil {
		t.Fatalf("GetOpenAlerts: %v", err)
	}
	if len(open) != 1 {
		t.Errorf("Kolkata open alerts = %d, want 1", len(open))
	}

	all, _ := store.GetAlerts(10)
	for _, a := range all {
		if a.City == "Delhi" && (a.ClearedAt == nil || !a.ClearedAt.Equal(base.Add(time.Hour))) {
			t.Errorf("alert %s ClearedAt = %v", a.ID, a.ClearedAt)
		}
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	store.RecordAlert(testAlert("a1", "Delhi", 181, base))

	first := base.Add(5 * time.Minute)
	if err := store.AcknowledgeAlert("a1", first); err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}
	if err := store.AcknowledgeAlert("a1", first.Add(time.Hour)); err != nil {
		t.Fatalf("AcknowledgeAlert again: %v", err)
	}

	got, _ := store.GetAlerts(1)
	if got[0].AcknowledgedAt == nil || !got[0].AcknowledgedAt.Equal(first) {
		t.Errorf("AcknowledgedAt = %v, want %v", got[0].AcknowledgedAt, first)
	}

	err := store.AcknowledgeAlert("missing", first)
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("err = %v, want ErrAlertNotFound", err)
	}
}

func TestFetchRuns(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.StartFetchRun(1, "Delhi")
	if err != nil {
		t.Fatalf("StartFetchRun: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected run ID")
	}

	second, err := store.StartFetchRun(2, "Mumbai")
	if err != nil {
		t.Fatalf("StartFetchRun: %v", err)
	}

	run.Outcome = OutcomeFailed
	run.QualityFlags = sql.NullString{String: `["aqi_out_of_range"]`, Valid: true}
	if err := store.CompleteFetchRun(run); err != nil {
		t.Fatalf("CompleteFetchRun: %v", err)
	}
	second.Outcome = OutcomeOK
	second.AQI = sql.NullFloat64{Float64: 131, Valid: true}
	if err := store.CompleteFetchRun(second); err != nil {
		t.Fatalf("CompleteFetchRun: %v", err)
	}
	if err := store.CompleteFetchRun(nil); err != nil {
		t.Fatalf("CompleteFetchRun(nil): %v", err)
	}

	runs, err := store.GetRecentFetchRuns(10)
	if err != nil {
		t.Fatalf("GetRecentFetchRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].City != "Mumbai" || runs[0].Outcome != OutcomeOK || runs[0].RequestID != 2 {
		t.Errorf("runs[0] = %+v", runs[0])
	}
	if !runs[0].AQI.Valid || runs[0].AQI.Float64 != 131 {
		t.Errorf("runs[0].AQI = %+v", runs[0].AQI)
	}
	if runs[1].Outcome != OutcomeFailed || !runs[1].FinishedAt.Valid {
		t.Errorf("runs[1] = %+v", runs[1])
	}
	if runs[1].QualityFlags.String != `["aqi_out_of_range"]` || runs[0].QualityFlags.Valid {
		t.Errorf("runs[1] = %+v", runs[1])
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := s.RecordAlert(testAlert("a1", "Delhi", 190, time.Now())); err != nil {
		t.Fatalf("RecordAlert: %v", err)
	}
}
