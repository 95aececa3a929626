package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/models"
)

var raisedAt = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func testEvaluator() *Evaluator {
	return NewEvaluator().WithClock(func() time.Time { return raisedAt })
}

func TestEvaluate_Threshold(t *testing.T) {
	tests := []struct {
		name  string
		aqi   float64
		alert bool
	}{
		{"well below", 40, false},
		{"at threshold", 150, false},
		{"just above", 150.01, true},
		{"hazardous", 420, true},
	}

	e := testEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(models.Reading{City: "Delhi", AQI: tt.aqi})
			if (got != nil) != tt.alert {
				t.Errorf("Evaluate(%v) alert = %v, want %v", tt.aqi, got != nil, tt.alert)
			}
		})
	}
}

func TestEvaluate_Message(t *testing.T) {
	a := testEvaluator().Evaluate(models.Reading{City: "Delhi", AQI: 195.87})
	if a == nil {
		t.Fatal("expected alert")
	}

	want := "High pollution alert in Delhi! AQI is 195 - Unhealthy"
	if a.Message != want {
		t.Errorf("Message = %q, want %q", a.Message, want)
	}
	if a.Severity != SeverityWarning {
		t.Errorf("Severity = %q, want warning", a.Severity)
	}
	if a.Category != aqi.Unhealthy.String() {
		t.Errorf("Category = %q", a.Category)
	}
	if !a.RaisedAt.Equal(raisedAt) {
		t.Errorf("RaisedAt = %v, want %v", a.RaisedAt, raisedAt)
	}
	if a.ID == "" {
		t.Error("expected alert ID")
	}
}

func TestEvaluate_CustomThreshold(t *testing.T) {
	e := testEvaluator().WithThreshold(100)
	a := e.Evaluate(models.Reading{City: "Mumbai", AQI: 120})
	if a == nil {
		t.Fatal("expected alert above custom threshold")
	}
	if !strings.Contains(a.Message, "Unhealthy for Sensitive Groups") {
		t.Errorf("Message = %q", a.Message)
	}
	if testEvaluator().Evaluate(models.Reading{City: "Mumbai", AQI: 120}) != nil {
		t.Error("WithThreshold should not modify the original evaluator")
	}
}

func TestEvaluate_ZeroValue(t *testing.T) {
	e := &Evaluator{}
	if e.Evaluate(models.Reading{City: "Pune", AQI: 0}) != nil {
		t.Error("AQI 0 is not above a zero threshold")
	}

	before := time.Now()
	a := e.Evaluate(models.Reading{City: "Pune", AQI: 42})
	if a == nil {
		t.Fatal("expected alert above zero threshold")
	}
	if a.ID == "" {
		t.Error("expected generated ID")
	}
	if a.RaisedAt.Before(before) {
		t.Errorf("RaisedAt = %v, want wall clock time", a.RaisedAt)
	}
}

func TestTracker_Transitions(t *testing.T) {
	tr := NewTracker(testEvaluator())

	steps := []struct {
		aqi     float64
		from    Status
		to      Status
		raised  bool
		cleared bool
	}{
		{120, StatusClear, StatusClear, false, false},
		{180, StatusClear, StatusAlerting, true, false},
		{190, StatusAlerting, StatusAlerting, false, false},
		{150, StatusAlerting, StatusClear, false, true},
		{151, StatusClear, StatusAlerting, true, false},
	}

	for i, s := range steps {
		got := tr.Observe(models.Reading{City: "Kolkata", AQI: s.aqi})
		if got.From != s.from || got.To != s.to {
			t.Errorf("step %d: %s -> %s, want %s -> %s", i, got.From, got.To, s.from, s.to)
		}
		if got.Raised() != s.raised || got.Cleared() != s.cleared {
			t.Errorf("step %d: raised=%v cleared=%v", i, got.Raised(), got.Cleared())
		}
		if (got.Alert != nil) != (s.to == StatusAlerting) {
			t.Errorf("step %d: Alert = %+v with status %s", i, got.Alert, s.to)
		}
	}
}

func TestTracker_ReplacesAlert(t *testing.T) {
	tr := NewTracker(testEvaluator())

	first := tr.Observe(models.Reading{City: "Delhi", AQI: 170}).Alert
	second := tr.Observe(models.Reading{City: "Delhi", AQI: 230}).Alert
	if first == nil || second == nil {
		t.Fatal("expected alerts")
	}
	if first.ID == second.ID {
		t.Error("re-evaluation should produce a fresh alert")
	}

	next := tr.Observe(models.Reading{City: "Mumbai", AQI: 90})
	if next.From != StatusClear {
		t.Error("cities should not share alert state")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(testEvaluator())
	tr.Observe(models.Reading{City: "Delhi", AQI: 195})

	got := tr.Reset("Delhi")
	if !got.Cleared() || got.Alert != nil {
		t.Errorf("Reset = %+v, want Alerting -> Clear", got)
	}
	if again := tr.Reset("Delhi"); again.Cleared() || again.From != StatusClear {
		t.Errorf("second Reset = %+v, want Clear -> Clear", again)
	}

	next := tr.Observe(models.Reading{City: "Delhi", AQI: 195})
	if !next.Raised() {
		t.Errorf("Observe after Reset = %+v, want a fresh raise", next)
	}
}
