package dashboard

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lox/airwatch/internal/models"
	"github.com/lox/airwatch/internal/simulate"
	"github.com/lox/airwatch/internal/store"
)

func TestValidateReading(t *testing.T) {
	valid := models.Reading{
		City:       "Delhi",
		AQI:        195,
		Pollutants: models.Pollutants{PM25: 70, PM10: 105, NO2: 50, O3: 80},
		ObservedAt: testNow,
	}

	tests := []struct {
		name   string
		modify func(r *models.Reading)
		want   []string
	}{
		{"valid", func(r *models.Reading) {}, nil},
		{"zero aqi", func(r *models.Reading) { r.AQI = 0 }, nil},
		{"max aqi", func(r *models.Reading) { r.AQI = 500 }, nil},
		{"above range", func(r *models.Reading) { r.AQI = 500.5 }, []string{FlagAQIOutOfRange}},
		{"negative aqi", func(r *models.Reading) { r.AQI = -1 }, []string{FlagAQIOutOfRange}},
		{"nan aqi", func(r *models.Reading) { r.AQI = math.NaN() }, []string{FlagAQIOutOfRange}},
		{"negative pollutant", func(r *models.Reading) { r.Pollutants.NO2 = -3 }, []string{FlagPollutantNegative}},
		{"wrong city", func(r *models.Reading) { r.City = "Mumbai" }, []string{FlagCityMismatch}},
		{"no timestamp", func(r *models.Reading) { r.ObservedAt = time.Time{} }, []string{FlagMissingTimestamp}},
		{
			"several",
			func(r *models.Reading) { r.AQI = 900; r.City = "" },
			[]string{FlagAQIOutOfRange, FlagCityMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.modify(&r)
			got := ValidateReading(r, "Delhi")
			if len(got) != len(tt.want) {
				t.Fatalf("ValidateReading() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ValidateReading() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestQualityFlagsToJSON(t *testing.T) {
	if got := QualityFlagsToJSON(nil); got != "" {
		t.Errorf("QualityFlagsToJSON(nil) = %q, want empty", got)
	}
	got := QualityFlagsToJSON([]string{FlagAQIOutOfRange, FlagCityMismatch})
	if got != `["aqi_out_of_range","city_mismatch"]` {
		t.Errorf("QualityFlagsToJSON() = %q", got)
	}
}

type fakeRecorder struct {
	mu   sync.Mutex
	next int64
	runs []store.FetchRun
}

func (f *fakeRecorder) StartFetchRun(requestID uint64, city string) (*store.FetchRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return &store.FetchRun{ID: f.next, RequestID: requestID, City: city, Outcome: store.OutcomePending}, nil
}

func (f *fakeRecorder) CompleteFetchRun(run *store.FetchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

func TestSelect_InvalidReadingNotRetried(t *testing.T) {
	var calls atomic.Int32
	fetcher := fetcherFunc(func(_ context.Context, city models.City) (models.Reading, error) {
		calls.Add(1)
		return models.Reading{City: city.Name, AQI: 750, ObservedAt: testNow}, nil
	})
	rec := &fakeRecorder{}
	c := newTestController(t, simulate.NewSource(1), WithFetcher(fetcher), WithFetchRecorder(rec))

	state, err := c.SelectAndWait("Delhi")
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if !state.Unavailable || state.Reading != nil {
		t.Errorf("state = %+v, want unavailable", state)
	}

	if len(rec.runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Outcome != store.OutcomeFailed {
		t.Errorf("outcome = %q", run.Outcome)
	}
	if run.QualityFlags.String != `["aqi_out_of_range"]` {
		t.Errorf("quality flags = %+v", run.QualityFlags)
	}
}

func TestSelect_RecordsSuccessfulRun(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestController(t, simulate.NewSequence(simulate.VariationDraw(10), 0.5), WithFetchRecorder(rec))

	if _, err := c.SelectAndWait("Hyderabad"); err != nil {
		t.Fatal(err)
	}
	if len(rec.runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Outcome != store.OutcomeOK || run.AQI.Float64 != 95 || run.RequestID != 1 {
		t.Errorf("run = %+v", run)
	}
	if run.QualityFlags.Valid {
		t.Errorf("unexpected quality flags: %q", run.QualityFlags.String)
	}
}
