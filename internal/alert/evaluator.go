package alert

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/models"
)

// DefaultThreshold is the AQI above which an alert is raised.
const DefaultThreshold = 150

const SeverityWarning = "warning"

// Evaluator decides whether a reading warrants an alert. A zero Evaluator
// alerts above AQI 0 and falls back to time.Now and random UUIDs.
type Evaluator struct {
	threshold float64
	clock     func() time.Time
	newID     func() string
}

// NewEvaluator creates an evaluator using DefaultThreshold and time.Now.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		threshold: DefaultThreshold,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock returns a copy of the evaluator using clock for RaisedAt.
func (e *Evaluator) WithClock(clock func() time.Time) *Evaluator {
	cp := *e
	cp.clock = clock
	return &cp
}

// WithThreshold returns a copy of the evaluator that alerts above threshold.
func (e *Evaluator) WithThreshold(threshold float64) *Evaluator {
	cp := *e
	cp.threshold = threshold
	return &cp
}

// Evaluate returns an alert iff the reading's AQI is strictly above the
// threshold, nil otherwise.
func (e *Evaluator) Evaluate(r models.Reading) *models.Alert {
	if r.AQI <= e.threshold {
		return nil
	}

	category := aqi.Classify(r.AQI).Category
	return &models.Alert{
		ID:       e.id(),
		City:     r.City,
		Severity: SeverityWarning,
		Category: category.String(),
		AQI:      r.AQI,
		Message:  Message(r.City, r.AQI, category),
		RaisedAt: e.now(),
	}
}

func (e *Evaluator) now() time.Time {
	if e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

func (e *Evaluator) id() string {
	if e.newID == nil {
		return uuid.NewString()
	}
	return e.newID()
}

// Message formats the alert text shown to users.
func Message(city string, value float64, category aqi.Category) string {
	return fmt.Sprintf("High pollution alert in %s! AQI is %d - %s", city, int(math.Floor(value)), category)
}
