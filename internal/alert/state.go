package alert

import (
	"sync"

	"github.com/lox/airwatch/internal/models"
)

// Status is one of the two alert states for a city.
type Status string

const (
	StatusClear    Status = "CLEAR"
	StatusAlerting Status = "ALERTING"
)

// Transition describes the outcome of one evaluation. Alert is the active
// alert after the evaluation, nil when clear.
type Transition struct {
	City  string
	From  Status
	To    Status
	Alert *models.Alert
}

// Raised reports a Clear -> Alerting change.
func (t Transition) Raised() bool {
	return t.From == StatusClear && t.To == StatusAlerting
}

// Cleared reports an Alerting -> Clear change.
func (t Transition) Cleared() bool {
	return t.From == StatusAlerting && t.To == StatusClear
}

// Tracker keeps the per-city alert state. Every reading is re-evaluated
// unconditionally and replaces whatever alert was active before; there is no
// hysteresis or debounce.
type Tracker struct {
	evaluator *Evaluator

	mu     sync.Mutex
	active map[string]*models.Alert
}

func NewTracker(e *Evaluator) *Tracker {
	return &Tracker{
		evaluator: e,
		active:    make(map[string]*models.Alert),
	}
}

// Observe evaluates a reading and records the resulting state for its city.
func (t *Tracker) Observe(r models.Reading) Transition {
	next := t.evaluator.Evaluate(r)

	t.mu.Lock()
	defer t.mu.Unlock()

	from := statusOf(t.active[r.City])
	if next == nil {
		delete(t.active, r.City)
	} else {
		t.active[r.City] = next
	}

	return Transition{City: r.City, From: from, To: statusOf(next), Alert: next}
}

// Reset drops the state kept for a city that is no longer being evaluated
// and reports the resulting change.
func (t *Tracker) Reset(city string) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	from := statusOf(t.active[city])
	delete(t.active, city)
	return Transition{City: city, From: from, To: StatusClear}
}

func statusOf(a *models.Alert) Status {
	if a == nil {
		return StatusClear
	}
	return StatusAlerting
}
