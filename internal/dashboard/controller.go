// Package dashboard owns the selected city and publishes a new State each
// time a fetch for it resolves.
package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/airwatch/internal/alert"
	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/cities"
	"github.com/lox/airwatch/internal/metrics"
	"github.com/lox/airwatch/internal/models"
	"github.com/lox/airwatch/internal/simulate"
	"github.com/lox/airwatch/internal/store"
)

// DefaultRetryWindow bounds how long a failing fetch is retried before the
// data-unavailable state is shown.
const DefaultRetryWindow = 10 * time.Second

var ErrClosed = errors.New("dashboard: controller closed")

// AlertSink receives alert log updates.
type AlertSink interface {
	RecordAlert(a models.Alert) error
	ClearAlerts(city string, at time.Time) error
}

// FetchRecorder audits fetches.
type FetchRecorder interface {
	StartFetchRun(requestID uint64, city string) (*store.FetchRun, error)
	CompleteFetchRun(run *store.FetchRun) error
}

type Controller struct {
	cities     *cities.Registry
	sim        *simulate.Simulator
	fetcher    Fetcher
	tracker    *alert.Tracker
	risks      aqi.RiskTable
	sink       AlertSink
	recorder   FetchRecorder
	newBackOff func() backoff.BackOff
	clock      func() time.Time

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	// alertMu is taken while mu is still held so alert log writes and gauge
	// updates land in the same order as the state changes behind them.
	alertMu sync.Mutex

	mu      sync.Mutex
	state   State
	lastID  uint64
	cancel  context.CancelFunc
	subs    map[int]chan State
	nextSub int
	closed  bool
}

type Option func(*Controller)

func WithFetcher(f Fetcher) Option {
	return func(c *Controller) { c.fetcher = f }
}

func WithEvaluator(e *alert.Evaluator) Option {
	return func(c *Controller) { c.tracker = alert.NewTracker(e) }
}

func WithRiskTable(t aqi.RiskTable) Option {
	return func(c *Controller) { c.risks = t }
}

func WithAlertSink(s AlertSink) Option {
	return func(c *Controller) { c.sink = s }
}

func WithFetchRecorder(r FetchRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithBackOff sets the retry policy applied to each fetch.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Controller) { c.newBackOff = newBackOff }
}

func WithClock(clock func() time.Time) Option {
	return func(c *Controller) { c.clock = clock }
}

// New creates a controller. The simulator also supplies the trend and
// forecast series published with each reading.
func New(reg *cities.Registry, sim *simulate.Simulator, opts ...Option) *Controller {
	c := &Controller{
		cities:  reg,
		sim:     sim,
		fetcher: &SimulatedFetcher{Simulator: sim, Delay: DefaultFetchDelay},
		tracker: alert.NewTracker(alert.NewEvaluator()),
		risks:   aqi.DefaultRiskTable(),
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = DefaultRetryWindow
			return bo
		},
		clock: time.Now,
		subs:  make(map[int]chan State),
		state: State{
			Sources: simulate.PollutionSources(),
			Weather: simulate.Weather(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base, c.shutdown = context.WithCancel(context.Background())
	return c
}

// Select makes name the active city and starts fetching its reading. Any
// fetch still pending for an earlier selection is cancelled, and its result is
// discarded if it arrives anyway. Unknown names return cities.ErrUnknownCity
// and leave the state untouched.
func (c *Controller) Select(name string) error {
	city, err := c.cities.Lookup(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.lastID++
	id := c.lastID
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	// Only the selected city is evaluated, so leaving a city closes its alert.
	prev := c.state.City
	leaving := prev != "" && prev != city.Name
	var reset alert.Transition
	if leaving {
		reset = c.tracker.Reset(prev)
	}

	c.state = selectCity(c.state, city.Name, id, c.clock())
	c.publishLocked()
	c.wg.Add(1)
	if leaving {
		c.alertMu.Lock()
	}
	c.mu.Unlock()

	if leaving {
		c.recordTransition(reset)
		c.alertMu.Unlock()
	}

	go c.fetch(ctx, cancel, id, city)
	return nil
}

// Refresh re-fetches the active city. It does nothing before the first
// selection.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	city := c.state.City
	c.mu.Unlock()
	if city == "" {
		return nil
	}
	return c.Select(city)
}

// SelectAndWait selects a city and returns the state once every pending
// fetch has resolved.
func (c *Controller) SelectAndWait(name string) (State, error) {
	if err := c.Select(name); err != nil {
		return State{}, err
	}
	c.Wait()
	return c.Current(), nil
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, id uint64, city models.City) {
	defer c.wg.Done()
	defer cancel()

	start := time.Now()
	run := c.startRun(id, city.Name)

	op := func() (models.Reading, error) {
		r, err := c.fetcher.Fetch(ctx, city)
		if err != nil {
			return r, err
		}
		if flags := ValidateReading(r, city.Name); len(flags) > 0 {
			return r, backoff.Permanent(&InvalidReadingError{Flags: flags})
		}
		return r, nil
	}
	reading, err := backoff.RetryWithData(op, backoff.WithContext(c.newBackOff(), ctx))
	metrics.FetchLatency.WithLabelValues(city.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		if c.base.Err() != nil {
			c.abandon(run, id, city.Name)
			return
		}
		if ctx.Err() != nil {
			c.discard(run, id, city.Name)
			return
		}
		c.fail(run, id, city.Name, err)
		return
	}

	c.mu.Lock()
	if id != c.lastID {
		c.mu.Unlock()
		c.discard(run, id, city.Name)
		return
	}
	res := c.derive(reading)
	tr := c.tracker.Observe(reading)
	res.alert = tr.Alert
	c.state = applyResult(c.state, id, res)
	c.publishLocked()
	c.alertMu.Lock()
	c.mu.Unlock()

	c.recordTransition(tr)
	c.alertMu.Unlock()
	metrics.ReadingsGenerated.WithLabelValues(city.Name).Inc()
	metrics.ReadingCategory.WithLabelValues(res.classification.Category.String()).Inc()

	if run != nil {
		run.Outcome = store.OutcomeOK
		run.AQI = sql.NullFloat64{Float64: reading.AQI, Valid: true}
		c.completeRun(run)
	}
}

// derive runs classification, advice and risk assessment for a reading and
// draws fresh trend and forecast series.
func (c *Controller) derive(r models.Reading) result {
	classification := aqi.Classify(r.AQI)
	return result{
		reading:        r,
		classification: classification,
		historical:     c.sim.HistoricalSeries(),
		forecast:       c.sim.ForecastSeries(),
		advisories:     aqi.AdviceFor(classification.Category),
		risks:          c.risks.Assess(r.AQI),
		at:             c.clock(),
	}
}

func (c *Controller) discard(run *store.FetchRun, id uint64, city string) {
	metrics.StaleFetchesDiscarded.Inc()
	log.Printf("dashboard: discarded stale reading for %s (request %d)", city, id)
	if run != nil {
		run.Outcome = store.OutcomeDiscarded
		c.completeRun(run)
	}
}

// abandon closes the audit for a fetch cut short by Close. It is not a race,
// so the stale counter is left alone.
func (c *Controller) abandon(run *store.FetchRun, id uint64, city string) {
	log.Printf("dashboard: fetch %s (request %d) cancelled by shutdown", city, id)
	if run != nil {
		run.Outcome = store.OutcomeDiscarded
		c.completeRun(run)
	}
}

func (c *Controller) fail(run *store.FetchRun, id uint64, city string, err error) {
	metrics.FetchFailures.WithLabelValues(city).Inc()
	log.Printf("dashboard: fetch %s (request %d): %v", city, id, err)

	c.mu.Lock()
	c.state = markUnavailable(c.state, id, c.clock())
	if c.state.RequestID == id {
		c.publishLocked()
	}
	c.mu.Unlock()

	if run != nil {
		run.Outcome = store.OutcomeFailed
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		var invalid *InvalidReadingError
		if errors.As(err, &invalid) {
			run.QualityFlags = sql.NullString{String: QualityFlagsToJSON(invalid.Flags), Valid: true}
		}
		c.completeRun(run)
	}
}

func (c *Controller) recordTransition(tr alert.Transition) {
	if tr.Raised() {
		metrics.AlertsRaised.WithLabelValues(tr.City).Inc()
		log.Printf("dashboard: alert raised: %s", tr.Alert.Message)
	}
	if tr.Cleared() {
		log.Printf("dashboard: alert cleared for %s", tr.City)
	}
	if tr.To == alert.StatusAlerting {
		metrics.ActiveAlert.WithLabelValues(tr.City).Set(1)
	} else {
		metrics.ActiveAlert.WithLabelValues(tr.City).Set(0)
	}

	if c.sink == nil {
		return
	}
	// Each evaluation replaces the previous alert, so older entries are
	// closed before the new one is logged.
	if tr.From == alert.StatusAlerting {
		if err := c.sink.ClearAlerts(tr.City, c.clock()); err != nil {
			log.Printf("dashboard: clear alerts for %s: %v", tr.City, err)
		}
	}
	if tr.Alert != nil {
		if err := c.sink.RecordAlert(*tr.Alert); err != nil {
			log.Printf("dashboard: record alert for %s: %v", tr.City, err)
		}
	}
}

func (c *Controller) startRun(id uint64, city string) *store.FetchRun {
	if c.recorder == nil {
		return nil
	}
	run, err := c.recorder.StartFetchRun(id, city)
	if err != nil {
		log.Printf("dashboard: start fetch run: %v", err)
		return nil
	}
	return run
}

func (c *Controller) completeRun(run *store.FetchRun) {
	if err := c.recorder.CompleteFetchRun(run); err != nil {
		log.Printf("dashboard: complete fetch run %d: %v", run.ID, err)
	}
}

// RiskTable returns the vulnerable-group rules applied to each reading.
func (c *Controller) RiskTable() aqi.RiskTable {
	return c.risks
}

// Current returns the latest published state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that always holds the most recent state not yet
// received; intermediate states may be skipped. The current state is
// delivered immediately. Call the returned func to unsubscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	ch <- c.state
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// WaitSettled reads updates until a selection has resolved, either with a
// reading or as unavailable.
func WaitSettled(ctx context.Context, updates <-chan State) (State, error) {
	for {
		select {
		case <-ctx.Done():
			return State{}, ctx.Err()
		case s, ok := <-updates:
			if !ok {
				return State{}, ErrClosed
			}
			if s.RequestID > 0 && !s.Loading {
				return s, nil
			}
		}
	}
}

func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}

// Wait blocks until every started fetch has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels pending fetches and closes all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.shutdown()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
