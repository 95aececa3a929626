package dashboard

import (
	"context"
	"time"

	"github.com/lox/airwatch/internal/models"
	"github.com/lox/airwatch/internal/simulate"
)

// DefaultFetchDelay stands in for network latency on simulated fetches.
const DefaultFetchDelay = time.Second

// Fetcher produces the current reading for a city. A real data source would
// implement this; the controller wraps it with retry and cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, city models.City) (models.Reading, error)
}

// SimulatedFetcher waits Delay and then draws a reading from the simulator.
type SimulatedFetcher struct {
	Simulator *simulate.Simulator
	Delay     time.Duration
}

func (f *SimulatedFetcher) Fetch(ctx context.Context, city models.City) (models.Reading, error) {
	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.Reading{}, ctx.Err()
		case <-timer.C:
		}
	}
	return f.Simulator.CurrentReading(city), nil
}
