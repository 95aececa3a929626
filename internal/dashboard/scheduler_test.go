package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/lox/airwatch/internal/simulate"
)

func TestRefresh(t *testing.T) {
	c := newTestController(t, simulate.NewSequence(simulate.VariationDraw(10), 0.5))

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh before selection: %v", err)
	}
	c.Wait()
	if got := c.Current(); got.City != "" || got.RequestID != 0 {
		t.Errorf("Refresh before selection changed state: %+v", got)
	}

	if _, err := c.SelectAndWait("Hyderabad"); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	c.Wait()

	got := c.Current()
	if got.City != "Hyderabad" || got.RequestID != 2 || got.Reading == nil {
		t.Errorf("state after refresh = %+v", got)
	}
}

func TestScheduler(t *testing.T) {
	c := newTestController(t, simulate.NewSequence(simulate.VariationDraw(10), 0.5))
	if _, err := c.SelectAndWait("Hyderabad"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(c, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		c.mu.Lock()
		id := c.lastID
		c.mu.Unlock()
		if id >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("scheduler did not refresh, lastID = %d", id)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
	c.Wait()
	if got := c.Current(); got.City != "Hyderabad" || got.Loading {
		t.Errorf("state = %+v", got)
	}
}

func TestScheduler_Disabled(t *testing.T) {
	c := newTestController(t, simulate.NewSource(1))
	done := make(chan struct{})
	go func() {
		NewScheduler(c, 0).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler should return immediately")
	}
}
