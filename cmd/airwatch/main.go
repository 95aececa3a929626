package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/lox/airwatch/internal/alert"
	"github.com/lox/airwatch/internal/api"
	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/cities"
	"github.com/lox/airwatch/internal/dashboard"
	"github.com/lox/airwatch/internal/simulate"
	"github.com/lox/airwatch/internal/store"
)

type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Run the dashboard web server."`
	Snapshot SnapshotCmd `cmd:"" help:"Select a city and print the settled state as JSON."`
	Classify ClassifyCmd `cmd:"" help:"Classify an AQI value and print advice."`
}

// SimOptions configure the reading simulator.
type SimOptions struct {
	Seed       uint64        `env:"AIRWATCH_SEED" help:"Random seed for reproducible readings (0 picks one from the clock)."`
	FetchDelay time.Duration `env:"AIRWATCH_FETCH_DELAY" default:"1s" help:"Simulated data source latency."`
}

func (o SimOptions) simulator() *simulate.Simulator {
	seed := o.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Printf("simulate: seed %d", seed)
	return simulate.New(simulate.Locked(simulate.NewSource(seed)))
}

type ServeCmd struct {
	SimOptions `embed:""`

	Port           string        `env:"AIRWATCH_PORT" default:"8080" help:"HTTP server port."`
	City           string        `env:"AIRWATCH_CITY" default:"Delhi" help:"City selected at startup."`
	DB             string        `env:"AIRWATCH_DB" default:":memory:" help:"SQLite database for the alert log and fetch audit."`
	AlertThreshold float64       `name:"alert-threshold" env:"AIRWATCH_ALERT_THRESHOLD" default:"150" help:"Raise an alert when AQI is above this value."`
	Refresh        time.Duration `env:"AIRWATCH_REFRESH" default:"5m" help:"Re-fetch the selected city at this interval (0 disables)."`
}

func (c *ServeCmd) Run() error {
	reg := mustRegistry()
	if _, err := reg.Lookup(c.City); err != nil {
		log.Fatalf("startup city: %v", err)
	}

	st, err := store.Open(c.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Printf("store: opened %s", c.DB)

	sim := c.simulator()
	ctrl := dashboard.New(reg, sim,
		dashboard.WithFetcher(&dashboard.SimulatedFetcher{Simulator: sim, Delay: c.FetchDelay}),
		dashboard.WithAlertSink(st),
		dashboard.WithFetchRecorder(st),
		dashboard.WithEvaluator(alert.NewEvaluator().WithThreshold(c.AlertThreshold)),
	)
	defer ctrl.Close()

	if err := ctrl.Select(c.City); err != nil {
		return fmt.Errorf("select %s: %w", c.City, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go dashboard.NewScheduler(ctrl, c.Refresh).Run(ctx)

	server := api.NewServer(ctrl, reg, sim, st, c.Port)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Println("shutdown complete")
	return nil
}

type SnapshotCmd struct {
	SimOptions `embed:""`

	City    string        `env:"AIRWATCH_CITY" default:"Delhi" help:"City to select."`
	Timeout time.Duration `default:"30s" help:"Give up if no reading has settled by then."`
}

func (c *SnapshotCmd) Run() error {
	reg := mustRegistry()
	sim := c.simulator()
	ctrl := dashboard.New(reg, sim,
		dashboard.WithFetcher(&dashboard.SimulatedFetcher{Simulator: sim, Delay: c.FetchDelay}),
	)
	defer ctrl.Close()

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	if err := ctrl.Select(c.City); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	state, err := dashboard.WaitSettled(ctx, updates)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", c.City, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

type ClassifyCmd struct {
	AQI float64 `arg:"" name:"aqi" help:"AQI value to classify."`
}

func (c *ClassifyCmd) Run() error {
	if math.IsNaN(c.AQI) || math.IsInf(c.AQI, 0) {
		return fmt.Errorf("aqi must be a finite number")
	}
	classification := aqi.Classify(c.AQI)
	fmt.Printf("AQI %d: %s (%s)\n", int(math.Floor(c.AQI)), classification.Category, classification.Color)
	for _, a := range aqi.AdviceFor(classification.Category) {
		fmt.Printf("  - %s\n", a)
	}
	fmt.Println("Vulnerable groups:")
	for _, r := range aqi.DefaultRiskTable().Assess(c.AQI) {
		fmt.Printf("  %-20s %s\n", r.Group, r.Risk)
	}
	return nil
}

// mustRegistry validates the built-in city table. A malformed table is a
// configuration error and stops the process.
func mustRegistry() *cities.Registry {
	reg, err := cities.NewRegistry(cities.Default)
	if err != nil {
		log.Fatalf("city table: %v", err)
	}
	return reg
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("airwatch"),
		kong.Description("Air quality classification and simulation dashboard."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
