// Package simulate generates synthetic air-quality readings. Every draw comes
// from an injected Source so a fixed seed reproduces the same series.
package simulate

import (
	"math"
	"time"

	"github.com/lox/airwatch/internal/models"
)

const (
	minAQI = 0
	maxAQI = 500

	// Current readings vary uniformly within ±variationSpan of the baseline.
	variationSpan = 20
)

// uniformRange is [Min, Min+Span) with integral draws.
type uniformRange struct {
	Min  float64
	Span float64
}

func (r uniformRange) draw(src Source) float64 {
	return math.Floor(src.Float64()*r.Span) + r.Min
}

var (
	pm25Range = uniformRange{Min: 20, Span: 100}
	pm10Range = uniformRange{Min: 30, Span: 150}
	no2Range  = uniformRange{Min: 10, Span: 80}
	o3Range   = uniformRange{Min: 20, Span: 120}

	historicalAQIRange  = uniformRange{Min: 50, Span: 200}
	historicalPM25Range = uniformRange{Min: 20, Span: 100}
	historicalPM10Range = uniformRange{Min: 30, Span: 150}

	forecastAQIRange        = uniformRange{Min: 70, Span: 180}
	forecastConfidenceRange = uniformRange{Min: 70, Span: 30}
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const (
	ForecastDays   = 3
	HistoricalDays = 7
	forecastLayout = "Mon, Jan 2"
)

type Simulator struct {
	src   Source
	clock func() time.Time
}

type Option func(*Simulator)

// WithClock overrides time.Now for reading timestamps and forecast dates.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) {
		s.clock = clock
	}
}

func New(src Source, opts ...Option) *Simulator {
	s := &Simulator{src: src, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentReading draws a reading around the city's baseline. The variation is
// drawn first, then PM2.5, PM10, NO2 and O3 in that order.
func (s *Simulator) CurrentReading(city models.City) models.Reading {
	variation := s.src.Float64()*2*variationSpan - variationSpan
	aqi := clamp(float64(city.BaselineAQI)+variation, minAQI, maxAQI)

	return models.Reading{
		City:       city.Name,
		AQI:        aqi,
		Pollutants: s.Pollutants(),
		ObservedAt: s.clock(),
	}
}

// Pollutants draws concentrations independently of any AQI value.
func (s *Simulator) Pollutants() models.Pollutants {
	return models.Pollutants{
		PM25: pm25Range.draw(s.src),
		PM10: pm10Range.draw(s.src),
		NO2:  no2Range.draw(s.src),
		O3:   o3Range.draw(s.src),
	}
}

// HistoricalSeries returns a Mon..Sun week of independent noise. Consecutive
// days are not correlated.
func (s *Simulator) HistoricalSeries() []models.HistoricalPoint {
	points := make([]models.HistoricalPoint, 0, HistoricalDays)
	for _, day := range weekdays {
		points = append(points, models.HistoricalPoint{
			Day:  day,
			AQI:  historicalAQIRange.draw(s.src),
			PM25: historicalPM25Range.draw(s.src),
			PM10: historicalPM10Range.draw(s.src),
		})
	}
	return points
}

// ForecastSeries returns three days starting today. Confidence is drawn
// independently of the AQI and carries no predictive meaning.
func (s *Simulator) ForecastSeries() []models.ForecastPoint {
	now := s.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	points := make([]models.ForecastPoint, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		date := today.AddDate(0, 0, i)
		points = append(points, models.ForecastPoint{
			Date:       date,
			Label:      date.Format(forecastLayout),
			AQI:        forecastAQIRange.draw(s.src),
			Confidence: int(forecastConfidenceRange.draw(s.src)),
		})
	}
	return points
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
