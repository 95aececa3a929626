package api

import (
	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/dashboard"
	"github.com/lox/airwatch/internal/models"
)

// Tabs shown on the dashboard page.
const (
	TabCurrent  = "current"
	TabTrends   = "trends"
	TabForecast = "forecast"
	TabHealth   = "health"
)

var tabs = []string{TabCurrent, TabTrends, TabForecast, TabHealth}

func validTab(t string) bool {
	for _, v := range tabs {
		if v == t {
			return true
		}
	}
	return false
}

// ForecastView is a forecast point with its classification attached.
type ForecastView struct {
	models.ForecastPoint
	Classification aqi.Classification `json:"classification"`
}

func forecastViews(points []models.ForecastPoint) []ForecastView {
	views := make([]ForecastView, len(points))
	for i, p := range points {
		views[i] = ForecastView{ForecastPoint: p, Classification: aqi.Classify(p.AQI)}
	}
	return views
}

// HistoricalView is one trend bar.
type HistoricalView struct {
	models.HistoricalPoint
	Classification aqi.Classification
	HeightPct      int
}

func historicalViews(points []models.HistoricalPoint) []HistoricalView {
	views := make([]HistoricalView, len(points))
	for i, p := range points {
		views[i] = HistoricalView{
			HistoricalPoint: p,
			Classification:  aqi.Classify(p.AQI),
			HeightPct:       barHeight(p.AQI),
		}
	}
	return views
}

// barHeight scales an AQI onto a 0-100 bar, saturating at 300.
func barHeight(v float64) int {
	pct := int(v / 300 * 100)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// IndexData is the page model for the dashboard.
type IndexData struct {
	dashboard.State
	Tab        string
	Tabs       []string
	Cities     []string
	Trends     []HistoricalView
	Forecasts  []ForecastView
	Categories []CategoryRow
}

// CategoryRow is one line of the AQI scale legend.
type CategoryRow struct {
	Classification aqi.Classification
	Range          string
}

// scale pairs a representative value with the printed range of each
// category, in ascending order.
var scale = []struct {
	sample float64
	rng    string
}{
	{0, "0-50"},
	{75, "51-100"},
	{125, "101-150"},
	{175, "151-200"},
	{250, "201-300"},
	{400, "301+"},
}

func categoryRows() []CategoryRow {
	rows := make([]CategoryRow, len(scale))
	for i, s := range scale {
		rows[i] = CategoryRow{Classification: aqi.Classify(s.sample), Range: s.rng}
	}
	return rows
}

func newIndexData(state dashboard.State, tab string, cityNames []string) IndexData {
	return IndexData{
		State:      state,
		Tab:        tab,
		Tabs:       tabs,
		Cities:     cityNames,
		Trends:     historicalViews(state.Historical),
		Forecasts:  forecastViews(state.Forecast),
		Categories: categoryRows(),
	}
}
