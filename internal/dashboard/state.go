package dashboard

import (
	"time"

	"github.com/lox/airwatch/internal/aqi"
	"github.com/lox/airwatch/internal/models"
)

// State is one published update for the view layer. A State is never
// modified after publication; transitions build a new value.
type State struct {
	City           string                   `json:"city"`
	RequestID      uint64                   `json:"requestId"`
	Loading        bool                     `json:"loading"`
	Unavailable    bool                     `json:"unavailable"`
	Reading        *models.Reading          `json:"currentReading"`
	Classification *aqi.Classification      `json:"classification"`
	Historical     []models.HistoricalPoint `json:"historicalSeries"`
	Forecast       []models.ForecastPoint   `json:"forecastSeries"`
	Advisories     []string                 `json:"advisories"`
	Risks          []aqi.GroupRisk          `json:"vulnerableGroupRisks"`
	Alert          *models.Alert            `json:"activeAlert"`
	Sources        []models.PollutionSource `json:"pollutionSources"`
	Weather        models.WeatherConditions `json:"weather"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// result is everything derived from one resolved reading.
type result struct {
	reading        models.Reading
	classification aqi.Classification
	historical     []models.HistoricalPoint
	forecast       []models.ForecastPoint
	advisories     []string
	risks          []aqi.GroupRisk
	alert          *models.Alert
	at             time.Time
}

// selectCity starts a new request. The previous city's reading and alert are
// dropped immediately so nothing from it is shown while loading.
func selectCity(s State, city string, id uint64, at time.Time) State {
	return State{
		City:      city,
		RequestID: id,
		Loading:   true,
		Sources:   s.Sources,
		Weather:   s.Weather,
		UpdatedAt: at,
	}
}

// applyResult publishes a resolved reading. Results for any request other
// than the active one leave the state unchanged.
func applyResult(s State, id uint64, r result) State {
	if id != s.RequestID {
		return s
	}
	reading := r.reading
	classification := r.classification
	return State{
		City:           s.City,
		RequestID:      id,
		Reading:        &reading,
		Classification: &classification,
		Historical:     r.historical,
		Forecast:       r.forecast,
		Advisories:     r.advisories,
		Risks:          r.risks,
		Alert:          r.alert,
		Sources:        s.Sources,
		Weather:        s.Weather,
		UpdatedAt:      r.at,
	}
}

// markUnavailable shows the data-unavailable state for the active request.
func markUnavailable(s State, id uint64, at time.Time) State {
	if id != s.RequestID {
		return s
	}
	return State{
		City:        s.City,
		RequestID:   id,
		Unavailable: true,
		Sources:     s.Sources,
		Weather:     s.Weather,
		UpdatedAt:   at,
	}
}
