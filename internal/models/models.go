package models

import "time"

type City struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	BaselineAQI int     `json:"baselineAqi"`
}

// Pollutants are concentrations in µg/m³. They are drawn independently of the
// reading's AQI and are not consistent with it.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
}

type Reading struct {
	City       string     `json:"city"`
	AQI        float64    `json:"aqi"`
	Pollutants Pollutants `json:"pollutants"`
	ObservedAt time.Time  `json:"observedAt"`
}

type HistoricalPoint struct {
	Day  string  `json:"day"`
	AQI  float64 `json:"aqi"`
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
}

type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Label      string    `json:"label"`
	AQI        float64   `json:"aqi"`
	Confidence int       `json:"confidence"` // percent, placeholder only
}

type Alert struct {
	ID       string    `json:"id"`
	City     string    `json:"city"`
	Severity string    `json:"severity"` // "warning"
	Category string    `json:"category"`
	AQI      float64   `json:"aqi"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raisedAt"`
}

// AlertRecord is an Alert as kept in the alert log.
type AlertRecord struct {
	Alert
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ClearedAt      *time.Time `json:"clearedAt,omitempty"`
}

type PollutionSource struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

type WeatherConditions struct {
	TemperatureC float64 `json:"temperatureC"`
	HumidityPct  int     `json:"humidityPct"`
	WindSpeedKmh float64 `json:"windSpeedKmh"`
}
