package simulate

import "github.com/lox/airwatch/internal/models"

// Source shares are fixed reference data and are not derived from readings.
var pollutionSources = []models.PollutionSource{
	{Name: "Vehicle Emissions", Percentage: 35, Color: "#ff6b6b"},
	{Name: "Industrial Activity", Percentage: 25, Color: "#4ecdc4"},
	{Name: "Construction Dust", Percentage: 20, Color: "#45b7d1"},
	{Name: "Crop Burning", Percentage: 15, Color: "#f9ca24"},
	{Name: "Other Sources", Percentage: 5, Color: "#6c5ce7"},
}

var weather = models.WeatherConditions{
	TemperatureC: 28,
	HumidityPct:  65,
	WindSpeedKmh: 12,
}

// PollutionSources returns a copy of the static source breakdown.
func PollutionSources() []models.PollutionSource {
	out := make([]models.PollutionSource, len(pollutionSources))
	copy(out, pollutionSources)
	return out
}

// Weather returns the static conditions shown beside pollutant levels.
func Weather() models.WeatherConditions {
	return weather
}
