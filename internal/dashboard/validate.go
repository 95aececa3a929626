package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lox/airwatch/internal/models"
)

const (
	FlagAQIOutOfRange     = "aqi_out_of_range"
	FlagPollutantNegative = "pollutant_negative"
	FlagCityMismatch      = "city_mismatch"
	FlagMissingTimestamp  = "missing_timestamp"
)

// ValidateReading returns the checks a fetched reading fails. Simulated
// readings always pass; the checks guard against a misbehaving Fetcher.
func ValidateReading(r models.Reading, city string) []string {
	var flags []string

	if math.IsNaN(r.AQI) || r.AQI < 0 || r.AQI > 500 {
		flags = append(flags, FlagAQIOutOfRange)
	}

	p := r.Pollutants
	for _, v := range []float64{p.PM25, p.PM10, p.NO2, p.O3} {
		if v < 0 || math.IsNaN(v) {
			flags = append(flags, FlagPollutantNegative)
			break
		}
	}

	if r.City != city {
		flags = append(flags, FlagCityMismatch)
	}

	if r.ObservedAt.IsZero() {
		flags = append(flags, FlagMissingTimestamp)
	}

	return flags
}

func QualityFlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}

// InvalidReadingError reports a reading that failed validation. It is not
// retried.
type InvalidReadingError struct {
	Flags []string
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("invalid reading: %s", strings.Join(e.Flags, ", "))
}
