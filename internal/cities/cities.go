package cities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/airwatch/internal/models"
)

// ErrUnknownCity is returned when a name is not in the configured table.
var ErrUnknownCity = errors.New("unknown city")

// Default is the reference city table with the baseline AQI used to centre
// simulated readings.
var Default = []models.City{
	{Name: "Delhi", Latitude: 28.6139, Longitude: 77.2090, BaselineAQI: 180},
	{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, BaselineAQI: 120},
	{Name: "Bangalore", Latitude: 12.9716, Longitude: 77.5946, BaselineAQI: 95},
	{Name: "Chennai", Latitude: 13.0827, Longitude: 80.2707, BaselineAQI: 110},
	{Name: "Kolkata", Latitude: 22.5726, Longitude: 88.3639, BaselineAQI: 155},
	{Name: "Hyderabad", Latitude: 17.3850, Longitude: 78.4867, BaselineAQI: 85},
}

// Registry is an immutable, validated set of cities.
type Registry struct {
	cities []models.City
	byName map[string]models.City
}

// NewRegistry validates the table and indexes it by name. Any error here is a
// configuration error and should stop the process.
func NewRegistry(table []models.City) (*Registry, error) {
	if len(table) == 0 {
		return nil, errors.New("city table is empty")
	}

	r := &Registry{
		cities: make([]models.City, 0, len(table)),
		byName: make(map[string]models.City, len(table)),
	}
	for i, c := range table {
		if err := validate(c); err != nil {
			return nil, fmt.Errorf("city %d: %w", i, err)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("city %d: duplicate name %q", i, c.Name)
		}
		r.byName[c.Name] = c
		r.cities = append(r.cities, c)
	}
	return r, nil
}

func validate(c models.City) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is empty")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%s: latitude %v out of range", c.Name, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%s: longitude %v out of range", c.Name, c.Longitude)
	}
	if c.BaselineAQI < 0 || c.BaselineAQI > 500 {
		return fmt.Errorf("%s: baseline AQI %d outside [0,500]", c.Name, c.BaselineAQI)
	}
	return nil
}

// Lookup finds a city by exact name.
func (r *Registry) Lookup(name string) (models.City, error) {
	c, ok := r.byName[name]
	if !ok {
		return models.City{}, fmt.Errorf("%w: %q", ErrUnknownCity, name)
	}
	return c, nil
}

// All returns the cities in configured order.
func (r *Registry) All() []models.City {
	out := make([]models.City, len(r.cities))
	copy(out, r.cities)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.cities))
	for i, c := range r.cities {
		names[i] = c.Name
	}
	return names
}
