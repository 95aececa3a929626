package aqi

import "fmt"

// Category is one of the six AQI tiers, ordered by severity.
type Category int

const (
	Good Category = iota
	Moderate
	UnhealthySensitive
	Unhealthy
	VeryUnhealthy
	Hazardous
)

// Classification is derived from an AQI value and never stored.
type Classification struct {
	Category   Category `json:"category"`
	Color      string   `json:"color"`
	Background string   `json:"background"`
}

type tier struct {
	upper      float64 // inclusive
	category   Category
	label      string
	color      string
	background string
}

// tiers is ordered by upper bound. Anything above the last bound is Hazardous.
var tiers = []tier{
	{50, Good, "Good", "#00e400", "bg-green-100"},
	{100, Moderate, "Moderate", "#ffff00", "bg-yellow-100"},
	{150, UnhealthySensitive, "Unhealthy for Sensitive Groups", "#ff7e00", "bg-orange-100"},
	{200, Unhealthy, "Unhealthy", "#ff0000", "bg-red-100"},
	{300, VeryUnhealthy, "Very Unhealthy", "#8f3f97", "bg-purple-100"},
}

var hazardous = tier{category: Hazardous, label: "Hazardous", color: "#7e0023", background: "bg-red-200"}

// Classify maps any AQI value to its tier. Values below zero classify as Good
// and values above 500 as Hazardous.
func Classify(aqi float64) Classification {
	t := lookup(aqi)
	return Classification{
		Category:   t.category,
		Color:      t.color,
		Background: t.background,
	}
}

func lookup(aqi float64) tier {
	for _, t := range tiers {
		if aqi <= t.upper {
			return t
		}
	}
	return hazardous
}

// Categories returns every category from least to most severe.
func Categories() []Category {
	return []Category{Good, Moderate, UnhealthySensitive, Unhealthy, VeryUnhealthy, Hazardous}
}

// Rank is the severity order, 0 for Good through 5 for Hazardous.
func (c Category) Rank() int {
	return int(c)
}

func (c Category) Valid() bool {
	return c >= Good && c <= Hazardous
}

func (c Category) String() string {
	if c == Hazardous {
		return hazardous.label
	}
	if c.Valid() {
		return tiers[c].label
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown AQI category %q", s)
}
