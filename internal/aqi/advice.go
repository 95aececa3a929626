package aqi

// advice lists recommended actions per category, most urgent first.
var advice = map[Category][]string{
	Good: {
		"Perfect day for outdoor activities! 🌟",
		"Great air quality for jogging and sports",
		"Windows can be kept open for fresh air",
	},
	Moderate: {
		"Generally acceptable air quality",
		"Sensitive individuals should limit prolonged outdoor activities",
		"Good day for most outdoor activities",
	},
	UnhealthySensitive: {
		"Sensitive groups should reduce outdoor activities",
		"Consider wearing masks during outdoor activities",
		"Keep windows closed during peak hours",
	},
	Unhealthy: {
		"Avoid outdoor activities, especially jogging",
		"Keep children indoors during peak hours",
		"Use air purifiers if available",
		"Wear N95 masks when going outside",
	},
	VeryUnhealthy: {
		"Stay indoors as much as possible",
		"Avoid all outdoor physical activities",
		"Use air purifiers and keep windows closed",
		"Seek medical attention if experiencing symptoms",
	},
	Hazardous: {
		"Emergency conditions - stay indoors!",
		"Avoid all outdoor activities",
		"Use air purifiers and seal windows",
		"Consult healthcare provider if experiencing symptoms",
	},
}

// AdviceFor returns the recommended actions for a category. The slice is a
// copy; an unrecognised category yields an empty slice.
func AdviceFor(c Category) []string {
	list := advice[c]
	out := make([]string, len(list))
	copy(out, list)
	return out
}
