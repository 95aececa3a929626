package aqi

import "fmt"

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Group is a population that is more vulnerable to poor air.
type Group string

const (
	GroupChildren     Group = "Children"
	GroupElderly      Group = "Elderly"
	GroupHeartDisease Group = "Heart Disease"
	GroupRespiratory  Group = "Respiratory Issues"
)

// Groups returns the vulnerable groups in display order.
func Groups() []Group {
	return []Group{GroupChildren, GroupElderly, GroupHeartDisease, GroupRespiratory}
}

// RiskRule yields Above when aqi > Threshold, AtOrBelow otherwise.
type RiskRule struct {
	Threshold float64   `json:"threshold"`
	Above     RiskLevel `json:"above"`
	AtOrBelow RiskLevel `json:"atOrBelow"`
}

func (r RiskRule) Level(aqi float64) RiskLevel {
	if aqi > r.Threshold {
		return r.Above
	}
	return r.AtOrBelow
}

// RiskTable holds one independent rule per group.
type RiskTable map[Group]RiskRule

func DefaultRiskTable() RiskTable {
	return RiskTable{
		GroupChildren:     {Threshold: 100, Above: RiskHigh, AtOrBelow: RiskModerate},
		GroupElderly:      {Threshold: 150, Above: RiskHigh, AtOrBelow: RiskModerate},
		GroupHeartDisease: {Threshold: 100, Above: RiskHigh, AtOrBelow: RiskLow},
		GroupRespiratory:  {Threshold: 100, Above: RiskHigh, AtOrBelow: RiskModerate},
	}
}

// GroupRisk is the assessed risk for one group.
type GroupRisk struct {
	Group Group     `json:"group"`
	Risk  RiskLevel `json:"risk"`
}

// Risk returns the level for a group, or false if the table has no rule for it.
func (t RiskTable) Risk(aqi float64, g Group) (RiskLevel, bool) {
	rule, ok := t[g]
	if !ok {
		return "", false
	}
	return rule.Level(aqi), true
}

// Assess evaluates every known group present in the table, in display order.
func (t RiskTable) Assess(aqi float64) []GroupRisk {
	risks := make([]GroupRisk, 0, len(t))
	for _, g := range Groups() {
		if level, ok := t.Risk(aqi, g); ok {
			risks = append(risks, GroupRisk{Group: g, Risk: level})
		}
	}
	return risks
}

// With returns a copy of the table with one rule replaced.
func (t RiskTable) With(g Group, rule RiskRule) RiskTable {
	out := make(RiskTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[g] = rule
	return out
}

func (t RiskTable) Validate() error {
	for g, rule := range t {
		for _, level := range []RiskLevel{rule.Above, rule.AtOrBelow} {
			switch level {
			case RiskLow, RiskModerate, RiskHigh:
			default:
				return fmt.Errorf("risk rule %q: unknown level %q", g, level)
			}
		}
	}
	return nil
}
