package model

// RiskPercent is the account share risked per new position.
type RiskPercent float64

const (
	RiskHalfPercent    RiskPercent = 0.5
	RiskOnePercent     RiskPercent = 1.0
	RiskOneHalfPercent RiskPercent = 1.5
	RiskTwoPercent     RiskPercent = 2.0
)

var RiskPercentOptions = []RiskPercent{
	RiskHalfPercent,
	RiskOnePercent,
	RiskOneHalfPercent,
	RiskTwoPercent,
}

func (r RiskPercent) Valid() bool {
	for _, opt := range RiskPercentOptions {
		if r == opt {
			return true
		}
	}
	return false
}
