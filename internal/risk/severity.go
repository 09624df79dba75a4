package risk

type Severity string

const (
	SeverityQuiet    Severity = "quiet"
	SeverityNormal   Severity = "normal"
	SeverityElevated Severity = "elevated"
	SeveritySurging  Severity = "surging"

	SeverityNeutral   Severity = "neutral"
	SeverityStretched Severity = "stretched"
	SeverityExtended  Severity = "extended"
	SeverityExtreme   Severity = "extreme"

	SeverityWide        Severity = "wide"
	SeverityComfortable Severity = "comfortable"
	SeverityTight       Severity = "tight"
	SeverityCritical    Severity = "critical"
	SeverityInactive    Severity = "inactive"
)

// ClassifyRvol bands relative volume for display urgency.
func ClassifyRvol(rvol float64) Severity {
	switch {
	case rvol >= 2.0:
		return SeveritySurging
	case rvol >= 1.5:
		return SeverityElevated
	case rvol >= 1.0:
		return SeverityNormal
	default:
		return SeverityQuiet
	}
}

// ClassifyExtension bands the absolute deviation from the 10-day
// trend. Positions without a trend read as neutral.
func ClassifyExtension(extPercent float64, hasTrend bool) Severity {
	if !hasTrend {
		return SeverityNeutral
	}
	abs := extPercent
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 3:
		return SeverityNeutral
	case abs < 6:
		return SeverityStretched
	case abs < 10:
		return SeverityExtended
	default:
		return SeverityExtreme
	}
}

// ClassifyStopCushion bands the room left above the stop. Positions
// still on the untriggered automatic stop read as inactive.
func ClassifyStopCushion(cushionPercent float64, active bool) Severity {
	if !active {
		return SeverityInactive
	}
	switch {
	case cushionPercent > 15:
		return SeverityWide
	case cushionPercent > 7:
		return SeverityComfortable
	case cushionPercent > 3:
		return SeverityTight
	default:
		return SeverityCritical
	}
}
