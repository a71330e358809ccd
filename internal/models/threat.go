package models

// ThreatLevel is the ordered severity scale used across the protocol and the
// scoring engine. Escalation is monotonic within an episode except when the
// victim explicitly confirms they are safe.
type ThreatLevel int

const (
	ThreatUnknown ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (l ThreatLevel) String() string {
	switch l {
	case ThreatLow:
		return "LOW"
	case ThreatMedium:
		return "MEDIUM"
	case ThreatHigh:
		return "HIGH"
	case ThreatCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AtLeast reports whether l is at or above other on the severity scale.
func (l ThreatLevel) AtLeast(other ThreatLevel) bool { return l >= other }

// Max returns the higher of the two levels.
func (l ThreatLevel) Max(other ThreatLevel) ThreatLevel {
	if other > l {
		return other
	}
	return l
}

// EmergencyPath is the branch chosen once per episode at the second decision
// point. It is never reverted within that episode.
type EmergencyPath int

const (
	PathNone EmergencyPath = iota
	PathThreatNearby
	PathEscapeToSafety
)

func (p EmergencyPath) String() string {
	switch p {
	case PathThreatNearby:
		return "THREAT_NEARBY"
	case PathEscapeToSafety:
		return "ESCAPE_TO_SAFETY"
	default:
		return "NONE"
	}
}

// ResolutionReason records why an episode ended.
type ResolutionReason string

const (
	ResolutionUserSafe        ResolutionReason = "USER_SAFE"
	ResolutionFalseAlarm      ResolutionReason = "FALSE_ALARM"
	ResolutionArrivedAtSafety ResolutionReason = "ARRIVED_AT_SAFETY"
	ResolutionManualCancel    ResolutionReason = "MANUAL_CANCEL"
)
