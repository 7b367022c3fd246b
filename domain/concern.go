package domain

// ConcernStatus is the workflow status of a concern.
type ConcernStatus string

const (
	ConcernOpen         ConcernStatus = "OPEN"
	ConcernAcknowledged ConcernStatus = "ACKNOWLEDGED"
	ConcernResolved     ConcernStatus = "RESOLVED"
	ConcernEscalated    ConcernStatus = "ESCALATED"
)

// ConcernType classifies a concern.
type ConcernType string

const (
	ConcernTemperatureDeviation ConcernType = "TEMPERATURE_DEVIATION"
	ConcernDamage               ConcernType = "DAMAGE"
	ConcernDelay                ConcernType = "DELAY"
	ConcernDocumentationIssue   ConcernType = "DOCUMENTATION_ISSUE"
	ConcernQuantityMismatch     ConcernType = "QUANTITY_MISMATCH"
	ConcernOther                ConcernType = "OTHER"
)

// ValidConcernType reports whether s is a known concern type.
func ValidConcernType(s string) bool {
	switch ConcernType(s) {
	case ConcernTemperatureDeviation, ConcernDamage, ConcernDelay,
		ConcernDocumentationIssue, ConcernQuantityMismatch, ConcernOther:
		return true
	}
	return false
}

// ConcernActive reports whether the concern still needs operator
// attention. Resolved and escalated concerns are settled.
func ConcernActive(s ConcernStatus) bool {
	return s == ConcernOpen || s == ConcernAcknowledged
}

// TransitionConcern validates a concern workflow step. The sequence is
// OPEN -> ACKNOWLEDGED -> RESOLVED, with ESCALATED reachable from OPEN or
// ACKNOWLEDGED. A concern cannot skip straight from OPEN to RESOLVED.
func TransitionConcern(current, target ConcernStatus) error {
	switch target {
	case ConcernAcknowledged:
		if current != ConcernOpen {
			return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
		}
	case ConcernResolved:
		if current != ConcernAcknowledged {
			return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
		}
	case ConcernEscalated:
		if current != ConcernOpen && current != ConcernAcknowledged {
			return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
		}
	default:
		return NewTransitionError(ErrCodeInvalidTransition, "", string(current), string(target))
	}
	return nil
}
