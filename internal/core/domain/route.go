package domain

// UnavailableReason distinguishes why no source covers a date.
// Callers need to tell these apart for diagnostics.
type UnavailableReason string

// Reasons a date can be unroutable.
const (
	// ReasonBeforeAllWindows: the date precedes every window.
	ReasonBeforeAllWindows UnavailableReason = "before-all-windows"

	// ReasonAfterAllWindows: the date follows every window.
	ReasonAfterAllWindows UnavailableReason = "after-all-windows"

	// ReasonGapBetweenWindows: the date falls strictly between two
	// non-overlapping windows.
	ReasonGapBetweenWindows UnavailableReason = "gap-between-windows"
)

// RouteDecision is the outcome of resolving a date to a source:
// exactly one source ID, or unavailable with a distinguished reason.
type RouteDecision struct {
	// SourceID is the resolved source, empty when unavailable.
	SourceID string

	// Reason is set only when the date is unavailable.
	Reason UnavailableReason
}

// Available reports whether a source was resolved.
func (r RouteDecision) Available() bool {
	return r.SourceID != ""
}

// Presence is the tri-state result of the artifact existence probe.
// An explicit result replaces exception-driven existence checks.
type Presence int

// Probe outcomes.
const (
	// PresenceMissing: no final artifact exists for the date.
	PresenceMissing Presence = iota

	// PresenceInvalid: a final artifact exists but fails validation
	// (e.g. below the minimum size). The date should be re-fetched.
	PresenceInvalid

	// PresencePresent: a valid final artifact exists.
	PresencePresent
)

// String returns a short label for logs.
func (p Presence) String() string {
	switch p {
	case PresencePresent:
		return "present"
	case PresenceInvalid:
		return "invalid"
	default:
		return "missing"
	}
}
