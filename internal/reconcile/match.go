package reconcile

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/stacker/internal/shapes"
)

// MatchPolicy decides how persisted shape states are compared with pending
// creations during mogrify.
type MatchPolicy uint8

const (
	// MatchImmobileBucket treats Locked and Fixed as interchangeable.
	// TODO(levels): confirm with design whether a Fixed anchor may really be
	// restored from a player-Locked save; MatchExact is the strict fallback.
	MatchImmobileBucket MatchPolicy = iota
	// MatchExact requires identical states.
	MatchExact
)

// String returns the config name of the policy.
func (p MatchPolicy) String() string {
	switch p {
	case MatchImmobileBucket:
		return "immobile_bucket"
	case MatchExact:
		return "exact"
	default:
		return "unknown"
	}
}

// ParseMatchPolicy converts a config name to a MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "immobile_bucket":
		return MatchImmobileBucket, nil
	case "exact":
		return MatchExact, nil
	default:
		return MatchImmobileBucket, fmt.Errorf("unknown match policy %q", s)
	}
}

// StatesMatch compares two states under the policy.
func (p MatchPolicy) StatesMatch(a, b shapes.ShapeState) bool {
	if a == b {
		return true
	}
	return p == MatchImmobileBucket && a.Immobile() && b.Immobile()
}

// Matches reports whether a persisted shape can stand in for a pending
// creation: same catalog shape, same modifiers and matching state.
func (p MatchPolicy) Matches(c shapes.ShapeCreationData, s shapes.EncodableShape) bool {
	return c.Shape == s.Shape && c.Modifiers == s.Modifiers && p.StatesMatch(c.State, s.State)
}
