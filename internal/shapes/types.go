package shapes

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/stacker/internal/core"
)

// ShapeIndex is a handle into the Catalog, valid in [0, Catalog.Len()).
type ShapeIndex uint8

// Location is a placed shape's position and rotation.
type Location struct {
	Position core.Vec2
	Angle    float32 // radians
}

// Normalized returns the location with its angle mapped into [0, 2π).
func (l Location) Normalized() Location {
	l.Angle = core.NormalizeAngle(l.Angle)
	return l
}

// ShapeState controls how a shape takes part in the simulation.
type ShapeState uint8

const (
	StateNormal ShapeState = iota // free dynamic body
	StateLocked                   // immobile, placed by the player
	StateFixed                    // immobile, placed by the level
	StateVoid                     // sensor; touching it loses the stage
)

// String returns the lower-case state name.
func (s ShapeState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateLocked:
		return "locked"
	case StateFixed:
		return "fixed"
	case StateVoid:
		return "void"
	default:
		return "unknown"
	}
}

// ParseState converts a state name to a ShapeState.
func ParseState(s string) (ShapeState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return StateNormal, nil
	case "locked":
		return StateLocked, nil
	case "fixed":
		return StateFixed, nil
	case "void":
		return StateVoid, nil
	default:
		return StateNormal, fmt.Errorf("unknown shape state %q", s)
	}
}

// Immobile reports whether the state never moves under simulation.
func (s ShapeState) Immobile() bool {
	return s == StateLocked || s == StateFixed
}

// Bucket is the coarse state used by the level hash: Locked and Fixed share
// one bucket.
func (s ShapeState) Bucket() uint8 {
	switch s {
	case StateLocked, StateFixed:
		return 1
	case StateVoid:
		return 2
	default:
		return 0
	}
}

// ShapeModifiers alter a shape's physical material. Orthogonal to ShapeState.
type ShapeModifiers uint8

const (
	ModifiersNormal ShapeModifiers = iota
	ModifiersLowFriction
)

// String returns the lower-case modifier name.
func (m ShapeModifiers) String() string {
	switch m {
	case ModifiersNormal:
		return "normal"
	case ModifiersLowFriction:
		return "low_friction"
	default:
		return "unknown"
	}
}

// ParseModifiers converts a modifier name to ShapeModifiers.
func ParseModifiers(s string) (ShapeModifiers, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return ModifiersNormal, nil
	case "low_friction", "lowfriction", "ice":
		return ModifiersLowFriction, nil
	default:
		return ModifiersNormal, fmt.Errorf("unknown shape modifiers %q", s)
	}
}

// Velocity is a body's linear and angular velocity.
type Velocity struct {
	Linear  core.Vec2
	Angular float32
}

// EncodableShape is the unit of persistence and sharing.
type EncodableShape struct {
	Shape     ShapeIndex
	Location  Location
	State     ShapeState
	Modifiers ShapeModifiers
}

// ShapeCreationData is a pending shape for the spawn layer. It is consumed
// exactly once.
type ShapeCreationData struct {
	Shape     ShapeIndex
	Location  *Location // nil lets the spawn layer choose
	State     ShapeState
	Velocity  *Velocity
	Modifiers ShapeModifiers
	Color     *core.Color
	ID        *uint32
	Stage     int

	FromSavedGame bool
}

// HasID reports whether the creation carries the given id.
func (c *ShapeCreationData) HasID(id uint32) bool {
	return c.ID != nil && *c.ID == id
}

// ShapeUpdateData patches the live shape with the given id. Nil fields are
// left unchanged.
type ShapeUpdateData struct {
	ID        uint32
	Shape     *ShapeIndex
	Location  *Location
	State     *ShapeState
	Velocity  *Velocity
	Modifiers *ShapeModifiers
	Color     *core.Color
	Stage     int
}

// ApplyTo overrides the creation's fields with every field present in u.
func (u ShapeUpdateData) ApplyTo(c *ShapeCreationData) {
	if u.Shape != nil {
		c.Shape = *u.Shape
	}
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	if u.State != nil {
		c.State = *u.State
	}
	if u.Velocity != nil {
		vel := *u.Velocity
		c.Velocity = &vel
	}
	if u.Modifiers != nil {
		c.Modifiers = *u.Modifiers
	}
	if u.Color != nil {
		color := *u.Color
		c.Color = &color
	}
}

// IsEmpty reports whether the update changes nothing.
func (u ShapeUpdateData) IsEmpty() bool {
	return u.Shape == nil && u.Location == nil && u.State == nil &&
		u.Velocity == nil && u.Modifiers == nil && u.Color == nil
}
