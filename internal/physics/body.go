// Package physics provides the physics capability the level engine relies on
// and a Chipmunk2D-backed implementation of it.
//
// Bodies are addressed by Handle. A World keeps the plain description of
// every body next to its cp body, so cloning rebuilds a fresh cp.Space from
// descriptions and current motion state.
package physics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/vovakirdan/stacker/internal/core"
)

// Handle identifies a body inside one World and its clones. Handles of
// removed bodies are reused.
type Handle int

// BodyKind decides how a body takes part in the simulation.
type BodyKind uint8

const (
	Dynamic BodyKind = iota // moved by gravity and contacts
	Static                  // never moves
	Sensor                  // never moves, never pushes, only reports overlap
)

// String returns the kind name.
func (k BodyKind) String() string {
	switch k {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Sensor:
		return "sensor"
	default:
		return "unknown"
	}
}

// Group is a collision group bit mask.
type Group uint32

const (
	GroupShapes     Group = 1 << iota // gameplay shapes
	GroupWalls                        // play-field boundary
	GroupDecoration                   // purely visual bodies such as snow
	GroupTable                        // the ledge shapes rest on
)

// Friction coefficients for the two material modifiers.
const (
	DefaultFriction     float32 = 0.7
	LowFrictionFriction float32 = 0.05
)

// Part is one convex piece of a collider in body coordinates. A part with
// no vertices is a circle of Radius around the body origin.
type Part struct {
	Verts  []core.Vec2
	Radius float32
}

// Collider is the union of convex parts attached to one body.
type Collider []Part

// Box returns a single rectangle collider centred on the body origin.
func Box(half core.Vec2) Collider {
	return Collider{{Verts: []core.Vec2{
		core.V(-half.X, -half.Y),
		core.V(half.X, -half.Y),
		core.V(half.X, half.Y),
		core.V(-half.X, half.Y),
	}}}
}

// Circle returns a single circle collider centred on the body origin.
func Circle(radius float32) Collider {
	return Collider{{Radius: radius}}
}

// Polygon returns a collider made of one convex outline.
func Polygon(verts []core.Vec2) Collider {
	return Collider{{Verts: verts}}
}

// unitArea is the collider area that weighs one mass unit.
const unitArea = 2500

// massProperties returns the mass and moment of inertia of the collider
// about the body origin.
func (c Collider) massProperties() (mass, moment float64) {
	for _, p := range c {
		if len(p.Verts) == 0 {
			r := float64(p.Radius)
			m := cp.AreaForCircle(0, r) / unitArea
			mass += m
			moment += cp.MomentForCircle(m, 0, r, cp.Vector{})
			continue
		}
		verts := vectors(p.Verts)
		m := math.Abs(cp.AreaForPoly(len(verts), verts, float64(p.Radius))) / unitArea
		mass += m
		moment += cp.MomentForPoly(m, len(verts), verts, cp.Vector{}, float64(p.Radius))
	}
	if mass <= 0 || moment <= 0 {
		return 1, cp.MomentForBox(1, 1, 1)
	}
	return mass, moment
}

// Body describes one rigid body. World.Body returns it with the current
// position and velocities filled in.
type Body struct {
	Kind            BodyKind
	Group           Group
	Position        core.Vec2
	Angle           float32
	Velocity        core.Vec2
	AngularVelocity float32
	Collider        Collider
	Friction        float32
	// Filter limits which groups the body interacts with. Zero means all.
	Filter Group
	// Events enables collision start events for contacts involving this body.
	Events bool
	// UserData links the body back to its owner, e.g. a spawn entity id.
	UserData uint64
}

func (b *Body) filter() cp.ShapeFilter {
	f := cp.ShapeFilter{Group: cp.NO_GROUP, Categories: uint(b.Group), Mask: uint(b.Filter)}
	if b.Group == 0 {
		f.Categories = cp.ALL_CATEGORIES
	}
	if b.Filter == 0 {
		f.Mask = cp.ALL_CATEGORIES
	}
	return f
}

// CollisionEvent is reported when two bodies start touching.
type CollisionEvent struct {
	A, B   Handle
	Sensor bool // at least one body is a sensor
}

// EventSink receives collision start events during Step.
type EventSink interface {
	CollisionStarted(e CollisionEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(e CollisionEvent)

// CollisionStarted calls f(e).
func (f SinkFunc) CollisionStarted(e CollisionEvent) {
	f(e)
}

// Simulation is the narrow capability the win predictor depends on:
// cloneable state, fixed-size stepping and a pluggable event sink.
type Simulation interface {
	// Clone returns an independent deep copy.
	Clone() Simulation
	// RemoveGroups removes every body whose group intersects mask and
	// returns how many were removed.
	RemoveGroups(mask Group) int
	// EnableCollisionEvents turns on events for every body.
	EnableCollisionEvents()
	SetGravity(g core.Vec2)
	// Step advances the simulation by dt seconds, reporting new contacts
	// to sink. A nil sink discards events.
	Step(dt float32, sink EventSink)
	BodyCount() int
}

func vec(v core.Vec2) cp.Vector {
	return cp.Vector{X: float64(v.X), Y: float64(v.Y)}
}

func fromVec(v cp.Vector) core.Vec2 {
	return core.V(float32(v.X), float32(v.Y))
}

func vectors(points []core.Vec2) []cp.Vector {
	out := make([]cp.Vector, len(points))
	for i, p := range points {
		out[i] = vec(p)
	}
	return out
}
