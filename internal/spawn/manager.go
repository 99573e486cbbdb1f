// Package spawn turns reconciler output into live physics bodies and reads
// the live arrangement back out.
package spawn

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/physics"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// ErrUnknownID is returned when an update targets an id with no live shape.
var ErrUnknownID = errors.New("no live shape with id")

// Entity is a live shape and the body that simulates it.
type Entity struct {
	ID            *uint32
	Handle        physics.Handle
	Shape         shapes.ShapeIndex
	State         shapes.ShapeState
	Modifiers     shapes.ShapeModifiers
	Color         core.Color
	Stage         int
	FromSavedGame bool
}

// Manager owns the live world and every shape spawned into it.
type Manager struct {
	cat    *shapes.Catalog
	world  *physics.World
	field  Field
	rng    *rand.Rand
	logger *log.Logger

	entities []*Entity
	byID     map[uint32]*Entity
	byHandle map[physics.Handle]*Entity
	flakes   []physics.Handle
}

// NewManager creates a world with the field boundary and optional snow.
// A nil logger uses the default logger.
func NewManager(cat *shapes.Catalog, gravity core.Vec2, field Field, seed int64, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		cat:    cat,
		world:  physics.NewWorld(gravity),
		field:  field,
		logger: logger,
	}
	for _, b := range field.boundary() {
		m.world.Insert(b)
	}
	m.Reset(seed)
	for range field.Snow {
		m.flakes = append(m.flakes, m.world.Insert(m.flake(m.spread(field.Width), m.spread(field.Height))))
	}
	return m
}

// Reset despawns every shape and reseeds placement.
func (m *Manager) Reset(seed int64) {
	m.DespawnAll()
	m.rng = rand.New(rand.NewSource(seed))
}

// World returns the live world.
func (m *Manager) World() *physics.World {
	return m.world
}

// Field returns the field settings.
func (m *Manager) Field() Field {
	return m.field
}

// Len returns the number of live shapes.
func (m *Manager) Len() int {
	return len(m.entities)
}

// Entities returns live shapes in spawn order.
func (m *Manager) Entities() []*Entity {
	return append([]*Entity(nil), m.entities...)
}

// Lookup finds a live shape by id.
func (m *Manager) Lookup(id uint32) (*Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// EntityAt finds the live shape owning a body.
func (m *Manager) EntityAt(h physics.Handle) (*Entity, bool) {
	e, ok := m.byHandle[h]
	return e, ok
}

// Decorative reports whether h is a decoration body.
func (m *Manager) Decorative(h physics.Handle) bool {
	b, ok := m.world.Body(h)
	return ok && b.Group&physics.GroupDecoration != 0
}

// Apply runs one batch of reconciler output: optional despawn, then
// creations in order, then updates. Updates for unknown ids are skipped and
// reported in the returned error; the rest of the batch still applies.
func (m *Manager) Apply(despawn bool, creations []shapes.ShapeCreationData, updates []shapes.ShapeUpdateData) error {
	if despawn {
		m.DespawnAll()
	}
	for _, c := range creations {
		m.Spawn(c)
	}

	var errs []error
	for _, u := range updates {
		if err := m.Update(u); err != nil {
			errs = append(errs, err)
		}
	}

	m.logger.Debug("applied batch",
		"despawn", despawn,
		"creations", len(creations),
		"updates", len(updates),
		"live", len(m.entities))
	return errors.Join(errs...)
}

// DespawnAll removes every shape. Boundary and decoration stay.
func (m *Manager) DespawnAll() {
	for _, e := range m.entities {
		m.world.Remove(e.Handle)
	}
	m.entities = m.entities[:0]
	m.byID = make(map[uint32]*Entity)
	m.byHandle = make(map[physics.Handle]*Entity)
}

// Spawn creates one shape. Shapes without a location are placed above the
// current tower.
func (m *Manager) Spawn(c shapes.ShapeCreationData) *Entity {
	shape := m.cat.Get(c.Shape)

	var loc shapes.Location
	if c.Location != nil {
		loc = c.Location.Normalized()
	} else {
		loc = m.place(shape)
	}

	e := &Entity{
		ID:            c.ID,
		Shape:         shape.Index,
		State:         c.State,
		Modifiers:     c.Modifiers,
		Color:         shape.Color,
		Stage:         c.Stage,
		FromSavedGame: c.FromSavedGame,
	}
	if c.Color != nil {
		e.Color = *c.Color
	}

	body := physics.Body{Group: physics.GroupShapes}
	m.shapeBody(e, &body, loc)
	if c.Velocity != nil && body.Kind == physics.Dynamic {
		body.Velocity = c.Velocity.Linear
		body.AngularVelocity = c.Velocity.Angular
	}
	e.Handle = m.world.Insert(body)

	m.entities = append(m.entities, e)
	m.byHandle[e.Handle] = e
	if c.ID != nil {
		if _, dup := m.byID[*c.ID]; dup {
			m.logger.Warn("duplicate shape id, newest wins", "id", *c.ID)
		}
		m.byID[*c.ID] = e
	}
	return e
}

// Update patches a live shape by id. Only present fields change.
func (m *Manager) Update(u shapes.ShapeUpdateData) error {
	e, ok := m.byID[u.ID]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownID, u.ID)
	}
	body, _ := m.world.Body(e.Handle)
	loc := location(body)

	reshape := false
	if u.Shape != nil {
		e.Shape = m.cat.Get(*u.Shape).Index
		reshape = true
	}
	if u.Location != nil {
		loc = u.Location.Normalized()
		reshape = true
	}
	if u.State != nil {
		e.State = *u.State
		reshape = true
	}
	if u.Modifiers != nil {
		e.Modifiers = *u.Modifiers
		reshape = true
	}
	if u.Color != nil {
		e.Color = *u.Color
	}
	if u.Velocity != nil {
		body.Velocity = u.Velocity.Linear
		body.AngularVelocity = u.Velocity.Angular
	}
	if reshape {
		m.shapeBody(e, &body, loc)
		m.world.Replace(e.Handle, body)
	} else if u.Velocity != nil {
		m.world.SetVelocity(e.Handle, body.Velocity, body.AngularVelocity)
	}
	return nil
}

// Remove despawns one shape.
func (m *Manager) Remove(e *Entity) {
	m.world.Remove(e.Handle)
	delete(m.byHandle, e.Handle)
	if e.ID != nil && m.byID[*e.ID] == e {
		delete(m.byID, *e.ID)
	}
	for i, other := range m.entities {
		if other == e {
			m.entities = append(m.entities[:i], m.entities[i+1:]...)
			break
		}
	}
}

// Location returns where a live shape currently is.
func (m *Manager) Location(e *Entity) shapes.Location {
	b, _ := m.world.Body(e.Handle)
	return location(b)
}

// location reads a shape location off its body. Colliders are built around
// the shape origin, so the two coincide.
func location(b physics.Body) shapes.Location {
	loc := shapes.Location{Position: b.Position, Angle: b.Angle}
	return loc.Normalized()
}

// Snapshot returns every live shape in spawn order.
func (m *Manager) Snapshot() []shapes.EncodableShape {
	out := make([]shapes.EncodableShape, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, shapes.EncodableShape{
			Shape:     e.Shape,
			Location:  m.Location(e),
			State:     e.State,
			Modifiers: e.Modifiers,
		})
	}
	return out
}

// AtRest reports whether every free shape has stopped moving. Decoration is
// ignored.
func (m *Manager) AtRest() bool {
	limit := m.field.RestSpeed
	for _, e := range m.entities {
		b, _ := m.world.Body(e.Handle)
		if b.Kind != physics.Dynamic {
			continue
		}
		if b.Velocity.LengthSquared() > limit*limit || core.Abs(b.AngularVelocity)*shapes.Size/2 > limit {
			return false
		}
	}
	return true
}

// Step advances the live world, recycles snow and removes shapes that fell
// out of the field. It returns how many shapes were removed.
func (m *Manager) Step(dt float32, sink physics.EventSink) int {
	m.world.Step(dt, sink)

	bottom := -m.field.Height/2 - m.field.OutOfFieldDrop
	for _, h := range m.flakes {
		if m.world.Bounds(h).Max.Y < -m.field.Height/2 {
			m.world.SetTransform(h, core.V(m.spread(m.field.Width), m.field.Height/2), 0)
			m.world.SetVelocity(h, core.Vec2{}, 0)
		}
	}

	removed := 0
	for _, e := range m.Entities() {
		if m.world.Bounds(e.Handle).Max.Y < bottom {
			m.logger.Debug("shape left the field", "shape", m.cat.Get(e.Shape).Name)
			m.Remove(e)
			removed++
		}
	}
	return removed
}

// shapeBody fits body's collider, kind and material to e at loc.
func (m *Manager) shapeBody(e *Entity, body *physics.Body, loc shapes.Location) {
	body.Kind = kindFor(e.State)
	body.Position = loc.Position
	body.Angle = loc.Angle
	body.Collider = collider(m.cat.Get(e.Shape))
	body.Friction = friction(e.Modifiers)
	body.Events = e.State == shapes.StateVoid
	if body.Kind != physics.Dynamic {
		body.Velocity = core.Vec2{}
		body.AngularVelocity = 0
	}
}

// collider builds the physics outline of a shape around its origin.
// Polyominoes get one square part per cell.
func collider(s *shapes.Shape) physics.Collider {
	switch s.Kind {
	case shapes.KindCircle:
		return physics.Circle(shapes.Size / 2)
	case shapes.KindTriangle:
		return physics.Polygon(s.Vertices())
	}
	verts := s.Vertices()
	parts := make(physics.Collider, 0, len(verts)/4)
	for cell := range slices.Chunk(verts, 4) {
		parts = append(parts, physics.Part{Verts: cell})
	}
	return parts
}

// place picks a location just above the highest solid shape.
func (m *Manager) place(shape *shapes.Shape) shapes.Location {
	top, x := m.field.TableTop, float32(0)
	found := false
	for _, e := range m.entities {
		if e.State == shapes.StateVoid {
			continue
		}
		b, _ := m.world.Body(e.Handle)
		if maxY := m.world.Bounds(e.Handle).Max.Y; !found || maxY > top {
			top, x, found = maxY, b.Position.X, true
		}
	}

	local := shape.Bounds(shapes.Location{})
	y := top + m.field.DropGap - local.Min.Y
	return shapes.Location{Position: core.V(m.jitter(x)-local.Center().X, y)}
}

// jitter offsets x by up to Field.Jitter and keeps it inside the field.
func (m *Manager) jitter(x float32) float32 {
	x += (m.rng.Float32()*2 - 1) * m.field.Jitter
	half := m.field.Width/2 - shapes.Size
	return core.ClampF32(x, -half, half)
}

// spread returns a uniform value in [-extent/2, extent/2).
func (m *Manager) spread(extent float32) float32 {
	return (m.rng.Float32() - 0.5) * extent
}

func (m *Manager) flake(x, y float32) physics.Body {
	return physics.Body{
		Kind:     physics.Dynamic,
		Group:    physics.GroupDecoration,
		Filter:   physics.GroupWalls,
		Position: core.V(x, y),
		Collider: physics.Box(core.V(2, 2)),
	}
}

func kindFor(s shapes.ShapeState) physics.BodyKind {
	switch s {
	case shapes.StateLocked, shapes.StateFixed:
		return physics.Static
	case shapes.StateVoid:
		return physics.Sensor
	default:
		return physics.Dynamic
	}
}

func friction(mods shapes.ShapeModifiers) float32 {
	if mods == shapes.ModifiersLowFriction {
		return physics.LowFrictionFriction
	}
	return physics.DefaultFriction
}
