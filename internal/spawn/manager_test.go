package spawn

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/physics"
	"github.com/vovakirdan/stacker/internal/shapes"
)

const dt float32 = 1.0 / 60

var gravity = core.V(0, -1000)

func newManager(field Field, seed int64) *Manager {
	return NewManager(shapes.Standard(), gravity, field, seed, log.New(io.Discard))
}

func lookup(t *testing.T, name string) shapes.ShapeIndex {
	t.Helper()
	idx, ok := shapes.Standard().Lookup(name)
	if !ok {
		t.Fatalf("shape %q not in catalog", name)
	}
	return idx
}

func idPtr(id uint32) *uint32 { return &id }

func at(x, y, angle float32) *shapes.Location {
	return &shapes.Location{Position: core.V(x, y), Angle: angle}
}

func near(a, b core.Vec2, eps float32) bool {
	return core.Abs(a.X-b.X) <= eps && core.Abs(a.Y-b.Y) <= eps
}

func TestBoundaryBodies(t *testing.T) {
	m := newManager(DefaultField(), 1)
	if m.World().BodyCount() != 4 {
		t.Fatalf("BodyCount() = %d, expected 4 boundary bodies", m.World().BodyCount())
	}

	sensors, tables := 0, 0
	m.World().Each(func(_ physics.Handle, b physics.Body) {
		switch b.Kind {
		case physics.Sensor:
			sensors++
			if b.Group != physics.GroupWalls {
				t.Errorf("sensor in group %d", b.Group)
			}
		case physics.Static:
			tables++
			if b.Group != physics.GroupTable {
				t.Errorf("table in group %d", b.Group)
			}
		}
	})
	if sensors != 3 || tables != 1 {
		t.Errorf("found %d sensors and %d tables, expected 3 and 1", sensors, tables)
	}
}

func TestSpawnLocatedAndPlaced(t *testing.T) {
	m := newManager(DefaultField(), 7)
	o, tee := lookup(t, "O"), lookup(t, "T")

	err := m.Apply(true, []shapes.ShapeCreationData{
		{Shape: o, State: shapes.StateFixed, Location: at(0, -400, 0), ID: idPtr(1)},
		{Shape: tee},
	}, nil)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", m.Len())
	}

	base, ok := m.Lookup(1)
	if !ok {
		t.Fatal("Lookup(1) found nothing")
	}
	if b, _ := m.World().Body(base.Handle); b.Kind != physics.Static {
		t.Errorf("fixed shape kind = %v, expected static", b.Kind)
	}

	placed := m.Entities()[1]
	bounds := m.World().Bounds(placed.Handle)
	if core.Abs(bounds.Min.Y-(-350+m.Field().DropGap)) > 0.01 {
		t.Errorf("placed bottom = %v, expected %v", bounds.Min.Y, -350+m.Field().DropGap)
	}
	if cx := bounds.Center().X; core.Abs(cx) > m.Field().Jitter+0.01 {
		t.Errorf("placed centre x = %v, expected within %v of 0", cx, m.Field().Jitter)
	}
}

func TestPlacementIsSeeded(t *testing.T) {
	place := func(seed int64) core.Vec2 {
		m := newManager(DefaultField(), seed)
		m.Spawn(shapes.ShapeCreationData{Shape: lookup(t, "L")})
		return m.Snapshot()[0].Location.Position
	}

	if a, b := place(42), place(42); a != b {
		t.Errorf("same seed placed at %+v and %+v", a, b)
	}
}

func TestSnapshotKeepsShapeOrigin(t *testing.T) {
	m := newManager(DefaultField(), 1)
	tri := lookup(t, "Triangle")
	m.Spawn(shapes.ShapeCreationData{Shape: tri, State: shapes.StateLocked, Location: at(10, 20, core.TwoPi+0.5)})

	snap := m.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() has %d shapes, expected 1", len(snap))
	}
	got := snap[0]
	if got.Shape != tri || got.State != shapes.StateLocked {
		t.Errorf("Snapshot()[0] = %+v", got)
	}
	if !near(got.Location.Position, core.V(10, 20), 0.001) {
		t.Errorf("position = %+v, expected (10, 20)", got.Location.Position)
	}
	if core.Abs(got.Location.Angle-0.5) > 0.001 {
		t.Errorf("angle = %v, expected 0.5", got.Location.Angle)
	}
}

func TestUpdateByID(t *testing.T) {
	m := newManager(DefaultField(), 1)
	m.Spawn(shapes.ShapeCreationData{Shape: lookup(t, "O"), State: shapes.StateFixed, Location: at(0, -400, 0), ID: idPtr(1)})

	normal := shapes.StateNormal
	slippery := shapes.ModifiersLowFriction
	red := core.ColorRed
	err := m.Apply(false, nil, []shapes.ShapeUpdateData{
		{ID: 1, State: &normal, Modifiers: &slippery, Color: &red, Location: at(100, 0, 0)},
		{ID: 99, State: &normal},
	})
	if !errors.Is(err, ErrUnknownID) {
		t.Errorf("Apply() error = %v, expected ErrUnknownID", err)
	}

	e, _ := m.Lookup(1)
	b, _ := m.World().Body(e.Handle)
	if b.Kind != physics.Dynamic {
		t.Errorf("kind = %v, expected dynamic", b.Kind)
	}
	if b.Friction != physics.LowFrictionFriction {
		t.Errorf("friction = %v, expected %v", b.Friction, physics.LowFrictionFriction)
	}
	if e.Color != core.ColorRed {
		t.Errorf("color = %v, expected red", e.Color)
	}
	if loc := m.Location(e); !near(loc.Position, core.V(100, 0), 0.001) {
		t.Errorf("location = %+v, expected (100, 0)", loc.Position)
	}
}

func TestVoidShapeIsSensor(t *testing.T) {
	m := newManager(DefaultField(), 1)
	e := m.Spawn(shapes.ShapeCreationData{Shape: lookup(t, "Circle"), State: shapes.StateVoid, Location: at(0, 0, 0)})

	b, _ := m.World().Body(e.Handle)
	if b.Kind != physics.Sensor || !b.Events {
		t.Errorf("void body kind = %v events = %v, expected sensor with events", b.Kind, b.Events)
	}
}

func TestDespawnAllKeepsBoundary(t *testing.T) {
	field := DefaultField()
	field.Snow = 5
	m := newManager(field, 1)
	m.Spawn(shapes.ShapeCreationData{Shape: lookup(t, "O"), ID: idPtr(3)})

	m.DespawnAll()

	if m.Len() != 0 {
		t.Errorf("Len() = %d, expected 0", m.Len())
	}
	if _, ok := m.Lookup(3); ok {
		t.Error("Lookup(3) still finds a shape")
	}
	if m.World().BodyCount() != 4+5 {
		t.Errorf("BodyCount() = %d, expected 9", m.World().BodyCount())
	}
}

func TestStackComesToRest(t *testing.T) {
	field := DefaultField()
	field.Snow = 20
	m := newManager(field, 3)
	m.Apply(true, []shapes.ShapeCreationData{
		{Shape: lookup(t, "O"), State: shapes.StateFixed, Location: at(0, -400, 0)},
		{Shape: lookup(t, "O")},
		{Shape: lookup(t, "T")},
	}, nil)

	var hits int
	sink := physics.SinkFunc(func(e physics.CollisionEvent) {
		if e.Sensor && !m.Decorative(e.A) && !m.Decorative(e.B) {
			hits++
		}
	})
	for range 240 {
		m.Step(dt, sink)
	}

	if !m.AtRest() {
		t.Error("AtRest() = false after settling")
	}
	if hits != 0 {
		t.Errorf("shapes touched %d sensors, expected 0", hits)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", m.Len())
	}
}

func TestStepRemovesFallenShapes(t *testing.T) {
	m := newManager(DefaultField(), 1)
	m.Spawn(shapes.ShapeCreationData{Shape: lookup(t, "O"), Location: at(800, 0, 0)})

	removed := 0
	for range 120 {
		removed += m.Step(dt, nil)
	}

	if removed != 1 || m.Len() != 0 {
		t.Errorf("removed %d, Len() = %d, expected 1 and 0", removed, m.Len())
	}
}

func TestColliderMatchesShapeBounds(t *testing.T) {
	m := newManager(DefaultField(), 1)
	for _, name := range []string{"Circle", "Triangle", "T", "I5", "W"} {
		loc := at(30, 40, 0.7)
		e := m.Spawn(shapes.ShapeCreationData{Shape: lookup(t, name), State: shapes.StateFixed, Location: loc})

		want := shapes.Standard().Get(e.Shape).Bounds(*loc)
		got := m.World().Bounds(e.Handle)
		if !near(got.Min, want.Min, 0.01) || !near(got.Max, want.Max, 0.01) {
			t.Errorf("%s collider bounds = %+v, expected %+v", name, got, want)
		}
	}
}

func TestOverhangingShapeFallsOffTable(t *testing.T) {
	field := DefaultField()
	m := newManager(field, 1)
	// A horizontal I5 with its centre 120 units past the table edge.
	x := field.TableWidth/2 + 120
	e := m.Spawn(shapes.ShapeCreationData{
		Shape:    lookup(t, "I5"),
		Location: at(x, field.TableTop+shapes.Size/2, core.TwoPi/4),
		ID:       idPtr(1),
	})
	start := m.Location(e)

	var hits int
	sink := physics.SinkFunc(func(ev physics.CollisionEvent) {
		if !ev.Sensor {
			return
		}
		if _, ok := m.EntityAt(ev.A); ok {
			hits++
		}
		if _, ok := m.EntityAt(ev.B); ok {
			hits++
		}
	})
	for range 180 {
		m.Step(dt, sink)
	}

	if hits == 0 {
		t.Errorf("the shape never reached a sensor, started at %+v", start.Position)
	}
	if e, ok := m.Lookup(1); ok {
		if y := m.Location(e).Position.Y; y > field.TableTop-shapes.Size {
			t.Errorf("shape still at y = %v, expected it below the table", y)
		}
	}
}

func TestSnowFallsPastTable(t *testing.T) {
	field := DefaultField()
	field.Snow = 40
	m := newManager(field, 5)

	for range 600 {
		m.Step(dt, nil)
	}

	for _, h := range m.flakes {
		b, ok := m.World().Body(h)
		if !ok {
			t.Fatalf("flake %d was removed", h)
		}
		onTable := core.Abs(b.Position.X) < field.TableWidth/2 &&
			core.Abs(b.Position.Y-field.TableTop) < 5
		if onTable && b.Velocity.LengthSquared() < 1 {
			t.Errorf("flake %d rests on the table at %+v", h, b.Position)
		}
	}
	if n := m.World().BodyCount(); n != 4+field.Snow {
		t.Errorf("BodyCount() = %d, expected %d", n, 4+field.Snow)
	}
}
