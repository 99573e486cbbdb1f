package physics

import (
	"maps"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/vovakirdan/stacker/internal/core"
)

// Solver tuning.
const (
	solverIterations = 10
	// maxSubstep caps the cp step size; longer Step calls are split.
	maxSubstep float32 = 1.0 / 120
	// collisionType is shared by every part so one handler sees all pairs.
	collisionType cp.CollisionType = 1
	// restLever is the arm used to turn angular velocity into a speed.
	restLever = 25
)

type pairKey struct {
	a, b Handle
}

func makePair(a, b Handle) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// slot holds one body. A nil body marks a free slot.
type slot struct {
	desc  Body // motion fields are read from body
	body  *cp.Body
	parts []*cp.Shape
}

// World is a cp.Space plus a handle table of body descriptions.
type World struct {
	space   *cp.Space
	gravity core.Vec2
	slots   []slot
	free    []Handle
	live    int

	// contacts counts touching part pairs per body pair.
	contacts map[pairKey]int
	// known holds pairs that touched before a clone; their first contact
	// during the clone's first Step is not reported.
	known map[pairKey]struct{}
	sink  EventSink
}

var _ Simulation = (*World)(nil)

// NewWorld creates an empty world with the given gravity.
func NewWorld(gravity core.Vec2) *World {
	w := &World{
		gravity:  gravity,
		contacts: make(map[pairKey]int),
	}
	w.space = w.newSpace()
	return w
}

func (w *World) newSpace() *cp.Space {
	space := cp.NewSpace()
	space.Iterations = solverIterations
	space.SetGravity(vec(w.gravity))
	h := space.NewCollisionHandler(collisionType, collisionType)
	h.BeginFunc = w.begin
	h.SeparateFunc = w.separate
	return space
}

// Insert adds a body and returns its handle. Handles of removed bodies are
// reused.
func (w *World) Insert(b Body) Handle {
	var h Handle
	if n := len(w.free); n > 0 {
		h = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		h = Handle(len(w.slots))
		w.slots = append(w.slots, slot{})
	}
	w.build(h, b)
	w.live++
	return h
}

// build creates the cp body and parts for b in slot h.
func (w *World) build(h Handle, b Body) {
	var body *cp.Body
	if b.Kind == Dynamic {
		body = cp.NewBody(b.Collider.massProperties())
		body.SetVelocityVector(vec(b.Velocity))
		body.SetAngularVelocity(float64(b.AngularVelocity))
	} else {
		body = cp.NewStaticBody()
	}
	body.SetPosition(vec(b.Position))
	body.SetAngle(float64(b.Angle))
	body.UserData = h
	w.space.AddBody(body)

	filter := b.filter()
	parts := make([]*cp.Shape, 0, len(b.Collider))
	for _, p := range b.Collider {
		var shape *cp.Shape
		if len(p.Verts) == 0 {
			shape = cp.NewCircle(body, float64(p.Radius), cp.Vector{})
		} else {
			verts := vectors(p.Verts)
			shape = cp.NewPolyShape(body, len(verts), verts, cp.NewTransformIdentity(), float64(p.Radius))
		}
		shape.SetFriction(float64(b.Friction))
		shape.SetElasticity(0)
		shape.SetSensor(b.Kind == Sensor)
		shape.SetCollisionType(collisionType)
		shape.SetFilter(filter)
		shape.UserData = h
		parts = append(parts, w.space.AddShape(shape))
	}

	b.Velocity, b.AngularVelocity = core.Vec2{}, 0
	w.slots[h] = slot{desc: b, body: body, parts: parts}
}

// release removes slot h's cp objects and contact bookkeeping.
func (w *World) release(h Handle) {
	s := &w.slots[h]
	for _, p := range s.parts {
		w.space.RemoveShape(p)
	}
	w.space.RemoveBody(s.body)
	*s = slot{}
	for k := range w.contacts {
		if k.a == h || k.b == h {
			delete(w.contacts, k)
		}
	}
}

// Remove deletes a body. Removing an unknown or dead handle is a no-op.
func (w *World) Remove(h Handle) {
	if !w.Alive(h) {
		return
	}
	w.release(h)
	w.free = append(w.free, h)
	w.live--
}

// Replace rebuilds the body at h from b, keeping the handle.
func (w *World) Replace(h Handle, b Body) {
	if !w.Alive(h) {
		return
	}
	w.release(h)
	w.build(h, b)
}

// Clear removes every body and forgets all handles.
func (w *World) Clear() {
	w.slots = w.slots[:0]
	w.free = w.free[:0]
	w.live = 0
	clear(w.contacts)
	w.known = nil
	w.space = w.newSpace()
}

// Alive reports whether h refers to a live body.
func (w *World) Alive(h Handle) bool {
	return h >= 0 && int(h) < len(w.slots) && w.slots[h].body != nil
}

// Body returns the description of a live body with its current position,
// angle and velocities.
func (w *World) Body(h Handle) (Body, bool) {
	if !w.Alive(h) {
		return Body{}, false
	}
	s := &w.slots[h]
	b := s.desc
	b.Position = fromVec(s.body.Position())
	b.Angle = core.NormalizeAngle(float32(s.body.Angle()))
	if b.Kind == Dynamic {
		b.Velocity = fromVec(s.body.Velocity())
		b.AngularVelocity = float32(s.body.AngularVelocity())
	}
	return b, true
}

// Bounds returns the world-space bounding box of a live body's collider.
func (w *World) Bounds(h Handle) core.AABB {
	if !w.Alive(h) {
		return core.AABB{}
	}
	s := &w.slots[h]
	if len(s.parts) == 0 {
		p := fromVec(s.body.Position())
		return core.AABB{Min: p, Max: p}
	}
	bb := s.parts[0].BB()
	for _, p := range s.parts[1:] {
		o := p.BB()
		bb.L, bb.B = math.Min(bb.L, o.L), math.Min(bb.B, o.B)
		bb.R, bb.T = math.Max(bb.R, o.R), math.Max(bb.T, o.T)
	}
	return core.AABB{
		Min: core.V(float32(bb.L), float32(bb.B)),
		Max: core.V(float32(bb.R), float32(bb.T)),
	}
}

// SetTransform moves a live body. Static bodies are rebuilt in place.
func (w *World) SetTransform(h Handle, pos core.Vec2, angle float32) {
	if !w.Alive(h) {
		return
	}
	s := &w.slots[h]
	if s.desc.Kind != Dynamic {
		b := s.desc
		b.Position, b.Angle = pos, angle
		w.Replace(h, b)
		return
	}
	s.body.SetPosition(vec(pos))
	s.body.SetAngle(float64(angle))
	for _, p := range s.parts {
		p.CacheBB()
	}
}

// SetVelocity changes a dynamic body's velocities. Other kinds ignore it.
func (w *World) SetVelocity(h Handle, v core.Vec2, angular float32) {
	if !w.Alive(h) || w.slots[h].desc.Kind != Dynamic {
		return
	}
	body := w.slots[h].body
	body.SetVelocityVector(vec(v))
	body.SetAngularVelocity(float64(angular))
}

// Each calls fn for every live body in handle order.
func (w *World) Each(fn func(h Handle, b Body)) {
	for i := range w.slots {
		if b, ok := w.Body(Handle(i)); ok {
			fn(Handle(i), b)
		}
	}
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	return w.live
}

// Slots returns the size of the handle table, live or free.
func (w *World) Slots() int {
	return len(w.slots)
}

// Gravity returns the current gravity.
func (w *World) Gravity() core.Vec2 {
	return w.gravity
}

// SetGravity changes gravity.
func (w *World) SetGravity(g core.Vec2) {
	w.gravity = g
	w.space.SetGravity(vec(g))
}

// Clone returns a deep copy of the world.
func (w *World) Clone() Simulation {
	return w.CloneWorld()
}

// CloneWorld is Clone with the concrete type. The copy gets a new cp.Space
// rebuilt from every live body's description and motion state; handles are
// preserved.
func (w *World) CloneWorld() *World {
	c := &World{
		gravity:  w.gravity,
		slots:    make([]slot, len(w.slots)),
		free:     append([]Handle(nil), w.free...),
		live:     w.live,
		contacts: make(map[pairKey]int),
		known:    make(map[pairKey]struct{}, len(w.contacts)),
	}
	c.space = c.newSpace()
	for i := range w.slots {
		if b, ok := w.Body(Handle(i)); ok {
			c.build(Handle(i), b)
		}
	}
	for k := range maps.Keys(w.contacts) {
		c.known[k] = struct{}{}
	}
	return c
}

// RemoveGroups removes every body in any of the groups in mask.
func (w *World) RemoveGroups(mask Group) int {
	n := 0
	for i := range w.slots {
		if w.Alive(Handle(i)) && w.slots[i].desc.Group&mask != 0 {
			w.Remove(Handle(i))
			n++
		}
	}
	return n
}

// EnableCollisionEvents turns on events for every body.
func (w *World) EnableCollisionEvents() {
	for i := range w.slots {
		w.slots[i].desc.Events = true
	}
}

// AtRest reports whether every dynamic body moves slower than speed.
func (w *World) AtRest(speed float32) bool {
	limit := float64(speed)
	for i := range w.slots {
		s := &w.slots[i]
		if s.body == nil || s.desc.Kind != Dynamic {
			continue
		}
		if s.body.Velocity().Length() > limit || math.Abs(s.body.AngularVelocity())*restLever > limit {
			return false
		}
	}
	return true
}

// Step advances the world by dt seconds in sub-steps of at most maxSubstep.
func (w *World) Step(dt float32, sink EventSink) {
	if dt <= 0 {
		return
	}
	n := int(math.Ceil(float64(dt / maxSubstep)))
	sub := float64(dt) / float64(n)

	w.sink = sink
	for range n {
		w.space.Step(sub)
	}
	w.sink = nil
	w.known = nil
}

// begin runs when two parts start touching. Only the first part pair of a
// body pair is reported.
func (w *World) begin(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	a, b := arb.Shapes()
	ha, hb := a.UserData.(Handle), b.UserData.(Handle)
	key := makePair(ha, hb)

	w.contacts[key]++
	if w.contacts[key] > 1 {
		return true
	}
	if _, ok := w.known[key]; ok {
		delete(w.known, key)
		return true
	}
	if w.sink != nil && (w.slots[ha].desc.Events || w.slots[hb].desc.Events) {
		w.sink.CollisionStarted(CollisionEvent{
			A:      key.a,
			B:      key.b,
			Sensor: a.Sensor() || b.Sensor(),
		})
	}
	return true
}

// separate runs when two parts stop touching or one is removed.
func (w *World) separate(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
	a, b := arb.Shapes()
	key := makePair(a.UserData.(Handle), b.UserData.(Handle))
	if n := w.contacts[key] - 1; n > 0 {
		w.contacts[key] = n
	} else {
		delete(w.contacts, key)
	}
}

// Contacts returns the number of touching body pairs after the last step.
func (w *World) Contacts() int {
	return len(w.contacts)
}
