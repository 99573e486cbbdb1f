package lifecycle

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stacker/internal/codec"
	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/predict"
	"github.com/vovakirdan/stacker/internal/shapes"
)

const tickLimit = 3000

var gravity = core.V(0, -1000)

type fakeRecords struct {
	best float32
	ok   bool
	err  error
}

func (f fakeRecords) Best(int64) (float32, bool, error) {
	return f.best, f.ok, f.err
}

func shapeIndex(t *testing.T, name string) shapes.ShapeIndex {
	t.Helper()
	idx, ok := shapes.Standard().Lookup(name)
	if !ok {
		t.Fatalf("shape %q not in catalog", name)
	}
	return idx
}

func at(x, y float32) *shapes.Location {
	return &shapes.Location{Position: core.V(x, y)}
}

// twoStageLevel has a fixed base with one free block, then adds a T.
func twoStageLevel(t *testing.T) *levels.Level {
	return &levels.Level{
		ID:   "t-two",
		Name: "Two Stages",
		Stages: []levels.Stage{
			{Shapes: []shapes.ShapeCreationData{
				{Shape: shapeIndex(t, "O"), State: shapes.StateFixed, Location: at(0, -400)},
				{Shape: shapeIndex(t, "O")},
			}},
			{Shapes: []shapes.ShapeCreationData{
				{Shape: shapeIndex(t, "T"), Stage: 1},
			}},
		},
	}
}

// voidLevel drops a block straight into a void shape.
func voidLevel(t *testing.T) *levels.Level {
	return &levels.Level{
		ID: "t-void",
		Stages: []levels.Stage{{Shapes: []shapes.ShapeCreationData{
			{Shape: shapeIndex(t, "Circle"), State: shapes.StateVoid, Location: at(0, -450)},
			{Shape: shapeIndex(t, "O")},
		}}},
	}
}

func newMachine(opts Options) *Machine {
	opts.Logger = log.New(io.Discard)
	opts.Gravity = gravity
	opts.TickSeconds = 1.0 / 60
	return New(opts)
}

func none() core.InputFrame {
	return core.NewInputFrame()
}

func input(a core.Action) core.InputFrame {
	f := core.NewInputFrame()
	f.Set(a)
	return f
}

// runUntil ticks with no input until fn returns true.
func runUntil(t *testing.T, m *Machine, fn func(Event) bool) Event {
	t.Helper()
	for range tickLimit {
		if ev := m.Tick(none()); fn(ev) {
			return ev
		}
	}
	t.Fatalf("condition not met after %d ticks", tickLimit)
	return EventNone
}

func TestFirstTickSpawnsStageZero(t *testing.T) {
	m := newMachine(Options{})
	m.Enter(twoStageLevel(t), nil)

	m.Tick(none())

	if m.Spawn().Len() != 2 {
		t.Errorf("live shapes = %d, expected 2", m.Spawn().Len())
	}
	if c := m.Completion(); c.Complete || c.Stage != 0 {
		t.Errorf("Completion() = %+v, expected stage 0", c)
	}
	if m.Attempts() != 1 {
		t.Errorf("Attempts() = %d, expected 1", m.Attempts())
	}
}

func TestTickWithoutLevel(t *testing.T) {
	m := newMachine(Options{})
	if ev := m.Tick(none()); ev != EventNone {
		t.Errorf("Tick() = %v, expected none", ev)
	}
	if m.Ticks() != 0 {
		t.Errorf("Ticks() = %d, expected 0", m.Ticks())
	}
}

func TestRunsToCompletion(t *testing.T) {
	m := newMachine(Options{})
	m.Enter(twoStageLevel(t), nil)

	runUntil(t, m, func(ev Event) bool { return ev == EventCountdownStarted })
	p, ok := m.LastPrediction()
	if !ok || p.Classification != predict.MinimalCollision {
		t.Errorf("LastPrediction() = %+v, expected minimal collision", p)
	}
	if n, _ := m.Countdown(); n != predict.DefaultSettings().CountdownNotActed {
		t.Errorf("Countdown() = %d, expected %d", n, predict.DefaultSettings().CountdownNotActed)
	}

	runUntil(t, m, func(ev Event) bool { return ev == EventStageAdvanced })
	if c := m.Completion(); c.Stage != 1 {
		t.Errorf("stage = %d, expected 1", c.Stage)
	}
	if m.Spawn().Len() != 3 {
		t.Errorf("live shapes = %d, expected 3", m.Spawn().Len())
	}

	runUntil(t, m, func(ev Event) bool { return ev == EventCompleted })
	c := m.Completion()
	if !c.Complete || c.Score == nil {
		t.Fatalf("Completion() = %+v, expected complete", c)
	}
	if c.Score.Height < 250 {
		t.Errorf("Height = %v, expected a tower of at least 250", c.Score.Height)
	}
	if c.Score.Hash != m.Arrangement().Hash() {
		t.Errorf("Hash = %d, expected %d", c.Score.Hash, m.Arrangement().Hash())
	}
	if !c.Score.IsRecord {
		t.Error("IsRecord = false without a record book")
	}

	decoded, err := codec.Default().DecodeString(c.Score.ShareCode)
	if err != nil {
		t.Fatalf("share code does not decode: %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("share code has %d shapes, expected 3", len(decoded))
	}

	// Complete is terminal
	for range 10 {
		m.Tick(none())
	}
	if !m.Completion().Complete {
		t.Error("level left the complete state")
	}
}

func TestInteractionCancelsCountdown(t *testing.T) {
	m := newMachine(Options{})
	m.Enter(twoStageLevel(t), nil)
	runUntil(t, m, func(ev Event) bool { return ev == EventCountdownStarted })

	if ev := m.Tick(input(core.ActionGrab)); ev != EventCountdownCancelled {
		t.Errorf("Tick(grab) = %v, expected countdown_cancelled", ev)
	}
	if !m.HasActed() {
		t.Error("HasActed() = false after grab")
	}
	// The world is still at rest, so the forecast reruns with the acted budget.
	if n, ok := m.Countdown(); !ok || n != predict.DefaultSettings().CountdownActed {
		t.Errorf("Countdown() = %d, %v, expected %d", n, ok, predict.DefaultSettings().CountdownActed)
	}

	runUntil(t, m, func(ev Event) bool { return ev == EventStageAdvanced })
	if m.HasActed() {
		t.Error("HasActed() carried over into the next stage")
	}
}

func TestReleaseDoesNotCountAsActing(t *testing.T) {
	m := newMachine(Options{})
	m.Enter(twoStageLevel(t), nil)

	m.Tick(input(core.ActionRelease))
	if m.HasActed() {
		t.Error("HasActed() = true after release only")
	}
}

func TestRestartInput(t *testing.T) {
	m := newMachine(Options{})
	m.Enter(twoStageLevel(t), nil)
	runUntil(t, m, func(ev Event) bool { return ev == EventStageAdvanced })

	if ev := m.Tick(input(core.ActionRestart)); ev != EventRestarted {
		t.Errorf("Tick(restart) = %v, expected restarted", ev)
	}
	if c := m.Completion(); c.Complete || c.Stage != 0 {
		t.Errorf("Completion() = %+v, expected stage 0", c)
	}
	if m.Attempts() != 2 {
		t.Errorf("Attempts() = %d, expected 2", m.Attempts())
	}
	if m.Spawn().Len() != 2 {
		t.Errorf("live shapes = %d, expected the 2 stage 0 shapes", m.Spawn().Len())
	}
}

func TestSensorTouchFails(t *testing.T) {
	tests := []struct {
		name     string
		restart  bool
		attempts int
	}{
		{"restart on fail", true, 2},
		{"stay on fail", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(Options{RestartOnFail: tt.restart})
			m.Enter(voidLevel(t), nil)

			if ev := m.Tick(none()); ev != EventFailed {
				t.Errorf("Tick() = %v, expected failed", ev)
			}
			if m.Failures() != 1 {
				t.Errorf("Failures() = %d, expected 1", m.Failures())
			}
			if m.Attempts() != tt.attempts {
				t.Errorf("Attempts() = %d, expected %d", m.Attempts(), tt.attempts)
			}
			if _, ok := m.Countdown(); ok {
				t.Error("countdown running after a failure")
			}
		})
	}
}

func TestResumeFromSavedArrangement(t *testing.T) {
	o := shapeIndex(t, "O")
	saved := shapes.ShapesVec{
		{Shape: o, State: shapes.StateFixed, Location: shapes.Location{Position: core.V(0, -400)}},
		{Shape: o, State: shapes.StateNormal, Location: shapes.Location{Position: core.V(10, -290)}},
	}

	m := newMachine(Options{})
	m.Enter(twoStageLevel(t), saved)
	m.Tick(none())

	entities := m.Spawn().Entities()
	if len(entities) != 2 {
		t.Fatalf("live shapes = %d, expected 2", len(entities))
	}
	for i, e := range entities {
		if !e.FromSavedGame {
			t.Errorf("shape %d not restored from the saved arrangement", i)
		}
	}
	if x := m.Spawn().Location(entities[1]).Position.X; core.Abs(x-10) > 0.01 {
		t.Errorf("restored x = %v, expected 10", x)
	}

	// A restart ignores the saved arrangement.
	m.Tick(input(core.ActionRestart))
	for _, e := range m.Spawn().Entities() {
		if e.FromSavedGame {
			t.Error("restart restored the saved arrangement again")
		}
	}
}

func TestCompletionRecords(t *testing.T) {
	tests := []struct {
		name     string
		records  fakeRecords
		expected bool
	}{
		{"no previous record", fakeRecords{}, true},
		{"beats record", fakeRecords{best: 1, ok: true}, true},
		{"below record", fakeRecords{best: 10000, ok: true}, false},
		{"lookup error", fakeRecords{err: errors.New("boom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(Options{Records: tt.records})
			m.Enter(twoStageLevel(t), nil)
			runUntil(t, m, func(ev Event) bool { return ev == EventCompleted })

			if got := m.Completion().Score.IsRecord; got != tt.expected {
				t.Errorf("IsRecord = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		e        Event
		expected string
	}{
		{EventNone, "none"},
		{EventCountdownStarted, "countdown_started"},
		{EventCountdownCancelled, "countdown_cancelled"},
		{EventStageAdvanced, "stage_advanced"},
		{EventFailed, "failed"},
		{EventRestarted, "restarted"},
		{EventCompleted, "completed"},
		{Event(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.expected {
			t.Errorf("String() = %q, expected %q", got, tt.expected)
		}
	}
}
