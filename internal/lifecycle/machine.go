// Package lifecycle sequences stage advancement and completion for one level
// using the reconciler, the spawn layer and the win predictor.
package lifecycle

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stacker/internal/codec"
	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/physics"
	"github.com/vovakirdan/stacker/internal/predict"
	"github.com/vovakirdan/stacker/internal/reconcile"
	"github.com/vovakirdan/stacker/internal/shapes"
	"github.com/vovakirdan/stacker/internal/spawn"
)

// Event is the most significant thing that happened during a tick.
type Event uint8

const (
	EventNone Event = iota
	EventCountdownStarted
	EventCountdownCancelled
	EventStageAdvanced
	EventFailed
	EventRestarted
	EventCompleted
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventCountdownStarted:
		return "countdown_started"
	case EventCountdownCancelled:
		return "countdown_cancelled"
	case EventStageAdvanced:
		return "stage_advanced"
	case EventFailed:
		return "failed"
	case EventRestarted:
		return "restarted"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Records looks up the best stored height for a level hash.
type Records interface {
	Best(levelHash int64) (height float32, ok bool, err error)
}

// Options wires a Machine. Nil components get defaults.
type Options struct {
	Catalog    *shapes.Catalog
	Codec      *codec.Codec
	Reconciler *reconcile.Reconciler
	Predictor  *predict.Predictor
	Spawn      *spawn.Manager
	Records    Records
	Logger     *log.Logger

	TickSeconds   float32
	Gravity       core.Vec2
	PersistPolicy shapes.PersistPolicy
	// RestartOnFail starts a new attempt when a shape touches a sensor.
	RestartOnFail bool
	Seed          int64
}

// Machine runs one level instance tick by tick.
type Machine struct {
	cat        *shapes.Catalog
	codec      *codec.Codec
	reconciler *reconcile.Reconciler
	predictor  *predict.Predictor
	spawn      *spawn.Manager
	records    Records
	logger     *log.Logger
	opts       Options

	current  reconcile.CurrentLevel
	previous *reconcile.PreviousLevel

	hasActed   bool
	countdown  *int
	prediction *predict.Prediction
	touched    bool

	ticks    uint64
	attempts int
	failures int
}

// New creates a machine with no level entered.
func New(opts Options) *Machine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Catalog == nil {
		opts.Catalog = shapes.Standard()
	}
	if opts.Codec == nil {
		opts.Codec = codec.New(opts.Catalog, codec.MaxWidth, codec.MaxHeight)
	}
	if opts.Reconciler == nil {
		opts.Reconciler = reconcile.New(reconcile.MatchImmobileBucket, opts.Logger)
	}
	if opts.Predictor == nil {
		opts.Predictor = predict.New(predict.DefaultSettings())
	}
	if opts.TickSeconds <= 0 {
		opts.TickSeconds = core.DefaultConfig().TickSeconds()
	}
	if opts.Spawn == nil {
		opts.Spawn = spawn.NewManager(opts.Catalog, opts.Gravity, spawn.DefaultField(), opts.Seed, opts.Logger)
	}

	return &Machine{
		cat:        opts.Catalog,
		codec:      opts.Codec,
		reconciler: opts.Reconciler,
		predictor:  opts.Predictor,
		spawn:      opts.Spawn,
		records:    opts.Records,
		logger:     opts.Logger,
		opts:       opts,
	}
}

// Enter starts a level. saved, if non-nil, is an arrangement from an earlier
// session to resume from; it is matched against the level's initial shapes
// on the first tick only.
func (m *Machine) Enter(lvl *levels.Level, saved shapes.ShapesVec) {
	m.current = reconcile.CurrentLevel{
		Level:      lvl,
		Completion: reconcile.Incomplete(0),
		Saved:      saved,
	}
	m.previous = nil
	m.attempts = 1
	m.failures = 0
	m.resetStage()
}

// Level returns the level being played, or nil.
func (m *Machine) Level() *levels.Level {
	return m.current.Level
}

// Completion returns the current progress.
func (m *Machine) Completion() reconcile.Completion {
	return m.current.Completion
}

// Countdown returns the frames left before the stage is confirmed.
func (m *Machine) Countdown() (int, bool) {
	if m.countdown == nil {
		return 0, false
	}
	return *m.countdown, true
}

// HasActed reports whether the player touched a shape this stage.
func (m *Machine) HasActed() bool {
	return m.hasActed
}

// LastPrediction returns the most recent predictor result, if any.
func (m *Machine) LastPrediction() (predict.Prediction, bool) {
	if m.prediction == nil {
		return predict.Prediction{}, false
	}
	return *m.prediction, true
}

// Attempts returns how many attempts were started at this level.
func (m *Machine) Attempts() int {
	return m.attempts
}

// Failures returns how many attempts ended with a shape in the void.
func (m *Machine) Failures() int {
	return m.failures
}

// Ticks returns the number of ticks run.
func (m *Machine) Ticks() uint64 {
	return m.ticks
}

// Spawn returns the spawn layer holding the live world.
func (m *Machine) Spawn() *spawn.Manager {
	return m.spawn
}

// Arrangement returns the live shapes as a persistable list.
func (m *Machine) Arrangement() shapes.ShapesVec {
	return shapes.FromLive(m.spawn.Snapshot(), m.opts.PersistPolicy)
}

// Tick runs one fixed-timestep update.
func (m *Machine) Tick(in core.InputFrame) Event {
	if m.current.Level == nil {
		return EventNone
	}
	m.ticks++
	event := EventNone

	if in.Has(core.ActionRestart) {
		m.restart()
		event = EventRestarted
	}

	if in.Interacted() {
		m.hasActed = true
		if m.cancelCountdown("player interaction") {
			event = max(event, EventCountdownCancelled)
		}
	}

	m.sync()
	if m.current.Completion.Complete {
		m.spawn.Step(m.opts.TickSeconds, nil)
		return event
	}

	m.touched = false
	m.spawn.Step(m.opts.TickSeconds, physics.SinkFunc(m.watch))
	if m.touched {
		m.cancelCountdown("sensor touched")
		return max(event, m.fail())
	}

	switch {
	case m.countdown != nil:
		*m.countdown--
		if *m.countdown <= 0 {
			m.countdown = nil
			event = max(event, m.advance())
		}
	case m.spawn.AtRest():
		if m.predict() {
			event = max(event, EventCountdownStarted)
		}
	}
	return event
}

// sync reconciles the current level against the last observation and
// applies any commands to the world.
func (m *Machine) sync() {
	res := m.reconciler.Reconcile(m.current, m.previous)
	m.previous = reconcile.Observe(m.current)
	m.current.Saved = nil
	if res.IsEmpty() {
		return
	}

	if err := m.spawn.Apply(res.DespawnExisting, res.Creations, res.Updates); err != nil {
		m.logger.Warn("some updates were not applied", "err", err)
	}
	stage := m.current.Completion.Stage
	m.spawn.World().SetGravity(m.current.Level.GravityAt(stage, m.opts.Gravity))
	m.logger.Debug("stage entered",
		"level", m.current.Level.ID,
		"stage", stage,
		"transition", res.Transition.Kind,
		"creations", len(res.Creations),
		"updates", len(res.Updates))
}

// watch observes the live world. A sensor touch involving a shape is a real
// loss and overrides any forecast.
func (m *Machine) watch(e physics.CollisionEvent) {
	if !e.Sensor || m.spawn.Decorative(e.A) || m.spawn.Decorative(e.B) {
		return
	}
	_, a := m.spawn.EntityAt(e.A)
	_, b := m.spawn.EntityAt(e.B)
	if a || b {
		m.touched = true
	}
}

// predict runs the forecast and starts a countdown when it asks for one.
func (m *Machine) predict() bool {
	acted := m.hasActed
	p := m.predictor.Predict(predict.Input{
		World:    m.spawn.World(),
		Gravity:  m.spawn.World().Gravity(),
		HasActed: &acted,
	})
	m.prediction = &p

	m.logger.Debug("prediction",
		"class", p.Classification,
		"substeps", p.Substeps,
		"acted", acted)
	if p.Countdown == nil {
		return false
	}
	frames := *p.Countdown
	m.countdown = &frames
	return true
}

func (m *Machine) cancelCountdown(reason string) bool {
	if m.countdown == nil {
		return false
	}
	m.countdown = nil
	m.logger.Debug("countdown cancelled", "reason", reason)
	return true
}

// advance moves to the next stage or completes the level.
func (m *Machine) advance() Event {
	stage := m.current.Completion.Stage
	if stage+1 < m.current.Level.StageCount() {
		m.current.Completion = reconcile.Incomplete(stage + 1)
		m.resetStage()
		m.sync()
		return EventStageAdvanced
	}

	m.current.Completion = reconcile.Completed(m.score())
	score := m.current.Completion.Score
	m.logger.Info("level complete",
		"level", m.current.Level.ID,
		"height", score.Height,
		"hash", score.Hash,
		"record", score.IsRecord)
	return EventCompleted
}

func (m *Machine) score() reconcile.ScoreInfo {
	vec := m.Arrangement()
	info := reconcile.ScoreInfo{
		Hash:      vec.Hash(),
		Height:    vec.TowerHeight(m.cat),
		ShareCode: m.codec.ShareCode(vec),
		IsRecord:  true,
	}
	if m.records == nil {
		return info
	}

	best, ok, err := m.records.Best(info.Hash)
	if err != nil {
		m.logger.Warn("cannot read best height", "err", err)
		return info
	}
	info.IsRecord = !ok || info.Height > best
	return info
}

func (m *Machine) fail() Event {
	m.failures++
	m.logger.Warn("shape touched the void",
		"level", m.current.Level.ID,
		"stage", m.current.Completion.Stage,
		"attempt", m.attempts)
	if m.opts.RestartOnFail {
		m.restart()
		m.sync()
	}
	return EventFailed
}

// restart begins a new attempt from stage 0.
func (m *Machine) restart() {
	m.current.Completion = reconcile.Incomplete(0)
	m.current.Saved = nil
	m.previous = nil
	m.attempts++
	m.resetStage()
}

func (m *Machine) resetStage() {
	m.hasActed = false
	m.countdown = nil
	m.prediction = nil
}
