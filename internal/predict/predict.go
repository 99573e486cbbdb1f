// Package predict forecasts whether the current arrangement is about to win
// or lose by stepping a throwaway clone of the physics world.
package predict

import (
	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/physics"
)

// Classification is the forecast outcome of a prediction run.
type Classification uint8

const (
	// MinimalCollision: the budget ran out with no sensor hit and few
	// collisions.
	MinimalCollision Classification = iota
	// ManyNonWall: collisions kept happening after the early window.
	ManyNonWall
	// Wall: a sensor was hit after the early window.
	Wall
	// EarlyWall: a sensor was hit within the early window.
	EarlyWall
)

// String returns the classification name.
func (c Classification) String() string {
	switch c {
	case MinimalCollision:
		return "minimal_collision"
	case ManyNonWall:
		return "many_non_wall"
	case Wall:
		return "wall"
	case EarlyWall:
		return "early_wall"
	default:
		return "unknown"
	}
}

// Settings tunes the predictor. Durations are in sub-steps and frames.
type Settings struct {
	SubstepSeconds float32
	// ActedBudget applies once the player has touched a shape this stage, or
	// when that is unknown. NotActedBudget applies otherwise.
	ActedBudget    int
	NotActedBudget int
	// EarlyWindow is the number of sub-steps in which a sensor hit counts
	// as EarlyWall.
	EarlyWindow int
	// ManyCollisions is the non-sensor collision count above which, after
	// the early window, the run is ManyNonWall.
	ManyCollisions int
	// DecorativeGroups are removed from the clone before stepping.
	DecorativeGroups physics.Group

	CountdownActed    int // frames, MinimalCollision after acting
	CountdownNotActed int // frames, MinimalCollision without acting
	CountdownLong     int // frames, Wall and ManyNonWall
}

// DefaultSettings returns the tuning used by the game.
func DefaultSettings() Settings {
	return Settings{
		SubstepSeconds:    1.0 / 30,
		ActedBudget:       45,
		NotActedBudget:    90,
		EarlyWindow:       10,
		ManyCollisions:    3,
		DecorativeGroups:  physics.GroupDecoration,
		CountdownActed:    60,
		CountdownNotActed: 120,
		CountdownLong:     300,
	}
}

// Input is a snapshot of the live world plus player engagement.
type Input struct {
	World   physics.Simulation
	Gravity core.Vec2
	// HasActed is nil when engagement is not tracked; the stricter acted
	// budget applies then.
	HasActed *bool
}

// Prediction is the outcome of one run.
type Prediction struct {
	Classification Classification
	// Countdown is the confirmation delay in frames, or nil when no
	// countdown should run.
	Countdown *int
	// Substeps is how many sub-steps were simulated.
	Substeps int
}

// Predictor runs prediction with fixed settings.
type Predictor struct {
	settings Settings
}

// New creates a predictor.
func New(settings Settings) *Predictor {
	return &Predictor{settings: settings}
}

// Settings returns the predictor's tuning.
func (p *Predictor) Settings() Settings {
	return p.settings
}

// counter is the event sink attached to the clone only.
type counter struct {
	sensorHit bool
	nonSensor int
}

func (c *counter) CollisionStarted(e physics.CollisionEvent) {
	if e.Sensor {
		c.sensorHit = true
		return
	}
	c.nonSensor++
}

// Predict steps a clone of in.World and classifies the outcome. The live
// world is never modified.
func (p *Predictor) Predict(in Input) Prediction {
	acted := in.HasActed == nil || *in.HasActed
	budget := p.settings.NotActedBudget
	if acted {
		budget = p.settings.ActedBudget
	}

	clone := in.World.Clone()
	clone.RemoveGroups(p.settings.DecorativeGroups)
	clone.EnableCollisionEvents()
	clone.SetGravity(in.Gravity)

	class, steps := MinimalCollision, 0
	if clone.BodyCount() > 0 {
		class, steps = p.run(clone, budget)
	}

	return Prediction{
		Classification: class,
		Countdown:      p.countdown(class, acted),
		Substeps:       steps,
	}
}

func (p *Predictor) run(sim physics.Simulation, budget int) (Classification, int) {
	sink := &counter{}
	for step := range budget {
		sim.Step(p.settings.SubstepSeconds, sink)

		if sink.sensorHit {
			if step < p.settings.EarlyWindow {
				return EarlyWall, step + 1
			}
			return Wall, step + 1
		}
		if step >= p.settings.EarlyWindow && sink.nonSensor > p.settings.ManyCollisions {
			return ManyNonWall, step + 1
		}
	}
	return MinimalCollision, budget
}

func (p *Predictor) countdown(class Classification, acted bool) *int {
	var frames int
	switch class {
	case EarlyWall:
		return nil
	case Wall, ManyNonWall:
		frames = p.settings.CountdownLong
	default:
		frames = p.settings.CountdownNotActed
		if acted {
			frames = p.settings.CountdownActed
		}
	}
	return &frames
}
