// Package config provides YAML-based engine configuration loading.
package config

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/physics"
	"github.com/vovakirdan/stacker/internal/predict"
	"github.com/vovakirdan/stacker/internal/reconcile"
	"github.com/vovakirdan/stacker/internal/shapes"
	"github.com/vovakirdan/stacker/internal/spawn"
)

// Config contains all engine configuration.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Predictor  PredictorConfig  `yaml:"predictor"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
}

// Vec is a 2D vector in YAML.
type Vec struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

// WorldConfig defines the play field. Width and Height are also the codec's
// world bounds.
type WorldConfig struct {
	Width         float32 `yaml:"width"`
	Height        float32 `yaml:"height"`
	TableWidth    float32 `yaml:"table_width"`
	TableTop      float32 `yaml:"table_top"`
	WallThickness float32 `yaml:"wall_thickness"`
	DropGap       float32 `yaml:"drop_gap"`
	Jitter        float32 `yaml:"jitter"`
	Snow          int     `yaml:"snow"`
	Gravity       Vec     `yaml:"gravity"`
}

// PhysicsConfig defines live simulation parameters.
type PhysicsConfig struct {
	TickRate       int     `yaml:"tick_rate"`
	RestSpeed      float32 `yaml:"rest_speed"`
	OutOfFieldDrop float32 `yaml:"out_of_field_drop"`
}

// PredictorConfig defines the win predictor's budgets and countdowns.
type PredictorConfig struct {
	SubstepSeconds    float32 `yaml:"substep_seconds"`
	ActedBudget       int     `yaml:"acted_budget"`
	NotActedBudget    int     `yaml:"not_acted_budget"`
	EarlyWindow       int     `yaml:"early_window"`
	ManyCollisions    int     `yaml:"many_collisions"`
	CountdownActed    int     `yaml:"countdown_acted"`
	CountdownNotActed int     `yaml:"countdown_not_acted"`
	CountdownLong     int     `yaml:"countdown_long"`
}

// ReconcilerConfig defines how saved arrangements are matched and stored.
type ReconcilerConfig struct {
	MatchPolicy string `yaml:"match_policy"`
	PersistVoid bool   `yaml:"persist_void"`
}

// LifecycleConfig defines level progression behaviour.
type LifecycleConfig struct {
	RestartOnFail bool `yaml:"restart_on_fail"`
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %vx%v", c.World.Width, c.World.Height))
	}
	if c.World.TableWidth <= 0 {
		errs = append(errs, fmt.Errorf("world.table_width must be positive, got %v", c.World.TableWidth))
	}
	if c.Physics.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("physics.tick_rate must be positive, got %d", c.Physics.TickRate))
	}
	p := c.Predictor
	if p.SubstepSeconds <= 0 {
		errs = append(errs, fmt.Errorf("predictor.substep_seconds must be positive, got %v", p.SubstepSeconds))
	}
	if p.ActedBudget <= 0 || p.NotActedBudget <= 0 {
		errs = append(errs, fmt.Errorf("predictor budgets must be positive, got %d and %d", p.ActedBudget, p.NotActedBudget))
	}
	if p.ActedBudget > p.NotActedBudget {
		errs = append(errs, fmt.Errorf("predictor.acted_budget (%d) must not exceed not_acted_budget (%d)", p.ActedBudget, p.NotActedBudget))
	}
	if _, err := reconcile.ParseMatchPolicy(c.Reconciler.MatchPolicy); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Runtime returns the runtime settings for a seed.
func (c Config) Runtime(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{TickRate: c.Physics.TickRate, Seed: seed}
}

// Gravity returns the default gravity.
func (c Config) Gravity() core.Vec2 {
	return core.V(c.World.Gravity.X, c.World.Gravity.Y)
}

// Field returns the spawn layer's field settings.
func (c Config) Field() spawn.Field {
	return spawn.Field{
		Width:          c.World.Width,
		Height:         c.World.Height,
		TableWidth:     c.World.TableWidth,
		TableTop:       c.World.TableTop,
		WallThickness:  c.World.WallThickness,
		DropGap:        c.World.DropGap,
		Jitter:         c.World.Jitter,
		Snow:           c.World.Snow,
		RestSpeed:      c.Physics.RestSpeed,
		OutOfFieldDrop: c.Physics.OutOfFieldDrop,
	}
}

// PredictorSettings returns the win predictor's settings.
func (c Config) PredictorSettings() predict.Settings {
	p := c.Predictor
	return predict.Settings{
		SubstepSeconds:    p.SubstepSeconds,
		ActedBudget:       p.ActedBudget,
		NotActedBudget:    p.NotActedBudget,
		EarlyWindow:       p.EarlyWindow,
		ManyCollisions:    p.ManyCollisions,
		DecorativeGroups:  physics.GroupDecoration,
		CountdownActed:    p.CountdownActed,
		CountdownNotActed: p.CountdownNotActed,
		CountdownLong:     p.CountdownLong,
	}
}

// MatchPolicy returns the configured mogrify match policy. Call Validate
// first; an invalid value falls back to the default.
func (c Config) MatchPolicy() reconcile.MatchPolicy {
	policy, err := reconcile.ParseMatchPolicy(c.Reconciler.MatchPolicy)
	if err != nil {
		return reconcile.MatchImmobileBucket
	}
	return policy
}

// PersistPolicy returns whether void shapes are persisted.
func (c Config) PersistPolicy() shapes.PersistPolicy {
	if c.Reconciler.PersistVoid {
		return shapes.IncludeVoid
	}
	return shapes.ExcludeVoid
}
