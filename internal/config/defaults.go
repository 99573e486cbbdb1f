package config

import (
	_ "embed"
)

//go:embed defaults/stacker.yaml
var defaultYAML []byte

// Default returns the default configuration.
func Default() Config {
	return Config{
		World: WorldConfig{
			Width:         1920,
			Height:        1080,
			TableWidth:    600,
			TableTop:      -500,
			WallThickness: 20,
			DropGap:       40,
			Jitter:        12.5,
			Snow:          0,
			Gravity:       Vec{X: 0, Y: -1000},
		},
		Physics: PhysicsConfig{
			TickRate:       60,
			RestSpeed:      2,
			OutOfFieldDrop: 200,
		},
		Predictor: PredictorConfig{
			SubstepSeconds:    1.0 / 30,
			ActedBudget:       45,
			NotActedBudget:    90,
			EarlyWindow:       10,
			ManyCollisions:    3,
			CountdownActed:    60,
			CountdownNotActed: 120,
			CountdownLong:     300,
		},
		Reconciler: ReconcilerConfig{
			MatchPolicy: "immobile_bucket",
			PersistVoid: false,
		},
		Lifecycle: LifecycleConfig{
			RestartOnFail: true,
		},
	}
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultYAML
}
