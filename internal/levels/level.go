// Package levels describes declarative levels: an ordered list of stages,
// each adding shapes or patching shapes created by earlier stages.
package levels

import (
	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// Level is a complete level definition.
type Level struct {
	ID       string
	Name     string
	Stages   []Stage
	EndText  string
	FilePath string
}

// Stage is one sub-phase of a level.
type Stage struct {
	Text    string
	Gravity *core.Vec2 // nil keeps the previous gravity
	Shapes  []shapes.ShapeCreationData
	Updates []shapes.ShapeUpdateData
}

// StageCount returns the number of stages. Every level has at least one.
func (l *Level) StageCount() int {
	return len(l.Stages)
}

// Stage returns stage i, or nil if out of range.
func (l *Level) Stage(i int) *Stage {
	if i < 0 || i >= len(l.Stages) {
		return nil
	}
	return &l.Stages[i]
}

// GravityAt returns the gravity in effect at stage i, falling back to def
// when no stage up to i overrides it.
func (l *Level) GravityAt(i int, def core.Vec2) core.Vec2 {
	g := def
	for s := 0; s <= i && s < len(l.Stages); s++ {
		if l.Stages[s].Gravity != nil {
			g = *l.Stages[s].Gravity
		}
	}
	return g
}

// Clone returns a deep copy so callers can mutate creations freely.
func (l *Level) Clone() *Level {
	clone := *l
	clone.Stages = make([]Stage, len(l.Stages))
	for i, s := range l.Stages {
		clone.Stages[i] = Stage{
			Text:    s.Text,
			Gravity: s.Gravity,
			Shapes:  append([]shapes.ShapeCreationData(nil), s.Shapes...),
			Updates: append([]shapes.ShapeUpdateData(nil), s.Updates...),
		}
	}
	return &clone
}
