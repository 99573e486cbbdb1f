// Package reconcile turns a level descriptor plus the previously observed
// level state into shape creation and update commands.
package reconcile

import (
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// ScoreInfo describes a completed level.
type ScoreInfo struct {
	Hash      int64
	Height    float32
	ShareCode string
	IsRecord  bool
}

// Completion is Incomplete{Stage} or Complete{Score}. Within one attempt the
// stage only increases and Complete is terminal.
type Completion struct {
	Complete bool
	Stage    int
	Score    *ScoreInfo
}

// Incomplete returns an in-progress completion at stage.
func Incomplete(stage int) Completion {
	return Completion{Stage: stage}
}

// Completed returns a terminal completion.
func Completed(score ScoreInfo) Completion {
	return Completion{Complete: true, Score: &score}
}

// CurrentLevel is the level being played and its progress.
type CurrentLevel struct {
	Level      *levels.Level
	Completion Completion
	// Saved is a persisted arrangement to resume from. Set only on the first
	// entry into the level this session.
	Saved shapes.ShapesVec
}

// PreviousLevel is the level identity and completion seen on the prior tick.
type PreviousLevel struct {
	LevelID    string
	Completion Completion
}

// Observe records cur as the previous level for the next tick.
func Observe(cur CurrentLevel) *PreviousLevel {
	return &PreviousLevel{LevelID: cur.Level.ID, Completion: cur.Completion}
}
