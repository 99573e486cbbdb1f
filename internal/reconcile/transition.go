package reconcile

// TransitionKind classifies how the level changed since the previous tick.
type TransitionKind uint8

const (
	DifferentLevel TransitionKind = iota
	SameLevelSameStage
	SameLevelEarlierStage
)

// String returns a readable name for the kind.
func (k TransitionKind) String() string {
	switch k {
	case DifferentLevel:
		return "different_level"
	case SameLevelSameStage:
		return "same_stage"
	case SameLevelEarlierStage:
		return "earlier_stage"
	default:
		return "unknown"
	}
}

// Transition is a classified level change. PreviousStage is meaningful for
// SameLevelEarlierStage only.
type Transition struct {
	Kind          TransitionKind
	PreviousStage int
}

// Classify compares the current level with the previous tick's observation.
//
// A missing previous level (the first tick) is a different level. Going from
// Complete back to Incomplete is a new attempt and also counts as a different
// level. A stage that went backwards breaks monotonicity and is handled as a
// fresh start. Reaching Complete changes no shapes.
func Classify(cur CurrentLevel, prev *PreviousLevel) Transition {
	if prev == nil || cur.Level == nil || prev.LevelID != cur.Level.ID {
		return Transition{Kind: DifferentLevel}
	}

	p, c := prev.Completion, cur.Completion
	switch {
	case p.Complete && !c.Complete:
		return Transition{Kind: DifferentLevel}
	case c.Complete:
		return Transition{Kind: SameLevelSameStage}
	case c.Stage == p.Stage:
		return Transition{Kind: SameLevelSameStage}
	case c.Stage > p.Stage:
		return Transition{Kind: SameLevelEarlierStage, PreviousStage: p.Stage}
	default:
		return Transition{Kind: DifferentLevel}
	}
}
