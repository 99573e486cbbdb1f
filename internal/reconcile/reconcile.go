package reconcile

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stacker/internal/shapes"
)

// Result is the set of commands for one level transition.
type Result struct {
	Transition Transition
	// DespawnExisting asks the spawn layer to tear down every live shape
	// before applying Creations.
	DespawnExisting bool
	Creations       []shapes.ShapeCreationData
	// Updates target shapes that are already live.
	Updates []shapes.ShapeUpdateData
}

// IsEmpty reports whether the result asks for no work.
func (r Result) IsEmpty() bool {
	return !r.DespawnExisting && len(r.Creations) == 0 && len(r.Updates) == 0
}

// Reconciler produces creation and update commands for level transitions.
// It holds no state between calls.
type Reconciler struct {
	policy MatchPolicy
	logger *log.Logger
}

// New creates a reconciler. A nil logger uses log.Default().
func New(policy MatchPolicy, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{policy: policy, logger: logger}
}

// Policy returns the mogrify match policy.
func (r *Reconciler) Policy() MatchPolicy {
	return r.policy
}

// Reconcile computes the commands that move the world from prev to cur.
func (r *Reconciler) Reconcile(cur CurrentLevel, prev *PreviousLevel) Result {
	tr := Classify(cur, prev)
	res := Result{Transition: tr}

	if tr.Kind == SameLevelSameStage || cur.Level == nil || cur.Level.StageCount() == 0 {
		return res
	}

	last := cur.Level.StageCount() - 1
	target := min(cur.Completion.Stage, last)
	if cur.Completion.Complete {
		target = last
	}

	var b batch
	first := tr.PreviousStage + 1
	if tr.Kind == DifferentLevel {
		res.DespawnExisting = true
		b.addStage(cur.Level.Stage(0).Shapes, cur.Level.Stage(0).Updates, 0)
		sortInitial(b.creations)
		first = 1
	}

	for i := first; i <= target; i++ {
		stage := cur.Level.Stage(i)
		b.addStage(stage.Shapes, stage.Updates, i)
	}

	res.Creations = b.creations
	res.Updates = b.updates

	if tr.Kind == DifferentLevel && cur.Saved != nil {
		res.Creations = r.Mogrify(res.Creations, cur.Saved)
	}

	r.logger.Debug("level transition",
		"level", cur.Level.ID,
		"kind", tr.Kind,
		"stage", target,
		"creations", len(res.Creations),
		"updates", len(res.Updates),
	)
	return res
}

// batch collects creations and updates in stage order, folding updates into
// creations from the same batch.
type batch struct {
	creations []shapes.ShapeCreationData
	updates   []shapes.ShapeUpdateData
}

func (b *batch) addStage(creations []shapes.ShapeCreationData, updates []shapes.ShapeUpdateData, stage int) {
	for _, c := range creations {
		c.Stage = stage
		b.creations = append(b.creations, c)
	}
	for _, u := range updates {
		u.Stage = stage
		i := slices.IndexFunc(b.creations, func(c shapes.ShapeCreationData) bool {
			return c.HasID(u.ID)
		})
		if i >= 0 {
			u.ApplyTo(&b.creations[i])
			continue
		}
		b.updates = append(b.updates, u)
	}
}

// sortInitial puts anchored shapes first: immobile-with-location, then
// immobile, then located, then the rest. The sort is stable.
func sortInitial(creations []shapes.ShapeCreationData) {
	rank := func(c shapes.ShapeCreationData) int {
		r := 0
		if !c.State.Immobile() {
			r += 2
		}
		if c.Location == nil {
			r++
		}
		return r
	}
	slices.SortStableFunc(creations, func(a, b shapes.ShapeCreationData) int {
		return cmp.Compare(rank(a), rank(b))
	})
}

// Mogrify overwrites pending creations with a persisted arrangement.
//
// Each saved shape claims the first pending creation it matches under the
// policy; the claimed creation takes the saved state and location, zero
// velocity, and is marked FromSavedGame. Saved shapes without a match are
// dropped. Matching is first-found, not an optimal assignment. The unmatched
// creations are reversed and appended after the matched ones.
func (r *Reconciler) Mogrify(creations []shapes.ShapeCreationData, saved shapes.ShapesVec) []shapes.ShapeCreationData {
	pending := slices.Clone(creations)
	out := make([]shapes.ShapeCreationData, 0, len(creations))

	for _, s := range saved {
		i := slices.IndexFunc(pending, func(c shapes.ShapeCreationData) bool {
			return r.policy.Matches(c, s)
		})
		if i < 0 {
			r.logger.Warn("saved shape has no match, dropping",
				"shape", s.Shape,
				"state", s.State,
				"modifiers", s.Modifiers,
			)
			continue
		}

		c := pending[i]
		pending = slices.Delete(pending, i, i+1)

		loc := s.Location
		c.Location = &loc
		c.State = s.State
		c.Velocity = &shapes.Velocity{}
		c.FromSavedGame = true
		out = append(out, c)
	}

	slices.Reverse(pending)
	return append(out, pending...)
}
