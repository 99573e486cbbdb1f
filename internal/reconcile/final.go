package reconcile

import (
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// FinalShapes returns every shape lvl declares, with all stage updates
// applied, as the level stands once complete. Shapes without a declared
// location sit at the origin.
func (r *Reconciler) FinalShapes(lvl *levels.Level) shapes.ShapesVec {
	res := r.Reconcile(CurrentLevel{Level: lvl, Completion: Completed(ScoreInfo{})}, nil)

	out := make(shapes.ShapesVec, 0, len(res.Creations))
	for _, c := range res.Creations {
		s := shapes.EncodableShape{Shape: c.Shape, State: c.State, Modifiers: c.Modifiers}
		if c.Location != nil {
			s.Location = *c.Location
		}
		out = append(out, s)
	}
	return out
}

// LevelHash is the leaderboard key a full completion of lvl produces.
func (r *Reconciler) LevelHash(lvl *levels.Level, policy shapes.PersistPolicy) int64 {
	return shapes.FromLive(r.FinalShapes(lvl), policy).Hash()
}
