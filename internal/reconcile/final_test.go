package reconcile

import (
	"testing"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/shapes"
)

func TestFinalShapesAppliesEveryStage(t *testing.T) {
	got := quietReconciler(MatchImmobileBucket).FinalShapes(fourStageLevel())

	if len(got) != 5 {
		t.Fatalf("FinalShapes() has %d shapes, expected 5", len(got))
	}
	if n := got.CountState(shapes.StateNormal); n != 5 {
		t.Errorf("normal shapes = %d, expected 5 after the stage 1 update", n)
	}
	for _, s := range got {
		if s.Shape == 4 && s.Location.Position != core.V(50, 50) {
			t.Errorf("shape 4 location = %+v, expected the stage 2 update", s.Location.Position)
		}
	}
}

func TestLevelHash(t *testing.T) {
	r := quietReconciler(MatchImmobileBucket)
	lvl := fourStageLevel()

	expected := shapes.ShapesVec{{Shape: 2}, {Shape: 3}, {Shape: 4}, {Shape: 5}, {Shape: 6}}.Hash()
	if got := r.LevelHash(lvl, shapes.ExcludeVoid); got != expected {
		t.Errorf("LevelHash() = %d, expected %d", got, expected)
	}

	withVoid := lvl.Clone()
	withVoid.Stages[0].Shapes = append(withVoid.Stages[0].Shapes,
		shapes.ShapeCreationData{Shape: 0, State: shapes.StateVoid, Location: loc(0, -400)})

	if r.LevelHash(withVoid, shapes.ExcludeVoid) != expected {
		t.Error("void shape changed the hash under ExcludeVoid")
	}
	if r.LevelHash(withVoid, shapes.IncludeVoid) == expected {
		t.Error("void shape did not change the hash under IncludeVoid")
	}
}

func TestFinalShapesEmptyLevel(t *testing.T) {
	got := quietReconciler(MatchExact).FinalShapes(&levels.Level{ID: "empty"})
	if len(got) != 0 {
		t.Errorf("FinalShapes(empty) = %v, expected none", got)
	}
}
