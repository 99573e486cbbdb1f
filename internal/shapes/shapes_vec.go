package shapes

import (
	"slices"

	"github.com/vovakirdan/stacker/internal/core"
)

// PersistPolicy decides whether void shapes are stored in a saved ShapesVec.
type PersistPolicy uint8

const (
	// ExcludeVoid drops void shapes; the level descriptor recreates them.
	ExcludeVoid PersistPolicy = iota
	// IncludeVoid keeps void shapes so mogrify can restore moved voids.
	IncludeVoid
)

// ShapesVec is an ordered list of encodable shapes. Order does not matter for
// gameplay but is kept deterministic.
type ShapesVec []EncodableShape

// FromLive snapshots the live shapes of a world, applying policy to voids.
func FromLive(live []EncodableShape, policy PersistPolicy) ShapesVec {
	out := make(ShapesVec, 0, len(live))
	for _, s := range live {
		if s.State == StateVoid && policy == ExcludeVoid {
			continue
		}
		s.Location = s.Location.Normalized()
		out = append(out, s)
	}
	return out
}

type hashKey struct {
	shape     ShapeIndex
	bucket    uint8
	modifiers ShapeModifiers
}

// Hash returns the level hash: a multiplicative rolling hash over the sorted
// (shape index, state bucket, modifiers) triples. It ignores location, so
// every solution of a level hashes the same.
func (v ShapesVec) Hash() int64 {
	keys := make([]hashKey, len(v))
	for i, s := range v {
		keys[i] = hashKey{shape: s.Shape, bucket: s.State.Bucket(), modifiers: s.Modifiers}
	}
	slices.SortFunc(keys, func(a, b hashKey) int {
		if a.shape != b.shape {
			return int(a.shape) - int(b.shape)
		}
		if a.bucket != b.bucket {
			return int(a.bucket) - int(b.bucket)
		}
		return int(a.modifiers) - int(b.modifiers)
	})

	var h int64
	for _, k := range keys {
		h = h*31 + int64(k.shape) + 1
		h = h*31 + int64(k.bucket)
		h = h*31 + int64(k.modifiers)
	}
	return h
}

// TowerHeight returns the vertical extent (max minus min) of the bounding
// boxes of every non-void shape. An empty or all-void list has height 0.
func (v ShapesVec) TowerHeight(cat *Catalog) float32 {
	var (
		bounds core.AABB
		found  bool
	)
	for _, s := range v {
		if s.State == StateVoid {
			continue
		}
		b := cat.Get(s.Shape).Bounds(s.Location)
		if !found {
			bounds, found = b, true
			continue
		}
		bounds = bounds.Union(b)
	}
	if !found {
		return 0
	}
	return bounds.Max.Y - bounds.Min.Y
}

// CountState returns how many shapes have the given state.
func (v ShapesVec) CountState(state ShapeState) int {
	n := 0
	for _, s := range v {
		if s.State == state {
			n++
		}
	}
	return n
}
