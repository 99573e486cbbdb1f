// Package core provides fundamental types and utilities shared by the level
// engine. It has no external dependencies to keep game logic pure and testable.
package core

import "math"

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// Vec2 is a 2D vector in world units. The y axis points up.
type Vec2 struct {
	X, Y float32
}

// V creates a vector.
func V(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale multiplies both components by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Rotate rotates v counter-clockwise by angle radians.
func (v Vec2) Rotate(angle float32) Vec2 {
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	return Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// LengthSquared returns the squared length of v.
func (v Vec2) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y
}

// AABB is an axis-aligned bounding box given by its min and max corners.
type AABB struct {
	Min, Max Vec2
}

// NewAABB creates a box centred on center with the given half extents.
func NewAABB(center, half Vec2) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Center returns the centre point of the box.
func (b AABB) Center() Vec2 {
	return Vec2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// HalfExtents returns half of the box's width and height.
func (b AABB) HalfExtents() Vec2 {
	return Vec2{X: (b.Max.X - b.Min.X) / 2, Y: (b.Max.Y - b.Min.Y) / 2}
}

// Intersects returns true if this box overlaps another.
// Touching edges do not count as overlap.
func (b AABB) Intersects(other AABB) bool {
	if b.Min.X >= other.Max.X || other.Min.X >= b.Max.X {
		return false
	}
	if b.Min.Y >= other.Max.Y || other.Min.Y >= b.Max.Y {
		return false
	}
	return true
}

// Expand grows the box by margin on every side.
func (b AABB) Expand(margin float32) AABB {
	m := Vec2{X: margin, Y: margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: Vec2{X: min(b.Min.X, other.Min.X), Y: min(b.Min.Y, other.Min.Y)},
		Max: Vec2{X: max(b.Max.X, other.Max.X), Y: max(b.Max.Y, other.Max.Y)},
	}
}

// BoundsOf returns the bounding box of a set of points.
// An empty set yields the zero box.
func BoundsOf(points []Vec2) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	return b
}

// Range is a closed interval of world coordinates.
type Range struct {
	Min, Max float32
}

// Size returns the length of the interval.
func (r Range) Size() float32 {
	return r.Max - r.Min
}

// Clamp restricts v to the interval.
func (r Range) Clamp(v float32) float32 {
	return ClampF32(v, r.Min, r.Max)
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF32 restricts a float32 value to be within [min, max].
// NaN is mapped to min.
func ClampF32(val, min, max float32) float32 {
	if val != val || val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// NormalizeAngle maps an angle in radians into [0, 2π).
func NormalizeAngle(angle float32) float32 {
	a := math.Mod(float64(angle), TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi {
		a = 0
	}
	r := float32(a)
	// float32 rounding can land exactly on 2π
	if r >= float32(TwoPi) {
		return 0
	}
	return r
}

// AngleDistance returns the absolute difference between two angles,
// taking wrap-around into account. The result is in [0, π].
func AngleDistance(a, b float32) float32 {
	d := math.Abs(math.Mod(float64(a)-float64(b), TwoPi))
	if d > math.Pi {
		d = TwoPi - d
	}
	return float32(d)
}

// Abs returns the absolute value of a float32.
func Abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
