// Package shapes holds the shape catalog and the data model shared by the
// codec, the reconciler and the predictor.
package shapes

import (
	"fmt"
	"math"
	"strings"

	"github.com/vovakirdan/stacker/internal/core"
)

// Size is the edge length of one polyomino cell in world units.
const Size float32 = 50

// Kind distinguishes the geometric primitive of a catalog entry.
type Kind uint8

const (
	KindCircle Kind = iota
	KindTriangle
	KindPolyomino
)

// Cell is one unit square of a polyomino, in grid coordinates.
type Cell struct {
	X, Y int
}

// Shape is a read-only catalog entry.
type Shape struct {
	Index ShapeIndex
	Name  string
	Kind  Kind
	Cells []Cell // polyominoes only
	Color core.Color
}

// Vertices returns the outline points of the shape at the origin with zero
// rotation. Polyomino cells are centred on the shape's centroid.
func (s *Shape) Vertices() []core.Vec2 {
	switch s.Kind {
	case KindCircle:
		// Circles are bounded by their enclosing square.
		r := Size / 2
		return []core.Vec2{core.V(-r, -r), core.V(r, -r), core.V(r, r), core.V(-r, r)}
	case KindTriangle:
		h := Size * float32(math.Sqrt(3)) / 2
		return []core.Vec2{core.V(-Size/2, -h/3), core.V(Size/2, -h/3), core.V(0, 2*h/3)}
	}

	var cx, cy float32
	for _, c := range s.Cells {
		cx += float32(c.X) + 0.5
		cy += float32(c.Y) + 0.5
	}
	n := float32(len(s.Cells))
	cx, cy = cx/n, cy/n

	points := make([]core.Vec2, 0, len(s.Cells)*4)
	for _, c := range s.Cells {
		x := (float32(c.X) - cx) * Size
		y := (float32(c.Y) - cy) * Size
		points = append(points,
			core.V(x, y),
			core.V(x+Size, y),
			core.V(x+Size, y+Size),
			core.V(x, y+Size),
		)
	}
	return points
}

// Bounds returns the axis-aligned bounding box of the shape placed at loc.
func (s *Shape) Bounds(loc Location) core.AABB {
	if s.Kind == KindCircle {
		r := Size / 2
		return core.NewAABB(loc.Position, core.V(r, r))
	}
	verts := s.Vertices()
	for i, v := range verts {
		verts[i] = v.Rotate(loc.Angle).Add(loc.Position)
	}
	return core.BoundsOf(verts)
}

// Catalog is the fixed, ordered table of shape definitions. It is built once
// and never mutated; share it by pointer.
type Catalog struct {
	shapes []Shape
	byName map[string]ShapeIndex
}

// NewCatalog builds a catalog from the given definitions, assigning indices in
// order. It panics on an empty table or duplicate names.
func NewCatalog(defs []Shape) *Catalog {
	if len(defs) == 0 {
		panic("shapes: empty catalog")
	}
	if len(defs) > MaxCatalogLen {
		panic(fmt.Sprintf("shapes: catalog has %d entries, max %d", len(defs), MaxCatalogLen))
	}
	c := &Catalog{
		shapes: make([]Shape, len(defs)),
		byName: make(map[string]ShapeIndex, len(defs)),
	}
	for i, d := range defs {
		d.Index = ShapeIndex(i)
		d.Cells = append([]Cell(nil), d.Cells...)
		key := strings.ToLower(d.Name)
		if _, exists := c.byName[key]; exists {
			panic(fmt.Sprintf("shapes: duplicate shape %q", d.Name))
		}
		c.byName[key] = d.Index
		c.shapes[i] = d
	}
	return c
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.shapes)
}

// Get returns the shape at index. Out of range indices wrap modulo the
// catalog length.
func (c *Catalog) Get(index ShapeIndex) *Shape {
	return &c.shapes[int(index)%len(c.shapes)]
}

// Valid reports whether index is inside the catalog.
func (c *Catalog) Valid(index ShapeIndex) bool {
	return int(index) < len(c.shapes)
}

// Lookup finds a shape by case-insensitive name.
func (c *Catalog) Lookup(name string) (ShapeIndex, bool) {
	idx, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return idx, ok
}

// All returns the catalog entries in index order.
func (c *Catalog) All() []Shape {
	out := make([]Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// MaxCatalogLen is the largest catalog the binary codec can address: the
// first byte of a record holds index*2 plus the lock bit.
const MaxCatalogLen = 128

var standard = NewCatalog([]Shape{
	{Name: "Circle", Kind: KindCircle, Color: core.ColorYellow},
	{Name: "Triangle", Kind: KindTriangle, Color: core.ColorMagenta},

	// Tetrominoes
	{Name: "O", Kind: KindPolyomino, Color: core.ColorYellow, Cells: []Cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	{Name: "I", Kind: KindPolyomino, Color: core.ColorCyan, Cells: []Cell{{0, 0}, {0, 1}, {0, 2}, {0, 3}}},
	{Name: "T", Kind: KindPolyomino, Color: core.ColorMagenta, Cells: []Cell{{0, 0}, {1, 0}, {2, 0}, {1, 1}}},
	{Name: "L", Kind: KindPolyomino, Color: core.ColorOrange, Cells: []Cell{{0, 0}, {0, 1}, {0, 2}, {1, 0}}},
	{Name: "J", Kind: KindPolyomino, Color: core.ColorBlue, Cells: []Cell{{1, 0}, {1, 1}, {1, 2}, {0, 0}}},
	{Name: "S", Kind: KindPolyomino, Color: core.ColorGreen, Cells: []Cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}}},
	{Name: "Z", Kind: KindPolyomino, Color: core.ColorRed, Cells: []Cell{{1, 0}, {2, 0}, {0, 1}, {1, 1}}},

	// Pentominoes
	{Name: "F", Kind: KindPolyomino, Color: core.ColorRed, Cells: []Cell{{1, 0}, {1, 1}, {2, 1}, {0, 2}, {1, 2}}},
	{Name: "I5", Kind: KindPolyomino, Color: core.ColorCyan, Cells: []Cell{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}},
	{Name: "L5", Kind: KindPolyomino, Color: core.ColorOrange, Cells: []Cell{{0, 0}, {1, 0}, {0, 1}, {0, 2}, {0, 3}}},
	{Name: "N", Kind: KindPolyomino, Color: core.ColorGreen, Cells: []Cell{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {1, 3}}},
	{Name: "P", Kind: KindPolyomino, Color: core.ColorMagenta, Cells: []Cell{{0, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}}},
	{Name: "T5", Kind: KindPolyomino, Color: core.ColorMagenta, Cells: []Cell{{1, 0}, {1, 1}, {0, 2}, {1, 2}, {2, 2}}},
	{Name: "U", Kind: KindPolyomino, Color: core.ColorYellow, Cells: []Cell{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {2, 1}}},
	{Name: "V", Kind: KindPolyomino, Color: core.ColorBlue, Cells: []Cell{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {0, 2}}},
	{Name: "W", Kind: KindPolyomino, Color: core.ColorGreen, Cells: []Cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}, {2, 2}}},
	{Name: "X", Kind: KindPolyomino, Color: core.ColorRed, Cells: []Cell{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}}},
	{Name: "Y", Kind: KindPolyomino, Color: core.ColorYellow, Cells: []Cell{{1, 0}, {0, 1}, {1, 1}, {1, 2}, {1, 3}}},
	{Name: "Z5", Kind: KindPolyomino, Color: core.ColorRed, Cells: []Cell{{0, 0}, {1, 0}, {1, 1}, {1, 2}, {2, 2}}},
})

// Standard returns the built-in catalog.
func Standard() *Catalog {
	return standard
}
