package spawn

import (
	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/physics"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// Field describes the play field around the tower.
type Field struct {
	Width  float32
	Height float32
	// TableWidth is the width of the solid ledge shapes rest on.
	TableWidth float32
	// TableTop is the y coordinate of the ledge surface.
	TableTop       float32
	WallThickness  float32
	DropGap        float32 // gap between the tower top and a placed shape
	Jitter         float32 // max horizontal offset of a placed shape
	Snow           int     // decorative flakes
	RestSpeed      float32 // shapes slower than this are at rest
	OutOfFieldDrop float32 // shapes below -Height/2 - OutOfFieldDrop are removed
}

// DefaultField returns a field matching the codec's world bounds.
func DefaultField() Field {
	return Field{
		Width:          1920,
		Height:         1080,
		TableWidth:     600,
		TableTop:       -500,
		WallThickness:  20,
		DropGap:        40,
		Jitter:         shapes.Size / 4,
		RestSpeed:      2,
		OutOfFieldDrop: 200,
	}
}

// boundary returns the solid table plus the void sensors framing the field.
// Snow only sees GroupWalls, so it falls past the table.
func (f Field) boundary() []physics.Body {
	hw, hh, t := f.Width/2, f.Height/2, f.WallThickness/2

	table := physics.Body{
		Kind:     physics.Static,
		Group:    physics.GroupTable,
		Position: core.V(0, f.TableTop-t),
		Collider: physics.Box(core.V(f.TableWidth/2, t)),
		Friction: physics.DefaultFriction,
	}
	sensor := func(pos, half core.Vec2) physics.Body {
		return physics.Body{
			Kind:     physics.Sensor,
			Group:    physics.GroupWalls,
			Position: pos,
			Collider: physics.Box(half),
			Events:   true,
		}
	}

	return []physics.Body{
		table,
		sensor(core.V(0, -hh-t), core.V(hw+f.WallThickness, t)), // floor
		sensor(core.V(-hw-t, 0), core.V(t, hh)),                 // left
		sensor(core.V(hw+t, 0), core.V(t, hh)),                  // right
	}
}
