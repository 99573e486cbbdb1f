package levels

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// YAMLLevel represents the YAML structure for a level file.
type YAMLLevel struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	EndText string      `yaml:"end_text,omitempty"`
	Stages  []YAMLStage `yaml:"stages"`
}

// YAMLStage represents one stage.
type YAMLStage struct {
	Text    string       `yaml:"text,omitempty"`
	Gravity *YAMLVec     `yaml:"gravity,omitempty"`
	Shapes  []YAMLShape  `yaml:"shapes,omitempty"`
	Updates []YAMLUpdate `yaml:"updates,omitempty"`
}

// YAMLVec is a 2D vector.
type YAMLVec struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

// YAMLLocation is a position plus an angle in degrees.
type YAMLLocation struct {
	X     float32 `yaml:"x"`
	Y     float32 `yaml:"y"`
	Angle float32 `yaml:"angle,omitempty"` // degrees
}

// YAMLVelocity is a linear plus angular velocity.
type YAMLVelocity struct {
	X       float32 `yaml:"x"`
	Y       float32 `yaml:"y"`
	Angular float32 `yaml:"angular,omitempty"`
}

// YAMLShape declares a shape to create.
type YAMLShape struct {
	Shape     string        `yaml:"shape"`
	State     string        `yaml:"state,omitempty"`
	Modifiers string        `yaml:"modifiers,omitempty"`
	Location  *YAMLLocation `yaml:"location,omitempty"`
	Velocity  *YAMLVelocity `yaml:"velocity,omitempty"`
	Color     string        `yaml:"color,omitempty"`
	ID        *uint32       `yaml:"id,omitempty"`
}

// YAMLUpdate patches a shape created by this or an earlier stage.
type YAMLUpdate struct {
	ID        uint32        `yaml:"id"`
	Shape     string        `yaml:"shape,omitempty"`
	State     string        `yaml:"state,omitempty"`
	Modifiers string        `yaml:"modifiers,omitempty"`
	Location  *YAMLLocation `yaml:"location,omitempty"`
	Velocity  *YAMLVelocity `yaml:"velocity,omitempty"`
	Color     string        `yaml:"color,omitempty"`
}

// ParseYAML parses a YAML level file, resolving shape names against cat.
func ParseYAML(data []byte, cat *shapes.Catalog) (Level, error) {
	var yl YAMLLevel
	if err := yaml.Unmarshal(data, &yl); err != nil {
		return Level{}, fmt.Errorf("yaml unmarshal: %w", err)
	}

	level := Level{
		ID:      yl.ID,
		Name:    yl.Name,
		EndText: yl.EndText,
		Stages:  make([]Stage, len(yl.Stages)),
	}

	for i, ys := range yl.Stages {
		stage := Stage{Text: ys.Text}
		if ys.Gravity != nil {
			g := core.V(ys.Gravity.X, ys.Gravity.Y)
			stage.Gravity = &g
		}

		for j, s := range ys.Shapes {
			c, err := s.creation(cat, i)
			if err != nil {
				return Level{}, fmt.Errorf("stage %d shape %d: %w", i, j, err)
			}
			stage.Shapes = append(stage.Shapes, c)
		}
		for j, u := range ys.Updates {
			upd, err := u.update(cat, i)
			if err != nil {
				return Level{}, fmt.Errorf("stage %d update %d: %w", i, j, err)
			}
			stage.Updates = append(stage.Updates, upd)
		}
		level.Stages[i] = stage
	}

	if err := Validate(&level); err != nil {
		return Level{}, err
	}
	return level, nil
}

func (s YAMLShape) creation(cat *shapes.Catalog, stage int) (shapes.ShapeCreationData, error) {
	idx, ok := cat.Lookup(s.Shape)
	if !ok {
		return shapes.ShapeCreationData{}, fmt.Errorf("unknown shape %q", s.Shape)
	}
	state, err := shapes.ParseState(s.State)
	if err != nil {
		return shapes.ShapeCreationData{}, err
	}
	mods, err := shapes.ParseModifiers(s.Modifiers)
	if err != nil {
		return shapes.ShapeCreationData{}, err
	}
	color, err := parseColor(s.Color)
	if err != nil {
		return shapes.ShapeCreationData{}, err
	}

	c := shapes.ShapeCreationData{
		Shape:     idx,
		State:     state,
		Modifiers: mods,
		Location:  s.Location.location(),
		Velocity:  s.Velocity.velocity(),
		Color:     color,
		Stage:     stage,
	}
	if s.ID != nil {
		id := *s.ID
		c.ID = &id
	}
	return c, nil
}

func (u YAMLUpdate) update(cat *shapes.Catalog, stage int) (shapes.ShapeUpdateData, error) {
	upd := shapes.ShapeUpdateData{
		ID:       u.ID,
		Location: u.Location.location(),
		Velocity: u.Velocity.velocity(),
		Stage:    stage,
	}
	if u.Shape != "" {
		idx, ok := cat.Lookup(u.Shape)
		if !ok {
			return upd, fmt.Errorf("unknown shape %q", u.Shape)
		}
		upd.Shape = &idx
	}
	if u.State != "" {
		state, err := shapes.ParseState(u.State)
		if err != nil {
			return upd, err
		}
		upd.State = &state
	}
	if u.Modifiers != "" {
		mods, err := shapes.ParseModifiers(u.Modifiers)
		if err != nil {
			return upd, err
		}
		upd.Modifiers = &mods
	}
	color, err := parseColor(u.Color)
	if err != nil {
		return upd, err
	}
	upd.Color = color
	return upd, nil
}

func (l *YAMLLocation) location() *shapes.Location {
	if l == nil {
		return nil
	}
	return &shapes.Location{
		Position: core.V(l.X, l.Y),
		Angle:    core.NormalizeAngle(l.Angle * core.TwoPi / 360),
	}
}

func (v *YAMLVelocity) velocity() *shapes.Velocity {
	if v == nil {
		return nil
	}
	return &shapes.Velocity{Linear: core.V(v.X, v.Y), Angular: v.Angular}
}

func parseColor(s string) (*core.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, ok := core.ParseColor(s)
	if !ok {
		return nil, fmt.Errorf("unknown color %q", s)
	}
	return &c, nil
}

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".yaml", ".yml"}
}
