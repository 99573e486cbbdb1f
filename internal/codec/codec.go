// Package codec packs placed shapes into fixed-width 6-byte records.
//
// Record layout:
//
//	byte 0     shape index * 2 + lock bit
//	bytes 1-2  x as a big-endian uint16 fraction of the world width
//	bytes 3-4  y as a big-endian uint16 fraction of the world height
//	byte 5     angle in 1/240ths of a turn
//
// Fixed-size records give O(1) access to any shape in a blob.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/shapes"
)

// RecordSize is the number of bytes per encoded shape.
const RecordSize = 6

// AngleSteps is the number of discrete rotations in a full turn.
const AngleSteps = 240

// Default world bounds used by the share codes.
const (
	MaxWidth  float32 = 1920
	MaxHeight float32 = 1080
)

// ErrInvalidLength is returned when a buffer is not a whole number of records.
var ErrInvalidLength = errors.New("codec: length is not a multiple of 6")

// FixedShape is one decoded record.
type FixedShape struct {
	Shape    shapes.ShapeIndex
	Location shapes.Location
	Locked   bool
}

// State returns the shape state implied by the lock bit.
func (f FixedShape) State() shapes.ShapeState {
	if f.Locked {
		return shapes.StateLocked
	}
	return shapes.StateNormal
}

// Encodable converts the record into an EncodableShape with default modifiers.
func (f FixedShape) Encodable() shapes.EncodableShape {
	return shapes.EncodableShape{
		Shape:    f.Shape,
		Location: f.Location,
		State:    f.State(),
	}
}

// Codec encodes and decodes records against a catalog and world bounds.
type Codec struct {
	catalog *shapes.Catalog
	xRange  core.Range
	yRange  core.Range
}

// New creates a codec for a world of the given size, centred on the origin.
func New(cat *shapes.Catalog, width, height float32) *Codec {
	return &Codec{
		catalog: cat,
		xRange:  core.Range{Min: -width / 2, Max: width / 2},
		yRange:  core.Range{Min: -height / 2, Max: height / 2},
	}
}

// Default returns a codec over the standard catalog and default bounds.
func Default() *Codec {
	return New(shapes.Standard(), MaxWidth, MaxHeight)
}

// Encode packs shapes into records. It never fails: positions are clamped to
// the world bounds and angles normalised.
func (c *Codec) Encode(items []FixedShape) []byte {
	out := make([]byte, len(items)*RecordSize)
	for i, item := range items {
		c.put(out[i*RecordSize:(i+1)*RecordSize], item)
	}
	return out
}

// EncodeShapes packs a ShapesVec. Only the lock bit of the state survives:
// Locked and Fixed shapes encode as locked, everything else as free.
func (c *Codec) EncodeShapes(v shapes.ShapesVec) []byte {
	items := make([]FixedShape, len(v))
	for i, s := range v {
		items[i] = FixedShape{Shape: s.Shape, Location: s.Location, Locked: s.State.Immobile()}
	}
	return c.Encode(items)
}

func (c *Codec) put(rec []byte, item FixedShape) {
	first := byte(item.Shape) * 2
	if item.Locked {
		first++
	}
	rec[0] = first
	binary.BigEndian.PutUint16(rec[1:3], quantize(item.Location.Position.X, c.xRange))
	binary.BigEndian.PutUint16(rec[3:5], quantize(item.Location.Position.Y, c.yRange))
	rec[5] = encodeAngle(item.Location.Angle)
}

// Decode unpacks every record. It panics if len(data) is not a multiple of
// RecordSize; only decode bytes produced by Encode or of verified length.
func (c *Codec) Decode(data []byte) []FixedShape {
	if len(data)%RecordSize != 0 {
		panic(fmt.Sprintf("codec: cannot decode %d bytes", len(data)))
	}
	out := make([]FixedShape, len(data)/RecordSize)
	for i := range out {
		out[i] = c.DecodeAt(data, i)
	}
	return out
}

// Len returns the number of whole records in data.
func Len(data []byte) int {
	return len(data) / RecordSize
}

// DecodeAt unpacks record i without touching the others.
func (c *Codec) DecodeAt(data []byte, i int) FixedShape {
	rec := data[i*RecordSize : (i+1)*RecordSize]
	// Stale indices from an older catalog wrap rather than fail.
	index := int(rec[0]/2) % c.catalog.Len()
	return FixedShape{
		Shape:  shapes.ShapeIndex(index),
		Locked: rec[0]%2 == 1,
		Location: shapes.Location{
			Position: core.V(
				dequantize(binary.BigEndian.Uint16(rec[1:3]), c.xRange),
				dequantize(binary.BigEndian.Uint16(rec[3:5]), c.yRange),
			),
			Angle: decodeAngle(rec[5]),
		},
	}
}

// EncodeString encodes shapes as an unpadded URL-safe base64 share code.
func (c *Codec) EncodeString(items []FixedShape) string {
	return base64.RawURLEncoding.EncodeToString(c.Encode(items))
}

// ShareCode encodes a ShapesVec as a share code.
func (c *Codec) ShareCode(v shapes.ShapesVec) string {
	return base64.RawURLEncoding.EncodeToString(c.EncodeShapes(v))
}

// DecodeString parses a share code. Unlike Decode it validates the length and
// returns an error instead of panicking.
func (c *Codec) DecodeString(code string) ([]FixedShape, error) {
	data, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return nil, fmt.Errorf("codec: invalid share code: %w", err)
	}
	if len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("%w (got %d bytes)", ErrInvalidLength, len(data))
	}
	return c.Decode(data), nil
}

// quantize maps v onto [0, 65535] across r, clamping outside values.
func quantize(v float32, r core.Range) uint16 {
	frac := (float64(r.Clamp(v)) - float64(r.Min)) / float64(r.Size())
	return uint16(math.Floor(frac * math.MaxUint16))
}

func dequantize(q uint16, r core.Range) float32 {
	return float32(float64(r.Min) + float64(q)/math.MaxUint16*float64(r.Size()))
}

func encodeAngle(angle float32) byte {
	a := float64(core.NormalizeAngle(angle))
	steps := int(math.Round(a * AngleSteps / core.TwoPi))
	return byte(steps % 256)
}

func decodeAngle(b byte) float32 {
	return core.NormalizeAngle(float32(float64(b) * core.TwoPi / AngleSteps))
}

// ToShapesVec converts decoded records into a ShapesVec.
func ToShapesVec(items []FixedShape) shapes.ShapesVec {
	out := make(shapes.ShapesVec, len(items))
	for i, item := range items {
		out[i] = item.Encodable()
	}
	return out
}
