// Package domain contains entity without logic, just meta-data
package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ShapeKind string

const (
	KindRect   ShapeKind = "rect"
	KindCircle ShapeKind = "circle"
	KindArrow  ShapeKind = "arrow"
	KindText   ShapeKind = "text"

	// kindPencil is the legacy wire tag for KindArrow. Accepted on
	// decode only, never emitted.
	kindPencil ShapeKind = "pencil"
)

var ErrUnknownShape = errors.New("unknown shape kind")

// Shape is a tagged variant. Kind selects which field group is
// meaningful; the rest stay zero. ID is optional: producers that set it
// get identifier-keyed deletion, producers that leave it empty fall back
// to structural equality.
type Shape struct {
	ID   string
	Kind ShapeKind

	// rect
	X, Y, Width, Height float64

	// circle
	CenterX, CenterY, Radius float64

	// arrow
	StartX, StartY, EndX, EndY float64

	// text
	Value string
}

func NewRect(x, y, width, height float64) Shape {
	return Shape{ID: uuid.NewString(), Kind: KindRect, X: x, Y: y, Width: width, Height: height}
}

func NewCircle(centerX, centerY, radius float64) Shape {
	return Shape{ID: uuid.NewString(), Kind: KindCircle, CenterX: centerX, CenterY: centerY, Radius: radius}
}

func NewArrow(startX, startY, endX, endY float64) Shape {
	return Shape{ID: uuid.NewString(), Kind: KindArrow, StartX: startX, StartY: startY, EndX: endX, EndY: endY}
}

func NewText(x, y float64, value string) Shape {
	return Shape{ID: uuid.NewString(), Kind: KindText, X: x, Y: y, Value: value}
}

// StructuralEqual reports field-by-field equality of the variant data,
// ignoring ID. This is the deletion key of the legacy protocol.
func (s Shape) StructuralEqual(o Shape) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindRect:
		return s.X == o.X && s.Y == o.Y && s.Width == o.Width && s.Height == o.Height
	case KindCircle:
		return s.CenterX == o.CenterX && s.CenterY == o.CenterY && s.Radius == o.Radius
	case KindArrow:
		return s.StartX == o.StartX && s.StartY == o.StartY && s.EndX == o.EndX && s.EndY == o.EndY
	case KindText:
		return s.X == o.X && s.Y == o.Y && s.Value == o.Value
	}
	return false
}

type rectJSON struct {
	ID     string    `json:"id,omitempty"`
	Type   ShapeKind `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

type circleJSON struct {
	ID      string    `json:"id,omitempty"`
	Type    ShapeKind `json:"type"`
	CenterX float64   `json:"centerX"`
	CenterY float64   `json:"centerY"`
	Radius  float64   `json:"radius"`
}

type arrowJSON struct {
	ID     string    `json:"id,omitempty"`
	Type   ShapeKind `json:"type"`
	StartX float64   `json:"startX"`
	StartY float64   `json:"startY"`
	EndX   float64   `json:"endX"`
	EndY   float64   `json:"endY"`
}

type textJSON struct {
	ID    string    `json:"id,omitempty"`
	Type  ShapeKind `json:"type"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Value string    `json:"value"`
}

func (s Shape) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindRect:
		return json.Marshal(rectJSON{ID: s.ID, Type: KindRect, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	case KindCircle:
		return json.Marshal(circleJSON{ID: s.ID, Type: KindCircle, CenterX: s.CenterX, CenterY: s.CenterY, Radius: s.Radius})
	case KindArrow:
		return json.Marshal(arrowJSON{ID: s.ID, Type: KindArrow, StartX: s.StartX, StartY: s.StartY, EndX: s.EndX, EndY: s.EndY})
	case KindText:
		return json.Marshal(textJSON{ID: s.ID, Type: KindText, X: s.X, Y: s.Y, Value: s.Value})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShape, s.Kind)
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var probe struct {
		ID      string    `json:"id"`
		Type    ShapeKind `json:"type"`
		X       float64   `json:"x"`
		Y       float64   `json:"y"`
		Width   float64   `json:"width"`
		Height  float64   `json:"height"`
		CenterX float64   `json:"centerX"`
		CenterY float64   `json:"centerY"`
		Radius  float64   `json:"radius"`
		StartX  float64   `json:"startX"`
		StartY  float64   `json:"startY"`
		EndX    float64   `json:"endX"`
		EndY    float64   `json:"endY"`
		Value   string    `json:"value"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	kind := probe.Type
	if kind == kindPencil {
		kind = KindArrow
	}
	switch kind {
	case KindRect:
		*s = Shape{ID: probe.ID, Kind: KindRect, X: probe.X, Y: probe.Y, Width: probe.Width, Height: probe.Height}
	case KindCircle:
		*s = Shape{ID: probe.ID, Kind: KindCircle, CenterX: probe.CenterX, CenterY: probe.CenterY, Radius: probe.Radius}
	case KindArrow:
		*s = Shape{ID: probe.ID, Kind: KindArrow, StartX: probe.StartX, StartY: probe.StartY, EndX: probe.EndX, EndY: probe.EndY}
	case KindText:
		*s = Shape{ID: probe.ID, Kind: KindText, X: probe.X, Y: probe.Y, Value: probe.Value}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownShape, probe.Type)
	}
	return nil
}
