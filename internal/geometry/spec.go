package geometry

import (
	"fmt"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// Shape kinds accepted by Spec.
const (
	ShapePolygon   = "polygon"
	ShapeTriangle  = "triangle"
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
	ShapeEllipse   = "ellipse"
	ShapeRegular   = "regular"
)

// Transform kinds accepted by Spec.
const (
	TransformScale     = "scale"
	TransformRotate    = "rotate"
	TransformTranslate = "translate"
	TransformShear     = "shear"
)

// Spec is a declarative region description, as received over the API or
// from the command line.
type Spec struct {
	Type string `json:"type"`

	// Vertices lists the boundary of a polygon or triangle.
	Vertices []optimization.Point `json:"vertices,omitempty"`
	// Corners holds two diagonal corners of a rectangle.
	Corners []optimization.Point `json:"corners,omitempty"`

	Center    optimization.Point `json:"center"`
	Radius    float64            `json:"radius,omitempty"`
	SemiMajor float64            `json:"semi_major,omitempty"`
	SemiMinor float64            `json:"semi_minor,omitempty"`
	// Sides is the vertex count of a regular polygon, or of the curve
	// approximation for circles and ellipses.
	Sides int `json:"sides,omitempty"`

	// Transforms are applied in order after the shape is built.
	Transforms []Transform `json:"transforms,omitempty"`
}

// Transform is one affine step.
type Transform struct {
	Type string `json:"type"`

	Factor float64 `json:"factor,omitempty"`
	Angle  float64 `json:"angle,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	SX     float64 `json:"sx,omitempty"`
	SY     float64 `json:"sy,omitempty"`
}

// Build constructs the region, applies the transforms and validates the
// result. Every failure is an ErrInvalidRegion error.
func (s Spec) Build() (optimization.Region, error) {
	region, err := s.shape()
	if err != nil {
		return nil, err
	}
	for i, t := range s.Transforms {
		region, err = t.Apply(region)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "transform %d", i)
		}
	}
	if err := ValidateRegion(region); err != nil {
		return nil, err
	}
	return region, nil
}

func (s Spec) shape() (optimization.Region, error) {
	switch s.Type {
	case ShapePolygon, "":
		return optimization.Region(s.Vertices).Clone(), nil
	case ShapeTriangle:
		if len(s.Vertices) != 3 {
			return nil, optimization.NewInvalidRegionError("triangle needs 3 vertices, got %d", len(s.Vertices))
		}
		return optimization.Region(s.Vertices).Clone(), nil
	case ShapeRectangle:
		if len(s.Corners) != 2 {
			return nil, optimization.NewInvalidRegionError("rectangle needs 2 corners, got %d", len(s.Corners))
		}
		return Rectangle(s.Corners[0], s.Corners[1])
	case ShapeCircle:
		return Circle(s.Center, s.Radius, s.Sides)
	case ShapeEllipse:
		return Ellipse(s.Center, s.SemiMajor, s.SemiMinor, s.Sides)
	case ShapeRegular:
		return RegularPolygon(s.Sides, s.Radius, s.Center)
	default:
		return nil, optimization.NewInvalidRegionError("unknown shape %q", s.Type)
	}
}

// Apply returns the transformed region.
func (t Transform) Apply(region optimization.Region) (optimization.Region, error) {
	switch t.Type {
	case TransformScale:
		return Scale(region, t.Factor)
	case TransformRotate:
		return Rotate(region, t.Angle), nil
	case TransformTranslate:
		return Translate(region, t.DX, t.DY), nil
	case TransformShear:
		return Shear(region, t.SX, t.SY), nil
	default:
		return nil, optimization.NewInvalidRegionError("unknown transform %q", t.Type)
	}
}

// String implements fmt.Stringer.
func (t Transform) String() string {
	switch t.Type {
	case TransformScale:
		return fmt.Sprintf("scale(%g)", t.Factor)
	case TransformRotate:
		return fmt.Sprintf("rotate(%g°)", t.Angle)
	case TransformTranslate:
		return fmt.Sprintf("translate(%g, %g)", t.DX, t.DY)
	case TransformShear:
		return fmt.Sprintf("shear(%g, %g)", t.SX, t.SY)
	default:
		return t.Type
	}
}
