package geometry

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/disperse/internal/optimization"
)

func TestIsConvex(t *testing.T) {
	circle, err := Circle(optimization.Point{}, 1, 0)
	require.NoError(t, err)

	// A pentagram visits the vertices of a pentagon in steps of two.
	pentagon, err := RegularPolygon(5, 1, optimization.Point{})
	require.NoError(t, err)
	pentagram := optimization.Region{pentagon[0], pentagon[2], pentagon[4], pentagon[1], pentagon[3]}

	tests := []struct {
		name   string
		region optimization.Region
		want   bool
	}{
		{"unit square", UnitSquare(), true},
		{"clockwise square", optimization.Region{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}, true},
		{"triangle", optimization.Region{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 1}}, true},
		{"collinear vertex", optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}, true},
		{"repeated vertex", optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}, true},
		{"circle", circle, true},
		{"concave", optimization.Region{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0.5}, {X: 2, Y: 2}, {X: 0, Y: 2}}, false},
		{"pentagram", pentagram, false},
		{"all collinear", optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, false},
		{"two vertices", optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConvex(tt.region))
		})
	}
}

func TestValidateRegion(t *testing.T) {
	assert.NoError(t, ValidateRegion(UnitSquare()))

	for name, region := range map[string]optimization.Region{
		"too small": {{X: 0, Y: 0}, {X: 1, Y: 0}},
		"nan":       {{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 0, Y: 1}},
		"concave":   {{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0.5}, {X: 2, Y: 2}, {X: 0, Y: 2}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateRegion(region), optimization.ErrInvalidRegion)
		})
	}
}

func TestShapes(t *testing.T) {
	rect, err := Rectangle(optimization.Point{X: 3, Y: 1}, optimization.Point{X: 0, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, optimization.Region{{X: 0, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 4}, {X: 0, Y: 4}}, rect)
	assert.InDelta(t, 9.0, Area(rect), 1e-12)

	_, err = Rectangle(optimization.Point{X: 1, Y: 1}, optimization.Point{X: 1, Y: 3})
	assert.ErrorIs(t, err, optimization.ErrInvalidRegion)

	circle, err := Circle(optimization.Point{X: 1, Y: 1}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, circle, CurveVertices)
	for _, v := range circle {
		assert.InDelta(t, 2.0, math.Hypot(v.X-1, v.Y-1), 1e-12)
	}
	assert.NoError(t, ValidateRegion(circle))

	ellipse, err := Ellipse(optimization.Point{}, 3, 1, 40)
	require.NoError(t, err)
	assert.Len(t, ellipse, 40)
	assert.InDelta(t, 3.0, ellipse[0].X, 1e-12)
	assert.NoError(t, ValidateRegion(ellipse))

	hexagon, err := RegularPolygon(6, 1, optimization.Point{})
	require.NoError(t, err)
	assert.Len(t, hexagon, 6)
	assert.InDelta(t, 3*math.Sqrt(3)/2, Area(hexagon), 1e-12)

	_, err = Circle(optimization.Point{}, 0, 0)
	assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
	_, err = RegularPolygon(2, 1, optimization.Point{})
	assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
}

func TestTransforms(t *testing.T) {
	square := UnitSquare()

	t.Run("scale about centroid", func(t *testing.T) {
		got, err := Scale(square, 2)
		require.NoError(t, err)
		assert.Equal(t, optimization.Region{{X: -0.5, Y: -0.5}, {X: 1.5, Y: -0.5}, {X: 1.5, Y: 1.5}, {X: -0.5, Y: 1.5}}, got)
		assert.Equal(t, Centroid(square), Centroid(got))

		_, err = Scale(square, 0)
		assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
	})

	t.Run("rotate quarter turn", func(t *testing.T) {
		got := Rotate(square, 90)
		assert.Equal(t, optimization.Region{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}, got)
	})

	t.Run("rotate keeps area", func(t *testing.T) {
		got := Rotate(square, 33)
		assert.InDelta(t, 1.0, Area(got), 1e-5)
		assert.True(t, IsConvex(got))
	})

	t.Run("translate", func(t *testing.T) {
		got := Translate(square, 2, -1)
		assert.Equal(t, optimization.Region{{X: 2, Y: -1}, {X: 3, Y: -1}, {X: 3, Y: 0}, {X: 2, Y: 0}}, got)
	})

	t.Run("shear", func(t *testing.T) {
		got := Shear(square, 1, 0)
		// x' = cx + (x-cx) + (y-cy); y' unchanged.
		assert.Equal(t, optimization.Region{{X: -0.5, Y: 0}, {X: 0.5, Y: 0}, {X: 1.5, Y: 1}, {X: 0.5, Y: 1}}, got)
		assert.InDelta(t, 1.0, Area(got), 1e-12)
	})

	t.Run("input untouched", func(t *testing.T) {
		Rotate(square, 45)
		assert.Equal(t, UnitSquare(), square)
	})
}

func TestSpecBuild(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantLen int
		wantErr bool
	}{
		{"polygon", `{"type":"polygon","vertices":[{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1},{"x":0,"y":1}]}`, 4, false},
		{"default type", `{"vertices":[{"x":0,"y":0},{"x":1,"y":0},{"x":0,"y":1}]}`, 3, false},
		{"triangle", `{"type":"triangle","vertices":[{"x":0,"y":0},{"x":1,"y":0},{"x":0,"y":1}]}`, 3, false},
		{"rectangle", `{"type":"rectangle","corners":[{"x":0,"y":0},{"x":2,"y":1}]}`, 4, false},
		{"circle", `{"type":"circle","center":{"x":0,"y":0},"radius":1}`, CurveVertices, false},
		{"ellipse", `{"type":"ellipse","semi_major":2,"semi_minor":1,"sides":50}`, 50, false},
		{"regular", `{"type":"regular","sides":7,"radius":1}`, 7, false},
		{"transformed", `{"type":"rectangle","corners":[{"x":0,"y":0},{"x":2,"y":1}],
			"transforms":[{"type":"rotate","angle":30},{"type":"scale","factor":0.5},{"type":"translate","dx":4,"dy":4},{"type":"shear","sx":0.2}]}`, 4, false},
		{"triangle with four vertices", `{"type":"triangle","vertices":[{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1},{"x":0,"y":1}]}`, 0, true},
		{"concave polygon", `{"type":"polygon","vertices":[{"x":0,"y":0},{"x":2,"y":0},{"x":1,"y":0.5},{"x":2,"y":2},{"x":0,"y":2}]}`, 0, true},
		{"unknown shape", `{"type":"blob"}`, 0, true},
		{"unknown transform", `{"type":"regular","sides":4,"radius":1,"transforms":[{"type":"warp"}]}`, 0, true},
		{"bad scale", `{"type":"regular","sides":4,"radius":1,"transforms":[{"type":"scale","factor":-1}]}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Spec
			require.NoError(t, json.Unmarshal([]byte(tt.json), &s))
			region, err := s.Build()
			if tt.wantErr {
				assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
				return
			}
			require.NoError(t, err)
			assert.Len(t, region, tt.wantLen)
			assert.True(t, IsConvex(region))
		})
	}
}

func TestReadPoints(t *testing.T) {
	input := "x,y\n0,0\n1, 0\n# comment\nbad,row\n1,1,extra\n5\n0,1\n"
	points, skipped, err := ReadPoints(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, optimization.PointSet{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, points)
	assert.Equal(t, 3, skipped)
}

func TestReadRegion(t *testing.T) {
	region, err := ReadRegion(strings.NewReader("0,0\n1,0\n1,1\n0,1\n"))
	require.NoError(t, err)
	assert.Len(t, region, 4)

	_, err = ReadRegion(strings.NewReader("0,0\n1,0\n"))
	assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
}

func TestWritePointsRoundTrip(t *testing.T) {
	points := optimization.PointSet{{X: 0.125, Y: -3}, {X: 1e-7, Y: 42}}

	var buf bytes.Buffer
	require.NoError(t, WritePoints(&buf, points))
	assert.Equal(t, "x,y\n0.125,-3\n0.0000001,42\n", buf.String())

	back, skipped, err := ReadPoints(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, points, back)
}
