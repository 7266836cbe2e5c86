package geometry

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// ReadPoints reads "x,y" rows. Rows with fewer than two fields or with
// non-numeric coordinates are skipped, so a header line is harmless.
// The number of skipped rows is returned alongside the points.
func ReadPoints(r io.Reader) (optimization.PointSet, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.LazyQuotes = true

	var (
		points  optimization.PointSet
		skipped int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		if len(rec) < 2 {
			skipped++
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errX != nil || errY != nil {
			skipped++
			continue
		}
		points = append(points, optimization.Point{X: x, Y: y})
	}
	return points, skipped, nil
}

// ReadRegion reads a vertex list and validates it as a convex region.
func ReadRegion(r io.Reader) (optimization.Region, error) {
	points, _, err := ReadPoints(r)
	if err != nil {
		return nil, err
	}
	region := optimization.Region(points)
	if err := ValidateRegion(region); err != nil {
		return nil, err
	}
	return region, nil
}

// WritePoints writes a header and one "x,y" row per point.
func WritePoints(w io.Writer, points optimization.PointSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{ftoa(p.X), ftoa(p.Y)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
