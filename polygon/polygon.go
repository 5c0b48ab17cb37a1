/*
Package polygon implements closed polygons with straight edges.

Polygons are built knot by knot, in the same builder style as paths:

	pg := NullPolygon().Knot(P(0,0)).Knot(P(1,3)).Knot(P(3,0)).Cycle()

Boolean operations, containment tests and bounding boxes are delegated to
polyclip-go, an implementation of the Martinez-Rueda clipping algorithm.
In this module polygons serve as a lightweight view of the ring of a blob,
for location queries and overlap diagnostics.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package polygon

import (
	"bytes"
	"fmt"
	"math"

	"github.com/akavel/polyclip-go"
	"github.com/npillmayer/blobsim"
	"github.com/npillmayer/schuko/tracing"
)

// L traces with key 'blobsim.polygon'.
func L() tracing.Trace {
	return tracing.Select("blobsim.polygon")
}

// Polygon is a closed sequence of knots connected by straight lines.
type Polygon struct {
	knots  []blobsim.Pair
	cyclic bool
}

// NullPolygon creates an empty polygon, ready to receive knots.
func NullPolygon() *Polygon {
	return &Polygon{knots: make([]blobsim.Pair, 0, 4)}
}

// FromPairs creates a closed polygon from a list of knots.
func FromPairs(pts []blobsim.Pair) *Polygon {
	pg := NullPolygon()
	pg.knots = append(pg.knots, pts...)
	return pg.Cycle()
}

// Knot appends a knot. Appending to a closed polygon is a programming error.
func (pg *Polygon) Knot(p blobsim.Pair) *Polygon {
	if pg.cyclic {
		panic("cannot add knot to closed polygon")
	}
	pg.knots = append(pg.knots, p)
	return pg
}

// Cycle closes the polygon.
func (pg *Polygon) Cycle() *Polygon {
	pg.cyclic = true
	return pg
}

// IsCycle tells whether the polygon is closed.
func (pg *Polygon) IsCycle() bool {
	return pg.cyclic
}

// N is the number of knots.
func (pg *Polygon) N() int {
	return len(pg.knots)
}

// Pt returns knot i, modulo N.
func (pg *Polygon) Pt(i int) blobsim.Pair {
	n := len(pg.knots)
	return pg.knots[((i%n)+n)%n]
}

// Box creates a rectangle from two opposite corners.
func Box(p1, p2 blobsim.Pair) *Polygon {
	x0, x1 := math.Min(p1.X(), p2.X()), math.Max(p1.X(), p2.X())
	y0, y1 := math.Min(p1.Y(), p2.Y()), math.Max(p1.Y(), p2.Y())
	return NullPolygon().Knot(blobsim.P(x0, y0)).Knot(blobsim.P(x1, y0)).
		Knot(blobsim.P(x1, y1)).Knot(blobsim.P(x0, y1)).Cycle()
}

// AsString returns a MetaPost-like notation of a polygon.
func AsString(pg *Polygon) string {
	var s bytes.Buffer
	for i, k := range pg.knots {
		if i > 0 {
			s.WriteString("--")
		}
		fmt.Fprintf(&s, "(%.4g,%.4g)", k.X(), k.Y())
	}
	if pg.cyclic {
		s.WriteString("--cycle")
	}
	return s.String()
}

// SignedArea is the area of the polygon, positive for clockwise knots
// (screen coordinates, y down).
func (pg *Polygon) SignedArea() float64 {
	return blobsim.SignedArea(pg.knots)
}

// Area is the absolute area of the polygon.
func (pg *Polygon) Area() float64 {
	return math.Abs(pg.SignedArea())
}

// === polyclip adapter ======================================================

func (pg *Polygon) contour() polyclip.Contour {
	c := make(polyclip.Contour, 0, len(pg.knots))
	for _, k := range pg.knots {
		c.Add(polyclip.Point{X: k.X(), Y: k.Y()})
	}
	return c
}

func (pg *Polygon) clip() polyclip.Polygon {
	return polyclip.Polygon{pg.contour()}
}

func fromContour(c polyclip.Contour) *Polygon {
	pg := NullPolygon()
	for _, p := range c {
		pg.knots = append(pg.knots, blobsim.P(p.X, p.Y))
	}
	return pg.Cycle()
}

// Contains tells whether p lies inside the polygon.
func (pg *Polygon) Contains(p blobsim.Pair) bool {
	if len(pg.knots) < 3 {
		return false
	}
	return pg.contour().Contains(polyclip.Point{X: p.X(), Y: p.Y()})
}

// BoundingBox returns the top-left and bottom-right corners of the smallest
// axis-parallel rectangle enclosing the polygon.
func (pg *Polygon) BoundingBox() (blobsim.Pair, blobsim.Pair) {
	if len(pg.knots) == 0 {
		return blobsim.Origin, blobsim.Origin
	}
	r := pg.contour().BoundingBox()
	return blobsim.P(r.Min.X, r.Min.Y), blobsim.P(r.Max.X, r.Max.Y)
}

// Overlaps tells whether the bounding boxes of two polygons overlap.
func (pg *Polygon) Overlaps(other *Polygon) bool {
	if pg.N() == 0 || other.N() == 0 {
		return false
	}
	return pg.contour().BoundingBox().Overlaps(other.contour().BoundingBox())
}

// Intersection returns the regions covered by both polygons.
func (pg *Polygon) Intersection(other *Polygon) []*Polygon {
	if pg.N() < 3 || other.N() < 3 {
		return nil
	}
	result := pg.clip().Construct(polyclip.INTERSECTION, other.clip())
	r := make([]*Polygon, 0, len(result))
	for _, c := range result {
		r = append(r, fromContour(c))
	}
	L().Debugf("clipping %d×%d knots gives %d contours", pg.N(), other.N(), len(r))
	return r
}

// IntersectionArea is the area covered by both polygons.
func (pg *Polygon) IntersectionArea(other *Polygon) float64 {
	var a float64
	for _, c := range pg.Intersection(other) {
		a += c.Area()
	}
	return a
}
