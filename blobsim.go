/*
Package blobsim maintains a planar subdivision of 2D regions ("blobs") which
share their boundary edges, and evolves it under geometric constraints.

This root package holds the numeric helpers and the vector type every
other package works with. The topology engine lives in package topo, the
face tracer for raw point connectivity in package planar, and the
simulation step in package sim.

The vertical axis is screen-down: y grows downwards. Signed areas and
orientation predicates throughout the module follow this convention.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package blobsim

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'blobsim'
func tracer() tracing.Trace {
	return tracing.Select("blobsim")
}

// === Numeric Data Type =====================================================

// Epsilon : numbers below ε are considered 0
var Epsilon float64 = 0.0000001

// Is0 is a predicate: is n = 0 ?
func Is0(n float64) bool {
	return math.Abs(n) <= Epsilon
}

// Is1 is a predicate: is n = 1.0 ?
func Is1(n float64) bool {
	return math.Abs(1-n) <= Epsilon
}

// Zap makes n = 0 if n "means" to be zero
func Zap(n float64) float64 {
	if Is0(n) {
		n = 0
	}
	return n
}

// Round to ε.
func Round(n float64) float64 {
	return math.Round(n/Epsilon) * Epsilon
}

// Clamp restricts n to [lo,hi].
func Clamp(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// === Pair Data Type ========================================================

// Pair is a 2D point or vector. Positions, offsets and directions all use it.
type Pair complex128

// Origin represents the frequently used constant (0,0).
var Origin = P(float64(0), float64(0))

// Pretty Stringer for simple pairs.
func (p Pair) String() string {
	return fmt.Sprintf("(%g,%g)", real(p), imag(p))
}

// C returns a Pair as a complex number.
func (p Pair) C() complex128 {
	return complex128(p)
}

// C2P returns a Pair from a complex number.
func C2P(c complex128) Pair {
	if cmplx.IsNaN(c) || cmplx.IsInf(c) {
		tracer().Errorf("created pair for complex.NaN")
		return P(0, 0)
	}
	return P(real(c), imag(c))
}

// P is a quick notation for contructing a pair from floats.
func P(x, y float64) Pair {
	return Pair(complex(x, y))
}

// F is a quick notation for getting float values from a pair.
func (p Pair) F() (float64, float64) {
	return real(p), imag(p)
}

// X is the x-part of a pair.
func (p Pair) X() float64 {
	return real(p)
}

// Y is the y-part of a pair.
func (p Pair) Y() float64 {
	return imag(p)
}

// Zap rounds x-part and y-part to Epsilon.
func (p Pair) Zap() Pair {
	return P(Zap(p.X()), Zap(p.Y()))
}

// IsOrigin is a predicate: is this pair origin?
func (p Pair) IsOrigin() bool {
	return p.Equal(Origin)
}

// Equal compares two pairs.
func (p Pair) Equal(p2 Pair) bool {
	p2 = p2.Zap()
	return Is0(p.X()-p2.X()) && Is0(p.Y()-p2.Y())
}

// Near compares two pairs with an explicit tolerance.
func (p Pair) Near(p2 Pair, tol float64) bool {
	return math.Abs(p.X()-p2.X()) <= tol && math.Abs(p.Y()-p2.Y()) <= tol
}

// Scaled returns a new pair scaled by factor a.
func (p Pair) Scaled(a float64) Pair {
	return P(p.X()*a, p.Y()*a).Zap()
}

// === Vector Algebra ========================================================

// Length is the euclidean norm of p.
func (p Pair) Length() float64 {
	return cmplx.Abs(complex128(p))
}

// LengthSquared avoids the square root where only comparisons are needed.
func (p Pair) LengthSquared() float64 {
	return p.X()*p.X() + p.Y()*p.Y()
}

// Dist is the euclidean distance between p and q.
func (p Pair) Dist(q Pair) float64 {
	return (q - p).Length()
}

// DistSquared is the squared euclidean distance between p and q.
func (p Pair) DistSquared(q Pair) float64 {
	return (q - p).LengthSquared()
}

// Dot is the scalar product.
func (p Pair) Dot(q Pair) float64 {
	return p.X()*q.X() + p.Y()*q.Y()
}

// Cross is the z-component of the cross product, x1*y2 - x2*y1.
func (p Pair) Cross(q Pair) float64 {
	return p.X()*q.Y() - q.X()*p.Y()
}

// Unit returns p normalized to length 1. The zero vector stays zero.
func (p Pair) Unit() Pair {
	l := p.Length()
	if l < Epsilon {
		return Origin
	}
	return P(p.X()/l, p.Y()/l)
}

// ScaledToLength returns a vector with the direction of p and length l.
// A negative l flips the direction. The zero vector cannot be scaled and
// is returned unchanged.
func (p Pair) ScaledToLength(l float64) Pair {
	u := p.Unit()
	return P(u.X()*l, u.Y()*l)
}

// Lerp interpolates between p (t=0) and q (t=1).
func (p Pair) Lerp(q Pair, t float64) Pair {
	return P(Lerp(p.X(), q.X(), t), Lerp(p.Y(), q.Y(), t))
}

// RightNormal turns p a right angle to the right, as seen on a screen with
// a downward y axis: (x,y) → (-y,x).
func (p Pair) RightNormal() Pair {
	return P(-p.Y(), p.X())
}

// Angle is the direction of p, normalized to [0,2π).
func (p Pair) Angle() float64 {
	a := math.Atan2(p.Y(), p.X())
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// ShoelaceSum is Σ(x1*y2 - x2*y1) over the closed ring pts.
// With a downward y axis a positive sum means clockwise on screen.
func ShoelaceSum(pts []Pair) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.Cross(q)
	}
	return sum
}

// SignedArea is half the shoelace sum of the closed ring pts.
func SignedArea(pts []Pair) float64 {
	return ShoelaceSum(pts) / 2
}
