package blobsim

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestNumericBasic(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	a := 0.000000008
	if !Is0(a) {
		t.Errorf("Expected a to be zero, is not")
	}
	assert.Equal(t, 2.0, Clamp(5, 0, 2))
	assert.Equal(t, 0.0, Clamp(-1, 0, 2))
	assert.InDelta(t, 750.0, Lerp(500, 1000, 0.5), 1e-9)
}

func TestPairBasic(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := P(3, 2)
	q := P(-3, -2)
	r := p + q
	if !r.IsOrigin() {
		t.Errorf("Expected p + q to be (0,0), is %v", r)
	}
}

func TestVectorAlgebra(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	v := P(3, 4)
	assert.InDelta(t, 5.0, v.Length(), 1e-9)
	assert.InDelta(t, 25.0, v.LengthSquared(), 1e-9)
	assert.InDelta(t, 5.0, Origin.Dist(v), 1e-9)
	assert.InDelta(t, 11.0, v.Dot(P(1, 2)), 1e-9)
	assert.InDelta(t, 2.0, v.Cross(P(1, 2)), 1e-9)
	assert.True(t, v.Unit().Equal(P(0.6, 0.8)))
	assert.True(t, v.ScaledToLength(-10).Equal(P(-6, -8)))
	assert.True(t, Origin.ScaledToLength(3).IsOrigin(), "zero vector must not be scaled")
	assert.True(t, P(0, 0).Lerp(P(10, 20), 0.25).Equal(P(2.5, 5)))
	// screen-down: heading east, the right hand side is south (+y)
	assert.True(t, P(1, 0).RightNormal().Equal(P(0, 1)))
	assert.True(t, P(1, -2).RightNormal().Equal(P(2, 1)))
}

func TestAngleIsNormalized(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	assert.InDelta(t, 0.0, P(1, 0).Angle(), 1e-9)
	assert.InDelta(t, math.Pi/2, P(0, 1).Angle(), 1e-9)
	assert.InDelta(t, 3*math.Pi/2, P(0, -1).Angle(), 1e-9)
	assert.InDelta(t, math.Pi, P(-1, 0).Angle(), 1e-9)
}

func TestShoelace(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	// right, down, left: clockwise on screen
	square := []Pair{P(0, 0), P(1, 0), P(1, 1), P(0, 1)}
	assert.InDelta(t, 1.0, SignedArea(square), 1e-9)
	rev := []Pair{P(0, 1), P(1, 1), P(1, 0), P(0, 0)}
	assert.InDelta(t, -1.0, SignedArea(rev), 1e-9)
	assert.InDelta(t, -2.0, ShoelaceSum(rev), 1e-9)
}
