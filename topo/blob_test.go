package topo

import (
	"slices"
	"testing"

	"github.com/npillmayer/blobsim"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standardPointCount = 3 + 4 + 5 + 6 - 4

// standardBlob is a 100×100 square with chains of 3, 4, 5 and 6 points.
// The third chain runs against the loop.
//
//	p1 ---- c4 ---- p4
//	|                |
//	c1              c3
//	|                |
//	p2 ---- c2 ---- p3
func standardBlob(t *testing.T) (*Mesh, *Blob) {
	t.Helper()
	m := NewMesh()
	p1, p2 := m.NewPointXY(0, 0), m.NewPointXY(0, 100)
	p3, p4 := m.NewPointXY(100, 100), m.NewPointXY(100, 0)
	c1 := m.ChainBetween(p1, p2, 0, 3)
	c2 := m.ChainBetween(p2, p3, 0, 4)
	c3 := m.ChainBetween(p4, p3, 0, 5)
	c4 := m.ChainBetween(p4, p1, 0, 6)
	b, err := m.NewBlob([]*Chain{c1, c2, c3, c4})
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	return m, b
}

// unitSquare returns the chains (0,0)→(0,1)→(1,1)→(1,0)→(0,0).
func unitSquare(m *Mesh) []*Chain {
	p1, p2 := m.NewPointXY(0, 0), m.NewPointXY(0, 1)
	p3, p4 := m.NewPointXY(1, 1), m.NewPointXY(1, 0)
	return []*Chain{
		m.NewChain([]*Point{p1, p2}),
		m.NewChain([]*Point{p2, p3}),
		m.NewChain([]*Point{p3, p4}),
		m.NewChain([]*Point{p4, p1}),
	}
}

func pointIDs(b *Blob) []PointID {
	var ids []PointID
	for _, p := range b.Points() {
		ids = append(ids, p.ID())
	}
	return ids
}

func TestBlobPointCount(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	assert.Equal(t, standardPointCount, b.PointCount())
	sum := 0
	for _, c := range b.Chains() {
		sum += c.Len()
	}
	assert.Equal(t, sum-len(b.Chains()), b.PointCount())
	assert.Equal(t, []int{2, 5, 9, 14}, b.layout().ends)
}

func TestBlobIndexRoundTrip(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	for i := -standardPointCount; i < 2*standardPointCount; i++ {
		c, l := b.ChainAndLocalIndexAt(i)
		if c.Point(l) != b.PointAt(i) {
			t.Errorf("index %d does not round-trip via chain %d, local %d", i, c.ID(), l)
		}
		if b.PointAt(i) != b.PointAt(i+standardPointCount) {
			t.Errorf("index %d does not wrap", i)
		}
	}
	assert.True(t, b.PointAt(6).Co().Equal(blobsim.P(100, 75)))
	assert.True(t, b.PointAt(10).Co().Equal(blobsim.P(80, 0)))
	c, l := b.ChainAndLocalIndexAt(6)
	assert.Equal(t, b.Chains()[2], c)
	assert.Equal(t, 3, l)
}

func TestBlobIntersections(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	for i := range standardPointCount {
		want := slices.Contains([]int{0, 2, 5, 9}, i)
		assert.Equal(t, want, b.IsIntersectionAt(i), "index %d", i)
	}
	chains := b.Chains()
	before, after, err := b.ChainsAtIntersection(0)
	require.NoError(t, err)
	assert.Equal(t, chains[3], before)
	assert.Equal(t, chains[0], after)
	before, after, err = b.ChainsAtIntersection(5)
	require.NoError(t, err)
	assert.Equal(t, chains[1], before)
	assert.Equal(t, chains[2], after)
	_, _, err = b.ChainsAtIntersection(3)
	assert.ErrorIs(t, err, ErrNotIntersection)

	run, err := b.ChainsBetweenIntersections(2, 9)
	require.NoError(t, err)
	assert.Equal(t, chains[1:3], run)
	run, err = b.ChainsBetweenIntersections(9, 2)
	require.NoError(t, err)
	assert.Equal(t, []*Chain{chains[3], chains[0]}, run)
	_, err = b.ChainsBetweenIntersections(1, 5)
	assert.ErrorIs(t, err, ErrNotIntersection)
	_, err = b.ChainsBetweenIntersections(5, 5)
	assert.ErrorIs(t, err, ErrNotIntersection)
}

func TestBlobOrientation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMesh()
	sq := unitSquare(m)
	forward := m.MustBlob(sq...)
	assert.False(t, forward.IsClockwise())
	assert.InDelta(t, 1.0, forward.RecalculateArea(), 1e-9)
	reversed := slices.Clone(sq)
	slices.Reverse(reversed)
	backward := m.MustBlob(reversed...)
	assert.True(t, backward.IsClockwise())
	assert.InDelta(t, 1.0, backward.RecalculateArea(), 1e-9)
	assert.True(t, forward.Equal(backward))

	_, b := standardBlob(t)
	assert.False(t, b.IsClockwise())
	assert.InDelta(t, 100*100, b.Area(), 1e-6)
}

func TestInnerDirection(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMesh()
	b := m.MustBlob(unitSquare(m)...)
	assert.True(t, b.PointAt(1).Co().Equal(blobsim.P(0, 1)))
	assert.True(t, b.InnerDirection(1).Equal(blobsim.P(0.5, -0.5)), "inner direction is %v", b.InnerDirection(1))
}

func TestChainBackwards(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	chains := b.Chains()
	assert.False(t, b.IsChainBackwardsAt(0))
	assert.True(t, b.IsChainBackwardsAt(2))
	assert.False(t, b.IsChainBackwards(chains[1]))
	assert.True(t, b.IsChainBackwards(chains[2]))

	m := NewMesh()
	p1, p2, p3 := m.NewPointXY(0, 0), m.NewPointXY(0, 1), m.NewPointXY(1, 0)
	c1 := m.NewChain([]*Point{p2, p1, p3})
	c2 := m.NewChain([]*Point{p3, p2})
	mini := m.MustBlob(c1, c2)
	require.NoError(t, mini.Validate())
	assert.False(t, mini.IsChainBackwardsAt(0))
	assert.False(t, mini.IsChainBackwardsAt(1))

	c3 := m.NewChain([]*Point{p2, p3})
	small := m.MustBlob(c1, c3)
	assert.False(t, small.IsChainBackwardsAt(0))
	assert.True(t, small.IsChainBackwardsAt(1))
	tiny := m.MustBlob(c3, c1)
	assert.False(t, tiny.IsChainBackwardsAt(0))
	assert.True(t, tiny.IsChainBackwardsAt(1))
}

func TestInvalidChainLoop(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMesh()
	p1, p2, p3 := m.NewPointXY(0, 0), m.NewPointXY(1, 0), m.NewPointXY(1, 1)
	c1 := m.NewChain([]*Point{p1, p2})
	c2 := m.NewChain([]*Point{p2, p3})
	_, err := m.NewBlob([]*Chain{c1, c2})
	assert.ErrorIs(t, err, ErrInvalidTopology)
	_, err = m.NewBlob(nil)
	assert.ErrorIs(t, err, ErrEmptyLoop)
	_, err = m.NewBlob([]*Chain{c1})
	assert.ErrorIs(t, err, ErrOpenLoop)

	c3 := m.NewChain([]*Point{p1, p3})
	b, err := m.NewBlob([]*Chain{c1, c2, c3})
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	c1.left, c1.right = c1.right, c1.left
	assert.ErrorIs(t, b.Validate(), ErrInvalidTopology)
	c1.left, c1.right = NoBlob, NoBlob
	assert.Error(t, b.Validate())
}

func TestCutAt(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	for i := range standardPointCount {
		_, b := standardBlob(t)
		want := len(b.Chains())
		if !b.IsIntersectionAt(i) {
			want++
		}
		ids := pointIDs(b)
		prev, next, err := b.CutAt(i)
		require.NoError(t, err, "cut at %d", i)
		assert.Equal(t, standardPointCount, b.PointCount())
		assert.Equal(t, ids, pointIDs(b), "cut at %d changed the ring", i)
		assert.Len(t, b.Chains(), want)
		assert.True(t, b.IsIntersectionAt(i))
		common, ok := prev.CommonEndpoint(next)
		require.True(t, ok)
		assert.Equal(t, b.PointAt(i), common)
		before, after, err := b.ChainsAtIntersection(i)
		require.NoError(t, err)
		assert.Equal(t, prev, before)
		assert.Equal(t, next, after)
		assert.NoError(t, b.Validate(), "cut at %d", i)
	}
}

func TestCutAtSingleChainBlob(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMesh()
	p1, p2, p3 := m.NewPointXY(0, 0), m.NewPointXY(1, 0), m.NewPointXY(1, 1)
	c := m.NewChain([]*Point{p1, p2, p3, p1})
	b := m.MustBlob(c)
	require.NoError(t, b.Validate())
	prev, next, err := b.CutAt(1)
	require.NoError(t, err)
	assert.Len(t, b.Chains(), 2)
	assert.Equal(t, []*Chain{prev, next}, b.Chains())
	assert.True(t, b.IsIntersectionAt(1))
	assert.NoError(t, b.Validate())
}

func TestCutSharedChain(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m, up, down, shared := twoStackedBlobs(t)
	i := shared.BlobIndexOf(up, 1)
	_, _, err := up.CutAt(i)
	require.NoError(t, err)
	assert.Len(t, up.Chains(), 5)
	assert.Len(t, down.Chains(), 5, "cut must reach the neighbour blob as well")
	assert.NoError(t, up.Validate())
	assert.NoError(t, down.Validate())
	assert.NoError(t, m.Validate())
}

// twoStackedBlobs creates two 100×100 squares on top of each other,
// sharing the chain between them.
func twoStackedBlobs(t *testing.T) (*Mesh, *Blob, *Blob, *Chain) {
	t.Helper()
	m := NewMesh()
	a, b := m.NewPointXY(0, 0), m.NewPointXY(100, 0)
	c, d := m.NewPointXY(100, 100), m.NewPointXY(0, 100)
	e, f := m.NewPointXY(100, 200), m.NewPointXY(0, 200)
	top := m.ChainBetween(a, b, 0, 3)
	right := m.ChainBetween(b, c, 0, 3)
	shared := m.ChainBetween(c, d, 0, 3)
	left := m.ChainBetween(d, a, 0, 3)
	right2 := m.ChainBetween(c, e, 0, 3)
	bottom := m.ChainBetween(e, f, 0, 3)
	left2 := m.ChainBetween(f, d, 0, 3)
	up, err := m.NewBlob([]*Chain{top, right, shared, left})
	require.NoError(t, err)
	down, err := m.NewBlob([]*Chain{shared, right2, bottom, left2})
	require.NoError(t, err)
	require.NoError(t, up.Validate())
	require.NoError(t, down.Validate())
	require.NotEqual(t, shared.Left(), shared.Right())
	return m, up, down, shared
}

func TestSwapChains(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMesh()
	p1, p2 := m.NewPointXY(0, 0), m.NewPointXY(0, 100)
	p3, p4 := m.NewPointXY(100, 100), m.NewPointXY(100, 0)
	c1 := m.ChainBetween(p1, p2, 0, 3)
	c2 := m.ChainBetween(p2, p3, 0, 4)
	c3 := m.ChainBetween(p3, p4, 0, 5)
	c4 := m.ChainBetween(p4, p1, 0, 6)
	b := m.MustBlob(c1, c2, c3, c4)
	diagonal := m.ChainBetween(p2, p4, 0, 7)

	require.NoError(t, b.SwapChains([]*Chain{c2, c3}, []*Chain{diagonal}))
	assert.Equal(t, []*Chain{c1, diagonal, c4}, b.Chains())
	require.NoError(t, b.SwapChains([]*Chain{diagonal}, []*Chain{c2, c3}))
	assert.Equal(t, []*Chain{c1, c2, c3, c4}, b.Chains())
	require.NoError(t, b.SwapChains([]*Chain{c4, c1}, []*Chain{diagonal}))
	assert.Equal(t, []*Chain{c2, c3, diagonal}, b.Chains())

	// inserted runs are turned around to fit
	require.NoError(t, b.SwapChains([]*Chain{diagonal}, []*Chain{c1, c4}))
	assert.Equal(t, []*Chain{c2, c3, c4, c1}, b.Chains())

	err := b.SwapChains([]*Chain{c2, c4}, []*Chain{diagonal})
	assert.ErrorIs(t, err, ErrNotContiguous)
	err = b.SwapChains([]*Chain{diagonal}, nil)
	assert.ErrorIs(t, err, ErrNotInLoop)
	stray := m.ChainBetween(m.NewPointXY(500, 500), m.NewPointXY(600, 600), 0, 2)
	err = b.SwapChains([]*Chain{c2, c3}, []*Chain{stray})
	assert.ErrorIs(t, err, ErrNotReconnectable)
}

func TestSpawnSmallBlobAtCorner(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m, b := standardBlob(t)
	child, chains, err := b.SpawnSmallBlob(0)
	require.NoError(t, err)
	assert.Len(t, child.Chains(), 3)
	assert.Len(t, b.Chains(), 5)
	assert.Equal(t, standardPointCount+2, b.PointCount())
	assert.Equal(t, 6, child.PointCount())
	assert.Equal(t, b.LinkLength(), child.LinkLength())
	assert.NoError(t, b.Validate())
	assert.NoError(t, child.Validate())
	assert.NoError(t, ReferencesMutual([]*Blob{b, child}))
	assert.ElementsMatch(t, ChainsOf([]*Blob{b, child}), uniqueChains(chains))
	assert.Len(t, m.Blobs(), 2)
}

func uniqueChains(chains []*Chain) []*Chain {
	var r []*Chain
	for _, c := range chains {
		if !slices.Contains(r, c) {
			r = append(r, c)
		}
	}
	return r
}

func TestSpawnSmallBlobEverywhere(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	for loc := range standardPointCount {
		_, b := standardBlob(t)
		child, _, err := b.SpawnSmallBlob(loc)
		require.NoError(t, err, "spawn at %d", loc)
		assert.NoError(t, b.Validate(), "parent after spawn at %d", loc)
		assert.NoError(t, child.Validate(), "child after spawn at %d", loc)
		assert.NoError(t, ReferencesMutual([]*Blob{b, child}), "spawn at %d", loc)
		assert.Equal(t, 6, child.PointCount(), "spawn at %d", loc)
	}
}

func TestBlobEquality(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b1 := standardBlob(t)
	m := NewMesh()
	coords := b1.Coords()
	// same ring, starting elsewhere and running the other way
	slices.Reverse(coords)
	coords = append(coords[5:], coords[:5]...)
	pts := make([]*Point, len(coords))
	for i, co := range coords {
		pts[i] = m.NewPoint(co)
	}
	c := m.NewChain(append(pts, pts[0]))
	b2 := m.MustBlob(c)
	assert.True(t, b1.Equal(b2))
	pts[3].SetCo(blobsim.P(-1, -1))
	assert.False(t, b1.Equal(b2))
}

func TestAreaCache(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	assert.InDelta(t, 10000, b.Area(), 1e-6)
	for _, p := range b.Points() {
		p.SetCo(p.Co().Scaled(2))
	}
	assert.InDelta(t, 40000, b.Area(), 1e-6, "moving the ring must invalidate the cached area")
}

func TestAreaCacheAfterScalingAboutCenter(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	center := blobsim.P(50, 50)
	assert.InDelta(t, 10000, b.Area(), 1e-6)
	for _, p := range b.Points() {
		p.AddOffset(p.Co() - center)
	}
	assert.InDelta(t, 10000, b.Area(), 1e-6, "pending offsets do not count")
	assert.Equal(t, b.PointCount(), b.ApplyOffsets(true))
	assert.InDelta(t, 40000, b.Area(), 1e-6)
	for _, p := range b.Points() {
		p.SetCo(center + (p.Co()-center).Scaled(0.5))
	}
	assert.InDelta(t, 10000, b.Area(), 1e-6)
}

func TestLinkLengthDefaultsToAverage(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, b := standardBlob(t)
	assert.InDelta(t, 400.0/standardPointCount, b.LinkLength(), 1e-9)
	b.SetLinkLength(5)
	assert.Equal(t, 5.0, b.LinkLength())
	assert.Equal(t, 7, b.IndexDistance(0, 7))
	assert.Equal(t, 1, b.IndexDistance(0, 13))
	assert.Equal(t, 7, b.OppositeIndex(0))
	prev, next := b.NeighbourIndexes(0)
	assert.Equal(t, 13, prev)
	assert.Equal(t, 1, next)
}

func TestOuterBlob(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMesh()
	sq := unitSquare(m)
	inner := m.MustBlob(sq...)
	around := slices.Clone(sq)
	slices.Reverse(around)
	outer, err := m.NewOuterBlob(around)
	require.NoError(t, err)
	assert.True(t, outer.Outer())
	assert.True(t, outer.Unmoving())
	assert.False(t, inner.Outer())
	require.NoError(t, inner.Validate())
	require.NoError(t, outer.Validate())
	for k, c := range sq {
		assert.ElementsMatch(t, []*Blob{inner, outer}, c.Blobs())
		assert.True(t, c.Unmoving(), "chains next to an unmoving blob are unmoving")
		assert.Equal(t, inner.IsChainBackwardsAt(k), inner.IsChainBackwards(c))
		assert.Equal(t, outer.IsChainBackwardsAt(outer.indexOf(c)), outer.IsChainBackwards(c))
	}
}
