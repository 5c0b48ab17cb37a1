package topo

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// CreateMidpoint inserts a new point between the ring neighbours i and j.
func (b *Blob) CreateMidpoint(i, j int) (*Point, error) {
	i, j = b.mod(i), b.mod(j)
	switch {
	case b.mod(i+1) == j:
	case b.mod(j+1) == i:
		i, j = j, i
	default:
		return nil, fmt.Errorf("%w: ring indices %d and %d of blob %d", ErrNotNeighbors, i, j, b.id)
	}
	lay := b.layout()
	k := sort.SearchInts(lay.ends, i+1)
	low := 0
	if k > 0 {
		low = lay.ends[k-1]
	}
	li, lj := i-low, i+1-low
	if lay.backwards[k] {
		li, lj = lay.ends[k]-i, lay.ends[k]-i-1
	}
	return b.chain(k).CreateMidpoint(li, lj)
}

// FindBiggestGapIndexes returns the ring neighbours which are farthest
// apart, in ring order. With movableOnly set, unmoving chains are skipped.
func (b *Blob) FindBiggestGapIndexes(movableOnly bool) (int, int, error) {
	i, j, gap := -1, -1, 0.0
	for _, c := range b.Chains() {
		if movableOnly && c.Unmoving() {
			continue
		}
		li, lj, d, err := c.FindBiggestGap()
		if err != nil {
			return -1, -1, err
		}
		if d > gap {
			gap = d
			i, j = c.BlobIndexOf(b, li), c.BlobIndexOf(b, lj)
			if b.IsChainBackwardsAt(b.indexOf(c)) {
				i, j = j, i
			}
		}
	}
	if i < 0 {
		return -1, -1, fmt.Errorf("%w: blob %d", ErrNoGap, b.id)
	}
	return b.mod(i), b.mod(j), nil
}

// MostCrowdedPointIndex is the ring index with the smallest sum of squared
// distances to its two ring neighbours.
func (b *Blob) MostCrowdedPointIndex() int {
	best, smallest := -1, math.Inf(1)
	for i := range b.PointCount() {
		prev, next := b.NeighbourIndexes(i)
		co := b.PointAt(i).co
		if sum := co.DistSquared(b.PointAt(prev).co) + co.DistSquared(b.PointAt(next).co); sum < smallest {
			best, smallest = i, sum
		}
	}
	return best
}

// RemovePoint takes the point at ring index i off the ring and returns it.
// An intersection hands its joint over to the next ring point: every other
// chain ending there is re-attached to that point, and the chain between
// them shrinks by one point (and is retired if nothing is left of it).
func (b *Blob) RemovePoint(i int) (*Point, error) {
	if b.PointCount() <= 3 {
		return nil, fmt.Errorf("%w: blob %d is down to %d points", ErrTooFewPoints, b.id, b.PointCount())
	}
	i = b.mod(i)
	if !b.IsIntersectionAt(i) {
		c, l := b.ChainAndLocalIndexAt(i)
		return c.RemovePoint(l), nil
	}
	p, np := b.PointAt(i), b.PointAt(i+1)
	_, common, err := b.ChainsAtIntersection(i)
	if err != nil {
		return nil, err
	}
	for _, c := range slices.Clone(p.Chains()) {
		if c != common {
			if err := c.SwapPoint(p, np); err != nil {
				return nil, err
			}
			continue
		}
		c.RemovePoint(c.IndexOf(p))
		if c.Len() < 2 {
			c.RemovePoint(c.IndexOf(np))
			b.mesh.releaseChain(c)
		}
	}
	tracer().Debugf("blob %d: removed joint %d, joint moved to %d", b.id, p.id, np.id)
	return p, nil
}

// ModifyPointNumber adds delta points to the ring of b (inserting midpoints
// into the biggest gaps), or removes -delta points (the most crowded ones).
// The ring never shrinks below three points. It returns the number of
// points actually added or removed.
func (b *Blob) ModifyPointNumber(delta int) (int, error) {
	done := 0
	for ; delta > 0 && done < delta; done++ {
		i, j, err := b.FindBiggestGapIndexes(true)
		if err != nil {
			if i, j, err = b.FindBiggestGapIndexes(false); err != nil {
				return done, err
			}
		}
		if _, err := b.CreateMidpoint(i, j); err != nil {
			return done, err
		}
	}
	for ; delta < 0 && done < -delta && b.PointCount() > 3; done++ {
		if _, err := b.RemovePoint(b.MostCrowdedPointIndex()); err != nil {
			return done, err
		}
	}
	return done, nil
}
