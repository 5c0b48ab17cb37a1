package topo

import (
	"math"
)

// WidthPair is a pair of ring indices and their distance.
type WidthPair struct {
	A, B  int
	Width float64
}

// FindLocalMinimumWidthPair looks for the narrowest spot of b. It starts
// from sample evenly spaced pairs of opposite ring points and refines each
// of them by hill-climbing: the 3×3 neighbourhood of a pair (steps sized by
// the excess over target, in link lengths) is searched for a closer pair whose
// index distance is beyond berth, until no candidate improves. The result is a
// local minimum and found is false if even that one is wider than target.
func (b *Blob) FindLocalMinimumWidthPair(target float64, berth, sample int) (WidthPair, bool) {
	n := b.PointCount()
	best := WidthPair{A: -1, B: -1, Width: math.Inf(1)}
	if n < 2 || sample <= 0 {
		return best, false
	}
	for i := range sample {
		a := int(math.Floor(0.5 * float64(n) * float64(i) / float64(sample)))
		pair := WidthPair{A: a, B: (n/2 + a) % n}
		pair.Width = b.PointsDistance(pair.A, pair.B)
		for steps := 0; steps < n*n; steps++ {
			closer, ok := b.closerPair(pair, berth, target)
			if !ok {
				break
			}
			pair = closer
		}
		if pair.Width < best.Width {
			best = pair
		}
	}
	tracer().Debugf("blob %d: narrowest spot found is %d–%d, %.3f wide", b.id, best.A, best.B, best.Width)
	return best, best.Width <= target
}

// closerPair searches the neighbourhood of base for a strictly closer pair.
func (b *Blob) closerPair(base WidthPair, berth int, target float64) (WidthPair, bool) {
	step := 1
	if base.Width >= target {
		if link := b.LinkLength(); link > 0 {
			step = max(1, int(math.Ceil((base.Width-target)/link)))
		}
	}
	best, found := base, false
	for _, da := range [3]int{0, -step, step} {
		for _, db := range [3]int{0, -step, step} {
			if da == 0 && db == 0 {
				continue
			}
			a, c := b.mod(base.A+da), b.mod(base.B+db)
			if b.IndexDistance(a, c) <= berth {
				continue
			}
			if d := b.PointsDistance(a, c); d < best.Width {
				best, found = WidthPair{A: a, B: c, Width: d}, true
			}
		}
	}
	return best, found
}

// EnforceMinimalWidth pushes apart the narrowest spot of b if it is closer
// than minWidth. The repulsion is propagated to the neighbouring pairs on
// both sides as long as they are too close as well and more than the berth
// apart along the ring. Nothing happens to unmoving blobs. It returns the
// number of pairs repelled.
func (b *Blob) EnforceMinimalWidth(minWidth float64, ignorePinned bool) int {
	if b.unmoving {
		return 0
	}
	n := b.PointCount()
	link := b.LinkLength()
	if n < 4 || link <= 0 {
		return 0
	}
	berth := int(math.Ceil(2 * minWidth / link))
	if 2*berth >= n {
		berth = n/2 - 1
	}
	pair, found := b.FindLocalMinimumWidthPair(minWidth, berth, 3)
	if !found {
		return 0
	}
	repel := func(a, c int) {
		b.PointAt(a).MutuallyRepel(b.PointAt(c), minWidth, ignorePinned)
	}
	tooClose := func(a, c int) bool {
		return b.IndexDistance(a, c) > berth && b.PointsDistance(a, c) < minWidth
	}
	repel(pair.A, pair.B)
	count := 1
	for _, dir := range [2]int{-1, 1} {
		a, c := b.mod(pair.A+dir), b.mod(pair.B-dir)
		for steps := 0; steps < n && tooClose(a, c); steps++ {
			repel(a, c)
			count++
			a, c = b.mod(a+dir), b.mod(c-dir)
		}
	}
	tracer().Debugf("blob %d: repelled %d pairs to width %.2f", b.id, count, minWidth)
	return count
}
