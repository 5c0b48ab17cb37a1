package topo

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/npillmayer/blobsim"
)

// Blob is a region bounded by a cyclic loop of chains. Consecutive chains
// share an endpoint, the last chain connects back to the first one.
type Blob struct {
	mesh       *Mesh
	id         BlobID
	loop       []ChainID
	unmoving   bool
	outer      bool // b is the unbounded face around its ring
	linkLength float64
	area       areaCache
	cache      layout
}

// layout is the cached index table of a blob, valid for one mesh generation.
type layout struct {
	gen       uint64
	valid     bool
	ends      []int  // ring index of the last point of chain k
	backwards []bool // chain k runs against the loop direction
}

// areaCache holds the area of a blob, valid as long as the mesh has neither
// been edited nor had a point moved.
type areaCache struct {
	valid       bool
	gen, motion uint64
	value       float64
}

// NewBlob creates a blob bounded by chains, given in loop order, and puts it
// on the proper side of every chain.
func (m *Mesh) NewBlob(chains []*Chain) (*Blob, error) {
	b := &Blob{mesh: m, id: BlobID(len(m.blobs))}
	for _, c := range chains {
		b.loop = append(b.loop, c.id)
	}
	if err := b.validateLoop(); err != nil {
		return nil, err
	}
	m.blobs = append(m.blobs, b)
	m.changed()
	b.SetBlobReferencesOnChains()
	tracer().Debugf("new blob %d with %d chains", b.id, len(chains))
	return b, nil
}

// NewOuterBlob creates the unbounded face outside of a loop of chains. It
// takes the side of every chain opposite to the one a bounded blob with the
// same loop would take, and is unmoving.
func (m *Mesh) NewOuterBlob(chains []*Chain) (*Blob, error) {
	b := &Blob{mesh: m, id: BlobID(len(m.blobs)), outer: true, unmoving: true}
	for _, c := range chains {
		b.loop = append(b.loop, c.id)
	}
	if err := b.validateLoop(); err != nil {
		return nil, err
	}
	m.blobs = append(m.blobs, b)
	m.changed()
	b.SetBlobReferencesOnChains()
	tracer().Debugf("new outer blob %d with %d chains", b.id, len(chains))
	return b, nil
}

// MustBlob is NewBlob for setup code, panicking on error.
func (m *Mesh) MustBlob(chains ...*Chain) *Blob {
	b, err := m.NewBlob(chains)
	if err != nil {
		panic(err)
	}
	return b
}

// ID is the stable handle of b.
func (b *Blob) ID() BlobID {
	return b.id
}

// Chains lists the chains of b in loop order.
func (b *Blob) Chains() []*Chain {
	r := make([]*Chain, len(b.loop))
	for i, id := range b.loop {
		r[i] = b.mesh.chains[id]
	}
	return r
}

func (b *Blob) chain(k int) *Chain {
	return b.mesh.chains[b.loop[k]]
}

func (b *Blob) indexOf(c *Chain) int {
	return slices.Index(b.loop, c.id)
}

// Unmoving tells whether all chains of b are held in place.
func (b *Blob) Unmoving() bool {
	return b.unmoving
}

// Outer tells whether b is the unbounded face around its ring.
func (b *Blob) Outer() bool {
	return b.outer
}

// SetUnmoving flags b as a fixed region (or releases it).
func (b *Blob) SetUnmoving(flag bool) {
	b.unmoving = flag
}

// layout returns the index table of b, recomputing it after structural edits.
func (b *Blob) layout() *layout {
	if b.cache.valid && b.cache.gen == b.mesh.generation {
		return &b.cache
	}
	n := len(b.loop)
	ends := make([]int, n)
	bw := make([]bool, n)
	sum := 0
	for k := range b.loop {
		bw[k] = b.structuralBackwards(k)
		sum += b.chain(k).Len() - 1
		ends[k] = sum
	}
	b.cache = layout{gen: b.mesh.generation, valid: true, ends: ends, backwards: bw}
	return &b.cache
}

// structuralBackwards derives the direction of chain k from the endpoints
// it shares with its neighbours in the loop.
func (b *Blob) structuralBackwards(k int) bool {
	switch len(b.loop) {
	case 1:
		return false
	case 2:
		if k == 0 {
			return false
		}
		return b.chain(1).End() == b.chain(0).End()
	}
	c, next := b.chain(k), b.chain((k+1)%len(b.loop))
	return c.pts[0] == next.pts[0] || c.pts[0] == next.pts[len(next.pts)-1]
}

// === Index space ===========================================================

// PointCount is the number of distinct points on the ring of b.
func (b *Blob) PointCount() int {
	ends := b.layout().ends
	if len(ends) == 0 {
		return 0
	}
	return ends[len(ends)-1]
}

func (b *Blob) mod(i int) int {
	n := b.PointCount()
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// ChainAndLocalIndexAt maps ring index i (taken modulo the ring size) to
// the chain holding it and the index within that chain. An intersection
// resolves to the chain ending there.
func (b *Blob) ChainAndLocalIndexAt(i int) (*Chain, int) {
	lay := b.layout()
	i = b.mod(i)
	k := sort.SearchInts(lay.ends, i)
	low := 0
	if k > 0 {
		low = lay.ends[k-1]
	}
	if lay.backwards[k] {
		return b.chain(k), lay.ends[k] - i
	}
	return b.chain(k), i - low
}

// PointAt is the point at ring index i.
func (b *Blob) PointAt(i int) *Point {
	c, l := b.ChainAndLocalIndexAt(i)
	return c.Point(l)
}

// Points lists the ring of b, each point once.
func (b *Blob) Points() []*Point {
	n := b.PointCount()
	r := make([]*Point, n)
	for i := range n {
		r[i] = b.PointAt(i)
	}
	return r
}

// Coords lists the positions of the ring of b.
func (b *Blob) Coords() []blobsim.Pair {
	pts := b.Points()
	r := make([]blobsim.Pair, len(pts))
	for i, p := range pts {
		r[i] = p.co
	}
	return r
}

// IndexOf returns the ring index of p, or -1.
func (b *Blob) IndexOf(p *Point) int {
	return slices.Index(b.Points(), p)
}

// IsIntersectionAt tells whether ring index i is a chain endpoint.
func (b *Blob) IsIntersectionAt(i int) bool {
	i = b.mod(i)
	if i == 0 {
		return true
	}
	_, found := slices.BinarySearch(b.layout().ends, i)
	return found
}

// ChainsAtIntersection returns the chain ending at ring index i and the
// chain starting there, in loop order.
func (b *Blob) ChainsAtIntersection(i int) (*Chain, *Chain, error) {
	i = b.mod(i)
	if i == 0 {
		return b.chain(len(b.loop) - 1), b.chain(0), nil
	}
	k, found := slices.BinarySearch(b.layout().ends, i)
	if !found {
		return nil, nil, fmt.Errorf("%w: index %d of blob %d", ErrNotIntersection, i, b.id)
	}
	return b.chain(k), b.chain((k + 1) % len(b.loop)), nil
}

// ChainsBetweenIntersections lists the chains covering the ring from
// intersection start to intersection end, in loop order.
func (b *Blob) ChainsBetweenIntersections(start, end int) ([]*Chain, error) {
	start, end = b.mod(start), b.mod(end)
	if start == end {
		return nil, fmt.Errorf("%w: empty range %d…%d in blob %d", ErrNotIntersection, start, end, b.id)
	}
	_, first, err := b.ChainsAtIntersection(start)
	if err != nil {
		return nil, err
	}
	last, _, err := b.ChainsAtIntersection(end)
	if err != nil {
		return nil, err
	}
	k := b.indexOf(first)
	var r []*Chain
	for range b.loop {
		c := b.chain(k)
		r = append(r, c)
		if c == last {
			return r, nil
		}
		k = (k + 1) % len(b.loop)
	}
	return nil, fmt.Errorf("%w: no run from %d to %d in blob %d", ErrInvalidTopology, start, end, b.id)
}

// IndexDistance is the number of links between ring indices i and j along
// the shorter way around.
func (b *Blob) IndexDistance(i, j int) int {
	n := b.PointCount()
	d := b.mod(i - j)
	return min(d, n-d)
}

// PointsDistance is the Euclidean distance of the points at i and j.
func (b *Blob) PointsDistance(i, j int) float64 {
	return b.PointAt(i).co.Dist(b.PointAt(j).co)
}

// OppositeIndex is the ring index half way around from i.
func (b *Blob) OppositeIndex(i int) int {
	return b.mod(i + b.PointCount()/2)
}

// NeighbourIndexes returns the ring indices before and after i.
func (b *Blob) NeighbourIndexes(i int) (int, int) {
	return b.mod(i - 1), b.mod(i + 1)
}

// === Orientation ===========================================================

// IsChainBackwardsAt tells whether chain k of the loop runs against the
// loop direction.
func (b *Blob) IsChainBackwardsAt(k int) bool {
	return b.layout().backwards[k]
}

// IsChainBackwards derives the direction of c from the side c has b on and
// the orientation of b. It trusts the side references, so right after a
// structural edit IsChainBackwardsAt is the one to use. Chains without a
// reference to b fall back to the structural answer; chains not part of b
// report false.
func (b *Blob) IsChainBackwards(c *Chain) bool {
	switch b.id {
	case c.left:
		return b.IsClockwise() != b.outer
	case c.right:
		return b.IsClockwise() == b.outer
	}
	k := b.indexOf(c)
	if k < 0 {
		return false
	}
	return b.IsChainBackwardsAt(k)
}

// IsClockwise tells the ring orientation of b (screen coordinates, y down).
// The shoelace sum is taken over a sample of the ring: the intersections
// and the middle of every chain for loops of more than two chains, ten
// evenly spaced points for long rings, all points otherwise.
func (b *Blob) IsClockwise() bool {
	n := b.PointCount()
	var sample []blobsim.Pair
	switch {
	case len(b.loop) > 2:
		prev := 0
		for _, e := range b.layout().ends {
			sample = append(sample, b.PointAt((prev+e)/2).co, b.PointAt(e).co)
			prev = e
		}
	case n < 10:
		sample = b.Coords()
	default:
		for i := range 10 {
			sample = append(sample, b.PointAt(i*n/10).co)
		}
	}
	return blobsim.ShoelaceSum(sample) > 0
}

// InnerDirection points from ring index i into the blob, perpendicular to
// the ring and half as long as the span between the neighbours of i.
func (b *Blob) InnerDirection(i int) blobsim.Pair {
	v := b.PointAt(i+1).co - b.PointAt(i-1).co
	if b.IsClockwise() {
		return blobsim.P(-v.Y(), v.X()).Scaled(0.5)
	}
	return blobsim.P(v.Y(), -v.X()).Scaled(0.5)
}

// SetBlobReferencesOnChains puts b on the left or right side of each of its
// chains, as orientation and chain direction require.
func (b *Blob) SetBlobReferencesOnChains() {
	cw := b.IsClockwise()
	for k := range b.loop {
		c := b.chain(k)
		if b.onRightOf(k, cw) {
			c.setRight(b.id)
		} else {
			c.setLeft(b.id)
		}
	}
}

// onRightOf tells the side of chain k that b has to be on.
func (b *Blob) onRightOf(k int, cw bool) bool {
	return cw != b.IsChainBackwardsAt(k) != b.outer
}

// === Structural edits ======================================================

// CutAt makes ring index i an intersection and returns the chains ending
// and starting at i, in loop order. Cutting at an existing intersection is
// a no-op.
func (b *Blob) CutAt(i int) (*Chain, *Chain, error) {
	i = b.mod(i)
	if b.IsIntersectionAt(i) {
		return b.ChainsAtIntersection(i)
	}
	c, l := b.ChainAndLocalIndexAt(i)
	backwards := b.IsChainBackwardsAt(b.indexOf(c))
	head, tail, err := c.Cut(l)
	if err != nil {
		return nil, nil, err
	}
	if backwards {
		head, tail = tail, head
	}
	if !b.IsIntersectionAt(i) {
		return nil, nil, fmt.Errorf("%w: cut at %d of blob %d did not create an intersection",
			ErrInvalidTopology, i, b.id)
	}
	return head, tail, nil
}

// SwapChains replaces the contiguous run remove of the loop by the chains
// of insert. The run may wrap around the end of the loop. insert is reversed
// if needed to connect with the rest of the loop; the position of the
// remaining chains within the loop is kept.
func (b *Blob) SwapChains(remove, insert []*Chain) error {
	if len(remove) == 0 {
		return fmt.Errorf("%w: nothing to remove from blob %d", ErrNotContiguous, b.id)
	}
	for _, c := range remove {
		if b.indexOf(c) < 0 {
			return fmt.Errorf("%w: %v, blob %d", ErrNotInLoop, c, b.id)
		}
	}
	firstKeep := (b.indexOf(remove[len(remove)-1]) + 1) % len(b.loop)
	rot := (len(b.loop) - firstKeep) % len(b.loop)
	loop := append(slices.Clone(b.loop[firstKeep:]), b.loop[:firstKeep]...)
	cut := len(loop) - len(remove)
	if cut < 0 {
		return fmt.Errorf("%w: blob %d", ErrNotContiguous, b.id)
	}
	for i, c := range remove {
		if loop[cut+i] != c.id {
			return fmt.Errorf("%w: %v, blob %d", ErrNotContiguous, c, b.id)
		}
	}
	loop = loop[:cut]
	ins := slices.Clone(insert)
	if len(loop) > 0 && len(ins) > 0 {
		lastKept := b.mesh.chains[loop[len(loop)-1]]
		firstKept := b.mesh.chains[loop[0]]
		if !lastKept.IsConnectedTo(ins[0]) {
			slices.Reverse(ins)
		}
		if !lastKept.IsConnectedTo(ins[0]) || !ins[len(ins)-1].IsConnectedTo(firstKept) {
			return fmt.Errorf("%w: blob %d", ErrNotReconnectable, b.id)
		}
	}
	for _, c := range ins {
		loop = append(loop, c.id)
	}
	if len(loop) > 0 {
		rot %= len(loop)
		loop = append(loop[rot:], loop[:rot]...)
	}
	b.loop = slices.Clone(loop)
	b.mesh.changed()
	return nil
}

// SpawnSmallBlob carves a new blob out of b around ring index loc. The points
// at loc-1 and loc+1 become intersections, an inner chain through both is
// inset along InnerDirection(loc), and the chains between the two cuts go to
// the new blob. It returns the new blob and the chains of both blobs.
func (b *Blob) SpawnSmallBlob(loc int) (*Blob, []*Chain, error) {
	n := b.PointCount()
	if n < 3 {
		return nil, nil, fmt.Errorf("%w: blob %d has %d points", ErrTooFewPoints, b.id, n)
	}
	loc = b.mod(loc)
	inset := b.InnerDirection(loc)
	s := b.PointAt(loc + 1)
	if _, _, err := b.CutAt(loc + 1); err != nil {
		return nil, nil, err
	}
	e := b.PointAt(loc - 1)
	if _, _, err := b.CutAt(loc - 1); err != nil {
		return nil, nil, err
	}
	m := b.mesh
	inner := m.ChainBetween(m.PointFromOffset(s, inset), m.PointFromOffset(e, inset), 0, 3)
	inner.AppendEndpoint(s, true)
	inner.AppendEndpoint(e, false)
	excised, err := b.ChainsBetweenIntersections(loc-1, loc+1)
	if err != nil {
		return nil, nil, err
	}
	if err := b.SwapChains(excised, []*Chain{inner}); err != nil {
		return nil, nil, err
	}
	child, err := m.NewBlob(append(slices.Clone(excised), inner))
	if err != nil {
		return nil, nil, err
	}
	b.SetBlobReferencesOnChains()
	child.SetBlobReferencesOnChains()
	child.linkLength = b.LinkLength()
	tracer().Infof("spawned blob %d from blob %d at %d", child.id, b.id, loc)
	return child, append(b.Chains(), child.Chains()...), nil
}

// === Measures and offsets ==================================================

// Circumference is the length of the ring.
func (b *Blob) Circumference() float64 {
	var l float64
	for _, c := range b.Chains() {
		l += c.Length()
	}
	return l
}

// LinkLength is the target distance of neighbouring ring points. If unset,
// it is initialized to the current average.
func (b *Blob) LinkLength() float64 {
	if b.linkLength == 0 && b.PointCount() > 0 {
		b.linkLength = b.Circumference() / float64(b.PointCount())
	}
	return b.linkLength
}

// SetLinkLength sets the target distance of neighbouring ring points.
func (b *Blob) SetLinkLength(l float64) {
	b.linkLength = l
}

// Area is the enclosed area. The value is cached until a structural edit of
// the mesh or until any point moves.
func (b *Blob) Area() float64 {
	if b.area.valid && b.area.gen == b.mesh.generation && b.area.motion == b.mesh.motion {
		return b.area.value
	}
	return b.RecalculateArea()
}

// RecalculateArea recomputes and caches the enclosed area.
func (b *Blob) RecalculateArea() float64 {
	b.area = areaCache{
		valid:  true,
		gen:    b.mesh.generation,
		motion: b.mesh.motion,
		value:  math.Abs(blobsim.SignedArea(b.Coords())),
	}
	return b.area.value
}

// ApplyOffsets commits the pending offsets of the ring points.
func (b *Blob) ApplyOffsets(ignorePinned bool) int {
	moved := 0
	for _, p := range b.Points() {
		if p.ApplyOffset(ignorePinned) {
			moved++
		}
	}
	return moved
}

// Equal compares the rings of two blobs by position, allowing a different
// start index and the opposite direction.
func (b *Blob) Equal(o *Blob) bool {
	x, y := b.Coords(), o.Coords()
	if len(x) != len(y) {
		return false
	}
	if len(x) == 0 {
		return true
	}
	ringEqual := func(y []blobsim.Pair) bool {
		for shift := range y {
			match := true
			for i := range x {
				if !x[i].Equal(y[(i+shift)%len(y)]) {
					match = false
					break
				}
			}
			if match {
				return true
			}
		}
		return false
	}
	if ringEqual(y) {
		return true
	}
	slices.Reverse(y)
	return ringEqual(y)
}

func (b *Blob) String() string {
	return fmt.Sprintf("blob %d with %d chains, %d points", b.id, len(b.loop), b.PointCount())
}
