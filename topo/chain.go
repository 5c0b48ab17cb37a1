package topo

import (
	"fmt"
	"math"
	"slices"

	"github.com/npillmayer/blobsim"
)

// minLinkLength is the distance below which the link length spring has no
// direction to push along.
const minLinkLength = 0.01

// Chain is an ordered, non-cyclic run of points: one boundary edge between
// at most two blobs. A chain whose first and last point coincide is closed
// and may bound a blob on its own.
type Chain struct {
	mesh        *Mesh
	id          ChainID
	pts         []PointID
	left, right BlobID
	unmoving    Pin
}

// NewChain creates a chain from a list of points and connects consecutive
// points.
func (m *Mesh) NewChain(pts []*Point) *Chain {
	ids := make([]PointID, len(pts))
	for i, p := range pts {
		ids[i] = p.id
	}
	return m.newChain(ids)
}

func (m *Mesh) newChain(ids []PointID) *Chain {
	c := &Chain{mesh: m, id: ChainID(len(m.chains)), pts: ids}
	m.chains = append(m.chains, c)
	for i, id := range ids {
		m.points[id].addChain(c.id)
		if i > 0 {
			if err := m.points[ids[i-1]].Connect(m.points[id]); err != nil {
				tracer().Errorf("chain %d: %v", c.id, err)
			}
		}
	}
	m.changed()
	return c
}

// ChainFromCoords creates new points at coords and chains them.
func (m *Mesh) ChainFromCoords(coords []blobsim.Pair) *Chain {
	pts := make([]*Point, len(coords))
	for i, co := range coords {
		pts[i] = m.NewPoint(co)
	}
	return m.NewChain(pts)
}

// ChainBetween creates a straight chain from start to end with n points
// (including both ends). If n is not positive, the point count is derived
// from linkLength instead. A chain has at least two points.
func (m *Mesh) ChainBetween(start, end *Point, linkLength float64, n int) *Chain {
	if n <= 0 && linkLength > 0 {
		n = int(math.Ceil(start.co.Dist(end.co) / linkLength))
	}
	n = max(n, 2)
	pts := make([]*Point, 0, n)
	pts = append(pts, start)
	for i := 1; i < n-1; i++ {
		t := float64(i) / float64(n-1)
		pts = append(pts, m.NewPoint(start.co.Lerp(end.co, t)))
	}
	pts = append(pts, end)
	return m.NewChain(pts)
}

// ID is the stable handle of c.
func (c *Chain) ID() ChainID {
	return c.id
}

// Len is the number of points of c.
func (c *Chain) Len() int {
	return len(c.pts)
}

// Point returns the i-th point of c.
func (c *Chain) Point(i int) *Point {
	return c.mesh.points[c.pts[i]]
}

// Points lists the points of c in order.
func (c *Chain) Points() []*Point {
	r := make([]*Point, len(c.pts))
	for i, id := range c.pts {
		r[i] = c.mesh.points[id]
	}
	return r
}

// Coords lists the positions of the points of c in order.
func (c *Chain) Coords() []blobsim.Pair {
	r := make([]blobsim.Pair, len(c.pts))
	for i, id := range c.pts {
		r[i] = c.mesh.points[id].co
	}
	return r
}

// Start is the first point, or nil for an empty chain.
func (c *Chain) Start() *Point {
	if len(c.pts) == 0 {
		return nil
	}
	return c.mesh.points[c.pts[0]]
}

// End is the last point, or nil for an empty chain.
func (c *Chain) End() *Point {
	if len(c.pts) == 0 {
		return nil
	}
	return c.mesh.points[c.pts[len(c.pts)-1]]
}

// IsClosed is true for a loop of at least two points starting and ending at
// the same point.
func (c *Chain) IsClosed() bool {
	return len(c.pts) > 1 && c.pts[0] == c.pts[len(c.pts)-1]
}

// IsEndpoint tells whether p is the first or last point of c.
func (c *Chain) IsEndpoint(p *Point) bool {
	return len(c.pts) > 0 && (c.pts[0] == p.id || c.pts[len(c.pts)-1] == p.id)
}

// IndexOf returns the first index of p in c, or -1.
func (c *Chain) IndexOf(p *Point) int {
	return slices.Index(c.pts, p.id)
}

// Contains tells whether p is part of c.
func (c *Chain) Contains(p *Point) bool {
	return slices.Contains(c.pts, p.id)
}

// === Sides =================================================================

// Left is the blob on the left side, or nil.
func (c *Chain) Left() *Blob {
	return c.mesh.Blob(c.left)
}

// Right is the blob on the right side, or nil.
func (c *Chain) Right() *Blob {
	return c.mesh.Blob(c.right)
}

// Blobs lists the blobs bounded by c.
func (c *Chain) Blobs() []*Blob {
	var r []*Blob
	if b := c.Left(); b != nil {
		r = append(r, b)
	}
	if b := c.Right(); b != nil {
		r = append(r, b)
	}
	return r
}

// setLeft puts b on the left side, dropping it from the right side.
func (c *Chain) setLeft(b BlobID) {
	c.left = b
	if c.right == b {
		c.right = NoBlob
	}
}

// setRight puts b on the right side, dropping it from the left side.
func (c *Chain) setRight(b BlobID) {
	c.right = b
	if c.left == b {
		c.left = NoBlob
	}
}

func (c *Chain) clearSide(b BlobID) {
	if c.left == b {
		c.left = NoBlob
	}
	if c.right == b {
		c.right = NoBlob
	}
}

// SwapSides exchanges the left and right blob. Identical sides are a defect.
func (c *Chain) SwapSides() error {
	if c.left != NoBlob && c.left == c.right {
		return fmt.Errorf("%w: chain %d", ErrSameSides, c.id)
	}
	c.left, c.right = c.right, c.left
	return nil
}

// Unmoving tells whether the points of c must stay in place. Without an
// explicit override a chain is unmoving if it lacks a blob on either side or
// if one of its blobs is unmoving.
func (c *Chain) Unmoving() bool {
	switch c.unmoving {
	case PinFixed:
		return true
	case PinFree:
		return false
	}
	l, r := c.Left(), c.Right()
	if l == nil || r == nil {
		return true
	}
	return l.unmoving || r.unmoving
}

// SetUnmoving sets the explicit movability override.
func (c *Chain) SetUnmoving(pin Pin) {
	c.unmoving = pin
}

// === Connectivity ==========================================================

// CommonEndpoint returns an endpoint shared by c and o. The start of c is
// preferred over its end.
func (c *Chain) CommonEndpoint(o *Chain) (*Point, bool) {
	if len(c.pts) == 0 || len(o.pts) == 0 {
		return nil, false
	}
	cs, ce := c.pts[0], c.pts[len(c.pts)-1]
	os, oe := o.pts[0], o.pts[len(o.pts)-1]
	switch {
	case cs == os || cs == oe:
		return c.mesh.points[cs], true
	case ce == os || ce == oe:
		return c.mesh.points[ce], true
	}
	return nil, false
}

// IsConnectedTo tells whether c and o share an endpoint.
func (c *Chain) IsConnectedTo(o *Chain) bool {
	_, ok := c.CommonEndpoint(o)
	return ok
}

// AppendEndpoint extends c by p, at the start or at the end.
func (c *Chain) AppendEndpoint(p *Point, atStart bool) {
	p.addChain(c.id)
	if len(c.pts) == 0 {
		c.pts = append(c.pts, p.id)
		c.mesh.changed()
		return
	}
	var neighbour *Point
	if atStart {
		neighbour = c.Start()
		c.pts = slices.Insert(c.pts, 0, p.id)
	} else {
		neighbour = c.End()
		c.pts = append(c.pts, p.id)
	}
	if err := neighbour.Connect(p); err != nil {
		tracer().Errorf("chain %d: %v", c.id, err)
	}
	c.mesh.changed()
}

// Close appends the start point if c is not closed yet.
func (c *Chain) Close() {
	if len(c.pts) > 1 && !c.IsClosed() {
		c.AppendEndpoint(c.Start(), false)
	}
}

// EndpointNeighbour is the point next to endpoint p along c.
func (c *Chain) EndpointNeighbour(p *Point) (*Point, error) {
	if len(c.pts) < 2 {
		return nil, fmt.Errorf("%w: chain %d has %d points", ErrTooFewPoints, c.id, len(c.pts))
	}
	switch p.id {
	case c.pts[0]:
		return c.Point(1), nil
	case c.pts[len(c.pts)-1]:
		return c.Point(len(c.pts) - 2), nil
	}
	return nil, fmt.Errorf("%w: point %d, chain %d", ErrNotEndpoint, p.id, c.id)
}

// SwitchEndpointTo detaches c from endpoint and re-attaches it to target at
// the same end.
func (c *Chain) SwitchEndpointTo(endpoint, target *Point) error {
	if !c.IsEndpoint(endpoint) {
		return fmt.Errorf("%w: point %d, chain %d", ErrNotEndpoint, endpoint.id, c.id)
	}
	if endpoint == target {
		return nil
	}
	atStart := c.pts[0] == endpoint.id
	c.RemovePoint(c.IndexOf(endpoint))
	c.AppendEndpoint(target, atStart)
	return nil
}

// SwapPoint replaces old by p within c. p takes over all neighbours of old.
func (c *Chain) SwapPoint(old, p *Point) error {
	i := c.IndexOf(old)
	if i < 0 {
		return fmt.Errorf("%w: point %d is not part of chain %d", ErrInvalidTopology, old.id, c.id)
	}
	p.takeOverConnections(old)
	for k, id := range c.pts {
		if id == old.id {
			c.pts[k] = p.id
		}
	}
	old.removeChain(c.id)
	p.addChain(c.id)
	c.mesh.changed()
	return nil
}

// === Cut and merge =========================================================

// Cut splits c at the interior index i. c keeps the prefix up to and
// including point i, a new chain gets the suffix starting at point i. The
// new chain inherits the sides of c and is spliced into every blob loop
// containing c, right after c (or right before it, where c runs backwards).
func (c *Chain) Cut(i int) (*Chain, *Chain, error) {
	if i <= 0 || i >= len(c.pts)-1 {
		return nil, nil, fmt.Errorf("%w: index %d of chain %d, valid range is 1…%d",
			ErrCutAtEndpoint, i, c.id, len(c.pts)-2)
	}
	m := c.mesh
	type host struct {
		blob      *Blob
		backwards bool
	}
	var hosts []host
	for _, b := range m.Blobs() {
		if k := b.indexOf(c); k >= 0 {
			hosts = append(hosts, host{blob: b, backwards: b.IsChainBackwardsAt(k)})
		}
	}
	prefix := slices.Clone(c.pts[:i+1])
	suffix := slices.Clone(c.pts[i:])
	for _, id := range suffix[1:] {
		if !slices.Contains(prefix, id) {
			m.points[id].removeChain(c.id)
		}
	}
	c.pts = prefix
	tail := m.newChain(suffix)
	tail.left, tail.right = c.left, c.right
	tail.unmoving = c.unmoving
	for _, h := range hosts {
		k := h.blob.indexOf(c)
		if !h.backwards {
			k++
		}
		h.blob.loop = slices.Insert(h.blob.loop, k, tail.id)
	}
	m.changed()
	tracer().Debugf("cut chain %d at %d, new chain %d", c.id, i, tail.id)
	return c, tail, nil
}

// CutAtPoint cuts c at the interior point p.
func (c *Chain) CutAtPoint(p *Point) (*Chain, *Chain, error) {
	return c.Cut(c.IndexOf(p))
}

// MergeWith joins o onto c. The chains must share exactly one endpoint. c is
// reoriented (and its sides swapped) as needed so that the shared point is
// its end; o is retired afterwards and drops out of every blob loop.
func (c *Chain) MergeWith(o *Chain) error {
	common, ok := c.CommonEndpoint(o)
	if !ok {
		return fmt.Errorf("%w: chains %d and %d", ErrNotConnected, c.id, o.id)
	}
	return c.mergeAt(o, common)
}

func (c *Chain) mergeAt(o *Chain, common *Point) error {
	if c == o || c.IsClosed() || o.IsClosed() {
		return fmt.Errorf("%w: chain %d cannot absorb chain %d", ErrNotConnected, c.id, o.id)
	}
	if !c.IsEndpoint(common) || !o.IsEndpoint(common) {
		return fmt.Errorf("%w: point %d is not shared by chains %d and %d",
			ErrNotConnected, common.id, c.id, o.id)
	}
	far := c.pts[0]
	if far == common.id {
		far = c.pts[len(c.pts)-1]
	}
	if far == o.pts[0] || far == o.pts[len(o.pts)-1] {
		return fmt.Errorf("%w: chains %d and %d share both endpoints",
			ErrNotConnected, c.id, o.id)
	}
	if c.pts[0] == common.id {
		slices.Reverse(c.pts)
		if err := c.SwapSides(); err != nil {
			return err
		}
	}
	tail := slices.Clone(o.pts)
	if tail[len(tail)-1] == common.id {
		slices.Reverse(tail)
	}
	c.mesh.releaseChain(o)
	c.pts = append(c.pts, tail[1:]...)
	for _, id := range tail {
		c.mesh.points[id].addChain(c.id)
	}
	if c.left != NoBlob && c.left == c.right {
		return fmt.Errorf("%w: merged chain %d", ErrSameSides, c.id)
	}
	c.mesh.changed()
	return nil
}

// === Geometry ==============================================================

// RightNormalAt is the tangent at point i (from point i-1 to point i+1,
// clamped at the ends) turned to the right. It fixes the sense of "right"
// for offsetting a chain sideways.
func (c *Chain) RightNormalAt(i int, normalize bool) blobsim.Pair {
	i1 := max(0, i-1)
	i2 := min(i+1, len(c.pts)-1)
	n := (c.Point(i2).co - c.Point(i1).co).RightNormal()
	if normalize {
		n = n.Unit()
	}
	return n
}

// AddRightOffset pushes every point of c sideways by magnitude, to the right
// for positive values. Pinned endpoints are skipped unless ignorePinned.
func (c *Chain) AddRightOffset(magnitude float64, ignorePinned bool) {
	if !ignorePinned && c.Unmoving() {
		return
	}
	last := len(c.pts) - 1
	for i, p := range c.Points() {
		if (i == 0 || i == last) && !ignorePinned && p.Pinned() {
			continue
		}
		p.AddOffset(c.RightNormalAt(i, false).ScaledToLength(magnitude))
	}
}

// EnforceLinkLength adds spring offsets to every adjacent pair of points:
// each side takes half of the deviation from target.
func (c *Chain) EnforceLinkLength(target float64, ignorePinned bool) {
	if !ignorePinned && c.Unmoving() {
		return
	}
	for i := 0; i < len(c.pts)-1; i++ {
		a, b := c.Point(i), c.Point(i+1)
		d := b.co - a.co
		l := d.Length()
		if l <= minLinkLength {
			continue
		}
		corr := d.ScaledToLength((l - target) / 2)
		a.AddOffset(corr)
		b.AddOffset(-corr)
	}
}

// EnforceSecondaryJointDistance repels points which are ceil(distance/link)
// apart along c and closer than distance, a quarter of the deviation per
// side. It keeps a chain from folding onto itself.
func (c *Chain) EnforceSecondaryJointDistance(distance, linkLength float64) {
	if c.Unmoving() || linkLength <= 0 {
		return
	}
	hop := int(math.Ceil(distance / linkLength))
	for i := 0; i < len(c.pts)-hop; i++ {
		a, b := c.Point(i), c.Point(i+hop)
		d := b.co - a.co
		if d.LengthSquared() >= distance*distance || d.Length() < blobsim.Epsilon {
			continue
		}
		corr := d.ScaledToLength((d.Length() - distance) / 4)
		a.AddOffset(corr)
		b.AddOffset(-corr)
	}
}

// ApplyOffsets commits the offsets of all points of c.
func (c *Chain) ApplyOffsets(ignorePinned bool) {
	if !ignorePinned && c.Unmoving() {
		return
	}
	for _, p := range c.Points() {
		p.ApplyOffset(ignorePinned)
	}
}

// Length is the sum of the distances between consecutive points.
func (c *Chain) Length() float64 {
	var l float64
	for i := 1; i < len(c.pts); i++ {
		l += c.Point(i - 1).co.Dist(c.Point(i).co)
	}
	return l
}

// === Resampling ============================================================

// FindBiggestGap returns the adjacent pair of indices with the largest
// distance.
func (c *Chain) FindBiggestGap() (int, int, float64, error) {
	if len(c.pts) < 2 {
		return -1, -1, 0, fmt.Errorf("%w: chain %d", ErrTooFewPoints, c.id)
	}
	i, j, gap := -1, -1, 0.0
	for k := 0; k < len(c.pts)-1; k++ {
		if d := c.Point(k).co.Dist(c.Point(k + 1).co); d > gap {
			i, j, gap = k, k+1, d
		}
	}
	return i, j, gap, nil
}

// CreateMidpoint inserts a new point between the neighbouring indices i and
// j. Position and pending offset are interpolated, adjacency is re-wired.
func (c *Chain) CreateMidpoint(i, j int) (*Point, error) {
	if i-j != 1 && j-i != 1 {
		return nil, fmt.Errorf("%w: indices %d and %d of chain %d", ErrNotNeighbors, i, j, c.id)
	}
	if i > j {
		i, j = j, i
	}
	if i < 0 || j >= len(c.pts) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrNotNeighbors, j)
	}
	a, b := c.Point(i), c.Point(j)
	mid := c.mesh.NewPoint(a.co.Lerp(b.co, 0.5))
	mid.offset = a.offset.Lerp(b.offset, 0.5)
	a.Disconnect(b)
	_ = a.Connect(mid)
	_ = mid.Connect(b)
	c.pts = slices.Insert(c.pts, j, mid.id)
	mid.addChain(c.id)
	c.mesh.changed()
	return mid, nil
}

// RemovePoint takes point i out of c and returns it. Neighbours of an
// interior point are connected directly. Removing the start of a closed
// chain re-closes it at the following point.
func (c *Chain) RemovePoint(i int) *Point {
	p := c.Point(i)
	last := len(c.pts) - 1
	if c.IsClosed() && (i == 0 || i == last) {
		next, prev := c.Point(1), c.Point(last-1)
		p.Disconnect(next)
		p.Disconnect(prev)
		if next != prev {
			_ = next.Connect(prev)
		}
		c.pts = append(slices.Clone(c.pts[1:last]), next.id)
	} else {
		if i > 0 && i < last {
			_ = c.Point(i - 1).Connect(c.Point(i + 1))
		}
		if i > 0 {
			p.Disconnect(c.Point(i - 1))
		}
		if i < last {
			p.Disconnect(c.Point(i + 1))
		}
		c.pts = slices.Delete(c.pts, i, i+1)
	}
	p.removeChain(c.id)
	c.mesh.changed()
	return p
}

// BlobIndexOf maps local index i of c to the global ring index within b.
func (c *Chain) BlobIndexOf(b *Blob, i int) int {
	k := b.indexOf(c)
	if k < 0 {
		return -1
	}
	ends := b.layout().ends
	low := 0
	if k > 0 {
		low = ends[k-1]
	}
	if b.IsChainBackwardsAt(k) {
		return low + len(c.pts) - 1 - i
	}
	return low + i
}

// Equal compares the point sequences of two chains, in either direction.
func (c *Chain) Equal(o *Chain) bool {
	if len(c.pts) != len(o.pts) {
		return false
	}
	if slices.Equal(c.pts, o.pts) {
		return true
	}
	rev := slices.Clone(o.pts)
	slices.Reverse(rev)
	return slices.Equal(c.pts, rev)
}

// Validate checks the chain on its own: length, connectivity of consecutive
// points, membership, and that only endpoints may be intersections.
func (c *Chain) Validate() error {
	if len(c.pts) < 2 {
		return fmt.Errorf("%w: chain %d has %d points", ErrTooFewPoints, c.id, len(c.pts))
	}
	for i, p := range c.Points() {
		if p == nil {
			return fmt.Errorf("%w: chain %d refers to a released point", ErrInvalidTopology, c.id)
		}
		if !slices.Contains(p.chains, c.id) {
			return fmt.Errorf("%w: point %d does not know chain %d", ErrInvalidTopology, p.id, c.id)
		}
		if err := p.validateAdjacency(); err != nil {
			return err
		}
		if i > 0 && !p.IsConnectedTo(c.Point(i-1)) {
			return fmt.Errorf("%w: points %d and %d of chain %d are not connected",
				ErrInvalidTopology, i-1, i, c.id)
		}
		if i > 0 && i < len(c.pts)-1 && p.Degree() != 2 {
			return fmt.Errorf("%w: inner point %d of chain %d has %d neighbours",
				ErrInvalidTopology, p.id, c.id, p.Degree())
		}
	}
	return nil
}

func (p *Point) validateAdjacency() error {
	for _, q := range p.Adjacent() {
		if q == nil || !q.IsConnectedTo(p) {
			return fmt.Errorf("%w: adjacency of point %d is not symmetric", ErrInvalidTopology, p.id)
		}
	}
	return nil
}

func (c *Chain) String() string {
	switch len(c.pts) {
	case 0:
		return fmt.Sprintf("empty chain %d", c.id)
	case 1:
		return fmt.Sprintf("chain %d of one point %d", c.id, c.pts[0])
	}
	return fmt.Sprintf("chain %d from %d to %d with %d in between",
		c.id, c.pts[0], c.pts[len(c.pts)-1], len(c.pts)-2)
}
