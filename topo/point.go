package topo

import (
	"fmt"
	"slices"

	"github.com/npillmayer/blobsim"
)

// Pin is a tri-state override for movability.
type Pin int8

// Pin values. PinAuto derives movability from the owning chains.
const (
	PinAuto Pin = iota
	PinFixed
	PinFree
)

func (pin Pin) String() string {
	switch pin {
	case PinFixed:
		return "fixed"
	case PinFree:
		return "free"
	}
	return "auto"
}

// Point is a 2D position with a pending offset and a set of neighbours.
type Point struct {
	mesh   *Mesh
	id     PointID
	co     blobsim.Pair
	offset blobsim.Pair
	adj    []PointID // symmetric
	chains []ChainID // chains containing this point
	pin    Pin
}

// ID is the stable handle of p.
func (p *Point) ID() PointID {
	return p.id
}

// Co is the current position.
func (p *Point) Co() blobsim.Pair {
	return p.co
}

// SetCo moves p directly, bypassing the offset buffer. Meant for setup code.
func (p *Point) SetCo(co blobsim.Pair) {
	p.co = co
	p.mesh.motion++
}

// Offset is the accumulated, not yet applied displacement.
func (p *Point) Offset() blobsim.Pair {
	return p.offset
}

// AddOffset accumulates a pending displacement.
func (p *Point) AddOffset(d blobsim.Pair) {
	p.offset += d
}

// ApplyOffset commits the pending offset to the position and clears the
// buffer. A pinned point keeps its position unless ignorePinned is set; its
// buffer is cleared anyway. ApplyOffset reports whether p moved.
func (p *Point) ApplyOffset(ignorePinned bool) bool {
	d := p.offset
	p.offset = blobsim.Origin
	if d == blobsim.Origin || (!ignorePinned && p.Pinned()) {
		return false
	}
	p.co += d
	p.mesh.motion++
	return true
}

// Pin returns the explicit override.
func (p *Point) Pin() Pin {
	return p.pin
}

// SetPin sets the explicit override.
func (p *Point) SetPin(pin Pin) {
	p.pin = pin
}

// Pinned tells whether p must not move. Without an explicit override a point
// is pinned if any chain containing it is unmoving.
func (p *Point) Pinned() bool {
	switch p.pin {
	case PinFixed:
		return true
	case PinFree:
		return false
	}
	for _, cid := range p.chains {
		if p.mesh.chains[cid].Unmoving() {
			return true
		}
	}
	return false
}

// Connect makes p and q neighbours. Connecting twice is a no-op.
func (p *Point) Connect(q *Point) error {
	if p.id == q.id {
		return fmt.Errorf("%w: point %d", ErrSelfConnection, p.id)
	}
	if !slices.Contains(p.adj, q.id) {
		p.adj = append(p.adj, q.id)
	}
	if !slices.Contains(q.adj, p.id) {
		q.adj = append(q.adj, p.id)
	}
	return nil
}

// Disconnect removes the neighbourhood of p and q, if any.
func (p *Point) Disconnect(q *Point) {
	p.adj = slices.DeleteFunc(p.adj, func(id PointID) bool { return id == q.id })
	q.adj = slices.DeleteFunc(q.adj, func(id PointID) bool { return id == p.id })
}

// IsConnectedTo tells whether q is a neighbour of p.
func (p *Point) IsConnectedTo(q *Point) bool {
	return slices.Contains(p.adj, q.id)
}

// Degree is the number of neighbours.
func (p *Point) Degree() int {
	return len(p.adj)
}

// Adjacent lists the neighbours of p.
func (p *Point) Adjacent() []*Point {
	r := make([]*Point, len(p.adj))
	for i, id := range p.adj {
		r[i] = p.mesh.points[id]
	}
	return r
}

// Chains lists the chains containing p.
func (p *Point) Chains() []*Chain {
	r := make([]*Chain, len(p.chains))
	for i, id := range p.chains {
		r[i] = p.mesh.chains[id]
	}
	return r
}

// ConnectedViaChains lists the neighbours of p along its chains, each once.
func (p *Point) ConnectedViaChains() []*Point {
	var r []*Point
	add := func(q *Point) {
		if !slices.Contains(r, q) {
			r = append(r, q)
		}
	}
	for _, c := range p.Chains() {
		for i, id := range c.pts {
			if id != p.id {
				continue
			}
			if i > 0 {
				add(c.Point(i - 1))
			}
			if i < len(c.pts)-1 {
				add(c.Point(i + 1))
			}
		}
	}
	return r
}

func (p *Point) addChain(id ChainID) {
	if !slices.Contains(p.chains, id) {
		p.chains = append(p.chains, id)
	}
}

func (p *Point) removeChain(id ChainID) {
	p.chains = slices.DeleteFunc(p.chains, func(c ChainID) bool { return c == id })
}

// takeOverConnections moves all neighbours of old over to p.
func (p *Point) takeOverConnections(old *Point) {
	for _, q := range old.Adjacent() {
		old.Disconnect(q)
		if q != p {
			_ = p.Connect(q)
		}
	}
}

// MutuallyRepel pushes p and q apart along their connecting axis until they
// are target apart, once the offsets are applied. If both may move, each
// takes half of the correction; if only one may move, it takes all of it.
// Points which are already far enough apart, or coincident, are left alone.
func (p *Point) MutuallyRepel(q *Point, target float64, ignorePinned bool) {
	axis := q.co - p.co
	dist := axis.Length()
	if dist >= target || dist < blobsim.Epsilon {
		return
	}
	pFree := ignorePinned || !p.Pinned()
	qFree := ignorePinned || !q.Pinned()
	corr := axis.ScaledToLength(target - dist)
	switch {
	case pFree && qFree:
		p.AddOffset(-corr / 2)
		q.AddOffset(corr / 2)
	case pFree:
		p.AddOffset(-corr)
	case qFree:
		q.AddOffset(corr)
	}
}

// DissolveEndpoint merges the two chains meeting at p into one. p must be an
// endpoint of exactly two chains and of no other chain. The merged chain is
// returned.
func (p *Point) DissolveEndpoint() (*Chain, error) {
	if len(p.chains) != 2 {
		return nil, fmt.Errorf("%w: point %d is part of %d chains", ErrNotDissolvable, p.id, len(p.chains))
	}
	a, b := p.mesh.chains[p.chains[0]], p.mesh.chains[p.chains[1]]
	if !a.IsEndpoint(p) || !b.IsEndpoint(p) {
		return nil, fmt.Errorf("%w: point %d is inside a chain", ErrNotDissolvable, p.id)
	}
	if err := a.mergeAt(b, p); err != nil {
		return nil, err
	}
	tracer().Debugf("dissolved joint %d into chain %d", p.id, a.id)
	return a, nil
}

func (p *Point) String() string {
	return fmt.Sprintf("point %d at %v", p.id, p.co)
}
