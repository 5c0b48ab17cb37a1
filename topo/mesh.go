package topo

import (
	"fmt"
	"slices"

	"github.com/npillmayer/blobsim"
)

// PointID is a stable handle of a point within its mesh.
type PointID int

// ChainID is a stable handle of a chain within its mesh.
type ChainID int

// BlobID is a stable handle of a blob within its mesh.
type BlobID int

// Handle 0 denotes "none" for every entity type.
const (
	NoPoint PointID = 0
	NoChain ChainID = 0
	NoBlob  BlobID  = 0
)

// Mesh is the arena holding all points, chains and blobs of one planar
// subdivision. Slot 0 of every table is unused; released slots are set to
// nil and never reused, so handles stay stable.
type Mesh struct {
	points     []*Point
	chains     []*Chain
	blobs      []*Blob
	generation uint64 // bumped on every structural edit
	motion     uint64 // bumped whenever a point moves
}

// NewMesh creates an empty arena.
func NewMesh() *Mesh {
	return &Mesh{
		points: make([]*Point, 1),
		chains: make([]*Chain, 1),
		blobs:  make([]*Blob, 1),
	}
}

// changed invalidates every cached index table.
func (m *Mesh) changed() {
	m.generation++
}

// NewPoint creates a standalone point at co.
func (m *Mesh) NewPoint(co blobsim.Pair) *Point {
	p := &Point{mesh: m, id: PointID(len(m.points)), co: co}
	m.points = append(m.points, p)
	return p
}

// NewPointXY is a shortcut for NewPoint(blobsim.P(x,y)).
func (m *Mesh) NewPointXY(x, y float64) *Point {
	return m.NewPoint(blobsim.P(x, y))
}

// PointFromOffset creates a new point at p's position shifted by offset.
// The new point starts with an empty offset buffer.
func (m *Mesh) PointFromOffset(p *Point, offset blobsim.Pair) *Point {
	return m.NewPoint(p.co + offset)
}

// Point returns the point for a handle, or nil.
func (m *Mesh) Point(id PointID) *Point {
	if id <= NoPoint || int(id) >= len(m.points) {
		return nil
	}
	return m.points[id]
}

// Chain returns the chain for a handle, or nil.
func (m *Mesh) Chain(id ChainID) *Chain {
	if id <= NoChain || int(id) >= len(m.chains) {
		return nil
	}
	return m.chains[id]
}

// Blob returns the blob for a handle, or nil.
func (m *Mesh) Blob(id BlobID) *Blob {
	if id <= NoBlob || int(id) >= len(m.blobs) {
		return nil
	}
	return m.blobs[id]
}

// Points lists all live points in creation order.
func (m *Mesh) Points() []*Point {
	return live(m.points)
}

// Chains lists all live chains in creation order.
func (m *Mesh) Chains() []*Chain {
	return live(m.chains)
}

// Blobs lists all live blobs in creation order.
func (m *Mesh) Blobs() []*Blob {
	return live(m.blobs)
}

func live[T any](table []*T) []*T {
	r := make([]*T, 0, len(table))
	for _, e := range table {
		if e != nil {
			r = append(r, e)
		}
	}
	return r
}

// releaseChain retires a chain: its points forget it, every blob drops it
// from its loop, and its slot is cleared.
func (m *Mesh) releaseChain(c *Chain) {
	for _, pid := range c.pts {
		m.points[pid].removeChain(c.id)
	}
	for _, b := range m.Blobs() {
		if k := b.indexOf(c); k >= 0 {
			b.loop = slices.Delete(b.loop, k, k+1)
		}
	}
	c.pts = nil
	c.left, c.right = NoBlob, NoBlob
	m.chains[c.id] = nil
	m.changed()
	tracer().Debugf("released chain %d", c.id)
}

// releaseBlob retires a blob and clears its side references on chains.
func (m *Mesh) releaseBlob(b *Blob) {
	for _, cid := range b.loop {
		if c := m.chains[cid]; c != nil {
			c.clearSide(b.id)
		}
	}
	b.loop = nil
	m.blobs[b.id] = nil
	m.changed()
	tracer().Debugf("released blob %d", b.id)
}

// Prune releases points which belong to no chain and have no neighbours.
// It returns the number of points released.
func (m *Mesh) Prune() int {
	n := 0
	for id, p := range m.points {
		if p != nil && len(p.chains) == 0 && len(p.adj) == 0 {
			m.points[id] = nil
			n++
		}
	}
	return n
}

// Validate checks every live blob and every live chain.
func (m *Mesh) Validate() error {
	for _, c := range m.Chains() {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, b := range m.Blobs() {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// String summarizes the arena for tracing.
func (m *Mesh) String() string {
	return fmt.Sprintf("mesh{%d points, %d chains, %d blobs}",
		len(m.Points()), len(m.Chains()), len(m.Blobs()))
}
