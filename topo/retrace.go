package topo

import (
	"fmt"
	"slices"

	"github.com/npillmayer/blobsim"
	"github.com/npillmayer/blobsim/planar"
)

// Component lists all points reachable from seed via adjacency, in
// breadth-first order.
func Component(seed *Point) []*Point {
	seen := map[PointID]bool{seed.id: true}
	queue := []*Point{seed}
	for i := 0; i < len(queue); i++ {
		for _, q := range queue[i].Adjacent() {
			if !seen[q.id] {
				seen[q.id] = true
				queue = append(queue, q)
			}
		}
	}
	return queue
}

type segment struct{ a, b PointID }

func seg(a, b PointID) segment {
	if a > b {
		a, b = b, a
	}
	return segment{a, b}
}

// ChainedPointRuns splits the connected component of seed into runs of
// points. A run starts and ends at a joint (a point with other than two
// neighbours) and has only degree-2 points in between. A component without
// joints is a single cycle, returned as one run from seed back to seed. An
// isolated point yields no runs.
func ChainedPointRuns(seed *Point) [][]*Point {
	comp := Component(seed)
	var joints []*Point
	for _, p := range comp {
		if p.Degree() != 2 {
			joints = append(joints, p)
		}
	}
	if len(comp) < 2 {
		return nil
	}
	used := make(map[segment]bool)
	walk := func(from, to *Point) []*Point {
		run := []*Point{from, to}
		used[seg(from.id, to.id)] = true
		prev, cur := from, to
		for cur.Degree() == 2 && cur != from {
			next := cur.mesh.points[cur.adj[0]]
			if next == prev {
				next = cur.mesh.points[cur.adj[1]]
			}
			if used[seg(cur.id, next.id)] {
				break
			}
			used[seg(cur.id, next.id)] = true
			run = append(run, next)
			prev, cur = cur, next
		}
		return run
	}
	if len(joints) == 0 {
		return [][]*Point{walk(seed, seed.mesh.points[seed.adj[0]])}
	}
	var runs [][]*Point
	for _, j := range joints {
		for _, q := range j.Adjacent() {
			if !used[seg(j.id, q.id)] {
				runs = append(runs, walk(j, q))
			}
		}
	}
	return runs
}

// ChainsFromConnections creates a chain for every point run of the
// component of seed.
func (m *Mesh) ChainsFromConnections(seed *Point) []*Chain {
	var chains []*Chain
	for _, run := range ChainedPointRuns(seed) {
		chains = append(chains, m.NewChain(run))
	}
	return chains
}

// ChainLoopsFromChains finds the closed loops of chains bounding the inner
// faces of the planar graph formed by chains. Each loop is given in traversal
// order, starting at a chain boundary.
func ChainLoopsFromChains(chains []*Chain) ([][]*Chain, error) {
	if len(chains) == 0 {
		return nil, nil
	}
	m := chains[0].mesh
	owner := make(map[segment]*Chain)
	var edges []planar.Edge[PointID]
	for _, c := range chains {
		for i := 1; i < len(c.pts); i++ {
			s := seg(c.pts[i-1], c.pts[i])
			if o, ok := owner[s]; ok && o != c {
				return nil, fmt.Errorf("%w: segment %d–%d is part of %v and %v",
					ErrInvalidTopology, s.a, s.b, o, c)
			}
			owner[s] = c
			edges = append(edges, planar.E(c.pts[i-1], c.pts[i]))
		}
	}
	faces, err := planar.Faces(edges, func(id PointID) blobsim.Pair {
		return m.points[id].co
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTopology, err)
	}
	loops := make([][]*Chain, 0, len(faces))
	for _, face := range faces {
		run := make([]*Chain, len(face))
		for i, v := range face {
			run[i] = owner[seg(v, face[(i+1)%len(face)])]
		}
		start := 0
		for i := range run {
			if run[i] != run[(i+len(run)-1)%len(run)] {
				start = i
				break
			}
		}
		run = append(run[start:], run[:start]...)
		loops = append(loops, slices.Compact(run))
	}
	tracer().Debugf("%d chains form %d loops", len(chains), len(loops))
	return loops, nil
}

// Retrace rebuilds the chains and blobs of the component of seed from raw
// point connectivity. It is meant for use after points have been connected
// or disconnected directly. The chains and blobs previously built on the
// component are retired; unmoving flags are not carried over.
func (m *Mesh) Retrace(seed *Point) ([]*Blob, error) {
	comp := Component(seed)
	var old []*Chain
	for _, p := range comp {
		for _, c := range p.Chains() {
			if !slices.Contains(old, c) {
				old = append(old, c)
			}
		}
	}
	for _, c := range old {
		for _, b := range c.Blobs() {
			m.releaseBlob(b)
		}
	}
	for _, c := range old {
		m.releaseChain(c)
	}
	chains := m.ChainsFromConnections(seed)
	loops, err := ChainLoopsFromChains(chains)
	if err != nil {
		return nil, err
	}
	blobs := make([]*Blob, 0, len(loops))
	for _, loop := range loops {
		b, err := m.NewBlob(loop)
		if err != nil {
			return blobs, err
		}
		blobs = append(blobs, b)
	}
	tracer().Infof("retraced %d points into %d chains and %d blobs", len(comp), len(chains), len(blobs))
	return blobs, nil
}
