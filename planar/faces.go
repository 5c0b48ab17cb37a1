/*
Package planar reconstructs the bounded faces of a planar graph from its
edges alone.

The tracer knows nothing about chains or blobs. It needs undirected edges
and a way to look up the coordinates of a vertex. Neighbours of each vertex
are sorted by angle, then every directed edge is walked around the face it
borders, turning to the next neighbour at each vertex. Each directed edge
belongs to exactly one face; faces with negative signed area (screen-down
axis) are the inner ones, the single positive face is the unbounded outer
one and is dropped.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package planar

import (
	"errors"
	"fmt"
	"slices"

	"github.com/npillmayer/blobsim"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'blobsim.planar'
func tracer() tracing.Trace {
	return tracing.Select("blobsim.planar")
}

// InnerFaceEpsilon is the signed area below which a face counts as inner.
const InnerFaceEpsilon = 1e-9

var (
	// ErrSelfLoop flags an edge from a vertex to itself.
	ErrSelfLoop = errors.New("edge connects a vertex to itself")
	// ErrDegenerateFace flags an inner face which visits a vertex twice.
	ErrDegenerateFace = errors.New("inner face visits a vertex twice")
)

// Edge is an undirected edge between two vertices.
type Edge[V comparable] struct {
	A, B V
}

// E is a short notation for creating an edge.
func E[V comparable](a, b V) Edge[V] {
	return Edge[V]{A: a, B: b}
}

// graph is the adjacency structure the tracer walks. Vertices are numbered
// in order of first appearance, which makes the output deterministic.
type graph[V comparable] struct {
	vertices []V
	index    map[V]int
	adj      [][]int
	used     [][]bool
	co       []blobsim.Pair
}

// Faces returns all inner faces of the planar graph given by edges. Each face
// is a vertex cycle (first vertex not repeated at the end). co maps a vertex
// to its coordinates.
//
// Duplicate edges are collapsed. A graph of exactly one back-and-forth edge
// pair, (A,B) and (B,A), is returned as the single face [A B].
func Faces[V comparable](edges []Edge[V], co func(V) blobsim.Pair) ([][]V, error) {
	if len(edges) == 2 && edges[0].A == edges[1].B && edges[0].B == edges[1].A {
		if edges[0].A == edges[0].B {
			return nil, ErrSelfLoop
		}
		return [][]V{{edges[0].A, edges[0].B}}, nil
	}
	g, err := buildGraph(edges, co)
	if err != nil {
		return nil, err
	}
	g.sortAdjacency()
	var faces [][]V
	for u := range g.adj {
		for i := range g.adj[u] {
			if g.used[u][i] {
				continue
			}
			cycle := g.traceFace(u, i)
			pts := make([]blobsim.Pair, len(cycle))
			for k, v := range cycle {
				pts[k] = g.co[v]
			}
			if blobsim.SignedArea(pts) >= -InnerFaceEpsilon {
				continue // outer face, or a dangling run with no area
			}
			if hasRepeats(cycle) {
				return nil, fmt.Errorf("%w: face of %d vertices starting at %v",
					ErrDegenerateFace, len(cycle), g.vertices[cycle[0]])
			}
			face := make([]V, len(cycle))
			for k, v := range cycle {
				face[k] = g.vertices[v]
			}
			faces = append(faces, face)
		}
	}
	tracer().Debugf("planar graph of %d vertices has %d inner faces", len(g.vertices), len(faces))
	return faces, nil
}

func buildGraph[V comparable](edges []Edge[V], co func(V) blobsim.Pair) (*graph[V], error) {
	g := &graph[V]{index: make(map[V]int)}
	vertex := func(v V) int {
		if k, ok := g.index[v]; ok {
			return k
		}
		k := len(g.vertices)
		g.index[v] = k
		g.vertices = append(g.vertices, v)
		g.adj = append(g.adj, nil)
		g.co = append(g.co, co(v))
		return k
	}
	for _, e := range edges {
		if e.A == e.B {
			return nil, fmt.Errorf("%w: %v", ErrSelfLoop, e.A)
		}
		a, b := vertex(e.A), vertex(e.B)
		if slices.Contains(g.adj[a], b) {
			continue
		}
		g.adj[a] = append(g.adj[a], b)
		g.adj[b] = append(g.adj[b], a)
	}
	g.used = make([][]bool, len(g.adj))
	for u := range g.adj {
		g.used[u] = make([]bool, len(g.adj[u]))
	}
	return g, nil
}

// sortAdjacency orders the neighbours of every vertex by the angle of the
// connecting edge, in [0,2π).
func (g *graph[V]) sortAdjacency() {
	for u, nbs := range g.adj {
		angle := func(v int) float64 {
			return (g.co[v] - g.co[u]).Angle()
		}
		slices.SortStableFunc(nbs, func(a, b int) int {
			aa, ab := angle(a), angle(b)
			switch {
			case aa < ab:
				return -1
			case aa > ab:
				return 1
			}
			return 0
		})
	}
}

// traceFace walks the face to the side of the directed edge u→adj[u][i] until
// the starting edge comes around again.
func (g *graph[V]) traceFace(uStart, iStart int) []int {
	var face []int
	u, i := uStart, iStart
	for {
		g.used[u][i] = true
		face = append(face, u)
		v := g.adj[u][i]
		back := slices.Index(g.adj[v], u)
		i = (back + 1) % len(g.adj[v])
		u = v
		if u == uStart && i == iStart {
			return face
		}
	}
}

func hasRepeats(cycle []int) bool {
	seen := make(map[int]struct{}, len(cycle))
	for _, v := range cycle {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
