/*
Package topo is the topology engine: points, chains of points, and blobs
formed by cyclic loops of chains.

A Point carries a position, an accumulated offset and a symmetric adjacency
set. A Chain is an ordered run of at least two points and knows at most one
blob on each of its sides. A Blob is a cycle of chains bounding one region;
neighbouring blobs share the chains between them.

The resulting ownership graph is cyclic (blob → chain → blob, chain → point
→ chain). All entities therefore live in a Mesh, an arena addressed by
stable integer handles. Entities refer to each other by handle only; an
invariant check is a comparison of handles.

# Index space

Each blob exposes its ring of points as one flat index space. Index 0 is
the first point of chain 0 in loop direction; every chain adds its point
count minus one, so shared endpoints are counted once, and indices wrap
modulo the ring size. A chain whose internal order runs against the loop
("backwards") contributes its points in reverse. Per-blob index tables and
backwards flags are cached and dropped whenever the mesh is edited
structurally.

# Orientation

The y axis points down. A blob is clockwise if the shoelace sum
Σ(x1*y2 - x2*y1) over its ring is positive. A blob sits on the right side
of a chain if exactly one of "blob is clockwise" and "chain runs backwards
in the blob" holds, otherwise on the left side. An outer blob, standing for
the unbounded face around its ring, takes the opposite side.

# Deferred offsets

Constraint operations never move points directly. They add to each point's
offset buffer; a separate commit pass moves the points and clears the
buffers. Constraints computed in the same step thus do not see each
other's partial results.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package topo

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'blobsim.topo'
func tracer() tracing.Trace {
	return tracing.Select("blobsim.topo")
}

// Precondition violations. These indicate a logic error on the caller's side
// and are never retried or corrected.
var (
	ErrSelfConnection   = errors.New("point cannot connect to itself")
	ErrCutAtEndpoint    = errors.New("chain cannot be cut at or beyond an endpoint")
	ErrNotDissolvable   = errors.New("point is not a joint of exactly two chain endpoints")
	ErrNotConnected     = errors.New("chains do not share an endpoint")
	ErrNotReconnectable = errors.New("inserted chains do not close the gap in the loop")
	ErrNotContiguous    = errors.New("chains are not a contiguous run of the loop")
	ErrNotInLoop        = errors.New("chain is not part of the loop")
	ErrNotIntersection  = errors.New("index is not an intersection")
	ErrNotNeighbors     = errors.New("points are not neighbours")
	ErrNotEndpoint      = errors.New("point is not an endpoint of the chain")
	ErrSameSides        = errors.New("chain has the same blob on both sides")
	ErrNoGap            = errors.New("no gap to fill")
)

// Invariant violations, reported by the validity checks.
var (
	ErrTooFewPoints    = errors.New("chain has fewer than two points")
	ErrEmptyLoop       = errors.New("blob has no chains")
	ErrOpenLoop        = errors.New("single chain of a blob is not closed")
	ErrInvalidTopology = errors.New("invalid topology")
)
