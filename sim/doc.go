/*
Package sim drives a planar subdivision frame by frame.

A Context owns the mesh, the list of inner blobs, the unmoving outer blob
around the canvas, the frame counter and a point of interest. Drivers call
Step once per frame; Step recomputes areas, computes all constraint
offsets (area equalization, minimal width, link length, secondary joint
distance) into the offset buffers of the points, commits them in one pass
and finally dissolves joints which have become meaningless. Deciding when
to spawn new blobs is left to the driver, which may use
SpawnBlobInLargestBlob for it.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package sim

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'blobsim.sim'
func tracer() tracing.Trace {
	return tracing.Select("blobsim.sim")
}

var (
	// ErrConfig flags an unparsable configuration value.
	ErrConfig = errors.New("invalid configuration value")
	// ErrNoBlobs flags an operation on a context which has not been set up.
	ErrNoBlobs = errors.New("simulation has no blobs")
	// ErrOverlap flags two inner blobs covering a common region.
	ErrOverlap = errors.New("blobs overlap")
)
