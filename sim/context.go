package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/npillmayer/blobsim"
	"github.com/npillmayer/blobsim/polygon"
	"github.com/npillmayer/blobsim/topo"
)

// Context is the state of one simulation. It is owned by the driver and
// handed to Step for every frame.
type Context struct {
	Params          Params
	Mesh            *topo.Mesh
	Blobs           []*topo.Blob // inner blobs, in order of creation
	Outer           *topo.Blob   // unmoving face around the frame
	Frame           int
	PointOfInterest blobsim.Pair
	rand            *rand.Rand
}

// NewContext creates an empty simulation. Call SpawnFirstAndOuterBlob to
// populate it.
func NewContext(p Params) *Context {
	return &Context{
		Params:          p,
		Mesh:            topo.NewMesh(),
		PointOfInterest: blobsim.P(p.Width/2, p.Height/2),
		rand:            rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
	}
}

// SpawnFirstAndOuterBlob creates the frame, inset by the margin from the
// canvas border, as four chains. The first blob fills the frame; the outer
// blob is the unmoving region around it, sharing the same chains.
func (ctx *Context) SpawnFirstAndOuterBlob() (*topo.Blob, *topo.Blob, error) {
	m, p := ctx.Mesh, ctx.Params
	topLeft := m.NewPointXY(p.Margin, p.Margin)
	topRight := m.NewPointXY(p.Width-p.Margin, p.Margin)
	bottomLeft := m.NewPointXY(p.Margin, p.Height-p.Margin)
	bottomRight := m.NewPointXY(p.Width-p.Margin, p.Height-p.Margin)
	top := m.ChainBetween(topLeft, topRight, p.LinkLength, 0)
	left := m.ChainBetween(bottomLeft, topLeft, p.LinkLength, 0)
	bottom := m.ChainBetween(bottomRight, bottomLeft, p.LinkLength, 0)
	right := m.ChainBetween(topRight, bottomRight, p.LinkLength, 0)
	first, err := m.NewBlob([]*topo.Chain{top, left, bottom, right})
	if err != nil {
		return nil, nil, err
	}
	outer, err := m.NewOuterBlob([]*topo.Chain{right, bottom, left, top})
	if err != nil {
		return nil, nil, err
	}
	first.SetLinkLength(p.LinkLength)
	outer.SetLinkLength(p.LinkLength)
	ctx.Blobs = append(ctx.Blobs, first)
	ctx.Outer = outer
	tracer().Infof("frame of %g×%g with %d points", p.Width-2*p.Margin, p.Height-2*p.Margin, first.PointCount())
	return first, outer, nil
}

// Chains lists the chains of all blobs, each once.
func (ctx *Context) Chains() []*topo.Chain {
	return topo.ChainsOf(ctx.allBlobs())
}

func (ctx *Context) allBlobs() []*topo.Blob {
	if ctx.Outer == nil {
		return ctx.Blobs
	}
	return append(slices.Clone(ctx.Blobs), ctx.Outer)
}

// LargestBlob is the inner blob with the most ring points. Among equals the
// older one wins.
func (ctx *Context) LargestBlob() *topo.Blob {
	var largest *topo.Blob
	for _, b := range ctx.Blobs {
		if largest == nil || b.PointCount() > largest.PointCount() {
			largest = b
		}
	}
	return largest
}

// SpawnBlobInLargestBlob buds a new blob off the largest blob at a random
// ring location.
func (ctx *Context) SpawnBlobInLargestBlob() (*topo.Blob, error) {
	big := ctx.LargestBlob()
	if big == nil {
		return nil, ErrNoBlobs
	}
	return ctx.SpawnBlobAt(big, ctx.rand.IntN(big.PointCount()))
}

// SpawnBlobAt buds a new blob off b at ring index loc.
func (ctx *Context) SpawnBlobAt(b *topo.Blob, loc int) (*topo.Blob, error) {
	child, _, err := b.SpawnSmallBlob(loc)
	if err != nil {
		return nil, fmt.Errorf("cannot spawn in blob %d: %w", b.ID(), err)
	}
	child.SetLinkLength(ctx.Params.LinkLength)
	ctx.Blobs = append(ctx.Blobs, child)
	tracer().Infof("frame %d: blob %d spawned in blob %d, %d blobs now", ctx.Frame, child.ID(), b.ID(), len(ctx.Blobs))
	return child, nil
}

// BlobAt returns the inner blob containing location p, if any.
func (ctx *Context) BlobAt(p blobsim.Pair) (*topo.Blob, bool) {
	for _, b := range ctx.Blobs {
		if polygon.FromPairs(b.Coords()).Contains(p) {
			return b, true
		}
	}
	return nil, false
}

// Bounds returns the corners of the bounding box of all inner blobs.
func (ctx *Context) Bounds() (blobsim.Pair, blobsim.Pair) {
	var pts []blobsim.Pair
	for _, b := range ctx.Blobs {
		pts = append(pts, b.Coords()...)
	}
	return polygon.FromPairs(pts).BoundingBox()
}

// Validate checks every blob, the references between blobs, chains and
// points, and that no two inner blobs overlap.
func (ctx *Context) Validate() error {
	blobs := ctx.allBlobs()
	for _, b := range blobs {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if err := topo.ReferencesMutual(blobs); err != nil {
		return err
	}
	if a, b, ok := ctx.Overlapping(); ok {
		return fmt.Errorf("%w: blobs %d and %d", ErrOverlap, a.ID(), b.ID())
	}
	return nil
}

// overlapTolerance is the share of the smaller blob that two blobs may have
// in common. Neighbours share chains, which clipping may report as slivers.
const overlapTolerance = 0.01

// Overlapping returns the first pair of inner blobs whose rings cover a
// common region of more than a sliver.
func (ctx *Context) Overlapping() (*topo.Blob, *topo.Blob, bool) {
	rings := make([]*polygon.Polygon, len(ctx.Blobs))
	for i, b := range ctx.Blobs {
		rings[i] = polygon.FromPairs(b.Coords())
	}
	for i := range rings {
		for j := i + 1; j < len(rings); j++ {
			if !rings[i].Overlaps(rings[j]) {
				continue
			}
			common := rings[i].IntersectionArea(rings[j])
			if common > overlapTolerance*math.Min(rings[i].Area(), rings[j].Area()) {
				tracer().Errorf("blobs %d and %d have %g in common", ctx.Blobs[i].ID(), ctx.Blobs[j].ID(), common)
				return ctx.Blobs[i], ctx.Blobs[j], true
			}
		}
	}
	return nil, nil, false
}

// walkPointOfInterest moves the point of interest along the ring of the
// first blob, one ring index every five frames, slightly inside the blob.
func (ctx *Context) walkPointOfInterest() {
	if len(ctx.Blobs) == 0 {
		return
	}
	b := ctx.Blobs[0]
	i := ctx.Frame / 5
	ctx.PointOfInterest = b.PointAt(i).Co() + b.InnerDirection(i).ScaledToLength(10)
}
