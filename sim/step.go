package sim

import (
	"github.com/npillmayer/blobsim"
	"github.com/npillmayer/blobsim/topo"
)

// StepReport summarizes what one frame did.
type StepReport struct {
	Frame     int
	Repelled  int // point pairs pushed apart by width enforcement
	Moved     int // points moved in the commit pass
	Dissolved int // joints merged away
}

// Step runs one frame of the simulation. All constraints are computed into
// offset buffers first and committed together, so none of them sees the
// partial results of another:
//
//  1. recompute the areas of all blobs,
//  2. add area equalization offsets to movable chains,
//  3. enforce the minimal width of every inner blob,
//  4. enforce the link length and the secondary joint distance,
//  5. commit all offsets,
//  6. dissolve joints which join exactly two movable chains.
func Step(ctx *Context) (StepReport, error) {
	report := StepReport{Frame: ctx.Frame}
	if len(ctx.Blobs) == 0 {
		return report, ErrNoBlobs
	}
	p := ctx.Params
	for _, b := range ctx.Blobs {
		b.RecalculateArea()
	}
	chains := ctx.Chains()
	movable := topo.MovableChains(chains)
	AddAreaEqualizationOffset(movable, p.AreaStep)
	for _, b := range ctx.Blobs {
		report.Repelled += b.EnforceMinimalWidth(p.MinWidth, false)
	}
	for _, c := range movable {
		c.EnforceLinkLength(p.LinkLength, false)
	}
	for _, c := range movable {
		c.EnforceSecondaryJointDistance(p.SecondaryDistance, p.LinkLength)
	}
	for _, pt := range topo.UniquePoints(chains) {
		if pt.ApplyOffset(false) {
			report.Moved++
		}
	}
	dissolved, err := DissolveDegenerateJoints(movable)
	report.Dissolved = dissolved
	if err != nil {
		return report, err
	}
	ctx.Frame++
	ctx.walkPointOfInterest()
	tracer().Debugf("frame %d: %d pairs repelled, %d points moved, %d joints dissolved",
		report.Frame, report.Repelled, report.Moved, report.Dissolved)
	return report, nil
}

// AddAreaEqualizationOffset pushes every movable chain towards the larger
// of its two blobs, which grows the smaller one. The offset is half the area
// difference spread over the length of the chain, capped by maxStep.
func AddAreaEqualizationOffset(chains []*topo.Chain, maxStep float64) {
	for _, c := range chains {
		if c.Unmoving() {
			continue
		}
		left, right := c.Left(), c.Right()
		l := c.Length()
		if left == nil || right == nil || blobsim.Is0(l) {
			continue
		}
		diff := right.Area() - left.Area()
		if blobsim.Is0(diff) {
			continue
		}
		c.AddRightOffset(blobsim.Clamp(diff/(2*l), -maxStep, maxStep), false)
	}
}

// DissolveDegenerateJoints merges chains meeting at a free joint which is
// the endpoint of exactly two chains. Such a joint separates nothing. It
// returns the number of joints dissolved.
func DissolveDegenerateJoints(chains []*topo.Chain) (int, error) {
	n := 0
	for _, p := range topo.MovableJoints(chains) {
		if !degenerate(p) {
			continue
		}
		if _, err := p.DissolveEndpoint(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// degenerate tells whether p joins exactly two chains which do not also
// meet at their other ends.
func degenerate(p *topo.Point) bool {
	chains := p.Chains()
	if len(chains) != 2 || chains[0] == chains[1] {
		return false
	}
	a, b := chains[0], chains[1]
	if !a.IsEndpoint(p) || !b.IsEndpoint(p) || a.IsClosed() || b.IsClosed() {
		return false
	}
	return farEnd(a, p) != farEnd(b, p)
}

func farEnd(c *topo.Chain, p *topo.Point) *topo.Point {
	if c.Start() == p {
		return c.End()
	}
	return c.Start()
}
