package topo

import (
	"fmt"
	"slices"
)

// validateLoop checks the shape of the chain loop: length, closure of a
// single chain, connectivity of consecutive chains.
func (b *Blob) validateLoop() error {
	if len(b.loop) < 1 {
		return fmt.Errorf("%w: blob %d", ErrEmptyLoop, b.id)
	}
	for _, cid := range b.loop {
		c := b.mesh.Chain(cid)
		if c == nil {
			return fmt.Errorf("%w: blob %d refers to released chain %d", ErrInvalidTopology, b.id, cid)
		}
		if c.Len() < 2 {
			return fmt.Errorf("%w: chain %d of blob %d", ErrTooFewPoints, c.id, b.id)
		}
	}
	if len(b.loop) == 1 {
		if !b.chain(0).IsClosed() {
			return fmt.Errorf("%w: blob %d", ErrOpenLoop, b.id)
		}
		return nil
	}
	prev := b.chain(len(b.loop) - 1)
	for k := range b.loop {
		c := b.chain(k)
		if !c.IsConnectedTo(prev) {
			return fmt.Errorf("%w: %v is not connected to %v in blob %d", ErrInvalidTopology, prev, c, b.id)
		}
		prev = c
	}
	if len(b.loop) == 2 {
		c1, c2 := b.chain(0), b.chain(1)
		sToS, eToE := c1.Start() == c2.Start(), c1.End() == c2.End()
		sToE, eToS := c1.Start() == c2.End(), c1.End() == c2.Start()
		if sToS != eToE || sToE != eToS {
			return fmt.Errorf("%w: two chains of blob %d are not circularly connected", ErrInvalidTopology, b.id)
		}
	}
	return nil
}

// Validate checks all invariants of b: the loop shape, the side references
// of every chain against orientation and direction, and the mutual
// references between b, its chains, and their points. It is meant for tests
// and assertions, not for the per-step path.
func (b *Blob) Validate() error {
	if err := b.validateLoop(); err != nil {
		return err
	}
	cw := b.IsClockwise()
	for k := range b.loop {
		c := b.chain(k)
		var correct bool
		if b.onRightOf(k, cw) {
			correct = c.right == b.id && c.left != b.id
		} else {
			correct = c.left == b.id && c.right != b.id
		}
		if !correct {
			return fmt.Errorf("%w: blob references of %v are wrong, left=%d right=%d, blob %d on the %s",
				ErrInvalidTopology, c, c.left, c.right, b.id, sideName(b.onRightOf(k, cw)))
		}
	}
	return ReferencesMutual([]*Blob{b})
}

func sideName(right bool) string {
	if right {
		return "right"
	}
	return "left"
}

// ReferencesMutual checks that the references between blobs, their chains
// and the points of those chains agree in both directions.
func ReferencesMutual(blobs []*Blob) error {
	for _, b := range blobs {
		for _, c := range b.Chains() {
			if c.left != b.id && c.right != b.id {
				return fmt.Errorf("%w: %v does not refer to blob %d", ErrInvalidTopology, c, b.id)
			}
			if c.left != NoBlob && c.left == c.right {
				return fmt.Errorf("%w: %v", ErrSameSides, c)
			}
			for _, side := range c.Blobs() {
				if side.indexOf(c) < 0 {
					return fmt.Errorf("%w: %v refers to blob %d, which does not contain it",
						ErrInvalidTopology, c, side.id)
				}
			}
			if err := c.Validate(); err != nil {
				return err
			}
			for _, p := range c.Points() {
				for _, o := range p.Chains() {
					if o == nil || !o.Contains(p) {
						return fmt.Errorf("%w: point %d lists a chain not containing it", ErrInvalidTopology, p.id)
					}
				}
				if !slices.Contains(p.chains, c.id) {
					return fmt.Errorf("%w: point %d does not list %v", ErrInvalidTopology, p.id, c)
				}
			}
		}
	}
	return nil
}
