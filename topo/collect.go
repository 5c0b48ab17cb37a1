package topo

import "slices"

// ChainsOf lists the chains of all blobs, each once, in order of first
// appearance.
func ChainsOf(blobs []*Blob) []*Chain {
	var r []*Chain
	for _, b := range blobs {
		for _, c := range b.Chains() {
			if !slices.Contains(r, c) {
				r = append(r, c)
			}
		}
	}
	return r
}

// MovableChains filters chains which are not unmoving.
func MovableChains(chains []*Chain) []*Chain {
	var r []*Chain
	for _, c := range chains {
		if !c.Unmoving() {
			r = append(r, c)
		}
	}
	return r
}

// Endpoints lists the endpoints of chains, each once.
func Endpoints(chains []*Chain) []*Point {
	var r []*Point
	for _, c := range chains {
		for _, p := range []*Point{c.Start(), c.End()} {
			if p != nil && !slices.Contains(r, p) {
				r = append(r, p)
			}
		}
	}
	return r
}

// MovableJoints lists the endpoints of chains which are free to move.
func MovableJoints(chains []*Chain) []*Point {
	var r []*Point
	for _, p := range Endpoints(MovableChains(chains)) {
		if !p.Pinned() {
			r = append(r, p)
		}
	}
	return r
}

// UniquePoints lists the points of chains, each once.
func UniquePoints(chains []*Chain) []*Point {
	var r []*Point
	seen := make(map[PointID]bool)
	for _, c := range chains {
		for _, p := range c.Points() {
			if !seen[p.id] {
				seen[p.id] = true
				r = append(r, p)
			}
		}
	}
	return r
}
