// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package collide

import "github.com/gazed/dynamics/body"

// pair is an unordered collider-index pair that survived the bounding
// sphere test, grounded on broad_Collision_Pair in physics/broad.go.
type pair struct{ i, j int }

// broadPhase does an O(n^2) bounding-sphere-radius-sum test over every
// live collider, the same slop-margined check as
// broad_get_collision_pairs in physics/broad.go (a 0.1 world-unit
// margin so narrow phase sees pairs just about to touch).
func broadPhase(colliders []*Collider) []pair {
	const slop = 0.1
	var pairs []pair
	for i := 0; i < len(colliders); i++ {
		for j := i + 1; j < len(colliders); j++ {
			a, b := colliders[i], colliders[j]
			if a.Handle == b.Handle {
				continue // parts of the same body never collide with each other.
			}
			d := a.worldCenter
			d.X -= b.worldCenter.X
			d.Y -= b.worldCenter.Y
			d.Z -= b.worldCenter.Z
			distSqr := d.X*d.X + d.Y*d.Y + d.Z*d.Z
			reach := a.Shape.BoundingRadius() + b.Shape.BoundingRadius() + slop
			if distSqr < reach*reach {
				pairs = append(pairs, pair{i, j})
			}
		}
	}
	return pairs
}

// unionFind is the classic disjoint-set structure broad_collect_simulation_islands
// builds in physics/broad.go, ported verbatim in algorithm (find with no
// path compression, union by direct parent rewrite) since the teacher's
// body counts never justified path compression either.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// collectSimulationIslands groups colliders whose bodies are connected
// through a colliding pair or a constraint pair into islands, mirroring
// broad_collect_simulation_islands: static/ground bodies never merge two
// islands together (a ground contact does not wake every other body
// touching the ground), matching the teacher's "fixed bodies don't
// union" rule inherited from uf_collect_all.
func collectSimulationIslands(colliders []*Collider, pairs []pair, constraintPairs [][2]body.Handle) [][]body.Handle {
	uf := newUnionFind(len(colliders))
	indexOf := make(map[body.Handle]int)
	for i, c := range colliders {
		if _, ok := indexOf[c.Handle]; !ok {
			indexOf[c.Handle] = i
		}
	}

	for _, p := range pairs {
		a, b := colliders[p.i], colliders[p.j]
		if a.static() || b.static() {
			continue
		}
		uf.union(p.i, p.j)
	}
	for _, cp := range constraintPairs {
		ia, okA := indexOf[cp[0]]
		ib, okB := indexOf[cp[1]]
		if !okA || !okB {
			continue
		}
		if colliders[ia].static() || colliders[ib].static() {
			continue
		}
		uf.union(ia, ib)
	}

	islands := make(map[int][]body.Handle)
	seen := make(map[body.Handle]bool)
	for i, c := range colliders {
		if seen[c.Handle] {
			continue
		}
		seen[c.Handle] = true
		root := uf.find(i)
		islands[root] = append(islands[root], c.Handle)
	}

	out := make([][]body.Handle, 0, len(islands))
	for _, members := range islands {
		out = append(out, members)
	}
	return out
}
