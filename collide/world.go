// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package collide

import (
	"github.com/cpmech/gosl/chk"

	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

// World is the collision-detection collaborator spec.md §6 describes:
// world.World drives it synchronously once per step, never concurrently
// with its own mutation of bodies. Method names mirror the snake_case
// the teacher's own step pipeline uses internally (physics/physics.go),
// kept here as the literal contract spec.md quotes.
type World interface {
	// SetPosition pushes a rigid/multibody collider's new world
	// transform (spec.md §4.6 step 4: "part-transform × local offset").
	SetPosition(h body.Handle, part body.PartIndex, center lin.V3)

	// SetDeformations hands an FEM collider its owner's current flat
	// node-position buffer by reference (no copy).
	SetDeformations(h body.Handle, positions []lin.V3)

	PerformBroadPhase()
	PerformNarrowPhase()
	ClearEvents()

	// Manifolds visits every collider pair with a non-empty manifold
	// this step, post pair-filter.
	Manifolds(fn func(colliderA, colliderB *Collider, m *Manifold))

	Add(c *Collider)
	Remove(h body.Handle, part body.PartIndex)

	// Islands reports this step's simulation islands (body handles
	// connected by a colliding pair or, via AddConstraintPair, a
	// constraint), for world.Step's activation/wake pass.
	Islands() [][]body.Handle
	AddConstraintPair(a, b body.Handle)
}

// Collider is one collidable surface parented to a body part. dof is
// cached by Add so narrow phase can convert world contact points back
// to each body's material space without a body.Set lookup per pair.
type Collider struct {
	Handle   body.Handle
	Part     body.PartIndex
	Shape    Shape
	Material Material

	// LocalOffset is the collider's center in its body part's material
	// frame; world.World passes dof.WorldPointAtMaterialPoint(part,
	// LocalOffset) to SetPosition every step (spec.md §4.6 step 4's
	// "part-transform × local offset"). Zero centers the collider on
	// the part's own origin.
	LocalOffset lin.V3

	dof          body.DOF
	worldCenter  lin.V3
	worldMin     lin.V3
	worldMax     lin.V3
	deformations []lin.V3 // non-nil only for FEM surface colliders, set by SetDeformations.
}

// NewCollider builds a Collider parented to a live body part, resolving
// and caching the owning DOF from set. chk.Panic mirrors the teacher's
// convention of treating a reference to a nonexistent handle as a
// programmer error (physics/body.go never tolerates a dangling bid).
func NewCollider(set *body.Set, h body.Handle, part body.PartIndex, shape Shape, mat Material) *Collider {
	dof := set.Get(h)
	if dof == nil {
		chk.Panic("collide: NewCollider: unknown body handle")
	}
	return &Collider{Handle: h, Part: part, Shape: shape, Material: mat, dof: dof}
}

// static reports whether this collider's owning body currently
// contributes zero columns to the solver (Static/Disabled status, or
// the ground body) — mirroring uf_collect_all's rule in
// physics/broad.go that a fixed body never unions two islands.
func (c *Collider) static() bool { return c.dof.StatusDependentNDofs() == 0 }

func (c *Collider) worldBounds() (min, max lin.V3) {
	switch c.Shape.Kind {
	case Box:
		return lin.V3{X: c.worldCenter.X - c.Shape.HalfExtents.X, Y: c.worldCenter.Y - c.Shape.HalfExtents.Y, Z: c.worldCenter.Z - c.Shape.HalfExtents.Z},
			lin.V3{X: c.worldCenter.X + c.Shape.HalfExtents.X, Y: c.worldCenter.Y + c.Shape.HalfExtents.Y, Z: c.worldCenter.Z + c.Shape.HalfExtents.Z}
	default:
		r := c.Shape.BoundingRadius()
		return lin.V3{X: c.worldCenter.X - r, Y: c.worldCenter.Y - r, Z: c.worldCenter.Z - r},
			lin.V3{X: c.worldCenter.X + r, Y: c.worldCenter.Y + r, Z: c.worldCenter.Z + r}
	}
}

// pairKey identifies an unordered collider pair by (handle, part) on
// each side, used to filter manifolds and to avoid narrow-phasing the
// same pair twice per step.
type pairKey struct {
	ha body.Handle
	pa body.PartIndex
	hb body.Handle
	pb body.PartIndex
}

func makePairKey(a, b *Collider) pairKey {
	if a.Handle > b.Handle || (a.Handle == b.Handle && a.Part > b.Part) {
		a, b = b, a
	}
	return pairKey{a.Handle, a.Part, b.Handle, b.Part}
}

// defaultWorld is the concrete World the teacher's union-find broad
// phase (physics/broad.go) and simplified sphere/box narrow phase
// (collide/narrow.go, adapted from physics/collider.go) back. world
// package wires this in by default; a test or alternate caller may
// supply its own World.
type defaultWorld struct {
	colliders       []*Collider
	manifolds       map[pairKey]*Manifold
	prevManifolds   map[pairKey]*Manifold // last step's manifolds, read by carryWarmImpulses then discarded.
	constraintPairs [][2]body.Handle
	islands         [][]body.Handle
	pendingPairs    []pair // broad-phase output, consumed by the next PerformNarrowPhase.
}

// NewDefaultWorld builds an empty collision world.
func NewDefaultWorld() World {
	return &defaultWorld{
		manifolds: make(map[pairKey]*Manifold),
	}
}

func (w *defaultWorld) Add(c *Collider) {
	if c.dof == nil {
		chk.Panic("collide: Collider added without an owning DOF")
	}
	w.colliders = append(w.colliders, c)
}

func (w *defaultWorld) Remove(h body.Handle, part body.PartIndex) {
	for i, c := range w.colliders {
		if c.Handle == h && c.Part == part {
			w.colliders = append(w.colliders[:i], w.colliders[i+1:]...)
			return
		}
	}
}

func (w *defaultWorld) SetPosition(h body.Handle, part body.PartIndex, center lin.V3) {
	for _, c := range w.colliders {
		if c.Handle == h && c.Part == part {
			c.worldCenter = center
			return
		}
	}
}

func (w *defaultWorld) SetDeformations(h body.Handle, positions []lin.V3) {
	for _, c := range w.colliders {
		if c.Handle == h {
			c.deformations = positions
		}
	}
}

func (w *defaultWorld) ClearEvents() {
	// Manifolds are rebuilt fresh every step (contacts are re-detected,
	// not tracked by a stable id), but the accumulated impulses they
	// carried are worth keeping: stash them as prevManifolds so the next
	// PerformNarrowPhase's carryWarmImpulses can seed matching new
	// contacts before the velocity solver runs.
	w.prevManifolds = w.manifolds
	w.manifolds = make(map[pairKey]*Manifold)
}

func (w *defaultWorld) AddConstraintPair(a, b body.Handle) {
	w.constraintPairs = append(w.constraintPairs, [2]body.Handle{a, b})
}

func (w *defaultWorld) Islands() [][]body.Handle { return w.islands }

// pairFilter excludes pairs where both colliders have zero
// status-dependent DOFs, per spec.md §6: two static/disabled bodies
// never need a manifold between them.
func pairFilter(a, b *Collider) bool {
	return a.dof.StatusDependentNDofs() > 0 || b.dof.StatusDependentNDofs() > 0
}

func (w *defaultWorld) PerformBroadPhase() {
	pairs := broadPhase(w.colliders)
	w.islands = collectSimulationIslands(w.colliders, pairs, w.constraintPairs)
	w.pendingPairs = pairs
}

func (w *defaultWorld) PerformNarrowPhase() {
	for _, p := range w.pendingPairs {
		a, b := w.colliders[p.i], w.colliders[p.j]
		if !pairFilter(a, b) {
			continue
		}
		contact, ok := narrowPhase(a, b)
		if !ok {
			continue
		}
		key := makePairKey(a, b)
		m, exists := w.manifolds[key]
		if !exists {
			m = &Manifold{BodyA: a.Handle, BodyB: b.Handle, Material: Material{
				Friction:    CombineFriction(a.Material, b.Material),
				Restitution: CombineRestitution(a.Material, b.Material),
			}}
			w.manifolds[key] = m
		}
		const maxContactsPerManifold = 4
		if len(m.Contacts) < maxContactsPerManifold {
			w.carryWarmImpulses(key, &contact)
			m.Contacts = append(m.Contacts, contact)
		}
	}
}

// carryWarmImpulses seeds a freshly detected contact's warm-start
// impulses from the nearest-matching contact in last step's manifold for
// the same collider pair, by distance between material-space anchors on
// side A. Contacts have no stable identity across steps (narrow phase
// re-derives them from scratch every step), so proximity is the
// practical substitute nphysics itself relies on for its own persistent
// contact cache.
func (w *defaultWorld) carryWarmImpulses(key pairKey, c *Contact) {
	prev, ok := w.prevManifolds[key]
	if !ok {
		return
	}
	const matchTolerance = 0.05 // material-space units; a contact point drifting more than this is a new contact, not a survivor.
	best := -1
	bestDist := matchTolerance
	for i := range prev.Contacts {
		localA := prev.Contacts[i].Kinematic.LocalA
		d := localA.Dist(&c.Kinematic.LocalA)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return
	}
	c.warmNormal = prev.Contacts[best].warmNormal
	c.warmTangent1 = prev.Contacts[best].warmTangent1
	c.warmTangent2 = prev.Contacts[best].warmTangent2
}

func (w *defaultWorld) Manifolds(fn func(colliderA, colliderB *Collider, m *Manifold)) {
	for key, m := range w.manifolds {
		var a, b *Collider
		for _, c := range w.colliders {
			if c.Handle == key.ha && c.Part == key.pa {
				a = c
			}
			if c.Handle == key.hb && c.Part == key.pb {
				b = c
			}
		}
		if a == nil || b == nil {
			continue
		}
		fn(a, b, m)
	}
}
