// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package collide

import (
	"testing"

	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

func TestDefaultWorldProducesManifoldForOverlappingSpheres(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	b := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha, hb := set.Add(a), set.Add(b)

	w := NewDefaultWorld()
	w.Add(NewCollider(set, ha, 0, NewSphereShape(1), DefaultMaterial()))
	w.Add(NewCollider(set, hb, 0, NewSphereShape(1), DefaultMaterial()))

	w.SetPosition(ha, 0, lin.V3{X: 0, Y: 0, Z: 0})
	w.SetPosition(hb, 0, lin.V3{X: 1.5, Y: 0, Z: 0})

	w.PerformBroadPhase()
	w.PerformNarrowPhase()

	count := 0
	w.Manifolds(func(ca, cb *Collider, m *Manifold) {
		count++
		if len(m.Contacts) == 0 {
			t.Fatalf("expected at least one contact in the manifold")
		}
	})
	if count != 1 {
		t.Fatalf("expected exactly one manifold, got %d", count)
	}
}

func TestDefaultWorldClearEventsDropsStaleManifolds(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	b := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha, hb := set.Add(a), set.Add(b)

	w := NewDefaultWorld()
	w.Add(NewCollider(set, ha, 0, NewSphereShape(1), DefaultMaterial()))
	w.Add(NewCollider(set, hb, 0, NewSphereShape(1), DefaultMaterial()))
	w.SetPosition(ha, 0, lin.V3{X: 0, Y: 0, Z: 0})
	w.SetPosition(hb, 0, lin.V3{X: 1.5, Y: 0, Z: 0})
	w.PerformBroadPhase()
	w.PerformNarrowPhase()

	w.ClearEvents()
	w.SetPosition(hb, 0, lin.V3{X: 100, Y: 0, Z: 0})
	w.PerformBroadPhase()
	w.PerformNarrowPhase()

	count := 0
	w.Manifolds(func(ca, cb *Collider, m *Manifold) { count++ })
	if count != 0 {
		t.Fatalf("expected stale manifold to be gone after bodies separated, got %d", count)
	}
}

func TestDefaultWorldCarriesWarmImpulseAcrossStep(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	b := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha, hb := set.Add(a), set.Add(b)

	w := NewDefaultWorld().(*defaultWorld)
	w.Add(NewCollider(set, ha, 0, NewSphereShape(1), DefaultMaterial()))
	w.Add(NewCollider(set, hb, 0, NewSphereShape(1), DefaultMaterial()))
	w.SetPosition(ha, 0, lin.V3{X: 0, Y: 0, Z: 0})
	w.SetPosition(hb, 0, lin.V3{X: 1.5, Y: 0, Z: 0})
	w.PerformBroadPhase()
	w.PerformNarrowPhase()

	var key pairKey
	w.Manifolds(func(ca, cb *Collider, m *Manifold) {
		key = makePairKey(ca, cb)
		m.Contacts[0].warmNormal = 4.0 // pretend this step's solve converged here.
	})

	// A step boundary: ClearEvents stashes this step's manifolds as
	// prevManifolds, then narrow phase re-detects the same pair (bodies
	// barely moved, so the new contact's anchor lands within
	// matchTolerance of the old one) and should carry the impulse over.
	w.ClearEvents()
	w.SetPosition(hb, 0, lin.V3{X: 1.51, Y: 0, Z: 0})
	w.PerformBroadPhase()
	w.PerformNarrowPhase()

	found := false
	w.Manifolds(func(ca, cb *Collider, m *Manifold) {
		if makePairKey(ca, cb) != key {
			return
		}
		found = true
		if m.Contacts[0].warmNormal != 4.0 {
			t.Fatalf("expected warm impulse carried into the re-detected contact, got %v", m.Contacts[0].warmNormal)
		}
	})
	if !found {
		t.Fatalf("expected the collider pair's manifold to still be detected")
	}
}

func TestPairFilterExcludesTwoStaticColliders(t *testing.T) {
	set := body.NewSet()
	ca := NewCollider(set, body.Ground, 0, NewSphereShape(1), DefaultMaterial())
	cb := NewCollider(set, body.Ground, 0, NewSphereShape(1), DefaultMaterial())
	if pairFilter(ca, cb) {
		t.Fatalf("expected two zero-dof colliders to be filtered out")
	}
}

func TestRemoveDropsCollider(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha := set.Add(a)
	w := NewDefaultWorld().(*defaultWorld)
	w.Add(NewCollider(set, ha, 0, NewSphereShape(1), DefaultMaterial()))
	w.Remove(ha, 0)
	if len(w.colliders) != 0 {
		t.Fatalf("expected collider removed, got %d remaining", len(w.colliders))
	}
}
