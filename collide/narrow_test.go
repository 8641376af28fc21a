// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package collide

import (
	"testing"

	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

func twoSpheres(t *testing.T, gap float64) (*Collider, *Collider) {
	t.Helper()
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	b := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha := set.Add(a)
	hb := set.Add(b)
	ca := NewCollider(set, ha, 0, NewSphereShape(1), DefaultMaterial())
	cb := NewCollider(set, hb, 0, NewSphereShape(1), DefaultMaterial())
	ca.worldCenter = lin.V3{X: 0, Y: 0, Z: 0}
	cb.worldCenter = lin.V3{X: 2 + gap, Y: 0, Z: 0}
	return ca, cb
}

func TestSphereSphereContactOnOverlap(t *testing.T) {
	a, b := twoSpheres(t, -0.5)
	c, ok := sphereSphere(a, b)
	if !ok {
		t.Fatalf("expected overlapping spheres to produce a contact")
	}
	if c.Depth <= 0 {
		t.Fatalf("expected positive depth, got %v", c.Depth)
	}
	if c.NormalA.X >= 0 {
		t.Fatalf("expected normal pointing from b toward a (-X), got %v", c.NormalA)
	}
}

func TestSphereSphereNoContactWhenApart(t *testing.T) {
	a, b := twoSpheres(t, 1.0)
	if _, ok := sphereSphere(a, b); ok {
		t.Fatalf("expected no contact for separated spheres")
	}
}

func TestSphereBoxPenetration(t *testing.T) {
	set := body.NewSet()
	sphereBody := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	boxBody := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	hs := set.Add(sphereBody)
	hb := set.Add(boxBody)

	s := NewCollider(set, hs, 0, NewSphereShape(1), DefaultMaterial())
	b := NewCollider(set, hb, 0, NewBoxShape(lin.V3{X: 1, Y: 1, Z: 1}), DefaultMaterial())
	s.worldCenter = lin.V3{X: 0, Y: 1.5, Z: 0}
	b.worldCenter = lin.V3{X: 0, Y: 0, Z: 0}

	c, ok := sphereBox(s, b)
	if !ok {
		t.Fatalf("expected sphere resting into box top to produce a contact")
	}
	if c.Depth <= 0 {
		t.Fatalf("expected positive depth, got %v", c.Depth)
	}
}

func TestBoxBoxOverlap(t *testing.T) {
	set := body.NewSet()
	ab := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	bb := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha := set.Add(ab)
	hb := set.Add(bb)

	a := NewCollider(set, ha, 0, NewBoxShape(lin.V3{X: 1, Y: 1, Z: 1}), DefaultMaterial())
	b := NewCollider(set, hb, 0, NewBoxShape(lin.V3{X: 1, Y: 1, Z: 1}), DefaultMaterial())
	a.worldCenter = lin.V3{X: 0, Y: 0, Z: 0}
	b.worldCenter = lin.V3{X: 1.5, Y: 0, Z: 0}

	c, ok := boxBox(a, b)
	if !ok {
		t.Fatalf("expected overlapping boxes to produce a contact")
	}
	if c.Depth <= 0 {
		t.Fatalf("expected positive depth, got %v", c.Depth)
	}
}
