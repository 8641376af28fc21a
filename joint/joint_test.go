// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package joint

import (
	"testing"

	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

func TestRevoluteLocksFiveOfSixDofs(t *testing.T) {
	set := body.NewSet()
	a := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	b := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	j := &Joint{Kind: Revolute, BodyA: a, BodyB: b, Axis: lin.V3{X: 0, Y: 0, Z: 1}}

	g := assemble.NewGroup(8, 6)
	j.Assemble(g, set, 0.016)
	if len(g.Rows) != 5 {
		t.Fatalf("expected 5 locked rows (3 linear + 2 angular), got %d", len(g.Rows))
	}
}

func TestBallLocksThreeDofs(t *testing.T) {
	set := body.NewSet()
	a := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	j := &Joint{Kind: Ball, BodyA: a, BodyB: body.Ground}

	g := assemble.NewGroup(8, 6)
	j.Assemble(g, set, 0.016)
	if len(g.Rows) != 3 {
		t.Fatalf("expected 3 locked linear rows, got %d", len(g.Rows))
	}
	for _, r := range g.Rows {
		if r.JB != nil {
			t.Fatalf("expected ground rows to carry no second-body jacobian")
		}
	}
}

func TestFixedLocksAllSixDofs(t *testing.T) {
	set := body.NewSet()
	a := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	j := &Joint{Kind: Fixed, BodyA: a, BodyB: body.Ground}
	g := assemble.NewGroup(8, 6)
	j.Assemble(g, set, 0.016)
	if len(g.Rows) != 6 {
		t.Fatalf("expected 6 locked rows, got %d", len(g.Rows))
	}
}

func TestCartesianLocksOnlyRotation(t *testing.T) {
	set := body.NewSet()
	a := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	j := &Joint{Kind: Cartesian, BodyA: a, BodyB: body.Ground}
	g := assemble.NewGroup(8, 6)
	j.Assemble(g, set, 0.016)
	if len(g.Rows) != 3 {
		t.Fatalf("expected 3 locked angular rows, got %d", len(g.Rows))
	}
}

func TestCylindricalLocksFourOfSixDofs(t *testing.T) {
	set := body.NewSet()
	a := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	j := &Joint{Kind: Cylindrical, BodyA: a, BodyB: body.Ground, Axis: lin.V3{X: 0, Y: 0, Z: 1}}
	g := assemble.NewGroup(8, 6)
	j.Assemble(g, set, 0.016)
	if len(g.Rows) != 4 {
		t.Fatalf("expected 4 locked rows (2 linear + 2 angular), got %d", len(g.Rows))
	}
}

func TestCacheImpulsesPreservesWarmStart(t *testing.T) {
	set := body.NewSet()
	a := set.Add(body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	j := &Joint{Kind: Ball, BodyA: a, BodyB: body.Ground}

	g := assemble.NewGroup(8, 6)
	j.Assemble(g, set, 0.016)
	g.Rows[0].Impulse = 4.2
	j.CacheImpulses()

	g2 := assemble.NewGroup(8, 6)
	j.Assemble(g2, set, 0.016)
	if g2.Rows[0].Impulse != 4.2 {
		t.Fatalf("expected warm-started impulse 4.2, got %v", g2.Rows[0].Impulse)
	}
}
