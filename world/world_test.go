// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package world

import (
	"math"
	"testing"

	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/collide"
	"github.com/gazed/dynamics/joint"
	"github.com/gazed/dynamics/math/lin"
)

// TestEmptyWorldStepIsNoOp is spec.md §8 scenario S6: an empty world's
// Step must simply succeed without touching anything.
func TestEmptyWorldStepIsNoOp(t *testing.T) {
	w := New(DefaultParams())
	if err := w.Step(); err != nil {
		t.Fatalf("expected empty-world step to succeed, got %v", err)
	}
	if w.Bodies().Len() != 1 {
		t.Fatalf("expected only the ground body to remain, got %d", w.Bodies().Len())
	}
}

// TestRevoluteJointHoldsAnchorsTogetherUnderGravity is spec.md §8
// scenario S4: a revolute joint between two rigids must keep its
// anchors within allowed_linear_error after many steps of gravity.
func TestRevoluteJointHoldsAnchorsTogetherUnderGravity(t *testing.T) {
	params := DefaultParams()
	w := New(params)

	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	b := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	wa := lin.NewT()
	wa.Loc.Y = 5
	a.SetWorld(wa)
	wb := lin.NewT()
	wb.Loc.Y = 4
	b.SetWorld(wb)
	ha := w.Bodies().Add(a)
	hb := w.Bodies().Add(b)

	j := &joint.Joint{
		Kind:         joint.Revolute,
		BodyA:        ha,
		BodyB:        hb,
		LocalAnchorA: lin.V3{X: 0, Y: -0.5, Z: 0},
		LocalAnchorB: lin.V3{X: 0, Y: 0.5, Z: 0},
		Axis:         lin.V3{X: 0, Y: 0, Z: 1},
	}
	w.AddJoint(j)

	for i := 0; i < 1000; i++ {
		if err := w.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	anchorA := a.WorldPointAtMaterialPoint(0, j.LocalAnchorA)
	anchorB := b.WorldPointAtMaterialPoint(0, j.LocalAnchorB)
	dist := anchorA.Dist(&anchorB)
	limit := params.AllowedLinearError + 1e-6
	if dist >= limit {
		t.Fatalf("expected anchor distance < %v after 1000 steps, got %v", limit, dist)
	}
}

// TestChainDrapesOverObstaclesAndSettles is a scaled-down rendition of
// spec.md §8 scenario S1: a particle chain falling under gravity onto
// fixed box obstacles must settle to near-zero vertical velocity.
func TestChainDrapesOverObstaclesAndSettles(t *testing.T) {
	params := DefaultParams()
	w := New(params)

	const nodes = 11
	positions := make([]lin.V3, nodes)
	masses := make([]float64, nodes)
	for i := 0; i < nodes; i++ {
		positions[i] = lin.V3{X: -2.5 + float64(i)*0.5, Y: 1, Z: 0}
		masses[i] = 0.05
	}
	chain := body.NewParticleSystem(positions, masses)
	for i := 0; i < nodes-1; i++ {
		chain.Constraints = append(chain.Constraints, body.DistanceConstraint{
			A: i, B: i + 1, Rest: 0.5, Stiffness: math.Inf(1),
		})
	}
	hChain := w.Bodies().Add(chain)

	obstacleLeft := body.NewRigidBody(0, lin.V3{})
	obstacleRight := body.NewRigidBody(0, lin.V3{})
	wl := lin.NewT()
	wl.Loc.X, wl.Loc.Y = -2, 0
	obstacleLeft.SetWorld(wl)
	wr := lin.NewT()
	wr.Loc.X, wr.Loc.Y = 2, 0
	obstacleRight.SetWorld(wr)
	hLeft := w.Bodies().Add(obstacleLeft)
	hRight := w.Bodies().Add(obstacleRight)

	w.AddCollider(collide.NewCollider(w.Bodies(), hLeft, 0, collide.NewBoxShape(lin.V3{X: 0.2, Y: 0.2, Z: 0.2}), collide.DefaultMaterial()))
	w.AddCollider(collide.NewCollider(w.Bodies(), hRight, 0, collide.NewBoxShape(lin.V3{X: 0.2, Y: 0.2, Z: 0.2}), collide.DefaultMaterial()))
	for i := 0; i < nodes; i++ {
		w.AddCollider(collide.NewCollider(w.Bodies(), hChain, body.PartIndex(i), collide.NewSphereShape(0.05), collide.DefaultMaterial()))
	}

	for i := 0; i < 600; i++ {
		if err := w.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	vel := chain.GeneralizedVelocity()
	for i := 0; i < nodes; i++ {
		vy := vel[3*i+1]
		if math.Abs(vy) > 1.0 {
			t.Fatalf("node %d vertical velocity still large after settling: %v", i, vy)
		}
	}
}
