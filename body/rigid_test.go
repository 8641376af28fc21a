// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"math"
	"testing"

	"github.com/gazed/dynamics/math/lin"
)

func TestNewRigidBodyStatic(t *testing.T) {
	b := NewRigidBody(0, lin.V3{})
	if b.Status() != Static {
		t.Fatalf("zero mass rigid body should be Static, got %v", b.Status())
	}
}

func TestRigidBodyFallsUnderGravity(t *testing.T) {
	b := NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	gravity := lin.V3{X: 0, Y: -9.8, Z: 0}
	if err := b.UpdateAcceleration(gravity, 0.016); err != nil {
		t.Fatalf("UpdateAcceleration: %v", err)
	}
	acc := b.GeneralizedAcceleration()
	if math.Abs(acc[1]-gravity.Y) > 1e-9 {
		t.Fatalf("expected vertical acceleration %v, got %v", gravity.Y, acc[1])
	}
	vel := b.GeneralizedVelocity()
	vel[1] += acc[1] * 0.016
	b.Integrate(0.016)
	if b.world.Loc.Y >= 0 {
		t.Fatalf("expected body to fall, loc.Y = %v", b.world.Loc.Y)
	}
}

func TestRigidBodyApplyForceAccumulates(t *testing.T) {
	b := NewRigidBody(2, lin.V3{X: 1, Y: 1, Z: 1})
	b.ApplyForce(0, lin.V3{X: 10, Y: 0, Z: 0}, Force, true)
	b.ApplyForce(0, lin.V3{X: 10, Y: 0, Z: 0}, Force, true)
	if err := b.UpdateAcceleration(lin.V3{}, 0.016); err != nil {
		t.Fatalf("UpdateAcceleration: %v", err)
	}
	acc := b.GeneralizedAcceleration()
	want := 20.0 / 2.0
	if math.Abs(acc[0]-want) > 1e-9 {
		t.Fatalf("expected acc.X %v, got %v", want, acc[0])
	}
}

func TestRigidBodyFillConstraintGeometryLinear(t *testing.T) {
	b := NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	var invR float64
	J := make([]float64, 6)
	WJ := make([]float64, 6)
	point := lin.V3{X: 0, Y: 1, Z: 0}
	dir := LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	b.FillConstraintGeometry(0, point, dir, RowGeometry{J: J, WJ: WJ, InvR: &invR})
	if J[1] != 1 {
		t.Fatalf("expected J.Y == 1, got %v", J[1])
	}
	if invR <= 0 {
		t.Fatalf("expected positive effective inverse mass, got %v", invR)
	}
}

func TestRigidBodyApplyDisplacementNormalizesRotation(t *testing.T) {
	b := NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	b.ApplyDisplacement([]float64{0, 0, 0, 0.1, 0, 0})
	lenSqr := b.world.Rot.X*b.world.Rot.X + b.world.Rot.Y*b.world.Rot.Y +
		b.world.Rot.Z*b.world.Rot.Z + b.world.Rot.W*b.world.Rot.W
	if math.Abs(lenSqr-1) > 1e-6 {
		t.Fatalf("expected unit quaternion after ApplyDisplacement, len^2 = %v", lenSqr)
	}
}
