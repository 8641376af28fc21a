// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"math"
	"testing"

	"github.com/gazed/dynamics/math/lin"
)

func TestParticleSystemPinnedMassIgnoresGravity(t *testing.T) {
	positions := []lin.V3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	masses := []float64{0, 1} // first particle pinned.
	p := NewParticleSystem(positions, masses)
	gravity := lin.V3{X: 0, Y: -9.8, Z: 0}
	if err := p.UpdateAcceleration(gravity, 0.016); err != nil {
		t.Fatalf("UpdateAcceleration: %v", err)
	}
	acc := p.GeneralizedAcceleration()
	if acc[1] != 0 {
		t.Fatalf("expected pinned particle to ignore gravity, got acc.Y = %v", acc[1])
	}
	if math.Abs(acc[4]-gravity.Y) > 1e-9 {
		t.Fatalf("expected free particle to fall, got acc.Y = %v", acc[4])
	}
}

func TestParticleSystemDistanceConstraintPullsTogether(t *testing.T) {
	positions := []lin.V3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}
	masses := []float64{1, 1}
	p := NewParticleSystem(positions, masses)
	p.Constraints = []DistanceConstraint{{A: 0, B: 1, Rest: 1, Stiffness: 1}}

	dv := make([]float64, 6)
	dv[3] = 1.0 // particle B moving away from A.
	p.StepSolveInternalVelocityConstraints(dv)

	relBefore := 1.0
	relAfter := (dv[3] - dv[0])
	if relAfter >= relBefore {
		t.Fatalf("expected constraint to reduce separating relative velocity, got %v (was %v)", relAfter, relBefore)
	}
}

func TestParticleSystemFillConstraintGeometry(t *testing.T) {
	positions := []lin.V3{{X: 0, Y: 0, Z: 0}}
	masses := []float64{2}
	p := NewParticleSystem(positions, masses)
	var invR float64
	J := make([]float64, 3)
	WJ := make([]float64, 3)
	dir := LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	p.FillConstraintGeometry(0, positions[0], dir, RowGeometry{J: J, WJ: WJ, InvR: &invR})
	if J[1] != 1 {
		t.Fatalf("expected J.Y == 1, got %v", J[1])
	}
	want := 0.5 // invMass.
	if math.Abs(invR-want) > 1e-9 {
		t.Fatalf("expected invR %v, got %v", want, invR)
	}
}
