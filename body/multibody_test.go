// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"math"
	"testing"

	"github.com/gazed/dynamics/math/lin"
)

func singleRevoluteArm() *Multibody {
	links := []Link{
		{Parent: -1, Kind: Revolute, Axis: lin.V3{X: 0, Y: 0, Z: 1}, Offset: lin.V3{}, EffectiveInertia: 1},
	}
	return NewMultibody(links)
}

func TestNewMultibodyRejectsBadTopology(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for forward-referencing parent")
		}
	}()
	NewMultibody([]Link{{Parent: 0, Kind: Revolute}})
}

func TestMultibodyGeneralizedVelocityIsLiveView(t *testing.T) {
	m := singleRevoluteArm()
	qd := m.GeneralizedVelocity()
	qd[0] = 2.0
	if m.qd[0] != 2.0 {
		t.Fatalf("GeneralizedVelocity should be a live view, got m.qd[0] = %v", m.qd[0])
	}
	// A second call must see the same mutation, not a fresh copy.
	if m.GeneralizedVelocity()[0] != 2.0 {
		t.Fatalf("second call to GeneralizedVelocity lost the earlier mutation")
	}
}

func TestMultibodyIntegrateAdvancesJointAngle(t *testing.T) {
	m := singleRevoluteArm()
	m.qd[0] = 1.0
	m.Integrate(0.5)
	if math.Abs(m.links[0].q-0.5) > 1e-9 {
		t.Fatalf("expected joint angle 0.5, got %v", m.links[0].q)
	}
}

func TestMultibodyFillConstraintGeometrySingleLink(t *testing.T) {
	m := singleRevoluteArm()
	var invR float64
	J := make([]float64, 1)
	WJ := make([]float64, 1)
	point := lin.V3{X: 1, Y: 0, Z: 0}
	dir := LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	m.FillConstraintGeometry(0, point, dir, RowGeometry{J: J, WJ: WJ, InvR: &invR})
	if math.Abs(math.Abs(J[0])-1) > 1e-9 {
		t.Fatalf("expected unit-magnitude lever-arm Jacobian entry, got %v", J[0])
	}
	if invR <= 0 {
		t.Fatalf("expected positive effective inverse mass, got %v", invR)
	}
}

func TestMultibodyTwoLinkAncestorChain(t *testing.T) {
	links := []Link{
		{Parent: -1, Kind: Prismatic, Axis: lin.V3{X: 1, Y: 0, Z: 0}, EffectiveInertia: 1},
		{Parent: 0, Kind: Revolute, Axis: lin.V3{X: 0, Y: 0, Z: 1}, EffectiveInertia: 1},
	}
	m := NewMultibody(links)
	var invR float64
	J := make([]float64, 2)
	WJ := make([]float64, 2)
	point := lin.V3{X: 0, Y: 1, Z: 0}
	dir := LinearDir(lin.V3{X: 1, Y: 0, Z: 0})
	m.FillConstraintGeometry(1, point, dir, RowGeometry{J: J, WJ: WJ, InvR: &invR})
	if J[0] == 0 {
		t.Fatalf("expected parent prismatic link to contribute to child's constraint row")
	}
}
