// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package solve

import (
	"math"
	"testing"

	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

func TestVelocityPassStopsPenetratingContact(t *testing.T) {
	set := body.NewSet()
	rb := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	h := set.Add(rb)
	rb.ApplyForce(0, lin.V3{X: 0, Y: -5, Z: 0}, body.VelocityChange, true)

	g := assemble.NewGroup(1, 6)
	dir := body.LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	assemble.AddRow(g, set.Get(h), 0, h, nil, 0, body.Ground, lin.V3{}, dir, assemble.NonNegative(), 0)

	VelocityPass(g, set, 10)

	vy := rb.GeneralizedVelocity()[1]
	if vy < -1e-6 {
		t.Fatalf("expected contact to remove closing velocity, got vy = %v", vy)
	}
}

func TestVelocityPassBilateralHoldsZeroRelativeVelocity(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha := set.Add(a)
	a.ApplyForce(0, lin.V3{X: 0, Y: 3, Z: 0}, body.VelocityChange, true)

	g := assemble.NewGroup(1, 6)
	dir := body.LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	assemble.AddRow(g, set.Get(ha), 0, ha, nil, 0, body.Ground, lin.V3{}, dir, assemble.Unbounded(), 0)

	VelocityPass(g, set, 20)

	vy := a.GeneralizedVelocity()[1]
	if math.Abs(vy) > 1e-6 {
		t.Fatalf("expected bilateral row to drive relative velocity to ~0, got %v", vy)
	}
}

func TestVelocityPassFrictionBoundedByNormalImpulse(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha := set.Add(a)
	a.ApplyForce(0, lin.V3{X: 10, Y: -5, Z: 0}, body.VelocityChange, true)

	g := assemble.NewGroup(2, 6)
	normalDir := body.LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	assemble.AddRow(g, set.Get(ha), 0, ha, nil, 0, body.Ground, lin.V3{}, normalDir, assemble.NonNegative(), 0)
	tangentDir := body.LinearDir(lin.V3{X: 1, Y: 0, Z: 0})
	assemble.AddRow(g, set.Get(ha), 0, ha, nil, 0, body.Ground, lin.V3{}, tangentDir, assemble.FrictionBounds(0, 0.5), 0)

	VelocityPass(g, set, 20)

	normalImpulse := g.Rows[0].Impulse
	frictionImpulse := g.Rows[1].Impulse
	if math.Abs(frictionImpulse) > 0.5*normalImpulse+1e-6 {
		t.Fatalf("expected |friction| <= mu*normal (%v), got %v", 0.5*normalImpulse, frictionImpulse)
	}
}

func TestVelocityPassSeedsWarmStartedImpulseBeforeSweeping(t *testing.T) {
	set := body.NewSet()
	a := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	ha := set.Add(a)

	g := assemble.NewGroup(1, 6)
	dir := body.LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	row := assemble.AddRow(g, set.Get(ha), 0, ha, nil, 0, body.Ground, lin.V3{}, dir, assemble.Unbounded(), 0)
	row.Impulse = 2.0 // last step's cached warm-started impulse.

	// maxIterations=0 exercises only the pre-loop seeding pass, isolating
	// it from the per-iteration incremental scatter.
	VelocityPass(g, set, 0)

	vy := a.GeneralizedVelocity()[1]
	want := row.Impulse * row.WJA[1]
	if math.Abs(vy-want) > 1e-9 {
		t.Fatalf("expected warm-started impulse to be scattered once before any sweep, vy = %v, want %v", vy, want)
	}
}

func TestResidualAccumulateIgnoresZeroInvR(t *testing.T) {
	var res Residual
	res.Accumulate(0, 5)
	if res.Rows != 0 {
		t.Fatalf("expected zero invR to be skipped")
	}
	res.Accumulate(2, 4)
	if res.Rows != 1 || res.SumSquares == 0 {
		t.Fatalf("expected one accumulated row with nonzero residual")
	}
}
