// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package solve implements the two SOR-Prox (projected Gauss-Seidel)
// sweeps of the Moreau-Jean time-stepping scheme: a velocity-level pass
// (velocity.go) and a non-linear position-level pass (position.go),
// grounded on original_source/src/solver/sor_prox.rs and
// nonlinear_sor_prox.rs. Rows carry their own effective mass and
// accumulated impulse (assemble.Row), so a constraint's state survives
// across the sweep without a parallel bookkeeping array.
package solve

import (
	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
)

// VelocityPass runs the velocity-level SOR-Prox sweep: maxIterations
// passes over every row in g, each row updating its accumulated impulse
// and scattering the resulting velocity delta directly into the two
// bodies' live GeneralizedVelocity views (body.DOF's contract guarantees
// these are mutable, so no separate global Δv vector is needed — adding
// wj·Δa to a body's own velocity slice *is* "Δv += wj·Δa" from spec.md
// §4.3). Bodies carrying internal constraints are interleaved each
// iteration per the same section.
func VelocityPass(g *assemble.Group, set *body.Set, maxIterations int) Residual {
	internal := assemble.InternalConstraintBodies(set)
	for _, d := range internal {
		d.SetupInternalVelocityConstraints(d.GeneralizedVelocity())
	}

	// Seed Δv from each row's warm-started impulse (spec.md §4.3's
	// "Δv seeded from warm-started impulses via Δv += Σ aᵢ·wjᵢ") before the
	// sweep runs. solveVelocityRow only ever scatters the *change* in a
	// row's impulse across iterations, so a nonzero starting Impulse (set
	// by joint.Joint.Assemble from last step's cached warm start) must be
	// applied here once — otherwise the scatter telescopes to
	// (final−warm)·WJ instead of final·WJ and the row ends the step short
	// by its own warm impulse.
	for i := range g.Rows {
		r := &g.Rows[i]
		if r.Impulse == 0 {
			continue
		}
		bodyA := set.Get(r.BodyA)
		var bodyB body.DOF
		if r.JB != nil {
			bodyB = set.Get(r.BodyB)
		}
		undoScatter(r, bodyA, bodyB, r.Impulse)
	}

	var res Residual
	for iter := 0; iter < maxIterations; iter++ {
		res = Residual{}
		for i := range g.Rows {
			r := &g.Rows[i]
			delta := solveVelocityRow(g, r, set)
			res.Accumulate(r.InvEffectiveMass, delta)
		}
		for _, d := range internal {
			d.StepSolveInternalVelocityConstraints(d.GeneralizedVelocity())
		}
	}
	return res
}

// solveVelocityRow updates one row's impulse in place and scatters the
// resulting velocity correction, returning the row's relative-velocity
// residual δ for this pass.
func solveVelocityRow(g *assemble.Group, r *assemble.Row, set *body.Set) float64 {
	if r.InvEffectiveMass <= 0 {
		return 0
	}
	compliance := 1 / r.InvEffectiveMass

	bodyA := set.Get(r.BodyA)
	var bodyB body.DOF
	if r.JB != nil {
		bodyB = set.Get(r.BodyB)
	}

	delta := dot(r.JA, bodyA.GeneralizedVelocity()) + r.Bias
	if bodyB != nil {
		delta += dot(r.JB, bodyB.GeneralizedVelocity())
	}

	lo, hi := r.Bounds.Lo, r.Bounds.Hi
	if r.Bounds.CoupledTo >= 0 && r.Bounds.CoupledTo < len(g.Rows) {
		normal := g.Rows[r.Bounds.CoupledTo].Impulse
		bound := r.Bounds.Mu * normal
		lo, hi = -bound, bound
		if bound == 0 && r.Impulse != 0 {
			// The coupled normal row carries no impulse this sweep: undo
			// this row's contribution entirely rather than clamp it to a
			// [0,0] interval, matching sor_prox.rs's friction-with-no-load
			// handling.
			undoScatter(r, bodyA, bodyB, -r.Impulse)
			r.Impulse = 0
			return 0
		}
	}

	newImpulse := clamp(r.Impulse-compliance*delta, lo, hi)
	change := newImpulse - r.Impulse
	r.Impulse = newImpulse
	undoScatter(r, bodyA, bodyB, change)
	return delta
}

// undoScatter applies change·WJ to both bodies' velocities; named for its
// dual use (a positive change applies a correction, a negative one undoes
// a previously applied one).
func undoScatter(r *assemble.Row, bodyA, bodyB body.DOF, change float64) {
	scatter(bodyA.GeneralizedVelocity(), r.WJA, change)
	if bodyB != nil {
		scatter(bodyB.GeneralizedVelocity(), r.WJB, change)
	}
}

func scatter(v, wj []float64, change float64) {
	for i := range wj {
		if i >= len(v) {
			break
		}
		v[i] += change * wj[i]
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		if i >= len(b) {
			break
		}
		s += a[i] * b[i]
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
