// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package assemble

import "github.com/gazed/dynamics/body"

// Generator is satisfied by anything that contributes rows to a Group for
// one step: joints (package joint) and contact manifolds (package
// collide) both implement it. assemble never imports either package —
// world wires concrete generators in, keeping the dependency graph a DAG
// (body <- assemble <- joint/collide <- world), the same layering
// physics/solver.go used between its Constraint and Contact row producers.
type Generator interface {
	// Assemble appends this generator's rows to g using set to resolve
	// handles to live DOFs. dt is the step length; position-level rows
	// are produced separately through PositionGenerator.
	Assemble(g *Group, set *body.Set, dt float64)
}

// PositionGenerator is the §4.5 counterpart of Generator: it re-derives
// its row(s) at the body set's *current* (post-integration) configuration
// every position-solver iteration, computing a Bias already reduced by
// erp and capped by maxCorrection. joint.Joint and collide's contact
// manifolds both implement this in addition to Generator.
type PositionGenerator interface {
	AssemblePosition(g *Group, set *body.Set, erp, maxCorrection float64)
}

// AssembleAll resets g and runs every generator against it. Bodies
// carrying their own internal constraints (ParticleSystem distance
// constraints, ...) add no rows here: they never produce assemble.Row
// values, and InternalConstraintBodies lists them for the solver to drive
// directly, per spec.md §4.2's "a particle system may carry internal
// constraints the solver iterates alongside the global rows".
func AssembleAll(g *Group, set *body.Set, dt float64, generators []Generator) {
	g.Reset()
	for _, gen := range generators {
		gen.Assemble(g, set, dt)
	}
}

// InternalConstraintBodies returns every live body in set whose
// HasActiveInternalConstraints is true, in stable order, for the solver to
// drive directly each velocity-sweep iteration.
func InternalConstraintBodies(set *body.Set) []body.DOF {
	var out []body.DOF
	set.Each(func(h body.Handle, d body.DOF) {
		if d.HasActiveInternalConstraints() {
			out = append(out, d)
		}
	})
	return out
}
