// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package world orchestrates one simulation step end to end, wiring
// body, assemble, joint, collide, and solve together in the canonical
// order spec.md §4.6 fixes. It plays the role physics/physics.go's
// Simulate function plays for the teacher, generalized from a single
// rigid-body array and a hardcoded PBD loop to the heterogeneous
// body.DOF set and Moreau-Jean/SOR-Prox pipeline this engine implements.
package world

import (
	"log/slog"

	"github.com/cpmech/gosl/chk"

	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/collide"
	"github.com/gazed/dynamics/joint"
	"github.com/gazed/dynamics/solve"
)

// World owns one simulation: its body set, its collision-world
// collaborator, and the joints/force-generators/colliders registered
// against it. Exactly one goroutine may call Step at a time; spec.md §5
// makes the step loop sequential by design, not merely by convention.
type World struct {
	Params Params

	set       *body.Set
	collision collide.World

	forces    []ForceGenerator
	joints    []*joint.Joint
	colliders []*collide.Collider

	group *assemble.Group // reused step to step; its Arena grows monotonically.
}

// New creates an empty world preloaded with the ground body (body.Set
// always has one) and backed by collide's simplified sphere/box
// collision world.
func New(params Params) *World {
	return &World{
		Params:    params,
		set:       body.NewSet(),
		collision: collide.NewDefaultWorld(),
		group:     assemble.NewGroup(16, 6),
	}
}

// Bodies exposes the underlying set for callers that need to add bodies
// or query live handles; world does not wrap body.Set's own API.
func (w *World) Bodies() *body.Set { return w.set }

// AddForceGenerator registers a generator to run every step, in the
// order added, per spec.md §4.6 step 2.
func (w *World) AddForceGenerator(f ForceGenerator) { w.forces = append(w.forces, f) }

// AddJoint registers a bilateral constraint and tells the collision
// world about the body pair it couples, so collide's island grouping
// (broad_collect_simulation_islands in physics/broad.go) treats a
// joint-connected pair the same as a colliding one.
func (w *World) AddJoint(j *joint.Joint) {
	w.joints = append(w.joints, j)
	w.collision.AddConstraintPair(j.BodyA, j.BodyB)
}

// AddCollider registers a collider with both the body-part bookkeeping
// world needs to push positions (step 4) and the collision world that
// actually detects contacts.
func (w *World) AddCollider(c *collide.Collider) {
	w.colliders = append(w.colliders, c)
	w.collision.Add(c)
}

// RemoveBody drops a body and every collider parented to it. Per
// spec.md §3's removal semantics ("removal triggers: activation of
// neighbors still touching its colliders; deletion of colliders and
// joint constraints referencing it"), any joint referencing h is also
// dropped — its partner's warm-started impulse is lost, which is
// correct since the constraint itself no longer exists. Neighbor
// wake-up is implicit: collide recomputes islands from scratch every
// PerformBroadPhase, so neighbors simply stop being grouped with a
// removed body rather than needing an explicit wake call.
func (w *World) RemoveBody(h body.Handle) {
	w.set.Remove(h)

	remainingColliders := w.colliders[:0]
	for _, c := range w.colliders {
		if c.Handle == h {
			w.collision.Remove(c.Handle, c.Part)
			continue
		}
		remainingColliders = append(remainingColliders, c)
	}
	w.colliders = remainingColliders

	remainingJoints := w.joints[:0]
	for _, j := range w.joints {
		if j.BodyA == h || j.BodyB == h {
			slog.Warn("world: dropping joint referencing removed body", "body", h, "kind", j.Kind)
			continue
		}
		remainingJoints = append(remainingJoints, j)
	}
	w.joints = remainingJoints
}

// Step advances the simulation by Params.Dt, in the eleven-step order
// spec.md §4.6 fixes. It returns a non-nil error only for the fatal
// numerical case spec.md §7 names (an FEM volume's augmented mass
// failing to factor); every other condition is either a chk.Panic
// (programmer error) or silently tolerated the way the teacher's own
// Simulate silently skips fixed bodies.
func (w *World) Step() error {
	p := w.Params

	// 1. update_kinematics on every body (flag-gated recompute is a
	// future optimization; every body.DOF implementation here is cheap
	// enough to always recompute, matching physics/physics.go's own
	// unconditional colliders_update pass).
	w.set.Each(func(h body.Handle, d body.DOF) { d.UpdateKinematics() })

	// 2. force generators, insertion order.
	for _, f := range w.forces {
		f.Apply(w.set, p.Dt)
	}

	// 3. update_dynamics then update_acceleration on every body.
	var stepErr error
	w.set.Each(func(h body.Handle, d body.DOF) {
		if stepErr != nil {
			return
		}
		if err := d.UpdateDynamics(p.Dt); err != nil {
			stepErr = chk.Err("world: body %d update_dynamics: %v", h, err)
			return
		}
		if err := d.UpdateAcceleration(p.Gravity, p.Dt); err != nil {
			stepErr = chk.Err("world: body %d update_acceleration: %v", h, err)
		}
	})
	if stepErr != nil {
		return stepErr
	}

	// 3b. fold each body's generalized acceleration into its generalized
	// velocity (explicit Euler on velocity: v += a*dt) before the
	// velocity solver runs, the way physics/pbd.go applies gravity to
	// velocity ahead of its constraint loop. Acceleration accumulators
	// are zeroed immediately after, so the next step's force generators
	// (step 2) start from a clean slate rather than compounding.
	w.set.Each(func(h body.Handle, d body.DOF) {
		vel, acc := d.GeneralizedVelocity(), d.GeneralizedAcceleration()
		for i := range vel {
			vel[i] += acc[i] * p.Dt
			acc[i] = 0
		}
	})

	// 4. push collider positions/deformations to the collision world.
	w.pushColliderState()

	// 5. broad + narrow phase.
	w.collision.ClearEvents()
	w.collision.PerformBroadPhase()
	w.collision.PerformNarrowPhase()

	// 6. activation/island bookkeeping. Matches physics/physics.go's
	// own baseline: the teacher never implements sleeping either, only
	// a "fixed" skip; collide.World.Islands() is computed and
	// available to callers (e.g. a renderer deciding what to redraw)
	// but nothing here gates computation on it, a documented scope
	// decision (see DESIGN.md).
	_ = w.collision.Islands()

	// 7. manifold pair filtering already happened inside
	// PerformNarrowPhase (collide.pairFilter).

	// 8. velocity SOR-Prox.
	velocityGens := w.velocityGenerators()
	assemble.AssembleAll(w.group, w.set, p.Dt, velocityGens)
	solve.VelocityPass(w.group, w.set, p.MaxVelocityIterations)
	for _, g := range velocityGens {
		if ws, ok := g.(joint.WarmStarter); ok {
			ws.CacheImpulses()
		}
	}

	// 9. integrate.
	w.set.Each(func(h body.Handle, d body.DOF) { d.Integrate(p.Dt) })

	// 10. non-linear position SOR-Prox.
	positionGens := w.positionGenerators()
	solve.PositionPass(w.set, positionGens, solve.PositionParams{
		MaxIterations:              p.MaxPositionIterations,
		Erp:                        p.Erp,
		MaxLinearCorrection:        p.MaxLinearCorrection,
		MaxStabilizationMultiplier: p.MaxStabilizationMultiplier,
	})

	// 11. clear per-step update flags: no DOF implementation currently
	// gates on body.UpdateFlags (see step 1's note), so there is
	// nothing to clear yet; the bitset stays defined in body.go for
	// when that optimization is added.
	return nil
}

func (w *World) pushColliderState() {
	for _, c := range w.colliders {
		dof := w.set.Get(c.Handle)
		if dof == nil {
			continue
		}
		if fem, ok := dof.(*body.FemVolume); ok {
			w.collision.SetDeformations(c.Handle, fem.Positions())
			continue
		}
		point := dof.WorldPointAtMaterialPoint(c.Part, c.LocalOffset)
		w.collision.SetPosition(c.Handle, c.Part, point)
	}
}

func (w *World) velocityGenerators() []assemble.Generator {
	gens := make([]assemble.Generator, 0, len(w.joints)+len(w.colliders))
	for _, j := range w.joints {
		gens = append(gens, j)
	}
	w.collision.Manifolds(func(a, b *collide.Collider, m *collide.Manifold) {
		if len(m.Contacts) == 0 {
			return
		}
		gens = append(gens, m)
	})
	return gens
}

func (w *World) positionGenerators() []assemble.PositionGenerator {
	gens := make([]assemble.PositionGenerator, 0, len(w.joints)+len(w.colliders))
	for _, j := range w.joints {
		gens = append(gens, j)
	}
	w.collision.Manifolds(func(a, b *collide.Collider, m *collide.Manifold) {
		if len(m.Contacts) == 0 {
			return
		}
		gens = append(gens, m)
	})
	return gens
}
