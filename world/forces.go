// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package world

import (
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

// ForceGenerator is run, in insertion order, once per step (spec.md
// §4.6 step 2) to accumulate forces on the bodies it targets before
// update_acceleration folds them in. Trivial by spec.md's own framing
// ("force generators (trivial iteration)"); the interface exists so
// World doesn't special-case gravity vs. any other per-body force.
type ForceGenerator interface {
	Apply(set *body.Set, dt float64)
}

// ConstantAcceleration applies the same world-space linear acceleration
// to every targeted body part each step, ported from
// original_source/src/force_generator/constant_acceleration.rs: the
// original scales the acceleration by the part's inertia (mass) before
// calling apply_force with Force semantics, so heavier parts receive
// proportionally more force — net effect identical acceleration
// regardless of mass, consistent with gravity.
type ConstantAcceleration struct {
	Parts        []body.Part
	Acceleration lin.V3
}

// NewConstantAcceleration builds a generator with no targets yet, the
// same empty-then-AddBodyPart construction the Rust source uses.
func NewConstantAcceleration(acceleration lin.V3) *ConstantAcceleration {
	return &ConstantAcceleration{Acceleration: acceleration}
}

// AddBodyPart registers a body part to receive this acceleration every
// step, mirroring ConstantAcceleration::add_body_part.
func (c *ConstantAcceleration) AddBodyPart(p body.Part) {
	c.Parts = append(c.Parts, p)
}

// Apply mirrors the Rust impl's "force = inertia * acceleration" (here,
// mass is folded into ApplyForce's AccelerationChange kind directly
// instead of multiplying out an inertia tensor, since body.DOF exposes
// acceleration application generically across rigid/multibody/particle/
// FEM bodies rather than only rigid "parts").
func (c *ConstantAcceleration) Apply(set *body.Set, dt float64) {
	live := c.Parts[:0]
	for _, p := range c.Parts {
		dof := set.Get(p.Body)
		if dof == nil {
			continue // body removed since this part was registered; drop it, per the Rust source's swap_remove.
		}
		dof.ApplyForce(p.Index, c.Acceleration, body.AccelerationChange, true)
		live = append(live, p)
	}
	c.Parts = live
}

// EarthGravity names the implicit force every World applies first:
// not a ForceGenerator itself (update_acceleration already takes a
// gravity vector directly, per spec.md §4.6 step 3, the same way
// physics/physics.go adds -GRAVITY*invMass as a per-body force rather
// than running it through a generator list), kept here only as a
// documented constant callers may hand to Params.Gravity.
var EarthGravity = lin.V3{X: 0, Y: -9.81, Z: 0}
