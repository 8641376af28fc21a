// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"math"

	"github.com/gazed/dynamics/math/lin"
)

// DistanceConstraint is an internal mass-spring constraint between two
// particles of the same ParticleSystem, enforced every step inside the
// global velocity sweep via HasActiveInternalConstraints rather than as
// an assemble/joint row — the spec's "a particle system may carry
// internal constraints the solver iterates alongside the global rows".
// Ported from physics/pbd.go's positional constraint to the velocity
// level, keeping physics/pbd.go's XPBD compliance distinction: an
// infinite Stiffness is a hard bilateral hold, a finite one a compliant
// (soft) constraint, per math.Inf(1) below.
type DistanceConstraint struct {
	A, B      int     // particle indices.
	Rest      float64 // rest length.
	// Stiffness is a physical constraint stiffness, not a 0..1 blend
	// factor: math.Inf(1) means bilateral (no give), a finite value adds
	// 1/Stiffness to the row's effective-mass denominator (XPBD-style
	// compliance) so the correction saturates toward the bilateral case
	// as Stiffness grows instead of scaling past it.
	Stiffness float64
}

// ParticleSystem is an unstructured set of point masses connected by
// DistanceConstraints: cloth, ropes, and granular aggregates, the
// spec.md §3 "Particle / mass-constraint system" variant of DOF.
type ParticleSystem struct {
	handle     Handle
	status     Status
	activation Activation
	companion  int

	pos     []lin.V3
	vel     []float64 // flat 3*N generalized velocity.
	acc     []float64
	invMass []float64 // per-particle inverse mass, 0 pins the particle.

	Constraints []DistanceConstraint
}

// NewParticleSystem creates a system from initial positions and masses.
// A zero mass pins the particle in place (treated as kinematic).
func NewParticleSystem(positions []lin.V3, masses []float64) *ParticleSystem {
	n := len(positions)
	p := &ParticleSystem{
		pos:        append([]lin.V3(nil), positions...),
		vel:        make([]float64, 3*n),
		acc:        make([]float64, 3*n),
		invMass:    make([]float64, n),
		status:     Dynamic,
		activation: DefaultActivation(),
	}
	for i, m := range masses {
		if m > 0 {
			p.invMass[i] = 1 / m
		}
	}
	return p
}

func (p *ParticleSystem) Kind() Kind         { return KindParticle }
func (p *ParticleSystem) Status() Status     { return p.status }
func (p *ParticleSystem) SetStatus(s Status) { p.status = s }
func (p *ParticleSystem) NDofs() int         { return len(p.pos) * 3 }

func (p *ParticleSystem) StatusDependentNDofs() int {
	if p.status == Dynamic || p.status == Kinematic {
		return len(p.pos) * 3
	}
	return 0
}

func (p *ParticleSystem) Companion() int     { return p.companion }
func (p *ParticleSystem) SetCompanion(c int) { p.companion = c }

func (p *ParticleSystem) GeneralizedVelocity() []float64     { return p.vel }
func (p *ParticleSystem) GeneralizedAcceleration() []float64 { return p.acc }

// Integrate advances every particle's position by its velocity (explicit
// Euler, the usual choice for mass-spring/cloth systems).
func (p *ParticleSystem) Integrate(dt float64) {
	if p.status != Dynamic && p.status != Kinematic {
		return
	}
	for i := range p.pos {
		if p.invMass[i] == 0 {
			continue
		}
		p.pos[i].X += p.vel[3*i] * dt
		p.pos[i].Y += p.vel[3*i+1] * dt
		p.pos[i].Z += p.vel[3*i+2] * dt
	}
}

// ApplyDisplacement nudges particle positions directly, used by the
// position solver to remove residual constraint/contact error.
func (p *ParticleSystem) ApplyDisplacement(delta []float64) {
	for i := range p.pos {
		p.pos[i].X += delta[3*i]
		p.pos[i].Y += delta[3*i+1]
		p.pos[i].Z += delta[3*i+2]
	}
}

// UpdateKinematics is a no-op: particles carry no orientation or
// frame-derived state beyond position, already current after Integrate.
func (p *ParticleSystem) UpdateKinematics() {}

// UpdateDynamics is a no-op: per-particle inverse mass is constant.
func (p *ParticleSystem) UpdateDynamics(dt float64) error { return nil }

// UpdateAcceleration adds gravity onto every non-pinned particle's
// accelerator, on top of whatever ApplyForce's AccelerationChange kind
// already wrote there this step (world.Step zeroes it after folding it
// into velocity, so this never double-counts).
func (p *ParticleSystem) UpdateAcceleration(gravity lin.V3, dt float64) error {
	for i := range p.pos {
		if p.invMass[i] == 0 {
			p.acc[3*i], p.acc[3*i+1], p.acc[3*i+2] = 0, 0, 0
			continue
		}
		p.acc[3*i] += gravity.X
		p.acc[3*i+1] += gravity.Y
		p.acc[3*i+2] += gravity.Z
	}
	return nil
}

// ApplyForce applies a force/impulse/etc to the particle named by part.
func (p *ParticleSystem) ApplyForce(part PartIndex, force lin.V3, kind ForceKind, wake bool) {
	if wake {
		p.activation.Sleeping = false
	}
	i := int(part)
	if i < 0 || i >= len(p.pos) {
		return
	}
	im := p.invMass[i]
	switch kind {
	case Force:
		p.acc[3*i] += force.X * im
		p.acc[3*i+1] += force.Y * im
		p.acc[3*i+2] += force.Z * im
	case Impulse:
		p.vel[3*i] += force.X * im
		p.vel[3*i+1] += force.Y * im
		p.vel[3*i+2] += force.Z * im
	case AccelerationChange:
		p.acc[3*i] += force.X
		p.acc[3*i+1] += force.Y
		p.acc[3*i+2] += force.Z
	case VelocityChange:
		p.vel[3*i] += force.X
		p.vel[3*i+1] += force.Y
		p.vel[3*i+2] += force.Z
	}
}

// FillConstraintGeometry builds a single-particle Jacobian row: only the
// three columns belonging to the named particle are nonzero.
func (p *ParticleSystem) FillConstraintGeometry(part PartIndex, point lin.V3, dir ForceDirection, out RowGeometry) {
	for i := range out.J {
		out.J[i], out.WJ[i] = 0, 0
	}
	i := int(part)
	if dir.Kind != Linear || i < 0 || i >= len(p.pos) {
		return
	}
	im := p.invMass[i]
	out.J[3*i], out.J[3*i+1], out.J[3*i+2] = dir.Axis.X, dir.Axis.Y, dir.Axis.Z
	out.WJ[3*i] = dir.Axis.X * im
	out.WJ[3*i+1] = dir.Axis.Y * im
	out.WJ[3*i+2] = dir.Axis.Z * im
	*out.InvR += im

	if out.OutVel != nil {
		*out.OutVel += dir.Axis.X*p.vel[3*i] + dir.Axis.Y*p.vel[3*i+1] + dir.Axis.Z*p.vel[3*i+2]
	}
}

// MaterialPointAtWorldPoint treats a particle's own position as its
// material point; there is no local frame to invert.
func (p *ParticleSystem) MaterialPointAtWorldPoint(part PartIndex, world lin.V3) (lin.V3, bool) {
	return world, true
}

// WorldPointAtMaterialPoint returns the named particle's current position.
func (p *ParticleSystem) WorldPointAtMaterialPoint(part PartIndex, material lin.V3) lin.V3 {
	i := int(part)
	if i < 0 || i >= len(p.pos) {
		return material
	}
	return p.pos[i]
}

func (p *ParticleSystem) HasActiveInternalConstraints() bool { return len(p.Constraints) > 0 }

// SetupInternalVelocityConstraints is a no-op: distance constraints need
// no warm-start state beyond the rest length already stored.
func (p *ParticleSystem) SetupInternalVelocityConstraints(dv []float64) {}

// StepSolveInternalVelocityConstraints removes the component of relative
// velocity along each distance constraint's axis (scaled down by
// Stiffness's compliance for a finite Stiffness), split between the two
// particles by their inverse-mass ratio — the velocity-level descendant
// of physics/pbd.go's positional distance constraint solve.
func (p *ParticleSystem) StepSolveInternalVelocityConstraints(dv []float64) {
	for _, c := range p.Constraints {
		a, b := c.A, c.B
		axis := lin.V3{X: p.pos[b].X - p.pos[a].X, Y: p.pos[b].Y - p.pos[a].Y, Z: p.pos[b].Z - p.pos[a].Z}
		length := axis.Len()
		if length < 1e-12 {
			continue
		}
		axis.Div(length)
		relv := (dv[3*b]-dv[3*a])*axis.X + (dv[3*b+1]-dv[3*a+1])*axis.Y + (dv[3*b+2]-dv[3*a+2])*axis.Z
		wa, wb := p.invMass[a], p.invMass[b]
		wsum := wa + wb
		if wsum == 0 {
			continue
		}

		// Infinite stiffness: bilateral, relv fully removed. Finite
		// stiffness: XPBD-style compliance term added to the denominator
		// so the correction saturates toward that same bilateral limit as
		// Stiffness grows, rather than scaling the correction by
		// Stiffness directly (which overshot at the stiff end instead of
		// converging toward it).
		compliance := 0.0
		if !math.IsInf(c.Stiffness, 1) {
			if c.Stiffness <= 0 {
				continue
			}
			compliance = 1 / c.Stiffness
		}
		lambda := -relv / (wsum + compliance)
		dv[3*a] -= lambda * wa * axis.X
		dv[3*a+1] -= lambda * wa * axis.Y
		dv[3*a+2] -= lambda * wa * axis.Z
		dv[3*b] += lambda * wb * axis.X
		dv[3*b+1] += lambda * wb * axis.Y
		dv[3*b+2] += lambda * wb * axis.Z
	}
}
