// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"github.com/gazed/dynamics/math/lin"
)

// RigidBody is a single 6-DOF rigid body: a world transform, a constant
// local inertia tensor, and the velocity/acceleration pair the solver
// reads and writes through the DOF interface.
//
// Generalized velocity and acceleration are stored as flat [6]float64
// arrays, [linear.xyz, angular.xyz], the layout the solver expects from
// every DOF implementation regardless of body kind. Ported from
// physics/body.go's lvel/avel/lfor/afor/iit/iitw field layout, collapsed
// into the uniform DOF contract.
type RigidBody struct {
	handle     Handle
	status     Status
	activation Activation
	companion  int

	world *lin.T // world space position + orientation.
	prev  *lin.T // scratch: world before this step's integration.

	mass    float64
	invMass float64

	// invInertiaLocal is the inverse of the diagonal principal-axis
	// inertia tensor, in body space. invInertiaWorld is invInertiaLocal
	// rotated into world space, refreshed by UpdateKinematics whenever
	// the orientation changes.
	invInertiaLocal lin.V3
	invInertiaWorld lin.M3

	vel [6]float64 // generalized velocity: [lx,ly,lz, ax,ay,az]
	acc [6]float64 // generalized acceleration, same layout.

	force  lin.V3 // accumulated external force (Newtons) for this step.
	torque lin.V3 // accumulated external torque for this step.

	Friction    float64
	Restitution float64

	scratch lin.V3 // reused by FillConstraintGeometry to avoid allocation.
}

// NewRigidBody creates a dynamic rigid body at the identity transform with
// the given mass and diagonal body-space inertia. A zero mass produces a
// Static body (invMass and invInertia both zero).
func NewRigidBody(mass float64, localInertia lin.V3) *RigidBody {
	r := &RigidBody{
		world:       lin.NewT(),
		prev:        lin.NewT(),
		mass:        mass,
		status:      Dynamic,
		activation:  DefaultActivation(),
		Friction:    0.5,
		Restitution: 0.0,
	}
	if mass > 0 {
		r.invMass = 1 / mass
		if localInertia.X > 0 {
			r.invInertiaLocal.X = 1 / localInertia.X
		}
		if localInertia.Y > 0 {
			r.invInertiaLocal.Y = 1 / localInertia.Y
		}
		if localInertia.Z > 0 {
			r.invInertiaLocal.Z = 1 / localInertia.Z
		}
	} else {
		r.status = Static
	}
	r.UpdateKinematics()
	return r
}

// Handle returns the body's stable identifier within its Set.
func (r *RigidBody) Handle() Handle { return r.handle }

// World returns the body's world transform. Callers must not retain the
// pointer across a step; RigidBody.Integrate mutates it in place.
func (r *RigidBody) World() *lin.T { return r.world }

// SetWorld places the body directly, bypassing integration. Used by
// Set during body creation and by kinematic drivers.
func (r *RigidBody) SetWorld(t *lin.T) {
	r.world.Set(t)
	r.UpdateKinematics()
}

func (r *RigidBody) Kind() Kind        { return KindRigid }
func (r *RigidBody) Status() Status    { return r.status }
func (r *RigidBody) SetStatus(s Status) {
	r.status = s
	if s != Static && s != Disabled {
		r.activation.Sleeping = false
	}
}

func (r *RigidBody) NDofs() int { return 6 }

func (r *RigidBody) StatusDependentNDofs() int {
	if r.status == Dynamic || r.status == Kinematic {
		return 6
	}
	return 0
}

func (r *RigidBody) Companion() int     { return r.companion }
func (r *RigidBody) SetCompanion(c int) { r.companion = c }

func (r *RigidBody) GeneralizedVelocity() []float64     { return r.vel[:] }
func (r *RigidBody) GeneralizedAcceleration() []float64 { return r.acc[:] }

func (r *RigidBody) linVel() lin.V3 { return lin.V3{X: r.vel[0], Y: r.vel[1], Z: r.vel[2]} }
func (r *RigidBody) angVel() lin.V3 { return lin.V3{X: r.vel[3], Y: r.vel[4], Z: r.vel[5]} }

// Integrate advances world by one semi-implicit Euler step using the
// current generalized velocity. Ported from physics/body.go's
// updateWorldTransform, which calls lin.T.Integrate the same way.
func (r *RigidBody) Integrate(dt float64) {
	if r.status != Dynamic && r.status != Kinematic {
		return
	}
	lv, av := r.linVel(), r.angVel()
	r.prev.Set(r.world)
	r.world.Integrate(r.prev, &lv, &av, dt)
	r.UpdateKinematics()
}

// ApplyDisplacement nudges position and orientation directly by a
// generalized displacement, used by the non-linear position solver
// (solve/position.go) to remove residual penetration/joint drift.
func (r *RigidBody) ApplyDisplacement(delta []float64) {
	if r.status != Dynamic {
		return
	}
	r.world.Loc.X += delta[0]
	r.world.Loc.Y += delta[1]
	r.world.Loc.Z += delta[2]
	ax, ay, az := delta[3], delta[4], delta[5]
	angLen := lin.V3{X: ax, Y: ay, Z: az}.Len()
	if angLen > 1e-12 {
		dq := lin.NewQ().SetAa(ax, ay, az, angLen)
		r.world.Rot.Mult(dq, r.world.Rot)
		r.world.Rot.Unit()
	}
	r.UpdateKinematics()
}

// UpdateKinematics refreshes the world-space inverse inertia tensor from
// the current orientation: Iw^-1 = R * Il^-1 * R^T. Ported from
// physics/body.go's updateInertiaTensor.
func (r *RigidBody) UpdateKinematics() {
	rot := lin.NewM3().SetQ(r.world.Rot)
	scaled := lin.NewM3().Set(rot).ScaleV(&r.invInertiaLocal)
	rt := lin.NewM3().Transpose(rot)
	r.invInertiaWorld.Mult(scaled, rt)
}

// UpdateDynamics is a no-op for rigid bodies: the mass operator (inverse
// mass, inverse inertia tensor) does not change step to step, only its
// world-frame orientation does, which UpdateKinematics already handles.
func (r *RigidBody) UpdateDynamics(dt float64) error { return nil }

// UpdateAcceleration combines accumulated external force/torque with
// gravity into the generalized acceleration vector, then clears the
// force accumulators for the next step (physics/body.go's clearForces,
// folded into the same call so every RigidBody carries exactly one
// "end of force application" point).
func (r *RigidBody) UpdateAcceleration(gravity lin.V3, dt float64) error {
	if r.status != Dynamic {
		r.acc[0], r.acc[1], r.acc[2] = 0, 0, 0
		r.acc[3], r.acc[4], r.acc[5] = 0, 0, 0
		return nil
	}
	// Accumulate onto whatever ApplyForce's AccelerationChange kind
	// already wrote into r.acc this step (world.Step zeroes it after
	// folding it into velocity, so this never double-counts).
	r.acc[0] += r.force.X*r.invMass + gravity.X
	r.acc[1] += r.force.Y*r.invMass + gravity.Y
	r.acc[2] += r.force.Z*r.invMass + gravity.Z

	ang := r.scratch.MultMv(&r.invInertiaWorld, &r.torque)
	r.acc[3], r.acc[4], r.acc[5] = ang.X, ang.Y, ang.Z

	r.force.SetS(0, 0, 0)
	r.torque.SetS(0, 0, 0)
	return nil
}

// ApplyForce accumulates a linear force/impulse/acceleration/velocity
// change at the body's center of mass. Off-center application (contacts,
// joints) goes through FillConstraintGeometry instead.
func (r *RigidBody) ApplyForce(part PartIndex, force lin.V3, kind ForceKind, wake bool) {
	if wake {
		r.activation.Sleeping = false
		r.activation.TimeBelow = 0
	}
	switch kind {
	case Force:
		r.force.Add(&r.force, &force)
	case Impulse:
		r.vel[0] += force.X * r.invMass
		r.vel[1] += force.Y * r.invMass
		r.vel[2] += force.Z * r.invMass
	case AccelerationChange:
		r.acc[0] += force.X
		r.acc[1] += force.Y
		r.acc[2] += force.Z
	case VelocityChange:
		r.vel[0] += force.X
		r.vel[1] += force.Y
		r.vel[2] += force.Z
	}
}

// FillConstraintGeometry writes the contact/joint Jacobian row for this
// body at the given world point and direction, following the standard
// rigid-body contact Jacobian: linear part is the direction itself,
// angular part is (point - com) × direction for a Linear row, or just
// the axis for an Angular (pure rotation) row.
func (r *RigidBody) FillConstraintGeometry(part PartIndex, point lin.V3, dir ForceDirection, out RowGeometry) {
	switch dir.Kind {
	case Linear:
		arm := r.scratch.Sub(&point, r.world.Loc)
		out.J[0], out.J[1], out.J[2] = dir.Axis.X, dir.Axis.Y, dir.Axis.Z
		var rxn lin.V3
		rxn.Cross(arm, &dir.Axis)
		out.J[3], out.J[4], out.J[5] = rxn.X, rxn.Y, rxn.Z
	case Angular:
		out.J[0], out.J[1], out.J[2] = 0, 0, 0
		out.J[3], out.J[4], out.J[5] = dir.Axis.X, dir.Axis.Y, dir.Axis.Z
	}

	out.WJ[0] = out.J[0] * r.invMass
	out.WJ[1] = out.J[1] * r.invMass
	out.WJ[2] = out.J[2] * r.invMass
	angJ := lin.V3{X: out.J[3], Y: out.J[4], Z: out.J[5]}
	var angWJ lin.V3
	angWJ.MultMv(&r.invInertiaWorld, &angJ)
	out.WJ[3], out.WJ[4], out.WJ[5] = angWJ.X, angWJ.Y, angWJ.Z

	dot := 0.0
	for i := 0; i < 6; i++ {
		dot += out.J[i] * out.WJ[i]
	}
	*out.InvR += dot

	if out.OutVel != nil {
		gv := r.vel
		proj := 0.0
		for i := 0; i < 6; i++ {
			proj += out.J[i] * gv[i]
		}
		*out.OutVel += proj
	}
}

// MaterialPointAtWorldPoint converts a world point into the body's local
// frame. Rigid bodies have no material/deformation space, so this is
// simply the inverse isometry; ok is always true.
func (r *RigidBody) MaterialPointAtWorldPoint(part PartIndex, world lin.V3) (lin.V3, bool) {
	local := world
	r.world.Inv(&local)
	return local, true
}

// WorldPointAtMaterialPoint applies the body's transform to a local point.
func (r *RigidBody) WorldPointAtMaterialPoint(part PartIndex, material lin.V3) lin.V3 {
	p := material
	r.world.App(&p)
	return p
}

func (r *RigidBody) HasActiveInternalConstraints() bool             { return false }
func (r *RigidBody) SetupInternalVelocityConstraints(dv []float64)  {}
func (r *RigidBody) StepSolveInternalVelocityConstraints(dv []float64) {}
