// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package body unifies rigid bodies, articulated multibodies, mass-spring
// particle systems, and FEM deformable volumes behind a single
// degrees-of-freedom (DOF) interface that the assembler and solver can
// drive uniformly.
//
// Package body is part of the dynamics engine. Its shape follows
// github.com/gazed/vu/physics: bodies are identified by a small
// handle, own their own motion state, and are visited by value through
// a shared interface rather than downcast everywhere.
package body

import (
	"github.com/gazed/dynamics/math/lin"
)

// Handle identifies a body. It is stable for the life of the body and is
// never reused within a Set's lifetime, even after the body is removed.
type Handle uint32

// Ground is the sentinel handle for the immovable ground body that every
// Set pre-creates. The ground has a single part and zero DOFs.
const Ground Handle = 0

// PartIndex identifies one of a body's parts, e.g. a link of a multibody.
type PartIndex uint16

// Part is a stable reference to one part of one body.
type Part struct {
	Body  Handle
	Index PartIndex
}

// Status classifies how a body participates in the simulation.
type Status uint8

const (
	Dynamic   Status = iota // has mass, integrated and solved for every step.
	Kinematic               // no mass, velocity prescribed by the application.
	Static                  // immovable, contributes zero columns to the solver.
	Disabled                // excluded from kinematics, dynamics and collision.
)

// Kind discriminates the concrete representation behind the DOF interface.
// It exists only so body.Set can offer typed accessors (AsRigid, AsFem,
// ...); assemble and solve never switch on it.
type Kind uint8

const (
	KindRigid Kind = iota
	KindMultibody
	KindParticle
	KindFem
)

// ForceKind selects how ApplyForce interprets its magnitude.
type ForceKind uint8

const (
	Force              ForceKind = iota // newtons, scaled by dt on integration.
	Impulse                             // instantaneous momentum change.
	AccelerationChange                  // added directly to acceleration.
	VelocityChange                      // added directly to velocity.
)

// DirectionKind distinguishes a linear constraint row (contact normals,
// friction tangents, joint translations) from an angular one (joint
// rotation rows, relative angular velocity cancellation).
type DirectionKind uint8

const (
	Linear DirectionKind = iota
	Angular
)

// ForceDirection is the force/impulse direction a constraint row is built
// along. Linear directions are world-space unit vectors applied at a
// point; Angular directions are world-space unit rotation axes.
type ForceDirection struct {
	Kind DirectionKind
	Axis lin.V3
}

// LinearDir builds a ForceDirection along a linear (translational) axis.
func LinearDir(axis lin.V3) ForceDirection { return ForceDirection{Kind: Linear, Axis: axis} }

// AngularDir builds a ForceDirection along an angular (rotational) axis.
func AngularDir(axis lin.V3) ForceDirection { return ForceDirection{Kind: Angular, Axis: axis} }

// UpdateFlags is the per-body lazy-recompute bitset driving
// update_kinematics / update_dynamics.
type UpdateFlags uint8

const (
	PositionChanged UpdateFlags = 1 << iota
	VelocityChanged
	LocalInertiaChanged
	StatusChanged
)

// Any reports whether any of the given flags are set.
func (f UpdateFlags) Any(mask UpdateFlags) bool { return f&mask != 0 }

// Activation tracks the kinetic-energy-based sleep bookkeeping for a body.
// It mirrors physics/pbd.go's deactivation_time/linear_SLEEPING_THRESHOLD
// logic, generalized from a hardcoded global to a per-body record so
// individual bodies (or "never sleep" bodies, e.g. player-controlled ones)
// can opt out.
type Activation struct {
	Energy      float64 // low-pass filtered kinetic energy estimate.
	Threshold   float64 // island goes to sleep once every member is below this.
	TimeBelow   float64 // accumulated seconds spent below Threshold.
	TimeToSleep float64 // seconds of TimeBelow required before sleeping.
	NeverSleep  bool
	Sleeping    bool
}

// DefaultActivation returns activation bookkeeping with the teacher's
// thresholds (physics/pbd.go: linear/angular sleeping thresholds of 0.10,
// one second to fully deactivate).
func DefaultActivation() Activation {
	return Activation{Threshold: 0.01, TimeToSleep: 1.0}
}

// RowGeometry is the scratch output of FillConstraintGeometry. J and WJ
// are slices owned by the assembler's arena (assemble.Arena), sized to
// the body's StatusDependentNDofs and reused step to step; FDOF writes
// into them rather than allocating. InvR and OutVel are accumulators: a
// constraint row touching two bodies calls FillConstraintGeometry on each
// side in turn and both calls add into the same InvR/OutVel storage.
type RowGeometry struct {
	J      []float64 // Jacobian row, length == body's StatusDependentNDofs().
	WJ     []float64 // M^-1 J^T, same length as J.
	InvR   *float64  // accumulate J . WJ into *InvR (J^T M^-1 J).
	OutVel *float64  // optional: accumulate the body's velocity projected onto the row.
	ExtVel *lin.V3   // optional: externally prescribed point velocity (kinematic override).
}

// DOF is the contract every body representation satisfies. The assembler
// and solver are written entirely against this interface; a new body
// variant that implements it participates in the pipeline unchanged.
type DOF interface {
	Kind() Kind
	Status() Status
	SetStatus(Status)

	// NDofs is the generalized DOF count: 6 for a 3D rigid body, the sum
	// of joint DOFs for a multibody, 2 or 3 per node for a particle
	// system, 2 or 3 per node for an FEM volume.
	NDofs() int

	// StatusDependentNDofs is zero for Static/Disabled bodies (so the
	// assembler can skip their columns entirely) and NDofs() otherwise.
	StatusDependentNDofs() int

	// Companion is the body's base offset into the global velocity-delta
	// vector for this step, assigned by Set at step start.
	Companion() int
	SetCompanion(int)

	// GeneralizedVelocity/Acceleration view the body's slice of the
	// global vectors. GeneralizedVelocity is mutable so the solver can
	// write Δv contributions directly; GeneralizedAcceleration is
	// read-only from the caller's perspective (only UpdateAcceleration
	// mutates it).
	GeneralizedVelocity() []float64
	GeneralizedAcceleration() []float64

	// Integrate advances positions by dt using the current velocity:
	// semi-implicit Euler for rigids, explicit Euler for FEM, joint-space
	// integration for multibodies.
	Integrate(dt float64)

	// ApplyDisplacement adds a DOF-space displacement, used by the
	// position solver. Implementations must refresh any cached world
	// transforms derived from position.
	ApplyDisplacement(delta []float64)

	// UpdateKinematics recomputes frame-derived quantities (world COM,
	// element rotations, articulated Jacobians) if PositionChanged is set.
	UpdateKinematics()

	// UpdateDynamics assembles/refreshes the mass operator if
	// LocalInertiaChanged is set. Returns an error only for the FEM
	// Cholesky-singular fatal case (see spec.md §7).
	UpdateDynamics(dt float64) error

	// UpdateAcceleration fills the acceleration vector from external
	// forces, gravity, and (for FEM) internal elastic forces, then for
	// FEM pre-multiplies by M^-1.
	UpdateAcceleration(gravity lin.V3, dt float64) error

	// ApplyForce records an external force/impulse/acceleration/velocity
	// change on the given part. wake requests the body (and its island)
	// be woken if currently sleeping.
	ApplyForce(part PartIndex, force lin.V3, kind ForceKind, wake bool)

	// FillConstraintGeometry is the central interface: at the given
	// world point and force direction, write the Jacobian row and its
	// mass-weighted twin into out.J/out.WJ, accumulate J^T M^-1 J into
	// *out.InvR, and if out.OutVel is non-nil accumulate the body's
	// velocity projected onto the row. The jacobian-mask discipline of
	// rigid bodies and the kinematic-node masking of FEM bodies must be
	// respected here: masked DOFs contribute zero impulse response but
	// still read their velocity so externally prescribed motion remains
	// authoritative (out.ExtVel, when non-nil, overrides the read).
	FillConstraintGeometry(part PartIndex, point lin.V3, dir ForceDirection, out RowGeometry)

	// MaterialPointAtWorldPoint / WorldPointAtMaterialPoint convert
	// between world space and the body's own material/local space:
	// barycentric projection for FEM, inverse isometry for rigids.
	MaterialPointAtWorldPoint(part PartIndex, world lin.V3) (material lin.V3, ok bool)
	WorldPointAtMaterialPoint(part PartIndex, material lin.V3) lin.V3

	// HasActiveInternalConstraints is true for mass-constraint /
	// position-based systems that splice their own rows into the
	// solver's global sweep instead of going through assemble/joint.
	HasActiveInternalConstraints() bool
	SetupInternalVelocityConstraints(dv []float64)
	StepSolveInternalVelocityConstraints(dv []float64)
}

// clampMasked zeroes components of j/wj that a jacobian mask locks, used
// by RigidBody.FillConstraintGeometry. mask[i]==0 means DOF i is locked.
func clampMasked(row []float64, mask [6]float64) {
	for i := range row {
		if i < len(mask) && mask[i] == 0 {
			row[i] = 0
		}
	}
}
