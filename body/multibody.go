// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"github.com/cpmech/gosl/chk"

	"github.com/gazed/dynamics/math/lin"
)

// JointKind is the elementary joint type of one Multibody link. Composite
// joints (ball, free, planar) are expressed as chains of zero-offset
// elementary links the way nphysics' multibody joints decompose a
// compound joint into single-DOF links, rather than as a distinct kind
// the assembler has to special-case.
type JointKind uint8

const (
	Revolute JointKind = iota // 1 rotational DOF about a local axis.
	Prismatic                 // 1 translational DOF along a local axis.
)

// Link is one elementary single-DOF joint of an articulated Multibody.
type Link struct {
	Parent int       // index of the parent link, -1 for a link attached to the world.
	Kind   JointKind
	Axis   lin.V3 // unit joint axis, expressed in the parent link's frame.

	// Offset is the fixed translation from the parent link's frame to
	// this joint's origin, applied before the joint's own motion.
	Offset lin.V3

	// EffectiveInertia is a diagonal approximation of this DOF's entry
	// in the generalized mass matrix (kg for Prismatic, kg*m^2 for
	// Revolute). A full composite-rigid-body mass matrix is not built;
	// this mirrors the spirit of physics/body.go's per-axis inertia
	// handling but scoped down to one scalar per joint, an explicit,
	// documented simplification (see DESIGN.md).
	EffectiveInertia float64

	q   float64 // generalized position.
	tau float64 // accumulated generalized force for this step.

	world lin.T // cached world transform of this link's frame.
}

// Multibody is an articulated chain of single-DOF Links sharing one
// generalized coordinate vector, the reduced-coordinates alternative to
// a stack of rigid bodies connected by constraint rows. Grounded on
// spec.md §3's "Multibody (reduced coordinates)" requirement and on the
// ancestor-chain Jacobian technique used throughout robotics kinematics
// (see the retrieval pack's viamrobotics-rdk kinematics Jacobian code).
type Multibody struct {
	handle     Handle
	status     Status
	activation Activation
	companion  int

	links []Link

	// qd/qdd are the canonical generalized velocity/acceleration backing
	// arrays. GeneralizedVelocity/Acceleration return views directly
	// into them so solver writes land in place, the same contract
	// RigidBody satisfies with its [6]float64 arrays.
	qd, qdd []float64
}

// NewMultibody builds a Multibody from a parent-linked list of joints.
// Link.Parent must reference an earlier index (or -1); links must
// therefore be supplied in topological order.
func NewMultibody(links []Link) *Multibody {
	for i, l := range links {
		if l.Parent >= i {
			chk.Panic("multibody link %d: parent %d must precede the link", i, l.Parent)
		}
	}
	m := &Multibody{
		links:      append([]Link(nil), links...),
		status:     Dynamic,
		activation: DefaultActivation(),
		qd:         make([]float64, len(links)),
		qdd:        make([]float64, len(links)),
	}
	m.UpdateKinematics()
	return m
}

func (m *Multibody) Kind() Kind         { return KindMultibody }
func (m *Multibody) Status() Status     { return m.status }
func (m *Multibody) SetStatus(s Status) { m.status = s }
func (m *Multibody) NDofs() int         { return len(m.links) }

func (m *Multibody) StatusDependentNDofs() int {
	if m.status == Dynamic || m.status == Kinematic {
		return len(m.links)
	}
	return 0
}

func (m *Multibody) Companion() int     { return m.companion }
func (m *Multibody) SetCompanion(c int) { m.companion = c }

func (m *Multibody) GeneralizedVelocity() []float64     { return m.qd }
func (m *Multibody) GeneralizedAcceleration() []float64 { return m.qdd }

// Integrate advances every joint coordinate by qd*dt (explicit Euler in
// joint space, the reduced-coordinates analogue of RigidBody's
// semi-implicit transform integration) and refreshes link frames.
func (m *Multibody) Integrate(dt float64) {
	if m.status != Dynamic && m.status != Kinematic {
		return
	}
	for i := range m.links {
		m.links[i].q += m.qd[i] * dt
	}
	m.UpdateKinematics()
}

// ApplyDisplacement nudges joint coordinates directly, used by the
// position solver to correct residual joint-limit or loop-closure drift.
func (m *Multibody) ApplyDisplacement(delta []float64) {
	for i := range m.links {
		m.links[i].q += delta[i]
	}
	m.UpdateKinematics()
}

// UpdateKinematics performs forward kinematics: each link's world frame
// is its parent's world frame composed with the fixed offset and the
// joint's own motion about Axis.
func (m *Multibody) UpdateKinematics() {
	for i := range m.links {
		l := &m.links[i]
		parent := lin.NewT()
		if l.Parent >= 0 {
			parent.Set(&m.links[l.Parent].world)
		}
		jointLocal := lin.NewT()
		jointLocal.Loc.Set(&l.Offset)
		switch l.Kind {
		case Revolute:
			jointLocal.Rot.SetAa(l.Axis.X, l.Axis.Y, l.Axis.Z, l.q)
		case Prismatic:
			along := lin.V3{X: l.Axis.X * l.q, Y: l.Axis.Y * l.q, Z: l.Axis.Z * l.q}
			jointLocal.Loc.Add(jointLocal.Loc, &along)
		}
		l.world.Mult(parent, jointLocal)
	}
}

// UpdateDynamics is a no-op: EffectiveInertia is a fixed, supplied
// approximation rather than a configuration-dependent composite mass
// matrix (see the Link.EffectiveInertia doc comment).
func (m *Multibody) UpdateDynamics(dt float64) error { return nil }

// UpdateAcceleration turns each link's accumulated generalized force plus
// a gravity-projected generalized force into joint-space acceleration
// using the diagonal effective-inertia approximation.
func (m *Multibody) UpdateAcceleration(gravity lin.V3, dt float64) error {
	if m.status != Dynamic {
		for i := range m.qdd {
			m.qdd[i] = 0
		}
		return nil
	}
	for i := range m.links {
		l := &m.links[i]
		worldAxis := l.world.Rot
		gen := 0.0
		switch l.Kind {
		case Prismatic:
			ax, ay, az := lin.MultSQ(l.Axis.X, l.Axis.Y, l.Axis.Z, worldAxis)
			gen = ax*gravity.X + ay*gravity.Y + az*gravity.Z
		case Revolute:
			gen = 0 // gravity exerts no generalized torque about the joint axis here; handled via link mass in a full CRBA.
		}
		inv := 0.0
		if l.EffectiveInertia > 0 {
			inv = 1 / l.EffectiveInertia
		}
		m.qdd[i] = inv * (l.tau + gen)
		l.tau = 0
	}
	return nil
}

// ApplyForce applies the magnitude of force to the joint coordinate of the
// link named by part: Force accumulates generalized force, Impulse changes
// the joint velocity by magnitude/EffectiveInertia, AccelerationChange
// accumulates magnitude·EffectiveInertia of generalized force, and
// VelocityChange adds to the joint velocity directly.
func (m *Multibody) ApplyForce(part PartIndex, force lin.V3, kind ForceKind, wake bool) {
	if wake {
		m.activation.Sleeping = false
	}
	i := int(part)
	if i < 0 || i >= len(m.links) {
		return
	}
	mag := force.Len()
	inertia := m.links[i].EffectiveInertia
	switch kind {
	case Force:
		m.links[i].tau += mag
	case Impulse:
		if inertia > 0 {
			m.qd[i] += mag / inertia
		}
	case AccelerationChange:
		m.links[i].tau += mag * inertia
	case VelocityChange:
		m.qd[i] += mag
	}
}

// FillConstraintGeometry builds the ancestor-chain Jacobian row for a
// world point rigidly attached to link part: every ancestor joint (and
// the joint itself) contributes one nonzero column, all others are zero.
func (m *Multibody) FillConstraintGeometry(part PartIndex, point lin.V3, dir ForceDirection, out RowGeometry) {
	for i := range out.J {
		out.J[i], out.WJ[i] = 0, 0
	}
	i := int(part)
	for i >= 0 {
		l := &m.links[i]
		var col float64
		switch l.Kind {
		case Prismatic:
			ax, ay, az := lin.MultSQ(l.Axis.X, l.Axis.Y, l.Axis.Z, l.world.Rot)
			switch dir.Kind {
			case Linear:
				col = ax*dir.Axis.X + ay*dir.Axis.Y + az*dir.Axis.Z
			case Angular:
				col = 0
			}
		case Revolute:
			ax, ay, az := lin.MultSQ(l.Axis.X, l.Axis.Y, l.Axis.Z, l.world.Rot)
			switch dir.Kind {
			case Angular:
				col = ax*dir.Axis.X + ay*dir.Axis.Y + az*dir.Axis.Z
			case Linear:
				arm := lin.V3{X: point.X - l.world.Loc.X, Y: point.Y - l.world.Loc.Y, Z: point.Z - l.world.Loc.Z}
				var axr lin.V3
				axr.Cross(&lin.V3{X: ax, Y: ay, Z: az}, &arm)
				col = axr.X*dir.Axis.X + axr.Y*dir.Axis.Y + axr.Z*dir.Axis.Z
			}
		}
		out.J[i] = col
		inv := 0.0
		if l.EffectiveInertia > 0 {
			inv = 1 / l.EffectiveInertia
		}
		out.WJ[i] = col * inv
		*out.InvR += col * col * inv
		i = l.Parent
	}
	if out.OutVel != nil {
		proj := 0.0
		for idx := range m.links {
			proj += out.J[idx] * m.qd[idx]
		}
		*out.OutVel += proj
	}
}

// MaterialPointAtWorldPoint converts world to link-local space via the
// inverse of the link's world frame.
func (m *Multibody) MaterialPointAtWorldPoint(part PartIndex, world lin.V3) (lin.V3, bool) {
	i := int(part)
	if i < 0 || i >= len(m.links) {
		return lin.V3{}, false
	}
	p := world
	m.links[i].world.Inv(&p)
	return p, true
}

// WorldPointAtMaterialPoint applies the link's world transform to a
// link-local point.
func (m *Multibody) WorldPointAtMaterialPoint(part PartIndex, material lin.V3) lin.V3 {
	i := int(part)
	if i < 0 || i >= len(m.links) {
		return material
	}
	p := material
	m.links[i].world.App(&p)
	return p
}

func (m *Multibody) HasActiveInternalConstraints() bool              { return false }
func (m *Multibody) SetupInternalVelocityConstraints(dv []float64)   {}
func (m *Multibody) StepSolveInternalVelocityConstraints(dv []float64) {}
