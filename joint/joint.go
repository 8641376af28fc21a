// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package joint implements the bilateral constraints of spec.md §3's joint
// list (revolute, prismatic, ball, fixed, planar) plus two supplemented
// multi-axis joints ported in spirit from nphysics
// (original_source/src/joint/cartesian_constraint.rs and
// cylindrical_constraint.rs). Every Joint is an assemble.Generator: it
// contributes one bilateral row per locked relative DOF, each driving the
// relative velocity along that axis to zero.
//
// Joint axes are fixed in world space at construction time rather than
// re-derived from each body's current orientation every step — the DOF
// interface deliberately does not expose a body's rotation directly (only
// point transforms), so tracking a rotating joint frame would require
// either widening body.DOF or a per-kind downcast the design explicitly
// keeps out of assemble/joint. This is exact for joints anchored to
// non-rotating (or slowly rotating) parents and is documented as a scope
// decision in DESIGN.md.
package joint

import (
	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

// WarmStarter is implemented by any Generator that wants its converged row
// impulses preserved as next step's initial guess. world.Step calls
// CacheImpulses on every generator satisfying this interface once the
// velocity solver has run.
type WarmStarter interface {
	CacheImpulses()
}

// Kind names the elementary or composite joint topology.
type Kind uint8

const (
	Ball       Kind = iota // coincident anchors, free rotation.
	Revolute               // coincident anchors, free rotation about Axis.
	Prismatic              // free translation along Axis, rotation fully locked.
	Fixed                  // anchors and rotation fully locked.
	Planar                 // translation locked along Axis, free rotation about Axis.
	Cartesian              // rotation fully locked, translation fully free (nphysics CartesianConstraint).
	Cylindrical            // free translation and rotation along the same Axis, everything else locked.
)

// Joint couples two body parts (BodyB may be body.Ground for a
// world-anchored joint) along the DOF pattern named by Kind.
type Joint struct {
	Kind                   Kind
	BodyA, BodyB           body.Handle
	PartA, PartB           body.PartIndex
	LocalAnchorA, LocalAnchorB lin.V3 // material-frame anchor points.
	Axis                   lin.V3     // world-frame joint axis, unit length; meaning depends on Kind.
	Erp                    float64    // position-correction rate for this joint's linear rows; 0 uses the caller's default.

	// warm holds last step's accumulated impulse per velocity row, in
	// emission order (which is fixed: a Joint's locked-axis pattern never
	// changes after construction). lastRows points at this step's live
	// rows so CacheImpulses can read back what the solver converged on.
	// Mirrors nphysics' JointConstraint::cache_impulses.
	warm     []float64
	lastRows []*assemble.Row
}

func orthonormalBasis(axis lin.V3) (perp1, perp2 lin.V3) {
	ref := lin.V3{X: 1, Y: 0, Z: 0}
	if axis.X > 0.9 || axis.X < -0.9 {
		ref = lin.V3{X: 0, Y: 1, Z: 0}
	}
	perp1.Cross(&axis, &ref)
	perp1.Unit()
	perp2.Cross(&axis, &perp1)
	return perp1, perp2
}

// lockedAxes returns the world-frame axes along which relative linear and
// angular velocity must be zero for this joint's Kind.
func (j *Joint) lockedAxes() (linearAxes, angularAxes []lin.V3) {
	worldX := lin.V3{X: 1, Y: 0, Z: 0}
	worldY := lin.V3{X: 0, Y: 1, Z: 0}
	worldZ := lin.V3{X: 0, Y: 0, Z: 1}
	perp1, perp2 := orthonormalBasis(j.Axis)

	switch j.Kind {
	case Ball:
		return []lin.V3{worldX, worldY, worldZ}, nil
	case Revolute:
		return []lin.V3{worldX, worldY, worldZ}, []lin.V3{perp1, perp2}
	case Prismatic:
		return []lin.V3{perp1, perp2}, []lin.V3{worldX, worldY, worldZ}
	case Fixed:
		return []lin.V3{worldX, worldY, worldZ}, []lin.V3{worldX, worldY, worldZ}
	case Planar:
		return []lin.V3{j.Axis}, []lin.V3{perp1, perp2}
	case Cartesian:
		return nil, []lin.V3{worldX, worldY, worldZ}
	case Cylindrical:
		return []lin.V3{perp1, perp2}, []lin.V3{perp1, perp2}
	}
	return nil, nil
}

// Assemble implements assemble.Generator: one Unbounded bilateral row per
// locked axis, velocity-level bias 0 (plain relative-velocity cancellation;
// restitution has no meaning for a joint).
func (j *Joint) Assemble(g *assemble.Group, set *body.Set, dt float64) {
	dofA, dofB := set.Get(j.BodyA), set.Get(j.BodyB)
	if dofA == nil || dofB == nil {
		return
	}
	anchorA := dofA.WorldPointAtMaterialPoint(j.PartA, j.LocalAnchorA)
	linAxes, angAxes := j.lockedAxes()

	j.lastRows = j.lastRows[:0]
	addRow := func(dir body.ForceDirection) {
		row := assemble.AddRow(g, dofA, j.PartA, j.BodyA, bodyOrNil(dofB, j.BodyB), j.PartB, j.BodyB,
			anchorA, dir, assemble.Unbounded(), 0)
		if idx := len(j.lastRows); idx < len(j.warm) {
			row.Impulse = j.warm[idx]
		}
		j.lastRows = append(j.lastRows, row)
	}
	for _, axis := range linAxes {
		addRow(body.LinearDir(axis))
	}
	for _, axis := range angAxes {
		addRow(body.AngularDir(axis))
	}
}

// CacheImpulses records this step's converged row impulses as next step's
// warm start, the way nphysics' JointConstraint::cache_impulses does.
// Call after the velocity solver has run.
func (j *Joint) CacheImpulses() {
	if cap(j.warm) < len(j.lastRows) {
		j.warm = make([]float64, len(j.lastRows))
	}
	j.warm = j.warm[:len(j.lastRows)]
	for i, r := range j.lastRows {
		j.warm[i] = r.Impulse
	}
}

// AssemblePosition adds one position-level row per locked linear axis,
// driving out the anchor separation accumulated since the last step. Only
// linear drift is corrected here — see the package doc comment: angular
// drift correction would need the joint frame's current world rotation,
// which the DOF interface does not expose generically, so it is left to
// the velocity-level rows to hold over time (a documented scope decision).
func (j *Joint) AssemblePosition(g *assemble.Group, set *body.Set, erp, maxCorrection float64) {
	dofA, dofB := set.Get(j.BodyA), set.Get(j.BodyB)
	if dofA == nil || dofB == nil {
		return
	}
	anchorA := dofA.WorldPointAtMaterialPoint(j.PartA, j.LocalAnchorA)
	anchorB := dofB.WorldPointAtMaterialPoint(j.PartB, j.LocalAnchorB)
	sep := lin.V3{X: anchorB.X - anchorA.X, Y: anchorB.Y - anchorA.Y, Z: anchorB.Z - anchorA.Z}

	rate := erp
	if j.Erp > 0 {
		rate = j.Erp
	}
	linAxes, _ := j.lockedAxes()
	for _, axis := range linAxes {
		drift := sep.X*axis.X + sep.Y*axis.Y + sep.Z*axis.Z
		bias := clampMagnitude(-drift*rate, maxCorrection)
		assemble.AddRow(g, dofA, j.PartA, j.BodyA, bodyOrNil(dofB, j.BodyB), j.PartB, j.BodyB,
			anchorA, body.LinearDir(axis), assemble.Unbounded(), bias)
	}
}

func clampMagnitude(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func bodyOrNil(d body.DOF, h body.Handle) body.DOF {
	if h == body.Ground {
		return nil
	}
	return d
}
