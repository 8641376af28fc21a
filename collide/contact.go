// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package collide

import (
	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

// ContactKinematic carries enough local geometry to reproject a contact
// point as the two bodies move, per spec.md §3's "enough geometric data
// to reproject the contact under small configuration changes". Anchors
// are stored in each side's material/local space (body.DOF's
// MaterialPointAtWorldPoint), so AssemblePosition can recompute a fresh
// world point and penetration depth every position-solver iteration
// without re-running narrow phase, mirroring collider_Contact's role
// in physics/collider.go but carried forward across iterations instead
// of being a one-shot output.
type ContactKinematic struct {
	LocalA, LocalB lin.V3 // material-space anchors on each body.
	LocalNormalA   lin.V3 // contact normal in A's local frame at capture time.
}

// Contact is one point within a Manifold. NormalA is the world-space
// contact normal at narrow-phase time, pointing from B toward A;
// NormalB is the opposing direction stored separately since the two
// sides need not be the same collider's frame (spec.md §3: "a local
// normal on each side"). Depth is the penetration at capture time;
// AssemblePosition recomputes the live depth from the kinematic anchors
// rather than trusting this stale value across iterations.
type Contact struct {
	Kinematic ContactKinematic
	NormalA   lin.V3
	NormalB   lin.V3
	Depth     float64
	PartA     body.PartIndex
	PartB     body.PartIndex

	normalRow int // index into the owning Group's Rows, set by Assemble.

	// warmNormal/warmTangent1/warmTangent2 are last step's converged
	// impulses for this contact's three rows, carried forward by
	// defaultWorld across its per-step manifold reset (matched contact to
	// contact by nearest kinematic anchor in carryWarmImpulses) the way
	// joint.Joint.warm carries a joint's rows. Resting stacks (spec.md
	// §8's pyramid scenario) depend on this: without it every step starts
	// every contact from zero and re-derives the same supporting impulse
	// from scratch, which is wasted work at best and, at tight iteration
	// budgets, an under-converged stack at worst.
	warmNormal, warmTangent1, warmTangent2 float64

	// rowNormal/rowTangent1/rowTangent2 point at this step's rows once
	// Assemble has run, so CacheImpulses can read back what the solver
	// converged on without re-deriving row indices.
	rowNormal, rowTangent1, rowTangent2 *assemble.Row
}

// Manifold groups up to a few contacts between the same collider pair,
// per spec.md §3. It implements both assemble.Generator (velocity-level
// rows: one unilateral normal row and two coupled friction rows per
// contact) and assemble.PositionGenerator (non-linear position
// correction along the live, reprojected normal), so world can drive it
// through solve.VelocityPass / solve.PositionPass exactly like a joint.
// It also implements joint.WarmStarter (CacheImpulses), structurally:
// collide never imports joint, but world's step-8 type-switch
// (joint.WarmStarter) picks it up the same way it picks up *joint.Joint.
type Manifold struct {
	BodyA, BodyB body.Handle
	Material     Material
	Contacts     []Contact
}

// Assemble appends one NonNegative normal row plus two FrictionBounds
// tangent rows per contact, restitution folded into the row's target
// velocity via bias, mirroring physics/solver.go's contact-row
// construction (a unilateral row with a driving bias from the
// pre-solve closing velocity times restitution, plus two friction rows
// coupled to the normal row's impulse).
func (m *Manifold) Assemble(g *assemble.Group, set *body.Set, dt float64) {
	dofA := set.Get(m.BodyA)
	dofB := set.Get(m.BodyB)
	if dofA == nil || dofB == nil {
		return
	}
	otherB := bodyOrNil(dofB, m.BodyB)
	for i := range m.Contacts {
		c := &m.Contacts[i]
		pointA := dofA.WorldPointAtMaterialPoint(c.PartA, c.Kinematic.LocalA)
		normalDir := body.LinearDir(c.NormalA)

		normalRow := assemble.AddRow(g, dofA, c.PartA, m.BodyA, otherB, c.PartB, m.BodyB,
			pointA, normalDir, assemble.NonNegative(), 0)
		closing := normalRow.RelativeVelocity(dofA, otherB)
		bias := m.Material.Restitution * closing
		if bias > 0 {
			bias = 0 // restitution only adds separating bias, never pulls bodies together.
		}
		normalRow.Bias = bias
		normalRow.Impulse = c.warmNormal
		c.normalRow = len(g.Rows) - 1
		c.rowNormal = normalRow

		t1, t2 := orthonormalTangents(c.NormalA)
		mu := m.Material.Friction
		tangentRow1 := assemble.AddRow(g, dofA, c.PartA, m.BodyA, otherB, c.PartB, m.BodyB,
			pointA, body.LinearDir(t1), assemble.FrictionBounds(c.normalRow, mu), 0)
		tangentRow1.Impulse = c.warmTangent1
		c.rowTangent1 = tangentRow1

		tangentRow2 := assemble.AddRow(g, dofA, c.PartA, m.BodyA, otherB, c.PartB, m.BodyB,
			pointA, body.LinearDir(t2), assemble.FrictionBounds(c.normalRow, mu), 0)
		tangentRow2.Impulse = c.warmTangent2
		c.rowTangent2 = tangentRow2
	}
}

// CacheImpulses records this step's converged per-contact impulses as
// next step's warm start, mirroring joint.Joint.CacheImpulses.
// defaultWorld.carryWarmImpulses is what actually transports these
// values from one step's Manifold to the next step's freshly detected
// one (manifolds themselves don't survive ClearEvents' reset).
func (m *Manifold) CacheImpulses() {
	for i := range m.Contacts {
		c := &m.Contacts[i]
		if c.rowNormal != nil {
			c.warmNormal = c.rowNormal.Impulse
		}
		if c.rowTangent1 != nil {
			c.warmTangent1 = c.rowTangent1.Impulse
		}
		if c.rowTangent2 != nil {
			c.warmTangent2 = c.rowTangent2.Impulse
		}
	}
}

// AssemblePosition re-derives the contact depth at the current
// configuration from the stored material-space anchors and appends one
// NonNegative row per contact along the (fixed-at-capture) normal,
// matching spec.md §9's resolution of the "reprojection goes through
// the collision-world collaborator, given both body positions and the
// saved contact kinematic" open question.
func (m *Manifold) AssemblePosition(g *assemble.Group, set *body.Set, erp, maxCorrection float64) {
	dofA := set.Get(m.BodyA)
	dofB := set.Get(m.BodyB)
	if dofA == nil || dofB == nil {
		return
	}
	otherB := bodyOrNil(dofB, m.BodyB)
	for i := range m.Contacts {
		c := &m.Contacts[i]
		worldA := dofA.WorldPointAtMaterialPoint(c.PartA, c.Kinematic.LocalA)
		worldB := dofB.WorldPointAtMaterialPoint(c.PartB, c.Kinematic.LocalB)
		sep := lin.NewV3().Sub(&worldB, &worldA)
		depth := sep.Dot(&c.NormalA)
		if depth <= 0 {
			continue
		}
		bias := -depth * erp
		if bias < -maxCorrection {
			bias = -maxCorrection
		}
		assemble.AddRow(g, dofA, c.PartA, m.BodyA, otherB, c.PartB, m.BodyB,
			worldA, body.LinearDir(c.NormalA), assemble.NonNegative(), bias)
	}
}

func bodyOrNil(d body.DOF, h body.Handle) body.DOF {
	if h == body.Ground {
		return nil
	}
	return d
}

// orthonormalTangents completes a right-handed basis around a contact
// normal for the two friction directions, the same Gram-Schmidt
// construction joint.orthonormalBasis uses for joint axes.
func orthonormalTangents(normal lin.V3) (t1, t2 lin.V3) {
	ref := lin.V3{X: 1, Y: 0, Z: 0}
	if normal.X > 0.9 || normal.X < -0.9 {
		ref = lin.V3{X: 0, Y: 1, Z: 0}
	}
	t1v := lin.NewV3().Cross(&ref, &normal).Unit()
	t2v := lin.NewV3().Cross(&normal, t1v).Unit()
	return *t1v, *t2v
}
