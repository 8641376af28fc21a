// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package assemble

import (
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

// RowBounds describes the box a row's accumulated impulse (or, at the
// position level, a scalar correction) must stay within, per spec.md §4.2:
// a bilateral row is unbounded, a unilateral (contact normal) row is
// clamped to [0, +inf), and friction rows are box-bounded by a
// coefficient times a coupled normal row's impulse (set by the solver each
// iteration, not fixed at assembly time).
type RowBounds struct {
	Lo, Hi     float64
	// CoupledTo indexes another row in the same Group whose solved impulse
	// scales Hi/Lo (friction bounded by its normal); -1 if fixed bounds.
	CoupledTo int
	Mu        float64 // friction coefficient, used only when CoupledTo >= 0.
}

// Unbounded is the RowBounds of a bilateral (equality) constraint row.
func Unbounded() RowBounds { return RowBounds{Lo: negInf, Hi: posInf, CoupledTo: -1} }

// NonNegative is the RowBounds of a unilateral (contact normal, joint
// limit) row.
func NonNegative() RowBounds { return RowBounds{Lo: 0, Hi: posInf, CoupledTo: -1} }

// FrictionBounds is the RowBounds of a friction row coupled to the normal
// row at index normalRow, box-limited to ±mu·λ_normal.
func FrictionBounds(normalRow int, mu float64) RowBounds {
	return RowBounds{CoupledTo: normalRow, Mu: mu}
}

const (
	posInf = 1e300 // stands in for +inf without pulling in math.Inf at every call site.
	negInf = -1e300
)

// Row is one assembled constraint row: the Jacobian contribution from each
// of up to two bodies (a ground row has only BodyA populated),
// its combined effective mass, warm-started accumulated impulse, target
// relative velocity (restitution bias, joint drive rate, Baumgarte/NGS
// position bias), and impulse bounds. Grounded on physics/solver.go's
// Contact/Constraint row layout, generalized from a fixed two-body contact
// row to an arbitrary DOF-width row via body.RowGeometry.
type Row struct {
	BodyA, BodyB body.Handle
	PartA, PartB body.PartIndex

	JA, WJA []float64 // arena-backed, length bodyA.StatusDependentNDofs().
	JB, WJB []float64 // nil/zero-length if the row is single-body.

	InvEffectiveMass float64 // J^T M^-1 J summed over both bodies (= 1/r).
	Bias             float64 // target relative velocity/position this row drives toward.
	Impulse          float64 // accumulated (warm-started) scalar impulse.
	Bounds           RowBounds
}

// Group is every Row active for one solver pass (one velocity sweep or one
// position sweep), plus the arena their J/WJ slices are carved from.
type Group struct {
	Arena *Arena
	Rows  []Row
}

// NewGroup creates an empty Group backed by a fresh Arena sized for an
// expected row/DOF-width budget; both grow past the hint if needed.
func NewGroup(expectedRows, expectedWidth int) *Group {
	return &Group{Arena: NewArena(expectedRows, expectedWidth)}
}

// Reset clears the group for reuse this step.
func (g *Group) Reset() {
	g.Arena.Reset()
	g.Rows = g.Rows[:0]
}

// AddRow builds and appends one row from a world point, force direction,
// and the two bodies (DOF implementations) it couples — bodyB may be nil
// for a ground/environment row. bias is the row's target relative
// velocity (0 for a plain bilateral hold, -e*closingSpeed for a
// restitution-augmented contact normal, a position-error term at the
// position-solve level).
func AddRow(g *Group, bodyA body.DOF, partA body.PartIndex, handleA body.Handle,
	bodyB body.DOF, partB body.PartIndex, handleB body.Handle,
	point lin.V3, dir body.ForceDirection, bounds RowBounds, bias float64) *Row {

	g.Rows = append(g.Rows, Row{BodyA: handleA, PartA: partA, BodyB: handleB, PartB: partB, Bounds: bounds, Bias: bias})
	row := &g.Rows[len(g.Rows)-1]

	var invR float64
	widthA := bodyA.StatusDependentNDofs()
	row.JA, row.WJA = g.Arena.Alloc(widthA), g.Arena.Alloc(widthA)
	bodyA.FillConstraintGeometry(partA, point, dir, body.RowGeometry{J: row.JA, WJ: row.WJA, InvR: &invR})

	if bodyB != nil {
		widthB := bodyB.StatusDependentNDofs()
		row.JB, row.WJB = g.Arena.Alloc(widthB), g.Arena.Alloc(widthB)
		negDir := dir
		negDir.Axis = lin.V3{X: -dir.Axis.X, Y: -dir.Axis.Y, Z: -dir.Axis.Z}
		bodyB.FillConstraintGeometry(partB, point, negDir, body.RowGeometry{J: row.JB, WJ: row.WJB, InvR: &invR})
	}

	row.InvEffectiveMass = invR
	return row
}

// RelativeVelocity reads the row's current relative velocity by projecting
// each side's generalized velocity onto its Jacobian — used both to seed
// Bias (restitution) and inside the solver's residual computation.
func (r *Row) RelativeVelocity(bodyA, bodyB body.DOF) float64 {
	v := dot(r.JA, bodyA.GeneralizedVelocity())
	if bodyB != nil {
		v += dot(r.JB, bodyB.GeneralizedVelocity())
	}
	return v
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
