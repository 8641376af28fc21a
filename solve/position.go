// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package solve

import (
	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
)

// PositionParams bundles the non-linear position solver's tunables, the
// fields spec.md §6 lists under "Integration parameters" that this phase
// actually consumes.
type PositionParams struct {
	MaxIterations              int
	Erp                        float64
	MaxLinearCorrection        float64
	MaxStabilizationMultiplier float64 // hard cap on r = 1/invR.
}

// PositionPass runs the non-linear position-level SOR-Prox sweep (spec.md
// §4.5): each iteration re-derives every generator's rows at the *current*
// configuration (positions already reflect prior iterations' corrections
// within this same pass), then applies each row's correction immediately
// as a displacement so later rows in the same iteration see it. Unlike
// the velocity pass, rows are not warm-started across iterations or
// steps: a position row starts this iteration with Impulse 0 every time.
func PositionPass(set *body.Set, generators []assemble.PositionGenerator, params PositionParams) {
	g := assemble.NewGroup(len(generators)*2, 6)
	for iter := 0; iter < params.MaxIterations; iter++ {
		g.Reset()
		for _, gen := range generators {
			gen.AssemblePosition(g, set, params.Erp, params.MaxLinearCorrection)
		}
		for i := range g.Rows {
			solvePositionRow(&g.Rows[i], set, params.MaxStabilizationMultiplier)
		}
	}
}

// solvePositionRow computes impulse = -rhs·r (rhs already carries the
// clamped, erp-scaled drift as Row.Bias, matching assemble.AddRow's bias
// parameter) and applies it as a one-shot displacement to both bodies.
func solvePositionRow(r *assemble.Row, set *body.Set, maxStabilizationMultiplier float64) {
	if r.InvEffectiveMass <= 0 {
		return
	}
	compliance := 1 / r.InvEffectiveMass
	if maxStabilizationMultiplier > 0 && compliance > maxStabilizationMultiplier {
		compliance = maxStabilizationMultiplier
	}
	// On a unilateral row, rhs >= 0 means no residual penetration to
	// correct; a bilateral row is corrected in either direction.
	if r.Bias >= 0 && r.Bounds.Lo >= 0 {
		return
	}
	impulse := -r.Bias * compliance

	bodyA := set.Get(r.BodyA)
	applyDisplacement(bodyA, r.WJA, impulse)
	if r.JB != nil {
		bodyB := set.Get(r.BodyB)
		applyDisplacement(bodyB, r.WJB, impulse)
	}
}

func applyDisplacement(d body.DOF, wj []float64, impulse float64) {
	delta := make([]float64, len(wj))
	for i := range wj {
		delta[i] = impulse * wj[i]
	}
	d.ApplyDisplacement(delta)
}
