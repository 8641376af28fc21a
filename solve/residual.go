// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package solve

// Residual is an optional convergence estimate for the last sweep,
// Σ (r·δ)² over every row, mirroring original_source/src/solver/sor_prox.rs's
// tracking of its last sweep's correction magnitude. spec.md §7 notes
// callers that need a residual estimate "may query" one; nothing in the
// core requires it, so VelocityPass simply returns it alongside its
// side effects rather than threading it through every call site.
type Residual struct {
	SumSquares float64
	Rows       int
}

// Accumulate folds one row's (r·δ) term into the running residual. invR
// is the row's J^T M^-1 J (so r = 1/invR); delta is the row's relative
// velocity this pass.
func (res *Residual) Accumulate(invR, delta float64) {
	if invR <= 0 {
		return
	}
	rDelta := delta / invR
	res.SumSquares += rDelta * rDelta
	res.Rows++
}
