// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package world

import "github.com/gazed/dynamics/math/lin"

// Params bundles the per-step tunables spec.md §6 lists under
// "Integration parameters", grounded on
// original_source/src/solver/IntegrationParameters (referenced
// throughout sor_prox.rs/nonlinear_sor_prox.rs) and the teacher's own
// hardcoded step constants in physics/physics.go (dt, gravity, fixed
// iteration counts), generalized into a value callers configure once
// per World rather than constants baked into Simulate.
type Params struct {
	Dt float64

	MaxVelocityIterations int
	MaxPositionIterations int

	Erp                        float64 // position error reduction rate, both linear and angular unless overridden below.
	AllowedLinearError         float64
	AllowedAngularError        float64
	MaxLinearCorrection        float64
	MaxAngularCorrection       float64
	MaxStabilizationMultiplier float64

	Gravity lin.V3
}

// DefaultParams mirrors physics/physics.go's constants (60Hz step,
// GRAVITY = 10 m/s² down, one velocity/position iteration) scaled up to
// the iteration counts sor_prox.rs actually sweeps (nphysics defaults to
// several SOR-Prox sweeps per step, not one, since one sweep rarely
// converges a stacked scene).
func DefaultParams() Params {
	return Params{
		Dt:                         1.0 / 60.0,
		MaxVelocityIterations:      10,
		MaxPositionIterations:      4,
		Erp:                        0.2,
		AllowedLinearError:         0.005,
		AllowedAngularError:        0.005,
		MaxLinearCorrection:        0.2,
		MaxAngularCorrection:       0.2,
		MaxStabilizationMultiplier: 100.0,
		Gravity:                    lin.V3{X: 0, Y: -10, Z: 0},
	}
}
