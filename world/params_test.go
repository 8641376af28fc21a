// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package world

import "testing"

func TestDefaultParamsAreSane(t *testing.T) {
	p := DefaultParams()
	if p.Dt <= 0 {
		t.Fatalf("expected positive dt, got %v", p.Dt)
	}
	if p.MaxVelocityIterations <= 0 || p.MaxPositionIterations <= 0 {
		t.Fatalf("expected positive iteration counts, got velocity=%d position=%d",
			p.MaxVelocityIterations, p.MaxPositionIterations)
	}
	if p.Erp <= 0 || p.Erp > 1 {
		t.Fatalf("expected erp in (0,1], got %v", p.Erp)
	}
	if p.Gravity.Y >= 0 {
		t.Fatalf("expected downward gravity, got %v", p.Gravity.Y)
	}
}
