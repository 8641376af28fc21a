// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package solve

import (
	"testing"

	"github.com/gazed/dynamics/assemble"
	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/math/lin"
)

// sinkingContact is a minimal assemble.PositionGenerator standing in for a
// collide.Manifold: it reports a fixed penetration depth along +Y between
// a body and the ground.
type sinkingContact struct {
	body  body.Handle
	depth float64
}

func (c *sinkingContact) AssemblePosition(g *assemble.Group, set *body.Set, erp, maxCorrection float64) {
	dof := set.Get(c.body)
	bias := -c.depth * erp
	if bias < -maxCorrection {
		bias = -maxCorrection
	}
	dir := body.LinearDir(lin.V3{X: 0, Y: 1, Z: 0})
	assemble.AddRow(g, dof, 0, c.body, nil, 0, body.Ground, lin.V3{}, dir, assemble.NonNegative(), bias)
}

func TestPositionPassRemovesPenetration(t *testing.T) {
	set := body.NewSet()
	rb := body.NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})
	h := set.Add(rb)
	before := rb.World().Loc.Y

	contact := &sinkingContact{body: h, depth: 0.1}
	params := PositionParams{MaxIterations: 4, Erp: 0.2, MaxLinearCorrection: 0.2, MaxStabilizationMultiplier: 0}
	PositionPass(set, []assemble.PositionGenerator{contact}, params)

	after := rb.World().Loc.Y
	if after <= before {
		t.Fatalf("expected position solver to push body upward out of penetration, before=%v after=%v", before, after)
	}
}
