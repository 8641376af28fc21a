// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"testing"

	"github.com/gazed/dynamics/math/lin"
)

func TestNewSetHasGround(t *testing.T) {
	s := NewSet()
	if s.Len() != 1 {
		t.Fatalf("expected 1 body (ground), got %d", s.Len())
	}
	g := s.Get(Ground)
	if g == nil || g.Status() != Static {
		t.Fatalf("ground body should exist and be Static")
	}
}

func TestSetAddAssignsHandles(t *testing.T) {
	s := NewSet()
	h1 := s.Add(NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	h2 := s.Add(NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	if h1 == h2 || h1 == Ground || h2 == Ground {
		t.Fatalf("expected distinct non-ground handles, got %v %v", h1, h2)
	}
	if s.AsRigid(h1) == nil {
		t.Fatalf("expected AsRigid to resolve handle %v", h1)
	}
}

func TestSetRemoveCannotRemoveGround(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic removing ground")
		}
	}()
	s := NewSet()
	s.Remove(Ground)
}

func TestAssignCompanionsSkipsStatic(t *testing.T) {
	s := NewSet()
	dynamic := s.Add(NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1}))
	static := s.Add(NewRigidBody(0, lin.V3{}))

	width := s.AssignCompanions()
	if width != 6 {
		t.Fatalf("expected width 6 (one dynamic rigid body), got %d", width)
	}
	if s.Get(dynamic).Companion() != 0 {
		t.Fatalf("expected dynamic body companion 0, got %d", s.Get(dynamic).Companion())
	}
	if s.Get(static).Companion() != -1 {
		t.Fatalf("expected static body companion -1, got %d", s.Get(static).Companion())
	}
	if s.Get(Ground).Companion() != -1 {
		t.Fatalf("expected ground companion -1, got %d", s.Get(Ground).Companion())
	}
}

func TestSetEachStableOrder(t *testing.T) {
	s := NewSet()
	var handles []Handle
	for i := 0; i < 3; i++ {
		handles = append(handles, s.Add(NewRigidBody(1, lin.V3{X: 1, Y: 1, Z: 1})))
	}
	var seen []Handle
	s.Each(func(h Handle, d DOF) { seen = append(seen, h) })
	if len(seen) != 4 { // ground + 3.
		t.Fatalf("expected 4 bodies visited, got %d", len(seen))
	}
	if seen[0] != Ground {
		t.Fatalf("expected ground visited first, got %v", seen[0])
	}
	for i, h := range handles {
		if seen[i+1] != h {
			t.Fatalf("expected stable insertion order at index %d", i)
		}
	}
}
