// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package assemble

import "testing"

func TestArenaAllocZeroed(t *testing.T) {
	a := NewArena(4, 6)
	s := a.Alloc(6)
	for i, v := range s {
		if v != 0 {
			t.Fatalf("expected zeroed slice at %d, got %v", i, v)
		}
	}
}

func TestArenaAllocDistinctSlices(t *testing.T) {
	a := NewArena(2, 3)
	s1 := a.Alloc(3)
	s2 := a.Alloc(3)
	s1[0] = 1
	if s2[0] == 1 {
		t.Fatalf("expected distinct non-overlapping allocations")
	}
}

func TestArenaResetReusesBacking(t *testing.T) {
	a := NewArena(2, 3)
	s1 := a.Alloc(3)
	s1[0] = 5
	a.Reset()
	s2 := a.Alloc(3)
	if s2[0] != 0 {
		t.Fatalf("expected Alloc after Reset to return a zeroed slice, got %v", s2[0])
	}
}

func TestArenaGrowsPastHint(t *testing.T) {
	a := NewArena(1, 1)
	s := a.Alloc(100)
	if len(s) != 100 {
		t.Fatalf("expected slice of length 100, got %d", len(s))
	}
}
