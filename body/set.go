// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"github.com/cpmech/gosl/chk"

	"github.com/gazed/dynamics/math/lin"
)

// Set owns the lifecycle of every body in a simulation: handle
// allocation, removal, companion-id assignment for the current step, and
// typed access back to the concrete body behind a DOF. Modeled on
// physics/body.go's pairID-style handle bookkeeping, generalized from a
// single rigid-body slice to a handle-indexed table of heterogeneous DOFs.
type Set struct {
	bodies  map[Handle]DOF
	next    Handle
	ordered []Handle // insertion order, iterated deterministically by Step.
}

// NewSet creates an empty set preloaded with the immovable Ground body.
func NewSet() *Set {
	s := &Set{bodies: make(map[Handle]DOF), next: Ground + 1}
	ground := NewRigidBody(0, lin.V3{})
	ground.handle = Ground
	ground.status = Static
	s.bodies[Ground] = ground
	s.ordered = append(s.ordered, Ground)
	return s
}

// Add registers a body and returns its handle. The Set takes ownership of
// companion-id assignment; callers must not assign one themselves.
func (s *Set) Add(d DOF) Handle {
	h := s.next
	s.next++
	switch b := d.(type) {
	case *RigidBody:
		b.handle = h
	case *Multibody:
		b.handle = h
	case *ParticleSystem:
		b.handle = h
	case *FemVolume:
		b.handle = h
	}
	s.bodies[h] = d
	s.ordered = append(s.ordered, h)
	return h
}

// Remove drops a body from the set. The ground body cannot be removed.
func (s *Set) Remove(h Handle) {
	if h == Ground {
		chk.Panic("cannot remove the ground body")
	}
	if _, ok := s.bodies[h]; !ok {
		return
	}
	delete(s.bodies, h)
	for i, oh := range s.ordered {
		if oh == h {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
}

// Get returns the DOF behind a handle, or nil if it has been removed.
func (s *Set) Get(h Handle) DOF { return s.bodies[h] }

// Len returns the number of live bodies, including ground.
func (s *Set) Len() int { return len(s.ordered) }

// Each visits every live body in stable insertion order.
func (s *Set) Each(fn func(Handle, DOF)) {
	for _, h := range s.ordered {
		fn(h, s.bodies[h])
	}
}

// AssignCompanions walks the set and assigns each status-dependent DOF a
// contiguous base offset into the global generalized-velocity vector for
// this step, in the same order Each iterates. Returns the total width of
// that vector. Ground and any Static/Disabled body get companion -1 and
// contribute zero width, mirroring the teacher's sentinel "no solver
// body" convention for static colliders in physics/solver.go.
func (s *Set) AssignCompanions() int {
	offset := 0
	for _, h := range s.ordered {
		d := s.bodies[h]
		n := d.StatusDependentNDofs()
		if n == 0 {
			d.SetCompanion(-1)
			continue
		}
		d.SetCompanion(offset)
		offset += n
	}
	return offset
}

// AsRigid downcasts a handle to its concrete *RigidBody, or nil if the
// handle does not name a rigid body. Used only where rigid-specific
// fields (shape, material) are needed outside the DOF contract.
func (s *Set) AsRigid(h Handle) *RigidBody {
	if r, ok := s.bodies[h].(*RigidBody); ok {
		return r
	}
	return nil
}

// AsMultibody downcasts a handle to its concrete *Multibody.
func (s *Set) AsMultibody(h Handle) *Multibody {
	if m, ok := s.bodies[h].(*Multibody); ok {
		return m
	}
	return nil
}

// AsParticleSystem downcasts a handle to its concrete *ParticleSystem.
func (s *Set) AsParticleSystem(h Handle) *ParticleSystem {
	if p, ok := s.bodies[h].(*ParticleSystem); ok {
		return p
	}
	return nil
}

// AsFemVolume downcasts a handle to its concrete *FemVolume.
func (s *Set) AsFemVolume(h Handle) *FemVolume {
	if f, ok := s.bodies[h].(*FemVolume); ok {
		return f
	}
	return nil
}
