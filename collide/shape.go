// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package collide is the collision-detection collaborator spec.md §6
// describes as external to the core: shapes, materials, broad and
// narrow phase, and the contact manifolds the solver consumes. Narrow
// phase is simplified to sphere and box primitives, adapted from the
// teacher's physics/collider.go (which builds general convex hulls via
// GJK/EPA) — sufficient to drive contacts without reintroducing that
// generality, per spec.md's "shape representation ... out of scope".
package collide

import (
	"math"

	"github.com/gazed/dynamics/math/lin"
)

// ShapeKind discriminates the primitives a Collider can carry. Unlike
// physics/collider.go's collider_Type, there is no convex-hull variant:
// spec.md places general shape representation out of scope, so collide
// only needs enough geometry to produce plausible manifolds for the
// scenarios in spec.md §8.
type ShapeKind uint8

const (
	Sphere ShapeKind = iota
	Box
)

// Shape is the rigid collision geometry attached to a collider, local to
// the body part it is parented to. Mirrors collider_Sphere/the convex
// hull's half-extent case in physics/collider.go, trimmed to the two
// primitives collide supports.
type Shape struct {
	Kind ShapeKind

	Radius      float64 // Sphere.
	HalfExtents lin.V3  // Box.
}

// NewSphereShape builds a sphere shape, grounded on
// collider_sphere_create in physics/collider.go.
func NewSphereShape(radius float64) Shape {
	return Shape{Kind: Sphere, Radius: radius}
}

// NewBoxShape builds an axis-aligned (in local space) box shape.
func NewBoxShape(halfExtents lin.V3) Shape {
	return Shape{Kind: Box, HalfExtents: halfExtents}
}

// BoundingRadius returns the shape's bounding-sphere radius about its
// local origin, grounded on get_sphere_collider_bounding_sphere_radius /
// get_convex_hull_collider_bounding_sphere_radius in physics/collider.go.
func (s Shape) BoundingRadius() float64 {
	switch s.Kind {
	case Sphere:
		return s.Radius
	case Box:
		return s.HalfExtents.Len()
	}
	return 0
}

// DeformationsType identifies the layout a DeformableShape's node buffer
// uses. spec.md §6 requires this to match the owning body's own
// reported layout ("both 'vector of node positions'"); collide only
// ever produces Positions3 buffers since body.FemVolume stores flat
// world positions per node.
type DeformationsType uint8

const (
	Positions3 DeformationsType = iota
)

// DeformableShape is the collision geometry for an FEM collider: a
// triangulated surface over a subset of the volume's nodes, whose
// positions are supplied by reference every step rather than copied.
// Mirrors spec.md §6's "the flat positions buffer is handed to the
// collision world by reference."
type DeformableShape struct {
	// SurfaceNodes indexes into the owning FemVolume's node array, one
	// entry per collision-surface vertex.
	SurfaceNodes []int
	// Triangles groups SurfaceNodes indices (not node indices) into
	// collision triangles, three per triangle.
	Triangles []int
	// Positions is set every step by the owner to point at the FEM
	// volume's flat node-position buffer; collide reads it, never owns
	// or copies it.
	Positions []lin.V3
}

// DeformationsType reports the buffer layout, matching spec.md §6.
func (DeformableShape) DeformationsType() DeformationsType { return Positions3 }

// Material carries the contact-response coefficients spec.md §6
// describes: friction and restitution are read by the narrow phase (to
// stamp onto the manifold) and by callers building friction-bilateral
// limits from the manifold's normal impulse; collide itself never
// interprets them further.
type Material struct {
	Friction    float64
	Restitution float64
}

// DefaultMaterial mirrors the teacher's implicit default of "no
// bounce, moderate grip" used throughout physics/pbd.go's demo bodies.
func DefaultMaterial() Material {
	return Material{Friction: 0.5, Restitution: 0.0}
}

// CombineFriction and CombineRestitution apply the usual geometric-mean
// / max combination rules, kept as free functions so world can use them
// when stamping manifolds without collide needing a persistent pair
// table.
func CombineFriction(a, b Material) float64 {
	product := a.Friction * b.Friction
	if product <= 0 {
		return 0
	}
	return math.Sqrt(product)
}

func CombineRestitution(a, b Material) float64 {
	if a.Restitution > b.Restitution {
		return a.Restitution
	}
	return b.Restitution
}
