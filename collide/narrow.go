// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package collide

import "github.com/gazed/dynamics/math/lin"

// narrowPhase produces at most one contact between two colliders whose
// bounding spheres already overlap (broadPhase's job). Box colliders are
// treated as world-axis-aligned for this test — physics/collider.go
// avoids this by transforming hull vertices into world space every
// step; collide keeps that simplification only for sphere orientation
// (a sphere has none) and otherwise ignores collider rotation for
// boxes, a documented narrowing of the teacher's general convex-hull
// narrow phase down to the two primitives spec.md's scenarios need.
func narrowPhase(a, b *Collider) (Contact, bool) {
	switch {
	case a.Shape.Kind == Sphere && b.Shape.Kind == Sphere:
		return sphereSphere(a, b)
	case a.Shape.Kind == Sphere && b.Shape.Kind == Box:
		return sphereBox(a, b)
	case a.Shape.Kind == Box && b.Shape.Kind == Sphere:
		c, ok := sphereBox(b, a)
		if !ok {
			return Contact{}, false
		}
		return flip(c), true
	case a.Shape.Kind == Box && b.Shape.Kind == Box:
		return boxBox(a, b)
	}
	return Contact{}, false
}

// sphereSphere is the analytic case collider_get_contacts special-cases
// in physics/collider.go ("calling EPA is not only extremely slow, but
// also provide bad results... just calculate everything analytically").
func sphereSphere(a, b *Collider) (Contact, bool) {
	d := lin.NewV3().Sub(&a.worldCenter, &b.worldCenter)
	dist := d.Len()
	reach := a.Shape.Radius + b.Shape.Radius
	if dist >= reach {
		return Contact{}, false
	}
	var normal lin.V3
	if dist > 1e-9 {
		normal = *d.Unit()
	} else {
		normal = lin.V3{X: 0, Y: 1, Z: 0}
	}
	depth := reach - dist
	pointOnA := lin.V3{
		X: a.worldCenter.X - normal.X*a.Shape.Radius,
		Y: a.worldCenter.Y - normal.Y*a.Shape.Radius,
		Z: a.worldCenter.Z - normal.Z*a.Shape.Radius,
	}
	pointOnB := lin.V3{
		X: b.worldCenter.X + normal.X*b.Shape.Radius,
		Y: b.worldCenter.Y + normal.Y*b.Shape.Radius,
		Z: b.worldCenter.Z + normal.Z*b.Shape.Radius,
	}
	return makeContact(a, b, pointOnA, pointOnB, normal, depth), true
}

// sphereBox closest-points a sphere center against an axis-aligned box
// and reports a contact if the sphere penetrates the clamped closest
// point, adapted from the same bounding-volume spirit as
// get_convex_hull_collider_bounding_sphere_radius but specialized since
// collide does not carry general hulls.
func sphereBox(s, boxC *Collider) (Contact, bool) {
	min, max := boxC.worldBounds()
	closest := lin.V3{
		X: clamp(s.worldCenter.X, min.X, max.X),
		Y: clamp(s.worldCenter.Y, min.Y, max.Y),
		Z: clamp(s.worldCenter.Z, min.Z, max.Z),
	}
	d := lin.NewV3().Sub(&s.worldCenter, &closest)
	dist := d.Len()
	if dist >= s.Shape.Radius {
		return Contact{}, false
	}
	var normal lin.V3
	if dist > 1e-9 {
		normal = *d.Unit()
	} else {
		normal = lin.V3{X: 0, Y: 1, Z: 0}
	}
	depth := s.Shape.Radius - dist
	pointOnSphere := lin.V3{
		X: s.worldCenter.X - normal.X*s.Shape.Radius,
		Y: s.worldCenter.Y - normal.Y*s.Shape.Radius,
		Z: s.worldCenter.Z - normal.Z*s.Shape.Radius,
	}
	return makeContact(s, boxC, pointOnSphere, closest, normal, depth), true
}

// boxBox is an AABB overlap test along the axis of least penetration,
// the simplest member of the family physics/collider.go's SAT-based
// clipping.go generalizes; sufficient for axis-aligned stacking
// scenarios (spec.md S1/S4) without a full separating-axis sweep over
// rotated boxes.
func boxBox(a, b *Collider) (Contact, bool) {
	aMin, aMax := a.worldBounds()
	bMin, bMax := b.worldBounds()

	overlapX := overlap1D(aMin.X, aMax.X, bMin.X, bMax.X)
	overlapY := overlap1D(aMin.Y, aMax.Y, bMin.Y, bMax.Y)
	overlapZ := overlap1D(aMin.Z, aMax.Z, bMin.Z, bMax.Z)
	if overlapX <= 0 || overlapY <= 0 || overlapZ <= 0 {
		return Contact{}, false
	}

	normal := lin.V3{}
	depth := overlapX
	normal.X = sign(a.worldCenter.X - b.worldCenter.X)
	if overlapY < depth {
		depth = overlapY
		normal = lin.V3{Y: sign(a.worldCenter.Y - b.worldCenter.Y)}
	}
	if overlapZ < depth {
		depth = overlapZ
		normal = lin.V3{Z: sign(a.worldCenter.Z - b.worldCenter.Z)}
	}

	mid := lin.V3{
		X: 0.5 * (a.worldCenter.X + b.worldCenter.X),
		Y: 0.5 * (a.worldCenter.Y + b.worldCenter.Y),
		Z: 0.5 * (a.worldCenter.Z + b.worldCenter.Z),
	}
	return makeContact(a, b, mid, mid, normal, depth), true
}

func makeContact(a, b *Collider, pointOnA, pointOnB, normal lin.V3, depth float64) Contact {
	localA, _ := a.dof.MaterialPointAtWorldPoint(a.Part, pointOnA)
	localB, _ := b.dof.MaterialPointAtWorldPoint(b.Part, pointOnB)
	return Contact{
		Kinematic: ContactKinematic{LocalA: localA, LocalB: localB, LocalNormalA: normal},
		NormalA:   normal,
		NormalB:   lin.V3{X: -normal.X, Y: -normal.Y, Z: -normal.Z},
		Depth:     depth,
		PartA:     a.Part,
		PartB:     b.Part,
	}
}

func flip(c Contact) Contact {
	c.Kinematic.LocalA, c.Kinematic.LocalB = c.Kinematic.LocalB, c.Kinematic.LocalA
	c.NormalA, c.NormalB = c.NormalB, c.NormalA
	c.PartA, c.PartB = c.PartB, c.PartA
	return c
}

func overlap1D(aMin, aMax, bMin, bMax float64) float64 {
	lo := aMax
	if bMax < lo {
		lo = bMax
	}
	hi := aMin
	if bMin > hi {
		hi = bMin
	}
	return lo - hi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
