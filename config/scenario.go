// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package config reads a simulation scenario from a YAML document, the
// way load/shd.go reads a shader description: an internal tagged struct
// absorbs the document, each string field is resolved against a lookup
// map or a constructor, and a plain Go value is handed back. A scenario
// lists the rigid/particle/FEM bodies, joints, and colliders that
// populate a world.World, plus the world.Params to run it with.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gazed/dynamics/body"
	"github.com/gazed/dynamics/collide"
	"github.com/gazed/dynamics/joint"
	"github.com/gazed/dynamics/math/lin"
	"github.com/gazed/dynamics/world"
)

var jointKinds = map[string]joint.Kind{
	"ball":        joint.Ball,
	"revolute":    joint.Revolute,
	"prismatic":   joint.Prismatic,
	"fixed":       joint.Fixed,
	"planar":      joint.Planar,
	"cartesian":   joint.Cartesian,
	"cylindrical": joint.Cylindrical,
}

var shapeKinds = map[string]collide.ShapeKind{
	"sphere": collide.Sphere,
	"box":    collide.Box,
}

// Descriptor is a fully resolved scenario, ready to populate a
// world.World via Build.
type Descriptor struct {
	Params    world.Params
	Rigids    []RigidDescriptor
	Chains    []ChainDescriptor
	Volumes   []VolumeDescriptor
	Joints    []JointDescriptor
	Colliders []ColliderDescriptor
}

// RigidDescriptor describes one rigid body: a mass, a diagonal local
// inertia, and its initial world transform.
type RigidDescriptor struct {
	Name         string
	Mass         float64
	LocalInertia lin.V3
	Position     lin.V3
}

// ChainDescriptor describes one particle system strung together by
// distance constraints between consecutive nodes, the way the
// scenario-format node lists in nphysics demos lay out cloth/rope.
type ChainDescriptor struct {
	Name      string
	Positions []lin.V3
	Masses    []float64
	Rest      float64
	// Stiffness: YAML's `.inf` literal selects an exact bilateral hold;
	// any finite value is a compliant constraint (see body.DistanceConstraint).
	Stiffness float64
}

// VolumeDescriptor describes one FEM volume by its node/tetrahedron mesh
// and material constants.
type VolumeDescriptor struct {
	Name     string
	Nodes    []lin.V3
	Tets     [][4]int
	Density  float64
	Young    float64
	Poisson  float64
}

// JointDescriptor couples two named bodies (or "ground") with a
// bilateral constraint.
type JointDescriptor struct {
	Kind                       string
	BodyA, BodyB               string
	PartA, PartB               int
	LocalAnchorA, LocalAnchorB lin.V3
	Axis                       lin.V3
	Erp                        float64
}

// ColliderDescriptor attaches a collision shape to a named body part.
type ColliderDescriptor struct {
	Body        string
	Part        int
	Shape       string
	Radius      float64
	HalfExtents lin.V3
	Friction    float64
	Restitution float64
	LocalOffset lin.V3
}

// Load parses a scenario YAML document into a Descriptor. Numeric fields
// left unset in the document default to world.DefaultParams()'s values,
// the same "zero value means default" convention shd.go's cfg.Render
// uses for optional flags.
func Load(data []byte) (Descriptor, error) {
	var doc scenarioDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Descriptor{}, fmt.Errorf("config: yaml: %w", err)
	}
	return doc.resolve()
}

// scenarioDoc mirrors shaderConfig's role: a yaml-tagged shadow of
// Descriptor using plain float64 triples instead of lin.V3, since
// lin.V3 carries no yaml tags of its own.
type scenarioDoc struct {
	Params struct {
		Dt                         float64 `yaml:"dt"`
		VelocityIterations         int     `yaml:"velocity_iterations"`
		PositionIterations         int     `yaml:"position_iterations"`
		Erp                        float64 `yaml:"erp"`
		AllowedLinearError         float64 `yaml:"allowed_linear_error"`
		AllowedAngularError        float64 `yaml:"allowed_angular_error"`
		MaxLinearCorrection        float64 `yaml:"max_linear_correction"`
		MaxAngularCorrection       float64 `yaml:"max_angular_correction"`
		MaxStabilizationMultiplier float64 `yaml:"max_stabilization_multiplier"`
		Gravity                    vec3doc `yaml:"gravity"`
	} `yaml:"params"`

	Rigids []struct {
		Name         string  `yaml:"name"`
		Mass         float64 `yaml:"mass"`
		LocalInertia vec3doc `yaml:"local_inertia"`
		Position     vec3doc `yaml:"position"`
	} `yaml:"rigids"`

	Chains []struct {
		Name      string    `yaml:"name"`
		Positions []vec3doc `yaml:"positions"`
		Mass      float64   `yaml:"mass"`
		Rest      float64   `yaml:"rest"`
		Stiffness float64   `yaml:"stiffness"`
	} `yaml:"chains"`

	Volumes []struct {
		Name    string    `yaml:"name"`
		Nodes   []vec3doc `yaml:"nodes"`
		Tets    [][4]int  `yaml:"tets"`
		Density float64   `yaml:"density"`
		Young   float64   `yaml:"young"`
		Poisson float64   `yaml:"poisson"`
	} `yaml:"volumes"`

	Joints []struct {
		Kind         string  `yaml:"kind"`
		BodyA        string  `yaml:"body_a"`
		BodyB        string  `yaml:"body_b"`
		PartA        int     `yaml:"part_a"`
		PartB        int     `yaml:"part_b"`
		LocalAnchorA vec3doc `yaml:"local_anchor_a"`
		LocalAnchorB vec3doc `yaml:"local_anchor_b"`
		Axis         vec3doc `yaml:"axis"`
		Erp          float64 `yaml:"erp"`
	} `yaml:"joints"`

	Colliders []struct {
		Body        string  `yaml:"body"`
		Part        int     `yaml:"part"`
		Shape       string  `yaml:"shape"`
		Radius      float64 `yaml:"radius"`
		HalfExtents vec3doc `yaml:"half_extents"`
		Friction    float64 `yaml:"friction"`
		Restitution float64 `yaml:"restitution"`
		LocalOffset vec3doc `yaml:"local_offset"`
	} `yaml:"colliders"`
}

// vec3doc is the yaml-tagged {x, y, z} mapping every position/axis/extent
// field in the document uses.
type vec3doc struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v vec3doc) toV3() lin.V3 { return lin.V3{X: v.X, Y: v.Y, Z: v.Z} }

func (doc *scenarioDoc) resolve() (Descriptor, error) {
	d := Descriptor{Params: world.DefaultParams()}

	if doc.Params.Dt > 0 {
		d.Params.Dt = doc.Params.Dt
	}
	if doc.Params.VelocityIterations > 0 {
		d.Params.MaxVelocityIterations = doc.Params.VelocityIterations
	}
	if doc.Params.PositionIterations > 0 {
		d.Params.MaxPositionIterations = doc.Params.PositionIterations
	}
	if doc.Params.Erp > 0 {
		d.Params.Erp = doc.Params.Erp
	}
	if doc.Params.AllowedLinearError > 0 {
		d.Params.AllowedLinearError = doc.Params.AllowedLinearError
	}
	if doc.Params.AllowedAngularError > 0 {
		d.Params.AllowedAngularError = doc.Params.AllowedAngularError
	}
	if doc.Params.MaxLinearCorrection > 0 {
		d.Params.MaxLinearCorrection = doc.Params.MaxLinearCorrection
	}
	if doc.Params.MaxAngularCorrection > 0 {
		d.Params.MaxAngularCorrection = doc.Params.MaxAngularCorrection
	}
	if doc.Params.MaxStabilizationMultiplier > 0 {
		d.Params.MaxStabilizationMultiplier = doc.Params.MaxStabilizationMultiplier
	}
	if doc.Params.Gravity != (vec3doc{}) {
		d.Params.Gravity = doc.Params.Gravity.toV3()
	}

	for _, r := range doc.Rigids {
		if r.Name == "" {
			return Descriptor{}, fmt.Errorf("config: rigid body missing a name")
		}
		d.Rigids = append(d.Rigids, RigidDescriptor{
			Name:         r.Name,
			Mass:         r.Mass,
			LocalInertia: r.LocalInertia.toV3(),
			Position:     r.Position.toV3(),
		})
	}

	for _, c := range doc.Chains {
		if c.Name == "" {
			return Descriptor{}, fmt.Errorf("config: chain missing a name")
		}
		positions := make([]lin.V3, len(c.Positions))
		masses := make([]float64, len(c.Positions))
		for i, p := range c.Positions {
			positions[i] = p.toV3()
			masses[i] = c.Mass
		}
		d.Chains = append(d.Chains, ChainDescriptor{
			Name:      c.Name,
			Positions: positions,
			Masses:    masses,
			Rest:      c.Rest,
			Stiffness: c.Stiffness,
		})
	}

	for _, v := range doc.Volumes {
		if v.Name == "" {
			return Descriptor{}, fmt.Errorf("config: volume missing a name")
		}
		nodes := make([]lin.V3, len(v.Nodes))
		for i, n := range v.Nodes {
			nodes[i] = n.toV3()
		}
		d.Volumes = append(d.Volumes, VolumeDescriptor{
			Name:    v.Name,
			Nodes:   nodes,
			Tets:    v.Tets,
			Density: v.Density,
			Young:   v.Young,
			Poisson: v.Poisson,
		})
	}

	for _, j := range doc.Joints {
		if _, ok := jointKinds[j.Kind]; !ok {
			return Descriptor{}, fmt.Errorf("config: unsupported joint kind %q", j.Kind)
		}
		d.Joints = append(d.Joints, JointDescriptor{
			Kind:         j.Kind,
			BodyA:        j.BodyA,
			BodyB:        j.BodyB,
			PartA:        j.PartA,
			PartB:        j.PartB,
			LocalAnchorA: j.LocalAnchorA.toV3(),
			LocalAnchorB: j.LocalAnchorB.toV3(),
			Axis:         j.Axis.toV3(),
			Erp:          j.Erp,
		})
	}

	for _, c := range doc.Colliders {
		if _, ok := shapeKinds[c.Shape]; !ok {
			return Descriptor{}, fmt.Errorf("config: unsupported collider shape %q", c.Shape)
		}
		d.Colliders = append(d.Colliders, ColliderDescriptor{
			Body:        c.Body,
			Part:        c.Part,
			Shape:       c.Shape,
			Radius:      c.Radius,
			HalfExtents: c.HalfExtents.toV3(),
			Friction:    c.Friction,
			Restitution: c.Restitution,
			LocalOffset: c.LocalOffset.toV3(),
		})
	}

	return d, nil
}

// Build populates a fresh world.World from the descriptor and returns the
// name-to-handle map every joint/collider entry was resolved against, so
// callers can look up a body's handle after loading (e.g. to attach a
// camera or print its position).
func Build(d Descriptor) (*world.World, map[string]body.Handle, error) {
	w := world.New(d.Params)
	handles := map[string]body.Handle{"ground": body.Ground}

	for _, r := range d.Rigids {
		rb := body.NewRigidBody(r.Mass, r.LocalInertia)
		t := lin.NewT()
		t.Loc.X, t.Loc.Y, t.Loc.Z = r.Position.X, r.Position.Y, r.Position.Z
		rb.SetWorld(t)
		handles[r.Name] = w.Bodies().Add(rb)
	}

	for _, c := range d.Chains {
		ps := body.NewParticleSystem(c.Positions, c.Masses)
		for i := 0; i < len(c.Positions)-1; i++ {
			ps.Constraints = append(ps.Constraints, body.DistanceConstraint{
				A: i, B: i + 1, Rest: c.Rest, Stiffness: c.Stiffness,
			})
		}
		handles[c.Name] = w.Bodies().Add(ps)
	}

	for _, v := range d.Volumes {
		fv := body.NewFemVolume(v.Nodes, v.Tets, v.Density, v.Young, v.Poisson)
		handles[v.Name] = w.Bodies().Add(fv)
	}

	for _, jd := range d.Joints {
		ha, ok := handles[jd.BodyA]
		if !ok {
			return nil, nil, fmt.Errorf("config: joint references unknown body %q", jd.BodyA)
		}
		hb, ok := handles[jd.BodyB]
		if !ok {
			return nil, nil, fmt.Errorf("config: joint references unknown body %q", jd.BodyB)
		}
		w.AddJoint(&joint.Joint{
			Kind:         jointKinds[jd.Kind],
			BodyA:        ha,
			BodyB:        hb,
			PartA:        body.PartIndex(jd.PartA),
			PartB:        body.PartIndex(jd.PartB),
			LocalAnchorA: jd.LocalAnchorA,
			LocalAnchorB: jd.LocalAnchorB,
			Axis:         jd.Axis,
			Erp:          jd.Erp,
		})
	}

	for _, cd := range d.Colliders {
		h, ok := handles[cd.Body]
		if !ok {
			return nil, nil, fmt.Errorf("config: collider references unknown body %q", cd.Body)
		}
		var shape collide.Shape
		switch shapeKinds[cd.Shape] {
		case collide.Sphere:
			shape = collide.NewSphereShape(cd.Radius)
		case collide.Box:
			shape = collide.NewBoxShape(cd.HalfExtents)
		}
		mat := collide.Material{Friction: cd.Friction, Restitution: cd.Restitution}
		if mat == (collide.Material{}) {
			mat = collide.DefaultMaterial()
		}
		collider := collide.NewCollider(w.Bodies(), h, body.PartIndex(cd.Part), shape, mat)
		collider.LocalOffset = cd.LocalOffset
		w.AddCollider(collider)
	}

	return w, handles, nil
}
