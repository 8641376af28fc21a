// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"

	"github.com/gazed/dynamics/math/lin"
)

// Tet is one co-rotational linear-elastic tetrahedral element of an
// FemVolume.
type Tet struct {
	Nodes         [4]int
	dmInv         *mat.Dense // inverse reference shape matrix, rest frame.
	ke            *mat.Dense // 12x12 rest-frame stiffness.
	Volume        float64
	Rotation      lin.M3
	PlasticStrain [12]float64 // permanent offset in the element's local (unrotated) displacement space.
}

// FemVolume is a deformable tetrahedral mesh advanced with co-rotational
// linear FEM: per element, a Gram-Schmidt polar rotation keeps a
// constant-strain-tetrahedron stiffness valid under large rotations, and
// Rayleigh damping plus an ideal-plasticity cap bound the elastic
// response. Implements spec.md §4.4. Grounded on gofem's element/domain
// split (BookmarkSciencePrrojects-gofem/ele/element.go,
// BookmarkSciencePrrojects-gofem/fem/domain.go) for the assembly
// pattern, and on original_source/src/object/fem_volume.rs and
// fem_helper.rs for the co-rotational/plasticity semantics.
type FemVolume struct {
	handle     Handle
	status     Status
	activation Activation
	companion  int

	restPos []lin.V3
	pos     []lin.V3
	vel     []float64 // flat 3N generalized velocity.
	acc     []float64
	invMass []float64
	density float64 // mass per unit rest volume, shared by every tet.
	prescribed []bool // kinematic (externally driven) nodes.

	tets []Tet

	mu, lambda                       float64
	RayleighMass, RayleighStiffness  float64
	YieldThreshold, Creep, MaxPlastic float64

	augmented *mat.SymDense
	chol      mat.Cholesky
}

// NewFemVolume builds an FemVolume from a tetrahedral mesh and isotropic
// material constants. density is mass per unit rest volume.
func NewFemVolume(nodes []lin.V3, tets [][4]int, density, young, poisson float64) *FemVolume {
	mu, lambda := lameParameters(young, poisson)
	f := &FemVolume{
		restPos:        append([]lin.V3(nil), nodes...),
		pos:            append([]lin.V3(nil), nodes...),
		vel:            make([]float64, 3*len(nodes)),
		acc:            make([]float64, 3*len(nodes)),
		invMass:        make([]float64, len(nodes)),
		density:        density,
		prescribed:     make([]bool, len(nodes)),
		mu:             mu,
		lambda:         lambda,
		status:         Dynamic,
		activation:     DefaultActivation(),
		YieldThreshold: 0.02,
		Creep:          0.3,
		MaxPlastic:     0.1,
	}
	mass := make([]float64, len(nodes))
	for _, idx := range tets {
		rest := [4]lin.V3{nodes[idx[0]], nodes[idx[1]], nodes[idx[2]], nodes[idx[3]]}
		ke, dmInv, vol := elementStiffness(rest, mu, lambda)
		f.tets = append(f.tets, Tet{Nodes: idx, dmInv: dmInv, ke: ke, Volume: vol, Rotation: *lin.NewM3I()})
		share := density * vol / 4
		for _, n := range idx {
			mass[n] += share
		}
	}
	for i, m := range mass {
		if m > 0 {
			f.invMass[i] = 1 / m
		}
	}
	return f
}

// SetPrescribed marks a node as externally driven (kinematic): it
// contributes no columns to the solver and is integrated only from the
// velocity the application has written into it.
func (f *FemVolume) SetPrescribed(node int, yes bool) { f.prescribed[node] = yes }

// Positions returns the volume's live node position buffer, the flat
// "vector of node positions" spec.md §6 says an FEM collider hands to
// the collision world by reference (no copy) every step.
func (f *FemVolume) Positions() []lin.V3 { return f.pos }

func (f *FemVolume) Kind() Kind         { return KindFem }
func (f *FemVolume) Status() Status     { return f.status }
func (f *FemVolume) SetStatus(s Status) { f.status = s }
func (f *FemVolume) NDofs() int         { return len(f.pos) * 3 }

func (f *FemVolume) StatusDependentNDofs() int {
	if f.status == Dynamic || f.status == Kinematic {
		return len(f.pos) * 3
	}
	return 0
}

func (f *FemVolume) Companion() int     { return f.companion }
func (f *FemVolume) SetCompanion(c int) { f.companion = c }

func (f *FemVolume) GeneralizedVelocity() []float64     { return f.vel }
func (f *FemVolume) GeneralizedAcceleration() []float64 { return f.acc }

// Integrate advances node positions explicitly. Prescribed nodes still
// integrate: their velocity is whatever the application last wrote.
func (f *FemVolume) Integrate(dt float64) {
	if f.status != Dynamic && f.status != Kinematic {
		return
	}
	for i := range f.pos {
		f.pos[i].X += f.vel[3*i] * dt
		f.pos[i].Y += f.vel[3*i+1] * dt
		f.pos[i].Z += f.vel[3*i+2] * dt
	}
}

// ApplyDisplacement nudges node positions directly, used by the position
// solver for residual contact/constraint correction.
func (f *FemVolume) ApplyDisplacement(delta []float64) {
	for i := range f.pos {
		f.pos[i].X += delta[3*i]
		f.pos[i].Y += delta[3*i+1]
		f.pos[i].Z += delta[3*i+2]
	}
}

// UpdateKinematics refreshes each element's co-rotational frame from the
// current node positions via Gram-Schmidt polar decomposition.
func (f *FemVolume) UpdateKinematics() {
	for i := range f.tets {
		t := &f.tets[i]
		cur := [4]lin.V3{f.pos[t.Nodes[0]], f.pos[t.Nodes[1]], f.pos[t.Nodes[2]], f.pos[t.Nodes[3]]}
		grad := deformationGradient(cur, t.dmInv)
		t.Rotation = polarRotation(grad)
	}
}

// UpdateDynamics assembles the augmented mass operator
// (1+dt·α)M + dt·(dt+β)K (α = RayleighMass, β = RayleighStiffness), where K is the global co-rotational stiffness
// R_e Ke R_eᵀ scattered to global node indices, and factors it via
// Cholesky. A singular factorization (degenerate/inverted element)
// surfaces as a returned error instead of a panic, per spec.md §7.
func (f *FemVolume) UpdateDynamics(dt float64) error {
	n := 3 * len(f.pos)
	dense := mat.NewDense(n, n, nil)
	massDense := mat.NewDense(n, n, nil)

	// Global stiffness and consistent mass are both scattered element by
	// element straight into dense operators: every tet touches at most 12
	// global DOFs, so there is no sparse intermediate worth the extra
	// bookkeeping (unlike gofem's ele.Element.AddToKb(Kb *la.Triplet,
	// ...), which assembles from thousands of elements sharing far fewer
	// DOFs per element).
	for _, t := range f.tets {
		rBlock := blockRotation(t.Rotation)
		var rKe, rKeRt mat.Dense
		rKe.Mul(rBlock, t.ke)
		rKeRt.Mul(&rKe, rBlock.T())

		for a := 0; a < 4; a++ {
			for b := 0; b < 4; b++ {
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						val := rKeRt.At(a*3+i, b*3+j)
						if val == 0 {
							continue
						}
						gi := t.Nodes[a]*3 + i
						gj := t.Nodes[b]*3 + j
						dense.Set(gi, gj, dense.At(gi, gj)+val)
					}
				}
			}
		}

		// Consistent element mass per spec.md §4.4: m_e = ρV/20, with a
		// 2x weight on each node's own diagonal block and a 1x weight
		// coupling every other node pair in the same tet (the standard
		// linear-tet consistent mass matrix). The mass matrix is rotation
		// invariant here (R (cI) Rᵀ = cI for the uniform per-axis blocks
		// below), so unlike stiffness it scatters straight from the rest
		// frame with no rBlock involved.
		m := f.density * t.Volume / 20
		for a := 0; a < 4; a++ {
			for b := 0; b < 4; b++ {
				weight := m
				if a == b {
					weight = 2 * m
				}
				for k := 0; k < 3; k++ {
					gi := t.Nodes[a]*3 + k
					gj := t.Nodes[b]*3 + k
					massDense.Set(gi, gj, massDense.At(gi, gj)+weight)
				}
			}
		}
	}

	// Prescribed (kinematic) nodes receive an identity block instead of
	// their mass+stiffness row/column, per spec.md §4.4 ("Kinematic nodes
	// instead receive identity blocks"): any entry touching a prescribed
	// DOF — including off-diagonal coupling from an element that spans a
	// prescribed and a free node — is zeroed except its own diagonal,
	// which is set to 1. Paired with UpdateAcceleration's zero rhs for
	// the same DOFs, the factored solve returns dv=0 there exactly,
	// rather than relying on a post-hoc zeroing of a nonzero solve.
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		pi := f.prescribed[i/3]
		for j := i; j < n; j++ {
			pj := f.prescribed[j/3]
			if pi || pj {
				if i == j {
					sym.SetSym(i, j, 1)
				} else {
					sym.SetSym(i, j, 0)
				}
				continue
			}
			v := dt*(dt+f.RayleighStiffness)*dense.At(i, j) + (1+dt*f.RayleighMass)*massDense.At(i, j)
			sym.SetSym(i, j, v)
		}
	}
	f.augmented = sym

	if ok := f.chol.Factorize(f.augmented); !ok {
		return chk.Err("fem volume: augmented mass matrix is not positive-definite (singular/inverted element)")
	}
	return nil
}

// blockRotation tiles a 3x3 rotation four times along the diagonal of a
// 12x12 matrix, matching the per-node block structure of a tetrahedron's
// stacked displacement vector.
func blockRotation(r lin.M3) *mat.Dense {
	b := mat.NewDense(12, 12, nil)
	rows := [3][3]float64{{r.Xx, r.Xy, r.Xz}, {r.Yx, r.Yy, r.Yz}, {r.Zx, r.Zy, r.Zz}}
	for n := 0; n < 4; n++ {
		base := n * 3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				b.Set(base+i, base+j, rows[i][j])
			}
		}
	}
	return b
}

// UpdateAcceleration computes each element's co-rotational internal
// elastic force (after subtracting permanent plastic strain), combines
// it with gravity, and solves the factored augmented system for the
// velocity change this step, reported back as acceleration (Δv/dt) so
// the rest of the pipeline can treat every DOF uniformly.
func (f *FemVolume) UpdateAcceleration(gravity lin.V3, dt float64) error {
	n := 3 * len(f.pos)
	rhs := mat.NewVecDense(n, nil)

	for i := range f.pos {
		if f.invMass[i] == 0 || f.prescribed[i] {
			continue
		}
		mass := 1 / f.invMass[i]
		rhs.SetVec(3*i, rhs.AtVec(3*i)+dt*mass*gravity.X)
		rhs.SetVec(3*i+1, rhs.AtVec(3*i+1)+dt*mass*gravity.Y)
		rhs.SetVec(3*i+2, rhs.AtVec(3*i+2)+dt*mass*gravity.Z)
	}

	for ti := range f.tets {
		t := &f.tets[ti]
		localDisp := mat.NewVecDense(12, nil)
		for a := 0; a < 4; a++ {
			node := t.Nodes[a]
			// spec.md §4.4 forms strain from R⁻¹·(posₐ + dt·velₐ): the
			// predictor folds this step's velocity into the position
			// before rotating into material frame, so the Rayleigh
			// damping coupling (which acts through this same strain) sees
			// the node's motion for the step being taken, not last step's
			// settled position.
			px := f.pos[node].X + dt*f.vel[3*node]
			py := f.pos[node].Y + dt*f.vel[3*node+1]
			pz := f.pos[node].Z + dt*f.vel[3*node+2]
			rot := t.Rotation
			// Rᵀ applied to the predicted position, compared against rest
			// position, is the element's displacement in its own
			// unrotated (material) frame.
			lx := rot.Xx*px + rot.Yx*py + rot.Zx*pz
			ly := rot.Xy*px + rot.Yy*py + rot.Zy*pz
			lz := rot.Xz*px + rot.Yz*py + rot.Zz*pz
			rest := f.restPos[node]
			localDisp.SetVec(a*3, lx-rest.X-t.PlasticStrain[a*3])
			localDisp.SetVec(a*3+1, ly-rest.Y-t.PlasticStrain[a*3+1])
			localDisp.SetVec(a*3+2, lz-rest.Z-t.PlasticStrain[a*3+2])
		}

		strain := localDisp.RawVector().Data
		applyPlasticityCap(strain, t.PlasticStrain[:], f.YieldThreshold, f.Creep, f.MaxPlastic)

		var feLocal mat.VecDense
		feLocal.MulVec(t.ke, localDisp)

		rBlock := blockRotation(t.Rotation)
		var feGlobal mat.VecDense
		feGlobal.MulVec(rBlock, &feLocal)

		for a := 0; a < 4; a++ {
			node := t.Nodes[a]
			if f.invMass[node] == 0 || f.prescribed[node] {
				continue
			}
			rhs.SetVec(3*node, rhs.AtVec(3*node)-dt*feGlobal.AtVec(a*3))
			rhs.SetVec(3*node+1, rhs.AtVec(3*node+1)-dt*feGlobal.AtVec(a*3+1))
			rhs.SetVec(3*node+2, rhs.AtVec(3*node+2)-dt*feGlobal.AtVec(a*3+2))
		}
	}

	var dv mat.VecDense
	if err := f.chol.SolveVecTo(&dv, rhs); err != nil {
		return chk.Err("fem volume: augmented mass solve failed: %v", err)
	}
	for i := 0; i < n; i++ {
		if dt > 0 {
			f.acc[i] = dv.AtVec(i) / dt
		}
	}
	// Belt-and-suspenders: the identity block in UpdateDynamics plus the
	// zero rhs above already make dv (hence acc) exactly zero for a
	// prescribed node, but force it explicitly so a future rhs/assembly
	// change can't silently reintroduce drift into externally-driven
	// velocity (spec.md §4.4's "Kinematic nodes instead receive identity
	// blocks").
	for i := range f.pos {
		if f.invMass[i] == 0 || f.prescribed[i] {
			f.acc[3*i], f.acc[3*i+1], f.acc[3*i+2] = 0, 0, 0
		}
	}
	return nil
}

// ApplyForce applies a force/impulse/etc to the node named by part.
func (f *FemVolume) ApplyForce(part PartIndex, force lin.V3, kind ForceKind, wake bool) {
	if wake {
		f.activation.Sleeping = false
	}
	i := int(part)
	if i < 0 || i >= len(f.pos) || f.invMass[i] == 0 {
		return
	}
	im := f.invMass[i]
	switch kind {
	case Force:
		f.acc[3*i] += force.X * im
		f.acc[3*i+1] += force.Y * im
		f.acc[3*i+2] += force.Z * im
	case Impulse:
		f.vel[3*i] += force.X * im
		f.vel[3*i+1] += force.Y * im
		f.vel[3*i+2] += force.Z * im
	case AccelerationChange:
		f.acc[3*i] += force.X
		f.acc[3*i+1] += force.Y
		f.acc[3*i+2] += force.Z
	case VelocityChange:
		f.vel[3*i] += force.X
		f.vel[3*i+1] += force.Y
		f.vel[3*i+2] += force.Z
	}
}

// FillConstraintGeometry builds a single-node Jacobian row, the FEM
// analogue of ParticleSystem's: a contact or pin constraint touches one
// node's three columns (or, for a node marked prescribed, contributes
// zero response but still reports ExtVel so the row's rhs reflects the
// externally prescribed motion).
func (f *FemVolume) FillConstraintGeometry(part PartIndex, point lin.V3, dir ForceDirection, out RowGeometry) {
	for i := range out.J {
		out.J[i], out.WJ[i] = 0, 0
	}
	i := int(part)
	if dir.Kind != Linear || i < 0 || i >= len(f.pos) {
		return
	}
	im := f.invMass[i]
	if !f.prescribed[i] {
		out.J[3*i], out.J[3*i+1], out.J[3*i+2] = dir.Axis.X, dir.Axis.Y, dir.Axis.Z
		out.WJ[3*i] = dir.Axis.X * im
		out.WJ[3*i+1] = dir.Axis.Y * im
		out.WJ[3*i+2] = dir.Axis.Z * im
		*out.InvR += im
	}
	if out.OutVel != nil {
		if f.prescribed[i] && out.ExtVel != nil {
			*out.OutVel += dir.Axis.X*out.ExtVel.X + dir.Axis.Y*out.ExtVel.Y + dir.Axis.Z*out.ExtVel.Z
		} else {
			*out.OutVel += dir.Axis.X*f.vel[3*i] + dir.Axis.Y*f.vel[3*i+1] + dir.Axis.Z*f.vel[3*i+2]
		}
	}
}

// MaterialPointAtWorldPoint returns the world point unchanged alongside
// ok=true; it does no node or point-in-tetrahedron search, matching
// spec.md's allowance that a body may approximate this when it has no
// cheaper exact inverse.
func (f *FemVolume) MaterialPointAtWorldPoint(part PartIndex, world lin.V3) (lin.V3, bool) {
	return world, true
}

// WorldPointAtMaterialPoint returns the named node's current position.
func (f *FemVolume) WorldPointAtMaterialPoint(part PartIndex, material lin.V3) lin.V3 {
	i := int(part)
	if i < 0 || i >= len(f.pos) {
		return material
	}
	return f.pos[i]
}

func (f *FemVolume) HasActiveInternalConstraints() bool             { return false }
func (f *FemVolume) SetupInternalVelocityConstraints(dv []float64)  {}
func (f *FemVolume) StepSolveInternalVelocityConstraints(dv []float64) {}
