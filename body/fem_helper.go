// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package body

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gazed/dynamics/math/lin"
)

// lameParameters converts engineering constants (Young's modulus,
// Poisson's ratio) to the Lamé parameters used by the isotropic
// elasticity tensor.
func lameParameters(young, poisson float64) (mu, lambda float64) {
	mu = young / (2 * (1 + poisson))
	lambda = young * poisson / ((1 + poisson) * (1 - 2*poisson))
	return mu, lambda
}

// tetGeometry returns the reference shape matrix (edge vectors of the
// rest tetrahedron as columns) and its volume.
func tetGeometry(rest [4]lin.V3) (dm *mat.Dense, volume float64) {
	dm = mat.NewDense(3, 3, []float64{
		rest[1].X - rest[0].X, rest[2].X - rest[0].X, rest[3].X - rest[0].X,
		rest[1].Y - rest[0].Y, rest[2].Y - rest[0].Y, rest[3].Y - rest[0].Y,
		rest[1].Z - rest[0].Z, rest[2].Z - rest[0].Z, rest[3].Z - rest[0].Z,
	})
	volume = math.Abs(mat.Det(dm)) / 6
	return dm, volume
}

// shapeGradients returns the constant gradient of each of the tetrahedron's
// four linear shape functions, derived from the inverse reference shape
// matrix: rows 1-3 give nodes 1-3 directly, node 0's gradient is minus
// their sum (the partition-of-unity constraint Σ∇Ni = 0).
func shapeGradients(dmInv *mat.Dense) [4]lin.V3 {
	g1 := lin.V3{X: dmInv.At(0, 0), Y: dmInv.At(0, 1), Z: dmInv.At(0, 2)}
	g2 := lin.V3{X: dmInv.At(1, 0), Y: dmInv.At(1, 1), Z: dmInv.At(1, 2)}
	g3 := lin.V3{X: dmInv.At(2, 0), Y: dmInv.At(2, 1), Z: dmInv.At(2, 2)}
	g0 := lin.V3{X: -(g1.X + g2.X + g3.X), Y: -(g1.Y + g2.Y + g3.Y), Z: -(g1.Z + g2.Z + g3.Z)}
	return [4]lin.V3{g0, g1, g2, g3}
}

// strainDisplacement builds the 6x12 B matrix relating nodal
// displacements to engineering strain (xx,yy,zz,xy,yz,zx), the standard
// constant-strain-tetrahedron operator.
func strainDisplacement(grads [4]lin.V3) *mat.Dense {
	b := mat.NewDense(6, 12, nil)
	for i, g := range grads {
		c := i * 3
		b.Set(0, c, g.X)
		b.Set(1, c+1, g.Y)
		b.Set(2, c+2, g.Z)
		b.Set(3, c, g.Y)
		b.Set(3, c+1, g.X)
		b.Set(4, c+1, g.Z)
		b.Set(4, c+2, g.Y)
		b.Set(5, c, g.Z)
		b.Set(5, c+2, g.X)
	}
	return b
}

// elasticityMatrix builds the 6x6 isotropic elasticity tensor from the
// Lamé parameters.
func elasticityMatrix(mu, lambda float64) *mat.Dense {
	d := mat.NewDense(6, 6, nil)
	lp2mu := lambda + 2*mu
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				d.Set(i, j, lp2mu)
			} else {
				d.Set(i, j, lambda)
			}
		}
	}
	d.Set(3, 3, mu)
	d.Set(4, 4, mu)
	d.Set(5, 5, mu)
	return d
}

// elementStiffness builds the rest-frame 12x12 element stiffness matrix
// Ke = V * Bᵀ D B for a constant-strain tetrahedron with the given
// material parameters.
func elementStiffness(rest [4]lin.V3, mu, lambda float64) (ke *mat.Dense, dmInv *mat.Dense, volume float64) {
	dm, vol := tetGeometry(rest)
	dmInv = mat.NewDense(3, 3, nil)
	if err := dmInv.Inverse(dm); err != nil {
		// Degenerate (zero-volume) tetrahedron; leave dmInv as the zero
		// matrix so downstream stiffness/forces are silently inert
		// instead of panicking on malformed scenario data.
		dmInv = mat.NewDense(3, 3, nil)
	}
	grads := shapeGradients(dmInv)
	b := strainDisplacement(grads)
	d := elasticityMatrix(mu, lambda)

	var bt, db mat.Dense
	bt.CloneFrom(b.T())
	db.Mul(d, b)
	ke = mat.NewDense(12, 12, nil)
	ke.Mul(&bt, &db)
	ke.Scale(vol, ke)
	return ke, dmInv, vol
}

// deformationGradient computes F = Ds * Dm^-1 for the current (deformed)
// node positions, where Ds is the deformed edge matrix.
func deformationGradient(cur [4]lin.V3, dmInv *mat.Dense) *mat.Dense {
	ds := mat.NewDense(3, 3, []float64{
		cur[1].X - cur[0].X, cur[2].X - cur[0].X, cur[3].X - cur[0].X,
		cur[1].Y - cur[0].Y, cur[2].Y - cur[0].Y, cur[3].Y - cur[0].Y,
		cur[1].Z - cur[0].Z, cur[2].Z - cur[0].Z, cur[3].Z - cur[0].Z,
	})
	f := mat.NewDense(3, 3, nil)
	f.Mul(ds, dmInv)
	return f
}

// polarRotation extracts the rotational part of deformation gradient F by
// Gram-Schmidt orthonormalization of its column vectors — an
// inexpensive, branch-free stand-in for a full polar decomposition,
// adequate once per element per step for co-rotational FEM.
func polarRotation(f *mat.Dense) lin.M3 {
	c0 := lin.V3{X: f.At(0, 0), Y: f.At(1, 0), Z: f.At(2, 0)}
	c1 := lin.V3{X: f.At(0, 1), Y: f.At(1, 1), Z: f.At(2, 1)}
	c2 := lin.V3{X: f.At(0, 2), Y: f.At(1, 2), Z: f.At(2, 2)}

	e0 := c0
	if e0.Len() < 1e-12 {
		return *lin.NewM3I()
	}
	e0.Unit()

	d01 := e0.Dot(&c1)
	e1 := lin.V3{X: c1.X - d01*e0.X, Y: c1.Y - d01*e0.Y, Z: c1.Z - d01*e0.Z}
	if e1.Len() < 1e-12 {
		return *lin.NewM3I()
	}
	e1.Unit()

	var e2 lin.V3
	e2.Cross(&e0, &e1)

	return lin.M3{
		Xx: e0.X, Yx: e0.Y, Zx: e0.Z,
		Xy: e1.X, Yy: e1.Y, Zy: e1.Z,
		Xz: e2.X, Yz: e2.Y, Zz: e2.Z,
	}
}

// applyPlasticityCap implements ideal (perfectly-plastic) yielding: once
// accumulated elastic strain exceeds yieldThreshold, creep a fraction
// of the excess into permanent plastic strain each step, clamped to
// maxStrain. Ported in spirit from the ideal-plasticity handling
// described for FEM volumes in the original nphysics source
// (original_source/src/object/fem_helper.rs).
func applyPlasticityCap(elasticStrain, plasticStrain []float64, yieldThreshold, creep, maxStrain float64) {
	norm := 0.0
	for _, s := range elasticStrain {
		norm += s * s
	}
	norm = math.Sqrt(norm)
	if norm <= yieldThreshold {
		return
	}
	excess := (norm - yieldThreshold) / norm
	for i := range elasticStrain {
		delta := elasticStrain[i] * excess * creep
		plasticStrain[i] += delta
		elasticStrain[i] -= delta
	}
	pnorm := 0.0
	for _, s := range plasticStrain {
		pnorm += s * s
	}
	pnorm = math.Sqrt(pnorm)
	if pnorm > maxStrain && pnorm > 0 {
		scale := maxStrain / pnorm
		for i := range plasticStrain {
			plasticStrain[i] *= scale
		}
	}
}
