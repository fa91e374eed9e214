// Package mat provides the small dense matrix routines used for
// Cramer-Rao bound extraction: LU inversion with partial pivoting and a
// Tikhonov-regularized pseudo-inverse for cross-checking.
package mat

import "math"

// pivotFloor replaces exactly-zero pivots during factorization. A
// singular Fisher matrix then inverts to huge bound values instead of
// failing, which is the behavior downstream estimators expect.
const pivotFloor = 1e-20

// InvertLU inverts the n*n row-major matrix a into out using LU
// factorization with scaled partial pivoting. a is left untouched; out
// must have length n*n. Singular pivots are substituted with a tiny
// value, so the call always succeeds.
func InvertLU(a []float64, n int, out []float64) {
	lu := make([]float64, n*n)
	copy(lu, a)
	pivot := make([]int, n)
	factorize(lu, n, pivot)

	col := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := range col {
			col[i] = 0
		}
		col[j] = 1
		solveLU(lu, n, pivot, col)
		for i := 0; i < n; i++ {
			out[i*n+j] = col[i]
		}
	}
}

// factorize performs in-place LU decomposition with scaled partial
// pivoting, recording row swaps in pivot.
func factorize(a []float64, n int, pivot []int) {
	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		big := 0.0
		for j := 0; j < n; j++ {
			if v := math.Abs(a[i*n+j]); v > big {
				big = v
			}
		}
		if big == 0 {
			big = pivotFloor
		}
		scale[i] = 1 / big
	}

	for k := 0; k < n; k++ {
		big, imax := 0.0, k
		for i := k; i < n; i++ {
			if v := scale[i] * math.Abs(a[i*n+k]); v > big {
				big = v
				imax = i
			}
		}
		if imax != k {
			for j := 0; j < n; j++ {
				a[imax*n+j], a[k*n+j] = a[k*n+j], a[imax*n+j]
			}
			scale[imax] = scale[k]
		}
		pivot[k] = imax
		if a[k*n+k] == 0 {
			a[k*n+k] = pivotFloor
		}
		inv := 1 / a[k*n+k]
		for i := k + 1; i < n; i++ {
			f := a[i*n+k] * inv
			a[i*n+k] = f
			for j := k + 1; j < n; j++ {
				a[i*n+j] -= f * a[k*n+j]
			}
		}
	}
}

// solveLU solves the factorized system for a single right-hand side,
// in place.
func solveLU(lu []float64, n int, pivot []int, b []float64) {
	for k := 0; k < n; k++ {
		b[k], b[pivot[k]] = b[pivot[k]], b[k]
		for i := k + 1; i < n; i++ {
			b[i] -= lu[i*n+k] * b[k]
		}
	}
	for i := n - 1; i >= 0; i-- {
		s := b[i]
		for j := i + 1; j < n; j++ {
			s -= lu[i*n+j] * b[j]
		}
		b[i] = s / lu[i*n+i]
	}
}

// InvertRegularized computes a Tikhonov-damped pseudo-inverse of the
// n*n row-major matrix a into out. The matrix is first equilibrated by
// its diagonal (B = D^-1/2 A D^-1/2), then inverted through the damped
// normal equations (B^T B + lambda I)^-1 B^T, and rescaled. The
// equilibration keeps the squared condition number of the normal
// equations manageable when a mixes parameter scales. For a
// well-conditioned symmetric a the result approaches the true inverse
// as lambda shrinks; for ill-conditioned a it stays finite.
func InvertRegularized(a []float64, n int, lambda float64, out []float64) {
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		v := math.Abs(a[i*n+i])
		if v < pivotFloor {
			v = pivotFloor
		}
		d[i] = 1 / math.Sqrt(v)
	}
	b := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b[i*n+j] = d[i] * a[i*n+j] * d[j]
		}
	}

	btb := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += b[k*n+i] * b[k*n+j]
			}
			if i == j {
				s += lambda
			}
			btb[i*n+j] = s
		}
	}
	inv := make([]float64, n*n)
	InvertLU(btb, n, inv)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += inv[i*n+k] * b[j*n+k]
			}
			out[i*n+j] = d[i] * s * d[j]
		}
	}
}
