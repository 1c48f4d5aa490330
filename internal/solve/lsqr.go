package solve

import "math"

// LSQR solves the least-squares problem minimize ||Ax - b||2 using the
// Paige & Saunders iterative algorithm, warm-started from x0 and capped
// at maxIter iterations. This plays the same role as scipy.sparse.linalg
// lsqr in the tool this solver was distilled from; no sparse linear
// algebra library is available in this module's dependency surface (see
// DESIGN.md), so the algorithm is implemented directly against CSRMatrix.
func LSQR(a *CSRMatrix, b []float64, x0 []float64, maxIter int) []float64 {
	n := a.Cols
	x := append([]float64(nil), x0...)

	// u, beta = normalize(b - A*x0)
	ax0 := make([]float64, a.Rows)
	a.MulVec(x, ax0)
	u := make([]float64, a.Rows)
	for i := range u {
		u[i] = b[i] - ax0[i]
	}
	beta := norm2(u)
	if beta > 0 {
		scale(u, 1/beta)
	}

	// v, alpha = normalize(A^T*u)
	v := make([]float64, n)
	a.MulTransposeVec(u, v)
	alpha := norm2(v)
	if alpha > 0 {
		scale(v, 1/alpha)
	}

	w := append([]float64(nil), v...)
	phiBar := beta
	rhoBar := alpha

	if alpha == 0 || beta == 0 {
		return x
	}

	avTmp := make([]float64, a.Rows)
	atuTmp := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		// u, beta = normalize(A*v - alpha*u)
		a.MulVec(v, avTmp)
		for i := range u {
			u[i] = avTmp[i] - alpha*u[i]
		}
		beta = norm2(u)
		if beta > 0 {
			scale(u, 1/beta)
		}

		// v, alpha = normalize(A^T*u - beta*v)
		a.MulTransposeVec(u, atuTmp)
		for i := range v {
			v[i] = atuTmp[i] - beta*v[i]
		}
		alpha = norm2(v)
		if alpha > 0 {
			scale(v, 1/alpha)
		}

		// Orthogonal transformation to eliminate the bidiagonal element.
		rho := math.Hypot(rhoBar, beta)
		if rho == 0 {
			break
		}
		c := rhoBar / rho
		s := beta / rho
		theta := s * alpha
		rhoBar = -c * alpha
		phi := c * phiBar
		phiBar = s * phiBar

		// Update x and the search direction w.
		for i := range x {
			x[i] += (phi / rho) * w[i]
			w[i] = v[i] - (theta/rho)*w[i]
		}

		if phiBar < 1e-12 {
			break
		}
	}

	return x
}

func norm2(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func scale(v []float64, s float64) {
	for i := range v {
		v[i] *= s
	}
}
