package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PolyFit fits y ≈ c[0] + c[1]·x + ... + c[degree]·x^degree by least
// squares and returns the coefficients in ascending power order together
// with the coefficient of determination R². Pairs where either value is
// NaN are skipped. At least degree+1 valid pairs are required.
func PolyFit(x, y []float64, degree int) ([]float64, float64, error) {
	if len(x) != len(y) {
		return nil, 0, fmt.Errorf("polyfit: length mismatch: %d vs %d", len(x), len(y))
	}
	if degree < 1 {
		return nil, 0, fmt.Errorf("polyfit: degree must be >= 1, got %d", degree)
	}

	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	if n < degree+1 {
		return nil, 0, fmt.Errorf("polyfit: need at least %d valid samples for degree %d, have %d", degree+1, degree, n)
	}

	a := mat.NewDense(n, degree+1, nil)
	for i, xv := range xs {
		p := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, p)
			p *= xv
		}
	}
	b := mat.NewVecDense(n, ys)

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, 0, fmt.Errorf("polyfit: solve failed: %w", err)
	}

	coeffs := make([]float64, degree+1)
	for j := range coeffs {
		coeffs[j] = sol.AtVec(j)
	}

	var meanY float64
	for _, v := range ys {
		meanY += v
	}
	meanY /= float64(n)

	var ssRes, ssTot float64
	for i, xv := range xs {
		d := ys[i] - PolyEval(coeffs, xv)
		ssRes += d * d
		t := ys[i] - meanY
		ssTot += t * t
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1.0 - ssRes/ssTot
	}
	return coeffs, r2, nil
}

// PolyEval evaluates a polynomial with coefficients in ascending power
// order at x.
func PolyEval(coeffs []float64, x float64) float64 {
	// Horner, highest power first.
	v := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*x + coeffs[j]
	}
	return v
}

// DependencyFit captures the cubic approximations q1 = phi1(q2) and
// q3 = phi3(q2) for one body side.
type DependencyFit struct {
	Side    string    `json:"side"`
	Phi1    []float64 `json:"phi1"`
	Phi3    []float64 `json:"phi3"`
	R2Phi1  float64   `json:"r2_phi1"`
	R2Phi3  float64   `json:"r2_phi3"`
	Samples int       `json:"samples"`
}

// FitDependencies fits both cubic dependency curves of a side from its
// q1/q2/q3 series.
func FitDependencies(side string, q1, q2, q3 []float64) (*DependencyFit, error) {
	phi1, r21, err := PolyFit(q2, q1, 3)
	if err != nil {
		return nil, fmt.Errorf("side %s: phi1: %w", side, err)
	}
	phi3, r23, err := PolyFit(q2, q3, 3)
	if err != nil {
		return nil, fmt.Errorf("side %s: phi3: %w", side, err)
	}
	n := 0
	for i := range q2 {
		if !math.IsNaN(q2[i]) {
			n++
		}
	}
	return &DependencyFit{Side: side, Phi1: phi1, Phi3: phi3, R2Phi1: r21, R2Phi3: r23, Samples: n}, nil
}
