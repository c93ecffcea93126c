// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrFactorization indicates the rating matrix could not be decomposed.
// The trainer must abort the whole pipeline on this error.
var ErrFactorization = errors.New("factorization failed")

// svdTolerance is the threshold below which a singular value is treated as
// zero when counting the usable rank.
const svdTolerance = 1e-10

// latentFactors holds the low-rank user and course feature matrices produced
// by one factorization. Rows align with the rating matrix index maps.
type latentFactors struct {
	users   *mat.Dense // nUsers x rank
	courses *mat.Dense // nCourses x rank
	rank    int
}

// factorizeMatrix reduces the rating matrix via thin singular value
// decomposition, truncated to min(rank, positive singular values). User
// features are the truncated left singular vectors scaled by the square root
// of the singular values; course features use the right singular vectors.
//
// Returns ErrFactorization with no partial output when the matrix is empty,
// entirely zero, or the decomposition does not converge.
func factorizeMatrix(m *mat.Dense, rank int) (*latentFactors, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty matrix (%dx%d)", ErrFactorization, r, c)
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: svd did not converge", ErrFactorization)
	}

	values := svd.Values(nil)
	available := 0
	for _, v := range values {
		if v > svdTolerance {
			available++
		}
	}
	if available == 0 {
		return nil, fmt.Errorf("%w: matrix has no positive singular values", ErrFactorization)
	}

	k := rank
	if k > available {
		k = available
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	users := mat.NewDense(r, k, nil)
	courses := mat.NewDense(c, k, nil)
	for j := 0; j < k; j++ {
		scale := math.Sqrt(values[j])
		for i := 0; i < r; i++ {
			users.Set(i, j, u.At(i, j)*scale)
		}
		for i := 0; i < c; i++ {
			courses.Set(i, j, v.At(i, j)*scale)
		}
	}

	return &latentFactors{users: users, courses: courses, rank: k}, nil
}

// denseToRows copies a gonum matrix into nested slices for serialization.
func denseToRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		copy(row, m.RawRowView(i))
		rows[i] = row
	}
	return rows
}
