// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// cosineSimilarityMatrix computes pairwise cosine similarity between the rows
// of a feature matrix, producing a symmetric n x n matrix. The diagonal is
// computed like any other pair and comes out as 1 for non-zero rows.
//
// Cost is O(n^2 k); invoked once per training run, never on the serving path.
func cosineSimilarityMatrix(features *mat.Dense) [][]float64 {
	n, _ := features.Dims()

	rows := make([][]float64, n)
	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = features.RawRowView(i)
		norms[i] = floats.Norm(rows[i], 2)
	}

	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var v float64
			if norms[i] > 0 && norms[j] > 0 {
				v = floats.Dot(rows[i], rows[j]) / (norms[i] * norms[j])
			}
			sim[i][j] = v
			sim[j][i] = v
		}
	}

	return sim
}

// cosine returns the cosine similarity of two equal-length vectors. The
// second return is false when either vector has zero norm (or lengths
// mismatch), in which case similarity is undefined.
func cosine(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, false
	}

	return floats.Dot(a, b) / (na * nb), true
}
