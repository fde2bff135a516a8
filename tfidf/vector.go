package tfidf

import (
	"gonum.org/v1/gonum/floats"
)

// Vector is a sparse term-weight vector with term ids in ascending order.
type Vector struct {
	Terms   []int
	Weights []float64
}

// IsZero reports whether the vector has no non-zero component.
func (v Vector) IsZero() bool {
	return len(v.Terms) == 0
}

// Norm returns the Euclidean length.
func (v Vector) Norm() float64 {
	if len(v.Weights) == 0 {
		return 0
	}
	return floats.Norm(v.Weights, 2)
}

// Dot returns the inner product of two sparse vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Terms) && j < len(o.Terms) {
		switch {
		case v.Terms[i] == o.Terms[j]:
			sum += v.Weights[i] * o.Weights[j]
			i++
			j++
		case v.Terms[i] < o.Terms[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// shared returns the term ids present in both vectors.
func (v Vector) shared(o Vector) []int {
	var out []int
	i, j := 0, 0
	for i < len(v.Terms) && j < len(o.Terms) {
		switch {
		case v.Terms[i] == o.Terms[j]:
			out = append(out, v.Terms[i])
			i++
			j++
		case v.Terms[i] < o.Terms[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// unit scales the vector in place to unit length. Zero vectors are left alone.
func (v Vector) unit() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	floats.Scale(1/n, v.Weights)
	return v
}
