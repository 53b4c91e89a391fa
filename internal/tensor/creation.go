package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from a standard normal
// distribution using the given source. A seeded source makes test inputs
// reproducible.
//
// Uses the Box-Muller transform, producing two values per iteration.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	t := New(shape)
	for i := 0; i < len(t.data); i += 2 {
		u1 := rng.Float64()
		u2 := rng.Float64()
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		t.data[i] = z0
		if i+1 < len(t.data) {
			t.data[i+1] = z1
		}
	}
	return t
}
