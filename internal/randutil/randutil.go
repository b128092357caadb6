// Package randutil provides the sampling primitives every stochastic site in
// the generator routes through. All functions take an explicit *rand.Rand so a
// session's entire random stream is reproducible from one seed.
package randutil

import (
	"math"
	"math/rand"
)

// WeightedInt is one outcome of a discrete distribution over ints.
type WeightedInt struct {
	Value  int     `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

// WeightedString is one outcome of a discrete distribution over strings.
type WeightedString struct {
	Value  string  `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

// ChooseInt draws one outcome from a weighted distribution. Weights need not
// sum to one. Panics on an empty distribution: that is a spec-authoring error.
func ChooseInt(rng *rand.Rand, dist []WeightedInt) int {
	if len(dist) == 0 {
		panic("randutil: empty int distribution")
	}
	total := 0.0
	for _, w := range dist {
		total += w.Weight
	}
	r := rng.Float64() * total
	for _, w := range dist {
		r -= w.Weight
		if r < 0 {
			return w.Value
		}
	}
	return dist[len(dist)-1].Value
}

// ChooseString draws one outcome from a weighted distribution over strings.
func ChooseString(rng *rand.Rand, dist []WeightedString) string {
	if len(dist) == 0 {
		panic("randutil: empty string distribution")
	}
	total := 0.0
	for _, w := range dist {
		total += w.Weight
	}
	r := rng.Float64() * total
	for _, w := range dist {
		r -= w.Weight
		if r < 0 {
			return w.Value
		}
	}
	return dist[len(dist)-1].Value
}

// ClampedNormal samples N(mean, std) clamped to [lo, hi].
func ClampedNormal(rng *rand.Rand, mean, std, lo, hi float64) float64 {
	v := rng.NormFloat64()*std + mean
	return Clamp(v, lo, hi)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Dirichlet samples a probability vector from a Dirichlet distribution with
// the given concentration parameters, by normalizing independent gamma draws.
func Dirichlet(rng *rand.Rand, alpha []float64) []float64 {
	out := make([]float64, len(alpha))
	sum := 0.0
	for i, a := range alpha {
		g := Gamma(rng, a)
		out[i] = g
		sum += g
	}
	if sum == 0 {
		// Degenerate draw; fall back to uniform.
		for i := range out {
			out[i] = 1.0 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Gamma samples from Gamma(shape, 1) using the Marsaglia-Tsang method.
func Gamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		// Boost: Gamma(a) = Gamma(a+1) * U^(1/a).
		u := rng.Float64()
		return Gamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// ChooseIndexWeighted draws an index in [0, len(pdf)) according to pdf.
func ChooseIndexWeighted(rng *rand.Rand, pdf []float64) int {
	r := rng.Float64()
	for i, p := range pdf {
		r -= p
		if r < 0 {
			return i
		}
	}
	return len(pdf) - 1
}

// SampleWithoutReplacement picks n distinct elements of items uniformly.
// If n exceeds len(items) all items are returned, shuffled.
func SampleWithoutReplacement(rng *rand.Rand, items []string, n int) []string {
	perm := rng.Perm(len(items))
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, items[idx])
	}
	return out
}
