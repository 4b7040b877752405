package timeline

import "math"

const (
	MinRatio = 0.5
	MaxRatio = 2.0

	unityEpsilon = 1e-6
)

// TempoChain decomposes factor into ratios within [MinRatio, MaxRatio]
// whose product is factor. Factors of 1 (or invalid factors) give an empty
// chain. For example 4 gives [2 2] and 3 gives [2 1.5].
func TempoChain(factor float64) []float64 {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil
	}
	var chain []float64
	remaining := factor
	for remaining > MaxRatio {
		chain = append(chain, MaxRatio)
		remaining /= MaxRatio
	}
	for remaining < MinRatio {
		chain = append(chain, MinRatio)
		remaining /= MinRatio
	}
	if math.Abs(remaining-1) > unityEpsilon {
		chain = append(chain, remaining)
	}
	return chain
}

// ChainProduct multiplies the ratios of chain.
func ChainProduct(chain []float64) float64 {
	product := 1.0
	for _, ratio := range chain {
		product *= ratio
	}
	return product
}
