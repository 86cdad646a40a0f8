package engine

import "github.com/preciousmetals/indexd/internal/domain"

// diversifyPull is how strongly a diversify bias pulls the target weight
// vector toward each band's midpoint.
const diversifyPull = 0.3

// maxBandPasses bounds the clamp+renormalize passes in TargetWeights.
const maxBandPasses = 1000

// TargetWeights computes the inverse-volatility target allocation: raw
// weight proportional to 1/sigma, clamped to each metal's band and
// renormalized to sum to 1, with the clamp+renormalize pass repeated until
// no weight lies outside its band. A diversify bias then pulls the result
// part way toward the band midpoints.
func TargetWeights(sigma map[domain.Metal]float64, bias domain.RebalanceBias) map[domain.Metal]float64 {
	inv := make(map[domain.Metal]float64, len(domain.Metals))
	var totalInv float64
	for _, m := range domain.Metals {
		v := 1 / sigma[m]
		inv[m] = v
		totalInv += v
	}

	target := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		target[m] = inv[m] / totalInv
	}
	// Renormalizing after a clamp can push a weight back past its band edge,
	// so the pass repeats; the overshoot shrinks geometrically each time.
	for pass := 0; pass < maxBandPasses; pass++ {
		clamped := make(map[domain.Metal]float64, len(domain.Metals))
		inBand := true
		for _, m := range domain.Metals {
			band := domain.WeightBands[m]
			clamped[m] = clamp(target[m], band.Min, band.Max)
			inBand = inBand && clamped[m] == target[m]
		}
		if inBand {
			break
		}
		target = renormalize(clamped)
	}

	if bias == domain.BiasDiversify {
		pulled := make(map[domain.Metal]float64, len(domain.Metals))
		for _, m := range domain.Metals {
			band := domain.WeightBands[m]
			center := (band.Min + band.Max) / 2
			pulled[m] = (1-diversifyPull)*target[m] + diversifyPull*center
		}
		target = renormalize(pulled)
	}
	return target
}

// renormalize scales a weight vector to sum to 1. An all-zero input (which
// should not occur given the bands all have a strictly positive minimum)
// falls back to an equal split rather than dividing by zero.
func renormalize(w map[domain.Metal]float64) map[domain.Metal]float64 {
	var sum float64
	for _, m := range domain.Metals {
		sum += w[m]
	}
	out := make(map[domain.Metal]float64, len(domain.Metals))
	if sum == 0 {
		equal := 1.0 / float64(len(domain.Metals))
		for _, m := range domain.Metals {
			out[m] = equal
		}
		return out
	}
	for _, m := range domain.Metals {
		out[m] = w[m] / sum
	}
	return out
}

// SmoothWeights moves the current weight vector toward target at the given
// speed, then re-clamps to each metal's band and renormalizes in a single
// pass. When current and target both lie inside their bands the smoothed
// vector does too, and that pass leaves it unchanged.
func SmoothWeights(current, target map[domain.Metal]float64, speed float64) map[domain.Metal]float64 {
	smoothed := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		smoothed[m] = (1-speed)*current[m] + speed*target[m]
	}
	clamped := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		band := domain.WeightBands[m]
		clamped[m] = clamp(smoothed[m], band.Min, band.Max)
	}
	return renormalize(clamped)
}

// CompositeIndex is the weighted average of per-metal USD-per-gram prices
// — the published index value.
func CompositeIndex(weights, pricePerGram map[domain.Metal]float64) float64 {
	var index float64
	for _, m := range domain.Metals {
		index += weights[m] * pricePerGram[m]
	}
	return index
}
