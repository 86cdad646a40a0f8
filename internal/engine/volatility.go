package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/preciousmetals/indexd/internal/domain"
)

const (
	// minVolatilityPoints is the fewest price samples the estimator will
	// trust before falling back to domain.DefaultVolatility.
	minVolatilityPoints = 12

	// minCorrelationPoints is the fewest samples either metal's history
	// must have before a pairwise correlation is computed instead of
	// falling back to domain.DefaultCorrelations.
	minCorrelationPoints = 20

	// maxCorrelationWindow caps how many of the most recent points feed a
	// correlation calculation.
	maxCorrelationWindow = 100

	// ticksPerYear anualizes a per-5-minute-tick standard deviation
	// (288 ticks/day * 365 days).
	ticksPerYear = 288 * 365

	sigmaFloor = 0.05
	sigmaCap   = 0.80
)

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// logReturns computes ln(p[i]/p[i-1]) for every consecutive pair of strictly
// positive prices, silently skipping any pair touching a non-positive value.
func logReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// populationStdDev computes sqrt(mean((x-mean)^2)) with divisor |xs|, not
// |xs|-1. gonum/stat.StdDev applies Bessel's correction (divisor n-1),
// which would bias every sigma by sqrt(n/(n-1)), so the sum of squares is
// accumulated by hand; stat.Mean is still used for the mean term since a
// mean has no divisor-convention ambiguity.
func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// AnnualizedVolatility implements the Volatility Estimator:
// log returns over the metal's full retained history, population stddev,
// annualized by the 5-minute tick cadence, clamped to [0.05, 0.80]. Falls
// back to domain.DefaultVolatility when history is too sparse to trust.
func AnnualizedVolatility(metal domain.Metal, history []domain.PricePoint) float64 {
	if len(history) < minVolatilityPoints {
		return domain.DefaultVolatility[metal]
	}
	prices := make([]float64, len(history))
	for i, p := range history {
		prices[i] = p.Price
	}
	returns := logReturns(prices)
	if len(returns) < minVolatilityPoints-1 {
		return domain.DefaultVolatility[metal]
	}
	sigma := populationStdDev(returns) * math.Sqrt(float64(ticksPerYear))
	return clamp(sigma, sigmaFloor, sigmaCap)
}

// defaultCorrelation looks up the unordered fallback table, returning 1 for
// a metal paired with itself.
func defaultCorrelation(a, b domain.Metal) float64 {
	if a == b {
		return 1
	}
	if v, ok := domain.DefaultCorrelations[domain.CorrelationPair{A: a, B: b}]; ok {
		return v
	}
	if v, ok := domain.DefaultCorrelations[domain.CorrelationPair{A: b, B: a}]; ok {
		return v
	}
	return 0
}

func minInt(xs ...int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func recentPrices(history []domain.PricePoint, n int) []float64 {
	if n > len(history) {
		n = len(history)
	}
	window := history[len(history)-n:]
	out := make([]float64, len(window))
	for i, p := range window {
		out[i] = p.Price
	}
	return out
}

// PairwiseCorrelation computes the Pearson correlation of log returns over
// the most recent min(len(h1), len(h2), 100) points of each history. Falls
// back to domain.DefaultCorrelations when either metal has fewer than 20
// points. Returns 0 when there are no returns to compare or when either
// return series has zero variance (gonum's Correlation divides by both
// stddevs and is undefined there).
//
// gonum/stat.Correlation applies the same n-1 divisor convention to both
// its numerator and denominator, so it cancels exactly and is safe to use
// as-is for a ratio quantity, unlike the single-series stddev above.
func PairwiseCorrelation(a, b domain.Metal, ha, hb []domain.PricePoint) float64 {
	if len(ha) < minCorrelationPoints || len(hb) < minCorrelationPoints {
		return defaultCorrelation(a, b)
	}
	window := minInt(len(ha), len(hb), maxCorrelationWindow)
	ra := logReturns(recentPrices(ha, window))
	rb := logReturns(recentPrices(hb, window))
	common := minInt(len(ra), len(rb))
	if common == 0 {
		return 0
	}
	ra = ra[len(ra)-common:]
	rb = rb[len(rb)-common:]
	if populationStdDev(ra) == 0 || populationStdDev(rb) == 0 {
		return 0
	}
	return stat.Correlation(ra, rb, nil)
}

// CorrMatrix is a symmetric 4x4 correlation matrix indexed by position in
// domain.Metals, with 1 on the diagonal.
type CorrMatrix [len(domain.Metals)][len(domain.Metals)]float64

// BuildCorrelationMatrix computes the full pairwise matrix from per-metal
// history.
func BuildCorrelationMatrix(history func(domain.Metal) []domain.PricePoint) CorrMatrix {
	var m CorrMatrix
	for i, mi := range domain.Metals {
		m[i][i] = 1
		for j := i + 1; j < len(domain.Metals); j++ {
			mj := domain.Metals[j]
			c := PairwiseCorrelation(mi, mj, history(mi), history(mj))
			m[i][j] = c
			m[j][i] = c
		}
	}
	return m
}

// LiquidityStress aggregates how far each metal's current volatility has
// run above its historical default, as a proxy for thin-liquidity stress.
// Returns a value in [0, 1].
func LiquidityStress(sigma map[domain.Metal]float64) float64 {
	var sum float64
	for _, m := range domain.Metals {
		ratio := sigma[m] / domain.DefaultVolatility[m]
		if ratio > 1.5 {
			sum += ratio - 1.5
		}
	}
	return clamp(sum/4, 0, 1)
}
