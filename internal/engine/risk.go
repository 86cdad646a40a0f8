package engine

import (
	"math"

	"github.com/preciousmetals/indexd/internal/domain"
)

// drawdownWindow bounds how far back into the index series the drawdown
// calculation looks: the full 14-day retained history.
const drawdownWindow = MaxIndexHistory

// Risk Moderator gate thresholds.
const (
	drawdownGateAt         = 0.05
	correlationStabilityAt = 0.70
	liquidityStressAt      = 0.80
	dispersionGateAt       = 0.15
)

// Risk Moderator adjustment multipliers.
const (
	drawdownDriftMult   = 0.5
	liquidityDriftMult  = 0.7
	minDriftCap         = 0.005
	baseWeightSpeed     = 0.08
	drawdownSpeedMult   = 0.5
	fragmentedSpeedMult = 0.3
	minWeightSpeed      = 0.01
)

// Drawdown returns the maximum peak-to-trough fractional decline of the
// composite index series over the retained history window.
func Drawdown(indexSeries []float64) float64 {
	if len(indexSeries) < 2 {
		return 0
	}
	start := 0
	if len(indexSeries) > drawdownWindow {
		start = len(indexSeries) - drawdownWindow
	}
	window := indexSeries[start:]
	runningMax := window[0]
	var maxDD float64
	for _, v := range window {
		if v > runningMax {
			runningMax = v
		}
		if runningMax > 0 {
			if dd := (runningMax - v) / runningMax; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// CorrelationStability compares the current correlation matrix against the
// previous tick's, returning 1 when unchanged and decreasing as the mean
// absolute pairwise drift grows. A nil previous matrix (first tick) is
// treated as maximally stable.
func CorrelationStability(curr CorrMatrix, prev *CorrMatrix) float64 {
	if prev == nil {
		return 1
	}
	n := len(domain.Metals)
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += math.Abs(curr[i][j] - prev[i][j])
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return math.Max(0, 1-2*(sum/float64(count)))
}

// WeightDispersion is the Shannon entropy of the weight vector, normalized
// to [0, 1] by the maximum possible entropy (log of the metal count). Low
// values mean the portfolio has concentrated into few metals.
func WeightDispersion(weights map[domain.Metal]float64) float64 {
	var entropy float64
	for _, m := range domain.Metals {
		if w := weights[m]; w > 0 {
			entropy -= w * math.Log(w)
		}
	}
	return entropy / math.Log(float64(len(domain.Metals)))
}

// MarketState is the Risk Moderator's per-tick input: everything the
// earlier components (C1-C3) have already computed.
type MarketState struct {
	Sigma        map[domain.Metal]float64
	Corr         CorrMatrix
	PrevCorr     *CorrMatrix
	IndexSeries  []float64
	Weights      map[domain.Metal]float64
	Liquidity    float64
	RegimeLocked bool
}

// ModerateRisk computes the Risk Moderator's boolean gates and the
// risk-adjusted control parameters they drive.
func ModerateRisk(regime domain.Regime, state MarketState) domain.RiskAdjustedParams {
	drawdown := Drawdown(state.IndexSeries)
	stability := CorrelationStability(state.Corr, state.PrevCorr)
	dispersion := WeightDispersion(state.Weights)

	drawdownMode := drawdown > drawdownGateAt
	fragmented := stability < correlationStabilityAt
	stressedLiquidity := state.Liquidity > liquidityStressAt
	overconcentrated := dispersion < dispersionGateAt

	base := domain.RegimeParamTable[regime]

	driftCap := base.DailyCap
	if drawdownMode {
		driftCap *= drawdownDriftMult
	}
	if stressedLiquidity {
		driftCap *= liquidityDriftMult
	}
	driftCap = math.Max(minDriftCap, driftCap)

	weightSpeed := baseWeightSpeed
	if drawdownMode {
		weightSpeed *= drawdownSpeedMult
	}
	if fragmented {
		weightSpeed *= fragmentedSpeedMult
	}
	weightSpeed = math.Max(minWeightSpeed, weightSpeed)

	bias := domain.BiasNeutral
	if overconcentrated {
		bias = domain.BiasDiversify
	}

	return domain.RiskAdjustedParams{
		DriftCap:          driftCap,
		WeightSpeed:       weightSpeed,
		RebalanceBias:     bias,
		AllowRegimeChange: !state.RegimeLocked,
	}
}
