package engine

import (
	"math"
	"testing"

	"github.com/preciousmetals/indexd/internal/domain"
)

func samplePrices(start float64, steps []float64) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(steps)+1)
	price := start
	points = append(points, domain.PricePoint{TimestampMS: 0, Price: price})
	for i, pctChange := range steps {
		price *= 1 + pctChange
		points = append(points, domain.PricePoint{TimestampMS: int64(i+1) * 300000, Price: price})
	}
	return points
}

func constantSeries(price float64, n int) []domain.PricePoint {
	points := make([]domain.PricePoint, n)
	for i := range points {
		points[i] = domain.PricePoint{TimestampMS: int64(i) * 300000, Price: price}
	}
	return points
}

func TestAnnualizedVolatility_SparseHistoryFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		metal   domain.Metal
		history []domain.PricePoint
	}{
		{"no history", domain.XAU, nil},
		{"below minimum", domain.XAG, constantSeries(25, minVolatilityPoints-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualizedVolatility(tt.metal, tt.history)
			want := domain.DefaultVolatility[tt.metal]
			if got != want {
				t.Errorf("AnnualizedVolatility() = %v, want default %v", got, want)
			}
		})
	}
}

func TestAnnualizedVolatility_ConstantPriceHitsFloor(t *testing.T) {
	history := constantSeries(2000, minVolatilityPoints+10)
	got := AnnualizedVolatility(domain.XAU, history)
	if got != sigmaFloor {
		t.Errorf("AnnualizedVolatility() = %v, want floor %v for a flat price series", got, sigmaFloor)
	}
}

func TestAnnualizedVolatility_ClampedToBounds(t *testing.T) {
	steps := make([]float64, 40)
	for i := range steps {
		if i%2 == 0 {
			steps[i] = 0.2
		} else {
			steps[i] = -0.2
		}
	}
	history := samplePrices(2000, steps)
	got := AnnualizedVolatility(domain.XAU, history)
	if got < sigmaFloor || got > sigmaCap {
		t.Errorf("AnnualizedVolatility() = %v, want within [%v, %v]", got, sigmaFloor, sigmaCap)
	}
	if got != sigmaCap {
		t.Errorf("AnnualizedVolatility() = %v, want the cap %v for this wildly oscillating series", got, sigmaCap)
	}
}

func TestPopulationStdDev_UsesNDivisorNotBessel(t *testing.T) {
	// Mean is 0; values {-1, 1} give sumSq = 2, population variance = 2/2 = 1,
	// stddev = 1. The n-1 (Bessel) variant would give 2/1 = 2, stddev = sqrt(2).
	got := populationStdDev([]float64{-1, 1})
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("populationStdDev() = %v, want 1 (population divisor n=2)", got)
	}
}

func TestPairwiseCorrelation_FallsBackBelowMinimumPoints(t *testing.T) {
	ha := constantSeries(2000, minCorrelationPoints-1)
	hb := constantSeries(25, minCorrelationPoints-1)
	got := PairwiseCorrelation(domain.XAU, domain.XAG, ha, hb)
	want := defaultCorrelation(domain.XAU, domain.XAG)
	if got != want {
		t.Errorf("PairwiseCorrelation() = %v, want default %v", got, want)
	}
}

func TestPairwiseCorrelation_PerfectlyCorrelatedSeries(t *testing.T) {
	steps := []float64{0.01, -0.02, 0.03, 0.01, -0.01, 0.02, -0.015, 0.005, 0.01, -0.02,
		0.03, 0.01, -0.01, 0.02, -0.015, 0.005, 0.01, -0.02, 0.03, 0.01, -0.01, 0.02, -0.015}
	ha := samplePrices(2000, steps)
	hb := samplePrices(25, steps) // same relative moves, different base price
	got := PairwiseCorrelation(domain.XAU, domain.XAG, ha, hb)
	if math.Abs(got-1) > 1e-6 {
		t.Errorf("PairwiseCorrelation() = %v, want ~1 for identical relative moves", got)
	}
}

func TestDefaultCorrelation_SymmetricAndSelfIsOne(t *testing.T) {
	if got := defaultCorrelation(domain.XAU, domain.XAU); got != 1 {
		t.Errorf("defaultCorrelation(XAU, XAU) = %v, want 1", got)
	}
	forward := defaultCorrelation(domain.XAU, domain.XAG)
	backward := defaultCorrelation(domain.XAG, domain.XAU)
	if forward != backward {
		t.Errorf("defaultCorrelation() not symmetric: %v vs %v", forward, backward)
	}
}

func TestLiquidityStress_CalmMarketIsZero(t *testing.T) {
	sigma := map[domain.Metal]float64{
		domain.XAU: domain.DefaultVolatility[domain.XAU],
		domain.XAG: domain.DefaultVolatility[domain.XAG],
		domain.XPT: domain.DefaultVolatility[domain.XPT],
		domain.XPD: domain.DefaultVolatility[domain.XPD],
	}
	if got := LiquidityStress(sigma); got != 0 {
		t.Errorf("LiquidityStress() = %v, want 0 when every metal sits at its default", got)
	}
}

func TestLiquidityStress_StressedIsBoundedAtOne(t *testing.T) {
	sigma := map[domain.Metal]float64{
		domain.XAU: domain.DefaultVolatility[domain.XAU] * 10,
		domain.XAG: domain.DefaultVolatility[domain.XAG] * 10,
		domain.XPT: domain.DefaultVolatility[domain.XPT] * 10,
		domain.XPD: domain.DefaultVolatility[domain.XPD] * 10,
	}
	got := LiquidityStress(sigma)
	if got < 0 || got > 1 {
		t.Errorf("LiquidityStress() = %v, want within [0, 1]", got)
	}
}
