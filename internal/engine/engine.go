// Package engine implements the Index Engine: the single in-memory,
// tick-driven component that fetches spot metal prices, derives a
// volatility-weighted composite index, and publishes it to an on-chain
// oracle under a discovery-phase publish gate.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/preciousmetals/indexd/internal/domain"
)

// interTickFetchPause is the cooperative pause between successive metal
// fetches within one tick, giving the price source room to
// rate-limit without the engine needing its own throttling logic.
const interTickFetchPause = 1500 * time.Millisecond

// Engine is the sole stateful subject of the Index Engine. It is not safe
// for concurrent Tick calls — the caller (internal/scheduler) must
// serialize them.
type Engine struct {
	log zerolog.Logger

	history  *HistoryStore
	regime   *RegimeState
	gate     *PublicationGate
	weights  map[domain.Metal]float64
	prevCorr *CorrMatrix

	priceSource domain.PriceSource
	oracleSink  domain.OracleSink

	// fetchPause is the cooperative pause between successive metal
	// fetches. Defaults to interTickFetchPause; package-internal tests
	// may zero it out to avoid sleeping in the test suite.
	fetchPause time.Duration
}

// New builds an Engine seeded with domain.InitialWeights and a RegimeState
// starting in LOW.
func New(log zerolog.Logger, priceSource domain.PriceSource, oracleSink domain.OracleSink, gate *PublicationGate) *Engine {
	weights := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		weights[m] = domain.InitialWeights[m]
	}
	return &Engine{
		log:         log.With().Str("component", "engine").Logger(),
		history:     NewHistoryStore(),
		regime:      NewRegimeState(),
		gate:        gate,
		weights:     weights,
		priceSource: priceSource,
		oracleSink:  oracleSink,
		fetchPause:  interTickFetchPause,
	}
}

// Name satisfies internal/scheduler.Job.
func (e *Engine) Name() string { return "index-tick" }

// Run satisfies internal/scheduler.Job.
func (e *Engine) Run() error {
	return e.Tick(context.Background())
}

// Tick runs one full pass of C1-C6: fetch every metal in fixed order
// (XAU, XAG, XPT, XPD) with a cooperative pause between fetches, and only
// on total success does it touch history, weights, or the regime state.
// A failed fetch abandons the tick with no partial state change.
func (e *Engine) Tick(ctx context.Context) error {
	now := time.Now()
	nowMS := now.UnixMilli()

	quotesPerOunce := make(map[domain.Metal]float64, len(domain.Metals))
	for i, m := range domain.Metals {
		price, err := e.priceSource.FetchQuote(ctx, m)
		if err != nil {
			e.log.Warn().Err(err).Str("metal", string(m)).Msg("quote fetch failed, tick abandoned")
			return fmt.Errorf("fetch %s: %w", m, err)
		}
		if price <= 0 {
			e.log.Warn().Str("metal", string(m)).Float64("price", price).Msg("non-positive quote, tick abandoned")
			return fmt.Errorf("non-positive quote for %s: %v", m, price)
		}
		quotesPerOunce[m] = price
		if i < len(domain.Metals)-1 && e.fetchPause > 0 {
			time.Sleep(e.fetchPause)
		}
	}

	pricePerGram := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		gram := quotesPerOunce[m] / domain.OunceToGram
		pricePerGram[m] = gram
		e.history.RecordPrice(m, nowMS, gram)
	}

	sigma := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		sigma[m] = AnnualizedVolatility(m, e.history.History(m))
	}
	corr := BuildCorrelationMatrix(e.history.History)
	liquidity := LiquidityStress(sigma)

	dailySigma := AggregateDailyVolatility(sigma)
	locked := e.regime.Advance(dailySigma)

	risk := ModerateRisk(e.regime.Current, MarketState{
		Sigma:        sigma,
		Corr:         corr,
		PrevCorr:     e.prevCorr,
		IndexSeries:  e.history.IndexSeries(),
		Weights:      e.weights,
		Liquidity:    liquidity,
		RegimeLocked: locked,
	})
	e.prevCorr = &corr

	target := TargetWeights(sigma, risk.RebalanceBias)
	e.weights = SmoothWeights(e.weights, target, risk.WeightSpeed)

	index := CompositeIndex(e.weights, pricePerGram)
	e.history.RecordIndex(index)

	e.log.Debug().
		Float64("index", index).
		Str("regime", string(e.regime.Current)).
		Float64("weight_speed", risk.WeightSpeed).
		Msg("tick complete")

	if !e.gate.ShouldPublish(now) {
		return nil
	}

	txID, err := e.oracleSink.SetPriceWithMetals(ctx,
		ToMicroUnits(index),
		ToMicroUnits(pricePerGram[domain.XAU]),
		ToMicroUnits(pricePerGram[domain.XAG]),
		ToMicroUnits(pricePerGram[domain.XPT]),
		ToMicroUnits(pricePerGram[domain.XPD]),
	)
	if err != nil {
		e.log.Warn().Err(err).Msg("oracle publish failed")
		return fmt.Errorf("publish index: %w", err)
	}
	e.log.Info().Str("tx", txID).Float64("index", index).Msg("index published")
	return nil
}

// Status is a read-only snapshot of the Engine's current state, intended
// for the daemon's /status endpoint. It has no bearing on any invariant.
type Status struct {
	Weights         map[domain.Metal]float64
	Regime          domain.Regime
	RegimeDuration  int
	LastIndexValue  float64
	LastPublishHour int
}

// Status returns a copy of the Engine's current weights and regime state.
func (e *Engine) Status() Status {
	var lastIndex float64
	if series := e.history.IndexSeries(); len(series) > 0 {
		lastIndex = series[len(series)-1]
	}
	weights := make(map[domain.Metal]float64, len(domain.Metals))
	for _, m := range domain.Metals {
		weights[m] = e.weights[m]
	}
	return Status{
		Weights:         weights,
		Regime:          e.regime.Current,
		RegimeDuration:  e.regime.Duration,
		LastIndexValue:  lastIndex,
		LastPublishHour: e.gate.LastPublishHour(),
	}
}
