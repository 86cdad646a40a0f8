package engine

import "github.com/preciousmetals/indexd/internal/domain"

// MaxHistoryPoints bounds each metal's per-tick price ring.
const MaxHistoryPoints = 288

// MaxIndexHistory bounds the composite index series, 14 days of 5-minute
// ticks.
const MaxIndexHistory = MaxHistoryPoints * 14

// HistoryStore holds the bounded price rings for each metal plus the
// composite index series. It has no persistence: restart means empty
// history.
type HistoryStore struct {
	prices map[domain.Metal][]domain.PricePoint
	index  []float64
}

// NewHistoryStore returns an empty store with a ring pre-seeded for every
// metal in the fixed universe.
func NewHistoryStore() *HistoryStore {
	h := &HistoryStore{prices: make(map[domain.Metal][]domain.PricePoint, len(domain.Metals))}
	for _, m := range domain.Metals {
		h.prices[m] = nil
	}
	return h
}

// RecordPrice appends a (timestamp, price-per-gram) sample, dropping the
// oldest entry once the ring exceeds MaxHistoryPoints. Non-positive prices
// are never recorded.
func (h *HistoryStore) RecordPrice(metal domain.Metal, timestampMS int64, pricePerGram float64) {
	if pricePerGram <= 0 {
		return
	}
	series := append(h.prices[metal], domain.PricePoint{TimestampMS: timestampMS, Price: pricePerGram})
	if len(series) > MaxHistoryPoints {
		series = series[len(series)-MaxHistoryPoints:]
	}
	h.prices[metal] = series
}

// RecordIndex appends one composite index value, dropping the oldest entry
// once the series exceeds MaxIndexHistory.
func (h *HistoryStore) RecordIndex(value float64) {
	h.index = append(h.index, value)
	if len(h.index) > MaxIndexHistory {
		h.index = h.index[len(h.index)-MaxIndexHistory:]
	}
}

// History returns the current ring for one metal, oldest first.
func (h *HistoryStore) History(metal domain.Metal) []domain.PricePoint {
	return h.prices[metal]
}

// IndexSeries returns the composite index series, oldest first.
func (h *HistoryStore) IndexSeries() []float64 {
	return h.index
}
