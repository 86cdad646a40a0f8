package engine

import (
	"math"
	"time"
)

// microUnit is the fixed-point scale the oracle sink publishes values at
//: USD values are multiplied by 1e6 and rounded to an integer.
const microUnit = 1_000_000

// discoveryMinuteWindow is how many minutes into a configured publish hour
// the gate stays open.
const discoveryMinuteWindow = 10

// PublicationGate implements the Publication Gate: during
// the discovery phase, publishing is allowed only once per configured UTC
// hour, within the first discoveryMinuteWindow minutes of it. Outside the
// discovery phase every tick publishes.
type PublicationGate struct {
	publishHoursUTC map[int]bool
	discoveryPhase  bool
	lastPublishHour int
}

// NewPublicationGate builds a gate with no hour yet published this run.
func NewPublicationGate(publishHoursUTC map[int]bool, discoveryPhase bool) *PublicationGate {
	return &PublicationGate{
		publishHoursUTC: publishHoursUTC,
		discoveryPhase:  discoveryPhase,
		lastPublishHour: -1,
	}
}

// ShouldPublish decides whether `now` should trigger a publish, and if so
// records the hour so the same hour cannot publish twice.
func (g *PublicationGate) ShouldPublish(now time.Time) bool {
	if !g.discoveryPhase {
		return true
	}
	utc := now.UTC()
	hour, minute := utc.Hour(), utc.Minute()
	if !g.publishHoursUTC[hour] || minute >= discoveryMinuteWindow || g.lastPublishHour == hour {
		return false
	}
	g.lastPublishHour = hour
	return true
}

// LastPublishHour reports the UTC hour last published in, or -1 if none yet.
func (g *PublicationGate) LastPublishHour() int {
	return g.lastPublishHour
}

// ToMicroUnits converts a non-negative USD value to the oracle's integer
// micro-unit representation, round-half-away-from-zero.
func ToMicroUnits(usd float64) uint64 {
	if usd <= 0 {
		return 0
	}
	return uint64(math.Floor(usd*microUnit + 0.5))
}
