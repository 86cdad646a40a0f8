package engine

import (
	"testing"
	"time"
)

func TestPublicationGate_OutsideDiscoveryAlwaysPublishes(t *testing.T) {
	g := NewPublicationGate(map[int]bool{0: true}, false)
	for i := 0; i < 3; i++ {
		now := time.Date(2026, 1, 1, 7, i, 0, 0, time.UTC)
		if !g.ShouldPublish(now) {
			t.Fatalf("tick %d: ShouldPublish() = false, want true outside discovery phase", i)
		}
	}
}

func TestPublicationGate_OnlyInConfiguredHourAndWindow(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"wrong hour", time.Date(2026, 1, 1, 7, 5, 0, 0, time.UTC), false},
		{"right hour, within window", time.Date(2026, 1, 1, 0, 3, 0, 0, time.UTC), true},
		{"right hour, past window", time.Date(2026, 1, 1, 12, 11, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewPublicationGate(map[int]bool{0: true, 12: true}, true)
			if got := g.ShouldPublish(tt.at); got != tt.want {
				t.Errorf("ShouldPublish(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestPublicationGate_OncePerHour(t *testing.T) {
	g := NewPublicationGate(map[int]bool{0: true}, true)
	first := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	second := time.Date(2026, 1, 1, 0, 7, 0, 0, time.UTC)
	if !g.ShouldPublish(first) {
		t.Fatalf("first ShouldPublish() = false, want true")
	}
	if g.ShouldPublish(second) {
		t.Fatalf("second ShouldPublish() within the same hour = true, want false")
	}
	if g.LastPublishHour() != 0 {
		t.Errorf("LastPublishHour() = %d, want 0", g.LastPublishHour())
	}
}

func TestToMicroUnits(t *testing.T) {
	tests := []struct {
		name string
		usd  float64
		want uint64
	}{
		{"zero", 0, 0},
		{"negative clamps to zero", -5, 0},
		{"exact", 61.5, 61_500_000},
		{"rounds half up", 1.0000005, 1_000_001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMicroUnits(tt.usd); got != tt.want {
				t.Errorf("ToMicroUnits(%v) = %d, want %d", tt.usd, got, tt.want)
			}
		})
	}
}
