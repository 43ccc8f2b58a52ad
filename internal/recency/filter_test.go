package recency

import (
	"testing"
	"time"

	"leadscout-engine/internal/domain"
)

func aged(days float64, known bool) domain.ClassifiedCandidate {
	return domain.ClassifiedCandidate{AgeDays: days, AgeKnown: known}
}

func TestKeep(t *testing.T) {
	window := 30 * 24 * time.Hour
	tests := []struct {
		name string
		c    domain.ClassifiedCandidate
		want bool
	}{
		{"fresh", aged(1, true), true},
		{"on the boundary", aged(30, true), true},
		{"45 days old", aged(45, true), false},
		{"unknown age", aged(0, false), true},
		{"unknown age with junk days", aged(400, false), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Keep(tt.c, window)
			if got != tt.want {
				t.Errorf("Keep = %v (%s), want %v", got, reason, tt.want)
			}
		})
	}
}

func TestDefaultWindow(t *testing.T) {
	if ok, _ := Keep(aged(29, true), 0); !ok {
		t.Error("29 days should pass the default window")
	}
	if ok, _ := Keep(aged(31, true), 0); ok {
		t.Error("31 days should fail the default window")
	}
}

func TestSplit(t *testing.T) {
	in := []domain.ClassifiedCandidate{aged(2, true), aged(60, true), aged(0, false)}
	kept, dropped := Split(in, 30*24*time.Hour)
	if len(kept) != 2 || len(dropped) != 1 {
		t.Fatalf("expected 2 kept and 1 dropped, got %d and %d", len(kept), len(dropped))
	}
	if kept[1].AgeKnown {
		t.Error("unknown-age candidate should be kept, in order")
	}
}
