package model

import (
	"math"
	"testing"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		change, prevClose, want float64
	}{
		{5, 100, 5},
		{-2.5, 50, -5},
		{3, 0, 0},
		{3, -10, 0},
	}
	for _, tt := range tests {
		got := PercentChange(tt.change, tt.prevClose)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PercentChange(%v, %v) = %v, want %v", tt.change, tt.prevClose, got, tt.want)
		}
	}
}

func TestQuoteRecalculate(t *testing.T) {
	q := &Quote{Price: 110, Change: 10, PreviousClose: 100, PercentChange: 42}
	q.Recalculate()
	if q.PercentChange != 10 {
		t.Errorf("expected 10%%, got %v", q.PercentChange)
	}
}

func TestSentimentAction(t *testing.T) {
	tests := map[Sentiment]Action{
		Bullish:        Buy,
		Bearish:        Sell,
		Neutral:        Hold,
		Sentiment("?"): Hold,
	}
	for s, want := range tests {
		if got := s.Action(); got != want {
			t.Errorf("%s.Action() = %s, want %s", s, got, want)
		}
	}
}
