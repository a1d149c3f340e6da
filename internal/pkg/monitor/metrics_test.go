package monitor

import (
	"runtime"
	"testing"
)

func TestRecommendedThreadsClampsZeroOrNegativeToOne(t *testing.T) {
	if got := RecommendedThreads(0); got != 1 {
		t.Errorf("RecommendedThreads(0) = %d, want 1", got)
	}
	if got := RecommendedThreads(-5); got != 1 {
		t.Errorf("RecommendedThreads(-5) = %d, want 1", got)
	}
}

func TestRecommendedThreadsCapsAtFourTimesNumCPU(t *testing.T) {
	cap := runtime.NumCPU() * 4
	if got := RecommendedThreads(1_000_000); got != cap {
		t.Errorf("RecommendedThreads(huge) = %d, want %d", got, cap)
	}
}

func TestRecommendedThreadsPassesThroughWithinBound(t *testing.T) {
	if got := RecommendedThreads(1); got != 1 {
		t.Errorf("RecommendedThreads(1) = %d, want 1", got)
	}
}
