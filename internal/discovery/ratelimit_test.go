package discovery

import (
	"context"
	"testing"
)

func TestAdaptiveLimiterIncrease(t *testing.T) {
	l := NewAdaptiveLimiter(10, 1, 20)

	for i := 0; i < 10; i++ {
		l.OnSuccess()
	}
	if l.CurrentLimit() != 11 {
		t.Errorf("expected limit to increase to 11, got %d", l.CurrentLimit())
	}

	for i := 0; i < 11; i++ {
		l.OnSuccess()
	}
	if l.CurrentLimit() != 12 {
		t.Errorf("expected limit to increase to 12, got %d", l.CurrentLimit())
	}
}

func TestAdaptiveLimiterDecrease(t *testing.T) {
	l := NewAdaptiveLimiter(100, 1, 200)

	l.OnFailure()
	if l.CurrentLimit() != 70 {
		t.Errorf("expected limit to decrease to 70, got %d", l.CurrentLimit())
	}
}

func TestAdaptiveLimiterAcquireRelease(t *testing.T) {
	l := NewAdaptiveLimiter(2, 1, 10)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case <-l.sem:
		t.Fatal("a third acquire should have nothing to take")
	default:
	}

	l.Release()

	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestAdaptiveLimiterDynamicAdjustment(t *testing.T) {
	l := NewAdaptiveLimiter(5, 1, 100)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Acquire(ctx)
	}

	l.OnFailure()
	if l.CurrentLimit() != 3 {
		t.Errorf("expected limit to drop to 3, got %d", l.CurrentLimit())
	}
	if l.reductionNeeded != 2 {
		t.Errorf("expected reductionNeeded 2, got %d", l.reductionNeeded)
	}

	l.Release()
	if l.reductionNeeded != 1 {
		t.Errorf("expected reductionNeeded 1 after one release, got %d", l.reductionNeeded)
	}
	select {
	case <-l.sem:
		t.Fatal("the released token should have been destroyed, not returned")
	default:
	}

	l.Release()
	if l.reductionNeeded != 0 {
		t.Errorf("expected reductionNeeded 0, got %d", l.reductionNeeded)
	}

	l.Release()
	select {
	case <-l.sem:
	default:
		t.Fatal("expected the channel to hold one returned token")
	}
}
