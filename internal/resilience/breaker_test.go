package resilience

import (
	"testing"
	"time"
)

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b := NewBreaker("test", 3, time.Second, time.Second)

	b.RecordFailure()
	b.RecordFailure()
	if b.Open() {
		t.Error("breaker should stay closed below the failure threshold")
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := NewBreaker("test", 3, time.Second, time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	if !b.Open() {
		t.Error("breaker should open after threshold consecutive failures")
	}
}

func TestBreaker_ClosesAfterCooldown(t *testing.T) {
	b := NewBreaker("test", 2, time.Second, 30*time.Millisecond)

	b.RecordFailure()
	b.RecordFailure()
	if !b.Open() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(50 * time.Millisecond)
	if b.Open() {
		t.Error("breaker should close after the cooldown passes")
	}
}

func TestBreaker_WindowResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 2, 20*time.Millisecond, time.Second)

	b.RecordFailure()
	// Let the failure window expire so the next failure starts a new streak.
	time.Sleep(40 * time.Millisecond)
	b.RecordFailure()
	if b.Open() {
		t.Error("failures outside the window should not count toward the threshold")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 2, time.Second, time.Second)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	if b.Open() {
		t.Error("a success between failures should reset the streak")
	}
}
