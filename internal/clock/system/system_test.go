package system

import (
	"testing"
	"time"
)

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestClockNowIn(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	got := NewIn(loc).Now()
	if got.Location() != loc {
		t.Fatalf("expected %v, got %v", loc, got.Location())
	}
	if NewIn(nil).Now().Location() != time.UTC {
		t.Fatal("nil location should fall back to UTC")
	}
}

func TestClockNowMonotonic(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}

func TestZeroClock(t *testing.T) {
	t.Parallel()

	var clk *Clock
	if clk.Now().Location() != time.UTC {
		t.Fatal("nil clock should report UTC")
	}
}
