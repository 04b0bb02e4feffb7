package clock

import (
	"testing"
	"time"
)

// システムクロックが設定タイムゾーンで現在時刻を返すことを検証
func TestSystemClock(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	clk := NewSystem(loc)

	if clk.Location() != loc {
		t.Errorf("Location() = %v, want %v", clk.Location(), loc)
	}

	now := clk.Now()
	if now.Location() != loc {
		t.Errorf("Now().Location() = %v, want %v", now.Location(), loc)
	}
	if time.Since(now) > time.Minute {
		t.Errorf("Now() = %v is not close to the current time", now)
	}
}

// 固定クロックが常に同一時刻を返すことを検証
func TestFixedClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, loc)

	clk := NewFixed(fixed, loc)

	if !clk.Now().Equal(fixed) {
		t.Errorf("Now() = %v, want %v", clk.Now(), fixed)
	}
	if !clk.Now().Equal(clk.Now()) {
		t.Error("Now() must be stable across calls")
	}
	if clk.Location() != loc {
		t.Errorf("Location() = %v, want %v", clk.Location(), loc)
	}
}

// UTCで渡した固定時刻が設定タイムゾーンに変換されることを検証
func TestFixedClock_ConvertsToLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	utc := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)

	clk := NewFixed(utc, loc)

	now := clk.Now()
	if now.Location() != loc {
		t.Errorf("Now().Location() = %v, want %v", now.Location(), loc)
	}
	if now.Hour() != 12 {
		t.Errorf("Now().Hour() = %d, want 12 (EST)", now.Hour())
	}
}
