package exprx

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"20s", 20 * time.Second},
		{"20", 20 * time.Second},
		{"5m", 5 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.raw)
		if err != nil {
			t.Fatalf("ParseDuration(%q): %v", c.raw, err)
		}
		if got != c.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", c.raw, got, c.want)
		}
	}

	if _, err := ParseDuration(""); err == nil {
		t.Error("expected error for empty duration")
	}
}
