package exprx

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseOffset(t *testing.T) {
	cases := []struct {
		raw      string
		wantKind OffsetKind
		wantVal  string
	}{
		{"100", Ticks, "100"},
		{"1%", Percent, "1"},
		{"@9000", Absolute, "9000"},
	}
	for _, c := range cases {
		got, err := ParseOffset(c.raw)
		if err != nil {
			t.Fatalf("ParseOffset(%q): %v", c.raw, err)
		}
		if got.Kind != c.wantKind {
			t.Errorf("ParseOffset(%q).Kind = %v, want %v", c.raw, got.Kind, c.wantKind)
		}
		want, _ := decimal.NewFromString(c.wantVal)
		if !got.Value.Equal(want) {
			t.Errorf("ParseOffset(%q).Value = %v, want %v", c.raw, got.Value, want)
		}
	}

	if _, err := ParseOffset(""); err == nil {
		t.Error("expected error for empty offset")
	}
	if _, err := ParseOffset("not-a-number"); err == nil {
		t.Error("expected error for malformed offset")
	}
}

func TestOffsetResolveTicks(t *testing.T) {
	off, _ := ParseOffset("100")
	bid := decimal.NewFromInt(1000)
	// sell stop: resolved with the buy side's sign (-1, down) -> 900
	got := off.Resolve(bid, -1)
	if !got.Equal(decimal.NewFromInt(900)) {
		t.Errorf("Resolve = %v, want 900", got)
	}
}

func TestOffsetResolveAbsolute(t *testing.T) {
	off, _ := ParseOffset("@9000")
	got := off.Resolve(decimal.NewFromInt(1000), 1)
	if !got.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("Resolve absolute = %v, want 9000", got)
	}
}

func TestOffsetResolvePercent(t *testing.T) {
	off, _ := ParseOffset("10%")
	got := off.Resolve(decimal.NewFromInt(1000), -1)
	if !got.Equal(decimal.NewFromInt(900)) {
		t.Errorf("Resolve percent = %v, want 900", got)
	}
}

func TestAsTicks(t *testing.T) {
	got := AsTicks(decimal.NewFromInt(1000), decimal.NewFromInt(900))
	if !got.Value.Equal(decimal.NewFromInt(100)) {
		t.Errorf("AsTicks = %v, want 100", got.Value)
	}
}
