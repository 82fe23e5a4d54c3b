package parser

import "testing"

func TestParseMessageScenario1(t *testing.T) {
	msg := `deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=100); } {!} done`
	blocks := ParseMessage(msg)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Exchange != "deribit" || b.Symbol != "BTC-PERPETUAL" {
		t.Errorf("unexpected block header: %+v", b)
	}
	if len(b.Actions) != 1 || b.Actions[0].Name != "limitorder" {
		t.Fatalf("unexpected actions: %+v", b.Actions)
	}
	want := map[string]string{"side": "buy", "amount": "1", "offset": "100"}
	got := map[string]string{}
	for _, p := range b.Actions[0].Params {
		got[p.Name] = p.Value
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseMessageDropsMalformedBlocks(t *testing.T) {
	msg := `deribit() { limitOrder(); } deribit(BTC) {}`
	blocks := ParseMessage(msg)
	if len(blocks) != 0 {
		t.Errorf("expected malformed/empty blocks to be dropped, got %d", len(blocks))
	}
}

func TestParseArgListQuotedValue(t *testing.T) {
	params := parseArgList(`tag="my tag, with comma", side=buy, "positional"`)
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d: %+v", len(params), params)
	}
	if params[0].Name != "tag" || params[0].Value != "my tag, with comma" {
		t.Errorf("unexpected first param: %+v", params[0])
	}
	if params[2].Name != "" || params[2].Value != "positional" {
		t.Errorf("unexpected positional param: %+v", params[2])
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	a := Action{Name: "limitorder", Params: []Param{
		{Name: "side", Value: "buy", Index: 0},
		{Name: "amount", Value: "1", Index: 1},
	}}
	canon := Canonical(a)
	reparsed := parseActions(canon)
	if len(reparsed) != 1 {
		t.Fatalf("expected 1 reparsed action, got %d", len(reparsed))
	}
	if Canonical(reparsed[0]) != canon {
		t.Errorf("round trip mismatch: %q vs %q", Canonical(reparsed[0]), canon)
	}
}
