package manager

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/connector/fake"
	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/internal/notify"
)

func TestExecuteMessageMatchesCredentialsCaseInsensitively(t *testing.T) {
	ex := fake.New()
	ex.Bid = decimal.NewFromInt(1000)
	ex.Ask = decimal.NewFromInt(1001)

	var connected Credentials
	connect := func(ctx context.Context, cred Credentials) (exchangeapi.Port, error) {
		connected = cred
		return ex, nil
	}

	creds := []Credentials{{Name: "main", Exchange: "Deribit", Key: "k", Secret: "s"}}
	m := New(connect, notify.Noop{}, time.Millisecond, 5*time.Millisecond, creds)

	m.ExecuteMessage(context.Background(), `deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=100); }`)

	if connected.Exchange != "Deribit" {
		t.Fatalf("connected = %+v, want match on Deribit", connected)
	}
	if !ex.InitCalled {
		t.Error("expected Init to be called")
	}
	if ex.LimitCalls != 1 {
		t.Errorf("LimitCalls = %d, want 1", ex.LimitCalls)
	}
}

func TestExecuteMessageSkipsUnmatchedExchange(t *testing.T) {
	connectCalls := 0
	connect := func(ctx context.Context, cred Credentials) (exchangeapi.Port, error) {
		connectCalls++
		return fake.New(), nil
	}
	m := New(connect, notify.Noop{}, time.Millisecond, time.Millisecond, nil)

	m.ExecuteMessage(context.Background(), `bybit(BTC-USD) { marketOrder(side=buy, amount=1); }`)

	if connectCalls != 0 {
		t.Errorf("connect called %d times, want 0 for an unmatched exchange", connectCalls)
	}
}

func TestOpenExchangePoolsByCredentials(t *testing.T) {
	ex := fake.New()
	connect := func(ctx context.Context, cred Credentials) (exchangeapi.Port, error) {
		return ex, nil
	}
	cred := Credentials{Name: "main", Exchange: "deribit"}
	m := New(connect, notify.Noop{}, time.Millisecond, time.Millisecond, []Credentials{cred})

	h1, err := m.openExchange(context.Background(), cred)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := m.openExchange(context.Background(), cred)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("expected the same pooled handle for identical credentials")
	}
	if h1.RefCount() != 2 {
		t.Errorf("refcount = %d, want 2", h1.RefCount())
	}
}
