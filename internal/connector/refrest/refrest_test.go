package refrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTickerHitsRESTWhenNoStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ticker" {
			t.Errorf("path = %s, want /ticker", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bid":"1000","ask":"1001","last_price":"1000.5"}`))
	}))
	defer srv.Close()

	c := New("test", Credentials{Endpoint: srv.URL}, 10, 10)

	ticker, err := c.Ticker(context.Background(), "BTC-PERP")
	if err != nil {
		t.Fatal(err)
	}
	if !ticker.Bid.IsPositive() {
		t.Errorf("Bid = %s, want positive", ticker.Bid)
	}
}

func TestPlaceOrderReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order-1"}`))
	}))
	defer srv.Close()

	c := New("test", Credentials{Endpoint: srv.URL}, 10, 10)

	id, err := c.placeOrder(context.Background(), map[string]interface{}{"symbol": "BTC-PERP"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "order-1" {
		t.Errorf("id = %q, want order-1", id)
	}
}
