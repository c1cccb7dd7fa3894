package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"StockPulse/internal/collector"
	"StockPulse/internal/market"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/scheduler"
)

func fakeQuote(_ context.Context, symbol string, _ *model.Quote) (*model.Quote, error) {
	if symbol == "DOWN" {
		return nil, errors.New("provider down")
	}
	return &model.Quote{Symbol: symbol, Price: 100, PreviousClose: 98}, nil
}

func fakePrediction(_ context.Context, symbol string, _ *model.Prediction) (*model.Prediction, error) {
	return &model.Prediction{Symbol: symbol, Price: 100, Sentiment: model.Neutral, RecommendedAction: model.Hold}, nil
}

func newTestServer(t *testing.T, origins ...string) (*Server, *httptest.Server) {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	quotes := scheduler.NewHub(ctx, "quote", time.Minute, fakeQuote)
	predictions := scheduler.NewHub(ctx, "prediction", time.Minute, fakePrediction)
	trending := market.NewTrendingBoard(&collector.StaticTrending{})
	s := NewServer(quotes, predictions, fakeQuote, fakePrediction, market.NewNewsDesk(nil), trending, origins)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		quotes.Close()
		predictions.Close()
		cancel()
	})
	return s, ts
}

func getJSON(t *testing.T, method, url string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	var body map[string]interface{}
	if code := getJSON(t, "GET", ts.URL+"/api/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestGetQuote(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantView notifier.View
	}{
		{"one-shot fetch", "/api/quote/aapl", http.StatusOK, notifier.ViewReady},
		{"provider failure", "/api/quote/DOWN", http.StatusServiceUnavailable, notifier.ViewError},
		{"invalid symbol", "/api/quote/ABCDEFGHIJKLMNOPQ", http.StatusBadRequest, notifier.ViewError},
		{"refresh unwatched", "/api/quote/MSFT/refresh", http.StatusOK, notifier.ViewReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := "GET"
			if strings.HasSuffix(tt.path, "/refresh") {
				method = "POST"
			}
			var body struct {
				View   notifier.View `json:"view"`
				Symbol string        `json:"symbol"`
				Error  string        `json:"error"`
			}
			code := getJSON(t, method, ts.URL+tt.path, &body)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			if body.View != tt.wantView {
				t.Errorf("view = %q, want %q", body.View, tt.wantView)
			}
			if tt.wantView == notifier.ViewError && body.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestGetQuote_ServesSharedSnapshot(t *testing.T) {
	s, ts := newTestServer(t)
	sub, err := s.Quotes.Subscribe("NVDA")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if snap, ok := s.Quotes.Peek("NVDA"); ok && snap.Status == model.StatusReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("poller never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var body Payload
	if code := getJSON(t, "GET", ts.URL+"/api/quote/nvda", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Status != model.StatusReady || body.LastFetch == nil {
		t.Errorf("payload = %+v", body)
	}
}

func TestGetPrediction(t *testing.T) {
	_, ts := newTestServer(t)
	var body struct {
		View notifier.View    `json:"view"`
		Data model.Prediction `json:"data"`
	}
	if code := getJSON(t, "GET", ts.URL+"/api/prediction/TSLA", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.View != notifier.ViewReady || body.Data.Symbol != "TSLA" {
		t.Errorf("body = %+v", body)
	}
}

func TestNewsAndTrending(t *testing.T) {
	_, ts := newTestServer(t)

	var news struct {
		Articles   []model.Article `json:"articles"`
		IsFallback bool            `json:"isFallback"`
	}
	if code := getJSON(t, "GET", ts.URL+"/api/news", &news); code != http.StatusOK {
		t.Fatalf("market news status = %d", code)
	}
	if !news.IsFallback || len(news.Articles) == 0 {
		t.Errorf("market news = %+v", news)
	}

	if code := getJSON(t, "GET", ts.URL+"/api/news/AAPL", &news); code != http.StatusOK {
		t.Fatalf("company news status = %d", code)
	}
	if !news.IsFallback || len(news.Articles) == 0 {
		t.Errorf("company news = %+v", news)
	}

	var trending struct {
		View   notifier.View         `json:"view"`
		Stocks []model.TrendingStock `json:"stocks"`
		Source string                `json:"source"`
	}
	if code := getJSON(t, "GET", ts.URL+"/api/trending", &trending); code != http.StatusOK {
		t.Fatalf("trending status = %d", code)
	}
	if trending.View != notifier.ViewReady || len(trending.Stocks) != len(collector.DefaultTrending) {
		t.Errorf("trending = %+v", trending)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, "http://app.example")

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/api/quote/AAPL/refresh", nil)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func dialStream(t *testing.T, ts *httptest.Server, symbol string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + symbol
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntilReady reads frames until both a ready quote and a ready
// prediction for symbol have arrived.
func readUntilReady(t *testing.T, conn *websocket.Conn, symbol string) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	seen := map[string]bool{}
	for !seen["quote"] || !seen["prediction"] {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (seen %v)", err, seen)
		}
		if msg.Payload != nil && msg.Payload.Symbol == symbol && msg.Payload.View == notifier.ViewReady {
			seen[msg.Type] = true
		}
	}
}

func TestStream_DeliversSnapshots(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialStream(t, ts, "aapl")
	readUntilReady(t, conn, "AAPL")

	if refs := s.Quotes.Refs("AAPL"); refs != 1 {
		t.Errorf("quote refs = %d, want 1", refs)
	}
}

func TestStream_SwitchSymbol(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialStream(t, ts, "AAPL")
	readUntilReady(t, conn, "AAPL")

	if err := conn.WriteJSON(streamCommand{Type: "symbol", Symbol: "tsla"}); err != nil {
		t.Fatal(err)
	}
	readUntilReady(t, conn, "TSLA")

	if refs := s.Quotes.Refs("AAPL"); refs != 0 {
		t.Errorf("AAPL refs after switch = %d, want 0", refs)
	}
	if refs := s.Predictions.Refs("TSLA"); refs != 1 {
		t.Errorf("TSLA prediction refs = %d, want 1", refs)
	}
}

func TestStream_RejectsBadSymbolCommand(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialStream(t, ts, "AAPL")
	readUntilReady(t, conn, "AAPL")

	if err := conn.WriteJSON(streamCommand{Type: "symbol", Symbol: "not a symbol"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "error" {
			if msg.Error == "" {
				t.Error("empty error frame")
			}
			return
		}
	}
}

func TestStream_ReleasesOnDisconnect(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialStream(t, ts, "AMD")
	readUntilReady(t, conn, "AMD")
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.Quotes.Refs("AMD") != 0 || s.Predictions.Refs("AMD") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriptions not released after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
