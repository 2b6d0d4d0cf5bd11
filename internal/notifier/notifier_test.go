package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"StockForecast/internal/config"
	"StockForecast/internal/model"
	"StockForecast/internal/outlook"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Rp 0"},
		{950.4, "Rp 950"},
		{9125.5, "Rp 9,126"},
		{1234567, "Rp 1,234,567"},
		{-4500, "Rp -4,500"},
	}
	for _, tt := range tests {
		if got := FormatRupiah(tt.in); got != tt.want {
			t.Errorf("FormatRupiah(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func sampleForecast() *model.Forecast {
	last := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &model.Forecast{
		Symbol:       "BBCA.JK",
		CanonicalKey: "BBCA",
		Predictions:  []float64{10100, 10200},
		Dates:        []time.Time{last.AddDate(0, 0, 3), last.AddDate(0, 0, 4)},
		LastClose:    10000,
		LastDate:     last,
		Metrics: &model.PriceMetrics{
			CurrentPrice: 10000, DailyChange: 50, DailyChangePct: 0.5,
			High52w: 10500, Low52w: 8500, Volatility: 18.2,
		},
	}
}

func TestFormatForecast(t *testing.T) {
	fc := sampleForecast()
	msg := FormatForecast(fc, outlook.Evaluate(fc))

	for _, want := range []string{
		"BBCA.JK", "2-day forecast", "Rp 10,000", "Rp 10,100", "Rp 10,200",
		"(+1.00%)", "Mon 04 Mar", "Rp 8,500 - Rp 10,500", "increasing",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "⚠️") {
		t.Error("unexpected warning without fallback")
	}
}

func TestFormatForecast_FallbackWarning(t *testing.T) {
	fc := sampleForecast()
	fc.Symbol, fc.FallbackUsed = "GOTO.JK", true
	msg := FormatForecast(fc, outlook.Evaluate(fc))
	if !strings.Contains(msg, "⚠️") || !strings.Contains(msg, "GOTO.JK") {
		t.Errorf("expected fallback warning, got:\n%s", msg)
	}
}

func TestFormatDailyDigest(t *testing.T) {
	a := sampleForecast()
	b := sampleForecast()
	b.Symbol, b.FallbackUsed = "XYZ", true

	msg := FormatDailyDigest(time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), []*model.Forecast{a, b}, []string{"^JKSE"})
	for _, want := range []string{"2024-03-01", "BBCA.JK", "XYZ</b> *", "Skipped: ^JKSE", "fallback scaler"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected digest to contain %q:\n%s", want, msg)
		}
	}

	empty := FormatDailyDigest(time.Now(), nil, nil)
	if !strings.Contains(empty, "No forecasts produced") {
		t.Errorf("expected empty digest notice, got:\n%s", empty)
	}
}

func TestFormatStockListAndHelp(t *testing.T) {
	list := FormatStockList([]config.Stock{{Name: "Bank Central Asia", Ticker: "BBCA.JK"}})
	if !strings.Contains(list, "BBCA.JK - Bank Central Asia") {
		t.Errorf("unexpected stock list:\n%s", list)
	}
	help := FormatHelp(7, 30)
	if !strings.Contains(help, "/predict") || !strings.Contains(help, "max 30") {
		t.Errorf("unexpected help:\n%s", help)
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("abcdefghi\n", 10) // 100 bytes
	parts := splitMessage(text, 35)
	if strings.Join(parts, "") != text {
		t.Error("expected parts to reassemble the original text")
	}
	for i, p := range parts {
		if len(p) > 35 {
			t.Errorf("part %d has %d bytes, limit 35", i, len(p))
		}
	}
	if got := splitMessage("short", 35); len(got) != 1 {
		t.Errorf("expected 1 part, got %d", len(got))
	}
}

type capturedMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func newTestServer(t *testing.T, status int) (*httptest.Server, *[]capturedMessage, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var got []capturedMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		var m capturedMessage
		json.NewDecoder(r.Body).Decode(&m)
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &mu
}

func TestSend(t *testing.T) {
	srv, got, _ := newTestServer(t, http.StatusOK)
	n := &TelegramNotifier{BotToken: "tok", ChatID: "42", APIBase: srv.URL, Client: srv.Client()}

	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*got) != 1 || (*got)[0].ChatID != "42" || (*got)[0].Text != "hello" {
		t.Errorf("unexpected captured messages: %+v", *got)
	}
}

func TestSend_APIError(t *testing.T) {
	srv, _, _ := newTestServer(t, http.StatusBadRequest)
	n := &TelegramNotifier{BotToken: "tok", ChatID: "42", APIBase: srv.URL, Client: srv.Client()}
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Error("expected error on non-200 status")
	}
	if err := n.SendWithRetry(context.Background(), "hello", 0); err == nil {
		t.Error("expected error after retries exhausted")
	}
}

func TestDispatch_RepliesToSenderChat(t *testing.T) {
	srv, got, _ := newTestServer(t, http.StatusOK)
	n := &TelegramNotifier{BotToken: "tok", ChatID: "42", APIBase: srv.URL, Client: srv.Client()}

	var updates []telegramUpdate
	raw := `[{"update_id":7,"message":{"text":" /help ","chat":{"id":99}}},{"update_id":8}]`
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var commands []string
	next := n.dispatch(context.Background(), updates, 0, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "reply"
	})
	if next != 9 {
		t.Errorf("expected next offset 9, got %d", next)
	}
	if len(commands) != 1 || commands[0] != "/help" {
		t.Errorf("expected [/help], got %v", commands)
	}
	if len(*got) != 1 || (*got)[0].ChatID != "99" {
		t.Errorf("expected reply to chat 99, got %+v", *got)
	}
}
