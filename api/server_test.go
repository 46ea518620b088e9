package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Marcel-Kempel/Trading-Simulator/internal/broker"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/config"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/marketdata"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
)

func newTestServer() *Server {
	cfg := config.Default()

	provider := marketdata.NewReplayProvider(marketdata.DefaultDataset(), cfg.Broker.BaseSpreadBps)
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC) // Monday noon
	provider.SetClock(func() time.Time { return now })

	b := broker.New(cfg.Broker, provider)
	b.SetClock(func() time.Time { return now })

	return NewServer(cfg, b)
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createAccount(t *testing.T, srv *Server, capital float64) string {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/accounts", CreateAccountRequest{InitialCapital: capital})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["id"] == "" {
		t.Fatal("create account: empty id")
	}
	return resp["id"]
}

func TestHealth(t *testing.T) {
	srv := newTestServer()

	rec := doRequest(t, srv, http.MethodGet, "/actuator/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["status"] != "UP" {
		t.Errorf("status = %q, want UP", resp["status"])
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	srv := newTestServer()
	id := createAccount(t, srv, 100000)

	rec := doRequest(t, srv, http.MethodGet, "/accounts/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var summary models.AccountSummary
	decodeBody(t, rec, &summary)
	if summary.ID != id {
		t.Errorf("id = %s, want %s", summary.ID, id)
	}
	if summary.Balances.Settled != 100000 {
		t.Errorf("settled = %v, want 100000", summary.Balances.Settled)
	}
}

func TestCreateAccount_BadRequests(t *testing.T) {
	srv := newTestServer()

	rec := doRequest(t, srv, http.MethodPost, "/accounts", CreateAccountRequest{InitialCapital: -10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative capital: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec2.Code)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	srv := newTestServer()

	rec := doRequest(t, srv, http.MethodGet, "/accounts/ACC-nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestOrderFlow(t *testing.T) {
	srv := newTestServer()
	id := createAccount(t, srv, 100000)

	rec := doRequest(t, srv, http.MethodPost, "/accounts/"+id+"/orders", models.OrderRequest{
		Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var order models.Order
	decodeBody(t, rec, &order)
	if order.Status != models.OrderFilled {
		t.Fatalf("status = %s (%s), want FILLED", order.Status, order.Reason)
	}

	rec = doRequest(t, srv, http.MethodGet, "/accounts/"+id+"/positions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("positions: status = %d", rec.Code)
	}
	var positions []models.PositionView
	decodeBody(t, rec, &positions)
	if len(positions) != 1 || positions[0].Quantity != 10 {
		t.Errorf("positions = %+v, want one long 10", positions)
	}

	rec = doRequest(t, srv, http.MethodGet, "/accounts/"+id+"/orders?status=FILLED", nil)
	var orders []models.Order
	decodeBody(t, rec, &orders)
	if len(orders) != 1 {
		t.Errorf("expected 1 filled order, got %d", len(orders))
	}

	rec = doRequest(t, srv, http.MethodGet, "/accounts/"+id+"/fills", nil)
	var fills []models.Fill
	decodeBody(t, rec, &fills)
	if len(fills) != 1 {
		t.Errorf("expected 1 fill, got %d", len(fills))
	}
}

func TestPlaceOrder_RejectionIs400(t *testing.T) {
	srv := newTestServer()
	id := createAccount(t, srv, 1000)

	rec := doRequest(t, srv, http.MethodPost, "/accounts/"+id+"/orders", models.OrderRequest{
		Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	var order models.Order
	decodeBody(t, rec, &order)
	if order.Status != models.OrderRejected {
		t.Errorf("status = %s, want REJECTED", order.Status)
	}
	if order.Reason == "" {
		t.Error("rejected order body must carry a reason")
	}
}

func TestPlaceOrder_UnknownAccountIs404(t *testing.T) {
	srv := newTestServer()

	rec := doRequest(t, srv, http.MethodPost, "/accounts/ACC-nope/orders", models.OrderRequest{
		Symbol: "AAPL", Type: "MARKET", Side: "BUY", Quantity: 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestQuotes(t *testing.T) {
	srv := newTestServer()

	// peek twice: the cursor must not move
	rec := doRequest(t, srv, http.MethodGet, "/quotes?symbol=AAPL&peek=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var q1, q2, q3 models.Quote
	decodeBody(t, rec, &q1)

	rec = doRequest(t, srv, http.MethodGet, "/quotes?symbol=AAPL&peek=true", nil)
	decodeBody(t, rec, &q2)
	if q1.Mid != q2.Mid {
		t.Errorf("peek advanced the cursor: %v then %v", q1.Mid, q2.Mid)
	}

	// a plain read serves the same index, then advances
	rec = doRequest(t, srv, http.MethodGet, "/quotes?symbol=AAPL", nil)
	decodeBody(t, rec, &q3)
	if q3.Mid != q1.Mid {
		t.Errorf("get should serve the peeked index: %v vs %v", q3.Mid, q1.Mid)
	}

	rec = doRequest(t, srv, http.MethodGet, "/quotes?symbol=AAPL&peek=true", nil)
	var q4 models.Quote
	decodeBody(t, rec, &q4)
	if q4.Mid == q1.Mid {
		t.Error("cursor should have advanced after a plain read")
	}
}

func TestQuotes_Errors(t *testing.T) {
	srv := newTestServer()

	rec := doRequest(t, srv, http.MethodGet, "/quotes", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing symbol: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/quotes?symbol=ZZZZ", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown symbol: status = %d, want 404", rec.Code)
	}
}
