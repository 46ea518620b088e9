// Package api provides the HTTP REST API server for the trading simulator.
//
// It exposes endpoints for account management, order placement, positions,
// fills, quotes, health, Prometheus metrics, and WebSocket streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Marcel-Kempel/Trading-Simulator/internal/broker"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/config"
	"github.com/Marcel-Kempel/Trading-Simulator/internal/metrics"
	"github.com/Marcel-Kempel/Trading-Simulator/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	broker *broker.Broker
	wsHub  *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// It installs itself as the broker's event sink so fills, rejections, and
// forced liquidations reach metrics and WebSocket subscribers.
func NewServer(cfg *config.Config, b *broker.Broker) *Server {
	srv := &Server{
		cfg:    cfg,
		broker: b,
		wsHub:  NewWSHub(),
	}
	b.SetEventSink(srv.onBrokerEvent)
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown. If a refresh
// interval is configured, a background sweep settles cash and accrues fees
// across all accounts on that cadence.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if s.cfg.Refresh.IntervalSec > 0 {
		go s.runRefreshLoop(sweepCtx)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// runRefreshLoop drives the periodic maintenance sweep.
func (s *Server) runRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.Refresh.IntervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.broker.RefreshAll(ctx); err != nil {
				log.Printf("refresh sweep error: %v", err)
			}
		}
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/actuator/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWebSocket)

	r.Post("/accounts", s.handleCreateAccount)
	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetAccount)
		r.Get("/positions", s.handleGetPositions)
		r.Post("/orders", s.handlePlaceOrder)
		r.Get("/orders", s.handleGetOrders)
		r.Get("/fills", s.handleGetFills)
	})

	r.Get("/quotes", s.handleQuote)

	return r
}

// onBrokerEvent feeds engine events into metrics and the WebSocket hub.
// It runs with the originating account's lock held, so it must never call
// back into the broker; Broadcast is non-blocking.
func (s *Server) onBrokerEvent(ev broker.Event) {
	switch ev.Type {
	case broker.EventOrderFilled:
		metrics.RecordFill()
		if o, ok := ev.Payload.(*models.Order); ok {
			metrics.RecordOrder(string(o.Status), string(o.Side), string(o.Type))
		}
	case broker.EventOrderRejected:
		if o, ok := ev.Payload.(*models.Order); ok {
			metrics.RecordOrder(string(o.Status), string(o.Side), string(o.Type))
		}
	case broker.EventForcedLiquidation:
		metrics.RecordForcedLiquidation()
	}
	s.wsHub.Broadcast(WSMessage{Type: ev.Type, Data: ev})
}

// ============================================================
// Request types
// ============================================================

// CreateAccountRequest is the body for POST /accounts.
type CreateAccountRequest struct {
	InitialCapital float64 `json:"initialCapital"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.broker.CreateAccount(req.InitialCapital)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.SetAccounts(s.broker.AccountCount())
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	summary, err := s.broker.GetAccount(chi.URLParam(r, "id"))
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.broker.GetPositions(chi.URLParam(r, "id"))
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// handlePlaceOrder submits a raw order. The request schema is fixed: clients
// cannot reach internal execution flags like the liquidation margin bypass
// because OrderRequest simply has no such field.
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := s.broker.PlaceOrder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	if order.Status == models.OrderRejected {
		writeJSON(w, http.StatusBadRequest, order)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.broker.GetOrders(chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	fills, err := s.broker.GetFills(chi.URLParam(r, "id"))
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fills)
}

// handleQuote serves GET /quotes?symbol=…[&peek=true]. A plain read advances
// the replay cursor; peek=true observes without advancing.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	provider := s.broker.Provider()
	var (
		quote *models.Quote
		err   error
	)
	if r.URL.Query().Get("peek") == "true" {
		quote, err = provider.PeekQuote(symbol)
	} else {
		quote, err = provider.GetQuote(symbol)
	}
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("quote for %s: %v", symbol, err))
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAccountError(w http.ResponseWriter, err error) {
	if errors.Is(err, broker.ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
