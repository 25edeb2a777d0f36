// Package api exposes the console view state over JSON/HTTP for a browser
// front end. Rendering is left to the front end.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zklear-console/pkg/actions"
	"zklear-console/pkg/console"
	"zklear-console/pkg/logging"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Console is the controller surface the server drives.
type Console interface {
	Initialize(ctx context.Context) error
	SubmitAccountForm(ctx context.Context, balance string) error
	SubmitTransactionForm(ctx context.Context, form console.TransactionForm) error
	RunBatchProcessing(ctx context.Context) error
	VerifyReceipt(ctx context.Context) error
	RemoveAccountLocally(ctx context.Context, address string, confirmer console.Confirmer) bool
	SetPage(n int) int
	View() console.View
}

// Server serves the console endpoints.
type Server struct {
	console Console
	queue   *actions.Queue
	router  *mux.Router
	server  *http.Server
	config  ServerConfig
	logger  *logging.Logger
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Address to listen on (e.g., ":3000")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections
	IdleTimeout time.Duration

	// OperationTimeout bounds controller calls made inline by a handler.
	// It must stay below WriteTimeout.
	OperationTimeout time.Duration

	// Gatherer backs /metrics. nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:          ":3000",
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     30 * time.Second,
		IdleTimeout:      60 * time.Second,
		OperationTimeout: 25 * time.Second,
	}
}

// NewServer creates the console API server. A nil queue runs batch
// processing inline.
func NewServer(c Console, queue *actions.Queue, config ServerConfig) *Server {
	s := &Server{
		console: c,
		queue:   queue,
		config:  config,
		logger:  logging.L().Named("api"),
	}

	r := mux.NewRouter()
	r.Use(s.requestLogger)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/console/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/console/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/console/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	r.HandleFunc("/console/accounts/{address}", s.handleRemoveAccount).Methods(http.MethodDelete)
	r.HandleFunc("/console/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	r.HandleFunc("/console/batch", s.handleBatch).Methods(http.MethodPost)
	r.HandleFunc("/console/receipt/verify", s.handleVerifyReceipt).Methods(http.MethodPost)
	r.HandleFunc("/console/page/{page:-?[0-9]+}", s.handleSetPage).Methods(http.MethodPut)

	if config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.router = r
	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() error {
	go func() {
		s.logger.Info("console api listening", zap.String("address", s.config.Address))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("console api server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// operationContext detaches controller work from the client connection so a
// dropped request does not abort a mutation halfway.
func (s *Server) operationContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	if s.config.OperationTimeout > 0 {
		return context.WithTimeout(ctx, s.config.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(startTime).String(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.console.View())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.operationContext(r)
	defer cancel()

	s.console.Initialize(ctx)
	writeJSON(w, http.StatusOK, s.console.View())
}

type createAccountBody struct {
	Balance json.RawMessage `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var body createAccountBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()

	s.console.SubmitAccountForm(ctx, formValue(body.Balance))
	writeJSON(w, http.StatusOK, s.console.View())
}

type createTransactionBody struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount json.RawMessage `json:"amount"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var body createTransactionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()

	s.console.SubmitTransactionForm(ctx, console.TransactionForm{
		From:   body.From,
		To:     body.To,
		Amount: formValue(body.Amount),
	})
	writeJSON(w, http.StatusOK, s.console.View())
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		ctx, cancel := s.operationContext(r)
		defer cancel()
		s.console.RunBatchProcessing(ctx)
		writeJSON(w, http.StatusOK, s.console.View())
		return
	}

	err := s.queue.Submit(r.Context(), "process_batch", func(ctx context.Context) error {
		return s.console.RunBatchProcessing(ctx)
	})
	switch {
	case errors.Is(err, actions.ErrQueueFull), errors.Is(err, actions.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusRequestTimeout, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, s.console.View())
}

func (s *Server) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.operationContext(r)
	defer cancel()

	s.console.VerifyReceipt(ctx)
	writeJSON(w, http.StatusOK, s.console.View())
}

// handleRemoveAccount hides an account from the view. The confirm query
// parameter is the operator's answer to the confirmation prompt.
func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	s.console.RemoveAccountLocally(r.Context(), address, console.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		return confirmed
	}))
	writeJSON(w, http.StatusOK, s.console.View())
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	s.console.SetPage(page)
	writeJSON(w, http.StatusOK, s.console.View())
}

// requestLogger tags each request with an id and logs it by route template.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		srw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(srw, r)

		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("route", routeTemplate(r)),
			zap.Int("status", srw.statusCode),
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tpl
}

// formValue turns a JSON string or number into the raw text a form field
// would hold. Anything else becomes an empty field and fails validation.
func formValue(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

var startTime = time.Now()
