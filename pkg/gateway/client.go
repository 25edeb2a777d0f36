// Package gateway is the HTTP client for the remote ledger service.
//
// Each exported method performs exactly one round trip and decodes the
// response into a ledger contract type. The client never caches and never
// retries; non-idempotent calls in particular are sent at most once. Any call
// that does not yield a decoded value fails with a *TransportError. A decoded
// success:false payload is returned as-is for the caller to interpret.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"zklear-console/pkg/ledger"
	"zklear-console/pkg/logging"
	"zklear-console/pkg/metrics"
	"zklear-console/pkg/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the local development address of the ledger service.
	DefaultBaseURL = "http://localhost:8081"

	// DefaultTimeout bounds every call unless overridden.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries the per-call correlation id.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 8 << 20
	errBodyBytes = 256
)

// Config holds the transport settings of a Client. It is passed in explicitly;
// the client reads nothing from the process environment.
type Config struct {
	// BaseURL is the ledger service address, e.g. "http://localhost:8081"
	BaseURL string

	// Timeout bounds each call. Default: 10s
	Timeout time.Duration

	// BatchTimeout bounds batch processing and receipt verification, which
	// generate or check proofs. Default: Timeout
	BatchTimeout time.Duration

	// Routes selects the path set. Default: CanonicalRoutes()
	Routes Routes

	// Breaker configures fail-fast behavior while the service is unreachable.
	Breaker resilience.BreakerConfig

	// HTTPClient overrides the underlying client (tests, custom transports).
	HTTPClient *http.Client
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		BatchTimeout: DefaultTimeout,
		Routes:       CanonicalRoutes(),
		Breaker:      resilience.DefaultBreakerConfig(),
	}
}

// Client talks to the ledger service.
type Client struct {
	baseURL      string
	timeout      time.Duration
	batchTimeout time.Duration
	routes       Routes
	httpClient   *http.Client
	breaker      *resilience.Breaker
	metrics      metrics.MetricsCollector
	logger       *logging.Logger
	tracer       trace.Tracer
}

// NewClient creates a client without metrics.
func NewClient(config Config) (*Client, error) {
	return NewClientWithMetrics(config, metrics.NoOpCollector{})
}

// NewClientWithMetrics creates a client reporting every round trip to the collector.
func NewClientWithMetrics(config Config, metricsCollector metrics.MetricsCollector) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("gateway: base url %q must start with http:// or https://", config.BaseURL)
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NoOpCollector{}
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = config.Timeout
	}
	if config.Routes == (Routes{}) {
		config.Routes = CanonicalRoutes()
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	breakerConfig := config.Breaker
	if breakerConfig.IsSuccessful == nil {
		breakerConfig.IsSuccessful = reachable
	}

	logger := logging.L().Named("gateway")
	logger.Info("ledger gateway initialized",
		zap.String("base_url", base),
		zap.Duration("timeout", config.Timeout),
		zap.Duration("batch_timeout", config.BatchTimeout),
		zap.Bool("breaker", breakerConfig.Enabled),
	)

	return &Client{
		baseURL:      base,
		timeout:      config.Timeout,
		batchTimeout: config.BatchTimeout,
		routes:       config.Routes,
		httpClient:   httpClient,
		breaker:      resilience.NewBreakerWithMetrics("ledger", breakerConfig, metricsCollector),
		metrics:      metricsCollector,
		logger:       logger,
		tracer:       otel.Tracer("zklear-console/gateway"),
	}, nil
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState reports whether calls are currently reaching the service.
func (c *Client) BreakerState() metrics.CircuitState {
	return c.breaker.State()
}

// FetchSystemSnapshot retrieves the aggregate ledger summary.
func (c *Client) FetchSystemSnapshot(ctx context.Context) (ledger.SystemSnapshot, error) {
	var out ledger.SystemSnapshot
	err := c.do(ctx, "fetch_system_snapshot", http.MethodGet, c.routes.SystemInfo, c.timeout, nil, &out)
	return out, err
}

// FetchAccounts retrieves every account in server order.
func (c *Client) FetchAccounts(ctx context.Context) ([]ledger.Account, error) {
	var out []ledger.Account
	if err := c.do(ctx, "fetch_accounts", http.MethodGet, c.routes.Accounts, c.timeout, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []ledger.Account{}
	}
	return out, nil
}

// CreateAccount creates an account. An empty address asks the service to
// generate one; a non-empty address is passed through verbatim.
func (c *Client) CreateAccount(ctx context.Context, balance uint64, address string) (ledger.CreateAccountResponse, error) {
	path := c.routes.CreateAccountRandom
	if address != "" {
		path = c.routes.CreateAccountWithAddress
	}

	var out ledger.CreateAccountResponse
	err := c.do(ctx, "create_account", http.MethodPost, path, c.timeout,
		ledger.CreateAccountRequest{Address: address, Balance: balance}, &out)
	return out, err
}

// FetchTransactions retrieves the pending transactions.
func (c *Client) FetchTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	if err := c.do(ctx, "fetch_transactions", http.MethodGet, c.routes.Transactions, c.timeout, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []ledger.Transaction{}
	}
	return out, nil
}

// CreateTransaction queues a transfer. Nonce and signature are assigned by the service.
func (c *Client) CreateTransaction(ctx context.Context, req ledger.CreateTransactionRequest) (ledger.CreateTransactionResponse, error) {
	var out ledger.CreateTransactionResponse
	err := c.do(ctx, "create_transaction", http.MethodPost, c.routes.CreateTransaction, c.timeout, req, &out)
	return out, err
}

// ProcessBatch asks the service to prove and apply every pending transaction.
func (c *Client) ProcessBatch(ctx context.Context) (ledger.BatchResponse, error) {
	var out ledger.BatchResponse
	err := c.do(ctx, "process_batch", http.MethodPost, c.routes.ProcessBatch, c.batchTimeout, nil, &out)
	return out, err
}

// VerifyReceipt asks the service to verify the most recently generated receipt.
func (c *Client) VerifyReceipt(ctx context.Context) (ledger.VerifyReceiptResponse, error) {
	var out ledger.VerifyReceiptResponse
	err := c.do(ctx, "verify_receipt", http.MethodPost, c.routes.VerifyReceipt, c.batchTimeout, nil, &out)
	return out, err
}

// do runs one traced, metered round trip through the breaker.
func (c *Client) do(ctx context.Context, op, method, path string, timeout time.Duration, body, out any) error {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "ledger."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var status int
	err := c.breaker.Execute(func() error {
		var callErr error
		status, callErr = c.roundTrip(ctx, method, path, timeout, requestID, body, out)
		return callErr
	})
	duration := time.Since(start)

	if err != nil {
		terr := &TransportError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: status,
			RequestID:  requestID,
			Err:        err,
		}
		span.RecordError(terr)
		span.SetStatus(codes.Error, ClassifyError(terr))
		c.metrics.RecordRequest(op, ClassifyError(terr), duration)
		c.logger.Warn("ledger call failed",
			zap.String("operation", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("request_id", requestID),
			zap.String("error_class", ClassifyError(terr)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return terr
	}

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	c.metrics.RecordRequest(op, "ok", duration)
	c.logger.Debug("ledger call completed",
		zap.String("operation", op),
		zap.Int("status", status),
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, timeout time.Duration, requestID string, body, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, classifyNetError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, classifyNetError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &statusError{code: resp.StatusCode, body: snippet(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return resp.StatusCode, nil
}

func classifyNetError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > errBodyBytes {
		s = s[:errBodyBytes] + "..."
	}
	return s
}
