// Package console holds the view state of the operator console and the
// operations that mutate it by calling the ledger gateway.
//
// A refresh round fetches the system snapshot, the account list and the
// pending transactions concurrently and commits them together or not at all.
// Network calls run outside the state lock; results are committed under it.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"zklear-console/pkg/ledger"
	"zklear-console/pkg/logging"
	"zklear-console/pkg/metrics"
	"zklear-console/pkg/pagination"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultItemsPerPage is the account list page size.
const DefaultItemsPerPage = 10

// Messages shown to the operator.
const (
	MsgAccountCreated     = "Account created successfully!"
	MsgTransactionCreated = "Transaction created successfully!"
	MsgBatchProcessed     = "Batch processed successfully!"
	MsgAccountHidden      = "Account hidden from this view. It reappears on the next refresh."
	MsgInvalidBalance     = "Please enter a valid balance"
	MsgInvalidAmount      = "Please enter a valid amount"
	MsgMissingAddresses   = "Please enter both sender and recipient addresses"

	// ConfirmRemovePrompt is the question put to the Confirmer before hiding an account.
	ConfirmRemovePrompt = "Are you sure you want to delete this account?"
)

// Gateway is the subset of the ledger client the controller needs.
type Gateway interface {
	FetchSystemSnapshot(ctx context.Context) (ledger.SystemSnapshot, error)
	FetchAccounts(ctx context.Context) ([]ledger.Account, error)
	CreateAccount(ctx context.Context, balance uint64, address string) (ledger.CreateAccountResponse, error)
	FetchTransactions(ctx context.Context) ([]ledger.Transaction, error)
	CreateTransaction(ctx context.Context, req ledger.CreateTransactionRequest) (ledger.CreateTransactionResponse, error)
	ProcessBatch(ctx context.Context) (ledger.BatchResponse, error)
	VerifyReceipt(ctx context.Context) (ledger.VerifyReceiptResponse, error)
}

// Confirmer answers a blocking yes/no prompt.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector metrics.MetricsCollector) Option {
	return func(c *Controller) {
		if collector != nil {
			c.metrics = collector
		}
	}
}

// WithItemsPerPage overrides the page size.
func WithItemsPerPage(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.itemsPerPage = n
		}
	}
}

// Controller owns the console view state. It is safe for concurrent use.
type Controller struct {
	gw           Gateway
	logger       *logging.Logger
	metrics      metrics.MetricsCollector
	itemsPerPage int

	mu sync.Mutex

	// settled is the phase of the last operation to finish; Loading is
	// reported on top of it while refreshes are in flight.
	settled  Phase
	inflight int

	// round numbers issued and last settled, used to drop stale refreshes
	issued     uint64
	lastSettle uint64

	hasSnapshot  bool
	snapshot     ledger.SystemSnapshot
	accounts     []ledger.Account
	transactions []ledger.Transaction

	errorMessage   string
	successMessage string
	currentPage    int

	accountForm string
	txForm      TransactionForm

	batchResult *BatchResult
}

// New creates a controller in the Idle phase.
func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:           gw,
		logger:       logging.L().Named("console"),
		metrics:      metrics.NoOpCollector{},
		itemsPerPage: DefaultItemsPerPage,
		settled:      PhaseIdle,
		accounts:     []ledger.Account{},
		transactions: []ledger.Transaction{},
		currentPage:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize runs one refresh round. The three fetches run concurrently and
// all of them settle before anything is committed. If any fails, the
// previously displayed data is kept and the error message names every
// failure. A round that settles after a newer round is discarded.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	round := c.issued
	c.inflight++
	c.mu.Unlock()

	start := time.Now()

	var (
		snapshot     ledger.SystemSnapshot
		accounts     []ledger.Account
		transactions []ledger.Transaction
		errs         [3]error
	)

	// Plain group: a failed fetch must not cancel its siblings, the round
	// waits for all three either way.
	var g errgroup.Group
	g.Go(func() error {
		snapshot, errs[0] = c.gw.FetchSystemSnapshot(ctx)
		return errs[0]
	})
	g.Go(func() error {
		accounts, errs[1] = c.gw.FetchAccounts(ctx)
		return errs[1]
	})
	g.Go(func() error {
		transactions, errs[2] = c.gw.FetchTransactions(ctx)
		return errs[2]
	})
	g.Wait()

	err := multierr.Combine(errs[0], errs[1], errs[2])
	duration := time.Since(start)
	c.metrics.RecordRefresh(err == nil, duration)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if round < c.lastSettle {
		c.logger.Debug("discarding stale refresh round",
			zap.Uint64("round", round),
			zap.Uint64("latest", c.lastSettle),
		)
		return err
	}
	c.lastSettle = round

	if err != nil {
		c.setErrorLocked(fmt.Sprintf("Failed to load data: %v. Make sure the API server is running.", err))
		c.logger.Warn("refresh failed",
			zap.String("error_kind", KindTransport),
			zap.Int("failures", len(multierr.Errors(err))),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return err
	}

	if accounts == nil {
		accounts = []ledger.Account{}
	}
	if transactions == nil {
		transactions = []ledger.Transaction{}
	}
	c.hasSnapshot = true
	c.snapshot = snapshot
	c.accounts = accounts
	c.transactions = transactions
	c.errorMessage = ""
	c.settled = PhaseReady
	c.currentPage = pagination.Clamp(c.currentPage, len(c.accounts), c.itemsPerPage)

	c.logger.Debug("refresh committed",
		zap.Uint64("round", round),
		zap.Int("accounts", len(accounts)),
		zap.Int("transactions", len(transactions)),
		zap.String("root", snapshot.CurrentRoot),
		zap.Duration("duration", duration),
	)
	return nil
}

// SetAccountForm replaces the account-creation balance buffer.
func (c *Controller) SetAccountForm(balance string) {
	c.mu.Lock()
	c.accountForm = balance
	c.mu.Unlock()
}

// SetTransactionForm replaces the transaction-creation buffer.
func (c *Controller) SetTransactionForm(form TransactionForm) {
	c.mu.Lock()
	c.txForm = form
	c.mu.Unlock()
}

// SubmitAccountCreation validates the balance buffer and creates an account
// at a server-generated address. On success the form is cleared and a refresh
// follows; its error, if any, is returned.
func (c *Controller) SubmitAccountCreation(ctx context.Context) error {
	c.mu.Lock()
	raw := c.accountForm
	c.mu.Unlock()

	return c.createAccount(ctx, raw)
}

// SubmitAccountForm stores balance in the form buffer and submits that same
// value. Concurrent callers never submit each other's input.
func (c *Controller) SubmitAccountForm(ctx context.Context, balance string) error {
	c.SetAccountForm(balance)
	return c.createAccount(ctx, balance)
}

func (c *Controller) createAccount(ctx context.Context, raw string) error {
	const op = "create_account"

	balance, err := parsePositive("balance", raw, MsgInvalidBalance)
	if err != nil {
		return c.fail(op, "", err)
	}

	resp, err := c.gw.CreateAccount(ctx, balance, "")
	if err != nil {
		return c.fail(op, "Failed to create account: ", err)
	}
	if !resp.Success {
		return c.fail(op, "", &ApplicationError{Op: op, Message: resp.Message})
	}

	c.mu.Lock()
	// A newer input typed meanwhile stays in the buffer.
	if c.accountForm == raw {
		c.accountForm = ""
	}
	c.setSuccessLocked(MsgAccountCreated)
	c.mu.Unlock()

	fields := []zap.Field{zap.Uint64("balance", balance)}
	if resp.Account != nil {
		fields = append(fields, zap.String("address", ledger.ShortAddress(resp.Account.Address)))
	}
	c.succeed(op, fields...)

	return c.Initialize(ctx)
}

// SubmitTransactionCreation validates the transaction buffer and queues a
// transfer. Address format is left to the ledger service.
func (c *Controller) SubmitTransactionCreation(ctx context.Context) error {
	c.mu.Lock()
	form := c.txForm
	c.mu.Unlock()

	return c.createTransaction(ctx, form)
}

// SubmitTransactionForm stores form in the transaction buffer and submits
// that same value.
func (c *Controller) SubmitTransactionForm(ctx context.Context, form TransactionForm) error {
	c.SetTransactionForm(form)
	return c.createTransaction(ctx, form)
}

func (c *Controller) createTransaction(ctx context.Context, form TransactionForm) error {
	const op = "create_transaction"

	amount, err := parsePositive("amount", form.Amount, MsgInvalidAmount)
	if err != nil {
		return c.fail(op, "", err)
	}
	from := strings.TrimSpace(form.From)
	to := strings.TrimSpace(form.To)
	if from == "" || to == "" {
		return c.fail(op, "", &ValidationError{Field: "address", Reason: MsgMissingAddresses})
	}
	// Format is the server's call; malformed input is only flagged in logs.
	if !ledger.IsAddress(from) || !ledger.IsAddress(to) {
		c.logger.Debug("transaction addresses look malformed",
			zap.String("from", ledger.ShortAddress(from)),
			zap.String("to", ledger.ShortAddress(to)),
		)
	}

	resp, err := c.gw.CreateTransaction(ctx, ledger.CreateTransactionRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return c.fail(op, "Failed to create transaction: ", err)
	}
	if !resp.Success {
		return c.fail(op, "", &ApplicationError{Op: op, Message: resp.Message})
	}

	c.mu.Lock()
	if c.txForm == form {
		c.txForm = TransactionForm{}
	}
	c.setSuccessLocked(MsgTransactionCreated)
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("from", ledger.ShortAddress(from)),
		zap.String("to", ledger.ShortAddress(to)),
		zap.Uint64("amount", amount),
	}
	if resp.Transaction != nil {
		fields = append(fields, zap.Uint64("nonce", resp.Transaction.Nonce))
	}
	c.succeed(op, fields...)

	return c.Initialize(ctx)
}

// RunBatchProcessing asks the service to prove and apply the pending
// transactions. Success replaces the batch result and refreshes; any failure
// clears the batch result.
func (c *Controller) RunBatchProcessing(ctx context.Context) error {
	const op = "process_batch"

	resp, err := c.gw.ProcessBatch(ctx)
	if err == nil && !resp.Success {
		err = &ApplicationError{Op: op, Message: resp.Message}
	}
	if err != nil {
		c.mu.Lock()
		c.batchResult = nil
		c.mu.Unlock()
		prefix := ""
		if !IsApplication(err) {
			prefix = "Failed to process batch: "
		}
		return c.fail(op, prefix, err)
	}

	result := &BatchResult{ReceiptSaved: resp.ReceiptSaved}
	if resp.ProcessedCount != nil {
		result.ProcessedCount = *resp.ProcessedCount
	}
	if resp.NewRoot != nil {
		result.NewRoot = *resp.NewRoot
	}

	c.mu.Lock()
	c.batchResult = result
	c.setSuccessLocked(MsgBatchProcessed)
	c.mu.Unlock()

	c.succeed(op,
		zap.Uint32("processed", result.ProcessedCount),
		zap.String("new_root", result.NewRoot),
		zap.Bool("receipt_saved", result.ReceiptSaved),
	)

	return c.Initialize(ctx)
}

// VerifyReceipt asks the service to verify the most recent receipt. The
// outcome is reported through the messages only; the batch result is untouched.
func (c *Controller) VerifyReceipt(ctx context.Context) error {
	const op = "verify_receipt"

	resp, err := c.gw.VerifyReceipt(ctx)
	if err != nil {
		return c.fail(op, "Failed to verify receipt: ", err)
	}
	if !resp.Success {
		return c.fail(op, "", &ApplicationError{Op: op, Message: resp.Message})
	}

	msg := resp.Message
	if msg == "" {
		msg = "Receipt verified successfully!"
	}
	if resp.ProcessedCount != nil {
		msg += fmt.Sprintf(" Processed transactions: %d.", *resp.ProcessedCount)
	}
	if resp.NewRoot != nil && *resp.NewRoot != "" {
		msg += fmt.Sprintf(" Root: %s.", *resp.NewRoot)
	}

	c.mu.Lock()
	c.setSuccessLocked(msg)
	c.mu.Unlock()

	c.succeed(op)
	return nil
}

// RemoveAccountLocally hides the first account matching address from this
// view after the confirmer agrees. Nothing is sent to the ledger service and
// the account comes back on the next refresh. It reports whether an entry was
// removed; an unknown address or a declined prompt is not an error.
func (c *Controller) RemoveAccountLocally(ctx context.Context, address string, confirmer Confirmer) bool {
	const op = "remove_account_locally"

	if confirmer == nil || !confirmer.Confirm(ctx, ConfirmRemovePrompt) {
		c.metrics.RecordOperation(op, "declined")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i := range c.accounts {
		if c.accounts[i].Address == address {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.metrics.RecordOperation(op, "not_found")
		return false
	}

	// Copy so views handed out earlier keep their contents.
	remaining := make([]ledger.Account, 0, len(c.accounts)-1)
	remaining = append(remaining, c.accounts[:idx]...)
	remaining = append(remaining, c.accounts[idx+1:]...)
	c.accounts = remaining
	c.currentPage = pagination.Clamp(c.currentPage, len(c.accounts), c.itemsPerPage)
	c.setSuccessLocked(MsgAccountHidden)

	c.metrics.RecordOperation(op, KindNone)
	c.logger.Info("account hidden locally", zap.String("address", ledger.ShortAddress(address)))
	return true
}

// SetPage moves to page n, clamped to [1, totalPages], and returns the page now shown.
func (c *Controller) SetPage(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPage = pagination.Clamp(n, len(c.accounts), c.itemsPerPage)
	return c.currentPage
}

// Phase returns the current page-level phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

// View returns a copy of the state to render.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible, total := pagination.Paginate(c.accounts, c.currentPage, c.itemsPerPage)

	v := View{
		Phase:           c.phaseLocked(),
		Loading:         c.inflight > 0,
		ErrorMessage:    c.errorMessage,
		SuccessMessage:  c.successMessage,
		Accounts:        append([]ledger.Account{}, visible...),
		AccountTotal:    len(c.accounts),
		CurrentPage:     c.currentPage,
		TotalPages:      total,
		ItemsPerPage:    c.itemsPerPage,
		Transactions:    append([]ledger.Transaction{}, c.transactions...),
		AccountForm:     c.accountForm,
		TransactionForm: c.txForm,
	}
	if c.hasSnapshot {
		snapshot := c.snapshot
		v.Snapshot = &snapshot
	}
	if c.batchResult != nil {
		v.BatchResult = &BatchResultView{BatchResult: *c.batchResult}
		if c.batchResult.ReceiptSaved {
			v.BatchResult.ReceiptDownload = ledger.ReceiptDownloadPath
		}
	}
	return v
}

func (c *Controller) phaseLocked() Phase {
	if c.inflight > 0 {
		return PhaseLoading
	}
	return c.settled
}

func (c *Controller) setErrorLocked(msg string) {
	c.errorMessage = msg
	c.successMessage = ""
	c.settled = PhaseError
}

func (c *Controller) setSuccessLocked(msg string) {
	c.successMessage = msg
	c.errorMessage = ""
	if c.settled == PhaseError {
		c.settled = PhaseReady
	}
}

// fail records a failed operation: sets the error message, logs by kind and
// counts it. Transport errors get prefix; the others are shown verbatim.
func (c *Controller) fail(op, prefix string, err error) error {
	kind := ErrorKind(err)
	msg := err.Error()
	if kind == KindTransport {
		msg = prefix + msg
	}

	c.mu.Lock()
	c.setErrorLocked(msg)
	c.mu.Unlock()

	c.metrics.RecordOperation(op, kind)
	fields := []zap.Field{zap.String("operation", op), zap.String("error_kind", kind)}
	switch kind {
	case KindValidation:
		c.logger.Debug("input rejected", append(fields, zap.Error(err))...)
	case KindApplication:
		c.logger.Info("ledger service rejected request", append(fields, zap.String("message", err.Error()))...)
	default:
		c.logger.Warn("ledger service call failed", append(fields, zap.Error(err))...)
	}
	return err
}

func (c *Controller) succeed(op string, fields ...zap.Field) {
	c.metrics.RecordOperation(op, KindNone)
	c.logger.Info("operation succeeded", append([]zap.Field{zap.String("operation", op)}, fields...)...)
}

// parsePositive accepts a base-10 integer greater than zero.
func parsePositive(field, raw, reason string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, &ValidationError{Field: field, Reason: reason}
	}
	return n, nil
}
