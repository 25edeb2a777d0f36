// Package mock provides a hook-based fake of the ledger gateway for tests.
package mock

import (
	"context"
	"sync/atomic"

	"zklear-console/pkg/ledger"
)

// MockGateway implements the console's Gateway interface.
// Unset hooks return zero values and a nil error.
type MockGateway struct {
	FetchSystemSnapshotFunc func(ctx context.Context) (ledger.SystemSnapshot, error)
	FetchAccountsFunc       func(ctx context.Context) ([]ledger.Account, error)
	CreateAccountFunc       func(ctx context.Context, balance uint64, address string) (ledger.CreateAccountResponse, error)
	FetchTransactionsFunc   func(ctx context.Context) ([]ledger.Transaction, error)
	CreateTransactionFunc   func(ctx context.Context, req ledger.CreateTransactionRequest) (ledger.CreateTransactionResponse, error)
	ProcessBatchFunc        func(ctx context.Context) (ledger.BatchResponse, error)
	VerifyReceiptFunc       func(ctx context.Context) (ledger.VerifyReceiptResponse, error)

	// Call tracking (atomic, the controller fans reads out concurrently)
	snapshotCalls     int64
	accountsCalls     int64
	createAccCalls    int64
	transactionsCalls int64
	createTxCalls     int64
	batchCalls        int64
	verifyCalls       int64
}

func (m *MockGateway) FetchSystemSnapshot(ctx context.Context) (ledger.SystemSnapshot, error) {
	atomic.AddInt64(&m.snapshotCalls, 1)
	if m.FetchSystemSnapshotFunc != nil {
		return m.FetchSystemSnapshotFunc(ctx)
	}
	return ledger.SystemSnapshot{}, nil
}

func (m *MockGateway) FetchAccounts(ctx context.Context) ([]ledger.Account, error) {
	atomic.AddInt64(&m.accountsCalls, 1)
	if m.FetchAccountsFunc != nil {
		return m.FetchAccountsFunc(ctx)
	}
	return []ledger.Account{}, nil
}

func (m *MockGateway) CreateAccount(ctx context.Context, balance uint64, address string) (ledger.CreateAccountResponse, error) {
	atomic.AddInt64(&m.createAccCalls, 1)
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, balance, address)
	}
	return ledger.CreateAccountResponse{}, nil
}

func (m *MockGateway) FetchTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	atomic.AddInt64(&m.transactionsCalls, 1)
	if m.FetchTransactionsFunc != nil {
		return m.FetchTransactionsFunc(ctx)
	}
	return []ledger.Transaction{}, nil
}

func (m *MockGateway) CreateTransaction(ctx context.Context, req ledger.CreateTransactionRequest) (ledger.CreateTransactionResponse, error) {
	atomic.AddInt64(&m.createTxCalls, 1)
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, req)
	}
	return ledger.CreateTransactionResponse{}, nil
}

func (m *MockGateway) ProcessBatch(ctx context.Context) (ledger.BatchResponse, error) {
	atomic.AddInt64(&m.batchCalls, 1)
	if m.ProcessBatchFunc != nil {
		return m.ProcessBatchFunc(ctx)
	}
	return ledger.BatchResponse{}, nil
}

func (m *MockGateway) VerifyReceipt(ctx context.Context) (ledger.VerifyReceiptResponse, error) {
	atomic.AddInt64(&m.verifyCalls, 1)
	if m.VerifyReceiptFunc != nil {
		return m.VerifyReceiptFunc(ctx)
	}
	return ledger.VerifyReceiptResponse{}, nil
}

// SnapshotCalls returns the number of FetchSystemSnapshot calls.
func (m *MockGateway) SnapshotCalls() int { return int(atomic.LoadInt64(&m.snapshotCalls)) }

// AccountsCalls returns the number of FetchAccounts calls.
func (m *MockGateway) AccountsCalls() int { return int(atomic.LoadInt64(&m.accountsCalls)) }

// CreateAccountCalls returns the number of CreateAccount calls.
func (m *MockGateway) CreateAccountCalls() int { return int(atomic.LoadInt64(&m.createAccCalls)) }

// TransactionsCalls returns the number of FetchTransactions calls.
func (m *MockGateway) TransactionsCalls() int { return int(atomic.LoadInt64(&m.transactionsCalls)) }

// CreateTransactionCalls returns the number of CreateTransaction calls.
func (m *MockGateway) CreateTransactionCalls() int { return int(atomic.LoadInt64(&m.createTxCalls)) }

// BatchCalls returns the number of ProcessBatch calls.
func (m *MockGateway) BatchCalls() int { return int(atomic.LoadInt64(&m.batchCalls)) }

// VerifyCalls returns the number of VerifyReceipt calls.
func (m *MockGateway) VerifyCalls() int { return int(atomic.LoadInt64(&m.verifyCalls)) }

// TotalCalls returns the number of calls across every capability.
func (m *MockGateway) TotalCalls() int {
	return m.SnapshotCalls() + m.AccountsCalls() + m.CreateAccountCalls() +
		m.TransactionsCalls() + m.CreateTransactionCalls() + m.BatchCalls() + m.VerifyCalls()
}

// Refreshes returns how many complete refresh rounds were issued, counted by
// snapshot fetches since every round fetches the snapshot exactly once.
func (m *MockGateway) Refreshes() int {
	return m.SnapshotCalls()
}
