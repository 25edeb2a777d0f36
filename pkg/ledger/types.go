// Package ledger defines the JSON contract exchanged with the remote ledger service.
//
// Every type here is a plain value copied off the wire. The console never owns
// the canonical lifecycle of any of them; fields the service may omit are
// pointers so an absent value is never mistaken for a zero.
package ledger

import "encoding/json"

// Account is a ledger account as reported by the service.
type Account struct {
	// Address is the 0x-prefixed, 40 hex character account identifier
	Address string `json:"address"`

	// Balance is expressed in the smallest settlement unit
	Balance uint64 `json:"balance"`

	// Nonce counts the transactions processed or assigned for this address
	Nonce uint64 `json:"nonce"`
}

// Transaction is a pending transfer accepted by the service but not yet
// consumed by batch processing.
type Transaction struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`

	// Nonce is assigned by the service as the sender's current nonce + 1
	Nonce uint64 `json:"nonce"`

	// Signature is an opaque authenticity token. The console never inspects it.
	Signature json.RawMessage `json:"signature,omitempty"`
}

// SystemStats holds the aggregate counters reported alongside a snapshot.
type SystemStats struct {
	TotalAccountsCreated       uint64  `json:"total_accounts_created"`
	TotalTransactionsProcessed uint64  `json:"total_transactions_processed"`
	AverageBalance             float64 `json:"average_balance"`
	HighestBalance             uint64  `json:"highest_balance"`
	LowestBalance              uint64  `json:"lowest_balance"`
}

// SystemSnapshot is a point-in-time summary of the ledger state.
// It is wholly derived server-side and only displayed by the console.
type SystemSnapshot struct {
	CurrentRoot      string      `json:"current_root"`
	TotalAmount      uint64      `json:"total_amount"`
	AccountCount     uint64      `json:"account_count"`
	TransactionCount uint64      `json:"transaction_count"`
	SystemStats      SystemStats `json:"system_stats"`
}

// CreateAccountRequest asks the service to create an account.
// An empty Address lets the service generate a random one.
type CreateAccountRequest struct {
	Address string `json:"address,omitempty"`
	Balance uint64 `json:"balance"`
}

// CreateTransactionRequest asks the service to queue a transfer.
// Nonce and signature are always assigned server-side.
type CreateTransactionRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// CreateAccountResponse is the envelope returned by both account creation routes.
type CreateAccountResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Account *Account `json:"account,omitempty"`
}

// CreateTransactionResponse is the envelope returned by transaction creation.
type CreateTransactionResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// BatchResponse is returned by batch processing.
type BatchResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	ProcessedCount *uint32 `json:"processed_count,omitempty"`
	NewRoot        *string `json:"new_root,omitempty"`
	ReceiptSaved   bool    `json:"receipt_saved"`
}

// VerifyReceiptResponse is returned by receipt verification. It carries the
// batch result shape without the receipt_saved flag.
type VerifyReceiptResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	ProcessedCount *uint32 `json:"processed_count,omitempty"`
	NewRoot        *string `json:"new_root,omitempty"`
}

// ReceiptDownloadPath is where the service serves the last generated receipt.
const ReceiptDownloadPath = "/api/receipt/download"
