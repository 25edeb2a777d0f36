package console

import (
	"fmt"

	"zklear-console/pkg/ledger"
)

// Phase is the page-level state: Idle until the first refresh, Loading while
// a refresh round is in flight, then Ready or Error depending on the last
// operation to settle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON views.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseLoading, PhaseReady, PhaseError} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("console: unknown phase %q", text)
}

// TransactionForm is the raw, unvalidated transaction-creation input.
type TransactionForm struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BatchResult is the outcome of the last successful batch. Missing optional
// fields in the response default to zero values here.
type BatchResult struct {
	ProcessedCount uint32 `json:"processed_count"`
	NewRoot        string `json:"new_root"`
	ReceiptSaved   bool   `json:"receipt_saved"`
}

// BatchResultView is a BatchResult as exposed to the front end.
type BatchResultView struct {
	BatchResult
	ReceiptDownload string `json:"receipt_download,omitempty"`
}

// View is an immutable copy of everything the presentation layer renders.
type View struct {
	Phase          Phase  `json:"phase"`
	Loading        bool   `json:"loading"`
	ErrorMessage   string `json:"error_message,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`

	// Snapshot is nil until the first successful refresh.
	Snapshot *ledger.SystemSnapshot `json:"snapshot"`

	Accounts     []ledger.Account     `json:"accounts"`
	AccountTotal int                  `json:"account_total"`
	CurrentPage  int                  `json:"current_page"`
	TotalPages   int                  `json:"total_pages"`
	ItemsPerPage int                  `json:"items_per_page"`
	Transactions []ledger.Transaction `json:"transactions"`

	AccountForm     string          `json:"account_form"`
	TransactionForm TransactionForm `json:"transaction_form"`

	BatchResult *BatchResultView `json:"batch_result"`
}
