package ledger

import (
	"encoding/json"
	"testing"
)

func TestIsAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase", "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12", true},
		{"uppercase hex", "0x" + "AB12CD34EF56AB12CD34EF56AB12CD34EF56AB12", true},
		{"missing prefix", "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12", false},
		{"too short", "0xab12", false},
		{"too long", "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab1234", false},
		{"non hex", "0x" + "zz12cd34ef56ab12cd34ef56ab12cd34ef56ab12", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAddress(tt.input); got != tt.want {
				t.Errorf("IsAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestShortAddress(t *testing.T) {
	if got := ShortAddress("0x1234567890abcdef"); got != "0x123456..." {
		t.Errorf("Expected 0x123456..., got %s", got)
	}
	if got := ShortAddress("0x12"); got != "0x12" {
		t.Errorf("Expected short input unchanged, got %s", got)
	}
}

func TestBatchResponse_OptionalFields(t *testing.T) {
	var failed BatchResponse
	if err := json.Unmarshal([]byte(`{"success":false,"message":"No transactions to process","processed_count":null,"new_root":null,"receipt_saved":false}`), &failed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if failed.ProcessedCount != nil || failed.NewRoot != nil {
		t.Errorf("Expected absent optional fields, got %v %v", failed.ProcessedCount, failed.NewRoot)
	}

	var ok BatchResponse
	if err := json.Unmarshal([]byte(`{"success":true,"message":"done","processed_count":3,"new_root":"0xabc","receipt_saved":true}`), &ok); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if ok.ProcessedCount == nil || *ok.ProcessedCount != 3 {
		t.Errorf("Expected processed_count 3, got %v", ok.ProcessedCount)
	}
	if ok.NewRoot == nil || *ok.NewRoot != "0xabc" {
		t.Errorf("Expected new_root 0xabc, got %v", ok.NewRoot)
	}
}

func TestTransaction_SignatureIsOpaque(t *testing.T) {
	var tx Transaction
	payload := `{"from":"0xaa","to":"0xbb","amount":1000,"nonce":1,"signature":[0,0,0,0]}`
	if err := json.Unmarshal([]byte(payload), &tx); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if string(tx.Signature) != "[0,0,0,0]" {
		t.Errorf("Expected signature to be kept verbatim, got %s", tx.Signature)
	}
}

func TestCreateAccountRequest_OmitsEmptyAddress(t *testing.T) {
	b, err := json.Marshal(CreateAccountRequest{Balance: 10000})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `{"balance":10000}` {
		t.Errorf("Expected only balance in body, got %s", b)
	}
}
