package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"zklear-console/pkg/gateway"
	"zklear-console/pkg/ledger"
	"zklear-console/pkg/metrics"
	"zklear-console/pkg/resilience"
)

// flakyLedger answers 502 to everything until healthy is set.
func flakyLedger(t *testing.T, healthy *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/info":
			json.NewEncoder(w).Encode(ledger.SystemSnapshot{CurrentRoot: "0xroot", AccountCount: 3})
		case r.URL.Path == "/api/accounts" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(threeAccounts())
		case r.URL.Path == "/api/transactions":
			json.NewEncoder(w).Encode([]ledger.Transaction{})
		case r.URL.Path == "/api/accounts/create":
			json.NewEncoder(w).Encode(ledger.CreateAccountResponse{Success: true, Message: "ok", Account: &ledger.Account{Address: addrA, Balance: 10}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestController_RefreshAfterLedgerRecovers(t *testing.T) {
	var healthy atomic.Bool
	srv := flakyLedger(t, &healthy)

	config := gateway.DefaultConfig()
	config.BaseURL = srv.URL
	config.Breaker = resilience.DefaultBreakerConfig().WithFailureThreshold(3).WithCooldown(50 * time.Millisecond)
	client, err := gateway.NewClient(config)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	c := New(client)
	ctx := context.Background()

	trip := func() {
		t.Helper()
		healthy.Store(false)
		if err := c.Initialize(ctx); err == nil {
			t.Fatal("Expected refresh against a failing ledger to fail")
		}
		if client.BreakerState() != metrics.CircuitOpen {
			t.Fatalf("Expected open breaker, got %v", client.BreakerState())
		}
		healthy.Store(true)
		time.Sleep(80 * time.Millisecond)
	}

	trip()
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("First refresh after recovery failed: %v", err)
	}
	v := c.View()
	if v.Phase != PhaseReady || v.ErrorMessage != "" || len(v.Accounts) != 3 {
		t.Errorf("Expected ready view with 3 accounts, got %+v", v)
	}
	if client.BreakerState() != metrics.CircuitClosed {
		t.Errorf("Expected closed breaker, got %v", client.BreakerState())
	}

	trip()
	if err := c.SubmitAccountForm(ctx, "10"); err != nil {
		t.Fatalf("Create and refresh after recovery failed: %v", err)
	}
	if v := c.View(); v.Phase != PhaseReady || v.SuccessMessage != MsgAccountCreated {
		t.Errorf("Expected ready view with success message, got %+v", v)
	}
}
