package gateway

import (
	"fmt"
	"strings"
)

// Routes maps each ledger capability to its HTTP path.
type Routes struct {
	SystemInfo               string
	Accounts                 string
	CreateAccountRandom      string
	CreateAccountWithAddress string
	Transactions             string
	CreateTransaction        string
	ProcessBatch             string
	VerifyReceipt            string
}

// CanonicalRoutes is the documented path set.
func CanonicalRoutes() Routes {
	return Routes{
		SystemInfo:               "/api/info",
		Accounts:                 "/api/accounts",
		CreateAccountRandom:      "/api/accounts/create",
		CreateAccountWithAddress: "/api/accounts",
		Transactions:             "/api/transactions",
		CreateTransaction:        "/api/transactions",
		ProcessBatch:             "/api/batch/process",
		VerifyReceipt:            "/api/receipt/verify",
	}
}

// LegacyRoutes is the path set served by older ledger service builds.
func LegacyRoutes() Routes {
	return Routes{
		SystemInfo:               "/api/system-info",
		Accounts:                 "/api/accounts",
		CreateAccountRandom:      "/api/accounts/create",
		CreateAccountWithAddress: "/api/accounts/create",
		Transactions:             "/api/transactions",
		CreateTransaction:        "/api/transactions/create",
		ProcessBatch:             "/api/batch/process",
		VerifyReceipt:            "/api/receipt/verify",
	}
}

// RoutesByName resolves "canonical" (or "") and "legacy".
func RoutesByName(name string) (Routes, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "canonical":
		return CanonicalRoutes(), nil
	case "legacy":
		return LegacyRoutes(), nil
	default:
		return Routes{}, fmt.Errorf("unknown route set %q", name)
	}
}
