package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iho/balanceledger/internal/adapter/http/dto"
	"github.com/iho/balanceledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/balanceledger/internal/adapter/http/middleware"
	"github.com/iho/balanceledger/internal/adapter/repository/memory"
	"github.com/iho/balanceledger/internal/infrastructure/metrics"
	"github.com/iho/balanceledger/internal/usecase"
)

type ownerSet map[string]bool

func (o ownerSet) Exists(_ context.Context, ownerID string) (bool, error) {
	return o[ownerID], nil
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	accounts := memory.NewAccountRepository(store)
	transactions := memory.NewTransactionRepository(store)

	accountUC := usecase.NewAccountUseCase(txManager, accounts, transactions, memory.NewSequenceGenerator("acc-"), nil)
	txUC := usecase.NewTransactionUseCase(txManager, accounts, transactions, memory.NewSequenceGenerator("tx-"), nil)
	reportUC := usecase.NewReportUseCase(txManager, accounts, transactions, ownerSet{"client-1": true}, nil)
	reconcileUC := usecase.NewReconciliationUseCase(txManager, accounts, transactions)

	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandler(nil),
		AccountHandler:     handler.NewAccountHandler(accountUC, reconcileUC),
		TransactionHandler: handler.NewTransactionHandler(txUC),
		ReportHandler:      handler.NewReportHandler(reportUC),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	if rec := do(t, router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_RateLimiterIgnoresForwardedHeadersByDefault(t *testing.T) {
	tests := []struct {
		name        string
		trustProxy  bool
		secondAllow bool
	}{
		{"untrusted proxy headers", false, false},
		{"trusted proxy headers", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
				cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1, nil)
				cfg.TrustProxyHeaders = tt.trustProxy
			}))

			codes := make([]int, 0, 2)
			for _, forwarded := range []string{"198.51.100.1", "198.51.100.2"} {
				req := httptest.NewRequest(http.MethodGet, "/health", nil)
				req.RemoteAddr = "1.2.3.4:1234"
				req.Header.Set("X-Forwarded-For", forwarded)
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				codes = append(codes, rec.Code)
			}

			if codes[0] != http.StatusOK {
				t.Fatalf("expected first request to succeed, got %d", codes[0])
			}
			if allowed := codes[1] == http.StatusOK; allowed != tt.secondAllow {
				t.Fatalf("second request status %d, expected allowed=%v", codes[1], tt.secondAllow)
			}
		})
	}
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"account_number":"478758","account_type":"savings","owner_id":"client-1","initial_balance":"100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsGatherer = prometheus.NewRegistry()
	}))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /report",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}/",
		"PUT /api/v1/accounts/{id}/",
		"DELETE /api/v1/accounts/{id}/",
		"GET /api/v1/accounts/{id}/verify",
		"POST /api/v1/accounts/{id}/transactions",
		"GET /api/v1/accounts/{id}/transactions",
		"GET /api/v1/accounts/{id}/balance",
		"GET /api/v1/accounts/{id}/window",
		"GET /api/v1/transactions/{id}/",
		"PUT /api/v1/transactions/{id}/",
		"DELETE /api/v1/transactions/{id}/",
		"GET /api/v1/reports",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_LedgerFlow(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
	}))

	rec := do(t, router, http.MethodPost, "/api/v1/accounts",
		`{"account_number":"478758","account_type":"savings","owner_id":"client-1","initial_balance":"100"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: %d %s", rec.Code, rec.Body.String())
	}

	var account dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
		t.Fatal(err)
	}

	base := "/api/v1/accounts/" + account.ID

	// Recorded out of order: the second append is backdated.
	rec = do(t, router, http.MethodPost, base+"/transactions", `{"date":"2024-01-11T09:00:00","kind":"withdrawal","amount":"-20"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("append: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, base+"/transactions", `{"date":"2024-01-10T09:00:00Z","kind":"deposit","amount":"50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("backdated append: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, base+"/transactions", "")
	var chain dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &chain); err != nil {
		t.Fatal(err)
	}
	if len(chain.Transactions) != 2 || chain.Transactions[0].Balance != "150" || chain.Transactions[1].Balance != "130" {
		t.Fatalf("unexpected chain: %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, base+"/transactions", `{"date":"2024-01-09T09:00:00Z","kind":"withdrawal","amount":"-101"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected overdraft to be rejected, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, base+"/balance?at=2024-01-10T12:00:00", "")
	var balance dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatal(err)
	}
	if balance.Balance != "150" {
		t.Fatalf("expected balance 150, got %s", balance.Balance)
	}

	rec = do(t, router, http.MethodGet, "/report?clientId=client-1&from=2024-01-10T00:00:00&to=2024-01-10T23:59:59", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report: %d %s", rec.Code, rec.Body.String())
	}
	var report dto.ReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Accounts) != 1 || report.Accounts[0].Balance != "150" || len(report.Accounts[0].Transactions) != 1 {
		t.Fatalf("unexpected report: %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/v1/reports?owner_id=client-2&from=2024-01-10T00:00:00&to=2024-01-11T00:00:00", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown owner to be rejected, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, base+"/verify", "")
	var verification dto.ChainVerificationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &verification); err != nil {
		t.Fatal(err)
	}
	if !verification.IsConsistent {
		t.Fatalf("expected consistent chain: %s", rec.Body.String())
	}

	if rec = do(t, router, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete account: %d", rec.Code)
	}
	if rec = do(t, router, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected deleted account to be gone, got %d", rec.Code)
	}
}
