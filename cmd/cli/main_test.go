package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

func execute(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", serverURL}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}); err != nil {
		t.Fatal(err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestBalanceCmd(t *testing.T) {
	var gotPath, gotAt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAt = r.URL.Query().Get("at")
		w.Write([]byte(`{"account_id":"acc-1","balance":"150"}`))
	}))
	defer srv.Close()

	out, err := execute(t, srv.URL, "balance", "acc-1", "--at", "2024-01-10T09:00:00")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if gotPath != "/api/v1/accounts/acc-1/balance" || gotAt != "2024-01-10T09:00:00" {
		t.Fatalf("unexpected request %s at=%s", gotPath, gotAt)
	}
	if !strings.Contains(out, `"balance": "150"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestReportCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("owner_id") != "client-9" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"failed to generate report","message":"owner not found"}`))
	}))
	defer srv.Close()

	_, err := execute(t, srv.URL, "report", "client-9", "--from", "2024-01-01T00:00:00", "--to", "2024-02-01T00:00:00")
	if err == nil || !strings.Contains(err.Error(), "owner not found") {
		t.Fatalf("expected owner not found error, got %v", err)
	}

	if _, err := execute(t, srv.URL, "report", "client-9"); err == nil {
		t.Fatalf("expected missing --from/--to to fail")
	}
}

func TestVerifyCmd(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    string
	}{
		{"consistent", `{"is_consistent":true}`, false, "PASSED"},
		{
			"mismatch",
			`{"is_consistent":false,"mismatch":{"transaction_id":"tx-2","recorded":"999","expected":"130"}}`,
			true,
			"recorded 999, expected 130",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := execute(t, srv.URL, "verify", "acc-1")
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in output, got %s", tt.want, out)
			}
		})
	}
}

type verifierFunc func(ctx context.Context) (*usecase.ReconciliationReport, error)

func (f verifierFunc) VerifyAllChains(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return f(ctx)
}

func TestReconcile(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalAccounts:      2,
		ConsistentAccounts: 1,
		Discrepancies: []*usecase.ChainVerification{{
			AccountID: "acc-2",
			Mismatch: &domain.ChainMismatch{
				TransactionID: "tx-7",
				Recorded:      decimal.NewFromInt(1),
				Expected:      decimal.NewFromInt(15),
			},
		}},
	}

	var out bytes.Buffer
	err := reconcile(context.Background(), &out, verifierFunc(func(context.Context) (*usecase.ReconciliationReport, error) {
		return report, nil
	}))
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("expected errCheckFailed, got %v", err)
	}
	if !strings.Contains(out.String(), "acc-2 at tx-7: recorded 1, expected 15") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	out.Reset()
	err = reconcile(context.Background(), &out, verifierFunc(func(context.Context) (*usecase.ReconciliationReport, error) {
		return &usecase.ReconciliationReport{TotalAccounts: 3, ConsistentAccounts: 3}, nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
