package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/balanceledger/internal/adapter/repository/postgres"
	"github.com/iho/balanceledger/internal/infrastructure/config"
	"github.com/iho/balanceledger/internal/infrastructure/postgres"
	"github.com/iho/balanceledger/internal/usecase"
)

var (
	baseURL string
	timeout time.Duration
)

// errCheckFailed makes the process exit non-zero without extra output.
var errCheckFailed = errors.New("check failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledger-cli",
		Short:         "Balance ledger CLI tool",
		Long:          `A command line interface for the balance ledger API and database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(balanceCmd(), reportCmd(), verifyCmd(), reconcileCmd(), migrateCmd())

	return rootCmd
}

func balanceCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the balance of an account at a point in time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if at != "" {
				q.Set("at", at)
			}
			return getAndPrint(cmd, "/api/v1/accounts/"+url.PathEscape(args[0])+"/balance", q)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Point in time (RFC3339 or 2006-01-02T15:04:05); defaults to now")

	return cmd
}

func reportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report <owner-id>",
		Short: "Print the statement of an owner for a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("owner_id", args[0])
			q.Set("from", from)
			q.Set("to", to)
			return getAndPrint(cmd, "/api/v1/reports", q)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start of the range")
	cmd.Flags().StringVar(&to, "to", "", "End of the range")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Replay an account chain and compare it with the stored balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := get(cmd.Context(), "/api/v1/accounts/"+url.PathEscape(args[0])+"/verify", nil)
			if err != nil {
				return err
			}

			var result struct {
				IsConsistent bool `json:"is_consistent"`
				Mismatch     *struct {
					TransactionID string `json:"transaction_id"`
					Recorded      string `json:"recorded"`
					Expected      string `json:"expected"`
				} `json:"mismatch"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if result.IsConsistent {
				fmt.Fprintln(out, "Chain verification PASSED")
				return nil
			}

			fmt.Fprintln(out, "Chain verification FAILED")
			if m := result.Mismatch; m != nil {
				fmt.Fprintf(out, "Transaction %s: recorded %s, expected %s\n", truncate(m.TransactionID, 30), m.Recorded, m.Expected)
			}
			return errCheckFailed
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Verify every account chain directly against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithDotenv()
			if err != nil {
				return err
			}

			pool, err := postgres.NewPoolWithConfig(cmd.Context(), postgres.PoolConfig{
				DatabaseURL: cfg.DatabaseURL,
				MaxConns:    2,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			uc := usecase.NewReconciliationUseCase(
				postgresRepo.NewTxManager(pool),
				postgresRepo.NewAccountRepository(pool),
				postgresRepo.NewTransactionRepository(pool),
			)

			return reconcile(cmd.Context(), cmd.OutOrStdout(), uc)
		},
	}
}

// chainVerifier is the part of ReconciliationUseCase used by reconcile.
type chainVerifier interface {
	VerifyAllChains(ctx context.Context) (*usecase.ReconciliationReport, error)
}

func reconcile(ctx context.Context, out io.Writer, v chainVerifier) error {
	report, err := v.VerifyAllChains(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Checked %d accounts, %d consistent\n", report.TotalAccounts, report.ConsistentAccounts)
	for _, d := range report.Discrepancies {
		line := fmt.Sprintf("  %s", d.AccountID)
		if m := d.Mismatch; m != nil {
			line += fmt.Sprintf(" at %s: recorded %s, expected %s", truncate(m.TransactionID, 30), m.Recorded, m.Expected)
		}
		fmt.Fprintln(out, line)
	}

	if len(report.Discrepancies) > 0 {
		return errCheckFailed
	}
	return nil
}

func migrateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (default from MIGRATIONS_PATH)")

	run := func(apply func(databaseURL, migrationsPath string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithDotenv()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.MigrationsPath
			}
			return apply(cfg.DatabaseURL, path)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(postgres.RunMigrations)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", RunE: run(postgres.RunMigrationsDown)},
	)

	return cmd
}

func get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	target := baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func getAndPrint(cmd *cobra.Command, path string, q url.Values) error {
	body, err := get(cmd.Context(), path, q)
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
