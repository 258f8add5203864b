package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var bcryptGenerate = bcrypt.GenerateFromPassword

// client holds the persistent flags shared by every API command.
type client struct {
	baseURL string
	timeout time.Duration
	token   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &client{}

	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "GoWallet admin CLI",
		Long:          `A command line interface for the GoWallet admin reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the GoWallet API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("WALLETCTL_TOKEN"), "Admin bearer token")

	rootCmd.AddCommand(adminCmd(c), ledgerCmd(c), hashPasswordCmd())
	return rootCmd
}

func adminCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin reports",
	}

	var raw bool
	flaggedCmd := &cobra.Command{
		Use:   "flagged",
		Short: "List suspicious transactions per user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report []flaggedAccount
			if err := c.get(cmd.Context(), "/admin/flagged", &report); err != nil {
				return err
			}
			if raw {
				return printJSON(cmd.OutOrStdout(), report)
			}
			return printFlagged(cmd.OutOrStdout(), report)
		},
	}
	flaggedCmd.Flags().BoolVar(&raw, "json", false, "Print the raw JSON report")

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Show balances of active users",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report map[string]map[string]string
			if err := c.get(cmd.Context(), "/admin/balances", &report); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	var n int
	topUsersCmd := &cobra.Command{
		Use:   "top-users",
		Short: "Rank users by balance and transaction count",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/admin/top-users"
			if n > 0 {
				path += "?" + url.Values{"n": {strconv.Itoa(n)}}.Encode()
			}
			var report json.RawMessage
			if err := c.get(cmd.Context(), path, &report); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	topUsersCmd.Flags().IntVar(&n, "n", 0, "Number of users per ranking (server default when 0)")

	cmd.AddCommand(flaggedCmd, balancesCmd, topUsersCmd)
	return cmd
}

func ledgerCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.checkConsistency(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), cost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

type flaggedAccount struct {
	Username   string `json:"username"`
	Suspicious []struct {
		ID       string   `json:"id"`
		Type     string   `json:"type"`
		Amount   string   `json:"amount"`
		Currency string   `json:"currency"`
		Date     string   `json:"date"`
		Alerts   []string `json:"alerts"`
	} `json:"suspicious"`
}

type consistencyReport struct {
	TotalAccounts      int    `json:"total_accounts"`
	ReconciledAccounts int    `json:"reconciled_accounts"`
	LedgerConsistent   bool   `json:"ledger_consistent"`
	LedgerError        string `json:"ledger_error"`
	Discrepancies      []struct {
		Username   string `json:"username"`
		Currency   string `json:"currency"`
		Recorded   string `json:"recorded"`
		Calculated string `json:"calculated"`
		Difference string `json:"difference"`
	} `json:"discrepancies"`
}

func (c *client) checkConsistency(ctx context.Context, out io.Writer) error {
	status, body, err := c.do(ctx, "/admin/consistency")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("consistency check failed (status %d): %s", status, truncate(string(body), 200))
	}

	var report consistencyReport
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if status == http.StatusOK {
		fmt.Fprintln(out, "Consistency check PASSED")
	} else {
		fmt.Fprintln(out, "Consistency check FAILED")
	}
	fmt.Fprintf(out, "Accounts: %d (%d reconciled)\n", report.TotalAccounts, report.ReconciledAccounts)
	if report.LedgerError != "" {
		fmt.Fprintf(out, "Ledger: %s\n", report.LedgerError)
	}
	for _, d := range report.Discrepancies {
		fmt.Fprintf(out, "  %s %s: recorded %s, calculated %s (diff %s)\n",
			d.Username, d.Currency, d.Recorded, d.Calculated, d.Difference)
	}

	if status == http.StatusConflict {
		return fmt.Errorf("ledger is inconsistent")
	}
	return nil
}

func (c *client) get(ctx context.Context, path string, v any) error {
	status, body, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("request failed (status %d): %s", status, truncate(strings.TrimSpace(string(body)), 200))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *client) do(ctx context.Context, path string) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func printFlagged(out io.Writer, report []flaggedAccount) error {
	if len(report) == 0 {
		fmt.Fprintln(out, "No suspicious transactions")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tTRANSACTION\tTYPE\tAMOUNT\tREASONS")
	for _, acc := range report {
		for _, tx := range acc.Suspicious {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\n",
				acc.Username, truncate(tx.ID, 12), tx.Type, tx.Amount, tx.Currency, strings.Join(tx.Alerts, "; "))
		}
	}
	return w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
