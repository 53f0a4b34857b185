package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL        string
	timeout        time.Duration
	idempotencyKey string
	outputJSON     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "depositledger-cli",
		Short:         "Deposit ledger CLI tool",
		Long:          `A command line interface for interacting with the vendor deposit ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the deposit ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header for write commands")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		deductCmd(),
		depositCmd(),
		refundCmd(),
		balanceCmd(),
		historyCmd(),
		reconcileCmd(),
		orderStatusCmd(),
	)

	return rootCmd
}

func deductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deduct <vendor-order-id>",
		Short: "Deduct the commission of a delivered vendor order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := doRequest(http.MethodPost, "/api/v1/deductions", map[string]string{"vendor_order_id": args[0]}, &result); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

func depositCmd() *cobra.Command {
	var amount, description, processedBy, proofURL string

	cmd := &cobra.Command{
		Use:   "deposit <vendor-id>",
		Short: "Top up a vendor deposit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"amount":       amount,
				"description":  description,
				"processed_by": processedBy,
				"proof_url":    proofURL,
			}
			var result map[string]any
			if err := doRequest(http.MethodPost, "/api/v1/vendors/"+url.PathEscape(args[0])+"/deposits", body, &result); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount to deposit")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&processedBy, "processed-by", "", "Operator recording the deposit")
	cmd.Flags().StringVar(&proofURL, "proof-url", "", "Link to the transfer proof")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func refundCmd() *cobra.Command {
	var amount, orderID, description, processedBy string

	cmd := &cobra.Command{
		Use:   "refund <vendor-id>",
		Short: "Credit a vendor deposit for a returned order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"amount":       amount,
				"order_id":     orderID,
				"description":  description,
				"processed_by": processedBy,
			}
			var result map[string]any
			if err := doRequest(http.MethodPost, "/api/v1/vendors/"+url.PathEscape(args[0])+"/refunds", body, &result); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount to refund")
	cmd.Flags().StringVar(&orderID, "order-id", "", "Order the refund belongs to")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&processedBy, "processed-by", "", "Operator recording the refund")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <vendor-id>",
		Short: "Show a vendor's deposit balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := doRequest(http.MethodGet, "/api/v1/vendors/"+url.PathEscape(args[0])+"/balance", nil, &result); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

type historyResponse struct {
	Transactions []struct {
		ID           string    `json:"id"`
		OrderID      string    `json:"order_id"`
		Type         string    `json:"type"`
		Amount       string    `json:"amount"`
		BalanceAfter string    `json:"balance_after"`
		Description  string    `json:"description"`
		CreatedAt    time.Time `json:"created_at"`
	} `json:"transactions"`
}

func historyCmd() *cobra.Command {
	var txType string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history <vendor-id>",
		Short: "List a vendor's deposit transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))
			if txType != "" {
				query.Set("type", txType)
			}

			path := "/api/v1/vendors/" + url.PathEscape(args[0]) + "/transactions?" + query.Encode()
			var result historyResponse
			if err := doRequest(http.MethodGet, path, nil, &result); err != nil {
				return err
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tBALANCE\tORDER\tDESCRIPTION\tCREATED")
			for _, t := range result.Transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Type, t.Amount, t.BalanceAfter, t.OrderID,
					truncate(t.Description, 32), t.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&txType, "type", "", "Filter by type: deduction, deposit, refund")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")

	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [vendor-id]",
		Short: "Check stored balances against transaction history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reconciliation"
			if len(args) == 1 {
				path = "/api/v1/vendors/" + url.PathEscape(args[0]) + "/reconciliation"
			}

			var result map[string]any
			if err := doRequest(http.MethodGet, path, nil, &result); err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), result); err != nil {
				return err
			}

			if reconciled, ok := result["is_reconciled"].(bool); ok && !reconciled {
				return fmt.Errorf("vendor %s is not reconciled", args[0])
			}
			if discrepancies, ok := result["discrepancies"].([]any); ok && len(discrepancies) > 0 {
				return fmt.Errorf("%d vendor(s) not reconciled", len(discrepancies))
			}
			return nil
		},
	}
}

func orderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order-status <vendor-order-id> <status>",
		Short: "Move a vendor order to a new fulfillment status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			path := "/api/v1/vendor-orders/" + url.PathEscape(args[0]) + "/status"
			if err := doRequest(http.MethodPut, path, map[string]string{"status": args[1]}, &result); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

// apiError is returned for non-2xx responses.
type apiError struct {
	Status  int
	Message string `json:"error"`
	Details string `json:"message"`
	Kind    string `json:"kind"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("request failed (status %d)", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Kind != "" {
		msg += " [" + e.Kind + "]"
	}
	return msg
}

func doRequest(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" && method != http.MethodGet {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Details = string(data)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printResult(w io.Writer, result map[string]any) error {
	if outputJSON {
		return printJSON(w, result)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, key := range sortedKeys(result) {
		value := result[key]
		switch v := value.(type) {
		case map[string]any, []any:
			encoded, _ := json.Marshal(v)
			fmt.Fprintf(tw, "%s:\t%s\n", key, truncate(string(encoded), 80))
		case nil:
			continue
		default:
			fmt.Fprintf(tw, "%s:\t%v\n", key, v)
		}
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
