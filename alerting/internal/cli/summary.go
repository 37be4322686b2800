package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/client"
)

const defaultURL = "http://localhost:8085"

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the watch summary of a tenant",
		Long: `Queries the summary API. --criteria takes the JSON body inline or, prefixed
with @, from a file. With --export the rendered file is written to --out.`,
		Example: `  alerting summary --tenant acme --sorting=-severity,status_code
  alerting summary --tenant acme --criteria '{"status_codes":["ACTION_FAILED"]}' --output yaml
  alerting summary --tenant acme --export xlsx --out acme.xlsx`,
		Args: cobra.NoArgs,
		RunE: runSummary,
	}

	cmd.Flags().String("url", envOr("ALERTING_URL", defaultURL), "summary API base URL")
	cmd.Flags().String("token", os.Getenv("ALERTING_TOKEN"), "bearer token")
	cmd.Flags().String("tenant", "", "tenant to summarize")
	cmd.Flags().String("sorting", "", "sort expression, e.g. -severity,actions.email.triggered")
	cmd.Flags().String("criteria", "", "search criteria JSON, or @file")
	cmd.Flags().Int("page", 0, "page number (requires --limit)")
	cmd.Flags().Int("limit", 0, "page size")
	cmd.Flags().String("export", "", "download as xlsx or pdf instead of printing")
	cmd.Flags().String("out", "", "file to write the export to")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if err := validateOutput(format); err != nil {
		return err
	}

	criteria, _ := cmd.Flags().GetString("criteria")
	body, err := readCriteria(criteria)
	if err != nil {
		return err
	}

	url, _ := cmd.Flags().GetString("url")
	token, _ := cmd.Flags().GetString("token")
	q := client.Query{Criteria: body}
	q.Tenant, _ = cmd.Flags().GetString("tenant")
	q.Sorting, _ = cmd.Flags().GetString("sorting")
	q.Page, _ = cmd.Flags().GetInt("page")
	q.Limit, _ = cmd.Flags().GetInt("limit")

	c := client.NewSummaryClient(url, token)

	if exportFormat, _ := cmd.Flags().GetString("export"); exportFormat != "" {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return errors.New("--out is required with --export")
		}
		data, err := c.Export(cmd.Context(), q, exportFormat)
		if err != nil {
			return fmt.Errorf("failed to export summary: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprintf("Wrote %s (%d bytes)", out, len(data)))
		return nil
	}

	resp, err := c.Summary(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}
	if err := renderReport(cmd.OutOrStdout(), format, resp.Data); err != nil {
		return err
	}
	if format == "table" && resp.Meta != nil {
		p := resp.Meta.Pagination
		fmt.Fprintln(cmd.OutOrStdout(), subtleColor.Sprintf("page %d, %d per page, %d total", p.Page, p.Limit, p.Total))
	}
	return nil
}

// readCriteria returns the request body: inline JSON, the contents of @file,
// or nil.
func readCriteria(arg string) (json.RawMessage, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read criteria file: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, errors.New("criteria is not valid JSON")
	}
	return data, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
