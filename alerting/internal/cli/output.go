package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

var (
	headerColor  = color.New(color.FgWhite, color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	subtleColor  = color.New(color.FgCyan)
	outputFormat = []string{"table", "json", "yaml"}
)

func validateOutput(format string) error {
	for _, f := range outputFormat {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(outputFormat, ", "))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML round-trips v through JSON so the YAML keys match the API.
func writeYAML(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func renderReport(w io.Writer, format string, r models.Report) error {
	switch format {
	case "json":
		return writeJSON(w, r)
	case "yaml":
		return writeYAML(w, r)
	}

	if len(r.Watches) == 0 {
		fmt.Fprintln(w, subtleColor.Sprint("No watches found"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerColor.Sprint("WATCH\tSTATUS\tSEVERITY\tLEVEL\tACTIONS"))
	for _, watch := range r.Watches {
		severity, level := "-", "-"
		if watch.Severity != nil {
			severity = *watch.Severity
		}
		if watch.SeverityDetails != nil {
			level = fmt.Sprintf("%d", watch.SeverityDetails.LevelNumeric)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			watch.WatchID, statusColor(watch.StatusCode).Sprint(watch.StatusCode), severity, level, actionList(watch))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, subtleColor.Sprintf("\n%d watches", len(r.Watches)))
	return nil
}

func statusColor(code string) *color.Color {
	switch code {
	case models.StatusActionExecuted, models.StatusNoAction:
		return okColor
	case models.StatusActionThrottled:
		return warnColor
	default:
		return failColor
	}
}

func actionList(w models.WatchSummary) string {
	if len(w.Actions) == 0 {
		return "-"
	}
	names := make([]string, 0, len(w.Actions))
	for name := range w.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
