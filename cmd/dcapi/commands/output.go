package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// outputFormat returns the --output flag, falling back to the config file.
func outputFormat() string {
	if viper.IsSet("output") {
		return viper.GetString("output")
	}

	config, err := loadConfig()
	if err == nil && config.Output != "" {
		return config.Output
	}

	return constants.FormatTable
}

func isOutputFormat(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	default:
		return false
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

// renderResult prints a Record, RecordList or record slice in the selected format.
func renderResult(cmd *cobra.Command, result any) error {
	w := cmd.OutOrStdout()

	switch format := outputFormat(); format {
	case constants.FormatJSON:
		return writeJSON(w, result)
	case constants.FormatYAML:
		return writeYAML(w, result)
	case constants.FormatTable:
		switch v := result.(type) {
		case *shop.Record:
			return renderRecordTable(w, v)
		case *shop.RecordList:
			err := renderRecordsTable(w, v.Items)
			if err != nil {
				return err
			}

			if v.HasMeta() {
				_, _ = fmt.Fprintf(w, "Page %d of %d (%d total)\n", v.Page, v.PageCount, v.Count)
			}

			return nil
		case []*shop.Record:
			return renderRecordsTable(w, v)
		default:
			_, err := fmt.Fprintln(w, formatCell(result))

			return err
		}
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

func renderRecordTable(w io.Writer, record *shop.Record) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range record.Keys() {
		value, _ := record.Get(key)
		_ = table.Append(columnTitle(key), formatCell(value))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderRecordsTable(w io.Writer, records []*shop.Record) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No records found")

		return nil
	}

	columns := columnsOf(records)

	headers := make([]any, len(columns))
	for i, column := range columns {
		headers[i] = columnTitle(column)
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers...)

	for _, record := range records {
		row := make([]any, len(columns))

		for i, column := range columns {
			value, _ := record.Get(column)
			row[i] = formatCell(value)
		}

		_ = table.Append(row...)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// columnsOf returns every key seen, in first-seen order.
func columnsOf(records []*shop.Record) []string {
	seen := make(map[string]bool)

	var columns []string

	for _, record := range records {
		for _, key := range record.Keys() {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	return columns
}

func columnTitle(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	case *shop.Record, []any, map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return truncate(string(encoded), constants.CellTruncationLength)
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}

	return string(runes[:length-3]) + "..."
}
