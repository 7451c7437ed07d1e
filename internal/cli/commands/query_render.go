package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/leapstack-labs/sqlbook/pkg/adapter"
)

// renderQueryRows writes one result set in the requested format.
func renderQueryRows(w io.Writer, columns []string, data [][]string, truncated bool, format string) error {
	switch format {
	case "json":
		return renderRowsJSON(w, columns, data)
	case "csv":
		return renderRowsCSV(w, columns, data)
	case "md", "markdown":
		return renderRowsMarkdown(w, columns, data)
	default:
		return renderRowsTable(w, columns, data, truncated)
	}
}

func renderRowsTable(w io.Writer, columns []string, data [][]string, truncated bool) error {
	if len(data) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(columns))
	for i, col := range columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range data {
		row := make(table.Row, len(columns))
		for i := range columns {
			if i < len(values) {
				row[i] = values[i]
			}
		}
		t.AppendRow(row)
	}

	t.Render()
	if truncated {
		_, _ = fmt.Fprintf(w, "(%d rows shown, more available)\n", len(data))
	} else {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(data))
	}
	return nil
}

func renderRowsJSON(w io.Writer, columns []string, data [][]string) error {
	results := make([]map[string]string, 0, len(data))
	for _, values := range data {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderRowsCSV(w io.Writer, columns []string, data [][]string) error {
	_, _ = fmt.Fprintln(w, strings.Join(columns, ","))

	for _, values := range data {
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = escapeCSV(v)
		}
		_, _ = fmt.Fprintln(w, strings.Join(escaped, ","))
	}
	return nil
}

func renderRowsMarkdown(w io.Writer, columns []string, data [][]string) error {
	if len(data) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(columns, " | "))
	seps := make([]string, len(columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range data {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Helper functions for subcommands and dot-commands

// listObjects renders the tables and views of the target schema.
func listObjects(ctx context.Context, w io.Writer, run *runner.Runner, format string, viewsOnly bool) error {
	objects, err := run.Adapter().ListObjects(ctx)
	if err != nil {
		return err
	}

	columns := []string{"name", "type"}
	var data [][]string
	for _, obj := range objects {
		if viewsOnly && obj.Type != "view" {
			continue
		}
		data = append(data, []string{obj.Name, obj.Type})
	}

	return renderQueryRows(w, columns, data, false, format)
}

// showTableSchema renders the column list of one table or view.
func showTableSchema(ctx context.Context, w io.Writer, run *runner.Runner, tableName, format string) error {
	meta, err := run.Adapter().GetTableMetadata(ctx, tableName)
	if err != nil {
		return fmt.Errorf("table or view %q not found: %w", tableName, err)
	}

	if format == "json" {
		return renderTableMetadataJSON(w, meta)
	}

	_, _ = fmt.Fprintf(w, "Table: %s\n", meta.Name)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Key"})

	for _, col := range meta.Columns {
		nullable := "YES"
		if !col.Nullable {
			nullable = "NO"
		}
		key := ""
		if col.PrimaryKey {
			key = "PK"
		}
		t.AppendRow(table.Row{col.Name, col.Type, nullable, key})
	}
	t.Render()

	if meta.RowCount >= 0 {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", meta.RowCount)
	}
	return nil
}

type tableSchemaColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

type tableSchemaOutput struct {
	Schema   string              `json:"schema,omitempty"`
	Name     string              `json:"name"`
	RowCount int64               `json:"row_count"`
	Columns  []tableSchemaColumn `json:"columns"`
}

func renderTableMetadataJSON(w io.Writer, meta *adapter.TableMetadata) error {
	out := tableSchemaOutput{
		Schema:   meta.Schema,
		Name:     meta.Name,
		RowCount: meta.RowCount,
		Columns:  make([]tableSchemaColumn, 0, len(meta.Columns)),
	}
	for _, col := range meta.Columns {
		out.Columns = append(out.Columns, tableSchemaColumn{
			Name:       col.Name,
			Type:       col.Type,
			Nullable:   col.Nullable,
			PrimaryKey: col.PrimaryKey,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
