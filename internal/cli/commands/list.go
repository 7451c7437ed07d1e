package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the example topics in the catalog",
		Long: `List every topic in the script catalog as resolved for the selected
target's dialect, with its stage, statement count and a one-line summary.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all topics for the default target
  sqlbook list

  # List topics as resolved for SQL Server
  sqlbook list --target mssql

  # List topics as JSON
  sqlbook list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContextWithoutRunner(cmd)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	dialect := cmdCtx.Dialect()

	scripts, err := cmdCtx.Catalog.Scripts(dialect)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listJSON(scripts, dialect, r)
	case output.ModeMarkdown:
		return listMarkdown(scripts, dialect, r)
	default:
		return listText(scripts, dialect, r)
	}
}

// listText outputs topics in styled text format.
func listText(scripts []*catalog.Script, dialect string, r *output.Renderer) error {
	s := r.Styles()
	r.Header(1, fmt.Sprintf("Topics (%d total, dialect %s)", len(scripts), dialect))

	for i, sc := range scripts {
		variant := "shared"
		if !sc.Shared {
			variant = sc.Dialect
		}
		r.Printf("%2d. %s  %s\n", i+1,
			s.TopicKey.Render(sc.Topic.Name),
			s.Muted.Render(fmt.Sprintf("[%s, %d stmts, %s]", sc.Topic.Stage, len(sc.Statements), variant)))
		r.Printf("    %s\n", sc.Topic.Summary)
	}

	return nil
}

// listMarkdown outputs topics in markdown format.
func listMarkdown(scripts []*catalog.Script, dialect string, r *output.Renderer) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Topics (%d total, dialect %s)", len(scripts), dialect)))
	r.Println("")
	r.Println("| # | Topic | Stage | Statements | Variant | Summary |")
	r.Println("|---|-------|-------|------------|---------|---------|")

	for i, sc := range scripts {
		variant := "shared"
		if !sc.Shared {
			variant = sc.Dialect
		}
		r.Printf("| %d | `%s` | %s | %d | %s | %s |\n",
			i+1, sc.Topic.Name, sc.Topic.Stage, len(sc.Statements), variant, sc.Topic.Summary)
	}

	return nil
}

// listJSON outputs topics in JSON format.
func listJSON(scripts []*catalog.Script, dialect string, r *output.Renderer) error {
	out := output.ListOutput{Dialect: dialect, Topics: make([]output.TopicInfo, 0, len(scripts))}

	for _, sc := range scripts {
		variant := "shared"
		if !sc.Shared {
			variant = sc.Dialect
		}
		out.Topics = append(out.Topics, output.TopicInfo{
			Name:       sc.Topic.Name,
			Title:      sc.Topic.Title,
			Stage:      string(sc.Topic.Stage),
			Summary:    sc.Topic.Summary,
			Statements: len(sc.Statements),
			Variant:    variant,
		})
		out.Summary.TotalStatements += len(sc.Statements)
	}
	out.Summary.TotalTopics = len(out.Topics)

	return r.JSON(out)
}
