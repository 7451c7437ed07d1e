package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/cli/output"
	"github.com/spf13/cobra"
)

// showOptions holds options for the show command.
type showOptions struct {
	stmts bool
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <topic>",
		Short: "Show a topic's script as resolved for the target dialect",
		Long: `Show the full script of one topic, resolved for the selected target's
dialect. Shared topics print the common rendition; topics with a
dialect override print the override.

With --stmts the script is broken into its executable statements, each
with its label, leading commentary and line number.

Output adapts to environment:
  - Terminal: Plain SQL (suitable for syntax highlighting)
  - Piped/Scripted: Markdown with code block`,
		Example: `  # Show the recursion examples for the default target
  sqlbook show recursion

  # Show the SQL Server rendition of the temporal examples
  sqlbook show temporal --target mssql

  # Show the statement breakdown
  sqlbook show windowing --stmts

  # Save the resolved script to a file
  sqlbook show setup > setup.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
		ValidArgsFunction: completeTopicNames,
	}

	cmd.Flags().BoolVar(&opts.stmts, "stmts", false, "Show the statement breakdown instead of the raw script")

	return cmd
}

func runShow(cmd *cobra.Command, topic string, opts *showOptions) error {
	cmdCtx, err := NewCommandContextWithoutRunner(cmd)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	dialect := cmdCtx.Dialect()

	sc, err := cmdCtx.Catalog.Script(dialect, topic)
	if err != nil {
		return err
	}

	if opts.stmts {
		return showStatements(sc, r)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		variant := "shared"
		if !sc.Shared {
			variant = sc.Dialect
		}
		return r.JSON(output.ShowOutput{
			Topic:      sc.Topic.Name,
			Title:      sc.Topic.Title,
			Stage:      string(sc.Topic.Stage),
			Dialect:    sc.Dialect,
			Variant:    variant,
			Path:       sc.Path,
			Statements: len(sc.Statements),
			SQL:        sc.Source,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("%s (%s)", sc.Topic.Title, sc.Dialect)))
		r.Println("")
		r.Println(sc.Topic.Summary)
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", strings.TrimRight(sc.Source, "\n")))
	default:
		// Text mode: just output the SQL directly
		r.Println(strings.TrimRight(sc.Source, "\n"))
	}

	return nil
}

// showStatements prints the executable breakdown of a script.
func showStatements(sc *catalog.Script, r *output.Renderer) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		stmts := make([]output.StatementInfo, 0, len(sc.Statements))
		for _, st := range sc.Statements {
			stmts = append(stmts, output.StatementInfo{
				Label: st.Label,
				Line:  st.Line,
				Rows:  st.ReturnsRows(),
				SQL:   st.SQL,
			})
		}
		return r.JSON(output.ShowStatementsOutput{
			Topic:      sc.Topic.Name,
			Dialect:    sc.Dialect,
			Statements: stmts,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("%s: %d statements", sc.Topic.Name, len(sc.Statements))))
		for _, st := range sc.Statements {
			r.Println("")
			r.Println(output.FormatHeader(2, fmt.Sprintf("%s (line %d)", st.Label, st.Line)))
			r.Println("")
			r.Println(output.FormatCodeBlock("sql", st.SQL))
		}
	default:
		s := r.Styles()
		r.Header(1, fmt.Sprintf("%s: %d statements", sc.Topic.Name, len(sc.Statements)))
		for i, st := range sc.Statements {
			kind := "stmt"
			if st.ReturnsRows() {
				kind = "query"
			}
			r.Printf("%2d. %s  %s\n", i+1,
				s.Bold.Render(st.Label),
				s.Muted.Render(fmt.Sprintf("[line %d, %s]", st.Line, kind)))
		}
	}

	return nil
}
