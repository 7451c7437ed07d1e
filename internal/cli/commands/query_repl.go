package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/leapstack-labs/sqlbook/internal/script"
)

const replPrompt = "sqlbook> "
const replContinuation = "    ...> "

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, opts *queryOptions) error {
	ctx := cmd.Context()

	if err := cmdCtx.Runner.Connect(ctx); err != nil {
		return err
	}
	run := cmdCtx.Runner

	// History lives next to the run ledger.
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "query_history")

	completer := newObjectCompleter(ctx, cmdCtx)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	dialect := run.Adapter().Dialect()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlbook REPL (target: %s, dialect: %s)\n", cmdCtx.Cfg.Target, dialect.Name)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(ctx, cmd, cmdCtx, line, opts); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt(replContinuation)
			continue
		}
		rl.SetPrompt(replPrompt)

		sqlText := multiLineBuffer.String()
		multiLineBuffer.Reset()

		if err := executeReplStatement(ctx, cmd, run, sqlText, opts); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// executeReplStatement runs one buffered statement against the target.
func executeReplStatement(ctx context.Context, cmd *cobra.Command, run *runner.Runner, sqlText string, opts *queryOptions) error {
	sqlText = strings.TrimSuffix(strings.TrimSpace(sqlText), ";")
	if sqlText == "" {
		return nil
	}

	db := run.Adapter()
	if !script.IsRowReturning(sqlText) {
		if err := db.Exec(ctx, sqlText); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	}

	rows, err := db.Query(ctx, sqlText)
	if err != nil {
		return err
	}
	columns, data, truncated, err := runner.CollectRows(rows, opts.Limit)
	_ = rows.Close()
	if err != nil {
		return err
	}
	return renderQueryRows(cmd.OutOrStdout(), columns, data, truncated, opts.Format)
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, line string, opts *queryOptions) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)
		return true

	case ".tables":
		if err := listObjects(ctx, out, cmdCtx.Runner, opts.Format, false); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		return true

	case ".views":
		if err := listObjects(ctx, out, cmdCtx.Runner, opts.Format, true); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .schema <table>")
			return true
		}
		if err := showTableSchema(ctx, out, cmdCtx.Runner, parts[1], opts.Format); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		return true

	case ".topics":
		for _, topic := range cmdCtx.Catalog.Topics() {
			_, _ = fmt.Fprintf(out, "  %-16s %s\n", topic.Name, topic.Title)
		}
		return true

	case ".run":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .run <topic>")
			return true
		}
		result, err := cmdCtx.Runner.Run(ctx, runner.RunOptions{Topics: parts[1:]})
		if result != nil {
			renderRunResult(cmdCtx.Renderer, result)
		} else if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List the tables and views in the target schema
  .views          List views only
  .schema <name>  Show the columns of a table or view
  .topics         List the catalog topics
  .run <topic>    Run a catalog topic (e.g. .run seed)
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names and topics
`
	_, _ = fmt.Fprintln(w, help)
}

// newObjectCompleter creates a readline completer from the target's
// objects and the catalog's topics.
func newObjectCompleter(ctx context.Context, cmdCtx *CommandContext) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	objects, err := cmdCtx.Runner.Adapter().ListObjects(ctx)
	if err == nil {
		for _, obj := range objects {
			items = append(items, readline.PcItem(obj.Name))
		}
	}

	topicItems := make([]readline.PrefixCompleterInterface, 0, len(cmdCtx.Catalog.Topics()))
	schemaItems := make([]readline.PrefixCompleterInterface, 0, len(objects))
	for _, topic := range cmdCtx.Catalog.Topics() {
		topicItems = append(topicItems, readline.PcItem(topic.Name))
	}
	for _, obj := range objects {
		schemaItems = append(schemaItems, readline.PcItem(obj.Name))
	}

	// Dot-commands; .schema and .run complete their argument too.
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".views"),
		readline.PcItem(".schema", schemaItems...),
		readline.PcItem(".topics"),
		readline.PcItem(".run", topicItems...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
