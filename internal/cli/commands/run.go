package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/cli/output"
	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/spf13/cobra"
)

// runOptions holds options for the run command.
type runOptions struct {
	stages    []string
	keepGoing bool
	file      string
	watch     bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [topic ...]",
		Short: "Run catalog topics against the selected target",
		Long: `Execute catalog scripts in catalog order: setup first, seed second,
example topics in between, cleanup last.

With no arguments every topic runs. Naming topics restricts the run,
--stage restricts it to whole stages. A failing script skips the rest
of the sequence unless --keep-going is set; the cleanup stage tolerates
already-missing objects either way.

--file runs a single SQL script from disk instead of the catalog, and
--watch re-runs that file whenever it changes.

Output adapts to environment:
  - Terminal: Styled progress and result lines
  - Piped/Scripted: Markdown summary
  - JSON: one event per line (run_start, script_complete, run_complete)`,
		Example: `  # Run the full collection
  sqlbook run

  # Create the schema and load the seed data, nothing else
  sqlbook run setup seed

  # Run the window-function examples against a named target
  sqlbook run windowing --target pg

  # Re-run every example topic, continuing past failures
  sqlbook run --stage example --keep-going

  # Run a scratch file and re-run it on every save
  sqlbook run --file scratch.sql --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
		ValidArgsFunction: completeTopicNames,
	}

	cmd.Flags().StringSliceVar(&opts.stages, "stage", nil, "Restrict the run to these stages (setup, seed, example, cleanup)")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "Continue with the next script after a failure")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Run a SQL file from disk instead of the catalog")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run --file whenever it changes")

	_ = cmd.RegisterFlagCompletionFunc("stage", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return catalog.StageNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, topics []string, opts *runOptions) error {
	if opts.watch && opts.file == "" {
		return fmt.Errorf("--watch requires --file")
	}
	if opts.file != "" && len(topics) > 0 {
		return fmt.Errorf("--file cannot be combined with topic arguments")
	}

	stages := make([]catalog.Stage, 0, len(opts.stages))
	for _, name := range opts.stages {
		stage, err := catalog.ParseStage(name)
		if err != nil {
			return err
		}
		stages = append(stages, stage)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.watch {
		return runWatch(cmd.Context(), cmdCtx, opts.file)
	}

	if opts.file != "" {
		result, runErr := cmdCtx.Runner.RunFile(cmd.Context(), opts.file)
		if result == nil {
			return runErr
		}
		renderRunResult(cmdCtx.Renderer, result)
		return runErr
	}

	r := cmdCtx.Renderer

	// Spinner only in text mode so machine-readable output stays clean.
	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner(fmt.Sprintf("Running against %s...", cmdCtx.Cfg.Target))
		spinner.Start()
	}

	result, runErr := cmdCtx.Runner.Run(cmd.Context(), runner.RunOptions{
		Topics:    topics,
		Stages:    stages,
		KeepGoing: opts.keepGoing,
	})
	if result == nil {
		if spinner != nil {
			spinner.Fail("Run failed to start")
		}
		return runErr
	}
	if spinner != nil {
		if runErr == nil {
			spinner.Success(fmt.Sprintf("Run %s completed in %s", result.RunID, result.Duration.Round(time.Millisecond)))
		} else {
			spinner.Fail(fmt.Sprintf("Run %s failed", result.RunID))
		}
	}

	renderRunResult(r, result)
	return runErr
}

// runWatch runs a script file once, then re-runs it on every change
// until interrupted.
func runWatch(ctx context.Context, cmdCtx *CommandContext, path string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := cmdCtx.Renderer
	r.Info(fmt.Sprintf("Watching %s (Ctrl+C to stop)", path))

	err := cmdCtx.Runner.Watch(ctx, path, func(result *runner.RunResult, runErr error) {
		if result == nil {
			if runErr != nil {
				r.Error(runErr.Error())
			}
			return
		}
		renderRunResult(r, result)
	})
	if err != nil && ctx.Err() != nil {
		// Interrupted on purpose.
		return nil
	}
	return err
}

// renderRunResult writes a run's outcome in the renderer's mode.
func renderRunResult(r *output.Renderer, result *runner.RunResult) {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		renderRunJSON(r, result)
	case output.ModeMarkdown:
		renderRunMarkdown(r, result)
	default:
		renderRunText(r, result)
	}
}

func scriptStatus(res *runner.ScriptResult) string {
	if res.Err != nil {
		return "failed"
	}
	return "success"
}

func renderRunText(r *output.Renderer, result *runner.RunResult) {
	for _, res := range result.Scripts {
		detail := fmt.Sprintf("[%d stmts, %d rows, %s]",
			res.OK, res.RowsReturned(), res.Duration.Round(time.Millisecond))
		if res.Tolerated > 0 {
			detail = fmt.Sprintf("[%d stmts, %d tolerated, %s]",
				res.OK, res.Tolerated, res.Duration.Round(time.Millisecond))
		}
		r.StatusLine(res.Topic, scriptStatus(res), detail)
		if res.Err != nil {
			r.Printf("      %s\n", res.Err)
		}
	}

	ok, failed := tallyScripts(result)
	summary := fmt.Sprintf("%d script(s) succeeded", ok)
	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}
	r.Muted(summary)
}

func renderRunMarkdown(r *output.Renderer, result *runner.RunResult) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Run %s (%s, %s)", result.RunID, result.Target, result.Dialect)))
	r.Println("")
	r.Println("| Topic | Stage | Status | Statements | Rows | Duration |")
	r.Println("|-------|-------|--------|------------|------|----------|")
	for _, res := range result.Scripts {
		status := scriptStatus(res)
		r.Printf("| `%s` | %s | %s | %d | %d | %s |\n",
			res.Topic, res.Stage, status, res.OK, res.RowsReturned(), res.Duration.Round(time.Millisecond))
	}
	r.Println("")

	ok, failed := tallyScripts(result)
	r.Println(fmt.Sprintf("**Total:** %d succeeded, %d failed in %s", ok, failed, result.Duration.Round(time.Millisecond)))
	if result.Err != nil {
		r.Println("")
		r.Println(fmt.Sprintf("**Error:** %s", result.Err))
	}
}

// renderRunJSON emits the run as one event per line, the shape CI
// pipelines consume.
func renderRunJSON(r *output.Renderer, result *runner.RunResult) {
	started := time.Now().Add(-result.Duration)

	topics := make([]string, 0, len(result.Scripts))
	for _, res := range result.Scripts {
		topics = append(topics, res.Topic)
	}
	emitRunEvent(r, output.RunEvent{
		Event:     "run_start",
		Timestamp: started.UTC().Format(time.RFC3339),
		RunID:     result.RunID,
		Topics:    topics,
	})

	for _, res := range result.Scripts {
		event := output.RunEvent{
			Event:       "script_complete",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			RunID:       result.RunID,
			Topic:       res.Topic,
			Status:      scriptStatus(res),
			Statements:  res.OK,
			Tolerated:   res.Tolerated,
			Rows:        res.RowsReturned(),
			ExecutionMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			event.Error = res.Err.Error()
		}
		emitRunEvent(r, event)
	}

	ok, failed := tallyScripts(result)
	emitRunEvent(r, output.RunEvent{
		Event:        "run_complete",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		RunID:        result.RunID,
		TotalScripts: len(result.Scripts),
		Successful:   ok,
		Failed:       failed,
		TotalMS:      result.Duration.Milliseconds(),
	})
}

func emitRunEvent(r *output.Renderer, event output.RunEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	r.Println(string(data))
}

func tallyScripts(result *runner.RunResult) (ok, failed int) {
	for _, res := range result.Scripts {
		if res.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}

// completeTopicNames offers catalog topic names for shell completion.
func completeTopicNames(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, name := range cat.TopicNames() {
		if strings.HasPrefix(name, strings.ToLower(toComplete)) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
