package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/script"
	"github.com/leapstack-labs/sqlbook/internal/state"
	"github.com/leapstack-labs/sqlbook/pkg/adapter"
)

// adhocStage marks ledger entries for scripts run from disk rather than
// from the catalog.
const adhocStage = catalog.Stage("adhoc")

// StatementResult is the outcome of one executed statement.
type StatementResult struct {
	Label     string
	SQL       string
	Line      int
	Columns   []string
	Rows      [][]string
	Truncated bool
	Duration  time.Duration
	Err       error
	Tolerated bool
}

// ScriptResult is the outcome of one executed script.
type ScriptResult struct {
	Topic      string
	Stage      catalog.Stage
	Dialect    string
	Path       string
	Statements []StatementResult
	OK         int
	Failed     int
	Tolerated  int
	Duration   time.Duration

	// Err is the failure that aborted the script, nil on success.
	Err error
}

// RowsReturned is the total number of rows carried by the script's
// statement results.
func (r *ScriptResult) RowsReturned() int {
	total := 0
	for i := range r.Statements {
		total += len(r.Statements[i].Rows)
	}
	return total
}

// RunResult is the outcome of a runner invocation.
type RunResult struct {
	RunID    string
	Target   string
	Dialect  string
	Scripts  []*ScriptResult
	Duration time.Duration

	// Err is the failure that ended the run, nil when every script
	// succeeded.
	Err error
}

// RunOptions selects which catalog scripts a run executes.
type RunOptions struct {
	// Topics restricts the run to the named topics, kept in catalog
	// order. Empty means every topic.
	Topics []string

	// Stages restricts the run to scripts of the given stages.
	Stages []catalog.Stage

	// KeepGoing continues with the next script after a script fails
	// instead of skipping the rest of the sequence.
	KeepGoing bool
}

// Run executes the selected catalog scripts in catalog order and records
// the run in the ledger. The returned result is non-nil whenever a run
// was started, including failed and cancelled runs.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	started := time.Now()

	if err := r.ensureConnected(ctx); err != nil {
		return nil, err
	}
	dialectName := r.db.Dialect().Name

	scripts, err := r.selectScripts(dialectName, opts)
	if err != nil {
		return nil, err
	}
	if len(scripts) == 0 {
		return nil, fmt.Errorf("no scripts matched the requested topics and stages")
	}

	r.logger.Info("starting run", "target", r.target, "dialect", dialectName, "scripts", len(scripts))

	run, err := r.store.CreateRun(r.target, dialectName)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	result := &RunResult{RunID: run.ID, Target: r.target, Dialect: dialectName}

	failed := 0
	for i, sc := range scripts {
		if err := ctx.Err(); err != nil {
			r.recordSkipped(run.ID, scripts[i:], "run cancelled")
			_ = r.store.CompleteRun(run.ID, state.RunStatusCancelled, err.Error())
			result.Duration = time.Since(started)
			result.Err = err
			return result, err
		}

		tolerant := sc.Topic.Stage == catalog.StageCleanup
		res := r.runRecordedScript(ctx, run.ID, sc, tolerant)
		result.Scripts = append(result.Scripts, res)

		if res.Err == nil {
			r.logger.Debug("script completed",
				"topic", sc.Topic.Name,
				"statements", res.OK,
				"tolerated", res.Tolerated,
				"duration_ms", res.Duration.Milliseconds())
			continue
		}

		failed++
		r.logger.Error("script failed", "topic", sc.Topic.Name, "error", res.Err)

		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			r.recordSkipped(run.ID, scripts[i+1:], "run cancelled")
			_ = r.store.CompleteRun(run.ID, state.RunStatusCancelled, res.Err.Error())
			result.Duration = time.Since(started)
			result.Err = res.Err
			return result, res.Err
		}

		if !opts.KeepGoing {
			r.recordSkipped(run.ID, scripts[i+1:], fmt.Sprintf("skipped: %s failed", sc.Topic.Name))
			_ = r.store.CompleteRun(run.ID, state.RunStatusFailed, res.Err.Error())
			result.Duration = time.Since(started)
			result.Err = res.Err
			return result, res.Err
		}
	}

	result.Duration = time.Since(started)

	if failed > 0 {
		result.Err = fmt.Errorf("%d script(s) failed", failed)
		_ = r.store.CompleteRun(run.ID, state.RunStatusFailed, result.Err.Error())
		return result, result.Err
	}

	_ = r.store.CompleteRun(run.ID, state.RunStatusCompleted, "")
	r.logger.Info("run completed", "run_id", run.ID, "scripts", len(scripts), "duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// RunFile executes a script from disk against the target and records it
// in the ledger under the file's base name.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	started := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	statements, err := script.Split(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", path, err)
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("no statements in %s", path)
	}

	if err := r.ensureConnected(ctx); err != nil {
		return nil, err
	}
	dialectName := r.db.Dialect().Name

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sc := &catalog.Script{
		Topic:      catalog.Topic{Name: name, Title: path, Stage: adhocStage},
		Dialect:    dialectName,
		Path:       path,
		Statements: statements,
	}

	r.logger.Info("running script file", "path", path, "statements", len(statements))

	run, err := r.store.CreateRun(r.target, dialectName)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	res := r.runRecordedScript(ctx, run.ID, sc, false)

	result := &RunResult{
		RunID:    run.ID,
		Target:   r.target,
		Dialect:  dialectName,
		Scripts:  []*ScriptResult{res},
		Duration: time.Since(started),
		Err:      res.Err,
	}

	switch {
	case res.Err == nil:
		_ = r.store.CompleteRun(run.ID, state.RunStatusCompleted, "")
	case errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded):
		_ = r.store.CompleteRun(run.ID, state.RunStatusCancelled, res.Err.Error())
	default:
		_ = r.store.CompleteRun(run.ID, state.RunStatusFailed, res.Err.Error())
	}

	return result, res.Err
}

// selectScripts resolves the scripts a run will execute, in catalog
// order. Topic names are validated so a typo fails before a run is
// created.
func (r *Runner) selectScripts(dialectName string, opts RunOptions) ([]*catalog.Script, error) {
	scripts, err := r.catalog.Scripts(dialectName)
	if err != nil {
		return nil, err
	}

	if len(opts.Topics) > 0 {
		requested := make(map[string]bool, len(opts.Topics))
		for _, topic := range opts.Topics {
			if _, err := r.catalog.Script(dialectName, topic); err != nil {
				return nil, err
			}
			requested[strings.ToLower(topic)] = true
		}

		var filtered []*catalog.Script
		for _, sc := range scripts {
			if requested[sc.Topic.Name] {
				filtered = append(filtered, sc)
			}
		}
		scripts = filtered
	}

	if len(opts.Stages) > 0 {
		stages := make(map[catalog.Stage]bool, len(opts.Stages))
		for _, stage := range opts.Stages {
			stages[stage] = true
		}

		var filtered []*catalog.Script
		for _, sc := range scripts {
			if stages[sc.Topic.Stage] {
				filtered = append(filtered, sc)
			}
		}
		scripts = filtered
	}

	return scripts, nil
}

// runRecordedScript executes one script and records it in the ledger.
func (r *Runner) runRecordedScript(ctx context.Context, runID string, sc *catalog.Script, tolerant bool) *ScriptResult {
	sr := &state.ScriptRun{
		RunID:  runID,
		Topic:  sc.Topic.Name,
		Stage:  string(sc.Topic.Stage),
		Status: state.ScriptRunStatusRunning,
	}
	_ = r.store.RecordScriptRun(sr)

	res := r.runScript(ctx, sc, tolerant)

	if res.Err != nil {
		_ = r.store.UpdateScriptRun(sr.ID, state.ScriptRunStatusFailed, res.OK, res.Failed, res.Tolerated, res.Err.Error())
	} else {
		_ = r.store.UpdateScriptRun(sr.ID, state.ScriptRunStatusSuccess, res.OK, res.Failed, res.Tolerated, "")
	}
	return res
}

// recordSkipped writes skipped ledger entries for scripts a run never
// reached.
func (r *Runner) recordSkipped(runID string, scripts []*catalog.Script, reason string) {
	for _, sc := range scripts {
		_ = r.store.RecordScriptRun(&state.ScriptRun{
			RunID:  runID,
			Topic:  sc.Topic.Name,
			Stage:  string(sc.Topic.Stage),
			Status: state.ScriptRunStatusSkipped,
			Error:  reason,
		})
	}
}

// runScript executes a script's statements top to bottom. The first
// failing statement aborts the script, unless tolerant is set and the
// failure is an object-not-found, which is counted and skipped.
func (r *Runner) runScript(ctx context.Context, sc *catalog.Script, tolerant bool) *ScriptResult {
	started := time.Now()
	res := &ScriptResult{
		Topic:   sc.Topic.Name,
		Stage:   sc.Topic.Stage,
		Dialect: sc.Dialect,
		Path:    sc.Path,
	}

	r.logger.Debug("running script", "topic", sc.Topic.Name, "statements", len(sc.Statements))

	for i := range sc.Statements {
		stmt := &sc.Statements[i]

		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}

		sres := r.runStatement(ctx, stmt)

		if sres.Err != nil && tolerant && isMissingObject(sres.Err) {
			sres.Tolerated = true
			res.Tolerated++
			res.Statements = append(res.Statements, sres)
			r.logger.Debug("tolerated failure", "topic", sc.Topic.Name, "line", stmt.Line, "error", sres.Err)
			continue
		}

		res.Statements = append(res.Statements, sres)

		if sres.Err != nil {
			res.Failed++
			res.Err = fmt.Errorf("%s line %d: %w", sc.Path, stmt.Line, sres.Err)
			break
		}
		res.OK++
	}

	res.Duration = time.Since(started)
	return res
}

// runStatement executes one statement, fetching rows for row-returning
// statements up to the runner's row cap.
func (r *Runner) runStatement(ctx context.Context, stmt *script.Statement) StatementResult {
	sres := StatementResult{Label: stmt.Label, SQL: stmt.SQL, Line: stmt.Line}
	started := time.Now()

	if stmt.ReturnsRows() {
		rows, err := r.db.Query(ctx, stmt.SQL)
		if err != nil {
			sres.Err = err
			sres.Duration = time.Since(started)
			return sres
		}
		cols, data, truncated, err := CollectRows(rows, r.rowCap)
		_ = rows.Close()
		sres.Columns = cols
		sres.Rows = data
		sres.Truncated = truncated
		sres.Err = err
	} else {
		sres.Err = r.db.Exec(ctx, stmt.SQL)
	}

	sres.Duration = time.Since(started)
	return sres
}

// CollectRows drains a result set into rendered string values, keeping
// at most limit rows. A limit of zero or less keeps every row.
func CollectRows(rows *adapter.Rows, limit int) (columns []string, data [][]string, truncated bool, err error) {
	columns, err = rows.Columns()
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to read columns: %w", err)
	}

	for rows.Next() {
		if limit > 0 && len(data) >= limit {
			truncated = true
			break
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return columns, data, truncated, fmt.Errorf("failed to scan row: %w", err)
		}

		rendered := make([]string, len(columns))
		for i, v := range values {
			rendered[i] = FormatValue(v)
		}
		data = append(data, rendered)
	}

	if err := rows.Err(); err != nil {
		return columns, data, truncated, fmt.Errorf("error iterating rows: %w", err)
	}
	return columns, data, truncated, nil
}

// FormatValue renders a driver value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// missingObjectMarkers are the phrasings engines use when a statement
// touches an object that is not there. Matched case-insensitively.
var missingObjectMarkers = []string{
	"does not exist",
	"no such table",
	"no such view",
	"no such index",
	"no such trigger",
	"invalid object name",
	"unknown table",
}

// isMissingObject reports whether an error is an object-not-found
// failure that cleanup scripts may tolerate.
func isMissingObject(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range missingObjectMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
