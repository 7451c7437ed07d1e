// Package main provides tests for the sqlbook CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlbook/internal/cli"
)

// writeWorkbook creates a workbook directory with a config pointing at a
// file-backed SQLite target, so state survives across CLI invocations.
func writeWorkbook(t *testing.T) (dir, cfgPath string) {
	t.Helper()

	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "sqlbook.yaml")
	cfg := `target: local
targets:
  local:
    type: sqlite
    path: book.db
state_path: state.db
output: markdown
`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir, cfgPath
}

// execCLI runs one CLI invocation and returns its combined output.
func execCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(buf.String(), "sqlbook") {
		t.Errorf("version output should contain 'sqlbook', got: %s", buf.String())
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{
		"run", "list", "show", "setup", "seed", "teardown",
		"verify", "query", "history", "export", "ui",
	}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain %q, got: %s", expected, output)
		}
	}
}

func TestListCommand(t *testing.T) {
	_, cfgPath := writeWorkbook(t)

	output, err := execCLI(t, cfgPath, "list")
	if err != nil {
		t.Fatalf("list command error = %v", err)
	}

	for _, topic := range []string{"setup", "seed", "recursion", "windowing", "temporal", "cleanup"} {
		if !strings.Contains(output, topic) {
			t.Errorf("list output should contain %q, got: %s", topic, output)
		}
	}
}

func TestShowCommand(t *testing.T) {
	_, cfgPath := writeWorkbook(t)

	output, err := execCLI(t, cfgPath, "show", "recursion")
	if err != nil {
		t.Fatalf("show command error = %v", err)
	}
	if !strings.Contains(output, "RECURSIVE") {
		t.Errorf("show output should contain the recursive CTE, got: %s", output)
	}
	if !strings.Contains(output, "```sql") {
		t.Errorf("markdown show output should fence the SQL, got: %s", output)
	}
}

func TestShowCommand_UnknownTopic(t *testing.T) {
	_, cfgPath := writeWorkbook(t)

	if _, err := execCLI(t, cfgPath, "show", "nonsense"); err == nil {
		t.Fatal("show command succeeded for an unknown topic")
	}
}

// TestWorkbookLifecycle drives the catalog end to end against a
// file-backed SQLite database: schema up, seed, examples, verification,
// ad-hoc queries, history, teardown.
func TestWorkbookLifecycle(t *testing.T) {
	_, cfgPath := writeWorkbook(t)

	// Schema and seed data first.
	output, err := execCLI(t, cfgPath, "run", "--stage", "setup", "--stage", "seed")
	if err != nil {
		t.Fatalf("run setup+seed error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "| `setup` |") || !strings.Contains(output, "| `seed` |") {
		t.Errorf("run output should list both scripts, got: %s", output)
	}
	if !strings.Contains(output, "2 succeeded, 0 failed") {
		t.Errorf("run output should report success, got: %s", output)
	}

	// The seeded database verifies clean.
	output, err = execCLI(t, cfgPath, "verify")
	if err != nil {
		t.Fatalf("verify error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "9 passed, 0 warned, 0 failed") {
		t.Errorf("verify output should pass every check, got: %s", output)
	}

	// Example topics run against the seeded schema.
	output, err = execCLI(t, cfgPath, "run", "recursion", "windowing", "joins")
	if err != nil {
		t.Fatalf("run examples error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "3 succeeded, 0 failed") {
		t.Errorf("example run should succeed, got: %s", output)
	}

	// Ad-hoc SQL sees the seeded tables.
	output, err = execCLI(t, cfgPath, "query", "SELECT COUNT(*) AS n FROM departments", "--format", "csv")
	if err != nil {
		t.Fatalf("query error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "n\n") {
		t.Errorf("query output should have a csv header, got: %s", output)
	}

	// The ledger remembers the runs above.
	output, err = execCLI(t, cfgPath, "history")
	if err != nil {
		t.Fatalf("history error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Run History") || !strings.Contains(output, "completed") {
		t.Errorf("history output should list completed runs, got: %s", output)
	}

	// Teardown drops everything and proves it.
	output, err = execCLI(t, cfgPath, "teardown", "--verify")
	if err != nil {
		t.Fatalf("teardown error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "| `cleanup` |") {
		t.Errorf("teardown output should list the cleanup script, got: %s", output)
	}
	if !strings.Contains(output, "1 passed, 0 warned, 0 failed") {
		t.Errorf("after-cleanup verification should pass, got: %s", output)
	}
}

func TestRunCommand_UnknownTopic(t *testing.T) {
	_, cfgPath := writeWorkbook(t)

	output, err := execCLI(t, cfgPath, "run", "nonsense")
	if err == nil {
		t.Fatalf("run command succeeded for an unknown topic, output: %s", output)
	}
}

func TestExportCommand(t *testing.T) {
	dir, cfgPath := writeWorkbook(t)
	exportDir := filepath.Join(dir, "out")

	output, err := execCLI(t, cfgPath, "export", exportDir)
	if err != nil {
		t.Fatalf("export error = %v\noutput: %s", err, output)
	}

	entries, err := os.ReadDir(exportDir)
	if err != nil {
		t.Fatalf("reading export dir: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("exported %d files, want 10", len(entries))
	}

	first, err := os.ReadFile(filepath.Join(exportDir, "01_setup.sql"))
	if err != nil {
		t.Fatalf("reading exported setup script: %v", err)
	}
	if !strings.Contains(string(first), "CREATE TABLE") {
		t.Errorf("exported setup script should create tables, got: %s", first)
	}

	// Without --force a second export refuses to clobber.
	if _, err := execCLI(t, cfgPath, "export", exportDir); err == nil {
		t.Error("export succeeded over an existing directory without --force")
	}
	if _, err := execCLI(t, cfgPath, "export", exportDir, "--force"); err != nil {
		t.Errorf("export --force error = %v", err)
	}
}
