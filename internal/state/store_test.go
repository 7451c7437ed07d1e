package state

import (
	"strings"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	return store
}

func TestStore_OpenClose(t *testing.T) {
	store := NewStore(nil)

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if store.Path() != ":memory:" {
		t.Errorf("expected path ':memory:', got %q", store.Path())
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStore_NotOpened(t *testing.T) {
	store := NewStore(nil)

	if err := store.Migrate(); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("expected not-opened error from Migrate, got %v", err)
	}
	if _, err := store.CreateRun("local", "sqlite"); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("expected not-opened error from CreateRun, got %v", err)
	}
	if _, err := store.GetScriptRunsForRun("some-run"); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("expected not-opened error from GetScriptRunsForRun, got %v", err)
	}
}

func TestStore_Migrate(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	// Verify tables exist by querying them
	tables := []string{"runs", "script_runs"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version < 2 {
		t.Errorf("expected migration version >= 2, got %d", version)
	}

	// Migrations are idempotent
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, store *Store) *Run
		operation func(t *testing.T, store *Store, run *Run)
		verify    func(t *testing.T, store *Store, run *Run)
	}{
		{
			name: "create run",
			setup: func(t *testing.T, store *Store) *Run {
				run, err := store.CreateRun("local", "sqlite")
				if err != nil {
					t.Fatalf("failed to create run: %v", err)
				}
				return run
			},
			verify: func(t *testing.T, store *Store, run *Run) {
				if run.ID == "" {
					t.Error("run ID should not be empty")
				}
				if run.Target != "local" {
					t.Errorf("expected target 'local', got %q", run.Target)
				}
				if run.Dialect != "sqlite" {
					t.Errorf("expected dialect 'sqlite', got %q", run.Dialect)
				}
				if run.Status != RunStatusRunning {
					t.Errorf("expected status 'running', got %q", run.Status)
				}
			},
		},
		{
			name: "get run",
			setup: func(t *testing.T, store *Store) *Run {
				run, err := store.CreateRun("warehouse", "duckdb")
				if err != nil {
					t.Fatalf("failed to create run: %v", err)
				}
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				retrieved, err := store.GetRun(run.ID)
				if err != nil {
					t.Fatalf("failed to get run: %v", err)
				}
				if retrieved.ID != run.ID {
					t.Errorf("expected ID %q, got %q", run.ID, retrieved.ID)
				}
				if retrieved.Target != "warehouse" {
					t.Errorf("expected target 'warehouse', got %q", retrieved.Target)
				}
				if retrieved.CompletedAt != nil {
					t.Error("completed_at should be nil for a running run")
				}
			},
		},
		{
			name: "get run not found",
			setup: func(t *testing.T, store *Store) *Run {
				return nil
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				_, err := store.GetRun("nonexistent-id")
				if err == nil {
					t.Error("expected error for nonexistent run")
				}
			},
		},
		{
			name: "complete run success",
			setup: func(t *testing.T, store *Store) *Run {
				run, _ := store.CreateRun("local", "sqlite")
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				if err := store.CompleteRun(run.ID, RunStatusCompleted, ""); err != nil {
					t.Fatalf("failed to complete run: %v", err)
				}
			},
			verify: func(t *testing.T, store *Store, run *Run) {
				retrieved, _ := store.GetRun(run.ID)
				if retrieved.Status != RunStatusCompleted {
					t.Errorf("expected status 'completed', got %q", retrieved.Status)
				}
				if retrieved.CompletedAt == nil {
					t.Error("completed_at should not be nil")
				}
				if retrieved.Error != "" {
					t.Errorf("expected empty error, got %q", retrieved.Error)
				}
			},
		},
		{
			name: "complete run with error",
			setup: func(t *testing.T, store *Store) *Run {
				run, _ := store.CreateRun("local", "sqlite")
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				if err := store.CompleteRun(run.ID, RunStatusFailed, "connection refused"); err != nil {
					t.Fatalf("failed to complete run: %v", err)
				}
			},
			verify: func(t *testing.T, store *Store, run *Run) {
				retrieved, _ := store.GetRun(run.ID)
				if retrieved.Status != RunStatusFailed {
					t.Errorf("expected status 'failed', got %q", retrieved.Status)
				}
				if retrieved.Error != "connection refused" {
					t.Errorf("expected error message, got %q", retrieved.Error)
				}
			},
		},
		{
			name: "cancel run",
			setup: func(t *testing.T, store *Store) *Run {
				run, _ := store.CreateRun("local", "sqlite")
				return run
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				if err := store.CompleteRun(run.ID, RunStatusCancelled, ""); err != nil {
					t.Fatalf("failed to cancel run: %v", err)
				}
			},
			verify: func(t *testing.T, store *Store, run *Run) {
				retrieved, _ := store.GetRun(run.ID)
				if retrieved.Status != RunStatusCancelled {
					t.Errorf("expected status 'cancelled', got %q", retrieved.Status)
				}
			},
		},
		{
			name: "complete run not found",
			setup: func(t *testing.T, store *Store) *Run {
				return nil
			},
			operation: func(t *testing.T, store *Store, run *Run) {
				err := store.CompleteRun("nonexistent-id", RunStatusCompleted, "")
				if err == nil {
					t.Error("expected error for nonexistent run")
				}
			},
		},
		{
			name: "get latest run",
			setup: func(t *testing.T, store *Store) *Run {
				store.CreateRun("prod", "postgres")
				time.Sleep(10 * time.Millisecond)
				run2, _ := store.CreateRun("prod", "postgres")
				return run2
			},
			verify: func(t *testing.T, store *Store, run *Run) {
				latest, err := store.GetLatestRun("prod")
				if err != nil {
					t.Fatalf("failed to get latest run: %v", err)
				}
				if latest.ID != run.ID {
					t.Errorf("expected latest run ID %q, got %q", run.ID, latest.ID)
				}
			},
		},
		{
			name: "get latest run no runs",
			setup: func(t *testing.T, store *Store) *Run {
				return nil
			},
			verify: func(t *testing.T, store *Store, run *Run) {
				latest, err := store.GetLatestRun("nonexistent")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if latest != nil {
					t.Error("expected nil for target with no runs")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			defer store.Close()

			var run *Run
			if tt.setup != nil {
				run = tt.setup(t, store)
			}
			if tt.operation != nil {
				tt.operation(t, store, run)
			}
			if tt.verify != nil {
				tt.verify(t, store, run)
			}
		})
	}
}

func TestStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	var ids []string
	for _, target := range []string{"local", "warehouse", "local"} {
		run, err := store.CreateRun(target, "sqlite")
		if err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		ids = append(ids, run.ID)
		time.Sleep(10 * time.Millisecond)
	}

	limited, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(limited))
	}
	if limited[0].ID != ids[2] {
		t.Errorf("expected newest run first, got %q", limited[0].ID)
	}
	if limited[1].ID != ids[1] {
		t.Errorf("expected second newest run, got %q", limited[1].ID)
	}

	all, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("failed to list all runs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}
}

func TestStore_ScriptRunLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		operation func(t *testing.T, store *Store, run *Run)
	}{
		{
			name: "record and finish success",
			operation: func(t *testing.T, store *Store, run *Run) {
				sr := &ScriptRun{
					RunID:  run.ID,
					Topic:  "windowing",
					Stage:  "example",
					Status: ScriptRunStatusRunning,
				}
				if err := store.RecordScriptRun(sr); err != nil {
					t.Fatalf("failed to record script run: %v", err)
				}
				if sr.ID == "" {
					t.Error("script run ID should be filled in")
				}
				if sr.StartedAt.IsZero() {
					t.Error("started_at should be stamped")
				}

				time.Sleep(10 * time.Millisecond)
				if err := store.UpdateScriptRun(sr.ID, ScriptRunStatusSuccess, 12, 0, 0, ""); err != nil {
					t.Fatalf("failed to update script run: %v", err)
				}

				scriptRuns, err := store.GetScriptRunsForRun(run.ID)
				if err != nil {
					t.Fatalf("failed to get script runs: %v", err)
				}
				if len(scriptRuns) != 1 {
					t.Fatalf("expected 1 script run, got %d", len(scriptRuns))
				}
				got := scriptRuns[0]
				if got.Status != ScriptRunStatusSuccess {
					t.Errorf("expected status 'success', got %q", got.Status)
				}
				if got.StatementsOK != 12 {
					t.Errorf("expected 12 succeeded statements, got %d", got.StatementsOK)
				}
				if got.StatementsFailed != 0 {
					t.Errorf("expected no failed statements, got %d", got.StatementsFailed)
				}
				if got.CompletedAt == nil {
					t.Error("completed_at should not be nil")
				}
				if got.ExecutionMS <= 0 {
					t.Errorf("expected positive execution time, got %d", got.ExecutionMS)
				}
			},
		},
		{
			name: "record and finish failure",
			operation: func(t *testing.T, store *Store, run *Run) {
				sr := &ScriptRun{
					RunID:  run.ID,
					Topic:  "temporal",
					Stage:  "example",
					Status: ScriptRunStatusRunning,
				}
				if err := store.RecordScriptRun(sr); err != nil {
					t.Fatalf("failed to record script run: %v", err)
				}
				if err := store.UpdateScriptRun(sr.ID, ScriptRunStatusFailed, 3, 1, 0, "no such table: employee_history"); err != nil {
					t.Fatalf("failed to update script run: %v", err)
				}

				scriptRuns, _ := store.GetScriptRunsForRun(run.ID)
				if len(scriptRuns) != 1 {
					t.Fatalf("expected 1 script run, got %d", len(scriptRuns))
				}
				if scriptRuns[0].Status != ScriptRunStatusFailed {
					t.Errorf("expected status 'failed', got %q", scriptRuns[0].Status)
				}
				if scriptRuns[0].StatementsFailed != 1 {
					t.Errorf("expected 1 failed statement, got %d", scriptRuns[0].StatementsFailed)
				}
				if scriptRuns[0].Error != "no such table: employee_history" {
					t.Errorf("unexpected error message %q", scriptRuns[0].Error)
				}
			},
		},
		{
			name: "record skipped",
			operation: func(t *testing.T, store *Store, run *Run) {
				sr := &ScriptRun{
					RunID:  run.ID,
					Topic:  "performance",
					Stage:  "example",
					Status: ScriptRunStatusSkipped,
				}
				if err := store.RecordScriptRun(sr); err != nil {
					t.Fatalf("failed to record skipped script: %v", err)
				}

				scriptRuns, _ := store.GetScriptRunsForRun(run.ID)
				if len(scriptRuns) != 1 {
					t.Fatalf("expected 1 script run, got %d", len(scriptRuns))
				}
				if scriptRuns[0].Status != ScriptRunStatusSkipped {
					t.Errorf("expected status 'skipped', got %q", scriptRuns[0].Status)
				}
				if scriptRuns[0].CompletedAt != nil {
					t.Error("skipped script should have no completion time")
				}
			},
		},
		{
			name: "update not found",
			operation: func(t *testing.T, store *Store, run *Run) {
				err := store.UpdateScriptRun("nonexistent-id", ScriptRunStatusSuccess, 0, 0, 0, "")
				if err == nil {
					t.Error("expected error for nonexistent script run")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			defer store.Close()

			run, err := store.CreateRun("local", "sqlite")
			if err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
			tt.operation(t, store, run)
		})
	}
}

func TestStore_ScriptRunOrdering(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	run, err := store.CreateRun("local", "sqlite")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	topics := []string{"setup", "seed", "recursion"}
	for _, topic := range topics {
		sr := &ScriptRun{RunID: run.ID, Topic: topic, Stage: "example", Status: ScriptRunStatusRunning}
		if err := store.RecordScriptRun(sr); err != nil {
			t.Fatalf("failed to record script run for %s: %v", topic, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	scriptRuns, err := store.GetScriptRunsForRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get script runs: %v", err)
	}
	if len(scriptRuns) != len(topics) {
		t.Fatalf("expected %d script runs, got %d", len(topics), len(scriptRuns))
	}
	for i, topic := range topics {
		if scriptRuns[i].Topic != topic {
			t.Errorf("position %d: expected topic %q, got %q", i, topic, scriptRuns[i].Topic)
		}
	}
}

func TestStore_GetLatestScriptRun(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	none, err := store.GetLatestScriptRun("joins")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none != nil {
		t.Error("expected nil for topic with no runs")
	}

	run, _ := store.CreateRun("local", "sqlite")

	first := &ScriptRun{RunID: run.ID, Topic: "joins", Stage: "example", Status: ScriptRunStatusRunning}
	if err := store.RecordScriptRun(first); err != nil {
		t.Fatalf("failed to record first script run: %v", err)
	}
	store.UpdateScriptRun(first.ID, ScriptRunStatusFailed, 2, 1, 0, "boom")
	time.Sleep(10 * time.Millisecond)

	second := &ScriptRun{RunID: run.ID, Topic: "joins", Stage: "example", Status: ScriptRunStatusRunning}
	if err := store.RecordScriptRun(second); err != nil {
		t.Fatalf("failed to record second script run: %v", err)
	}
	store.UpdateScriptRun(second.ID, ScriptRunStatusSuccess, 14, 0, 0, "")

	latest, err := store.GetLatestScriptRun("joins")
	if err != nil {
		t.Fatalf("failed to get latest script run: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a latest script run")
	}
	if latest.ID != second.ID {
		t.Errorf("expected latest script run %q, got %q", second.ID, latest.ID)
	}
	if latest.Status != ScriptRunStatusSuccess {
		t.Errorf("expected status 'success', got %q", latest.Status)
	}
}
