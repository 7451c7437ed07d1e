package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/runner"
	"github.com/leapstack-labs/sqlbook/pkg/adapter"

	_ "github.com/leapstack-labs/sqlbook/pkg/adapters/sqlite" // register sqlite adapter
)

// seededRunner builds an in-memory SQLite database with the catalog's
// setup and seed scripts applied.
func seededRunner(t *testing.T) *runner.Runner {
	t.Helper()

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}
	r, err := runner.New(runner.Config{
		Catalog:       cat,
		AdapterConfig: adapter.Config{Type: "sqlite", Path: ":memory:"},
		StatePath:     ":memory:",
	})
	if err != nil {
		t.Fatalf("runner.New() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Run(context.Background(), runner.RunOptions{
		Stages: []catalog.Stage{catalog.StageSetup, catalog.StageSeed},
	})
	if err != nil {
		t.Fatalf("setup and seed failed: %v", err)
	}
	return r
}

func TestVerify_SeededDatabase(t *testing.T) {
	r := seededRunner(t)
	v := New(r.Adapter(), nil)

	report, err := v.Run(context.Background(), ModeSeeded)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !report.OK() {
		for _, c := range report.Checks {
			if c.Status != StatusPass {
				t.Errorf("check %s: %s %v", c.Name, c.Status, c.Details)
			}
		}
		t.Fatal("seeded database did not verify")
	}
	if report.Dialect != "sqlite" {
		t.Errorf("Dialect = %q, want %q", report.Dialect, "sqlite")
	}
	if report.Passed != len(CheckNames()) || report.Failed != 0 || report.Warned != 0 {
		t.Errorf("counts = %d/%d/%d, want %d/0/0",
			report.Passed, report.Warned, report.Failed, len(CheckNames()))
	}

	// Results come back in declared order.
	for i, name := range CheckNames() {
		if report.Checks[i].Name != name {
			t.Errorf("check %d = %q, want %q", i, report.Checks[i].Name, name)
		}
	}
}

func TestVerify_FindsOrphans(t *testing.T) {
	r := seededRunner(t)
	ctx := context.Background()
	db := r.Adapter()

	// Slip an orphaned sale past SQLite's own enforcement.
	if err := db.Exec(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disabling foreign keys: %v", err)
	}
	err := db.Exec(ctx,
		"INSERT INTO sales (sale_id, sale_date, region, product_id, quantity, amount) VALUES (999, '2025-06-01', 'Nowhere', 9999, 1, 10.00)")
	if err != nil {
		t.Fatalf("inserting orphan: %v", err)
	}

	report, err := New(db, nil).Run(ctx, ModeSeeded)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.OK() {
		t.Fatal("orphaned row went unnoticed")
	}

	var fk *Check
	for i := range report.Checks {
		if report.Checks[i].Name == "foreign-keys" {
			fk = &report.Checks[i]
		}
	}
	if fk == nil || fk.Status != StatusFail {
		t.Fatalf("foreign-keys check = %+v, want fail", fk)
	}
	if len(fk.Details) != 1 || !strings.Contains(fk.Details[0], "sales.product_id") {
		t.Errorf("findings = %v, want one naming sales.product_id", fk.Details)
	}
}

func TestVerify_FindsManagementCycle(t *testing.T) {
	r := seededRunner(t)
	ctx := context.Background()
	db := r.Adapter()

	// Make the CEO report to a junior engineer: the chart loses its root
	// and gains a cycle in one move.
	if err := db.Exec(ctx, "UPDATE employees SET manager_id = 20 WHERE emp_id = 1"); err != nil {
		t.Fatalf("corrupting org chart: %v", err)
	}

	report, err := New(db, nil).Run(ctx, ModeSeeded)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var tree *Check
	for i := range report.Checks {
		if report.Checks[i].Name == "employee-tree" {
			tree = &report.Checks[i]
		}
	}
	if tree == nil || tree.Status != StatusFail {
		t.Fatalf("employee-tree check = %+v, want fail", tree)
	}
	if len(tree.Details) < 2 {
		t.Fatalf("findings = %v, want root and cycle findings", tree.Details)
	}
	foundCycle := false
	for _, d := range tree.Details {
		if strings.Contains(d, "cycle") {
			foundCycle = true
		}
	}
	if !foundCycle {
		t.Errorf("findings %v do not mention the cycle", tree.Details)
	}
}

func TestVerify_FindsRowCountDrift(t *testing.T) {
	r := seededRunner(t)
	ctx := context.Background()
	db := r.Adapter()

	if err := db.Exec(ctx,
		"INSERT INTO graph_edges (from_node, to_node, weight) VALUES ('Z1', 'Z2', 1)"); err != nil {
		t.Fatalf("inserting extra edge: %v", err)
	}

	report, err := New(db, nil).Run(ctx, ModeSeeded)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, c := range report.Checks {
		if c.Name != "seed-counts" {
			continue
		}
		if c.Status != StatusFail {
			t.Fatalf("seed-counts = %s, want fail", c.Status)
		}
		if len(c.Details) != 1 || !strings.Contains(c.Details[0], "graph_edges") {
			t.Errorf("findings = %v, want one naming graph_edges", c.Details)
		}
		return
	}
	t.Fatal("seed-counts check missing from report")
}

func TestVerify_AfterCleanup(t *testing.T) {
	r := seededRunner(t)
	ctx := context.Background()
	v := New(r.Adapter(), nil)

	// With the schema still standing, the after-cleanup expectation must
	// fail on every object.
	report, err := v.Run(ctx, ModeAfterCleanup)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Checks) != 1 {
		t.Fatalf("after-cleanup mode ran %d checks, want 1", len(report.Checks))
	}
	if report.Checks[0].Name != "schema-objects" || report.Checks[0].Status != StatusFail {
		t.Fatalf("check = %+v, want failing schema-objects", report.Checks[0])
	}
	if !strings.Contains(report.Checks[0].Details[0], "still exists") {
		t.Errorf("finding = %q, want a still-exists finding", report.Checks[0].Details[0])
	}

	// After cleanup runs, the same mode passes.
	if _, err := r.Run(ctx, runner.RunOptions{
		Stages: []catalog.Stage{catalog.StageCleanup},
	}); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	report, err = v.Run(ctx, ModeAfterCleanup)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.OK() {
		t.Fatalf("after-cleanup verification failed: %+v", report.Checks)
	}
}

func TestVerify_MissingSchema(t *testing.T) {
	// Checks against a bare database fail with the engine's error rather
	// than aborting the suite.
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}
	r, err := runner.New(runner.Config{
		Catalog:       cat,
		AdapterConfig: adapter.Config{Type: "sqlite", Path: ":memory:"},
		StatePath:     ":memory:",
	})
	if err != nil {
		t.Fatalf("runner.New() error = %v", err)
	}
	defer func() { _ = r.Close() }()
	if err := r.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	report, err := New(r.Adapter(), nil).Run(context.Background(), ModeSeeded)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.OK() {
		t.Fatal("bare database verified")
	}
	for _, c := range report.Checks {
		if c.Name == "seed-counts" && c.Status != StatusFail {
			t.Errorf("seed-counts = %s, want fail", c.Status)
		}
	}
}

func TestVerify_Cancelled(t *testing.T) {
	r := seededRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(r.Adapter(), nil).Run(ctx, ModeSeeded)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestCycleFindings(t *testing.T) {
	tests := []struct {
		name     string
		edges    [][2]int64
		want     int
		contains string
	}{
		{
			name:  "acyclic",
			edges: [][2]int64{{1, 2}, {1, 3}, {2, 4}},
			want:  0,
		},
		{
			name:     "self reference",
			edges:    [][2]int64{{1, 2}, {3, 3}},
			want:     1,
			contains: "refers to itself",
		},
		{
			name:     "cycle",
			edges:    [][2]int64{{1, 2}, {2, 3}, {3, 1}},
			want:     1,
			contains: "cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := cycleFindings(tt.edges, "probe")
			if len(findings) != tt.want {
				t.Fatalf("got %d findings %v, want %d", len(findings), findings, tt.want)
			}
			if tt.contains != "" && !strings.Contains(findings[0], tt.contains) {
				t.Errorf("finding = %q, want it to contain %q", findings[0], tt.contains)
			}
		})
	}
}

func TestCheckNames(t *testing.T) {
	names := CheckNames()
	want := []string{
		"schema-objects", "foreign-keys", "order-status", "line-totals",
		"employee-tree", "category-tree", "bom-cycles", "seed-counts",
		"series-termination",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d checks, want %d", len(names), len(want))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("check %d = %q, want %q", i, names[i], name)
		}
	}
}
