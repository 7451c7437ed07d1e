package verify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlbook/internal/schema"
	"github.com/leapstack-labs/sqlbook/pkg/adapter"
	"github.com/leapstack-labs/sqlbook/pkg/dialect"
)

// checkFunc probes the database and returns one finding per violated
// instance. An empty return means the property holds.
type checkFunc func(ctx context.Context, pr *prober, mode Mode) ([]string, error)

type checkDef struct {
	name  string
	title string
	group string

	// warnOnly downgrades findings to a warning. Used where the schema
	// deliberately leaves a property unenforced.
	warnOnly bool

	// afterCleanup marks checks that also apply once cleanup has run.
	afterCleanup bool

	run checkFunc
}

// checks lists every check in report order.
var checks = []checkDef{
	{
		name:         "schema-objects",
		title:        "Setup creates and cleanup removes every declared object",
		group:        "schema",
		afterCleanup: true,
		run:          checkSchemaObjects,
	},
	{
		name:  "foreign-keys",
		title: "Every declared reference resolves",
		group: "integrity",
		run:   checkForeignKeys,
	},
	{
		name:  "order-status",
		title: "Order statuses stay within the documented lifecycle",
		group: "integrity",
		run:   checkOrderStatus,
	},
	{
		name:  "line-totals",
		title: "Derived line totals match quantity, price and discount",
		group: "integrity",
		run:   checkLineTotals,
	},
	{
		name:  "employee-tree",
		title: "The org chart has one root and no cycles",
		group: "hierarchy",
		run:   checkEmployeeTree,
	},
	{
		name:  "category-tree",
		title: "Category nesting is acyclic",
		group: "hierarchy",
		run:   checkCategoryTree,
	},
	{
		name:     "bom-cycles",
		title:    "The parts explosion has no cycles",
		group:    "hierarchy",
		warnOnly: true,
		run:      checkBOMCycles,
	},
	{
		name:  "seed-counts",
		title: "Every table holds its documented row count",
		group: "data",
		run:   checkSeedCounts,
	},
	{
		name:  "series-termination",
		title: "The bounded recursive series yields exactly 1..100",
		group: "data",
		run:   checkSeriesTermination,
	},
}

// prober issues probe queries through the adapter.
type prober struct {
	db adapter.Adapter
	d  *dialect.Dialect
}

// queryInts runs a probe expected to return a single row of integers.
func (p *prober) queryInts(ctx context.Context, query string, dest ...*int64) error {
	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return fmt.Errorf("probe returned no rows")
	}
	ptrs := make([]any, len(dest))
	for i := range dest {
		ptrs[i] = dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return err
	}
	return rows.Err()
}

// count runs a single-value COUNT probe.
func (p *prober) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := p.queryInts(ctx, query, &n)
	return n, err
}

// intPairs runs a probe returning two integer columns per row.
func (p *prober) intPairs(ctx context.Context, query string) ([][2]int64, error) {
	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pairs [][2]int64
	for rows.Next() {
		var a, b int64
		if err := rows.Scan(&a, &b); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]int64{a, b})
	}
	return pairs, rows.Err()
}

func checkSchemaObjects(ctx context.Context, pr *prober, mode Mode) ([]string, error) {
	objects, err := pr.db.ListObjects(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(objects))
	for _, obj := range objects {
		present[obj.Name] = true
	}

	var findings []string
	for _, name := range schema.ExpectedObjects(pr.d.Name) {
		switch mode {
		case ModeAfterCleanup:
			if present[name] {
				findings = append(findings, fmt.Sprintf("%s still exists after cleanup", name))
			}
		default:
			if !present[name] {
				findings = append(findings, fmt.Sprintf("%s is missing", name))
			}
		}
	}
	return findings, nil
}

func checkForeignKeys(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	var findings []string
	for _, fk := range schema.ForeignKeys {
		query := fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT IN (SELECT %s FROM %s)",
			fk.Table, fk.Column, fk.Column, fk.RefColumn, fk.RefTable)
		n, err := pr.count(ctx, query)
		if err != nil {
			return findings, fmt.Errorf("%s.%s: %w", fk.Table, fk.Column, err)
		}
		if n > 0 {
			findings = append(findings, fmt.Sprintf(
				"%s.%s: %d rows reference missing %s rows", fk.Table, fk.Column, n, fk.RefTable))
		}
	}
	return findings, nil
}

func checkOrderStatus(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	n, err := pr.count(ctx,
		"SELECT COUNT(*) FROM orders WHERE status NOT IN ('PENDING', 'SHIPPED', 'DELIVERED', 'CANCELLED')")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return []string{fmt.Sprintf("%d orders carry a status outside the lifecycle", n)}, nil
	}
	return nil, nil
}

func checkLineTotals(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	n, err := pr.count(ctx,
		"SELECT COUNT(*) FROM order_items WHERE ABS(line_total - (quantity * unit_price * (1 - discount))) > 0.01")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return []string{fmt.Sprintf("%d line totals disagree with quantity * unit_price * (1 - discount)", n)}, nil
	}
	return nil, nil
}

func checkEmployeeTree(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	var findings []string

	roots, err := pr.count(ctx, "SELECT COUNT(*) FROM employees WHERE manager_id IS NULL")
	if err != nil {
		return nil, err
	}
	if roots != 1 {
		findings = append(findings, fmt.Sprintf("expected exactly one employee without a manager, found %d", roots))
	}

	edges, err := pr.intPairs(ctx,
		"SELECT manager_id, emp_id FROM employees WHERE manager_id IS NOT NULL")
	if err != nil {
		return findings, err
	}
	findings = append(findings, cycleFindings(edges, "management chain")...)
	return findings, nil
}

func checkCategoryTree(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	var findings []string

	// The catalog seeds two top-level categories on purpose; the nesting
	// only has to be a forest.
	roots, err := pr.count(ctx, "SELECT COUNT(*) FROM categories WHERE parent_id IS NULL")
	if err != nil {
		return nil, err
	}
	if roots == 0 {
		findings = append(findings, "no top-level category: every category has a parent")
	}

	edges, err := pr.intPairs(ctx,
		"SELECT parent_id, category_id FROM categories WHERE parent_id IS NOT NULL")
	if err != nil {
		return findings, err
	}
	findings = append(findings, cycleFindings(edges, "category nesting")...)
	return findings, nil
}

func checkBOMCycles(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	edges, err := pr.intPairs(ctx,
		"SELECT parent_part_id, component_part_id FROM bill_of_materials")
	if err != nil {
		return nil, err
	}
	return cycleFindings(edges, "parts explosion"), nil
}

func checkSeedCounts(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	expected := schema.SeedCounts()
	tables := make([]string, 0, len(expected))
	for name := range expected {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	var findings []string
	for _, table := range tables {
		n, err := pr.count(ctx, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			return findings, fmt.Errorf("%s: %w", table, err)
		}
		if n != int64(expected[table]) {
			findings = append(findings, fmt.Sprintf(
				"%s holds %d rows, want %d", table, n, expected[table]))
		}
	}
	return findings, nil
}

func checkSeriesTermination(ctx context.Context, pr *prober, _ Mode) ([]string, error) {
	recursive := ""
	if pr.d.Features.RecursiveKeyword {
		recursive = "RECURSIVE "
	}
	// The SUM cast keeps the result in 64-bit range on engines that
	// widen integer sums (DuckDB returns HUGEINT).
	query := "WITH " + recursive + "series(n) AS (" +
		"SELECT 1 UNION ALL SELECT n + 1 FROM series WHERE n < 100" +
		") SELECT COUNT(*), MIN(n), MAX(n), CAST(SUM(n) AS BIGINT) FROM series"

	var count, minN, maxN, sum int64
	if err := pr.queryInts(ctx, query, &count, &minN, &maxN, &sum); err != nil {
		return nil, err
	}

	var findings []string
	if count != 100 {
		findings = append(findings, fmt.Sprintf("series produced %d values, want 100", count))
	}
	if minN != 1 || maxN != 100 {
		findings = append(findings, fmt.Sprintf("series spans %d..%d, want 1..100", minN, maxN))
	}
	if sum != 5050 {
		findings = append(findings, fmt.Sprintf("series sums to %d, want 5050", sum))
	}
	return findings, nil
}

// cycleFindings reports cycles in parent-child row data. Self-references
// are length-one cycles and are reported directly; longer cycles come
// from a graph walk over the remaining edges.
func cycleFindings(edges [][2]int64, what string) []string {
	var findings []string

	g := schema.NewGraph()
	for _, e := range edges {
		parent := strconv.FormatInt(e[0], 10)
		child := strconv.FormatInt(e[1], 10)
		if parent == child {
			findings = append(findings, fmt.Sprintf("%s: %s refers to itself", what, child))
			continue
		}
		g.AddNode(parent, nil)
		g.AddNode(child, nil)
		if err := g.AddEdge(parent, child); err != nil {
			findings = append(findings, fmt.Sprintf("%s: %v", what, err))
		}
	}

	if cyclic, path := g.HasCycle(); cyclic {
		findings = append(findings, fmt.Sprintf("%s contains a cycle: %s", what, strings.Join(path, " -> ")))
	}
	return findings
}
