// Package verify runs data-integrity checks against a database the
// catalog scripts have built.
//
// Each check probes one property the collection promises: foreign keys
// resolve, the org chart is a tree, derived totals match their formula,
// the bounded recursive series terminates at exactly 1..100, and setup
// and cleanup leave the schema in the documented state. Checks run
// concurrently and report pass, warn or fail with per-finding detail.
package verify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
)

// Status is the outcome level of a check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Mode selects which state of the database the checks expect.
type Mode string

const (
	// ModeSeeded expects setup and seed to have run: objects present,
	// data in place.
	ModeSeeded Mode = "seeded"

	// ModeAfterCleanup expects cleanup to have run: no collection
	// objects remaining. Data checks do not apply.
	ModeAfterCleanup Mode = "after-cleanup"
)

// Check is the result of one named check.
type Check struct {
	// Name is the check's stable identifier, e.g. "foreign-keys".
	Name string `json:"name"`

	// Title is the one-line description of the property checked.
	Title string `json:"title"`

	// Group is the report category the check belongs to.
	Group string `json:"group"`

	Status Status `json:"status"`

	// Details lists the findings, one per violated instance. Empty on
	// pass.
	Details []string `json:"details,omitempty"`

	FindingCount int           `json:"finding_count"`
	Duration     time.Duration `json:"-"`
	DurationMS   int64         `json:"duration_ms"`
}

// Report is the outcome of a verification run.
type Report struct {
	Dialect  string        `json:"dialect"`
	Mode     Mode          `json:"mode"`
	Checks   []Check       `json:"checks"`
	Passed   int           `json:"passed"`
	Warned   int           `json:"warned"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"-"`
}

// OK reports whether no check failed. Warnings do not count against it.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Verifier runs the check suite against one connected database.
type Verifier struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// New creates a verifier for a connected adapter.
// If logger is nil, a discard logger is used.
func New(db adapter.Adapter, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Verifier{db: db, logger: logger}
}

// Run executes every check that applies in the given mode, concurrently.
// Check findings land in the report; the returned error is reserved for
// cancellation.
func (v *Verifier) Run(ctx context.Context, mode Mode) (*Report, error) {
	started := time.Now()
	d := v.db.Dialect()
	pr := &prober{db: v.db, d: d}

	var defs []checkDef
	for _, def := range checks {
		if mode == ModeAfterCleanup && !def.afterCleanup {
			continue
		}
		defs = append(defs, def)
	}

	v.logger.Debug("running checks", "mode", string(mode), "checks", len(defs))

	results := make([]Check, len(defs))
	eg, egctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		eg.Go(func() error {
			results[i] = v.runCheck(egctx, pr, def, mode)
			return egctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Dialect:  d.Name,
		Mode:     mode,
		Checks:   results,
		Duration: time.Since(started),
	}
	for _, c := range results {
		switch c.Status {
		case StatusPass:
			report.Passed++
		case StatusWarn:
			report.Warned++
		case StatusFail:
			report.Failed++
		}
	}
	return report, nil
}

// runCheck executes one check and folds its findings into a result. A
// probe error is itself a finding: a missing table fails the check that
// needed it rather than aborting the suite.
func (v *Verifier) runCheck(ctx context.Context, pr *prober, def checkDef, mode Mode) Check {
	started := time.Now()

	findings, err := def.run(ctx, pr, mode)
	if err != nil {
		findings = append(findings, err.Error())
	}

	status := StatusPass
	if len(findings) > 0 {
		status = StatusFail
		if def.warnOnly && err == nil {
			status = StatusWarn
		}
	}

	dur := time.Since(started)
	v.logger.Debug("check finished",
		"check", def.name,
		"status", string(status),
		"findings", len(findings),
		"duration_ms", dur.Milliseconds())

	return Check{
		Name:         def.name,
		Title:        def.title,
		Group:        def.group,
		Status:       status,
		Details:      findings,
		FindingCount: len(findings),
		Duration:     dur,
		DurationMS:   dur.Milliseconds(),
	}
}

// CheckNames returns the names of every check in report order.
func CheckNames() []string {
	names := make([]string, len(checks))
	for i, def := range checks {
		names[i] = def.name
	}
	return names
}
