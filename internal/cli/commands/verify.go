package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sqlbook/internal/cli/output"
	"github.com/leapstack-labs/sqlbook/internal/verify"
	"github.com/spf13/cobra"
)

// verifyOptions holds options for the verify command.
type verifyOptions struct {
	afterCleanup bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the target database against the expected state",
		Long: `Run consistency checks against the selected target and report the
results grouped by category.

The default mode expects a set-up, seeded database: every schema object
present, foreign keys resolving, the employee tree a single-rooted
acyclic hierarchy, seed row counts exact, order totals consistent with
their line items.

--after-cleanup flips the expectation: the teardown must have removed
every object the collection created.

Output adapts to environment:
  - Terminal: Styled report with colors
  - Piped/Scripted: Markdown report
  - JSON: Machine-readable report`,
		Example: `  # Verify a seeded database
  sqlbook verify

  # Verify that teardown removed everything
  sqlbook verify --after-cleanup

  # Machine-readable report
  sqlbook verify --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.afterCleanup, "after-cleanup", false, "Expect a torn-down database instead of a seeded one")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *verifyOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	mode := verify.ModeSeeded
	if opts.afterCleanup {
		mode = verify.ModeAfterCleanup
	}

	return runVerifyWith(cmd.Context(), cmdCtx, mode)
}

// runVerifyWith runs verification against an existing context, so the
// teardown command can chain it after a cleanup.
func runVerifyWith(ctx context.Context, cmdCtx *CommandContext, mode verify.Mode) error {
	if err := cmdCtx.Runner.Connect(ctx); err != nil {
		return err
	}

	v := verify.New(cmdCtx.Runner.Adapter(), cmdCtx.Logger)
	report, err := v.Run(ctx, mode)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(report); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderVerifyMarkdown(r, report)
	default:
		renderVerifyText(r, report)
	}

	if !report.OK() {
		return fmt.Errorf("%d check(s) failed", report.Failed)
	}
	return nil
}

func renderVerifyText(r *output.Renderer, report *verify.Report) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Verification Report (%s, %s)", report.Dialect, report.Mode)))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range report.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case verify.StatusWarn:
			icon = styles.Warning.Render("!")
		case verify.StatusFail:
			icon = styles.StatusFailed.String()
		}

		line := fmt.Sprintf("%s %s", icon, check.Title)
		if check.FindingCount > 0 {
			line += fmt.Sprintf(" (%d findings)", check.FindingCount)
		}
		r.Println("   " + line)

		// Show first 3 findings per check
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	summary := fmt.Sprintf("%d passed, %d warned, %d failed in %s",
		report.Passed, report.Warned, report.Failed, report.Duration.Round(time.Millisecond))
	if report.OK() {
		r.Success(summary)
	} else {
		r.Error(summary)
	}
	r.Println("")
}

func renderVerifyMarkdown(r *output.Renderer, report *verify.Report) {
	r.Println(fmt.Sprintf("# Verification Report (%s, %s)", report.Dialect, report.Mode))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range report.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := strings.ToUpper(string(check.Status))
		r.Printf("- **[%s]** %s", status, check.Title)
		if check.FindingCount > 0 {
			r.Printf(" (%d findings)", check.FindingCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}

	r.Println("")
	r.Printf("**Total:** %d passed, %d warned, %d failed\n", report.Passed, report.Warned, report.Failed)
}
