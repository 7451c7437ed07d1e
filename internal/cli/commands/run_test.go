package commands

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbook/internal/catalog"
	"github.com/leapstack-labs/sqlbook/internal/cli/testutil"
	"github.com/leapstack-labs/sqlbook/internal/runner"
)

// sampleRunResult fabricates a three-script run with one tolerated
// cleanup failure, enough shape to exercise every render mode.
func sampleRunResult() *runner.RunResult {
	return &runner.RunResult{
		RunID:    "run-0123abcd",
		Target:   "local",
		Dialect:  "sqlite",
		Duration: 1500 * time.Millisecond,
		Scripts: []*runner.ScriptResult{
			{Topic: "setup", Stage: catalog.StageSetup, OK: 12, Duration: 420 * time.Millisecond},
			{Topic: "recursion", Stage: catalog.StageExample, OK: 5, Duration: 200 * time.Millisecond},
			{
				Topic:    "windowing",
				Stage:    catalog.StageExample,
				OK:       2,
				Failed:   1,
				Duration: 80 * time.Millisecond,
				Err:      errors.New("statement 3 failed: no such table: sales"),
			},
		},
	}
}

func TestRenderRunResult_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()
	result := sampleRunResult()

	renderRunResult(tr.Renderer, result)

	out := tr.Output()
	testutil.AssertContains(t, out, "setup")
	testutil.AssertContains(t, out, "recursion")
	testutil.AssertContains(t, out, "windowing")
	testutil.AssertContains(t, out, "no such table: sales")
	testutil.AssertContains(t, out, "2 script(s) succeeded, 1 failed")
	// Buffer-backed renderers degrade to plain text.
	testutil.AssertNoANSI(t, out)
}

func TestRenderRunResult_Markdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	result := sampleRunResult()

	renderRunResult(tr.Renderer, result)

	out := tr.Output()
	testutil.AssertContains(t, out, "# Run run-0123abcd (local, sqlite)")
	testutil.AssertContains(t, out, "| Topic | Stage | Status | Statements | Rows | Duration |")
	testutil.AssertContains(t, out, "| `setup` | setup | success | 12 | 0 | 420ms |")
	testutil.AssertContains(t, out, "| `windowing` | example | failed |")
	testutil.AssertContains(t, out, "**Total:** 2 succeeded, 1 failed in 1.5s")
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
}

func TestRenderRunResult_JSON(t *testing.T) {
	tr := testutil.NewTestRendererJSON()
	result := sampleRunResult()

	renderRunResult(tr.Renderer, result)

	lines := strings.Split(strings.TrimSpace(tr.Output()), "\n")
	require.Len(t, lines, 5) // run_start + 3 scripts + run_complete

	var events []map[string]any
	for _, line := range lines {
		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &event), "line should be valid JSON: %s", line)
		events = append(events, event)
	}

	assert.Equal(t, "run_start", events[0]["event"])
	assert.Equal(t, "run-0123abcd", events[0]["run_id"])

	assert.Equal(t, "script_complete", events[1]["event"])
	assert.Equal(t, "setup", events[1]["topic"])
	assert.Equal(t, "success", events[1]["status"])

	assert.Equal(t, "failed", events[3]["status"])
	assert.Contains(t, events[3]["error"], "no such table")

	last := events[len(events)-1]
	assert.Equal(t, "run_complete", last["event"])
	assert.Equal(t, float64(3), last["total_scripts"])
	assert.Equal(t, float64(2), last["successful"])
	assert.Equal(t, float64(1), last["failed"])
}

func TestScriptStatus(t *testing.T) {
	ok := &runner.ScriptResult{Topic: "setup"}
	assert.Equal(t, "success", scriptStatus(ok))

	bad := &runner.ScriptResult{Topic: "setup", Err: errors.New("boom")}
	assert.Equal(t, "failed", scriptStatus(bad))
}

func TestTallyScripts(t *testing.T) {
	ok, failed := tallyScripts(sampleRunResult())
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)

	ok, failed = tallyScripts(&runner.RunResult{})
	assert.Equal(t, 0, ok)
	assert.Equal(t, 0, failed)
}

func TestRunCommand_FlagValidation(t *testing.T) {
	t.Run("watch requires file", func(t *testing.T) {
		err := runRun(NewRunCommand(), nil, &runOptions{watch: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--watch requires --file")
	})

	t.Run("file excludes topics", func(t *testing.T) {
		err := runRun(NewRunCommand(), []string{"recursion"}, &runOptions{file: "scratch.sql"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be combined")
	})

	t.Run("bad stage name", func(t *testing.T) {
		err := runRun(NewRunCommand(), nil, &runOptions{stages: []string{"nonsense"}})
		require.Error(t, err)
	})
}
