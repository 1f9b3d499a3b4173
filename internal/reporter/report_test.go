package reporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatGolden(t *testing.T) {
	results := []core.TestResult{
		core.NewResult("A", core.OutcomePassed, "", 200*time.Millisecond),
		core.NewResult("B", core.OutcomeTimedOut, "global timeout exceeded after 1s", time.Second),
	}

	expected := `==========================
        Test Report
==========================
A: Passed
msg: 
duration: 0.2
--------------------------
B: TimedOut
msg: global timeout exceeded after 1s
duration: 1
--------------------------
`
	assert.Equal(t, expected, Format(results))
}

func TestFormatLineStructure(t *testing.T) {
	outcomes := []core.Outcome{
		core.OutcomePassed,
		core.OutcomeFailed,
		core.OutcomeError,
		core.OutcomeTimedOut,
		core.OutcomeSkipped,
	}

	for n := 0; n <= len(outcomes); n++ {
		results := make([]core.TestResult, n)
		for i := range results {
			results[i] = core.NewResult(
				string(rune('A'+i)),
				outcomes[i%len(outcomes)],
				"line one\nline two",
				time.Duration(i)*time.Millisecond,
			)
		}

		lines := strings.Split(strings.TrimSuffix(Format(results), "\n"), "\n")
		assert.Len(t, lines, len(header)+4*n)
	}
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, strings.Join(header, "\n")+"\n", Format(nil))
}

func TestFormatRegistry(t *testing.T) {
	a := core.NewFuncCase("A", func(context.Context, *core.FuncCase) error { return nil })
	b := core.NewFuncCase("B", func(context.Context, *core.FuncCase) error { return nil })

	_, err := FormatRegistry([]core.TestCase{a, b})
	require.ErrorIs(t, err, core.ErrMissingResult)
	assert.Contains(t, err.Error(), "'A'")

	a.Cancel(&core.TimeoutError{After: time.Second})
	b.Cancel(nil)

	report, err := FormatRegistry([]core.TestCase{a, b})
	require.NoError(t, err)
	assert.Contains(t, report, "A: TimedOut\nmsg: global timeout exceeded after 1s\nduration: 0\n")
	assert.Contains(t, report, "B: Error\nmsg: context canceled\n")
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []core.Outcome
		status   SummaryStatus
		text     string
	}{
		{
			name:   "empty",
			status: SummaryStatusOk,
			text:   "passed: 0; total: 0",
		},
		{
			name:     "all passed",
			outcomes: []core.Outcome{core.OutcomePassed, core.OutcomePassed},
			status:   SummaryStatusOk,
			text:     "passed: 2; total: 2",
		},
		{
			name:     "skipped is not bad",
			outcomes: []core.Outcome{core.OutcomePassed, core.OutcomeSkipped},
			status:   SummaryStatusOk,
			text:     "skipped: 1; passed: 1; total: 2",
		},
		{
			name:     "timeout fails",
			outcomes: []core.Outcome{core.OutcomePassed, core.OutcomeTimedOut},
			status:   SummaryStatusFailed,
			text:     "timed out: 1; passed: 1; total: 2",
		},
		{
			name:     "error wins",
			outcomes: []core.Outcome{core.OutcomeFailed, core.OutcomeError},
			status:   SummaryStatusError,
			text:     "failed: 1; errored: 1; passed: 0; total: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]core.TestResult, len(tt.outcomes))
			for i, outcome := range tt.outcomes {
				results[i] = core.NewResult("case", outcome, "", time.Millisecond)
			}

			summary := NewSummary(results)
			assert.Equal(t, tt.status, summary.Status())
			assert.Equal(t, tt.text, summary.String())
			assert.Equal(t, tt.status.IsBad(), summary.ExitError() != nil)
			assert.Equal(t, map[SummaryStatus]string{
				SummaryStatusOk:     "ok",
				SummaryStatusFailed: "failed",
				SummaryStatusError:  "error",
			}[tt.status], summary.Status().MetricLabel())
		})
	}
}
