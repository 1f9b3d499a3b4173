package reporter

import (
	"fmt"
	"strings"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/fatih/color"
)

// SummaryStatus is the overall verdict of a run.
type SummaryStatus int

const (
	SummaryStatusOk SummaryStatus = iota
	SummaryStatusFailed
	SummaryStatusError
)

func (ss SummaryStatus) String() string {
	switch ss {
	case SummaryStatusOk:
		return "OK"
	case SummaryStatusFailed:
		return "FAILED"
	case SummaryStatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (ss SummaryStatus) StringColor() string {
	switch ss {
	case SummaryStatusOk:
		return color.GreenString(ss.String())
	case SummaryStatusFailed:
		return color.RedString(ss.String())
	case SummaryStatusError:
		return color.New(color.FgRed, color.Bold).Sprint(ss.String())
	default:
		return ss.String()
	}
}

// MetricLabel is the value of the result label of scenetest_runs_total.
func (ss SummaryStatus) MetricLabel() string {
	switch ss {
	case SummaryStatusOk:
		return "ok"
	case SummaryStatusFailed:
		return "failed"
	default:
		return "error"
	}
}

func (ss SummaryStatus) IsBad() bool {
	return ss != SummaryStatusOk
}

// Summary counts results per outcome.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Errored  int
	TimedOut int
	Skipped  int
	Duration time.Duration
}

func NewSummary(results []core.TestResult) Summary {
	var summary Summary

	for _, res := range results {
		summary.Total++
		summary.Duration += res.Duration
		switch res.Outcome {
		case core.OutcomePassed:
			summary.Passed++
		case core.OutcomeFailed:
			summary.Failed++
		case core.OutcomeError:
			summary.Errored++
		case core.OutcomeTimedOut:
			summary.TimedOut++
		case core.OutcomeSkipped:
			summary.Skipped++
		default:
			// A result without outcome is a broken case.
			summary.Errored++
		}
	}

	return summary
}

// Status is ERROR when any case errored, FAILED when any case failed or
// timed out, OK otherwise.
func (s Summary) Status() SummaryStatus {
	if s.Errored > 0 {
		return SummaryStatusError
	}
	if s.Failed > 0 || s.TimedOut > 0 {
		return SummaryStatusFailed
	}
	return SummaryStatusOk
}

func (s Summary) String() string {
	var out []string

	if s.Failed > 0 {
		out = append(out, fmt.Sprintf("failed: %d", s.Failed))
	}
	if s.TimedOut > 0 {
		out = append(out, fmt.Sprintf("timed out: %d", s.TimedOut))
	}
	if s.Errored > 0 {
		out = append(out, fmt.Sprintf("errored: %d", s.Errored))
	}
	if s.Skipped > 0 {
		out = append(out, fmt.Sprintf("skipped: %d", s.Skipped))
	}

	out = append(out, fmt.Sprintf("passed: %d", s.Passed))
	out = append(out, fmt.Sprintf("total: %d", s.Total))

	return strings.Join(out, "; ")
}

// ExitError returns an error when the run should be considered unsuccessful.
func (s Summary) ExitError() error {
	if s.Status().IsBad() {
		return fmt.Errorf("test run finished with status %s (%s)", s.Status(), s.String())
	}
	return nil
}
