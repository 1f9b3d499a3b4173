// Package runner drives collected test cases to completion under a global
// deadline shared by the whole invocation and optional per-case local
// deadlines.
package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"scenetest/internal/metrics"
	"scenetest/pkg/scenetest/core"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Registry is the frozen, ordered set of test cases a runner works on.
type Registry interface {
	TestCases() []core.TestCase
	Lookup(name string) (core.TestCase, bool)
}

// Run state the runner attaches to a test case, keyed by case name.
type caseState struct {
	status    core.Status
	startTime time.Time
	result    *core.TestResult
}

type Runner struct {
	registry Registry
	log      logrus.FieldLogger
	metrics  *metrics.Metrics

	// Serialises RunAll/Run invocations.
	runMu sync.Mutex

	mu      sync.Mutex
	states  map[string]*caseState
	unknown []core.TestResult
}

type Option func(*Runner)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// New creates a runner. log may be a *logrus.Logger or an entry carrying
// run-wide fields.
func New(registry Registry, log logrus.FieldLogger, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		log:      log,
		states:   make(map[string]*caseState),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunAll runs every case in the registry and returns their results in
// registry order.
func (r *Runner) RunAll(ctx context.Context, opts core.RunnerOptions) []core.TestResult {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	return r.runBatch(ctx, r.registry.TestCases(), opts)
}

// Run runs only the named cases. Results of known cases come in registry
// order, followed by an Error result for every id that is not in the
// registry, in request order. Repeated ids are run once.
func (r *Runner) Run(ctx context.Context, ids []string, opts core.RunnerOptions) []core.TestResult {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	requested := make(map[string]bool, len(ids))
	var unknownIDs []string
	for _, id := range ids {
		if requested[id] {
			r.log.Warnf("Test case '%s' requested more than once, running it once", id)
			continue
		}
		requested[id] = true

		if _, ok := r.registry.Lookup(id); !ok {
			unknownIDs = append(unknownIDs, id)
		}
	}

	selected := make([]core.TestCase, 0, len(requested))
	for _, tc := range r.registry.TestCases() {
		if requested[tc.Name()] {
			selected = append(selected, tc)
		}
	}

	results := r.runBatch(ctx, selected, opts)

	for _, id := range unknownIDs {
		err := fmt.Errorf("%w '%s'", core.ErrUnknownID, id)
		r.log.WithField("testCase", id).Error(err)

		res := core.NewResult(id, core.OutcomeError, err.Error(), 0)
		r.mu.Lock()
		r.unknown = append(r.unknown, res)
		r.mu.Unlock()
		r.metrics.RecordCase(res)

		results = append(results, res)
	}

	return results
}

func (r *Runner) runBatch(ctx context.Context, cases []core.TestCase, opts core.RunnerOptions) []core.TestResult {
	batchStart := time.Now()

	// One global deadline for the whole batch, never reset per case.
	var globalDeadline time.Time
	if timeout := opts.GlobalTimeout(); timeout > 0 {
		globalDeadline = batchStart.Add(timeout)
	}

	workers := opts.Workers()
	r.log.Debugf(
		"Running %d test cases (global timeout: %s, workers: %d)",
		len(cases),
		opts.GlobalTimeout(),
		workers,
	)

	results := make([]core.TestResult, len(cases))

	if workers <= 1 {
		for i, tc := range cases {
			results[i] = r.runCase(ctx, tc, globalDeadline)
		}
	} else {
		var group errgroup.Group
		group.SetLimit(workers)
		for i, tc := range cases {
			group.Go(func() error {
				results[i] = r.runCase(ctx, tc, globalDeadline)
				return nil
			})
		}
		_ = group.Wait()
	}

	r.metrics.RecordBatch(time.Since(batchStart))
	return results
}

func (r *Runner) runCase(ctx context.Context, tc core.TestCase, globalDeadline time.Time) core.TestResult {
	name := tc.Name()

	if prior, ok := r.completedResult(name); ok {
		r.log.Warnf(
			"Test case '%s' already completed with outcome '%s', not running it again",
			name,
			prior.Outcome.String(),
		)
		return prior
	}

	// Completed outside of this runner.
	if core.IsDone(tc) {
		return r.finish(tc, core.NewResult(name, core.OutcomeError, core.ErrMissingResult.Error(), 0))
	}

	start := time.Now()
	deadline, local := effectiveDeadline(start, globalDeadline, core.LocalTimeoutOf(tc))

	if !deadline.IsZero() && !start.Before(deadline) {
		return r.timeout(tc, local, 0)
	}

	if ctx.Err() != nil {
		return r.interrupt(ctx, tc, 0)
	}

	r.setRunning(name, start)
	r.log.Infof("%s (started)", name)

	err := core.CatchPanic(func() error { return tc.Start(ctx) })
	if err != nil {
		startErr := &core.StartError{Name: name, Err: err}
		cancel(tc, startErr)
		return r.finish(tc, core.NewResult(name, core.OutcomeError, startErr.Error(), time.Since(start)))
	}

	var expired <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-tc.Done():
		return r.finish(tc, core.NewResult(name, core.OutcomeError, core.ErrMissingResult.Error(), time.Since(start)))
	case <-expired:
		return r.timeout(tc, local, time.Since(start))
	case <-ctx.Done():
		return r.interrupt(ctx, tc, time.Since(start))
	}
}

// Cancels a case whose deadline elapsed and records it as timed out. A case
// that completed at the same moment keeps its own result.
func (r *Runner) timeout(tc core.TestCase, local bool, elapsed time.Duration) core.TestResult {
	cause := &core.TimeoutError{Local: local, After: elapsed}
	cancel(tc, cause)

	res := r.finish(tc, core.NewResult(tc.Name(), core.OutcomeTimedOut, cause.Error(), elapsed))
	if res.Outcome == core.OutcomeTimedOut {
		r.metrics.RecordTimeout(local)
	}
	return res
}

// Cancels a case because the caller's context ended. An expired context
// counts as a timeout, any other cancellation as an error.
func (r *Runner) interrupt(ctx context.Context, tc core.TestCase, elapsed time.Duration) core.TestResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return r.timeout(tc, false, elapsed)
	}

	cause := fmt.Errorf("run cancelled: %w", context.Cause(ctx))
	cancel(tc, cause)
	return r.finish(tc, core.NewResult(tc.Name(), core.OutcomeError, cause.Error(), elapsed))
}

// Records the case's own result when it has one, fallback otherwise.
func (r *Runner) finish(tc core.TestCase, fallback core.TestResult) core.TestResult {
	res, err := tc.Result()
	if err != nil {
		r.log.WithError(err).Debugf("Test case '%s' exposes no result, recording '%s'", tc.Name(), fallback.Outcome)
		res = fallback
	}

	r.mu.Lock()
	state := r.state(tc.Name())
	state.status = core.StatusCompleted
	state.result = &res
	r.mu.Unlock()

	r.metrics.RecordCase(res)

	entry := r.log.WithField("testCase", res.Name).WithField("outcome", res.Outcome.String())
	if res.Message != "" && res.Outcome != core.OutcomePassed {
		entry = entry.WithField("reason", res.Message)
	}
	entry.Logf(res.Outcome.LogLevel(), "%s %s", res.Name, res.Outcome.ColorString())

	return res
}

// Cancels tc, first leaving a note in the case's own log when it has one so
// that its collected logs say why it stopped.
func cancel(tc core.TestCase, cause error) {
	if provider, ok := tc.(core.LoggerProvider); ok && !core.IsDone(tc) {
		if log := provider.Logger(); log != nil {
			log.WithError(cause).Warn("Cancelled by runner")
		}
	}

	tc.Cancel(cause)
}

// Must be called with r.mu held.
func (r *Runner) state(name string) *caseState {
	state, ok := r.states[name]
	if !ok {
		state = &caseState{status: core.StatusNotRun}
		r.states[name] = state
	}
	return state
}

func (r *Runner) setRunning(name string, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.state(name)
	state.status = core.StatusRunning
	state.startTime = start
}

func (r *Runner) completedResult(name string) (core.TestResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[name]
	if !ok || state.status != core.StatusCompleted || state.result == nil {
		return core.TestResult{}, false
	}
	return *state.result, true
}

// Status returns the execution status of the named case.
func (r *Runner) Status(name string) core.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.states[name]; ok {
		return state.status
	}
	return core.StatusNotRun
}

// Results returns every result recorded so far: registry cases in registry
// order, then results for unknown ids.
func (r *Runner) Results() []core.TestResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]core.TestResult, 0, len(r.states)+len(r.unknown))
	for _, tc := range r.registry.TestCases() {
		if state, ok := r.states[tc.Name()]; ok && state.result != nil {
			results = append(results, *state.result)
		}
	}

	return append(results, slices.Clone(r.unknown)...)
}
