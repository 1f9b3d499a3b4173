// Package orchestrator runs one scene end to end: load, collect, run,
// unload, report.
package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"scenetest/internal/collector"
	"scenetest/internal/devops"
	"scenetest/internal/metrics"
	"scenetest/internal/reporter"
	"scenetest/internal/runner"
	"scenetest/pkg/scenetest/core"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrRunInProgress = errors.New("a scene run is already in progress")

// SceneHost is the environment host the orchestrator drives.
type SceneHost interface {
	core.EnvironmentSource
	Load(ctx context.Context, pathOrID string) (alreadyLoaded bool, err error)
	Unload(ctx context.Context, pathOrID string) (wasLoaded bool, err error)
}

// Properties tune a single RunScene call.
type Properties struct {
	// Outer budget for the run. Zero falls back to the context deadline,
	// then to DefaultTimeoutSeconds.
	TimeoutMs int64

	// Restricts the run to these test case names when not empty.
	Only []string

	// Maximum number of cases running at once. All cases share one global
	// budget: run sequentially, a case that never completes after one that
	// used 0.2s of a 1s budget times out after 0.8s. With Parallelism > 1
	// every case started right away gets the full 1s.
	Parallelism int
}

type Run struct {
	ID       string
	Scene    string
	Skipped  bool
	Results  []core.TestResult
	Summary  reporter.Summary
	Report   string
	Duration time.Duration
}

type Orchestrator struct {
	host    SceneHost
	log     *logrus.Logger
	metrics *metrics.Metrics
	devops  *devops.Printer

	resultsPath string
	metricsPath string

	// Held for the whole of RunScene.
	mu sync.Mutex
}

type Option func(*Orchestrator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithDevops enables Azure DevOps groups and issues.
func WithDevops(p *devops.Printer) Option {
	return func(o *Orchestrator) {
		o.devops = p
	}
}

// WithResultsArchive writes the results of every run to path.
func WithResultsArchive(path string) Option {
	return func(o *Orchestrator) {
		o.resultsPath = path
	}
}

// WithMetricsTextfile writes the metrics to path after every run.
func WithMetricsTextfile(path string) Option {
	return func(o *Orchestrator) {
		o.metricsPath = path
	}
}

func New(host SceneHost, log *logrus.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		host: host,
		log:  log,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.metricsPath != "" && o.metrics == nil {
		o.metrics = metrics.New()
	}

	return o
}

func (o *Orchestrator) Metrics() *metrics.Metrics {
	return o.metrics
}

// RunScene loads the scene, runs the test cases found in the loaded scenes,
// unloads the scene and emits the report. A scene without test cases yields
// a skipped Run. Load and unload failures abort the call without a report.
func (o *Orchestrator) RunScene(ctx context.Context, scene string, props Properties) (*Run, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	run := &Run{
		ID:    uuid.NewString(),
		Scene: scene,
	}
	log := o.log.WithField("runId", run.ID).WithField("scene", scene)
	start := time.Now()

	group := o.devops.OpenGroup("Scene %s", scene)
	defer group.Close()

	alreadyLoaded, err := o.host.Load(ctx, scene)
	if err != nil {
		return nil, o.abort(log, "load", err)
	}

	coll := collector.New(o.host, log)
	if !coll.Collect() {
		log.Warnf("Found no test case in scene '%s', skipped testing", scene)
		run.Skipped = true
		o.metrics.RecordRun("skipped")

		// Only clean up what this run loaded.
		if !alreadyLoaded {
			if err := o.unload(ctx, scene); err != nil {
				return nil, o.abort(log, "unload", err)
			}
		}
		return run, o.writeOutputs(log, run)
	}

	opts := core.RunnerOptions{
		GlobalTimeoutSeconds: GlobalTimeoutSeconds(ctx, props.TimeoutMs),
		Parallelism:          props.Parallelism,
	}
	log.Infof(
		"Running %d test cases (timeout: %ss)",
		coll.Len(),
		strconv.FormatFloat(opts.GlobalTimeoutSeconds, 'f', -1, 64),
	)

	r := runner.New(coll, log, runner.WithMetrics(o.metrics))
	if len(props.Only) > 0 {
		run.Results = r.Run(ctx, props.Only, opts)
	} else {
		run.Results = r.RunAll(ctx, opts)
	}

	if err := o.unload(ctx, scene); err != nil {
		return nil, o.abort(log, "unload", err)
	}

	if len(props.Only) > 0 {
		run.Report = reporter.Format(run.Results)
	} else {
		run.Report, err = reporter.FormatRegistry(coll.TestCases())
		if err != nil {
			return nil, o.abort(log, "report", err)
		}
	}

	log.Info(run.Report)

	run.Summary = reporter.NewSummary(run.Results)
	run.Duration = time.Since(start)
	o.metrics.RecordRun(run.Summary.Status().MetricLabel())

	for _, res := range run.Results {
		if res.Outcome.IsBad() {
			o.devops.LogError("Test case '%s' %s: %s", res.Name, res.Outcome, res.Message)
		}
	}

	log.Infof("Scene '%s' finished with status %s (%s)", scene, run.Summary.Status().StringColor(), run.Summary)

	return run, o.writeOutputs(log, run)
}

// Unloading must happen even when the caller's context is already done.
func (o *Orchestrator) unload(ctx context.Context, scene string) error {
	_, err := o.host.Unload(context.WithoutCancel(ctx), scene)
	return err
}

func (o *Orchestrator) abort(log *logrus.Entry, step string, err error) error {
	log.WithError(err).Errorf("Scene run failed during %s", step)
	o.devops.LogError("Scene run failed during %s: %s", step, err)
	o.metrics.RecordRun("error")
	return err
}

func (o *Orchestrator) writeOutputs(log *logrus.Entry, run *Run) error {
	var errs []error

	if o.resultsPath != "" {
		archive := reporter.NewArchive(run.ID, run.Scene, run.Results)
		if err := reporter.WriteArchive(o.resultsPath, archive); err != nil {
			errs = append(errs, err)
		} else {
			log.Debugf("Wrote results to '%s'", o.resultsPath)
		}
	}

	if o.metricsPath != "" {
		if err := o.metrics.WriteTextfile(o.metricsPath); err != nil {
			errs = append(errs, err)
		} else {
			log.Debugf("Wrote metrics to '%s'", o.metricsPath)
		}
	}

	return errors.Join(errs...)
}
