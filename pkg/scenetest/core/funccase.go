package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CaseFunction is the body of a FuncCase. It runs in its own goroutine.
type CaseFunction = func(ctx context.Context, tc *FuncCase) error

// FuncCase is a ready-made TestCase driven by a function. The function may
// report its outcome through Pass, Fail, FailFromError, Skip and Error, or
// simply return: nil is a pass, an error is an Error outcome and a panic is
// caught and reported as an Error as well.
type FuncCase struct {
	name         string
	fn           CaseFunction
	localTimeout time.Duration
	startHook    func() error
	hostLog      *logrus.Logger

	log       *logrus.Logger
	logBuffer bytes.Buffer

	mu        sync.Mutex
	started   bool
	startTime time.Time
	result    *TestResult
	done      chan struct{}
	cancel    context.CancelCauseFunc
}

var _ TestCase = (*FuncCase)(nil)
var _ LocalTimeouter = (*FuncCase)(nil)

type FuncCaseOption func(*FuncCase)

// WithLocalTimeout sets a per-case limit that applies when it is tighter than
// the runner's global one.
func WithLocalTimeout(d time.Duration) FuncCaseOption {
	return func(tc *FuncCase) {
		tc.localTimeout = d
	}
}

// WithLogger tees the case's log lines to the given host logger.
func WithLogger(log *logrus.Logger) FuncCaseOption {
	return func(tc *FuncCase) {
		tc.hostLog = log
	}
}

// WithStartHook runs f synchronously inside Start, before the case function
// is launched. An error from f makes Start fail.
func WithStartHook(f func() error) FuncCaseOption {
	return func(tc *FuncCase) {
		tc.startHook = f
	}
}

// Implementer of logrus.Hook interface to tee log messages from the test case
// logger to the host logger
type testCaseLogTee struct {
	hostLogger *logrus.Logger
	testCaseId string
}

func (tee testCaseLogTee) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (tee testCaseLogTee) Fire(entry *logrus.Entry) error {
	newEntry := tee.hostLogger.WithFields(entry.Data)
	newEntry.Caller = entry.Caller
	newEntry.Log(entry.Level, fmt.Sprintf("[%s] > %s", tee.testCaseId, entry.Message))
	return nil
}

func NewFuncCase(name string, fn CaseFunction, opts ...FuncCaseOption) *FuncCase {
	tc := &FuncCase{
		name: name,
		fn:   fn,
		log:  logrus.New(),
		done: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(tc)
	}

	tc.log.SetLevel(logrus.TraceLevel)
	tc.log.SetOutput(&tc.logBuffer)
	tc.log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
	})
	if tc.hostLog != nil {
		tc.log.AddHook(testCaseLogTee{
			hostLogger: tc.hostLog,
			testCaseId: tc.name,
		})
	}

	return tc
}

func (tc *FuncCase) Name() string {
	return tc.name
}

func (tc *FuncCase) LocalTimeout() time.Duration {
	return tc.localTimeout
}

func (tc *FuncCase) Logger() *logrus.Logger {
	return tc.log
}

func (tc *FuncCase) Done() <-chan struct{} {
	return tc.done
}

func (tc *FuncCase) Start(ctx context.Context) error {
	tc.mu.Lock()
	if tc.started || tc.result != nil {
		tc.mu.Unlock()
		return ErrAlreadyStarted
	}
	tc.started = true
	tc.startTime = time.Now()
	tc.mu.Unlock()

	if tc.startHook != nil {
		if err := CatchPanic(tc.startHook); err != nil {
			return err
		}
	}

	caseCtx, cancel := context.WithCancelCause(ctx)
	tc.mu.Lock()
	tc.cancel = cancel
	tc.mu.Unlock()

	go func() {
		var err error
		// Deferred so that it also runs after runtime.Goexit() stopped the
		// case function.
		defer func() {
			if err != nil {
				tc.close(OutcomeError, err.Error())
			} else {
				tc.close(OutcomePassed, "")
			}
			cancel(nil)
		}()

		err = CatchPanic(func() error { return tc.fn(caseCtx, tc) })
	}()

	return nil
}

func (tc *FuncCase) Cancel(cause error) {
	if cause == nil {
		cause = context.Canceled
	}

	outcome := OutcomeError
	if errors.Is(cause, ErrTimedOut) {
		outcome = OutcomeTimedOut
	}

	tc.close(outcome, cause.Error())

	tc.mu.Lock()
	cancel := tc.cancel
	tc.mu.Unlock()
	if cancel != nil {
		cancel(cause)
	}
}

func (tc *FuncCase) Result() (TestResult, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.result == nil {
		return TestResult{}, ErrNotCompleted
	}

	return *tc.result, nil
}

// Returns whether the case has completed, with its outcome.
func (tc *FuncCase) Outcome() (Outcome, bool) {
	res, err := tc.Result()
	if err != nil {
		return OutcomeNone, false
	}
	return res.Outcome, true
}

func (tc *FuncCase) LogLines() []string {
	rawLines := bytes.Split(bytes.TrimRight(tc.logBuffer.Bytes(), "\n"), []byte("\n"))
	lines := make([]string, len(rawLines))
	for i, line := range rawLines {
		lines[i] = string(line)
	}

	return lines
}

// Records the outcome unless the case already completed. Returns whether
// this call was the one that completed the case.
func (tc *FuncCase) close(outcome Outcome, message string) bool {
	tc.mu.Lock()
	if tc.result != nil {
		previous := tc.result.Outcome
		tc.mu.Unlock()
		if tc.hostLog != nil && outcome != OutcomePassed {
			tc.hostLog.Debugf(
				"Test case '%s' already completed with outcome '%s', ignoring '%s'",
				tc.name,
				previous.String(),
				outcome.String(),
			)
		}
		return false
	}

	var duration time.Duration
	if tc.started {
		duration = time.Since(tc.startTime)
	}
	result := NewResult(tc.name, outcome, message, duration)
	tc.result = &result
	tc.mu.Unlock()

	entry := logrus.NewEntry(tc.log)
	if message != "" {
		entry = entry.WithField("reason", message)
	}
	entry.Log(outcome.LogLevel(), outcome.String())

	// Close this logger
	tc.log.SetOutput(io.Discard)

	// Only the call that recorded the result gets here, so done is closed
	// exactly once.
	close(tc.done)

	return true
}

func (tc *FuncCase) Pass() {
	tc.close(OutcomePassed, "")
}

// Fail the test case and stop the calling goroutine.
func (tc *FuncCase) Fail(reason string) {
	tc.close(OutcomeFailed, reason)
	tc.stopTestExecution()
}

func (tc *FuncCase) FailFromError(err error) {
	tc.close(OutcomeFailed, err.Error())
	tc.stopTestExecution()
}

func (tc *FuncCase) Error(err error) {
	tc.close(OutcomeError, err.Error())
	tc.stopTestExecution()
}

func (tc *FuncCase) Skip(reason string) {
	tc.close(OutcomeSkipped, reason)
	tc.stopTestExecution()
}

// Calls runtime.Goexit(). THIS SHOULD ONLY BE CALLED FROM THE CASE FUNCTION'S
// GOROUTINE, AFTER CLOSING THE TEST CASE!
func (tc *FuncCase) stopTestExecution() {
	if tc.hostLog != nil {
		tc.hostLog.Tracef("Stopping execution of [%s]", tc.name)
	}
	runtime.Goexit()
}

// CatchPanic runs f and turns a panic into a PanicError.
func CatchPanic(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r, debug.Stack())
		}
	}()

	return f()
}
