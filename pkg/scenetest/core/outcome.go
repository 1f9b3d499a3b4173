package core

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Outcome is the final state of a completed test case.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePassed
	OutcomeFailed
	OutcomeError
	OutcomeTimedOut
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "Passed"
	case OutcomeFailed:
		return "Failed"
	case OutcomeError:
		return "Error"
	case OutcomeTimedOut:
		return "TimedOut"
	case OutcomeSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

func (o Outcome) ColorString() string {
	switch o {
	case OutcomePassed:
		return color.GreenString(o.String())
	case OutcomeFailed, OutcomeTimedOut:
		return color.RedString(o.String())
	case OutcomeError:
		return color.New(color.FgRed, color.Bold).Sprint(o.String())
	case OutcomeSkipped:
		return color.YellowString(o.String())
	default:
		return o.String()
	}
}

func (o Outcome) LogLevel() logrus.Level {
	switch o {
	case OutcomePassed:
		return logrus.InfoLevel
	case OutcomeSkipped:
		return logrus.WarnLevel
	case OutcomeFailed, OutcomeError, OutcomeTimedOut:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (o Outcome) Passed() bool {
	return o == OutcomePassed
}

// IsBad returns true if the outcome is Failed, Error or TimedOut.
func (o Outcome) IsBad() bool {
	return o == OutcomeFailed || o == OutcomeError || o == OutcomeTimedOut
}

// Status is the execution state the runner tracks for each test case.
type Status int

const (
	StatusNotRun Status = iota
	StatusRunning
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusNotRun:
		return "NotRun"
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}
