package scenetest

import (
	"io"

	"scenetest/internal/cli"
	"scenetest/internal/orchestrator"
	"scenetest/internal/scene"
	"scenetest/pkg/scenetest/core"

	"github.com/sirupsen/logrus"
)

type TestCase = core.TestCase
type TestResult = core.TestResult
type Outcome = core.Outcome
type RunnerOptions = core.RunnerOptions
type LocalTimeouter = core.LocalTimeouter

type FuncCase = core.FuncCase
type CaseFunction = core.CaseFunction
type FuncCaseOption = core.FuncCaseOption

type Host = scene.Host
type SceneFactory = scene.Factory

type Orchestrator = orchestrator.Orchestrator
type Properties = orchestrator.Properties
type Run = orchestrator.Run

// Creates a test case driven by fn.
func NewFuncCase(name string, fn CaseFunction, opts ...FuncCaseOption) *FuncCase {
	return core.NewFuncCase(name, fn, opts...)
}

// Creates a scene host. Scenes built in code are added with Register.
func NewHost(log *logrus.Logger) *Host {
	return scene.NewHost(log)
}

// Creates an orchestrator running scenes of the given host.
func NewOrchestrator(host *Host, log *logrus.Logger) *Orchestrator {
	return orchestrator.New(host, log)
}

// Runs the scenetest command line with the given arguments. setup, when not
// nil, registers additional scenes on the host before the command runs.
func Execute(name, version string, args []string, out io.Writer, setup func(*Host) error) error {
	return cli.Execute(name, version, args, out, setup)
}
