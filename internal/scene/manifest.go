package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of a scene and the test cases it hosts.
type Manifest struct {
	Name  string     `yaml:"name"`
	Cases []CaseSpec `yaml:"cases"`
}

type CaseSpec struct {
	Name         string   `yaml:"name"`
	Behavior     Behavior `yaml:"behavior"`
	Delay        Duration `yaml:"delay"`
	Message      string   `yaml:"message"`
	LocalTimeout Duration `yaml:"local_timeout"`
}

// Duration accepts Go duration strings ("200ms", "1.5s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration '%s': %w", node.Line, raw, err)
	}

	if parsed < 0 {
		return fmt.Errorf("line %d: duration '%s' must not be negative", node.Line, raw)
	}

	*d = Duration(parsed)
	return nil
}

type Behavior string

const (
	// Completes with a pass after the delay.
	BehaviorPass Behavior = "pass"
	// Fails after the delay.
	BehaviorFail Behavior = "fail"
	// Returns an error after the delay.
	BehaviorError Behavior = "error"
	// Skips after the delay.
	BehaviorSkip Behavior = "skip"
	// Never completes on its own.
	BehaviorHang Behavior = "hang"
	// Panics after the delay.
	BehaviorPanic Behavior = "panic"
	// The start operation itself fails.
	BehaviorStartError Behavior = "start-error"
)

func (b *Behavior) UnmarshalText(text []byte) error {
	*b = Behavior(text)
	switch *b {
	case BehaviorPass, BehaviorFail, BehaviorError, BehaviorSkip, BehaviorHang, BehaviorPanic, BehaviorStartError:
		return nil
	case "":
		*b = BehaviorPass
		return nil
	default:
		return fmt.Errorf("invalid behavior: %s", text)
	}
}

// ParseManifest decodes a YAML scene manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse scene manifest: %w", err)
	}

	for i := range m.Cases {
		if m.Cases[i].Behavior == "" {
			m.Cases[i].Behavior = BehaviorPass
		}
	}

	return &m, nil
}

// Components builds one test case component per case entry, in manifest
// order.
func (m *Manifest) Components(log *logrus.Logger) []any {
	components := make([]any, 0, len(m.Cases))
	for _, spec := range m.Cases {
		components = append(components, spec.testCase(log))
	}

	return components
}

func (spec CaseSpec) testCase(log *logrus.Logger) *core.FuncCase {
	opts := []core.FuncCaseOption{
		core.WithLocalTimeout(time.Duration(spec.LocalTimeout)),
	}
	if log != nil {
		opts = append(opts, core.WithLogger(log))
	}

	message := spec.Message
	if spec.Behavior == BehaviorStartError {
		if message == "" {
			message = "start failed"
		}
		opts = append(opts, core.WithStartHook(func() error {
			return errors.New(message)
		}))
	}

	delay := time.Duration(spec.Delay)

	return core.NewFuncCase(spec.Name, func(ctx context.Context, tc *core.FuncCase) error {
		if spec.Behavior == BehaviorHang {
			<-ctx.Done()
			return context.Cause(ctx)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}

		switch spec.Behavior {
		case BehaviorFail:
			tc.Fail(orDefault(message, "test case failed"))
		case BehaviorError:
			return errors.New(orDefault(message, "test case errored"))
		case BehaviorSkip:
			tc.Skip(orDefault(message, "test case skipped"))
		case BehaviorPanic:
			panic(orDefault(message, "test case panicked"))
		}

		if message != "" {
			tc.Logger().Info(message)
		}
		return nil
	}, opts...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
