package scene

import (
	"context"
	"errors"
	"testing"

	"scenetest/pkg/scenetest/core"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHost(t *testing.T) (*Host, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewHost(log), hook
}

func warnings(hook *test.Hook) []string {
	var out []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			out = append(out, entry.Message)
		}
	}
	return out
}

func TestHostLoadManifest(t *testing.T) {
	host, hook := newTestHost(t)
	ctx := context.Background()

	already, err := host.Load(ctx, "testdata/smoke.yaml")
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, host.IsLoaded("testdata/smoke.yaml"))

	envs := host.Environments()
	require.Len(t, envs, 1)
	assert.Equal(t, "smoke", envs[0].Name())
	assert.Len(t, envs[0].Components(), 2)

	already, err = host.Load(ctx, "testdata/smoke.yaml")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Len(t, host.Environments(), 1)
	assert.Equal(t, []string{"Already loaded scene: testdata/smoke.yaml. skip load"}, warnings(hook))
}

func TestHostUnload(t *testing.T) {
	host, hook := newTestHost(t)
	ctx := context.Background()

	wasLoaded, err := host.Unload(ctx, "testdata/smoke.yaml")
	require.NoError(t, err)
	assert.False(t, wasLoaded)
	assert.Equal(t, []string{"Already unloaded scene: testdata/smoke.yaml. skip unload"}, warnings(hook))

	_, err = host.Load(ctx, "testdata/smoke.yaml")
	require.NoError(t, err)

	components := host.Environments()[0].Components()
	pending := components[0].(*core.FuncCase)
	hanging := components[1].(*core.FuncCase)
	require.NoError(t, hanging.Start(ctx))
	defer hanging.Cancel(nil)

	wasLoaded, err = host.Unload(ctx, "testdata/smoke.yaml")
	require.NoError(t, err)
	assert.True(t, wasLoaded)
	assert.Empty(t, host.Environments())

	// Unloading never finalises test cases, started or not.
	_, err = pending.Result()
	assert.ErrorIs(t, err, core.ErrNotCompleted)
	assert.False(t, core.IsDone(hanging))
}

type closingComponent struct {
	err    error
	closed bool
}

func (c *closingComponent) Close() error {
	c.closed = true
	return c.err
}

func TestHostRegisteredScene(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	closer := &closingComponent{err: errors.New("device busy")}
	require.NoError(t, host.Register("lobby", func(log *logrus.Logger) ([]any, error) {
		return []any{
			core.NewFuncCase("A", func(context.Context, *core.FuncCase) error { return nil }),
			closer,
		}, nil
	}))
	assert.Error(t, host.Register("lobby", nil))
	assert.Error(t, host.Register("", nil))
	assert.Equal(t, []string{"lobby"}, host.Registered())

	_, err := host.Load(ctx, "lobby")
	require.NoError(t, err)
	assert.Len(t, host.Environments()[0].Components(), 2)

	wasLoaded, err := host.Unload(ctx, "lobby")
	assert.True(t, wasLoaded)
	assert.ErrorIs(t, err, ErrUnload)
	assert.True(t, closer.closed)
}

func TestHostLoadFailures(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	require.NoError(t, host.Register("broken", func(*logrus.Logger) ([]any, error) {
		return nil, errors.New("asset bundle missing")
	}))
	require.NoError(t, host.Register("panicky", func(*logrus.Logger) ([]any, error) {
		panic("corrupt scene")
	}))

	for _, id := range []string{"broken", "panicky", "testdata/missing.yaml", "testdata/invalid.yaml"} {
		t.Run(id, func(t *testing.T) {
			_, err := host.Load(ctx, id)
			assert.ErrorIs(t, err, ErrLoad)
			assert.False(t, host.IsLoaded(id))
		})
	}
}

func TestHostLoadsInOrder(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	_, err := host.Load(ctx, "testdata/mixed.yaml")
	require.NoError(t, err)
	_, err = host.Load(ctx, "testdata/smoke.yaml")
	require.NoError(t, err)

	envs := host.Environments()
	require.Len(t, envs, 2)
	assert.Equal(t, "mixed", envs[0].Name())
	assert.Equal(t, "smoke", envs[1].Name())
}
