package scene

import (
	"context"
	"os"
	"testing"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	data, err := os.ReadFile("testdata/mixed.yaml")
	require.NoError(t, err)

	m, err := ParseManifest(data)
	require.NoError(t, err)

	assert.Equal(t, "mixed", m.Name)
	require.Len(t, m.Cases, 7)
	assert.Equal(t, BehaviorPass, m.Cases[0].Behavior)
	assert.Equal(t, BehaviorFail, m.Cases[1].Behavior)
	assert.Equal(t, "expected 3 enemies, found 2", m.Cases[1].Message)
	assert.Equal(t, BehaviorStartError, m.Cases[5].Behavior)
	assert.Equal(t, Duration(5*time.Second), m.Cases[6].Delay)
	assert.Equal(t, Duration(100*time.Millisecond), m.Cases[6].LocalTimeout)
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown behavior", "cases:\n  - name: A\n    behavior: explode\n"},
		{"bad duration", "cases:\n  - name: A\n    delay: soon\n"},
		{"negative duration", "cases:\n  - name: A\n    delay: -1s\n"},
		{"not yaml", "cases: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestManifestComponents(t *testing.T) {
	data, err := os.ReadFile("testdata/mixed.yaml")
	require.NoError(t, err)
	m, err := ParseManifest(data)
	require.NoError(t, err)

	components := m.Components(nil)
	require.Len(t, components, len(m.Cases))

	expected := map[string]core.Outcome{
		"passes": core.OutcomePassed,
		"fails":  core.OutcomeFailed,
		"errors": core.OutcomeError,
		"skips":  core.OutcomeSkipped,
		"panics": core.OutcomeError,
	}

	for _, component := range components {
		tc, ok := component.(*core.FuncCase)
		require.True(t, ok)

		outcome, ok := expected[tc.Name()]
		if !ok {
			continue
		}

		require.NoError(t, tc.Start(context.Background()))
		select {
		case <-tc.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("case '%s' did not complete", tc.Name())
		}
		res, err := tc.Result()
		require.NoError(t, err)
		assert.Equal(t, outcome, res.Outcome, tc.Name())
	}

	broken := components[5].(*core.FuncCase)
	assert.EqualError(t, broken.Start(context.Background()), "fixture not found")

	slow := components[6].(*core.FuncCase)
	assert.Equal(t, 100*time.Millisecond, slow.LocalTimeout())
}

func TestHangingCaseEndsOnCancel(t *testing.T) {
	m := &Manifest{Cases: []CaseSpec{{Name: "B", Behavior: BehaviorHang}}}
	tc := m.Components(nil)[0].(*core.FuncCase)

	require.NoError(t, tc.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, core.IsDone(tc))

	tc.Cancel(&core.TimeoutError{After: 20 * time.Millisecond})
	<-tc.Done()
	res, err := tc.Result()
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeTimedOut, res.Outcome)
}
