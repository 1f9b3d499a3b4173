package run

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexedPath(t *testing.T) {
	tests := []struct {
		path     string
		index    int
		count    int
		expected string
	}{
		{"results.json", 0, 1, "results.json"},
		{"results.json", 0, 2, "results-1.json"},
		{"out/results.json.zst", 1, 3, filepath.Join("out", "results-2.json.zst")},
		{"metrics", 2, 3, "metrics-3"},
		{".prom", 0, 2, ".prom-1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, indexedPath(tt.path, tt.index, tt.count), tt.path)
	}
}

func TestFirstNonZero(t *testing.T) {
	assert.Equal(t, int64(5), firstNonZero(int64(0), int64(5)))
	assert.Equal(t, 3, firstNonZero(3, 4))
	assert.Equal(t, "", firstNonZero("", ""))
}
