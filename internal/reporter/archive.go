package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/klauspost/compress/zstd"
)

// Archives whose path ends with this suffix are zstd compressed.
const ZstdSuffix = ".zst"

type Archive struct {
	RunID     string          `json:"runId"`
	Scene     string          `json:"scene,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Status    string          `json:"status"`
	Results   []ArchiveResult `json:"results"`
}

type ArchiveResult struct {
	Name            string  `json:"name"`
	Outcome         string  `json:"outcome"`
	Message         string  `json:"message,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
}

func NewArchive(runID, scene string, results []core.TestResult) Archive {
	archive := Archive{
		RunID:     runID,
		Scene:     scene,
		CreatedAt: time.Now().UTC(),
		Status:    NewSummary(results).Status().String(),
		Results:   make([]ArchiveResult, 0, len(results)),
	}

	for _, res := range results {
		archive.Results = append(archive.Results, ArchiveResult{
			Name:            res.Name,
			Outcome:         res.Outcome.String(),
			Message:         res.Message,
			DurationSeconds: res.Duration.Seconds(),
		})
	}

	return archive
}

// TestResults converts the archived records back into results.
func (a Archive) TestResults() ([]core.TestResult, error) {
	results := make([]core.TestResult, 0, len(a.Results))
	for _, rec := range a.Results {
		outcome, err := parseOutcome(rec.Outcome)
		if err != nil {
			return nil, err
		}
		duration := time.Duration(math.Round(rec.DurationSeconds * float64(time.Second)))
		results = append(results, core.NewResult(rec.Name, outcome, rec.Message, duration))
	}
	return results, nil
}

// WriteArchive writes the archive as JSON to path, zstd compressed when the
// path ends with ZstdSuffix.
func WriteArchive(path string, archive Archive) error {
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if strings.HasSuffix(path, ZstdSuffix) {
		var buf bytes.Buffer
		encoder, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		if _, err := encoder.Write(data); err != nil {
			encoder.Close()
			return fmt.Errorf("failed to compress results: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to compress results: %w", err)
		}
		data = buf.Bytes()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for '%s': %w", path, err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results to '%s': %w", path, err)
	}

	return nil
}

func ReadArchive(path string) (Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return Archive{}, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ZstdSuffix) {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return Archive{}, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		reader = decoder
	}

	var archive Archive
	if err := json.NewDecoder(reader).Decode(&archive); err != nil {
		return Archive{}, fmt.Errorf("failed to decode '%s': %w", path, err)
	}

	return archive, nil
}

func parseOutcome(s string) (core.Outcome, error) {
	for _, outcome := range []core.Outcome{
		core.OutcomePassed,
		core.OutcomeFailed,
		core.OutcomeError,
		core.OutcomeTimedOut,
		core.OutcomeSkipped,
	} {
		if outcome.String() == s {
			return outcome, nil
		}
	}
	return core.OutcomeNone, fmt.Errorf("unknown outcome '%s'", s)
}
