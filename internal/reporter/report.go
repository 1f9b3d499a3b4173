// Package reporter renders test results: the fixed text report emitted at the
// end of every run, a console summary table and result archives.
package reporter

import (
	"fmt"
	"strings"

	"scenetest/pkg/scenetest/core"
)

const (
	headerRule = "=========================="
	caseRule   = "--------------------------"
)

// Lines of the report header.
var header = []string{
	headerRule,
	"        Test Report",
	headerRule,
}

// FormatRegistry builds the report from the results the registered cases
// expose. Every case must have completed.
func FormatRegistry(cases []core.TestCase) (string, error) {
	results := make([]core.TestResult, 0, len(cases))
	for _, tc := range cases {
		res, err := tc.Result()
		if err != nil {
			return "", fmt.Errorf("%w for test case '%s': %w", core.ErrMissingResult, tc.Name(), err)
		}
		results = append(results, res)
	}

	return Format(results), nil
}

// Format renders results in the given order.
//
// Example:
//
//	==========================
//	        Test Report
//	==========================
//	A: Passed
//	msg:
//	duration: 0.2
//	--------------------------
func Format(results []core.TestResult) string {
	var sb strings.Builder

	for _, line := range header {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	for _, res := range results {
		fmt.Fprintf(&sb, "%s: %s\n", res.Name, res.Outcome.String())
		fmt.Fprintf(&sb, "msg: %s\n", singleLine(res.Message))
		fmt.Fprintf(&sb, "duration: %s\n", res.DurationSeconds())
		sb.WriteString(caseRule)
		sb.WriteByte('\n')
	}

	return sb.String()
}

// Keeps multi-line messages from breaking the line structure of the report.
func singleLine(msg string) string {
	msg = strings.TrimRight(msg, "\r\n")
	return strings.NewReplacer("\r\n", " | ", "\n", " | ").Replace(msg)
}
