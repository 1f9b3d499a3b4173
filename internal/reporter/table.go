package reporter

import (
	"fmt"
	"io"
	"time"

	"scenetest/pkg/scenetest/core"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintSummary writes a console table of the results followed by the summary
// line.
func PrintSummary(w io.Writer, title string, results []core.TestResult) {
	summary := NewSummary(results)

	printSeparatorWithTitle(w, title)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Test case", "Outcome", "Duration", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Test case", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Message", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, res := range results {
		t.AppendRow(table.Row{
			i + 1,
			res.Name,
			res.Outcome.String(),
			formatDuration(res.Duration),
			res.Message,
		})
	}

	t.AppendFooter(table.Row{
		"",
		"TOTAL",
		summary.Status().String(),
		formatDuration(summary.Duration),
		summary.String(),
	})

	t.SetStyle(table.StyleLight)
	t.Render()

	printSeparator(w)
	fmt.Fprintf(w, "TEST RESULT: %s. %s\n", summary.Status().StringColor(), summary.String())
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return humanize.FtoaWithDigits(d.Seconds(), 2) + "s"
}
