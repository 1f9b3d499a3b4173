// Package devops writes Azure DevOps logging commands. A nil *Printer is
// valid and writes nothing, so callers do not need to check whether the
// integration is enabled.
package devops

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

type Printer struct {
	mu  sync.Mutex
	out io.Writer

	// Groups function as a stack, so we keep track of the groups in a stack.
	groups []*Group
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		groups: make([]*Group, 0),
	}
}

func (p *Printer) LogError(msg string, a ...any) {
	p.logIssue("error", msg, a...)
}

func (p *Printer) LogWarning(msg string, a ...any) {
	p.logIssue("warning", msg, a...)
}

func (p *Printer) logIssue(kind string, msg string, a ...any) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "##vso[task.logissue type=%s]%s\n", kind, escape(fmt.Sprintf(msg, a...)))
}

// Logging commands are line based, so line breaks must be escaped.
func escape(s string) string {
	return strings.NewReplacer(
		"%", "%AZP25",
		"\r", "%0D",
		"\n", "%0A",
	).Replace(s)
}
