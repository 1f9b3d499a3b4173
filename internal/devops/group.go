package devops

import "fmt"

type Group struct {
	printer *Printer
}

// Opens a new group and adds it to the stack.
func (p *Printer) OpenGroup(name string, a ...any) *Group {
	if p == nil {
		return &Group{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	newGroup := &Group{printer: p}
	p.groups = append(p.groups, newGroup)
	fmt.Fprintf(p.out, "##[group]%s\n", escape(fmt.Sprintf(name, a...)))
	return newGroup
}

// Closes the group and removes all groups above it from the stack.
// This is done by popping the stack until we reach the group we want to close.
// Closing a group that is no longer open does nothing.
func (g *Group) Close() {
	p := g.printer
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	open := false
	for _, group := range p.groups {
		if group == g {
			open = true
			break
		}
	}
	if !open {
		return
	}

	for index := len(p.groups) - 1; index >= 0; index-- {
		// Pop the last group from the stack
		last := p.groups[index]
		p.groups = p.groups[:index]
		fmt.Fprintln(p.out, "##[endgroup]")
		if last == g {
			break
		}
	}
}
