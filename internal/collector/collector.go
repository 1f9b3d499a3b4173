// Package collector discovers the test cases hosted by the loaded
// environments and freezes them into an ordered registry.
package collector

import (
	"reflect"
	"regexp"

	"scenetest/pkg/scenetest/core"

	"github.com/sirupsen/logrus"
)

var validName = regexp.MustCompile(`^[^\s]+( [^\s]+)*$`)

type Collector struct {
	source    core.EnvironmentSource
	log       logrus.Ext1FieldLogger
	testCases []core.TestCase
	index     map[string]int
}

func New(source core.EnvironmentSource, log logrus.Ext1FieldLogger) *Collector {
	return &Collector{
		source: source,
		log:    log,
		index:  make(map[string]int),
	}
}

// Collect scans every loaded environment, in load order, for components
// implementing core.TestCase and replaces the registry with what it found.
// It returns false, leaving the registry empty, when nothing qualifies.
func (c *Collector) Collect() bool {
	testCases := make([]core.TestCase, 0)
	index := make(map[string]int)
	seen := make(map[core.TestCase]bool)

	for _, env := range c.source.Environments() {
		for _, component := range env.Components() {
			tc, ok := component.(core.TestCase)
			if !ok {
				continue
			}

			// The same component may be exposed by more than one
			// environment.
			if reflect.TypeOf(tc).Comparable() {
				if seen[tc] {
					continue
				}
				seen[tc] = true
			}

			name := tc.Name()
			if !validName.MatchString(name) {
				c.log.Warnf("Ignoring test case with invalid name '%s' in scene '%s'", name, env.Name())
				continue
			}

			if _, exists := index[name]; exists {
				c.log.Warnf("Ignoring duplicate test case '%s' in scene '%s'", name, env.Name())
				continue
			}

			index[name] = len(testCases)
			testCases = append(testCases, tc)
			c.log.Tracef("Collected test case '%s' from scene '%s'", name, env.Name())
		}
	}

	c.testCases = testCases
	c.index = index

	c.log.Debugf("Collected %d test cases", len(testCases))
	return len(testCases) > 0
}

// TestCases returns the registry in discovery order.
func (c *Collector) TestCases() []core.TestCase {
	return c.testCases
}

// Lookup returns the collected test case with the given name.
func (c *Collector) Lookup(name string) (core.TestCase, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.testCases[i], true
}

func (c *Collector) Len() int {
	return len(c.testCases)
}
