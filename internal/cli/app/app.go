// Package app holds what the CLI commands share.
package app

import (
	"io"

	"scenetest/internal/config"
	"scenetest/internal/devops"
	"scenetest/internal/scene"

	"github.com/sirupsen/logrus"
)

// Context is bound to every command's Run method.
type Context struct {
	Name    string
	Version string
	Log     *logrus.Logger
	Config  config.Config
	Host    *scene.Host
	Out     io.Writer

	// Nil unless the Azure DevOps integration is enabled.
	Devops *devops.Printer
}

func (c *Context) Logger() *logrus.Logger {
	return c.Log
}
