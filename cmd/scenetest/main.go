package main

import (
	"os"

	"scenetest/pkg/scenetest"

	"github.com/sirupsen/logrus"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := scenetest.Execute("scenetest", version, os.Args[1:], os.Stdout, nil); err != nil {
		logrus.WithError(err).Fatal("scenetest failed")
	}
}
