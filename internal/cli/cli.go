package cli

import (
	"fmt"
	"io"
	"os"

	"scenetest/internal/cli/app"
	"scenetest/internal/cli/list"
	"scenetest/internal/cli/run"
	"scenetest/internal/config"
	"scenetest/internal/devops"
	"scenetest/internal/scene"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

type GlobalOpts struct {
	Verbosity   string `short:"v" help:"Set log level, overrides log.level" placeholder:"LEVEL"`
	AzureDevops bool   `short:"a" help:"Enable Azure DevOps integration" env:"TF_BUILD"`
	Config      string `short:"c" help:"Configuration file, defaults to ./scenetest.yaml when present" type:"path"`
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *app.Context) error {
	_, err := fmt.Fprintf(ctx.Out, "%s %s\n", ctx.Name, ctx.Version)
	return err
}

type cli struct {
	Global  GlobalOpts   `embed:""`
	Run     run.RunCmd   `cmd:"" help:"Run the test cases of one or more scenes"`
	List    list.ListCmd `cmd:"" help:"List the test cases of a scene"`
	Version VersionCmd   `cmd:"" help:"Print the version"`
}

// Setup lets embedders register scenes before a command runs.
type Setup func(host *scene.Host) error

// Execute parses args, builds the logger, configuration and scene host and
// runs the selected command.
func Execute(name, version string, args []string, out io.Writer, setup Setup) error {
	// Force display help if no arguments are provided
	if len(args) == 0 {
		args = []string{"--help"}
	}

	var c cli
	parser, err := kong.New(&c,
		kong.Name(name),
		kong.Description("Discover and run the test cases hosted in scenes."),
		kong.Writers(out, out),
		kong.UsageOnError(),
	)
	if err != nil {
		return fmt.Errorf("failed to create command line parser: %w", err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.Global.Config)
	if err != nil {
		return err
	}

	log, err := newLogger(c.Global, cfg)
	if err != nil {
		return err
	}

	host := scene.NewHost(log, scene.WithRemoteSettings(cfg.RemoteSettings()))
	if setup != nil {
		if err := setup(host); err != nil {
			return fmt.Errorf("failed to set up scenes: %w", err)
		}
	}

	ctx := &app.Context{
		Name:    name,
		Version: version,
		Log:     log,
		Config:  cfg,
		Host:    host,
		Out:     out,
	}
	if c.Global.AzureDevops || cfg.Output.AzureDevops {
		ctx.Devops = devops.NewPrinter(out)
	}

	log.Debugf("Running command '%s'", kctx.Command())
	err = kctx.Run(ctx)
	if err != nil && ctx.Devops != nil {
		ctx.Devops.LogError("%s failed: %s", name, err)
	}
	return err
}

func newLogger(global GlobalOpts, cfg config.Config) (*logrus.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	if global.Verbosity != "" {
		level, err = logrus.ParseLevel(global.Verbosity)
		if err != nil {
			return nil, fmt.Errorf("invalid verbosity: %w", err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors: true,
	})
	return logger, nil
}
