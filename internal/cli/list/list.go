package list

import (
	"context"
	"fmt"

	"scenetest/internal/cli/app"
	"scenetest/internal/collector"
	"scenetest/pkg/scenetest/core"
	"scenetest/pkg/scenetest/utils"
)

type ListCmd struct {
	Scene string   `arg:"" name:"scene" help:"Scene manifest, sftp:// URL or registered scene id"`
	Names []string `short:"n" name:"name" help:"Only list test cases matching these patterns"`
}

func (cmd *ListCmd) Run(ctx *app.Context) error {
	log := ctx.Log
	log.Infof("Listing test cases of scene '%s'", cmd.Scene)

	alreadyLoaded, err := ctx.Host.Load(context.Background(), cmd.Scene)
	if err != nil {
		return err
	}

	coll := collector.New(ctx.Host, log)
	coll.Collect()

	nameFilter := utils.NewStringFilterFromSlice(cmd.Names)

	listed := 0
	for _, tc := range coll.TestCases() {
		if !nameFilter.Match(tc.Name()) {
			log.Tracef("Skipping test case '%s' because it does not match any name", tc.Name())
			continue
		}

		listed++
		if local := core.LocalTimeoutOf(tc); local > 0 {
			fmt.Fprintf(ctx.Out, "%s (local timeout: %s)\n", tc.Name(), local)
		} else {
			fmt.Fprintln(ctx.Out, tc.Name())
		}
	}

	log.Infof("Selected %d test cases", listed)

	if alreadyLoaded {
		return nil
	}
	_, err = ctx.Host.Unload(context.Background(), cmd.Scene)
	return err
}
