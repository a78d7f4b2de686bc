// Package store implements the `cortex store` subcommands: reindex is
// the recovery primitive of §4.4/§9, rebuilding every index under a
// scope from the memory-file ground truth.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cortexmemory/cortex/internal/cmd/cmdutil"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/metrics"
	"github.com/urfave/cli/v3"
)

// Command returns the `store` parent command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Store-wide maintenance operations",
		Commands: []*cli.Command{
			reindexCmd(),
		},
	}
}

func reindexCmd() *cli.Command {
	var category string
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild every category index at and beneath a scope from the memory-file ground truth",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "category", Destination: &category, Usage: "Scope to reindex (default: whole store)"}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			scope := path.RootCategory
			if category != "" {
				scope, err = path.ParseCategoryPath(category)
				if err != nil {
					return cmdutil.Fail(err)
				}
			}
			start := time.Now()
			report, err := adapter.Indexes().Reindex(ctx, scope)
			metrics.Observe("store.reindex", cmdutil.ErrorCode(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			metrics.AddReindexWarnings(len(report.Warnings))
			fmt.Printf("reindexed %s: %d categories rebuilt, %d warnings\n", scope.String(), report.Rebuilt, len(report.Warnings))
			return cmdutil.Print(cmdutil.Format(cmd, c), report)
		},
	}
}
