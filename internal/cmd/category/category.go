// Package category implements the `cortex category` subcommands
// (create/delete/describe), thin CLI wrappers around internal/catops.
package category

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cortexmemory/cortex/internal/catops"
	"github.com/cortexmemory/cortex/internal/cmd/cmdutil"
	"github.com/cortexmemory/cortex/internal/metrics"
	"github.com/urfave/cli/v3"
)

// Command returns the `category` parent command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Create, delete, and describe categories",
		Commands: []*cli.Command{
			createCmd(), deleteCmd(), describeCmd(),
		},
	}
}

func modeContext(ctx context.Context, cmd *cli.Command) (*cmdutil.OpenedStore, *catops.ModeContext, error) {
	c, adapter, err := cmdutil.OpenStore(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	mc, err := c.ModeContext(cmdutil.StoreName(cmd, c))
	if err != nil {
		return nil, nil, err
	}
	return &cmdutil.OpenedStore{Cortex: c, Adapter: adapter}, mc, nil
}

func createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a category and any missing ancestors",
		ArgsUsage: "<path>",
		Flags:     cmdutil.GlobalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			opened, mc, err := modeContext(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			res, err := catops.CreateCategory(ctx, opened.Adapter, opened.Cortex.Policies(), cmd.Args().Get(0), mc)
			metrics.Observe("category.create", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			return cmdutil.Print(cmdutil.Format(cmd, opened.Cortex), map[string]any{
				"path": res.Path.String(), "created": res.Created,
			})
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Recursively delete a category, its subcategories, and their memories",
		ArgsUsage: "<path>",
		Flags:     cmdutil.GlobalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			opened, mc, err := modeContext(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			err = catops.DeleteCategory(ctx, opened.Adapter, cmd.Args().Get(0), mc)
			metrics.Observe("category.delete", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			fmt.Printf("deleted %s\n", cmd.Args().Get(0))
			return nil
		},
	}
}

func describeCmd() *cli.Command {
	var description string
	var clear bool
	return &cli.Command{
		Name:      "describe",
		Usage:     "Set or clear a category's description",
		ArgsUsage: "<path>",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "description", Destination: &description},
			&cli.BoolFlag{Name: "clear", Destination: &clear}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			_, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			var desc *string
			if !clear && description != "" {
				desc = &description
			}
			start := time.Now()
			err = catops.SetCategoryDescription(ctx, adapter, cmd.Args().Get(0), desc)
			metrics.Observe("category.describe", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			fmt.Printf("updated description for %s\n", cmd.Args().Get(0))
			return nil
		},
	}
}

func outcome(err error) string {
	return strings.ToLower(cmdutil.ErrorCode(err))
}
