// Package memory implements the `cortex memory` subcommands
// (create/get/update/move/remove/list/prune/recent), thin CLI
// wrappers around internal/memops, styled after the teacher's flag
// construction in internal/cmd/serve/serve.go.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cortexmemory/cortex/internal/cmd/cmdutil"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/memops"
	"github.com/cortexmemory/cortex/internal/metrics"
	"github.com/cortexmemory/cortex/internal/render"
	"github.com/urfave/cli/v3"
)

// Command returns the `memory` parent command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Create, read, and manage individual memories",
		Commands: []*cli.Command{
			createCmd(), getCmd(), updateCmd(), moveCmd(),
			removeCmd(), listCmd(), pruneCmd(), recentCmd(),
		},
	}
}

func createCmd() *cli.Command {
	var content, source string
	var tags, citations []string
	var expiresAt string
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new memory",
		ArgsUsage: "<category/slug>",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "content", Destination: &content, Usage: "Memory body (markdown)"},
			&cli.StringFlag{Name: "source", Destination: &source, Value: "cli", Usage: "Origin identifier"},
			&cli.StringSliceFlag{Name: "tag", Destination: &tags, Usage: "Tag (repeatable)"},
			&cli.StringSliceFlag{Name: "citation", Destination: &citations, Usage: "Citation (repeatable)"},
			&cli.StringFlag{Name: "expires-at", Destination: &expiresAt, Usage: "RFC 3339 expiry timestamp"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			input := memops.CreateInput{Content: content, Source: source, Tags: tags, Citations: citations}
			if expiresAt != "" {
				t, err := time.Parse(time.RFC3339, expiresAt)
				if err != nil {
					return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: %w", err))
				}
				input.ExpiresAt = &t
			}
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			m, err := memops.Create(ctx, adapter, cmd.Args().Get(0), input, start)
			metrics.Observe("memory.create", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			log.Info("memory created", "path", m.Path().String(), "store", cmdutil.StoreName(cmd, c))
			return cmdutil.Print(cmdutil.Format(cmd, c), render.Memory(m))
		},
	}
}

func getCmd() *cli.Command {
	var includeExpired bool
	return &cli.Command{
		Name:      "get",
		Usage:     "Retrieve a memory by path",
		ArgsUsage: "<category/slug>",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.BoolFlag{Name: "include-expired", Destination: &includeExpired}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			m, err := memops.Get(ctx, adapter, cmd.Args().Get(0), memops.GetOptions{IncludeExpired: includeExpired}, start)
			metrics.Observe("memory.get", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			return cmdutil.Print(cmdutil.Format(cmd, c), render.Memory(m))
		},
	}
}

func updateCmd() *cli.Command {
	var content, clearExpiry, expiresAt string
	var tags, citations []string
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of an existing memory",
		ArgsUsage: "<category/slug>",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "content", Destination: &content},
			&cli.StringSliceFlag{Name: "tag", Destination: &tags},
			&cli.StringSliceFlag{Name: "citation", Destination: &citations},
			&cli.StringFlag{Name: "expires-at", Destination: &expiresAt, Usage: "RFC 3339; sets a new expiry"},
			&cli.StringFlag{Name: "clear-expires-at", Destination: &clearExpiry, Usage: "Set to \"true\" to clear expiry"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			var updates memops.Updates
			if cmd.IsSet("content") {
				updates.Content = &content
			}
			if cmd.IsSet("tag") {
				updates.HasTags, updates.Tags = true, tags
			}
			if cmd.IsSet("citation") {
				updates.HasCitations, updates.Citations = true, citations
			}
			if clearExpiry == "true" {
				updates.HasExpiresAt = true
				updates.ExpiresAt = memops.ExpiresAtUpdate{Clear: true}
			} else if expiresAt != "" {
				t, err := time.Parse(time.RFC3339, expiresAt)
				if err != nil {
					return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: %w", err))
				}
				updates.HasExpiresAt = true
				updates.ExpiresAt = memops.ExpiresAtUpdate{Value: t}
			}
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			m, err := memops.Update(ctx, adapter, cmd.Args().Get(0), updates, start)
			metrics.Observe("memory.update", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			return cmdutil.Print(cmdutil.Format(cmd, c), render.Memory(m))
		},
	}
}

func moveCmd() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a memory to a new path",
		ArgsUsage: "<from> <to>",
		Flags:     cmdutil.GlobalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected <from> <to>"))
			}
			_, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			err = memops.Move(ctx, adapter, cmd.Args().Get(0), cmd.Args().Get(1))
			metrics.Observe("memory.move", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			fmt.Printf("moved %s -> %s\n", cmd.Args().Get(0), cmd.Args().Get(1))
			return nil
		},
	}
}

func removeCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a memory",
		ArgsUsage: "<category/slug>",
		Flags:     cmdutil.GlobalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cmdutil.Fail(fmt.Errorf("INVALID_INPUT: expected exactly one path argument"))
			}
			_, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			start := time.Now()
			err = memops.Remove(ctx, adapter, cmd.Args().Get(0))
			metrics.Observe("memory.remove", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			fmt.Printf("removed %s\n", cmd.Args().Get(0))
			return nil
		},
	}
}

func listCmd() *cli.Command {
	var category string
	var includeExpired bool
	return &cli.Command{
		Name:  "list",
		Usage: "List memories and subcategories, scoped to a category or the whole store",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "category", Destination: &category},
			&cli.BoolFlag{Name: "include-expired", Destination: &includeExpired}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			opts := memops.ListOptions{IncludeExpired: includeExpired}
			if category != "" {
				cp, perr := path.ParseCategoryPath(category)
				if perr != nil {
					return cmdutil.Fail(perr)
				}
				opts.Category = &cp
			}
			start := time.Now()
			res, err := memops.List(ctx, adapter, opts, start)
			metrics.Observe("memory.list", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			return cmdutil.Print(cmdutil.Format(cmd, c), res)
		},
	}
}

func pruneCmd() *cli.Command {
	var category string
	var dryRun bool
	return &cli.Command{
		Name:  "prune",
		Usage: "Remove (or, with --dry-run, report) expired memories",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "category", Destination: &category},
			&cli.BoolFlag{Name: "dry-run", Destination: &dryRun}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			scope := path.RootCategory
			if category != "" {
				cp, perr := path.ParseCategoryPath(category)
				if perr != nil {
					return cmdutil.Fail(perr)
				}
				scope = cp
			}
			start := time.Now()
			pruned, err := memops.Prune(ctx, adapter, scope, memops.PruneOptions{DryRun: dryRun}, start)
			metrics.Observe("memory.prune", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			out := make([]map[string]any, len(pruned))
			for i, m := range pruned {
				out[i] = render.Memory(m)
			}
			return cmdutil.Print(cmdutil.Format(cmd, c), map[string]any{"dryRun": dryRun, "pruned": out})
		},
	}
}

func recentCmd() *cli.Command {
	var category string
	var limit int
	var includeExpired bool
	return &cli.Command{
		Name:  "recent",
		Usage: "List the most recently updated memories",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "category", Destination: &category},
			&cli.IntFlag{Name: "limit", Destination: &limit, Value: 5},
			&cli.BoolFlag{Name: "include-expired", Destination: &includeExpired}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, adapter, err := cmdutil.OpenStore(ctx, cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			opts := memops.RecentOptions{Limit: limit, HasLimit: cmd.IsSet("limit"), IncludeExpired: includeExpired}
			if category != "" {
				opts.Category = &category
			}
			start := time.Now()
			res, err := memops.Recent(ctx, adapter, opts, start)
			metrics.Observe("memory.recent", outcome(err), start)
			if err != nil {
				return cmdutil.Fail(err)
			}
			out := make([]map[string]any, len(res.Memories))
			for i, m := range res.Memories {
				out[i] = render.Memory(m)
			}
			return cmdutil.Print(cmdutil.Format(cmd, c), map[string]any{
				"category": res.CategoryLabel, "count": len(out), "memories": out,
			})
		},
	}
}

func outcome(err error) string {
	return strings.ToLower(cmdutil.ErrorCode(err))
}
