// Package initcmd implements `cortex init`: idempotently writes the
// default configuration file and scaffolds any configured category
// hierarchies (§4.8's initialize(), §C.4).
package initcmd

import (
	"context"
	"fmt"

	"github.com/cortexmemory/cortex/internal/cmd/cmdutil"
	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/cortex"
	"github.com/urfave/cli/v3"
)

// Command returns the `init` command.
func Command() *cli.Command {
	var storeName, storePath string
	return &cli.Command{
		Name:  "init",
		Usage: "Write the default config if absent, optionally defining a filesystem store",
		Flags: append(cmdutil.GlobalFlags(),
			&cli.StringFlag{Name: "store-name", Destination: &storeName, Value: "default", Usage: "Name for an initial filesystem store"},
			&cli.StringFlag{Name: "store-path", Destination: &storePath, Usage: "Absolute root directory for the initial store"}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Default()
			if storePath != "" {
				cfg.Stores[storeName] = config.StoreDefinition{
					Kind:         "filesystem",
					Properties:   map[string]any{"path": storePath},
					CategoryMode: "free",
				}
			}
			c, err := cortex.Init(ctx, cortex.Options{Config: cfg})
			if err != nil {
				return cmdutil.Fail(err)
			}
			if err := c.Initialize(ctx, cmd.String("config-dir")); err != nil {
				return cmdutil.Fail(err)
			}
			fmt.Println("cortex initialized")
			return nil
		},
	}
}
