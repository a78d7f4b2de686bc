package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/cortexmemory/cortex/internal/cmd/category"
	"github.com/cortexmemory/cortex/internal/cmd/initcmd"
	"github.com/cortexmemory/cortex/internal/cmd/memory"
	"github.com/cortexmemory/cortex/internal/cmd/serve"
	"github.com/cortexmemory/cortex/internal/cmd/store"
	_ "github.com/cortexmemory/cortex/internal/storage/fsadapter"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "cortex",
		Usage: "Hierarchical markdown memory store for AI agents",
		Commands: []*cli.Command{
			memory.Command(),
			category.Command(),
			store.Command(),
			initcmd.Command(),
			serve.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		if ec, ok := err.(cli.ExitCoder); ok {
			log.Error(ec.Error())
			os.Exit(ec.ExitCode())
		}
		log.Fatal(err)
	}
}
