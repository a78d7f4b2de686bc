// Package cmdutil holds the small pieces every cortex subcommand
// shares: flag definitions for selecting a config dir and store,
// opening a root cortex.Cortex client, rendering results in the
// configured output format, and mapping typed errors to exit codes
// (§6). Grounded on the teacher's *cli.Command construction in
// internal/cmd/serve/serve.go, generalized from one long-running
// server command to several short-lived subcommands.
package cmdutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cortexmemory/cortex/internal/catops"
	"github.com/cortexmemory/cortex/internal/cortex"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/memops"
	"github.com/cortexmemory/cortex/internal/storage"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// GlobalFlags are accepted by every subcommand.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config-dir",
			Sources: cli.EnvVars("CORTEX_CONFIG_DIR"),
			Usage:   "Override the config directory (default: OS user config dir)",
		},
		&cli.StringFlag{
			Name:    "store",
			Sources: cli.EnvVars("CORTEX_STORE"),
			Usage:   "Store to operate on (default: settings.defaultStore)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format override: yaml, json, or toon",
		},
	}
}

// Open resolves the root Cortex client from the --config-dir flag.
func Open(ctx context.Context, cmd *cli.Command) (*cortex.Cortex, error) {
	return cortex.FromConfig(ctx, cmd.String("config-dir"))
}

// StoreName resolves which store a command should operate on: the
// --store flag if set, else the config's default store.
func StoreName(cmd *cli.Command, c *cortex.Cortex) string {
	if s := cmd.String("store"); s != "" {
		return s
	}
	return c.Settings().DefaultStore
}

// OpenedStore bundles a root client with one of its scoped adapters,
// for commands (like category create/delete) that need both.
type OpenedStore struct {
	Cortex  *cortex.Cortex
	Adapter storage.ScopedAdapter
}

// OpenStore is the common "resolve root client, pick a store, get its
// scoped adapter" sequence shared by memory/category subcommands.
func OpenStore(ctx context.Context, cmd *cli.Command) (*cortex.Cortex, storage.ScopedAdapter, error) {
	c, err := Open(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := c.GetStore(ctx, StoreName(cmd, c))
	if err != nil {
		return nil, nil, err
	}
	return c, adapter, nil
}

// Format resolves the output format: --format flag, else the
// resolved settings.outputFormat.
func Format(cmd *cli.Command, c *cortex.Cortex) string {
	if f := cmd.String("format"); f != "" {
		return f
	}
	return c.Settings().OutputFormat
}

// Print renders v to stdout in the given format ("yaml", "json", or
// "toon" — toon falls back to json, since Cortex's core treats output
// encoding as an injectable, external-collaborator concern per spec
// §1 and only needs a stable stand-in here).
func Print(format string, v any) error {
	switch format {
	case "json", "toon":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	}
}

// Exit codes per §6: invalid arg → 2, not found → 3, storage error →
// 4, config error → 5, unexpected → 1.
const (
	ExitOK            = 0
	ExitUnexpected    = 1
	ExitInvalidArg    = 2
	ExitNotFound      = 3
	ExitStorageError  = 4
	ExitConfigError   = 5
)

// ExitCode maps any error returned by the core down to one of §6's
// stable exit codes, by inspecting the typed error families.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var pathErr *path.Error
	if errors.As(err, &pathErr) {
		return ExitInvalidArg
	}

	var memErr *memops.Error
	if errors.As(err, &memErr) {
		switch memErr.Code {
		case memops.ErrInvalidPath, memops.ErrInvalidInput:
			return ExitInvalidArg
		case memops.ErrMemoryNotFound, memops.ErrCategoryNotFound, memops.ErrDestinationExists:
			return ExitNotFound
		case memops.ErrMemoryExpired:
			return ExitNotFound
		case memops.ErrStorageError:
			return ExitStorageError
		}
	}

	var catErr *catops.Error
	if errors.As(err, &catErr) {
		switch catErr.Code {
		case catops.ErrInvalidPath:
			return ExitInvalidArg
		case catops.ErrRootCategoryNotAllowed, catops.ErrCategoryProtected, catops.ErrCategoryModeViolation:
			return ExitInvalidArg
		case catops.ErrStorageError:
			return ExitStorageError
		}
	}

	var adapterErr *storage.AdapterError
	if errors.As(err, &adapterErr) {
		if adapterErr.Code == storage.ErrNotFound {
			return ExitNotFound
		}
		return ExitStorageError
	}

	var cortexErr *cortex.Error
	if errors.As(err, &cortexErr) {
		switch cortexErr.Code {
		case cortex.ErrStoreNotFound:
			return ExitNotFound
		case cortex.ErrConfig:
			return ExitConfigError
		}
	}

	return ExitUnexpected
}

// ErrorCode extracts a stable code string from any typed core error,
// for use as a low-cardinality metrics label. Falls back to "error"
// for anything outside the known families.
func ErrorCode(err error) string {
	if err == nil {
		return "ok"
	}
	var memErr *memops.Error
	if errors.As(err, &memErr) {
		return string(memErr.Code)
	}
	var catErr *catops.Error
	if errors.As(err, &catErr) {
		return string(catErr.Code)
	}
	var adapterErr *storage.AdapterError
	if errors.As(err, &adapterErr) {
		return string(adapterErr.Code)
	}
	var pathErr *path.Error
	if errors.As(err, &pathErr) {
		return string(pathErr.Code)
	}
	var cortexErr *cortex.Error
	if errors.As(err, &cortexErr) {
		return cortexErr.Code
	}
	return "error"
}

// Fail prints err and returns a cli.ExitCoder wrapping §6's mapped
// exit code, so the app-level Run reports it as the process exit status.
func Fail(err error) error {
	return cli.Exit(fmt.Sprintf("error: %v", err), ExitCode(err))
}
