// Package toolserver exposes Cortex's memory/category/store operations
// as a JSON-RPC tool protocol surface (§6), one tool per operation, via
// github.com/mark3labs/mcp-go. This is the concrete (but swappable)
// implementation of the "Tool protocol surface" external collaborator
// named in spec §1/§6; the core operations it calls (internal/memops,
// internal/catops) remain transport-agnostic.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cortexmemory/cortex/internal/catops"
	"github.com/cortexmemory/cortex/internal/cmd/cmdutil"
	"github.com/cortexmemory/cortex/internal/cortex"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/memops"
	"github.com/cortexmemory/cortex/internal/metrics"
	"github.com/cortexmemory/cortex/internal/render"
	"github.com/cortexmemory/cortex/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps an mcp-go MCPServer wired to a cortex.Cortex root client.
type Server struct {
	root *cortex.Cortex
	mcp  *server.MCPServer
}

// New builds a Server with one tool registered per memory/category/store
// operation in §4.
func New(root *cortex.Cortex) *Server {
	s := &Server{root: root, mcp: server.NewMCPServer("cortex", "1.0.0")}
	s.registerMemoryTools()
	s.registerCategoryTools()
	s.registerStoreTools()
	return s
}

// ServeStdio runs the tool server over stdio until the transport closes,
// logging a correlation ID for this run.
func (s *Server) ServeStdio(ctx context.Context) error {
	runID := uuid.NewString()
	log.Info("tool server starting", "transport", "stdio", "runId", runID)
	return server.ServeStdio(s.mcp)
}

func (s *Server) resolveAdapter(ctx context.Context, storeName string) (storage.ScopedAdapter, error) {
	name := storeName
	if name == "" {
		name = s.root.Settings().DefaultStore
	}
	return s.root.GetStore(ctx, name)
}

func errResult(op string, start time.Time, err error) (*mcp.CallToolResult, error) {
	metrics.Observe(op, errorCode(err), start)
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(op string, start time.Time, v any) (*mcp.CallToolResult, error) {
	metrics.Observe(op, "ok", start)
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorCode delegates to cmdutil's typed-error classification so the
// tool server and the CLI report the same metric labels for the same
// failures.
func errorCode(err error) string {
	return cmdutil.ErrorCode(err)
}

func storeParam() mcp.ToolOption {
	return mcp.WithString("store", mcp.Description("Store name (default: the configured default store)"))
}

func pathParam(desc string) mcp.ToolOption {
	return mcp.WithString("path", mcp.Required(), mcp.Description(desc))
}

func stringArray(request mcp.CallToolRequest, key string) []string {
	raw, ok := request.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if sv, ok := v.(string); ok {
			out = append(out, sv)
		}
	}
	return out
}

func (s *Server) registerMemoryTools() {
	s.mcp.AddTool(mcp.NewTool("memory_create",
		mcp.WithDescription("Create a new memory at category/slug; the category must already exist."),
		pathParam("category/slug address of the new memory"),
		mcp.WithString("content", mcp.Description("Memory body (markdown)")),
		mcp.WithString("source", mcp.Description("Origin identifier, e.g. cli, mcp, user")),
		mcp.WithArray("tags", mcp.Description("Tags")),
		mcp.WithArray("citations", mcp.Description("Citations")),
		mcp.WithString("expiresAt", mcp.Description("RFC 3339 expiry timestamp")),
		storeParam(),
	), s.handleCreate)

	s.mcp.AddTool(mcp.NewTool("memory_get",
		mcp.WithDescription("Retrieve a memory by path."),
		pathParam("category/slug address"),
		mcp.WithBoolean("includeExpired", mcp.Description("Return the memory even if expired")),
		storeParam(),
	), s.handleGet)

	s.mcp.AddTool(mcp.NewTool("memory_update",
		mcp.WithDescription("Update one or more fields of an existing memory."),
		pathParam("category/slug address"),
		mcp.WithString("content", mcp.Description("Replacement content")),
		mcp.WithArray("tags", mcp.Description("Replacement tags")),
		mcp.WithArray("citations", mcp.Description("Replacement citations")),
		mcp.WithString("expiresAt", mcp.Description("RFC 3339; sets a new expiry")),
		mcp.WithBoolean("clearExpiresAt", mcp.Description("Clear the existing expiry")),
		storeParam(),
	), s.handleUpdate)

	s.mcp.AddTool(mcp.NewTool("memory_move",
		mcp.WithDescription("Move a memory from one path to another."),
		mcp.WithString("from", mcp.Required()),
		mcp.WithString("to", mcp.Required()),
		storeParam(),
	), s.handleMove)

	s.mcp.AddTool(mcp.NewTool("memory_remove",
		mcp.WithDescription("Remove a memory."),
		pathParam("category/slug address"),
		storeParam(),
	), s.handleRemove)

	s.mcp.AddTool(mcp.NewTool("memory_list",
		mcp.WithDescription("List memories and subcategories, scoped to a category or the whole store."),
		mcp.WithString("category", mcp.Description("Category to scope to; omit for all root categories")),
		mcp.WithBoolean("includeExpired"),
		storeParam(),
	), s.handleList)

	s.mcp.AddTool(mcp.NewTool("memory_prune",
		mcp.WithDescription("Remove (or, with dryRun, report) every expired memory at and beneath a scope."),
		mcp.WithString("category", mcp.Description("Scope; omit for the whole store")),
		mcp.WithBoolean("dryRun"),
		storeParam(),
	), s.handlePrune)

	s.mcp.AddTool(mcp.NewTool("memory_recent",
		mcp.WithDescription("List the most recently updated memories."),
		mcp.WithString("category", mcp.Description("Scope; omit for the whole store")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 5)")),
		mcp.WithBoolean("includeExpired"),
		storeParam(),
	), s.handleRecent)
}

func (s *Server) registerCategoryTools() {
	s.mcp.AddTool(mcp.NewTool("category_create",
		mcp.WithDescription("Create a category and any missing ancestors."),
		pathParam("category path"),
		storeParam(),
	), s.handleCategoryCreate)

	s.mcp.AddTool(mcp.NewTool("category_delete",
		mcp.WithDescription("Recursively delete a category, its subcategories, and their memories."),
		pathParam("category path"),
		storeParam(),
	), s.handleCategoryDelete)

	s.mcp.AddTool(mcp.NewTool("category_describe",
		mcp.WithDescription("Set or clear a category's description."),
		pathParam("category path"),
		mcp.WithString("description"),
		mcp.WithBoolean("clear", mcp.Description("Clear the existing description")),
		storeParam(),
	), s.handleCategoryDescribe)
}

func (s *Server) registerStoreTools() {
	s.mcp.AddTool(mcp.NewTool("store_reindex",
		mcp.WithDescription("Rebuild every category index at and beneath a scope from the memory-file ground truth."),
		mcp.WithString("category", mcp.Description("Scope; omit for the whole store")),
		storeParam(),
	), s.handleReindex)
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.create", start, err)
	}
	input := memops.CreateInput{
		Content:   request.GetString("content", ""),
		Source:    request.GetString("source", "mcp"),
		Tags:      stringArray(request, "tags"),
		Citations: stringArray(request, "citations"),
	}
	if raw := request.GetString("expiresAt", ""); raw != "" {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return errResult("memory.create", start, fmt.Errorf("INVALID_INPUT: %w", perr))
		}
		input.ExpiresAt = &t
	}
	m, err := memops.Create(ctx, adapter, request.GetString("path", ""), input, start)
	if err != nil {
		return errResult("memory.create", start, err)
	}
	return jsonResult("memory.create", start, render.Memory(m))
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.get", start, err)
	}
	opts := memops.GetOptions{IncludeExpired: request.GetBool("includeExpired", false)}
	m, err := memops.Get(ctx, adapter, request.GetString("path", ""), opts, start)
	if err != nil {
		return errResult("memory.get", start, err)
	}
	return jsonResult("memory.get", start, render.Memory(m))
}

func (s *Server) handleUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.update", start, err)
	}
	var updates memops.Updates
	args := request.GetArguments()
	if raw, ok := args["content"].(string); ok {
		updates.Content = &raw
	}
	if _, ok := args["tags"]; ok {
		updates.HasTags, updates.Tags = true, stringArray(request, "tags")
	}
	if _, ok := args["citations"]; ok {
		updates.HasCitations, updates.Citations = true, stringArray(request, "citations")
	}
	if request.GetBool("clearExpiresAt", false) {
		updates.HasExpiresAt = true
		updates.ExpiresAt = memops.ExpiresAtUpdate{Clear: true}
	} else if raw := request.GetString("expiresAt", ""); raw != "" {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return errResult("memory.update", start, fmt.Errorf("INVALID_INPUT: %w", perr))
		}
		updates.HasExpiresAt = true
		updates.ExpiresAt = memops.ExpiresAtUpdate{Value: t}
	}
	m, err := memops.Update(ctx, adapter, request.GetString("path", ""), updates, start)
	if err != nil {
		return errResult("memory.update", start, err)
	}
	return jsonResult("memory.update", start, render.Memory(m))
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.move", start, err)
	}
	if err := memops.Move(ctx, adapter, request.GetString("from", ""), request.GetString("to", "")); err != nil {
		return errResult("memory.move", start, err)
	}
	return jsonResult("memory.move", start, map[string]any{"moved": true})
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.remove", start, err)
	}
	if err := memops.Remove(ctx, adapter, request.GetString("path", "")); err != nil {
		return errResult("memory.remove", start, err)
	}
	return jsonResult("memory.remove", start, map[string]any{"removed": true})
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.list", start, err)
	}
	opts := memops.ListOptions{IncludeExpired: request.GetBool("includeExpired", false)}
	if raw := request.GetString("category", ""); raw != "" {
		cp, perr := path.ParseCategoryPath(raw)
		if perr != nil {
			return errResult("memory.list", start, perr)
		}
		opts.Category = &cp
	}
	res, err := memops.List(ctx, adapter, opts, start)
	if err != nil {
		return errResult("memory.list", start, err)
	}
	return jsonResult("memory.list", start, res)
}

func (s *Server) handlePrune(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.prune", start, err)
	}
	scope := path.RootCategory
	if raw := request.GetString("category", ""); raw != "" {
		scope, err = path.ParseCategoryPath(raw)
		if err != nil {
			return errResult("memory.prune", start, err)
		}
	}
	opts := memops.PruneOptions{DryRun: request.GetBool("dryRun", false)}
	pruned, err := memops.Prune(ctx, adapter, scope, opts, start)
	if err != nil {
		return errResult("memory.prune", start, err)
	}
	out := make([]map[string]any, len(pruned))
	for i, m := range pruned {
		out[i] = render.Memory(m)
	}
	return jsonResult("memory.prune", start, map[string]any{"dryRun": opts.DryRun, "pruned": out})
}

func (s *Server) handleRecent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("memory.recent", start, err)
	}
	_, hasLimit := request.GetArguments()["limit"]
	opts := memops.RecentOptions{
		Limit:          int(request.GetFloat("limit", 5)),
		HasLimit:       hasLimit,
		IncludeExpired: request.GetBool("includeExpired", false),
	}
	if raw := request.GetString("category", ""); raw != "" {
		opts.Category = &raw
	}
	res, err := memops.Recent(ctx, adapter, opts, start)
	if err != nil {
		return errResult("memory.recent", start, err)
	}
	out := make([]map[string]any, len(res.Memories))
	for i, m := range res.Memories {
		out[i] = render.Memory(m)
	}
	return jsonResult("memory.recent", start, map[string]any{
		"category": res.CategoryLabel, "count": len(out), "memories": out,
	})
}

func (s *Server) handleCategoryCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	storeName := request.GetString("store", "")
	if storeName == "" {
		storeName = s.root.Settings().DefaultStore
	}
	adapter, err := s.root.GetStore(ctx, storeName)
	if err != nil {
		return errResult("category.create", start, err)
	}
	mc, err := s.root.ModeContext(storeName)
	if err != nil {
		return errResult("category.create", start, err)
	}
	res, err := catops.CreateCategory(ctx, adapter, s.root.Policies(), request.GetString("path", ""), mc)
	if err != nil {
		return errResult("category.create", start, err)
	}
	return jsonResult("category.create", start, map[string]any{"path": res.Path.String(), "created": res.Created})
}

func (s *Server) handleCategoryDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	storeName := request.GetString("store", "")
	if storeName == "" {
		storeName = s.root.Settings().DefaultStore
	}
	adapter, err := s.root.GetStore(ctx, storeName)
	if err != nil {
		return errResult("category.delete", start, err)
	}
	mc, err := s.root.ModeContext(storeName)
	if err != nil {
		return errResult("category.delete", start, err)
	}
	if err := catops.DeleteCategory(ctx, adapter, request.GetString("path", ""), mc); err != nil {
		return errResult("category.delete", start, err)
	}
	return jsonResult("category.delete", start, map[string]any{"deleted": true})
}

func (s *Server) handleCategoryDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("category.describe", start, err)
	}
	var desc *string
	if !request.GetBool("clear", false) {
		if raw := request.GetString("description", ""); raw != "" {
			desc = &raw
		}
	}
	if err := catops.SetCategoryDescription(ctx, adapter, request.GetString("path", ""), desc); err != nil {
		return errResult("category.describe", start, err)
	}
	return jsonResult("category.describe", start, map[string]any{"updated": true})
}

func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	adapter, err := s.resolveAdapter(ctx, request.GetString("store", ""))
	if err != nil {
		return errResult("store.reindex", start, err)
	}
	scope := path.RootCategory
	if raw := request.GetString("category", ""); raw != "" {
		scope, err = path.ParseCategoryPath(raw)
		if err != nil {
			return errResult("store.reindex", start, err)
		}
	}
	report, err := adapter.Indexes().Reindex(ctx, scope)
	if err != nil {
		return errResult("store.reindex", start, err)
	}
	metrics.AddReindexWarnings(len(report.Warnings))
	return jsonResult("store.reindex", start, report)
}
