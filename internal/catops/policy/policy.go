// Package policy evaluates category-mode enforcement (free,
// subcategories, strict) via an OPA/Rego policy, grounded on the
// teacher's episodic memory PolicyEngine (prepared query, default
// built-in source with optional directory override, hot reload).
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/open-policy-agent/opa/rego"
)

const defaultModeRego = `
package cortex.categories

import future.keywords.if
import future.keywords.in

default allow = false

allow if {
	input.mode == "free"
}

allow if {
	input.mode == "subcategories"
	input.root_segment == input.allowed_roots[_]
}

allow if {
	input.mode == "strict"
	input.path == input.allowed_paths[_]
}
`

// Engine evaluates whether creating a category under a given mode is
// permitted.
type Engine struct {
	mu    sync.RWMutex
	query *rego.PreparedEvalQuery
	src   string
}

// NewEngine loads the category-mode policy, from policyDir/category_mode.rego
// if policyDir is non-empty and the file exists, otherwise the built-in default.
func NewEngine(ctx context.Context, policyDir string) (*Engine, error) {
	e := &Engine{}
	if err := e.load(ctx, policyDir); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) load(ctx context.Context, policyDir string) error {
	src := regoSource(policyDir, "category_mode.rego", defaultModeRego)
	q, err := prepareQuery(ctx, src, "data.cortex.categories.allow")
	if err != nil {
		return fmt.Errorf("catops: load category mode policy: %w", err)
	}
	e.mu.Lock()
	e.query = q
	e.src = src
	e.mu.Unlock()
	return nil
}

// Reload hot-reloads the policy from policyDir.
func (e *Engine) Reload(ctx context.Context, policyDir string) error {
	return e.load(ctx, policyDir)
}

// Input is the evaluation context for a single category-creation check.
type Input struct {
	Mode         string
	Path         string
	RootSegment  string
	AllowedRoots []string
	AllowedPaths []string
}

// Allow reports whether in is permitted under the active policy.
func (e *Engine) Allow(ctx context.Context, in Input) (bool, error) {
	e.mu.RLock()
	q := *e.query
	e.mu.RUnlock()

	input := map[string]any{
		"mode":          in.Mode,
		"path":          in.Path,
		"root_segment":  in.RootSegment,
		"allowed_roots": toAnySlice(in.AllowedRoots),
		"allowed_paths": toAnySlice(in.AllowedPaths),
	}
	results, err := q.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("catops: policy eval: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allow, _ := results[0].Expressions[0].Value.(bool)
	return allow, nil
}

func regoSource(policyDir, filename, fallback string) string {
	if policyDir == "" {
		return fallback
	}
	data, err := os.ReadFile(filepath.Join(policyDir, filename))
	if err != nil {
		log.Warn("category policy file not found, using built-in default", "file", filename, "err", err)
		return fallback
	}
	return string(data)
}

func prepareQuery(ctx context.Context, src, query string) (*rego.PreparedEvalQuery, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module("category_mode.rego", src),
	)
	pq, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &pq, nil
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
