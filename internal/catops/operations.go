package catops

import (
	"context"

	"github.com/cortexmemory/cortex/internal/catops/policy"
	"github.com/cortexmemory/cortex/internal/domain/category"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/storage"
)

// CreateResult reports whether createCategory actually created anything.
type CreateResult struct {
	Path    path.CategoryPath
	Created bool
}

// CreateCategory creates pathStr if the configured mode permits it.
// modeCtx may be nil, meaning free mode with no enforcement.
func CreateCategory(ctx context.Context, adapter storage.ScopedAdapter, engine *policy.Engine, pathStr string, modeCtx *ModeContext) (CreateResult, error) {
	cp, err := path.ParseCategoryPath(pathStr)
	if err != nil {
		return CreateResult{}, newErr(ErrInvalidPath, err.Error(), err)
	}
	if cp.IsRoot() {
		return CreateResult{}, newErr(ErrRootCategoryNotAllowed, "the root category cannot be created", nil)
	}

	if modeCtx != nil && modeCtx.Mode != ModeFree {
		root, _ := cp.RootSegment()
		allowed, err := engine.Allow(ctx, policy.Input{
			Mode:         string(modeCtx.Mode),
			Path:         cp.String(),
			RootSegment:  root,
			AllowedRoots: modeCtx.AllowedRoots,
			AllowedPaths: modeCtx.AllowedPaths,
		})
		if err != nil {
			return CreateResult{}, newErr(ErrStorageError, "evaluate category mode policy", err)
		}
		if !allowed {
			return CreateResult{}, newErr(ErrCategoryModeViolation, "category "+cp.String()+" is not permitted under the configured "+string(modeCtx.Mode)+" mode", nil)
		}
	}

	exists, err := adapter.Categories().Exists(ctx, cp)
	if err != nil {
		return CreateResult{}, newErr(ErrStorageError, "check category existence", err)
	}
	if exists {
		return CreateResult{Path: cp, Created: false}, nil
	}

	if err := adapter.Categories().Ensure(ctx, cp); err != nil {
		return CreateResult{}, newErr(ErrStorageError, "create category", err)
	}
	return CreateResult{Path: cp, Created: true}, nil
}

// DeleteCategory removes pathStr, refusing protected categories outside
// free mode.
func DeleteCategory(ctx context.Context, adapter storage.ScopedAdapter, pathStr string, modeCtx *ModeContext) error {
	cp, err := path.ParseCategoryPath(pathStr)
	if err != nil {
		return newErr(ErrInvalidPath, err.Error(), err)
	}
	if cp.IsRoot() {
		return newErr(ErrRootCategoryNotAllowed, "the root category cannot be deleted", nil)
	}
	if modeCtx != nil && modeCtx.Mode != ModeFree && modeCtx.isProtected(cp.String()) {
		return newErr(ErrCategoryProtected, "category "+cp.String()+" is protected under the configured "+string(modeCtx.Mode)+" mode", nil)
	}
	if err := adapter.Categories().Delete(ctx, cp); err != nil {
		return newErr(ErrStorageError, "delete category", err)
	}
	return nil
}

// SetCategoryDescription sets or clears pathStr's description.
func SetCategoryDescription(ctx context.Context, adapter storage.ScopedAdapter, pathStr string, description *string) error {
	cp, err := path.ParseCategoryPath(pathStr)
	if err != nil {
		return newErr(ErrInvalidPath, err.Error(), err)
	}
	if cp.IsRoot() {
		return newErr(ErrRootCategoryNotAllowed, "the root category has no description", nil)
	}
	if !category.ValidateDescription(description) {
		return newErr(ErrInvalidPath, "description exceeds maximum length", nil)
	}
	if err := adapter.Categories().SetDescription(ctx, cp, description); err != nil {
		return newErr(ErrStorageError, "set category description", err)
	}
	return nil
}
