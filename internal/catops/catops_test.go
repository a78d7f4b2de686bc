package catops

import (
	"context"
	"testing"

	"github.com/cortexmemory/cortex/internal/catops/policy"
	"github.com/cortexmemory/cortex/internal/storage/memadapter"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *policy.Engine {
	t.Helper()
	e, err := policy.NewEngine(context.Background(), "")
	require.NoError(t, err)
	return e
}

func TestCreateCategoryFreeMode(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	engine := newEngine(t)
	res, err := CreateCategory(ctx, a, engine, "work/notes", &ModeContext{Mode: ModeFree})
	require.NoError(t, err)
	require.True(t, res.Created)

	res, err = CreateCategory(ctx, a, engine, "work/notes", &ModeContext{Mode: ModeFree})
	require.NoError(t, err)
	require.False(t, res.Created)
}

func TestCreateCategoryRejectsRoot(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	engine := newEngine(t)
	_, err := CreateCategory(ctx, a, engine, "", &ModeContext{Mode: ModeFree})
	require.Error(t, err)
	var catErr *Error
	require.ErrorAs(t, err, &catErr)
	require.Equal(t, ErrRootCategoryNotAllowed, catErr.Code)
}

func TestCreateCategorySubcategoriesModeEnforcesRoot(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	engine := newEngine(t)
	modeCtx := &ModeContext{Mode: ModeSubcategories, AllowedRoots: []string{"work"}}

	_, err := CreateCategory(ctx, a, engine, "personal/journal", modeCtx)
	require.Error(t, err)
	var catErr *Error
	require.ErrorAs(t, err, &catErr)
	require.Equal(t, ErrCategoryModeViolation, catErr.Code)

	res, err := CreateCategory(ctx, a, engine, "work/projects", modeCtx)
	require.NoError(t, err)
	require.True(t, res.Created)
}

func TestCreateCategoryStrictModeRequiresExactPath(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	engine := newEngine(t)
	modeCtx := &ModeContext{Mode: ModeStrict, AllowedPaths: []string{"work/notes"}}

	_, err := CreateCategory(ctx, a, engine, "work/other", modeCtx)
	require.Error(t, err)

	res, err := CreateCategory(ctx, a, engine, "work/notes", modeCtx)
	require.NoError(t, err)
	require.True(t, res.Created)
}

func TestDeleteCategoryRejectsProtected(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	engine := newEngine(t)
	modeCtx := &ModeContext{Mode: ModeSubcategories, AllowedRoots: []string{"work"}, ProtectedPaths: []string{"work"}}

	_, err := CreateCategory(ctx, a, engine, "work", modeCtx)
	require.NoError(t, err)

	err = DeleteCategory(ctx, a, "work", modeCtx)
	require.Error(t, err)
	var catErr *Error
	require.ErrorAs(t, err, &catErr)
	require.Equal(t, ErrCategoryProtected, catErr.Code)
}

func TestSetCategoryDescriptionRejectsOverlong(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()
	engine := newEngine(t)
	_, err := CreateCategory(ctx, a, engine, "work", &ModeContext{Mode: ModeFree})
	require.NoError(t, err)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	desc := string(long)
	err = SetCategoryDescription(ctx, a, "work", &desc)
	require.Error(t, err)

	short := "team workspace"
	err = SetCategoryDescription(ctx, a, "work", &short)
	require.NoError(t, err)
}
