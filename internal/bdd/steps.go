package bdd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cortexmemory/cortex/internal/catops"
	"github.com/cortexmemory/cortex/internal/domain/memory"
	"github.com/cortexmemory/cortex/internal/domain/path"
	"github.com/cortexmemory/cortex/internal/memops"
	"github.com/cortexmemory/cortex/internal/storage"
	"github.com/cortexmemory/cortex/internal/storage/fsadapter"
	"github.com/cucumber/godog"
	"github.com/itchyny/gojq"
)

// state holds everything a scenario accumulates between steps: the
// store under test, the clock it's evaluated against, and the result
// of the most recently invoked operation.
type state struct {
	root    string
	adapter storage.ScopedAdapter
	faulty  *faultyAdapter
	now     time.Time

	lastErr     error
	lastMemory  memory.Memory
	lastList    memops.ListResult
	lastPruned  []memory.Memory
	lastReindex storage.ReindexReport
}

func (s *state) reset() {
	*s = state{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// InitializeScenario wires every Given/When/Then regex to a fresh
// state instance reset before each scenario.
func InitializeScenario(sc *godog.ScenarioContext) {
	st := &state{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		st.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if st.root != "" {
			_ = os.RemoveAll(st.root)
		}
		return ctx, nil
	})

	sc.Step(`^a filesystem store rooted at a temporary directory$`, st.aFilesystemStore)
	sc.Step(`^the current time is "([^"]*)"$`, st.theCurrentTimeIs)
	sc.Step(`^category "([^"]*)" exists$`, st.categoryExists)
	sc.Step(`^memory "([^"]*)" exists with content "([^"]*)"$`, st.memoryExists)
	sc.Step(`^memory "([^"]*)" exists with content "([^"]*)" expiring at "([^"]*)"$`, st.memoryExistsExpiring)
	sc.Step(`^the index updater is broken$`, st.indexUpdaterBroken)
	sc.Step(`^the index updater is repaired$`, st.indexUpdaterRepaired)

	sc.Step(`^I create memory "([^"]*)" with content "([^"]*)" source "([^"]*)" and tags "([^"]*)"$`, st.iCreateMemory)
	sc.Step(`^I get memory "([^"]*)"$`, st.iGetMemory)
	sc.Step(`^I update memory "([^"]*)" clearing expiresAt$`, st.iUpdateClearingExpiresAt)
	sc.Step(`^I update memory "([^"]*)" setting expiresAt to "([^"]*)"$`, st.iUpdateSettingExpiresAt)
	sc.Step(`^I update memory "([^"]*)" with tags "([^"]*)"$`, st.iUpdateWithTags)
	sc.Step(`^I move memory "([^"]*)" to "([^"]*)"$`, st.iMoveMemory)
	sc.Step(`^I list memories in category "([^"]*)"$`, st.iListMemories)
	sc.Step(`^I list memories in category "([^"]*)" including expired$`, st.iListMemoriesIncludingExpired)
	sc.Step(`^I prune category "([^"]*)" as a dry run$`, st.iPruneDryRun)
	sc.Step(`^I prune category "([^"]*)"$`, st.iPrune)
	sc.Step(`^I reindex the whole store$`, st.iReindex)

	sc.Step(`^the operation succeeds$`, st.theOperationSucceeds)
	sc.Step(`^the operation fails with code "([^"]*)"$`, st.theOperationFailsWithCode)
	sc.Step(`^the memory content is "([^"]*)"$`, st.theMemoryContentIs)
	sc.Step(`^the memory tags are "([^"]*)"$`, st.theMemoryTagsAre)
	sc.Step(`^the memory createdAt equals the memory updatedAt$`, st.theMemoryCreatedAtEqualsUpdatedAt)
	sc.Step(`^the created memory path is "([^"]*)"$`, st.theCreatedMemoryPathIs)
	sc.Step(`^the memory has no expiresAt$`, st.theMemoryHasNoExpiresAt)
	sc.Step(`^the memory expiresAt is "([^"]*)"$`, st.theMemoryExpiresAtIs)
	sc.Step(`^the listed memories include path "([^"]*)"$`, st.theListedMemoriesIncludePath)
	sc.Step(`^the listed memories do not include path "([^"]*)"$`, st.theListedMemoriesDoNotIncludePath)
	sc.Step(`^(\d+) memories were pruned$`, st.nMemoriesWerePruned)
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (s *state) aFilesystemStore() error {
	dir, err := os.MkdirTemp("", "cortex-bdd-*")
	if err != nil {
		return err
	}
	s.root = dir
	adapter, err := fsadapter.New(context.Background(), map[string]any{"path": dir})
	if err != nil {
		return err
	}
	s.adapter = adapter
	return nil
}

func (s *state) theCurrentTimeIs(raw string) error {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return err
	}
	s.now = t
	return nil
}

func (s *state) categoryExists(p string) error {
	cp, err := path.ParseCategoryPath(p)
	if err != nil {
		return err
	}
	return s.adapter.Categories().Ensure(context.Background(), cp)
}

func (s *state) memoryExists(p, content string) error {
	_, err := memops.Create(context.Background(), s.adapter, p, memops.CreateInput{Content: content, Source: "fixture"}, s.now)
	return err
}

func (s *state) memoryExistsExpiring(p, content, expiresAt string) error {
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return err
	}
	_, err = memops.Create(context.Background(), s.adapter, p, memops.CreateInput{Content: content, Source: "fixture", ExpiresAt: &t}, s.now)
	return err
}

func (s *state) indexUpdaterBroken() error {
	if s.faulty == nil {
		s.faulty = newFaultyAdapter(s.adapter)
		s.adapter = s.faulty
	}
	s.faulty.setBroken(true)
	return nil
}

func (s *state) indexUpdaterRepaired() error {
	if s.faulty != nil {
		s.faulty.setBroken(false)
	}
	return nil
}

func (s *state) iCreateMemory(p, content, source, tags string) error {
	m, err := memops.Create(context.Background(), s.adapter, p, memops.CreateInput{Content: content, Source: source, Tags: splitTags(tags)}, s.now)
	s.lastMemory, s.lastErr = m, err
	return nil
}

func (s *state) iGetMemory(p string) error {
	m, err := memops.Get(context.Background(), s.adapter, p, memops.GetOptions{}, s.now)
	s.lastMemory, s.lastErr = m, err
	return nil
}

func (s *state) iUpdateClearingExpiresAt(p string) error {
	m, err := memops.Update(context.Background(), s.adapter, p, memops.Updates{
		HasExpiresAt: true,
		ExpiresAt:    memops.ExpiresAtUpdate{Clear: true},
	}, s.now)
	s.lastMemory, s.lastErr = m, err
	return nil
}

func (s *state) iUpdateSettingExpiresAt(p, raw string) error {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return err
	}
	m, err := memops.Update(context.Background(), s.adapter, p, memops.Updates{
		HasExpiresAt: true,
		ExpiresAt:    memops.ExpiresAtUpdate{Value: t},
	}, s.now)
	s.lastMemory, s.lastErr = m, err
	return nil
}

func (s *state) iUpdateWithTags(p, tags string) error {
	m, err := memops.Update(context.Background(), s.adapter, p, memops.Updates{
		HasTags: true,
		Tags:    splitTags(tags),
	}, s.now)
	s.lastMemory, s.lastErr = m, err
	return nil
}

func (s *state) iMoveMemory(from, to string) error {
	s.lastErr = memops.Move(context.Background(), s.adapter, from, to)
	return nil
}

func (s *state) iListMemories(category string) error {
	return s.list(category, false)
}

func (s *state) iListMemoriesIncludingExpired(category string) error {
	return s.list(category, true)
}

func (s *state) list(category string, includeExpired bool) error {
	cp, err := path.ParseCategoryPath(category)
	if err != nil {
		return err
	}
	res, err := memops.List(context.Background(), s.adapter, memops.ListOptions{Category: &cp, IncludeExpired: includeExpired}, s.now)
	s.lastList, s.lastErr = res, err
	return nil
}

func (s *state) iPruneDryRun(category string) error {
	return s.prune(category, true)
}

func (s *state) iPrune(category string) error {
	return s.prune(category, false)
}

func (s *state) prune(category string, dryRun bool) error {
	cp, err := path.ParseCategoryPath(category)
	if err != nil {
		return err
	}
	pruned, err := memops.Prune(context.Background(), s.adapter, cp, memops.PruneOptions{DryRun: dryRun}, s.now)
	s.lastPruned, s.lastErr = pruned, err
	return nil
}

func (s *state) iReindex() error {
	report, err := s.adapter.Indexes().Reindex(context.Background(), path.RootCategory)
	s.lastReindex, s.lastErr = report, err
	return nil
}

func (s *state) theOperationSucceeds() error {
	if s.lastErr != nil {
		return fmt.Errorf("expected success, got: %w", s.lastErr)
	}
	return nil
}

func (s *state) theOperationFailsWithCode(code string) error {
	if s.lastErr == nil {
		return fmt.Errorf("expected failure with code %s, got success", code)
	}
	got := errorCode(s.lastErr)
	if got != code {
		return fmt.Errorf("expected code %s, got %s (%v)", code, got, s.lastErr)
	}
	return nil
}

func (s *state) theMemoryContentIs(want string) error {
	if s.lastMemory.Content() != want {
		return fmt.Errorf("expected content %q, got %q", want, s.lastMemory.Content())
	}
	return nil
}

func (s *state) theMemoryTagsAre(want string) error {
	got := strings.Join(s.lastMemory.Metadata().Tags, ",")
	if got != want {
		return fmt.Errorf("expected tags %q, got %q", want, got)
	}
	return nil
}

func (s *state) theMemoryCreatedAtEqualsUpdatedAt() error {
	meta := s.lastMemory.Metadata()
	if !meta.CreatedAt.Equal(meta.UpdatedAt) {
		return fmt.Errorf("createdAt %v != updatedAt %v", meta.CreatedAt, meta.UpdatedAt)
	}
	return nil
}

func (s *state) theCreatedMemoryPathIs(want string) error {
	got := s.lastMemory.Path().String()
	if got != want {
		return fmt.Errorf("expected path %q, got %q", want, got)
	}
	return nil
}

func (s *state) theMemoryHasNoExpiresAt() error {
	if s.lastMemory.Metadata().ExpiresAt != nil {
		return fmt.Errorf("expected no expiresAt, got %v", *s.lastMemory.Metadata().ExpiresAt)
	}
	return nil
}

func (s *state) theMemoryExpiresAtIs(want string) error {
	meta := s.lastMemory.Metadata()
	if meta.ExpiresAt == nil {
		return fmt.Errorf("expected expiresAt %s, got none", want)
	}
	wantT, err := time.Parse(time.RFC3339, want)
	if err != nil {
		return err
	}
	if !meta.ExpiresAt.Equal(wantT) {
		return fmt.Errorf("expected expiresAt %s, got %s", want, meta.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// listContainsPath marshals the current list result to JSON and runs
// a gojq query against it, exercising the same JSON-path assertion
// style the CLI/tool-server outputs are meant to be queried with.
func (s *state) listContainsPath(want string) (bool, error) {
	paths := make([]string, len(s.lastList.Memories))
	for i, m := range s.lastList.Memories {
		paths[i] = m.Path.String()
	}
	doc := map[string]any{"memories": paths}
	data, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return false, err
	}
	query, err := gojq.Parse(`.memories | any(. == $want)`)
	if err != nil {
		return false, err
	}
	code, err := gojq.Compile(query, gojq.WithVariables([]string{"$want"}))
	if err != nil {
		return false, err
	}
	iter := code.Run(parsed, want)
	v, ok := iter.Next()
	if !ok {
		return false, fmt.Errorf("gojq query produced no result")
	}
	if err, ok := v.(error); ok {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (s *state) theListedMemoriesIncludePath(want string) error {
	ok, err := s.listContainsPath(want)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected listed memories to include %q", want)
	}
	return nil
}

func (s *state) theListedMemoriesDoNotIncludePath(want string) error {
	ok, err := s.listContainsPath(want)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("expected listed memories to not include %q", want)
	}
	return nil
}

func (s *state) nMemoriesWerePruned(want int) error {
	if len(s.lastPruned) != want {
		return fmt.Errorf("expected %d pruned memories, got %d", want, len(s.lastPruned))
	}
	return nil
}

// errorCode mirrors cmdutil.ErrorCode without importing the cmd tree
// from a test package, keeping internal/bdd independent of the CLI.
func errorCode(err error) string {
	switch e := err.(type) {
	case *memops.Error:
		return string(e.Code)
	case *catops.Error:
		return string(e.Code)
	case *path.Error:
		return string(e.Code)
	case *storage.AdapterError:
		return string(e.Code)
	}
	return "error"
}
