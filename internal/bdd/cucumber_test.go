// Package bdd runs the end-to-end scenarios from the spec's testable
// properties (create/retrieve, path normalization, three-valued
// expiresAt updates, move collisions, prune dry-run vs real, reindex
// recovery) against the real filesystem adapter, via
// github.com/cucumber/godog. Grounded on the teacher's
// internal/bdd/cucumber_test.go godog.TestSuite wiring, rewritten
// around direct memops/catops calls instead of an HTTP client, since
// Cortex has no network surface to drive.
package bdd

import (
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
