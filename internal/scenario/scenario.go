// internal/scenario/scenario.go
// Package scenario defines the end-to-end user journeys and runs them, each
// on its own page, collecting a result per scenario.
package scenario

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/pages/jobs"
	"github.com/xkilldash9x/applyflow/internal/pages/login"
)

// Scenario is one named journey.
type Scenario struct {
	ID    string
	Title string
	// Tags select the scenario from the command line. The ID is always an
	// implicit tag.
	Tags []string
	// Setup runs before the body, the way a beforeEach hook would.
	Setup func(ctx context.Context, env *Env) error
	Run   func(ctx context.Context, env *Env) error
}

// AllTags returns Tags plus the ID tag.
func (s Scenario) AllTags() []string {
	return append(append([]string(nil), s.Tags...), "@"+s.ID)
}

// Matches reports whether s carries any of tags. No tags matches everything.
func (s Scenario) Matches(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		want = normalizeTag(want)
		for _, have := range s.AllTags() {
			if normalizeTag(have) == want {
				return true
			}
		}
	}
	return false
}

func normalizeTag(t string) string {
	return "@" + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), "@")
}

// Select filters all by tags, keeping order.
func Select(all []Scenario, tags []string) []Scenario {
	var out []Scenario
	for _, s := range all {
		if s.Matches(tags) {
			out = append(out, s)
		}
	}
	return out
}

// Env is the page-object graph a scenario works with. Each scenario gets
// its own.
type Env struct {
	Login   *login.Page
	Jobs    *jobs.Page
	Target  config.TargetConfig
	Resumes config.ResumesConfig
	Logger  *zap.Logger
}

// ResumePath resolves a resume fixture name against the configured dir.
func (e *Env) ResumePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.Resumes.Dir, name)
}
