// Package seeder generates synthetic watch status documents and watch
// definitions for demos and bulk tests.
package seeder

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

var severityLevels = []string{"info", "low", "medium", "high", "critical"}

var watchStatuses = []string{
	models.StatusActionExecuted,
	models.StatusActionThrottled,
	models.StatusActionFailed,
	models.StatusNoAction,
	models.StatusExecutionFailed,
}

var actionStatuses = []string{
	models.StatusActionExecuted,
	models.StatusActionThrottled,
	models.StatusActionFailed,
}

var actionKinds = []string{"email", "slack", "webhook", "pagerduty", "index", "jira"}

// Generator produces watch summaries. The same seed yields the same data.
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
	// StaleActionRatio is the share of watches whose stored status keeps an
	// action that the current definition no longer lists.
	StaleActionRatio float64
}

// NewGenerator creates a generator seeded with seed. A zero seed is random.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: now, StaleActionRatio: 0.2}
}

// Watch generates the i-th watch of tenant together with its current
// definition.
func (g *Generator) Watch(tenant string, i int) (models.WatchSummary, models.WatchActionNames) {
	f := g.faker
	w := models.WatchSummary{
		WatchID:    fmt.Sprintf("%s/%s-%04d", tenant, f.AppName(), i),
		StatusCode: f.RandomString(watchStatuses),
		Actions:    map[string]models.ActionSummary{},
	}
	if f.Bool() {
		w.Description = models.StringPtr(f.HackerPhrase())
	}

	// An executed watch always carries severity and its details together.
	if w.StatusCode != models.StatusExecutionFailed || f.Bool() {
		n := f.Number(0, len(severityLevels)-1)
		threshold := f.Float64Range(1, 100)
		w.SeverityDetails = &models.SeverityDetails{
			Level:        severityLevels[n],
			LevelNumeric: n,
			CurrentValue: f.Float64Range(0, threshold*2),
			Threshold:    threshold,
		}
		w.Severity = models.StringPtr(severityLevels[n])
	}
	if w.StatusCode == models.StatusExecutionFailed || w.StatusCode == models.StatusActionFailed {
		w.Reason = models.StringPtr(f.Sentence(6))
	}

	def := models.WatchActionNames{WatchID: w.WatchID, AllowedActionNames: []string{}}
	for _, name := range g.actionNames(f.Number(0, 3)) {
		w.Actions[name] = g.action()
		def.AllowedActionNames = append(def.AllowedActionNames, name)
	}
	if len(def.AllowedActionNames) > 0 && f.Float64() < g.StaleActionRatio {
		w.Actions["retired-"+f.RandomString(actionKinds)] = g.action()
	}
	return w, def
}

// Batch generates count watches of tenant.
func (g *Generator) Batch(tenant string, start, count int) ([]models.WatchSummary, []models.WatchActionNames) {
	watches := make([]models.WatchSummary, 0, count)
	defs := make([]models.WatchActionNames, 0, count)
	for i := start; i < start+count; i++ {
		w, d := g.Watch(tenant, i)
		watches = append(watches, w)
		defs = append(defs, d)
	}
	return watches, defs
}

func (g *Generator) actionNames(n int) []string {
	names := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(names) < n {
		name := g.faker.RandomString(actionKinds)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (g *Generator) action() models.ActionSummary {
	f := g.faker
	checked := f.DateRange(g.now.Add(-72*time.Hour), g.now)
	a := models.ActionSummary{
		Checked:     models.TimePtr(checked.UTC().Truncate(time.Second)),
		CheckResult: f.Bool(),
		StatusCode:  f.RandomString(actionStatuses),
	}
	if a.CheckResult {
		triggered := checked.Add(-time.Duration(f.Number(0, 300)) * time.Second)
		a.Triggered = models.TimePtr(triggered.UTC().Truncate(time.Second))
		a.Execution = models.TimePtr(checked.UTC().Truncate(time.Second))
	}
	if a.StatusCode == models.StatusActionFailed {
		a.Error = models.StringPtr(f.Sentence(4))
	}
	if a.StatusCode == models.StatusActionThrottled {
		a.StatusDetails = models.StringPtr("throttled for " + f.RandomString([]string{"5m", "15m", "1h"}))
	}
	return a
}
