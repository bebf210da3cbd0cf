// Package scenario holds the canned workloads replayed by vkrestrace.
//
// Each scenario drives vkres helpers for a number of frames against a
// backend.Renderer, flushing once per frame, and reports the statistics a
// reader needs to check recycling behavior.
package scenario

import (
	"context"
	"fmt"
	"sort"

	"github.com/gogpu/vkres/backend"
	"github.com/gogpu/vkres/internal/config"
)

// Stat is one named measurement of a scenario run.
type Stat struct {
	Key   string
	Value any
}

// Report is the outcome of one scenario run.
type Report struct {
	Scenario string
	Backend  string
	Frames   int
	Stats    []Stat
}

func (r *Report) add(key string, value any) {
	r.Stats = append(r.Stats, Stat{Key: key, Value: value})
}

// Func runs a scenario.
type Func func(ctx context.Context, r backend.Renderer, cfg *config.Config) (*Report, error)

// Scenario is a named workload.
type Scenario struct {
	Name        string
	Description string
	Run         Func
}

var scenarios = map[string]Scenario{}

func register(s Scenario) {
	if _, ok := scenarios[s.Name]; ok {
		panic("scenario: duplicate " + s.Name)
	}
	scenarios[s.Name] = s
}

// All returns every scenario sorted by name.
func All() []Scenario {
	out := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named scenario.
func Lookup(name string) (Scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("scenario: unknown %q", name)
	}
	return s, nil
}

// Run runs the named scenario and returns its report.
func Run(ctx context.Context, name string, r backend.Renderer, cfg *config.Config) (*Report, error) {
	s, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	rep, err := s.Run(ctx, r, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	rep.Scenario = name
	rep.Backend = r.Name()
	rep.add("pending releases", pendingReleases(r))
	return rep, nil
}

// pendingReleases reports objects released but not yet destroyed, for
// backends that expose it.
func pendingReleases(r backend.Renderer) any {
	if p, ok := r.(interface{ Pending() int }); ok {
		return p.Pending()
	}
	return "n/a"
}
