// Package stats defines the plugin capability interfaces and the per-user
// and team report sessions built on top of them.
package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"standup/internal/dates"
	"standup/internal/format"
	"standup/internal/user"
)

// Collector gathers one category of activity data for a date range,
// merges results from another collector of the same kind, and renders
// itself. Collectors are single-use: one per user session per invocation.
type Collector interface {
	Name() string
	Check(ctx context.Context, u user.User, since, until dates.Day) error
	Merge(other Collector) error
	Show(w io.Writer, mode format.Mode)
}

// Provider is a registered stats group. It contributes its option schema
// once at startup, reports whether any of its flags selected it, and
// creates a fresh collector per user session.
type Provider interface {
	Name() string
	Options(fs *pflag.FlagSet) error
	Enabled() bool

	// New creates a collector for one user session. When all is true the
	// provider includes every stat it knows regardless of its flags.
	New(all bool) Collector
}

// ReportError wraps a failed data-collection step. Classified as exit
// code 1.
type ReportError struct {
	Stat string
	Err  error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("%s stats failed: %v", e.Stat, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// Registry is the static set of stats providers, iterated in registration
// order everywhere so report output stays deterministic.
type Registry struct {
	providers []Provider
	names     map[string]bool
}

// NewRegistry creates a registry with the given providers. Duplicate
// provider names panic: registration happens once at startup and a
// duplicate is a programming error.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{names: make(map[string]bool)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	if r.names[p.Name()] {
		panic(fmt.Sprintf("stats provider %q registered twice", p.Name()))
	}
	r.names[p.Name()] = true
	r.providers = append(r.providers, p)
}

// Providers returns the providers in registration order.
func (r *Registry) Providers() []Provider {
	return r.providers
}

// AnyEnabled reports whether at least one provider was explicitly
// selected on the command line.
func (r *Registry) AnyEnabled() bool {
	for _, p := range r.providers {
		if p.Enabled() {
			return true
		}
	}
	return false
}

// UserStats is one report session: the collectors selected for a single
// user (or for the whole team when User is the zero value) over one date
// range. Owned by the orchestrator for the duration of one invocation.
type UserStats struct {
	User       user.User
	Collectors []Collector
}

// NewUserStats creates a session for one user with a fresh collector from
// every selected provider, in registry order.
func NewUserStats(u user.User, reg *Registry, all bool) *UserStats {
	s := &UserStats{User: u}
	for _, p := range reg.Providers() {
		if all || p.Enabled() {
			s.Collectors = append(s.Collectors, p.New(all))
		}
	}
	return s
}

// NewTeamStats creates the team-aggregate session other sessions merge into.
func NewTeamStats(reg *Registry, all bool) *UserStats {
	return NewUserStats(user.User{}, reg, all)
}

// Check runs every collector in order. The first failure stops the
// session and is reported as a ReportError naming the stat.
func (s *UserStats) Check(ctx context.Context, since, until dates.Day) error {
	for _, c := range s.Collectors {
		if err := c.Check(ctx, s.User, since, until); err != nil {
			return &ReportError{Stat: c.Name(), Err: err}
		}
	}
	return nil
}

// Merge folds another session's results into this one, pairing collectors
// by name.
func (s *UserStats) Merge(other *UserStats) error {
	byName := make(map[string]Collector, len(other.Collectors))
	for _, c := range other.Collectors {
		byName[c.Name()] = c
	}
	for _, c := range s.Collectors {
		o, ok := byName[c.Name()]
		if !ok {
			continue
		}
		if err := c.Merge(o); err != nil {
			return fmt.Errorf("merging %s stats: %w", c.Name(), err)
		}
	}
	return nil
}

// Show renders every collector in order.
func (s *UserStats) Show(w io.Writer, mode format.Mode) {
	for _, c := range s.Collectors {
		c.Show(w, mode)
	}
}

// Group is a collector composed of sub-stat collectors, giving providers
// the usual group/stat two-level structure.
type Group struct {
	name  string
	stats []Collector
}

// NewGroup creates a composite collector.
func NewGroup(name string, stats ...Collector) *Group {
	return &Group{name: name, stats: stats}
}

// Name implements Collector.
func (g *Group) Name() string {
	return g.name
}

// Stats returns the sub-collectors in order.
func (g *Group) Stats() []Collector {
	return g.stats
}

// Check runs every sub-stat in order, stopping at the first failure.
func (g *Group) Check(ctx context.Context, u user.User, since, until dates.Day) error {
	for _, s := range g.stats {
		if err := s.Check(ctx, u, since, until); err != nil {
			return err
		}
	}
	return nil
}

// Merge pairs sub-stats by name with another group and merges them.
func (g *Group) Merge(other Collector) error {
	o, ok := other.(*Group)
	if !ok {
		return fmt.Errorf("cannot merge %T into stats group %q", other, g.name)
	}
	byName := make(map[string]Collector, len(o.stats))
	for _, s := range o.stats {
		byName[s.Name()] = s
	}
	for _, s := range g.stats {
		os, ok := byName[s.Name()]
		if !ok {
			continue
		}
		if err := s.Merge(os); err != nil {
			return err
		}
	}
	return nil
}

// Show renders every sub-stat in order.
func (g *Group) Show(w io.Writer, mode format.Mode) {
	for _, s := range g.stats {
		s.Show(w, mode)
	}
}
