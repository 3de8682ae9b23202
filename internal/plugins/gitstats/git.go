// Package gitstats gathers commit activity from local git repositories.
package gitstats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"standup/internal/config"
	"standup/internal/dates"
	"standup/internal/format"
	"standup/internal/stats"
	"standup/internal/user"
)

// runGit is swapped out in tests.
var runGit = func(ctx context.Context, repo string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repo}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git failed in %s: %s", repo, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git failed in %s: %w", repo, err)
	}
	return string(out), nil
}

// Group is the git stats provider. It contributes one group enable flag,
// one per stat, and the repository list parameter.
type Group struct {
	enabled bool
	commits bool
	repos   []string
}

// New creates the provider with repository defaults from the config file.
func New(cfg *config.Config) *Group {
	return &Group{repos: cfg.Git.Repos}
}

// Name implements stats.Provider.
func (g *Group) Name() string {
	return "git"
}

// Options contributes the git flags to the option schema.
func (g *Group) Options(fs *pflag.FlagSet) error {
	fs.BoolVar(&g.enabled, "git", false, "Check all git stats")
	fs.BoolVar(&g.commits, "git-commits", false, "Commits authored in the configured repositories")
	fs.StringSliceVar(&g.repos, "git-repos", g.repos, "Git repositories to scan")
	return nil
}

// Enabled reports whether the group or any of its stats was selected.
func (g *Group) Enabled() bool {
	return g.enabled || g.commits
}

// New creates the per-user collector with the stats selected by the flags.
func (g *Group) New(all bool) stats.Collector {
	whole := all || g.enabled
	var selected []stats.Collector
	if whole || g.commits {
		selected = append(selected, &Commits{repos: g.repos})
	}
	return stats.NewGroup("git", selected...)
}

// Commits counts commits authored by the user in each configured
// repository within the date range.
type Commits struct {
	repos  []string
	order  []string
	byRepo map[string][]string
}

// Name implements stats.Collector.
func (c *Commits) Name() string {
	return "commits"
}

// Check runs git log for every configured repository.
func (c *Commits) Check(ctx context.Context, u user.User, since, until dates.Day) error {
	if c.byRepo == nil {
		c.byRepo = make(map[string][]string)
	}
	for _, repo := range c.repos {
		slog.Debug("Checking git commits", "repo", repo, "author", u.Email)
		out, err := runGit(ctx, repo, "log", "--all",
			"--author="+u.Email,
			"--since="+since.String(),
			"--until="+until.String(),
			"--format=format:%h - %s")
		if err != nil {
			return err
		}
		c.add(repo, parseLog(out)...)
	}
	return nil
}

func (c *Commits) add(repo string, commits ...string) {
	if _, seen := c.byRepo[repo]; !seen {
		c.order = append(c.order, repo)
	}
	c.byRepo[repo] = append(c.byRepo[repo], commits...)
}

// Merge folds another commit collector's results in, repo by repo.
func (c *Commits) Merge(other stats.Collector) error {
	o, ok := other.(*Commits)
	if !ok {
		return fmt.Errorf("cannot merge %T into git commits", other)
	}
	if c.byRepo == nil {
		c.byRepo = make(map[string][]string)
	}
	for _, repo := range o.order {
		c.add(repo, o.byRepo[repo]...)
	}
	return nil
}

// Show renders one summary line per repository plus the individual
// commits unless brief mode is on. Verbose mode names repositories by
// their full path instead of the directory name.
func (c *Commits) Show(w io.Writer, mode format.Mode) {
	for _, repo := range c.order {
		commits := c.byRepo[repo]
		name := filepath.Base(repo)
		if mode.Verbose {
			name = repo
		}
		format.Item(w, fmt.Sprintf("Commits in %s: %d", name, len(commits)), 0, mode)
		if mode.Brief {
			continue
		}
		for _, commit := range commits {
			format.Item(w, commit, 1, mode)
		}
	}
}

// parseLog splits git log output into one line per commit.
func parseLog(out string) []string {
	var commits []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commits = append(commits, line)
		}
	}
	return commits
}
