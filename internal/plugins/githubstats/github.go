// Package githubstats gathers issue and pull request activity through the
// GitHub search API.
package githubstats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v66/github"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"standup/internal/config"
	"standup/internal/dates"
	"standup/internal/format"
	"standup/internal/stats"
	"standup/internal/user"
)

const userAgent = "standup/1.0"

// AuthError signals a credential failure talking to GitHub. Classified as
// exit code 2.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Group is the github stats provider: one enable flag for the group, one
// per stat, plus the account name parameter.
type Group struct {
	enabled       bool
	issuesCreated bool
	issuesClosed  bool
	pullRequests  bool
	login         string
	token         string
}

// New creates the provider with login and token defaults from the config.
func New(cfg *config.Config) *Group {
	return &Group{login: cfg.GitHub.Login, token: cfg.GitHub.Token}
}

// Name implements stats.Provider.
func (g *Group) Name() string {
	return "github"
}

// Options contributes the github flags to the option schema.
func (g *Group) Options(fs *pflag.FlagSet) error {
	fs.BoolVar(&g.enabled, "github", false, "Check all github stats")
	fs.BoolVar(&g.issuesCreated, "github-issues-created", false, "Issues created on GitHub")
	fs.BoolVar(&g.issuesClosed, "github-issues-closed", false, "Issues closed on GitHub")
	fs.BoolVar(&g.pullRequests, "github-pull-requests", false, "Pull requests created on GitHub")
	fs.StringVar(&g.login, "github-login", g.login, "GitHub account name")
	return nil
}

// Enabled reports whether the group or any of its stats was selected.
func (g *Group) Enabled() bool {
	return g.enabled || g.issuesCreated || g.issuesClosed || g.pullRequests
}

// New creates the per-user collector with the stats selected by the flags.
func (g *Group) New(all bool) stats.Collector {
	whole := all || g.enabled
	var selected []stats.Collector
	if whole || g.issuesCreated {
		selected = append(selected, newSearchStat(g,
			"issues-created", "Issues created on GitHub",
			"type:issue author:%s created:%s..%s"))
	}
	if whole || g.issuesClosed {
		selected = append(selected, newSearchStat(g,
			"issues-closed", "Issues closed on GitHub",
			"type:issue assignee:%s closed:%s..%s"))
	}
	if whole || g.pullRequests {
		selected = append(selected, newSearchStat(g,
			"pull-requests", "Pull requests created on GitHub",
			"type:pr author:%s created:%s..%s"))
	}
	return stats.NewGroup("github", selected...)
}

// searchStat is one search-API-backed stat: a query template filled with
// the account name and the inclusive date range.
type searchStat struct {
	name  string
	label string
	query string
	group *Group

	client *github.Client
	items  []searchItem
}

// searchItem is one gathered issue or pull request. The URL only shows
// up in verbose mode.
type searchItem struct {
	title string
	url   string
}

func newSearchStat(group *Group, name, label, query string) *searchStat {
	return &searchStat{name: name, label: label, query: query, group: group}
}

// Name implements stats.Collector.
func (s *searchStat) Name() string {
	return s.name
}

// Check runs the search for the user, following pagination. The search
// API uses inclusive date ranges, so the exclusive until bound is pulled
// back one day.
func (s *searchStat) Check(ctx context.Context, u user.User, since, until dates.Day) error {
	login := s.group.login
	if login == "" {
		login = u.Login()
	}
	query := fmt.Sprintf(s.query, login, since, until.Add(-1))
	slog.Debug("Searching GitHub", "stat", s.name, "query", query)

	if s.client == nil {
		s.client = newClient(ctx, s.group.token)
	}
	opts := &github.SearchOptions{
		Sort:        "created",
		Order:       "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		result, resp, err := s.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return classify(err)
		}
		for _, issue := range result.Issues {
			s.items = append(s.items, searchItem{
				title: fmt.Sprintf("#%d - %s", issue.GetNumber(), issue.GetTitle()),
				url:   issue.GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return nil
}

// Merge folds another search stat's results in.
func (s *searchStat) Merge(other stats.Collector) error {
	o, ok := other.(*searchStat)
	if !ok {
		return fmt.Errorf("cannot merge %T into github %s", other, s.name)
	}
	s.items = append(s.items, o.items...)
	return nil
}

// Show renders the summary line plus the individual items unless brief
// mode is on. Verbose mode adds each item's URL.
func (s *searchStat) Show(w io.Writer, mode format.Mode) {
	format.Item(w, fmt.Sprintf("%s: %d", s.label, len(s.items)), 0, mode)
	if mode.Brief {
		return
	}
	for _, item := range s.items {
		format.Item(w, item.title, 1, mode)
		if mode.Verbose && item.url != "" {
			format.Item(w, item.url, 2, mode)
		}
	}
}

// newClient builds an authenticated GitHub client. An empty token still
// yields a client; unauthenticated search works with tight rate limits.
func newClient(ctx context.Context, token string) *github.Client {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)
	client.UserAgent = userAgent
	return client
}

// classify wraps credential failures as AuthError so the failure
// classifier can map them to exit code 2. A 403 with rate limit headers
// is not a credential problem and passes through unchanged.
func classify(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return err
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Err: err}
		}
	}
	return err
}
