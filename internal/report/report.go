// Package report drives the main loop: one stats session per user,
// merged into a team-wide aggregate and rendered according to the
// display-mode flags.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"standup/internal/config"
	"standup/internal/format"
	"standup/internal/options"
	"standup/internal/stats"
	"standup/internal/user"
)

// Run gathers stats for every resolved user sequentially, in input order,
// and returns the per-user sessions plus the team aggregate regardless of
// what was printed, so callers can inspect the results.
func Run(ctx context.Context, opts *options.Options, reg *stats.Registry, w io.Writer) ([]*stats.UserStats, *stats.UserStats, error) {
	mode := opts.Mode()

	// Check for user email addresses (command line or config)
	users := make([]user.User, 0, len(opts.Emails))
	for _, email := range opts.Emails {
		u, err := user.New(email)
		if err != nil {
			return nil, nil, config.Errorf("invalid user email: %v", err)
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return nil, nil, config.Errorf("no user email provided")
	}

	// Prepare the team stats session for data merging. Under merge mode
	// the total header has to precede the per-user detail.
	team := stats.NewTeamStats(reg, opts.All)
	if opts.Merge {
		format.Header(w, "Total Report", mode)
		format.Item(w, fmt.Sprintf("Users: %d", len(users)), 0, mode)
	}

	// Check individual user stats
	var gathered []*stats.UserStats
	for _, u := range users {
		if opts.Merge {
			format.Item(w, u.String(), 1, mode)
		} else {
			format.Header(w, u.String(), mode)
		}
		slog.Debug("Gathering user stats", "user", u.Email,
			"since", opts.Since.String(), "until", opts.Until.String())

		session := stats.NewUserStats(u, reg, opts.All)
		if err := session.Check(ctx, opts.Since, opts.Until); err != nil {
			return nil, nil, err
		}
		if !opts.Merge {
			session.Show(w, mode)
		}
		if err := team.Merge(session); err != nil {
			return nil, nil, err
		}
		gathered = append(gathered, session)
	}

	// Display the merged team report
	if opts.Merge || opts.Total {
		if opts.Total {
			format.Header(w, "Total Report", mode)
		}
		team.Show(w, mode)
	}

	return gathered, team, nil
}
