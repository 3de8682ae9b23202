package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"standup/internal/config"
	"standup/internal/plugins/githubstats"
)

// Exit codes. Only the three classified failure families get friendly
// handling; everything else falls back to a plain error with exit code 1.
const (
	exitOK      = 0
	exitError   = 1 // configuration or report-generation failure
	exitAuth    = 2 // credential failure from a collaborator
	exitNoEmail = 3 // no email configured anywhere
)

// fail logs the error with any remediation guidance and returns the
// process exit code for it.
func fail(err error) int {
	code, remediation := classify(err)
	slog.Error(err.Error())
	for _, line := range remediation {
		slog.Error(line)
	}
	var sectionErr *config.SectionError
	if errors.As(err, &sectionErr) {
		fmt.Fprintf(os.Stdout, "Create at least a minimal config file %s:\n%s",
			sectionErr.Path, config.Example())
	}
	return code
}

// classify maps an error to its exit code plus extra guidance lines.
func classify(err error) (int, []string) {
	var authErr *githubstats.AuthError
	if errors.As(err, &authErr) {
		return exitAuth, []string{"GitHub authentication failed. Check your token."}
	}

	var sectionErr *config.SectionError
	if errors.As(err, &sectionErr) {
		return exitNoEmail, []string{
			"No email provided on the command line or in the config file",
		}
	}

	return exitError, nil
}
