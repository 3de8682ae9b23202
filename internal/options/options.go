// Package options assembles the command-line option schema from the
// built-in flags and every registered stats provider, parses arguments
// against it, and resolves the effective report configuration.
package options

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/pflag"

	"standup/internal/config"
	"standup/internal/dates"
	"standup/internal/format"
	"standup/internal/stats"
)

// sinceDefault is the epoch-like sentinel used when --until is given
// without --since.
var sinceDefault = dates.New(1993, 1, 1)

var emailSeparator = regexp.MustCompile(`\s*,\s*`)

// Options is the fully parsed, defaulted and validated configuration for
// one invocation. Read-only after Parse.
type Options struct {
	// Selection
	Emails []string
	Since  dates.Day
	Until  dates.Day // exclusive upper bound
	Period string

	// All is true iff no stats group or stat was explicitly selected,
	// meaning every registered provider runs.
	All bool

	// Display mode
	Format  string
	Width   int
	Brief   bool
	Verbose bool
	Total   bool
	Merge   bool
	Debug   bool
}

// Mode returns the display flags renderers consume.
func (o *Options) Mode() format.Mode {
	return format.Mode{Format: o.Format, Width: o.Width, Brief: o.Brief, Verbose: o.Verbose}
}

// flagValues holds the raw flag targets before resolution.
type flagValues struct {
	emails  []string
	since   string
	until   string
	format  string
	width   int
	brief   bool
	verbose bool
	total   bool
	merge   bool
	debug   bool
}

// Parser owns the assembled option schema for one invocation.
type Parser struct {
	// Today supplies the current day; replaced in tests.
	Today func() dates.Day

	// Out receives the one-line status banner. Defaults to stdout.
	Out io.Writer

	fs   *pflag.FlagSet
	vals flagValues
	reg  *stats.Registry
	cfg  *config.Config
}

// New builds the full option schema: selection and display flags first,
// then every provider's contribution, in registry order. Returns an error
// when two providers contribute the same destination key.
func New(reg *stats.Registry, cfg *config.Config) (*Parser, error) {
	p := &Parser{
		Today: dates.Today,
		Out:   os.Stdout,
		fs:    pflag.NewFlagSet("standup", pflag.ContinueOnError),
		reg:   reg,
		cfg:   cfg,
	}

	// Time & user selection
	p.fs.StringArrayVar(&p.vals.emails, "email", nil, "User email address(es)")
	p.fs.StringVar(&p.vals.since, "since", "", "Start date in the YYYY-MM-DD format")
	p.fs.StringVar(&p.vals.until, "until", "", "End date in the YYYY-MM-DD format")

	// Display mode
	p.fs.StringVar(&p.vals.format, "format", format.Text, "Output style, possible values: text (default) or wiki")
	p.fs.IntVar(&p.vals.width, "width", cfg.Width(), "Maximum width of the report output")
	p.fs.BoolVar(&p.vals.brief, "brief", false, "Show brief summary only, do not list individual items")
	p.fs.BoolVar(&p.vals.verbose, "verbose", false, "Include more details in the report")
	p.fs.BoolVar(&p.vals.total, "total", false, "Append total stats after listing individual users")
	p.fs.BoolVar(&p.vals.merge, "merge", false, "Merge stats of all users into a single report")
	p.fs.BoolVar(&p.vals.debug, "debug", false, "Turn on debugging output")

	// Provider-contributed options, checked for destination collisions
	for _, provider := range reg.Providers() {
		sub := pflag.NewFlagSet(provider.Name(), pflag.ContinueOnError)
		if err := provider.Options(sub); err != nil {
			return nil, fmt.Errorf("building %s options: %w", provider.Name(), err)
		}
		var collision error
		sub.VisitAll(func(f *pflag.Flag) {
			if collision != nil {
				return
			}
			if p.fs.Lookup(f.Name) != nil {
				collision = fmt.Errorf(
					"option --%s contributed by %s stats is already taken",
					f.Name, provider.Name())
				return
			}
			p.fs.AddFlag(f)
		})
		if collision != nil {
			return nil, collision
		}
	}

	return p, nil
}

// Flags exposes the assembled flag set so it can be attached to a cobra
// command. The command and the parser share the same flag values.
func (p *Parser) Flags() *pflag.FlagSet {
	return p.fs
}

// Parse reads the given arguments against the schema and resolves them.
// Unknown flags are a hard parse error.
func (p *Parser) Parse(args []string) (*Options, error) {
	if err := p.fs.Parse(args); err != nil {
		return nil, err
	}
	return p.Resolve(p.fs.Args())
}

// ParseLine tokenizes a raw command line by whitespace and parses it.
func (p *Parser) ParseLine(line string) (*Options, error) {
	return p.Parse(strings.Fields(line))
}

// Resolve turns already-parsed flag values and the remaining positional
// period tokens into the final Options. Used directly by the cobra
// command, which parses the flags itself.
func (p *Parser) Resolve(args []string) (*Options, error) {
	opts := &Options{
		Format:  p.vals.format,
		Width:   p.vals.width,
		Brief:   p.vals.brief,
		Verbose: p.vals.verbose,
		Total:   p.vals.total,
		Merge:   p.vals.merge,
		Debug:   p.vals.debug,
	}

	// Enable all stats if no particular group or stat was selected
	opts.All = !p.reg.AnyEnabled()

	// Detect email addresses and split them on commas
	emails := p.vals.emails
	if len(emails) == 0 {
		var err error
		if emails, err = p.cfg.Emails(); err != nil {
			return nil, err
		}
	}
	opts.Emails = splitEmails(emails)

	// Time period handling
	if err := p.resolveRange(opts, args); err != nil {
		return nil, err
	}

	// Validate the date range
	if !opts.Since.Before(opts.Until) {
		return nil, fmt.Errorf("invalid date range (%s to %s)",
			opts.Since, opts.Until.Add(-1))
	}

	fmt.Fprintf(p.Out, "Status report for %s (%s to %s).\n",
		opts.Period, opts.Since, opts.Until.Add(-1))

	slog.Debug("Gathered options",
		"emails", opts.Emails,
		"since", opts.Since.String(),
		"until", opts.Until.String(),
		"period", opts.Period,
		"all", opts.All)
	return opts, nil
}

// resolveRange fills Since, Until and Period, either from the positional
// period tokens or from the explicit --since/--until flags. The stored
// Until is always exclusive.
func (p *Parser) resolveRange(opts *Options, args []string) error {
	if p.vals.since == "" && p.vals.until == "" {
		period := dates.ResolvePeriod(args, p.Today())
		opts.Since, opts.Until, opts.Period = period.Since, period.Until, period.Label
		return nil
	}

	var err error
	if opts.Since, err = p.parseDay(p.vals.since, sinceDefault); err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}
	if opts.Until, err = p.parseDay(p.vals.until, p.Today()); err != nil {
		return fmt.Errorf("invalid --until value: %w", err)
	}
	// Make the until limit inclusive for the user, exclusive in storage
	opts.Until = opts.Until.Add(1)
	opts.Period = "given date range"
	return nil
}

// parseDay parses a date flag, substituting the fallback for an empty
// value and resolving "today" through the injected clock.
func (p *Parser) parseDay(raw string, fallback dates.Day) (dates.Day, error) {
	if raw == "" {
		return fallback, nil
	}
	if strings.EqualFold(strings.TrimSpace(raw), "today") {
		return p.Today(), nil
	}
	return dates.Parse(raw)
}

// splitEmails breaks comma-separated entries into individual addresses,
// preserving order and duplicates.
func splitEmails(entries []string) []string {
	var emails []string
	for _, entry := range entries {
		for _, part := range emailSeparator.Split(entry, -1) {
			if part = strings.TrimSpace(part); part != "" {
				emails = append(emails, part)
			}
		}
	}
	return emails
}
