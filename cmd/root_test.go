package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"standup/internal/config"
	"standup/internal/dates"
	"standup/internal/format"
	"standup/internal/stats"
	"standup/internal/user"
)

// recordingCollector counts checked users.
type recordingCollector struct {
	name  string
	count int
}

func (r *recordingCollector) Name() string { return r.name }

func (r *recordingCollector) Check(_ context.Context, u user.User, since, until dates.Day) error {
	r.count++
	return nil
}

func (r *recordingCollector) Merge(other stats.Collector) error {
	o, ok := other.(*recordingCollector)
	if !ok {
		return fmt.Errorf("cannot merge %T", other)
	}
	r.count += o.count
	return nil
}

func (r *recordingCollector) Show(w io.Writer, mode format.Mode) {
	format.Item(w, fmt.Sprintf("%s: %d", r.name, r.count), 0, mode)
}

// recordingProvider contributes one enable flag.
type recordingProvider struct {
	name    string
	enabled bool
}

func (p *recordingProvider) Name() string { return p.name }

func (p *recordingProvider) Options(fs *pflag.FlagSet) error {
	fs.BoolVar(&p.enabled, p.name, false, "Check all "+p.name+" stats")
	return nil
}

func (p *recordingProvider) Enabled() bool { return p.enabled }

func (p *recordingProvider) New(all bool) stats.Collector {
	return &recordingCollector{name: p.name}
}

func runCommand(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{General: &config.GeneralConfig{}}
	}
	reg := stats.NewRegistry(&recordingProvider{name: "activity"})
	root, err := NewRootCmd(reg, cfg)
	if err != nil {
		t.Fatalf("NewRootCmd returned error: %v", err)
	}
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestCommandRunsReport(t *testing.T) {
	out, err := runCommand(t, nil, "--email", "a@example.com", "today")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(out, "Status report for today") {
		t.Errorf("status banner missing: %q", out)
	}
	if !strings.Contains(out, "a@example.com") {
		t.Errorf("user header missing: %q", out)
	}
	if !strings.Contains(out, "activity: 1") {
		t.Errorf("stats output missing: %q", out)
	}
}

func TestCommandRegistersProviderFlags(t *testing.T) {
	reg := stats.NewRegistry(&recordingProvider{name: "activity"})
	cfg := &config.Config{General: &config.GeneralConfig{}}
	root, err := NewRootCmd(reg, cfg)
	if err != nil {
		t.Fatalf("NewRootCmd returned error: %v", err)
	}
	for _, name := range []string{
		"email", "since", "until", "format", "width",
		"brief", "verbose", "total", "merge", "debug", "activity",
	} {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestCommandUnknownFlag(t *testing.T) {
	_, err := runCommand(t, nil, "--no-such-flag")
	if err == nil {
		t.Fatal("expected an unknown flag to fail")
	}
}

func TestCommandMissingEmailSection(t *testing.T) {
	_, err := runCommand(t, &config.Config{})
	var sectionErr *config.SectionError
	if !errors.As(err, &sectionErr) {
		t.Fatalf("Execute error = %v, expected SectionError", err)
	}
	if code, _ := classify(err); code != exitNoEmail {
		t.Errorf("exit code = %d, expected %d", code, exitNoEmail)
	}
}

func TestCommandConfigEmailFallback(t *testing.T) {
	cfg := &config.Config{General: &config.GeneralConfig{
		Email: config.EmailList{"cfg@example.com"},
	}}
	out, err := runCommand(t, cfg, "week")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(out, "cfg@example.com") {
		t.Errorf("config fallback email missing from report: %q", out)
	}
}

func TestCommandMergeMode(t *testing.T) {
	out, err := runCommand(t, nil,
		"--email", "a@example.com", "--email", "b@example.com", "--merge")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	total := strings.Index(out, "Total Report")
	first := strings.Index(out, "a@example.com")
	if total == -1 || first == -1 || total > first {
		t.Errorf("merge banner must precede per-user detail: %q", out)
	}
	if !strings.Contains(out, "Users: 2") {
		t.Errorf("user count item missing: %q", out)
	}
	// Two users merged into the team report
	if !strings.Contains(out, "activity: 2") {
		t.Errorf("merged team stats missing: %q", out)
	}
}

func TestCommandDebugFlagRaisesLogLevel(t *testing.T) {
	var logs bytes.Buffer
	origLogger := slog.Default()
	origLevel := logLevel.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{
		Level: logLevel,
	})))
	t.Cleanup(func() {
		slog.SetDefault(origLogger)
		logLevel.Set(origLevel)
	})

	if _, err := runCommand(t, nil, "--email", "a@example.com", "--debug", "today"); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if logLevel.Level() != slog.LevelDebug {
		t.Errorf("log level = %v, expected debug", logLevel.Level())
	}
	// The option parser's own debug logging must be visible as well
	if !strings.Contains(logs.String(), "Gathered options") {
		t.Errorf("parser debug logging missing with --debug: %q", logs.String())
	}
}

func TestCommandInvertedRange(t *testing.T) {
	_, err := runCommand(t, nil,
		"--email", "a@example.com",
		"--since", "2024-02-01", "--until", "2024-01-01")
	if err == nil {
		t.Fatal("expected an inverted range to fail")
	}
	if code, _ := classify(err); code != exitError {
		t.Errorf("exit code = %d, expected %d", code, exitError)
	}
}
