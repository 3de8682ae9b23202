package stats

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"standup/internal/dates"
	"standup/internal/format"
	"standup/internal/user"
)

// fakeCollector records calls and accumulates merged counts.
type fakeCollector struct {
	name     string
	count    int
	checked  []string
	checkErr error
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Check(_ context.Context, u user.User, since, until dates.Day) error {
	f.checked = append(f.checked, u.Email)
	if f.checkErr != nil {
		return f.checkErr
	}
	f.count++
	return nil
}

func (f *fakeCollector) Merge(other Collector) error {
	o, ok := other.(*fakeCollector)
	if !ok {
		return fmt.Errorf("cannot merge %T", other)
	}
	f.count += o.count
	return nil
}

func (f *fakeCollector) Show(w io.Writer, mode format.Mode) {
	fmt.Fprintf(w, "%s: %d\n", f.name, f.count)
}

// fakeProvider creates fakeCollectors and tracks how many sessions asked.
type fakeProvider struct {
	name    string
	enabled bool
	created int
}

func (f *fakeProvider) Name() string                   { return f.name }
func (f *fakeProvider) Options(_ *pflag.FlagSet) error { return nil }
func (f *fakeProvider) Enabled() bool                  { return f.enabled }

func (f *fakeProvider) New(all bool) Collector {
	f.created++
	return &fakeCollector{name: f.name}
}

func window(t *testing.T) (dates.Day, dates.Day) {
	t.Helper()
	since := dates.New(2024, time.March, 11)
	return since, since.Add(7)
}

func TestRegistryOrderAndAnyEnabled(t *testing.T) {
	a := &fakeProvider{name: "alpha"}
	b := &fakeProvider{name: "beta"}
	reg := NewRegistry(a, b)

	if got := reg.Providers(); got[0].Name() != "alpha" || got[1].Name() != "beta" {
		t.Errorf("providers out of registration order: %v", got)
	}
	if reg.AnyEnabled() {
		t.Errorf("AnyEnabled() = true with nothing selected")
	}
	b.enabled = true
	if !reg.AnyEnabled() {
		t.Errorf("AnyEnabled() = false with beta selected")
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected duplicate registration to panic")
		}
	}()
	NewRegistry(&fakeProvider{name: "alpha"}, &fakeProvider{name: "alpha"})
}

func TestNewUserStatsSelection(t *testing.T) {
	a := &fakeProvider{name: "alpha", enabled: true}
	b := &fakeProvider{name: "beta"}
	reg := NewRegistry(a, b)
	u := user.User{Email: "a@example.com"}

	selected := NewUserStats(u, reg, false)
	if len(selected.Collectors) != 1 || selected.Collectors[0].Name() != "alpha" {
		t.Errorf("explicit selection should narrow to alpha, got %v", selected.Collectors)
	}

	all := NewUserStats(u, reg, true)
	if len(all.Collectors) != 2 {
		t.Errorf("all mode should include every provider, got %d", len(all.Collectors))
	}
}

func TestCheckWrapsFailures(t *testing.T) {
	boom := errors.New("boom")
	s := &UserStats{
		User: user.User{Email: "a@example.com"},
		Collectors: []Collector{
			&fakeCollector{name: "ok"},
			&fakeCollector{name: "broken", checkErr: boom},
			&fakeCollector{name: "never"},
		},
	}
	since, until := window(t)

	err := s.Check(context.Background(), since, until)
	var repErr *ReportError
	if !errors.As(err, &repErr) {
		t.Fatalf("Check error = %v, expected ReportError", err)
	}
	if repErr.Stat != "broken" {
		t.Errorf("ReportError.Stat = %q, expected broken", repErr.Stat)
	}
	if !errors.Is(err, boom) {
		t.Errorf("ReportError should unwrap to the original error")
	}
	never := s.Collectors[2].(*fakeCollector)
	if len(never.checked) != 0 {
		t.Errorf("collectors after a failure must not run")
	}
}

func TestMergeByName(t *testing.T) {
	team := &UserStats{Collectors: []Collector{
		&fakeCollector{name: "alpha", count: 1},
		&fakeCollector{name: "beta", count: 2},
	}}
	other := &UserStats{Collectors: []Collector{
		&fakeCollector{name: "beta", count: 10},
		&fakeCollector{name: "alpha", count: 20},
	}}

	if err := team.Merge(other); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if got := team.Collectors[0].(*fakeCollector).count; got != 21 {
		t.Errorf("alpha count = %d, expected 21", got)
	}
	if got := team.Collectors[1].(*fakeCollector).count; got != 12 {
		t.Errorf("beta count = %d, expected 12", got)
	}
}

func TestGroup(t *testing.T) {
	since, until := window(t)
	u := user.User{Email: "a@example.com"}

	first := &fakeCollector{name: "first"}
	second := &fakeCollector{name: "second"}
	g := NewGroup("combo", first, second)

	if err := g.Check(context.Background(), u, since, until); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(first.checked) != 1 || len(second.checked) != 1 {
		t.Errorf("both sub-stats should run")
	}

	otherFirst := &fakeCollector{name: "first", count: 5}
	other := NewGroup("combo", otherFirst, &fakeCollector{name: "second", count: 7})
	if err := g.Merge(other); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if first.count != 6 || second.count != 8 {
		t.Errorf("merged counts = %d/%d, expected 6/8", first.count, second.count)
	}

	if err := g.Merge(&fakeCollector{name: "combo"}); err == nil {
		t.Errorf("merging a non-group collector should fail")
	}

	var buf bytes.Buffer
	g.Show(&buf, format.Mode{Format: format.Text, Width: 40})
	expected := "first: 6\nsecond: 8\n"
	if buf.String() != expected {
		t.Errorf("Show output = %q, expected %q", buf.String(), expected)
	}
}
