package autocomplete

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drake/pick/candidate"
	"github.com/drake/pick/filter"
	"github.com/drake/pick/internal/loop"
	"github.com/drake/pick/navigation"
	"github.com/drake/pick/selection"
	"github.com/drake/pick/timer"
)

type recorder struct {
	changes []selection.Value
	inputs  []string
	errs    []error
}

func (r *recorder) config(cfg Config) Config {
	cfg.OnChange = func(v selection.Value) { r.changes = append(r.changes, v) }
	cfg.OnInputChange = func(s string) { r.inputs = append(r.inputs, s) }
	cfg.OnError = func(_ string, err error) { r.errs = append(r.errs, err) }
	return cfg
}

func (r *recorder) last() selection.Value {
	return r.changes[len(r.changes)-1]
}

func labels(list []candidate.Candidate) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Label()
	}
	return out
}

func newManual(t *testing.T, cfg Config) (*Controller, *timer.Manual, *recorder) {
	t.Helper()
	m := timer.NewManual()
	rec := &recorder{}
	c, err := New(rec.config(cfg), nil, WithScheduler(m))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, m, rec
}

var fruit = candidate.Texts("Apple", "Apricot", "Banana")

func TestNewValidatesConfig(t *testing.T) {
	m := timer.NewManual()
	noop := func(selection.Value) {}
	one := selection.One(candidate.Text("x"))

	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"missing OnChange", Config{}, ErrMissingOnChange},
		{"negative debounce", Config{OnChange: noop, Debounce: -time.Second}, ErrNegativeDebounce},
		{"single value in multiple mode", Config{OnChange: noop, Multiple: true, Value: &one}, selection.ErrModeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, nil, WithScheduler(m))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}

	_, err := New(Config{OnChange: noop}, nil)
	assert.ErrorIs(t, err, ErrMissingDispatcher)

	_, err = New(Config{OnChange: noop, Async: true}, nil, WithScheduler(m))
	assert.ErrorIs(t, err, ErrMissingDispatcher)
}

func TestDefaults(t *testing.T) {
	c, _, _ := newManual(t, Config{Label: "Fruit", Options: fruit})
	assert.Equal(t, DefaultPlaceholder, c.Placeholder())
	assert.Equal(t, "Fruit", c.Label())
	assert.False(t, c.Multiple())
	assert.Equal(t, Closed, c.Phase())
	assert.Equal(t, navigation.None, c.ActiveIndex())
	v, ok := c.Value().Single()
	assert.False(t, ok)
	assert.True(t, v.IsZero())
}

func TestEndToEndSingle(t *testing.T) {
	c, m, rec := newManual(t, Config{Options: fruit})

	c.Focus()
	c.Input("ap")
	assert.True(t, c.Loading())
	assert.Equal(t, OpenFiltering, c.Phase())
	assert.Equal(t, "ap", c.InputValue(), "query updates before the filter runs")

	m.Advance(0)
	assert.Equal(t, OpenReady, c.Phase())
	assert.False(t, c.Loading())
	assert.Equal(t, []string{"Apple", "Apricot"}, labels(c.FilteredOptions()))
	assert.Equal(t, 0, c.ActiveIndex())

	c.Next()
	assert.Equal(t, 1, c.ActiveIndex())

	require.True(t, c.Confirm())
	require.Len(t, rec.changes, 1)
	got, ok := rec.last().Single()
	require.True(t, ok)
	assert.Equal(t, "Apricot", got.Label())
	assert.Equal(t, "Apricot", c.InputValue())
	assert.False(t, c.IsOpen())
	assert.Equal(t, []string{"ap", "Apricot"}, rec.inputs)
	assert.True(t, c.IsSelected(candidate.Text("Apricot")))
}

func TestDebounceCoalescesFilterCalls(t *testing.T) {
	var queries []string
	c, m, _ := newManual(t, Config{
		Options:  fruit,
		Debounce: 50 * time.Millisecond,
		Filter: func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
			queries = append(queries, query)
			return filter.Substring(ctx, options, query)
		},
	})

	c.Input("a")
	m.Advance(10 * time.Millisecond)
	c.Input("ab")
	m.Advance(10 * time.Millisecond)
	c.Input("abc")
	m.Advance(49 * time.Millisecond)
	assert.Empty(t, queries)

	m.Advance(time.Millisecond)
	assert.Equal(t, []string{"abc"}, queries)
	assert.Empty(t, c.FilteredOptions())
	assert.Equal(t, navigation.None, c.ActiveIndex())
}

func TestInputChangeFiresBeforeFilter(t *testing.T) {
	var events []string
	m := timer.NewManual()
	c, err := New(Config{
		Options:       fruit,
		OnChange:      func(selection.Value) {},
		OnInputChange: func(s string) { events = append(events, "input:"+s) },
		Filter: func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
			events = append(events, "filter:"+query)
			return options, nil
		},
	}, nil, WithScheduler(m))
	require.NoError(t, err)

	c.Input("b")
	assert.Equal(t, []string{"input:b"}, events)
	m.Flush()
	assert.Equal(t, []string{"input:b", "filter:b"}, events)
}

func TestFocusShowsFullList(t *testing.T) {
	c, m, _ := newManual(t, Config{Options: fruit})
	c.Focus()
	assert.Equal(t, OpenIdle, c.Phase())
	assert.Equal(t, labels(fruit), labels(c.FilteredOptions()))
	assert.Equal(t, navigation.None, c.ActiveIndex())
	assert.Zero(t, m.Pending(), "focus does not filter")

	c.Previous()
	assert.Equal(t, 2, c.ActiveIndex())
	c.Next()
	assert.Equal(t, 0, c.ActiveIndex())
}

func TestNavigationIgnoredWhileClosed(t *testing.T) {
	c, _, _ := newManual(t, Config{Options: fruit})
	c.Next()
	assert.Equal(t, navigation.None, c.ActiveIndex())
	assert.False(t, c.Confirm())
}

func TestMultipleAccumulation(t *testing.T) {
	c, m, rec := newManual(t, Config{Options: fruit, Multiple: true})
	c.Focus()

	c.Select(fruit[0])
	c.Select(fruit[2])
	assert.Equal(t, []string{"Apple", "Banana"}, labels(c.Value().Items()))

	c.Select(fruit[0])
	assert.Equal(t, []string{"Banana"}, labels(rec.last().Items()))
	assert.Len(t, rec.changes, 3)
	assert.True(t, c.IsOpen(), "multiple mode stays open")
	assert.Zero(t, m.Pending())
}

func TestMultipleConfirmClearsQuery(t *testing.T) {
	c, m, rec := newManual(t, Config{Options: fruit, Multiple: true})

	c.Input("ban")
	m.Flush()
	require.True(t, c.Confirm())

	assert.Equal(t, "", c.InputValue())
	assert.Equal(t, []string{"ban", ""}, rec.inputs)
	assert.Equal(t, OpenFiltering, c.Phase())

	m.Flush()
	assert.Equal(t, labels(fruit), labels(c.FilteredOptions()))
	assert.Equal(t, "[x] Banana", c.Render(fruit[2]))
	assert.Equal(t, "[ ] Apple", c.Render(fruit[0]))
}

func TestMultipleKeepQuery(t *testing.T) {
	c, m, rec := newManual(t, Config{Options: fruit, Multiple: true, KeepQuery: true})

	c.Input("ap")
	m.Flush()
	c.Next()
	require.True(t, c.Confirm())

	assert.Equal(t, "ap", c.InputValue())
	assert.Equal(t, []string{"ap"}, rec.inputs)
	assert.Equal(t, OpenReady, c.Phase())
	assert.Equal(t, 1, c.ActiveIndex())
	assert.Equal(t, []string{"Apricot"}, labels(c.Value().Items()))
}

func TestRendererReceivesMode(t *testing.T) {
	render := func(c candidate.Candidate, multiple, selected bool) string {
		switch {
		case !multiple:
			return "- " + c.Label()
		case selected:
			return "+ " + c.Label()
		}
		return "  " + c.Label()
	}

	single, _, _ := newManual(t, Config{Options: fruit, Render: render})
	assert.Equal(t, "- Apple", single.Render(fruit[0]))

	multi, _, _ := newManual(t, Config{Options: fruit, Multiple: true, Render: render})
	multi.Focus()
	multi.Select(fruit[1])
	assert.Equal(t, "+ Apricot", multi.Render(fruit[1]))
	assert.Equal(t, "  Banana", multi.Render(fruit[2]))

	assert.Equal(t, "Apple", DefaultRenderer(fruit[0], false, true))
	assert.Equal(t, CheckOn+"Apple", DefaultRenderer(fruit[0], true, true))
}

func TestSingleRecordConfirmClearsQuery(t *testing.T) {
	ada := candidate.MustRecord(candidate.Field{Name: "name", Value: "Ada"})
	c, m, _ := newManual(t, Config{Options: []candidate.Candidate{ada}})

	c.Input("ad")
	m.Flush()
	require.True(t, c.Confirm())
	assert.Equal(t, "", c.InputValue())
	assert.True(t, c.IsSelected(ada))
}

func TestBlurCancelsPendingRequest(t *testing.T) {
	calls := 0
	c, m, _ := newManual(t, Config{
		Options:  fruit,
		Debounce: 20 * time.Millisecond,
		Filter: func(context.Context, []candidate.Candidate, string) ([]candidate.Candidate, error) {
			calls++
			return nil, nil
		},
	})

	c.Input("a")
	c.Blur()
	m.Flush()

	assert.Zero(t, calls)
	assert.False(t, c.Loading())
	assert.Equal(t, Closed, c.Phase())
}

func TestFilterErrorKeepsList(t *testing.T) {
	boom := errors.New("boom")
	c, m, rec := newManual(t, Config{
		Options: fruit,
		Filter: func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
			if query == "bad" {
				return nil, boom
			}
			return filter.Substring(ctx, options, query)
		},
	})

	c.Input("an")
	m.Flush()
	require.Equal(t, []string{"Banana"}, labels(c.FilteredOptions()))

	c.Input("bad")
	m.Flush()
	assert.Equal(t, []string{"Banana"}, labels(c.FilteredOptions()))
	assert.False(t, c.Loading())
	assert.Equal(t, OpenReady, c.Phase())
	assert.ErrorIs(t, c.Err(), boom)
	var fe *FilterError
	require.True(t, errors.As(c.Err(), &fe))
	assert.Equal(t, "bad", fe.Query)
	require.Len(t, rec.errs, 1)

	c.Input("ap")
	m.Flush()
	assert.NoError(t, c.Err())
}

func TestFilterPanicIsRecovered(t *testing.T) {
	c, m, rec := newManual(t, Config{
		Options: fruit,
		Filter: func(context.Context, []candidate.Candidate, string) ([]candidate.Candidate, error) {
			panic("kaboom")
		},
	})
	c.Input("x")
	require.NotPanics(t, m.Flush)

	var fe *FilterError
	require.True(t, errors.As(c.Err(), &fe))
	assert.True(t, fe.Panic)
	assert.Len(t, rec.errs, 1)
	assert.False(t, c.Loading())
}

func TestSetOptionsRefiltersImmediately(t *testing.T) {
	c, m, _ := newManual(t, Config{Options: fruit, Debounce: time.Second})

	c.Input("an")
	m.Flush()
	require.Equal(t, []string{"Banana"}, labels(c.FilteredOptions()))

	caller := candidate.Texts("Mango", "Banana", "Kiwi")
	c.SetOptions(caller)
	assert.Equal(t, []string{"Mango", "Banana"}, labels(c.FilteredOptions()))
	assert.Equal(t, OpenReady, c.Phase())
	assert.Zero(t, m.Pending())

	caller[0] = candidate.Text("mutated")
	c.Input("")
	m.Flush()
	assert.Equal(t, []string{"Mango", "Banana", "Kiwi"}, labels(c.FilteredOptions()), "options are copied")
}

func TestSetOptionsWhileIdleKeepsUniverse(t *testing.T) {
	c, m, _ := newManual(t, Config{Options: fruit})
	c.Focus()
	c.SetOptions(candidate.Texts("Kiwi"))
	assert.Equal(t, OpenIdle, c.Phase())
	assert.Equal(t, []string{"Kiwi"}, labels(c.FilteredOptions()))
	assert.Zero(t, m.Pending())
}

func TestFocusAfterBlurRefiltersTypedQuery(t *testing.T) {
	c, m, rec := newManual(t, Config{Options: fruit})
	c.Input("ap")
	m.Flush()
	c.Blur()
	require.Equal(t, Closed, c.Phase())

	c.Focus()
	assert.Equal(t, OpenReady, c.Phase())
	assert.Equal(t, []string{"Apple", "Apricot"}, labels(c.FilteredOptions()))
	assert.Equal(t, 0, c.ActiveIndex())

	// Wrapping around the list never reaches a candidate the query excludes.
	c.Next()
	c.Next()
	c.Next()
	require.True(t, c.Confirm())
	got, ok := rec.last().Single()
	require.True(t, ok)
	assert.Equal(t, "Apricot", got.Label())
}

func TestFocusAfterBlurAsyncFilters(t *testing.T) {
	c, m, l := newAsync(t, Config{Options: fruit})
	c.Input("ap")
	m.Flush()
	nextJob(t, l)
	c.Blur()

	c.Focus()
	assert.Equal(t, OpenFiltering, c.Phase())
	nextJob(t, l)
	assert.Equal(t, OpenReady, c.Phase())
	assert.Equal(t, []string{"Apple", "Apricot"}, labels(c.FilteredOptions()))
}

func TestSetOptionsWithQueryNeverShowsUniverse(t *testing.T) {
	c, m, _ := newManual(t, Config{Options: fruit})
	c.Input("ban")
	m.Flush()
	c.Blur()

	c.SetOptions(candidate.Texts("Banana", "Bandana", "Cherry"))
	assert.Equal(t, []string{"Banana"}, labels(c.FilteredOptions()), "closed list is left for focus to recompute")

	c.Focus()
	assert.Equal(t, []string{"Banana", "Bandana"}, labels(c.FilteredOptions()))

	c.SetOptions(candidate.Texts("Cherry", "Bandit"))
	assert.Equal(t, OpenReady, c.Phase())
	assert.Equal(t, []string{"Bandit"}, labels(c.FilteredOptions()))
	assert.Zero(t, m.Pending())
}

func TestSetFilterGoesThroughDebouncer(t *testing.T) {
	c, m, _ := newManual(t, Config{Options: fruit, Debounce: 30 * time.Millisecond})

	c.Input("a")
	m.Flush()
	require.Len(t, c.FilteredOptions(), 3)

	c.SetFilter(func(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
		return options[:1], nil
	})
	assert.True(t, c.Loading())
	m.Advance(29 * time.Millisecond)
	assert.Len(t, c.FilteredOptions(), 3)
	m.Advance(time.Millisecond)
	assert.Equal(t, []string{"Apple"}, labels(c.FilteredOptions()))
}

func TestDisabledIgnoresInput(t *testing.T) {
	c, m, rec := newManual(t, Config{Options: fruit, Disabled: true})

	c.Focus()
	c.Input("ap")
	m.Flush()
	assert.False(t, c.IsOpen())
	assert.Empty(t, rec.inputs)

	c.SetDisabled(false)
	c.Input("ap")
	m.Flush()
	assert.True(t, c.IsOpen())

	c.SetDisabled(true)
	assert.False(t, c.IsOpen(), "disabling blurs")
	assert.True(t, c.Disabled())
}

func TestSetValueValidatesMode(t *testing.T) {
	c, _, _ := newManual(t, Config{Options: fruit})
	assert.ErrorIs(t, c.SetValue(selection.Set(fruit[0])), selection.ErrModeMismatch)
	require.NoError(t, c.SetValue(selection.One(fruit[1])))
	assert.True(t, c.IsSelected(fruit[1]))
}

func TestExternalLoadingOverride(t *testing.T) {
	c, _, _ := newManual(t, Config{Options: fruit, Loading: true})
	assert.True(t, c.Loading())
	c.SetLoading(false)
	assert.False(t, c.Loading())
}

func TestCloseDropsPendingWork(t *testing.T) {
	calls := 0
	c, m, _ := newManual(t, Config{
		Options: fruit,
		Filter: func(context.Context, []candidate.Candidate, string) ([]candidate.Candidate, error) {
			calls++
			return nil, nil
		},
	})
	c.Input("a")
	c.Close()
	c.Input("b")
	c.Focus()
	m.Flush()

	assert.Zero(t, calls)
	assert.False(t, c.IsOpen())
	assert.Equal(t, "a", c.InputValue())
}

func TestSnapshot(t *testing.T) {
	c, m, _ := newManual(t, Config{Options: fruit})
	c.Input("ban")
	m.Flush()

	want := Snapshot{
		Query:   "ban",
		Phase:   OpenReady,
		Options: candidate.Texts("Banana"),
		Active:  0,
		Value:   selection.None(),
	}
	got := c.Snapshot()
	assert.True(t, got.Open())
	if diff := cmp.Diff(labels(want.Options), labels(got.Options)); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want.Query, got.Query)
	assert.Equal(t, want.Phase, got.Phase)
	assert.Equal(t, want.Active, got.Active)
	assert.True(t, want.Value.Equal(got.Value))
}

// gate is an async filter whose calls block until released.
type gate struct {
	started chan string
	release map[string]chan struct{}
}

func newGate(queries ...string) *gate {
	g := &gate{started: make(chan string, len(queries)), release: make(map[string]chan struct{})}
	for _, q := range queries {
		g.release[q] = make(chan struct{})
	}
	return g
}

func (g *gate) filter(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
	g.started <- query
	<-g.release[query]
	return filter.Substring(context.Background(), options, query)
}

func newAsync(t *testing.T, cfg Config) (*Controller, *timer.Manual, *loop.Loop) {
	t.Helper()
	l := loop.New(nil)
	m := timer.NewManual()
	cfg.Async = true
	cfg.OnChange = func(selection.Value) {}
	c, err := New(cfg, l.Post, WithScheduler(m))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, m, l
}

func nextJob(t *testing.T, l *loop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, l.Next(ctx), "no job posted")
}

func TestMostRecentWins(t *testing.T) {
	g := newGate("ap", "ban")
	c, m, l := newAsync(t, Config{Options: fruit, Filter: g.filter})

	c.Input("ap")
	m.Flush()
	assert.Equal(t, "ap", <-g.started)

	c.Input("ban")
	m.Flush()
	assert.Equal(t, "ban", <-g.started)

	close(g.release["ban"])
	nextJob(t, l)
	assert.Equal(t, []string{"Banana"}, labels(c.FilteredOptions()))
	assert.False(t, c.Loading())

	close(g.release["ap"])
	nextJob(t, l)
	assert.Equal(t, []string{"Banana"}, labels(c.FilteredOptions()), "stale result must be dropped")
	assert.Equal(t, OpenReady, c.Phase())
}

func TestBlurCancelsInFlightFilter(t *testing.T) {
	cancelled := make(chan struct{})
	c, m, l := newAsync(t, Config{
		Options: fruit,
		Filter: func(ctx context.Context, _ []candidate.Candidate, _ string) ([]candidate.Candidate, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		},
	})

	c.Input("a")
	m.Flush()
	c.Blur()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("filter context was not cancelled")
	}
	nextJob(t, l)
	assert.NoError(t, c.Err(), "a cancelled request is not a failure")
	assert.False(t, c.Loading())
	assert.Equal(t, Closed, c.Phase())
}

func TestAsyncOptionsAreCopied(t *testing.T) {
	c, m, l := newAsync(t, Config{
		Options: fruit,
		Filter: func(_ context.Context, options []candidate.Candidate, _ string) ([]candidate.Candidate, error) {
			options[0] = candidate.Text("scribbled")
			return options, nil
		},
	})
	c.Input("x")
	m.Flush()
	nextJob(t, l)
	assert.Equal(t, "scribbled", c.FilteredOptions()[0].Label())

	c.SetFilter(filter.Substring)
	c.Input("")
	m.Flush()
	nextJob(t, l)
	assert.Equal(t, labels(fruit), labels(c.FilteredOptions()))
}
