package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/engine"
	"github.com/roach88/breakpoints/internal/testutil"
)

var sample = breakpoint.Definitions{
	{Name: "sm", Max: breakpoint.Px(767)},
	{Name: "md", Min: breakpoint.Px(768), Max: breakpoint.Px(991)},
	{Name: "lg", Min: breakpoint.Px(992), Max: breakpoint.Px(1199)},
	{Name: "xl", Min: breakpoint.Px(1200)},
}

var overlapping = append(sample.Collapse(),
	breakpoint.Definition{Name: "mdx", Min: breakpoint.Px(768), Max: breakpoint.Px(849)},
	breakpoint.Definition{Name: "mdy", Min: breakpoint.Px(850), Max: breakpoint.Px(991)},
)

func cond(defs breakpoint.Definitions, name string) string {
	def, ok := defs.Lookup(name)
	if !ok {
		panic("unknown breakpoint " + name)
	}
	return breakpoint.Condition(def)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	engine  *engine.Engine
	watcher *testutil.ScriptedWatcher
	clock   *testutil.ManualClock
	defs    breakpoint.Definitions
}

// newFixture starts an engine over defs with the named ranges initially
// matching. Windows close only on Tick or Flush.
func newFixture(t *testing.T, defs breakpoint.Definitions, active ...string) *fixture {
	t.Helper()
	initial := map[string]bool{}
	for _, name := range active {
		initial[cond(defs, name)] = true
	}
	f := &fixture{
		watcher: testutil.NewScriptedWatcher(initial),
		clock:   testutil.NewManualClock(),
		defs:    defs,
	}
	e, err := engine.New(defs, f.watcher,
		engine.WithClock(f.clock),
		engine.WithLogger(quietLogger()),
		engine.WithIDGenerator(engine.NewFixedGenerator("engine-test")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	f.engine = e
	return f
}

func (f *fixture) set(name string, active bool) {
	f.watcher.Set(cond(f.defs, name), active)
}

func (f *fixture) flush(t *testing.T) (breakpoint.State, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, ok, err := f.engine.Flush(ctx)
	require.NoError(t, err)
	return st, ok
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		t.Fatalf("unexpected delivery %v (open=%v)", v, ok)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestScenarioA_InitialActiveSet(t *testing.T) {
	f := newFixture(t, sample, "lg")

	assert.Equal(t, breakpoint.ActiveSet{"lg"}, f.engine.Current())
	assert.True(t, f.engine.Includes("lg"))
	assert.False(t, f.engine.Includes("md"))
	assert.True(t, f.engine.IncludesAny("md", "lg"))
	assert.False(t, f.engine.Includes("unknown"))

	st := f.engine.State()
	assert.Equal(t, int64(0), st.Seq)
	assert.Equal(t, breakpoint.ActiveSet{}, st.Previous)
}

func TestScenarioB_OneTransitionPerWindow(t *testing.T) {
	f := newFixture(t, sample, "lg")
	sub := f.engine.Changes()
	defer sub.Close()

	f.set("md", true)
	f.set("lg", false)
	f.clock.Tick()

	got := recv(t, sub.C())
	want := breakpoint.State{Seq: 1, Current: breakpoint.ActiveSet{"md"}, Previous: breakpoint.ActiveSet{"lg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("transition mismatch (-want +got):\n%s", diff)
	}
	expectNone(t, sub.C())
	assert.Equal(t, breakpoint.ActiveSet{"md"}, f.engine.Current())
}

func TestScenarioC_OverlappingRanges(t *testing.T) {
	f := newFixture(t, overlapping, "lg")

	f.set("mdx", true)
	f.set("mdy", true)
	f.set("lg", false)

	st, ok := f.flush(t)
	require.True(t, ok)
	assert.Equal(t, breakpoint.ActiveSet{"mdx", "mdy"}, st.Current)
	assert.Equal(t, breakpoint.ActiveSet{"lg"}, st.Previous)
}

func TestScenarioD_LowerBoundOnlyStaysActive(t *testing.T) {
	f := newFixture(t, sample, "xl")

	f.set("lg", true)
	f.set("lg", false)
	_, ok := f.flush(t)
	require.True(t, ok)
	assert.True(t, f.engine.Includes("xl"))

	f.set("xl", false)
	st, ok := f.flush(t)
	require.True(t, ok)
	assert.False(t, st.Current.Contains("xl"))
}

func TestEmptyWindowEmitsNothing(t *testing.T) {
	f := newFixture(t, sample, "lg")
	sub := f.engine.Changes()
	defer sub.Close()

	f.clock.Tick()
	_, ok := f.flush(t)
	assert.False(t, ok)
	expectNone(t, sub.C())
	assert.Equal(t, int64(0), f.engine.State().Seq)
}

func TestPreviousEqualsPriorCurrent(t *testing.T) {
	f := newFixture(t, sample, "sm")
	sub := f.engine.Subscribe()
	defer sub.Close()

	steps := [][2]string{{"sm", "md"}, {"md", "lg"}, {"lg", "xl"}, {"xl", "lg"}}
	for _, s := range steps {
		f.set(s[1], true)
		f.set(s[0], false)
		_, ok := f.flush(t)
		require.True(t, ok)
	}

	prev := recv(t, sub.C())
	assert.Equal(t, int64(0), prev.Seq)
	for i := range steps {
		st := recv(t, sub.C())
		assert.Equal(t, int64(i+1), st.Seq)
		assert.Equal(t, prev.Current, st.Previous)
		prev = st
	}
	assert.Equal(t, breakpoint.ActiveSet{"lg"}, prev.Current)
}

func TestRepeatedActivationIsIdempotent(t *testing.T) {
	f := newFixture(t, sample, "md")

	f.watcher.Fire(cond(sample, "md"), true)
	f.watcher.Fire(cond(sample, "md"), true)
	st, ok := f.flush(t)
	require.True(t, ok)
	assert.Equal(t, breakpoint.ActiveSet{"md"}, st.Current)

	f.watcher.Fire(cond(sample, "md"), true)
	st, ok = f.flush(t)
	require.True(t, ok)
	assert.Equal(t, breakpoint.ActiveSet{"md"}, st.Current)
}

func TestChangesFor(t *testing.T) {
	f := newFixture(t, sample, "lg")
	md := f.engine.ChangesFor("md")
	defer md.Close()
	xl := f.engine.ChangesFor("xl")
	defer xl.Close()
	unknown := f.engine.ChangesFor("nope")
	defer unknown.Close()

	expectNone(t, md.C())

	f.set("md", true)
	f.set("lg", false)
	f.flush(t)
	assert.True(t, recv(t, md.C()))

	f.set("sm", true)
	f.flush(t)
	expectNone(t, md.C())

	f.set("md", false)
	f.flush(t)
	assert.False(t, recv(t, md.C()))

	expectNone(t, xl.C())
	expectNone(t, unknown.C())
}

func TestInRange(t *testing.T) {
	f := newFixture(t, overlapping, "lg")
	mid := f.engine.InRange("mdx", "mdy")
	defer mid.Close()

	f.set("mdx", true)
	f.set("lg", false)
	f.flush(t)
	assert.True(t, recv(t, mid.C()))

	// Churn inside the range keeps the aggregate true.
	f.set("mdy", true)
	f.set("mdx", false)
	f.flush(t)
	expectNone(t, mid.C())

	f.set("mdy", false)
	f.set("lg", true)
	f.flush(t)
	assert.False(t, recv(t, mid.C()))

	none := f.engine.InRange()
	defer none.Close()
	f.set("sm", true)
	f.flush(t)
	expectNone(t, none.C())
}

func TestIndependentSubscriptions(t *testing.T) {
	f := newFixture(t, sample, "lg")
	a := f.engine.ChangesFor("md")
	b := f.engine.ChangesFor("md")
	defer b.Close()

	f.set("md", true)
	f.flush(t)
	assert.True(t, recv(t, a.C()))
	a.Close()

	f.set("md", false)
	f.flush(t)
	assert.True(t, recv(t, b.C()))
	assert.False(t, recv(t, b.C()))
}

func TestWatchFailureReleasesRegistrations(t *testing.T) {
	w := testutil.NewScriptedWatcher(nil)
	boom := errors.New("unsupported")
	w.FailOn(cond(sample, "lg"), boom)

	_, err := engine.New(sample, w, engine.WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, engine.IsWatchError(err))
	assert.ErrorIs(t, err, boom)

	var ee *engine.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "lg", ee.Name)
	assert.Equal(t, 0, w.Listeners(), "sm and md listeners must be released")
}

func TestInvalidWindow(t *testing.T) {
	w := testutil.NewScriptedWatcher(nil)
	_, err := engine.New(sample, w, engine.WithWindow(0))

	var ee *engine.Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, engine.ErrCodeInvalidWindow, ee.Code)
	assert.Equal(t, 0, w.Listeners())
}

func TestNoBoundsIsAlwaysActive(t *testing.T) {
	defs := breakpoint.Definitions{{Name: "all"}, {Name: "md", Min: breakpoint.Px(768)}}
	f := newFixture(t, defs)

	assert.Equal(t, breakpoint.ActiveSet{"all"}, f.engine.Current())
	assert.Equal(t, "", f.engine.Conditions()["all"])
}

func TestDuplicateNamesCollapse(t *testing.T) {
	defs := breakpoint.Definitions{
		{Name: "md", Min: breakpoint.Px(700)},
		{Name: "lg", Min: breakpoint.Px(992)},
		{Name: "md", Min: breakpoint.Px(768), Max: breakpoint.Px(991)},
	}
	f := newFixture(t, defs.Collapse(), "md")

	assert.Equal(t, []string{"md", "lg"}, f.engine.Definitions().Names())
	assert.Equal(t, "(min-width: 768px) and (max-width: 991px)", f.engine.Conditions()["md"])
	assert.Equal(t, 2, f.watcher.Listeners())
}

func TestRecorderObservesActivity(t *testing.T) {
	rec := &countingRecorder{}
	w := testutil.NewScriptedWatcher(map[string]bool{cond(sample, "lg"): true})
	e, err := engine.New(sample, w,
		engine.WithClock(testutil.NewManualClock()),
		engine.WithLogger(quietLogger()),
		engine.WithRecorder(rec),
	)
	require.NoError(t, err)
	defer e.Close()

	w.Set(cond(sample, "md"), true)
	w.Set(cond(sample, "lg"), false)
	_, ok, err := e.Flush(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 1, rec.seeds)
	assert.Equal(t, 2, rec.events)
	assert.Equal(t, []int{2}, rec.batches)
}

type countingRecorder struct {
	seeds   int
	events  int
	batches []int
}

func (r *countingRecorder) Seed(breakpoint.State)          { r.seeds++ }
func (r *countingRecorder) BoundaryEvent(breakpoint.Event) { r.events++ }
func (r *countingRecorder) Transition(_ breakpoint.State, n int) {
	r.batches = append(r.batches, n)
}

func TestWithStartSeq(t *testing.T) {
	w := testutil.NewScriptedWatcher(nil)
	e, err := engine.New(sample, w,
		engine.WithClock(testutil.NewManualClock()),
		engine.WithLogger(quietLogger()),
		engine.WithStartSeq(41),
	)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, int64(41), e.State().Seq)
	w.Set(cond(sample, "sm"), true)
	st, ok, err := e.Flush(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), st.Seq)
}

func TestSystemClockClosesWindow(t *testing.T) {
	w := testutil.NewScriptedWatcher(map[string]bool{cond(sample, "lg"): true})
	e, err := engine.New(sample, w,
		engine.WithWindow(10*time.Millisecond),
		engine.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	defer e.Close()

	sub := e.Changes()
	defer sub.Close()

	w.Set(cond(sample, "md"), true)
	w.Set(cond(sample, "lg"), false)

	st := recv(t, sub.C())
	assert.Equal(t, breakpoint.ActiveSet{"md"}, st.Current)
	assert.Equal(t, 10*time.Millisecond, e.Window())
	assert.Len(t, e.ID(), 36)
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := testutil.NewScriptedWatcher(map[string]bool{cond(sample, "lg"): true})
	clock := testutil.NewManualClock()
	e, err := engine.New(sample, w, engine.WithClock(clock), engine.WithLogger(quietLogger()))
	require.NoError(t, err)

	sub := e.Subscribe()
	w.Set(cond(sample, "md"), true)
	_, ok, err := e.Flush(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, e.Closed())

	// Pending values are still delivered, then the channel closes.
	var seqs []int64
	for st := range sub.C() {
		seqs = append(seqs, st.Seq)
	}
	assert.Equal(t, []int64{0, 1}, seqs)

	assert.Equal(t, 0, w.Listeners(), "close releases every registration")
	assert.Equal(t, 0, clock.Tickers(), "close stops the window ticker")

	_, _, err = e.Flush(context.Background())
	assert.ErrorIs(t, err, engine.ErrClosed)
	assert.True(t, engine.IsClosedError(err))

	// Queries keep answering from the last published state.
	assert.Equal(t, breakpoint.ActiveSet{"lg", "md"}, e.Current())
}

func TestFlushRespectsContext(t *testing.T) {
	f := newFixture(t, sample)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either the loop answers first or the cancelled context wins; both are
	// valid, but a cancelled context must never hang.
	_, _, err := f.engine.Flush(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
