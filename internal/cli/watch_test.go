package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/metrics"
	"github.com/roach88/breakpoints/internal/store"
)

// runWatchUntil starts watch, writes size once the seed is printed, waits
// for want and stops the command.
func runWatchUntil(t *testing.T, sizeFile, db, seed, size, want string) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"testdata/breakpoints.yaml",
		"--size-file", sizeFile, "--db", db, "--window", "10ms", "--debounce", "5ms"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), seed)
	}, 5*time.Second, 10*time.Millisecond, "seed not printed: %q", out.String())

	// Rewrite on every poll: the first write may land before the directory
	// watch is registered.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(sizeFile, []byte(size+"\n"), 0o644)
		return strings.Contains(out.String(), want)
	}, 5*time.Second, 50*time.Millisecond, "transition not printed: %q", out.String())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	return out.String()
}

func TestWatch_CheckpointsAndResumes(t *testing.T) {
	dir := t.TempDir()
	sizeFile := filepath.Join(dir, "viewport")
	db := filepath.Join(dir, "bp.db")
	require.NoError(t, os.WriteFile(sizeFile, []byte("1000x800\n"), 0o644))

	runWatchUntil(t, sizeFile, db, "#0 [] -> [lg]", "800x800", "#1 [lg] -> [md]")

	cp := readOnlyCheckpoint(t, db)
	assert.Equal(t, int64(1), cp.State.Seq)
	assert.Equal(t, breakpoint.ActiveSet{"md"}, cp.State.Current)
	assert.Equal(t, breakpoint.ActiveSet{"lg"}, cp.State.Previous)
	firstEngine := cp.EngineID

	// A restart seeds from the file and continues the numbering.
	runWatchUntil(t, sizeFile, db, "#1 [] -> [md]", "1300x800", "#2 [md] -> [xl]")

	cp = readOnlyCheckpoint(t, db)
	assert.Equal(t, int64(2), cp.State.Seq)
	assert.Equal(t, breakpoint.ActiveSet{"xl"}, cp.State.Current)
	assert.NotEqual(t, firstEngine, cp.EngineID)
}

func readOnlyCheckpoint(t *testing.T, db string) store.Checkpoint {
	t.Helper()
	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()

	cps, err := s.ListCheckpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, cps, 1)
	return cps[0]
}

func TestWatch_MissingSizeFile(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, NewWatchCommand(&RootOptions{Format: "text"}),
		"testdata/breakpoints.yaml", "--size-file", filepath.Join(dir, "none"), "--no-checkpoint")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid size file")
}

func TestMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	rec.Transition(breakpoint.State{Seq: 1, Current: breakpoint.ActiveSet{"md"}, Previous: breakpoint.ActiveSet{}}, 1)

	srv := newMetricsServer("127.0.0.1:0", reg)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "breakpoints_transitions_total 1")
}
