package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/definitions"
	"github.com/roach88/breakpoints/internal/store"
)

func TestConditions_Text(t *testing.T) {
	out, err := execute(t, NewConditionsCommand(&RootOptions{Format: "text"}), "testdata/breakpoints.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sm  (max-width: 767px)\n"+
		"md  (min-width: 768px) and (max-width: 991px)\n"+
		"lg  (min-width: 992px) and (max-width: 1199px)\n"+
		"xl  (min-width: 1200px)\n", out)
}

func TestConditions_JSON(t *testing.T) {
	out, err := execute(t, NewConditionsCommand(&RootOptions{Format: "json"}), "testdata/breakpoints.yaml")
	require.NoError(t, err)

	entries := decodeData[[]ConditionEntry](t, out, "ok")
	require.Len(t, entries, 4)
	assert.Equal(t, ConditionEntry{Name: "xl", Min: "1200px", Condition: "(min-width: 1200px)"}, entries[3])
}

func TestConditions_CustomPattern(t *testing.T) {
	out, err := execute(t, NewConditionsCommand(&RootOptions{Format: "text"}),
		"testdata/theme.scss", "--pattern", `^bp-(\w+)-(min|max)$`)
	require.NoError(t, err)
	assert.Equal(t, "narrow  (max-width: 599px)\nwide    (min-width: 600px)\n", out)
}

func TestConditions_WholeMatchName(t *testing.T) {
	out, err := execute(t, NewConditionsCommand(&RootOptions{Format: "text"}),
		"testdata/theme.scss", "--pattern", `^bp-\w+-(min|max)$`, "--name-group", "0", "--kind-group", "1")
	require.NoError(t, err)
	assert.Equal(t, "bp-narrow-max  (max-width: 599px)\nbp-wide-min    (min-width: 600px)\n", out)
}

func TestConditions_BadPattern(t *testing.T) {
	out, err := execute(t, NewConditionsCommand(&RootOptions{Format: "text"}),
		"testdata/theme.scss", "--pattern", `(`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid --pattern")
}

func TestConditions_MissingFile(t *testing.T) {
	out, err := execute(t, NewConditionsCommand(&RootOptions{Format: "json"}), "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code": "E005"`)
}

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/breakpoints.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 4 breakpoint(s) valid")

	defs, err := definitions.Load("testdata/breakpoints.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, defs.MustHash())
}

func TestValidate_ValidJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "testdata/breakpoints.yaml")
	require.NoError(t, err)

	result := decodeData[ValidationResult](t, out, "ok")
	assert.True(t, result.Valid)
	assert.Equal(t, 4, result.Breakpoints)
	assert.Len(t, result.Hash, 64)
}

func TestValidate_Invalid(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	result := decodeData[ValidationResult](t, out, "error")
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, definitions.ErrCodeInverted, result.Issues[0].Code)
	assert.Equal(t, definitions.ErrCodeDuplicate, result.Issues[1].Code)
}

func TestValidate_InvalidText(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E_INVALID]: 2 problem(s)")
	assert.Contains(t, out, "[E204]")
}

func TestSimulate_WindowPerResize(t *testing.T) {
	out, err := execute(t, NewSimulateCommand(&RootOptions{Format: "text"}),
		"testdata/breakpoints.yaml", "--size", "1000x800",
		"--resize", "800x800", "--resize", "850x800", "--resize", "1300x800")
	require.NoError(t, err)

	assert.Equal(t, "initial: [lg]\n"+
		"800x800: #1 [lg] -> [md]\n"+
		"850x800: no change\n"+
		"1300x800: #2 [md] -> [xl]\n", out)
}

func TestSimulate_Coalesce(t *testing.T) {
	out, err := execute(t, NewSimulateCommand(&RootOptions{Format: "json"}),
		"testdata/breakpoints.yaml", "--size", "1000",
		"--resize", "900", "--resize", "700", "--coalesce")
	require.NoError(t, err)

	result := decodeData[SimulationResult](t, out, "ok")
	assert.Equal(t, breakpoint.ActiveSet{"lg"}, result.Initial)
	require.Len(t, result.Steps, 1)
	step := result.Steps[0]
	assert.Equal(t, []string{"900", "700"}, step.Sizes)
	require.True(t, step.Published)
	assert.Equal(t, breakpoint.State{
		Seq:      1,
		Current:  breakpoint.ActiveSet{"sm"},
		Previous: breakpoint.ActiveSet{"lg"},
	}, *step.State)
	assert.Equal(t, *step.State, result.Final)
	assert.Equal(t, "(max-width: 767px)", result.Conditions["sm"])
}

func TestSimulate_BadSize(t *testing.T) {
	_, err := execute(t, NewSimulateCommand(&RootOptions{Format: "text"}),
		"testdata/breakpoints.yaml", "--size", "wide")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func seedCheckpoint(t *testing.T, db string, engineID string, st breakpoint.State) {
	t.Helper()
	defs, err := definitions.Load("testdata/breakpoints.yaml")
	require.NoError(t, err)

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()

	cp, err := store.NewCheckpoint(engineID, defs.Collapse(), st)
	require.NoError(t, err)
	require.NoError(t, s.WriteCheckpoint(context.Background(), cp))
}

func TestStatus_List(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bp.db")
	seedCheckpoint(t, db, "engine-1", breakpoint.State{
		Seq:      4,
		Current:  breakpoint.ActiveSet{"md"},
		Previous: breakpoint.ActiveSet{"lg"},
	})

	out, err := execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "HASH")
	assert.Contains(t, out, "engine-1")
	assert.Contains(t, out, "[lg]")
}

func TestStatus_ForDefinitions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bp.db")
	seedCheckpoint(t, db, "engine-1", breakpoint.State{
		Seq:      4,
		Current:  breakpoint.ActiveSet{"md"},
		Previous: breakpoint.ActiveSet{"lg"},
	})

	out, err := execute(t, NewStatusCommand(&RootOptions{Format: "json"}), "testdata/breakpoints.yaml", "--db", db)
	require.NoError(t, err)

	views := decodeData[[]CheckpointView](t, out, "ok")
	require.Len(t, views, 1)
	assert.Equal(t, int64(4), views[0].Seq)
	assert.Equal(t, breakpoint.ActiveSet{"md"}, views[0].Current)
	assert.Equal(t, []string{"sm", "md", "lg", "xl"}, views[0].Breakpoints)
}

func TestStatus_NoCheckpoint(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bp.db")
	s, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "testdata/breakpoints.yaml", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E_NO_CHECKPOINT")

	out, err = execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No checkpoints.")
}

func TestStatus_Delete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bp.db")
	seedCheckpoint(t, db, "engine-1", breakpoint.State{
		Seq:      4,
		Current:  breakpoint.ActiveSet{"md"},
		Previous: breakpoint.ActiveSet{"lg"},
	})

	out, err := execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "testdata/breakpoints.yaml", "--db", db, "--delete")
	require.NoError(t, err)
	assert.Contains(t, out, "engine-1")
	assert.Contains(t, out, "Deleted checkpoint")

	out, err = execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No checkpoints.")
}

func TestStatus_DeleteRequiresDefinitions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bp.db")
	_, err := execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "--db", db, "--delete")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--delete requires a definitions file")
}

func TestStatus_MissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")
	_, err := execute(t, NewStatusCommand(&RootOptions{Format: "text"}), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "status must not create the database")
}
