package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/san-kum/spikesim/internal/snn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleOutput(backend string, exc []int) *equiv.RunOutput {
	sum := func(xs []int) int64 {
		var n int64
		for _, x := range xs {
			n += int64(x)
		}
		return n
	}
	input := []int{49, 49, 49}
	return &equiv.RunOutput{
		Backend: backend,
		Result:  &snn.Result{Backend: backend, Seconds: 1, Steps: 1000, Elapsed: 3 * time.Millisecond},
		Groups: []equiv.GroupOutput{
			{Ref: snn.GroupRef{ID: 0, Name: "input", Size: 3}, Spikes: input, Total: sum(input)},
			{Ref: snn.GroupRef{ID: 1, Name: "exc", Size: len(exc)}, Spikes: exc, Total: sum(exc)},
		},
	}
}

func TestSaveLoadRun(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	out := sampleOutput("sequential", []int{5, 0, 7, 1})
	id, err := st.SaveRun(ctx, RunMetadata{Name: "relay", Seed: 42, Seconds: 1, Rate: 50, ConfigYAML: "seconds: 1\n"}, out)
	require.NoError(t, err)
	assert.Positive(t, id)

	meta, err := st.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "relay", meta.Name)
	assert.Equal(t, "sequential", meta.Backend)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 50.0, meta.Rate)
	assert.Equal(t, 3*time.Millisecond, meta.Elapsed)
	assert.Equal(t, "seconds: 1\n", meta.ConfigYAML)
	assert.False(t, meta.CreatedAt.IsZero())
	require.Len(t, meta.Groups, 2)
	assert.Equal(t, GroupMeta{Name: "exc", ID: 1, Size: 4, Total: 13}, meta.Groups[1])
	assert.Equal(t, int64(160), meta.TotalSpikes())

	loaded, err := st.LoadCounts(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded.Groups, 2)
	assert.Equal(t, "input", loaded.Groups[0].Ref.Name)
	assert.Equal(t, []int{5, 0, 7, 1}, loaded.Groups[1].Spikes)
	assert.Equal(t, int64(13), loaded.Groups[1].Total)
	assert.Nil(t, loaded.Groups[1].Raster)
}

func TestLoadMissingRun(t *testing.T) {
	st := openTemp(t)
	_, err := st.LoadRun(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = st.LoadCounts(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRunsNewestFirst(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.SaveRun(ctx, RunMetadata{Name: "a", Seconds: 1, Rate: 50}, sampleOutput("sequential", []int{1}))
	require.NoError(t, err)
	second, err := st.SaveRun(ctx, RunMetadata{Name: "b", Seconds: 1, Rate: 50}, sampleOutput("parallel", []int{2}))
	require.NoError(t, err)

	runs, err = st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, "parallel", runs[0].Backend)
	assert.Len(t, runs[1].Groups, 2)
}

func TestStoredRunsCompareWithoutTime(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	a, err := st.SaveRun(ctx, RunMetadata{Name: "x", Seconds: 1, Rate: 50}, sampleOutput("sequential", []int{3, 3}))
	require.NoError(t, err)
	b, err := st.SaveRun(ctx, RunMetadata{Name: "x", Seconds: 1, Rate: 50}, sampleOutput("parallel", []int{3, 4}))
	require.NoError(t, err)

	oa, err := st.LoadCounts(ctx, a)
	require.NoError(t, err)
	ob, err := st.LoadCounts(ctx, b)
	require.NoError(t, err)

	report, err := equiv.Compare(oa, ob, equiv.Exact)
	require.NoError(t, err)
	require.NotNil(t, report.Divergence)
	assert.Equal(t, "exc", report.Divergence.Group)
	assert.Equal(t, 1, report.Divergence.Neuron)
	assert.Equal(t, -1, report.Divergence.TimeMs)

	rid, err := st.SaveReport(ctx, a, b, report)
	require.NoError(t, err)
	back, err := st.LoadReport(ctx, rid)
	require.NoError(t, err)
	assert.False(t, back.Equivalent())
	assert.Equal(t, report.Divergence, back.Divergence)
	assert.Equal(t, report.Groups, back.Groups)
}

func TestSaveReportWithoutRuns(t *testing.T) {
	st := openTemp(t)
	report := &equiv.Report{BackendA: "sequential", BackendB: "parallel"}
	id, err := st.SaveReport(context.Background(), 0, 0, report)
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestExportCSV(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	id, err := st.SaveRun(ctx, RunMetadata{Name: "x", Seconds: 1, Rate: 50}, sampleOutput("sequential", []int{2, 0}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.ExportCSV(ctx, id, &buf))
	assert.Equal(t, "group,neuron,count\ninput,0,49\ninput,1,49\ninput,2,49\nexc,0,2\nexc,1,0\n", buf.String())
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	require.NoError(t, err)
	id, err := st.SaveRun(context.Background(), RunMetadata{Name: "keep", Seconds: 1, Rate: 50}, sampleOutput("sequential", []int{1}))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(dir)
	require.NoError(t, err)
	defer st.Close()
	meta, err := st.LoadRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "keep", meta.Name)
}
