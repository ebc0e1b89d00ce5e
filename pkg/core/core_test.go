package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
)

// sweep builds 25 rows: ID(injected) a b kind c color.
func sweep(t *testing.T) *dataset.Dataset {
	t.Helper()
	records := make([][]any, 25)
	for i := range records {
		kind := "even"
		if i%2 == 1 {
			kind = "odd"
		}
		records[i] = []any{float64(i), float64(24 - i), kind, float64(i * 2), float64(i) / 25}
	}
	ds, err := dataset.New([]string{"a", "b", "kind", "c", "color"}, records)
	require.NoError(t, err)
	return ds
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New()
	require.NoError(t, err)
	require.NoError(t, e.AddPage(context.Background(), PageConfig{
		Name:      "all",
		Route:     "/",
		ResetAxis: 3,
		PageSize:  10,
		ScatterPresets: []ScatterPreset{
			{Name: "Scatter 1", X: "a", Y: "b"},
			{Name: "Missing", X: "nope", Y: "b"},
			{Name: "Scatter 2", X: "c", Y: "color"},
		},
		DefaultScatter: "Scatter 1",
	}, sweep(t)))
	return e
}

func TestPages(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.AddPage(context.Background(), PageConfig{Name: "optimized", Route: "/legofit2"}, sweep(t)))

	assert.Equal(t, []string{"all", "optimized"}, e.Pages())
	err := e.AddPage(context.Background(), PageConfig{Name: "all"}, sweep(t))
	assert.ErrorIs(t, err, ErrDuplicatePage)

	_, err = e.Page("nope")
	assert.ErrorIs(t, err, ErrUnknownPage)

	p, err := e.PageByRoute("/legofit2")
	require.NoError(t, err)
	assert.Equal(t, "optimized", p.Config.Name)
	assert.Equal(t, projection.DefaultPageSize, p.Config.PageSize)
	assert.Equal(t, projection.DefaultStyle, p.Config.Style)

	// no presets configured: first two numeric dimensions
	sp, err := p.Preset("")
	require.NoError(t, err)
	assert.Equal(t, ScatterPreset{Name: "Default", X: "a", Y: "b"}, sp)

	all, err := e.Page("all")
	require.NoError(t, err)
	names := []string{}
	for _, sp := range all.Presets() {
		names = append(names, sp.Name)
	}
	assert.Equal(t, []string{"Scatter 1", "Scatter 2"}, names)
	_, err = all.Preset("Missing")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestInitialSnapshot(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)
	assert.Empty(t, s.Selected)
	assert.Len(t, s.Axes, 5)
	assert.Equal(t, "Scatter 1", s.ScatterPreset)
	assert.Empty(t, s.ConstrainedAxes())

	_, err = e.Initial("nope")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestDispatchNoTriggerKeepsSnapshot(t *testing.T) {
	e := newEngine(t)
	prior, err := e.Initial("all")
	require.NoError(t, err)
	prior, err = e.Dispatch(context.Background(), "all", prior, selection.ScatterClicked{Points: []int{4}})
	require.NoError(t, err)

	got, err := e.Dispatch(context.Background(), "all", prior, nil)
	assert.ErrorIs(t, err, selection.ErrNoTrigger)
	assert.Equal(t, prior, got)
}

func TestDispatchProjectsEverything(t *testing.T) {
	e := newEngine(t)
	prior, err := e.Initial("all")
	require.NoError(t, err)

	s, err := e.Dispatch(context.Background(), "all", prior, selection.ScatterSelected{Points: []int{23, 31, 21}})
	require.NoError(t, err)

	assert.Equal(t, selection.State{23, 21}, s.Selected)
	assert.Equal(t, []int{23, 21}, s.Scatter)
	assert.Equal(t, 2, s.TablePage)
	require.Len(t, s.Highlights, 2)
	assert.Equal(t, "{ID} = 23", s.Highlights[0].FilterQuery)
	assert.Equal(t, "scatter_select", s.Source)
	assert.Equal(t, []projection.Point{{Row: 23, X: 23, Y: 1}, {Row: 21, X: 21, Y: 3}}, s.ScatterPoints)

	// axis 0 (a) gets micro-intervals, axis 2 (kind) the first row's text,
	// axis 3 (c) is the reset axis
	require.Equal(t, selection.RangeIntervals, s.Axes[0].Range.Kind)
	assert.Len(t, s.Axes[0].Range.Intervals, 2)
	assert.Equal(t, []any{"odd", "odd"}, s.Axes[2].Range.Any())
	assert.False(t, s.Axes[3].Range.IsSet())

	assert.Empty(t, prior.Selected, "prior snapshot must not change")
}

func TestDispatchBrushThenSelectAllOff(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)

	s, err = e.Apply(context.Background(), "all", s, EventSpec{
		Source: "axis_brush",
		Changes: []BrushSpec{
			{Label: "A", Range: selection.IntervalRange(selection.Interval{Lo: 0, Hi: 5})},
			{Label: "b", Range: selection.IntervalRange(selection.Interval{Lo: 2, Hi: 22})},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, selection.State{2, 3, 4, 5}, s.Selected)
	assert.Len(t, s.ConstrainedAxes(), 2)

	off := false
	s, err = e.Apply(context.Background(), "all", s, EventSpec{Source: "select_all", On: &off})
	require.NoError(t, err)
	assert.Empty(t, s.Selected)
	assert.Empty(t, s.ConstrainedAxes())
	assert.Equal(t, 0, s.TablePage)
	assert.Empty(t, s.Highlights)
}

func TestSelectAllUsesTableFilter(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)

	s, err = e.SetFilter("all", s, `row.kind == "odd" && row.a < 10`)
	require.NoError(t, err)
	s, err = e.Apply(context.Background(), "all", s, EventSpec{Source: "select_all"})
	require.NoError(t, err)
	assert.Equal(t, selection.State{1, 3, 5, 7, 9}, s.Selected)

	_, err = e.SetFilter("all", s, "row.kind ==")
	assert.Error(t, err)
}

func TestTableRows(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)
	s, err = e.Dispatch(context.Background(), "all", s, selection.TableRowsSelected{Rows: []int{12, 3, 7}})
	require.NoError(t, err)

	rows, err := e.TableRows("all", s)
	require.NoError(t, err)
	assert.Len(t, rows, 25)

	s = e.SetShowSelectedOnly(s, true)
	rows, err = e.TableRows("all", s)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 3, 7}, rows)

	s, err = e.SetFilter("all", s, `row.kind == "odd"`)
	require.NoError(t, err)
	rows, err = e.TableRows("all", s)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, rows)

	s = e.SetShowSelectedOnly(s, false)
	page, pages, err := e.TablePageRows("all", s, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []int{21, 23}, page)
}

func TestSetScatterPreset(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)
	s, err = e.Dispatch(context.Background(), "all", s, selection.ParallelClicked{Points: []int{5, 6}})
	require.NoError(t, err)

	s, err = e.SetScatterPreset("all", s, "Scatter 2")
	require.NoError(t, err)
	assert.Equal(t, "Scatter 2", s.ScatterPreset)
	assert.Equal(t, []projection.Point{{Row: 5, X: 10, Y: 0.2}}, s.ScatterPoints)

	_, err = e.SetScatterPreset("all", s, "Scatter 9")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestDispatchIdempotent(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)
	ev := selection.AxisBrushed{Changes: []selection.AxisChange{{Axis: 0, Range: selection.IntervalRange(selection.Interval{Lo: 3, Hi: 8})}}}
	a, err := e.Dispatch(context.Background(), "all", s, ev)
	require.NoError(t, err)
	b, err := e.Dispatch(context.Background(), "all", s, ev)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLassoThenBrushFiltersByFirstInterval(t *testing.T) {
	e := newEngine(t)
	s, err := e.Initial("all")
	require.NoError(t, err)

	s, err = e.Dispatch(context.Background(), "all", s, selection.ScatterSelected{Points: []int{2, 4}})
	require.NoError(t, err)
	require.Len(t, s.Axes[0].Range.Intervals, 2)

	// brushing b over its whole span leaves the micro-intervals of the lasso
	// on the other axes; only the first of each filters
	s, err = e.Dispatch(context.Background(), "all", s, selection.AxisBrushed{Changes: []selection.AxisChange{
		{Axis: 1, Range: selection.IntervalRange(selection.Interval{Lo: 0, Hi: 24})},
	}})
	require.NoError(t, err)
	assert.Equal(t, selection.State{2}, s.Selected)
}
