// Package ui implements the interactive dashboard: a table, the parallel
// axes and a scatter plot linked through one selection.
package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/sweepview/internal/cel"
	"github.com/oakwood-commons/sweepview/internal/completion"
	"github.com/oakwood-commons/sweepview/internal/formatter"
	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/internal/ui/table"
	"github.com/oakwood-commons/sweepview/pkg/core"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/logger"
)

// DefaultMaxEvents bounds the recorded event history when Options leaves it unset.
const DefaultMaxEvents = 200

type panel int

const (
	panelTable panel = iota
	panelAxes
	panelScatter
	panelCount
)

func (p panel) String() string {
	switch p {
	case panelAxes:
		return "axes"
	case panelScatter:
		return "scatter"
	default:
		return "table"
	}
}

type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputBrush
)

// tableRow is one dataset row as the table widget shows it.
type tableRow struct {
	Pos      int
	Selected bool
	Cells    []string
}

// axisStat is the value span of a numeric axis, used to draw its bar.
type axisStat struct {
	numeric  bool
	min, max float64
}

// Options configures a dashboard Model.
type Options struct {
	Context   context.Context
	Engine    *core.Engine
	Page      string
	AppName   string
	Theme     *Theme
	NoColor   bool
	MaxEvents int
	Width     int
	Height    int
}

// Model is the bubbletea model of one dashboard page.
type Model struct {
	ctx    context.Context
	engine *core.Engine
	page   *core.Page
	snap   core.Snapshot

	appName string
	theme   Theme
	noColor bool

	focus      panel
	table      *table.Model[tableRow]
	tablePage  int
	pageCount  int
	selectAll  bool
	axisCursor int
	axisStats  []axisStat

	allPoints    []projection.Point
	pointsPreset string

	input     textinput.Model
	inputMode inputMode
	filterFns *completion.FilterProvider
	completer *completion.Engine

	helpVisible bool
	status      string
	statusErr   bool
	history     []core.EventSpec
	maxEvents   int

	width, height int
}

// New builds the dashboard for one page of the engine. An empty page name
// selects the first page.
func New(opts Options) (*Model, error) {
	if opts.Engine == nil {
		return nil, errors.New("ui: engine is required")
	}
	name := opts.Page
	if name == "" {
		pages := opts.Engine.Pages()
		if len(pages) == 0 {
			return nil, core.ErrUnknownPage
		}
		name = pages[0]
	}
	page, err := opts.Engine.Page(name)
	if err != nil {
		return nil, err
	}
	snap, err := opts.Engine.Initial(name)
	if err != nil {
		return nil, err
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	maxEvents := opts.MaxEvents
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}

	m := &Model{
		ctx:       ctx,
		engine:    opts.Engine,
		page:      page,
		snap:      snap,
		appName:   opts.AppName,
		theme:     theme,
		noColor:   opts.NoColor,
		maxEvents: maxEvents,
		width:     120,
		height:    36,
	}
	if m.appName == "" {
		m.appName = "sweepview"
	}

	m.table = table.NewModel(tableColumns(page.Dataset),
		func(r tableRow) []string { return r.Cells },
		func(r tableRow) bool { return r.Selected })
	m.table.SetNoColor(opts.NoColor)
	m.table.SetColors(theme.HeaderFG, theme.HeaderBG, theme.SelectedFG, theme.SelectedBG)
	m.axisStats = axisStats(page.Dataset)

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 500
	ti.SetWidth(80)
	m.input = ti

	// Custom evaluators offer field completion only.
	ev, _ := opts.Engine.Evaluator.(*cel.Evaluator)
	m.filterFns = completion.NewEvaluatorProvider(page.Dataset, ev)
	m.completer = completion.NewEngine(m.filterFns)

	if opts.Width > 0 && opts.Height > 0 {
		m.width, m.height = opts.Width, opts.Height
	}
	m.layout()
	m.refresh()
	logger.FromContext(ctx).V(1).Info("dashboard ready", logger.PageKey, name, "rows", page.Dataset.Len())
	return m, nil
}

// tableColumns lays out the identifier, then every other field by label.
// Widths fit the formatted values.
func tableColumns(ds *dataset.Dataset) []table.Column {
	var cols []table.Column
	order := []int{ds.IDIndex()}
	for i := range ds.Fields() {
		if i != ds.IDIndex() {
			order = append(order, i)
		}
	}
	for _, c := range order {
		f := ds.Field(c)
		w := runewidth.StringWidth(f.Label)
		for r := 0; r < ds.Len(); r++ {
			w = max(w, runewidth.StringWidth(cellText(ds, r, c)))
		}
		cols = append(cols, table.Column{Title: f.Label, Width: min(w, 24)})
	}
	return cols
}

func cellText(ds *dataset.Dataset, row, col int) string {
	if col == ds.IDIndex() {
		return ds.ID(row).String()
	}
	return formatter.FormatValue(ds.Value(row, col))
}

func axisStats(ds *dataset.Dataset) []axisStat {
	dims := ds.Dimensions()
	out := make([]axisStat, len(dims))
	for axis := range dims {
		col, _ := ds.DimensionColumn(axis)
		st := axisStat{}
		for _, v := range ds.Column(col) {
			f, ok := v.Float()
			if v.Kind != dataset.KindNumeric || !ok {
				continue
			}
			if !st.numeric {
				st = axisStat{numeric: true, min: f, max: f}
				continue
			}
			st.min = min(st.min, f)
			st.max = max(st.max, f)
		}
		out[axis] = st
	}
	return out
}

// Snapshot returns the current page state.
func (m *Model) Snapshot() core.Snapshot { return m.snap.Clone() }

// History returns the applied events, oldest first.
func (m *Model) History() []core.EventSpec { return slices.Clone(m.history) }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if m.inputMode != inputNone && key == "tab" {
			m.completeInput()
			return m, nil
		}
		if m.inputMode != inputNone && key != "enter" && key != "esc" && key != "ctrl+c" {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, m.handleKey(key)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Press feeds key names (as tea.KeyMsg.String reports them) to the model
// without a running program. While an input prompt is open, anything other
// than enter, esc, tab and backspace is typed into it.
func (m *Model) Press(keys ...string) {
	for _, k := range keys {
		if m.inputMode != inputNone {
			switch k {
			case "enter", "esc", "ctrl+c":
			case "tab":
				m.completeInput()
				continue
			case "backspace":
				v := []rune(m.input.Value())
				if len(v) > 0 {
					m.input.SetValue(string(v[:len(v)-1]))
				}
				continue
			case "space":
				m.input.SetValue(m.input.Value() + " ")
				continue
			default:
				m.input.SetValue(m.input.Value() + k)
				m.input.CursorEnd()
				continue
			}
		}
		m.handleKey(k)
	}
}

func (m *Model) handleKey(key string) tea.Cmd {
	if key == "ctrl+c" {
		return tea.Quit
	}
	if m.inputMode != inputNone {
		switch key {
		case "enter":
			m.commitInput()
		case "esc":
			m.closeInput()
		}
		return nil
	}
	if m.helpVisible {
		switch key {
		case "?", "esc", "q":
			m.helpVisible = false
		}
		return nil
	}

	switch key {
	case "q":
		return tea.Quit
	case "?":
		m.helpVisible = true
		return nil
	case "tab":
		m.setFocus((m.focus + 1) % panelCount)
		return nil
	case "shift+tab":
		m.setFocus((m.focus + panelCount - 1) % panelCount)
		return nil
	case "esc":
		m.apply(core.EventSpec{Source: selection.SourceSelectAll.String(), On: boolPtr(false)})
		return nil
	}

	switch m.focus {
	case panelAxes:
		m.axesKey(key)
	case panelScatter:
		m.scatterKey(key)
	default:
		m.tableKey(key)
	}
	return nil
}

func (m *Model) setFocus(p panel) {
	m.focus = p
	if p == panelTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) tableKey(key string) {
	switch key {
	case "up", "k":
		m.table.MoveUp(1)
	case "down", "j":
		m.table.MoveDown(1)
	case "left", "h", "pgup":
		if m.tablePage > 0 {
			m.tablePage--
			m.refresh()
		}
	case "right", "l", "pgdown":
		if m.tablePage < m.pageCount-1 {
			m.tablePage++
			m.refresh()
		}
	case "space", " ":
		row := m.table.SelectedRow()
		if row == nil {
			return
		}
		rows := m.snap.Selected.Clone()
		if i := slices.Index(rows, row.Pos); i >= 0 {
			rows = slices.Delete(rows, i, i+1)
		} else {
			rows = append(rows, row.Pos)
		}
		m.apply(core.EventSpec{Source: selection.SourceTableRows.String(), Rows: rows})
	case "enter":
		if row := m.table.SelectedRow(); row != nil {
			m.apply(core.EventSpec{Source: selection.SourceTableRows.String(), Rows: []int{row.Pos}})
		}
	case "a":
		m.apply(core.EventSpec{Source: selection.SourceSelectAll.String(), On: boolPtr(!m.selectAll)})
	case "s":
		m.apply(core.EventSpec{Source: core.ActionShowSelected, On: boolPtr(!m.snap.ShowSelectedOnly)})
	case "/":
		m.openInput(inputFilter, m.snap.Filter)
	}
}

func (m *Model) axesKey(key string) {
	n := len(m.snap.Axes)
	switch key {
	case "up", "k":
		if m.axisCursor > 0 {
			m.axisCursor--
		}
	case "down", "j":
		if m.axisCursor < n-1 {
			m.axisCursor++
		}
	case "b":
		if n > 0 {
			m.openInput(inputBrush, rangeInput(m.snap.Axes[m.axisCursor].Range))
		}
	case "x":
		if n > 0 {
			axis := m.axisCursor
			m.apply(core.EventSpec{
				Source:  selection.SourceAxisBrush.String(),
				Changes: []core.BrushSpec{{Axis: &axis, Range: selection.NoRange()}},
			})
		}
	case "c":
		if row := m.table.SelectedRow(); row != nil {
			m.apply(core.EventSpec{Source: selection.SourceParallelClick.String(), Points: []int{row.Pos}})
		}
	}
}

func (m *Model) scatterKey(key string) {
	presets := m.page.Presets()
	if len(presets) == 0 {
		return
	}
	cur := slices.IndexFunc(presets, func(p core.ScatterPreset) bool { return p.Name == m.snap.ScatterPreset })
	switch key {
	case "left", "h":
		cur = (max(cur, 0) + len(presets) - 1) % len(presets)
		m.apply(core.EventSpec{Source: core.ActionScatterPreset, Preset: presets[cur].Name})
	case "right", "l":
		cur = (cur + 1) % len(presets)
		m.apply(core.EventSpec{Source: core.ActionScatterPreset, Preset: presets[cur].Name})
	case "enter":
		pts := make([]int, 0, len(m.snap.ScatterPoints))
		for _, p := range m.snap.ScatterPoints {
			pts = append(pts, p.Row)
		}
		m.apply(core.EventSpec{Source: selection.SourceScatterSelect.String(), Points: pts})
	case "c":
		if row := m.table.SelectedRow(); row != nil {
			m.apply(core.EventSpec{Source: selection.SourceScatterClick.String(), Points: []int{row.Pos}})
		}
	}
}

func (m *Model) openInput(mode inputMode, value string) {
	m.inputMode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// completeInput completes the filter being typed and reports the candidates,
// or the help of the function being called, in the status line.
func (m *Model) completeInput() {
	if m.inputMode != inputFilter {
		return
	}
	next, cands := m.completer.Complete(m.input.Value())
	m.input.SetValue(next)
	m.input.CursorEnd()
	m.statusErr = false
	switch {
	case len(cands) > 1:
		m.status = completion.Displays(cands, 8)
	case len(cands) == 1 && cands[0].Function != nil:
		m.status = completion.FormatFunctionOneLiner(*cands[0].Function)
	default:
		if fn := m.filterFns.CurrentFunction(next); fn != nil {
			m.status = completion.FormatFunctionOneLiner(*fn)
		} else if len(cands) == 0 {
			m.status = "no completions"
		} else {
			m.status = ""
		}
	}
}

func (m *Model) closeInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) commitInput() {
	value := m.input.Value()
	mode := m.inputMode
	m.closeInput()
	switch mode {
	case inputFilter:
		m.apply(core.EventSpec{Source: core.ActionSetFilter, Filter: value})
	case inputBrush:
		spec, err := core.ParseEventString(fmt.Sprintf("%s:%d=%s", selection.SourceAxisBrush, m.axisCursor, value))
		if err != nil {
			m.setError(err)
			return
		}
		m.apply(spec)
	}
}

// apply runs one event through the engine and records it on success.
func (m *Model) apply(spec core.EventSpec) {
	next, err := m.engine.Apply(m.ctx, m.page.Config.Name, m.snap, spec)
	if err != nil {
		m.setError(err)
		return
	}
	m.snap = next
	if !spec.IsAction() {
		m.tablePage = next.TablePage
		m.selectAll = spec.Source == selection.SourceSelectAll.String() && spec.On != nil && *spec.On
	}
	if spec.Source == core.ActionSetFilter || spec.Source == core.ActionShowSelected {
		m.tablePage = 0
	}
	m.record(spec)
	m.status = describe(spec, next)
	m.statusErr = false
	m.refresh()
}

func (m *Model) record(spec core.EventSpec) {
	m.history = append(m.history, spec)
	if over := len(m.history) - m.maxEvents; over > 0 {
		m.history = slices.Delete(m.history, 0, over)
	}
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	logger.FromContext(m.ctx).V(1).Info("dashboard event rejected", "error", err.Error())
}

// refresh reloads the visible table page and the scatter background.
func (m *Model) refresh() {
	name := m.page.Config.Name
	rows, pages, err := m.engine.TablePageRows(name, m.snap, m.tablePage)
	if err != nil {
		m.setError(err)
		return
	}
	m.pageCount = pages
	if m.tablePage >= pages {
		m.tablePage = pages - 1
	}
	if m.tablePage < 0 {
		m.tablePage = 0
	}

	ds := m.page.Dataset
	selected := m.snap.Selected.Set()
	out := make([]tableRow, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, 0, len(ds.Fields()))
		cells = append(cells, cellText(ds, r, ds.IDIndex()))
		for c := range ds.Fields() {
			if c != ds.IDIndex() {
				cells = append(cells, cellText(ds, r, c))
			}
		}
		_, sel := selected[r]
		out = append(out, tableRow{Pos: r, Selected: sel, Cells: cells})
	}
	m.table.SetRows(out)

	if m.pointsPreset != m.snap.ScatterPreset {
		m.allPoints = nil
		m.pointsPreset = m.snap.ScatterPreset
		if preset, err := m.page.Preset(m.snap.ScatterPreset); err == nil {
			m.allPoints, _ = projection.AllPoints(ds, preset.X, preset.Y)
		}
	}
}

func describe(spec core.EventSpec, s core.Snapshot) string {
	switch spec.Source {
	case core.ActionSetFilter:
		if spec.Filter == "" {
			return "table filter cleared"
		}
		return "table filter: " + spec.Filter
	case core.ActionShowSelected:
		if s.ShowSelectedOnly {
			return "showing selected rows only"
		}
		return "showing all rows"
	case core.ActionScatterPreset:
		return "scatter preset: " + s.ScatterPreset
	}
	return fmt.Sprintf("%s: %d selected", spec.Source, len(s.Selected))
}

// rangeInput formats a range as brush input text.
func rangeInput(r selection.Range) string {
	switch r.Kind {
	case selection.RangeIntervals:
		if len(r.Intervals) > 0 {
			iv := r.Intervals[0]
			return strconv.FormatFloat(iv.Lo, 'g', -1, 64) + ".." + strconv.FormatFloat(iv.Hi, 'g', -1, 64)
		}
	case selection.RangeExact:
		s := r.Exact.String()
		return s + ".." + s
	}
	return ""
}

func boolPtr(b bool) *bool { return &b }
