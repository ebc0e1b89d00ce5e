// Package core wires the dataset, reconciler and projectors into one
// dispatch pipeline per page.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/sweepview/internal/cel"
	"github.com/oakwood-commons/sweepview/internal/limiter"
	"github.com/oakwood-commons/sweepview/internal/projection"
	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/logger"
)

// Sentinel errors.
var (
	ErrUnknownPage   = errors.New("unknown page")
	ErrDuplicatePage = errors.New("duplicate page")
	ErrUnknownPreset = errors.New("unknown scatter preset")
	ErrUnknownSource = errors.New("unknown event source")
)

// Evaluator compiles table filter expressions.
type Evaluator interface {
	CompilePredicate(expr string) (dataset.Predicate, error)
}

// Engine holds the pages and runs reconciliation. Pages are added during
// setup; afterwards the Engine is read-only and safe for concurrent use.
type Engine struct {
	Evaluator Evaluator
	pages     map[string]*Page
	order     []string
}

// Option configures the Engine.
type Option func(*Engine)

// WithEvaluator sets a custom filter evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(c *Engine) {
		c.Evaluator = e
	}
}

// New creates an Engine with the CEL evaluator unless one is supplied.
func New(opts ...Option) (*Engine, error) {
	engine := &Engine{pages: map[string]*Page{}}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.Evaluator == nil {
		eval, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		engine.Evaluator = eval
	}
	return engine, nil
}

// AddPage registers a page. Scatter presets naming missing fields are
// dropped; with none left, the first two numeric dimensions are used.
func (e *Engine) AddPage(ctx context.Context, cfg PageConfig, ds *dataset.Dataset) error {
	if ds == nil {
		return fmt.Errorf("page %q: %w", cfg.Name, selection.ErrNoDataset)
	}
	if _, dup := e.pages[cfg.Name]; dup {
		return fmt.Errorf("%q: %w", cfg.Name, ErrDuplicatePage)
	}
	e.pages[cfg.Name] = newPage(ctx, cfg, ds)
	e.order = append(e.order, cfg.Name)
	return nil
}

// Page looks a page up by name.
func (e *Engine) Page(name string) (*Page, error) {
	p, ok := e.pages[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownPage)
	}
	return p, nil
}

// PageByRoute looks a page up by its route.
func (e *Engine) PageByRoute(route string) (*Page, error) {
	for _, name := range e.order {
		if e.pages[name].Config.Route == route {
			return e.pages[name], nil
		}
	}
	return nil, fmt.Errorf("route %q: %w", route, ErrUnknownPage)
}

// Pages returns the page names in registration order.
func (e *Engine) Pages() []string {
	return append([]string(nil), e.order...)
}

// Initial returns the session-start snapshot: nothing selected and every
// axis unconstrained.
func (e *Engine) Initial(name string) (Snapshot, error) {
	p, err := e.Page(name)
	if err != nil {
		return Snapshot{}, err
	}
	preset, _ := p.Preset("")
	return Snapshot{
		Page:          name,
		Selected:      selection.State{},
		Highlights:    []projection.Highlight{},
		Axes:          selection.InitialAxes(p.Dataset),
		Scatter:       []int{},
		ScatterPreset: preset.Name,
		ScatterPoints: []projection.Point{},
	}, nil
}

// Dispatch runs one event through the pipeline. With a nil event it returns
// the prior snapshot unchanged together with selection.ErrNoTrigger.
func (e *Engine) Dispatch(ctx context.Context, name string, prior Snapshot, ev selection.Event) (Snapshot, error) {
	if ev == nil {
		return prior, selection.ErrNoTrigger
	}
	p, err := e.Page(name)
	if err != nil {
		return prior, err
	}
	lgr := logger.FromContext(ctx).WithValues(logger.PageKey, name)
	ctx = logger.WithLogger(ctx, &lgr)

	ev, err = e.bindTableFilter(ev, prior)
	if err != nil {
		return prior, err
	}

	res, err := selection.Reconcile(ctx, selection.Input{
		Dataset:   p.Dataset,
		Prior:     prior.Selected,
		Axes:      prior.Axes,
		ResetAxis: p.Config.ResetAxis,
		Event:     ev,
	})
	if err != nil {
		return prior, err
	}

	axes := res.Axes
	if !res.AxesResolved {
		axes = projection.Constraints(p.Dataset, res.State, res.Axes, p.Config.ResetAxis)
	}

	next := prior.Clone()
	next.Page = name
	next.Source = res.Source.String()
	next.Selected = res.State
	next.Axes = axes
	if err := e.project(p, &next); err != nil {
		return prior, err
	}
	lgr.V(1).Info("dispatched", logger.EventKey, next.Source, "selected", len(next.Selected), "table_page", next.TablePage)
	return next, nil
}

// bindTableFilter makes "select all filtered" use the snapshot's table
// filter when the event carries none of its own.
func (e *Engine) bindTableFilter(ev selection.Event, prior Snapshot) (selection.Event, error) {
	sa, ok := ev.(selection.SelectAllToggled)
	if !ok || !sa.On || sa.Filter != nil {
		return ev, nil
	}
	expr := sa.Expr
	if expr == "" {
		expr = prior.Filter
	}
	pred, err := e.Evaluator.CompilePredicate(expr)
	if err != nil {
		return nil, fmt.Errorf("table filter: %w", err)
	}
	sa.Filter = pred
	sa.Expr = expr
	return sa, nil
}

func (e *Engine) project(p *Page, s *Snapshot) error {
	table := projection.Table(p.Dataset, s.Selected, p.Config.PageSize, p.Config.Style)
	s.Highlights = table.Highlights
	s.TablePage = table.Page
	s.Scatter = projection.Scatter(s.Selected)
	s.ScatterPoints = []projection.Point{}
	if preset, err := p.Preset(s.ScatterPreset); err == nil {
		pts, err := projection.ScatterPoints(p.Dataset, s.Selected, preset.X, preset.Y)
		if err != nil {
			return err
		}
		s.ScatterPreset = preset.Name
		s.ScatterPoints = pts
	}
	return nil
}

// SetFilter replaces the table filter. The selection is left alone; only
// the rows the table lists change.
func (e *Engine) SetFilter(name string, prior Snapshot, expr string) (Snapshot, error) {
	if _, err := e.Page(name); err != nil {
		return prior, err
	}
	if _, err := e.Evaluator.CompilePredicate(expr); err != nil {
		return prior, fmt.Errorf("table filter: %w", err)
	}
	next := prior.Clone()
	next.Filter = expr
	return next, nil
}

// SetShowSelectedOnly toggles the show-selected-only table view.
func (e *Engine) SetShowSelectedOnly(prior Snapshot, on bool) Snapshot {
	next := prior.Clone()
	next.ShowSelectedOnly = on
	return next
}

// SetScatterPreset switches the scatter axes and recomputes the highlighted points.
func (e *Engine) SetScatterPreset(name string, prior Snapshot, preset string) (Snapshot, error) {
	p, err := e.Page(name)
	if err != nil {
		return prior, err
	}
	sp, err := p.Preset(preset)
	if err != nil {
		return prior, err
	}
	next := prior.Clone()
	next.ScatterPreset = sp.Name
	if err := e.project(p, &next); err != nil {
		return prior, err
	}
	return next, nil
}

// TableRows lists the rows the table shows: the show-selected projection
// narrowed by the table filter, in display order.
func (e *Engine) TableRows(name string, s Snapshot) ([]int, error) {
	p, err := e.Page(name)
	if err != nil {
		return nil, err
	}
	rows := projection.TableRows(p.Dataset, s.Selected, s.ShowSelectedOnly)
	if s.Filter == "" {
		return rows, nil
	}
	pred, err := e.Evaluator.CompilePredicate(s.Filter)
	if err != nil {
		return nil, fmt.Errorf("table filter: %w", err)
	}
	passing, err := p.Dataset.Filter(pred)
	if err != nil {
		return nil, err
	}
	keep := selection.State(passing).Set()
	out := rows[:0:0]
	for _, r := range rows {
		if _, ok := keep[r]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// TablePageRows returns the rows of one table page and the page count.
func (e *Engine) TablePageRows(name string, s Snapshot, page int) ([]int, int, error) {
	p, err := e.Page(name)
	if err != nil {
		return nil, 0, err
	}
	rows, err := e.TableRows(name, s)
	if err != nil {
		return nil, 0, err
	}
	size := p.Config.PageSize
	page = limiter.ClampPage(page, len(rows), size)
	return limiter.Apply(limiter.ForPage(page, size), rows), limiter.PageCount(len(rows), size), nil
}
