// Package mcp serves dashboard pages over the Model Context Protocol so an
// external agent can drive the same selection pipeline as the dashboard.
package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oakwood-commons/sweepview/internal/cel"
	"github.com/oakwood-commons/sweepview/internal/completion"
	"github.com/oakwood-commons/sweepview/internal/formatter"
	"github.com/oakwood-commons/sweepview/internal/selection"
	"github.com/oakwood-commons/sweepview/pkg/core"
	"github.com/oakwood-commons/sweepview/pkg/logger"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

// Tool names.
const (
	ToolPages = "dashboard_pages"
	ToolState = "dashboard_state"
	ToolEvent = "dashboard_event"
	ToolRows  = "dashboard_rows"
	ToolReset = "dashboard_reset"
	ToolHelp  = "dashboard_filter_help"
)

// AllTools lists the registered tools in registration order.
var AllTools = []string{ToolPages, ToolState, ToolEvent, ToolRows, ToolReset, ToolHelp}

// Server holds one snapshot per page between tool calls.
type Server struct {
	mcpServer *server.MCPServer
	engine    *core.Engine
	format    settings.OutputFormat

	mu    sync.RWMutex
	snaps map[string]core.Snapshot
}

// Config holds server configuration.
type Config struct {
	Name    string
	Version string
	// Format of tool results: json (default) or yaml.
	Format settings.OutputFormat
}

// New builds a server over every page of engine, each starting from its
// initial snapshot.
func New(engine *core.Engine, cfg Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("mcp: engine is required")
	}
	if cfg.Name == "" {
		cfg.Name = settings.CliBinaryName
	}
	if cfg.Version == "" {
		cfg.Version = settings.VersionInformation.BuildVersion
	}
	switch cfg.Format {
	case "":
		cfg.Format = settings.OutputJSON
	case settings.OutputJSON, settings.OutputYAML:
	default:
		return nil, fmt.Errorf("mcp: unsupported result format %q", cfg.Format)
	}

	s := &Server{
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(false)),
		engine:    engine,
		format:    cfg.Format,
		snaps:     map[string]core.Snapshot{},
	}
	for _, name := range engine.Pages() {
		snap, err := engine.Initial(name)
		if err != nil {
			return nil, err
		}
		s.snaps[name] = snap
	}
	s.registerTools()
	return s, nil
}

// ServeStdio serves requests on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(ToolPages,
		mcp.WithDescription("List the dashboard pages with their route, row count, axes and scatter presets."),
	), s.handlePages)

	s.mcpServer.AddTool(mcp.NewTool(ToolState,
		mcp.WithDescription("Return the current selection snapshot of a page."),
		mcp.WithString("page", mcp.Description("Page name (default: first page)")),
	), s.handleState)

	s.mcpServer.AddTool(mcp.NewTool(ToolEvent,
		mcp.WithDescription("Apply one selection event or page action and return the new snapshot. "+
			"Pass either a compact event such as scatter_click:7, axis_brush:0=1..3 or select_all:on, "+
			"or the source field with points/rows/on/filter/preset."),
		mcp.WithString("page", mcp.Description("Page name (default: first page)")),
		mcp.WithString("event", mcp.Description("Compact event string")),
		mcp.WithString("source", mcp.Description("Event source or action name when event is not given")),
		mcp.WithArray("points", mcp.Description("Row positions for scatter/parallel events"), mcp.WithNumberItems()),
		mcp.WithArray("rows", mcp.Description("Row positions for table_rows"), mcp.WithNumberItems()),
		mcp.WithArray("changes", mcp.Description(`Axis ranges for axis_brush: {"axis": 0, "range": [lo, hi]} or {"label": "Heat", "range": [[lo, hi], ...]}; an empty range clears the axis`),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"axis":  map[string]any{"type": "number"},
					"label": map[string]any{"type": "string"},
					"range": map[string]any{"type": "array"},
				},
			})),
		mcp.WithBoolean("on", mcp.Description("Switch for select_all and show_selected")),
		mcp.WithString("filter", mcp.Description("CEL filter for set_filter or select_all")),
		mcp.WithString("preset", mcp.Description("Scatter preset for scatter_preset")),
	), s.handleEvent)

	s.mcpServer.AddTool(mcp.NewTool(ToolRows,
		mcp.WithDescription("Return the rows of one table page, or all selected rows, as records."),
		mcp.WithString("page", mcp.Description("Page name (default: first page)")),
		mcp.WithNumber("table_page", mcp.Description("Zero-based table page (default: the snapshot's page)")),
		mcp.WithBoolean("selected", mcp.Description("Return every selected row instead of one table page")),
	), s.handleRows)

	s.mcpServer.AddTool(mcp.NewTool(ToolReset,
		mcp.WithDescription("Reset a page to its initial snapshot."),
		mcp.WithString("page", mcp.Description("Page name (default: first page)")),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool(ToolHelp,
		mcp.WithDescription("Describe the CEL table filter language of a page: field references and functions. "+
			"With input, return the completions for the end of a partial filter instead."),
		mcp.WithString("page", mcp.Description("Page name (default: first page)")),
		mcp.WithString("input", mcp.Description("Partial filter expression to complete")),
	), s.handleFilterHelp)
}

// pageInfo is the dashboard_pages record of one page.
type pageInfo struct {
	Name    string               `json:"name" yaml:"name"`
	Route   string               `json:"route" yaml:"route"`
	Rows    int                  `json:"rows" yaml:"rows"`
	IDField string               `json:"id_field" yaml:"id_field"`
	Axes    []string             `json:"axes" yaml:"axes"`
	Presets []core.ScatterPreset `json:"scatter_presets" yaml:"scatter_presets"`
}

func (s *Server) handlePages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages := make([]pageInfo, 0, len(s.engine.Pages()))
	for _, name := range s.engine.Pages() {
		p, err := s.engine.Page(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ds := p.Dataset
		axes := make([]string, 0, len(ds.Dimensions()))
		for _, f := range ds.Dimensions() {
			axes = append(axes, f.Label)
		}
		pages = append(pages, pageInfo{
			Name:    name,
			Route:   p.Config.Route,
			Rows:    ds.Len(),
			IDField: ds.IDField().Name,
			Axes:    axes,
			Presets: p.Presets(),
		})
	}
	return s.result(map[string]any{"pages": pages})
}

func (s *Server) handleState(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := s.pageName(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.mu.RLock()
	snap := s.snaps[name].Clone()
	s.mu.RUnlock()
	return s.result(snap)
}

func (s *Server) handleEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := s.pageName(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spec, err := eventSpec(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Apply under the write lock so concurrent events on a page are ordered.
	s.mu.Lock()
	next, err := s.engine.Apply(ctx, name, s.snaps[name], spec)
	if err == nil {
		s.snaps[name] = next
	}
	s.mu.Unlock()
	if err != nil {
		logger.FromContext(ctx).V(1).Info("event rejected", logger.PageKey, name, logger.EventKey, spec.Source, "error", err.Error())
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result(next.Clone())
}

func (s *Server) handleRows(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := s.pageName(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.engine.Page(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.mu.RLock()
	snap := s.snaps[name].Clone()
	s.mu.RUnlock()

	if selected, _ := args["selected"].(bool); selected {
		return s.result(map[string]any{
			"selected": len(snap.Selected),
			"rows":     formatter.Records(p.Dataset, snap.Selected),
		})
	}
	tablePage := snap.TablePage
	if n, ok := args["table_page"].(float64); ok {
		tablePage = int(n)
	}
	rows, pages, err := s.engine.TablePageRows(name, snap, tablePage)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result(map[string]any{
		"table_page": tablePage,
		"pages":      pages,
		"rows":       formatter.Records(p.Dataset, rows),
	})
}

func (s *Server) handleReset(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := s.pageName(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.engine.Initial(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.mu.Lock()
	s.snaps[name] = snap
	s.mu.Unlock()
	return s.result(snap.Clone())
}

type functionGroup struct {
	Category  string     `json:"category" yaml:"category"`
	Functions [][]string `json:"functions" yaml:"functions"`
}

type completionInfo struct {
	Text    string `json:"text" yaml:"text"`
	Display string `json:"display" yaml:"display"`
	Kind    string `json:"kind" yaml:"kind"`
}

func (s *Server) handleFilterHelp(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := s.pageName(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.engine.Page(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, _ := s.engine.Evaluator.(*cel.Evaluator)
	provider := completion.NewEvaluatorProvider(p.Dataset, ev)

	if input, ok := args["input"].(string); ok {
		completed, cands := completion.NewEngine(provider).Complete(input)
		out := map[string]any{"completed": completed}
		list := make([]completionInfo, 0, len(cands))
		for _, c := range cands {
			list = append(list, completionInfo{Text: completion.Apply(input, c), Display: c.Display, Kind: c.Kind.String()})
		}
		out["completions"] = list
		if fn := provider.CurrentFunction(completed); fn != nil {
			out["function"] = completion.FormatFunctionOneLiner(*fn)
		}
		return s.result(out)
	}

	reg := provider.Registry()
	groups := make([]functionGroup, 0, len(reg.GetCategories()))
	for _, cat := range reg.GetCategories() {
		g := functionGroup{Category: cat}
		for _, fn := range reg.GetByCategory(cat) {
			g.Functions = append(g.Functions, completion.FormatFunctionLines(fn, 1))
		}
		groups = append(groups, g)
	}
	return s.result(map[string]any{
		"fields":    completion.FieldRefs(p.Dataset),
		"functions": groups,
	})
}

// pageName resolves the page argument; empty means the first page.
func (s *Server) pageName(args map[string]any) (string, error) {
	name, _ := args["page"].(string)
	if name == "" {
		pages := s.engine.Pages()
		if len(pages) == 0 {
			return "", core.ErrUnknownPage
		}
		return pages[0], nil
	}
	if _, err := s.engine.Page(name); err != nil {
		return "", err
	}
	return name, nil
}

// eventSpec builds the event from either the compact "event" argument or
// the individual fields.
func eventSpec(args map[string]any) (core.EventSpec, error) {
	if compact, _ := args["event"].(string); compact != "" {
		return core.ParseEventString(compact)
	}
	source, _ := args["source"].(string)
	if source == "" {
		return core.EventSpec{}, errors.New("event or source is required")
	}
	spec := core.EventSpec{Source: source}
	var err error
	if spec.Points, err = intList(args["points"]); err != nil {
		return spec, fmt.Errorf("points: %w", err)
	}
	if spec.Rows, err = intList(args["rows"]); err != nil {
		return spec, fmt.Errorf("rows: %w", err)
	}
	if spec.Changes, err = brushChanges(args["changes"]); err != nil {
		return spec, fmt.Errorf("changes: %w", err)
	}
	if source == "axis_brush" && len(spec.Changes) == 0 {
		return spec, errors.New("axis_brush needs changes")
	}
	if on, ok := args["on"].(bool); ok {
		spec.On = &on
	}
	spec.Filter, _ = args["filter"].(string)
	spec.Preset, _ = args["preset"].(string)
	return spec, nil
}

func intList(v any) ([]int, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of numbers, got %T", v)
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %T", item)
		}
		out = append(out, int(n))
	}
	return out, nil
}

func brushChanges(v any) ([]core.BrushSpec, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of objects, got %T", v)
	}
	out := make([]core.BrushSpec, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("change %d: expected an object, got %T", i, item)
		}
		var ch core.BrushSpec
		switch axis := m["axis"].(type) {
		case nil:
		case float64:
			n := int(axis)
			ch.Axis = &n
		default:
			return nil, fmt.Errorf("change %d: axis must be a number, got %T", i, axis)
		}
		ch.Label, _ = m["label"].(string)
		if ch.Axis == nil && ch.Label == "" {
			return nil, fmt.Errorf("change %d: axis or label is required", i)
		}
		rng, err := selection.RangeFromAny(m["range"])
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		ch.Range = rng
		out = append(out, ch)
	}
	return out, nil
}

func (s *Server) result(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := formatter.Encode(&buf, s.format, v); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
