package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oakwood-commons/sweepview/internal/config"
	"github.com/oakwood-commons/sweepview/pkg/core"
	"github.com/oakwood-commons/sweepview/pkg/dataset"
	"github.com/oakwood-commons/sweepview/pkg/loader"
	"github.com/oakwood-commons/sweepview/pkg/logger"
)

// errNoPages is returned when no configured page could be opened.
var errNoPages = errors.New("no dashboard page could be loaded")

// session is one page loaded into its own engine.
type session struct {
	Engine  *core.Engine
	Page    config.Page
	Config  core.PageConfig
	Dataset *dataset.Dataset
	Initial core.Snapshot
}

// openSession loads a single page. datasetPath overrides the configured
// dataset; "-" reads it from stdin.
func openSession(ctx context.Context, cfg config.Config, name, datasetPath string, stdin io.Reader) (*session, error) {
	page, ok := cfg.PageByName(name)
	if !ok {
		return nil, fmt.Errorf("page %q (configured: %s): %w", name, strings.Join(cfg.PageNames(), ", "), core.ErrUnknownPage)
	}
	ds, err := loadPageDataset(ctx, page, datasetPath, stdin)
	if err != nil {
		return nil, err
	}
	engine, err := core.New()
	if err != nil {
		return nil, err
	}
	if err := engine.AddPage(ctx, page.PageConfig(), ds); err != nil {
		return nil, err
	}
	p, err := engine.Page(page.Name)
	if err != nil {
		return nil, err
	}
	snap, err := engine.Initial(page.Name)
	if err != nil {
		return nil, err
	}
	return &session{Engine: engine, Page: page, Config: p.Config, Dataset: ds, Initial: snap}, nil
}

// openEngine loads every named page (all pages when names is empty) into one
// engine. Pages whose dataset fails to load are skipped and logged.
func openEngine(ctx context.Context, cfg config.Config, names []string) (*core.Engine, error) {
	lgr := logger.FromContext(ctx)
	if len(names) == 0 {
		names = cfg.PageNames()
	}
	engine, err := core.New()
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, name := range names {
		page, ok := cfg.PageByName(name)
		if !ok {
			errs = append(errs, fmt.Errorf("page %q: %w", name, core.ErrUnknownPage))
			continue
		}
		ds, err := loadPageDataset(ctx, page, "", nil)
		if err == nil {
			err = engine.AddPage(ctx, page.PageConfig(), ds)
		}
		if err != nil {
			lgr.Info("skipping page", logger.PageKey, name, "error", err.Error())
			errs = append(errs, err)
			continue
		}
		lgr.V(1).Info("page loaded", logger.PageKey, name, "rows", ds.Len())
	}
	if len(engine.Pages()) == 0 {
		if len(errs) == 0 {
			return nil, errNoPages
		}
		return nil, fmt.Errorf("%w: %w", errNoPages, errors.Join(errs...))
	}
	return engine, nil
}

// loadPageDataset reads the page's dataset, or override when set. An
// override is format-sniffed rather than read with the page's format.
func loadPageDataset(ctx context.Context, page config.Page, override string, stdin io.Reader) (*dataset.Dataset, error) {
	path := page.Dataset
	format := page.LoaderFormat()
	if override != "" {
		path = override
		format = loader.FormatAuto
	}
	if path == "" {
		return nil, fmt.Errorf("page %q has no dataset configured", page.Name)
	}
	opts := page.DatasetOptions()

	var (
		ds  *dataset.Dataset
		err error
	)
	if path == "-" {
		ds, err = loadStdinDataset(ctx, stdin, format, opts)
	} else {
		ds, err = loader.LoadFileAs(ctx, path, format, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", page.Name, err)
	}
	return ds, nil
}

func loadStdinDataset(ctx context.Context, stdin io.Reader, format loader.Format, opts []dataset.Option) (*dataset.Dataset, error) {
	if stdin == nil {
		return nil, loader.ErrEmptyInput
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, loader.ErrEmptyInput
	}
	switch format {
	case loader.FormatCSV:
		return loader.LoadCSV(bytes.NewReader(data), opts...)
	case loader.FormatParquet:
		return loader.LoadParquet(ctx, bytes.NewReader(data), opts...)
	case loader.FormatStructured:
		return loader.LoadStructured(string(data), opts...)
	}
	ds, err := loader.LoadStructured(string(data), opts...)
	if err == nil {
		return ds, nil
	}
	// Anything that is not a record document is tried as CSV.
	if csvDS, csvErr := loader.LoadCSV(bytes.NewReader(data), opts...); csvErr == nil {
		return csvDS, nil
	}
	return nil, err
}

func writeCSV(w io.Writer, sess *session, rows []int) error {
	return loader.WriteCSV(w, sess.Dataset, rows)
}
