package ui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// Run starts the dashboard and blocks until the user quits. The final model
// is returned so callers can read the snapshot and event history.
// Width/height of 0 auto-detect the terminal size.
func Run(opts Options, progOpts ...tea.ProgramOption) (*Model, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if opts.Width <= 0 {
				opts.Width = w
			}
			if opts.Height <= 0 {
				opts.Height = h
			}
		}
	}
	m, err := New(opts)
	if err != nil {
		return nil, err
	}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	final, err := tea.NewProgram(m, progOpts...).Run()
	if fm, ok := final.(*Model); ok && fm != nil {
		return fm, err
	}
	return m, err
}
