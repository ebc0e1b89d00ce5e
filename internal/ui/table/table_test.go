package table

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type run struct {
	ID     string
	Loss   string
	Picked bool
}

func makeModel() *Model[run] {
	cols := []Column{{Title: "ID", Width: 10}, {Title: "LOSS", Width: 20}}
	return NewModel(cols,
		func(r run) []string { return []string{r.ID, r.Loss} },
		func(r run) bool { return r.Picked })
}

func TestSetRowsClampsCursor(t *testing.T) {
	m := makeModel()
	m.SetRows([]run{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}})
	if got := len(m.Rows()); got != 3 {
		t.Fatalf("expected 3 rows, got %d", got)
	}

	m.SetCursor(2)
	m.SetRows([]run{{ID: "v1"}})
	if m.Cursor() != 0 {
		t.Fatalf("expected cursor clamped to 0, got %d", m.Cursor())
	}

	m.SetRows(nil)
	if m.SelectedRow() != nil {
		t.Fatalf("expected no row under the cursor on an empty table")
	}
}

func TestCursorMovement(t *testing.T) {
	m := makeModel()
	m.SetRows([]run{{ID: "v1"}, {ID: "v2"}})

	if sel := m.SelectedRow(); sel == nil || sel.ID != "v1" {
		t.Fatalf("expected v1 under the cursor, got %+v", sel)
	}
	m.MoveDown(5)
	if sel := m.SelectedRow(); sel == nil || sel.ID != "v2" {
		t.Fatalf("expected cursor clamped at v2, got %+v", sel)
	}
	m.MoveUp(1)
	if m.Cursor() != 0 {
		t.Fatalf("expected cursor 0 after MoveUp, got %d", m.Cursor())
	}
	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Cursor() > 1 {
		t.Fatalf("cursor out of bounds: %d", m.Cursor())
	}
}

func TestMarkerGutter(t *testing.T) {
	m := makeModel()
	m.SetNoColor(true)
	m.SetSize(60, 6)
	m.SetRows([]run{{ID: "v1", Loss: "0.500"}, {ID: "v2", Loss: "0.250", Picked: true}})

	if got := m.Marked(); got != 1 {
		t.Fatalf("expected 1 marked row, got %d", got)
	}
	var marked string
	for _, line := range strings.Split(m.View(), "\n") {
		if strings.Contains(line, Marker) {
			marked = line
		}
	}
	if !strings.Contains(marked, "v2") || strings.Contains(marked, "v1") {
		t.Fatalf("expected only v2 marked, got %q", marked)
	}
}

func TestSetSizeFitsColumns(t *testing.T) {
	m := makeModel()
	m.SetRows([]run{{ID: "v1"}})

	m.SetSize(22, 8)
	total := 2
	for _, c := range m.Columns() {
		total += c.Width + 1
	}
	if total > 22 {
		t.Fatalf("expected columns to fit 22 cells, got %d", total)
	}
	if a, b := m.Columns()[0].Width, m.Columns()[1].Width; a != 9 || b != 9 {
		t.Fatalf("expected the widest column to shrink first to 9/9, got %d/%d", a, b)
	}

	m.SetSize(200, 8)
	if got := m.Columns()[1].Width; got != 20 {
		t.Fatalf("expected natural width restored, got %d", got)
	}
	if m.Height() <= 0 || m.Width() <= 0 {
		t.Fatalf("expected non-zero dimensions, got h=%d w=%d", m.Height(), m.Width())
	}
}

func TestFocus(t *testing.T) {
	m := makeModel()
	if !m.Focused() {
		t.Fatalf("expected a new table to be focused")
	}
	m.Blur()
	if m.Focused() {
		t.Fatalf("expected Blur to drop focus")
	}
	m.Focus()
	if !m.Focused() {
		t.Fatalf("expected Focus to restore focus")
	}
}

func TestColors(t *testing.T) {
	m := makeModel()
	m.SetRows([]run{{ID: "v1"}})
	m.SetColors(lipgloss.Color("#FFFFFF"), lipgloss.Color("#2C3E50"), lipgloss.Color("#FFFFFF"), lipgloss.Color("#F39C12"))
	if out := m.View(); !strings.Contains(out, "v1") || !strings.Contains(out, "LOSS") {
		t.Fatalf("expected header and row in view, got %q", out)
	}
	m.SetNoColor(true)
	if out := m.View(); !strings.Contains(out, "v1") {
		t.Fatalf("expected row in plain view, got %q", out)
	}
}
