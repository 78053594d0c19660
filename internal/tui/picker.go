// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"catpicker/internal/models"
	"catpicker/internal/selection"
	"catpicker/internal/tree"
)

// chromeLines is the header, filter and footer space around the rows.
const chromeLines = 5

// ChangedMsg redraws the picker after the field changed elsewhere.
type ChangedMsg struct{}

// toggledMsg reports the outcome of a toggle run off the event loop.
type toggledMsg struct {
	id  string
	err error
}

// Picker is a filterable checklist over the forest. Checks mirror the
// selection store; toggling a row writes through it.
type Picker struct {
	ctx    context.Context
	forest []*models.TreeNode
	store  *selection.Store
	keys   keyMap

	filter    textinput.Model
	filtering bool
	collapsed map[string]bool

	rows    []tree.Row
	cursor  int
	offset  int
	height  int
	pending string
	notice  string
	done    bool
}

// NewPicker returns a picker over forest bound to an attached store.
func NewPicker(ctx context.Context, forest []*models.TreeNode, store *selection.Store) Picker {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter categories"
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := Picker{
		ctx:       ctx,
		forest:    forest,
		store:     store,
		keys:      newKeyMap(),
		filter:    ti,
		collapsed: make(map[string]bool),
	}
	m.rebuild()
	return m
}

// WithFilter returns the picker with term pre-filled in the filter.
func (m Picker) WithFilter(term string) Picker {
	m.filter.SetValue(term)
	m.rebuild()
	return m
}

// Rows returns the visible rows in display order.
func (m Picker) Rows() []tree.Row { return m.rows }

// Cursor returns the id under the cursor, or "".
func (m Picker) Cursor() string {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor].Node.ID
	}
	return ""
}

// rebuild recomputes the rows from the filter and fold state. Folds are
// ignored while a filter is active so every match is visible.
func (m *Picker) rebuild() {
	term := m.filter.Value()
	var rows []tree.Row
	tree.Walk(tree.Filter(m.forest, term), func(n *models.TreeNode, depth int) bool {
		rows = append(rows, tree.Row{Node: n, Depth: depth})
		return term != "" || !m.collapsed[n.ID]
	})
	m.rows = rows
	m.clampCursor()
}

func (m *Picker) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

func (m *Picker) viewportHeight() int {
	if m.height <= chromeLines {
		return len(m.rows)
	}
	return m.height - chromeLines
}

// adjustScroll keeps the cursor inside the viewport.
func (m *Picker) adjustScroll() {
	h := m.viewportHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if h > 0 && m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.adjustScroll()
		return m, nil

	case toggledMsg:
		m.pending = ""
		m.notice = ""
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not save %s: %v", msg.id, msg.err)
		}
		return m, nil

	case ChangedMsg:
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Picker) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.ClearFilter):
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.rebuild()
		return m, nil
	case key.Matches(msg, m.keys.AcceptFilter):
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.rebuild()
	return m, cmd
}

func (m Picker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustScroll()
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.adjustScroll()
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.adjustScroll()
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.rows) - 1
		m.clampCursor()
	case key.Matches(msg, m.keys.Fold):
		m.fold()
	case key.Matches(msg, m.keys.Unfold):
		m.unfold()
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle()
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.ClearFilter):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.rebuild()
		}
	}
	return m, nil
}

// fold collapses the row under the cursor, or moves to its parent when
// it is a leaf or already folded.
func (m *Picker) fold() {
	if m.cursor >= len(m.rows) {
		return
	}
	n := m.rows[m.cursor].Node
	if len(n.Children) > 0 && !m.collapsed[n.ID] && m.filter.Value() == "" {
		m.collapsed[n.ID] = true
		m.rebuild()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].Node.ID == n.ParentID {
			m.cursor = i
			m.adjustScroll()
			return
		}
	}
}

func (m *Picker) unfold() {
	if m.cursor >= len(m.rows) {
		return
	}
	id := m.rows[m.cursor].Node.ID
	if m.collapsed[id] {
		delete(m.collapsed, id)
		m.rebuild()
	}
}

// toggle writes the row under the cursor through the store. One toggle is
// in flight at a time.
func (m Picker) toggle() (tea.Model, tea.Cmd) {
	if m.pending != "" || m.cursor >= len(m.rows) {
		return m, nil
	}
	id := m.rows[m.cursor].Node.ID
	m.pending = id
	ctx, store := m.ctx, m.store
	return m, func() tea.Msg {
		_, err := store.Toggle(ctx, id)
		return toggledMsg{id: id, err: err}
	}
}

func (m Picker) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder

	selected := m.store.Selected()
	b.WriteString(headerStyle.Render("Categories"))
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d selected", len(selected))))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		msg := "No categories."
		if m.filter.Value() != "" {
			msg = "No matches."
		}
		b.WriteString(MutedStyle.Render(msg) + "\n")
	}

	checked := IDSet(selected)
	end := min(m.offset+m.viewportHeight(), len(m.rows))
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		gutter := "  "
		if i == m.cursor {
			gutter = cursorStyle.Render("> ")
		}
		folded := m.collapsed[row.Node.ID] && len(row.Node.Children) > 0 && m.filter.Value() == ""
		b.WriteString(gutter + formatRow(row, checked[row.Node.ID], folded))
		if row.Node.ID == m.pending {
			b.WriteString(MutedStyle.Render(" saving…"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(ErrorStyle.Render(m.notice) + "\n")
	}
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Picker) helpLine() string {
	var parts []string
	for _, k := range m.keys.help() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return MutedStyle.Render(strings.Join(parts, " • "))
}

// Run shows the picker on in/out until the user quits. Changes to field
// made elsewhere redraw the checks while it runs; a nil field skips that.
func Run(ctx context.Context, m Picker, field selection.Field, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if field != nil {
		detach := field.OnValueChanged(func([]models.Link) { p.Send(ChangedMsg{}) })
		defer detach()
	}
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	return nil
}
