package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wordstore/word"
	"github.com/wippyai/wordstore/world"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectorState int

const (
	stateSelectResource inspectorState = iota
	stateShowResource
	stateInputKeys
	stateShowEntity
)

type inspector struct {
	err       error
	world     *world.World
	resources []*world.Resource
	detail    string
	entity    string
	input     textinput.Model
	caller    word.Address
	selected  int
	loaded    bool
	state     inspectorState
}

func newInspector(w *world.World, caller word.Address) *inspector {
	return &inspector{world: w, caller: caller, state: stateSelectResource}
}

type loadedMsg struct {
	err       error
	resources []*world.Resource
}

type detailMsg struct {
	err    error
	detail string
}

type entityMsg struct {
	err    error
	entity string
}

func (m *inspector) Init() tea.Cmd {
	return m.load
}

func (m *inspector) load() tea.Msg {
	ctx := context.Background()
	root, err := m.world.ResourceByTag(ctx, world.WorldName)
	if err != nil {
		return loadedMsg{err: err}
	}
	list, err := m.world.Resources(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{resources: append([]*world.Resource{root}, list...)}
}

func (m *inspector) current() *world.Resource {
	return m.resources[m.selected]
}

func (m *inspector) showResource() tea.Msg {
	r := m.current()
	text, err := describe(context.Background(), m.world, r)
	if err != nil {
		return detailMsg{err: err}
	}
	if r.Layout != nil {
		text += "\nlayout:\n" + layoutTree(r.Schema, r.Layout)
	}
	return detailMsg{detail: text}
}

func (m *inspector) readEntity() tea.Msg {
	r := m.current()
	v, err := m.world.EntityValue(context.Background(), r.Tag(), parseKeys(m.input.Value()))
	if err != nil {
		return entityMsg{err: err}
	}
	return entityMsg{entity: formatValue(v)}
}

func (m *inspector) prepareInput() {
	r := m.current()
	keys := r.Schema.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name + ": " + k.Ty.String()
	}
	ti := textinput.New()
	ti.Placeholder = strings.Join(names, ", ")
	ti.Prompt = "keys: "
	ti.Width = 60
	ti.Focus()
	m.input = ti
}

func (m *inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputKeys {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectResource && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectResource && m.selected < len(m.resources)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectResource:
				if len(m.resources) > 0 {
					return m, m.showResource
				}
			case stateInputKeys:
				return m, m.readEntity
			case stateShowEntity:
				m.state = stateShowResource
				m.entity = ""
				m.err = nil
			}

		case "e":
			if m.state == stateShowResource && m.current().Kind == world.KindModel {
				m.prepareInput()
				m.state = stateInputKeys
				return m, textinput.Blink
			}

		case "esc":
			switch m.state {
			case stateShowResource:
				m.state = stateSelectResource
				m.detail = ""
				m.err = nil
			case stateInputKeys, stateShowEntity:
				m.state = stateShowResource
				m.entity = ""
				m.err = nil
			}
		}

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.resources = msg.resources

	case detailMsg:
		m.detail = msg.detail
		m.err = msg.err
		m.state = stateShowResource

	case entityMsg:
		m.entity = msg.entity
		m.err = msg.err
		m.state = stateShowEntity
	}

	if m.state == stateInputKeys {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *inspector) View() string {
	if !m.loaded {
		return "Loading world..."
	}
	if m.err != nil && m.state == stateSelectResource {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("World Inspector"))
	b.WriteString(" caller ")
	b.WriteString(m.caller.String())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectResource:
		b.WriteString("Select a resource:\n\n")
		for i, r := range m.resources {
			line := formatResource(r)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateShowResource:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.detail)
		}
		b.WriteString("\n")
		help := "esc back • q quit"
		if m.current().Kind == world.KindModel {
			help = "e read entity • " + help
		}
		b.WriteString(helpStyle.Render(help))

	case stateInputKeys:
		fmt.Fprintf(&b, "Read entity of %s\n\n", tagStyle.Render(m.current().Tag()))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("comma-separated keys • enter read • esc back"))

	case stateShowEntity:
		fmt.Fprintf(&b, "Entity %s of %s:\n\n", m.input.Value(), tagStyle.Render(m.current().Tag()))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.entity))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatResource(r *world.Resource) string {
	line := tagStyle.Render(r.Tag()) + " " + kindStyle.Render(r.Kind.String())
	if r.Kind == world.KindModel {
		line += fmt.Sprintf(" v%d", r.Version)
	}
	return line
}

func runInteractive(w *world.World, caller word.Address) error {
	p := tea.NewProgram(newInspector(w, caller), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
