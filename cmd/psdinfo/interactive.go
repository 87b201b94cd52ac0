package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/rawpsd"
	"github.com/wippyai/rawpsd/decoder"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	filename string
	meta     *rawpsd.Metadata
	layers   []rawpsd.LayerRecord
	visible  []int // indices into layers matching the filter
	filter   textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateListLayers modelState = iota
	stateFilter
	stateShowDetail
)

func newInteractiveModel(filename string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter layers"
	ti.Prompt = "/ "
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		filter:   ti,
		state:    stateListLayers,
	}
}

type loadedMsg struct {
	err    error
	meta   *rawpsd.Metadata
	layers []rawpsd.LayerRecord
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *interactiveModel) loadFile() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	meta, err := decoder.ParseMetadata(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	layers, err := decoder.ParseLayerRecords(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{meta: meta, layers: layers}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateFilter {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateListLayers && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateListLayers && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateListLayers {
				m.state = stateFilter
				m.filter.Focus()
				return m, textinput.Blink
			}

		case "enter":
			switch m.state {
			case stateListLayers:
				if len(m.visible) > 0 {
					m.state = stateShowDetail
				}
			case stateFilter:
				m.filter.Blur()
				m.state = stateListLayers
			case stateShowDetail:
				m.state = stateListLayers
			}

		case "esc":
			switch m.state {
			case stateFilter:
				m.filter.Blur()
				m.filter.SetValue("")
				m.applyFilter()
				m.state = stateListLayers
			case stateShowDetail:
				m.state = stateListLayers
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.meta = msg.meta
		m.layers = msg.layers
		m.applyFilter()
	}

	if m.state == stateFilter {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, l := range m.layers {
		if needle == "" || strings.Contains(strings.ToLower(l.Name), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.meta == nil {
		return "Loading file..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("PSD Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %dx%d %s",
		m.meta.Width, m.meta.Height, rawpsd.ColorModeName(m.meta.ColorMode))))
	b.WriteString("\n\n")

	if m.state == stateShowDetail {
		m.viewDetail(&b)
		return b.String()
	}

	if m.state == stateFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("no layers"))
		b.WriteString("\n")
	}
	for pos, idx := range m.visible {
		l := m.layers[idx]
		line := fmt.Sprintf("[%d] %s %s", idx,
			nameStyle.Render(l.Name),
			dimStyle.Render(fmt.Sprintf("%dx%d", l.Rect.Width(), l.Rect.Height())))
		if pos == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • q quit"))
	return b.String()
}

func (m *interactiveModel) viewDetail(b *strings.Builder) {
	l := m.layers[m.visible[m.selected]]

	fmt.Fprintf(b, "Layer %s\n\n", nameStyle.Render(l.Name))
	fmt.Fprintf(b, "  Rect:     (%d,%d)-(%d,%d)  %dx%d\n",
		l.Rect.Left, l.Rect.Top, l.Rect.Right, l.Rect.Bottom,
		l.Rect.Width(), l.Rect.Height())
	fmt.Fprintf(b, "  Blend:    %q  opacity %d  clipping %d  flags %#02x\n",
		l.BlendModeKey, l.Opacity, l.Clipping, l.Flags)
	if l.LegacyName != l.Name {
		fmt.Fprintf(b, "  Legacy:   %q\n", l.LegacyName)
	}
	if l.IsDivider {
		fmt.Fprintf(b, "  Divider:  type %d blend %q\n", l.DividerType, l.DividerBlendKey)
	}
	if l.Mask != nil {
		fmt.Fprintf(b, "  Mask:     %dx%d default %d relative=%v disabled=%v invert=%v\n",
			l.Mask.Rect.Width(), l.Mask.Rect.Height(), l.Mask.DefaultColor,
			l.Mask.Relative, l.Mask.Disabled, l.Mask.Invert)
	}
	fmt.Fprintf(b, "  Channels: ")
	for i, ch := range l.Channels {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%d (%d bytes)", ch.ID, ch.Length)
	}
	b.WriteString("\n")
	if len(l.ExtraBlocks) > 0 {
		keys := make([]string, 0, len(l.ExtraBlocks))
		for k := range l.ExtraBlocks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(b, "  Extras:   %s\n", strings.Join(keys, " "))
	}
	fmt.Fprintf(b, "  Pixels:   %d color bytes", len(l.Color))
	if len(l.K) > 0 {
		fmt.Fprintf(b, ", %d K bytes", len(l.K))
	}
	if len(l.MaskPlane) > 0 {
		fmt.Fprintf(b, ", %d mask bytes", len(l.MaskPlane))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter/esc back • q quit"))
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
