package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// promptKind says what a submitted prompt does.
type promptKind int

const (
	promptNone promptKind = iota
	promptValue
	promptNewChannel
	promptRename
	promptRestrict
)

func (k promptKind) label() string {
	switch k {
	case promptValue:
		return "value"
	case promptNewChannel:
		return "new channel"
	case promptRename:
		return "rename"
	case promptRestrict:
		return "allowed values (comma separated, empty = any)"
	default:
		return ""
	}
}

// prompt is the one-line editor shown in place of the status bar.
type prompt struct {
	kind    promptKind
	ann     model.AnnotationID
	channel model.ChannelID
	input   textinput.Model
}

func newPromptInput(theme Theme) textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Prompt = "› "
	ti.PromptStyle = theme.PrimaryBold
	ti.TextStyle = theme.Base
	return ti
}

// openPrompt focuses the prompt prefilled with value.
func (m *Model) openPrompt(kind promptKind, value string) tea.Cmd {
	m.prompt.kind = kind
	m.prompt.input.SetValue(value)
	m.prompt.input.CursorEnd()
	m.prompt.input.Width = max(m.width-len(kind.label())-6, 10)
	m.prevFocus = m.focused
	m.focused = focusPrompt
	return m.prompt.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt.kind = promptNone
	m.prompt.input.Blur()
	m.prompt.input.SetValue("")
	m.focused = m.prevFocus
}

func (m *Model) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return nil
	case "enter":
		value := m.prompt.input.Value()
		p := m.prompt
		m.closePrompt()
		m.submitPrompt(p, value)
		return nil
	}
	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return cmd
}

func (m *Model) submitPrompt(p prompt, value string) {
	switch p.kind {
	case promptValue:
		ann, ok := m.a.Annotation(p.ann)
		if !ok {
			m.setError("annotation %d no longer exists", p.ann)
			return
		}
		value = strings.TrimSpace(value)
		if value == "" || value == ann.Value {
			return
		}
		next := ann.Clone()
		next.Value = value
		if !m.a.EditAnnotation(next) {
			m.setError("%q is not allowed on this channel", value)
			return
		}
		m.lastValue = value
		m.setStatus("value set to %q", value)

	case promptNewChannel:
		name := strings.TrimSpace(value)
		if name == "" {
			return
		}
		ch, ok := m.a.CreateChannel(name, p.channel, nil)
		if !ok {
			m.setError("could not create channel %q", name)
			return
		}
		m.focusChannel(ch.ID)
		m.setStatus("added channel %q", name)

	case promptRename:
		name := strings.TrimSpace(value)
		if name == "" {
			return
		}
		if !m.a.RenameChannel(p.channel, name) {
			m.setError("could not rename channel")
			return
		}
		m.setStatus("renamed to %q", name)

	case promptRestrict:
		allowed := parseAllowed(value)
		if !m.a.RestrictChannel(p.channel, allowed) {
			m.setError("could not change allowed values")
			return
		}
		if allowed == nil {
			m.setStatus("channel accepts any value")
		} else {
			m.setStatus("channel accepts %d value(s)", len(allowed))
		}
	}
}

// parseAllowed splits a comma separated list. Empty input lifts the
// restriction; "-" allows nothing.
func parseAllowed(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if s == "-" {
		return []string{}
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	if out == nil {
		return []string{}
	}
	return out
}

func (m *Model) renderPrompt() string {
	label := m.theme.MutedText.Render(fmt.Sprintf(" %s ", m.prompt.kind.label()))
	return label + m.prompt.input.View()
}
