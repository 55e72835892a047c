package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/model"
)

// newMarkdownRenderer returns a glamour renderer wrapping at width. A nil
// renderer means markdown is shown raw.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		debug.Log("markdown renderer: %v", err)
		return nil
	}
	return r
}

func (m *Model) renderMarkdown(md string) string {
	if m.md == nil {
		return md
	}
	out, err := m.md.Render(md)
	if err != nil {
		debug.Log("markdown render: %v", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}

// focusAnnotation is the annotation the detail pane describes: the first
// selected one, else the hovered one.
func (m *Model) focusAnnotation() (model.Annotation, bool) {
	if sel := m.a.Selected(); len(sel) > 0 {
		return m.a.Annotation(sel[0])
	}
	if id := m.a.Hovered(); id != model.NoAnnotation {
		return m.a.Annotation(id)
	}
	return model.Annotation{}, false
}

// detailMarkdown describes the focused annotation, or the current channel
// when nothing is selected.
func (m *Model) detailMarkdown() string {
	var b strings.Builder
	if ann, ok := m.focusAnnotation(); ok {
		channel := "?"
		if ch, ok := m.a.Channel(ann.ChannelID); ok {
			channel = ch.Name
		}
		fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(ann.Value))
		b.WriteString("| | |\n|---|---|\n")
		fmt.Fprintf(&b, "| id | %d |\n", ann.ID)
		fmt.Fprintf(&b, "| kind | %s |\n", ann.Kind)
		fmt.Fprintf(&b, "| channel | %s |\n", escapeMarkdown(channel))
		fmt.Fprintf(&b, "| start | %s (frame %d) |\n", FormatClock(ann.Start), ann.StartFrame)
		if ann.Kind.HasDuration() {
			fmt.Fprintf(&b, "| end | %s (frame %d) |\n", FormatClock(ann.End), ann.EndFrame)
			fmt.Fprintf(&b, "| duration | %s |\n", FormatSpan(ann.Duration()))
		}
		if len(ann.Modifiers) > 0 {
			b.WriteString("\n### Modifiers\n\n")
			for _, mod := range ann.Modifiers {
				fmt.Fprintf(&b, "- **%s**: %s\n", escapeMarkdown(mod.Key), escapeMarkdown(mod.Value))
			}
		}
		if n := len(m.a.Selected()); n > 1 {
			fmt.Fprintf(&b, "\n_%d annotations selected_\n", n)
		}
		return b.String()
	}

	lanes := m.lanes()
	if m.curLane >= len(lanes) {
		b.WriteString("_No channels. Press `C` to add one._\n")
		return b.String()
	}
	ch := lanes[m.curLane].Channel
	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(ch.Name))
	fmt.Fprintf(&b, "- annotations: %d\n", len(m.a.AnnotationsIn(ch.ID)))
	fmt.Fprintf(&b, "- sub-channels: %d\n", len(m.a.ChildChannels(ch.ID)))
	switch {
	case ch.AllowedTypes == nil:
		b.WriteString("- allowed values: any\n")
	case len(ch.AllowedTypes) == 0:
		b.WriteString("- allowed values: none\n")
	default:
		fmt.Fprintf(&b, "- allowed values: %s\n", escapeMarkdown(strings.Join(ch.AllowedTypes, ", ")))
	}
	return b.String()
}

// helpMarkdown lists every binding and the mouse gestures.
func (m *Model) helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# tracklane\n\n")
	sections := []string{"Playback", "Navigation", "Annotations", "Channels", "Document"}
	for i, group := range m.keys.FullHelp() {
		if i < len(sections) {
			fmt.Fprintf(&b, "## %s\n\n", sections[i])
		}
		b.WriteString("| key | action |\n|---|---|\n")
		for _, kb := range group {
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Mouse\n\n")
	b.WriteString("- wheel: zoom around the pointer\n")
	b.WriteString("- drag on empty track: pan\n")
	b.WriteString("- click an annotation: select it; drag it to move\n")
	b.WriteString("- click the ruler: seek\n")
	return b.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
