package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tracklane/pkg/model"
)

// AnnotationItem wraps model.Annotation to implement list.Item
type AnnotationItem struct {
	Annotation model.Annotation
	Channel    string
	Selected   bool
}

func (i AnnotationItem) Title() string {
	return i.Annotation.Value
}

func (i AnnotationItem) Description() string {
	a := i.Annotation
	if !a.Kind.HasDuration() {
		return fmt.Sprintf("%s • %s", FormatClock(a.Start), i.Channel)
	}
	return fmt.Sprintf("%s–%s • %s", FormatClock(a.Start), FormatClock(a.End), i.Channel)
}

func (i AnnotationItem) FilterValue() string {
	var sb strings.Builder
	sb.WriteString(i.Annotation.Value)
	sb.WriteString(" ")
	sb.WriteString(i.Channel)
	sb.WriteString(" ")
	sb.WriteString(string(i.Annotation.Kind))
	for _, mod := range i.Annotation.Modifiers {
		sb.WriteString(" ")
		sb.WriteString(mod.Value)
	}
	return sb.String()
}

// AnnotationDelegate renders annotation items in the list
type AnnotationDelegate struct {
	Theme Theme
}

func (d AnnotationDelegate) Height() int {
	return 1
}

func (d AnnotationDelegate) Spacing() int {
	return 0
}

func (d AnnotationDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render draws: [cursor] [kind] [start] [duration] [value] [channel]
func (d AnnotationDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(AnnotationItem)
	if !ok {
		return
	}

	t := d.Theme
	width := m.Width()
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width--

	a := i.Annotation
	cursor := "  "
	if index == m.Index() {
		cursor = t.PrimaryBold.Render("▸ ")
	}
	start := padRight(FormatClock(a.Start), 10)
	dur := "        "
	if a.Kind.HasDuration() {
		dur = padRight(FormatSpan(a.Duration()), 8)
	}
	channel := truncate(i.Channel, 16)
	valueWidth := max(width-2-2-10-8-2-16, 4)

	value := fit(a.Value, valueWidth)
	if i.Selected {
		value = t.Selected.Render(value)
	} else {
		value = t.Base.Render(value)
	}

	fmt.Fprintf(w, "%s%s %s%s%s %s",
		cursor,
		RenderKindBadge(a.Kind),
		t.SecondaryText.Render(start),
		t.MutedText.Render(dur),
		value,
		t.MutedText.Render(channel))
}

// annotationItems builds the list content ordered by start time.
func (m *Model) annotationItems() []list.Item {
	anns := m.a.AllAnnotations()
	items := make([]list.Item, 0, len(anns))
	for _, a := range anns {
		name := ""
		if ch, ok := m.a.Channel(a.ChannelID); ok {
			name = ch.Name
		}
		items = append(items, AnnotationItem{Annotation: a, Channel: name, Selected: m.a.IsSelected(a.ID)})
	}
	return items
}

func newAnnotationList(theme Theme) list.Model {
	l := list.New(nil, AnnotationDelegate{Theme: theme}, 0, 0)
	l.Title = "Annotations"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.Header
	return l
}
