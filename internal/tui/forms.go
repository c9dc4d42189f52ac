package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Convl/tomorrows-news/internal/domain"
)

// sourceTypes in cycle order for the type selector row.
var sourceTypes = []domain.SourceType{domain.SourceWebpage, domain.SourceRss, domain.SourceAPI}

// topicForm is the create/edit dialog body for a topic.
type topicForm struct {
	inputs []textinput.Model // name, description, keywords
	active bool
	focus  int
}

const topicFieldCount = 4 // three inputs plus the active toggle

func newTopicForm(target *domain.Topic) topicForm {
	labels := []string{"Name", "Description", "Keywords"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 500
		inputs[i] = ti
	}
	inputs[0].CharLimit = 200

	f := topicForm{inputs: inputs, active: true}
	if target != nil {
		f.inputs[0].SetValue(target.Name)
		f.inputs[1].SetValue(target.Description)
		f.inputs[2].SetValue(target.Keywords)
		f.active = target.IsActive
	}
	f.inputs[0].Focus()
	return f
}

func (f topicForm) Update(msg tea.Msg) (topicForm, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil
		case " ":
			if f.focus == topicFieldCount-1 {
				f.active = !f.active
				return f, nil
			}
		}
	}

	var cmd tea.Cmd
	if f.focus < len(f.inputs) {
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	}
	return f, cmd
}

func (f *topicForm) setFocus(target int) {
	f.focus = clampWrap(target, topicFieldCount)
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f topicForm) Draft() domain.TopicDraft {
	return domain.TopicDraft{
		Name:        strings.TrimSpace(f.inputs[0].Value()),
		Description: strings.TrimSpace(f.inputs[1].Value()),
		Keywords:    strings.TrimSpace(f.inputs[2].Value()),
		IsActive:    f.active,
	}
}

func (f topicForm) View() string {
	var b strings.Builder
	labels := []string{"Name", "Description", "Keywords"}
	for i, ti := range f.inputs {
		b.WriteString(fieldLabel(labels[i], f.focus == i))
		b.WriteString(ti.View())
		b.WriteString("\n")
	}
	b.WriteString(fieldLabel("Active", f.focus == topicFieldCount-1))
	b.WriteString(checkbox(f.active))
	b.WriteString("\n")
	return b.String()
}

// sourceForm is the create/edit dialog body for a scraping source.
type sourceForm struct {
	inputs    []textinput.Model // name, base URL, description, degrees, frequency
	typeIndex int
	active    bool
	focus     int
}

// Field order: inputs 0-2, the type selector, inputs 3-4, the toggle.
const (
	sourceFieldType   = 3
	sourceFieldDegree = 4
	sourceFieldFreq   = 5
	sourceFieldActive = 6
	sourceFieldCount  = 7
)

func newSourceForm(target *domain.ScrapingSource) sourceForm {
	labels := []string{"Name", "Base URL", "Description", "Degrees of separation", "Frequency (minutes)"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 500
		inputs[i] = ti
	}
	inputs[0].CharLimit = 200
	inputs[3].CharLimit = 1
	inputs[4].CharLimit = 7

	f := sourceForm{inputs: inputs, active: true}
	f.inputs[3].SetValue("0")
	f.inputs[4].SetValue(strconv.Itoa(domain.MinScrapingFrequency))
	if target != nil {
		f.inputs[0].SetValue(target.Name)
		f.inputs[1].SetValue(target.BaseURL)
		f.inputs[2].SetValue(target.Description)
		f.inputs[3].SetValue(strconv.Itoa(target.DegreesOfSeparation))
		f.inputs[4].SetValue(strconv.Itoa(target.ScrapingFrequency))
		f.active = target.IsActive
		for i, t := range sourceTypes {
			if t == target.SourceType {
				f.typeIndex = i
			}
		}
	}
	f.inputs[0].Focus()
	return f
}

func (f sourceForm) Update(msg tea.Msg) (sourceForm, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil
		case "left":
			if f.focus == sourceFieldType {
				f.typeIndex = clampWrap(f.typeIndex-1, len(sourceTypes))
				return f, nil
			}
		case "right":
			if f.focus == sourceFieldType {
				f.typeIndex = clampWrap(f.typeIndex+1, len(sourceTypes))
				return f, nil
			}
		case " ":
			if f.focus == sourceFieldActive {
				f.active = !f.active
				return f, nil
			}
		}
	}

	var cmd tea.Cmd
	if idx, ok := f.inputIndex(); ok {
		f.inputs[idx], cmd = f.inputs[idx].Update(msg)
	}
	return f, cmd
}

// inputIndex maps the focus position onto the inputs slice, skipping
// the selector and toggle rows.
func (f sourceForm) inputIndex() (int, bool) {
	switch {
	case f.focus < sourceFieldType:
		return f.focus, true
	case f.focus == sourceFieldDegree:
		return 3, true
	case f.focus == sourceFieldFreq:
		return 4, true
	}
	return 0, false
}

func (f *sourceForm) setFocus(target int) {
	f.focus = clampWrap(target, sourceFieldCount)
	focused, hasInput := f.inputIndex()
	for i := range f.inputs {
		if hasInput && i == focused {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f sourceForm) Draft() domain.SourceDraft {
	degrees, _ := strconv.Atoi(strings.TrimSpace(f.inputs[3].Value()))
	frequency, _ := strconv.Atoi(strings.TrimSpace(f.inputs[4].Value()))
	return domain.SourceDraft{
		Name:                strings.TrimSpace(f.inputs[0].Value()),
		BaseURL:             strings.TrimSpace(f.inputs[1].Value()),
		SourceType:          sourceTypes[f.typeIndex],
		Description:         strings.TrimSpace(f.inputs[2].Value()),
		DegreesOfSeparation: degrees,
		ScrapingFrequency:   frequency,
		IsActive:            f.active,
	}
}

func (f sourceForm) View() string {
	var b strings.Builder
	b.WriteString(fieldLabel("Name", f.focus == 0))
	b.WriteString(f.inputs[0].View())
	b.WriteString("\n")
	b.WriteString(fieldLabel("Base URL", f.focus == 1))
	b.WriteString(f.inputs[1].View())
	b.WriteString("\n")
	b.WriteString(fieldLabel("Description", f.focus == 2))
	b.WriteString(f.inputs[2].View())
	b.WriteString("\n")
	b.WriteString(fieldLabel("Type", f.focus == sourceFieldType))
	b.WriteString(fmt.Sprintf("◂ %s ▸", sourceTypes[f.typeIndex]))
	b.WriteString("\n")
	b.WriteString(fieldLabel("Degrees", f.focus == sourceFieldDegree))
	b.WriteString(f.inputs[3].View())
	b.WriteString("\n")
	b.WriteString(fieldLabel("Frequency", f.focus == sourceFieldFreq))
	b.WriteString(f.inputs[4].View())
	b.WriteString("\n")
	b.WriteString(fieldLabel("Active", f.focus == sourceFieldActive))
	b.WriteString(checkbox(f.active))
	b.WriteString("\n")
	return b.String()
}

func fieldLabel(label string, focused bool) string {
	marker := "  "
	if focused {
		marker = "> "
	}
	return marker + label + ": "
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// clampWrap wraps i into [0, n).
func clampWrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
