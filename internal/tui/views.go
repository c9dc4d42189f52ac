package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Convl/tomorrows-news/internal/manager"
)

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Tomorrow's News"))
	if a.sessionDead {
		b.WriteString("  ")
		b.WriteString(dialogErrStyle.Render("session expired, run `tomorrows-news login`"))
	}
	b.WriteString("\n")

	if dialog := a.renderDialog(); dialog != "" {
		b.WriteString("\n")
		b.WriteString(dialog)
		b.WriteString("\n\n")
		b.WriteString(footerStyle.Render("enter: confirm • esc: cancel"))
		return b.String()
	}

	sidebarWidth := 26
	mainWidth := a.width - sidebarWidth - 6
	if mainWidth < 40 {
		mainWidth = 40
	}

	topicsPane := a.stylePane(paneTopics).Width(sidebarWidth).Render(a.renderTopics())
	right := lipgloss.JoinVertical(
		lipgloss.Left,
		a.stylePane(paneSources).Width(mainWidth).Render(a.renderSources()),
		a.stylePane(paneEvents).Width(mainWidth).Render(a.renderEvents()),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, topicsPane, right))

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("↑/↓: move • tab: pane • enter: open topic • n: new • e: edit • d: delete • s: scrape now • r: refresh • q: quit"))
	return b.String()
}

func (a *App) stylePane(p pane) lipgloss.Style {
	if a.focus == p {
		return paneActiveStyle
	}
	return paneStyle
}

func (a *App) renderTopics() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Topics"))
	b.WriteString("\n")

	topics := a.topics()
	if len(topics) == 0 {
		b.WriteString(itemDimStyle.Render("no topics yet — press n"))
		return b.String()
	}

	for i, topic := range topics {
		line := topic.Name
		if !topic.IsActive {
			line += " (paused)"
		}
		switch {
		case topic.ID == a.selectedTopic:
			line = "* " + line
		default:
			line = "  " + line
		}
		if a.focus == paneTopics && i == a.topicCursor {
			b.WriteString(itemSelectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderSources() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Sources"))
	b.WriteString("\n")

	if a.selectedTopic == 0 {
		b.WriteString(itemDimStyle.Render("select a topic"))
		return b.String()
	}

	sources := a.sources()
	if len(sources) == 0 {
		b.WriteString(itemDimStyle.Render("no sources yet — press n"))
		return b.String()
	}

	for i, src := range sources {
		info := a.statusFor(src)
		name := src.Name
		if !src.IsActive {
			name += " (paused)"
		}
		line := fmt.Sprintf("%s %s", severityDot(info.Severity), name)
		if a.focus == paneSources && i == a.sourceCursor {
			line = itemSelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(itemDimStyle.Render("  " + info.Label))
		b.WriteString("\n")
	}

	if err := a.sourceMgr(a.selectedTopic).Err(); err != "" {
		b.WriteString(dialogErrStyle.Render(err))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderEvents() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Events"))
	b.WriteString("\n")

	if a.selectedTopic == 0 {
		b.WriteString(itemDimStyle.Render("select a topic"))
		return b.String()
	}

	events := a.events()
	if len(events) == 0 {
		b.WriteString(itemDimStyle.Render("no events extracted yet"))
		return b.String()
	}

	for i, event := range events {
		title := fmt.Sprintf("%.1f  %s", event.Significance, event.Title)
		if event.EventDate != nil {
			title += "  " + event.EventDate.Format("Jan 2, 2006")
		}
		if a.focus == paneEvents && i == a.eventCursor {
			b.WriteString(itemSelectedStyle.Render(title))
		} else {
			b.WriteString(eventTitleStyle.Render(title))
		}
		b.WriteString("\n")

		if event.Location != "" {
			b.WriteString(itemDimStyle.Render("  " + event.Location))
			b.WriteString("\n")
		}
		if a.focus == paneEvents && i == a.eventCursor {
			if event.Description != "" {
				b.WriteString("  " + event.Description)
				b.WriteString("\n")
			}
			for _, citation := range event.Citations() {
				b.WriteString(citationStyle.Render("  ↳ " + citation.SourceURL))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// renderDialog renders whichever modal is open, or "".
func (a *App) renderDialog() string {
	if kind := a.topicMgr.Dialog(); kind != manager.DialogNone {
		return dialogStyle.Render(a.renderTopicDialog(kind))
	}
	if a.selectedTopic != 0 {
		if kind := a.sourceMgr(a.selectedTopic).Dialog(); kind != manager.DialogNone {
			return dialogStyle.Render(a.renderSourceDialog(kind))
		}
	}
	return ""
}

func (a *App) renderTopicDialog(kind manager.DialogKind) string {
	var b strings.Builder
	switch kind {
	case manager.DialogDelete:
		name := ""
		if target := a.topicMgr.Target(); target != nil {
			name = target.Name
		}
		b.WriteString(paneTitleStyle.Render("Delete topic"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Delete %q and all of its sources and events?", name))
	default:
		title := "Create topic"
		if kind == manager.DialogEdit {
			title = "Edit topic"
		}
		b.WriteString(paneTitleStyle.Render(title))
		b.WriteString("\n\n")
		if a.topicForm != nil {
			b.WriteString(a.topicForm.View())
		}
	}
	if a.topicMgr.Pending() {
		b.WriteString("\n")
		b.WriteString(itemDimStyle.Render("saving..."))
	}
	if err := a.topicMgr.Err(); err != "" {
		b.WriteString("\n")
		b.WriteString(dialogErrStyle.Render(err))
	}
	return b.String()
}

func (a *App) renderSourceDialog(kind manager.DialogKind) string {
	mgr := a.sourceMgr(a.selectedTopic)
	var b strings.Builder
	switch kind {
	case manager.DialogDelete:
		name := ""
		if target := mgr.Target(); target != nil {
			name = target.Name
		}
		b.WriteString(paneTitleStyle.Render("Delete source"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Delete source %q?", name))
	default:
		title := "Create source"
		if kind == manager.DialogEdit {
			title = "Edit source"
		}
		b.WriteString(paneTitleStyle.Render(title))
		b.WriteString("\n\n")
		if a.sourceForm != nil {
			b.WriteString(a.sourceForm.View())
		}
	}
	if mgr.Pending() {
		b.WriteString("\n")
		b.WriteString(itemDimStyle.Render("saving..."))
	}
	if err := mgr.Err(); err != "" {
		b.WriteString("\n")
		b.WriteString(dialogErrStyle.Render(err))
	}
	return b.String()
}
