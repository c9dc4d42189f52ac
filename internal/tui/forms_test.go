package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/Convl/tomorrows-news/internal/domain"
)

func TestTopicFormDraft(t *testing.T) {
	form := newTopicForm(nil)
	form.inputs[0].SetValue("  climate  ")
	form.inputs[1].SetValue("policy events")

	draft := form.Draft()
	assert.Equal(t, "climate", draft.Name, "whitespace trimmed")
	assert.Equal(t, "policy events", draft.Description)
	assert.True(t, draft.IsActive, "new topics default to active")
}

func TestTopicFormToggleActive(t *testing.T) {
	form := newTopicForm(nil)
	form.setFocus(topicFieldCount - 1)

	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	assert.False(t, form.Draft().IsActive)
}

func TestSourceFormTypeCycles(t *testing.T) {
	form := newSourceForm(nil)
	form.setFocus(sourceFieldType)

	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, domain.SourceRss, form.Draft().SourceType)

	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyLeft})
	form, _ = form.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, domain.SourceAPI, form.Draft().SourceType, "cycling wraps around")
}

func TestSourceFormPrefill(t *testing.T) {
	frequency := 2880
	form := newSourceForm(&domain.ScrapingSource{
		Name:                "arxiv",
		BaseURL:             "https://arxiv.org",
		SourceType:          domain.SourceAPI,
		DegreesOfSeparation: 1,
		ScrapingFrequency:   frequency,
		IsActive:            true,
	})

	draft := form.Draft()
	assert.Equal(t, "arxiv", draft.Name)
	assert.Equal(t, domain.SourceAPI, draft.SourceType)
	assert.Equal(t, 1, draft.DegreesOfSeparation)
	assert.Equal(t, frequency, draft.ScrapingFrequency)
}

func TestSourceFormDefaults(t *testing.T) {
	draft := newSourceForm(nil).Draft()
	assert.Equal(t, domain.SourceWebpage, draft.SourceType)
	assert.Equal(t, domain.MinScrapingFrequency, draft.ScrapingFrequency)
	assert.NoError(t, func() error {
		draft.Name = "x"
		draft.BaseURL = "https://example.com"
		return draft.Validate()
	}(), "defaults pass validation once required fields are set")
}

func TestSourceFormBadNumbersFailValidation(t *testing.T) {
	form := newSourceForm(nil)
	form.inputs[0].SetValue("x")
	form.inputs[1].SetValue("https://example.com")
	form.inputs[4].SetValue("often")

	assert.Error(t, form.Draft().Validate(), "unparseable frequency falls through to validation")
}
