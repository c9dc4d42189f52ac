package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Convl/tomorrows-news/internal/domain"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func sourceScrapedAgo(ago time.Duration, frequency int) domain.ScrapingSource {
	last := now.Add(-ago)
	return domain.ScrapingSource{
		ID:                7,
		ScrapingFrequency: frequency,
		LastScrapedAt:     &last,
	}
}

func TestDeriveOverdue(t *testing.T) {
	// Scraped 2000 minutes ago on a daily schedule: 560 minutes late.
	src := sourceScrapedAgo(2000*time.Minute, 1440)

	info := Derive(src, now)

	assert.Equal(t, StateOverdue, info.State)
	assert.Equal(t, SeverityError, info.Severity)
	assert.Contains(t, info.Label, "Overdue by 9h 20m")
	assert.Contains(t, info.Label, "Last scraped: 1d 9h ago")
}

func TestDeriveScheduled(t *testing.T) {
	src := sourceScrapedAgo(30*time.Minute, 1440)

	info := Derive(src, now)

	assert.Equal(t, StateScheduled, info.State)
	assert.Equal(t, SeveritySuccess, info.Severity)
	assert.Contains(t, info.Label, "Due in 23h 30m")
}

func TestDeriveScraping(t *testing.T) {
	src := sourceScrapedAgo(51*time.Hour, 1440)
	src.CurrentlyScraping = true

	info := Derive(src, now)

	assert.Equal(t, StateScraping, info.State)
	assert.Equal(t, SeverityWarning, info.Severity)
	assert.Contains(t, info.Label, "Last scraped: 2d 3h ago")
}

func TestDeriveScrapingNeverScraped(t *testing.T) {
	src := domain.ScrapingSource{CurrentlyScraping: true, ScrapingFrequency: 1440}

	info := Derive(src, now)

	assert.Equal(t, StateScraping, info.State)
	assert.Contains(t, info.Label, "Last scraped: never")
}

func TestDeriveFailed(t *testing.T) {
	src := sourceScrapedAgo(2000*time.Minute, 1440)
	msg := "connection refused"
	src.LastError = &msg

	info := Derive(src, now)

	assert.Equal(t, StateFailed, info.State)
	assert.Equal(t, SeverityError, info.Severity)
	assert.Contains(t, info.Label, "Failed: connection refused")
	assert.Contains(t, info.Label, "Overdue by 9h 20m")
}

func TestDeriveNeverScraped(t *testing.T) {
	tests := []struct {
		name string
		last *time.Time
	}{
		{name: "nil timestamp", last: nil},
		{name: "sentinel year", last: timePtr(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))},
		{name: "before sentinel year", last: timePtr(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := domain.ScrapingSource{ScrapingFrequency: 1440, LastScrapedAt: tt.last}
			info := Derive(src, now)
			assert.Equal(t, StateNeverScraped, info.State)
			assert.Equal(t, SeverityNeutral, info.Severity)
			assert.Equal(t, "Never scraped", info.Label)
		})
	}
}

func TestDeriveIsPure(t *testing.T) {
	src := sourceScrapedAgo(90*time.Minute, 1440)
	assert.Equal(t, Derive(src, now), Derive(src, now))
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "now"},
		{500 * time.Millisecond, "now"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{9*time.Hour + 20*time.Minute, "9h 20m"},
		{2*24*time.Hour + 3*time.Hour + 17*time.Minute, "2d 3h"},
		{24 * time.Hour, "1d"},
		{time.Hour + 5*time.Second, "1h 5s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatInterval(tt.d), "FormatInterval(%v)", tt.d)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
