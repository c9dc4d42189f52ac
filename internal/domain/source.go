package domain

import (
	"net/url"
	"strings"
	"time"
)

// SourceType enumerates the crawler strategies the backend supports.
type SourceType string

// Source types accepted by the backend.
const (
	SourceWebpage SourceType = "Webpage"
	SourceRss     SourceType = "Rss"
	SourceAPI     SourceType = "Api"
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceWebpage, SourceRss, SourceAPI:
		return true
	}
	return false
}

// Crawl configuration limits enforced by the backend.
const (
	MaxDegreesOfSeparation = 2
	// MinScrapingFrequency is the smallest crawl interval, in minutes,
	// the backend will schedule (once per day).
	MinScrapingFrequency = 1440
)

// ScrapingSource is a crawl target attached to a topic. The backend
// flips CurrentlyScraping, LastScrapedAt and LastError asynchronously;
// at most one crawl is in flight per source at a time.
type ScrapingSource struct {
	ID                   int        `json:"id"`
	TopicID              int        `json:"topic_id"`
	Name                 string     `json:"name"`
	BaseURL              string     `json:"base_url"`
	SourceType           SourceType `json:"source_type"`
	Description          string     `json:"description,omitempty"`
	DegreesOfSeparation  int        `json:"degrees_of_separation"`
	ScrapingFrequency    int        `json:"scraping_frequency"` // minutes
	IsActive             bool       `json:"is_active"`
	LastScrapedAt        *time.Time `json:"last_scraped_at"`
	CurrentlyScraping    bool       `json:"currently_scraping"`
	LastError            *string    `json:"last_error"`
	CreatedAt            time.Time  `json:"created_at"`
}

// SourceDraft is the payload for creating or updating a scraping
// source. TopicID is filled in by the mutation controller on create.
type SourceDraft struct {
	TopicID             int        `json:"topic_id,omitempty"`
	Name                string     `json:"name"`
	BaseURL             string     `json:"base_url"`
	SourceType          SourceType `json:"source_type"`
	Description         string     `json:"description,omitempty"`
	DegreesOfSeparation int        `json:"degrees_of_separation"`
	ScrapingFrequency   int        `json:"scraping_frequency"`
	IsActive            bool       `json:"is_active"`
}

// Validate applies the backend's field constraints client-side.
func (d SourceDraft) Validate() error {
	var errs FieldErrors

	name := strings.TrimSpace(d.Name)
	if name == "" {
		errs = append(errs, FieldError{Loc: "name", Msg: "name must not be empty"})
	}
	if len(name) > 200 {
		errs = append(errs, FieldError{Loc: "name", Msg: "name must be at most 200 characters"})
	}

	if d.BaseURL == "" {
		errs = append(errs, FieldError{Loc: "base_url", Msg: "base URL must not be empty"})
	} else if len(d.BaseURL) > 500 {
		errs = append(errs, FieldError{Loc: "base_url", Msg: "base URL must be at most 500 characters"})
	} else if u, err := url.Parse(d.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, FieldError{Loc: "base_url", Msg: "base URL must be a valid http(s) URL"})
	}

	if !d.SourceType.Valid() {
		errs = append(errs, FieldError{Loc: "source_type", Msg: "source type must be Webpage, Rss or Api"})
	}
	if d.DegreesOfSeparation < 0 || d.DegreesOfSeparation > MaxDegreesOfSeparation {
		errs = append(errs, FieldError{Loc: "degrees_of_separation", Msg: "degrees of separation must be between 0 and 2"})
	}
	if d.ScrapingFrequency < MinScrapingFrequency {
		errs = append(errs, FieldError{Loc: "scraping_frequency", Msg: "scraping frequency must be at least 1440 minutes"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
