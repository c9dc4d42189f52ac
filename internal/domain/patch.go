package domain

import (
	"encoding/json"
	"time"
)

// SourcePatch is a partial ScrapingSource update as delivered by the
// push channel. Pointer fields distinguish "absent" from zero so a
// patch only overwrites the fields it explicitly carries; fields the
// payload omits keep their cached value regardless of arrival order.
type SourcePatch struct {
	ID                  int         `json:"id"`
	Name                *string     `json:"name,omitempty"`
	BaseURL             *string     `json:"base_url,omitempty"`
	SourceType          *SourceType `json:"source_type,omitempty"`
	Description         *string     `json:"description,omitempty"`
	DegreesOfSeparation *int        `json:"degrees_of_separation,omitempty"`
	ScrapingFrequency   *int        `json:"scraping_frequency,omitempty"`
	IsActive            *bool       `json:"is_active,omitempty"`
	LastScrapedAt       *time.Time  `json:"last_scraped_at,omitempty"`
	CurrentlyScraping   *bool       `json:"currently_scraping,omitempty"`
	LastError           *string     `json:"last_error,omitempty"`

	// lastErrorPresent distinguishes `"last_error": null` (a successful
	// crawl clearing a previous failure) from the key being absent.
	lastErrorPresent bool
}

// UnmarshalJSON records whether last_error was present in the payload,
// since a null there clears the cached error rather than keeping it.
func (p *SourcePatch) UnmarshalJSON(data []byte) error {
	type alias SourcePatch
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, a.lastErrorPresent = keys["last_error"]
	*p = SourcePatch(a)
	return nil
}

// Apply merges the patch into src, field by field. Applying the same
// patch twice yields the same result as applying it once.
func (p SourcePatch) Apply(src ScrapingSource) ScrapingSource {
	if p.Name != nil {
		src.Name = *p.Name
	}
	if p.BaseURL != nil {
		src.BaseURL = *p.BaseURL
	}
	if p.SourceType != nil {
		src.SourceType = *p.SourceType
	}
	if p.Description != nil {
		src.Description = *p.Description
	}
	if p.DegreesOfSeparation != nil {
		src.DegreesOfSeparation = *p.DegreesOfSeparation
	}
	if p.ScrapingFrequency != nil {
		src.ScrapingFrequency = *p.ScrapingFrequency
	}
	if p.IsActive != nil {
		src.IsActive = *p.IsActive
	}
	if p.LastScrapedAt != nil {
		t := *p.LastScrapedAt
		src.LastScrapedAt = &t
	}
	if p.CurrentlyScraping != nil {
		src.CurrentlyScraping = *p.CurrentlyScraping
	}
	if p.lastErrorPresent {
		src.LastError = nil
		if p.LastError != nil {
			e := *p.LastError
			src.LastError = &e
		}
	}
	return src
}

// SetLastError marks the patch as carrying last_error, with nil
// clearing any cached error on apply.
func (p *SourcePatch) SetLastError(msg *string) {
	p.LastError = msg
	p.lastErrorPresent = true
}

// DecodeSourcePatch parses a push-channel payload into a SourcePatch.
func DecodeSourcePatch(data []byte) (SourcePatch, error) {
	var p SourcePatch
	err := json.Unmarshal(data, &p)
	return p, err
}
