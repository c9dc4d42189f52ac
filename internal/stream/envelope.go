package stream

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope types emitted by the push channel.
const (
	typeScrapingUpdate = "scraping_update"
	typeEventUpdate    = "event_update"
)

// Envelope is one decoded push-channel message. Payload stays raw
// until the type tag has been inspected; unknown tags are dropped at
// the boundary rather than surfaced as errors.
type Envelope struct {
	Type    string          `json:"type"`
	TopicID flexInt         `json:"topic_id"`
	Payload json.RawMessage `json:"payload"`
}

// flexInt tolerates a topic id serialized as either a JSON number or
// a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("topic_id is neither number nor string: %s", data)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parse topic_id %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}
