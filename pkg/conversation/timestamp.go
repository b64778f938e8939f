package conversation

import (
	"encoding/json"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	isoLayout     = "2006-01-02T15:04:05.999999"
	displayLayout = "2006-01-02 15:04"
)

// Timestamp is the creation time of a record. History files written by other
// tools may carry naive ISO-8601 strings without a zone (interpreted as UTC)
// or values that do not parse at all; the latter are kept verbatim so that a
// rewrite of the store does not lose them.
type Timestamp struct {
	Time time.Time
	Raw  string
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range []string{time.RFC3339Nano, isoLayout, "2006-01-02 15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}
		}
	}
	return Timestamp{Raw: s}
}

func (t Timestamp) IsZero() bool {
	return t.Time.IsZero() && t.Raw == ""
}

func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return t.Raw
	}
	return t.Time.UTC().Format(time.RFC3339Nano)
}

// Display formats the timestamp for lists: minutes precision, the raw text if
// it never parsed, "-" if missing.
func (t Timestamp) Display() string {
	if !t.Time.IsZero() {
		return t.Time.UTC().Format(displayLayout)
	}
	if t.Raw != "" {
		return t.Raw
	}
	return "-"
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// numbers and other scalars are kept as text
		*t = Timestamp{Raw: strings.TrimSpace(string(b))}
		return nil
	}
	*t = ParseTimestamp(s)
	return nil
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	*t = ParseTimestamp(value.Value)
	return nil
}
