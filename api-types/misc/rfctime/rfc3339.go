package rfctime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Format string for date-time in RFC3339, spelling the offset out instead of "Z".
//
// Use it to stringify time.Time for wire payloads and lockfiles.
const RFC3339DateTimeFormat string = "2006-01-02T15:04:05.999-07:00"

// Format string for date-time in RFC3339, accepting "Z" as time-offset.
const RFC3339DateTimeFormatZ string = time.RFC3339Nano

// Abbreviated forms accepted by ParseLooseRFC3339.
//
// Each resolution comes in "T"-separated and space-separated spelling,
// with and without a zone offset.
const (
	RFC3339DateSec       = "2006-01-02T15:04:05"
	RFC3339DateSecZ      = "2006-01-02T15:04:05Z07:00"
	RFC3339DateSecSpace  = "2006-01-02 15:04:05"
	RFC3339DateSecZSpace = "2006-01-02 15:04:05Z07:00"

	RFC3339DateMin       = "2006-01-02T15:04"
	RFC3339DateMinZ      = "2006-01-02T15:04Z07:00"
	RFC3339DateMinSpace  = "2006-01-02 15:04"
	RFC3339DateMinZSpace = "2006-01-02 15:04Z07:00"

	RFC3339DateOnly  = "2006-01-02"
	RFC3339DateOnlyZ = "2006-01-02Z07:00"
)

// date-time in https://www.ietf.org/rfc/rfc3339.txt .
//
// This type is interchanged as a string over network and files,
// and compares by instant, not by spelling.
type RFC3339 time.Time

func New(t time.Time) RFC3339 {
	return RFC3339(t)
}

func (t RFC3339) Time() time.Time {
	return time.Time(t)
}

func (t RFC3339) Equal(other RFC3339) bool {
	return t.Time().Equal(other.Time())
}

// Equiv returns true if this and other point the same instant.
// A nil other is equivalent to anything.
func (t RFC3339) Equiv(other interface{ Time() time.Time }) bool {
	return other == nil || t.Time().Equal(other.Time())
}

func (t RFC3339) String() string {
	return time.Time(t).Format(RFC3339DateTimeFormat)
}

// ParseRFC3339 parses the strict RFC3339 date-time spelling.
func ParseRFC3339(s string) (RFC3339, error) {
	t, err := time.Parse(RFC3339DateTimeFormatZ, s)
	if err != nil {
		return *new(RFC3339), err
	}
	return RFC3339(t), nil
}

// ParseLooseRFC3339 parses s trying abbreviated forms of RFC3339 date-time,
// down to date-only. Spellings without a zone offset are taken as local time.
func ParseLooseRFC3339(s string) (RFC3339, error) {
	withZone := []string{
		RFC3339DateTimeFormatZ,
		RFC3339DateSecZ, RFC3339DateSecZSpace,
		RFC3339DateMinZ, RFC3339DateMinZSpace,
		RFC3339DateOnlyZ,
	}
	for _, format := range withZone {
		if t, err := time.Parse(format, s); err == nil {
			return RFC3339(t), nil
		}
	}

	location, err := time.LoadLocation("Local")
	if err != nil {
		return RFC3339{}, err
	}

	withoutZone := []string{
		RFC3339DateSec, RFC3339DateSecSpace,
		RFC3339DateMin, RFC3339DateMinSpace,
		RFC3339DateOnly,
	}
	for _, format := range withoutZone {
		if t, err := time.ParseInLocation(format, s, location); err == nil {
			return RFC3339(t), nil
		}
	}

	return RFC3339{}, fmt.Errorf("failed to parse %s", s)
}

func (t RFC3339) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, t)), nil
}

func (t *RFC3339) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	ret, err := ParseRFC3339(s)
	if err != nil {
		return err
	}

	*t = ret
	return nil
}

func (t RFC3339) MarshalYAML() (interface{}, error) {
	n := yaml.Node{
		Kind:  yaml.ScalarNode,
		Value: t.String(),
		Style: yaml.DoubleQuotedStyle,
	}
	return n, nil
}

func (t *RFC3339) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	ret, err := ParseLooseRFC3339(s)
	if err != nil {
		return err
	}

	*t = ret
	return nil
}
