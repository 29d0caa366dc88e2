package args

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	apitags "github.com/modelyard/modelyard-api-types/tags"
	"github.com/modelyard/modelyard/pkg/utils"
)

type Argslice []string

func (s *Argslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *Argslice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type Tags []apitags.Tag

func (t *Tags) String() string {
	if t == nil || len(*t) == 0 {
		return ""
	}

	return strings.Join(utils.Map(*t, apitags.Tag.String), " ")
}

func (t *Tags) Set(v string) error {
	var tag apitags.Tag
	if err := tag.Parse(v); err != nil {
		return err
	}
	*t = append(*t, tag)
	return nil
}

// OptionalLooseRFC3339 is a timestamp flag tracking whether it was given.
//
// Time returns nil until Set succeeds, so an absent flag and the zero
// time stay apart.
type OptionalLooseRFC3339 struct {
	v     time.Time
	isSet bool
}

func (t *OptionalLooseRFC3339) String() string {
	if t == nil || !t.isSet {
		return ""
	}
	return t.v.Format(rfctime.RFC3339DateTimeFormatZ)
}

func (t *OptionalLooseRFC3339) Set(v string) error {
	got, err := rfctime.ParseLooseRFC3339(v)
	if err != nil {
		return err
	}
	t.v = got.Time()
	t.isSet = true
	return nil
}

func (t *OptionalLooseRFC3339) Time() *time.Time {
	if t == nil || !t.isSet {
		return nil
	}
	return &t.v
}

type OptionalDuration struct {
	d     time.Duration
	isSet bool
}

func (t *OptionalDuration) String() string {
	if t == nil || !t.isSet {
		return ""
	}
	return t.d.String()
}

func (t *OptionalDuration) Set(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	t.d = d
	t.isSet = true
	return nil
}

func (t *OptionalDuration) Duration() *time.Duration {
	if t == nil || !t.isSet {
		return nil
	}
	return &t.d
}

type OptionalFloat struct {
	v     float64
	isSet bool
}

func (f *OptionalFloat) String() string {
	if f == nil || !f.isSet {
		return ""
	}
	return strconv.FormatFloat(f.v, 'f', -1, 64)
}

func (f *OptionalFloat) Set(v string) error {
	got, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("the value should be a number: %s", v)
	}
	f.v = got
	f.isSet = true
	return nil
}

func (f *OptionalFloat) Float() *float64 {
	if f == nil || !f.isSet {
		return nil
	}
	return &f.v
}
