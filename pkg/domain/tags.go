package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard/pkg/utils"
	"github.com/modelyard/modelyard/pkg/utils/cmp"
)

const (
	// prefix of system tag keys.
	SystemTagPrefix string = "yard#"

	// tag key holding the id of the tagged item.
	KeyYardId string = SystemTagPrefix + "id"

	// tag key holding the creation timestamp of the tagged item.
	KeyYardTimestamp string = SystemTagPrefix + "timestamp"

	// tag key holding the lifecycle stage of a model version.
	KeyYardStage string = SystemTagPrefix + "stage"
)

// Tag is a key:value label on experiments, runs and models.
type Tag struct {
	Key   string
	Value string
}

// NewTag builds a Tag, validating the value when key is "yard#timestamp".
func NewTag(key, value string) (Tag, error) {
	if key == KeyYardTimestamp {
		if _, err := rfctime.ParseRFC3339(value); err != nil {
			return Tag{}, err
		}
	}
	return Tag{Key: key, Value: value}, nil
}

// NewTimestampTag builds the system tag spelling t in RFC3339.
func NewTimestampTag(t time.Time) Tag {
	return Tag{Key: KeyYardTimestamp, Value: rfctime.New(t).String()}
}

func (t Tag) String() string {
	return t.Key + ":" + t.Value
}

// Equal compares tags.
//
// Tags with key "yard#timestamp" are compared by time instant,
// not by spelling.
func (t Tag) Equal(other Tag) bool {
	if t.Key != other.Key {
		return false
	}
	if t.Key != KeyYardTimestamp {
		return t.Value == other.Value
	}

	tt, errT := rfctime.ParseRFC3339(t.Value)
	ot, errO := rfctime.ParseRFC3339(other.Value)
	return errT == nil && errO == nil && tt.Equiv(ot)
}

// TagSet is a sorted, deduped set of Tags.
type TagSet struct {
	tags []Tag
}

// NewTagSet dedupes and sorts tags.
//
// Tags with key "yard#timestamp" are deduped by the time instant they
// point at. The first spelling of each instant is kept.
// Values not parsable as timestamp are kept as they are and sorted
// after parsable ones.
func NewTagSet(tags []Tag) *TagSet {
	picked := []Tag{}
	for _, t := range tags {
		known := false
		for _, p := range picked {
			if p.Equal(t) {
				known = true
				break
			}
		}
		if !known {
			picked = append(picked, t)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		a, b := picked[i], picked[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Key == KeyYardTimestamp {
			ta, errA := rfctime.ParseRFC3339(a.Value)
			tb, errB := rfctime.ParseRFC3339(b.Value)
			switch {
			case errA == nil && errB == nil:
				return ta.Time().Before(tb.Time())
			case errA == nil:
				return true
			case errB == nil:
				return false
			}
		}
		return a.Value < b.Value
	})

	return &TagSet{tags: picked}
}

func (ts *TagSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.tags)
}

func (ts *TagSet) Slice() []Tag {
	if ts == nil {
		return []Tag{}
	}
	return ts.tags
}

// SystemTag returns tags which key is prefixed "yard#".
func (ts *TagSet) SystemTag() []Tag {
	return utils.Filter(ts.Slice(), func(t Tag) bool {
		return strings.HasPrefix(t.Key, SystemTagPrefix)
	})
}

// UserTag returns tags except system ones.
func (ts *TagSet) UserTag() []Tag {
	return utils.Filter(ts.Slice(), func(t Tag) bool {
		return !strings.HasPrefix(t.Key, SystemTagPrefix)
	})
}

func (ts *TagSet) Equal(other *TagSet) bool {
	return cmp.SliceContentEqWith(
		ts.Slice(), other.Slice(),
		func(a, b Tag) bool { return a.Equal(b) },
	)
}

func (ts *TagSet) String() string {
	tags := utils.Map(ts.Slice(), Tag.String)
	return "{" + strings.Join(tags, ", ") + "}"
}
