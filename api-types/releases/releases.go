package releases

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"gopkg.in/yaml.v3"
)

// Slot is the blue/green lane a release occupies in its environment.
type Slot string

const (
	SlotBlue  Slot = "blue"
	SlotGreen Slot = "green"
)

func (s Slot) String() string {
	return string(s)
}

func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotBlue, SlotGreen:
		return Slot(s), nil
	}
	return "", fmt.Errorf("unknown slot: %s", s)
}

// Status of a release.
type Status string

const (
	StatusStaged  Status = "staged"
	StatusLive    Status = "live"
	StatusRetired Status = "retired"
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusStaged, StatusLive, StatusRetired:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown release status: %s", s)
}

// Image is a container image reference, repository and tag.
type Image struct {
	Repository string
	Tag        string
}

func (i *Image) Equal(o *Image) bool {
	if (i == nil) || (o == nil) {
		return (i == nil) && (o == nil)
	}
	return i.Repository == o.Repository &&
		i.Tag == o.Tag
}

// parse string as Image Tag, and update itself.
//
// this spec is based on docker image tag spec[^1].
//
// [^1]: https://docs.docker.com/engine/reference/commandline/tag/#description
func (i *Image) Parse(s string) error {
	// [<repository>[:<port>]/]<name>:<tag>

	ref, err := name.NewTag(s, name.WithDefaultRegistry(""))
	if err != nil {
		return err
	}

	i.Repository = ref.Repository.Name()
	i.Tag = ref.TagStr()
	return nil
}

func (i *Image) marshal() string {
	if i.Repository == "" && i.Tag == "" {
		return ""
	}
	return fmt.Sprintf(`%s:%s`, i.Repository, i.Tag)
}

func (i Image) MarshalJSON() ([]byte, error) {
	b := bytes.NewBufferString(`"`)
	b.WriteString(i.marshal())
	b.WriteString(`"`)
	return b.Bytes(), nil
}

func (i Image) MarshalYAML() (interface{}, error) {
	n := yaml.Node{
		Kind:  yaml.ScalarNode,
		Value: i.marshal(),
		Style: yaml.DoubleQuotedStyle,
	}
	return n, nil
}

func (i *Image) UnmarshalYAML(node *yaml.Node) error {
	expr := new(string)
	if err := node.Decode(expr); err != nil {
		return err
	}
	return i.Parse(*expr)
}

func (i *Image) UnmarshalJSON(b []byte) error {
	expr := new(string)
	if err := json.Unmarshal(b, expr); err != nil {
		return err
	}
	return i.Parse(*expr)
}

func (i *Image) String() string {
	return i.marshal()
}

type Summary struct {
	ReleaseId   string          `json:"releaseId"`
	Environment string          `json:"environment"`
	Model       string          `json:"model"`
	Version     int             `json:"version"`
	Slot        Slot            `json:"slot"`
	Status      Status          `json:"status"`
	UpdatedAt   rfctime.RFC3339 `json:"updatedAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.ReleaseId == o.ReleaseId &&
		s.Environment == o.Environment &&
		s.Model == o.Model &&
		s.Version == o.Version &&
		s.Slot == o.Slot &&
		s.Status == o.Status &&
		s.UpdatedAt.Equal(o.UpdatedAt)
}

type Detail struct {
	Summary
	Image Image `json:"image"`

	// ImageDigest pins the image content the release ships,
	// independent of where its tag moves later.
	ImageDigest string          `json:"imageDigest"`
	CreatedAt   rfctime.RFC3339 `json:"createdAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		d.Image.Equal(&o.Image) &&
		d.ImageDigest == o.ImageDigest &&
		d.CreatedAt.Equal(o.CreatedAt)
}

// Spec is the request body to stage a release.
type Spec struct {
	Environment string `json:"environment"`
	Model       string `json:"model"`
	Version     int    `json:"version"`
	Image       Image  `json:"image"`
	ImageDigest string `json:"imageDigest"`
}
