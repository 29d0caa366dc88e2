package domain

import (
	"errors"
	"fmt"
	"time"
)

// deployment slot of a release, in blue/green manner.
type Slot string

const (
	SlotBlue  Slot = "blue"
	SlotGreen Slot = "green"
)

func (s Slot) String() string {
	return string(s)
}

func AsSlot(slot string) (Slot, error) {
	switch slot {
	case string(SlotBlue):
		return SlotBlue, nil
	case string(SlotGreen):
		return SlotGreen, nil
	default:
		return "", fmt.Errorf("'%s' is not Slot", slot)
	}
}

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == SlotBlue {
		return SlotGreen
	}
	return SlotBlue
}

type ReleaseStatus string

const (
	// This release is planned but not serving yet.
	Staged ReleaseStatus = "staged"

	// This release is the one serving its environment.
	Live ReleaseStatus = "live"

	// This release has been replaced.
	Retired ReleaseStatus = "retired"
)

func (rs ReleaseStatus) String() string {
	return string(rs)
}

func AsReleaseStatus(status string) (ReleaseStatus, error) {
	switch status {
	case string(Staged):
		return Staged, nil
	case string(Live):
		return Live, nil
	case string(Retired):
		return Retired, nil
	default:
		return "", fmt.Errorf("'%s' is not ReleaseStatus", status)
	}
}

// Release binds a model version to a serving environment.
type Release struct {
	Id string

	// environment the release serves, like "prod" or "staging".
	Environment string

	ModelName string

	Version int

	// image reference the release runs, like "registry.invalid/inferd:v1.2".
	Image string

	// digest the Image resolved to when the release was planned.
	ImageDigest string

	Slot Slot

	Status ReleaseStatus

	CreatedAt time.Time

	UpdatedAt time.Time
}

func (r *Release) Equal(other *Release) bool {
	if (r == nil) || (other == nil) {
		return (r == nil) && (other == nil)
	}
	return r.Id == other.Id &&
		r.Environment == other.Environment &&
		r.ModelName == other.ModelName &&
		r.Version == other.Version &&
		r.Image == other.Image &&
		r.ImageDigest == other.ImageDigest &&
		r.Slot == other.Slot &&
		r.Status == other.Status &&
		r.CreatedAt.Equal(other.CreatedAt) &&
		r.UpdatedAt.Equal(other.UpdatedAt)
}

// parameter to plan a new Release.
type ReleaseSpec struct {
	Environment string
	ModelName   string
	Version     int
	Image       string
}

var (
	// only staged releases can go live.
	ErrReleaseNotStaged = errors.New("the release is not staged")
)
