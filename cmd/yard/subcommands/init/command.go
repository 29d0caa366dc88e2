package init

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	prof "github.com/modelyard/modelyard/cmd/yard/config/profiles"
	"github.com/modelyard/modelyard/cmd/yard/subcommands/common"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

const ARG_YARD_PROFILE_FILE = "YARD_PROFILE_FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Initialize this directory as a modelyard-powered project.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_YARD_PROFILE_FILE, Required: true,
				Help: "filepath to yardprofile file, which you received from your admin.",
			},
		},
		common.NewTaskWithCommonFlag(Task()),
		flarc.WithDescription(`
Register a new yardprofile into your profile store.

"yardprofile" is a file which contains information about a modelyard server.
"{{ .Command }}" registers the given yardprofile into your profile store.

The name of the profile is given by "--profile" ( default: current filepath ).
`),
	)
}

func Task() common.YardTaskWithCommonFlag[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		profFile := cl.Args()[ARG_YARD_PROFILE_FILE][0]

		profStore, err := prof.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, prof.ErrProfileStoreNotFound) {
			// ok.
			profStore = prof.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf(
				"%w: failed to load profile store (%s)", err, cf.ProfileStore,
			)
		}

		profName := cf.Profile
		newProf := new(prof.YardProfile)
		{
			content, err := os.ReadFile(profFile)
			if err != nil {
				return fmt.Errorf(
					"%w: failed to read profile file (%s)", err, profFile,
				)
			}

			if err := yaml.Unmarshal(content, newProf); err != nil {
				return fmt.Errorf(
					"%w: failed to parse profile file (%s)", err, profFile,
				)
			}
		}
		if err := newProf.Verify(); err != nil {
			return fmt.Errorf("%w: %s", err, profFile)
		}

		profStore[profName] = newProf
		if err := profStore.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf(
				"%w: failed to save profile store (%s)", err, cf.ProfileStore,
			)
		}
		logger.Printf(
			"profile %s is saved to %s", profName, cf.ProfileStore,
		)

		{
			f, err := os.OpenFile(".yardprofile", os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(0600))
			if err != nil {
				return fmt.Errorf("%w: failed to open .yardprofile", err)
			}
			defer f.Close()
			f.Write([]byte(profName))
		}

		return nil
	}
}
