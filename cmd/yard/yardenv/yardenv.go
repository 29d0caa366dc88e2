package yardenv

import (
	"os"

	apitags "github.com/modelyard/modelyard-api-types/tags"
	"gopkg.in/yaml.v3"
)

// YardEnv is per-project defaults, read from a "yardenv" file.
type YardEnv struct {
	// Experiment is the experiment which tracked runs are created under
	// when no experiment is named explicitly.
	Experiment string `yaml:"experiment"`

	// Tag is put on each run created from this project.
	Tag []apitags.Tag `yaml:"tag"`
}

func New() *YardEnv {
	return new(YardEnv)
}

func (ye *YardEnv) Tags() []apitags.Tag {
	return ye.Tag
}

// LoadYardEnv reads a yardenv file.
//
// An unreadable file yields an empty YardEnv without error, so commands
// work outside of any project directory.
func LoadYardEnv(filepath string) (*YardEnv, error) {

	env := YardEnv{}

	content, err := os.ReadFile(filepath)
	if err != nil {
		return &env, nil
	}

	err = yaml.Unmarshal(content, &env)
	if err != nil {
		return nil, err
	}

	return &env, nil
}
