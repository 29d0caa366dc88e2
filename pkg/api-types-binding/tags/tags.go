package tags

import (
	apitags "github.com/modelyard/modelyard-api-types/tags"
	"github.com/modelyard/modelyard/pkg/domain"
)

func Compose(dt domain.Tag) apitags.Tag {
	return apitags.Tag{Key: dt.Key, Value: dt.Value}
}
