package tokens

import (
	"time"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"github.com/modelyard/modelyard-api-types/tokens"
	"github.com/modelyard/modelyard/pkg/domain"
)

func ComposeSummary(t domain.ApiToken) tokens.Summary {
	return tokens.Summary{
		TokenId:    t.Id,
		Name:       t.Name,
		CreatedAt:  rfctime.New(t.CreatedAt),
		ExpiresAt:  composeTime(t.ExpiresAt),
		LastUsedAt: composeTime(t.LastUsedAt),
		RevokedAt:  composeTime(t.RevokedAt),
	}
}

func composeTime(t *time.Time) *rfctime.RFC3339 {
	if t == nil {
		return nil
	}
	rt := rfctime.New(*t)
	return &rt
}
