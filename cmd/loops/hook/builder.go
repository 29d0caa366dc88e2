package hook

import (
	cfg_hook "github.com/modelyard/modelyard/pkg/configs/hook"
)

// Build makes a Web hook from the webhook section of the hook config file.
func Build[T any, R any](cfg cfg_hook.WebHook, merge func(a, b R) R) Web[T, R] {
	return Web[T, R]{
		BeforeURL: cfg.Before,
		AfterURL:  cfg.After,
		Merge:     merge,
	}
}
