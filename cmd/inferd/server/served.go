package server

import (
	"sync/atomic"
	"time"

	apimodels "github.com/modelyard/modelyard-api-types/models"
	"github.com/modelyard/modelyard/pkg/mlmodel"
)

// Served is a model answering predictions, with the version it came from.
type Served struct {
	Model   mlmodel.Model
	Version apimodels.VersionDetail

	// Since is when this model went live here.
	Since time.Time
}

// Source yields the model being served right now.
type Source interface {
	Current() (*Served, bool)
}

// Holder publishes a Served model to handlers.
//
// Swap is atomic. Requests in flight keep the model they started with,
// the next request sees the new one.
type Holder struct {
	p atomic.Pointer[Served]
}

func NewHolder() *Holder {
	return &Holder{}
}

func (h *Holder) Swap(s *Served) {
	h.p.Store(s)
}

func (h *Holder) Current() (*Served, bool) {
	s := h.p.Load()
	return s, s != nil
}

var _ Source = &Holder{}
