package queries

import (
	"context"

	"github.com/candelhealth/srbridge/internal/service/srbridge/canonical"
)

type GetCanonicalQuery struct {
	Record canonical.Record
}

type GetCanonicalResult struct {
	Record canonical.Record
}

type GetCanonicalQueryHandler interface {
	Handle(ctx context.Context, query GetCanonicalQuery) (GetCanonicalResult, error)
}

func NewGetCanonicalQueryHandler() GetCanonicalQueryHandler {
	return &getCanonicalQueryHandler{}
}

type getCanonicalQueryHandler struct {
}

// Handle gates the record through shape validation and echoes it back.
// This backs the "json" output mode, which exposes the canonical form
// without composing any message.
func (h *getCanonicalQueryHandler) Handle(ctx context.Context, query GetCanonicalQuery) (GetCanonicalResult, error) {
	if err := query.Record.Validate(); err != nil {
		return GetCanonicalResult{}, err
	}
	return GetCanonicalResult{Record: query.Record}, nil
}
