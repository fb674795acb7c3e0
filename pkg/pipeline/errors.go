package pipeline

import (
	"context"
	"errors"

	"github.com/matzehuels/workgraph/pkg/cache"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	"github.com/matzehuels/workgraph/pkg/serialization"
)

// Classify attaches a [wgerrors.Code] to errors returned by a [Runner] so
// the CLI and the HTTP API report them the same way. Errors that already
// carry a code, and nil, are returned unchanged.
func Classify(err error) error {
	if err == nil || wgerrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, ErrCacheInvalid):
		return wgerrors.Wrap(wgerrors.ErrCodeCacheInvalid, err, "stored graph is unusable and was discarded")
	case serialization.IsCorrupt(err):
		return wgerrors.Wrap(wgerrors.ErrCodeCorruptGraph, err, "corrupt work graph: %v", err)
	case errors.Is(err, context.DeadlineExceeded):
		return wgerrors.Wrap(wgerrors.ErrCodeTimeout, err, "cache backend timed out")
	case errors.Is(err, cache.ErrNetwork):
		return wgerrors.Wrap(wgerrors.ErrCodeNetwork, err, "cache backend unreachable")
	}
	return wgerrors.Wrap(wgerrors.ErrCodeInternal, err, "%v", err)
}
