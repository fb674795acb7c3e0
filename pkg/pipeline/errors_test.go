package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matzehuels/workgraph/pkg/cache"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	"github.com/matzehuels/workgraph/pkg/serialization"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want wgerrors.Code
	}{
		{"CacheInvalid", fmt.Errorf("load k: %w", ErrCacheInvalid), wgerrors.ErrCodeCacheInvalid},
		{"Corrupt", &serialization.CorruptionError{Offset: 3, Reason: "bad tag"}, wgerrors.ErrCodeCorruptGraph},
		{"Timeout", fmt.Errorf("%w: %w", cache.ErrNetwork, context.DeadlineExceeded), wgerrors.ErrCodeTimeout},
		{"Network", fmt.Errorf("redis get k: %w", cache.ErrNetwork), wgerrors.ErrCodeNetwork},
		{"Other", errors.New("boom"), wgerrors.ErrCodeInternal},
		{"AlreadyCoded", wgerrors.New(wgerrors.ErrCodeNotFound, "missing"), wgerrors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if code := wgerrors.GetCode(got); code != tt.want {
				t.Errorf("code = %s, want %s", code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
