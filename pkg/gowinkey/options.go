package gowinkey

import (
	"context"

	internalopts "github.com/d21d3q/gowinkey/internal/options"
)

// DecodeOptions configures decoding.
type DecodeOptions struct {
	// PartialKey is the five symbol fallback shown when no record is available.
	PartialKey string
}

func (opts DecodeOptions) toInternal(ctx context.Context) (context.Context, error) {
	key, err := internalopts.ParsePartialKey(opts.PartialKey)
	if err != nil {
		return ctx, err
	}
	return internalopts.WithPartialKey(ctx, key), nil
}
