//go:build !windows

package wmiquery

import (
	"context"

	"github.com/d21d3q/gowinkey/internal/source"
)

func fetch(context.Context) (source.Snapshot, error) {
	return source.Snapshot{}, source.ErrUnsupported
}
