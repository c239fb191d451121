//go:build !windows

package winreg

import (
	"context"

	"github.com/d21d3q/gowinkey/internal/source"
)

func fetch(context.Context) (source.Snapshot, error) {
	return source.Snapshot{}, source.ErrUnsupported
}
