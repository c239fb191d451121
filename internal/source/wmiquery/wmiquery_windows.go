//go:build windows

package wmiquery

import (
	"context"
	"fmt"

	"github.com/StackExchange/wmi"

	"github.com/d21d3q/gowinkey/internal/source"
)

func fetch(ctx context.Context) (source.Snapshot, error) {
	var products []softwareLicensingProduct
	if err := queryContext(ctx, licensingQuery, &products); err != nil {
		return source.Snapshot{}, fmt.Errorf("failed to query SoftwareLicensingProduct: %w", err)
	}
	var systems []win32OperatingSystem
	if err := queryContext(ctx, osQuery, &systems); err != nil {
		return source.Snapshot{}, fmt.Errorf("failed to query Win32_OperatingSystem: %w", err)
	}
	return snapshotFrom(products, systems), nil
}

// queryContext runs a WMI query, returning early when ctx is done. The
// licensing provider can take several seconds to answer.
func queryContext(ctx context.Context, query string, dst any) error {
	done := make(chan error, 1)
	go func() {
		done <- wmi.Query(query, dst)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
