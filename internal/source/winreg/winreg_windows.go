//go:build windows

package winreg

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/d21d3q/gowinkey/internal/source"
)

func fetch(_ context.Context) (source.Snapshot, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, currentVersionKey, registry.QUERY_VALUE|registry.WOW64_64KEY)
	if err != nil {
		return source.Snapshot{}, fmt.Errorf("opening registry key '%s': %w", currentVersionKey, err)
	}
	defer k.Close()

	snap := source.Snapshot{Source: Name}
	values := []struct {
		name string
		dst  *string
	}{
		{valueProductName, &snap.ProductName},
		{valueEditionID, &snap.EditionID},
		{valueDisplayVersion, &snap.DisplayVersion},
		{valueCurrentBuild, &snap.CurrentBuild},
		{valueProductID, &snap.ProductID},
	}
	for _, s := range values {
		val, _, err := k.GetStringValue(s.name)
		if err != nil && !errors.Is(err, registry.ErrNotExist) {
			return source.Snapshot{}, fmt.Errorf("reading registry value '%s': %w", s.name, err)
		}
		*s.dst = val
	}

	raw, _, err := k.GetBinaryValue(valueDigitalProductID)
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return source.Snapshot{}, fmt.Errorf("reading registry value '%s': %w", valueDigitalProductID, err)
	}
	snap.DigitalProductID = raw
	return snap, nil
}
