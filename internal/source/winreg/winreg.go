// Package winreg reads licensing values from the local Windows registry.
package winreg

import (
	"context"

	"github.com/d21d3q/gowinkey/internal/source"
)

// Name is the registry name of this source.
const Name = "registry"

const (
	currentVersionKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion`

	valueProductName      = "ProductName"
	valueEditionID        = "EditionID"
	valueDisplayVersion   = "DisplayVersion"
	valueCurrentBuild     = "CurrentBuild"
	valueProductID        = "ProductId"
	valueDigitalProductID = "DigitalProductId"
)

func init() {
	source.Register(Source{})
}

// Source reads HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion.
type Source struct{}

var _ source.Source = Source{}

// Name implements source.Source.
func (Source) Name() string { return Name }

// Fetch implements source.Source.
func (Source) Fetch(ctx context.Context) (source.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return source.Snapshot{}, err
	}
	return fetch(ctx)
}
