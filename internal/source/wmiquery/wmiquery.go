// Package wmiquery reads activation state from the Software Licensing
// service through WMI.
package wmiquery

import (
	"context"
	"strings"

	"github.com/d21d3q/gowinkey/internal/license"
	"github.com/d21d3q/gowinkey/internal/source"
)

// Name is the registry name of this source.
const Name = "wmi"

// windowsApplicationID filters SoftwareLicensingProduct down to Windows itself.
const windowsApplicationID = "55c92734-d682-4d71-983e-d6ec3f16059f"

const (
	licensingQuery = "SELECT Name, Description, PartialProductKey, LicenseStatus FROM SoftwareLicensingProduct " +
		"WHERE ApplicationID = '" + windowsApplicationID + "' AND PartialProductKey IS NOT NULL"
	osQuery = "SELECT Caption, BuildNumber FROM Win32_OperatingSystem"
)

type softwareLicensingProduct struct {
	Name              string
	Description       string
	PartialProductKey string
	LicenseStatus     uint32
}

type win32OperatingSystem struct {
	Caption     string
	BuildNumber string
}

func init() {
	source.Register(Source{})
}

// Source queries SoftwareLicensingProduct and Win32_OperatingSystem.
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

// snapshotFrom picks the licensed product if there is one, otherwise the
// first product that exposes a partial key.
func snapshotFrom(products []softwareLicensingProduct, systems []win32OperatingSystem) source.Snapshot {
	snap := source.Snapshot{Source: Name}
	var chosen *softwareLicensingProduct
	for i := range products {
		p := &products[i]
		if strings.TrimSpace(p.PartialProductKey) == "" {
			continue
		}
		if chosen == nil || (license.Status(p.LicenseStatus).Activated() && !license.Status(chosen.LicenseStatus).Activated()) {
			chosen = p
		}
	}
	if chosen != nil {
		snap.PartialProductKey = strings.ToUpper(strings.TrimSpace(chosen.PartialProductKey))
		snap.LicenseStatus = license.Status(chosen.LicenseStatus)
		snap.HasLicenseStatus = true
	}
	if len(systems) > 0 {
		snap.ProductName = strings.TrimSpace(systems[0].Caption)
		snap.CurrentBuild = strings.TrimSpace(systems[0].BuildNumber)
	}
	return snap
}
