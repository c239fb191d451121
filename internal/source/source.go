package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/d21d3q/gowinkey/internal/license"
)

var (
	// ErrUnsupported is returned by sources that cannot run on this platform.
	ErrUnsupported = errors.New("source not supported on this platform")
	// ErrNotFound is returned by Lookup for unregistered names.
	ErrNotFound = errors.New("source not registered")
	// ErrNoData is returned by Collect when no source produced a snapshot.
	ErrNoData = errors.New("no source returned licensing data")
)

// Snapshot is the licensing metadata returned by a single fetch. It is not
// cached; callers pass it on as a plain value.
type Snapshot struct {
	Source            string
	ProductName       string
	EditionID         string
	DisplayVersion    string
	CurrentBuild      string
	ProductID         string
	DigitalProductID  []byte
	PartialProductKey string
	LicenseStatus     license.Status
	HasLicenseStatus  bool
}

// Empty reports whether the snapshot carries no data at all.
func (s Snapshot) Empty() bool {
	return s.ProductName == "" && s.EditionID == "" && s.DisplayVersion == "" &&
		s.CurrentBuild == "" && s.ProductID == "" && len(s.DigitalProductID) == 0 &&
		s.PartialProductKey == "" && !s.HasLicenseStatus
}

// Source supplies licensing metadata from one backend.
type Source interface {
	Name() string
	Fetch(context.Context) (Snapshot, error)
}

var (
	regMu    sync.RWMutex
	registry = map[string]Source{}
)

// Register stores a source under its name, replacing any previous entry.
func Register(src Source) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[src.Name()] = src
}

// Lookup returns the source registered under name.
func Lookup(name string) (Source, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	src, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return src, nil
}

// Names lists the registered sources in sorted order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up every name, keeping the given order.
func Resolve(names []string) ([]Source, error) {
	out := make([]Source, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		src, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// Collect fetches all sources concurrently and merges their snapshots in
// argument order. Individual failures are logged; an error is returned only
// when nothing could be collected.
func Collect(ctx context.Context, log logrus.FieldLogger, sources ...Source) (Snapshot, error) {
	results := make([]Snapshot, len(sources))
	errs := make([]error, len(sources))

	var eg errgroup.Group
	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			entry := log.WithField("source", src.Name())
			snap, err := src.Fetch(ctx)
			if err != nil {
				if errors.Is(err, ErrUnsupported) {
					entry.Debug("source unsupported, skipping")
				} else {
					entry.WithError(err).Warn("source fetch failed")
				}
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			if snap.Source == "" {
				snap.Source = src.Name()
			}
			entry.Debug("source fetched")
			results[i] = snap
			return nil
		})
	}
	_ = eg.Wait()

	merged := Merge(results...)
	if merged.Empty() {
		if err := errors.Join(errs...); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", ErrNoData, err)
		}
		return Snapshot{}, ErrNoData
	}
	return merged, nil
}

// Merge combines snapshots; the first non-empty value of every field wins.
func Merge(snaps ...Snapshot) Snapshot {
	var out Snapshot
	var names []string
	for _, s := range snaps {
		if s.Empty() {
			continue
		}
		if s.Source != "" {
			names = append(names, s.Source)
		}
		setString(&out.ProductName, s.ProductName)
		setString(&out.EditionID, s.EditionID)
		setString(&out.DisplayVersion, s.DisplayVersion)
		setString(&out.CurrentBuild, s.CurrentBuild)
		setString(&out.ProductID, s.ProductID)
		setString(&out.PartialProductKey, s.PartialProductKey)
		if len(out.DigitalProductID) == 0 && len(s.DigitalProductID) > 0 {
			out.DigitalProductID = append([]byte(nil), s.DigitalProductID...)
		}
		if !out.HasLicenseStatus && s.HasLicenseStatus {
			out.LicenseStatus = s.LicenseStatus
			out.HasLicenseStatus = true
		}
	}
	out.Source = strings.Join(names, "+")
	return out
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
