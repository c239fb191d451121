// Package file loads a DigitalProductId from a hex dump or .reg export.
package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/d21d3q/gowinkey/internal/options"
	"github.com/d21d3q/gowinkey/internal/source"
)

// Name is the prefix used for snapshots loaded from disk.
const Name = "file"

// Source reads a single file on every Fetch.
type Source struct {
	Path string
}

var _ source.Source = Source{}

// New returns a source reading path.
func New(path string) Source {
	return Source{Path: path}
}

// Name implements source.Source.
func (s Source) Name() string {
	return Name + ":" + filepath.Base(s.Path)
}

// Fetch implements source.Source.
func (s Source) Fetch(ctx context.Context) (source.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return source.Snapshot{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return source.Snapshot{}, fmt.Errorf("read %s: %w", s.Path, err)
	}
	text := string(data)
	raw, err := options.ParseRecordHex(text)
	if err != nil {
		return source.Snapshot{}, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	snap := source.Snapshot{
		Source:           s.Name(),
		DigitalProductID: raw,
	}
	values := regStringValues(text)
	snap.ProductName = values["ProductName"]
	snap.EditionID = values["EditionID"]
	snap.DisplayVersion = values["DisplayVersion"]
	snap.CurrentBuild = values["CurrentBuild"]
	snap.ProductID = values["ProductId"]
	return snap, nil
}

// regStringValues collects "Name"="value" lines of a .reg export.
func regStringValues(text string) map[string]string {
	values := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, `"`) {
			continue
		}
		name, value, ok := strings.Cut(line[1:], `"="`)
		if !ok || !strings.HasSuffix(value, `"`) {
			continue
		}
		value = strings.TrimSuffix(value, `"`)
		values[name] = strings.ReplaceAll(value, `\\`, `\`)
	}
	return values
}
