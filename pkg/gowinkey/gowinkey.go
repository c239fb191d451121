package gowinkey

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/d21d3q/gowinkey/internal/keydecoder"
	"github.com/d21d3q/gowinkey/internal/options"
	"github.com/d21d3q/gowinkey/internal/record"
	"github.com/d21d3q/gowinkey/internal/source"
	_ "github.com/d21d3q/gowinkey/internal/source/winreg"   // register source
	_ "github.com/d21d3q/gowinkey/internal/source/wmiquery" // register source
)

// ErrRecordTooShort is returned when no usable record and no fallback key
// are available.
var ErrRecordTooShort = keydecoder.ErrRecordTooShort

const maskedPrefix = "XXXXX-XXXXX-XXXXX-XXXXX-"

// Result captures the outcome of a decode.
type Result struct {
	Source    string
	RawHex    string
	ByteCount int
	Record    *record.Record
	Key       string
	// Formatted is false for keys returned as the raw 25 symbol string.
	Formatted bool
	Extended  bool
	// Masked is true when Key was built from the partial fallback key.
	Masked    bool
	Fields    map[string]any
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"source":     r.Source,
		"key":        r.Key,
		"formatted":  r.Formatted,
		"extended":   r.Extended,
		"masked":     r.Masked,
		"byte_count": r.ByteCount,
	}
	if r.RawHex != "" {
		summary["raw_hex"] = r.RawHex
	}
	if r.Record != nil {
		summary["product_id"] = r.Record.ProductID
		summary["record_version"] = r.Record.Version()
		summary["flag"] = fmt.Sprintf("0x%02X", r.Record.Flag)
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.Fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("source: %s key: %s (marshal error: %v)", r.Source, r.Key, err)
	}
	return string(data)
}

// DecodeHex decodes a hex encoded DigitalProductId.
func DecodeHex(ctx context.Context, raw string) (Result, error) {
	return DecodeHexWithOptions(ctx, raw, DecodeOptions{})
}

// DecodeHexWithOptions decodes a hex or .reg encoded record with custom options.
func DecodeHexWithOptions(ctx context.Context, raw string, opts DecodeOptions) (Result, error) {
	data, err := options.ParseRecordHex(raw)
	if err != nil {
		return Result{}, err
	}
	return DecodeBytes(ctx, data, opts)
}

// DecodeBytes decodes a raw DigitalProductId.
func DecodeBytes(ctx context.Context, data []byte, opts DecodeOptions) (Result, error) {
	return FromSnapshot(ctx, source.Snapshot{Source: "input", DigitalProductID: data}, opts)
}

// FromSystem collects licensing data from the named sources and decodes it.
func FromSystem(ctx context.Context, log logrus.FieldLogger, names []string, opts DecodeOptions) (Result, error) {
	srcs, err := source.Resolve(names)
	if err != nil {
		return Result{}, err
	}
	snap, err := source.Collect(ctx, log, srcs...)
	if err != nil {
		return Result{}, err
	}
	return FromSnapshot(ctx, snap, opts)
}

// FromSnapshot decodes the record carried by snap. When the record is
// missing or too short, the partial key of the snapshot (or of opts) is
// shown masked instead.
func FromSnapshot(ctx context.Context, snap source.Snapshot, opts DecodeOptions) (Result, error) {
	ctx, err := opts.toInternal(ctx)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Source:    snap.Source,
		ByteCount: len(snap.DigitalProductID),
		Fields:    snapshotFields(snap),
	}
	if len(snap.DigitalProductID) > 0 {
		result.RawHex = strings.ToUpper(hex.EncodeToString(snap.DigitalProductID))
	}

	if len(snap.DigitalProductID) >= keydecoder.MinRecordLen {
		rec, err := record.Parse(snap.DigitalProductID)
		if err != nil {
			return result, err
		}
		decoded, err := keydecoder.Details(rec.Raw)
		if err != nil {
			return result, err
		}
		result.Record = &rec
		result.Key = decoded.Key
		result.Formatted = decoded.Formatted
		result.Extended = decoded.Extended
		return result, nil
	}

	partial := snap.PartialProductKey
	if partial == "" {
		partial = options.PartialKey(ctx)
	}
	partial, err = options.ParsePartialKey(partial)
	if err != nil {
		return result, err
	}
	if partial != "" {
		result.Key = MaskedKey(partial)
		result.Masked = true
		return result, nil
	}
	return result, fmt.Errorf("decode product key: %w: got %d bytes", ErrRecordTooShort, len(snap.DigitalProductID))
}

// MaskedKey renders a partial key in product key layout.
func MaskedKey(partial string) string {
	return maskedPrefix + partial
}

func snapshotFields(snap source.Snapshot) map[string]any {
	fields := map[string]any{}
	setField(fields, "product_name", snap.ProductName)
	setField(fields, "edition_id", snap.EditionID)
	setField(fields, "display_version", snap.DisplayVersion)
	setField(fields, "current_build", snap.CurrentBuild)
	setField(fields, "product_id", snap.ProductID)
	setField(fields, "partial_product_key", snap.PartialProductKey)
	if snap.HasLicenseStatus {
		fields["license_status"] = snap.LicenseStatus.String()
		fields["license_status_code"] = int64(snap.LicenseStatus)
		fields["activated"] = snap.LicenseStatus.Activated()
	}
	return fields
}

func setField(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
