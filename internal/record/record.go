package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/d21d3q/gowinkey/internal/keydecoder"
)

const (
	productIDOffset = 8
	productIDLen    = 24
)

// Record represents the public header of a DigitalProductId value. Only the
// key window is consumed by the decoder; the rest is kept for display.
type Record struct {
	Raw          []byte
	DeclaredSize uint32
	MajorVersion uint16
	MinorVersion uint16
	ProductID    string
	KeyWindow    [keydecoder.WindowLen]byte
	Flag         byte
}

// Parse extracts the header fields from a raw record. The returned Record
// holds its own copy of the input.
func Parse(raw []byte) (Record, error) {
	if len(raw) < keydecoder.MinRecordLen {
		return Record{}, fmt.Errorf("parse record: %w: got %d bytes", keydecoder.ErrRecordTooShort, len(raw))
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)

	r := Record{
		Raw:          buf,
		DeclaredSize: binary.LittleEndian.Uint32(buf[0:4]),
		MajorVersion: binary.LittleEndian.Uint16(buf[4:6]),
		MinorVersion: binary.LittleEndian.Uint16(buf[6:8]),
		ProductID:    cString(buf[productIDOffset : productIDOffset+productIDLen]),
		Flag:         buf[keydecoder.FlagIndex],
	}
	copy(r.KeyWindow[:], buf[keydecoder.WindowOffset:keydecoder.MinRecordLen])
	return r, nil
}

// SizeMatches reports whether the size stored in the header equals the
// record length. Synthetic records carry a zero size and never match.
func (r Record) SizeMatches() bool {
	return int(r.DeclaredSize) == len(r.Raw)
}

// Extended reports whether the flag byte selects the extended key layout.
func (r Record) Extended() bool {
	return keydecoder.IsExtended(r.Flag)
}

// Version renders the header version as major.minor.
func (r Record) Version() string {
	return fmt.Sprintf("%d.%d", r.MajorVersion, r.MinorVersion)
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			break
		}
		out = append(out, c)
	}
	return string(out)
}
