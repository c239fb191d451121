package keydecoder

import (
	"errors"
	"fmt"
	"strings"
)

// Record layout of the DigitalProductId value.
const (
	WindowOffset = 52
	WindowLen    = 15
	FlagIndex    = WindowOffset + WindowLen - 1
	MinRecordLen = WindowOffset + WindowLen

	// KeyDigits is the number of base-24 digits packed into the window.
	KeyDigits  = 25
	// GroupedLen is the length of a 5-5-5-5-5 key including dashes.
	GroupedLen = 29

	groupSize  = 5
	groupCount = 5
	base       = 24
)

// Alphabet maps a base-24 digit value to its key symbol.
const Alphabet = "BCDFGHJKMPQRTVWXY2346789"

// Marker is spliced into keys stored with the extended layout.
const Marker = 'N'

// ErrRecordTooShort is returned for records that do not cover the key window.
var ErrRecordTooShort = errors.New("product id record too short")

// Decoded exposes the intermediate values of a single decode run.
type Decoded struct {
	// Digits holds the 25 converted symbols, most significant first.
	Digits    string
	// Marked is Digits with the marker inserted. Empty for the legacy layout.
	Marked    string
	// Last is the remainder produced by the final conversion round.
	Last      int
	// Extended reports whether the flag byte selected the extended layout.
	Extended  bool
	// Formatted is true when Key was grouped into five blocks.
	Formatted bool
	Key       string
}

// Decode turns a DigitalProductId record into a product key. Keys produced
// from the extended layout are dash grouped, legacy keys are returned as the
// raw 25 symbol string.
func Decode(record []byte) (string, error) {
	d, err := Details(record)
	if err != nil {
		return "", err
	}
	return d.Key, nil
}

// Details decodes the record and reports every intermediate value.
// The input slice is never modified.
func Details(record []byte) (Decoded, error) {
	if len(record) < MinRecordLen {
		return Decoded{}, fmt.Errorf("%w: got %d bytes, need at least %d", ErrRecordTooShort, len(record), MinRecordLen)
	}

	var window [WindowLen]byte
	copy(window[:], record[WindowOffset:WindowOffset+WindowLen])

	ext := extendedBit(window[WindowLen-1])
	window[WindowLen-1] = patchFlag(window[WindowLen-1], ext)

	digits, last := convert(&window)
	d := Decoded{
		Digits:   digits,
		Last:     int(last),
		Extended: ext == 1,
	}
	out := digits
	if d.Extended {
		out = insertMarker(digits, d.Last)
		d.Marked = out
	}
	d.Key, d.Formatted = Group(out)
	return d, nil
}

// IsExtended reports whether an unpatched flag byte selects the extended layout.
func IsExtended(flag byte) bool {
	return extendedBit(flag) == 1
}

func extendedBit(flag byte) uint32 {
	return (uint32(flag) / 6) & 1
}

// patchFlag clears bit 3 and re-applies the layout bits the way the vendor
// algorithm does. ext&2 is always zero for a single bit; kept as written.
func patchFlag(flag byte, ext uint32) byte {
	flag &= 0xF7
	if ext&2 != 0 {
		flag |= 0x04
	}
	return flag
}

// convert divides the little-endian window by 24 once per output digit,
// consuming the window in place. The returned remainder belongs to the most
// significant digit.
func convert(w *[WindowLen]byte) (string, uint32) {
	var out [KeyDigits]byte
	var cur uint32
	for i := KeyDigits - 1; i >= 0; i-- {
		cur = 0
		for j := WindowLen - 1; j >= 0; j-- {
			cur = cur<<8 + uint32(w[j])
			w[j] = byte(cur / base)
			cur %= base
		}
		out[i] = Alphabet[cur]
	}
	return string(out[:]), cur
}

func insertMarker(digits string, last int) string {
	if last == 0 {
		return string(Marker) + digits
	}
	pos := 1 + last
	return digits[:pos] + string(Marker) + digits[pos:]
}

// Group splits a 26 symbol buffer into five dash separated blocks, skipping
// the leading symbol. Any other input is returned unchanged with false.
func Group(s string) (string, bool) {
	if len(s) != KeyDigits+1 {
		return s, false
	}
	var b strings.Builder
	b.Grow(GroupedLen)
	for g := 0; g < groupCount; g++ {
		if g > 0 {
			b.WriteByte('-')
		}
		start := 1 + g*groupSize
		b.WriteString(s[start : start+groupSize])
	}
	return b.String(), true
}
