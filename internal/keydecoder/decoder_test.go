package keydecoder

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	windowPro        = "EC0C00000000A8D27B6E89814F6D"
	windowEnterprise = "DA0C30000000186367E01565BE19"
	windowRepeat     = "E75E109214185750C1A683A86D45"
	windowOnes       = "FFFFFFFFFFFFFFFFFFFFFFFFFFFF"
	windowZero       = "0000000000000000000000000000"
)

// newRecord builds a 67 byte record with the first 14 window bytes taken from
// windowHex and the flag byte at the end.
func newRecord(t *testing.T, windowHex string, flag byte) []byte {
	t.Helper()
	w, err := hex.DecodeString(windowHex)
	require.NoError(t, err)
	require.Len(t, w, WindowLen-1)
	rec := make([]byte, MinRecordLen)
	copy(rec[WindowOffset:], w)
	rec[FlagIndex] = flag
	return rec
}

func TestDecodeVectors(t *testing.T) {
	cases := []struct {
		name     string
		window   string
		flag     byte
		digits   string
		last     int
		extended bool
		key      string
	}{
		{"pro extended", windowPro, 0x09, "HVK7JGPHTMC97JM9MPGT3V66T", 5, true, "VK7JG-NPHTM-C97JM-9MPGT-3V66T"},
		{"pro legacy", windowPro, 0x01, "HVK7JGPHTMC97JM9MPGT3V66T", 5, false, "HVK7JGPHTMC97JM9MPGT3V66T"},
		{"pro flag 12", windowPro, 0x0C, "2HXC2RBW38FHQ7J3WVD4YTDGT", 17, false, "2HXC2RBW38FHQ7J3WVD4YTDGT"},
		{"pro flag 6", windowPro, 0x06, "CBR6Y9Q69KTCF9HKQX2YKD726", 1, true, "BNR6Y-9Q69K-TCF9H-KQX2Y-KD726"},
		{"enterprise zero remainder", windowEnterprise, 0x08, "BPPR9FWDCXD2C8JH872K2YT43", 0, true, "BPPR9-FWDCX-D2C8J-H872K-2YT43"},
		{"enterprise flag 9", windowEnterprise, 0x09, "GJ47Q74HF44D8RHTM9B3B98WQ", 4, true, "J47QN-74HF4-4D8RH-TM9B3-B98WQ"},
		{"all ones", windowOnes, 0xFF, "HRQCTG98YPV6JBQK7T3RTVB7K", 5, false, "HRQCTG98YPV6JBQK7T3RTVB7K"},
		{"ones extended", windowOnes, 0x06, "FJB3QKR7XM3693368PGBFF6QX", 3, true, "JB3NQ-KR7XM-36933-68PGB-FF6QX"},
		{"zero", windowZero, 0x00, strings.Repeat("B", 25), 0, false, strings.Repeat("B", 25)},
		{"zero highest remainder", windowZero, 0x06, "9MWM8VJ3VGDRFH4WTK6V46QYB", 23, true, "MWM8V-J3VGD-RFH4W-TK6V4-6QYNB"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Details(newRecord(t, tc.window, tc.flag))
			require.NoError(t, err)
			require.Equal(t, tc.digits, d.Digits)
			require.Equal(t, tc.last, d.Last)
			require.Equal(t, tc.extended, d.Extended)
			require.Equal(t, tc.extended, d.Formatted)
			require.Equal(t, tc.key, d.Key)

			key, err := Decode(newRecord(t, tc.window, tc.flag))
			require.NoError(t, err)
			require.Equal(t, tc.key, key)
		})
	}
}

func TestDecodeLegacyIsNotGrouped(t *testing.T) {
	d, err := Details(newRecord(t, windowPro, 0x00))
	require.NoError(t, err)
	require.False(t, d.Extended)
	require.False(t, d.Formatted)
	require.Empty(t, d.Marked)
	require.Len(t, d.Key, KeyDigits)
	require.NotContains(t, d.Key, "-")
	require.Equal(t, d.Digits, d.Key)
}

func TestDecodeExtendedMarkerPosition(t *testing.T) {
	d, err := Details(newRecord(t, windowPro, 0x09))
	require.NoError(t, err)
	require.Len(t, d.Marked, KeyDigits+1)
	require.Equal(t, 1, strings.Count(d.Marked, string(Marker)))
	require.Equal(t, 1+d.Last, strings.IndexRune(d.Marked, Marker))
	require.Equal(t, "HVK7JGNPHTMC97JM9MPGT3V66T", d.Marked)
}

func TestDecodeExtendedZeroRemainderPrependsMarker(t *testing.T) {
	d, err := Details(newRecord(t, windowEnterprise, 0x08))
	require.NoError(t, err)
	require.Equal(t, 0, d.Last)
	require.Equal(t, "NBPPR9FWDCXD2C8JH872K2YT43", d.Marked)
	// grouping skips index 0, which holds the marker here
	require.NotContains(t, d.Key, string(Marker))
}

func TestDecodeMarkerInsertIsPositional(t *testing.T) {
	// "C" at index 1 also occurs at index 0; a substring replace would
	// splice the marker after the first occurrence instead.
	d, err := Details(newRecord(t, windowRepeat, 0x08))
	require.NoError(t, err)
	require.Equal(t, 1, d.Last)
	require.Equal(t, "CCMFVDJBX6G9M7J7WTQ6MM66K", d.Digits)
	require.Equal(t, "CCNMFVDJBX6G9M7J7WTQ6MM66K", d.Marked)
	require.Equal(t, "CNMFV-DJBX6-G9M7J-7WTQ6-MM66K", d.Key)
	require.NotEqual(t, strings.Replace(d.Digits, "C", "CN", 1), d.Marked)
}

func TestDecodeFlagPatchIndependentOfDigits(t *testing.T) {
	// 0x00 and 0x08 differ only in bit 3, which the patch clears before
	// the conversion loop.
	legacy, err := Details(newRecord(t, windowRepeat, 0x00))
	require.NoError(t, err)
	extended, err := Details(newRecord(t, windowRepeat, 0x08))
	require.NoError(t, err)

	require.False(t, legacy.Extended)
	require.True(t, extended.Extended)
	require.Equal(t, legacy.Digits, extended.Digits)
	require.Equal(t, legacy.Last, extended.Last)
	require.NotEqual(t, legacy.Key, extended.Key)
}

func TestPatchFlag(t *testing.T) {
	for f := 0; f < 256; f++ {
		flag := byte(f)
		ext := extendedBit(flag)
		require.LessOrEqual(t, ext, uint32(1))
		require.Equal(t, flag&0xF7, patchFlag(flag, ext))
	}
	require.Equal(t, byte(0x04), patchFlag(0x08, 2))
}

func TestIsExtended(t *testing.T) {
	cases := map[byte]bool{
		0x00: false,
		0x05: false,
		0x06: true,
		0x0B: true,
		0x0C: false,
		0x12: true,
		0xFF: false,
	}
	for flag, want := range cases {
		require.Equal(t, want, IsExtended(flag), "flag 0x%02X", flag)
	}
}

func TestDecodeTooShort(t *testing.T) {
	for _, n := range []int{0, 1, 52, MinRecordLen - 1} {
		key, err := Decode(make([]byte, n))
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrRecordTooShort))
		require.Empty(t, key)
	}
}

func TestDecodeIgnoresBytesOutsideWindow(t *testing.T) {
	rec := newRecord(t, windowPro, 0x09)
	padded := append(bytes.Repeat([]byte{0xAA}, WindowOffset), rec[WindowOffset:]...)
	padded = append(padded, bytes.Repeat([]byte{0x55}, 97)...)

	want, err := Decode(rec)
	require.NoError(t, err)
	got, err := Decode(padded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	rec := newRecord(t, windowOnes, 0x0F)
	orig := append([]byte(nil), rec...)
	_, err := Decode(rec)
	require.NoError(t, err)
	require.Equal(t, orig, rec)
}

func TestDecodeDeterministic(t *testing.T) {
	rec := newRecord(t, windowPro, 0x09)
	first, err := Decode(rec)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Decode(rec)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(t, first, r)
	}
}

func TestDecodeAlphabetCoverage(t *testing.T) {
	rec := make([]byte, MinRecordLen)
	for seed := 0; seed < 512; seed++ {
		for i := WindowOffset; i < MinRecordLen; i++ {
			rec[i] = byte(seed*31 + i*17)
		}
		d, err := Details(rec)
		require.NoError(t, err)
		require.Len(t, d.Digits, KeyDigits)
		for _, r := range d.Digits {
			require.True(t, strings.ContainsRune(Alphabet, r), "unexpected symbol %q", r)
		}
		if d.Extended {
			require.Len(t, d.Marked, KeyDigits+1)
			require.Len(t, d.Key, GroupedLen)
		} else {
			require.Len(t, d.Key, KeyDigits)
		}
		for _, r := range d.Key {
			ok := r == '-' || r == Marker || strings.ContainsRune(Alphabet, r)
			require.True(t, ok, "unexpected symbol %q in %s", r, d.Key)
		}
	}
}

func TestAlphabet(t *testing.T) {
	require.Len(t, Alphabet, base)
	seen := map[rune]bool{}
	for _, r := range Alphabet {
		require.False(t, seen[r], "duplicate symbol %q", r)
		seen[r] = true
	}
	require.False(t, seen[Marker])
}

func TestGroup(t *testing.T) {
	key, ok := Group("HVK7JGNPHTMC97JM9MPGT3V66T")
	require.True(t, ok)
	require.Equal(t, "VK7JG-NPHTM-C97JM-9MPGT-3V66T", key)

	again, ok := Group(key)
	require.False(t, ok)
	require.Equal(t, key, again)

	raw, ok := Group("HVK7JGPHTMC97JM9MPGT3V66T")
	require.False(t, ok)
	require.Equal(t, "HVK7JGPHTMC97JM9MPGT3V66T", raw)
}
