package options

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/d21d3q/gowinkey/internal/keydecoder"
)

const (
	// PartialKeyLen is the number of symbols the licensing service reveals.
	PartialKeyLen = 5

	regValueMarker = `"digitalproductid"=hex:`
	regHexMarker   = "hex:"
)

type contextKey struct{}

// WithPartialKey stores the fallback partial key inside the context.
func WithPartialKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, key)
}

// PartialKey retrieves the fallback partial key from context if present.
func PartialKey(ctx context.Context) string {
	if v := ctx.Value(contextKey{}); v != nil {
		if key, ok := v.(string); ok {
			return key
		}
	}
	return ""
}

// ParsePartialKey validates the last five symbols of a product key as
// reported by the licensing service.
func ParsePartialKey(input string) (string, error) {
	clean := strings.ToUpper(strings.TrimSpace(input))
	if clean == "" {
		return "", nil
	}
	if len(clean) != PartialKeyLen {
		return "", fmt.Errorf("partial key must be %d symbols, got %d", PartialKeyLen, len(clean))
	}
	for _, r := range clean {
		if r != keydecoder.Marker && !strings.ContainsRune(keydecoder.Alphabet, r) {
			return "", fmt.Errorf("partial key contains invalid symbol %q", r)
		}
	}
	return clean, nil
}

// ParseRecordHex decodes a DigitalProductId from either a plain hex dump or
// a .reg export line such as "DigitalProductId"=hex:a4,00,00,00,\
func ParseRecordHex(input string) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty product id record")
	}
	if body, ok := regExportBody(input); ok {
		input = body
	}
	clean := stripSeparators(input)
	if len(clean) >= 2 && (clean[:2] == "0x" || clean[:2] == "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex record must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

// regExportBody returns the hex list following hex: in a .reg export,
// joining continuation lines.
func regExportBody(input string) (string, bool) {
	lower := strings.ToLower(input)
	idx := strings.Index(lower, regValueMarker)
	skip := len(regValueMarker)
	if idx < 0 {
		idx = strings.Index(lower, regHexMarker)
		skip = len(regHexMarker)
	}
	if idx < 0 {
		return "", false
	}
	var b strings.Builder
	for _, line := range strings.Split(input[idx+skip:], "\n") {
		line = strings.TrimSpace(line)
		cont := strings.HasSuffix(line, `\`)
		b.WriteString(strings.TrimSuffix(line, `\`))
		if !cont {
			break
		}
	}
	return b.String(), true
}

func stripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' || r == ',' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
