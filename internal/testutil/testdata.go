package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d21d3q/gowinkey/internal/options"
)

// Path resolves a testdata file relative to the repo root from any package
// directory.
func Path(t *testing.T, rel string) string {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
		filepath.Join("..", "..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return ""
}

// LoadJSON loads a JSON fixture from testdata.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data, err := os.ReadFile(Path(t, rel))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v), "decode %s", rel)
}

// LoadText returns the raw contents of a testdata file.
func LoadText(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(Path(t, rel))
	require.NoError(t, err)
	return string(data)
}

// LoadRecord decodes a hex or .reg fixture into record bytes.
func LoadRecord(t *testing.T, rel string) []byte {
	t.Helper()
	raw, err := options.ParseRecordHex(LoadText(t, rel))
	require.NoError(t, err, "decode %s", rel)
	return raw
}
