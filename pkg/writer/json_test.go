package writer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Scene string `json:"scene"`
	Count int    `json:"count"`
}

func TestJSONWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter[payload]()
	require.NoError(t, w.Write(payload{Scene: "launch", Count: 2}, &buf))
	assert.JSONEq(t, `{"scene":"launch","count":2}`, buf.String())
}

func TestPrettyJSONWriter_Indents(t *testing.T) {
	var buf bytes.Buffer
	w := NewPrettyJSONWriter[payload]()
	require.NoError(t, w.Write(payload{Scene: "s"}, &buf))
	assert.True(t, strings.Contains(buf.String(), "\n  \"scene\""))
}

func TestJSONWriter_WriteToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "result.json")

	w := NewJSONWriter[payload]()
	require.NoError(t, w.WriteToFile(payload{Scene: "scroll", Count: 7}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, payload{Scene: "scroll", Count: 7}, got)

	// No temp files remain next to the result.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
