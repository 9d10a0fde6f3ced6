package idl

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlgen/internal/registry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "a.json", `{"instructions": [], "version": "0.1.0", "big": 18446744073709551615}`)

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []any{}, doc["instructions"])
	assert.Equal(t, "0.1.0", doc["version"])
	assert.Equal(t, json.Number("18446744073709551615"), doc["big"], "numbers keep their exact text")
	assert.Nil(t, doc.Metadata())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "a.yaml", "version: 0.1.0\nname: whirlpool\ninstructions:\n  - name: swap\n    args:\n      - name: amount\n        type: u64\nerrors:\n  - code: 6000\n")

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "whirlpool", doc["name"])
	instructions, ok := doc["instructions"].([]any)
	require.True(t, ok)
	require.Len(t, instructions, 1)
	ix, ok := instructions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "swap", ix["name"])

	errs := doc["errors"].([]any)
	assert.Equal(t, json.Number("6000"), errs[0].(map[string]any)["code"], "YAML integers normalize to json.Number")
}

func TestLoadMatchesAcrossFormats(t *testing.T) {
	jsonDoc, err := Load(writeFile(t, "a.json", `{"name":"x","errors":[{"code":6000,"name":"Bad"}]}`))
	require.NoError(t, err)
	yamlDoc, err := Load(writeFile(t, "a.yml", "name: x\nerrors:\n  - code: 6000\n    name: Bad\n"))
	require.NoError(t, err)

	jh, err := jsonDoc.Hash()
	require.NoError(t, err)
	yh, err := yamlDoc.Hash()
	require.NoError(t, err)
	assert.Equal(t, jh, yh)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := Load(path)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, path, ioErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		message string
	}{
		{"truncated", "a.json", `{"instructions": [`, "invalid JSON"},
		{"corrupt", "a.json", `{"instructions": ]}`, "invalid JSON"},
		{"empty", "a.json", ``, "empty document"},
		{"trailing data", "a.json", `{"a": 1} {"b": 2}`, "trailing data after document"},
		{"top-level array", "a.json", `[1, 2]`, "top level is an array, expected an object"},
		{"top-level string", "a.json", `"idl"`, "top level is a string, expected an object"},
		{"invalid yaml", "a.yaml", "a: [1, 2\nb: c", "invalid YAML"},
		{"empty yaml", "a.yaml", "", "empty document"},
		{"scalar yaml", "a.yaml", "42", "top level is a number, expected an object"},
		{"yaml nan", "a.yaml", "weight: .nan", "weight.non-finite number NaN"},
		{"yaml inf in list", "a.yaml", "a: [1, .inf]", "a.[1].non-finite number +Inf"},
		{"yaml negative inf", "a.yml", "b: {c: -.inf}", "b.c.non-finite number -Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			doc, err := Load(path)
			assert.Nil(t, doc)
			var malformed *MalformedIDLError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, path, malformed.Path)
			assert.Equal(t, tt.message, malformed.Message)
		})
	}
}

func TestPatchAddsMetadata(t *testing.T) {
	doc := Document{"instructions": []any{}}
	meta := registry.Metadata{ID: "proj-a", Address: "ADDR1", Origin: "anchor"}

	patched := Patch(doc, meta)

	assert.Equal(t, Document{
		"instructions": []any{},
		"metadata":     map[string]any{"address": "ADDR1", "origin": "anchor"},
	}, patched)
	assert.NotContains(t, doc, "metadata", "input document is not mutated")
}

func TestPatchOverwritesExistingMetadata(t *testing.T) {
	doc := Document{
		"name": "whirlpool",
		"metadata": map[string]any{
			"address": "OLD",
			"origin":  "shank",
			"spec":    "0.1.0",
		},
	}
	m2 := registry.Metadata{Address: "ADDR2", Origin: "anchor"}

	patched := Patch(doc, m2)

	assert.Equal(t, map[string]any{"address": "ADDR2", "origin": "anchor"}, patched.Metadata(),
		"registry metadata replaces the document's, nothing is merged")
	assert.Equal(t, "OLD", doc.Metadata()["address"])
}

func TestPatchIdempotent(t *testing.T) {
	docs := []Document{
		{},
		{"instructions": []any{}},
		{"metadata": map[string]any{"address": "X"}, "types": []any{map[string]any{"name": "T"}}},
	}
	meta := registry.Metadata{Address: "ADDR1", Origin: "anchor"}

	for _, doc := range docs {
		once := Patch(doc, meta)
		twice := Patch(once, meta)
		assert.Equal(t, once, twice)
	}
}
