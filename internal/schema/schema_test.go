package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const baseModel = `
Nodes:
  participant:
    Props:
      - participant_id
      - sex
  study:
    Props:
      - study_name
  _meta:
    Props:
      - participant_id
PropDefinitions:
  participant_id:
    Key: true
    Type: string
    Req: true
  sex:
    Type: string
  study_name:
    Type: string
    Req: "yes"
`

func TestLoadModels_DerivesIDFields(t *testing.T) {
	s, err := LoadModels([]string{writeModel(t, "model.yaml", baseModel)})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"participant": "participant_id"}, s.IDFields)

	// study has no key property, _meta is skipped entirely.
	_, ok := s.IDFields["study"]
	assert.False(t, ok)
	_, ok = s.IDFields["_meta"]
	assert.False(t, ok)
}

func TestLoadModels_MergesFiles(t *testing.T) {
	extra := `
Nodes:
  file:
    Props:
      - file_id
PropDefinitions:
  file_id:
    Key: true
    Type: string
`
	s, err := LoadModels([]string{
		writeModel(t, "base.yaml", baseModel),
		writeModel(t, "extra.yaml", extra),
	})
	require.NoError(t, err)

	assert.Equal(t, "participant_id", s.IDFields["participant"])
	assert.Equal(t, "file_id", s.IDFields["file"])
}

func TestLoadModels_MultipleKeysIsError(t *testing.T) {
	model := `
Nodes:
  sample:
    Props:
      - sample_id
      - barcode
PropDefinitions:
  sample_id:
    Key: true
  barcode:
    Key: true
`
	_, err := LoadModels([]string{writeModel(t, "model.yaml", model)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one key property")
}

func TestLoadModels_Errors(t *testing.T) {
	_, err := LoadModels(nil)
	require.Error(t, err)

	_, err = LoadModels([]string{filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)

	_, err = LoadModels([]string{writeModel(t, "bad.yaml", "Nodes: [not: a: map")})
	require.Error(t, err)
}

func TestRequired(t *testing.T) {
	s, err := LoadModels([]string{writeModel(t, "model.yaml", baseModel)})
	require.NoError(t, err)

	assert.True(t, s.Required("participant_id"), "boolean Req")
	assert.True(t, s.Required("study_name"), `string Req "yes"`)
	assert.False(t, s.Required("sex"))
	assert.False(t, s.Required("unknown_prop"))
}
