package tokenizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenizerJSON(t *testing.T, config map[string]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	data, err := json.Marshal(config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDetect_WordPiece(t *testing.T) {
	path := writeTokenizerJSON(t, map[string]interface{}{
		"model": map[string]interface{}{
			"type": "WordPiece",
			"vocab": map[string]int{
				"[PAD]": 0, "[UNK]": 100, "[CLS]": 101, "[SEP]": 102,
				"guilt": 103, "##y": 104,
			},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 0, "content": "[PAD]", "special": true},
			{"id": 100, "content": "[UNK]", "special": true},
			{"id": 101, "content": "[CLS]", "special": true},
			{"id": 102, "content": "[SEP]", "special": true},
		},
	})

	meta, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, KindWordPiece, meta.Kind)
	assert.Equal(t, "WordPiece", meta.Declared)
	assert.Equal(t, 6, meta.VocabSize)
	assert.True(t, meta.HasCLS)
	assert.True(t, meta.HasSEP)
	assert.True(t, meta.HasPAD)
	assert.True(t, meta.HasUNK)
}

func TestDetect_BPE(t *testing.T) {
	path := writeTokenizerJSON(t, map[string]interface{}{
		"model": map[string]interface{}{
			"type":  "BPE",
			"vocab": map[string]int{"a": 0, "b": 1},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 2, "content": "<s>", "special": true},
			{"id": 3, "content": "</s>", "special": true},
		},
	})

	meta, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, KindBPE, meta.Kind)
	assert.Equal(t, 2, meta.VocabSize)
	assert.True(t, meta.HasCLS)
	assert.True(t, meta.HasSEP)
	assert.False(t, meta.HasPAD)
}

func TestDetect_UnknownType(t *testing.T) {
	path := writeTokenizerJSON(t, map[string]interface{}{
		"model": map[string]interface{}{"type": "Mystery"},
	})

	meta, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, meta.Kind)
	assert.Equal(t, "Mystery", meta.Declared)
}

func TestDetect_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := Detect(path)
	assert.Error(t, err)
}

func TestDetect_FileNotFound(t *testing.T) {
	_, err := Detect("/nonexistent/tokenizer.json")
	assert.Error(t, err)
}

func TestLoad_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	config := map[string]interface{}{
		"model": map[string]interface{}{"type": "Mystery"},
	}
	data, err := json.Marshal(config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokenizer.json"), data, 0o600))

	_, err = Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Mystery")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestAutoLoad_Unresolvable(t *testing.T) {
	_, err := AutoLoad("definitely-not-a-tokenizer")
	assert.Error(t, err)
}
