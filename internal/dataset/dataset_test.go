package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := `{"id": "case-1", "text": "He admitted everything.", "annotations": {"ann1": {"guilt": 0.8}, "ann2": {"guilt": 0.6}}}

{"id": "case-2", "text": "No comment.", "annotations": {"ann1": {}}}
{"text": "Missing id and annotations."}
{"id": 42, "text": "Numeric id.", "annotations": {"ann1": {"guilt": 1.0}}}
`

	records, err := Read(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "case-1", first.ID)
	assert.Equal(t, "He admitted everything.", first.Text)
	assert.InDelta(t, 0.7, first.Label, 1e-12)
	assert.Equal(t, 2, first.Annotators)
	assert.Equal(t, 1, first.Line)
	assert.True(t, first.HasLabel())

	// Annotator present but without the label field: unannotated.
	second := records[1]
	assert.Equal(t, "case-2", second.ID)
	assert.True(t, math.IsNaN(second.Label))
	assert.Equal(t, 0, second.Annotators)
	assert.False(t, second.HasLabel())
	assert.Equal(t, 3, second.Line, "blank lines still count toward line numbers")

	// No id falls back to the line number.
	third := records[2]
	assert.Equal(t, "4", third.ID)
	assert.True(t, math.IsNaN(third.Label))

	fourth := records[3]
	assert.Equal(t, "42", fourth.ID)
	assert.InDelta(t, 1.0, fourth.Label, 1e-12)
}

func TestReadCustomFieldNames(t *testing.T) {
	input := `{"case": "x", "statement": "The jury watched.", "ratings": {"r1": {"culpability": 0.25}, "r2": {"culpability": 0.75}}}`

	records, err := Read(strings.NewReader(input), Options{
		IDField:          "case",
		TextField:        "statement",
		AnnotationsField: "ratings",
		LabelField:       "culpability",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x", records[0].ID)
	assert.InDelta(t, 0.5, records[0].Label, 1e-12)
	assert.Equal(t, 2, records[0].Annotators)
}

func TestReadFailsFast(t *testing.T) {
	t.Run("broken JSON names the line", func(t *testing.T) {
		input := `{"text": "fine"}
{not json}`
		_, err := Read(strings.NewReader(input), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing text", func(t *testing.T) {
		_, err := Read(strings.NewReader(`{"id": "a"}`), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "text")
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := Read(strings.NewReader(`{"text": ""}`), Options{})
		assert.Error(t, err)
	})

	t.Run("non-numeric label", func(t *testing.T) {
		input := `{"text": "x", "annotations": {"ann1": {"guilt": "high"}}}`
		_, err := Read(strings.NewReader(input), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ann1")
	})

	t.Run("annotations not an object", func(t *testing.T) {
		input := `{"text": "x", "annotations": [1, 2]}`
		_, err := Read(strings.NewReader(input), Options{})
		assert.Error(t, err)
	})
}

func TestReadLongLines(t *testing.T) {
	// Well past the default 64KB scanner token limit.
	text := strings.Repeat("the witness repeated himself ", 10000)
	input := `{"text": "` + text + `"}`

	records, err := Read(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Text, len(text))
}

func TestReadEmpty(t *testing.T) {
	records, err := Read(strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	content := `{"id": "a", "text": "first"}
{"id": "b", "text": "second"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.jsonl"), Options{})
	assert.Error(t, err)
}

func TestHead(t *testing.T) {
	records := make([]Record, 25)
	for i := range records {
		records[i].ID = strconv.Itoa(i)
	}

	assert.Len(t, Head(records, 5), 5)
	assert.Len(t, Head(records, 0), DefaultHead)
	assert.Len(t, Head(records, -1), DefaultHead)
	assert.Len(t, Head(records, 100), 25)
	assert.Equal(t, "0", Head(records, 3)[0].ID)
}
