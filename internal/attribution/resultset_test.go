package attribution

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordClass(t *testing.T) {
	guilty := NewRecord("a", 0.5, 1, nil, nil, 0)
	assert.Equal(t, 1, guilty.PredictedClass)

	notGuilty := NewRecord("b", 0.49, 0, nil, nil, 0)
	assert.Equal(t, 0, notGuilty.PredictedClass)
}

func TestRecordJSONRoundtrip(t *testing.T) {
	rec := NewRecord("case-7", 0.82, 0.75,
		[]string{"[CLS]", "guilt", "[SEP]"},
		[]float64{0, 0.9, 0}, 1e-4)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"record_id":"case-7"`)
	assert.Contains(t, string(data), `"ground_truth":0.75`)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Score, back.Score)
	assert.Equal(t, rec.Tokens, back.Tokens)
	assert.Equal(t, rec.GroundTruth, back.GroundTruth)
}

func TestRecordJSONNaNGroundTruth(t *testing.T) {
	rec := NewRecord("unlabeled", 0.3, math.NaN(), []string{"x"}, []float64{1}, 0)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ground_truth":null`)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsNaN(back.GroundTruth))
}

func TestResultSetOrder(t *testing.T) {
	set := NewResultSet()
	set.Add(NewRecord("b", 0.2, 0, nil, nil, 0))
	set.Add(NewRecord("a", 0.4, 0, nil, nil, 0))
	set.Add(NewRecord("c", 0.6, 1, nil, nil, 0))

	require.Equal(t, 3, set.Len())
	recs := set.Records()
	assert.Equal(t, "b", recs[0].RecordID)
	assert.Equal(t, "a", recs[1].RecordID)
	assert.Equal(t, "c", recs[2].RecordID)
}

func TestResultSetReplaceKeepsPosition(t *testing.T) {
	set := NewResultSet()
	set.Add(NewRecord("a", 0.1, 0, nil, nil, 0))
	set.Add(NewRecord("b", 0.2, 0, nil, nil, 0))
	set.Add(NewRecord("a", 0.9, 1, nil, nil, 0))

	require.Equal(t, 2, set.Len())
	recs := set.Records()
	assert.Equal(t, "a", recs[0].RecordID)
	assert.Equal(t, 0.9, recs[0].Score)

	got, ok := set.Get("a")
	require.True(t, ok)
	assert.Equal(t, 0.9, got.Score)

	_, ok = set.Get("missing")
	assert.False(t, ok)
}
