package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/verdict-ml/verdict/internal/attribution"
)

// DefaultTopK is how many tokens WriteText lists per direction.
const DefaultTopK = 5

// WriteText renders a terminal summary of set: one block per record with
// the strongest score-raising and score-lowering tokens.
func WriteText(w io.Writer, set *attribution.ResultSet, topK int) error {
	if topK <= 0 {
		topK = DefaultTopK
	}
	var buf bytes.Buffer
	for i, rec := range set.Records() {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "%s  score %.4f (%s)  truth %s  delta %.1e\n",
			rec.RecordID, rec.Score, classLabel(rec.PredictedClass),
			fmtTruth(rec.GroundTruth), rec.Delta)
		writeSide(&buf, rec, topK, true)
		writeSide(&buf, rec, topK, false)
	}
	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "writing text report")
}

func writeSide(buf *bytes.Buffer, rec *attribution.Record, k int, positive bool) {
	label := "raising"
	if !positive {
		label = "lowering"
	}
	fmt.Fprintf(buf, "  top %s:\n", label)
	tokens := topTokens(rec, k, positive)
	if len(tokens) == 0 {
		buf.WriteString("    (none)\n")
		return
	}
	for _, t := range tokens {
		fmt.Fprintf(buf, "    %-8s %9.4f\n", t.Text, t.Score)
	}
}
