// Package dataset reads annotated text corpora in JSON Lines form.
//
// Each line is one record: an id, the text to score, and per-annotator
// label objects. Records aggregate annotator labels to a single mean value;
// records nobody annotated carry NaN so downstream stages can tell "no
// ground truth" apart from "rated zero".
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// maxLineBytes caps a single record's size. Court transcripts run long but
// not 16MB-of-JSON long; anything above this is a malformed file.
const maxLineBytes = 16 * 1024 * 1024

// DefaultHead is how many records Head keeps when no count is given.
const DefaultHead = 10

// Record is one text with its aggregated annotation.
type Record struct {
	// ID is the record's identifier, falling back to the 1-based source
	// line number when the file has none.
	ID string

	// Text is the content to score.
	Text string

	// Label is the mean of the annotator labels, NaN when no annotator
	// supplied one.
	Label float64

	// Annotators is how many annotators contributed to Label.
	Annotators int

	// Line is the 1-based line the record came from.
	Line int
}

// HasLabel reports whether any annotator labeled this record.
func (r Record) HasLabel() bool {
	return !math.IsNaN(r.Label)
}

// Options selects the JSON field names. Zero values mean the conventional
// names: "id", "text", "annotations", "guilt".
type Options struct {
	IDField          string
	TextField        string
	AnnotationsField string
	LabelField       string
}

func (o Options) withDefaults() Options {
	if o.IDField == "" {
		o.IDField = "id"
	}
	if o.TextField == "" {
		o.TextField = "text"
	}
	if o.AnnotationsField == "" {
		o.AnnotationsField = "annotations"
	}
	if o.LabelField == "" {
		o.LabelField = "guilt"
	}
	return o
}

// Load reads a JSONL file.
func Load(path string, opts Options) ([]Record, error) {
	//nolint:gosec // G304: dataset paths come from user configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset: %s", path)
	}
	defer f.Close()

	records, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset: %s", path)
	}
	return records, nil
}

// Read parses JSONL records from r. Blank lines are skipped; any malformed
// line fails the whole read with its line number, a partial dataset is
// worse than no dataset.
func Read(r io.Reader, opts Options) ([]Record, error) {
	opts = opts.withDefaults()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		record, err := parseRecord(line, lineNo, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan dataset")
	}
	return records, nil
}

// Head returns the first n records, or DefaultHead when n <= 0.
func Head(records []Record, n int) []Record {
	if n <= 0 {
		n = DefaultHead
	}
	if n > len(records) {
		n = len(records)
	}
	return records[:n]
}

func parseRecord(line []byte, lineNo int, opts Options) (Record, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(line, &obj); err != nil {
		return Record{}, errors.Wrap(err, "invalid JSON")
	}

	record := Record{Line: lineNo, Label: math.NaN()}

	text, ok := obj[opts.TextField]
	if !ok {
		return Record{}, errors.Errorf("missing text field %q", opts.TextField)
	}
	if err := json.Unmarshal(text, &record.Text); err != nil {
		return Record{}, errors.Wrapf(err, "text field %q is not a string", opts.TextField)
	}
	if record.Text == "" {
		return Record{}, errors.Errorf("text field %q is empty", opts.TextField)
	}

	record.ID = parseID(obj[opts.IDField], lineNo)

	if raw, ok := obj[opts.AnnotationsField]; ok {
		label, count, err := aggregateLabels(raw, opts.LabelField)
		if err != nil {
			return Record{}, err
		}
		if count > 0 {
			record.Label = label
			record.Annotators = count
		}
	}
	return record, nil
}

// parseID accepts string or numeric ids and falls back to the line number.
func parseID(raw json.RawMessage, lineNo int) string {
	if len(raw) > 0 {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return strconv.Itoa(lineNo)
}

// aggregateLabels means the label field across annotator objects.
func aggregateLabels(raw json.RawMessage, labelField string) (float64, int, error) {
	var annotations map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &annotations); err != nil {
		return 0, 0, errors.Wrap(err, "annotations field is not an object of objects")
	}

	sum := 0.0
	count := 0
	for annotator, fields := range annotations {
		value, ok := fields[labelField]
		if !ok {
			continue
		}
		var label float64
		if err := json.Unmarshal(value, &label); err != nil {
			return 0, 0, errors.Wrapf(err, "annotator %q has a non-numeric %q", annotator, labelField)
		}
		sum += label
		count++
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}
