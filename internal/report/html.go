package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/verdict-ml/verdict/internal/attribution"
)

//go:embed templates/*.html
var templateFS embed.FS

var htmlTmpl = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

type htmlData struct {
	Meta    Meta
	Created string
	Records []recordView
}

type recordView struct {
	ID     string
	Score  string
	Class  string
	Truth  string
	Delta  string
	Tokens []tokenView
}

type tokenView struct {
	Text  string
	Style template.CSS
	Title string
}

// WriteHTML renders the self-contained HTML report for set: one section per
// record in insertion order, tokens tinted by their attribution.
func WriteHTML(w io.Writer, set *attribution.ResultSet, meta Meta) error {
	data := htmlData{
		Meta:    meta,
		Records: recordViews(set.Records()),
	}
	if !meta.Created.IsZero() {
		data.Created = meta.Created.Format("2006-01-02 15:04 MST")
	}
	return errors.Wrap(htmlTmpl.ExecuteTemplate(w, "report", data), "rendering html report")
}

func recordViews(recs []*attribution.Record) []recordView {
	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, recordView{
			ID:     rec.RecordID,
			Score:  fmt.Sprintf("%.4f", rec.Score),
			Class:  classLabel(rec.PredictedClass),
			Truth:  fmtTruth(rec.GroundTruth),
			Delta:  fmt.Sprintf("%.1e", rec.Delta),
			Tokens: tokenViews(rec),
		})
	}
	return views
}

func tokenViews(rec *attribution.Record) []tokenView {
	maxAbs := 0.0
	for _, a := range rec.Attributions {
		if v := math.Abs(a); v > maxAbs {
			maxAbs = v
		}
	}
	views := make([]tokenView, 0, len(rec.Tokens))
	for i, tok := range rec.Tokens {
		score := 0.0
		if i < len(rec.Attributions) {
			score = rec.Attributions[i]
		}
		views = append(views, tokenView{
			Text:  tok,
			Style: tokenStyle(score, maxAbs),
			Title: fmt.Sprintf("%.4f", score),
		})
	}
	return views
}

// tokenStyle tints a token by its attribution: green raises the score, red
// lowers it, opacity scaled so the strongest token in the record is fully
// saturated. The style string is built from two numbers and nothing else,
// which is what makes it safe to hand the template as trusted CSS.
func tokenStyle(score, maxAbs float64) template.CSS {
	opacity := 0.0
	if maxAbs > 0 {
		opacity = math.Abs(score) / maxAbs
	}
	r, g, b := 220, 38, 38
	if score >= 0 {
		r, g, b = 22, 163, 74
	}
	return template.CSS(fmt.Sprintf("background-color: rgba(%d,%d,%d,%.3f)", r, g, b, opacity))
}
