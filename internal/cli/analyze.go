package cli

import (
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/verdict-ml/verdict/internal/attribution"
	"github.com/verdict-ml/verdict/internal/config"
	"github.com/verdict-ml/verdict/internal/dataset"
	"github.com/verdict-ml/verdict/internal/report"
	"github.com/verdict-ml/verdict/internal/store"
)

var (
	checkpointFlag = &cli.StringFlag{
		Name:  "checkpoint",
		Usage: "Checkpoint directory (config.json, model.safetensors, tokenizer.json)",
	}

	datasetFlag = &cli.StringFlag{
		Name:  "dataset",
		Usage: "Path to the JSON Lines dataset",
	}

	recordsFlag = &cli.IntFlag{
		Name:  "records",
		Usage: "Number of records to analyze from the top of the dataset",
		Value: dataset.DefaultHead,
	}

	stepsFlag = &cli.IntFlag{
		Name:  "steps",
		Usage: "Integration steps per record",
		Value: attribution.DefaultSteps,
	}

	methodFlag = &cli.StringFlag{
		Name:  "method",
		Usage: "Quadrature method [riemann_trapezoid, gausslegendre]",
		Value: string(attribution.MethodTrapezoid),
	}

	maxLenFlag = &cli.IntFlag{
		Name:  "max-len",
		Usage: "Token budget per record; longer texts are truncated",
		Value: config.DefaultMaxLen,
	}

	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "HTML report output path",
		Value: config.DefaultOut,
	}

	saveFlag = &cli.BoolFlag{
		Name:  "save",
		Usage: "Persist the run to the database",
	}

	textFlag = &cli.BoolFlag{
		Name:  "text",
		Usage: "Also print the text report to stdout",
	}

	analyzeCmd = &cli.Command{
		Name:   "analyze",
		Usage:  "Score records and attribute each score over its tokens",
		Action: cmdAnalyze,
		Flags: []cli.Flag{
			checkpointFlag,
			datasetFlag,
			recordsFlag,
			stepsFlag,
			methodFlag,
			maxLenFlag,
			outFlag,
			saveFlag,
			textFlag,
		},
	}
)

// applyAnalyzeFlags lays explicitly-set flags over the config, completing
// the flag > env > file > default precedence.
func applyAnalyzeFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(checkpointFlag.Name) {
		cfg.Checkpoint = c.String(checkpointFlag.Name)
	}
	if c.IsSet(datasetFlag.Name) {
		cfg.Dataset = c.String(datasetFlag.Name)
	}
	if c.IsSet(recordsFlag.Name) {
		cfg.Records = c.Int(recordsFlag.Name)
	}
	if c.IsSet(stepsFlag.Name) {
		cfg.Steps = c.Int(stepsFlag.Name)
	}
	if c.IsSet(methodFlag.Name) {
		cfg.Method = c.String(methodFlag.Name)
	}
	if c.IsSet(maxLenFlag.Name) {
		cfg.MaxLen = c.Int(maxLenFlag.Name)
	}
	if c.IsSet(outFlag.Name) {
		cfg.Out = c.String(outFlag.Name)
	}
}

func cmdAnalyze(c *cli.Context) error {
	st := getState(c)
	cfg := st.Config
	applyAnalyzeFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Checkpoint == "" {
		return errors.New("checkpoint not specified (--checkpoint, VERDICT_CHECKPOINT, or config file)")
	}
	if cfg.Dataset == "" {
		return errors.New("dataset not specified (--dataset, VERDICT_DATASET, or config file)")
	}

	p, err := newPipeline(cfg, st.Logger)
	if err != nil {
		return err
	}

	records, err := dataset.Load(cfg.Dataset, dataset.Options{})
	if err != nil {
		return err
	}
	records = dataset.Head(records, cfg.Records)
	st.Logger.Info("dataset loaded",
		zap.String("path", cfg.Dataset),
		zap.Int("analyzing", len(records)))

	set, err := p.run(records)
	if err != nil {
		return err
	}

	run := store.NewRun(cfg.Checkpoint, cfg.Dataset, cfg.Steps, cfg.Method)
	meta := report.Meta{
		Checkpoint: cfg.Checkpoint,
		Dataset:    cfg.Dataset,
		Steps:      cfg.Steps,
		Method:     cfg.Method,
		Created:    run.Created,
	}
	if err := writeHTMLFile(cfg.Out, set, meta); err != nil {
		return err
	}
	st.Logger.Info("report written", zap.String("path", cfg.Out))

	if c.Bool(textFlag.Name) {
		if err := report.WriteText(os.Stdout, set, report.DefaultTopK); err != nil {
			return err
		}
	}

	if c.Bool(saveFlag.Name) {
		s, err := store.Open(cfg.DB, st.Logger)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SaveRun(run, set); err != nil {
			return err
		}
	}
	return nil
}

func writeHTMLFile(path string, set *attribution.ResultSet, meta report.Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create report file: %s", path)
	}
	if err := report.WriteHTML(f, set, meta); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close report file: %s", path)
}
