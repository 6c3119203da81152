package cli

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/verdict-ml/verdict/internal/attribution"
	"github.com/verdict-ml/verdict/internal/autodiff"
	"github.com/verdict-ml/verdict/internal/backend/cpu"
	"github.com/verdict-ml/verdict/internal/bert"
	"github.com/verdict-ml/verdict/internal/config"
	"github.com/verdict-ml/verdict/internal/dataset"
	"github.com/verdict-ml/verdict/internal/safetensors"
	"github.com/verdict-ml/verdict/internal/tokenizer"
)

// adBackend is the CPU backend wrapped with the gradient tape the
// attribution pass records on. Inference runs on it too; with the tape
// stopped the wrapper just forwards to the CPU kernels.
type adBackend = autodiff.AutodiffBackend[*cpu.CPUBackend]

// pipeline analyzes dataset records one at a time: tokenize, score,
// attribute, bundle.
type pipeline struct {
	backend *adBackend
	model   *bert.Model[*adBackend]
	tok     tokenizer.Tokenizer
	logger  *zap.Logger

	maxLen int
	attr   attribution.Config
}

// newPipeline loads the tokenizer and model from the checkpoint directory.
func newPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline, error) {
	backend := autodiff.New(cpu.New())

	tok, err := tokenizer.Load(cfg.Checkpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tokenizer from: %s", cfg.Checkpoint)
	}

	model, extra, err := safetensors.LoadModel(cfg.Checkpoint, backend)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load model from: %s", cfg.Checkpoint)
	}
	if len(extra) > 0 {
		logger.Debug("checkpoint tensors not used by the model", zap.Strings("names", extra))
	}

	maxLen := cfg.MaxLen
	if mp := model.Config.MaxPositionEmbeddings; maxLen > mp {
		logger.Debug("max length clamped to the model's position table",
			zap.Int("requested", maxLen), zap.Int("clamped", mp))
		maxLen = mp
	}

	logger.Info("model loaded",
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Int("layers", model.Config.NumHiddenLayers),
		zap.Int("hidden", model.Config.HiddenSize),
		zap.Int("parameters", model.NumParameters()))

	return &pipeline{
		backend: backend,
		model:   model,
		tok:     tok,
		logger:  logger,
		maxLen:  maxLen,
		attr: attribution.Config{
			Steps:  cfg.Steps,
			Method: attribution.Method(cfg.Method),
		},
	}, nil
}

// run analyzes records in order. Any record failing fails the whole run;
// partial result sets are never returned.
func (p *pipeline) run(records []dataset.Record) (*attribution.ResultSet, error) {
	set := attribution.NewResultSet()
	for _, rec := range records {
		res, err := p.analyze(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to analyze record: %s", rec.ID)
		}
		p.logger.Info("record analyzed",
			zap.String("id", res.RecordID),
			zap.Float64("score", res.Score),
			zap.Float64("truth", res.GroundTruth),
			zap.Float64("delta", res.Delta))
		set.Add(res)
	}
	return set, nil
}

func (p *pipeline) analyze(rec dataset.Record) (*attribution.Record, error) {
	ids, err := p.tok.Encode(rec.Text)
	if err != nil {
		return nil, errors.Wrap(err, "encoding text")
	}
	ids = tokenizer.Truncate(p.tok, ids, p.maxLen)

	refIDs, err := tokenizer.Reference(p.tok, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building reference")
	}

	input := bert.IDs(ids, p.backend)
	ref := bert.IDs(refIDs, p.backend)

	res, err := attribution.LayerIntegratedGradients(p.model, p.backend, input, ref, nil, p.attr)
	if err != nil {
		return nil, err
	}

	return attribution.NewRecord(rec.ID, res.InputScore, rec.Label,
		p.tok.Tokens(ids), res.Normalized, res.Delta), nil
}
