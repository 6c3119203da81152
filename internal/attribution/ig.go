package attribution

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/autodiff"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// LayerIntegratedGradients attributes the model's score over the tokens of
// a single sequence.
//
// input and ref are (1, seq) id tensors of the same length; ref is normally
// the padding baseline from tokenizer.Reference. mask may be nil when
// nothing is padded. The backend must be an autodiff decorator; the
// function owns the tape for the duration of the call and leaves it stopped
// and clear.
func LayerIntegratedGradients[B autodiff.BackwardCapable](
	model ScoreModel[B],
	backend B,
	input, ref *tensor.Tensor[int32, B],
	mask *tensor.Tensor[float32, B],
	cfg Config,
) (*Result, error) {
	cfg = cfg.withDefaults()

	if !input.Shape().Equal(ref.Shape()) {
		return nil, fmt.Errorf("input shape %v does not match reference shape %v", input.Shape(), ref.Shape())
	}
	if len(input.Shape()) != 2 || input.Shape()[0] != 1 {
		return nil, fmt.Errorf("attribution runs one sequence at a time, got ids of shape %v", input.Shape())
	}

	alphas, weights, err := quadrature(cfg.Method, cfg.Steps)
	if err != nil {
		return nil, err
	}

	tape := backend.GetTape()
	tape.StopRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	// Endpoints and their scores stay off the tape.
	inputEmb := model.EmbedOnly(input, nil)
	refEmb := model.EmbedOnly(ref, nil)
	diff := inputEmb.Sub(refEmb)

	inputOut := model.ForwardFromEmbeddings(inputEmb, mask)
	if n := inputOut.NumElements(); n != 1 {
		return nil, fmt.Errorf("attribution requires a single-label head, model produced %d outputs", n)
	}
	inputScore := float64(inputOut.Item())
	refScore := float64(model.ForwardFromEmbeddings(refEmb, mask).Item())

	shape := inputEmb.Shape()
	seq, hidden := shape[1], shape[2]
	accum := make([]float64, seq*hidden)

	for k, alpha := range alphas {
		interp := refEmb.Add(diff.MulScalar(float32(alpha)))

		tape.Clear()
		tape.StartRecording()
		out := model.ForwardFromEmbeddings(interp, mask)
		grads := autodiff.Backward(out, backend)
		tape.StopRecording()
		tape.Clear()

		grad, ok := grads[interp.Raw()]
		if !ok {
			return nil, fmt.Errorf("gradient did not reach the embedding layer at step %d", k)
		}
		gradData := grad.AsFloat32()
		w := weights[k]
		for i, g := range gradData {
			accum[i] += w * float64(g)
		}
	}

	// Scale the accumulated gradients by the path taken.
	diffData := diff.Data()
	perToken := make([]float64, seq)
	total := 0.0
	for i, d := range diffData {
		a := float64(d) * accum[i]
		perToken[i/hidden] += a
		total += a
	}

	return &Result{
		PerToken:   perToken,
		Normalized: L2Normalize(perToken),
		InputScore: inputScore,
		RefScore:   refScore,
		Delta:      total - (inputScore - refScore),
		Steps:      cfg.Steps,
		Method:     cfg.Method,
	}, nil
}
