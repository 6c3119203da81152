package ops

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// EmbeddingOp records an embedding lookup: output[i] = weight[indices[i]].
//
// Backward scatter-adds each output gradient row into the weight gradient
// at its index. Positions that share an index accumulate:
//
//	indices = [0, 1, 0]
//	grad_weight[0] = grad_output[0] + grad_output[2]
//	grad_weight[1] = grad_output[1]
//
// Indices are integers and carry no gradient, so Inputs lists only the
// weight table.
type EmbeddingOp struct {
	weight  *tensor.RawTensor // [numEmbed, embedDim]
	indices *tensor.RawTensor // int32, any shape
	output  *tensor.RawTensor
}

// NewEmbeddingOp creates an EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		weight:  weight,
		indices: indices,
		output:  output,
	}
}

// Inputs returns the weight table only.
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.weight}
}

// Output returns the looked-up rows.
func (op *EmbeddingOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatter-adds gradient rows into a zeroed weight-shaped tensor.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	weightShape := op.weight.Shape()
	numEmbed, embedDim := weightShape[0], weightShape[1]

	gradWeight := zerosLike(weightShape, op.weight.DType(), backend.Device())
	indices := op.indices.AsInt32()

	switch op.weight.DType() {
	case tensor.Float32:
		dst := gradWeight.AsFloat32()
		src := outputGrad.AsFloat32()
		for i, idx := range indices {
			if idx < 0 || int(idx) >= numEmbed {
				panic(fmt.Sprintf("embedding backward: index %d out of range [0, %d)", idx, numEmbed))
			}
			row := dst[int(idx)*embedDim : (int(idx)+1)*embedDim]
			for j, g := range src[i*embedDim : (i+1)*embedDim] {
				row[j] += g
			}
		}
	case tensor.Float64:
		dst := gradWeight.AsFloat64()
		src := outputGrad.AsFloat64()
		for i, idx := range indices {
			if idx < 0 || int(idx) >= numEmbed {
				panic(fmt.Sprintf("embedding backward: index %d out of range [0, %d)", idx, numEmbed))
			}
			row := dst[int(idx)*embedDim : (int(idx)+1)*embedDim]
			for j, g := range src[i*embedDim : (i+1)*embedDim] {
				row[j] += g
			}
		}
	default:
		panic(fmt.Sprintf("embedding backward: unsupported dtype %s", op.weight.DType()))
	}

	return []*tensor.RawTensor{gradWeight}
}
