// Package ops defines the differentiable operations recorded on the
// gradient tape.
//
// Each operation captures its input and output tensors during the forward
// pass and knows how to turn the gradient at its output into gradients at
// its inputs:
//   - AddOp/SubOp/MulOp/DivOp: element-wise arithmetic with broadcast reduction
//   - MatMulOp/BatchMatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad
//   - SoftmaxOp: grad_j = s_j * (g_j - dot(g, s)) per slice
//   - GELUOp: grad = g * (Phi(x) + x*phi(x))
//   - EmbeddingOp: scatter-add into the weight table
//   - NarrowOp: zero-padded gradient back into the full input shape
package ops

import "github.com/verdict-ml/verdict/internal/tensor"

// Operation is a node of the recorded computation graph. The forward pass
// is performed by the backend; the operation only remembers enough to run
// the chain rule backwards.
type Operation interface {
	// Backward computes gradients for the inputs given the gradient at the
	// output, one entry per tensor returned by Inputs.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the tensors gradients flow back to.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by the forward pass.
	Output() *tensor.RawTensor
}
