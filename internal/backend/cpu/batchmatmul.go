package cpu

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/parallel"
	"github.com/verdict-ml/verdict/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication on 3D or 4D tensors.
// All leading (batch) dimensions must match exactly; the trailing two
// dimensions follow the usual [m,k] @ [k,n] -> [m,n] rule. Batches are
// independent and run in parallel.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != len(bShape) {
		panic(fmt.Sprintf("batchmatmul: rank mismatch %v vs %v", aShape, bShape))
	}
	if len(aShape) != 3 && len(aShape) != 4 {
		panic(fmt.Sprintf("batchmatmul: expected 3D or 4D tensors, got %dD", len(aShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("batchmatmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	nBatchDims := len(aShape) - 2
	batchSize := 1
	for i := 0; i < nBatchDims; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimension %d mismatch: %v vs %v", i, aShape, bShape))
		}
		batchSize *= aShape[i]
	}

	m := aShape[nBatchDims]
	k := aShape[nBatchDims+1]
	if bShape[nBatchDims] != k {
		panic(fmt.Sprintf("batchmatmul: inner dimension mismatch: %v vs %v", aShape, bShape))
	}
	n := bShape[nBatchDims+1]

	outShape := make(tensor.Shape, len(aShape))
	copy(outShape, aShape[:nBatchDims])
	outShape[nBatchDims] = m
	outShape[nBatchDims+1] = n

	result := cpu.newResult(outShape, a.DType(), "batchmatmul")

	switch a.DType() {
	case tensor.Float32:
		batchMatmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), batchSize, m, k, n, cpu.par.PerItem())
	case tensor.Float64:
		batchMatmulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), batchSize, m, k, n, cpu.par.PerItem())
	default:
		panic(fmt.Sprintf("batchmatmul: unsupported dtype %s", a.DType()))
	}

	return result
}

func batchMatmulFloat32(c, a, b []float32, batchSize, m, k, n int, cfg parallel.Config) {
	parallel.For(batchSize, func(batch int) {
		aOff := batch * m * k
		bOff := batch * k * n
		cOff := batch * m * n
		for i := 0; i < m; i++ {
			row := a[aOff+i*k : aOff+(i+1)*k]
			out := c[cOff+i*n : cOff+(i+1)*n]
			for j := range out {
				out[j] = 0
			}
			for kIdx, av := range row {
				if av == 0 {
					continue
				}
				bRow := b[bOff+kIdx*n : bOff+(kIdx+1)*n]
				for j, bv := range bRow {
					out[j] += av * bv
				}
			}
		}
	}, cfg)
}

func batchMatmulFloat64(c, a, b []float64, batchSize, m, k, n int, cfg parallel.Config) {
	parallel.For(batchSize, func(batch int) {
		aOff := batch * m * k
		bOff := batch * k * n
		cOff := batch * m * n
		for i := 0; i < m; i++ {
			row := a[aOff+i*k : aOff+(i+1)*k]
			out := c[cOff+i*n : cOff+(i+1)*n]
			for j := range out {
				out[j] = 0
			}
			for kIdx, av := range row {
				if av == 0 {
					continue
				}
				bRow := b[bOff+kIdx*n : bOff+(kIdx+1)*n]
				for j, bv := range bRow {
					out[j] += av * bv
				}
			}
		}
	}, cfg)
}
