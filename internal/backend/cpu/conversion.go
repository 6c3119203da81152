package cpu

import (
	"fmt"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// Cast converts a tensor to another data type. Casting to the same dtype
// returns a cheap buffer-sharing clone. Float to int truncates toward zero,
// following Go conversion rules.
func (cpu *CPUBackend) Cast(t *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if t.DType() == dtype {
		return t.Clone()
	}

	result := cpu.newResult(t.Shape(), dtype, "cast")

	switch t.DType() {
	case tensor.Float32:
		castFrom(result, t.AsFloat32())
	case tensor.Float64:
		castFrom(result, t.AsFloat64())
	case tensor.Int32:
		castFrom(result, t.AsInt32())
	case tensor.Int64:
		castFrom(result, t.AsInt64())
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", t.DType()))
	}

	return result
}

func castFrom[S tensor.DType](result *tensor.RawTensor, src []S) {
	switch result.DType() {
	case tensor.Float32:
		castSlice(result.AsFloat32(), src)
	case tensor.Float64:
		castSlice(result.AsFloat64(), src)
	case tensor.Int32:
		castSlice(result.AsInt32(), src)
	case tensor.Int64:
		castSlice(result.AsInt64(), src)
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", result.DType()))
	}
}

func castSlice[D, S tensor.DType](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}
