package safetensors

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/verdict-ml/verdict/internal/tensor"
)

// Write serializes tensors to a safetensors file. Tensors are laid out in
// name order so output is deterministic. metadata may be nil.
//
// Only the native dtypes are written (F32, F64, I32, I64); exporting
// half-precision is out of scope.
func Write(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make(map[string]json.RawMessage, len(tensors)+1)
	if metadata != nil {
		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		entries["__metadata__"] = metaJSON
	}

	var offset int64
	for _, name := range names {
		raw := tensors[name]
		dtype, err := diskDType(raw.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}

		size := int64(raw.ByteSize())
		info := TensorInfo{
			DType:       dtype,
			Shape:       raw.Shape(),
			DataOffsets: [2]int64{offset, offset + size},
		}
		infoJSON, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		entries[name] = infoJSON
		offset += size
	}

	headerJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	//nolint:gosec // G304: output paths come from user configuration
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, name := range names {
		if _, err := w.Write(tensors[name].Data()); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}

	return file.Close()
}

// diskDType maps a native dtype to its safetensors tag.
func diskDType(dtype tensor.DataType) (DType, error) {
	switch dtype {
	case tensor.Float32:
		return F32, nil
	case tensor.Float64:
		return F64, nil
	case tensor.Int32:
		return I32, nil
	case tensor.Int64:
		return I64, nil
	default:
		return "", fmt.Errorf("unsupported dtype %v", dtype)
	}
}
