package safetensors

import "math"

// f16ToF32 widens an IEEE 754 binary16 value to float32.
func f16ToF32(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF

	var bits uint32
	switch {
	case exp == 0:
		if mant == 0 {
			bits = sign << 31
		} else {
			// Subnormal half: renormalize into the float32 range.
			e := uint32(113)
			for mant&0x400 == 0 {
				mant <<= 1
				e--
			}
			bits = sign<<31 | e<<23 | (mant&0x3FF)<<13
		}
	case exp == 0x1F:
		// Inf and NaN map onto the float32 max exponent.
		bits = sign<<31 | 0xFF<<23 | mant<<13
	default:
		bits = sign<<31 | (exp+112)<<23 | mant<<13
	}
	return math.Float32frombits(bits)
}

// bf16ToF32 widens a bfloat16 value to float32. bfloat16 is the top half of
// a float32, so the conversion is a shift.
func bf16ToF32(h uint16) float32 {
	return math.Float32frombits(uint32(h) << 16)
}
