package common

import (
	"encoding/binary"
	"math"
)

// Float32sFromBytes decodes little-endian IEEE-754 floats from raw buffer bytes.
// Trailing bytes that do not form a whole float are ignored.
//
// Parameters:
//   - data: source bytes
//
// Returns:
//   - []float32: the decoded values
func Float32sFromBytes(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
