package loader

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a strided read would run past its data.
var ErrOutOfBounds = errors.New("read out of bounds")

// ReadStrided gathers count elements of elementSize bytes starting at offset and spaced stride
// bytes apart into a tightly packed slice. A stride of zero means tightly packed.
//
// Parameters:
//   - data: the bytes of a buffer view
//   - offset: the byte offset of the first element
//   - stride: the distance between element starts
//   - elementSize: the size of one element
//   - count: the number of elements
//
// Returns:
//   - []byte: count*elementSize packed bytes
//   - error: ErrOutOfBounds if the last element does not fit in data
func ReadStrided(data []byte, offset, stride, elementSize, count int) ([]byte, error) {
	if stride == 0 {
		stride = elementSize
	}
	if count == 0 {
		return []byte{}, nil
	}
	if offset < 0 || stride < elementSize || offset+stride*(count-1)+elementSize > len(data) {
		return nil, fmt.Errorf("%w: %d elements of %d bytes at %d stride %d in %d bytes",
			ErrOutOfBounds, count, elementSize, offset, stride, len(data))
	}

	out := make([]byte, count*elementSize)
	if stride == elementSize {
		copy(out, data[offset:offset+len(out)])
		return out, nil
	}
	for i := 0; i < count; i++ {
		src := offset + i*stride
		copy(out[i*elementSize:(i+1)*elementSize], data[src:src+elementSize])
	}
	return out, nil
}
