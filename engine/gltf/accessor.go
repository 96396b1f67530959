package gltf

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
)

// Accessor is a typed view over a BufferView. It owns no bytes; its load and device state are those of its view.
type Accessor struct {
	index         int
	name          string
	view          *BufferView
	byteOffset    int
	componentType device.ComponentType
	normalized    bool
	count         int
	typ           string
	components    int
	min, max      []float32
}

// newAccessor resolves src against views. An accessor without a buffer view gets a private
// zero-filled buffer so the rest of the pipeline never special-cases it.
func newAccessor(doc *document, index int, src loader.GLTFAccessor, views []*BufferView) *Accessor {
	a := &Accessor{
		index:         index,
		name:          src.Name,
		byteOffset:    src.ByteOffset,
		componentType: device.ComponentType(src.ComponentType),
		normalized:    src.Normalized,
		count:         src.Count,
		typ:           src.Type,
		components:    loader.AccessorTypeComponentCount(src.Type),
		min:           src.Min,
		max:           src.Max,
	}
	if src.BufferView != nil {
		a.view = views[*src.BufferView]
		return a
	}

	size := a.ElementSize() * a.count
	zeros := newBuffer(doc, -1, loader.GLTFBuffer{Name: src.Name, ByteLength: size}, make([]byte, size))
	a.view = newBufferView(-1, loader.GLTFBufferView{ByteLength: size}, zeros)
	a.byteOffset = 0
	return a
}

// Index returns the position of the accessor in its document.
func (a *Accessor) Index() int { return a.index }

// Name returns the authored name.
func (a *Accessor) Name() string { return a.name }

// View returns the buffer view read by the accessor.
func (a *Accessor) View() *BufferView { return a.view }

// ByteOffset returns the offset of the first element inside the view.
func (a *Accessor) ByteOffset() int { return a.byteOffset }

// ComponentType returns the scalar type of each component.
func (a *Accessor) ComponentType() device.ComponentType { return a.componentType }

// Normalized reports whether integer components map to [0, 1] or [-1, 1].
func (a *Accessor) Normalized() bool { return a.normalized }

// Count returns the number of elements.
func (a *Accessor) Count() int { return a.count }

// Type returns the element shape, such as VEC3 or MAT4.
func (a *Accessor) Type() string { return a.typ }

// Components returns the number of components per element.
func (a *Accessor) Components() int { return a.components }

// ElementSize returns the packed byte size of one element.
func (a *Accessor) ElementSize() int { return a.components * a.componentType.Size() }

// Min returns the authored per-component minimum, nil when absent.
func (a *Accessor) Min() []float32 { return a.min }

// Max returns the authored per-component maximum, nil when absent.
func (a *Accessor) Max() []float32 { return a.max }

// Load loads the backing view.
func (a *Accessor) Load(ctx context.Context) error {
	return a.view.Load(ctx)
}

// Loaded reports whether the backing view is loaded.
func (a *Accessor) Loaded() bool {
	return a.view.Loaded()
}

// Bytes returns the elements tightly packed, with any view stride removed.
//
// Returns:
//   - []byte: Count*ElementSize bytes
//   - error: ErrNotLoaded before Load
func (a *Accessor) Bytes() ([]byte, error) {
	data, err := a.view.Bytes()
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", a.index, err)
	}
	out, err := loader.ReadStrided(data, a.byteOffset, a.view.byteStride, a.ElementSize(), a.count)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", a.index, err)
	}
	return out, nil
}

// Float32s returns every component as a float. Integer components are converted, and
// normalized integers are mapped to [0, 1] or [-1, 1].
//
// Returns:
//   - []float32: Count*Components values
//   - error: ErrNotLoaded before Load
func (a *Accessor) Float32s() ([]float32, error) {
	data, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	if a.componentType == device.Float {
		return common.Float32sFromBytes(data), nil
	}

	n := a.count * a.components
	out := make([]float32, n)
	for i := range out {
		out[i] = a.component(data, i)
	}
	return out, nil
}

// component decodes integer component i of packed data.
func (a *Accessor) component(data []byte, i int) float32 {
	switch a.componentType {
	case device.Byte:
		v := float32(int8(data[i]))
		if a.normalized {
			return float32(math.Max(float64(v/127), -1))
		}
		return v
	case device.UnsignedByte:
		v := float32(data[i])
		if a.normalized {
			return v / 255
		}
		return v
	case device.Short:
		v := float32(int16(binary.LittleEndian.Uint16(data[2*i:])))
		if a.normalized {
			return float32(math.Max(float64(v/32767), -1))
		}
		return v
	case device.UnsignedShort:
		v := float32(binary.LittleEndian.Uint16(data[2*i:]))
		if a.normalized {
			return v / 65535
		}
		return v
	case device.UnsignedInt:
		return float32(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return 0
}

// Uint32s returns unsigned integer components widened to uint32, as used for indices and joints.
//
// Returns:
//   - []uint32: Count*Components values
//   - error: ErrNotLoaded before Load, or an error for signed or float components
func (a *Accessor) Uint32s() ([]uint32, error) {
	data, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, a.count*a.components)
	switch a.componentType {
	case device.UnsignedByte:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case device.UnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[2*i:]))
		}
	case device.UnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[4*i:])
		}
	default:
		return nil, fmt.Errorf("accessor %d: component type %d is not an unsigned integer", a.index, a.componentType)
	}
	return out, nil
}
