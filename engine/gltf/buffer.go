package gltf

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
)

// Buffer is a block of binary data of fixed declared length, fetched once on Load.
type Buffer struct {
	index      int
	name       string
	uri        string
	byteLength int
	doc        *document

	mu       sync.Mutex
	embedded []byte
	data     []byte
	loaded   bool
}

func newBuffer(doc *document, index int, src loader.GLTFBuffer, embedded []byte) *Buffer {
	return &Buffer{
		index:      index,
		name:       src.Name,
		uri:        src.URI,
		byteLength: src.ByteLength,
		doc:        doc,
		embedded:   embedded,
	}
}

// Index returns the position of the buffer in its document, or -1 for a synthetic buffer.
func (b *Buffer) Index() int { return b.index }

// Name returns the authored name.
func (b *Buffer) Name() string { return b.name }

// URI returns the authored URI. Empty for the GLB binary chunk.
func (b *Buffer) URI() string { return b.uri }

// ByteLength returns the declared length.
func (b *Buffer) ByteLength() int { return b.byteLength }

// Loaded reports whether the bytes were fetched.
func (b *Buffer) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Load fetches the buffer bytes. Calling Load on a loaded buffer does nothing, and concurrent
// calls wait for the first one. Fetch failures are returned and the buffer stays unloaded.
//
// Parameters:
//   - ctx: cancels the fetch
//
// Returns:
//   - error: error if the bytes cannot be fetched or are shorter than the declared length
func (b *Buffer) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}

	data := b.embedded
	if data == nil {
		uri := loader.ResolveURI(b.doc.baseURI, b.uri)
		fetched, err := b.doc.fetcher.Fetch(ctx, uri)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", b.index, err)
		}
		data = fetched
	}
	if len(data) < b.byteLength {
		return fmt.Errorf("buffer %d: %w: got %d bytes, declared %d", b.index, loader.ErrBufferSizeMismatch, len(data), b.byteLength)
	}

	b.data, b.loaded = data[:b.byteLength:b.byteLength], true
	b.doc.logger.Debug("buffer loaded", "buffer", b.index, "bytes", b.byteLength)
	return nil
}

// Data returns the fetched bytes. The slice is shared and must not be modified.
//
// Returns:
//   - []byte: the buffer contents
//   - error: ErrNotLoaded before Load
func (b *Buffer) Data() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return nil, fmt.Errorf("buffer %d: %w", b.index, ErrNotLoaded)
	}
	return b.data, nil
}

// BufferView is a byte range of a Buffer. It is loaded when its buffer is, and device-bound
// once uploaded by SetupGL. Device state is only touched from the rendering goroutine.
type BufferView struct {
	index      int
	name       string
	buffer     *Buffer
	byteOffset int
	byteLength int
	byteStride int
	target     device.BufferTarget

	dev    device.Device
	handle device.Buffer
}

func newBufferView(index int, src loader.GLTFBufferView, buf *Buffer) *BufferView {
	v := &BufferView{
		index:      index,
		name:       src.Name,
		buffer:     buf,
		byteOffset: src.ByteOffset,
		byteLength: src.ByteLength,
	}
	if src.ByteStride != nil {
		v.byteStride = *src.ByteStride
	}
	if src.Target != nil {
		v.target = device.BufferTarget(*src.Target)
	}
	return v
}

// Index returns the position of the view in its document, or -1 for a synthetic view.
func (v *BufferView) Index() int { return v.index }

// Buffer returns the backing buffer.
func (v *BufferView) Buffer() *Buffer { return v.buffer }

// ByteOffset returns the start of the view inside its buffer.
func (v *BufferView) ByteOffset() int { return v.byteOffset }

// ByteLength returns the length of the view.
func (v *BufferView) ByteLength() int { return v.byteLength }

// ByteStride returns the element stride for interleaved data, 0 when tightly packed.
func (v *BufferView) ByteStride() int { return v.byteStride }

// Target returns the authored bind target, 0 when unspecified.
func (v *BufferView) Target() device.BufferTarget { return v.target }

// Load loads the backing buffer.
func (v *BufferView) Load(ctx context.Context) error {
	return v.buffer.Load(ctx)
}

// Loaded reports whether the backing buffer is loaded.
func (v *BufferView) Loaded() bool {
	return v.buffer.Loaded()
}

// Bytes returns bytes [ByteOffset, ByteOffset+ByteLength) of the backing buffer.
//
// Returns:
//   - []byte: the view contents, shared with the buffer
//   - error: ErrNotLoaded before Load
func (v *BufferView) Bytes() ([]byte, error) {
	data, err := v.buffer.Data()
	if err != nil {
		return nil, fmt.Errorf("bufferView %d: %w", v.index, err)
	}
	end := v.byteOffset + v.byteLength
	return data[v.byteOffset:end:end], nil
}

// Bound reports whether the view was uploaded to a device.
func (v *BufferView) Bound() bool { return v.dev != nil }

// Handle returns the device buffer holding the view.
//
// Returns:
//   - device.Buffer: the handle
//   - error: ErrNotBound before SetupGL
func (v *BufferView) Handle() (device.Buffer, error) {
	if v.dev == nil {
		return 0, fmt.Errorf("bufferView %d: %w", v.index, ErrNotBound)
	}
	return v.handle, nil
}

// SetupGL uploads the view to dev. The authored target is used when present, fallback otherwise.
// Uploading an already bound view to the same device does nothing.
//
// Parameters:
//   - dev: the device
//   - fallback: the bind target when the view does not name one
//
// Returns:
//   - error: ErrNotLoaded, ErrDeviceMismatch, or a wrapped ErrDevice
func (v *BufferView) SetupGL(dev device.Device, fallback device.BufferTarget) error {
	if v.dev != nil {
		if v.dev != dev {
			return fmt.Errorf("bufferView %d: %w", v.index, ErrDeviceMismatch)
		}
		return nil
	}
	data, err := v.Bytes()
	if err != nil {
		return err
	}

	handle, err := dev.CreateBuffer()
	if err != nil {
		return fmt.Errorf("bufferView %d: %w: %v", v.index, ErrDevice, err)
	}
	target := v.target
	if target == 0 {
		target = fallback
	}
	dev.BindBuffer(target, handle)
	dev.BufferData(target, data)
	dev.BindBuffer(target, 0)

	v.dev, v.handle = dev, handle
	return nil
}

// release deletes the device buffer if the view is bound to dev.
func (v *BufferView) release(dev device.Device) {
	if v.dev == nil || v.dev != dev {
		return
	}
	dev.DeleteBuffer(v.handle)
	v.dev, v.handle = nil, 0
}
