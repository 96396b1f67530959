package gltf

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
)

// Image is encoded pixel data addressed by URI or held in a buffer view.
type Image struct {
	index    int
	name     string
	uri      string
	mimeType string
	view     *BufferView
}

func newImage(index int, src loader.GLTFImage, views []*BufferView) *Image {
	img := &Image{
		index:    index,
		name:     src.Name,
		uri:      src.URI,
		mimeType: src.MimeType,
	}
	if src.BufferView != nil {
		img.view = views[*src.BufferView]
	}
	return img
}

// Index returns the position of the image in its document.
func (i *Image) Index() int { return i.index }

// Name returns the authored name.
func (i *Image) Name() string { return i.name }

// URI returns the authored URI, empty when the image lives in a buffer view.
func (i *Image) URI() string { return i.uri }

// MimeType returns the authored MIME type.
func (i *Image) MimeType() string { return i.mimeType }

// View returns the buffer view holding the encoded image, nil for URI images.
func (i *Image) View() *BufferView { return i.view }

// Texture pairs an image with sampling parameters. Its texture unit is the index of its image.
type Texture struct {
	index   int
	name    string
	image   *Image
	sampler device.SamplerParams
	doc     *document

	mu      sync.Mutex
	staging *common.TextureStagingData

	dev    device.Device
	handle device.Texture
}

func newTexture(doc *document, index int, src loader.GLTFTexture, images []*Image, samplers []loader.GLTFSampler) *Texture {
	t := &Texture{
		index:   index,
		name:    src.Name,
		image:   images[*src.Source],
		sampler: device.DefaultSamplerParams(),
		doc:     doc,
	}
	if src.Sampler != nil {
		t.sampler = samplerParams(samplers[*src.Sampler])
	}
	return t
}

// samplerParams maps a glTF sampler onto device parameters. Unset fields keep the defaults.
func samplerParams(s loader.GLTFSampler) device.SamplerParams {
	p := device.DefaultSamplerParams()
	if s.WrapS != nil {
		p.WrapS = device.TextureWrap(*s.WrapS)
	}
	if s.WrapT != nil {
		p.WrapT = device.TextureWrap(*s.WrapT)
	}
	if s.MinFilter != nil {
		p.MinFilter = device.TextureFilter(*s.MinFilter)
	}
	if s.MagFilter != nil {
		p.MagFilter = device.TextureFilter(*s.MagFilter)
	}
	return p
}

// Index returns the position of the texture in its document.
func (t *Texture) Index() int { return t.index }

// Name returns the authored name.
func (t *Texture) Name() string { return t.name }

// Image returns the source image.
func (t *Texture) Image() *Image { return t.image }

// Unit returns the texture unit the texture is bound to, which is the index of its image.
func (t *Texture) Unit() int { return t.image.index }

// Sampler returns the sampling parameters applied on upload.
func (t *Texture) Sampler() device.SamplerParams { return t.sampler }

// Loaded reports whether the image was fetched and decoded.
func (t *Texture) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.staging != nil
}

// Pixels returns the decoded RGBA pixels.
//
// Returns:
//   - *common.TextureStagingData: the pixels
//   - error: ErrNotLoaded before Load
func (t *Texture) Pixels() (*common.TextureStagingData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.staging == nil {
		return nil, fmt.Errorf("texture %d: %w", t.index, ErrNotLoaded)
	}
	return t.staging, nil
}

// Load fetches and decodes the source image. An image stored in a buffer view is turned into a
// data URI first, so its view must be loaded before the texture. Decoding runs on the document's
// decode pool. Loading a loaded texture does nothing.
//
// Parameters:
//   - ctx: cancels the fetch and the wait for the decoder
//
// Returns:
//   - error: error if the image cannot be fetched or decoded
func (t *Texture) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.staging != nil {
		t.doc.logger.Debug("texture already loaded", "texture", t.index)
		return nil
	}

	uri, err := t.sourceURI()
	if err != nil {
		return err
	}
	data, err := t.doc.fetcher.Fetch(ctx, uri)
	if err != nil {
		return fmt.Errorf("texture %d: %w", t.index, err)
	}

	staging, err := t.decode(ctx, data)
	if err != nil {
		return fmt.Errorf("texture %d: %w", t.index, err)
	}
	t.staging = staging
	t.doc.logger.Debug("texture loaded", "texture", t.index, "format", staging.Format,
		"width", staging.Width, "height", staging.Height)
	return nil
}

// sourceURI returns the resolved image URI, synthesising a data URI for buffer view images.
func (t *Texture) sourceURI() (string, error) {
	img := t.image
	if img.uri != "" {
		return loader.ResolveURI(t.doc.baseURI, img.uri), nil
	}
	data, err := img.view.Bytes()
	if err != nil {
		return "", fmt.Errorf("texture %d: image %d: %w", t.index, img.index, err)
	}
	return loader.EncodeDataURI(img.mimeType, data), nil
}

type decodeResult struct {
	staging *common.TextureStagingData
	err     error
}

// decode runs common.DecodeImage on the document's worker pool.
func (t *Texture) decode(ctx context.Context, data []byte) (*common.TextureStagingData, error) {
	done := make(chan decodeResult, 1)
	t.doc.decodePool().SubmitTask(worker.Task{
		ID: t.index,
		Do: func() (any, error) {
			staging, err := common.DecodeImage(data)
			done <- decodeResult{staging: staging, err: err}
			return staging, err
		},
	})

	select {
	case res := <-done:
		return res.staging, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Bound reports whether the texture was uploaded to a device.
func (t *Texture) Bound() bool { return t.dev != nil }

// Handle returns the device texture.
//
// Returns:
//   - device.Texture: the handle
//   - error: ErrNotBound before SetupGL
func (t *Texture) Handle() (device.Texture, error) {
	if t.dev == nil {
		return 0, fmt.Errorf("texture %d: %w", t.index, ErrNotBound)
	}
	return t.handle, nil
}

// SetupGL uploads the pixels to dev on the texture's unit, applies the sampler and builds
// mipmaps. Setting up a bound texture again on the same device does nothing.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - error: ErrNotLoaded, ErrDeviceMismatch, or a wrapped ErrDevice
func (t *Texture) SetupGL(dev device.Device) error {
	if t.dev != nil {
		if t.dev != dev {
			return fmt.Errorf("texture %d: %w", t.index, ErrDeviceMismatch)
		}
		return nil
	}
	staging, err := t.Pixels()
	if err != nil {
		return err
	}

	handle, err := dev.CreateTexture()
	if err != nil {
		return fmt.Errorf("texture %d: %w: %v", t.index, ErrDevice, err)
	}
	dev.ActiveTexture(t.Unit())
	dev.BindTexture(handle)
	dev.TexImage2D(int(staging.Width), int(staging.Height), staging.Pixels)
	dev.TexParameters(t.sampler)
	dev.GenerateMipmap()

	t.dev, t.handle = dev, handle
	return nil
}

// Bind makes the texture current on its unit.
func (t *Texture) Bind(dev device.Device) {
	dev.ActiveTexture(t.Unit())
	dev.BindTexture(t.handle)
}

func (t *Texture) release(dev device.Device) {
	if t.dev == nil || t.dev != dev {
		return
	}
	dev.DeleteTexture(t.handle)
	t.dev, t.handle = nil, 0
}
