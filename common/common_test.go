package common

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat32sFromBytes(t *testing.T) {
	vals := []float32{1, -2.5, 3.25}
	data, err := binary.Append(nil, binary.LittleEndian, vals)
	require.NoError(t, err)
	got := Float32sFromBytes(append(data, 0xff))
	assert.Equal(t, vals, got)
}

func TestDecodeImagePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	src.Set(1, 0, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	staged, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), staged.Width)
	assert.Equal(t, uint32(1), staged.Height)
	assert.Equal(t, "png", staged.Format)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, staged.Pixels)
}

func TestDecodeImageErrors(t *testing.T) {
	_, err := DecodeImage(nil)
	assert.ErrorIs(t, err, errEmptyImage)

	_, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}
