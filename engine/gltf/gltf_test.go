package gltf

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalJSON = `{"asset": {"version": "2.0"}, "scenes": [{"nodes": [0]}], "nodes": [{}]}`

// triangleData returns three VEC3 positions followed by three unsigned short indices and two pad bytes.
func triangleData() []byte {
	data := leBytes([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	data = append(data, leBytes([]uint16{0, 1, 2})...)
	return append(data, 0, 0)
}

// triangleJSON is one indexed triangle with a material and an attribute the default program ignores.
func triangleJSON() string {
	return fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0]}],
		"nodes": [{"name": "tri", "mesh": 0}],
		"meshes": [{"name": "triangle", "primitives": [{"attributes": {"POSITION": 0, "COLOR_0": 0}, "indices": 1, "material": 0}]}],
		"materials": [{"name": "plain"}],
		"buffers": [{"uri": %q, "byteLength": 44}],
		"bufferViews": [
			{"buffer": 0, "byteLength": 36, "target": 34962},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6, "target": 34963}
		],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		]
	}`, loader.EncodeDataURI("", triangleData()))
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildGLB packs a JSON chunk and a BIN chunk into a GLB container.
func buildGLB(jsonText string, bin []byte) []byte {
	pad := func(b []byte, fill byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, fill)
		}
		return b
	}
	jsonChunk := pad([]byte(jsonText), ' ')
	binChunk := pad(append([]byte(nil), bin...), 0)

	var out bytes.Buffer
	le := binary.LittleEndian
	out.Write(le.AppendUint32(nil, 0x46546C67))
	out.Write(le.AppendUint32(nil, 2))
	out.Write(le.AppendUint32(nil, uint32(12+8+len(jsonChunk)+8+len(binChunk))))
	out.Write(le.AppendUint32(nil, uint32(len(jsonChunk))))
	out.Write(le.AppendUint32(nil, 0x4E4F534A))
	out.Write(jsonChunk)
	out.Write(le.AppendUint32(nil, uint32(len(binChunk))))
	out.Write(le.AppendUint32(nil, 0x004E4942))
	out.Write(binChunk)
	return out.Bytes()
}

func loadedTriangle(t *testing.T, options ...DocumentBuilderOption) Document {
	t.Helper()
	doc, err := Parse(triangleJSON(), options...)
	require.NoError(t, err)
	require.NoError(t, doc.Load(context.Background()))
	return doc
}

func TestMinimalDocument(t *testing.T) {
	doc, err := Parse(minimalJSON)
	require.NoError(t, err)
	require.NotNil(t, doc.Scene())
	// Nothing to fetch, so the document is loaded straight after parsing.
	assert.True(t, doc.Loaded())
	assert.True(t, doc.Scene().Loaded())

	require.NoError(t, doc.Load(context.Background()))
	assert.True(t, doc.Loaded())
	assert.Equal(t, [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, doc.Nodes()[0].Global().Elements())

	// Loading again is a no-op.
	require.NoError(t, doc.Load(context.Background()))
}

func TestMinimalDocumentSetupWithoutLoad(t *testing.T) {
	doc, err := Parse(minimalJSON)
	require.NoError(t, err)

	dev := device.NewHeadless()
	require.NoError(t, doc.SetupGL(dev))
	assert.Empty(t, dev.Errors())
}

func TestParseInputs(t *testing.T) {
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(minimalJSON), &obj))
	src, err := loader.ParseString(minimalJSON)
	require.NoError(t, err)

	for name, input := range map[string]any{
		"string":   minimalJSON,
		"bytes":    []byte(minimalJSON),
		"reader":   strings.NewReader(minimalJSON),
		"map":      obj,
		"document": src.Document,
		"source":   src,
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse(input)
			require.NoError(t, err)
			assert.Len(t, doc.Nodes(), 1)
		})
	}

	_, err = Parse(42)
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = Parse(`{"asset": {"version": "2.0"}, "nodes": [{"children": [0]}]}`)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(`{"asset": {"version": "1.0"}}`)
	assert.ErrorIs(t, err, loader.ErrInvalidVersion)
}

func TestBufferViewRange(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	doc, err := Parse(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"buffers": [{"uri": %q, "byteLength": 16}],
		"bufferViews": [{"buffer": 0, "byteOffset": 4, "byteLength": 12}]
	}`, loader.EncodeDataURI("", data)))
	require.NoError(t, err)

	view := doc.BufferViews()[0]
	_, err = view.Bytes()
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, view.Load(context.Background()))
	got, err := view.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data[4:16], got)
}

var errUnreachable = errors.New("unreachable")

// stagedFetcher fails bad.bin at once and serves slow.bin shortly after that failure, unless
// the fetch context is cancelled first.
type stagedFetcher struct {
	failed chan struct{}
	data   []byte
}

func (f *stagedFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasSuffix(uri, "bad.bin") {
		close(f.failed)
		return nil, errUnreachable
	}
	<-f.failed
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(20 * time.Millisecond):
		return f.data, nil
	}
}

func TestFailedLoadDoesNotCancelSiblings(t *testing.T) {
	fetcher := &stagedFetcher{failed: make(chan struct{}), data: leBytes([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})}
	doc, err := Parse(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0, 1]}],
		"nodes": [{"name": "broken", "mesh": 0}, {"name": "fine", "mesh": 1}],
		"meshes": [
			{"primitives": [{"attributes": {"POSITION": 0}}]},
			{"primitives": [{"attributes": {"POSITION": 1}}]}
		],
		"buffers": [{"uri": "bad.bin", "byteLength": 36}, {"uri": "slow.bin", "byteLength": 36}],
		"bufferViews": [{"buffer": 0, "byteLength": 36}, {"buffer": 1, "byteLength": 36}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"}
		]
	}`, WithFetcher(fetcher))
	require.NoError(t, err)

	err = doc.Load(context.Background())
	assert.ErrorIs(t, err, errUnreachable)
	assert.False(t, doc.Loaded())
	assert.False(t, doc.Nodes()[0].Loaded())
	assert.True(t, doc.Nodes()[1].Loaded())
	assert.True(t, doc.Buffers()[1].Loaded())
}

func TestBufferSizeMismatch(t *testing.T) {
	doc, err := Parse(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"buffers": [{"uri": %q, "byteLength": 16}]
	}`, loader.EncodeDataURI("", make([]byte, 8))))
	require.NoError(t, err)

	err = doc.Buffers()[0].Load(context.Background())
	assert.ErrorIs(t, err, loader.ErrBufferSizeMismatch)
	assert.False(t, doc.Buffers()[0].Loaded())
}

func TestAccessorReads(t *testing.T) {
	// Two interleaved VEC2 unsigned bytes with a stride of 4 and normalized shorts after them.
	data := []byte{255, 0, 9, 9, 0, 255, 9, 9}
	data = append(data, leBytes([]int16{32767, -32768})...)
	doc, err := Parse(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"buffers": [{"uri": %q, "byteLength": 12}],
		"bufferViews": [
			{"buffer": 0, "byteLength": 8, "byteStride": 4},
			{"buffer": 0, "byteOffset": 8, "byteLength": 4}
		],
		"accessors": [
			{"bufferView": 0, "componentType": 5121, "normalized": true, "count": 2, "type": "VEC2"},
			{"bufferView": 1, "componentType": 5122, "normalized": true, "count": 2, "type": "SCALAR"},
			{"componentType": 5126, "count": 2, "type": "VEC3"},
			{"bufferView": 0, "componentType": 5121, "count": 2, "type": "VEC2"}
		]
	}`, loader.EncodeDataURI("", data)))
	require.NoError(t, err)

	accs := doc.Accessors()
	_, err = accs[0].Float32s()
	assert.ErrorIs(t, err, ErrNotLoaded)
	for _, a := range accs {
		require.NoError(t, a.Load(context.Background()))
	}

	got, err := accs[0].Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 1}, got)

	got, err = accs[1].Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -1}, got)

	got, err = accs[2].Float32s()
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 6), got)
	assert.Equal(t, -1, accs[2].View().Index())

	ints, err := accs[3].Uint32s()
	require.NoError(t, err)
	assert.Equal(t, []uint32{255, 0, 0, 255}, ints)

	_, err = accs[1].Uint32s()
	assert.Error(t, err)
}

func TestGLBBufferZero(t *testing.T) {
	bin := leBytes([]float32{1, 2, 3})
	glb := buildGLB(`{
		"asset": {"version": "2.0"},
		"buffers": [{"byteLength": 12}],
		"bufferViews": [{"buffer": 0, "byteLength": 12}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": 1, "type": "VEC3"}]
	}`, bin)

	doc, err := Parse(glb)
	require.NoError(t, err)
	acc := doc.Accessors()[0]
	require.NoError(t, acc.Load(context.Background()))
	got, err := acc.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got)
}

func TestTextureLoadIsIdempotent(t *testing.T) {
	pngData := encodePNG(t)
	doc, err := Parse(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"buffers": [{"uri": %q, "byteLength": %d}],
		"bufferViews": [{"buffer": 0, "byteLength": %d}],
		"images": [{"uri": %q}, {"bufferView": 0, "mimeType": "image/png"}],
		"samplers": [{"magFilter": 9729, "wrapS": 33071}],
		"textures": [{"source": 0, "sampler": 0}, {"source": 1}]
	}`, loader.EncodeDataURI("", pngData), len(pngData), len(pngData), loader.EncodeDataURI("image/png", pngData)),
		WithDecodeWorkers(2))
	require.NoError(t, err)
	ctx := context.Background()
	dev := device.NewHeadless()

	tex := doc.Textures()[0]
	assert.ErrorIs(t, tex.SetupGL(dev), ErrNotLoaded)
	require.NoError(t, tex.Load(ctx))
	require.NoError(t, tex.Load(ctx))
	require.NoError(t, tex.SetupGL(dev))
	require.NoError(t, tex.SetupGL(dev))
	assert.Equal(t, 1, dev.LiveTextures())

	handle, err := tex.Handle()
	require.NoError(t, err)
	info, ok := dev.TextureInfo(handle)
	require.True(t, ok)
	assert.Equal(t, 2, info.Width)
	assert.Equal(t, 0, info.Unit)
	assert.True(t, info.Mipmapped)
	assert.Equal(t, device.ClampToEdge, info.Params.WrapS)
	assert.Equal(t, device.Repeat, info.Params.WrapT)
	assert.Equal(t, device.Linear, info.Params.MagFilter)
	assert.Equal(t, []byte{255, 0, 0, 255}, info.Pixels[:4])

	assert.ErrorIs(t, tex.SetupGL(device.NewHeadless()), ErrDeviceMismatch)

	// An image stored in a buffer view needs the view loaded first.
	viewTex := doc.Textures()[1]
	assert.ErrorIs(t, viewTex.Load(ctx), ErrNotLoaded)
	require.NoError(t, doc.BufferViews()[0].Load(ctx))
	require.NoError(t, viewTex.Load(ctx))
	assert.Equal(t, 1, viewTex.Unit())
	assert.Equal(t, device.DefaultSamplerParams(), viewTex.Sampler())
}

func TestSetupRequiresLoad(t *testing.T) {
	doc, err := Parse(triangleJSON())
	require.NoError(t, err)
	assert.ErrorIs(t, doc.SetupGL(device.NewHeadless()), ErrNotLoaded)
}

func TestSetupAndDraw(t *testing.T) {
	doc := loadedTriangle(t)
	dev := device.NewHeadless()
	require.NoError(t, doc.SetupGL(dev))
	require.NoError(t, doc.SetupGL(dev))
	assert.Equal(t, 2, dev.LiveBuffers())

	prim := doc.Meshes()[0].Primitives()[0]
	assert.True(t, prim.Bound())
	assert.Equal(t, int32(0), prim.Attribute("POSITION").Location())
	assert.Equal(t, int32(-1), prim.Attribute("COLOR_0").Location())

	handle, err := prim.Indices().View().Handle()
	require.NoError(t, err)
	uploaded, ok := dev.BufferContents(handle)
	require.True(t, ok)
	assert.Equal(t, leBytes([]uint16{0, 1, 2}), uploaded)

	prog, err := prim.Material().Program(dev)
	require.NoError(t, err)
	dev.UseProgram(prog)
	require.NoError(t, prim.Draw(dev))

	calls := dev.DrawCalls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Indexed)
	assert.Equal(t, 3, calls[0].Count)
	assert.Equal(t, device.UnsignedShort, calls[0].IndexType)
	assert.Equal(t, device.Triangles, calls[0].Mode)
	pos := calls[0].Attributes[0]
	assert.Equal(t, 3, pos.Size)
	assert.Equal(t, device.Float, pos.Type)
	assert.Empty(t, dev.Errors())
}

func TestNonIndexedDrawUsesDefaultMaterial(t *testing.T) {
	doc, err := Parse(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scenes": [{"nodes": [0]}],
		"nodes": [{"mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "mode": 5}]}],
		"buffers": [{"uri": %q, "byteLength": 36}],
		"bufferViews": [{"buffer": 0, "byteLength": 36}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}]
	}`, loader.EncodeDataURI("", triangleData()[:36])))
	require.NoError(t, err)
	require.NoError(t, doc.Load(context.Background()))
	dev := device.NewHeadless()
	require.NoError(t, doc.SetupGL(dev))

	prim := doc.Meshes()[0].Primitives()[0]
	assert.True(t, prim.Material().IsDefault())
	assert.Equal(t, DefaultMaterialName, prim.Material().Name())

	prog, err := prim.Material().Program(dev)
	require.NoError(t, err)
	dev.UseProgram(prog)
	require.NoError(t, prim.Draw(dev))
	calls := dev.DrawCalls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Indexed)
	assert.Equal(t, 3, calls[0].Count)
	assert.Equal(t, device.TriangleStrip, calls[0].Mode)
}

func TestMissingPosition(t *testing.T) {
	vertex := shader.NewShader("nopos.vert", shader.ShaderTypeVertex, "attribute vec3 normal;\nuniform mat4 model;\nvoid main() {}\n")
	doc := loadedTriangle(t, WithShaders(vertex, shader.DefaultFragment()))
	err := doc.SetupGL(device.NewHeadless())
	assert.ErrorIs(t, err, ErrMissingPosition)
}

func TestMaterialBuildError(t *testing.T) {
	vertex := shader.NewShader("broken.vert", shader.ShaderTypeVertex, "#error broken\n")
	doc := loadedTriangle(t, WithShaders(vertex, shader.DefaultFragment()))
	dev := device.NewHeadless()
	err := doc.SetupGL(dev)
	assert.ErrorIs(t, err, ErrDevice)
	assert.ErrorIs(t, err, shader.ErrCompile)
}

func TestReleaseAndRebuild(t *testing.T) {
	doc := loadedTriangle(t)
	dev := device.NewHeadless()
	require.NoError(t, doc.SetupGL(dev))
	assert.Equal(t, 2, dev.LivePrograms())

	mat := doc.Materials()[0]
	before, err := mat.Program(dev)
	require.NoError(t, err)
	require.NoError(t, mat.Rebuild(dev))
	after, err := mat.Program(dev)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, 2, dev.LivePrograms())

	doc.Release(dev)
	assert.Equal(t, 0, dev.LiveBuffers())
	assert.Equal(t, 1, dev.LivePrograms())
	assert.False(t, doc.Meshes()[0].Primitives()[0].Bound())
	_, err = mat.Program(dev)
	assert.ErrorIs(t, err, ErrNotBound)
	assert.ErrorIs(t, mat.Rebuild(dev), ErrNotBound)

	_, err = DefaultMaterial().Program(dev)
	assert.NoError(t, err)
}

func TestDocumentQueries(t *testing.T) {
	doc := loadedTriangle(t)
	assert.Equal(t, "2.0", doc.Asset().Version)
	assert.Same(t, doc.Nodes()[0], doc.FindNode("tri"))
	assert.Nil(t, doc.FindNode("missing"))
	assert.Same(t, doc.Nodes()[0], doc.Scene().FindNode("tri"))
	assert.Error(t, doc.SetScene(3))
	assert.NoError(t, doc.SetScene(0))
	assert.Nil(t, doc.Camera())
	assert.Equal(t, "triangle", doc.Meshes()[0].Name())
	assert.NotEqual(t, doc.Meshes()[0].ID(), doc.Nodes()[0].ID())
}

// leBytes encodes fixed-size values little-endian, the byte order of glTF buffers.
func leBytes(data any) []byte {
	b, err := binary.Append(nil, binary.LittleEndian, data)
	if err != nil {
		panic(err)
	}
	return b
}
