package loader

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalJSON = `{
	"asset": {"version": "2.0"},
	"scene": 0,
	"scenes": [{"nodes": [0]}],
	"nodes": [{"name": "root", "children": [1]}, {"name": "leaf", "translation": [1, 2, 3]}]
}`

// buildGLB packs a JSON chunk and an optional BIN chunk into a GLB container.
func buildGLB(t *testing.T, version uint32, jsonText string, bin []byte) []byte {
	t.Helper()
	pad := func(b []byte, fill byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, fill)
		}
		return b
	}
	jsonChunk := pad([]byte(jsonText), ' ')
	binChunk := pad(append([]byte(nil), bin...), 0)

	var out bytes.Buffer
	total := 12 + 8 + len(jsonChunk)
	if bin != nil {
		total += 8 + len(binChunk)
	}
	require.NoError(t, binary.Write(&out, binary.LittleEndian, glbHeader{Magic: glbMagic, Version: version, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, glbChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: glbChunkJSON}))
	out.Write(jsonChunk)
	if bin != nil {
		require.NoError(t, binary.Write(&out, binary.LittleEndian, glbChunkHeader{ChunkLength: uint32(len(binChunk)), ChunkType: glbChunkBIN}))
		out.Write(binChunk)
	}
	return out.Bytes()
}

func TestParseString(t *testing.T) {
	src, err := ParseString(minimalJSON)
	require.NoError(t, err)
	require.Len(t, src.Document.Nodes, 2)
	assert.Equal(t, 0, src.Document.ActiveScene())
	assert.Equal(t, []float32{1, 2, 3}, src.Document.Nodes[1].Translation)
	assert.Nil(t, src.BinaryChunk)
}

func TestParseBlobAndReader(t *testing.T) {
	src, err := Parse(append([]byte("\xef\xbb\xbf"), minimalJSON...))
	require.NoError(t, err)
	assert.Equal(t, "root", src.Document.Nodes[0].Name)

	src, err = ParseReader(bytes.NewReader([]byte(minimalJSON)))
	require.NoError(t, err)
	assert.Len(t, src.Document.Scenes, 1)

	_, err = Parse([]byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrNotText)
}

func TestFromMap(t *testing.T) {
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(minimalJSON), &obj))
	src, err := FromMap(obj)
	require.NoError(t, err)
	assert.Equal(t, "leaf", src.Document.Nodes[1].Name)

	_, err = FromDocument(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRejectsVersion(t *testing.T) {
	_, err := ParseString(`{"asset": {"version": "1.0"}}`)
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = ParseString(`{"asset": `)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidateMalformed(t *testing.T) {
	cases := map[string]string{
		"child out of range":    `{"asset":{"version":"2.0"},"nodes":[{"children":[3]}]}`,
		"two parents":           `{"asset":{"version":"2.0"},"nodes":[{"children":[2]},{"children":[2]},{}]}`,
		"cycle":                 `{"asset":{"version":"2.0"},"nodes":[{"children":[1]},{"children":[0]}]}`,
		"self child":            `{"asset":{"version":"2.0"},"nodes":[{"children":[0]}]}`,
		"translation length":    `{"asset":{"version":"2.0"},"nodes":[{"translation":[1,2,3,4]}]}`,
		"rotation length":       `{"asset":{"version":"2.0"},"nodes":[{"rotation":[0,0,1]}]}`,
		"matrix length":         `{"asset":{"version":"2.0"},"nodes":[{"matrix":[1,0,0,0]}]}`,
		"scene out of range":    `{"asset":{"version":"2.0"},"scene":1,"scenes":[{"nodes":[]}]}`,
		"root out of range":     `{"asset":{"version":"2.0"},"scenes":[{"nodes":[0]}]}`,
		"view exceeds buffer":   `{"asset":{"version":"2.0"},"buffers":[{"uri":"a.bin","byteLength":8}],"bufferViews":[{"buffer":0,"byteOffset":4,"byteLength":8}]}`,
		"view buffer missing":   `{"asset":{"version":"2.0"},"bufferViews":[{"buffer":0,"byteLength":8}]}`,
		"buffer without uri":    `{"asset":{"version":"2.0"},"buffers":[{"byteLength":8}]}`,
		"accessor exceeds view": `{"asset":{"version":"2.0"},"buffers":[{"uri":"a.bin","byteLength":16}],"bufferViews":[{"buffer":0,"byteLength":16}],"accessors":[{"bufferView":0,"componentType":5126,"count":2,"type":"VEC3"}]}`,
		"accessor unknown type": `{"asset":{"version":"2.0"},"accessors":[{"componentType":5126,"count":1,"type":"VEC5"}]}`,
		"sparse accessor":       `{"asset":{"version":"2.0"},"accessors":[{"componentType":5126,"count":1,"type":"SCALAR","sparse":{"count":1}}]}`,
		"mesh material":         `{"asset":{"version":"2.0"},"accessors":[{"componentType":5126,"count":1,"type":"VEC3"}],"meshes":[{"primitives":[{"attributes":{"POSITION":0},"material":2}]}]}`,
		"mesh attribute":        `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{"POSITION":0}}]}]}`,
		"skin joint":            `{"asset":{"version":"2.0"},"skins":[{"joints":[4]}]}`,
		"camera type":           `{"asset":{"version":"2.0"},"cameras":[{"type":"fisheye"}]}`,
		"camera payload":        `{"asset":{"version":"2.0"},"cameras":[{"type":"perspective"}]}`,
		"texture source":        `{"asset":{"version":"2.0"},"textures":[{"source":0}]}`,
		"image without data":    `{"asset":{"version":"2.0"},"images":[{}]}`,
		"required extension":    `{"asset":{"version":"2.0"},"extensionsRequired":["KHR_draco_mesh_compression"]}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(text)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestValidateAcceptsStridedAccessor(t *testing.T) {
	text := `{"asset":{"version":"2.0"},
		"buffers":[{"uri":"a.bin","byteLength":32}],
		"bufferViews":[{"buffer":0,"byteLength":32,"byteStride":16}],
		"accessors":[{"bufferView":0,"byteOffset":4,"componentType":5126,"count":2,"type":"VEC3"}],
		"cameras":[{"type":"perspective","perspective":{"yfov":1,"znear":0.1}}]}`
	_, err := ParseString(text)
	assert.NoError(t, err)
}

func TestParseGLB(t *testing.T) {
	doc := `{"asset":{"version":"2.0"},"buffers":[{"byteLength":6}],"bufferViews":[{"buffer":0,"byteLength":6}]}`
	src, err := Parse(buildGLB(t, 2, doc, []byte{1, 2, 3, 4, 5, 6}))
	require.NoError(t, err)
	require.NotNil(t, src.BinaryChunk)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, src.BinaryChunk[:6])
	assert.Len(t, src.Document.BufferViews, 1)

	_, err = Parse(buildGLB(t, 1, doc, nil))
	assert.ErrorIs(t, err, ErrInvalidGLBVersion)

	// Without a BIN chunk buffer 0 has nothing to back it.
	_, err = Parse(buildGLB(t, 2, doc, nil))
	assert.ErrorIs(t, err, ErrMalformed)

	truncated := buildGLB(t, 2, doc, []byte{1, 2, 3, 4})
	_, err = Parse(truncated[:len(truncated)-2])
	assert.ErrorIs(t, err, ErrTruncatedGLB)
}

func TestDataURI(t *testing.T) {
	uri := EncodeDataURI("image/png", []byte("pixels"))
	assert.Equal(t, "data:image/png;base64,cGl4ZWxz", uri)

	data, mime, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("pixels"), data)

	data, _, err = DecodeDataURI("data:application/octet-stream;base64,AQID")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	data, _, err = DecodeDataURI("data:;base64,AQIDBA")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	data, mime, err = DecodeDataURI("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, "hello world", string(data))

	_, _, err = DecodeDataURI("data:image/png;base64")
	assert.ErrorIs(t, err, ErrInvalidDataURI)
	_, _, err = DecodeDataURI("data:;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	assert.Equal(t, "data:application/octet-stream;base64,", EncodeDataURI("", nil))
}

func TestReadStrided(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	got, err := ReadStrided(data, 1, 0, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got)

	got, err = ReadStrided(data, 0, 4, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 4, 5, 8, 9}, got)

	_, err = ReadStrided(data, 4, 4, 2, 3)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	got, err = ReadStrided(data, 0, 0, 4, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetcherSources(t *testing.T) {
	fsys := fstest.MapFS{
		"models/box.bin":     {Data: []byte{9, 8, 7}},
		"models/my file.bin": {Data: []byte{1}},
	}
	f := NewFetcher(WithFS(fsys))
	ctx := context.Background()

	data, err := f.Fetch(ctx, "models/box.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, data)

	data, err = f.Fetch(ctx, "models/my%20file.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	data, err = f.Fetch(ctx, "data:;base64,AQI=")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)

	_, err = f.Fetch(ctx, "models/missing.bin")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.Fetch(cancelled, "models/box.bin")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcherHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.bin" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	f := NewFetcher(WithHTTPClient(srv.Client()))
	data, err := f.Fetch(context.Background(), srv.URL+"/scene.bin")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.bin")
	assert.ErrorIs(t, err, ErrFetchStatus)
	assert.Equal(t, int32(2), hits.Load())
}

func TestResolveURI(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"", "scene.bin", "scene.bin"},
		{"models/fox.gltf", "fox.bin", "models/fox.bin"},
		{"models/fox.gltf", "../tex/fur.png", "tex/fur.png"},
		{"models/fox.gltf", "data:;base64,AA==", "data:;base64,AA=="},
		{"models/fox.gltf", "/abs/fox.bin", "/abs/fox.bin"},
		{"https://example.com/a/fox.gltf", "fox.bin", "https://example.com/a/fox.bin"},
		{"models/fox.gltf", "https://cdn.example.com/fox.bin", "https://cdn.example.com/fox.bin"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ResolveURI(c.base, c.ref), "%s + %s", c.base, c.ref)
	}
}

func TestLoaderCaches(t *testing.T) {
	fsys := fstest.MapFS{"scenes/min.gltf": {Data: []byte(minimalJSON)}}
	l := NewLoader(WithFetcher(NewFetcher(WithFS(fsys))))
	ctx := context.Background()

	src, err := l.Load(ctx, "scenes/min.gltf")
	require.NoError(t, err)
	assert.Equal(t, "scenes/min.gltf", src.BaseURI)
	assert.Same(t, src, l.Get("scenes/min.gltf"))

	again, err := l.Load(ctx, "scenes/min.gltf")
	require.NoError(t, err)
	assert.Same(t, src, again)
	assert.Len(t, l.Sources(), 1)

	l.Evict("scenes/min.gltf")
	assert.Nil(t, l.Get("scenes/min.gltf"))

	_, err = l.Load(ctx, "scenes/none.gltf")
	assert.Error(t, err)

	pre := &Source{Document: &GLTFDocument{}}
	l = NewLoader(WithSource("mem", pre))
	got, err := l.Load(ctx, "mem")
	require.NoError(t, err)
	assert.Same(t, pre, got)
	assert.NotNil(t, l.Fetcher())
}
