// Package gltf turns a validated glTF description into a linked asset graph: buffers, views,
// accessors, textures, materials, meshes, skins, cameras and a node hierarchy with cached
// transforms. Every resource goes through the same monotonic lifecycle: declared at parse,
// loaded by Load, device resident after SetupGL.
package gltf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/shader"
)

// document is the implementation of the Document interface.
type document struct {
	asset   loader.GLTFAsset
	baseURI string
	fetcher loader.Fetcher
	logger  *slog.Logger

	decodeWorkers int
	poolOnce      sync.Once
	pool          worker.DynamicWorkerPool

	vertexShader   shader.Shader
	fragmentShader shader.Shader

	buffers     []*Buffer
	bufferViews []*BufferView
	accessors   []*Accessor
	images      []*Image
	textures    []*Texture
	materials   []*Material
	meshes      []*Mesh
	cameras     []*Camera
	nodes       []*Node
	skins       []*Skin
	scenes      []*Scene

	scene int
}

// Document is a parsed glTF asset with every cross reference resolved.
// Topology is fixed after parse; only node transforms, the active scene and camera aspect change.
type Document interface {
	// Asset returns the asset metadata block.
	Asset() loader.GLTFAsset

	// BaseURI returns the location relative resource URIs resolve against.
	BaseURI() string

	// Buffers returns every buffer in document order.
	Buffers() []*Buffer

	// BufferViews returns every buffer view in document order.
	BufferViews() []*BufferView

	// Accessors returns every accessor in document order.
	Accessors() []*Accessor

	// Images returns every image in document order.
	Images() []*Image

	// Textures returns every texture in document order.
	Textures() []*Texture

	// Materials returns every authored material in document order. The default material is not included.
	Materials() []*Material

	// Meshes returns every mesh in document order.
	Meshes() []*Mesh

	// Nodes returns every node in document order.
	Nodes() []*Node

	// Scenes returns every scene in document order.
	Scenes() []*Scene

	// Skins returns every skin in document order.
	Skins() []*Skin

	// Cameras returns every camera in document order.
	Cameras() []*Camera

	// Scene returns the active scene.
	//
	// Returns:
	//   - *Scene: the active scene, nil when the document has none
	Scene() *Scene

	// SetScene selects the active scene. The new scene must be loaded and set up before drawing.
	//
	// Parameters:
	//   - index: the scene index
	//
	// Returns:
	//   - error: error if index is out of range
	SetScene(index int) error

	// Camera returns the first camera carried by a node of the active scene, falling back to the
	// first camera carried by any node.
	//
	// Returns:
	//   - *Camera: the camera, nil when no node carries one
	Camera() *Camera

	// FindNode returns the first node called name in document order.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - *Node: the node, or nil
	FindNode(name string) *Node

	// Load loads the active scene and everything it references.
	//
	// Parameters:
	//   - ctx: cancels the fetches
	//
	// Returns:
	//   - error: the first load error
	Load(ctx context.Context) error

	// Loaded reports whether the active scene is loaded.
	Loaded() bool

	// SetupGL uploads the active scene to dev. Must run on the rendering goroutine after Load.
	//
	// Parameters:
	//   - dev: the device
	//
	// Returns:
	//   - error: ErrNotLoaded before Load, or the first setup error
	SetupGL(dev device.Device) error

	// Release deletes every buffer, texture and program the document created on dev. The
	// default material keeps its program.
	//
	// Parameters:
	//   - dev: the device
	Release(dev device.Device)

	// Logger returns the logger the document reports through.
	Logger() *slog.Logger
}

var _ Document = &document{}

// Parse builds a Document from a description given as a JSON string, a binary blob ([]byte or
// io.Reader, JSON text or GLB), a decoded *loader.GLTFDocument, a bare map[string]any object,
// or an already decoded *loader.Source.
//
// Parameters:
//   - input: the description
//   - options: a variadic list of DocumentBuilderOption functions
//
// Returns:
//   - Document: the linked document, not yet loaded
//   - error: ErrUnsupportedInput, or an error wrapping ErrMalformed or a loader error
func Parse(input any, options ...DocumentBuilderOption) (Document, error) {
	var (
		src *loader.Source
		err error
	)
	switch v := input.(type) {
	case string:
		src, err = loader.ParseString(v)
	case []byte:
		src, err = loader.Parse(v)
	case io.Reader:
		src, err = loader.ParseReader(v)
	case *loader.GLTFDocument:
		src, err = loader.FromDocument(v)
	case map[string]any:
		src, err = loader.FromMap(v)
	case *loader.Source:
		return FromSource(v, options...)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
	}
	if err != nil {
		return nil, err
	}
	return build(src, options...)
}

// FromSource builds a Document from a decoded source, validating it again first.
//
// Parameters:
//   - src: the source
//   - options: a variadic list of DocumentBuilderOption functions
//
// Returns:
//   - Document: the linked document, not yet loaded
//   - error: an error wrapping ErrMalformed if src is invalid
func FromSource(src *loader.Source, options ...DocumentBuilderOption) (Document, error) {
	if src == nil || src.Document == nil {
		return nil, fmt.Errorf("%w: nil source", ErrMalformed)
	}
	if err := loader.Validate(src.Document, src.BinaryChunk != nil); err != nil {
		return nil, err
	}
	return build(src, options...)
}

// Open reads the description at uri through l and builds a Document whose resources are
// fetched with l's fetcher, relative to uri.
//
// Parameters:
//   - ctx: cancels the fetch
//   - l: the loader
//   - uri: where the description lives
//   - options: a variadic list of DocumentBuilderOption functions, applied after the loader defaults
//
// Returns:
//   - Document: the linked document, not yet loaded
//   - error: error if the description cannot be read or is malformed
func Open(ctx context.Context, l loader.Loader, uri string, options ...DocumentBuilderOption) (Document, error) {
	src, err := l.Load(ctx, uri)
	if err != nil {
		return nil, err
	}
	opts := append([]DocumentBuilderOption{WithFetcher(l.Fetcher())}, options...)
	return build(src, opts...)
}

// build creates every entity and resolves every index in one pass. src must be valid.
func build(src *loader.Source, options ...DocumentBuilderOption) (*document, error) {
	gd := src.Document
	d := &document{
		asset:          gd.Asset,
		baseURI:        src.BaseURI,
		logger:         slog.Default(),
		decodeWorkers:  max(runtime.NumCPU()-1, 1),
		vertexShader:   shader.DefaultVertex(),
		fragmentShader: shader.DefaultFragment(),
		scene:          gd.ActiveScene(),
	}
	for _, option := range options {
		option(d)
	}
	if d.fetcher == nil {
		d.fetcher = loader.NewFetcher(loader.WithFetcherLogger(d.logger))
	}

	for i, b := range gd.Buffers {
		var embedded []byte
		if i == 0 && b.URI == "" {
			embedded = src.BinaryChunk
		}
		d.buffers = append(d.buffers, newBuffer(d, i, b, embedded))
	}
	for i, v := range gd.BufferViews {
		d.bufferViews = append(d.bufferViews, newBufferView(i, v, d.buffers[v.Buffer]))
	}
	for i, a := range gd.Accessors {
		d.accessors = append(d.accessors, newAccessor(d, i, a, d.bufferViews))
	}
	for i, img := range gd.Images {
		d.images = append(d.images, newImage(i, img, d.bufferViews))
	}
	for i, t := range gd.Textures {
		d.textures = append(d.textures, newTexture(d, i, t, d.images, gd.Samplers))
	}
	for i, m := range gd.Materials {
		d.materials = append(d.materials, newMaterialFrom(d, i, m, d.textures))
	}
	for i, m := range gd.Meshes {
		d.meshes = append(d.meshes, newMesh(d, i, m, d.accessors, d.materials))
	}
	for i, c := range gd.Cameras {
		d.cameras = append(d.cameras, newCameraFrom(i, c))
	}
	for i, n := range gd.Nodes {
		d.nodes = append(d.nodes, newNodeFrom(i, n))
	}
	for i, s := range gd.Skins {
		d.skins = append(d.skins, newSkin(d, i, s, d.accessors, d.nodes))
	}
	d.link(gd)
	for i, s := range gd.Scenes {
		d.scenes = append(d.scenes, newScene(d, i, s, d.nodes))
	}

	d.logger.Debug("document parsed", "base", d.baseURI, "buffers", len(d.buffers), "meshes", len(d.meshes),
		"nodes", len(d.nodes), "scenes", len(d.scenes), "scene", d.scene)
	return d, nil
}

// link wires node children, meshes, skins and cameras. A skin or camera referenced by several
// nodes belongs to the first one.
func (d *document) link(gd *loader.GLTFDocument) {
	for i, src := range gd.Nodes {
		n := d.nodes[i]
		for _, c := range src.Children {
			child := d.nodes[c]
			child.parent = n
			n.children = append(n.children, child)
		}
		if src.Mesh != nil {
			n.mesh = d.meshes[*src.Mesh]
		}
		if src.Skin != nil {
			n.skin = d.skins[*src.Skin]
			if n.skin.owner == nil {
				n.skin.owner = n
			} else {
				d.logger.Warn("skin shared by several nodes, first node owns it",
					"skin", *src.Skin, "owner", n.skin.owner.index, "node", i)
			}
		}
	}

	// Cameras need parents wired to find the node behind a correction node.
	for i, src := range gd.Nodes {
		if src.Camera == nil {
			continue
		}
		n := d.nodes[i]
		n.camera = d.cameras[*src.Camera]
		if n.camera.correction == nil {
			n.camera.attach(n)
		} else {
			d.logger.Warn("camera carried by several nodes, first node keeps it",
				"camera", *src.Camera, "node", i)
		}
	}
}

// decodePool returns the worker pool textures decode on, starting it on first use.
func (d *document) decodePool() worker.DynamicWorkerPool {
	d.poolOnce.Do(func() {
		d.pool = worker.NewDynamicWorkerPool(d.decodeWorkers, 256, 1*time.Second)
	})
	return d.pool
}

func (d *document) Asset() loader.GLTFAsset { return d.asset }
func (d *document) BaseURI() string { return d.baseURI }
func (d *document) Buffers() []*Buffer { return d.buffers }
func (d *document) BufferViews() []*BufferView { return d.bufferViews }
func (d *document) Accessors() []*Accessor { return d.accessors }
func (d *document) Images() []*Image { return d.images }
func (d *document) Textures() []*Texture { return d.textures }
func (d *document) Materials() []*Material { return d.materials }
func (d *document) Meshes() []*Mesh { return d.meshes }
func (d *document) Nodes() []*Node { return d.nodes }
func (d *document) Scenes() []*Scene { return d.scenes }
func (d *document) Skins() []*Skin { return d.skins }
func (d *document) Cameras() []*Camera { return d.cameras }
func (d *document) Logger() *slog.Logger { return d.logger }

func (d *document) Scene() *Scene {
	if d.scene < 0 || d.scene >= len(d.scenes) {
		return nil
	}
	return d.scenes[d.scene]
}

func (d *document) SetScene(index int) error {
	if index < 0 || index >= len(d.scenes) {
		return fmt.Errorf("scene index %d out of range [0, %d)", index, len(d.scenes))
	}
	d.scene = index
	return nil
}

func (d *document) Camera() *Camera {
	if s := d.Scene(); s != nil {
		var found *Camera
		s.Walk(func(n *Node) bool {
			if found == nil && n.camera != nil && n.camera.correction == n {
				found = n.camera
			}
			return found == nil
		})
		if found != nil {
			return found
		}
	}
	for _, c := range d.cameras {
		if c.correction != nil {
			return c
		}
	}
	return nil
}

func (d *document) FindNode(name string) *Node {
	for _, n := range d.nodes {
		if n.name == name {
			return n
		}
	}
	return nil
}

func (d *document) Load(ctx context.Context) error {
	s := d.Scene()
	if s == nil {
		d.logger.Debug("document has no scene to load")
		return DefaultMaterial().Load(ctx)
	}
	return s.Load(ctx)
}

func (d *document) Loaded() bool {
	s := d.Scene()
	return s == nil || s.Loaded()
}

func (d *document) SetupGL(dev device.Device) error {
	s := d.Scene()
	if s == nil {
		return DefaultMaterial().SetupGL(dev)
	}
	if err := s.SetupGL(dev); err != nil {
		return err
	}
	d.logger.Debug("document set up", "scene", s.index)
	return nil
}

func (d *document) Release(dev device.Device) {
	for _, v := range d.bufferViews {
		v.release(dev)
	}
	for _, a := range d.accessors {
		if a.view.index < 0 {
			a.view.release(dev)
		}
	}
	for _, m := range d.materials {
		m.release(dev)
	}
	for _, m := range d.meshes {
		for _, p := range m.primitives {
			if p.dev == dev {
				p.dev = nil
			}
		}
	}
	d.logger.Debug("document released", "base", d.baseURI)
}
