// gltf_types.go holds the glTF 2.0 JSON schema as decoded from disk, before any index is resolved.
// Transform arrays are slices rather than fixed arrays so that a wrong-length array is reported
// by validation instead of being silently truncated by encoding/json.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html

package loader

// GLTFDocument is the root object of a glTF asset.
type GLTFDocument struct {
	Asset GLTFAsset `json:"asset"`

	// Scene is the index of the scene shown on load. Nil selects scene 0 when scenes exist.
	Scene *int `json:"scene,omitempty"`

	Scenes      []GLTFScene      `json:"scenes,omitempty"`
	Nodes       []GLTFNode       `json:"nodes,omitempty"`
	Meshes      []GLTFMesh       `json:"meshes,omitempty"`
	Accessors   []GLTFAccessor   `json:"accessors,omitempty"`
	BufferViews []GLTFBufferView `json:"bufferViews,omitempty"`
	Buffers     []GLTFBuffer     `json:"buffers,omitempty"`
	Materials   []GLTFMaterial   `json:"materials,omitempty"`
	Textures    []GLTFTexture    `json:"textures,omitempty"`
	Images      []GLTFImage      `json:"images,omitempty"`
	Samplers    []GLTFSampler    `json:"samplers,omitempty"`
	Skins       []GLTFSkin       `json:"skins,omitempty"`
	Cameras     []GLTFCamera     `json:"cameras,omitempty"`

	ExtensionsUsed     []string `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`
}

// ActiveScene returns the index of the scene to show, or -1 when the document has no scenes.
func (d *GLTFDocument) ActiveScene() int {
	if d.Scene != nil {
		return *d.Scene
	}
	if len(d.Scenes) > 0 {
		return 0
	}
	return -1
}

// GLTFAsset is the asset metadata block. Version is required.
type GLTFAsset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Copyright  string `json:"copyright,omitempty"`
}

// GLTFScene lists the root nodes of one scene.
type GLTFScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// GLTFNode is one entry of the node hierarchy.
// A node carries either Matrix or any of Translation, Rotation and Scale.
type GLTFNode struct {
	Name     string `json:"name,omitempty"`
	Children []int  `json:"children,omitempty"`

	Mesh   *int `json:"mesh,omitempty"`
	Skin   *int `json:"skin,omitempty"`
	Camera *int `json:"camera,omitempty"`

	// Matrix is 16 floats, column-major.
	Matrix []float32 `json:"matrix,omitempty"`
	// Translation is x, y, z.
	Translation []float32 `json:"translation,omitempty"`
	// Rotation is a unit quaternion x, y, z, w.
	Rotation []float32 `json:"rotation,omitempty"`
	// Scale is x, y, z.
	Scale []float32 `json:"scale,omitempty"`
}

// GLTFMesh is an ordered list of primitives.
type GLTFMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []GLTFPrimitive `json:"primitives"`
}

// GLTFPrimitive is one draw worth of geometry.
type GLTFPrimitive struct {
	// Attributes maps a semantic such as POSITION or TEXCOORD_0 to an accessor index.
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	// Mode is the topology, TRIANGLES when nil.
	Mode *int `json:"mode,omitempty"`
}

// Primitive topology codes.
const (
	PrimitiveModePoints      = 0
	PrimitiveModeTriangles   = 4
	PrimitiveModeTriangleFan = 6
)

// GLTFAccessor is a typed view over a buffer view.
type GLTFAccessor struct {
	Name string `json:"name,omitempty"`

	// BufferView is nil for an accessor whose elements are all zero.
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"`
	ComponentType int       `json:"componentType"`
	Normalized    bool      `json:"normalized,omitempty"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max,omitempty"`
	Min           []float32 `json:"min,omitempty"`

	// Sparse is decoded only so it can be rejected.
	Sparse *GLTFAccessorSparse `json:"sparse,omitempty"`
}

// GLTFAccessorSparse marks sparse storage, which is not supported.
type GLTFAccessorSparse struct {
	Count int `json:"count"`
}

// Accessor component type codes.
const (
	ComponentTypeByte          = 5120
	ComponentTypeUnsignedByte  = 5121
	ComponentTypeShort         = 5122
	ComponentTypeUnsignedShort = 5123
	ComponentTypeUnsignedInt   = 5125
	ComponentTypeFloat         = 5126
)

// Accessor element types.
const (
	AccessorTypeScalar = "SCALAR"
	AccessorTypeVec2   = "VEC2"
	AccessorTypeVec3   = "VEC3"
	AccessorTypeVec4   = "VEC4"
	AccessorTypeMat2   = "MAT2"
	AccessorTypeMat3   = "MAT3"
	AccessorTypeMat4   = "MAT4"
)

// GLTFBufferView is a byte range of a buffer.
type GLTFBufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	// ByteStride is set for interleaved vertex data only.
	ByteStride *int `json:"byteStride,omitempty"`
	// Target is 34962 for vertex data or 34963 for indices.
	Target *int `json:"target,omitempty"`
}

// GLTFBuffer is a block of binary data addressed by URI, or the GLB binary chunk when URI is empty.
type GLTFBuffer struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// GLTFMaterial is the subset of the material schema the fixed lighting model uses.
type GLTFMaterial struct {
	Name                 string                    `json:"name,omitempty"`
	PbrMetallicRoughness *GLTFPbrMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
}

// GLTFPbrMetallicRoughness carries the base colour inputs.
type GLTFPbrMetallicRoughness struct {
	BaseColorFactor  []float32        `json:"baseColorFactor,omitempty"`
	BaseColorTexture *GLTFTextureInfo `json:"baseColorTexture,omitempty"`
}

// GLTFTextureInfo references a texture and the UV set it is sampled with.
type GLTFTextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

// GLTFTexture pairs an image with a sampler.
type GLTFTexture struct {
	Name    string `json:"name,omitempty"`
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
}

// GLTFImage is pixel data addressed by URI or stored in a buffer view with a MIME type.
type GLTFImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

// GLTFSampler holds filter and wrap codes. Nil fields use the defaults of the consumer.
type GLTFSampler struct {
	Name      string `json:"name,omitempty"`
	MagFilter *int   `json:"magFilter,omitempty"`
	MinFilter *int   `json:"minFilter,omitempty"`
	WrapS     *int   `json:"wrapS,omitempty"`
	WrapT     *int   `json:"wrapT,omitempty"`
}

// GLTFSkin binds a joint list to inverse bind matrices.
type GLTFSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

// Camera projection types.
const (
	CameraTypePerspective  = "perspective"
	CameraTypeOrthographic = "orthographic"
)

// GLTFCamera is a projection. Exactly one of Perspective or Orthographic matches Type.
type GLTFCamera struct {
	Name         string            `json:"name,omitempty"`
	Type         string            `json:"type"`
	Perspective  *GLTFPerspective  `json:"perspective,omitempty"`
	Orthographic *GLTFOrthographic `json:"orthographic,omitempty"`
}

// GLTFPerspective is a perspective projection. Yfov is in radians. A nil Zfar means infinite.
type GLTFPerspective struct {
	AspectRatio *float32 `json:"aspectRatio,omitempty"`
	Yfov        float32  `json:"yfov"`
	Zfar        *float32 `json:"zfar,omitempty"`
	Znear       float32  `json:"znear"`
}

// GLTFOrthographic is an orthographic projection given by half extents.
type GLTFOrthographic struct {
	Xmag  float32 `json:"xmag"`
	Ymag  float32 `json:"ymag"`
	Zfar  float32 `json:"zfar"`
	Znear float32 `json:"znear"`
}

// glbHeader is the 12 byte GLB file header.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type glbHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// glbChunkHeader precedes every GLB chunk.
type glbChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)

// ComponentTypeSize returns the byte size of a component type code, or 0 for an unknown code.
func ComponentTypeSize(componentType int) int {
	switch componentType {
	case ComponentTypeByte, ComponentTypeUnsignedByte:
		return 1
	case ComponentTypeShort, ComponentTypeUnsignedShort:
		return 2
	case ComponentTypeUnsignedInt, ComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// AccessorTypeComponentCount returns the number of components per element, or 0 for an unknown type.
func AccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case AccessorTypeScalar:
		return 1
	case AccessorTypeVec2:
		return 2
	case AccessorTypeVec3:
		return 3
	case AccessorTypeVec4, AccessorTypeMat2:
		return 4
	case AccessorTypeMat3:
		return 9
	case AccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
