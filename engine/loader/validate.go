package loader

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every structural problem found in a description.
var ErrMalformed = errors.New("malformed glTF description")

// malformed formats a validation failure wrapping ErrMalformed.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// checkIndex reports whether *idx is a valid index into a collection of length n. Nil is valid.
func checkIndex(idx *int, n int) bool {
	return idx == nil || (*idx >= 0 && *idx < n)
}

func inRange(idx, n int) bool {
	return idx >= 0 && idx < n
}

// Validate checks that every cross reference of doc resolves, that transform arrays have the
// right length, that byte ranges fit their containers and that the node hierarchy is a forest.
// Nothing is resolved or allocated; the first problem found is returned.
//
// Parameters:
//   - doc: the decoded document
//   - hasBinaryChunk: whether a GLB BIN chunk is available to back buffer 0
//
// Returns:
//   - error: nil, ErrInvalidVersion, or an error wrapping ErrMalformed
func Validate(doc *GLTFDocument, hasBinaryChunk bool) error {
	if err := checkVersion(doc); err != nil {
		return err
	}
	if len(doc.ExtensionsRequired) > 0 {
		return malformed("required extensions are not supported: %v", doc.ExtensionsRequired)
	}

	for _, check := range []func(*GLTFDocument, bool) error{
		validateBuffers,
		validateBufferViews,
		validateAccessors,
		validateImages,
		validateTextures,
		validateMaterials,
		validateMeshes,
		validateSkins,
		validateCameras,
		validateNodes,
		validateScenes,
	} {
		if err := check(doc, hasBinaryChunk); err != nil {
			return err
		}
	}
	return nil
}

func validateBuffers(doc *GLTFDocument, hasBinaryChunk bool) error {
	for i, b := range doc.Buffers {
		if b.ByteLength < 0 {
			return malformed("buffer %d: negative byteLength %d", i, b.ByteLength)
		}
		if b.URI == "" && !(i == 0 && hasBinaryChunk) {
			return malformed("buffer %d has no URI and no GLB binary chunk", i)
		}
	}
	return nil
}

func validateBufferViews(doc *GLTFDocument, _ bool) error {
	for i, v := range doc.BufferViews {
		if !inRange(v.Buffer, len(doc.Buffers)) {
			return malformed("bufferView %d: buffer index %d out of range", i, v.Buffer)
		}
		if v.ByteOffset < 0 || v.ByteLength < 0 {
			return malformed("bufferView %d: negative offset or length", i)
		}
		if end := v.ByteOffset + v.ByteLength; end > doc.Buffers[v.Buffer].ByteLength {
			return malformed("bufferView %d: range [%d, %d) exceeds buffer %d of %d bytes",
				i, v.ByteOffset, end, v.Buffer, doc.Buffers[v.Buffer].ByteLength)
		}
		if v.ByteStride != nil && (*v.ByteStride < 4 || *v.ByteStride > 252 || *v.ByteStride%4 != 0) {
			return malformed("bufferView %d: invalid byteStride %d", i, *v.ByteStride)
		}
	}
	return nil
}

func validateAccessors(doc *GLTFDocument, _ bool) error {
	for i, a := range doc.Accessors {
		if a.Sparse != nil {
			return malformed("accessor %d: sparse accessors are not supported", i)
		}
		size := ComponentTypeSize(a.ComponentType)
		if size == 0 {
			return malformed("accessor %d: unknown componentType %d", i, a.ComponentType)
		}
		comps := AccessorTypeComponentCount(a.Type)
		if comps == 0 {
			return malformed("accessor %d: unknown type %q", i, a.Type)
		}
		if a.Count < 1 || a.ByteOffset < 0 {
			return malformed("accessor %d: invalid count %d or byteOffset %d", i, a.Count, a.ByteOffset)
		}
		if !checkIndex(a.BufferView, len(doc.BufferViews)) {
			return malformed("accessor %d: bufferView index %d out of range", i, *a.BufferView)
		}
		if a.BufferView == nil {
			continue
		}
		view := doc.BufferViews[*a.BufferView]
		elem := size * comps
		stride := elem
		if view.ByteStride != nil {
			stride = *view.ByteStride
		}
		if end := a.ByteOffset + stride*(a.Count-1) + elem; end > view.ByteLength {
			return malformed("accessor %d: needs %d bytes of bufferView %d which has %d", i, end, *a.BufferView, view.ByteLength)
		}
	}
	return nil
}

func validateImages(doc *GLTFDocument, _ bool) error {
	for i, img := range doc.Images {
		if img.URI == "" && img.BufferView == nil {
			return malformed("image %d has neither uri nor bufferView", i)
		}
		if !checkIndex(img.BufferView, len(doc.BufferViews)) {
			return malformed("image %d: bufferView index %d out of range", i, *img.BufferView)
		}
		if img.BufferView != nil && img.MimeType == "" {
			return malformed("image %d: mimeType is required with bufferView", i)
		}
	}
	return nil
}

func validateTextures(doc *GLTFDocument, _ bool) error {
	for i, t := range doc.Textures {
		if t.Source == nil {
			return malformed("texture %d has no source image", i)
		}
		if !checkIndex(t.Source, len(doc.Images)) {
			return malformed("texture %d: source index %d out of range", i, *t.Source)
		}
		if !checkIndex(t.Sampler, len(doc.Samplers)) {
			return malformed("texture %d: sampler index %d out of range", i, *t.Sampler)
		}
	}
	return nil
}

func validateMaterials(doc *GLTFDocument, _ bool) error {
	for i, m := range doc.Materials {
		pbr := m.PbrMetallicRoughness
		if pbr == nil {
			continue
		}
		if pbr.BaseColorFactor != nil && len(pbr.BaseColorFactor) != 4 {
			return malformed("material %d: baseColorFactor has %d components, want 4", i, len(pbr.BaseColorFactor))
		}
		if pbr.BaseColorTexture != nil && !inRange(pbr.BaseColorTexture.Index, len(doc.Textures)) {
			return malformed("material %d: texture index %d out of range", i, pbr.BaseColorTexture.Index)
		}
	}
	return nil
}

func validateMeshes(doc *GLTFDocument, _ bool) error {
	for i, m := range doc.Meshes {
		if len(m.Primitives) == 0 {
			return malformed("mesh %d has no primitives", i)
		}
		for j, p := range m.Primitives {
			if !checkIndex(p.Indices, len(doc.Accessors)) {
				return malformed("mesh %d primitive %d: indices accessor %d out of range", i, j, *p.Indices)
			}
			if !checkIndex(p.Material, len(doc.Materials)) {
				return malformed("mesh %d primitive %d: material %d out of range", i, j, *p.Material)
			}
			if p.Mode != nil && (*p.Mode < PrimitiveModePoints || *p.Mode > PrimitiveModeTriangleFan) {
				return malformed("mesh %d primitive %d: unknown mode %d", i, j, *p.Mode)
			}
			for name, idx := range p.Attributes {
				if !inRange(idx, len(doc.Accessors)) {
					return malformed("mesh %d primitive %d: attribute %s accessor %d out of range", i, j, name, idx)
				}
			}
		}
	}
	return nil
}

func validateSkins(doc *GLTFDocument, _ bool) error {
	for i, s := range doc.Skins {
		if len(s.Joints) == 0 {
			return malformed("skin %d has no joints", i)
		}
		for _, j := range s.Joints {
			if !inRange(j, len(doc.Nodes)) {
				return malformed("skin %d: joint node %d out of range", i, j)
			}
		}
		if !checkIndex(s.Skeleton, len(doc.Nodes)) {
			return malformed("skin %d: skeleton node %d out of range", i, *s.Skeleton)
		}
		if s.InverseBindMatrices == nil {
			continue
		}
		if !inRange(*s.InverseBindMatrices, len(doc.Accessors)) {
			return malformed("skin %d: inverseBindMatrices accessor %d out of range", i, *s.InverseBindMatrices)
		}
		acc := doc.Accessors[*s.InverseBindMatrices]
		if acc.Type != AccessorTypeMat4 || acc.ComponentType != ComponentTypeFloat || acc.Count < len(s.Joints) {
			return malformed("skin %d: inverseBindMatrices must be %d FLOAT MAT4 elements", i, len(s.Joints))
		}
	}
	return nil
}

func validateCameras(doc *GLTFDocument, _ bool) error {
	for i, c := range doc.Cameras {
		switch c.Type {
		case CameraTypePerspective:
			p := c.Perspective
			if p == nil {
				return malformed("camera %d: missing perspective block", i)
			}
			if p.Yfov <= 0 || p.Znear <= 0 || (p.Zfar != nil && *p.Zfar <= p.Znear) {
				return malformed("camera %d: invalid perspective parameters", i)
			}
		case CameraTypeOrthographic:
			o := c.Orthographic
			if o == nil {
				return malformed("camera %d: missing orthographic block", i)
			}
			if o.Xmag == 0 || o.Ymag == 0 || o.Znear < 0 || o.Zfar <= o.Znear {
				return malformed("camera %d: invalid orthographic parameters", i)
			}
		default:
			return malformed("camera %d: unknown type %q", i, c.Type)
		}
	}
	return nil
}

// validateNodes checks node references, transform lengths and that no node has two parents or
// is its own ancestor.
func validateNodes(doc *GLTFDocument, _ bool) error {
	n := len(doc.Nodes)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	for i, node := range doc.Nodes {
		if !checkIndex(node.Mesh, len(doc.Meshes)) {
			return malformed("node %d: mesh %d out of range", i, *node.Mesh)
		}
		if !checkIndex(node.Skin, len(doc.Skins)) {
			return malformed("node %d: skin %d out of range", i, *node.Skin)
		}
		if !checkIndex(node.Camera, len(doc.Cameras)) {
			return malformed("node %d: camera %d out of range", i, *node.Camera)
		}
		if node.Matrix != nil && len(node.Matrix) != 16 {
			return malformed("node %d: matrix has %d elements, want 16", i, len(node.Matrix))
		}
		if node.Translation != nil && len(node.Translation) != 3 {
			return malformed("node %d: translation has %d elements, want 3", i, len(node.Translation))
		}
		if node.Rotation != nil && len(node.Rotation) != 4 {
			return malformed("node %d: rotation has %d elements, want 4", i, len(node.Rotation))
		}
		if node.Scale != nil && len(node.Scale) != 3 {
			return malformed("node %d: scale has %d elements, want 3", i, len(node.Scale))
		}
		for _, c := range node.Children {
			if !inRange(c, n) {
				return malformed("node %d: child %d out of range", i, c)
			}
			if c == i {
				return malformed("node %d lists itself as a child", i)
			}
			if parent[c] != -1 {
				return malformed("node %d has two parents (%d and %d)", c, parent[c], i)
			}
			parent[c] = i
		}
	}

	// With single parents a cycle shows up as a walk up the parent chain that never reaches a root.
	for i := range doc.Nodes {
		steps := 0
		for p := parent[i]; p != -1; p = parent[p] {
			if p == i || steps > n {
				return malformed("node %d is part of a cycle", i)
			}
			steps++
		}
	}
	return nil
}

func validateScenes(doc *GLTFDocument, _ bool) error {
	if doc.Scene != nil && !inRange(*doc.Scene, len(doc.Scenes)) {
		return malformed("scene index %d out of range", *doc.Scene)
	}
	for i, s := range doc.Scenes {
		for _, r := range s.Nodes {
			if !inRange(r, len(doc.Nodes)) {
				return malformed("scene %d: root node %d out of range", i, r)
			}
		}
	}
	return nil
}
