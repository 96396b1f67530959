package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Errors returned while decoding a description.
var (
	ErrInvalidVersion    = errors.New("invalid glTF version: must be 2.x")
	ErrInvalidGLBMagic   = errors.New("invalid GLB magic number")
	ErrInvalidGLBVersion = errors.New("invalid GLB version: must be 2")
	ErrMissingJSONChunk  = errors.New("GLB file missing JSON chunk")
	ErrTruncatedGLB      = errors.New("GLB file truncated")
	ErrNotText           = errors.New("description is not UTF-8 text")
)

// Source is a decoded, validated description plus the GLB binary chunk when it came from a GLB container.
type Source struct {
	// Document is the decoded JSON.
	Document *GLTFDocument

	// BinaryChunk is the GLB BIN chunk, bound to buffer 0. Nil for plain JSON.
	BinaryChunk []byte

	// BaseURI is where the description was read from. Relative resource URIs resolve against it.
	BaseURI string
}

// ParseString decodes a JSON description held in a string.
//
// Parameters:
//   - text: the JSON text
//
// Returns:
//   - *Source: the validated source
//   - error: error if decoding or validation fails
func ParseString(text string) (*Source, error) {
	return parseJSON([]byte(text))
}

// Parse decodes an opaque binary blob. A blob starting with the GLB magic is read as a GLB
// container, anything else must be UTF-8 JSON text.
//
// Parameters:
//   - data: the blob
//
// Returns:
//   - *Source: the validated source
//   - error: error if decoding or validation fails
func Parse(data []byte) (*Source, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic {
		return parseGLB(data)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, ErrNotText
	}
	return parseJSON(data)
}

// ParseReader reads r to the end and decodes it like Parse.
//
// Parameters:
//   - r: the reader holding JSON or GLB data
//
// Returns:
//   - *Source: the validated source
//   - error: error if reading, decoding or validation fails
func ParseReader(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return Parse(data)
}

// FromMap decodes a description given as a bare object, as produced by json.Unmarshal into map[string]any.
//
// Parameters:
//   - obj: the object
//
// Returns:
//   - *Source: the validated source
//   - error: error if the object does not match the schema or fails validation
func FromMap(obj map[string]any) (*Source, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode object: %w", err)
	}
	return parseJSON(data)
}

// FromDocument validates an already decoded document.
//
// Parameters:
//   - doc: the document
//
// Returns:
//   - *Source: the validated source
//   - error: error if validation fails
func FromDocument(doc *GLTFDocument) (*Source, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformed)
	}
	if err := Validate(doc, false); err != nil {
		return nil, err
	}
	return &Source{Document: doc}, nil
}

func parseJSON(data []byte) (*Source, error) {
	var doc GLTFDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse glTF JSON: %v", ErrMalformed, err)
	}
	if err := Validate(&doc, false); err != nil {
		return nil, err
	}
	return &Source{Document: &doc}, nil
}

// parseGLB splits a GLB container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func parseGLB(data []byte) (*Source, error) {
	if len(data) < 12 {
		return nil, ErrTruncatedGLB
	}
	r := bytes.NewReader(data)

	var header glbHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != glbMagic {
		return nil, ErrInvalidGLBMagic
	}
	if header.Version != glbVersion {
		return nil, ErrInvalidGLBVersion
	}

	var jsonData, binData []byte
	for {
		var chunk glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: chunk header: %v", ErrTruncatedGLB, err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return nil, fmt.Errorf("%w: chunk of %d bytes with %d left", ErrTruncatedGLB, chunk.ChunkLength, r.Len())
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("%w: chunk data: %v", ErrTruncatedGLB, err)
		}
		switch chunk.ChunkType {
		case glbChunkJSON:
			if jsonData == nil {
				jsonData = body
			}
		case glbChunkBIN:
			if binData == nil {
				binData = body
			}
		}
	}
	if jsonData == nil {
		return nil, ErrMissingJSONChunk
	}

	var doc GLTFDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse glTF JSON: %v", ErrMalformed, err)
	}
	if err := Validate(&doc, binData != nil); err != nil {
		return nil, err
	}
	return &Source{Document: &doc, BinaryChunk: binData}, nil
}

// checkVersion accepts any 2.x asset.
func checkVersion(doc *GLTFDocument) error {
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: got %q", ErrInvalidVersion, doc.Asset.Version)
	}
	return nil
}
