package loader

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidDataURI is returned for a data URI without a comma or with an unsupported encoding.
var ErrInvalidDataURI = errors.New("invalid data URI")

// IsDataURI reports whether uri carries its payload inline.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:")
}

// EncodeDataURI builds a base64 data URI.
//
// Parameters:
//   - mimeType: the media type, empty for application/octet-stream
//   - data: the payload
//
// Returns:
//   - string: data:<mimeType>;base64,<payload>
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI decodes data:[<mediatype>][;base64],<data>. Payloads without ;base64 are
// percent-decoded text.
//
// Parameters:
//   - uri: the data URI
//
// Returns:
//   - []byte: the payload
//   - string: the media type, empty when absent
//   - error: ErrInvalidDataURI wrapped with the reason
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !IsDataURI(uri) {
		return nil, "", fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURI)
	}
	header, payload, found := strings.Cut(uri[len("data:"):], ",")
	if !found {
		return nil, "", fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	mediaType, _, _ = strings.Cut(mediaType, ";")

	if !isBase64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return []byte(text), mediaType, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some exporters drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to decode base64: %v", ErrInvalidDataURI, err)
		}
	}
	return data, mediaType, nil
}
