package builder

import (
	"mime"
	"strings"

	"github.com/bytedance/sonic"
)

const jsonMimeType = "application/json"

// bodyJSON round-trips bodies without changing values: numbers stay json.Number
// literals and HTML characters are not escaped. Object keys come out sorted.
var bodyJSON = sonic.Config{
	UseNumber:        true,
	SortMapKeys:      true,
	EscapeHTML:       false,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
}.Froze()

// ParsedBody is either a decoded JSON document or the raw bytes when decoding was not
// attempted or failed. Exactly one of the two is meaningful, as reported by IsJSON.
type ParsedBody struct {
	Value  interface{}
	Raw    []byte
	isJSON bool
}

func (b ParsedBody) IsJSON() bool {
	return b.isJSON
}

func IsJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	return strings.EqualFold(mediaType, jsonMimeType)
}

// ParseBody decodes a JSON body. Any other content type, and any body that is not
// valid JSON, yields the raw variant.
func ParseBody(contentType string, body []byte) ParsedBody {
	if !IsJSONContentType(contentType) || len(body) == 0 {
		return ParsedBody{Raw: body}
	}

	var value interface{}
	err := bodyJSON.Unmarshal(body, &value)
	if err != nil {
		return ParsedBody{Raw: body}
	}
	return ParsedBody{Value: value, isJSON: true}
}
