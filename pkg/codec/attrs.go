package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskvault/taskvault/pkg/logger"
)

// Serialization constants for the delimited attribute format.
const (
	// Separator delimits fields in a serialized attribute string.
	Separator = "|"
	// SeparatorEscape replaces literal separator characters occurring
	// inside keys and string values.
	SeparatorEscape = "!PIPE!"
)

// Type tags identifying the primitive type of a serialized value.
const (
	tagInt    = 'i'
	tagDouble = 'd'
	tagLong   = 'l'
	tagString = 's'
	tagBool   = 'b'
)

// ErrUnsupportedType is returned by Encode when an attribute value is not
// one of the five supported primitive types.
var ErrUnsupportedType = errors.New("unsupported attribute type")

// AttributeMap is a string-keyed mapping of primitive attribute values
// that preserves insertion order. Encode emits entries in insertion order
// and Decode returns them in encounter order, which keeps serialized
// strings stable across round trips.
type AttributeMap struct {
	keys   []string
	values map[string]any
}

// NewAttributeMap returns an empty attribute map.
func NewAttributeMap() *AttributeMap {
	return &AttributeMap{values: make(map[string]any)}
}

// Set stores a value under key. Setting an existing key overwrites the
// value but keeps the key's original position.
func (m *AttributeMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *AttributeMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of attributes.
func (m *AttributeMap) Len() int {
	return len(m.keys)
}

// Keys returns the attribute names in insertion order.
func (m *AttributeMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Map returns the attributes as a plain map. Insertion order is lost.
func (m *AttributeMap) Map() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// AttrCodec serializes attribute maps into single-line delimited strings
// and back. Decode never fails: malformed entries are recovered or
// dropped per entry and reported through the diagnostics logger, so
// attribute strings persisted by older or newer versions still load.
type AttrCodec struct {
	log logger.Logger
}

// NewAttrCodec creates an attribute codec. Decode diagnostics are emitted
// through log; pass nil to discard them.
func NewAttrCodec(log logger.Logger) *AttrCodec {
	if log == nil {
		log = logger.Nop()
	}
	return &AttrCodec{log: log}
}

// Encode serializes attrs into a single delimited string. Each entry
// contributes "key|Tvalue|" where T is the value's type tag. Literal
// separators in keys and string values are escaped. Values outside the
// five supported primitive types fail the whole encode.
func (c *AttrCodec) Encode(attrs *AttributeMap) (string, error) {
	if attrs == nil {
		return "", nil
	}
	var b strings.Builder
	for _, key := range attrs.keys {
		if err := appendSerialized(&b, key, attrs.values[key]); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func appendSerialized(b *strings.Builder, key string, value any) error {
	b.WriteString(escape(key))
	b.WriteString(Separator)
	switch v := value.(type) {
	case int:
		b.WriteByte(tagInt)
		b.WriteString(strconv.Itoa(v))
	case int32:
		b.WriteByte(tagInt)
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case float64:
		b.WriteByte(tagDouble)
		b.WriteString(FormatDouble(v))
	case int64:
		b.WriteByte(tagLong)
		b.WriteString(strconv.FormatInt(v, 10))
	case string:
		b.WriteByte(tagString)
		b.WriteString(escape(v))
	case bool:
		b.WriteByte(tagBool)
		b.WriteString(strconv.FormatBool(v))
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
	b.WriteString(Separator)
	return nil
}

// Decode parses a serialized attribute string. An empty input yields an
// empty map. Tokens are walked in (key, value) pairs; per-entry failures
// never abort the decode:
//
//   - a numeric value that fails to parse is kept as a string
//   - an incomplete trailing pair is dropped
//   - an entry with an unknown type tag is dropped
//
// Each recovery is reported through the diagnostics logger.
func (c *AttrCodec) Decode(serialized string) *AttributeMap {
	attrs := NewAttributeMap()
	if serialized == "" {
		return attrs
	}

	tokens := strings.Split(serialized, Separator)
	// Every entry ends with a separator, so a well-formed string splits
	// into pairs plus trailing empty tokens. Drop the trailing empties
	// before walking pairs.
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}

	for i := 0; i < len(tokens); i += 2 {
		key := unescape(tokens[i])
		if i+1 >= len(tokens) || tokens[i+1] == "" {
			c.log.Error("codec: dropping incomplete attribute pair, key:", key)
			continue
		}
		tag, text := tokens[i+1][0], tokens[i+1][1:]
		switch tag {
		case tagInt:
			n, err := strconv.ParseInt(text, 10, 32)
			if err != nil {
				attrs.Set(key, unescape(text))
				c.log.Error("codec: malformed int attribute kept as string, key:", key, "err:", err)
				continue
			}
			attrs.Set(key, int(n))
		case tagDouble:
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				attrs.Set(key, unescape(text))
				c.log.Error("codec: malformed double attribute kept as string, key:", key, "err:", err)
				continue
			}
			attrs.Set(key, f)
		case tagLong:
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				attrs.Set(key, unescape(text))
				c.log.Error("codec: malformed long attribute kept as string, key:", key, "err:", err)
				continue
			}
			attrs.Set(key, n)
		case tagString:
			attrs.Set(key, unescape(text))
		case tagBool:
			attrs.Set(key, strings.EqualFold(text, "true"))
		default:
			c.log.Error("codec: dropping attribute with unknown type tag, key:", key, "tag:", string(tag))
		}
	}
	return attrs
}

// FormatValue returns the tagged textual form of a single attribute value,
// exactly as it would appear after the key separator in an encoded entry.
// The secondary index uses this so lookups match encode output.
func FormatValue(value any) (string, error) {
	var b strings.Builder
	if err := appendSerialized(&b, "", value); err != nil {
		return "", err
	}
	s := b.String()
	// Strip the empty key, its separator and the trailing separator.
	return s[1 : len(s)-1], nil
}

// FormatDouble renders a float64 the way Encode does.
func FormatDouble(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func escape(s string) string {
	return strings.ReplaceAll(s, Separator, SeparatorEscape)
}

func unescape(s string) string {
	return strings.ReplaceAll(s, SeparatorEscape, Separator)
}
