package block

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"
)

const (
	// AirName is the name of the block that fills every voxel that was never written.
	AirName = "minecraft:air"
	// UnknownName is the placeholder block that disk data is mapped to when its state is not registered.
	UnknownName = "minecraft:unknown"

	// CurrentBlockVersion is the version that built-in states are registered with. The version is composed
	// of 4 bytes indicating a game version, interpreted as a big endian int. This is 1.21.60.33, or 18168865.
	CurrentBlockVersion int32 = 1<<24 | 21<<16 | 60<<8 | 33
)

// State is the identity of a block variant: its name and the property set that describes it. Version records
// the block schema version the property set was written for.
type State struct {
	Name       string         `nbt:"name"`
	Properties map[string]any `nbt:"states"`
	Version    int32          `nbt:"version"`
}

// Equal reports if s and o describe the same block. The version and the order of properties are ignored.
func (s State) Equal(o State) bool {
	if s.Name != o.Name {
		return false
	}
	a, err := canonicalProperties(s.Properties)
	if err != nil {
		return false
	}
	b, err := canonicalProperties(o.Properties)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// String returns the name of the state followed by its properties.
func (s State) String() string {
	keys := slices.Sorted(maps.Keys(s.Properties))
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%v", k, s.Properties[k])
	}
	b.WriteByte(']')
	return b.String()
}

// clone returns a copy of s holding its own property map.
func (s State) clone() State {
	s.Properties = cloneProperties(s.Properties)
	return s
}

func cloneProperties(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []any:
		l := make([]any, len(v))
		for i, e := range v {
			l[i] = cloneValue(e)
		}
		return l
	case map[string]any:
		return cloneProperties(v)
	}
	return v
}

// normaliseProperties converts a property set to the NBT value types a block state may hold. bool values
// become uint8 and wider Go integer and float types are narrowed to their NBT counterparts.
func normaliseProperties(m map[string]any) (map[string]any, error) {
	n := make(map[string]any, len(m))
	for k, v := range m {
		if k == "" {
			return nil, fmt.Errorf("empty property name")
		}
		nv, err := normaliseValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %v: %w", k, err)
		}
		n[k] = nv
	}
	return n, nil
}

func normaliseValue(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return uint8(1), nil
		}
		return uint8(0), nil
	case uint8, int32, int64, float32, string:
		return v, nil
	case int8:
		return int32(v), nil
	case int16:
		return int32(v), nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("int value %v overflows int32", v)
		}
		return int32(v), nil
	case float64:
		return float32(v), nil
	case []any:
		l := make([]any, len(v))
		for i, e := range v {
			ne, err := normaliseValue(e)
			if err != nil {
				return nil, fmt.Errorf("list element %v: %w", i, err)
			}
			// NBT lists hold elements of a single tag type.
			if i > 0 && reflect.TypeOf(ne) != reflect.TypeOf(l[0]) {
				return nil, fmt.Errorf("list element %v is %T, list holds %T", i, ne, l[0])
			}
			l[i] = ne
		}
		return l, nil
	case map[string]any:
		return normaliseProperties(v)
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// Value type tags used in the canonical property encoding. They mirror the NBT tag IDs.
const (
	tagByte     = 1
	tagInt      = 3
	tagLong     = 4
	tagFloat    = 5
	tagString   = 8
	tagList     = 9
	tagCompound = 10
)

// canonicalProperties produces a byte encoding of a property set that is independent of map iteration
// order. Two property sets are equal if and only if their canonical encodings are equal.
func canonicalProperties(m map[string]any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeCanonicalCompound(buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonicalCompound(buf *bytes.Buffer, m map[string]any) error {
	keys := slices.Sorted(maps.Keys(m))
	for _, k := range keys {
		writeCanonicalString(buf, k)
		if err := writeCanonicalValue(buf, m[k]); err != nil {
			return fmt.Errorf("property %v: %w", k, err)
		}
	}
	buf.WriteByte(0)
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.Write(binary.AppendUvarint(nil, uint64(len(s))))
	buf.WriteString(s)
}

func writeCanonicalValue(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case bool:
		buf.WriteByte(tagByte)
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case uint8:
		buf.WriteByte(tagByte)
		buf.WriteByte(v)
	case int32:
		buf.WriteByte(tagInt)
		buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(v)))
	case int64:
		buf.WriteByte(tagLong)
		buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(v)))
	case float32:
		buf.WriteByte(tagFloat)
		buf.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
	case string:
		buf.WriteByte(tagString)
		writeCanonicalString(buf, v)
	case []any:
		buf.WriteByte(tagList)
		buf.Write(binary.AppendUvarint(nil, uint64(len(v))))
		for i, e := range v {
			if err := writeCanonicalValue(buf, e); err != nil {
				return fmt.Errorf("list element %v: %w", i, err)
			}
		}
	case map[string]any:
		buf.WriteByte(tagCompound)
		return writeCanonicalCompound(buf, v)
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// identityKey returns the map key used to look up a state by name and properties.
func identityKey(name string, props map[string]any) (string, error) {
	p, err := canonicalProperties(props)
	if err != nil {
		return "", err
	}
	return name + "\x00" + string(p), nil
}
