package codec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/citadel-abi/errors"
)

// HeaderLen is the size of a field header: id u16 | type u8 | len u32.
const HeaderLen = 7

// Field type tags.
const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeU64    uint8 = 4
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
	TypeNested uint8 = 8
)

// maxValueLen bounds a single field value. Variable for tests.
var maxValueLen uint64 = 1<<32 - 1

// Field is one decoded TLV field. Value aliases the decoded payload.
type Field struct {
	Value []byte
	ID    uint16
	Type  uint8
}

func fixedWidth(typ uint8) (int, bool) {
	switch typ {
	case TypeU8, TypeBool:
		return 1, true
	case TypeU16:
		return 2, true
	case TypeU32:
		return 4, true
	case TypeU64:
		return 8, true
	}
	return 0, false
}

func knownType(typ uint8) bool {
	return typ >= TypeU8 && typ <= TypeNested
}

// AppendField appends the encoding of f to dst.
func AppendField(dst []byte, f Field) []byte {
	var hdr [HeaderLen]byte
	binary.BigEndian.PutUint16(hdr[0:2], f.ID)
	hdr[2] = f.Type
	binary.BigEndian.PutUint32(hdr[3:7], uint32(len(f.Value)))
	dst = append(dst, hdr[:]...)
	return append(dst, f.Value...)
}

// DecodeFields splits payload into fields and checks canonical form:
// strictly ascending ids, known types, exact fixed widths, canonical
// booleans and valid UTF-8 strings. Nested payloads are checked when read.
func DecodeFields(payload []byte, path ...string) ([]Field, error) {
	fields := make([]Field, 0, 8)
	last := -1
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, errors.Malformed(errors.PhaseDecode, path, "short field header: %d bytes at offset %d", len(payload)-i, i)
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typ := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen

		if int(id) <= last {
			return nil, errors.Malformed(errors.PhaseDecode, path, "field %d out of order after %d", id, last)
		}
		last = int(id)

		if !knownType(typ) {
			return nil, errors.Malformed(errors.PhaseDecode, path, "field %d has unknown type %d", id, typ)
		}
		if uint64(len(payload)-i) < uint64(l) {
			return nil, errors.Malformed(errors.PhaseDecode, path, "short value for field %d: want %d bytes, have %d", id, l, len(payload)-i)
		}
		val := payload[i : i+int(l)]
		i += int(l)

		if w, ok := fixedWidth(typ); ok && len(val) != w {
			return nil, errors.Malformed(errors.PhaseDecode, path, "field %d: invalid width %d for type %d", id, len(val), typ)
		}
		if typ == TypeBool && val[0] > 1 {
			return nil, errors.Malformed(errors.PhaseDecode, path, "field %d: non-canonical bool %d", id, val[0])
		}
		if typ == TypeString && !utf8.Valid(val) {
			return nil, errors.Malformed(errors.PhaseDecode, path, "field %d: invalid UTF-8", id)
		}

		fields = append(fields, Field{ID: id, Type: typ, Value: val})
	}
	return fields, nil
}
