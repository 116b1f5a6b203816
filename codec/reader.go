package codec

import (
	"encoding/binary"
	"strconv"

	"github.com/wippyai/citadel-abi/errors"
)

// Unmarshaler is implemented by objects decodable from their TLV form.
type Unmarshaler interface {
	UnmarshalTLV(r *Reader) error
}

// UnmarshalFunc adapts a function to the Unmarshaler interface.
type UnmarshalFunc func(r *Reader) error

func (f UnmarshalFunc) UnmarshalTLV(r *Reader) error { return f(r) }

// Reader gives typed access to decoded fields. Every field must be consumed
// before Done, so unknown fields are rejected.
type Reader struct {
	fields []Field
	used   []bool
	path   []string
}

// NewReader decodes payload into a reader.
func NewReader(payload []byte) (*Reader, error) {
	return newReader(payload, nil)
}

func newReader(payload []byte, path []string) (*Reader, error) {
	fields, err := DecodeFields(payload, path...)
	if err != nil {
		return nil, err
	}
	return &Reader{
		fields: fields,
		used:   make([]bool, len(fields)),
		path:   path,
	}, nil
}

func (r *Reader) malformed(detail string, args ...any) error {
	return errors.Malformed(errors.PhaseDecode, r.path, detail, args...)
}

func (r *Reader) lookup(id uint16) (int, bool) {
	// fields are sorted by id
	lo, hi := 0, len(r.fields)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case r.fields[mid].ID == id:
			return mid, true
		case r.fields[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

func (r *Reader) take(id uint16, typ uint8) ([]byte, error) {
	i, ok := r.lookup(id)
	if !ok {
		return nil, r.malformed("missing field %d", id)
	}
	f := r.fields[i]
	if f.Type != typ {
		return nil, r.malformed("field %d type mismatch: got %d want %d", id, f.Type, typ)
	}
	r.used[i] = true
	return f.Value, nil
}

// Has reports whether field id is present.
func (r *Reader) Has(id uint16) bool {
	_, ok := r.lookup(id)
	return ok
}

// U8 reads a required uint8 field.
func (r *Reader) U8(id uint16) (uint8, error) {
	v, err := r.take(id, TypeU8)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// U16 reads a required uint16 field.
func (r *Reader) U16(id uint16) (uint16, error) {
	v, err := r.take(id, TypeU16)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(v), nil
}

// U32 reads a required uint32 field.
func (r *Reader) U32(id uint16) (uint32, error) {
	v, err := r.take(id, TypeU32)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v), nil
}

// U64 reads a required uint64 field.
func (r *Reader) U64(id uint16) (uint64, error) {
	v, err := r.take(id, TypeU64)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

// Bool reads a required boolean field.
func (r *Reader) Bool(id uint16) (bool, error) {
	v, err := r.take(id, TypeBool)
	if err != nil {
		return false, err
	}
	return v[0] == 1, nil
}

// String reads a required string field.
func (r *Reader) String(id uint16) (string, error) {
	v, err := r.take(id, TypeString)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Bytes reads a required byte field. The result is a copy.
func (r *Reader) Bytes(id uint16) ([]byte, error) {
	v, err := r.take(id, TypeBytes)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Nested decodes a required nested field into u.
func (r *Reader) Nested(id uint16, u Unmarshaler) error {
	v, err := r.take(id, TypeNested)
	if err != nil {
		return err
	}
	p := make([]string, len(r.path), len(r.path)+1)
	copy(p, r.path)
	c, err := newReader(v, append(p, strconv.Itoa(int(id))))
	if err != nil {
		return err
	}
	if err := u.UnmarshalTLV(c); err != nil {
		return asMalformed(c.path, err)
	}
	return c.Done()
}

// List decodes a list written by Writer.List, calling fn per entry.
func (r *Reader) List(id uint16, fn func(i int, r *Reader) error) error {
	return r.Nested(id, UnmarshalFunc(func(lr *Reader) error {
		for i := range lr.fields {
			if lr.fields[i].ID != uint16(i) {
				return lr.malformed("list entry %d has id %d", i, lr.fields[i].ID)
			}
			idx := i
			if err := lr.Nested(uint16(i), UnmarshalFunc(func(er *Reader) error {
				return fn(idx, er)
			})); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Done fails if any field was left unread.
func (r *Reader) Done() error {
	for i, used := range r.used {
		if !used {
			return r.malformed("unexpected field %d", r.fields[i].ID)
		}
	}
	return nil
}

func asMalformed(path []string, err error) error {
	if errors.CodeOf(err) == errors.CodeMalformedInput {
		return err
	}
	e := errors.Malformed(errors.PhaseDecode, path, "invalid value")
	e.Cause = err
	return e
}
