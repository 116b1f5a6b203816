package codec

import (
	"encoding/binary"
	"strconv"

	"github.com/wippyai/citadel-abi/errors"
)

// Marshaler is implemented by objects with a canonical TLV form.
// Fields must be written in ascending id order.
type Marshaler interface {
	MarshalTLV(w *Writer) error
}

// Writer accumulates TLV fields. The first failure is sticky; once set,
// further writes are ignored and Bytes reports it.
type Writer struct {
	err  error
	buf  []byte
	path []string
	last int
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{last: -1}
}

func (w *Writer) child(id uint16) *Writer {
	p := make([]string, len(w.path), len(w.path)+1)
	copy(p, w.path)
	return &Writer{last: -1, path: append(p, strconv.Itoa(int(id)))}
}

func (w *Writer) field(id uint16, typ uint8, val []byte) {
	if w.err != nil {
		return
	}
	if int(id) <= w.last {
		w.err = errors.Serialization(w.path, "field %d written after %d", id, w.last)
		return
	}
	if uint64(len(val)) > maxValueLen {
		w.err = errors.Serialization(w.path, "field %d value of %d bytes exceeds limit", id, len(val))
		return
	}
	w.last = int(id)
	w.buf = AppendField(w.buf, Field{ID: id, Type: typ, Value: val})
}

// U8 writes a uint8 field.
func (w *Writer) U8(id uint16, v uint8) {
	w.field(id, TypeU8, []byte{v})
}

// U16 writes a uint16 field.
func (w *Writer) U16(id uint16, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.field(id, TypeU16, b[:])
}

// U32 writes a uint32 field.
func (w *Writer) U32(id uint16, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.field(id, TypeU32, b[:])
}

// U64 writes a uint64 field.
func (w *Writer) U64(id uint16, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.field(id, TypeU64, b[:])
}

// Bool writes a boolean field.
func (w *Writer) Bool(id uint16, v bool) {
	var b byte
	if v {
		b = 1
	}
	w.field(id, TypeBool, []byte{b})
}

// String writes a UTF-8 string field.
func (w *Writer) String(id uint16, v string) {
	w.field(id, TypeString, []byte(v))
}

// Bytes writes an opaque byte field.
func (w *Writer) Bytes(id uint16, v []byte) {
	w.field(id, TypeBytes, v)
}

// Nested writes m as a nested TLV payload.
func (w *Writer) Nested(id uint16, m Marshaler) {
	if w.err != nil {
		return
	}
	c := w.child(id)
	if err := m.MarshalTLV(c); err != nil && c.err == nil {
		c.err = asSerialization(c.path, err)
	}
	if c.err != nil {
		w.err = c.err
		return
	}
	w.field(id, TypeNested, c.buf)
}

// List writes n nested entries under id, entry i at nested id i.
func (w *Writer) List(id uint16, n int, fn func(i int, w *Writer) error) {
	if w.err != nil {
		return
	}
	if n > 1<<16 {
		w.err = errors.Serialization(w.path, "list %d has %d entries", id, n)
		return
	}
	w.Nested(id, MarshalFunc(func(lw *Writer) error {
		for i := 0; i < n; i++ {
			lw.Nested(uint16(i), MarshalFunc(func(ew *Writer) error {
				return fn(i, ew)
			}))
		}
		return lw.Err()
	}))
}

// Err returns the first write failure.
func (w *Writer) Err() error {
	return w.err
}

// Result returns the encoded fields, or nothing if any write failed.
func (w *Writer) Result() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.buf == nil {
		return []byte{}, nil
	}
	return w.buf, nil
}

// MarshalFunc adapts a function to the Marshaler interface.
type MarshalFunc func(w *Writer) error

func (f MarshalFunc) MarshalTLV(w *Writer) error { return f(w) }

func asSerialization(path []string, err error) error {
	if errors.CodeOf(err) == errors.CodeSerializationError {
		return err
	}
	e := errors.Serialization(path, "marshal failed")
	e.Cause = err
	return e
}
