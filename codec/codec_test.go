package codec

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/citadel-abi/errors"
)

type sample struct {
	Name   string
	Data   []byte
	Items  []uint32
	Inner  inner
	Count  uint64
	Small  uint16
	Flag   bool
	Tag    uint8
	HasOpt bool
	Opt    uint32
}

type inner struct {
	Label string
}

func (i *inner) MarshalTLV(w *Writer) error {
	w.String(1, i.Label)
	return nil
}

func (i *inner) UnmarshalTLV(r *Reader) error {
	var err error
	i.Label, err = r.String(1)
	return err
}

func (s *sample) MarshalTLV(w *Writer) error {
	w.U8(1, s.Tag)
	w.U16(2, s.Small)
	w.U64(3, s.Count)
	w.Bool(4, s.Flag)
	w.String(5, s.Name)
	w.Bytes(6, s.Data)
	w.Nested(7, &s.Inner)
	w.List(8, len(s.Items), func(i int, lw *Writer) error {
		lw.U32(1, s.Items[i])
		return nil
	})
	if s.HasOpt {
		w.U32(9, s.Opt)
	}
	return nil
}

func (s *sample) UnmarshalTLV(r *Reader) error {
	var err error
	if s.Tag, err = r.U8(1); err != nil {
		return err
	}
	if s.Small, err = r.U16(2); err != nil {
		return err
	}
	if s.Count, err = r.U64(3); err != nil {
		return err
	}
	if s.Flag, err = r.Bool(4); err != nil {
		return err
	}
	if s.Name, err = r.String(5); err != nil {
		return err
	}
	if s.Data, err = r.Bytes(6); err != nil {
		return err
	}
	if err = r.Nested(7, &s.Inner); err != nil {
		return err
	}
	s.Items = nil
	if err = r.List(8, func(_ int, er *Reader) error {
		v, err := er.U32(1)
		s.Items = append(s.Items, v)
		return err
	}); err != nil {
		return err
	}
	if r.Has(9) {
		s.HasOpt = true
		if s.Opt, err = r.U32(9); err != nil {
			return err
		}
	}
	return nil
}

func newSample() *sample {
	return &sample{
		Tag:    7,
		Small:  0xBEEF,
		Count:  1 << 40,
		Flag:   true,
		Name:   "héllo",
		Data:   []byte{0xAA, 0xBB},
		Inner:  inner{Label: "in"},
		Items:  []uint32{1, 2, 3},
		HasOpt: true,
		Opt:    99,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := newSample()
	buf, err := Encode(KindContract, in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out sample
	if err := Decode(buf, KindContract, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Name != in.Name || out.Count != in.Count || out.Small != in.Small || out.Tag != in.Tag {
		t.Fatalf("scalar mismatch: %+v", out)
	}
	if !out.Flag || out.Inner.Label != "in" || !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("field mismatch: %+v", out)
	}
	if len(out.Items) != 3 || out.Items[2] != 3 || !out.HasOpt || out.Opt != 99 {
		t.Fatalf("list/optional mismatch: %+v", out)
	}

	again, err := Encode(KindContract, &out)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(buf, again) {
		t.Fatal("encode(decode(x)) != x")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, _ := Encode(KindInvoice, newSample())
	b, _ := Encode(KindInvoice, newSample())
	if !bytes.Equal(a, b) {
		t.Fatal("encoding is not deterministic")
	}
}

func TestEncodeEmptyList(t *testing.T) {
	s := newSample()
	s.Items = nil
	s.HasOpt = false
	buf, err := Encode(KindWallet, s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out sample
	if err := Decode(buf, KindWallet, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out.Items) != 0 || out.HasOpt {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestDecodeMalformed(t *testing.T) {
	good, err := Encode(KindContract, newSample())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	mutate := func(f func([]byte) []byte) []byte {
		c := make([]byte, len(good))
		copy(c, good)
		return f(c)
	}

	tests := []struct {
		name string
		buf  []byte
		kind Kind
	}{
		{"empty", nil, KindContract},
		{"short envelope", []byte("CTD"), KindContract},
		{"bad magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), KindContract},
		{"bad version", mutate(func(b []byte) []byte { b[4] = 2; return b }), KindContract},
		{"wrong kind", good, KindInvoice},
		{"truncated", good[:len(good)-1], KindContract},
		{"trailing bytes", append(mutate(func(b []byte) []byte { return b }), 0x00), KindContract},
		{"unknown field", append(mutate(func(b []byte) []byte { return b }), AppendField(nil, Field{ID: 100, Type: TypeU8, Value: []byte{1}})...), KindContract},
		{"header only", append([]byte("CTDL"), Version, byte(KindContract)), KindContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out sample
			err := Decode(tt.buf, tt.kind, &out)
			if errors.CodeOf(err) != errors.CodeMalformedInput {
				t.Fatalf("expected MalformedInput, got %v", err)
			}
		})
	}
}

func TestDecodeFields_Strict(t *testing.T) {
	u8 := func(id uint16, v byte) []byte { return AppendField(nil, Field{ID: id, Type: TypeU8, Value: []byte{v}}) }

	tests := []struct {
		name    string
		payload []byte
		detail  string
	}{
		{"short header", []byte{1, 2, 3}, "short field header"},
		{"short value", []byte{0, 1, TypeString, 0, 0, 0, 5, 'a', 'b'}, "short value"},
		{"duplicate id", append(u8(1, 1), u8(1, 2)...), "out of order"},
		{"descending id", append(u8(2, 1), u8(1, 2)...), "out of order"},
		{"unknown type", AppendField(nil, Field{ID: 1, Type: 42}), "unknown type"},
		{"zero type", AppendField(nil, Field{ID: 1, Type: 0}), "unknown type"},
		{"bad width", AppendField(nil, Field{ID: 1, Type: TypeU32, Value: []byte{1, 2}}), "invalid width"},
		{"bad bool", AppendField(nil, Field{ID: 1, Type: TypeBool, Value: []byte{2}}), "non-canonical bool"},
		{"bad utf8", AppendField(nil, Field{ID: 1, Type: TypeString, Value: []byte{0xff, 0xfe}}), "invalid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFields(tt.payload)
			if errors.CodeOf(err) != errors.CodeMalformedInput {
				t.Fatalf("expected MalformedInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Fatalf("error %q does not mention %q", err, tt.detail)
			}
		})
	}
}

func TestReader_TypeMismatchAndMissing(t *testing.T) {
	payload := AppendField(nil, Field{ID: 1, Type: TypeU8, Value: []byte{1}})
	r, err := NewReader(payload)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.String(1); errors.CodeOf(err) != errors.CodeMalformedInput {
		t.Fatalf("type mismatch: got %v", err)
	}
	if _, err := r.U8(2); errors.CodeOf(err) != errors.CodeMalformedInput {
		t.Fatalf("missing field: got %v", err)
	}
	if err := r.Done(); errors.CodeOf(err) != errors.CodeMalformedInput {
		t.Fatalf("unread field should fail Done: got %v", err)
	}
}

func TestNestedErrorPath(t *testing.T) {
	bad := AppendField(nil, Field{ID: 1, Type: TypeU8, Value: []byte{1}})
	payload := AppendField(nil, Field{ID: 7, Type: TypeNested, Value: bad})
	r, _ := NewReader(payload)

	var in inner
	err := r.Nested(7, &in)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected structured error, got %v", err)
	}
	if len(e.Path) != 1 || e.Path[0] != "7" {
		t.Fatalf("path = %v", e.Path)
	}
}

func TestWriter_OutOfOrder(t *testing.T) {
	_, err := Encode(KindWallet, MarshalFunc(func(w *Writer) error {
		w.U8(2, 1)
		w.U8(1, 1)
		return nil
	}))
	if errors.CodeOf(err) != errors.CodeSerializationError {
		t.Fatalf("expected SerializationError, got %v", err)
	}
}

func TestWriter_ValueTooLarge(t *testing.T) {
	saved := maxValueLen
	maxValueLen = 4
	defer func() { maxValueLen = saved }()

	buf, err := Encode(KindWallet, MarshalFunc(func(w *Writer) error {
		w.Bytes(1, []byte("12345"))
		return nil
	}))
	if errors.CodeOf(err) != errors.CodeSerializationError {
		t.Fatalf("expected SerializationError, got %v", err)
	}
	if buf != nil {
		t.Fatal("failed encode must not return a partial buffer")
	}
}

func TestWriter_MarshalerError(t *testing.T) {
	_, err := Encode(KindWallet, MarshalFunc(func(w *Writer) error {
		return stderrors.New("collaborator refused")
	}))
	if errors.CodeOf(err) != errors.CodeSerializationError {
		t.Fatalf("expected SerializationError, got %v", err)
	}
}

func TestDecode_UnmarshalerErrorIsMalformed(t *testing.T) {
	buf, _ := Encode(KindInvoice, MarshalFunc(func(w *Writer) error {
		w.U8(1, 1)
		return nil
	}))
	err := Decode(buf, KindInvoice, UnmarshalFunc(func(r *Reader) error {
		r.U8(1)
		return errors.InvalidArgument(errors.PhaseDecode, "semantic check failed")
	}))
	if errors.CodeOf(err) != errors.CodeMalformedInput {
		t.Fatalf("expected MalformedInput, got %v", err)
	}
}

func TestPeekKind(t *testing.T) {
	buf, _ := Encode(KindInvoice, newSample())
	k, ok := PeekKind(buf)
	if !ok || k != KindInvoice {
		t.Fatalf("PeekKind = %v, %v", k, ok)
	}
	if _, ok := PeekKind([]byte("nope")); ok {
		t.Fatal("PeekKind accepted garbage")
	}
}

func TestBech32RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0x01, 0xFE, 0x42}, 60) // longer than 90 chars once encoded
	s, err := EncodeBech32("i", data)
	if err != nil {
		t.Fatalf("EncodeBech32: %v", err)
	}
	if len(s) <= 90 {
		t.Fatalf("expected long string, got %d chars", len(s))
	}

	hrp, got, isM, err := DecodeBech32(s)
	if err != nil {
		t.Fatalf("DecodeBech32: %v", err)
	}
	if hrp != "i" || isM || !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: hrp=%q m=%v", hrp, isM)
	}

	if _, err := DecodeBech32HRP(s, "rgb"); errors.CodeOf(err) != errors.CodeMalformedInput {
		t.Fatalf("wrong hrp: got %v", err)
	}
	if _, err := DecodeBech32HRP(strings.ToUpper(s), "i"); err != nil {
		t.Fatalf("upper-case form should decode: %v", err)
	}
}

func TestBech32_BadChecksum(t *testing.T) {
	s, _ := EncodeBech32("rgb", []byte("contract"))
	last := s[len(s)-1]
	repl := byte('q')
	if last == 'q' {
		repl = 'p'
	}
	broken := s[:len(s)-1] + string(repl)

	_, _, _, err := DecodeBech32(broken)
	if errors.CodeOf(err) != errors.CodeMalformedInput {
		t.Fatalf("expected MalformedInput, got %v", err)
	}
}
